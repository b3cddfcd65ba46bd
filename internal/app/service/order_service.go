package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/milanenterprises/cleancare-backend/internal/app/model"
	"github.com/milanenterprises/cleancare-backend/internal/app/repository"
	"github.com/milanenterprises/cleancare-backend/pkg/logger"
	"github.com/milanenterprises/cleancare-backend/pkg/pricing"
	"github.com/milanenterprises/cleancare-backend/pkg/util"
	"gorm.io/gorm"
)

var (
	ErrOrderNotFound           = errors.New("order not found")
	ErrEmptyCart               = errors.New("cart is empty")
	ErrProductUnavailable      = errors.New("product not available")
	ErrShippingAddressRequired = errors.New("shipping address requires first name, address line and city")
	ErrOrderNotCancellable     = errors.New("order cannot be cancelled at this stage")
	ErrInvalidOrderStatus      = errors.New("invalid order status")
	ErrOrderAlreadyCancelled   = errors.New("cancelled orders cannot change status")
	ErrOrderStatusChanged      = errors.New("order status changed concurrently, retry")
)

const (
	defaultPaymentMethod = "whatsapp"
	defaultOrderPrefix   = "CC"
)

// OrderEventPublisher receives committed order changes; the admin feed hub implements it
type OrderEventPublisher interface {
	Publish(event model.OrderEvent)
}

type OrderItemInput struct {
	ProductID uint
	Quantity  int
	Variant   string
}

type CreateOrderInput struct {
	// Items falls back to the caller's cart when empty
	Items           []OrderItemInput
	ShippingAddress AddressInput
	BillingAddress  *AddressInput
	PaymentMethod   string
	CouponCode      string
	Notes           string
}

type OrderPage struct {
	Orders     []model.Order `json:"orders"`
	Pagination Pagination    `json:"pagination"`
}

type OrderServiceConfig struct {
	Rules        pricing.Rules
	NumberPrefix string
	Publisher    OrderEventPublisher
}

type OrderService interface {
	CreateOrder(userID uint, input CreateOrderInput) (*model.Order, error)
	GetUserOrders(userID uint, page, limit int, status string) (*OrderPage, error)
	GetOrderByID(userID, orderID uint) (*model.Order, error)
	CancelOrder(userID, orderID uint) (*model.Order, error)
	ListAllOrders(page, limit int, status string) (*OrderPage, error)
	UpdateOrderStatus(orderID uint, status model.OrderStatus, trackingNumber string) (*model.Order, error)
	GetOrderStats() (*model.OrderStats, error)
}

type orderService struct {
	db          *gorm.DB
	orderRepo   repository.OrderRepository
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	rules       pricing.Rules
	prefix      string
	publisher   OrderEventPublisher
	now         func() time.Time
}

func NewOrderService(
	db *gorm.DB,
	orderRepo repository.OrderRepository,
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	cfg OrderServiceConfig,
) OrderService {
	prefix := cfg.NumberPrefix
	if prefix == "" {
		prefix = defaultOrderPrefix
	}
	return &orderService{
		db:          db,
		orderRepo:   orderRepo,
		cartRepo:    cartRepo,
		productRepo: productRepo,
		rules:       cfg.Rules,
		prefix:      prefix,
		publisher:   cfg.Publisher,
		now:         time.Now,
	}
}

func (s *orderService) publish(t model.OrderEventType, order *model.Order) {
	if s.publisher == nil || order == nil {
		return
	}
	s.publisher.Publish(model.NewOrderEvent(t, order, s.now()))
}

func (s *orderService) resolveItems(userID uint, items []OrderItemInput) ([]OrderItemInput, error) {
	if len(items) > 0 {
		for _, item := range items {
			if item.Quantity < 1 {
				return nil, ErrInvalidQuantity
			}
		}
		return items, nil
	}

	cartItems, err := s.cartRepo.FindByUserID(userID)
	if err != nil {
		logger.Error("Failed to fetch cart items", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	if len(cartItems) == 0 {
		logger.Warn("Cannot create order: cart is empty", map[string]interface{}{
			"user_id": userID,
		})
		return nil, ErrEmptyCart
	}

	resolved := make([]OrderItemInput, 0, len(cartItems))
	for _, ci := range cartItems {
		resolved = append(resolved, OrderItemInput{
			ProductID: ci.ProductID,
			Quantity:  ci.Quantity,
			Variant:   ci.Variant,
		})
	}
	return resolved, nil
}

func validShippingAddress(in AddressInput) bool {
	return strings.TrimSpace(in.FirstName) != "" &&
		strings.TrimSpace(in.Address1) != "" &&
		strings.TrimSpace(in.City) != ""
}

// CreateOrder prices, persists and reserves stock for an order in a single transaction.
// Stock is claimed with a conditional decrement so concurrent orders can never oversell.
func (s *orderService) CreateOrder(userID uint, input CreateOrderInput) (*model.Order, error) {
	logger.Info("Creating order", map[string]interface{}{
		"user_id":     userID,
		"item_count":  len(input.Items),
		"coupon_code": input.CouponCode,
	})

	if !validShippingAddress(input.ShippingAddress) {
		return nil, ErrShippingAddressRequired
	}

	items, err := s.resolveItems(userID, input.Items)
	if err != nil {
		return nil, err
	}

	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	defer rollbackOnPanic(tx, "Panic during order creation, rolling back", map[string]interface{}{
		"user_id": userID,
	})

	lines := make([]pricing.Line, 0, len(items))
	orderItems := make([]model.OrderItem, 0, len(items))
	products := make(map[uint]model.Product, len(items))

	for _, item := range items {
		product, ok := products[item.ProductID]
		if !ok {
			if err := tx.Where("id = ? AND is_active = ?", item.ProductID, true).First(&product).Error; err != nil {
				tx.Rollback()
				if errors.Is(err, gorm.ErrRecordNotFound) {
					logger.Warn("Order creation failed: product not available", map[string]interface{}{
						"user_id":    userID,
						"product_id": item.ProductID,
					})
					return nil, fmt.Errorf("%w: product %d not found", ErrProductUnavailable, item.ProductID)
				}
				return nil, err
			}
			products[item.ProductID] = product
		}

		if product.StockQuantity < item.Quantity {
			tx.Rollback()
			logger.Warn("Order creation failed: insufficient product stock", map[string]interface{}{
				"user_id":    userID,
				"product_id": product.ID,
				"requested":  item.Quantity,
				"available":  product.StockQuantity,
			})
			return nil, fmt.Errorf("%w for %s", ErrInsufficientStock, product.Name)
		}

		lines = append(lines, pricing.Line{UnitPrice: product.Price, Quantity: item.Quantity})
		orderItems = append(orderItems, model.OrderItem{
			ProductID: product.ID,
			Quantity:  item.Quantity,
			Price:     product.Price,
			Variant:   strings.TrimSpace(item.Variant),
		})
	}

	var coupon *model.Coupon
	subtotal := pricing.Subtotal(lines)
	if code := repository.NormalizeCouponCode(input.CouponCode); code != "" {
		var found model.Coupon
		err := tx.Where("code = ?", code).First(&found).Error
		switch {
		case err == nil:
			if reason := found.Eligibility(subtotal, s.now()); reason == model.CouponOK {
				coupon = &found
			} else {
				logger.Info("Coupon ignored", map[string]interface{}{
					"code":   code,
					"reason": string(reason),
				})
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			logger.Info("Coupon ignored", map[string]interface{}{
				"code":   code,
				"reason": "not found",
			})
		default:
			tx.Rollback()
			return nil, err
		}
	}

	breakdown := s.rules.Calculate(lines, pricingCoupon(coupon))

	for _, item := range orderItems {
		result := tx.Model(&model.Product{}).
			Where("id = ? AND is_active = ? AND stock_quantity >= ?", item.ProductID, true, item.Quantity).
			Update("stock_quantity", gorm.Expr("stock_quantity - ?", item.Quantity))
		if result.Error != nil {
			tx.Rollback()
			logger.Error("Failed to update product stock", result.Error, map[string]interface{}{
				"user_id":    userID,
				"product_id": item.ProductID,
			})
			return nil, result.Error
		}
		if result.RowsAffected == 0 {
			tx.Rollback()
			logger.Warn("Order creation failed: stock claimed concurrently", map[string]interface{}{
				"user_id":    userID,
				"product_id": item.ProductID,
				"requested":  item.Quantity,
			})
			return nil, fmt.Errorf("%w for %s", ErrInsufficientStock, products[item.ProductID].Name)
		}
	}

	if coupon != nil && breakdown.Discount > 0 {
		result := tx.Model(&model.Coupon{}).
			Where("id = ? AND (usage_limit IS NULL OR used_count < usage_limit)", coupon.ID).
			Update("used_count", gorm.Expr("used_count + 1"))
		if result.Error != nil {
			tx.Rollback()
			return nil, result.Error
		}
		if result.RowsAffected == 0 {
			logger.Info("Coupon usage limit reached during checkout, dropping coupon", map[string]interface{}{
				"coupon_id": coupon.ID,
			})
			coupon = nil
			breakdown = s.rules.Calculate(lines, nil)
		}
	} else {
		coupon = nil
	}

	shippingAddr := input.ShippingAddress.ToModel(userID)
	shippingAddr.Type = model.AddressShipping
	if err := tx.Create(&shippingAddr).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	billingID := shippingAddr.ID
	if input.BillingAddress != nil {
		billingAddr := input.BillingAddress.ToModel(userID)
		billingAddr.Type = model.AddressBilling
		if !billingAddr.SameLocation(shippingAddr) {
			if err := tx.Create(&billingAddr).Error; err != nil {
				tx.Rollback()
				return nil, err
			}
			billingID = billingAddr.ID
		}
	}

	paymentMethod := strings.TrimSpace(input.PaymentMethod)
	if paymentMethod == "" {
		paymentMethod = defaultPaymentMethod
	}

	order := &model.Order{
		OrderNumber:       util.GenerateOrderNumber(s.prefix, s.now()),
		UserID:            userID,
		Status:            model.OrderStatusPending,
		Subtotal:          breakdown.Subtotal,
		Shipping:          breakdown.Shipping,
		Discount:          breakdown.Discount,
		Tax:               breakdown.Tax,
		Total:             breakdown.Total,
		PaymentMethod:     paymentMethod,
		ShippingAddressID: shippingAddr.ID,
		BillingAddressID:  &billingID,
		Notes:             strings.TrimSpace(input.Notes),
		OrderItems:        orderItems,
	}
	if err := tx.Omit("User", "ShippingAddress", "BillingAddress", "Coupons").Create(order).Error; err != nil {
		tx.Rollback()
		logger.Error("Failed to create order", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	if coupon != nil {
		orderCoupon := &model.OrderCoupon{
			OrderID:  order.ID,
			CouponID: coupon.ID,
			Discount: breakdown.Discount,
		}
		if err := tx.Omit("Coupon").Create(orderCoupon).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Where("user_id = ?", userID).Delete(&model.CartItem{}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		logger.Error("Failed to commit order transaction", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	logger.Info("Order created", map[string]interface{}{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"user_id":      userID,
		"total":        order.Total,
	})

	created, err := s.orderRepo.FindByID(order.ID)
	if err != nil {
		return nil, err
	}
	s.publish(model.OrderEventCreated, created)
	return created, nil
}

func pricingCoupon(c *model.Coupon) *pricing.Coupon {
	if c == nil {
		return nil
	}
	return c.PricingCoupon()
}

func parseStatusFilter(status string) (model.OrderStatus, error) {
	if status == "" {
		return "", nil
	}
	s := model.OrderStatus(strings.ToUpper(strings.TrimSpace(status)))
	if !s.Valid() {
		return "", ErrInvalidOrderStatus
	}
	return s, nil
}

func (s *orderService) listOrders(userID *uint, page, limit int, status string) (*OrderPage, error) {
	statusFilter, err := parseStatusFilter(status)
	if err != nil {
		return nil, err
	}
	page, limit = normalizePage(page, limit, defaultPageSize)

	orders, total, err := s.orderRepo.FindWithFilter(repository.OrderListFilter{
		UserID: userID,
		Status: statusFilter,
		Limit:  limit,
		Offset: offsetOf(page, limit),
	})
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []model.Order{}
	}
	return &OrderPage{
		Orders:     orders,
		Pagination: newPagination(page, limit, total),
	}, nil
}

func (s *orderService) GetUserOrders(userID uint, page, limit int, status string) (*OrderPage, error) {
	return s.listOrders(&userID, page, limit, status)
}

func (s *orderService) ListAllOrders(page, limit int, status string) (*OrderPage, error) {
	return s.listOrders(nil, page, limit, status)
}

func (s *orderService) GetOrderByID(userID, orderID uint) (*model.Order, error) {
	order, err := s.orderRepo.FindByIDAndUserID(orderID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

// restoreStock gives every line's quantity back to its product
func restoreStock(tx *gorm.DB, orderID uint) error {
	var items []model.OrderItem
	if err := tx.Where("order_id = ?", orderID).Find(&items).Error; err != nil {
		return err
	}
	for _, item := range items {
		if err := tx.Model(&model.Product{}).
			Where("id = ?", item.ProductID).
			Update("stock_quantity", gorm.Expr("stock_quantity + ?", item.Quantity)).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *orderService) CancelOrder(userID, orderID uint) (*model.Order, error) {
	logger.Info("Cancelling order", map[string]interface{}{
		"user_id":  userID,
		"order_id": orderID,
	})

	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	defer rollbackOnPanic(tx, "Panic during order cancellation, rolling back", map[string]interface{}{
		"order_id": orderID,
	})

	result := tx.Model(&model.Order{}).
		Where("id = ? AND user_id = ? AND status IN ?", orderID, userID,
			[]model.OrderStatus{model.OrderStatusPending, model.OrderStatusConfirmed}).
		Update("status", model.OrderStatusCancelled)
	if result.Error != nil {
		tx.Rollback()
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := tx.Model(&model.Order{}).Where("id = ? AND user_id = ?", orderID, userID).Count(&count).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
		tx.Rollback()
		if count == 0 {
			return nil, ErrOrderNotFound
		}
		logger.Warn("Order cannot be cancelled", map[string]interface{}{
			"order_id": orderID,
		})
		return nil, ErrOrderNotCancellable
	}

	if err := restoreStock(tx, orderID); err != nil {
		tx.Rollback()
		logger.Error("Failed to restore stock for cancelled order", err, map[string]interface{}{
			"order_id": orderID,
		})
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		return nil, err
	}
	s.publish(model.OrderEventCancelled, order)
	return order, nil
}

// UpdateOrderStatus sets any of the known statuses. Entering CANCELLED restores stock;
// leaving CANCELLED is refused since that stock was already released.
func (s *orderService) UpdateOrderStatus(orderID uint, status model.OrderStatus, trackingNumber string) (*model.Order, error) {
	status = model.OrderStatus(strings.ToUpper(string(status)))
	if !status.Valid() {
		return nil, ErrInvalidOrderStatus
	}
	trackingNumber = strings.TrimSpace(trackingNumber)

	logger.Info("Updating order status", map[string]interface{}{
		"order_id": orderID,
		"status":   status,
	})

	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	defer rollbackOnPanic(tx, "Panic during order status update, rolling back", map[string]interface{}{
		"order_id": orderID,
	})

	var current model.Order
	if err := tx.First(&current, orderID).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	if current.Status == model.OrderStatusCancelled {
		tx.Rollback()
		if status == model.OrderStatusCancelled {
			return s.orderRepo.FindByID(orderID)
		}
		return nil, ErrOrderAlreadyCancelled
	}

	now := s.now()
	updates := map[string]interface{}{"status": status}
	if status == model.OrderStatusShipped && trackingNumber != "" {
		updates["tracking_number"] = trackingNumber
		updates["shipped_at"] = now
	}
	if status == model.OrderStatusDelivered {
		updates["delivered_at"] = now
	}

	result := tx.Model(&model.Order{}).
		Where("id = ? AND status = ?", orderID, current.Status).
		Updates(updates)
	if result.Error != nil {
		tx.Rollback()
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		tx.Rollback()
		return nil, ErrOrderStatusChanged
	}

	if status == model.OrderStatusCancelled {
		if err := restoreStock(tx, orderID); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		return nil, err
	}
	if status == model.OrderStatusCancelled {
		s.publish(model.OrderEventCancelled, order)
	} else {
		s.publish(model.OrderEventStatusChanged, order)
	}
	return order, nil
}

func (s *orderService) GetOrderStats() (*model.OrderStats, error) {
	counts, err := s.orderRepo.CountByStatus()
	if err != nil {
		return nil, err
	}
	revenue, err := s.orderRepo.DeliveredRevenue()
	if err != nil {
		return nil, err
	}
	active, err := s.productRepo.CountActive()
	if err != nil {
		return nil, err
	}
	lowStock, err := s.productRepo.FindLowStock()
	if err != nil {
		return nil, err
	}

	var total int64
	for _, n := range counts {
		total += n
	}
	return &model.OrderStats{
		CountsByStatus:   counts,
		TotalOrders:      total,
		DeliveredRevenue: revenue,
		ActiveProducts:   active,
		LowStockProducts: int64(len(lowStock)),
	}, nil
}

// rollbackOnPanic must be deferred directly; it rolls tx back and re-panics
func rollbackOnPanic(tx *gorm.DB, message string, fields map[string]interface{}) {
	if r := recover(); r != nil {
		tx.Rollback()
		logger.Error(message, fmt.Errorf("panic: %v", r), fields)
		panic(r)
	}
}
