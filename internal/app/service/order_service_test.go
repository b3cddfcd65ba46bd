package service

import (
	"sync"
	"testing"
	"time"

	"github.com/milanenterprises/cleancare-backend/internal/app/model"
	"github.com/milanenterprises/cleancare-backend/internal/app/repository"
	"github.com/milanenterprises/cleancare-backend/pkg/pricing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.OrderEvent
}

func (p *recordingPublisher) Publish(event model.OrderEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) types() []model.OrderEventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.OrderEventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type orderFixture struct {
	service   OrderService
	db        *gorm.DB
	user      *model.User
	product   *model.Product
	publisher *recordingPublisher
}

func setupOrderServiceTest(t *testing.T) orderFixture {
	testDB := setupTestDB(t)
	publisher := &recordingPublisher{}
	orderService := NewOrderService(
		testDB,
		repository.NewOrderRepository(testDB),
		repository.NewCartRepository(testDB),
		repository.NewProductRepository(testDB),
		OrderServiceConfig{
			Rules:        pricing.DefaultRules(),
			NumberPrefix: "CC",
			Publisher:    publisher,
		},
	)

	user := createTestUser(t, testDB, "buyer@example.com")
	category := createTestCategory(t, testDB, "household")
	product := createTestProduct(t, testDB, category.ID, "Concentrated Floor Cleaner", 30, 10)

	return orderFixture{
		service:   orderService,
		db:        testDB,
		user:      user,
		product:   product,
		publisher: publisher,
	}
}

func createTestCoupon(t *testing.T, testDB *gorm.DB, coupon *model.Coupon) *model.Coupon {
	require.NoError(t, testDB.Create(coupon).Error)
	return coupon
}

func TestOrderService_CreateOrder_FromItemsWithCoupon(t *testing.T) {
	f := setupOrderServiceTest(t)
	createTestCoupon(t, f.db, &model.Coupon{Code: "SAVE10", Type: pricing.CouponPercentage, Value: 10})

	order, err := f.service.CreateOrder(f.user.ID, CreateOrderInput{
		Items:           []OrderItemInput{{ProductID: f.product.ID, Quantity: 2, Variant: "5L"}},
		ShippingAddress: testAddress(),
		CouponCode:      "save10",
	})
	require.NoError(t, err)

	assert.Equal(t, 60.0, order.Subtotal)
	assert.Equal(t, 0.0, order.Shipping)
	assert.Equal(t, 6.0, order.Discount)
	assert.Equal(t, 4.32, order.Tax)
	assert.Equal(t, 58.32, order.Total)
	assert.Equal(t, model.OrderStatusPending, order.Status)
	assert.Equal(t, "whatsapp", order.PaymentMethod)
	assert.Regexp(t, `^CC-\d+-[0-9A-F]{8}$`, order.OrderNumber)

	require.Len(t, order.OrderItems, 1)
	assert.Equal(t, 30.0, order.OrderItems[0].Price)
	assert.Equal(t, "5L", order.OrderItems[0].Variant)
	require.Len(t, order.Coupons, 1)
	assert.Equal(t, 6.0, order.Coupons[0].Discount)

	require.NotNil(t, order.ShippingAddress)
	assert.Equal(t, "Pune", order.ShippingAddress.City)
	require.NotNil(t, order.BillingAddressID)
	assert.Equal(t, order.ShippingAddressID, *order.BillingAddressID)

	assert.Equal(t, 8, stockOf(t, f.db, f.product.ID))

	var coupon model.Coupon
	require.NoError(t, f.db.Where("code = ?", "SAVE10").First(&coupon).Error)
	assert.Equal(t, 1, coupon.UsedCount)

	assert.Equal(t, []model.OrderEventType{model.OrderEventCreated}, f.publisher.types())
}

func TestOrderService_CreateOrder_FromCart(t *testing.T) {
	f := setupOrderServiceTest(t)
	cartRepo := repository.NewCartRepository(f.db)
	require.NoError(t, cartRepo.Create(&model.CartItem{UserID: f.user.ID, ProductID: f.product.ID, Quantity: 1}))

	billing := testAddress()
	billing.Address1 = "88 Office Park"
	order, err := f.service.CreateOrder(f.user.ID, CreateOrderInput{
		ShippingAddress: testAddress(),
		BillingAddress:  &billing,
		PaymentMethod:   "cod",
		Notes:           "Leave at the gate",
	})
	require.NoError(t, err)

	// below the free-shipping threshold
	assert.Equal(t, 30.0, order.Subtotal)
	assert.Equal(t, 5.99, order.Shipping)
	assert.Equal(t, 2.4, order.Tax)
	assert.Equal(t, 38.39, order.Total)
	assert.Equal(t, "cod", order.PaymentMethod)

	require.NotNil(t, order.BillingAddress)
	assert.Equal(t, "88 Office Park", order.BillingAddress.Address1)
	assert.Equal(t, model.AddressBilling, order.BillingAddress.Type)

	items, err := cartRepo.FindByUserID(f.user.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestOrderService_CreateOrder_Rejections(t *testing.T) {
	f := setupOrderServiceTest(t)
	inactive := createTestProduct(t, f.db, f.product.CategoryID, "Retired Spray", 5, 10)
	deactivateProduct(t, f.db, inactive.ID)

	tests := []struct {
		name    string
		input   CreateOrderInput
		wantErr error
	}{
		{
			name:    "Empty cart",
			input:   CreateOrderInput{ShippingAddress: testAddress()},
			wantErr: ErrEmptyCart,
		},
		{
			name: "Missing shipping address",
			input: CreateOrderInput{
				Items: []OrderItemInput{{ProductID: f.product.ID, Quantity: 1}},
			},
			wantErr: ErrShippingAddressRequired,
		},
		{
			name: "Unknown product",
			input: CreateOrderInput{
				Items:           []OrderItemInput{{ProductID: 9999, Quantity: 1}},
				ShippingAddress: testAddress(),
			},
			wantErr: ErrProductUnavailable,
		},
		{
			name: "Inactive product",
			input: CreateOrderInput{
				Items:           []OrderItemInput{{ProductID: inactive.ID, Quantity: 1}},
				ShippingAddress: testAddress(),
			},
			wantErr: ErrProductUnavailable,
		},
		{
			name: "Insufficient stock",
			input: CreateOrderInput{
				Items:           []OrderItemInput{{ProductID: f.product.ID, Quantity: 11}},
				ShippingAddress: testAddress(),
			},
			wantErr: ErrInsufficientStock,
		},
		{
			name: "Duplicate lines exceed stock together",
			input: CreateOrderInput{
				Items: []OrderItemInput{
					{ProductID: f.product.ID, Quantity: 6},
					{ProductID: f.product.ID, Quantity: 6, Variant: "refill"},
				},
				ShippingAddress: testAddress(),
			},
			wantErr: ErrInsufficientStock,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order, err := f.service.CreateOrder(f.user.ID, tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, order)
		})
	}

	assert.Equal(t, 10, stockOf(t, f.db, f.product.ID))
	var orders int64
	require.NoError(t, f.db.Model(&model.Order{}).Count(&orders).Error)
	assert.Zero(t, orders)
	var addresses int64
	require.NoError(t, f.db.Model(&model.Address{}).Count(&addresses).Error)
	assert.Zero(t, addresses)
}

func TestOrderService_CreateOrder_IgnoresIneligibleCoupons(t *testing.T) {
	f := setupOrderServiceTest(t)
	past := time.Now().Add(-time.Hour)
	minimum := 500.0
	limit := 1

	createTestCoupon(t, f.db, &model.Coupon{Code: "EXPIRED", Type: pricing.CouponFixedAmount, Value: 5, ExpiresAt: &past})
	createTestCoupon(t, f.db, &model.Coupon{Code: "BIGSPEND", Type: pricing.CouponFixedAmount, Value: 5, MinOrderAmount: &minimum})
	createTestCoupon(t, f.db, &model.Coupon{Code: "ONCE", Type: pricing.CouponFixedAmount, Value: 5, UsageLimit: &limit, UsedCount: 1})

	for _, code := range []string{"EXPIRED", "BIGSPEND", "ONCE", "NOSUCHCODE"} {
		t.Run(code, func(t *testing.T) {
			order, err := f.service.CreateOrder(f.user.ID, CreateOrderInput{
				Items:           []OrderItemInput{{ProductID: f.product.ID, Quantity: 1}},
				ShippingAddress: testAddress(),
				CouponCode:      code,
			})
			require.NoError(t, err)
			assert.Equal(t, 0.0, order.Discount)
			assert.Empty(t, order.Coupons)
		})
	}

	var once model.Coupon
	require.NoError(t, f.db.Where("code = ?", "ONCE").First(&once).Error)
	assert.Equal(t, 1, once.UsedCount)
}

func TestOrderService_CreateOrder_ConcurrentOrdersNeverOversell(t *testing.T) {
	f := setupOrderServiceTest(t)
	require.NoError(t, f.db.Model(&model.Product{}).Where("id = ?", f.product.ID).Update("stock_quantity", 5).Error)
	second := createTestUser(t, f.db, "second@example.com")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, userID := range []uint{f.user.ID, second.ID} {
		wg.Add(1)
		go func(i int, userID uint) {
			defer wg.Done()
			_, errs[i] = f.service.CreateOrder(userID, CreateOrderInput{
				Items:           []OrderItemInput{{ProductID: f.product.ID, Quantity: 3}},
				ShippingAddress: testAddress(),
			})
		}(i, userID)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ErrInsufficientStock)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 2, stockOf(t, f.db, f.product.ID))
}

func TestOrderService_CancelOrder_RestoresStock(t *testing.T) {
	f := setupOrderServiceTest(t)
	order, err := f.service.CreateOrder(f.user.ID, CreateOrderInput{
		Items:           []OrderItemInput{{ProductID: f.product.ID, Quantity: 3}},
		ShippingAddress: testAddress(),
	})
	require.NoError(t, err)
	assert.Equal(t, 7, stockOf(t, f.db, f.product.ID))

	stranger := createTestUser(t, f.db, "stranger@example.com")
	_, err = f.service.CancelOrder(stranger.ID, order.ID)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	cancelled, err := f.service.CancelOrder(f.user.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCancelled, cancelled.Status)
	assert.Equal(t, 10, stockOf(t, f.db, f.product.ID))

	_, err = f.service.CancelOrder(f.user.ID, order.ID)
	assert.ErrorIs(t, err, ErrOrderNotCancellable)
	assert.Equal(t, 10, stockOf(t, f.db, f.product.ID))

	assert.Equal(t, []model.OrderEventType{model.OrderEventCreated, model.OrderEventCancelled}, f.publisher.types())
}

func TestOrderService_CancelOrder_AfterShipping(t *testing.T) {
	f := setupOrderServiceTest(t)
	order, err := f.service.CreateOrder(f.user.ID, CreateOrderInput{
		Items:           []OrderItemInput{{ProductID: f.product.ID, Quantity: 1}},
		ShippingAddress: testAddress(),
	})
	require.NoError(t, err)

	_, err = f.service.UpdateOrderStatus(order.ID, model.OrderStatusShipped, "")
	require.NoError(t, err)

	_, err = f.service.CancelOrder(f.user.ID, order.ID)
	assert.ErrorIs(t, err, ErrOrderNotCancellable)
}

func TestOrderService_UpdateOrderStatus(t *testing.T) {
	f := setupOrderServiceTest(t)
	order, err := f.service.CreateOrder(f.user.ID, CreateOrderInput{
		Items:           []OrderItemInput{{ProductID: f.product.ID, Quantity: 2}},
		ShippingAddress: testAddress(),
	})
	require.NoError(t, err)

	_, err = f.service.UpdateOrderStatus(order.ID, "LOST", "")
	assert.ErrorIs(t, err, ErrInvalidOrderStatus)

	_, err = f.service.UpdateOrderStatus(9999, model.OrderStatusConfirmed, "")
	assert.ErrorIs(t, err, ErrOrderNotFound)

	shipped, err := f.service.UpdateOrderStatus(order.ID, "shipped", "TRK-42")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusShipped, shipped.Status)
	assert.Equal(t, "TRK-42", shipped.TrackingNumber)
	assert.NotNil(t, shipped.ShippedAt)

	delivered, err := f.service.UpdateOrderStatus(order.ID, model.OrderStatusDelivered, "")
	require.NoError(t, err)
	assert.NotNil(t, delivered.DeliveredAt)

	assert.Equal(t, 8, stockOf(t, f.db, f.product.ID))
	_, err = f.service.UpdateOrderStatus(order.ID, model.OrderStatusCancelled, "")
	require.NoError(t, err)
	assert.Equal(t, 10, stockOf(t, f.db, f.product.ID))

	_, err = f.service.UpdateOrderStatus(order.ID, model.OrderStatusConfirmed, "")
	assert.ErrorIs(t, err, ErrOrderAlreadyCancelled)

	// repeating the cancellation changes nothing
	_, err = f.service.UpdateOrderStatus(order.ID, model.OrderStatusCancelled, "")
	require.NoError(t, err)
	assert.Equal(t, 10, stockOf(t, f.db, f.product.ID))
}

func TestOrderService_ListingAndStats(t *testing.T) {
	f := setupOrderServiceTest(t)
	other := createTestUser(t, f.db, "other@example.com")

	var ids []uint
	for _, userID := range []uint{f.user.ID, f.user.ID, other.ID} {
		order, err := f.service.CreateOrder(userID, CreateOrderInput{
			Items:           []OrderItemInput{{ProductID: f.product.ID, Quantity: 1}},
			ShippingAddress: testAddress(),
		})
		require.NoError(t, err)
		ids = append(ids, order.ID)
	}
	_, err := f.service.UpdateOrderStatus(ids[0], model.OrderStatusDelivered, "")
	require.NoError(t, err)

	mine, err := f.service.GetUserOrders(f.user.ID, 1, 10, "")
	require.NoError(t, err)
	require.Len(t, mine.Orders, 2)
	assert.Equal(t, ids[1], mine.Orders[0].ID)

	pending, err := f.service.GetUserOrders(f.user.ID, 1, 10, "pending")
	require.NoError(t, err)
	assert.Len(t, pending.Orders, 1)

	_, err = f.service.GetUserOrders(f.user.ID, 1, 10, "unknown")
	assert.ErrorIs(t, err, ErrInvalidOrderStatus)

	_, err = f.service.GetOrderByID(other.ID, ids[0])
	assert.ErrorIs(t, err, ErrOrderNotFound)

	all, err := f.service.ListAllOrders(1, 2, "")
	require.NoError(t, err)
	assert.Len(t, all.Orders, 2)
	assert.Equal(t, int64(3), all.Pagination.Total)
	assert.Equal(t, 2, all.Pagination.Pages)

	stats, err := f.service.GetOrderStats()
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalOrders)
	assert.Equal(t, int64(1), stats.CountsByStatus[model.OrderStatusDelivered])
	assert.Equal(t, int64(2), stats.CountsByStatus[model.OrderStatusPending])
	assert.Equal(t, int64(0), stats.CountsByStatus[model.OrderStatusShipped])
	assert.Equal(t, 38.39, stats.DeliveredRevenue)
	assert.Equal(t, int64(1), stats.ActiveProducts)
	assert.Equal(t, int64(1), stats.LowStockProducts)
}

// interleavingProductRepo runs a callback right after UpdateProduct reads the product
type interleavingProductRepo struct {
	repository.ProductRepository
	afterRead func()
}

func (r *interleavingProductRepo) FindAnyByID(id uint) (*model.Product, error) {
	product, err := r.ProductRepository.FindAnyByID(id)
	if r.afterRead != nil {
		hook := r.afterRead
		r.afterRead = nil
		hook()
	}
	return product, err
}

func TestProductService_UpdateProduct_KeepsConcurrentStockChanges(t *testing.T) {
	f := setupOrderServiceTest(t)
	productRepo := &interleavingProductRepo{ProductRepository: repository.NewProductRepository(f.db)}
	productService := NewProductService(productRepo, repository.NewCategoryRepository(f.db))

	productRepo.afterRead = func() {
		_, err := f.service.CreateOrder(f.user.ID, CreateOrderInput{
			Items:           []OrderItemInput{{ProductID: f.product.ID, Quantity: 3}},
			ShippingAddress: testAddress(),
		})
		require.NoError(t, err)
	}

	name := "Floor Cleaner Refill"
	updated, err := productService.UpdateProduct(f.product.ID, UpdateProductInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Floor Cleaner Refill", updated.Name)
	assert.Equal(t, 7, updated.StockQuantity)
	assert.Equal(t, 7, stockOf(t, f.db, f.product.ID))

	stock := 20
	updated, err = productService.UpdateProduct(f.product.ID, UpdateProductInput{StockQuantity: &stock})
	require.NoError(t, err)
	assert.Equal(t, 20, updated.StockQuantity)
	assert.Equal(t, "Floor Cleaner Refill", updated.Name)
}

func TestRollbackOnPanic(t *testing.T) {
	f := setupOrderServiceTest(t)

	tx := f.db.Begin()
	require.NoError(t, tx.Error)
	assert.PanicsWithValue(t, "stock ledger corrupted", func() {
		defer rollbackOnPanic(tx, "Panic during order creation, rolling back", map[string]interface{}{
			"user_id": f.user.ID,
		})
		require.NoError(t, tx.Model(&model.Product{}).Where("id = ?", f.product.ID).Update("stock_quantity", 0).Error)
		panic("stock ledger corrupted")
	})

	assert.Equal(t, 10, stockOf(t, f.db, f.product.ID))
}
