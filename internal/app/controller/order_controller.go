package controller

import (
	"github.com/gin-gonic/gin"
	"github.com/milanenterprises/cleancare-backend/internal/app/service"
	apperrors "github.com/milanenterprises/cleancare-backend/internal/errors"
	"github.com/milanenterprises/cleancare-backend/internal/middleware"
)

type OrderController struct {
	orderService service.OrderService
}

func NewOrderController(orderService service.OrderService) *OrderController {
	return &OrderController{
		orderService: orderService,
	}
}

type OrderItemRequest struct {
	ProductID uint   `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
	Variant   string `json:"variant" binding:"omitempty,max=100"`
}

type CreateOrderRequest struct {
	Items           []OrderItemRequest `json:"items" binding:"omitempty,dive"`
	ShippingAddress AddressRequest     `json:"shipping_address" binding:"required"`
	BillingAddress  *AddressRequest    `json:"billing_address" binding:"omitempty"`
	PaymentMethod   string             `json:"payment_method" binding:"omitempty,max=50"`
	CouponCode      string             `json:"coupon_code" binding:"omitempty,max=50"`
	Notes           string             `json:"notes" binding:"omitempty,max=1000"`
}

// CreateOrder places an order from the given items or, without items, from the caller's cart
// POST /api/v1/orders
func (ctrl *OrderController) CreateOrder(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindError(c, err)
		return
	}

	input := service.CreateOrderInput{
		Items:           make([]service.OrderItemInput, 0, len(req.Items)),
		ShippingAddress: req.ShippingAddress.input(),
		PaymentMethod:   req.PaymentMethod,
		CouponCode:      req.CouponCode,
		Notes:           req.Notes,
	}
	for _, item := range req.Items {
		input.Items = append(input.Items, service.OrderItemInput{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Variant:   item.Variant,
		})
	}
	if req.BillingAddress != nil {
		billing := req.BillingAddress.input()
		input.BillingAddress = &billing
	}

	order, err := ctrl.orderService.CreateOrder(userID, input)
	if err != nil {
		respondError(c, err, "create order")
		return
	}

	log.Info("Order created successfully", map[string]interface{}{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"total":        order.Total,
	})
	apperrors.Created(c, "Order created successfully", gin.H{"order": order})
}

// GET /api/v1/orders
func (ctrl *OrderController) GetMyOrders(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var query pageQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		apperrors.RespondWithBindError(c, err)
		return
	}

	page, err := ctrl.orderService.GetUserOrders(userID, query.Page, query.Limit, query.Status)
	if err != nil {
		respondError(c, err, "fetch orders")
		return
	}
	apperrors.OK(c, page)
}

// GET /api/v1/orders/:id
func (ctrl *OrderController) GetOrder(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	order, err := ctrl.orderService.GetOrderByID(userID, id)
	if err != nil {
		respondError(c, err, "fetch order")
		return
	}
	apperrors.OK(c, gin.H{"order": order})
}

// PUT /api/v1/orders/:id/cancel
func (ctrl *OrderController) CancelOrder(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	order, err := ctrl.orderService.CancelOrder(userID, id)
	if err != nil {
		respondError(c, err, "cancel order")
		return
	}

	middleware.GetLoggerFromContext(c).Info("Order cancelled by customer", map[string]interface{}{
		"order_id": id,
		"user_id":  userID,
	})
	apperrors.OKWithMessage(c, "Order cancelled successfully", gin.H{"order": order})
}
