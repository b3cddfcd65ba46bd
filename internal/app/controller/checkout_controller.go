package controller

import (
	"github.com/gin-gonic/gin"
	"github.com/milanenterprises/cleancare-backend/internal/app/service"
	apperrors "github.com/milanenterprises/cleancare-backend/internal/errors"
	"github.com/milanenterprises/cleancare-backend/pkg/whatsapp"
)

type CheckoutController struct {
	checkoutService service.CheckoutService
}

func NewCheckoutController(checkoutService service.CheckoutService) *CheckoutController {
	return &CheckoutController{checkoutService: checkoutService}
}

type CheckoutCustomerRequest struct {
	Name    string `json:"name" binding:"required,max=100"`
	Phone   string `json:"phone" binding:"required,max=20"`
	Email   string `json:"email" binding:"omitempty,email"`
	Address string `json:"address" binding:"omitempty,max=500"`
}

type CheckoutItemRequest struct {
	ProductID uint   `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
	Variant   string `json:"variant" binding:"omitempty,max=100"`
}

type WhatsAppCheckoutRequest struct {
	Customer CheckoutCustomerRequest `json:"customer" binding:"required"`
	Items    []CheckoutItemRequest   `json:"items" binding:"omitempty,dive"`
}

// WhatsApp prices the order and returns the pre-filled message with its wa.me link
// POST /api/v1/checkout/whatsapp
func (ctrl *CheckoutController) WhatsApp(c *gin.Context) {
	var req WhatsAppCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindError(c, err)
		return
	}

	input := service.CheckoutInput{
		Customer: whatsapp.Customer{
			Name:    req.Customer.Name,
			Phone:   req.Customer.Phone,
			Email:   req.Customer.Email,
			Address: req.Customer.Address,
		},
	}
	for _, item := range req.Items {
		input.Items = append(input.Items, service.CartLine{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Variant:   item.Variant,
		})
	}

	var userID *uint
	if id := viewerID(c); id != 0 {
		userID = &id
	}

	result, err := ctrl.checkoutService.PrepareWhatsAppOrder(userID, input)
	if err != nil {
		respondError(c, err, "prepare checkout")
		return
	}
	apperrors.OK(c, result)
}
