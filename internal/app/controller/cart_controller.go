package controller

import (
	"github.com/gin-gonic/gin"
	"github.com/milanenterprises/cleancare-backend/internal/app/service"
	"github.com/milanenterprises/cleancare-backend/internal/clientstore"
	apperrors "github.com/milanenterprises/cleancare-backend/internal/errors"
	"github.com/milanenterprises/cleancare-backend/internal/middleware"
)

const SessionHeader = "X-Session-ID"

type CartController struct {
	cartService service.CartService
	guestState  clientstore.Persister
}

// NewCartController takes the guest-state persister so a guest cart can be merged after login
func NewCartController(cartService service.CartService, guestState clientstore.Persister) *CartController {
	return &CartController{
		cartService: cartService,
		guestState:  guestState,
	}
}

type AddToCartRequest struct {
	ProductID uint   `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
	Variant   string `json:"variant" binding:"omitempty,max=100"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

type MergeCartRequest struct {
	Items []service.CartLine `json:"items" binding:"omitempty,dive"`
}

// GET /api/v1/cart
func (ctrl *CartController) GetCart(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	cart, err := ctrl.cartService.GetCart(userID)
	if err != nil {
		respondError(c, err, "fetch cart")
		return
	}
	apperrors.OK(c, cart)
}

// POST /api/v1/cart
func (ctrl *CartController) AddToCart(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindError(c, err)
		return
	}

	item, err := ctrl.cartService.AddToCart(userID, req.ProductID, req.Quantity, req.Variant)
	if err != nil {
		respondError(c, err, "add to cart")
		return
	}

	middleware.GetLoggerFromContext(c).Info("Item added to cart", map[string]interface{}{
		"user_id":      userID,
		"cart_item_id": item.ID,
	})
	apperrors.Created(c, "Item added to cart", gin.H{"item": item})
}

// PUT /api/v1/cart/:id
func (ctrl *CartController) UpdateCartItem(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	itemID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindError(c, err)
		return
	}

	item, err := ctrl.cartService.UpdateCartItem(userID, itemID, req.Quantity)
	if err != nil {
		respondError(c, err, "update cart item")
		return
	}
	apperrors.OKWithMessage(c, "Cart item updated", gin.H{"item": item})
}

// DELETE /api/v1/cart/:id
func (ctrl *CartController) RemoveFromCart(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	itemID, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.cartService.RemoveFromCart(userID, itemID); err != nil {
		respondError(c, err, "remove cart item")
		return
	}
	apperrors.OKWithMessage(c, "Item removed from cart", nil)
}

// DELETE /api/v1/cart
func (ctrl *CartController) ClearCart(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	if err := ctrl.cartService.ClearCart(userID); err != nil {
		respondError(c, err, "clear cart")
		return
	}
	apperrors.OKWithMessage(c, "Cart cleared", nil)
}

// MergeCart adds the lines of a client cart into the server cart. Without a body the guest cart
// named by X-Session-ID is merged and then emptied.
// POST /api/v1/cart/merge
func (ctrl *CartController) MergeCart(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req MergeCartRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			apperrors.RespondWithBindError(c, err)
			return
		}
	}

	var guest *clientstore.CartStore
	lines := req.Items
	if len(lines) == 0 {
		sessionID := c.GetHeader(SessionHeader)
		if sessionID == "" || ctrl.guestState == nil {
			respondError(c, service.ErrEmptyCart, "merge cart")
			return
		}
		store, err := clientstore.OpenCartStore(c.Request.Context(), ctrl.guestState, sessionID)
		if err != nil {
			respondError(c, err, "merge cart")
			return
		}
		guest = store
		for _, line := range store.Snapshot().Lines {
			lines = append(lines, service.CartLine{ProductID: line.ProductID, Variant: line.Variant, Quantity: line.Quantity})
		}
	}

	result, err := ctrl.cartService.MergeCart(userID, lines)
	if err != nil {
		respondError(c, err, "merge cart")
		return
	}

	if guest != nil {
		if _, err := guest.Clear(c.Request.Context()); err != nil {
			middleware.GetLoggerFromContext(c).Warn("Failed to clear merged guest cart", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	middleware.GetLoggerFromContext(c).Info("Cart merged", map[string]interface{}{
		"user_id":  userID,
		"lines":    len(lines),
		"failures": len(result.Failures),
	})
	apperrors.OK(c, result)
}
