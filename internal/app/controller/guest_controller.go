package controller

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/milanenterprises/cleancare-backend/internal/app/model"
	"github.com/milanenterprises/cleancare-backend/internal/app/service"
	"github.com/milanenterprises/cleancare-backend/internal/clientstore"
	apperrors "github.com/milanenterprises/cleancare-backend/internal/errors"
)

// GuestController serves cart and wishlist state for visitors without an account,
// keyed by the X-Session-ID header
type GuestController struct {
	productService service.ProductService
	persister      clientstore.Persister
}

func NewGuestController(productService service.ProductService, persister clientstore.Persister) *GuestController {
	return &GuestController{
		productService: productService,
		persister:      persister,
	}
}

type GuestCartRequest struct {
	ProductID uint   `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
	Variant   string `json:"variant" binding:"omitempty,max=100"`
}

type GuestCartUpdateRequest struct {
	Quantity int    `json:"quantity" binding:"required,min=1"`
	Variant  string `json:"variant" binding:"omitempty,max=100"`
}

type GuestCartView struct {
	Items    []model.CartItem         `json:"items"`
	Summary  model.CartSummary        `json:"summary"`
	Snapshot clientstore.CartSnapshot `json:"snapshot"`
}

func (ctrl *GuestController) cartStore(c *gin.Context) (*clientstore.CartStore, bool) {
	store, err := clientstore.OpenCartStore(c.Request.Context(), ctrl.persister, c.GetHeader(SessionHeader))
	if err != nil {
		respondError(c, err, "open guest cart")
		return nil, false
	}
	return store, true
}

func (ctrl *GuestController) wishlistStore(c *gin.Context) (*clientstore.WishlistStore, bool) {
	store, err := clientstore.OpenWishlistStore(c.Request.Context(), ctrl.persister, c.GetHeader(SessionHeader))
	if err != nil {
		respondError(c, err, "open guest wishlist")
		return nil, false
	}
	return store, true
}

// cartView resolves current prices; lines whose product has gone away are left out of the summary
func (ctrl *GuestController) cartView(snap clientstore.CartSnapshot) (*GuestCartView, error) {
	items := make([]model.CartItem, 0, len(snap.Lines))
	for _, line := range snap.Lines {
		product, err := ctrl.productService.GetProductByID(line.ProductID, 0)
		if err != nil {
			if errors.Is(err, service.ErrProductNotFound) {
				continue
			}
			return nil, err
		}
		items = append(items, model.CartItem{
			ProductID: line.ProductID,
			Variant:   line.Variant,
			Quantity:  line.Quantity,
			Product:   *product,
		})
	}
	return &GuestCartView{
		Items:    items,
		Summary:  service.SummarizeCart(items),
		Snapshot: snap,
	}, nil
}

func (ctrl *GuestController) respondCart(c *gin.Context, snap clientstore.CartSnapshot) {
	view, err := ctrl.cartView(snap)
	if err != nil {
		respondError(c, err, "fetch guest cart")
		return
	}
	apperrors.OK(c, view)
}

// checkStock verifies the product is purchasable in the requested total quantity
func (ctrl *GuestController) checkStock(productID uint, quantity int) error {
	product, err := ctrl.productService.GetProductByID(productID, 0)
	if err != nil {
		return err
	}
	if product.StockQuantity < quantity {
		return fmt.Errorf("%w for %s", service.ErrInsufficientStock, product.Name)
	}
	return nil
}

func lineQuantity(snap clientstore.CartSnapshot, productID uint, variant string) int {
	for _, line := range snap.Lines {
		if line.ProductID == productID && line.Variant == variant {
			return line.Quantity
		}
	}
	return 0
}

// GET /api/v1/guest/cart
func (ctrl *GuestController) GetCart(c *gin.Context) {
	store, ok := ctrl.cartStore(c)
	if !ok {
		return
	}
	ctrl.respondCart(c, store.Snapshot())
}

// POST /api/v1/guest/cart
func (ctrl *GuestController) AddToCart(c *gin.Context) {
	var req GuestCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindError(c, err)
		return
	}
	store, ok := ctrl.cartStore(c)
	if !ok {
		return
	}

	existing := lineQuantity(store.Snapshot(), req.ProductID, req.Variant)
	if err := ctrl.checkStock(req.ProductID, existing+req.Quantity); err != nil {
		respondError(c, err, "add to guest cart")
		return
	}

	snap, err := store.Add(c.Request.Context(), req.ProductID, req.Variant, req.Quantity)
	if err != nil {
		respondError(c, err, "add to guest cart")
		return
	}
	ctrl.respondCart(c, snap)
}

// PUT /api/v1/guest/cart/:product_id
func (ctrl *GuestController) UpdateCartItem(c *gin.Context) {
	productID, ok := idParam(c, "product_id")
	if !ok {
		return
	}
	var req GuestCartUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindError(c, err)
		return
	}
	store, ok := ctrl.cartStore(c)
	if !ok {
		return
	}

	if err := ctrl.checkStock(productID, req.Quantity); err != nil {
		respondError(c, err, "update guest cart")
		return
	}

	snap, err := store.Update(c.Request.Context(), productID, req.Variant, req.Quantity)
	if err != nil {
		respondError(c, err, "update guest cart")
		return
	}
	ctrl.respondCart(c, snap)
}

// DELETE /api/v1/guest/cart/:product_id?variant=
func (ctrl *GuestController) RemoveFromCart(c *gin.Context) {
	productID, ok := idParam(c, "product_id")
	if !ok {
		return
	}
	store, ok := ctrl.cartStore(c)
	if !ok {
		return
	}

	snap, err := store.Remove(c.Request.Context(), productID, c.Query("variant"))
	if err != nil {
		respondError(c, err, "remove from guest cart")
		return
	}
	ctrl.respondCart(c, snap)
}

// DELETE /api/v1/guest/cart
func (ctrl *GuestController) ClearCart(c *gin.Context) {
	store, ok := ctrl.cartStore(c)
	if !ok {
		return
	}

	snap, err := store.Clear(c.Request.Context())
	if err != nil {
		respondError(c, err, "clear guest cart")
		return
	}
	ctrl.respondCart(c, snap)
}

// GET /api/v1/guest/wishlist
func (ctrl *GuestController) GetWishlist(c *gin.Context) {
	store, ok := ctrl.wishlistStore(c)
	if !ok {
		return
	}
	apperrors.OK(c, store.Snapshot())
}

// POST /api/v1/guest/wishlist
func (ctrl *GuestController) AddToWishlist(c *gin.Context) {
	var req AddToWishlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindError(c, err)
		return
	}
	store, ok := ctrl.wishlistStore(c)
	if !ok {
		return
	}

	if _, err := ctrl.productService.GetProductByID(req.ProductID, 0); err != nil {
		respondError(c, err, "add to guest wishlist")
		return
	}

	snap, err := store.Add(c.Request.Context(), req.ProductID)
	if err != nil {
		respondError(c, err, "add to guest wishlist")
		return
	}
	apperrors.OK(c, snap)
}

// DELETE /api/v1/guest/wishlist/:product_id
func (ctrl *GuestController) RemoveFromWishlist(c *gin.Context) {
	productID, ok := idParam(c, "product_id")
	if !ok {
		return
	}
	store, ok := ctrl.wishlistStore(c)
	if !ok {
		return
	}

	snap, err := store.Remove(c.Request.Context(), productID)
	if err != nil {
		respondError(c, err, "remove from guest wishlist")
		return
	}
	apperrors.OK(c, snap)
}

// DELETE /api/v1/guest/wishlist
func (ctrl *GuestController) ClearWishlist(c *gin.Context) {
	store, ok := ctrl.wishlistStore(c)
	if !ok {
		return
	}

	snap, err := store.Clear(c.Request.Context())
	if err != nil {
		respondError(c, err, "clear guest wishlist")
		return
	}
	apperrors.OK(c, snap)
}
