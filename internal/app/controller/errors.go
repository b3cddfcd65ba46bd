package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/milanenterprises/cleancare-backend/internal/app/service"
	"github.com/milanenterprises/cleancare-backend/internal/clientstore"
	apperrors "github.com/milanenterprises/cleancare-backend/internal/errors"
	"github.com/milanenterprises/cleancare-backend/internal/middleware"
	"github.com/milanenterprises/cleancare-backend/internal/storage"
)

type errorMapping struct {
	target  error
	status  int
	code    string
	message string // overrides err.Error() when set
}

var knownErrors = []errorMapping{
	// auth
	{service.ErrEmailAlreadyExists, http.StatusBadRequest, apperrors.AuthEmailAlreadyExists, "User already exists with this email"},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, apperrors.AuthInvalidCredentials, "Invalid credentials"},
	{service.ErrInvalidRefresh, http.StatusUnauthorized, apperrors.AuthTokenInvalid, "Invalid or expired refresh token"},
	{service.ErrWrongPassword, http.StatusBadRequest, apperrors.AuthWrongPassword, ""},
	{service.ErrPasswordTooShort, http.StatusBadRequest, apperrors.ValidationInvalidInput, ""},
	{service.ErrUserNotFound, http.StatusNotFound, apperrors.ResourceNotFound, "User not found"},

	// catalog
	{service.ErrProductNotFound, http.StatusNotFound, apperrors.ProductNotFound, ""},
	{service.ErrProductSlugExists, http.StatusBadRequest, apperrors.ProductSlugExists, "Product with this slug already exists"},
	{service.ErrProductSKUExists, http.StatusBadRequest, apperrors.ProductSKUExists, "Product with this SKU already exists"},
	{service.ErrInvalidSort, http.StatusBadRequest, apperrors.ValidationInvalidSort, ""},
	{service.ErrSearchRequired, http.StatusBadRequest, apperrors.ValidationRequired, "Search query is required"},
	{service.ErrInvalidPrice, http.StatusBadRequest, apperrors.ValidationInvalidRange, ""},
	{service.ErrCategoryNotFound, http.StatusNotFound, apperrors.CategoryNotFound, "Category not found"},
	{service.ErrCategorySlugExists, http.StatusBadRequest, apperrors.CategorySlugExists, "Category with this slug already exists"},
	{service.ErrCategoryHasProducts, http.StatusBadRequest, apperrors.CategoryHasItems, "Cannot delete category with active products"},
	{service.ErrCategoryHasChildren, http.StatusBadRequest, apperrors.CategoryHasChildren, "Cannot delete category with active subcategories"},
	{service.ErrCategoryOwnParent, http.StatusBadRequest, apperrors.ValidationInvalidInput, ""},
	{service.ErrInvalidRating, http.StatusBadRequest, apperrors.ReviewInvalidRating, ""},
	{service.ErrReviewAlreadyExists, http.StatusBadRequest, apperrors.ReviewAlreadyExists, ""},

	// cart, wishlist, addresses
	{service.ErrCartItemNotFound, http.StatusNotFound, apperrors.CartItemNotFound, "Cart item not found"},
	{service.ErrInsufficientStock, http.StatusBadRequest, apperrors.CartInsufficientStock, ""},
	{service.ErrInvalidQuantity, http.StatusBadRequest, apperrors.ValidationInvalidRange, ""},
	{service.ErrWishlistItemNotFound, http.StatusNotFound, apperrors.ResourceNotFound, "Wishlist item not found"},
	{service.ErrAddressNotFound, http.StatusNotFound, apperrors.ResourceNotFound, "Address not found"},
	{service.ErrInvalidAddressType, http.StatusBadRequest, apperrors.ValidationInvalidInput, ""},

	// orders and checkout
	{service.ErrOrderNotFound, http.StatusNotFound, apperrors.OrderNotFound, "Order not found"},
	{service.ErrEmptyCart, http.StatusBadRequest, apperrors.CartEmpty, "Cart is empty"},
	{service.ErrProductUnavailable, http.StatusBadRequest, apperrors.OrderProductUnavailable, ""},
	{service.ErrShippingAddressRequired, http.StatusBadRequest, apperrors.ValidationRequired, ""},
	{service.ErrOrderNotCancellable, http.StatusBadRequest, apperrors.OrderNotCancellable, ""},
	{service.ErrInvalidOrderStatus, http.StatusBadRequest, apperrors.OrderInvalidStatus, ""},
	{service.ErrOrderAlreadyCancelled, http.StatusBadRequest, apperrors.OrderInvalidStatus, ""},
	{service.ErrOrderStatusChanged, http.StatusConflict, apperrors.ResourceConflict, ""},
	{service.ErrCustomerDetailsRequired, http.StatusBadRequest, apperrors.ValidationRequired, ""},

	// coupons
	{service.ErrCouponNotFound, http.StatusNotFound, apperrors.CouponNotFound, "Coupon not found"},
	{service.ErrCouponCodeExists, http.StatusBadRequest, apperrors.CouponCodeExists, "Coupon with this code already exists"},
	{service.ErrCouponCodeRequired, http.StatusBadRequest, apperrors.ValidationRequired, ""},
	{service.ErrInvalidCouponType, http.StatusBadRequest, apperrors.ValidationInvalidInput, ""},
	{service.ErrInvalidCouponValue, http.StatusBadRequest, apperrors.ValidationInvalidRange, ""},
	{service.ErrPercentageTooLarge, http.StatusBadRequest, apperrors.ValidationInvalidRange, ""},
	{service.ErrInvalidCouponLimits, http.StatusBadRequest, apperrors.ValidationInvalidRange, ""},

	// uploads
	{storage.ErrFileTooLarge, http.StatusBadRequest, apperrors.UploadFileTooLarge, ""},
	{storage.ErrNotAnImage, http.StatusBadRequest, apperrors.UploadInvalidFileType, "Only image files are allowed"},
	{storage.ErrInvalidKey, http.StatusBadRequest, apperrors.ValidationInvalidInput, "Invalid file URL"},
	{storage.ErrInvalidFolder, http.StatusBadRequest, apperrors.ValidationInvalidInput, ""},
	{storage.ErrFileNotFound, http.StatusNotFound, apperrors.ResourceNotFound, "File not found"},
	{storage.ErrPresignUnavail, http.StatusBadRequest, apperrors.UploadNotSupported, ""},

	// guest state
	{clientstore.ErrInvalidKey, http.StatusBadRequest, apperrors.CartSessionRequired, "A valid X-Session-ID header is required"},
	{clientstore.ErrInvalidQuantity, http.StatusBadRequest, apperrors.ValidationInvalidRange, ""},
	{clientstore.ErrLineNotFound, http.StatusNotFound, apperrors.CartItemNotFound, "Item not found"},
}

// respondError renders known service errors with their status and code; anything else goes
// through the database error parser and is logged as a failure of action.
func respondError(c *gin.Context, err error, action string) {
	log := middleware.GetLoggerFromContext(c)

	for _, m := range knownErrors {
		if errors.Is(err, m.target) {
			message := m.message
			if message == "" {
				message = err.Error()
			}
			log.Warn("Request rejected", map[string]interface{}{
				"action": action,
				"reason": err.Error(),
			})
			apperrors.RespondWithError(c, m.status, m.code, message)
			return
		}
	}

	log.Error("Failed to "+action, err, nil)
	apperrors.ParseAndRespond(c, err, action)
}
