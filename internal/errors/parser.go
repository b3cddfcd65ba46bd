package errors

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ErrorInfo is a caller-safe rendering of a storage error
type ErrorInfo struct {
	Status  int
	Code    string
	Message string
}

// ParseError maps gorm and SQL driver errors to a code and message that are safe to show.
// context names the operation, e.g. "create product", and picks the wording.
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{Status: http.StatusInternalServerError, Code: InternalServerError, Message: defaultMessage(context)}
	}

	errLower := strings.ToLower(err.Error())

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrorInfo{Status: http.StatusNotFound, Code: ResourceNotFound, Message: notFoundMessage(context)}

	case errors.Is(err, gorm.ErrDuplicatedKey),
		strings.Contains(errLower, "duplicate key"),
		strings.Contains(errLower, "unique constraint"):
		return parseDuplicateKey(errLower)

	case errors.Is(err, gorm.ErrForeignKeyViolated),
		strings.Contains(errLower, "foreign key constraint"):
		if strings.Contains(errLower, "still referenced") {
			return ErrorInfo{Status: http.StatusBadRequest, Code: ResourceInUse, Message: "The record is still referenced by other data"}
		}
		return ErrorInfo{Status: http.StatusBadRequest, Code: ResourceNotFound, Message: "A referenced record does not exist"}

	case errors.Is(err, gorm.ErrCheckConstraintViolated),
		strings.Contains(errLower, "check constraint"):
		return parseCheckConstraint(errLower)

	case strings.Contains(errLower, "connection refused"),
		strings.Contains(errLower, "no such host"),
		strings.Contains(errLower, "timeout"):
		return ErrorInfo{Status: http.StatusServiceUnavailable, Code: InternalDatabaseError, Message: "A backing service is unavailable, please try again shortly"}
	}

	return ErrorInfo{Status: http.StatusInternalServerError, Code: InternalServerError, Message: defaultMessage(context)}
}

func parseDuplicateKey(errLower string) ErrorInfo {
	conflict := func(code, msg string) ErrorInfo {
		return ErrorInfo{Status: http.StatusBadRequest, Code: code, Message: msg}
	}
	switch {
	case strings.Contains(errLower, "users") && strings.Contains(errLower, "email"):
		return conflict(AuthEmailAlreadyExists, "User already exists with this email")
	case strings.Contains(errLower, "products") && strings.Contains(errLower, "sku"):
		return conflict(ProductSKUExists, "Product with this SKU already exists")
	case strings.Contains(errLower, "products") && strings.Contains(errLower, "slug"):
		return conflict(ProductSlugExists, "Product with this slug already exists")
	case strings.Contains(errLower, "categories") && strings.Contains(errLower, "slug"):
		return conflict(CategorySlugExists, "Category with this slug already exists")
	case strings.Contains(errLower, "coupons") && strings.Contains(errLower, "code"):
		return conflict(CouponCodeExists, "Coupon with this code already exists")
	case strings.Contains(errLower, "reviews"):
		return conflict(ReviewAlreadyExists, "You have already reviewed this product")
	}
	return conflict(ResourceAlreadyExists, "The record already exists")
}

func parseCheckConstraint(errLower string) ErrorInfo {
	switch {
	case strings.Contains(errLower, "rating"):
		return ErrorInfo{Status: http.StatusBadRequest, Code: ReviewInvalidRating, Message: "Rating must be between 1 and 5"}
	case strings.Contains(errLower, "stock"):
		return ErrorInfo{Status: http.StatusBadRequest, Code: OrderInsufficientStock, Message: "Insufficient stock"}
	}
	return ErrorInfo{Status: http.StatusBadRequest, Code: ValidationInvalidInput, Message: "The submitted values are invalid"}
}

func notFoundMessage(context string) string {
	c := strings.ToLower(context)
	for _, noun := range []string{"product", "category", "order", "coupon", "address", "review", "user", "cart item"} {
		if strings.Contains(c, noun) {
			return strings.ToUpper(noun[:1]) + noun[1:] + " not found"
		}
	}
	return "The requested resource was not found"
}

func defaultMessage(context string) string {
	c := strings.ToLower(context)
	switch {
	case strings.Contains(c, "create"):
		return "Failed to create the record, please try again later"
	case strings.Contains(c, "update"):
		return "Failed to update the record, please try again later"
	case strings.Contains(c, "delete"):
		return "Failed to delete the record, please try again later"
	}
	return "Something went wrong, please try again later"
}

// ParseAndRespond renders err through ParseError
func ParseAndRespond(c *gin.Context, err error, context string) {
	info := ParseError(err, context)
	RespondWithError(c, info.Status, info.Code, info.Message)
}
