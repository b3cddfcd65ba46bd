package errors

// Error codes returned in the "code" field of failed responses.
// Format: CATEGORY_SPECIFIC_DETAIL. Clients map these to localized text.

const (
	// Authentication
	AuthUnauthorized       = "AUTH_UNAUTHORIZED"
	AuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	AuthTokenExpired       = "AUTH_TOKEN_EXPIRED"
	AuthTokenInvalid       = "AUTH_TOKEN_INVALID"
	AuthTokenRevoked       = "AUTH_TOKEN_REVOKED"
	AuthEmailAlreadyExists = "AUTH_EMAIL_EXISTS"
	AuthWrongPassword      = "AUTH_WRONG_PASSWORD"

	// Authorization
	AuthzForbidden    = "AUTHZ_FORBIDDEN"
	AuthzRoleNotFound = "AUTHZ_ROLE_NOT_FOUND"

	// Validation
	ValidationInvalidInput  = "VALIDATION_INVALID_INPUT"
	ValidationInvalidID     = "VALIDATION_INVALID_ID"
	ValidationInvalidFormat = "VALIDATION_INVALID_FORMAT"
	ValidationInvalidRange  = "VALIDATION_INVALID_RANGE"
	ValidationRequired      = "VALIDATION_REQUIRED"
	ValidationInvalidSort   = "VALIDATION_INVALID_SORT"

	// Resources
	ResourceNotFound      = "RESOURCE_NOT_FOUND"
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"
	ResourceConflict      = "RESOURCE_CONFLICT"
	ResourceInUse         = "RESOURCE_IN_USE"

	// Catalog
	ProductNotFound     = "PRODUCT_NOT_FOUND"
	ProductSlugExists   = "PRODUCT_SLUG_EXISTS"
	ProductSKUExists    = "PRODUCT_SKU_EXISTS"
	CategoryNotFound    = "CATEGORY_NOT_FOUND"
	CategorySlugExists  = "CATEGORY_SLUG_EXISTS"
	CategoryHasItems    = "CATEGORY_HAS_PRODUCTS"
	CategoryHasChildren = "CATEGORY_HAS_CHILDREN"

	// Reviews
	ReviewInvalidRating = "REVIEW_INVALID_RATING"
	ReviewAlreadyExists = "REVIEW_ALREADY_EXISTS"

	// Cart
	CartItemNotFound      = "CART_ITEM_NOT_FOUND"
	CartInsufficientStock = "CART_INSUFFICIENT_STOCK"
	CartEmpty             = "CART_EMPTY"
	CartSessionRequired   = "CART_SESSION_REQUIRED"

	// Orders
	OrderNotFound           = "ORDER_NOT_FOUND"
	OrderInsufficientStock  = "ORDER_INSUFFICIENT_STOCK"
	OrderProductUnavailable = "ORDER_PRODUCT_UNAVAILABLE"
	OrderNotCancellable     = "ORDER_NOT_CANCELLABLE"
	OrderInvalidStatus      = "ORDER_INVALID_STATUS"

	// Coupons
	CouponNotFound   = "COUPON_NOT_FOUND"
	CouponCodeExists = "COUPON_CODE_EXISTS"

	// Upload
	UploadInvalidFileType = "UPLOAD_INVALID_FILE_TYPE"
	UploadFileTooLarge    = "UPLOAD_FILE_TOO_LARGE"
	UploadTooManyFiles    = "UPLOAD_TOO_MANY_FILES"
	UploadFailed          = "UPLOAD_FAILED"
	UploadNotSupported    = "UPLOAD_NOT_SUPPORTED"

	// Rate limiting
	RateLimitExceeded = "RATE_LIMIT_EXCEEDED"

	// Internal
	InternalServerError   = "INTERNAL_SERVER_ERROR"
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR"
	InternalExternalAPI   = "INTERNAL_EXTERNAL_API"
)
