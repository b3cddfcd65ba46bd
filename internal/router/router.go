package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/milanenterprises/cleancare-backend/config"
	"github.com/milanenterprises/cleancare-backend/internal/app/controller"
	"github.com/milanenterprises/cleancare-backend/internal/middleware"
)

// Controllers bundles every handler group the router mounts
type Controllers struct {
	Auth     *controller.AuthController
	Product  *controller.ProductController
	Category *controller.CategoryController
	Review   *controller.ReviewController
	Cart     *controller.CartController
	Wishlist *controller.WishlistController
	Address  *controller.AddressController
	Order    *controller.OrderController
	Admin    *controller.AdminController
	Coupon   *controller.CouponController
	Upload   *controller.UploadController
	Checkout *controller.CheckoutController
	Guest    *controller.GuestController
}

type Router struct {
	controllers    Controllers
	authMiddleware *middleware.AuthMiddleware
	rateCounter    middleware.RateCounter
	config         *config.Config
}

// NewRouter builds the route table. rateCounter may be nil, which disables rate limiting.
func NewRouter(
	controllers Controllers,
	authMiddleware *middleware.AuthMiddleware,
	rateCounter middleware.RateCounter,
	cfg *config.Config,
) *Router {
	return &Router{
		controllers:    controllers,
		authMiddleware: authMiddleware,
		rateCounter:    rateCounter,
		config:         cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", health)

	if r.config.Upload.Driver == "local" {
		router.Static("/uploads", r.config.Upload.Dir)
	}

	ctl := r.controllers
	auth := r.authMiddleware
	admin := []gin.HandlerFunc{auth.Authenticate(), auth.RequireStaff()}
	withAdmin := func(h gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, admin...), h)
	}

	v1 := router.Group("/api/v1")
	v1.Use(middleware.RateLimiter(r.rateCounter, "api", r.config.RateLimit.RequestsPerMinute, time.Minute))
	v1.GET("/health", health)

	authGroup := v1.Group("/auth")
	{
		limited := middleware.RateLimiter(r.rateCounter, "auth", r.config.RateLimit.AuthRequestsPerMinute, time.Minute)
		authGroup.POST("/register", limited, ctl.Auth.Register)
		authGroup.POST("/login", limited, ctl.Auth.Login)
		authGroup.POST("/refresh", limited, ctl.Auth.RefreshToken)

		authGroup.POST("/logout", auth.Authenticate(), ctl.Auth.Logout)
		authGroup.GET("/me", auth.Authenticate(), ctl.Auth.GetMe)
		authGroup.PUT("/me", auth.Authenticate(), ctl.Auth.UpdateMe)
		authGroup.PUT("/change-password", auth.Authenticate(), ctl.Auth.ChangePassword)
	}

	products := v1.Group("/products")
	{
		products.GET("", auth.OptionalAuthenticate(), ctl.Product.ListProducts)
		products.GET("/search", auth.OptionalAuthenticate(), ctl.Product.SearchProducts)
		products.GET("/featured", auth.OptionalAuthenticate(), ctl.Product.GetFeaturedProducts)
		products.GET("/slug/:slug", auth.OptionalAuthenticate(), ctl.Product.GetProductBySlug)
		products.GET("/:id", auth.OptionalAuthenticate(), ctl.Product.GetProduct)
		products.GET("/:id/related", ctl.Product.GetRelatedProducts)
		products.GET("/:id/reviews", ctl.Review.ListReviews)
		products.POST("/:id/reviews", auth.Authenticate(), ctl.Review.CreateReview)

		products.POST("", withAdmin(ctl.Product.CreateProduct)...)
		products.PUT("/:id", withAdmin(ctl.Product.UpdateProduct)...)
		products.DELETE("/:id", withAdmin(ctl.Product.DeleteProduct)...)
	}

	categories := v1.Group("/categories")
	{
		categories.GET("", ctl.Category.ListCategories)
		categories.GET("/slug/:slug", ctl.Category.GetCategoryBySlug)
		categories.GET("/:id", ctl.Category.GetCategory)
		categories.GET("/:id/products", auth.OptionalAuthenticate(), ctl.Category.GetCategoryProducts)

		categories.POST("", withAdmin(ctl.Category.CreateCategory)...)
		categories.PUT("/:id", withAdmin(ctl.Category.UpdateCategory)...)
		categories.DELETE("/:id", withAdmin(ctl.Category.DeleteCategory)...)
	}

	cart := v1.Group("/cart", auth.Authenticate())
	{
		cart.GET("", ctl.Cart.GetCart)
		cart.POST("", ctl.Cart.AddToCart)
		cart.DELETE("", ctl.Cart.ClearCart)
		cart.POST("/merge", ctl.Cart.MergeCart)
		cart.PUT("/:id", ctl.Cart.UpdateCartItem)
		cart.DELETE("/:id", ctl.Cart.RemoveFromCart)
	}

	wishlist := v1.Group("/wishlist", auth.Authenticate())
	{
		wishlist.GET("", ctl.Wishlist.GetWishlist)
		wishlist.POST("", ctl.Wishlist.AddToWishlist)
		wishlist.DELETE("/:product_id", ctl.Wishlist.RemoveFromWishlist)
	}

	addresses := v1.Group("/addresses", auth.Authenticate())
	{
		addresses.GET("", ctl.Address.ListAddresses)
		addresses.POST("", ctl.Address.CreateAddress)
		addresses.PUT("/:id", ctl.Address.UpdateAddress)
		addresses.DELETE("/:id", ctl.Address.DeleteAddress)
		addresses.PUT("/:id/default", ctl.Address.SetDefaultAddress)
	}

	orders := v1.Group("/orders", auth.Authenticate())
	{
		orders.GET("", ctl.Order.GetMyOrders)
		orders.POST("", ctl.Order.CreateOrder)
		orders.GET("/:id", ctl.Order.GetOrder)
		orders.PUT("/:id/cancel", ctl.Order.CancelOrder)
	}

	adminGroup := v1.Group("/admin", admin...)
	{
		adminGroup.GET("/orders", ctl.Admin.ListOrders)
		adminGroup.GET("/orders/feed", ctl.Admin.OrderFeed)
		adminGroup.PUT("/orders/:id/status", ctl.Admin.UpdateOrderStatus)
		adminGroup.GET("/stats", ctl.Admin.GetStats)

		adminGroup.GET("/coupons", ctl.Coupon.ListCoupons)
		adminGroup.POST("/coupons", ctl.Coupon.CreateCoupon)
		adminGroup.PUT("/coupons/:id", ctl.Coupon.UpdateCoupon)
	}

	v1.POST("/coupons/validate", ctl.Coupon.ValidateCoupon)

	upload := v1.Group("/upload", admin...)
	{
		upload.POST("/product-images", ctl.Upload.UploadProductImages)
		upload.POST("/category-image", ctl.Upload.UploadCategoryImage)
		upload.POST("/presigned-url", ctl.Upload.GeneratePresignedURL)
		upload.DELETE("", ctl.Upload.DeleteFile)
	}

	v1.POST("/checkout/whatsapp", auth.OptionalAuthenticate(), ctl.Checkout.WhatsApp)

	guest := v1.Group("/guest")
	{
		guest.GET("/cart", ctl.Guest.GetCart)
		guest.POST("/cart", ctl.Guest.AddToCart)
		guest.DELETE("/cart", ctl.Guest.ClearCart)
		guest.PUT("/cart/:product_id", ctl.Guest.UpdateCartItem)
		guest.DELETE("/cart/:product_id", ctl.Guest.RemoveFromCart)

		guest.GET("/wishlist", ctl.Guest.GetWishlist)
		guest.POST("/wishlist", ctl.Guest.AddToWishlist)
		guest.DELETE("/wishlist", ctl.Guest.ClearWishlist)
		guest.DELETE("/wishlist/:product_id", ctl.Guest.RemoveFromWishlist)
	}

	return router
}

func health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"message": "CleanCare API is running",
	})
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Vary", "Origin")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Authorization, Accept, Origin, Cache-Control, X-Requested-With, X-Request-ID, X-Session-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
