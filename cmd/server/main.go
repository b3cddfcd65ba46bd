package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/milanenterprises/cleancare-backend/config"
	"github.com/milanenterprises/cleancare-backend/internal/app/controller"
	"github.com/milanenterprises/cleancare-backend/internal/app/repository"
	"github.com/milanenterprises/cleancare-backend/internal/app/service"
	"github.com/milanenterprises/cleancare-backend/internal/clientstore"
	"github.com/milanenterprises/cleancare-backend/internal/db"
	"github.com/milanenterprises/cleancare-backend/internal/middleware"
	"github.com/milanenterprises/cleancare-backend/internal/router"
	"github.com/milanenterprises/cleancare-backend/internal/scheduler"
	"github.com/milanenterprises/cleancare-backend/internal/storage"
	"github.com/milanenterprises/cleancare-backend/internal/websocket"
	"github.com/milanenterprises/cleancare-backend/pkg/logger"
	"github.com/milanenterprises/cleancare-backend/pkg/redis"
	"github.com/milanenterprises/cleancare-backend/pkg/whatsapp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	logLevel, logFormat := "info", "json"
	if cfg.Server.IsDevelopment() {
		logLevel, logFormat = "debug", "console"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      logFormat,
		EnableColor: cfg.Server.IsDevelopment(),
	})

	logger.Info("Starting CleanCare backend", map[string]interface{}{
		"environment":   cfg.Server.Environment,
		"port":          cfg.Server.Port,
		"log_level":     logLevel,
		"upload_driver": cfg.Upload.Driver,
	})

	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}
	if err := db.Seed(); err != nil {
		logger.Warn("Failed to seed database", map[string]interface{}{
			"error": err.Error(),
		})
	}

	// Redis backs logout revocation, rate limiting and guest state; everything degrades without it
	var (
		revoker     service.TokenRevoker
		blacklist   middleware.TokenBlacklist
		rateCounter middleware.RateCounter
		guestState  clientstore.Persister
	)
	if cfg.Redis.Enabled {
		if err := redis.Init(&cfg.Redis); err != nil {
			logger.Warn("Redis unavailable, continuing without it", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			defer redis.Close()
			tokens := redis.NewTokenBlacklist(redis.GetClient())
			revoker, blacklist = tokens, tokens
			rateCounter = redis.NewRateCounter(redis.GetClient())
			guestState = clientstore.NewRedisPersister(redis.GetClient(), cfg.Guest.TTL)
		}
	}
	if guestState == nil {
		files, err := clientstore.NewFilePersister(cfg.Guest.StateDir)
		if err != nil {
			logger.Fatal("Failed to prepare guest state directory", err)
		}
		guestState = files
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	imageStorage, err := newImageStorage(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize image storage", err)
	}

	builder, err := whatsapp.NewBuilder(cfg.Shop.StoreName, cfg.Shop.WhatsAppNumber, cfg.Shop.CurrencySymbol)
	if err != nil {
		logger.Fatal("Invalid WhatsApp configuration", err)
	}

	hub := websocket.NewHub()
	go hub.Run(ctx)

	database := db.GetDB()
	rules := cfg.Pricing.Rules()

	userRepo := repository.NewUserRepository(database)
	productRepo := repository.NewProductRepository(database)
	categoryRepo := repository.NewCategoryRepository(database)
	reviewRepo := repository.NewReviewRepository(database)
	cartRepo := repository.NewCartRepository(database)
	wishlistRepo := repository.NewWishlistRepository(database)
	addressRepo := repository.NewAddressRepository(database)
	couponRepo := repository.NewCouponRepository(database)
	orderRepo := repository.NewOrderRepository(database)

	authService := service.NewAuthService(userRepo, revoker, cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry, cfg.JWT.RefreshTokenExpiry)
	productService := service.NewProductService(productRepo, categoryRepo)
	categoryService := service.NewCategoryService(categoryRepo, productService)
	reviewService := service.NewReviewService(reviewRepo, productRepo)
	cartService := service.NewCartService(cartRepo, productRepo)
	wishlistService := service.NewWishlistService(wishlistRepo, productRepo)
	addressService := service.NewAddressService(addressRepo)
	couponService := service.NewCouponService(couponRepo, rules)
	orderService := service.NewOrderService(database, orderRepo, cartRepo, productRepo, service.OrderServiceConfig{
		Rules:        rules,
		NumberPrefix: cfg.Shop.OrderNumberPrefix,
		Publisher:    hub,
	})
	checkoutService := service.NewCheckoutService(cartRepo, productRepo, rules, builder)

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret, blacklist)

	r := router.NewRouter(router.Controllers{
		Auth:     controller.NewAuthController(authService),
		Product:  controller.NewProductController(productService),
		Category: controller.NewCategoryController(categoryService),
		Review:   controller.NewReviewController(reviewService),
		Cart:     controller.NewCartController(cartService, guestState),
		Wishlist: controller.NewWishlistController(wishlistService),
		Address:  controller.NewAddressController(addressService),
		Order:    controller.NewOrderController(orderService),
		Admin:    controller.NewAdminController(orderService, hub, cfg.CORS.AllowedOrigins),
		Coupon:   controller.NewCouponController(couponService),
		Upload:   controller.NewUploadController(imageStorage, cfg.Upload.MaxFileSize, cfg.Upload.MaxFiles),
		Checkout: controller.NewCheckoutController(checkoutService),
		Guest:    controller.NewGuestController(productService, guestState),
	}, authMiddleware, rateCounter, cfg)

	if cfg.Scheduler.Enabled {
		jobs := scheduler.NewMaintenanceScheduler(scheduler.Schedule{
			CouponSweep: cfg.Scheduler.CouponSweepCron,
			LowStock:    cfg.Scheduler.LowStockCron,
		}, couponService, productRepo)
		if err := jobs.Start(); err != nil {
			logger.Fatal("Failed to start scheduler", err)
		}
		defer jobs.Stop()
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           r.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", err)
	}

	logger.Info("Server stopped successfully")
}

func newImageStorage(ctx context.Context, cfg *config.Config) (storage.ImageStorage, error) {
	if cfg.Upload.Driver == "s3" {
		return storage.NewS3Storage(ctx, cfg.S3.Region, cfg.S3.Bucket, cfg.S3.AccessKeyID, cfg.S3.SecretAccessKey, cfg.S3.BaseURL), nil
	}
	return storage.NewLocalStorage(cfg.Upload.Dir, cfg.Server.PublicBaseURL)
}
