package scheduler

import (
	"fmt"

	"github.com/milanenterprises/cleancare-backend/internal/app/model"
	"github.com/milanenterprises/cleancare-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

type CouponSweeper interface {
	DeactivateExpired() (int64, error)
}

type LowStockFinder interface {
	FindLowStock() ([]model.Product, error)
}

type Schedule struct {
	CouponSweep string
	LowStock    string
}

// MaintenanceScheduler runs the nightly coupon expiry sweep and the morning low-stock report
type MaintenanceScheduler struct {
	cron     *cron.Cron
	schedule Schedule
	coupons  CouponSweeper
	products LowStockFinder
}

func NewMaintenanceScheduler(schedule Schedule, coupons CouponSweeper, products LowStockFinder) *MaintenanceScheduler {
	return &MaintenanceScheduler{
		cron:     cron.New(),
		schedule: schedule,
		coupons:  coupons,
		products: products,
	}
}

func (s *MaintenanceScheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule.CouponSweep, func() { s.RunCouponSweep() }); err != nil {
		logger.Error("Failed to add coupon sweep job", err, map[string]interface{}{
			"spec": s.schedule.CouponSweep,
		})
		return fmt.Errorf("coupon sweep schedule: %w", err)
	}
	if _, err := s.cron.AddFunc(s.schedule.LowStock, func() { s.RunLowStockReport() }); err != nil {
		logger.Error("Failed to add low stock job", err, map[string]interface{}{
			"spec": s.schedule.LowStock,
		})
		return fmt.Errorf("low stock schedule: %w", err)
	}

	s.cron.Start()
	logger.Info("Maintenance scheduler started", map[string]interface{}{
		"coupon_sweep": s.schedule.CouponSweep,
		"low_stock":    s.schedule.LowStock,
	})
	return nil
}

// Stop waits for running jobs to finish
func (s *MaintenanceScheduler) Stop() {
	logger.Info("Stopping maintenance scheduler...")
	<-s.cron.Stop().Done()
	logger.Info("Maintenance scheduler stopped")
}

func (s *MaintenanceScheduler) RunCouponSweep() int64 {
	n, err := s.coupons.DeactivateExpired()
	if err != nil {
		logger.Error("Scheduled coupon sweep failed", err)
		return 0
	}
	logger.Info("Scheduled coupon sweep finished", map[string]interface{}{
		"deactivated": n,
	})
	return n
}

func (s *MaintenanceScheduler) RunLowStockReport() []model.Product {
	products, err := s.products.FindLowStock()
	if err != nil {
		logger.Error("Scheduled low stock report failed", err)
		return nil
	}
	if len(products) == 0 {
		logger.Info("Low stock report: all products above threshold")
		return products
	}
	for _, p := range products {
		logger.Warn("Product stock is low", map[string]interface{}{
			"product_id": p.ID,
			"sku":        p.SKU,
			"name":       p.Name,
			"stock":      p.StockQuantity,
			"threshold":  p.LowStockThreshold,
		})
	}
	return products
}
