package repository

import (
	"strings"
	"time"

	"github.com/milanenterprises/cleancare-backend/internal/app/model"
	"github.com/milanenterprises/cleancare-backend/pkg/logger"
	"gorm.io/gorm"
)

type CouponRepository interface {
	Create(coupon *model.Coupon) error
	FindAll() ([]model.Coupon, error)
	FindByID(id uint) (*model.Coupon, error)
	FindByCode(code string) (*model.Coupon, error)
	ExistsByCode(code string, excludeID uint) (bool, error)
	Update(coupon *model.Coupon) error
	DeactivateExpired(now time.Time) (int64, error)
}

type couponRepository struct {
	db *gorm.DB
}

func NewCouponRepository(db *gorm.DB) CouponRepository {
	return &couponRepository{db: db}
}

// NormalizeCouponCode is the stored form of a coupon code
func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (r *couponRepository) Create(coupon *model.Coupon) error {
	coupon.Code = NormalizeCouponCode(coupon.Code)
	logger.Debug("Creating coupon in database", map[string]interface{}{
		"code": coupon.Code,
		"type": coupon.Type,
	})

	if err := r.db.Create(coupon).Error; err != nil {
		logger.Error("Failed to create coupon in database", err, map[string]interface{}{
			"code": coupon.Code,
		})
		return err
	}
	return nil
}

func (r *couponRepository) FindAll() ([]model.Coupon, error) {
	var coupons []model.Coupon
	if err := r.db.Order("created_at DESC, id DESC").Find(&coupons).Error; err != nil {
		logger.Error("Failed to list coupons in database", err)
		return nil, err
	}
	return coupons, nil
}

func (r *couponRepository) FindByID(id uint) (*model.Coupon, error) {
	var coupon model.Coupon
	if err := r.db.First(&coupon, id).Error; err != nil {
		logger.Error("Failed to find coupon by ID in database", err, map[string]interface{}{
			"coupon_id": id,
		})
		return nil, err
	}
	return &coupon, nil
}

func (r *couponRepository) FindByCode(code string) (*model.Coupon, error) {
	code = NormalizeCouponCode(code)
	logger.Debug("Finding coupon by code in database", map[string]interface{}{
		"code": code,
	})

	var coupon model.Coupon
	if err := r.db.Where("code = ?", code).First(&coupon).Error; err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (r *couponRepository) ExistsByCode(code string, excludeID uint) (bool, error) {
	var count int64
	query := r.db.Model(&model.Coupon{}).Where("code = ?", NormalizeCouponCode(code))
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		logger.Error("Failed to check coupon code in database", err, map[string]interface{}{
			"code": code,
		})
		return false, err
	}
	return count > 0, nil
}

func (r *couponRepository) Update(coupon *model.Coupon) error {
	logger.Debug("Updating coupon in database", map[string]interface{}{
		"coupon_id": coupon.ID,
		"code":      coupon.Code,
	})

	err := r.db.Model(coupon).
		Select("description", "value", "min_order_amount", "max_discount", "usage_limit", "expires_at", "is_active").
		Updates(coupon).Error
	if err != nil {
		logger.Error("Failed to update coupon in database", err, map[string]interface{}{
			"coupon_id": coupon.ID,
		})
		return err
	}
	return nil
}

// DeactivateExpired switches off active coupons whose expiry has passed
func (r *couponRepository) DeactivateExpired(now time.Time) (int64, error) {
	result := r.db.Model(&model.Coupon{}).
		Where("is_active = ? AND expires_at IS NOT NULL AND expires_at <= ?", true, now).
		Update("is_active", false)
	if result.Error != nil {
		logger.Error("Failed to deactivate expired coupons", result.Error)
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
