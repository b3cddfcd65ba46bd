package service

import (
	"errors"
	"strings"
	"time"

	"github.com/milanenterprises/cleancare-backend/internal/app/model"
	"github.com/milanenterprises/cleancare-backend/internal/app/repository"
	"github.com/milanenterprises/cleancare-backend/pkg/logger"
	"github.com/milanenterprises/cleancare-backend/pkg/pricing"
	"gorm.io/gorm"
)

var (
	ErrCouponNotFound      = errors.New("coupon not found")
	ErrCouponCodeExists    = errors.New("coupon code already exists")
	ErrCouponCodeRequired  = errors.New("coupon code is required")
	ErrInvalidCouponType   = errors.New("coupon type must be PERCENTAGE, FIXED_AMOUNT or FREE_SHIPPING")
	ErrInvalidCouponValue  = errors.New("coupon value must be greater than 0")
	ErrPercentageTooLarge  = errors.New("percentage coupon value cannot exceed 100")
	ErrInvalidCouponLimits = errors.New("coupon limits cannot be negative")
)

type CreateCouponInput struct {
	Code           string
	Description    string
	Type           pricing.CouponType
	Value          float64
	MinOrderAmount *float64
	MaxDiscount    *float64
	UsageLimit     *int
	ExpiresAt      *time.Time
}

type UpdateCouponInput struct {
	Description    *string
	Value          *float64
	MinOrderAmount *float64
	MaxDiscount    *float64
	UsageLimit     *int
	ExpiresAt      *time.Time
	ClearExpiry    bool
	IsActive       *bool
}

// CouponPreview is what a shopper sees before placing an order
type CouponPreview struct {
	Code      string            `json:"code"`
	Valid     bool              `json:"valid"`
	Reason    string            `json:"reason,omitempty"`
	Type      string            `json:"type,omitempty"`
	Discount  float64           `json:"discount"`
	Breakdown pricing.Breakdown `json:"breakdown"`
}

type CouponService interface {
	ListCoupons() ([]model.Coupon, error)
	CreateCoupon(input CreateCouponInput) (*model.Coupon, error)
	UpdateCoupon(id uint, input UpdateCouponInput) (*model.Coupon, error)
	ValidateCoupon(code string, subtotal float64) (*CouponPreview, error)
	DeactivateExpired() (int64, error)
}

type couponService struct {
	couponRepo repository.CouponRepository
	rules      pricing.Rules
	now        func() time.Time
}

func NewCouponService(couponRepo repository.CouponRepository, rules pricing.Rules) CouponService {
	return &couponService{
		couponRepo: couponRepo,
		rules:      rules,
		now:        time.Now,
	}
}

func checkCouponValue(t pricing.CouponType, value float64) error {
	if value <= 0 {
		return ErrInvalidCouponValue
	}
	if t == pricing.CouponPercentage && value > 100 {
		return ErrPercentageTooLarge
	}
	return nil
}

func checkCouponLimits(minOrder, maxDiscount *float64, usageLimit *int) error {
	if (minOrder != nil && *minOrder < 0) || (maxDiscount != nil && *maxDiscount < 0) || (usageLimit != nil && *usageLimit < 0) {
		return ErrInvalidCouponLimits
	}
	return nil
}

func (s *couponService) ListCoupons() ([]model.Coupon, error) {
	coupons, err := s.couponRepo.FindAll()
	if err != nil {
		return nil, err
	}
	if coupons == nil {
		coupons = []model.Coupon{}
	}
	return coupons, nil
}

func (s *couponService) CreateCoupon(input CreateCouponInput) (*model.Coupon, error) {
	code := repository.NormalizeCouponCode(input.Code)
	if code == "" {
		return nil, ErrCouponCodeRequired
	}
	couponType := pricing.CouponType(strings.ToUpper(string(input.Type)))
	if !couponType.Valid() {
		return nil, ErrInvalidCouponType
	}
	// FREE_SHIPPING carries no amount of its own
	if couponType == pricing.CouponFreeShipping && input.Value == 0 {
		input.Value = 1
	}
	if err := checkCouponValue(couponType, input.Value); err != nil {
		return nil, err
	}
	if err := checkCouponLimits(input.MinOrderAmount, input.MaxDiscount, input.UsageLimit); err != nil {
		return nil, err
	}

	exists, err := s.couponRepo.ExistsByCode(code, 0)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrCouponCodeExists
	}

	coupon := &model.Coupon{
		Code:           code,
		Description:    strings.TrimSpace(input.Description),
		Type:           couponType,
		Value:          input.Value,
		MinOrderAmount: input.MinOrderAmount,
		MaxDiscount:    input.MaxDiscount,
		UsageLimit:     input.UsageLimit,
		ExpiresAt:      input.ExpiresAt,
	}
	if err := s.couponRepo.Create(coupon); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrCouponCodeExists
		}
		return nil, err
	}

	logger.Info("Coupon created", map[string]interface{}{
		"coupon_id": coupon.ID,
		"code":      coupon.Code,
		"type":      coupon.Type,
	})
	return coupon, nil
}

// UpdateCoupon changes limits, expiry and activation; code and type are fixed once created
func (s *couponService) UpdateCoupon(id uint, input UpdateCouponInput) (*model.Coupon, error) {
	coupon, err := s.couponRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCouponNotFound
		}
		return nil, err
	}

	applyString(&coupon.Description, input.Description)
	if input.Value != nil {
		if err := checkCouponValue(coupon.Type, *input.Value); err != nil {
			return nil, err
		}
		coupon.Value = *input.Value
	}
	if err := checkCouponLimits(input.MinOrderAmount, input.MaxDiscount, input.UsageLimit); err != nil {
		return nil, err
	}
	if input.MinOrderAmount != nil {
		coupon.MinOrderAmount = input.MinOrderAmount
	}
	if input.MaxDiscount != nil {
		coupon.MaxDiscount = input.MaxDiscount
	}
	if input.UsageLimit != nil {
		coupon.UsageLimit = input.UsageLimit
	}
	switch {
	case input.ClearExpiry:
		coupon.ExpiresAt = nil
	case input.ExpiresAt != nil:
		coupon.ExpiresAt = input.ExpiresAt
	}
	if input.IsActive != nil {
		coupon.IsActive = *input.IsActive
	}

	if err := s.couponRepo.Update(coupon); err != nil {
		return nil, err
	}

	logger.Info("Coupon updated", map[string]interface{}{
		"coupon_id": coupon.ID,
		"is_active": coupon.IsActive,
	})
	return coupon, nil
}

// ValidateCoupon prices subtotal with the coupon; an inapplicable coupon yields a zero discount and a reason
func (s *couponService) ValidateCoupon(code string, subtotal float64) (*CouponPreview, error) {
	normalized := repository.NormalizeCouponCode(code)
	if normalized == "" {
		return nil, ErrCouponCodeRequired
	}
	lines := []pricing.Line{{UnitPrice: subtotal, Quantity: 1}}
	preview := &CouponPreview{Code: normalized}

	coupon, err := s.couponRepo.FindByCode(normalized)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		preview.Reason = ErrCouponNotFound.Error()
		preview.Breakdown = s.rules.Calculate(lines, nil)
		return preview, nil
	}

	preview.Type = string(coupon.Type)
	if reason := coupon.Eligibility(subtotal, s.now()); reason != model.CouponOK {
		preview.Reason = string(reason)
		preview.Breakdown = s.rules.Calculate(lines, nil)
		return preview, nil
	}

	preview.Valid = true
	preview.Breakdown = s.rules.Calculate(lines, coupon.PricingCoupon())
	preview.Discount = preview.Breakdown.Discount
	return preview, nil
}

func (s *couponService) DeactivateExpired() (int64, error) {
	n, err := s.couponRepo.DeactivateExpired(s.now())
	if err != nil {
		logger.Error("Failed to deactivate expired coupons", err)
		return 0, err
	}
	if n > 0 {
		logger.Info("Expired coupons deactivated", map[string]interface{}{
			"count": n,
		})
	}
	return n, nil
}
