package model

import (
	"time"

	"github.com/milanenterprises/cleancare-backend/pkg/pricing"
)

type Coupon struct {
	ID             uint               `gorm:"primarykey" json:"id"`
	Code           string             `gorm:"uniqueIndex;size:50;not null" json:"code"`
	Description    string             `gorm:"type:text" json:"description,omitempty"`
	Type           pricing.CouponType `gorm:"type:varchar(20);not null" json:"type"`
	Value          float64            `gorm:"not null" json:"value"`
	MinOrderAmount *float64           `json:"min_order_amount,omitempty"`
	MaxDiscount    *float64           `json:"max_discount,omitempty"`
	UsageLimit     *int               `json:"usage_limit,omitempty"`
	UsedCount      int                `gorm:"not null;default:0" json:"used_count"`
	ExpiresAt      *time.Time         `gorm:"index" json:"expires_at,omitempty"`
	IsActive       bool               `gorm:"default:true" json:"is_active"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

func (Coupon) TableName() string {
	return "coupons"
}

// CouponIneligibility explains why a coupon does not apply; empty means it applies.
type CouponIneligibility string

const (
	CouponOK           CouponIneligibility = ""
	CouponInactive     CouponIneligibility = "coupon is not active"
	CouponExpired      CouponIneligibility = "coupon has expired"
	CouponExhausted    CouponIneligibility = "coupon usage limit reached"
	CouponBelowMinimum CouponIneligibility = "order does not meet the coupon minimum"
	CouponUnknownType  CouponIneligibility = "coupon type is not supported"
)

// Eligibility checks everything except existence for the given subtotal at time now
func (c Coupon) Eligibility(subtotal float64, now time.Time) CouponIneligibility {
	switch {
	case !c.IsActive:
		return CouponInactive
	case c.ExpiresAt != nil && !c.ExpiresAt.After(now):
		return CouponExpired
	case c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit:
		return CouponExhausted
	case c.MinOrderAmount != nil && subtotal < *c.MinOrderAmount:
		return CouponBelowMinimum
	case !c.Type.Valid():
		return CouponUnknownType
	}
	return CouponOK
}

func (c Coupon) PricingCoupon() *pricing.Coupon {
	return &pricing.Coupon{
		Type:        c.Type,
		Value:       c.Value,
		MaxDiscount: c.MaxDiscount,
	}
}
