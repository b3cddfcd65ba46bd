package controller

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/milanenterprises/cleancare-backend/internal/app/service"
	apperrors "github.com/milanenterprises/cleancare-backend/internal/errors"
	"github.com/milanenterprises/cleancare-backend/internal/middleware"
	"github.com/milanenterprises/cleancare-backend/pkg/pricing"
)

type CouponController struct {
	couponService service.CouponService
}

func NewCouponController(couponService service.CouponService) *CouponController {
	return &CouponController{couponService: couponService}
}

type CreateCouponRequest struct {
	Code           string     `json:"code" binding:"required,max=50"`
	Description    string     `json:"description" binding:"omitempty,max=255"`
	Type           string     `json:"type" binding:"required"`
	Value          float64    `json:"value" binding:"gte=0"`
	MinOrderAmount *float64   `json:"min_order_amount" binding:"omitempty,gte=0"`
	MaxDiscount    *float64   `json:"max_discount" binding:"omitempty,gt=0"`
	UsageLimit     *int       `json:"usage_limit" binding:"omitempty,gte=0"`
	ExpiresAt      *time.Time `json:"expires_at"`
}

type UpdateCouponRequest struct {
	Description    *string    `json:"description" binding:"omitempty,max=255"`
	Value          *float64   `json:"value" binding:"omitempty,gt=0"`
	MinOrderAmount *float64   `json:"min_order_amount" binding:"omitempty,gte=0"`
	MaxDiscount    *float64   `json:"max_discount" binding:"omitempty,gt=0"`
	UsageLimit     *int       `json:"usage_limit" binding:"omitempty,gte=0"`
	ExpiresAt      *time.Time `json:"expires_at"`
	ClearExpiry    bool       `json:"clear_expiry"`
	IsActive       *bool      `json:"is_active"`
}

type ValidateCouponRequest struct {
	Code     string  `json:"code" binding:"required"`
	Subtotal float64 `json:"subtotal" binding:"gte=0"`
}

// GET /api/v1/admin/coupons
func (ctrl *CouponController) ListCoupons(c *gin.Context) {
	coupons, err := ctrl.couponService.ListCoupons()
	if err != nil {
		respondError(c, err, "fetch coupons")
		return
	}
	apperrors.OK(c, gin.H{"coupons": coupons})
}

// POST /api/v1/admin/coupons
func (ctrl *CouponController) CreateCoupon(c *gin.Context) {
	var req CreateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindError(c, err)
		return
	}

	coupon, err := ctrl.couponService.CreateCoupon(service.CreateCouponInput{
		Code:           req.Code,
		Description:    req.Description,
		Type:           pricing.CouponType(req.Type),
		Value:          req.Value,
		MinOrderAmount: req.MinOrderAmount,
		MaxDiscount:    req.MaxDiscount,
		UsageLimit:     req.UsageLimit,
		ExpiresAt:      req.ExpiresAt,
	})
	if err != nil {
		respondError(c, err, "create coupon")
		return
	}

	middleware.GetLoggerFromContext(c).Info("Coupon created", map[string]interface{}{
		"coupon_id": coupon.ID,
		"code":      coupon.Code,
	})
	apperrors.Created(c, "Coupon created successfully", gin.H{"coupon": coupon})
}

// PUT /api/v1/admin/coupons/:id
func (ctrl *CouponController) UpdateCoupon(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req UpdateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindError(c, err)
		return
	}

	coupon, err := ctrl.couponService.UpdateCoupon(id, service.UpdateCouponInput{
		Description:    req.Description,
		Value:          req.Value,
		MinOrderAmount: req.MinOrderAmount,
		MaxDiscount:    req.MaxDiscount,
		UsageLimit:     req.UsageLimit,
		ExpiresAt:      req.ExpiresAt,
		ClearExpiry:    req.ClearExpiry,
		IsActive:       req.IsActive,
	})
	if err != nil {
		respondError(c, err, "update coupon")
		return
	}
	apperrors.OKWithMessage(c, "Coupon updated successfully", gin.H{"coupon": coupon})
}

// ValidateCoupon previews the discount a code would give on subtotal
// POST /api/v1/coupons/validate
func (ctrl *CouponController) ValidateCoupon(c *gin.Context) {
	var req ValidateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindError(c, err)
		return
	}

	preview, err := ctrl.couponService.ValidateCoupon(req.Code, req.Subtotal)
	if err != nil {
		respondError(c, err, "validate coupon")
		return
	}
	apperrors.OK(c, preview)
}
