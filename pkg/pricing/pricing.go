// Package pricing computes order totals with fixed-point arithmetic.
//
// The order of operations is fixed: subtotal, shipping, coupon discount, tax on
// (subtotal - discount), total. Each component is rounded to cents before the
// total is summed, so total == subtotal + shipping - discount + tax holds exactly
// on the returned values.
package pricing

import (
	"github.com/shopspring/decimal"
)

type CouponType string

const (
	CouponPercentage   CouponType = "PERCENTAGE"
	CouponFixedAmount  CouponType = "FIXED_AMOUNT"
	CouponFreeShipping CouponType = "FREE_SHIPPING"
)

func (t CouponType) Valid() bool {
	switch t {
	case CouponPercentage, CouponFixedAmount, CouponFreeShipping:
		return true
	}
	return false
}

// Coupon is the part of a coupon that affects the amount, after eligibility was checked
type Coupon struct {
	Type        CouponType
	Value       float64
	MaxDiscount *float64
}

type Rules struct {
	FreeShippingThreshold float64
	FlatShippingFee       float64
	TaxRate               float64
}

func DefaultRules() Rules {
	return Rules{
		FreeShippingThreshold: 50,
		FlatShippingFee:       5.99,
		TaxRate:               0.08,
	}
}

type Line struct {
	UnitPrice float64
	Quantity  int
}

type Breakdown struct {
	Subtotal float64 `json:"subtotal"`
	Shipping float64 `json:"shipping"`
	Discount float64 `json:"discount"`
	Tax      float64 `json:"tax"`
	Total    float64 `json:"total"`
}

// Subtotal returns the rounded sum of unit price times quantity
func Subtotal(lines []Line) float64 {
	return subtotal(lines).InexactFloat64()
}

func subtotal(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(decimal.NewFromFloat(l.UnitPrice).Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return sum.Round(2)
}

// Calculate prices the lines, applying coupon when non-nil
func (r Rules) Calculate(lines []Line, coupon *Coupon) Breakdown {
	sub := subtotal(lines)
	shipping := r.shipping(sub)
	discount := r.discount(sub, shipping, coupon)

	tax := sub.Sub(discount).Mul(decimal.NewFromFloat(r.TaxRate)).Round(2)
	total := sub.Add(shipping).Sub(discount).Add(tax)

	return Breakdown{
		Subtotal: sub.InexactFloat64(),
		Shipping: shipping.InexactFloat64(),
		Discount: discount.InexactFloat64(),
		Tax:      tax.InexactFloat64(),
		Total:    total.InexactFloat64(),
	}
}

func (r Rules) shipping(sub decimal.Decimal) decimal.Decimal {
	if sub.GreaterThanOrEqual(decimal.NewFromFloat(r.FreeShippingThreshold)) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(r.FlatShippingFee).Round(2)
}

// discount never exceeds the subtotal nor, for percentage coupons, MaxDiscount.
func (r Rules) discount(sub, shipping decimal.Decimal, c *Coupon) decimal.Decimal {
	if c == nil {
		return decimal.Zero
	}

	var d decimal.Decimal
	switch c.Type {
	case CouponPercentage:
		d = sub.Mul(decimal.NewFromFloat(c.Value)).Div(decimal.NewFromInt(100))
		if c.MaxDiscount != nil {
			d = decimal.Min(d, decimal.NewFromFloat(*c.MaxDiscount))
		}
	case CouponFixedAmount:
		d = decimal.NewFromFloat(c.Value)
	case CouponFreeShipping:
		d = shipping
	default:
		return decimal.Zero
	}

	if d.IsNegative() {
		return decimal.Zero
	}
	return decimal.Min(d, sub).Round(2)
}
