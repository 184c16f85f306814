package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/govalues/decimal"
)

type Product struct {
	ID       uuid.UUID
	SellerID uuid.UUID
	Title    string
	SKU      string
	Price    decimal.Decimal
	Stock    int32
	Active   bool
}

type CouponType string

const (
	CouponTypePercentage CouponType = "percentage"
	CouponTypeFixed      CouponType = "fixed"
)

type Coupon struct {
	ID            uuid.UUID
	Code          string
	Type          CouponType
	Value         decimal.Decimal
	MaxDiscount   *decimal.Decimal
	MinOrderValue *decimal.Decimal
	ValidFrom     *time.Time
	ValidUntil    *time.Time
	Active        bool
}

// ValidAt reports whether the coupon can be applied at the given moment.
// The minimum order value is checked separately against the cart value.
func (c *Coupon) ValidAt(t time.Time) bool {
	if !c.Active {
		return false
	}
	if c.ValidFrom != nil && t.Before(*c.ValidFrom) {
		return false
	}
	if c.ValidUntil != nil && t.After(*c.ValidUntil) {
		return false
	}
	return true
}

// Discount computes the discount for a subtotal, capped by MaxDiscount
// and never exceeding the subtotal itself.
func (c *Coupon) Discount(subtotal decimal.Decimal) (decimal.Decimal, error) {
	var d decimal.Decimal
	var err error
	switch c.Type {
	case CouponTypePercentage:
		d, err = subtotal.Mul(c.Value)
		if err != nil {
			return decimal.Zero, err
		}
		d, err = d.Quo(decimal.Hundred)
		if err != nil {
			return decimal.Zero, err
		}
	default:
		d = c.Value
	}
	if c.MaxDiscount != nil && d.Cmp(*c.MaxDiscount) > 0 {
		d = *c.MaxDiscount
	}
	if d.Cmp(subtotal) > 0 {
		d = subtotal
	}
	return d.Round(2), nil
}
