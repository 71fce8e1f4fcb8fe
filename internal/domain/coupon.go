package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CouponType string

const (
	CouponTypePercent CouponType = "PERCENT"
	CouponTypeFixed   CouponType = "FIXED"
)

var validCouponTypes = map[CouponType]struct{}{
	CouponTypePercent: {},
	CouponTypeFixed:   {},
}

func ToCouponType(s string) (CouponType, error) {
	t := CouponType(s)
	if _, ok := validCouponTypes[t]; ok {
		return t, nil
	}
	return "", errors.New("invalid coupon type")
}

type Coupon struct {
	ID             int64
	Code           string
	Type           CouponType
	Value          decimal.Decimal
	MinSubtotal    *decimal.Decimal
	StartsAt       *time.Time
	EndsAt         *time.Time
	MaxRedemptions *int
	PerUserLimit   *int
	IsActive       bool

	CreatedAt time.Time
}

// WithinWindow reports whether t falls inside the coupon's validity window,
// treating a missing bound as unbounded.
func (c Coupon) WithinWindow(t time.Time) bool {
	if c.StartsAt != nil && t.Before(*c.StartsAt) {
		return false
	}
	if c.EndsAt != nil && t.After(*c.EndsAt) {
		return false
	}
	return true
}

// DiscountFor computes the raw discount against a subtotal. The result is not
// capped here; the order total clamps at zero downstream.
func (c Coupon) DiscountFor(subtotal decimal.Decimal) decimal.Decimal {
	switch c.Type {
	case CouponTypePercent:
		return subtotal.Mul(c.Value).Div(decimal.NewFromInt(100))
	case CouponTypeFixed:
		return c.Value
	default:
		return decimal.Zero
	}
}

// CouponRedemption rows are the source of truth for redemption counts: one row
// per order that used the coupon, never a mutable counter.
type CouponRedemption struct {
	ID              int64
	CouponID        int64
	OrderID         uuid.UUID
	UserID          *int64
	DiscountApplied decimal.Decimal

	CreatedAt time.Time
}
