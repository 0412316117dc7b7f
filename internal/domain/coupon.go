package domain

import "time"

type CouponType string

const (
	CouponTypeFixed      CouponType = "FIXED"
	CouponTypePercentage CouponType = "PERCENTAGE"
)

// ApplyDiscount returns the order amount after discount. PERCENTAGE keeps
// integer arithmetic (10000 at 10% -> 9000); FIXED never goes below zero.
func (t CouponType) ApplyDiscount(orderAmount, discountValue int64) int64 {
	switch t {
	case CouponTypePercentage:
		return orderAmount * (100 - discountValue) / 100
	case CouponTypeFixed:
		if discountValue >= orderAmount {
			return 0
		}
		return orderAmount - discountValue
	}
	return orderAmount
}

// Coupon is a finite discount pool. RemainingQuantity only ever decreases,
// and only through DecreaseQuantity under the allocator's row lock.
type Coupon struct {
	ID                int64
	Code              string
	Type              CouponType
	DiscountValue     int64
	RemainingQuantity int
	ValidFrom         time.Time
	ValidUntil        time.Time
}

func (c *Coupon) IsExpired(now time.Time) bool {
	return now.Before(c.ValidFrom) || now.After(c.ValidUntil)
}

func (c *Coupon) IsExhausted() bool {
	return c.RemainingQuantity <= 0
}

func (c *Coupon) ValidateUsable(now time.Time) error {
	if c.IsExpired(now) {
		return ErrCouponExpired
	}
	if c.IsExhausted() {
		return ErrAlreadyExhausted
	}
	return nil
}

func (c *Coupon) DecreaseQuantity() error {
	if c.RemainingQuantity <= 0 {
		return ErrAlreadyExhausted
	}
	c.RemainingQuantity--
	return nil
}

// CouponIssue is one user's claim on one coupon. At most one row exists
// per (UserID, CouponID); IsUsed transitions false->true exactly once.
type CouponIssue struct {
	ID       int64
	UserID   int64
	CouponID int64
	IssuedAt time.Time
	IsUsed   bool
}

func (ci *CouponIssue) MarkAsUsed() error {
	if ci.IsUsed {
		return ErrAlreadyIssued
	}
	ci.IsUsed = true
	return nil
}

// UserCoupon pairs an issue with its coupon for read paths.
type UserCoupon struct {
	Coupon Coupon
	Issue  CouponIssue
}
