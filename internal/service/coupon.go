package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/CoVanAn/mibanhbaoServer/internal/domain"
	"github.com/CoVanAn/mibanhbaoServer/internal/port"
)

// CouponService validates coupon codes against a cart and manages the cart's
// coupon reference. The discount itself is recomputed live until the order is
// created; applying a coupon stores only the reference.
type CouponService struct {
	stores port.Stores
	carts  *CartService
	logger *zap.Logger
	now    func() time.Time
}

func NewCoupon(stores port.Stores, carts *CartService, logger *zap.Logger) *CouponService {
	return &CouponService{
		stores: stores,
		carts:  carts,
		logger: logger,
		now:    time.Now,
	}
}

// Apply looks the coupon up by code, runs the validation chain against the
// identity's cart and stores the reference on success.
func (s *CouponService) Apply(ctx context.Context, identity domain.Identity, code string) (domain.Cart, error) {
	var c domain.Cart

	if code == "" {
		return c, domain.NewValidationError("coupon code is required")
	}

	cart, err := s.carts.GetOrCreateCart(ctx, identity)
	if err != nil {
		return c, fmt.Errorf("carts.GetOrCreateCart: %w", err)
	}

	coupon, err := s.stores.Coupons.FindByCode(ctx, code)
	if err != nil {
		return c, fmt.Errorf("coupons.FindByCode: %w", err)
	}
	if coupon == nil {
		return c, domain.NewNotFoundError("coupon", "%s", code)
	}

	subtotal := cart.Totals().Subtotal
	if err := validateCoupon(ctx, s.stores, *coupon, identity.UserID, subtotal, s.now()); err != nil {
		return c, err
	}

	if err := s.stores.Carts.SetCoupon(ctx, cart.ID, &coupon.ID); err != nil {
		return c, fmt.Errorf("carts.SetCoupon: %w", err)
	}

	s.logger.Info("coupon applied",
		zap.String("code", coupon.Code),
		zap.String("cartID", cart.ID.String()))

	cart.CouponID = &coupon.ID
	return cart, nil
}

// Remove clears the cart's coupon reference.
func (s *CouponService) Remove(ctx context.Context, identity domain.Identity) (domain.Cart, error) {
	var c domain.Cart

	cart, err := s.carts.GetOrCreateCart(ctx, identity)
	if err != nil {
		return c, fmt.Errorf("carts.GetOrCreateCart: %w", err)
	}

	if cart.CouponID == nil {
		return cart, nil
	}

	if err := s.stores.Carts.SetCoupon(ctx, cart.ID, nil); err != nil {
		return c, fmt.Errorf("carts.SetCoupon: %w", err)
	}

	cart.CouponID = nil
	return cart, nil
}

// Evaluate computes the discount a coupon yields for a subtotal without
// touching any cart state.
func (s *CouponService) Evaluate(subtotal decimal.Decimal, coupon domain.Coupon) decimal.Decimal {
	return coupon.DiscountFor(subtotal)
}

// validateCoupon runs the rejection chain in order, short-circuiting on the
// first failure so each failure mode surfaces its own reason. Guests are
// exempt from per-user limiting since they have no stable identity. The same
// chain runs again inside the order transaction, where the redemption count
// and the redemption insert share one transaction.
func validateCoupon(ctx context.Context, st port.Stores, coupon domain.Coupon, userID *int64, subtotal decimal.Decimal, now time.Time) error {
	if !coupon.IsActive {
		return domain.NewValidationError("coupon is not active")
	}

	if coupon.StartsAt != nil && now.Before(*coupon.StartsAt) {
		return domain.NewValidationError("coupon is not yet valid")
	}
	if coupon.EndsAt != nil && now.After(*coupon.EndsAt) {
		return domain.NewValidationError("coupon has expired")
	}

	if coupon.MaxRedemptions != nil {
		count, err := st.Coupons.CountRedemptions(ctx, coupon.ID)
		if err != nil {
			return fmt.Errorf("coupons.CountRedemptions: %w", err)
		}
		if count >= *coupon.MaxRedemptions {
			return domain.NewValidationError("coupon redemption limit reached")
		}
	}

	if coupon.PerUserLimit != nil && userID != nil {
		count, err := st.Coupons.CountUserRedemptions(ctx, coupon.ID, *userID)
		if err != nil {
			return fmt.Errorf("coupons.CountUserRedemptions: %w", err)
		}
		if count >= *coupon.PerUserLimit {
			return domain.NewValidationError("you have reached the redemption limit for this coupon")
		}
	}

	if coupon.MinSubtotal != nil && subtotal.LessThan(*coupon.MinSubtotal) {
		return domain.NewValidationError(
			fmt.Sprintf("minimum order amount of %s required", coupon.MinSubtotal.String()))
	}

	return nil
}
