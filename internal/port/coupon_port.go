package port

import (
	"context"

	"github.com/CoVanAn/mibanhbaoServer/internal/domain"
)

type CouponRepository interface {
	// FindByCode returns nil when no coupon carries the code.
	FindByCode(ctx context.Context, code string) (*domain.Coupon, error)
	GetCoupon(ctx context.Context, couponID int64) (domain.Coupon, error)

	// Redemption counts are derived by counting persisted rows, never from a
	// mutable counter, so concurrent checkouts cannot both slip past a limit
	// when counted inside the inserting transaction.
	CountRedemptions(ctx context.Context, couponID int64) (int, error)
	CountUserRedemptions(ctx context.Context, couponID, userID int64) (int, error)

	InsertRedemption(ctx context.Context, redemption domain.CouponRedemption) error
}
