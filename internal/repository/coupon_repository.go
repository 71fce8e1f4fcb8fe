package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/CoVanAn/mibanhbaoServer/internal/domain"
	"github.com/CoVanAn/mibanhbaoServer/internal/port"
)

type couponRepository struct {
	db dbConn
}

func NewCoupon(pool *pgxpool.Pool) port.CouponRepository {
	return &couponRepository{db: pool}
}

func NewCouponWithTx(tx pgx.Tx) port.CouponRepository {
	return &couponRepository{db: tx}
}

const couponColumns = `id, code, type, value, min_subtotal, starts_at, ends_at,
	max_redemptions, per_user_limit, is_active, created_at`

func (r *couponRepository) FindByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+couponColumns+`
		FROM coupons
		WHERE code = $1`, code)

	coupon, err := scanCoupon(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scanCoupon: %w", err)
	}

	return &coupon, nil
}

func (r *couponRepository) GetCoupon(ctx context.Context, couponID int64) (domain.Coupon, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+couponColumns+`
		FROM coupons
		WHERE id = $1`, couponID)

	coupon, err := scanCoupon(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return coupon, domain.NewNotFoundError("coupon", "%d", couponID)
		}
		return coupon, fmt.Errorf("scanCoupon: %w", err)
	}

	return coupon, nil
}

func (r *couponRepository) CountRedemptions(ctx context.Context, couponID int64) (int, error) {
	var count int

	row := r.db.QueryRow(ctx, `
		SELECT count(*) FROM coupon_redemptions WHERE coupon_id = $1`, couponID)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("row.Scan: %w", err)
	}

	return count, nil
}

func (r *couponRepository) CountUserRedemptions(ctx context.Context, couponID, userID int64) (int, error) {
	var count int

	row := r.db.QueryRow(ctx, `
		SELECT count(*) FROM coupon_redemptions WHERE coupon_id = $1 AND user_id = $2`,
		couponID, userID)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("row.Scan: %w", err)
	}

	return count, nil
}

func (r *couponRepository) InsertRedemption(ctx context.Context, redemption domain.CouponRedemption) error {
	if _, err := r.db.Exec(ctx, `
		INSERT INTO coupon_redemptions (coupon_id, order_id, user_id, discount_applied)
		VALUES ($1, $2, $3, $4)`,
		redemption.CouponID, redemption.OrderID, redemption.UserID, redemption.DiscountApplied); err != nil {
		return fmt.Errorf("db.Exec: %w", err)
	}

	return nil
}

func scanCoupon(row pgx.Row) (domain.Coupon, error) {
	var c domain.Coupon
	var couponType string

	err := row.Scan(&c.ID, &c.Code, &couponType, &c.Value, &c.MinSubtotal,
		&c.StartsAt, &c.EndsAt, &c.MaxRedemptions, &c.PerUserLimit, &c.IsActive, &c.CreatedAt)
	if err != nil {
		return c, err
	}

	c.Type, err = domain.ToCouponType(couponType)
	if err != nil {
		return c, fmt.Errorf("domain.ToCouponType[%s]: %w", couponType, err)
	}

	return c, nil
}
