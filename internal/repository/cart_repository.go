package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/CoVanAn/mibanhbaoServer/internal/domain"
	"github.com/CoVanAn/mibanhbaoServer/internal/port"
)

type cartRepository struct {
	db dbConn
}

func NewCart(pool *pgxpool.Pool) port.CartRepository {
	return &cartRepository{db: pool}
}

func NewCartWithTx(tx pgx.Tx) port.CartRepository {
	return &cartRepository{db: tx}
}

func (r *cartRepository) FindByUser(ctx context.Context, userID int64) (*domain.Cart, error) {
	return r.findCart(ctx, `user_id = $1`, userID)
}

func (r *cartRepository) FindByGuest(ctx context.Context, guestToken string) (*domain.Cart, error) {
	return r.findCart(ctx, `guest_token = $1`, guestToken)
}

func (r *cartRepository) findCart(ctx context.Context, where string, arg any) (*domain.Cart, error) {
	var c domain.Cart

	row := r.db.QueryRow(ctx, `
		SELECT id, user_id, guest_token, coupon_id, created_at, updated_at
		FROM carts
		WHERE `+where, arg)

	err := row.Scan(&c.ID, &c.UserID, &c.GuestToken, &c.CouponID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("row.Scan: %w", err)
	}

	items, err := r.cartItems(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("r.cartItems: %w", err)
	}
	c.Items = items

	return &c, nil
}

func (r *cartRepository) cartItems(ctx context.Context, cartID uuid.UUID) ([]domain.CartItem, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, cart_id, product_id, variant_id, quantity, unit_price, created_at, updated_at
		FROM cart_items
		WHERE cart_id = $1
		ORDER BY id`, cartID)
	if err != nil {
		return nil, fmt.Errorf("db.Query: %w", err)
	}
	defer rows.Close()

	var items []domain.CartItem
	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(&item.ID, &item.CartID, &item.ProductID, &item.VariantID,
			&item.Quantity, &item.UnitPrice, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("rows.Scan: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows.Err: %w", err)
	}

	return items, nil
}

func (r *cartRepository) CreateCart(ctx context.Context, identity domain.Identity) (domain.Cart, error) {
	var c domain.Cart

	if err := identity.Validate(); err != nil {
		return c, fmt.Errorf("identity.Validate: %w", err)
	}

	// A cart is owned by exactly one identity; a user cart never persists the
	// guest token it may have been created alongside.
	var userID *int64
	var guestToken *string
	if identity.HasUser() {
		userID = identity.UserID
	} else {
		guestToken = identity.GuestToken
	}

	row := r.db.QueryRow(ctx, `
		INSERT INTO carts (user_id, guest_token)
		VALUES ($1, $2)
		RETURNING id, user_id, guest_token, coupon_id, created_at, updated_at`,
		userID, guestToken)

	err := row.Scan(&c.ID, &c.UserID, &c.GuestToken, &c.CouponID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return c, fmt.Errorf("row.Scan: %w", err)
	}

	return c, nil
}

func (r *cartRepository) DeleteCart(ctx context.Context, cartID uuid.UUID) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM carts WHERE id = $1`, cartID)
	if err != nil {
		return fmt.Errorf("db.Exec: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return domain.NewNotFoundError("cart", "%s", cartID)
	}

	return nil
}

func (r *cartRepository) InsertItem(ctx context.Context, item domain.CartItem) (domain.CartItem, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO cart_items (cart_id, product_id, variant_id, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`,
		item.CartID, item.ProductID, item.VariantID, item.Quantity, item.UnitPrice)

	if err := row.Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt); err != nil {
		return domain.CartItem{}, fmt.Errorf("row.Scan: %w", err)
	}

	return item, nil
}

func (r *cartRepository) UpdateItem(ctx context.Context, itemID int64, quantity int, unitPrice decimal.Decimal) error {
	cmdTag, err := r.db.Exec(ctx, `
		UPDATE cart_items
		SET quantity = $2, unit_price = $3, updated_at = now()
		WHERE id = $1`, itemID, quantity, unitPrice)
	if err != nil {
		return fmt.Errorf("db.Exec: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return domain.NewNotFoundError("cart item", "%d", itemID)
	}

	return nil
}

func (r *cartRepository) DeleteItem(ctx context.Context, itemID int64) (bool, error) {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM cart_items WHERE id = $1`, itemID)
	if err != nil {
		return false, fmt.Errorf("db.Exec: %w", err)
	}

	return cmdTag.RowsAffected() > 0, nil
}

func (r *cartRepository) DeleteItems(ctx context.Context, cartID uuid.UUID) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return fmt.Errorf("db.Exec: %w", err)
	}

	return nil
}

func (r *cartRepository) SetCoupon(ctx context.Context, cartID uuid.UUID, couponID *int64) error {
	cmdTag, err := r.db.Exec(ctx, `
		UPDATE carts
		SET coupon_id = $2, updated_at = now()
		WHERE id = $1`, cartID, couponID)
	if err != nil {
		return fmt.Errorf("db.Exec: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return domain.NewNotFoundError("cart", "%s", cartID)
	}

	return nil
}
