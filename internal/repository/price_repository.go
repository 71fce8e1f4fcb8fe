package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/CoVanAn/mibanhbaoServer/internal/domain"
	"github.com/CoVanAn/mibanhbaoServer/internal/port"
)

type priceRepository struct {
	db dbConn
}

func NewPrice(pool *pgxpool.Pool) port.PriceRepository {
	return &priceRepository{db: pool}
}

func NewPriceWithTx(tx pgx.Tx) port.PriceRepository {
	return &priceRepository{db: tx}
}

const priceColumns = `id, variant_id, amount, is_active, starts_at, ends_at, created_at`

func (r *priceRepository) ActivePrices(ctx context.Context, variantID int64) ([]domain.Price, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+priceColumns+`
		FROM prices
		WHERE variant_id = $1 AND is_active
		ORDER BY starts_at DESC NULLS LAST, id DESC`, variantID)
	if err != nil {
		return nil, fmt.Errorf("db.Query: %w", err)
	}
	defer rows.Close()

	return scanPrices(rows)
}

func (r *priceRepository) ActiveScheduled(ctx context.Context, variantID int64) ([]domain.Price, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+priceColumns+`
		FROM prices
		WHERE variant_id = $1 AND is_active
		  AND NOT (starts_at IS NULL AND ends_at IS NULL)
		ORDER BY starts_at DESC NULLS LAST, id DESC`, variantID)
	if err != nil {
		return nil, fmt.Errorf("db.Query: %w", err)
	}
	defer rows.Close()

	return scanPrices(rows)
}

func (r *priceRepository) DeactivateAll(ctx context.Context, variantID int64) error {
	if _, err := r.db.Exec(ctx, `
		UPDATE prices SET is_active = FALSE
		WHERE variant_id = $1`, variantID); err != nil {
		return fmt.Errorf("db.Exec: %w", err)
	}

	return nil
}

func (r *priceRepository) InsertPrice(ctx context.Context, price domain.Price) (domain.Price, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO prices (variant_id, amount, is_active, starts_at, ends_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		price.VariantID, price.Amount, price.IsActive, price.StartsAt, price.EndsAt)

	if err := row.Scan(&price.ID, &price.CreatedAt); err != nil {
		return domain.Price{}, fmt.Errorf("row.Scan: %w", err)
	}

	return price, nil
}

func scanPrices(rows pgx.Rows) ([]domain.Price, error) {
	var prices []domain.Price

	for rows.Next() {
		var p domain.Price
		if err := rows.Scan(&p.ID, &p.VariantID, &p.Amount, &p.IsActive, &p.StartsAt, &p.EndsAt, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("rows.Scan: %w", err)
		}
		prices = append(prices, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows.Err: %w", err)
	}

	return prices, nil
}
