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

type catalogRepository struct {
	db dbConn
}

func NewCatalog(pool *pgxpool.Pool) port.CatalogRepository {
	return &catalogRepository{db: pool}
}

func NewCatalogWithTx(tx pgx.Tx) port.CatalogRepository {
	return &catalogRepository{db: tx}
}

func (r *catalogRepository) GetProduct(ctx context.Context, productID int64) (domain.Product, error) {
	var p domain.Product

	row := r.db.QueryRow(ctx, `
		SELECT id, name, slug, is_active, image_url, created_at, updated_at
		FROM products
		WHERE id = $1`, productID)

	err := row.Scan(&p.ID, &p.Name, &p.Slug, &p.IsActive, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return p, domain.NewNotFoundError("product", "%d", productID)
		}
		return p, fmt.Errorf("row.Scan: %w", err)
	}

	return p, nil
}

func (r *catalogRepository) GetVariant(ctx context.Context, variantID int64) (domain.Variant, error) {
	var v domain.Variant

	row := r.db.QueryRow(ctx, `
		SELECT id, product_id, name, sku, is_active, created_at, updated_at
		FROM product_variants
		WHERE id = $1`, variantID)

	err := row.Scan(&v.ID, &v.ProductID, &v.Name, &v.SKU, &v.IsActive, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return v, domain.NewNotFoundError("variant", "%d", variantID)
		}
		return v, fmt.Errorf("row.Scan: %w", err)
	}

	return v, nil
}
