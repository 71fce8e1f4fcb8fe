package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/CoVanAn/mibanhbaoServer/internal/domain"
	"github.com/CoVanAn/mibanhbaoServer/internal/port"
)

type inventoryRepository struct {
	db dbConn
}

func NewInventory(pool *pgxpool.Pool) port.InventoryRepository {
	return &inventoryRepository{db: pool}
}

func NewInventoryWithTx(tx pgx.Tx) port.InventoryRepository {
	return &inventoryRepository{db: tx}
}

// Get treats a missing row as zero stock and materializes it, so later
// conditional updates always have a row to hit.
func (r *inventoryRepository) Get(ctx context.Context, variantID int64) (domain.Inventory, error) {
	var inv domain.Inventory

	if _, err := r.db.Exec(ctx, `
		INSERT INTO inventory (variant_id)
		VALUES ($1)
		ON CONFLICT (variant_id) DO NOTHING`, variantID); err != nil {
		return inv, fmt.Errorf("db.Exec insert: %w", err)
	}

	row := r.db.QueryRow(ctx, `
		SELECT variant_id, quantity, safety_stock, updated_at
		FROM inventory
		WHERE variant_id = $1`, variantID)

	if err := row.Scan(&inv.VariantID, &inv.Quantity, &inv.SafetyStock, &inv.UpdatedAt); err != nil {
		return inv, fmt.Errorf("row.Scan: %w", err)
	}

	return inv, nil
}

// Reserve is a single conditional update: the quantity check and the
// decrement happen in one statement, so concurrent reservations can never
// oversell. A zero affected-row count means the stock was short.
func (r *inventoryRepository) Reserve(ctx context.Context, variantID int64, qty int) error {
	if qty <= 0 {
		return domain.NewValidationError("reserve quantity must be positive")
	}

	cmdTag, err := r.db.Exec(ctx, `
		UPDATE inventory
		SET quantity = quantity - $2, updated_at = now()
		WHERE variant_id = $1 AND quantity >= $2`, variantID, qty)
	if err != nil {
		return fmt.Errorf("db.Exec: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		inv, err := r.Get(ctx, variantID)
		if err != nil {
			return fmt.Errorf("r.Get: %w", err)
		}
		return &domain.InsufficientStockError{
			VariantID: variantID,
			Requested: qty,
			Available: inv.Quantity,
		}
	}

	return nil
}

func (r *inventoryRepository) Release(ctx context.Context, variantID int64, qty int) error {
	if qty <= 0 {
		return domain.NewValidationError("release quantity must be positive")
	}

	if _, err := r.db.Exec(ctx, `
		INSERT INTO inventory (variant_id, quantity)
		VALUES ($1, $2)
		ON CONFLICT (variant_id)
		DO UPDATE SET quantity = inventory.quantity + EXCLUDED.quantity, updated_at = now()`,
		variantID, qty); err != nil {
		return fmt.Errorf("db.Exec: %w", err)
	}

	return nil
}
