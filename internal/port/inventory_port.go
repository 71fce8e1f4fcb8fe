package port

import (
	"context"

	"github.com/CoVanAn/mibanhbaoServer/internal/domain"
)

type InventoryRepository interface {
	// Get auto-creates a zeroed row on first access: missing inventory is
	// zero stock, not an error.
	Get(ctx context.Context, variantID int64) (domain.Inventory, error)

	// Reserve decrements quantity by qty as a single conditional update and
	// returns InsufficientStockError when the decrement would go negative.
	Reserve(ctx context.Context, variantID int64, qty int) error

	// Release increments quantity by qty. Restocking is always safe, so there
	// is no upper bound.
	Release(ctx context.Context, variantID int64, qty int) error
}
