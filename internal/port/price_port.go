package port

import (
	"context"

	"github.com/CoVanAn/mibanhbaoServer/internal/domain"
)

type PriceRepository interface {
	// ActivePrices returns every active price record of the variant,
	// permanent and scheduled alike.
	ActivePrices(ctx context.Context, variantID int64) ([]domain.Price, error)

	// ActiveScheduled returns only the active date-bounded records, used for
	// overlap checks when scheduling a new window.
	ActiveScheduled(ctx context.Context, variantID int64) ([]domain.Price, error)

	// DeactivateAll flips isActive off on every record of the variant.
	DeactivateAll(ctx context.Context, variantID int64) error

	InsertPrice(ctx context.Context, price domain.Price) (domain.Price, error)
}
