package port

import (
	"context"

	"github.com/CoVanAn/mibanhbaoServer/internal/domain"
)

// CatalogRepository is the read-only view of the catalog the cart and order
// pipeline need. Catalog management itself lives outside this module.
type CatalogRepository interface {
	GetProduct(ctx context.Context, productID int64) (domain.Product, error)
	GetVariant(ctx context.Context, variantID int64) (domain.Variant, error)
}
