package port

import "context"

// Stores bundles every repository bound to the same database handle. Inside
// TxManager.Within all of them share one transaction, so multi-store
// operations (cart merge, order assembly) are all-or-nothing.
type Stores struct {
	Catalog   CatalogRepository
	Prices    PriceRepository
	Inventory InventoryRepository
	Carts     CartRepository
	Coupons   CouponRepository
	Orders    OrderRepository
	Payments  PaymentRepository
}

type TxManager interface {
	// Within runs fn inside one transaction. Any error rolls everything back;
	// no other component ever observes an intermediate state.
	Within(ctx context.Context, fn func(ctx context.Context, s Stores) error) error
}
