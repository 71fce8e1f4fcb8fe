package port

import (
	"context"

	"github.com/CoVanAn/mibanhbaoServer/internal/domain"
	"github.com/shopspring/decimal"
)

// External collaborators. Implementations live outside the core; the core
// only consumes these interfaces.

// AddressBook resolves a user's saved address for copying into an order
// snapshot. Returns nil when the address does not exist or belongs to
// another user.
type AddressBook interface {
	GetAddress(ctx context.Context, addressID, userID int64) (*domain.Address, error)
}

// CustomerDirectory is the identity provider's lookup of customer contact
// details.
type CustomerDirectory interface {
	GetCustomer(ctx context.Context, userID int64) (domain.Customer, error)
}

// ShippingCalculator prices delivery for a method and optional address.
type ShippingCalculator interface {
	Fee(ctx context.Context, method domain.OrderMethod, address *domain.Address) (decimal.Decimal, error)
}
