package port

import (
	"context"

	"github.com/CoVanAn/mibanhbaoServer/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CartRepository interface {
	// FindByUser and FindByGuest return nil when no cart exists for the
	// identity; creation is the caller's decision.
	FindByUser(ctx context.Context, userID int64) (*domain.Cart, error)
	FindByGuest(ctx context.Context, guestToken string) (*domain.Cart, error)

	CreateCart(ctx context.Context, identity domain.Identity) (domain.Cart, error)
	DeleteCart(ctx context.Context, cartID uuid.UUID) error

	InsertItem(ctx context.Context, item domain.CartItem) (domain.CartItem, error)
	UpdateItem(ctx context.Context, itemID int64, quantity int, unitPrice decimal.Decimal) error
	DeleteItem(ctx context.Context, itemID int64) (bool, error)
	DeleteItems(ctx context.Context, cartID uuid.UUID) error

	SetCoupon(ctx context.Context, cartID uuid.UUID, couponID *int64) error
}
