package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cart is owned by exactly one identity: a user or a guest token. A guest cart
// is deleted once merged into a user cart; a user cart is cleared, not
// deleted, after order placement.
type Cart struct {
	ID         uuid.UUID
	UserID     *int64
	GuestToken *string
	CouponID   *int64
	Items      []CartItem

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CartItem captures its unit price at add/update time; reads never re-resolve
// the price, so displayed totals stay stable between writes.
type CartItem struct {
	ID        int64
	CartID    uuid.UUID
	ProductID int64
	VariantID int64
	Quantity  int
	UnitPrice decimal.Decimal

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (ci CartItem) LineTotal() decimal.Decimal {
	return ci.UnitPrice.Mul(decimal.NewFromInt(int64(ci.Quantity)))
}

func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// ItemByVariant returns the cart item for the variant, if any. At most one
// item per (cart, variant) exists.
func (c Cart) ItemByVariant(variantID int64) (CartItem, bool) {
	for _, item := range c.Items {
		if item.VariantID == variantID {
			return item, true
		}
	}
	return CartItem{}, false
}

func (c Cart) ItemByID(itemID int64) (CartItem, bool) {
	for _, item := range c.Items {
		if item.ID == itemID {
			return item, true
		}
	}
	return CartItem{}, false
}

// CartTotals is computed from stamped unit prices only.
type CartTotals struct {
	Subtotal   decimal.Decimal
	TotalItems int
	Currency   string
}

func (c Cart) Totals() CartTotals {
	subtotal := decimal.Zero
	totalItems := 0
	for _, item := range c.Items {
		subtotal = subtotal.Add(item.LineTotal())
		totalItems += item.Quantity
	}

	return CartTotals{
		Subtotal:   subtotal,
		TotalItems: totalItems,
		Currency:   DefaultCurrency.String(),
	}
}
