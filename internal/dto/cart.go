package dto

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/CoVanAn/mibanhbaoServer/internal/domain"
)

// CartItemDetail is the live catalog and stock state joined onto a cart item
// for presentation. Keyed by variant id.
type CartItemDetail struct {
	ProductName string
	VariantName string
	InStock     bool
	IsAvailable bool
}

type CartItemView struct {
	ID          int64           `json:"id"`
	ProductID   int64           `json:"productId"`
	ProductName string          `json:"productName"`
	VariantID   int64           `json:"variantId"`
	VariantName string          `json:"variantName"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Quantity    int             `json:"quantity"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	InStock     bool            `json:"inStock"`
	IsAvailable bool            `json:"isAvailable"`
}

type CartView struct {
	ID         uuid.UUID       `json:"id"`
	Items      []CartItemView  `json:"items"`
	CouponID   *int64          `json:"couponId,omitempty"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	TotalItems int             `json:"totalItems"`
	Currency   string          `json:"currency"`
}

// NewCartView renders a cart with its stamped prices; details carry the live
// per-variant state the cart itself does not store.
func NewCartView(cart domain.Cart, details map[int64]CartItemDetail) CartView {
	items := make([]CartItemView, 0, len(cart.Items))
	for _, item := range cart.Items {
		detail := details[item.VariantID]
		items = append(items, CartItemView{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: detail.ProductName,
			VariantID:   item.VariantID,
			VariantName: detail.VariantName,
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
			Subtotal:    item.LineTotal(),
			InStock:     detail.InStock,
			IsAvailable: detail.IsAvailable,
		})
	}

	totals := cart.Totals()

	return CartView{
		ID:         cart.ID,
		Items:      items,
		CouponID:   cart.CouponID,
		Subtotal:   totals.Subtotal,
		TotalItems: totals.TotalItems,
		Currency:   totals.Currency,
	}
}
