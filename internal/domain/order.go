package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderMethod string

const (
	OrderMethodPickup   OrderMethod = "PICKUP"
	OrderMethodDelivery OrderMethod = "DELIVERY"
)

var validOrderMethods = map[OrderMethod]struct{}{
	OrderMethodPickup:   {},
	OrderMethodDelivery: {},
}

func (m OrderMethod) IsValid() bool {
	_, ok := validOrderMethods[m]
	return ok
}

// Order is immutable once created except for status, notes and payment
// linkage. Customer, address and item fields are denormalized snapshots taken
// at creation time, so later catalog or address edits never alter history.
// Orders are never hard-deleted; cancellation is a status.
type Order struct {
	ID       uuid.UUID
	Code     string
	UserID   *int64
	CouponID *int64
	Method   OrderMethod
	Status   OrderStatus
	Currency string

	ItemsSubtotal decimal.Decimal
	ShippingFee   decimal.Decimal
	Discount      decimal.Decimal
	Total         decimal.Decimal

	CustomerName  string
	CustomerEmail *string
	CustomerPhone *string

	AddressLine *string
	Ward        *string
	District    *string
	Province    *string

	CustomerNote *string
	InternalNote *string
	PickupAt     *time.Time
	ScheduledAt  *time.Time

	Items         []OrderItem
	StatusHistory []OrderStatusChange
	Payments      []Payment

	CreatedAt time.Time
	UpdatedAt time.Time
}

// OrderItem carries full snapshots of the product and variant at order time:
// the cart's stamped unit price, not a fresh resolve.
type OrderItem struct {
	ID        int64
	OrderID   uuid.UUID
	ProductID int64
	VariantID int64

	Name     string
	Variant  string
	SKU      string
	ImageURL *string

	UnitPrice decimal.Decimal
	Quantity  int
	LineTotal decimal.Decimal

	CreatedAt time.Time
}

// OrderStatusChange is one append-only history row per transition. FromStatus
// is nil for the initial creation row.
type OrderStatusChange struct {
	ID         int64
	OrderID    uuid.UUID
	FromStatus *OrderStatus
	ToStatus   OrderStatus
	ActorID    *int64
	Reason     *string

	CreatedAt time.Time
}

type OrderTotals struct {
	ItemsSubtotal decimal.Decimal
	ShippingFee   decimal.Decimal
	Discount      decimal.Decimal
	Total         decimal.Decimal
}

// ComputeOrderTotals clamps the grand total at zero: an oversized discount
// never produces a negative order.
func ComputeOrderTotals(itemsSubtotal, shippingFee, discount decimal.Decimal) OrderTotals {
	total := itemsSubtotal.Add(shippingFee).Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return OrderTotals{
		ItemsSubtotal: itemsSubtotal,
		ShippingFee:   shippingFee,
		Discount:      discount,
		Total:         total,
	}
}

func (o Order) BelongsTo(userID int64) bool {
	return o.UserID != nil && *o.UserID == userID
}
