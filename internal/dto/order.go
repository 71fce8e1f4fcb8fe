package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/CoVanAn/mibanhbaoServer/internal/domain"
)

type OrderItemView struct {
	Name      string          `json:"name"`
	Variant   string          `json:"variant"`
	SKU       string          `json:"sku"`
	ImageURL  *string         `json:"imageUrl,omitempty"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

type StatusChangeView struct {
	FromStatus *string   `json:"fromStatus,omitempty"`
	ToStatus   string    `json:"toStatus"`
	Reason     *string   `json:"reason,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

type PaymentView struct {
	ID       int64           `json:"id"`
	Provider string          `json:"provider"`
	Amount   decimal.Decimal `json:"amount"`
	Status   string          `json:"status"`
	PaidAt   *time.Time      `json:"paidAt,omitempty"`
}

type OrderView struct {
	ID            uuid.UUID          `json:"id"`
	Code          string             `json:"code"`
	Status        string             `json:"status"`
	Method        string             `json:"method"`
	Currency      string             `json:"currency"`
	ItemsSubtotal decimal.Decimal    `json:"itemsSubtotal"`
	ShippingFee   decimal.Decimal    `json:"shippingFee"`
	Discount      decimal.Decimal    `json:"discount"`
	Total         decimal.Decimal    `json:"total"`
	CustomerName  string             `json:"customerName"`
	CustomerNote  *string            `json:"customerNote,omitempty"`
	PickupAt      *time.Time         `json:"pickupAt,omitempty"`
	ScheduledAt   *time.Time         `json:"scheduledAt,omitempty"`
	Items         []OrderItemView    `json:"items"`
	StatusHistory []StatusChangeView `json:"statusHistory"`
	Payments      []PaymentView      `json:"payments"`
	CreatedAt     time.Time          `json:"createdAt"`
}

func NewOrderView(order domain.Order) OrderView {
	return OrderView{
		ID:            order.ID,
		Code:          order.Code,
		Status:        string(order.Status),
		Method:        string(order.Method),
		Currency:      order.Currency,
		ItemsSubtotal: order.ItemsSubtotal,
		ShippingFee:   order.ShippingFee,
		Discount:      order.Discount,
		Total:         order.Total,
		CustomerName:  order.CustomerName,
		CustomerNote:  order.CustomerNote,
		PickupAt:      order.PickupAt,
		ScheduledAt:   order.ScheduledAt,
		Items: lo.Map(order.Items, func(item domain.OrderItem, _ int) OrderItemView {
			return OrderItemView{
				Name:      item.Name,
				Variant:   item.Variant,
				SKU:       item.SKU,
				ImageURL:  item.ImageURL,
				UnitPrice: item.UnitPrice,
				Quantity:  item.Quantity,
				LineTotal: item.LineTotal,
			}
		}),
		StatusHistory: lo.Map(order.StatusHistory, func(change domain.OrderStatusChange, _ int) StatusChangeView {
			var from *string
			if change.FromStatus != nil {
				from = lo.ToPtr(string(*change.FromStatus))
			}
			return StatusChangeView{
				FromStatus: from,
				ToStatus:   string(change.ToStatus),
				Reason:     change.Reason,
				CreatedAt:  change.CreatedAt,
			}
		}),
		Payments: lo.Map(order.Payments, func(payment domain.Payment, _ int) PaymentView {
			return PaymentView{
				ID:       payment.ID,
				Provider: payment.Provider,
				Amount:   payment.Amount,
				Status:   string(payment.Status),
				PaidAt:   payment.PaidAt,
			}
		}),
		CreatedAt: order.CreatedAt,
	}
}
