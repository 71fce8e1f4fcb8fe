package port

import (
	"context"
	"time"

	"github.com/CoVanAn/mibanhbaoServer/internal/domain"
	"github.com/google/uuid"
)

type OrderRepository interface {
	// GetOrder loads the order with items, status history and payments.
	GetOrder(ctx context.Context, orderID uuid.UUID) (domain.Order, error)

	SearchOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error)
	CountOrders(ctx context.Context, filter domain.OrderFilter) (int, error)

	InsertOrder(ctx context.Context, order domain.Order) (domain.Order, error)

	UpdateStatus(ctx context.Context, orderID uuid.UUID, status domain.OrderStatus) error
	InsertStatusChange(ctx context.Context, change domain.OrderStatusChange) error

	UpdateNotes(ctx context.Context, orderID uuid.UUID, customerNote, internalNote *string) error

	// NextOrderCode produces the ORD-YYYYMMDD-NNNN code for the day by
	// scanning the max existing code with that day's prefix. Must run inside
	// the order-creation transaction.
	NextOrderCode(ctx context.Context, day time.Time) (string, error)
}

type PaymentRepository interface {
	GetPayment(ctx context.Context, paymentID int64) (domain.Payment, error)
	PaymentsByOrder(ctx context.Context, orderID uuid.UUID) ([]domain.Payment, error)

	InsertPayment(ctx context.Context, payment domain.Payment) (domain.Payment, error)

	// UpdatePaymentStatus records the new status and appends one
	// PaymentEvent audit row.
	UpdatePaymentStatus(ctx context.Context, paymentID int64, status domain.PaymentStatus, paidAt *time.Time) error

	EventsByPayment(ctx context.Context, paymentID int64) ([]domain.PaymentEvent, error)
}
