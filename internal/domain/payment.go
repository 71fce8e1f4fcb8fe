package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusUnpaid   PaymentStatus = "UNPAID"
	PaymentStatusPaid     PaymentStatus = "PAID"
	PaymentStatusFailed   PaymentStatus = "FAILED"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
)

var validPaymentStatuses = map[PaymentStatus]struct{}{
	PaymentStatusUnpaid:   {},
	PaymentStatusPaid:     {},
	PaymentStatusFailed:   {},
	PaymentStatusRefunded: {},
}

func ToPaymentStatus(s string) (PaymentStatus, error) {
	status := PaymentStatus(s)
	if _, ok := validPaymentStatuses[status]; ok {
		return status, nil
	}
	return "", errors.New("invalid payment status")
}

func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusPaid || s == PaymentStatusRefunded
}

// PaymentProviderCOD is the default pay-on-delivery provider assigned to every
// new order; its payment is marked PAID when the order completes.
const PaymentProviderCOD = "COD"

type Payment struct {
	ID          int64
	OrderID     uuid.UUID
	Provider    string
	ProviderRef *string
	Amount      decimal.Decimal
	Status      PaymentStatus
	PaidAt      *time.Time

	CreatedAt time.Time
}

// PaymentEvent rows form an append-only audit trail, one per status change.
type PaymentEvent struct {
	ID        int64
	PaymentID int64
	Type      string

	OccurredAt time.Time
}
