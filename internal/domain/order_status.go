package domain

import "errors"

type OrderStatus string

// remember to add new statuses to the validOrderStatuses map and to the
// transition table below
const (
	OrderStatusPending        OrderStatus = "PENDING"
	OrderStatusConfirmed      OrderStatus = "CONFIRMED"
	OrderStatusPreparing      OrderStatus = "PREPARING"
	OrderStatusReady          OrderStatus = "READY"
	OrderStatusOutForDelivery OrderStatus = "OUT_FOR_DELIVERY"
	OrderStatusCompleted      OrderStatus = "COMPLETED"
	OrderStatusCanceled       OrderStatus = "CANCELED"
	OrderStatusRefunded       OrderStatus = "REFUNDED"
)

var validOrderStatuses = map[OrderStatus]struct{}{
	OrderStatusPending:        {},
	OrderStatusConfirmed:      {},
	OrderStatusPreparing:      {},
	OrderStatusReady:          {},
	OrderStatusOutForDelivery: {},
	OrderStatusCompleted:      {},
	OrderStatusCanceled:       {},
	OrderStatusRefunded:       {},
}

// statusTransitions is the single authority on legal moves. COMPLETED directly
// from READY models pickup orders.
var statusTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:        {OrderStatusConfirmed, OrderStatusCanceled},
	OrderStatusConfirmed:      {OrderStatusPreparing, OrderStatusCanceled},
	OrderStatusPreparing:      {OrderStatusReady, OrderStatusCanceled},
	OrderStatusReady:          {OrderStatusOutForDelivery, OrderStatusCompleted, OrderStatusCanceled},
	OrderStatusOutForDelivery: {OrderStatusCompleted, OrderStatusCanceled},
	OrderStatusCompleted:      {OrderStatusRefunded},
	OrderStatusCanceled:       {},
	OrderStatusRefunded:       {},
}

func ToOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(s)
	if _, ok := validOrderStatuses[status]; ok {
		return status, nil
	}

	return "", errors.New("invalid order status")
}

func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

func (s OrderStatus) AllowedTransitions() []OrderStatus {
	allowed := statusTransitions[s]
	out := make([]OrderStatus, len(allowed))
	copy(out, allowed)
	return out
}

func (s OrderStatus) IsTerminal() bool {
	return len(statusTransitions[s]) == 0
}
