package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// OrderFilter has AND semantics across fields, OR semantics within each field
// slice. An empty filter matches all orders.
type OrderFilter struct {
	IDs         []uuid.UUID
	UserIDs     []int64
	Statuses    []OrderStatus
	Methods     []OrderMethod
	CodePattern string
	CreatedAt   *TimeRange

	Limit  int
	Offset int
}

func (f OrderFilter) Validate() error {
	for _, status := range f.Statuses {
		if _, err := ToOrderStatus(string(status)); err != nil {
			return fmt.Errorf("status[%s]: %w", status, err)
		}
	}

	for _, method := range f.Methods {
		if !method.IsValid() {
			return fmt.Errorf("method[%s] is not valid", method)
		}
	}

	if f.Limit < 0 || f.Offset < 0 {
		return errors.New("limit and offset must be non-negative")
	}

	if f.CreatedAt != nil {
		if err := f.CreatedAt.Validate(); err != nil {
			return fmt.Errorf("createdAt: %w", err)
		}
	}

	return nil
}

type TimeRange struct {
	Before *time.Time
	After  *time.Time
}

func (t TimeRange) Validate() error {
	if t.Before == nil && t.After == nil {
		return errors.New("both Before and After are nil")
	}

	if t.Before != nil && t.After != nil {
		if t.Before.Before(*t.After) {
			return fmt.Errorf("before is before After")
		}
	}

	return nil
}
