package domain

import "time"

// Inventory is one row per variant. Quantity is mutated only through the
// ledger's reserve and release operations and never goes negative.
type Inventory struct {
	VariantID   int64
	Quantity    int
	SafetyStock int

	UpdatedAt time.Time
}

func (i Inventory) IsLow() bool {
	return i.Quantity <= i.SafetyStock
}
