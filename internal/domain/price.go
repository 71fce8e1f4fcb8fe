package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Price is one record of a variant's price history. Records are appended and
// deactivated, never updated in place. A record with neither bound is the
// permanent price; a record with both bounds is a scheduled window which takes
// precedence over the permanent price while it contains the current time.
type Price struct {
	ID        int64
	VariantID int64
	Amount    decimal.Decimal
	IsActive  bool
	StartsAt  *time.Time
	EndsAt    *time.Time

	CreatedAt time.Time
}

func (p Price) IsPermanent() bool {
	return p.StartsAt == nil && p.EndsAt == nil
}

func (p Price) IsScheduled() bool {
	return !p.IsPermanent()
}

// Contains reports whether the record's window contains t, treating a missing
// bound as unbounded on that side.
func (p Price) Contains(t time.Time) bool {
	if p.StartsAt != nil && t.Before(*p.StartsAt) {
		return false
	}
	if p.EndsAt != nil && t.After(*p.EndsAt) {
		return false
	}
	return true
}

// Overlaps reports whether two closed intervals [p.StartsAt, p.EndsAt] and
// [startsAt, endsAt] intersect: s1 <= e2 AND s2 <= e1.
func (p Price) Overlaps(startsAt, endsAt time.Time) bool {
	if p.StartsAt != nil && p.StartsAt.After(endsAt) {
		return false
	}
	if p.EndsAt != nil && p.EndsAt.Before(startsAt) {
		return false
	}
	return true
}

// ResolveCurrentPrice picks the single effective price among a variant's
// records at asOf. Scheduled windows containing asOf win over the permanent
// record; among several qualifying windows the one with the latest StartsAt
// wins, tie-broken by highest ID. Returns nil when no price applies, which
// callers must treat as "unpurchasable".
func ResolveCurrentPrice(prices []Price, asOf time.Time) *Price {
	var scheduled *Price
	for i := range prices {
		p := &prices[i]
		if !p.IsActive || !p.IsScheduled() || !p.Contains(asOf) {
			continue
		}
		if scheduled == nil || startsAfter(p, scheduled) {
			scheduled = p
		}
	}
	if scheduled != nil {
		return scheduled
	}

	var permanent *Price
	for i := range prices {
		p := &prices[i]
		if !p.IsActive || !p.IsPermanent() {
			continue
		}
		if permanent == nil || p.ID > permanent.ID {
			permanent = p
		}
	}
	return permanent
}

func startsAfter(a, b *Price) bool {
	sa, sb := a.StartsAt, b.StartsAt
	switch {
	case sa == nil && sb == nil:
		return a.ID > b.ID
	case sa == nil:
		return false
	case sb == nil:
		return true
	case sa.Equal(*sb):
		return a.ID > b.ID
	default:
		return sa.After(*sb)
	}
}
