package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/CoVanAn/mibanhbaoServer/internal/domain"
	"github.com/CoVanAn/mibanhbaoServer/internal/port"
)

// PricingService owns a variant's price history. Mutations are
// append-and-deactivate, never update-in-place.
type PricingService struct {
	stores port.Stores
	tx     port.TxManager
	logger *zap.Logger
	now    func() time.Time
}

func NewPricing(stores port.Stores, tx port.TxManager, logger *zap.Logger) *PricingService {
	return &PricingService{
		stores: stores,
		tx:     tx,
		logger: logger,
		now:    time.Now,
	}
}

// ResolveCurrentPrice returns the effective price at asOf, or nil when the
// variant has no applicable price. Callers treat nil as "unpurchasable".
func (s *PricingService) ResolveCurrentPrice(ctx context.Context, variantID int64, asOf time.Time) (*domain.Price, error) {
	prices, err := s.stores.Prices.ActivePrices(ctx, variantID)
	if err != nil {
		return nil, fmt.Errorf("prices.ActivePrices: %w", err)
	}

	return domain.ResolveCurrentPrice(prices, asOf), nil
}

// SetPermanentPrice deactivates every existing record and inserts a fresh
// active permanent one, so exactly one permanent price governs from that
// moment on.
func (s *PricingService) SetPermanentPrice(ctx context.Context, variantID int64, amount decimal.Decimal) (domain.Price, error) {
	var created domain.Price

	if amount.IsNegative() {
		return created, domain.NewValidationError("price amount must be non-negative")
	}

	err := s.tx.Within(ctx, func(ctx context.Context, st port.Stores) error {
		if _, err := st.Catalog.GetVariant(ctx, variantID); err != nil {
			return fmt.Errorf("catalog.GetVariant: %w", err)
		}

		if err := st.Prices.DeactivateAll(ctx, variantID); err != nil {
			return fmt.Errorf("prices.DeactivateAll: %w", err)
		}

		price, err := st.Prices.InsertPrice(ctx, domain.Price{
			VariantID: variantID,
			Amount:    amount,
			IsActive:  true,
		})
		if err != nil {
			return fmt.Errorf("prices.InsertPrice: %w", err)
		}

		created = price
		return nil
	})
	if err != nil {
		return domain.Price{}, err
	}

	s.logger.Info("permanent price set",
		zap.Int64("variantID", variantID),
		zap.String("amount", amount.String()))

	return created, nil
}

// SetScheduledPrice inserts a date-bounded record. Both bounds are required
// and the window must not overlap any other active scheduled record for the
// variant; the permanent price may coexist and is simply shadowed while the
// window is live.
func (s *PricingService) SetScheduledPrice(ctx context.Context, variantID int64, amount decimal.Decimal, startsAt, endsAt time.Time) (domain.Price, error) {
	var created domain.Price

	var reasons []string
	if amount.IsNegative() {
		reasons = append(reasons, "price amount must be non-negative")
	}
	if startsAt.IsZero() || endsAt.IsZero() {
		reasons = append(reasons, "scheduled price must have both start and end dates")
	} else if endsAt.Before(startsAt) {
		reasons = append(reasons, "end date must not precede start date")
	}
	if len(reasons) > 0 {
		return created, domain.NewValidationError(reasons...)
	}

	err := s.tx.Within(ctx, func(ctx context.Context, st port.Stores) error {
		if _, err := st.Catalog.GetVariant(ctx, variantID); err != nil {
			return fmt.Errorf("catalog.GetVariant: %w", err)
		}

		scheduled, err := st.Prices.ActiveScheduled(ctx, variantID)
		if err != nil {
			return fmt.Errorf("prices.ActiveScheduled: %w", err)
		}

		for _, existing := range scheduled {
			if existing.Overlaps(startsAt, endsAt) {
				return domain.NewConflictError(
					"price period overlaps with another scheduled price (id=%d)", existing.ID)
			}
		}

		price, err := st.Prices.InsertPrice(ctx, domain.Price{
			VariantID: variantID,
			Amount:    amount,
			IsActive:  true,
			StartsAt:  &startsAt,
			EndsAt:    &endsAt,
		})
		if err != nil {
			return fmt.Errorf("prices.InsertPrice: %w", err)
		}

		created = price
		return nil
	})
	if err != nil {
		return domain.Price{}, err
	}

	s.logger.Info("scheduled price set",
		zap.Int64("variantID", variantID),
		zap.Time("startsAt", startsAt),
		zap.Time("endsAt", endsAt))

	return created, nil
}
