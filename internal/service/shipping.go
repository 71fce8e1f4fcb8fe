package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/CoVanAn/mibanhbaoServer/internal/domain"
	"github.com/CoVanAn/mibanhbaoServer/internal/port"
)

// FlatRateShipping charges one configured fee for every delivery and nothing
// for pickup. Good enough until a real carrier integration exists.
type FlatRateShipping struct {
	rate decimal.Decimal
}

func NewFlatRateShipping(rate decimal.Decimal) *FlatRateShipping {
	return &FlatRateShipping{rate: rate}
}

var _ port.ShippingCalculator = (*FlatRateShipping)(nil)

func (s *FlatRateShipping) Fee(_ context.Context, method domain.OrderMethod, _ *domain.Address) (decimal.Decimal, error) {
	if method == domain.OrderMethodPickup {
		return decimal.Zero, nil
	}
	return s.rate, nil
}
