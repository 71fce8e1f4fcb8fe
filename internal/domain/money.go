package domain

import (
	"golang.org/x/text/currency"
)

// DefaultCurrency is the unit behind every stored amount. Prices, cart lines
// and order totals are bare decimals; the currency is stamped onto carts and
// orders as a column so a future multi-currency catalog does not need a
// schema change.
var DefaultCurrency = currency.MustParseISO("VND")
