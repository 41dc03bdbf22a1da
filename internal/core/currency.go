// Package core holds the pure domain logic of subtrack: the subscription
// record, currency conversion, cost normalization and aggregation.
//
// All functions here are free of I/O and shared state; callers pass in the
// data they operate on (records, the current exchange rate, "now") and get
// freshly computed values back.
package core

import "github.com/shopspring/decimal"

// Convert converts an amount between the two supported currencies using a
// USD→KRW rate ("1 USD = rate KRW").
//
// The identity conversion returns the amount untouched, with no rounding.
// An unsupported currency pair also returns the amount unchanged: the
// system supports exactly KRW and USD, and passthrough is the defined
// fallback, not an error. The rate must be positive; guaranteeing that is
// the rate provider's contract, not this function's.
func Convert(amount decimal.Decimal, from, to Currency, rate decimal.Decimal) decimal.Decimal {
	if from == to {
		return amount
	}
	switch {
	case from == USD && to == KRW:
		return amount.Mul(rate)
	case from == KRW && to == USD:
		return amount.Div(rate)
	}
	return amount
}
