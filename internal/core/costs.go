package core

import "github.com/shopspring/decimal"

var monthsPerYear = decimal.NewFromInt(12)

// CostBreakdown carries a subscription's normalized cost in its native
// currency and converted to both supported currencies. Values are full
// precision; rounding and formatting belong to the presentation layer.
type CostBreakdown struct {
	MonthlyNative decimal.Decimal
	YearlyNative  decimal.Decimal
	MonthlyKRW    decimal.Decimal
	MonthlyUSD    decimal.Decimal
	YearlyKRW     decimal.Decimal
	YearlyUSD     decimal.Decimal
}

// MonthlyNative returns the per-month cost in the record's native currency:
// a yearly price spread over twelve months, a monthly price as-is.
func MonthlyNative(s Subscription) decimal.Decimal {
	if s.BillingCycle == Yearly {
		return s.Price.Div(monthsPerYear)
	}
	return s.Price
}

// YearlyNative returns the per-year cost in the record's native currency.
func YearlyNative(s Subscription) decimal.Decimal {
	if s.BillingCycle == Monthly {
		return s.Price.Mul(monthsPerYear)
	}
	return s.Price
}

// DisplayAmounts derives the full cost breakdown for one subscription
// using the given USD→KRW rate.
func DisplayAmounts(s Subscription, rate decimal.Decimal) CostBreakdown {
	monthly := MonthlyNative(s)
	yearly := YearlyNative(s)
	return CostBreakdown{
		MonthlyNative: monthly,
		YearlyNative:  yearly,
		MonthlyKRW:    Convert(monthly, s.Currency, KRW, rate),
		MonthlyUSD:    Convert(monthly, s.Currency, USD, rate),
		YearlyKRW:     Convert(yearly, s.Currency, KRW, rate),
		YearlyUSD:     Convert(yearly, s.Currency, USD, rate),
	}
}
