package core

import "github.com/shopspring/decimal"

// Scope selects the partition of the collection an aggregate covers.
type Scope func(Subscription) bool

func ScopeAll(Subscription) bool { return true }

func ScopePersonal(s Subscription) bool { return s.ExpenseType == Personal }

func ScopeCompany(s Subscription) bool { return s.ExpenseType == Company }

// AggregateTotals is the reduced view of one scope: record count plus
// total monthly and yearly cost in both currencies. It is a display
// aggregate, not an accounting ledger; summation order is insignificant.
type AggregateTotals struct {
	Count      int
	MonthlyKRW decimal.Decimal
	MonthlyUSD decimal.Decimal
	YearlyKRW  decimal.Decimal
	YearlyUSD  decimal.Decimal
}

// Aggregate filters the collection by scope and reduces the surviving set.
// An empty input yields a zero-valued total. A record with a missing or
// non-positive price still counts but contributes nothing to the sums;
// that is a documented degradation, one bad record never aborts the pass.
func Aggregate(subs []Subscription, scope Scope, rate decimal.Decimal) AggregateTotals {
	var t AggregateTotals
	for _, s := range subs {
		if !scope(s) {
			continue
		}
		t.Count++
		if s.Price.Sign() <= 0 {
			continue
		}
		monthly := MonthlyNative(s)
		yearly := YearlyNative(s)
		t.MonthlyKRW = t.MonthlyKRW.Add(Convert(monthly, s.Currency, KRW, rate))
		t.MonthlyUSD = t.MonthlyUSD.Add(Convert(monthly, s.Currency, USD, rate))
		t.YearlyKRW = t.YearlyKRW.Add(Convert(yearly, s.Currency, KRW, rate))
		t.YearlyUSD = t.YearlyUSD.Add(Convert(yearly, s.Currency, USD, rate))
	}
	return t
}
