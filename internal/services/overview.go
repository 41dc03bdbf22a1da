package services

import (
	"time"

	"github.com/shopspring/decimal"

	"subtrack/internal/billing"
	"subtrack/internal/core"
)

// Overview carries the aggregate totals for each expense tab, all computed
// from the same snapshot and rate.
type Overview struct {
	All      core.AggregateTotals
	Personal core.AggregateTotals
	Company  core.AggregateTotals
}

// BuildOverview aggregates the collection under every tab scope at once.
func BuildOverview(subs []core.Subscription, rate decimal.Decimal) Overview {
	return Overview{
		All:      core.Aggregate(subs, core.ScopeAll, rate),
		Personal: core.Aggregate(subs, core.ScopePersonal, rate),
		Company:  core.Aggregate(subs, core.ScopeCompany, rate),
	}
}

// Card is one subscription prepared for display: the record, its billing
// state and its per-cycle cost breakdown.
type Card struct {
	Subscription core.Subscription
	State        billing.State
	Costs        core.CostBreakdown
}

// BuildCards filters, sorts and enriches the collection for rendering.
// The same now and rate apply to every card so a request sees one
// consistent snapshot.
func BuildCards(subs []core.Subscription, q billing.Query, rate decimal.Decimal, now time.Time) []Card {
	entries := billing.Select(subs, q, now)
	cards := make([]Card, len(entries))
	for i, e := range entries {
		cards[i] = Card{
			Subscription: e.Subscription,
			State:        e.State,
			Costs:        core.DisplayAmounts(e.Subscription, rate),
		}
	}
	return cards
}
