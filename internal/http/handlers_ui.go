package http

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"subtrack/internal/core"
	"subtrack/internal/services"
)

// cardView is a subscription prepared for the list template, amounts
// already formatted for display.
type cardView struct {
	ID            string
	Name          string
	Description   string
	ExpenseType   string
	Category      string
	PriceNative   string
	BillingCycle  string
	StartDate     string
	EndDate       string
	NextBilling   string
	DaysUntil     string
	DaysActive    int
	MonthlyKRW    string
	MonthlyUSD    string
	YearlyKRW     string
	YearlyUSD     string
	Expired       bool
	ExpiringSoon  bool
	HasNextCharge bool
}

type listView struct {
	Tab      string
	Category string
	Search   string
	Cards    []cardView
	Count    int
}

// handleSubscriptionList renders the filtered, sorted subscription list
// partial. Rendered fragments are cached briefly and purged on writes.
func (s *Server) handleSubscriptionList(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	q := ParseListQuery(r.URL.Query())
	key := "list|" + q.Tab + "|" + string(q.Category) + "|" + q.Search

	if html, found := s.fragmentCache.Get(key); found {
		slog.DebugContext(r.Context(), "List fragment cache hit", "tab", q.Tab)
		_, _ = w.Write([]byte(html))
		return
	}

	subs, err := s.store.List(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Subscription list error", "error", err)
		_, _ = w.Write([]byte(`<div class="error">Failed to load subscriptions</div>`))
		return
	}

	rate := s.rates.CurrentRate()
	now := time.Now().UTC()
	cards := services.BuildCards(subs, q, rate, now)

	data := listView{
		Tab:      q.Tab,
		Category: string(q.Category),
		Search:   q.Search,
		Count:    len(cards),
	}
	for _, c := range cards {
		data.Cards = append(data.Cards, buildCardView(c))
	}

	html, err := s.renderFragment("subscription_list.html", data)
	if err != nil {
		slog.ErrorContext(r.Context(), "Template execution error", "error", err, "template", "subscription_list.html")
		_, _ = w.Write([]byte(`<div class="error">Failed to render subscriptions</div>`))
		return
	}

	s.fragmentCache.Set(key, html)
	_, _ = w.Write([]byte(html))
}

func buildCardView(c services.Card) cardView {
	sub := c.Subscription
	v := cardView{
		ID:           sub.ID,
		Name:         sub.Name,
		Description:  sub.Description,
		ExpenseType:  string(sub.ExpenseType),
		Category:     string(sub.Category),
		BillingCycle: string(sub.BillingCycle),
		StartDate:    formatDate(sub.StartDate),
		EndDate:      formatDatePtr(sub.EndDate),
		MonthlyKRW:   formatKRW(c.Costs.MonthlyKRW),
		MonthlyUSD:   formatUSD(c.Costs.MonthlyUSD),
		YearlyKRW:    formatKRW(c.Costs.YearlyKRW),
		YearlyUSD:    formatUSD(c.Costs.YearlyUSD),
		DaysActive:   c.State.DaysSinceStart,
		Expired:      c.State.Expired,
		ExpiringSoon: c.State.ExpiringSoon,
	}

	if sub.Currency == core.KRW {
		v.PriceNative = formatKRW(sub.Price)
	} else {
		v.PriceNative = formatUSD(sub.Price)
	}

	if c.State.NextBillingDate != nil {
		v.HasNextCharge = true
		v.NextBilling = formatDate(*c.State.NextBillingDate)
	}
	if c.State.DaysUntilBilling != nil {
		v.DaysUntil = strconv.Itoa(*c.State.DaysUntilBilling)
	}
	return v
}

type totalsView struct {
	Count      int
	MonthlyKRW string
	MonthlyUSD string
	YearlyKRW  string
	YearlyUSD  string
}

type statsView struct {
	Tab         string
	Totals      totalsView
	RateKRW     string
	RateUpdated string
}

// handleStats renders the aggregate totals partial for the requested tab.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	q := ParseListQuery(r.URL.Query())
	key := "stats|" + q.Tab

	if html, found := s.fragmentCache.Get(key); found {
		slog.DebugContext(r.Context(), "Stats fragment cache hit", "tab", q.Tab)
		_, _ = w.Write([]byte(html))
		return
	}

	subs, err := s.store.List(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Subscription list error for stats", "error", err)
		_, _ = w.Write([]byte(`<div class="error">Failed to load stats</div>`))
		return
	}

	for _, sub := range subs {
		if sub.Price.Sign() <= 0 {
			slog.WarnContext(r.Context(), "Subscription with non-positive price excluded from totals", "id", sub.ID)
			break
		}
	}

	rate := s.rates.CurrentRate()
	overview := services.BuildOverview(subs, rate)

	var totals core.AggregateTotals
	switch q.Tab {
	case "personal":
		totals = overview.Personal
	case "company":
		totals = overview.Company
	default:
		totals = overview.All
	}

	data := statsView{
		Tab: q.Tab,
		Totals: totalsView{
			Count:      totals.Count,
			MonthlyKRW: formatKRW(totals.MonthlyKRW),
			MonthlyUSD: formatUSD(totals.MonthlyUSD),
			YearlyKRW:  formatKRW(totals.YearlyKRW),
			YearlyUSD:  formatUSD(totals.YearlyUSD),
		},
		RateKRW: formatKRW(rate),
	}
	if updated := s.rates.LastUpdated(); !updated.IsZero() {
		data.RateUpdated = updated.UTC().Format("2006-01-02 15:04 MST")
	}

	html, err := s.renderFragment("stats.html", data)
	if err != nil {
		slog.ErrorContext(r.Context(), "Template execution error", "error", err, "template", "stats.html")
		_, _ = w.Write([]byte(`<div class="error">Failed to render stats</div>`))
		return
	}

	s.fragmentCache.Set(key, html)
	_, _ = w.Write([]byte(html))
}

func (s *Server) renderFragment(name string, data any) (string, error) {
	if s.templates == nil {
		return "", errors.New("templates not loaded")
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
