// Package billing computes billing-cycle projections for subscription
// records: the next billing occurrence, the days remaining until it, and
// the derived lifecycle state (expired, expiring soon) used by the UI.
//
// All date arithmetic works on calendar days: inputs are normalized to
// midnight UTC before any comparison, so a billing due today is day 0,
// never a fractional day.
package billing

import (
	"time"

	"subtrack/internal/core"
)

// ExpiringSoonWindow is how close an end date has to be before a
// subscription is flagged as expiring soon.
const ExpiringSoonWindow = 30 * 24 * time.Hour

// State is the ephemeral per-record billing view, recomputed from the
// record plus "now" on every pass and never persisted.
type State struct {
	NextBillingDate  *time.Time
	DaysUntilBilling *int
	DaysSinceStart   int
	Expired          bool
	ExpiringSoon     bool
}

// Midnight strips the time-of-day component, keeping the calendar date in UTC.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func lastDayOfMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// dateClamped builds a date from components, clamping the day to the
// length of the target month (anchor day 31 against February yields the
// 28th or 29th). Clamping, applied uniformly here, is the module's policy
// for month-end overflow.
func dateClamped(year int, month time.Month, day int) time.Time {
	if last := lastDayOfMonth(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// NextBillingDate computes the next billing occurrence for a record with
// the given start date, optional end date and cycle, as seen from today.
// It returns nil when no further billing exists: the subscription has
// lapsed (today past the end date) or carries an inverted date range,
// which is tolerated defensively rather than rejected here.
func NextBillingDate(start time.Time, end *time.Time, cycle core.BillingCycle, today time.Time) *time.Time {
	today = Midnight(today)
	start = Midnight(start)

	if end != nil {
		e := Midnight(*end)
		if today.After(e) {
			return nil
		}
		if e.Before(start) {
			return nil
		}
	}

	// First billing is the start date itself.
	if start.After(today) {
		return &start
	}

	anchorDay := start.Day()
	var candidate time.Time
	switch cycle {
	case core.Yearly:
		candidate = dateClamped(today.Year(), start.Month(), anchorDay)
		if candidate.Before(today) {
			candidate = dateClamped(today.Year()+1, start.Month(), anchorDay)
		}
	case core.Monthly:
		candidate = dateClamped(today.Year(), today.Month(), anchorDay)
		if candidate.Before(today) {
			next := time.Date(today.Year(), today.Month()+1, 1, 0, 0, 0, 0, time.UTC)
			candidate = dateClamped(next.Year(), next.Month(), anchorDay)
		}
	default:
		return nil
	}
	return &candidate
}

// DaysUntil returns the whole calendar days from today until target,
// never negative. A target of today is 0.
func DaysUntil(target, today time.Time) int {
	target = Midnight(target)
	today = Midnight(today)
	days := int(target.Sub(today) / (24 * time.Hour))
	if days < 0 {
		return 0
	}
	return days
}

// Derive computes the full billing state for one record as of now.
func Derive(s core.Subscription, now time.Time) State {
	today := Midnight(now)
	st := State{}

	if s.EndDate != nil {
		end := Midnight(*s.EndDate)
		st.Expired = today.After(end)
		st.ExpiringSoon = !st.Expired && end.Sub(today) <= ExpiringSoonWindow
	}

	if start := Midnight(s.StartDate); !start.After(today) {
		st.DaysSinceStart = int(today.Sub(start) / (24 * time.Hour))
	}

	if next := NextBillingDate(s.StartDate, s.EndDate, s.BillingCycle, today); next != nil {
		st.NextBillingDate = next
		days := DaysUntil(*next, today)
		st.DaysUntilBilling = &days
	}
	return st
}
