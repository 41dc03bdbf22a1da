package billing

import (
	"sort"
	"strings"
	"time"

	"subtrack/internal/core"
)

// Query narrows the display list: tab scopes by expense type ("all"
// matches everything), Category and Search are empty-means-any.
type Query struct {
	Tab      string
	Category core.Category
	Search   string
}

// Entry pairs a record with its billing state so the caller never has to
// recompute the state the ordering was derived from.
type Entry struct {
	Subscription core.Subscription
	State        State
}

// Select filters the collection by the query and orders the result by
// ascending next billing date. Records with no further billing date
// (lapsed) sort after every record that has one, keeping their relative
// order. A single "now" is used for the whole pass so every comparison
// sees the same clock.
func Select(subs []core.Subscription, q Query, now time.Time) []Entry {
	search := strings.ToLower(strings.TrimSpace(q.Search))

	entries := make([]Entry, 0, len(subs))
	for _, s := range subs {
		if !s.Matches(q.Tab) {
			continue
		}
		if q.Category != "" && s.Category != q.Category {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(s.Name), search) &&
			!strings.Contains(strings.ToLower(s.Description), search) {
			continue
		}
		entries = append(entries, Entry{Subscription: s, State: Derive(s, now)})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i].State.NextBillingDate, entries[j].State.NextBillingDate
		switch {
		case a == nil && b == nil:
			return false
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.Before(*b)
		}
	})
	return entries
}
