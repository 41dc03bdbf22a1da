// Package backup implements the portable JSON snapshot format used by the
// export and import endpoints. An import replaces the whole collection and
// is all-or-nothing: a single bad record rejects the file.
package backup

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"subtrack/internal/core"
)

const PayloadVersion = "1.0.0"

const dateLayout = "2006-01-02"

// Record is the wire form of a subscription inside a backup file.
type Record struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	ExpenseType  string          `json:"expenseType,omitempty"`
	Category     string          `json:"category,omitempty"`
	Currency     string          `json:"currency,omitempty"`
	Price        decimal.Decimal `json:"price"`
	BillingCycle string          `json:"billingCycle"`
	StartDate    string          `json:"startDate"`
	EndDate      string          `json:"endDate,omitempty"`
	Description  string          `json:"description,omitempty"`
}

// Payload is the top-level backup document.
type Payload struct {
	Version       string   `json:"version"`
	ExportDate    string   `json:"exportDate"`
	Subscriptions []Record `json:"subscriptions"`
	TotalCount    int      `json:"totalCount"`
}

// Export serializes the collection into a backup document.
func Export(subs []core.Subscription, now time.Time) Payload {
	records := make([]Record, 0, len(subs))
	for _, s := range subs {
		records = append(records, toRecord(s))
	}
	return Payload{
		Version:       PayloadVersion,
		ExportDate:    now.UTC().Format(time.RFC3339),
		Subscriptions: records,
		TotalCount:    len(records),
	}
}

func toRecord(s core.Subscription) Record {
	r := Record{
		ID:           s.ID,
		Name:         s.Name,
		ExpenseType:  string(s.ExpenseType),
		Category:     string(s.Category),
		Currency:     string(s.Currency),
		Price:        s.Price,
		BillingCycle: string(s.BillingCycle),
		StartDate:    s.StartDate.Format(dateLayout),
		Description:  s.Description,
	}
	if s.EndDate != nil {
		r.EndDate = s.EndDate.Format(dateLayout)
	}
	return r
}

// Import parses and validates a backup document. It returns the full
// normalized collection or an error describing the first rejected record;
// nothing is partially accepted.
func Import(data []byte) ([]core.Subscription, error) {
	var raw struct {
		Version       string            `json:"version"`
		Subscriptions []json.RawMessage `json:"subscriptions"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse backup file: %w", err)
	}
	if raw.Subscriptions == nil {
		return nil, fmt.Errorf("backup file has no subscriptions array")
	}

	subs := make([]core.Subscription, 0, len(raw.Subscriptions))
	seen := make(map[string]bool, len(raw.Subscriptions))
	for i, msg := range raw.Subscriptions {
		var rec Record
		if err := json.Unmarshal(msg, &rec); err != nil {
			return nil, fmt.Errorf("subscription %d: %w", i, err)
		}
		s, err := fromRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("subscription %d: %w", i, err)
		}
		if seen[s.ID] {
			return nil, fmt.Errorf("subscription %d: duplicate id %s", i, s.ID)
		}
		seen[s.ID] = true
		subs = append(subs, s)
	}
	return subs, nil
}

func fromRecord(r Record) (core.Subscription, error) {
	s := core.Subscription{
		ID:           r.ID,
		Name:         r.Name,
		ExpenseType:  core.ExpenseType(r.ExpenseType),
		Category:     core.Category(r.Category),
		Currency:     core.Currency(r.Currency),
		Price:        r.Price,
		BillingCycle: core.BillingCycle(r.BillingCycle),
		Description:  r.Description,
	}

	if r.StartDate != "" {
		start, err := time.ParseInLocation(dateLayout, r.StartDate, time.UTC)
		if err != nil {
			return core.Subscription{}, fmt.Errorf("invalid start date %q", r.StartDate)
		}
		s.StartDate = start
	}
	if r.EndDate != "" {
		end, err := time.ParseInLocation(dateLayout, r.EndDate, time.UTC)
		if err != nil {
			return core.Subscription{}, fmt.Errorf("invalid end date %q", r.EndDate)
		}
		s.EndDate = &end
	}

	s = s.Normalize()
	if err := s.Validate(); err != nil {
		return core.Subscription{}, err
	}
	return s, nil
}
