package http

import (
	"net/url"
	"testing"

	"github.com/shopspring/decimal"

	"subtrack/internal/core"
)

func subscriptionForm() url.Values {
	return url.Values{
		"name":         {"Netflix"},
		"expenseType":  {"personal"},
		"category":     {"streaming"},
		"currency":     {"KRW"},
		"price":        {"17000"},
		"billingCycle": {"monthly"},
		"startDate":    {"2024-01-15"},
		"description":  {"family plan"},
	}
}

func TestParseSubscriptionForm(t *testing.T) {
	t.Run("full form", func(t *testing.T) {
		form := subscriptionForm()
		form.Set("endDate", "2025-01-15")

		s, err := ParseSubscriptionForm(form)
		if err != nil {
			t.Fatalf("ParseSubscriptionForm: %v", err)
		}
		if s.Name != "Netflix" || s.Category != core.Streaming || s.Currency != core.KRW {
			t.Errorf("parsed = %+v, want form values", s)
		}
		if !s.Price.Equal(decimal.NewFromInt(17000)) {
			t.Errorf("Price = %s, want 17000", s.Price)
		}
		if !s.StartDate.Equal(core.NewDate(2024, 1, 15)) {
			t.Errorf("StartDate = %v, want 2024-01-15", s.StartDate)
		}
		if s.EndDate == nil || !s.EndDate.Equal(core.NewDate(2025, 1, 15)) {
			t.Errorf("EndDate = %v, want 2025-01-15", s.EndDate)
		}
	})

	t.Run("missing end date means indefinite", func(t *testing.T) {
		s, err := ParseSubscriptionForm(subscriptionForm())
		if err != nil {
			t.Fatalf("ParseSubscriptionForm: %v", err)
		}
		if s.EndDate != nil {
			t.Errorf("EndDate = %v, want nil", s.EndDate)
		}
	})

	t.Run("bad price", func(t *testing.T) {
		form := subscriptionForm()
		form.Set("price", "lots")
		if _, err := ParseSubscriptionForm(form); err == nil {
			t.Error("ParseSubscriptionForm accepted a non-numeric price")
		}
	})

	t.Run("bad start date", func(t *testing.T) {
		form := subscriptionForm()
		form.Set("startDate", "15/01/2024")
		if _, err := ParseSubscriptionForm(form); err == nil {
			t.Error("ParseSubscriptionForm accepted a malformed start date")
		}
	})

	t.Run("control characters stripped from name", func(t *testing.T) {
		form := subscriptionForm()
		form.Set("name", "Net\x00flix\x07")
		s, err := ParseSubscriptionForm(form)
		if err != nil {
			t.Fatalf("ParseSubscriptionForm: %v", err)
		}
		if s.Name != "Netflix" {
			t.Errorf("Name = %q, want control characters removed", s.Name)
		}
	})
}

func TestParseListQuery(t *testing.T) {
	tests := []struct {
		name         string
		raw          string
		wantTab      string
		wantCategory core.Category
		wantSearch   string
	}{
		{"defaults", "", "all", "", ""},
		{"unknown tab falls back", "tab=everything", "all", "", ""},
		{"personal tab", "tab=personal", "personal", "", ""},
		{"category all means any", "tab=company&category=all", "company", "", ""},
		{"category filter", "category=music", "all", core.Music, ""},
		{"search", "q=netflix", "all", "", "netflix"},
		{"search trimmed", "q=+netflix+", "all", "", "netflix"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, err := url.ParseQuery(tt.raw)
			if err != nil {
				t.Fatalf("ParseQuery: %v", err)
			}
			q := ParseListQuery(values)
			if q.Tab != tt.wantTab || q.Category != tt.wantCategory || q.Search != tt.wantSearch {
				t.Errorf("ParseListQuery(%q) = %+v, want tab=%q category=%q search=%q",
					tt.raw, q, tt.wantTab, tt.wantCategory, tt.wantSearch)
			}
		})
	}
}
