package core

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func validSubscription() Subscription {
	return Subscription{
		ID:           "sub-1",
		Name:         "Netflix",
		ExpenseType:  Personal,
		Category:     Streaming,
		Currency:     KRW,
		Price:        decimal.NewFromInt(17000),
		BillingCycle: Monthly,
		StartDate:    NewDate(2024, 1, 15),
	}
}

func TestNormalizeDefaults(t *testing.T) {
	tests := []struct {
		name         string
		mutate       func(*Subscription)
		wantType     ExpenseType
		wantCurrency Currency
		wantCategory Category
	}{
		{
			name:         "empty legacy fields",
			mutate:       func(s *Subscription) { s.ExpenseType = ""; s.Currency = ""; s.Category = "" },
			wantType:     Personal,
			wantCurrency: KRW,
			wantCategory: Other,
		},
		{
			name:         "unknown values",
			mutate:       func(s *Subscription) { s.ExpenseType = "corporate"; s.Currency = "EUR"; s.Category = "games" },
			wantType:     Personal,
			wantCurrency: KRW,
			wantCategory: Other,
		},
		{
			name:         "valid values preserved",
			mutate:       func(s *Subscription) { s.ExpenseType = Company; s.Currency = USD; s.Category = Software },
			wantType:     Company,
			wantCurrency: USD,
			wantCategory: Software,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSubscription()
			tt.mutate(&s)
			got := s.Normalize()
			if got.ExpenseType != tt.wantType {
				t.Errorf("ExpenseType = %q, want %q", got.ExpenseType, tt.wantType)
			}
			if got.Currency != tt.wantCurrency {
				t.Errorf("Currency = %q, want %q", got.Currency, tt.wantCurrency)
			}
			if got.Category != tt.wantCategory {
				t.Errorf("Category = %q, want %q", got.Category, tt.wantCategory)
			}
		})
	}
}

func TestNormalizeTrimsText(t *testing.T) {
	s := validSubscription()
	s.Name = "  Netflix  "
	s.Description = " family plan "
	got := s.Normalize()
	if got.Name != "Netflix" {
		t.Errorf("Name = %q, want %q", got.Name, "Netflix")
	}
	if got.Description != "family plan" {
		t.Errorf("Description = %q, want %q", got.Description, "family plan")
	}
}

func TestValidate(t *testing.T) {
	end := NewDate(2024, 1, 1)

	tests := []struct {
		name    string
		mutate  func(*Subscription)
		wantErr error
	}{
		{"valid", func(s *Subscription) {}, nil},
		{"empty id", func(s *Subscription) { s.ID = "" }, ErrEmptyID},
		{"empty name", func(s *Subscription) { s.Name = "  " }, ErrEmptyName},
		{"zero price", func(s *Subscription) { s.Price = decimal.Zero }, ErrInvalidPrice},
		{"negative price", func(s *Subscription) { s.Price = decimal.NewFromInt(-5) }, ErrInvalidPrice},
		{"bad cycle", func(s *Subscription) { s.BillingCycle = "weekly" }, ErrInvalidCycle},
		{"bad currency", func(s *Subscription) { s.Currency = "EUR" }, ErrInvalidCurrency},
		{"bad type", func(s *Subscription) { s.ExpenseType = "corporate" }, ErrInvalidType},
		{"zero start", func(s *Subscription) { s.StartDate = time.Time{} }, ErrZeroStartDate},
		{"end before start", func(s *Subscription) { s.EndDate = &end }, ErrInvalidDateRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSubscription()
			tt.mutate(&s)
			err := s.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateEndEqualsStart(t *testing.T) {
	s := validSubscription()
	end := s.StartDate
	s.EndDate = &end
	if err := s.Validate(); err != nil {
		t.Errorf("end == start should be valid, got %v", err)
	}
}

func TestMatches(t *testing.T) {
	personal := validSubscription()
	company := validSubscription()
	company.ExpenseType = Company

	tests := []struct {
		name string
		sub  Subscription
		tab  string
		want bool
	}{
		{"all matches personal", personal, "all", true},
		{"all matches company", company, "all", true},
		{"empty tab matches", company, "", true},
		{"personal tab", personal, "personal", true},
		{"personal tab rejects company", company, "personal", false},
		{"company tab", company, "company", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sub.Matches(tt.tab); got != tt.want {
				t.Errorf("Matches(%q) = %v, want %v", tt.tab, got, tt.want)
			}
		})
	}
}

func TestNewIDUnique(t *testing.T) {
	a, b := NewID(), NewID()
	if a == "" || a == b {
		t.Errorf("NewID() produced %q and %q, want distinct non-empty ids", a, b)
	}
}

