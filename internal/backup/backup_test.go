package backup

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"subtrack/internal/core"
)

func sampleSubscriptions() []core.Subscription {
	end := core.NewDate(2025, 6, 30)
	return []core.Subscription{
		{
			ID:           "a-1",
			Name:         "Netflix",
			ExpenseType:  core.Personal,
			Category:     core.Streaming,
			Currency:     core.KRW,
			Price:        decimal.NewFromInt(17000),
			BillingCycle: core.Monthly,
			StartDate:    core.NewDate(2024, 1, 15),
			Description:  "family plan",
		},
		{
			ID:           "b-2",
			Name:         "GitHub",
			ExpenseType:  core.Company,
			Category:     core.Software,
			Currency:     core.USD,
			Price:        decimal.RequireFromString("21.00"),
			BillingCycle: core.Yearly,
			StartDate:    core.NewDate(2023, 3, 1),
			EndDate:      &end,
		},
	}
}

func TestExportShape(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	p := Export(sampleSubscriptions(), now)

	if p.Version != PayloadVersion {
		t.Errorf("Version = %q, want %q", p.Version, PayloadVersion)
	}
	if p.ExportDate != "2024-03-15T10:30:00Z" {
		t.Errorf("ExportDate = %q, want RFC3339 timestamp", p.ExportDate)
	}
	if p.TotalCount != 2 || len(p.Subscriptions) != 2 {
		t.Fatalf("TotalCount = %d, records = %d, want 2 each", p.TotalCount, len(p.Subscriptions))
	}

	first := p.Subscriptions[0]
	if first.StartDate != "2024-01-15" {
		t.Errorf("StartDate = %q, want 2024-01-15", first.StartDate)
	}
	if first.EndDate != "" {
		t.Errorf("EndDate = %q, want empty for indefinite", first.EndDate)
	}
	if p.Subscriptions[1].EndDate != "2025-06-30" {
		t.Errorf("EndDate = %q, want 2025-06-30", p.Subscriptions[1].EndDate)
	}
}

func TestExportEmptyCollection(t *testing.T) {
	p := Export(nil, time.Now())
	if p.TotalCount != 0 {
		t.Errorf("TotalCount = %d, want 0", p.TotalCount)
	}
	if p.Subscriptions == nil {
		t.Error("Subscriptions is nil, want empty array for a valid backup file")
	}
}

func TestImportRoundtrip(t *testing.T) {
	orig := sampleSubscriptions()
	data, err := json.Marshal(Export(orig, time.Now()))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	got, err := Import(data)
	if err != nil {
		t.Fatalf("Import() = %v, want nil", err)
	}
	if len(got) != len(orig) {
		t.Fatalf("imported %d records, want %d", len(got), len(orig))
	}
	for i := range orig {
		if got[i].ID != orig[i].ID || got[i].Name != orig[i].Name {
			t.Errorf("record %d: got %s/%s, want %s/%s", i, got[i].ID, got[i].Name, orig[i].ID, orig[i].Name)
		}
		if !got[i].Price.Equal(orig[i].Price) {
			t.Errorf("record %d: Price = %s, want %s", i, got[i].Price, orig[i].Price)
		}
		if !got[i].StartDate.Equal(orig[i].StartDate) {
			t.Errorf("record %d: StartDate = %v, want %v", i, got[i].StartDate, orig[i].StartDate)
		}
	}
	if got[1].EndDate == nil || !got[1].EndDate.Equal(*orig[1].EndDate) {
		t.Errorf("record 1: EndDate = %v, want %v", got[1].EndDate, orig[1].EndDate)
	}
}

func TestImportAppliesLegacyDefaults(t *testing.T) {
	data := []byte(`{
		"version": "1.0.0",
		"subscriptions": [
			{"id": "legacy-1", "name": "Old Service", "price": 9900,
			 "billingCycle": "monthly", "startDate": "2022-05-01"}
		]
	}`)

	got, err := Import(data)
	if err != nil {
		t.Fatalf("Import() = %v, want nil", err)
	}
	s := got[0]
	if s.ExpenseType != core.Personal {
		t.Errorf("ExpenseType = %q, want personal default", s.ExpenseType)
	}
	if s.Currency != core.KRW {
		t.Errorf("Currency = %q, want KRW default", s.Currency)
	}
	if s.Category != core.Other {
		t.Errorf("Category = %q, want other default", s.Category)
	}
}

func TestImportRejections(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		errPart string
		wantErr error
	}{
		{
			name:    "not json",
			data:    `{"subscriptions": [`,
			errPart: "parse backup file",
		},
		{
			name:    "missing subscriptions array",
			data:    `{"version": "1.0.0"}`,
			errPart: "no subscriptions array",
		},
		{
			name: "missing id",
			data: `{"subscriptions": [{"name": "X", "price": 10,
				"billingCycle": "monthly", "startDate": "2024-01-01"}]}`,
			wantErr: core.ErrEmptyID,
		},
		{
			name: "missing name",
			data: `{"subscriptions": [{"id": "x", "price": 10,
				"billingCycle": "monthly", "startDate": "2024-01-01"}]}`,
			wantErr: core.ErrEmptyName,
		},
		{
			name: "non-positive price",
			data: `{"subscriptions": [{"id": "x", "name": "X", "price": 0,
				"billingCycle": "monthly", "startDate": "2024-01-01"}]}`,
			wantErr: core.ErrInvalidPrice,
		},
		{
			name: "bad start date",
			data: `{"subscriptions": [{"id": "x", "name": "X", "price": 10,
				"billingCycle": "monthly", "startDate": "01/15/2024"}]}`,
			errPart: "invalid start date",
		},
		{
			name: "missing start date",
			data: `{"subscriptions": [{"id": "x", "name": "X", "price": 10,
				"billingCycle": "monthly"}]}`,
			wantErr: core.ErrZeroStartDate,
		},
		{
			name: "end before start",
			data: `{"subscriptions": [{"id": "x", "name": "X", "price": 10,
				"billingCycle": "monthly", "startDate": "2024-06-01", "endDate": "2024-01-01"}]}`,
			wantErr: core.ErrInvalidDateRange,
		},
		{
			name: "duplicate id",
			data: `{"subscriptions": [
				{"id": "dup", "name": "A", "price": 10, "billingCycle": "monthly", "startDate": "2024-01-01"},
				{"id": "dup", "name": "B", "price": 20, "billingCycle": "yearly", "startDate": "2024-02-01"}]}`,
			errPart: "duplicate id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Import([]byte(tt.data))
			if err == nil {
				t.Fatal("Import() = nil error, want rejection")
			}
			if got != nil {
				t.Errorf("Import() returned %d records alongside an error, want none", len(got))
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
			if tt.errPart != "" && !strings.Contains(err.Error(), tt.errPart) {
				t.Errorf("err = %v, want it to mention %q", err, tt.errPart)
			}
		})
	}
}

func TestImportBadRecordRejectsWholeFile(t *testing.T) {
	data := []byte(`{"subscriptions": [
		{"id": "ok", "name": "Fine", "price": 10, "billingCycle": "monthly", "startDate": "2024-01-01"},
		{"id": "bad", "name": "Broken", "price": -5, "billingCycle": "monthly", "startDate": "2024-01-01"}
	]}`)

	if _, err := Import(data); err == nil {
		t.Fatal("Import() accepted a file with one bad record, want all-or-nothing rejection")
	}
}
