package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

var testRate = decimal.NewFromInt(1400)

func TestMonthlyNative(t *testing.T) {
	tests := []struct {
		name  string
		cycle BillingCycle
		price int64
		want  string
	}{
		{"monthly passes through", Monthly, 12000, "12000"},
		{"yearly spread over twelve months", Yearly, 120, "10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSubscription()
			s.BillingCycle = tt.cycle
			s.Price = decimal.NewFromInt(tt.price)
			got := MonthlyNative(s)
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("MonthlyNative = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestYearlyNative(t *testing.T) {
	tests := []struct {
		name  string
		cycle BillingCycle
		price int64
		want  string
	}{
		{"monthly times twelve", Monthly, 12000, "144000"},
		{"yearly passes through", Yearly, 120, "120"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSubscription()
			s.BillingCycle = tt.cycle
			s.Price = decimal.NewFromInt(tt.price)
			got := YearlyNative(s)
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("YearlyNative = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestConvert(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		from, to Currency
		want     string
	}{
		{"identity KRW", "14000", KRW, KRW, "14000"},
		{"identity USD", "9.99", USD, USD, "9.99"},
		{"USD to KRW multiplies", "10", USD, KRW, "14000"},
		{"KRW to USD divides", "14000", KRW, USD, "10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Convert(decimal.RequireFromString(tt.amount), tt.from, tt.to, testRate)
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("Convert(%s, %s, %s) = %s, want %s", tt.amount, tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestDisplayAmountsKRWMonthly(t *testing.T) {
	s := validSubscription()
	s.Currency = KRW
	s.BillingCycle = Monthly
	s.Price = decimal.NewFromInt(12000)

	b := DisplayAmounts(s, testRate)

	if !b.MonthlyNative.Equal(decimal.NewFromInt(12000)) {
		t.Errorf("MonthlyNative = %s, want 12000", b.MonthlyNative)
	}
	if !b.YearlyKRW.Equal(decimal.NewFromInt(144000)) {
		t.Errorf("YearlyKRW = %s, want 144000", b.YearlyKRW)
	}
	// 12000 / 1400 is a repeating decimal; only check the rounded value.
	if got := b.MonthlyUSD.Round(2); !got.Equal(decimal.RequireFromString("8.57")) {
		t.Errorf("MonthlyUSD rounded = %s, want 8.57", got)
	}
}

func TestDisplayAmountsUSDYearly(t *testing.T) {
	s := validSubscription()
	s.Currency = USD
	s.BillingCycle = Yearly
	s.Price = decimal.NewFromInt(120)

	b := DisplayAmounts(s, testRate)

	if !b.MonthlyNative.Equal(decimal.NewFromInt(10)) {
		t.Errorf("MonthlyNative = %s, want 10", b.MonthlyNative)
	}
	if !b.MonthlyKRW.Equal(decimal.NewFromInt(14000)) {
		t.Errorf("MonthlyKRW = %s, want 14000", b.MonthlyKRW)
	}
	if !b.YearlyKRW.Equal(decimal.NewFromInt(168000)) {
		t.Errorf("YearlyKRW = %s, want 168000", b.YearlyKRW)
	}
	if !b.YearlyUSD.Equal(decimal.NewFromInt(120)) {
		t.Errorf("YearlyUSD = %s, want 120", b.YearlyUSD)
	}
}
