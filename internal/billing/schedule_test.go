package billing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"subtrack/internal/core"
)

func datePtr(year, month, day int) *time.Time {
	d := core.NewDate(year, month, day)
	return &d
}

func TestNextBillingDate(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		end   *time.Time
		cycle core.BillingCycle
		today time.Time
		want  *time.Time
	}{
		{
			name:  "monthly anchor later this month",
			start: core.NewDate(2024, 1, 15),
			cycle: core.Monthly,
			today: core.NewDate(2024, 3, 10),
			want:  datePtr(2024, 3, 15),
		},
		{
			name:  "monthly anchor is today",
			start: core.NewDate(2024, 1, 15),
			cycle: core.Monthly,
			today: core.NewDate(2024, 3, 15),
			want:  datePtr(2024, 3, 15),
		},
		{
			name:  "monthly anchor already passed rolls to next month",
			start: core.NewDate(2024, 1, 15),
			cycle: core.Monthly,
			today: core.NewDate(2024, 3, 20),
			want:  datePtr(2024, 4, 15),
		},
		{
			name:  "monthly day 31 clamps to leap February",
			start: core.NewDate(2024, 1, 31),
			cycle: core.Monthly,
			today: core.NewDate(2024, 2, 10),
			want:  datePtr(2024, 2, 29),
		},
		{
			name:  "monthly day 31 clamps to short February",
			start: core.NewDate(2023, 1, 31),
			cycle: core.Monthly,
			today: core.NewDate(2023, 2, 10),
			want:  datePtr(2023, 2, 28),
		},
		{
			name:  "monthly day 31 clamps to 30-day month after rollover",
			start: core.NewDate(2024, 1, 31),
			cycle: core.Monthly,
			today: core.NewDate(2024, 4, 1),
			want:  datePtr(2024, 4, 30),
		},
		{
			name:  "yearly anniversary still ahead this year",
			start: core.NewDate(2022, 6, 10),
			cycle: core.Yearly,
			today: core.NewDate(2024, 3, 1),
			want:  datePtr(2024, 6, 10),
		},
		{
			name:  "yearly anniversary passed rolls to next year",
			start: core.NewDate(2022, 6, 10),
			cycle: core.Yearly,
			today: core.NewDate(2024, 7, 1),
			want:  datePtr(2025, 6, 10),
		},
		{
			name:  "yearly Feb 29 anchor clamps in common year",
			start: core.NewDate(2024, 2, 29),
			cycle: core.Yearly,
			today: core.NewDate(2025, 1, 1),
			want:  datePtr(2025, 2, 28),
		},
		{
			name:  "future start is the first billing",
			start: core.NewDate(2024, 9, 1),
			cycle: core.Monthly,
			today: core.NewDate(2024, 3, 1),
			want:  datePtr(2024, 9, 1),
		},
		{
			name:  "lapsed subscription has no next billing",
			start: core.NewDate(2023, 1, 1),
			end:   datePtr(2024, 1, 1),
			cycle: core.Monthly,
			today: core.NewDate(2024, 3, 1),
			want:  nil,
		},
		{
			name:  "ends today still bills",
			start: core.NewDate(2024, 2, 1),
			end:   datePtr(2024, 3, 1),
			cycle: core.Monthly,
			today: core.NewDate(2024, 3, 1),
			want:  datePtr(2024, 3, 1),
		},
		{
			name:  "inverted range yields nothing",
			start: core.NewDate(2024, 6, 1),
			end:   datePtr(2024, 1, 1),
			cycle: core.Monthly,
			today: core.NewDate(2023, 12, 1),
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextBillingDate(tt.start, tt.end, tt.cycle, tt.today)
			switch {
			case tt.want == nil && got != nil:
				t.Errorf("NextBillingDate = %v, want nil", got)
			case tt.want != nil && got == nil:
				t.Errorf("NextBillingDate = nil, want %v", *tt.want)
			case tt.want != nil && !got.Equal(*tt.want):
				t.Errorf("NextBillingDate = %v, want %v", *got, *tt.want)
			}
		})
	}
}

func TestDaysUntil(t *testing.T) {
	today := core.NewDate(2024, 3, 15)

	tests := []struct {
		name   string
		target time.Time
		want   int
	}{
		{"same day", core.NewDate(2024, 3, 15), 0},
		{"tomorrow", core.NewDate(2024, 3, 16), 1},
		{"next month", core.NewDate(2024, 4, 15), 31},
		{"past clamps to zero", core.NewDate(2024, 3, 1), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DaysUntil(tt.target, today); got != tt.want {
				t.Errorf("DaysUntil = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDerive(t *testing.T) {
	base := core.Subscription{
		ID:           "s-1",
		Name:         "Gym",
		ExpenseType:  core.Personal,
		Category:     core.Fitness,
		Currency:     core.KRW,
		Price:        decimal.NewFromInt(50000),
		BillingCycle: core.Monthly,
		StartDate:    core.NewDate(2024, 1, 10),
	}
	now := core.NewDate(2024, 3, 15)

	t.Run("active subscription", func(t *testing.T) {
		st := Derive(base, now)
		if st.Expired || st.ExpiringSoon {
			t.Errorf("Expired=%v ExpiringSoon=%v, want both false", st.Expired, st.ExpiringSoon)
		}
		if st.DaysSinceStart != 65 {
			t.Errorf("DaysSinceStart = %d, want 65", st.DaysSinceStart)
		}
		if st.NextBillingDate == nil || !st.NextBillingDate.Equal(core.NewDate(2024, 4, 10)) {
			t.Errorf("NextBillingDate = %v, want 2024-04-10", st.NextBillingDate)
		}
		if st.DaysUntilBilling == nil || *st.DaysUntilBilling != 26 {
			t.Errorf("DaysUntilBilling = %v, want 26", st.DaysUntilBilling)
		}
	})

	t.Run("expiring soon inside the window", func(t *testing.T) {
		s := base
		s.EndDate = datePtr(2024, 4, 1)
		st := Derive(s, now)
		if st.Expired {
			t.Error("Expired = true, want false")
		}
		if !st.ExpiringSoon {
			t.Error("ExpiringSoon = false, want true")
		}
	})

	t.Run("end date beyond the window", func(t *testing.T) {
		s := base
		s.EndDate = datePtr(2024, 12, 31)
		st := Derive(s, now)
		if st.Expired || st.ExpiringSoon {
			t.Errorf("Expired=%v ExpiringSoon=%v, want both false", st.Expired, st.ExpiringSoon)
		}
	})

	t.Run("expired subscription", func(t *testing.T) {
		s := base
		s.EndDate = datePtr(2024, 2, 1)
		st := Derive(s, now)
		if !st.Expired {
			t.Error("Expired = false, want true")
		}
		if st.ExpiringSoon {
			t.Error("ExpiringSoon = true, want false")
		}
		if st.NextBillingDate != nil {
			t.Errorf("NextBillingDate = %v, want nil", st.NextBillingDate)
		}
		if st.DaysUntilBilling != nil {
			t.Errorf("DaysUntilBilling = %v, want nil", st.DaysUntilBilling)
		}
	})

	t.Run("future start has zero days since start", func(t *testing.T) {
		s := base
		s.StartDate = core.NewDate(2024, 9, 1)
		st := Derive(s, now)
		if st.DaysSinceStart != 0 {
			t.Errorf("DaysSinceStart = %d, want 0", st.DaysSinceStart)
		}
	})
}

func TestMidnight(t *testing.T) {
	in := time.Date(2024, 3, 15, 18, 45, 12, 999, time.UTC)
	got := Midnight(in)
	if !got.Equal(core.NewDate(2024, 3, 15)) {
		t.Errorf("Midnight = %v, want 2024-03-15T00:00:00Z", got)
	}
}
