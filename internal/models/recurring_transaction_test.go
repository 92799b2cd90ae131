package models

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestFrequencyNextAfter(t *testing.T) {
	day31 := 31

	tests := []struct {
		name       string
		frequency  Frequency
		from       time.Time
		dayOfMonth *int
		want       time.Time
	}{
		{"daily", FrequencyDaily, date(2024, time.March, 10), nil, date(2024, time.March, 11)},
		{"daily_across_month_end", FrequencyDaily, date(2024, time.January, 31), nil, date(2024, time.February, 1)},
		{"weekly", FrequencyWeekly, date(2024, time.March, 10), nil, date(2024, time.March, 17)},
		{"monthly_plain", FrequencyMonthly, date(2024, time.March, 10), nil, date(2024, time.April, 10)},
		{"monthly_pinned_31_into_leap_february", FrequencyMonthly, date(2024, time.January, 31), &day31, date(2024, time.February, 29)},
		{"monthly_pinned_31_into_nonleap_february", FrequencyMonthly, date(2023, time.January, 31), &day31, date(2023, time.February, 28)},
		{"monthly_pinned_reexpands_after_short_month", FrequencyMonthly, date(2024, time.February, 29), &day31, date(2024, time.March, 31)},
		{"monthly_december_wraps_year", FrequencyMonthly, date(2024, time.December, 15), nil, date(2025, time.January, 15)},
		{"monthly_unpinned_clamps_day_31", FrequencyMonthly, date(2024, time.March, 31), nil, date(2024, time.April, 30)},
		{"quarterly", FrequencyQuarterly, date(2024, time.January, 15), nil, date(2024, time.April, 15)},
		{"quarterly_clamps_into_short_month", FrequencyQuarterly, date(2024, time.November, 30), nil, date(2025, time.February, 28)},
		{"yearly", FrequencyYearly, date(2024, time.March, 10), nil, date(2025, time.March, 10)},
		{"yearly_leap_day_clamps", FrequencyYearly, date(2024, time.February, 29), nil, date(2025, time.February, 28)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.frequency.NextAfter(tt.from, tt.dayOfMonth)
			if !got.Equal(tt.want) {
				t.Errorf("NextAfter(%s) = %s, want %s",
					tt.from.Format("2006-01-02"), got.Format("2006-01-02"), tt.want.Format("2006-01-02"))
			}
		})
	}
}

func TestParseFrequency(t *testing.T) {
	if f, err := ParseFrequency(" monthly "); err != nil || f != FrequencyMonthly {
		t.Errorf("ParseFrequency(\" monthly \") = %v, %v; want MONTHLY, nil", f, err)
	}
	if _, err := ParseFrequency("FORTNIGHTLY"); err == nil {
		t.Error("ParseFrequency(\"FORTNIGHTLY\") should fail")
	}
}

func TestRecurringIsValid(t *testing.T) {
	end := date(2024, time.June, 30)

	series := &RecurringTransaction{
		IsActive:  true,
		StartDate: date(2024, time.March, 1),
		EndDate:   &end,
	}

	tests := []struct {
		name  string
		today time.Time
		want  bool
	}{
		{"before_start_grace_window", date(2024, time.February, 28), false},
		{"one_day_before_start_is_valid", date(2024, time.February, 29), true},
		{"on_start", date(2024, time.March, 1), true},
		{"mid_range", date(2024, time.May, 15), true},
		{"one_day_after_end_is_valid", date(2024, time.July, 1), true},
		{"past_end_grace_window", date(2024, time.July, 2), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := series.IsValid(tt.today); got != tt.want {
				t.Errorf("IsValid(%s) = %v, want %v", tt.today.Format("2006-01-02"), got, tt.want)
			}
		})
	}

	t.Run("inactive_is_never_valid", func(t *testing.T) {
		inactive := *series
		inactive.IsActive = false
		if inactive.IsValid(date(2024, time.May, 15)) {
			t.Error("inactive series reported valid")
		}
	})
}

func TestRecurringIsDue(t *testing.T) {
	series := &RecurringTransaction{
		IsActive:       true,
		StartDate:      date(2024, time.March, 1),
		NextOccurrence: date(2024, time.March, 10),
	}

	if series.IsDue(date(2024, time.March, 9)) {
		t.Error("series due before its next occurrence")
	}
	if !series.IsDue(date(2024, time.March, 10)) {
		t.Error("series not due on its next occurrence")
	}
	if !series.IsDue(date(2024, time.March, 20)) {
		t.Error("series not due after its next occurrence passed")
	}
}
