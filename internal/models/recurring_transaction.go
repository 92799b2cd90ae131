package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Frequency represents how often a recurring transaction repeats
type Frequency string

const (
	FrequencyDaily     Frequency = "DAILY"
	FrequencyWeekly    Frequency = "WEEKLY"
	FrequencyMonthly   Frequency = "MONTHLY"
	FrequencyQuarterly Frequency = "QUARTERLY"
	FrequencyYearly    Frequency = "YEARLY"
)

// ParseFrequency validates a frequency string.
func ParseFrequency(raw string) (Frequency, error) {
	f := Frequency(normalizeEnum(raw))
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyQuarterly, FrequencyYearly:
		return f, nil
	}
	return "", fmt.Errorf("unknown frequency: %q", raw)
}

// NextAfter returns the occurrence that follows date. For MONTHLY
// series with a pinned day-of-month the result is re-pinned to that
// day, clamped to the target month's last valid day (day 31 into
// February yields the 28th or 29th).
func (f Frequency) NextAfter(date time.Time, dayOfMonth *int) time.Time {
	switch f {
	case FrequencyDaily:
		return date.AddDate(0, 0, 1)
	case FrequencyWeekly:
		return date.AddDate(0, 0, 7)
	case FrequencyMonthly:
		year, month, _ := date.Date()
		if dayOfMonth != nil && *dayOfMonth > 0 {
			return pinDayOfMonth(year, month+1, *dayOfMonth, date.Location())
		}
		return pinDayOfMonth(year, month+1, date.Day(), date.Location())
	case FrequencyQuarterly:
		year, month, _ := date.Date()
		return pinDayOfMonth(year, month+3, date.Day(), date.Location())
	case FrequencyYearly:
		year, month, _ := date.Date()
		return pinDayOfMonth(year+1, month, date.Day(), date.Location())
	}
	return date
}

// pinDayOfMonth builds a date in the given (possibly unnormalized)
// year/month with the day clamped to the month's length.
func pinDayOfMonth(year int, month time.Month, day int, loc *time.Location) time.Time {
	// Normalize month overflow first (e.g. month 13 -> January next year).
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	if last := daysIn(first.Year(), first.Month()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, loc)
}

// daysIn returns the number of days in the given month.
func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// RecurringTransaction is a template describing a repeating transaction
// from which concrete transactions are periodically materialized.
type RecurringTransaction struct {
	Base
	UserID         uint            `gorm:"not null;index" json:"user_id"`
	CategoryID     uint            `gorm:"not null" json:"category_id"`
	Type           TransactionType `gorm:"not null;type:varchar(10)" json:"type"`
	Amount         decimal.Decimal `gorm:"not null;type:numeric(12,2)" json:"amount"`
	Description    string          `json:"description"`
	Frequency      Frequency       `gorm:"not null;type:varchar(20)" json:"frequency"`
	StartDate      time.Time       `gorm:"not null" json:"start_date"`
	EndDate        *time.Time      `json:"end_date,omitempty"`
	NextOccurrence time.Time       `gorm:"not null;index" json:"next_occurrence"`
	DayOfMonth     *int            `json:"day_of_month,omitempty"`
	PaymentMethod  string          `json:"payment_method,omitempty"`
	IsActive       bool            `gorm:"default:true;index" json:"is_active"`

	// Relationships
	Category Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

// IsValid reports whether the series may still produce transactions as
// of today: active, started (with a one-day grace on either bound),
// and not past its end date.
func (r *RecurringTransaction) IsValid(today time.Time) bool {
	if !r.IsActive {
		return false
	}
	if today.Before(r.StartDate.AddDate(0, 0, -1)) {
		return false
	}
	if r.EndDate != nil && today.After(r.EndDate.AddDate(0, 0, 1)) {
		return false
	}
	return true
}

// IsDue reports whether the next occurrence has arrived or passed.
func (r *RecurringTransaction) IsDue(today time.Time) bool {
	return r.IsValid(today) && !r.NextOccurrence.After(today)
}
