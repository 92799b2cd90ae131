package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func budget(allocated, spent int64, threshold int64, state AlertState) *Budget {
	return &Budget{
		Amount:         decimal.NewFromInt(allocated),
		SpentAmount:    decimal.NewFromInt(spent),
		AlertThreshold: decimal.NewFromInt(threshold),
		AlertState:     state,
	}
}

func TestBudgetStatus(t *testing.T) {
	tests := []struct {
		name       string
		allocated  int64
		spent      int64
		threshold  int64
		wantStatus BudgetStatus
		wantPct    string
	}{
		{"normal_under_threshold", 1000, 500, 80, BudgetStatusNormal, "50"},
		{"warning_at_threshold", 1000, 800, 80, BudgetStatusWarning, "80"},
		{"warning_above_threshold", 1000, 850, 80, BudgetStatusWarning, "85"},
		{"exceeded_by_one", 1000, 1001, 80, BudgetStatusExceeded, "100.1"},
		{"exactly_spent_is_warning_not_exceeded", 1000, 1000, 80, BudgetStatusWarning, "100"},
		{"zero_allocation_spent_is_exceeded_pct_zero", 0, 500, 80, BudgetStatusExceeded, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := budget(tt.allocated, tt.spent, tt.threshold, AlertStateUnsent)

			if got := b.Status(); got != tt.wantStatus {
				t.Errorf("Status() = %v, want %v", got, tt.wantStatus)
			}
			want := decimal.RequireFromString(tt.wantPct)
			if got := b.PercentageUsed(); !got.Equal(want) {
				t.Errorf("PercentageUsed() = %s, want %s", got, want)
			}
		})
	}
}

func TestBudgetPercentageUsedRounding(t *testing.T) {
	b := &Budget{
		Amount:         decimal.NewFromInt(3),
		SpentAmount:    decimal.NewFromInt(1),
		AlertThreshold: decimal.NewFromInt(80),
	}
	// 1/3 * 100 = 33.333... rounds to 33.33.
	if got := b.PercentageUsed(); !got.Equal(decimal.RequireFromString("33.33")) {
		t.Errorf("PercentageUsed() = %s, want 33.33", got)
	}

	b.SpentAmount = decimal.NewFromInt(2)
	// 2/3 * 100 = 66.666... rounds half-up to 66.67.
	if got := b.PercentageUsed(); !got.Equal(decimal.RequireFromString("66.67")) {
		t.Errorf("PercentageUsed() = %s, want 66.67", got)
	}
}

func TestBudgetRemaining(t *testing.T) {
	b := budget(1000, 850, 80, AlertStateUnsent)
	if got := b.Remaining(); !got.Equal(decimal.NewFromInt(150)) {
		t.Errorf("Remaining() = %s, want 150", got)
	}

	b = budget(1000, 1200, 80, AlertStateUnsent)
	if got := b.Remaining(); !got.Equal(decimal.NewFromInt(-200)) {
		t.Errorf("Remaining() = %s, want -200", got)
	}
}

func TestNextAlertState(t *testing.T) {
	tests := []struct {
		name      string
		allocated int64
		spent     int64
		state     AlertState
		wantState AlertState
		wantKind  AlertKind
	}{
		{"normal_stays_unsent", 1000, 100, AlertStateUnsent, AlertStateUnsent, AlertNone},
		{"warning_fires_threshold", 1000, 850, AlertStateUnsent, AlertStateThresholdSent, AlertThreshold},
		{"warning_already_sent_is_quiet", 1000, 850, AlertStateThresholdSent, AlertStateThresholdSent, AlertNone},
		{"exceeded_fires_from_unsent", 1000, 1001, AlertStateUnsent, AlertStateExceededSent, AlertExceeded},
		{"exceeded_fires_after_threshold", 1000, 1001, AlertStateThresholdSent, AlertStateExceededSent, AlertExceeded},
		{"exceeded_already_sent_is_quiet", 1000, 1001, AlertStateExceededSent, AlertStateExceededSent, AlertNone},
		{"no_backward_transition_when_spend_drops", 1000, 100, AlertStateExceededSent, AlertStateExceededSent, AlertNone},
		{"empty_state_treated_as_unsent", 1000, 850, "", AlertStateThresholdSent, AlertThreshold},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := budget(tt.allocated, tt.spent, 80, tt.state)
			gotState, gotKind := b.NextAlertState()
			if gotState != tt.wantState {
				t.Errorf("NextAlertState() state = %v, want %v", gotState, tt.wantState)
			}
			if gotKind != tt.wantKind {
				t.Errorf("NextAlertState() kind = %v, want %v", gotKind, tt.wantKind)
			}
		})
	}
}

func TestNextAlertStateIdempotentOnUnchangedSnapshot(t *testing.T) {
	b := budget(1000, 850, 80, AlertStateUnsent)

	next, kind := b.NextAlertState()
	if kind != AlertThreshold {
		t.Fatalf("first evaluation kind = %v, want AlertThreshold", kind)
	}
	b.AlertState = next

	if _, kind := b.NextAlertState(); kind != AlertNone {
		t.Errorf("second evaluation of unchanged budget fired %v, want AlertNone", kind)
	}
}
