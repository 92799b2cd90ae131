package models

import "github.com/shopspring/decimal"

// BudgetStatus summarizes how far spending has progressed against the
// allocation.
type BudgetStatus string

const (
	BudgetStatusNormal   BudgetStatus = "NORMAL"
	BudgetStatusWarning  BudgetStatus = "WARNING"
	BudgetStatusExceeded BudgetStatus = "EXCEEDED"
)

// AlertState tracks which budget alert has been dispatched. It only
// moves forward (unsent -> threshold_sent -> exceeded_sent); editing
// the budget's amount, threshold, or notes resets it to unsent,
// re-arming future alerts.
type AlertState string

const (
	AlertStateUnsent        AlertState = "unsent"
	AlertStateThresholdSent AlertState = "threshold_sent"
	AlertStateExceededSent  AlertState = "exceeded_sent"
)

// AlertKind identifies which alert a state transition asks the caller
// to dispatch.
type AlertKind int

const (
	AlertNone AlertKind = iota
	AlertThreshold
	AlertExceeded
)

var oneHundred = decimal.NewFromInt(100)

// Budget represents a monthly spending allocation for one category.
// SpentAmount caches the sum of EXPENSE transactions for the owner,
// category, and period.
type Budget struct {
	Base
	UserID         uint            `gorm:"not null;index;uniqueIndex:idx_budget_period,priority:1" json:"user_id"`
	CategoryID     uint            `gorm:"not null;uniqueIndex:idx_budget_period,priority:2" json:"category_id"`
	Month          int             `gorm:"not null;uniqueIndex:idx_budget_period,priority:3" json:"month"`
	Year           int             `gorm:"not null;uniqueIndex:idx_budget_period,priority:4" json:"year"`
	Amount         decimal.Decimal `gorm:"not null;type:numeric(12,2)" json:"amount"`
	SpentAmount    decimal.Decimal `gorm:"type:numeric(12,2)" json:"spent_amount"`
	AlertThreshold decimal.Decimal `gorm:"type:numeric(5,2)" json:"alert_threshold"`
	AlertState     AlertState      `gorm:"type:varchar(20);default:unsent" json:"alert_state"`
	Notes          string          `json:"notes"`

	// Relationships
	Category Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

// PercentageUsed returns spent/amount as a percentage, rounded
// half-up to two decimals. Zero-allocation budgets report zero.
func (b *Budget) PercentageUsed() decimal.Decimal {
	if b.Amount.IsZero() {
		return decimal.Zero
	}
	return b.SpentAmount.Div(b.Amount).Mul(oneHundred).Round(2)
}

// Remaining returns the unspent portion of the allocation.
func (b *Budget) Remaining() decimal.Decimal {
	return b.Amount.Sub(b.SpentAmount)
}

// IsExceeded reports whether spending has passed the allocation.
func (b *Budget) IsExceeded() bool {
	return b.SpentAmount.GreaterThan(b.Amount)
}

// ShouldAlert reports whether spending has reached the alert threshold.
func (b *Budget) ShouldAlert() bool {
	return b.PercentageUsed().GreaterThanOrEqual(b.AlertThreshold)
}

// Status derives the budget status from the snapshot.
func (b *Budget) Status() BudgetStatus {
	switch {
	case b.IsExceeded():
		return BudgetStatusExceeded
	case b.ShouldAlert():
		return BudgetStatusWarning
	default:
		return BudgetStatusNormal
	}
}

// NextAlertState computes the alert-state transition for the current
// snapshot. It returns the state to persist and the alert, if any, the
// caller must dispatch before persisting it. Re-evaluating an
// unchanged budget yields AlertNone, which is the sole guard against
// duplicate notifications.
func (b *Budget) NextAlertState() (AlertState, AlertKind) {
	state := b.AlertState
	if state == "" {
		state = AlertStateUnsent
	}

	switch status := b.Status(); {
	case status == BudgetStatusExceeded && state != AlertStateExceededSent:
		return AlertStateExceededSent, AlertExceeded
	case status == BudgetStatusWarning && state == AlertStateUnsent:
		return AlertStateThresholdSent, AlertThreshold
	default:
		return state, AlertNone
	}
}
