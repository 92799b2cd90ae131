package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType represents the type of transaction
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "INCOME"
	TransactionTypeExpense TransactionType = "EXPENSE"
)

// ParseTransactionType maps a free-form type string onto a
// TransactionType, defaulting to EXPENSE when absent or unrecognized.
func ParseTransactionType(raw string) TransactionType {
	switch TransactionType(normalizeEnum(raw)) {
	case TransactionTypeIncome:
		return TransactionTypeIncome
	default:
		return TransactionTypeExpense
	}
}

// Transaction represents a single financial transaction. RecurringID
// links back to the recurring series that spawned it, when applicable.
type Transaction struct {
	Base
	UserID        uint            `gorm:"not null;index" json:"user_id"`
	CategoryID    uint            `gorm:"not null;index" json:"category_id"`
	Type          TransactionType `gorm:"not null;type:varchar(10)" json:"type"`
	Amount        decimal.Decimal `gorm:"not null;type:numeric(12,2)" json:"amount"`
	Description   string          `json:"description"`
	Date          time.Time       `gorm:"not null;index" json:"date"`
	PaymentMethod string          `json:"payment_method,omitempty"`
	RecurringID   *uint           `gorm:"index" json:"recurring_id,omitempty"`

	// Relationships
	Category Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}
