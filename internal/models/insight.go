package models

// InsightType categorizes a generated spending insight
type InsightType string

const (
	InsightOverspending    InsightType = "OVERSPENDING"
	InsightTrendUp         InsightType = "TREND_UP"
	InsightUnusualActivity InsightType = "UNUSUAL_ACTIVITY"
	InsightLowSavings      InsightType = "LOW_SAVINGS"
)

// InsightSeverity grades how urgent an insight is
type InsightSeverity string

const (
	SeverityInfo     InsightSeverity = "INFO"
	SeverityWarning  InsightSeverity = "WARNING"
	SeverityCritical InsightSeverity = "CRITICAL"
)

// Insight is a rule-generated observation about spending patterns.
type Insight struct {
	Base
	UserID      uint            `gorm:"not null;index" json:"user_id"`
	Type        InsightType     `gorm:"not null;type:varchar(30)" json:"type"`
	Title       string          `gorm:"not null" json:"title"`
	Description string          `gorm:"type:text" json:"description"`
	Severity    InsightSeverity `gorm:"not null;type:varchar(10)" json:"severity"`
	IsDismissed bool            `gorm:"default:false" json:"is_dismissed"`
}
