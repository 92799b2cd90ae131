package models

// NotificationType categorizes a notification record
type NotificationType string

const (
	NotificationBudgetAlert    NotificationType = "BUDGET_ALERT"
	NotificationBudgetExceeded NotificationType = "BUDGET_EXCEEDED"
	NotificationRecurring      NotificationType = "RECURRING_CREATED"
	NotificationInsight        NotificationType = "INSIGHT"
)

// Notification is an in-app notification record. Delivery channels
// (email, push) consume these records; this service only persists them.
type Notification struct {
	Base
	UserID  uint             `gorm:"not null;index" json:"user_id"`
	Type    NotificationType `gorm:"not null;type:varchar(30)" json:"type"`
	Title   string           `gorm:"not null" json:"title"`
	Message string           `gorm:"type:text" json:"message"`
	IsRead  bool             `gorm:"default:false" json:"is_read"`
}
