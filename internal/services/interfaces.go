package services

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/abhinavaxid/finance-tracker/internal/models"
	"github.com/abhinavaxid/finance-tracker/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id uint) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	StoreRefreshTokenHash(userID uint, hash string) error
	ListActiveUserIDs() ([]uint, error)
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	CreateCategory(userID uint, name string, categoryType models.CategoryType, description, icon, color string) (*models.Category, error)
	GetUserCategories(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	// ListForUser returns the category resolution candidate set for one
	// user and type: the user's own active categories followed by the
	// system-wide defaults, each group ordered by name.
	ListForUser(userID uint, categoryType models.TransactionType) ([]models.Category, error)
	GetCategoryByID(userID, categoryID uint) (*models.Category, error)
	UpdateCategory(userID, categoryID uint, name, description, icon, color string) (*models.Category, error)
	DeactivateCategory(userID, categoryID uint) error
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate   *time.Time
	ToDate     *time.Time
	Type       *models.TransactionType
	CategoryID *uint
}

// TransactionServicer defines the contract for transaction-related business logic.
type TransactionServicer interface {
	CreateTransaction(userID, categoryID uint, transactionType models.TransactionType, amount decimal.Decimal, description string, date time.Time, paymentMethod string) (*models.Transaction, error)
	// CreateWithDB runs the same creation (including budget spent
	// maintenance) inside a caller-managed database transaction.
	CreateWithDB(tx *gorm.DB, userID, categoryID uint, transactionType models.TransactionType, amount decimal.Decimal, description string, date time.Time, paymentMethod string, recurringID *uint) (*models.Transaction, error)
	GetUserTransactions(userID uint, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetTransactionByID(userID, transactionID uint) (*models.Transaction, error)
	DeleteTransaction(userID, transactionID uint) error
}

// BudgetServicer defines the contract for budget-related business logic.
type BudgetServicer interface {
	CreateBudget(userID, categoryID uint, amount decimal.Decimal, month, year int, alertThreshold *decimal.Decimal, notes string) (*models.Budget, error)
	GetBudgetByID(userID, budgetID uint) (*models.Budget, error)
	GetBudgetsForPeriod(userID uint, month, year int) ([]models.Budget, error)
	GetUserBudgets(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Budget], error)
	GetWarningBudgets(userID uint) ([]models.Budget, error)
	GetExceededBudgets(userID uint) ([]models.Budget, error)
	UpdateBudget(userID, budgetID uint, amount, alertThreshold *decimal.Decimal, notes *string) (*models.Budget, error)
	DeleteBudget(userID, budgetID uint) error
	// ApplySpent adjusts the cached spent amount of the budget covering
	// the given category and date by delta, then evaluates alerting.
	// A missing budget is not an error. Runs on the caller's database
	// transaction.
	ApplySpent(tx *gorm.DB, userID, categoryID uint, date time.Time, delta decimal.Decimal) error
	RecalculateSpent(userID, budgetID uint) (*models.Budget, error)
	// CheckAlerts evaluates every budget and dispatches any pending
	// threshold or exceeded alerts, returning the number dispatched.
	CheckAlerts() (int, error)
}

// RecurringServicer defines the contract for recurring-transaction business logic.
type RecurringServicer interface {
	CreateRecurring(userID, categoryID uint, transactionType models.TransactionType, amount decimal.Decimal, description string, frequency models.Frequency, startDate time.Time, endDate *time.Time, dayOfMonth *int, paymentMethod string) (*models.RecurringTransaction, error)
	GetRecurringByID(userID, recurringID uint) (*models.RecurringTransaction, error)
	GetUserRecurring(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.RecurringTransaction], error)
	ListDue(userID uint) ([]models.RecurringTransaction, error)
	UpdateRecurring(userID, recurringID uint, amount *decimal.Decimal, frequency *models.Frequency, startDate, endDate *time.Time, dayOfMonth *int, description, paymentMethod *string) (*models.RecurringTransaction, error)
	DeactivateRecurring(userID, recurringID uint) error
	DeleteRecurring(userID, recurringID uint) error
	// ProcessDue materializes one transaction for every due series and
	// advances each by exactly one period. Returns the success count.
	ProcessDue() (int, error)
	ProcessDueAsOf(today time.Time) (int, error)
}

// IntentServicer interprets structured commands into transaction operations.
type IntentServicer interface {
	Dispatch(userID uint, cmd Command) Result
}

// NotificationServicer defines the contract for notification records.
type NotificationServicer interface {
	Notify(tx *gorm.DB, userID uint, notificationType models.NotificationType, title, message string) error
	GetUserNotifications(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Notification], error)
	MarkRead(userID, notificationID uint) error
}

// InsightServicer defines the contract for rule-based insight generation.
type InsightServicer interface {
	GenerateInsights(userID uint) (int, error)
	GenerateAll() (int, error)
	GetActiveInsights(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Insight], error)
	Dismiss(userID, insightID uint) error
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID uint, action, resourceType string, resourceID uint, ipAddress string, changes map[string]interface{})
}
