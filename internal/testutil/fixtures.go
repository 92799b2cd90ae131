package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/abhinavaxid/finance-tracker/internal/models"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestCategory creates a user-owned category of the given type.
func CreateTestCategory(t *testing.T, db *gorm.DB, userID uint, categoryType models.CategoryType) *models.Category {
	t.Helper()
	return CreateTestCategoryWithName(t, db, userID, fmt.Sprintf("Test Category %d", nextID()), categoryType)
}

// CreateTestCategoryWithName creates a user-owned category with the given name.
func CreateTestCategoryWithName(t *testing.T, db *gorm.DB, userID uint, name string, categoryType models.CategoryType) *models.Category {
	t.Helper()

	category := &models.Category{
		UserID:   &userID,
		Name:     name,
		Type:     categoryType,
		IsActive: true,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestDefaultCategory creates a system-wide default category with no owner.
func CreateTestDefaultCategory(t *testing.T, db *gorm.DB, name string, categoryType models.CategoryType) *models.Category {
	t.Helper()

	category := &models.Category{
		Name:      name,
		Type:      categoryType,
		IsDefault: true,
		IsActive:  true,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test default category: %v", err)
	}
	return category
}

// CreateTestTransaction creates a transaction of the given type and amount, dated today.
func CreateTestTransaction(t *testing.T, db *gorm.DB, userID, categoryID uint, txType models.TransactionType, amount decimal.Decimal) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		UserID:     userID,
		CategoryID: categoryID,
		Type:       txType,
		Amount:     amount,
		Date:       time.Now().UTC().Truncate(24 * time.Hour),
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}

// CreateTestBudget creates a budget for the given category and period with
// an 80% alert threshold and nothing spent.
func CreateTestBudget(t *testing.T, db *gorm.DB, userID, categoryID uint, amount decimal.Decimal, month, year int) *models.Budget {
	t.Helper()

	budget := &models.Budget{
		UserID:         userID,
		CategoryID:     categoryID,
		Month:          month,
		Year:           year,
		Amount:         amount,
		SpentAmount:    decimal.Zero,
		AlertThreshold: decimal.NewFromInt(80),
		AlertState:     models.AlertStateUnsent,
	}
	if err := db.Create(budget).Error; err != nil {
		t.Fatalf("failed to create test budget: %v", err)
	}
	return budget
}

// CreateTestRecurring creates an active recurring series whose next
// occurrence is its start date.
func CreateTestRecurring(t *testing.T, db *gorm.DB, userID, categoryID uint, frequency models.Frequency, startDate time.Time, dayOfMonth *int) *models.RecurringTransaction {
	t.Helper()

	recurring := &models.RecurringTransaction{
		UserID:         userID,
		CategoryID:     categoryID,
		Type:           models.TransactionTypeExpense,
		Amount:         decimal.NewFromInt(50),
		Description:    fmt.Sprintf("Test Recurring %d", nextID()),
		Frequency:      frequency,
		StartDate:      startDate,
		NextOccurrence: startDate,
		DayOfMonth:     dayOfMonth,
		IsActive:       true,
	}
	if err := db.Create(recurring).Error; err != nil {
		t.Fatalf("failed to create test recurring series: %v", err)
	}
	return recurring
}
