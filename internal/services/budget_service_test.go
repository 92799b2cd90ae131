package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/abhinavaxid/finance-tracker/internal/models"
	"github.com/abhinavaxid/finance-tracker/internal/testutil"
)

func TestCreateBudget(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	service := NewBudgetService(db, NewNotificationService(db))
	user := testutil.CreateTestUser(t, db)
	category := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)

	t.Run("creates budget with default threshold", func(t *testing.T) {
		budget, err := service.CreateBudget(user.ID, category.ID, decimal.NewFromInt(1000), 3, 2024, nil, "")
		testutil.AssertNoError(t, err)

		if !budget.AlertThreshold.Equal(decimal.NewFromInt(80)) {
			t.Errorf("default threshold = %s, want 80", budget.AlertThreshold)
		}
		if budget.AlertState != models.AlertStateUnsent {
			t.Errorf("initial alert state = %q, want unsent", budget.AlertState)
		}
		if !budget.SpentAmount.IsZero() {
			t.Errorf("initial spent = %s, want 0", budget.SpentAmount)
		}
	})

	t.Run("rejects duplicate period", func(t *testing.T) {
		_, err := service.CreateBudget(user.ID, category.ID, decimal.NewFromInt(500), 3, 2024, nil, "")
		testutil.AssertAppError(t, err, "DUPLICATE_BUDGET")
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		_, err := service.CreateBudget(user.ID, category.ID, decimal.Zero, 4, 2024, nil, "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("rejects invalid month", func(t *testing.T) {
		_, err := service.CreateBudget(user.ID, category.ID, decimal.NewFromInt(100), 13, 2024, nil, "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("rejects invalid year", func(t *testing.T) {
		_, err := service.CreateBudget(user.ID, category.ID, decimal.NewFromInt(100), 4, 1999, nil, "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("rejects unknown category", func(t *testing.T) {
		_, err := service.CreateBudget(user.ID, 99999, decimal.NewFromInt(100), 4, 2024, nil, "")
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
	})

	t.Run("rejects threshold above 100", func(t *testing.T) {
		threshold := decimal.NewFromInt(120)
		_, err := service.CreateBudget(user.ID, category.ID, decimal.NewFromInt(100), 5, 2024, &threshold, "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestApplySpentMaintainsCacheAndAlerts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	notifications := NewNotificationService(db)
	budgets := NewBudgetService(db, notifications)
	transactions := NewTransactionService(db, budgets)

	user := testutil.CreateTestUser(t, db)
	category := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)
	budget := testutil.CreateTestBudget(t, db, user.ID, category.ID, decimal.NewFromInt(1000), 3, 2024)

	txDate := time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)

	t.Run("expense bumps spent amount", func(t *testing.T) {
		_, err := transactions.CreateTransaction(user.ID, category.ID, models.TransactionTypeExpense,
			decimal.NewFromInt(300), "groceries", txDate, "")
		testutil.AssertNoError(t, err)

		reloaded, err := budgets.GetBudgetByID(user.ID, budget.ID)
		testutil.AssertNoError(t, err)
		if !reloaded.SpentAmount.Equal(decimal.NewFromInt(300)) {
			t.Errorf("spent = %s, want 300", reloaded.SpentAmount)
		}
		if reloaded.AlertState != models.AlertStateUnsent {
			t.Errorf("alert state = %q, want unsent", reloaded.AlertState)
		}
	})

	t.Run("crossing threshold sends one alert", func(t *testing.T) {
		_, err := transactions.CreateTransaction(user.ID, category.ID, models.TransactionTypeExpense,
			decimal.NewFromInt(550), "rent share", txDate, "")
		testutil.AssertNoError(t, err)

		reloaded, err := budgets.GetBudgetByID(user.ID, budget.ID)
		testutil.AssertNoError(t, err)
		if reloaded.AlertState != models.AlertStateThresholdSent {
			t.Errorf("alert state = %q, want threshold_sent", reloaded.AlertState)
		}
		assertNotificationCount(t, db, user.ID, models.NotificationBudgetAlert, 1)
	})

	t.Run("staying in warning does not re-alert", func(t *testing.T) {
		_, err := transactions.CreateTransaction(user.ID, category.ID, models.TransactionTypeExpense,
			decimal.NewFromInt(50), "snacks", txDate, "")
		testutil.AssertNoError(t, err)

		assertNotificationCount(t, db, user.ID, models.NotificationBudgetAlert, 1)
	})

	t.Run("exceeding sends the exceeded alert once", func(t *testing.T) {
		_, err := transactions.CreateTransaction(user.ID, category.ID, models.TransactionTypeExpense,
			decimal.NewFromInt(200), "car repair", txDate, "")
		testutil.AssertNoError(t, err)

		reloaded, err := budgets.GetBudgetByID(user.ID, budget.ID)
		testutil.AssertNoError(t, err)
		if reloaded.AlertState != models.AlertStateExceededSent {
			t.Errorf("alert state = %q, want exceeded_sent", reloaded.AlertState)
		}
		assertNotificationCount(t, db, user.ID, models.NotificationBudgetExceeded, 1)

		_, err = transactions.CreateTransaction(user.ID, category.ID, models.TransactionTypeExpense,
			decimal.NewFromInt(10), "coffee", txDate, "")
		testutil.AssertNoError(t, err)
		assertNotificationCount(t, db, user.ID, models.NotificationBudgetExceeded, 1)
	})

	t.Run("income does not touch spent", func(t *testing.T) {
		incomeCategory := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeIncome)
		_, err := transactions.CreateTransaction(user.ID, incomeCategory.ID, models.TransactionTypeIncome,
			decimal.NewFromInt(5000), "salary", txDate, "")
		testutil.AssertNoError(t, err)

		reloaded, err := budgets.GetBudgetByID(user.ID, budget.ID)
		testutil.AssertNoError(t, err)
		if !reloaded.SpentAmount.Equal(decimal.NewFromInt(1110)) {
			t.Errorf("spent = %s, want 1110", reloaded.SpentAmount)
		}
	})

	t.Run("deleting an expense rolls spent back", func(t *testing.T) {
		tx, err := transactions.CreateTransaction(user.ID, category.ID, models.TransactionTypeExpense,
			decimal.NewFromInt(90), "to be removed", txDate, "")
		testutil.AssertNoError(t, err)

		testutil.AssertNoError(t, transactions.DeleteTransaction(user.ID, tx.ID))

		reloaded, err := budgets.GetBudgetByID(user.ID, budget.ID)
		testutil.AssertNoError(t, err)
		if !reloaded.SpentAmount.Equal(decimal.NewFromInt(1110)) {
			t.Errorf("spent after delete = %s, want 1110", reloaded.SpentAmount)
		}
	})
}

func TestUpdateBudgetResetsAlertState(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	notifications := NewNotificationService(db)
	budgets := NewBudgetService(db, notifications)
	transactions := NewTransactionService(db, budgets)

	user := testutil.CreateTestUser(t, db)
	category := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)
	budget := testutil.CreateTestBudget(t, db, user.ID, category.ID, decimal.NewFromInt(100), 3, 2024)

	txDate := time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)
	_, err := transactions.CreateTransaction(user.ID, category.ID, models.TransactionTypeExpense,
		decimal.NewFromInt(150), "over budget", txDate, "")
	testutil.AssertNoError(t, err)
	assertNotificationCount(t, db, user.ID, models.NotificationBudgetExceeded, 1)

	// Raising the allocation re-arms alerting from scratch.
	newAmount := decimal.NewFromInt(180)
	updated, err := budgets.UpdateBudget(user.ID, budget.ID, &newAmount, nil, nil)
	testutil.AssertNoError(t, err)

	reloaded, err := budgets.GetBudgetByID(user.ID, updated.ID)
	testutil.AssertNoError(t, err)
	if reloaded.AlertState != models.AlertStateUnsent {
		t.Fatalf("alert state after edit = %q, want unsent", reloaded.AlertState)
	}

	// The next sweep re-evaluates against the new allocation: 150/180
	// is 83.33%, warning territory, so one fresh threshold alert fires.
	count, err := budgets.CheckAlerts()
	testutil.AssertNoError(t, err)
	if count != 1 {
		t.Errorf("CheckAlerts() = %d, want 1", count)
	}
	assertNotificationCount(t, db, user.ID, models.NotificationBudgetAlert, 1)
}

func TestCheckAlertsSweepIsIdempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	budgets := NewBudgetService(db, NewNotificationService(db))

	user := testutil.CreateTestUser(t, db)
	category := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)
	budget := testutil.CreateTestBudget(t, db, user.ID, category.ID, decimal.NewFromInt(1000), 6, 2024)

	// Simulate spend accumulated without evaluation (e.g. bulk import).
	testutil.AssertNoError(t, db.Model(budget).Update("spent_amount", decimal.NewFromInt(900)).Error)

	count, err := budgets.CheckAlerts()
	testutil.AssertNoError(t, err)
	if count != 1 {
		t.Fatalf("first sweep dispatched %d alerts, want 1", count)
	}

	count, err = budgets.CheckAlerts()
	testutil.AssertNoError(t, err)
	if count != 0 {
		t.Errorf("second sweep dispatched %d alerts, want 0", count)
	}
	assertNotificationCount(t, db, user.ID, models.NotificationBudgetAlert, 1)
}

func TestRecalculateSpent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	budgets := NewBudgetService(db, NewNotificationService(db))

	user := testutil.CreateTestUser(t, db)
	category := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)
	budget := testutil.CreateTestBudget(t, db, user.ID, category.ID, decimal.NewFromInt(1000), 3, 2024)

	inPeriod := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
	outOfPeriod := time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)

	for _, tx := range []*models.Transaction{
		{UserID: user.ID, CategoryID: category.ID, Type: models.TransactionTypeExpense, Amount: decimal.NewFromInt(100), Date: inPeriod},
		{UserID: user.ID, CategoryID: category.ID, Type: models.TransactionTypeExpense, Amount: decimal.NewFromInt(250), Date: inPeriod},
		{UserID: user.ID, CategoryID: category.ID, Type: models.TransactionTypeExpense, Amount: decimal.NewFromInt(999), Date: outOfPeriod},
		{UserID: user.ID, CategoryID: category.ID, Type: models.TransactionTypeIncome, Amount: decimal.NewFromInt(40), Date: inPeriod},
	} {
		testutil.AssertNoError(t, db.Create(tx).Error)
	}

	recalculated, err := budgets.RecalculateSpent(user.ID, budget.ID)
	testutil.AssertNoError(t, err)
	if !recalculated.SpentAmount.Equal(decimal.NewFromInt(350)) {
		t.Errorf("recalculated spent = %s, want 350", recalculated.SpentAmount)
	}
}

func TestGetBudgetOwnership(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	budgets := NewBudgetService(db, NewNotificationService(db))

	owner := testutil.CreateTestUser(t, db)
	other := testutil.CreateTestUser(t, db)
	category := testutil.CreateTestCategory(t, db, owner.ID, models.CategoryTypeExpense)
	budget := testutil.CreateTestBudget(t, db, owner.ID, category.ID, decimal.NewFromInt(100), 3, 2024)

	_, err := budgets.GetBudgetByID(other.ID, budget.ID)
	testutil.AssertAppError(t, err, "BUDGET_NOT_FOUND")
}

func assertNotificationCount(t *testing.T, db *gorm.DB, userID uint, notificationType models.NotificationType, want int64) {
	t.Helper()

	var count int64
	err := db.Model(&models.Notification{}).
		Where("user_id = ? AND type = ?", userID, notificationType).
		Count(&count).Error
	testutil.AssertNoError(t, err)
	if count != want {
		t.Errorf("notification count for %s = %d, want %d", notificationType, count, want)
	}
}
