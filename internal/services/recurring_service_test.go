package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/abhinavaxid/finance-tracker/internal/models"
	"github.com/abhinavaxid/finance-tracker/internal/testutil"
)

func TestProcessDueMonthlyDay31(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	notifications := NewNotificationService(db)
	budgets := NewBudgetService(db, notifications)
	transactions := NewTransactionService(db, budgets)
	recurring := NewRecurringService(db, transactions, notifications)

	user := testutil.CreateTestUser(t, db)
	category := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)

	day31 := 31
	series, err := recurring.CreateRecurring(
		user.ID, category.ID, models.TransactionTypeExpense,
		decimal.NewFromInt(2000), "rent",
		models.FrequencyMonthly,
		time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC),
		nil, &day31, "bank transfer",
	)
	testutil.AssertNoError(t, err)

	today := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
	count, err := recurring.ProcessDueAsOf(today)
	testutil.AssertNoError(t, err)
	if count != 1 {
		t.Fatalf("ProcessDueAsOf() = %d, want 1", count)
	}

	// The materialized transaction keeps the occurrence date, not the sweep date.
	var created models.Transaction
	testutil.AssertNoError(t, db.Where("recurring_id = ?", series.ID).First(&created).Error)
	wantDate := time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC)
	if !created.Date.Equal(wantDate) {
		t.Errorf("transaction date = %s, want 2024-01-31", created.Date.Format("2006-01-02"))
	}
	if !created.Amount.Equal(decimal.NewFromInt(2000)) {
		t.Errorf("transaction amount = %s, want 2000", created.Amount)
	}

	// Day 31 pinned into February clamps to the leap-year 29th.
	reloaded, err := recurring.GetRecurringByID(user.ID, series.ID)
	testutil.AssertNoError(t, err)
	wantNext := time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC)
	if !reloaded.NextOccurrence.Equal(wantNext) {
		t.Errorf("next occurrence = %s, want 2024-02-29", reloaded.NextOccurrence.Format("2006-01-02"))
	}
	if !reloaded.IsActive {
		t.Error("open-ended series deactivated by sweep")
	}
}

func TestProcessDueIsIdempotentAcrossSweeps(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	notifications := NewNotificationService(db)
	budgets := NewBudgetService(db, notifications)
	transactions := NewTransactionService(db, budgets)
	recurring := NewRecurringService(db, transactions, notifications)

	user := testutil.CreateTestUser(t, db)
	category := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)
	testutil.CreateTestRecurring(t, db, user.ID, category.ID, models.FrequencyMonthly,
		time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), nil)

	today := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

	count, err := recurring.ProcessDueAsOf(today)
	testutil.AssertNoError(t, err)
	if count != 1 {
		t.Fatalf("first sweep = %d, want 1", count)
	}

	// The advance moved next_occurrence past today, so a second sweep
	// finds nothing to do.
	count, err = recurring.ProcessDueAsOf(today)
	testutil.AssertNoError(t, err)
	if count != 0 {
		t.Errorf("second sweep = %d, want 0", count)
	}

	var txCount int64
	testutil.AssertNoError(t, db.Model(&models.Transaction{}).Where("user_id = ?", user.ID).Count(&txCount).Error)
	if txCount != 1 {
		t.Errorf("transaction count = %d, want 1", txCount)
	}
}

func TestProcessDueAdvancesOnePeriodPerSweep(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	notifications := NewNotificationService(db)
	budgets := NewBudgetService(db, notifications)
	transactions := NewTransactionService(db, budgets)
	recurring := NewRecurringService(db, transactions, notifications)

	user := testutil.CreateTestUser(t, db)
	category := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)
	series := testutil.CreateTestRecurring(t, db, user.ID, category.ID, models.FrequencyDaily,
		time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), nil)

	// Five days behind: each sweep catches up exactly one day.
	today := time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)

	for sweep := 1; sweep <= 3; sweep++ {
		count, err := recurring.ProcessDueAsOf(today)
		testutil.AssertNoError(t, err)
		if count != 1 {
			t.Fatalf("sweep %d = %d series, want 1", sweep, count)
		}
	}

	reloaded, err := recurring.GetRecurringByID(user.ID, series.ID)
	testutil.AssertNoError(t, err)
	wantNext := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)
	if !reloaded.NextOccurrence.Equal(wantNext) {
		t.Errorf("next occurrence after 3 sweeps = %s, want 2024-03-04",
			reloaded.NextOccurrence.Format("2006-01-02"))
	}
}

func TestProcessDueDeactivatesPastEndDate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	notifications := NewNotificationService(db)
	budgets := NewBudgetService(db, notifications)
	transactions := NewTransactionService(db, budgets)
	recurring := NewRecurringService(db, transactions, notifications)

	user := testutil.CreateTestUser(t, db)
	category := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)

	end := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
	series, err := recurring.CreateRecurring(
		user.ID, category.ID, models.TransactionTypeExpense,
		decimal.NewFromInt(100), "short subscription",
		models.FrequencyMonthly,
		time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
		&end, nil, "",
	)
	testutil.AssertNoError(t, err)

	today := time.Date(2024, time.March, 2, 0, 0, 0, 0, time.UTC)
	count, err := recurring.ProcessDueAsOf(today)
	testutil.AssertNoError(t, err)
	if count != 1 {
		t.Fatalf("sweep = %d, want 1", count)
	}

	// The final occurrence was recorded and the series retired; later
	// sweeps leave it untouched.
	reloaded, err := recurring.GetRecurringByID(user.ID, series.ID)
	testutil.AssertNoError(t, err)
	if reloaded.IsActive {
		t.Error("series past its end date still active")
	}

	count, err = recurring.ProcessDueAsOf(today.AddDate(0, 1, 0))
	testutil.AssertNoError(t, err)
	if count != 0 {
		t.Errorf("sweep after deactivation = %d, want 0", count)
	}

	var txCount int64
	testutil.AssertNoError(t, db.Model(&models.Transaction{}).Where("recurring_id = ?", series.ID).Count(&txCount).Error)
	if txCount != 1 {
		t.Errorf("transaction count = %d, want 1", txCount)
	}
}

func TestProcessDueRetiresSeriesOnEndDateBoundary(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	notifications := NewNotificationService(db)
	budgets := NewBudgetService(db, notifications)
	transactions := NewTransactionService(db, budgets)
	recurring := NewRecurringService(db, transactions, notifications)

	user := testutil.CreateTestUser(t, db)
	category := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)

	// A one-shot daily series: start and end on the same day. The next
	// computed occurrence is end+1, so recording the final occurrence
	// must retire the series in the same sweep.
	day := time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)
	series, err := recurring.CreateRecurring(
		user.ID, category.ID, models.TransactionTypeExpense,
		decimal.NewFromInt(25), "one-off charge",
		models.FrequencyDaily, day, &day, nil, "",
	)
	testutil.AssertNoError(t, err)

	count, err := recurring.ProcessDueAsOf(day)
	testutil.AssertNoError(t, err)
	if count != 1 {
		t.Fatalf("sweep on end date = %d, want 1", count)
	}

	reloaded, err := recurring.GetRecurringByID(user.ID, series.ID)
	testutil.AssertNoError(t, err)
	if reloaded.IsActive {
		t.Error("series still active after final occurrence")
	}

	count, err = recurring.ProcessDueAsOf(day.AddDate(0, 0, 1))
	testutil.AssertNoError(t, err)
	if count != 0 {
		t.Errorf("sweep on day after end = %d, want 0", count)
	}

	var created []models.Transaction
	testutil.AssertNoError(t, db.Where("recurring_id = ?", series.ID).Find(&created).Error)
	if len(created) != 1 {
		t.Fatalf("transaction count = %d, want 1", len(created))
	}
	if created[0].Date.After(day) {
		t.Errorf("transaction dated %s is after series end %s",
			created[0].Date.Format("2006-01-02"), day.Format("2006-01-02"))
	}
}

func TestProcessDueSkipsNotYetDue(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	notifications := NewNotificationService(db)
	budgets := NewBudgetService(db, notifications)
	transactions := NewTransactionService(db, budgets)
	recurring := NewRecurringService(db, transactions, notifications)

	user := testutil.CreateTestUser(t, db)
	category := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)
	testutil.CreateTestRecurring(t, db, user.ID, category.ID, models.FrequencyWeekly,
		time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC), nil)

	count, err := recurring.ProcessDueAsOf(time.Date(2024, time.May, 20, 0, 0, 0, 0, time.UTC))
	testutil.AssertNoError(t, err)
	if count != 0 {
		t.Errorf("sweep before start = %d, want 0", count)
	}
}

func TestRecurringMaterializationFeedsBudget(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	notifications := NewNotificationService(db)
	budgets := NewBudgetService(db, notifications)
	transactions := NewTransactionService(db, budgets)
	recurring := NewRecurringService(db, transactions, notifications)

	user := testutil.CreateTestUser(t, db)
	category := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)
	budget := testutil.CreateTestBudget(t, db, user.ID, category.ID, decimal.NewFromInt(500), 3, 2024)

	series := testutil.CreateTestRecurring(t, db, user.ID, category.ID, models.FrequencyMonthly,
		time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), nil)
	testutil.AssertNoError(t, db.Model(series).Update("amount", decimal.NewFromInt(450)).Error)

	_, err := recurring.ProcessDueAsOf(time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC))
	testutil.AssertNoError(t, err)

	// The materialized expense lands in the March budget and trips the
	// 80% threshold in the same unit of work.
	reloaded, err := budgets.GetBudgetByID(user.ID, budget.ID)
	testutil.AssertNoError(t, err)
	if !reloaded.SpentAmount.Equal(decimal.NewFromInt(450)) {
		t.Errorf("budget spent = %s, want 450", reloaded.SpentAmount)
	}
	if reloaded.AlertState != models.AlertStateThresholdSent {
		t.Errorf("alert state = %q, want threshold_sent", reloaded.AlertState)
	}
}

func TestUpdateRecurringRescheduleResetsNextOccurrence(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	notifications := NewNotificationService(db)
	budgets := NewBudgetService(db, notifications)
	transactions := NewTransactionService(db, budgets)
	recurring := NewRecurringService(db, transactions, notifications)

	user := testutil.CreateTestUser(t, db)
	category := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)
	series := testutil.CreateTestRecurring(t, db, user.ID, category.ID, models.FrequencyMonthly,
		time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), nil)

	newStart := time.Date(2024, time.April, 10, 0, 0, 0, 0, time.UTC)
	weekly := models.FrequencyWeekly
	_, err := recurring.UpdateRecurring(user.ID, series.ID, nil, &weekly, &newStart, nil, nil, nil, nil)
	testutil.AssertNoError(t, err)

	reloaded, err := recurring.GetRecurringByID(user.ID, series.ID)
	testutil.AssertNoError(t, err)
	if reloaded.Frequency != models.FrequencyWeekly {
		t.Errorf("frequency = %q, want WEEKLY", reloaded.Frequency)
	}
	if !reloaded.NextOccurrence.Equal(newStart) {
		t.Errorf("next occurrence = %s, want the new start date", reloaded.NextOccurrence.Format("2006-01-02"))
	}
}

func TestUpdateRecurringRejectsEndBeforeStart(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	notifications := NewNotificationService(db)
	budgets := NewBudgetService(db, notifications)
	transactions := NewTransactionService(db, budgets)
	recurring := NewRecurringService(db, transactions, notifications)

	user := testutil.CreateTestUser(t, db)
	category := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)
	series := testutil.CreateTestRecurring(t, db, user.ID, category.ID, models.FrequencyMonthly,
		time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), nil)

	badEnd := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
	_, err := recurring.UpdateRecurring(user.ID, series.ID, nil, nil, nil, &badEnd, nil, nil, nil)
	testutil.AssertAppError(t, err, "INVALID_INPUT")

	// Moving the start past the existing end is rejected the same way.
	end := time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)
	_, err = recurring.UpdateRecurring(user.ID, series.ID, nil, nil, nil, &end, nil, nil, nil)
	testutil.AssertNoError(t, err)

	lateStart := time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)
	_, err = recurring.UpdateRecurring(user.ID, series.ID, nil, nil, &lateStart, nil, nil, nil, nil)
	testutil.AssertAppError(t, err, "INVALID_INPUT")
}

func TestRecurringOwnershipChecks(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	notifications := NewNotificationService(db)
	budgets := NewBudgetService(db, notifications)
	transactions := NewTransactionService(db, budgets)
	recurring := NewRecurringService(db, transactions, notifications)

	owner := testutil.CreateTestUser(t, db)
	other := testutil.CreateTestUser(t, db)
	category := testutil.CreateTestCategory(t, db, owner.ID, models.CategoryTypeExpense)
	series := testutil.CreateTestRecurring(t, db, owner.ID, category.ID, models.FrequencyDaily,
		time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), nil)

	_, err := recurring.GetRecurringByID(other.ID, series.ID)
	testutil.AssertAppError(t, err, "RECURRING_NOT_FOUND")

	testutil.AssertAppError(t, recurring.DeleteRecurring(other.ID, series.ID), "RECURRING_NOT_FOUND")
}
