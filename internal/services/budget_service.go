package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	apperrors "github.com/abhinavaxid/finance-tracker/internal/errors"
	"github.com/abhinavaxid/finance-tracker/internal/logger"
	"github.com/abhinavaxid/finance-tracker/internal/models"
	"github.com/abhinavaxid/finance-tracker/internal/pagination"
)

// defaultAlertThreshold is the percentage at which a budget warns when
// the caller does not pick one.
var defaultAlertThreshold = decimal.NewFromInt(80)

// budgetService handles budget-related business logic.
type budgetService struct {
	db            *gorm.DB
	notifications NotificationServicer

	// sweep collapses concurrent CheckAlerts invocations so an
	// overlapping scheduler tick cannot double-dispatch alerts.
	sweep singleflight.Group
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB, notifications NotificationServicer) BudgetServicer {
	return &budgetService{db: db, notifications: notifications}
}

// CreateBudget creates a budget for a category and period. Only one
// budget may exist per (user, category, month, year).
func (s *budgetService) CreateBudget(
	userID, categoryID uint,
	amount decimal.Decimal,
	month, year int,
	alertThreshold *decimal.Decimal,
	notes string,
) (*models.Budget, error) {
	if !amount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "budget amount must be greater than zero")
	}
	if err := validatePeriod(month, year); err != nil {
		return nil, err
	}

	var category models.Category
	if err := s.db.Where("id = ? AND (user_id = ? OR user_id IS NULL)", categoryID, userID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var count int64
	if err := s.db.Model(&models.Budget{}).
		Where("user_id = ? AND category_id = ? AND month = ? AND year = ?", userID, categoryID, month, year).
		Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateBudget
	}

	threshold := defaultAlertThreshold
	if alertThreshold != nil {
		if alertThreshold.IsNegative() || alertThreshold.GreaterThan(decimal.NewFromInt(100)) {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "alert threshold must be between 0 and 100")
		}
		threshold = *alertThreshold
	}

	budget := &models.Budget{
		UserID:         userID,
		CategoryID:     categoryID,
		Month:          month,
		Year:           year,
		Amount:         amount,
		SpentAmount:    decimal.Zero,
		AlertThreshold: threshold,
		AlertState:     models.AlertStateUnsent,
		Notes:          notes,
	}

	if err := s.db.Create(budget).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return budget, nil
}

// GetBudgetByID returns a budget by ID if it belongs to the user.
func (s *budgetService) GetBudgetByID(userID, budgetID uint) (*models.Budget, error) {
	var budget models.Budget
	if err := s.db.Preload("Category").Where("id = ? AND user_id = ?", budgetID, userID).First(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &budget, nil
}

// GetBudgetsForPeriod returns the user's budgets for one month.
func (s *budgetService) GetBudgetsForPeriod(userID uint, month, year int) ([]models.Budget, error) {
	if err := validatePeriod(month, year); err != nil {
		return nil, err
	}

	var budgets []models.Budget
	if err := s.db.Preload("Category").
		Where("user_id = ? AND month = ? AND year = ?", userID, month, year).
		Order("category_id").
		Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return budgets, nil
}

// GetUserBudgets returns a paginated list of all the user's budgets,
// newest period first.
func (s *budgetService) GetUserBudgets(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Budget], error) {
	page.Defaults()

	base := s.db.Model(&models.Budget{}).Where("user_id = ?", userID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var budgets []models.Budget
	if err := base.Preload("Category").
		Scopes(pagination.Paginate(page)).
		Order("year DESC, month DESC").
		Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(budgets, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetWarningBudgets returns budgets at or past their alert threshold
// but not yet exceeded.
func (s *budgetService) GetWarningBudgets(userID uint) ([]models.Budget, error) {
	budgets, err := s.allUserBudgets(userID)
	if err != nil {
		return nil, err
	}

	var warning []models.Budget
	for _, b := range budgets {
		if b.Status() == models.BudgetStatusWarning {
			warning = append(warning, b)
		}
	}
	return warning, nil
}

// GetExceededBudgets returns budgets whose spending has passed the allocation.
func (s *budgetService) GetExceededBudgets(userID uint) ([]models.Budget, error) {
	budgets, err := s.allUserBudgets(userID)
	if err != nil {
		return nil, err
	}

	var exceeded []models.Budget
	for _, b := range budgets {
		if b.IsExceeded() {
			exceeded = append(exceeded, b)
		}
	}
	return exceeded, nil
}

func (s *budgetService) allUserBudgets(userID uint) ([]models.Budget, error) {
	var budgets []models.Budget
	if err := s.db.Preload("Category").Where("user_id = ?", userID).Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return budgets, nil
}

// UpdateBudget edits a budget's amount, alert threshold, or notes.
// Any edit resets the alert state to unsent, re-arming future alerts.
func (s *budgetService) UpdateBudget(
	userID, budgetID uint,
	amount, alertThreshold *decimal.Decimal,
	notes *string,
) (*models.Budget, error) {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if amount != nil {
		if !amount.IsPositive() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "budget amount must be greater than zero")
		}
		updates["amount"] = *amount
	}
	if alertThreshold != nil {
		if alertThreshold.IsNegative() || alertThreshold.GreaterThan(decimal.NewFromInt(100)) {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "alert threshold must be between 0 and 100")
		}
		updates["alert_threshold"] = *alertThreshold
	}
	if notes != nil {
		updates["notes"] = *notes
	}

	if len(updates) == 0 {
		return budget, nil
	}
	updates["alert_state"] = models.AlertStateUnsent

	if err := s.db.Model(budget).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return budget, nil
}

// DeleteBudget soft-deletes a budget.
func (s *budgetService) DeleteBudget(userID, budgetID uint) error {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return err
	}

	if err := s.db.Delete(budget).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// ApplySpent adjusts the cached spent amount of the budget covering
// the category and date, then evaluates alerting on the new snapshot.
// Having no budget for the period is normal and not an error.
func (s *budgetService) ApplySpent(tx *gorm.DB, userID, categoryID uint, date time.Time, delta decimal.Decimal) error {
	var budget models.Budget
	err := tx.
		Where("user_id = ? AND category_id = ? AND month = ? AND year = ?",
			userID, categoryID, int(date.Month()), date.Year()).
		First(&budget).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	budget.SpentAmount = budget.SpentAmount.Add(delta)
	if err := tx.Model(&budget).Update("spent_amount", budget.SpentAmount).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return s.evaluate(tx, &budget)
}

// RecalculateSpent recomputes the cached spent amount from the expense
// transactions of the budget's period and persists it.
func (s *budgetService) RecalculateSpent(userID, budgetID uint) (*models.Budget, error) {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return nil, err
	}

	periodStart := time.Date(budget.Year, time.Month(budget.Month), 1, 0, 0, 0, 0, time.UTC)
	periodEnd := periodStart.AddDate(0, 1, 0)

	var spent decimal.NullDecimal
	err = s.db.Model(&models.Transaction{}).
		Select("SUM(amount)").
		Where("user_id = ? AND category_id = ? AND type = ? AND date >= ? AND date < ?",
			userID, budget.CategoryID, models.TransactionTypeExpense, periodStart, periodEnd).
		Scan(&spent).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	total := decimal.Zero
	if spent.Valid {
		total = spent.Decimal
	}

	budget.SpentAmount = total
	if err := s.db.Model(budget).Update("spent_amount", total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return budget, nil
}

// CheckAlerts evaluates every budget and dispatches pending alerts.
// Concurrent invocations collapse into one sweep.
func (s *budgetService) CheckAlerts() (int, error) {
	count, err, _ := s.sweep.Do("budget-alerts", func() (interface{}, error) {
		return s.checkAlerts()
	})
	if err != nil {
		return 0, err
	}
	return count.(int), nil
}

func (s *budgetService) checkAlerts() (int, error) {
	var budgets []models.Budget
	if err := s.db.Preload("Category").
		Where("alert_state <> ?", models.AlertStateExceededSent).
		Find(&budgets).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	dispatched := 0
	for i := range budgets {
		budget := budgets[i]
		before := budget.AlertState
		err := s.db.Transaction(func(tx *gorm.DB) error {
			return s.evaluate(tx, &budget)
		})
		if err != nil {
			logger.Get().Errorw("budget alert evaluation failed",
				"budget_id", budget.ID,
				"user_id", budget.UserID,
				"error", err,
			)
			continue
		}
		if budget.AlertState != before {
			dispatched++
		}
	}
	return dispatched, nil
}

// evaluate runs the alert-state transition for a budget snapshot,
// dispatching the notification and persisting the advanced state when
// a transition fires. The persisted state is the only guard against
// duplicate alerts, so the state update and the notification share the
// caller's transaction.
func (s *budgetService) evaluate(tx *gorm.DB, budget *models.Budget) error {
	next, kind := budget.NextAlertState()
	if kind == models.AlertNone {
		return nil
	}

	categoryName := budget.Category.Name
	if categoryName == "" {
		var category models.Category
		if err := tx.Select("name").First(&category, budget.CategoryID).Error; err == nil {
			categoryName = category.Name
		}
	}

	var notificationType models.NotificationType
	var title, message string
	switch kind {
	case models.AlertThreshold:
		notificationType = models.NotificationBudgetAlert
		title = "Budget Alert"
		message = fmt.Sprintf("Your %s budget for %02d/%d has reached %s%% of its allocation (%s of %s).",
			categoryName, budget.Month, budget.Year,
			budget.PercentageUsed().StringFixed(2),
			budget.SpentAmount.StringFixed(2), budget.Amount.StringFixed(2))
	case models.AlertExceeded:
		notificationType = models.NotificationBudgetExceeded
		title = "Budget Exceeded"
		message = fmt.Sprintf("You have exceeded your %s budget for %02d/%d by %s.",
			categoryName, budget.Month, budget.Year,
			budget.SpentAmount.Sub(budget.Amount).StringFixed(2))
	}

	if err := s.notifications.Notify(tx, budget.UserID, notificationType, title, message); err != nil {
		return err
	}

	if err := tx.Model(budget).Update("alert_state", next).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	budget.AlertState = next
	return nil
}

func validatePeriod(month, year int) error {
	if month < 1 || month > 12 {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "month must be between 1 and 12")
	}
	if year < 2000 || year > 2100 {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "year must be between 2000 and 2100")
	}
	return nil
}
