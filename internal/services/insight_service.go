package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "github.com/abhinavaxid/finance-tracker/internal/errors"
	"github.com/abhinavaxid/finance-tracker/internal/logger"
	"github.com/abhinavaxid/finance-tracker/internal/models"
	"github.com/abhinavaxid/finance-tracker/internal/pagination"
)

// insightService derives rule-based spending insights from a user's
// transactions and budgets.
type insightService struct {
	db    *gorm.DB
	users UserServicer
}

// NewInsightService creates a new InsightServicer.
func NewInsightService(db *gorm.DB, users UserServicer) InsightServicer {
	return &insightService{db: db, users: users}
}

// GenerateInsights runs every insight rule for one user and returns how
// many insights were created. A rule that already produced an insight
// of the same type today is skipped, so repeated runs within a day do
// not pile up duplicates.
func (s *insightService) GenerateInsights(userID uint) (int, error) {
	now := time.Now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	prevMonthStart := monthStart.AddDate(0, -1, 0)

	created := 0
	checks := []func(uint, time.Time, time.Time, time.Time) (*models.Insight, error){
		s.checkOverspending,
		s.checkSpendingTrend,
		s.checkUnusualActivity,
		s.checkLowSavings,
	}
	for _, check := range checks {
		insight, err := check(userID, now, monthStart, prevMonthStart)
		if err != nil {
			return created, err
		}
		if insight == nil {
			continue
		}

		duplicate, err := s.createdToday(userID, insight.Type, now)
		if err != nil {
			return created, err
		}
		if duplicate {
			continue
		}

		if err := s.db.Create(insight).Error; err != nil {
			return created, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		created++
	}
	return created, nil
}

// GenerateAll runs insight generation for every active user. Per-user
// failures are logged and skipped.
func (s *insightService) GenerateAll() (int, error) {
	userIDs, err := s.users.ListActiveUserIDs()
	if err != nil {
		return 0, err
	}

	total := 0
	for _, userID := range userIDs {
		count, err := s.GenerateInsights(userID)
		total += count
		if err != nil {
			logger.Get().Errorw("insight generation failed for user", "user_id", userID, "error", err)
		}
	}
	return total, nil
}

// GetActiveInsights returns the user's non-dismissed insights, newest first.
func (s *insightService) GetActiveInsights(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Insight], error) {
	page.Defaults()

	base := s.db.Model(&models.Insight{}).Where("user_id = ? AND is_dismissed = ?", userID, false)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var insights []models.Insight
	if err := base.Scopes(pagination.Paginate(page)).
		Order("created_at DESC").
		Find(&insights).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(insights, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// Dismiss hides an insight from the user's active list.
func (s *insightService) Dismiss(userID, insightID uint) error {
	var insight models.Insight
	if err := s.db.Where("id = ? AND user_id = ?", insightID, userID).First(&insight).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrInsightNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := s.db.Model(&insight).Update("is_dismissed", true).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

func (s *insightService) createdToday(userID uint, insightType models.InsightType, now time.Time) (bool, error) {
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var count int64
	err := s.db.Model(&models.Insight{}).
		Where("user_id = ? AND type = ? AND created_at >= ?", userID, insightType, dayStart).
		Count(&count).Error
	if err != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return count > 0, nil
}

// checkOverspending flags users with any exceeded budget this month.
func (s *insightService) checkOverspending(userID uint, now, _, _ time.Time) (*models.Insight, error) {
	var budgets []models.Budget
	err := s.db.Preload("Category").
		Where("user_id = ? AND month = ? AND year = ?", userID, int(now.Month()), now.Year()).
		Find(&budgets).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var exceeded []string
	for _, b := range budgets {
		if b.IsExceeded() {
			exceeded = append(exceeded, b.Category.Name)
		}
	}
	if len(exceeded) == 0 {
		return nil, nil
	}

	return &models.Insight{
		UserID:      userID,
		Type:        models.InsightOverspending,
		Severity:    models.SeverityCritical,
		Title:       "Overspending Detected",
		Description: fmt.Sprintf("You have exceeded %d budget(s) this month: %s.", len(exceeded), strings.Join(exceeded, ", ")),
	}, nil
}

// checkSpendingTrend flags month-over-month expense growth above 20%.
func (s *insightService) checkSpendingTrend(userID uint, _, monthStart, prevMonthStart time.Time) (*models.Insight, error) {
	current, err := s.sumExpenses(userID, monthStart, monthStart.AddDate(0, 1, 0))
	if err != nil {
		return nil, err
	}
	previous, err := s.sumExpenses(userID, prevMonthStart, monthStart)
	if err != nil {
		return nil, err
	}

	if !previous.IsPositive() || !current.GreaterThan(previous.Mul(decimal.NewFromFloat(1.2))) {
		return nil, nil
	}

	growth := current.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100)).Round(0)
	return &models.Insight{
		UserID:      userID,
		Type:        models.InsightTrendUp,
		Severity:    models.SeverityWarning,
		Title:       "Spending Trend Up",
		Description: fmt.Sprintf("Your spending this month is up %s%% compared to last month (%s vs %s).", growth, current.StringFixed(2), previous.StringFixed(2)),
	}, nil
}

// checkUnusualActivity flags a recent expense more than three times the
// user's average expense over the last 90 days.
func (s *insightService) checkUnusualActivity(userID uint, now, _, _ time.Time) (*models.Insight, error) {
	windowStart := now.AddDate(0, 0, -90)

	var avg decimal.NullDecimal
	err := s.db.Model(&models.Transaction{}).
		Select("AVG(amount)").
		Where("user_id = ? AND type = ? AND date >= ?", userID, models.TransactionTypeExpense, windowStart).
		Scan(&avg).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if !avg.Valid || !avg.Decimal.IsPositive() {
		return nil, nil
	}

	cutoff := avg.Decimal.Mul(decimal.NewFromInt(3))
	weekStart := now.AddDate(0, 0, -7)

	var outlier models.Transaction
	err = s.db.Preload("Category").
		Where("user_id = ? AND type = ? AND date >= ? AND amount > ?",
			userID, models.TransactionTypeExpense, weekStart, cutoff).
		Order("amount DESC").
		First(&outlier).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return &models.Insight{
		UserID:      userID,
		Type:        models.InsightUnusualActivity,
		Severity:    models.SeverityWarning,
		Title:       "Unusual Activity",
		Description: fmt.Sprintf("A %s expense in %s is well above your typical spending of %s.", outlier.Amount.StringFixed(2), outlier.Category.Name, avg.Decimal.StringFixed(2)),
	}, nil
}

// checkLowSavings flags a savings rate under 10% of this month's income.
func (s *insightService) checkLowSavings(userID uint, _, monthStart, _ time.Time) (*models.Insight, error) {
	monthEnd := monthStart.AddDate(0, 1, 0)

	income, err := s.sumByType(userID, models.TransactionTypeIncome, monthStart, monthEnd)
	if err != nil {
		return nil, err
	}
	if !income.IsPositive() {
		return nil, nil
	}

	expenses, err := s.sumExpenses(userID, monthStart, monthEnd)
	if err != nil {
		return nil, err
	}

	savingsRate := income.Sub(expenses).Div(income)
	if !savingsRate.LessThan(decimal.NewFromFloat(0.1)) {
		return nil, nil
	}

	return &models.Insight{
		UserID:      userID,
		Type:        models.InsightLowSavings,
		Severity:    models.SeverityInfo,
		Title:       "Low Savings This Month",
		Description: fmt.Sprintf("You are saving %s%% of your income this month; a 10%% floor is a common target.", savingsRate.Mul(decimal.NewFromInt(100)).Round(1)),
	}, nil
}

func (s *insightService) sumExpenses(userID uint, from, to time.Time) (decimal.Decimal, error) {
	return s.sumByType(userID, models.TransactionTypeExpense, from, to)
}

func (s *insightService) sumByType(userID uint, transactionType models.TransactionType, from, to time.Time) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	err := s.db.Model(&models.Transaction{}).
		Select("SUM(amount)").
		Where("user_id = ? AND type = ? AND date >= ? AND date < ?", userID, transactionType, from, to).
		Scan(&sum).Error
	if err != nil {
		return decimal.Zero, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}
