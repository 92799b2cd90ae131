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

// recurringService handles recurring transaction templates and their
// periodic materialization into concrete transactions.
type recurringService struct {
	db            *gorm.DB
	transactions  TransactionServicer
	notifications NotificationServicer

	// sweep collapses concurrent ProcessDue invocations. Individual
	// series are additionally guarded by a compare-and-swap on their
	// next occurrence, so even sweeps racing across processes cannot
	// materialize the same occurrence twice.
	sweep singleflight.Group
}

// NewRecurringService creates a new RecurringServicer.
func NewRecurringService(db *gorm.DB, transactions TransactionServicer, notifications NotificationServicer) RecurringServicer {
	return &recurringService{db: db, transactions: transactions, notifications: notifications}
}

// CreateRecurring registers a recurring transaction template. The first
// occurrence is the start date itself.
func (s *recurringService) CreateRecurring(
	userID, categoryID uint,
	transactionType models.TransactionType,
	amount decimal.Decimal,
	description string,
	frequency models.Frequency,
	startDate time.Time,
	endDate *time.Time,
	dayOfMonth *int,
	paymentMethod string,
) (*models.RecurringTransaction, error) {
	if !amount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "recurring amount must be greater than zero")
	}
	if endDate != nil && endDate.Before(startDate) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "end date must not be before start date")
	}
	if dayOfMonth != nil && (*dayOfMonth < 1 || *dayOfMonth > 31) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "day of month must be between 1 and 31")
	}

	var category models.Category
	if err := s.db.Where("id = ? AND (user_id = ? OR user_id IS NULL)", categoryID, userID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	recurring := &models.RecurringTransaction{
		UserID:         userID,
		CategoryID:     categoryID,
		Type:           transactionType,
		Amount:         amount,
		Description:    description,
		Frequency:      frequency,
		StartDate:      startDate,
		EndDate:        endDate,
		NextOccurrence: startDate,
		DayOfMonth:     dayOfMonth,
		PaymentMethod:  paymentMethod,
		IsActive:       true,
	}

	if err := s.db.Create(recurring).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	recurring.Category = category
	return recurring, nil
}

// GetRecurringByID returns a recurring template by ID if it belongs to the user.
func (s *recurringService) GetRecurringByID(userID, recurringID uint) (*models.RecurringTransaction, error) {
	var recurring models.RecurringTransaction
	if err := s.db.Preload("Category").Where("id = ? AND user_id = ?", recurringID, userID).First(&recurring).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrRecurringNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &recurring, nil
}

// GetUserRecurring returns a paginated list of the user's recurring templates.
func (s *recurringService) GetUserRecurring(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.RecurringTransaction], error) {
	page.Defaults()

	base := s.db.Model(&models.RecurringTransaction{}).Where("user_id = ?", userID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var recurring []models.RecurringTransaction
	if err := base.Preload("Category").
		Scopes(pagination.Paginate(page)).
		Order("next_occurrence").
		Find(&recurring).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(recurring, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// ListDue returns the user's series whose next occurrence has arrived.
func (s *recurringService) ListDue(userID uint) ([]models.RecurringTransaction, error) {
	today := time.Now().UTC().Truncate(24 * time.Hour)

	var candidates []models.RecurringTransaction
	if err := s.db.Preload("Category").
		Where("user_id = ? AND is_active = ? AND next_occurrence <= ?", userID, true, today).
		Order("next_occurrence").
		Find(&candidates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var due []models.RecurringTransaction
	for _, r := range candidates {
		if r.IsDue(today) {
			due = append(due, r)
		}
	}
	return due, nil
}

// UpdateRecurring edits a recurring template. Frequency, start date, or
// day-of-month changes reset the next occurrence to the (possibly new)
// start date so the schedule is recomputed from scratch.
func (s *recurringService) UpdateRecurring(
	userID, recurringID uint,
	amount *decimal.Decimal,
	frequency *models.Frequency,
	startDate, endDate *time.Time,
	dayOfMonth *int,
	description, paymentMethod *string,
) (*models.RecurringTransaction, error) {
	recurring, err := s.GetRecurringByID(userID, recurringID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if amount != nil {
		if !amount.IsPositive() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "recurring amount must be greater than zero")
		}
		updates["amount"] = *amount
	}
	if description != nil {
		updates["description"] = *description
	}
	if paymentMethod != nil {
		updates["payment_method"] = *paymentMethod
	}
	rescheduled := false
	start := recurring.StartDate
	if startDate != nil {
		start = *startDate
		updates["start_date"] = start
		rescheduled = true
	}

	end := recurring.EndDate
	if endDate != nil {
		end = endDate
		updates["end_date"] = *endDate
	}
	if end != nil && end.Before(start) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "end date must not be before start date")
	}
	if frequency != nil {
		updates["frequency"] = *frequency
		rescheduled = true
	}
	if dayOfMonth != nil {
		if *dayOfMonth < 1 || *dayOfMonth > 31 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "day of month must be between 1 and 31")
		}
		updates["day_of_month"] = *dayOfMonth
		rescheduled = true
	}
	if rescheduled {
		updates["next_occurrence"] = start
	}

	if len(updates) == 0 {
		return recurring, nil
	}

	if err := s.db.Model(recurring).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return recurring, nil
}

// DeactivateRecurring pauses a series without deleting its history.
func (s *recurringService) DeactivateRecurring(userID, recurringID uint) error {
	recurring, err := s.GetRecurringByID(userID, recurringID)
	if err != nil {
		return err
	}

	if err := s.db.Model(recurring).Update("is_active", false).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// DeleteRecurring soft-deletes a recurring template. Transactions
// already materialized from it remain.
func (s *recurringService) DeleteRecurring(userID, recurringID uint) error {
	recurring, err := s.GetRecurringByID(userID, recurringID)
	if err != nil {
		return err
	}

	if err := s.db.Delete(recurring).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// ProcessDue materializes every due series once, as of today.
func (s *recurringService) ProcessDue() (int, error) {
	return s.ProcessDueAsOf(time.Now().UTC().Truncate(24 * time.Hour))
}

// ProcessDueAsOf runs one sweep over all due series. Each series is
// advanced by a single period per sweep: the due occurrence is recorded
// as a transaction dated at the occurrence (not the sweep day), and the
// next occurrence moves forward by one frequency step. A series whose
// advanced occurrence would pass its end date is deactivated instead of
// advanced. Per-series failures are logged and skipped; the sweep keeps
// going and reports how many transactions it created.
func (s *recurringService) ProcessDueAsOf(today time.Time) (int, error) {
	count, err, _ := s.sweep.Do("recurring-sweep", func() (interface{}, error) {
		return s.processDue(today)
	})
	if err != nil {
		return 0, err
	}
	return count.(int), nil
}

func (s *recurringService) processDue(today time.Time) (int, error) {
	var candidates []models.RecurringTransaction
	if err := s.db.
		Where("is_active = ? AND next_occurrence <= ?", true, today).
		Order("id").
		Find(&candidates).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	processed := 0
	for i := range candidates {
		recurring := candidates[i]
		if !recurring.IsDue(today) {
			continue
		}

		created, err := s.processOne(&recurring, today)
		if err != nil {
			logger.Get().Errorw("recurring sweep failed for series",
				"recurring_id", recurring.ID,
				"user_id", recurring.UserID,
				"error", err,
			)
			continue
		}
		if created {
			processed++
		}
	}

	if processed > 0 {
		logger.Get().Infow("recurring sweep complete", "created", processed, "as_of", today.Format("2006-01-02"))
	}
	return processed, nil
}

// processOne advances a single series inside its own database
// transaction. The advance is a compare-and-swap on the stored next
// occurrence, so a concurrent sweep that already moved the series
// leaves this one with nothing to do.
func (s *recurringService) processOne(recurring *models.RecurringTransaction, today time.Time) (bool, error) {
	created := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		occurrence := recurring.NextOccurrence
		next := recurring.Frequency.NextAfter(occurrence, recurring.DayOfMonth)

		if recurring.EndDate != nil && next.After(*recurring.EndDate) {
			// Final occurrence: record it, then retire the series.
			result := tx.Model(&models.RecurringTransaction{}).
				Where("id = ? AND next_occurrence = ? AND is_active = ?", recurring.ID, occurrence, true).
				Updates(map[string]interface{}{"is_active": false, "next_occurrence": next})
			if result.Error != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
			}
			if result.RowsAffected == 0 {
				return nil
			}
		} else {
			result := tx.Model(&models.RecurringTransaction{}).
				Where("id = ? AND next_occurrence = ? AND is_active = ?", recurring.ID, occurrence, true).
				Update("next_occurrence", next)
			if result.Error != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
			}
			if result.RowsAffected == 0 {
				return nil
			}
		}

		recurringID := recurring.ID
		transaction, err := s.transactions.CreateWithDB(
			tx,
			recurring.UserID,
			recurring.CategoryID,
			recurring.Type,
			recurring.Amount,
			recurring.Description,
			occurrence,
			recurring.PaymentMethod,
			&recurringID,
		)
		if err != nil {
			return err
		}

		if err := s.notifications.Notify(tx, recurring.UserID,
			models.NotificationRecurring,
			"Recurring Transaction Recorded",
			fmt.Sprintf("%s of %s was recorded automatically for %s.",
				recurring.Description, recurring.Amount.StringFixed(2),
				transaction.Date.Format("2006-01-02")),
		); err != nil {
			return err
		}

		created = true
		return nil
	})
	return created, err
}
