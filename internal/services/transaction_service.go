package services

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "github.com/abhinavaxid/finance-tracker/internal/errors"
	"github.com/abhinavaxid/finance-tracker/internal/models"
	"github.com/abhinavaxid/finance-tracker/internal/pagination"
)

// transactionService handles transaction-related business logic.
type transactionService struct {
	db      *gorm.DB
	budgets BudgetServicer
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB, budgets BudgetServicer) TransactionServicer {
	return &transactionService{db: db, budgets: budgets}
}

// CreateTransaction records a transaction and keeps the matching
// budget's spent amount in sync, atomically.
func (s *transactionService) CreateTransaction(
	userID, categoryID uint,
	transactionType models.TransactionType,
	amount decimal.Decimal,
	description string,
	date time.Time,
	paymentMethod string,
) (*models.Transaction, error) {
	var created *models.Transaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		created, err = s.CreateWithDB(tx, userID, categoryID, transactionType, amount, description, date, paymentMethod, nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// CreateWithDB creates a transaction inside a caller-managed database
// transaction. Expense transactions bump the spent amount of the
// budget covering their category and month, which may in turn fire a
// budget alert in the same unit of work.
func (s *transactionService) CreateWithDB(
	tx *gorm.DB,
	userID, categoryID uint,
	transactionType models.TransactionType,
	amount decimal.Decimal,
	description string,
	date time.Time,
	paymentMethod string,
	recurringID *uint,
) (*models.Transaction, error) {
	if !amount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "transaction amount must be greater than zero")
	}

	var category models.Category
	if err := tx.Where("id = ? AND (user_id = ? OR user_id IS NULL)", categoryID, userID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	transaction := &models.Transaction{
		UserID:        userID,
		CategoryID:    categoryID,
		Type:          transactionType,
		Amount:        amount,
		Description:   description,
		Date:          date,
		PaymentMethod: paymentMethod,
		RecurringID:   recurringID,
	}

	if err := tx.Create(transaction).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if transactionType == models.TransactionTypeExpense {
		if err := s.budgets.ApplySpent(tx, userID, categoryID, date, amount); err != nil {
			return nil, err
		}
	}

	transaction.Category = category
	return transaction, nil
}

// GetUserTransactions returns a paginated, filtered list of the user's
// transactions, newest first.
func (s *transactionService) GetUserTransactions(
	userID uint,
	page pagination.PageRequest,
	filter TransactionFilter,
) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	base := s.db.Model(&models.Transaction{}).Where("user_id = ?", userID)
	if filter.FromDate != nil {
		base = base.Where("date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		base = base.Where("date <= ?", *filter.ToDate)
	}
	if filter.Type != nil {
		base = base.Where("type = ?", *filter.Type)
	}
	if filter.CategoryID != nil {
		base = base.Where("category_id = ?", *filter.CategoryID)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := base.Preload("Category").
		Scopes(pagination.Paginate(page)).
		Order("date DESC, id DESC").
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transactions, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetTransactionByID returns a transaction by ID if it belongs to the user.
func (s *transactionService) GetTransactionByID(userID, transactionID uint) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := s.db.Preload("Category").Where("id = ? AND user_id = ?", transactionID, userID).First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}

// DeleteTransaction soft-deletes a transaction and rolls its amount
// out of the covering budget's spent total.
func (s *transactionService) DeleteTransaction(userID, transactionID uint) error {
	transaction, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(transaction).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if transaction.Type == models.TransactionTypeExpense {
			return s.budgets.ApplySpent(tx, userID, transaction.CategoryID, transaction.Date, transaction.Amount.Neg())
		}
		return nil
	})
}
