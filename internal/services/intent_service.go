package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/abhinavaxid/finance-tracker/internal/errors"
	"github.com/abhinavaxid/finance-tracker/internal/logger"
	"github.com/abhinavaxid/finance-tracker/internal/models"
	"github.com/abhinavaxid/finance-tracker/internal/resolver"
)

// Action enumerates the operations an intent command can request.
type Action string

const (
	ActionCreate Action = "CREATE"
	ActionRead   Action = "READ"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
)

// ParseAction validates an action string.
func ParseAction(raw string) (Action, error) {
	a := Action(strings.ToUpper(strings.TrimSpace(raw)))
	switch a {
	case ActionCreate, ActionRead, ActionUpdate, ActionDelete:
		return a, nil
	}
	return "", fmt.Errorf("unknown action: %q", raw)
}

// Command is a structured intent: an action plus the fields an upstream
// natural-language parser extracted from the user's message.
type Command struct {
	Action        string           `json:"action" binding:"required"`
	Amount        *decimal.Decimal `json:"amount,omitempty"`
	CategoryHint  string           `json:"category_hint,omitempty"`
	Type          string           `json:"type,omitempty"`
	Description   string           `json:"description,omitempty"`
	Date          string           `json:"date,omitempty"`
	PaymentMethod string           `json:"payment_method,omitempty"`
	TransactionID *uint            `json:"transaction_id,omitempty"`
	Confidence    *float64         `json:"confidence,omitempty"`
}

// Result is the uniform response shape every dispatch produces,
// success or failure.
type Result struct {
	Success               bool                `json:"success"`
	Message               string              `json:"message,omitempty"`
	Action                string              `json:"action,omitempty"`
	Transaction           *models.Transaction `json:"transaction,omitempty"`
	ErrorCode             string              `json:"error_code,omitempty"`
	ErrorDetails          string              `json:"error_details,omitempty"`
	ClarificationQuestion string              `json:"clarification_question,omitempty"`
	Options               []string            `json:"options,omitempty"`
	Confidence            *float64            `json:"confidence,omitempty"`
}

// intentService routes intent commands to transaction operations.
type intentService struct {
	categories   CategoryServicer
	transactions TransactionServicer

	// now is swappable in tests.
	now func() time.Time
}

// NewIntentService creates a new IntentServicer.
func NewIntentService(categories CategoryServicer, transactions TransactionServicer) IntentServicer {
	return &intentService{
		categories:   categories,
		transactions: transactions,
		now:          time.Now,
	}
}

// Dispatch interprets a command for the given user. It never panics or
// returns an error: every failure path becomes a typed Result.
func (s *intentService) Dispatch(userID uint, cmd Command) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			logger.Get().Errorw("intent dispatch panicked",
				"user_id", userID,
				"action", cmd.Action,
				"panic", r,
			)
			result = failure(cmd.Action, apperrors.ErrInternalServer.Code, "an unexpected error occurred")
		}
	}()

	action, err := ParseAction(cmd.Action)
	if err != nil {
		return failure(cmd.Action, apperrors.ErrInvalidAction.Code,
			fmt.Sprintf("action must be one of CREATE, READ, UPDATE, DELETE; got %q", cmd.Action))
	}

	switch action {
	case ActionCreate:
		return s.create(userID, cmd)
	case ActionRead:
		return s.read(userID, cmd)
	case ActionUpdate:
		return failure(string(action), apperrors.ErrNotImplemented.Code,
			"updating transactions through intents is not supported yet; delete and re-create instead")
	case ActionDelete:
		return s.delete(userID, cmd)
	}
	return failure(cmd.Action, apperrors.ErrInvalidAction.Code, "unhandled action")
}

func (s *intentService) create(userID uint, cmd Command) Result {
	if cmd.Amount == nil || !cmd.Amount.IsPositive() {
		return failure(string(ActionCreate), apperrors.ErrValidation.Code, "amount is required and must be greater than zero")
	}
	if strings.TrimSpace(cmd.CategoryHint) == "" {
		return failure(string(ActionCreate), apperrors.ErrValidation.Code, "category_hint is required")
	}

	transactionType := models.ParseTransactionType(cmd.Type)

	today := dateOnly(s.now())
	date := today
	if cmd.Date != "" {
		parsed, err := time.Parse("2006-01-02", cmd.Date)
		if err != nil {
			return failure(string(ActionCreate), apperrors.ErrValidation.Code,
				fmt.Sprintf("date must be formatted as YYYY-MM-DD; got %q", cmd.Date))
		}
		date = parsed
	}
	if date.After(today) {
		return failure(string(ActionCreate), apperrors.ErrValidation.Code, "date must not be in the future")
	}

	candidates, err := s.categories.ListForUser(userID, transactionType)
	if err != nil {
		return failureFromError(string(ActionCreate), err)
	}

	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = c.Name
	}

	index, ok := resolver.Resolve(cmd.CategoryHint, names)
	if !ok {
		return Result{
			Success:               false,
			Action:                string(ActionCreate),
			ErrorCode:             apperrors.ErrResolution.Code,
			ErrorDetails:          fmt.Sprintf("no category matches %q", cmd.CategoryHint),
			ClarificationQuestion: fmt.Sprintf("Which category did you mean for %q?", cmd.CategoryHint),
			Options:               names,
			Confidence:            cmd.Confidence,
		}
	}
	category := candidates[index]

	transaction, err := s.transactions.CreateTransaction(
		userID, category.ID, transactionType,
		*cmd.Amount, cmd.Description, date, cmd.PaymentMethod,
	)
	if err != nil {
		return failureFromError(string(ActionCreate), err)
	}

	kind := "expense"
	if transactionType == models.TransactionTypeIncome {
		kind = "income"
	}
	return Result{
		Success: true,
		Action:  string(ActionCreate),
		Message: fmt.Sprintf("✓ %s %s added to %s on %s",
			cmd.Amount.StringFixed(2), kind, category.Name, date.Format("2006-01-02")),
		Transaction: transaction,
		Confidence:  cmd.Confidence,
	}
}

func (s *intentService) read(userID uint, cmd Command) Result {
	if cmd.TransactionID == nil {
		return failure(string(ActionRead), apperrors.ErrValidation.Code, "transaction_id is required")
	}

	transaction, err := s.transactions.GetTransactionByID(userID, *cmd.TransactionID)
	if err != nil {
		// A transaction that exists but belongs to someone else is
		// indistinguishable from a missing one at the query level;
		// both surface as an authorization failure to the caller.
		if errors.Is(err, apperrors.ErrTransactionNotFound) {
			return failure(string(ActionRead), apperrors.ErrAuthorization.Code,
				fmt.Sprintf("transaction %d does not exist or does not belong to you", *cmd.TransactionID))
		}
		return failureFromError(string(ActionRead), err)
	}

	return Result{
		Success:     true,
		Action:      string(ActionRead),
		Message:     fmt.Sprintf("Transaction %d retrieved", transaction.ID),
		Transaction: transaction,
		Confidence:  cmd.Confidence,
	}
}

func (s *intentService) delete(userID uint, cmd Command) Result {
	if cmd.TransactionID == nil {
		return failure(string(ActionDelete), apperrors.ErrValidation.Code, "transaction_id is required")
	}

	if err := s.transactions.DeleteTransaction(userID, *cmd.TransactionID); err != nil {
		if errors.Is(err, apperrors.ErrTransactionNotFound) {
			return failure(string(ActionDelete), apperrors.ErrAuthorization.Code,
				fmt.Sprintf("transaction %d does not exist or does not belong to you", *cmd.TransactionID))
		}
		return failureFromError(string(ActionDelete), err)
	}

	return Result{
		Success:    true,
		Action:     string(ActionDelete),
		Message:    fmt.Sprintf("Transaction %d deleted", *cmd.TransactionID),
		Confidence: cmd.Confidence,
	}
}

func failure(action, code, details string) Result {
	return Result{
		Success:      false,
		Action:       action,
		ErrorCode:    code,
		ErrorDetails: details,
	}
}

// failureFromError maps a service error onto the uniform result shape,
// leaking no internal detail for unexpected errors.
func failureFromError(action string, err error) Result {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Code != apperrors.ErrInternalServer.Code {
		return failure(action, appErr.Code, appErr.Message)
	}
	logger.Get().Errorw("intent dispatch failed", "action", action, "error", err)
	return failure(action, apperrors.ErrInternalServer.Code, "an unexpected error occurred")
}

func dateOnly(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
