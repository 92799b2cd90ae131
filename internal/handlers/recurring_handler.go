package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "github.com/abhinavaxid/finance-tracker/internal/errors"
	"github.com/abhinavaxid/finance-tracker/internal/models"
	"github.com/abhinavaxid/finance-tracker/internal/pagination"
	"github.com/abhinavaxid/finance-tracker/internal/services"
)

// RecurringHandler handles recurring transaction template requests.
type RecurringHandler struct {
	recurringService services.RecurringServicer
	auditService     services.AuditServicer
}

// NewRecurringHandler creates a new RecurringHandler.
func NewRecurringHandler(recurringService services.RecurringServicer, auditService services.AuditServicer) *RecurringHandler {
	return &RecurringHandler{recurringService: recurringService, auditService: auditService}
}

// CreateRecurringRequest represents the request payload for creating a recurring series.
type CreateRecurringRequest struct {
	CategoryID    uint                   `json:"category_id" binding:"required"`
	Type          models.TransactionType `json:"type" binding:"required,transaction_type"`
	Amount        decimal.Decimal        `json:"amount" binding:"required"`
	Description   string                 `json:"description" binding:"max=500"`
	Frequency     models.Frequency       `json:"frequency" binding:"required,frequency"`
	StartDate     time.Time              `json:"start_date" binding:"required"`
	EndDate       *time.Time             `json:"end_date"`
	DayOfMonth    *int                   `json:"day_of_month" binding:"omitempty,min=1,max=31"`
	PaymentMethod string                 `json:"payment_method" binding:"max=50"`
}

// UpdateRecurringRequest represents the request payload for updating a recurring series.
type UpdateRecurringRequest struct {
	Amount        *decimal.Decimal  `json:"amount"`
	Frequency     *models.Frequency `json:"frequency" binding:"omitempty,frequency"`
	StartDate     *time.Time        `json:"start_date"`
	EndDate       *time.Time        `json:"end_date"`
	DayOfMonth    *int              `json:"day_of_month" binding:"omitempty,min=1,max=31"`
	Description   *string           `json:"description" binding:"omitempty,max=500"`
	PaymentMethod *string           `json:"payment_method" binding:"omitempty,max=50"`
}

// CreateRecurring handles the creation of a recurring series.
// @Summary     Create a recurring series
// @Description Register a repeating transaction template; the first occurrence is the start date
// @Tags        recurring
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateRecurringRequest true "Series details"
// @Success     201 {object} models.RecurringTransaction "Series created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /recurring [post]
func (h *RecurringHandler) CreateRecurring(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateRecurringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	series, err := h.recurringService.CreateRecurring(
		userID, req.CategoryID, req.Type, req.Amount, req.Description,
		req.Frequency, req.StartDate, req.EndDate, req.DayOfMonth, req.PaymentMethod,
	)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_RECURRING", "recurring_transaction", series.ID, c.ClientIP(),
		map[string]interface{}{"amount": req.Amount, "frequency": req.Frequency})

	c.JSON(http.StatusCreated, gin.H{"recurring_transaction": series})
}

// GetRecurring handles listing the user's recurring series.
// @Summary     Get recurring series
// @Description Get a paginated list of the user's recurring transaction templates
// @Tags        recurring
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.RecurringTransaction] "Paginated series"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /recurring [get]
func (h *RecurringHandler) GetRecurring(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.recurringService.GetUserRecurring(userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetDueRecurring handles listing the user's currently due series.
// @Summary     Get due recurring series
// @Description Get the user's recurring series whose next occurrence has arrived
// @Tags        recurring
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string]interface{} "Due series"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /recurring/due [get]
func (h *RecurringHandler) GetDueRecurring(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	due, err := h.recurringService.ListDue(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"due": due})
}

// GetRecurringByID handles retrieving a single recurring series.
// @Summary     Get a recurring series
// @Description Get one of the user's recurring templates by ID
// @Tags        recurring
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Series ID"
// @Success     200 {object} models.RecurringTransaction "Series"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Series not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /recurring/{id} [get]
func (h *RecurringHandler) GetRecurringByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	recurringID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	series, err := h.recurringService.GetRecurringByID(userID, recurringID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"recurring_transaction": series})
}

// UpdateRecurring handles updating a recurring series.
// @Summary     Update a recurring series
// @Description Update a series; schedule changes reset the next occurrence to the start date
// @Tags        recurring
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path int                    true "Series ID"
// @Param       request body UpdateRecurringRequest true "Fields to update"
// @Success     200 {object} models.RecurringTransaction "Updated series"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Series not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /recurring/{id} [put]
func (h *RecurringHandler) UpdateRecurring(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	recurringID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateRecurringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	series, err := h.recurringService.UpdateRecurring(
		userID, recurringID, req.Amount, req.Frequency, req.StartDate, req.EndDate,
		req.DayOfMonth, req.Description, req.PaymentMethod,
	)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_RECURRING", "recurring_transaction", recurringID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"recurring_transaction": series})
}

// DeactivateRecurring handles pausing a recurring series.
// @Summary     Deactivate a recurring series
// @Description Pause a series so sweeps skip it, preserving its history
// @Tags        recurring
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Series ID"
// @Success     204 "Series deactivated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Series not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /recurring/{id}/deactivate [post]
func (h *RecurringHandler) DeactivateRecurring(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	recurringID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.recurringService.DeactivateRecurring(userID, recurringID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DEACTIVATE_RECURRING", "recurring_transaction", recurringID, c.ClientIP(), nil)

	c.Status(http.StatusNoContent)
}

// DeleteRecurring handles deleting a recurring series.
// @Summary     Delete a recurring series
// @Description Delete a series; transactions already materialized from it remain
// @Tags        recurring
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Series ID"
// @Success     204 "Series deleted"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Series not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /recurring/{id} [delete]
func (h *RecurringHandler) DeleteRecurring(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	recurringID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.recurringService.DeleteRecurring(userID, recurringID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_RECURRING", "recurring_transaction", recurringID, c.ClientIP(), nil)

	c.Status(http.StatusNoContent)
}
