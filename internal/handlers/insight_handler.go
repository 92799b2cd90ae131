package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/abhinavaxid/finance-tracker/internal/errors"
	"github.com/abhinavaxid/finance-tracker/internal/pagination"
	"github.com/abhinavaxid/finance-tracker/internal/services"
)

// InsightHandler handles spending insight requests.
type InsightHandler struct {
	insightService services.InsightServicer
}

// NewInsightHandler creates a new InsightHandler.
func NewInsightHandler(insightService services.InsightServicer) *InsightHandler {
	return &InsightHandler{insightService: insightService}
}

// GetInsights handles listing the user's active insights.
// @Summary     Get insights
// @Description Get a paginated list of the user's non-dismissed insights
// @Tags        insights
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Insight] "Paginated insights"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /insights [get]
func (h *InsightHandler) GetInsights(c *gin.Context) {
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

	result, err := h.insightService.GetActiveInsights(userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GenerateInsights handles running the insight rules on demand.
// @Summary     Generate insights
// @Description Run the insight rules for the authenticated user; rules already run today are skipped
// @Tags        insights
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string]interface{} "Number of insights created"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /insights/generate [post]
func (h *InsightHandler) GenerateInsights(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	created, err := h.insightService.GenerateInsights(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"created": created})
}

// DismissInsight handles dismissing an insight.
// @Summary     Dismiss an insight
// @Description Hide an insight from the user's active list
// @Tags        insights
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Insight ID"
// @Success     204 "Insight dismissed"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Insight not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /insights/{id}/dismiss [post]
func (h *InsightHandler) DismissInsight(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	insightID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.insightService.Dismiss(userID, insightID); err != nil {
		respondWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
