package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/abhinavaxid/finance-tracker/internal/errors"
	"github.com/abhinavaxid/finance-tracker/internal/services"
)

// IntentHandler handles structured intent commands, typically produced
// by an upstream natural-language parser.
type IntentHandler struct {
	intentService services.IntentServicer
	auditService  services.AuditServicer
}

// NewIntentHandler creates a new IntentHandler.
func NewIntentHandler(intentService services.IntentServicer, auditService services.AuditServicer) *IntentHandler {
	return &IntentHandler{intentService: intentService, auditService: auditService}
}

// DispatchIntent handles a structured transaction command.
// @Summary     Dispatch an intent command
// @Description Interpret a structured action command into a transaction operation. The response always uses the uniform result shape; failures are reported in its error fields with HTTP 200.
// @Tags        intents
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body services.Command true "Intent command"
// @Success     200 {object} services.Result "Dispatch result"
// @Failure     400 {object} ErrorResponse "Malformed request body"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /intent/transactions [post]
func (h *IntentHandler) DispatchIntent(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var cmd services.Command
	if err := c.ShouldBindJSON(&cmd); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result := h.intentService.Dispatch(userID, cmd)

	if result.Success {
		var resourceID uint
		if result.Transaction != nil {
			resourceID = result.Transaction.ID
		}
		h.auditService.Log(userID, "INTENT_"+result.Action, "transaction", resourceID, c.ClientIP(),
			map[string]interface{}{"action": result.Action})
	}

	c.JSON(http.StatusOK, result)
}
