package services

import (
	"encoding/json"

	"gorm.io/gorm"

	"github.com/abhinavaxid/finance-tracker/internal/logger"
	"github.com/abhinavaxid/finance-tracker/internal/models"
)

// auditService records user actions for the audit trail.
type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

// Log records an audit entry. Auditing is best-effort: failures are
// logged and never bubble up into the action being audited.
func (s *auditService) Log(userID uint, action, resourceType string, resourceID uint, ipAddress string, changes map[string]interface{}) {
	var payload string
	if len(changes) > 0 {
		raw, err := json.Marshal(changes)
		if err != nil {
			logger.Get().Warnw("failed to serialize audit changes", "error", err)
		} else {
			payload = string(raw)
		}
	}

	entry := &models.AuditLog{
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    ipAddress,
		Changes:      payload,
	}

	if err := s.db.Create(entry).Error; err != nil {
		logger.Get().Errorw("failed to write audit log",
			"user_id", userID,
			"action", action,
			"resource_type", resourceType,
			"error", err,
		)
	}
}
