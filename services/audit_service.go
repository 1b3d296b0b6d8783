package services

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"siasa-backend/models"
	"siasa-backend/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// sensitiveFields are masked in audit details before storage.
var sensitiveFields = []string{"password", "token", "access_token", "refreshToken", "otp"}

// actionEntities maps action tags to the entity they affect. Explicit table
// instead of inferring the entity from the tag string.
var actionEntities = map[string]string{
	"MPESA_STK_PUSH_INIT":  "Payment",
	"AUTH_REGISTER":        "User",
	"AUTH_LOGIN":           "User",
	"AUTH_LOGOUT":          "User",
	"AUTH_FORGOT_PASSWORD": "User",
	"AUTH_RESET_PASSWORD":  "User",
	"AUTH_OTP_SEND":        "User",
	"AUTH_OTP_VERIFY":      "User",
}

// RequestDetails is the JSON blob stored alongside each audit row.
type RequestDetails struct {
	Method     string            `json:"method"`
	URL        string            `json:"url"`
	Body       map[string]any    `json:"body,omitempty"`
	Params     map[string]string `json:"params,omitempty"`
	Query      map[string]string `json:"query,omitempty"`
	StatusCode int               `json:"statusCode"`
}

// AuditService writes the tamper-evident trail of mutating actions. Failures
// are logged and swallowed; audit is best-effort, never transactional with the
// business operation.
type AuditService struct {
	audits repository.AuditRepository
	log    *logrus.Logger
}

func NewAuditService(audits repository.AuditRepository, log *logrus.Logger) *AuditService {
	return &AuditService{audits: audits, log: log}
}

// Record persists one audit row. Intended to run off the request path.
func (s *AuditService) Record(userID *uint, action, ipAddress string, details RequestDetails) {
	entity := EntityForAction(action)
	description := strings.ReplaceAll(action, "_", " ") + " performed on " + entity

	blob, err := json.Marshal(details)
	if err != nil {
		s.log.WithField("action", action).Warn("audit details not serializable: " + err.Error())
		blob = []byte("{}")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	trail := &models.AuditTrail{
		UserID:      userID,
		Action:      action,
		Entity:      entity,
		Description: description,
		Details:     datatypes.JSON(blob),
		IPAddress:   ipAddress,
	}
	if err := s.audits.Create(ctx, trail); err != nil {
		s.log.WithFields(logrus.Fields{
			"action": action,
			"entity": entity,
		}).Error("failed to log audit trail: " + err.Error())
	}
}

// List returns the audit trail, newest first.
func (s *AuditService) List(ctx context.Context) ([]models.AuditTrail, error) {
	return s.audits.ListNewestFirst(ctx)
}

// EntityForAction resolves the affected entity for an action tag.
func EntityForAction(action string) string {
	if entity, ok := actionEntities[action]; ok {
		return entity
	}
	return "Unknown"
}

// SanitizeBody parses a JSON request body and masks secret-bearing fields.
// Non-JSON bodies yield nil.
func SanitizeBody(raw []byte) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil
	}
	for _, field := range sensitiveFields {
		if _, ok := body[field]; ok {
			body[field] = "********"
		}
	}
	return body
}
