package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditLog is an append-only record of a sensitive action. Entries are
// never mutated or deleted.
type AuditLog struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	UserID       uuid.UUID       `json:"user_id" db:"user_id"`
	Action       string          `json:"action" db:"action"`
	ResourceType string          `json:"resource_type" db:"resource_type"`
	ResourceID   uuid.UUID       `json:"resource_id" db:"resource_id"`
	Metadata     json.RawMessage `json:"metadata" db:"metadata"`
	IPAddress    string          `json:"ip_address" db:"ip_address"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}

const (
	// Action types
	AuditActionIntakeReset   = "intake_reset"
	AuditActionIntakeReview  = "intake_review"
	AuditActionThoughtUpdate = "doctor_thought_update"

	// Resource types
	AuditResourceIntakeSession = "intake_session"
)
