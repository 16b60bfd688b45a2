package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type MessageRole string

const (
	MessageRoleUser   MessageRole = "user"
	MessageRoleModel  MessageRole = "model"
	MessageRoleDoctor MessageRole = "doctor"
)

// ContextLayer separates the patient-facing intake conversation from the
// doctor's enhancement thread on top of it.
type ContextLayer string

const (
	ContextLayerPatientIntake     ContextLayer = "patient-intake"
	ContextLayerDoctorEnhancement ContextLayer = "doctor-enhancement"
)

// Message is one turn of an intake conversation. Append-only:
// patient-intake messages are never edited once written. ActiveAgent is
// set only on model-role messages.
type Message struct {
	ID           uuid.UUID      `json:"id" db:"id"`
	SessionID    uuid.UUID      `json:"session_id" db:"session_id"`
	Role         MessageRole    `json:"role" db:"role"`
	Content      string         `json:"content" db:"content"`
	Images       pq.StringArray `json:"images,omitempty" db:"images"`
	ActiveAgent  *AgentRole     `json:"active_agent,omitempty" db:"active_agent"`
	ContextLayer ContextLayer   `json:"context_layer" db:"context_layer"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
}
