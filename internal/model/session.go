package model

import (
	"time"

	"github.com/google/uuid"
)

type SessionStatus string

const (
	SessionStatusNotStarted SessionStatus = "not_started"
	SessionStatusInProgress SessionStatus = "in_progress"
	SessionStatusReady      SessionStatus = "ready"
	SessionStatusReviewed   SessionStatus = "reviewed"
)

// IntakeSession is the per-connection intake conversation record. Exactly
// one session per connection is "current" for routing purposes: the most
// recently updated one. A reviewed session is terminal; nothing mutates it
// afterwards except a fresh session created by a subsequent reset.
type IntakeSession struct {
	ID               uuid.UUID         `json:"id" db:"id"`
	ConnectionID     uuid.UUID         `json:"connection_id" db:"connection_id"`
	Status           SessionStatus     `json:"status" db:"status"`
	MedicalData      *MedicalDataState `json:"medical_data" db:"medical_data"`
	ClinicalHandover *SBAR             `json:"clinical_handover" db:"clinical_handover"`
	DoctorThought    *string           `json:"doctor_thought" db:"doctor_thought"`
	Completeness     int               `json:"completeness" db:"completeness"`
	CurrentAgent     AgentRole         `json:"current_agent" db:"current_agent"`
	ReviewedAt       *time.Time        `json:"reviewed_at,omitempty" db:"reviewed_at"`
	ReviewedBy       *uuid.UUID        `json:"reviewed_by,omitempty" db:"reviewed_by"`
	CreatedAt        time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at" db:"updated_at"`
}

// Redacted returns a copy safe to hand back to the requesting patient
// after a reset: clinical content is stripped.
func (s *IntakeSession) Redacted() *IntakeSession {
	out := *s
	out.MedicalData = nil
	out.ClinicalHandover = nil
	out.DoctorThought = nil
	return &out
}
