package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// Appointment is managed by the booking surface; the intake subsystem only
// cares whether one references a session, which blocks that session's reset.
type Appointment struct {
	ID              uuid.UUID         `json:"id" db:"id"`
	ConnectionID    uuid.UUID         `json:"connection_id" db:"connection_id"`
	IntakeSessionID *uuid.UUID        `json:"intake_session_id" db:"intake_session_id"`
	StartTime       time.Time         `json:"start_time" db:"start_time"`
	EndTime         time.Time         `json:"end_time" db:"end_time"`
	Status          AppointmentStatus `json:"status" db:"status"`
	CreatedAt       time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at" db:"updated_at"`
}
