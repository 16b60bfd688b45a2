package model

import (
	"time"

	"github.com/google/uuid"
)

type ConnectionStatus string

const (
	ConnectionStatusPending  ConnectionStatus = "pending"
	ConnectionStatusActive   ConnectionStatus = "active"
	ConnectionStatusArchived ConnectionStatus = "archived"
)

// Connection is the durable patient-doctor relationship that intake
// sessions belong to.
type Connection struct {
	ID            uuid.UUID        `json:"id" db:"id"`
	PatientUserID uuid.UUID        `json:"patient_user_id" db:"patient_user_id"`
	DoctorUserID  uuid.UUID        `json:"doctor_user_id" db:"doctor_user_id"`
	Status        ConnectionStatus `json:"status" db:"status"`
	CreatedAt     time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at" db:"updated_at"`
}
