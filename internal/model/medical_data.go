package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// AgentRole names a stage of the intake conversation. Each stage is
// responsible for gathering one category of clinical information.
type AgentRole string

const (
	AgentTriage               AgentRole = "triage"
	AgentClinicalInvestigator AgentRole = "clinical_investigator"
	AgentRecordsClerk         AgentRole = "records_clerk"
	AgentHistorySpecialist    AgentRole = "history_specialist"
	AgentHandoverSpecialist   AgentRole = "handover_specialist"
)

type BookingStatus string

const (
	BookingStatusCollecting BookingStatus = "collecting"
	BookingStatusReady      BookingStatus = "ready"
	BookingStatusBooked     BookingStatus = "booked"
)

// SBAR is the structured clinical handover format
// (Situation/Background/Assessment/Recommendation).
type SBAR struct {
	Situation      string `json:"situation"`
	Background     string `json:"background"`
	Assessment     string `json:"assessment"`
	Recommendation string `json:"recommendation"`
}

// Value implements driver.Valuer so a handover persists as a jsonb column.
func (s SBAR) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Scan implements sql.Scanner.
func (s *SBAR) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	case nil:
		return nil
	default:
		return fmt.Errorf("unsupported type for SBAR: %T", src)
	}
}

// MedicalDataState summarizes the clinical information gathered so far in
// an intake session. Optional fields are nullable pointers so "not asked"
// is distinguishable from an empty answer. The conversation pipeline
// replaces the whole value on each agent turn; nothing mutates it in place.
type MedicalDataState struct {
	ChiefComplaint         *string       `json:"chief_complaint"`
	HPI                    *string       `json:"hpi"`
	MedicalRecords         []string      `json:"medical_records"`
	RecordsCheckCompleted  bool          `json:"records_check_completed"`
	Medications            []string      `json:"medications"`
	Allergies              []string      `json:"allergies"`
	PastMedicalHistory     []string      `json:"past_medical_history"`
	FamilyHistory          *string       `json:"family_history"`
	SocialHistory          *string       `json:"social_history"`
	ReviewOfSystems        []string      `json:"review_of_systems"`
	CurrentAgent           AgentRole     `json:"current_agent"`
	ClinicalHandover       *SBAR         `json:"clinical_handover"`
	UCGRecommendations     *string       `json:"ucg_recommendations"`
	BookingStatus          BookingStatus `json:"booking_status"`
}

// NewMedicalDataState returns the empty state a fresh session starts from.
func NewMedicalDataState() *MedicalDataState {
	return &MedicalDataState{
		MedicalRecords:     []string{},
		Medications:        []string{},
		Allergies:          []string{},
		PastMedicalHistory: []string{},
		ReviewOfSystems:    []string{},
		CurrentAgent:       AgentTriage,
		BookingStatus:      BookingStatusCollecting,
	}
}

// Value implements driver.Valuer so the state persists as a jsonb column.
func (m MedicalDataState) Value() (driver.Value, error) {
	return json.Marshal(m)
}

// Scan implements sql.Scanner.
func (m *MedicalDataState) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	case nil:
		return nil
	default:
		return fmt.Errorf("unsupported type for MedicalDataState: %T", src)
	}
}
