// Package agent holds the pure decision logic of the intake conversation:
// which stage handles the next turn, and when the conversation must wind
// down. Nothing here touches storage or carries state between calls.
package agent

import (
	"strings"

	"github.com/careloop/intake-api/internal/model"
)

// MinHPILength is the trimmed HPI length below which the clinical
// investigator keeps asking.
const MinHPILength = 50

// DetermineAgent maps a medical data snapshot to the conversational stage
// that should handle the next turn. First match in the priority chain
// wins; identical input always yields the identical role.
func DetermineAgent(state *model.MedicalDataState) model.AgentRole {
	if state == nil {
		return model.AgentTriage
	}

	if emptyPtr(state.ChiefComplaint) {
		return model.AgentTriage
	}

	if emptyPtr(state.HPI) || len(strings.TrimSpace(*state.HPI)) < MinHPILength {
		return model.AgentClinicalInvestigator
	}

	if !state.RecordsCheckCompleted {
		return model.AgentRecordsClerk
	}

	if len(state.Medications) == 0 && len(state.Allergies) == 0 && len(state.PastMedicalHistory) == 0 {
		return model.AgentHistorySpecialist
	}

	return model.AgentHandoverSpecialist
}

func emptyPtr(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}
