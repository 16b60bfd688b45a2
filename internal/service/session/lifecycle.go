package session

import (
	"github.com/careloop/intake-api/internal/model"
	"github.com/careloop/intake-api/pkg/errors"
)

// InitialAgent is the router state a fresh or reset session starts from.
const InitialAgent = model.AgentTriage

// legalTransitions is the session state machine:
// not_started -> in_progress -> ready -> reviewed (terminal).
// The reset transition back to not_started is guarded separately because
// it also depends on appointment linkage.
var legalTransitions = map[model.SessionStatus][]model.SessionStatus{
	model.SessionStatusNotStarted: {model.SessionStatusInProgress},
	model.SessionStatusInProgress: {model.SessionStatusReady},
	model.SessionStatusReady:      {model.SessionStatusReviewed},
	model.SessionStatusReviewed:   {},
}

// CanTransition reports whether the forward transition from one status to
// another is legal.
func CanTransition(from, to model.SessionStatus) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidateTransition returns a validation error for illegal forward
// transitions.
func ValidateTransition(from, to model.SessionStatus) error {
	if !CanTransition(from, to) {
		return errors.BadRequest(
			"illegal session transition from "+string(from)+" to "+string(to), nil)
	}
	return nil
}

// Resettable reports whether a session in the given status may be reset.
func Resettable(status model.SessionStatus) bool {
	return status == model.SessionStatusNotStarted || status == model.SessionStatusInProgress
}

// ValidateResetStatus is guard (a) of the reset transition. It must be
// evaluated before the appointment guard; a ready session linked to an
// appointment surfaces this error, not the appointment one.
func ValidateResetStatus(status model.SessionStatus) error {
	if !Resettable(status) {
		return errors.BadRequest(
			"cannot reset an intake session that is completed or reviewed", nil)
	}
	return nil
}

// ValidateResetLink is guard (b): a session referenced by any appointment
// cannot be reset.
func ValidateResetLink(linked bool) error {
	if linked {
		return errors.BadRequest(
			"cannot reset an intake session linked to an appointment", nil)
	}
	return nil
}
