package session

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/careloop/intake-api/internal/model"
	"github.com/careloop/intake-api/internal/service/audit"
	"github.com/careloop/intake-api/internal/service/notification"
	"github.com/careloop/intake-api/pkg/errors"
)

// ResetSession wipes an intake session back to not_started: every message
// deleted, medical data and handover cleared, completeness zeroed, router
// back at the initial agent. Validation order is fixed: existence, then
// ownership, then status, then appointment linkage. The wipe itself is one
// transaction. Success is audited with the pre-reset snapshot; every
// failure past the fetch is audited too, with the original error always
// re-raised unchanged.
func (s *Service) ResetSession(ctx context.Context, sessionID, requestingUserID uuid.UUID) (*model.IntakeSession, error) {
	start := time.Now()

	// A missing session fails before the audited portion of the workflow.
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFound("intake session", err)
		}
		return nil, errors.Internal(err)
	}

	connection, err := s.connections.Get(ctx, session.ConnectionID)
	if err != nil {
		return nil, s.resetFailed(ctx, requestingUserID, sessionID, errors.Internal(err))
	}

	if requestingUserID != connection.PatientUserID {
		return nil, s.resetFailed(ctx, requestingUserID, sessionID,
			errors.Forbidden("only the session's patient can reset it", nil))
	}

	// Guard (a) strictly precedes guard (b): the appointments table is
	// not even consulted when the status guard fails.
	if err := ValidateResetStatus(session.Status); err != nil {
		return nil, s.resetFailed(ctx, requestingUserID, sessionID, err)
	}

	linked, err := s.appointments.ExistsForSession(ctx, sessionID)
	if err != nil {
		return nil, s.resetFailed(ctx, requestingUserID, sessionID, errors.Internal(err))
	}
	if err := ValidateResetLink(linked); err != nil {
		return nil, s.resetFailed(ctx, requestingUserID, sessionID, err)
	}

	// Snapshot before any mutation; the audit entry records what was lost.
	previousStatus := session.Status
	previousCompleteness := session.Completeness

	reset, err := s.sessions.Reset(ctx, sessionID, InitialAgent)
	if err != nil {
		return nil, s.resetFailed(ctx, requestingUserID, sessionID, errors.Internal(err))
	}

	if logErr := s.auditor.Log(ctx, requestingUserID, model.AuditActionIntakeReset,
		model.AuditResourceIntakeSession, sessionID, &audit.LogOptions{
			Metadata: model.JSONMap{
				"connection_id":         session.ConnectionID,
				"previous_status":       previousStatus,
				"previous_completeness": previousCompleteness,
			},
		}); logErr != nil {
		log.Error().Err(logErr).
			Str("session_id", sessionID.String()).
			Msg("failed to write reset audit entry")
	}

	if s.metrics != nil {
		s.metrics.SessionResets.Inc()
		s.metrics.ResetLatency.Observe(time.Since(start).Seconds())
	}

	s.connCache.Delete(session.ConnectionID.String())
	s.notifier.SessionEvent(ctx, notification.EventSessionReset, reset)

	// The requesting patient never gets clinical content back from a reset.
	return reset.Redacted(), nil
}

// resetFailed audits the failure and hands the original error back
// untouched. An audit-write failure is logged locally and never replaces
// or suppresses the error being reported.
func (s *Service) resetFailed(ctx context.Context, userID, sessionID uuid.UUID, original error) error {
	appErr := errors.AsAppError(original)

	if logErr := s.auditor.Log(ctx, userID, model.AuditActionIntakeReset,
		model.AuditResourceIntakeSession, sessionID, &audit.LogOptions{
			Metadata: model.JSONMap{
				"failed": true,
				"error":  appErr.Message,
			},
		}); logErr != nil {
		log.Error().Err(logErr).
			Str("session_id", sessionID.String()).
			Msg("failed to write reset failure audit entry")
	}

	if s.metrics != nil {
		s.metrics.ResetFailures.WithLabelValues(appErr.Kind()).Inc()
	}
	return original
}
