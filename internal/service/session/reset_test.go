package session

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careloop/intake-api/internal/model"
	"github.com/careloop/intake-api/pkg/errors"
)

func TestResetSession_Success(t *testing.T) {
	env := newTestEnv()
	sess := env.addSession(model.SessionStatusInProgress, 60)
	for i := 0; i < 4; i++ {
		env.messages.Create(context.Background(), &model.Message{
			SessionID: sess.ID,
			Role:      model.MessageRoleUser,
			Content:   "turn",
		})
	}

	result, err := env.svc.ResetSession(context.Background(), sess.ID, env.patient.ID)
	require.NoError(t, err)

	assert.Equal(t, model.SessionStatusNotStarted, result.Status)
	assert.Equal(t, 0, result.Completeness)
	assert.Equal(t, InitialAgent, result.CurrentAgent)

	// The caller never receives clinical content back.
	assert.Nil(t, result.MedicalData)
	assert.Nil(t, result.ClinicalHandover)
	assert.Nil(t, result.DoctorThought)

	// Messages are gone.
	remaining, _ := env.messages.ListBySession(context.Background(), sess.ID)
	assert.Empty(t, remaining)

	// One success audit entry with the pre-reset snapshot.
	require.Len(t, env.auditRepo.entries, 1)
	entry := env.auditRepo.entries[0]
	assert.Equal(t, model.AuditActionIntakeReset, entry.Action)
	assert.Equal(t, model.AuditResourceIntakeSession, entry.ResourceType)
	assert.Equal(t, sess.ID, entry.ResourceID)
	assert.Equal(t, env.patient.ID, entry.UserID)

	var meta map[string]interface{}
	require.NoError(t, json.Unmarshal(entry.Metadata, &meta))
	assert.Equal(t, string(model.SessionStatusInProgress), meta["previous_status"])
	assert.Equal(t, float64(60), meta["previous_completeness"])
	assert.Equal(t, env.conn.ID.String(), meta["connection_id"])
}

func TestResetSession_NotFound(t *testing.T) {
	env := newTestEnv()

	_, err := env.svc.ResetSession(context.Background(), uuid.New(), env.patient.ID)
	assert.True(t, errors.IsCode(err, errors.ErrNotFound))

	// A missing session fails before the audited portion of the workflow.
	assert.Empty(t, env.auditRepo.entries)
}

func TestResetSession_Forbidden(t *testing.T) {
	env := newTestEnv()
	sess := env.addSession(model.SessionStatusInProgress, 30)

	for _, intruder := range []uuid.UUID{env.doctor.ID, uuid.New()} {
		_, err := env.svc.ResetSession(context.Background(), sess.ID, intruder)
		assert.True(t, errors.IsCode(err, errors.ErrForbidden))
	}

	// Both attempts landed in the failure audit trail.
	require.Len(t, env.auditRepo.entries, 2)
	var meta map[string]interface{}
	require.NoError(t, json.Unmarshal(env.auditRepo.entries[0].Metadata, &meta))
	assert.Equal(t, true, meta["failed"])
	assert.NotEmpty(t, meta["error"])
}

func TestResetSession_StatusGuard(t *testing.T) {
	for _, status := range []model.SessionStatus{model.SessionStatusReady, model.SessionStatusReviewed} {
		env := newTestEnv()
		sess := env.addSession(status, 100)
		// Linked appointment must not change which error surfaces.
		env.appointments.linked[sess.ID] = true

		_, err := env.svc.ResetSession(context.Background(), sess.ID, env.patient.ID)
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrBadRequest))
		assert.Contains(t, err.Error(), "completed or reviewed")

		// The status guard fires without consulting the appointments table.
		assert.Zero(t, env.appointments.calls)
		assert.Zero(t, env.sessions.resetCalls)
	}
}

func TestResetSession_AppointmentGuard(t *testing.T) {
	for _, status := range []model.SessionStatus{model.SessionStatusNotStarted, model.SessionStatusInProgress} {
		env := newTestEnv()
		sess := env.addSession(status, 10)
		env.appointments.linked[sess.ID] = true

		_, err := env.svc.ResetSession(context.Background(), sess.ID, env.patient.ID)
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrBadRequest))
		assert.Contains(t, err.Error(), "linked to an appointment")
		assert.Zero(t, env.sessions.resetCalls)
	}
}

func TestResetSession_PersistenceFailureIsAudited(t *testing.T) {
	env := newTestEnv()
	sess := env.addSession(model.SessionStatusInProgress, 40)
	env.sessions.resetErr = errBoom

	_, err := env.svc.ResetSession(context.Background(), sess.ID, env.patient.ID)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrInternal))

	require.Len(t, env.auditRepo.entries, 1)
	var meta map[string]interface{}
	require.NoError(t, json.Unmarshal(env.auditRepo.entries[0].Metadata, &meta))
	assert.Equal(t, true, meta["failed"])
}

func TestResetSession_AuditFailureNeverMasksOriginalError(t *testing.T) {
	env := newTestEnv()
	sess := env.addSession(model.SessionStatusReady, 100)
	env.auditRepo.createErr = errBoom

	_, err := env.svc.ResetSession(context.Background(), sess.ID, env.patient.ID)
	require.Error(t, err)
	// The original validation error survives the audit sink failing.
	assert.True(t, errors.IsCode(err, errors.ErrBadRequest))
	assert.Contains(t, err.Error(), "completed or reviewed")
}

func TestResetSession_AuditFailureDoesNotFailSuccessfulReset(t *testing.T) {
	env := newTestEnv()
	sess := env.addSession(model.SessionStatusInProgress, 25)
	env.auditRepo.createErr = errBoom

	result, err := env.svc.ResetSession(context.Background(), sess.ID, env.patient.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusNotStarted, result.Status)
}
