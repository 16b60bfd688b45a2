package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careloop/intake-api/internal/model"
	"github.com/careloop/intake-api/pkg/errors"
)

func TestGetSession_AccessControl(t *testing.T) {
	env := newTestEnv()
	sess := env.addSession(model.SessionStatusInProgress, 20)
	stranger := &model.User{ID: uuid.New(), Role: model.UserRolePatient}
	otherDoctor := &model.User{ID: uuid.New(), Role: model.UserRoleDoctor}

	tests := []struct {
		name      string
		requester *model.User
		granted   bool
		wantRole  string
	}{
		{name: "connection patient", requester: env.patient, granted: true, wantRole: "patient"},
		{name: "connection doctor", requester: env.doctor, granted: true, wantRole: "doctor"},
		{name: "admin maps to doctor view", requester: env.admin, granted: true, wantRole: "doctor"},
		{name: "unrelated patient", requester: stranger, granted: false},
		{name: "unrelated doctor", requester: otherDoctor, granted: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view, err := env.svc.GetSession(context.Background(), sess.ID, tt.requester)
			if !tt.granted {
				assert.True(t, errors.IsCode(err, errors.ErrForbidden))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantRole, view.UserRole)
			assert.Equal(t, sess.ID, view.Session.ID)
			assert.Equal(t, env.conn.ID, view.Connection.ID)
		})
	}
}

func TestGetSession_MessagesVerbatimInOrder(t *testing.T) {
	env := newTestEnv()
	sess := env.addSession(model.SessionStatusInProgress, 50)

	var want []string
	for i := 0; i < 12; i++ {
		role := model.MessageRoleUser
		if i%2 == 1 {
			role = model.MessageRoleModel
		}
		content := fmt.Sprintf("turn %02d with some clinical detail", i)
		want = append(want, content)
		require.NoError(t, env.messages.Create(context.Background(), &model.Message{
			SessionID: sess.ID,
			Role:      role,
			Content:   content,
		}))
	}

	view, err := env.svc.GetSession(context.Background(), sess.ID, env.doctor)
	require.NoError(t, err)

	require.Len(t, view.Messages, len(want))
	for i, msg := range view.Messages {
		assert.Equal(t, want[i], msg.Content)
	}
}

func TestGetSession_ReviewedIsReadOnly(t *testing.T) {
	env := newTestEnv()

	active := env.addSession(model.SessionStatusInProgress, 20)
	view, err := env.svc.GetSession(context.Background(), active.ID, env.doctor)
	require.NoError(t, err)
	assert.False(t, view.ReadOnly)

	reviewed := env.addSession(model.SessionStatusReviewed, 100)
	view, err = env.svc.GetSession(context.Background(), reviewed.ID, env.doctor)
	require.NoError(t, err)
	assert.True(t, view.ReadOnly)
}

func TestGetSession_NotFound(t *testing.T) {
	env := newTestEnv()
	_, err := env.svc.GetSession(context.Background(), uuid.New(), env.admin)
	assert.True(t, errors.IsCode(err, errors.ErrNotFound))
}

func TestMarkReviewed(t *testing.T) {
	env := newTestEnv()
	sess := env.addSession(model.SessionStatusReady, 100)

	reviewed, err := env.svc.MarkReviewed(context.Background(), env.conn.ID, env.doctor)
	require.NoError(t, err)

	assert.Equal(t, model.SessionStatusReviewed, reviewed.Status)
	require.NotNil(t, reviewed.ReviewedAt)
	require.NotNil(t, reviewed.ReviewedBy)
	assert.Equal(t, env.doctor.ID, *reviewed.ReviewedBy)
	assert.Equal(t, sess.ID, reviewed.ID)

	require.Len(t, env.auditRepo.entries, 1)
	assert.Equal(t, model.AuditActionIntakeReview, env.auditRepo.entries[0].Action)
}

func TestMarkReviewed_DoctorOnly(t *testing.T) {
	env := newTestEnv()
	env.addSession(model.SessionStatusReady, 100)

	for _, requester := range []*model.User{env.patient, env.admin} {
		_, err := env.svc.MarkReviewed(context.Background(), env.conn.ID, requester)
		assert.True(t, errors.IsCode(err, errors.ErrForbidden))
	}
}

func TestMarkReviewed_OnlyFromReady(t *testing.T) {
	for _, status := range []model.SessionStatus{
		model.SessionStatusNotStarted,
		model.SessionStatusInProgress,
		model.SessionStatusReviewed,
	} {
		env := newTestEnv()
		env.addSession(status, 50)

		_, err := env.svc.MarkReviewed(context.Background(), env.conn.ID, env.doctor)
		assert.True(t, errors.IsCode(err, errors.ErrBadRequest), "status %s", status)
	}
}

func TestAppendMessage_FirstTurnStartsSession(t *testing.T) {
	env := newTestEnv()
	sess := env.addSession(model.SessionStatusNotStarted, 0)

	_, err := env.svc.AppendMessage(context.Background(), sess.ID, env.patient, &model.Message{
		Role:    model.MessageRoleUser,
		Content: "I have had a headache since Monday",
	})
	require.NoError(t, err)

	stored, err := env.sessions.Get(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusInProgress, stored.Status)
}

func TestAppendMessage_ModelMessagesCarryActiveAgent(t *testing.T) {
	env := newTestEnv()
	sess := env.addSession(model.SessionStatusInProgress, 10)

	_, err := env.svc.AppendMessage(context.Background(), sess.ID, env.patient, &model.Message{
		Role:    model.MessageRoleModel,
		Content: "What brings you in today?",
	})
	require.NoError(t, err)

	msgs, _ := env.messages.ListBySession(context.Background(), sess.ID)
	require.Len(t, msgs, 1)
	require.NotNil(t, msgs[0].ActiveAgent)
	assert.Equal(t, InitialAgent, *msgs[0].ActiveAgent)
	assert.Equal(t, model.ContextLayerPatientIntake, msgs[0].ContextLayer)
}

func TestAppendMessage_LimitFlags(t *testing.T) {
	env := newTestEnv()
	sess := env.addSession(model.SessionStatusInProgress, 10)

	var flags *ConversationFlags
	var err error
	for i := 0; i < 20; i++ {
		flags, err = env.svc.AppendMessage(context.Background(), sess.ID, env.patient, &model.Message{
			Role:    model.MessageRoleModel,
			Content: "question",
		})
		require.NoError(t, err)

		switch {
		case flags.AIMessageCount < 15:
			assert.False(t, flags.OfferConclusion)
			assert.False(t, flags.ForceHandover)
		case flags.AIMessageCount < 20:
			assert.True(t, flags.OfferConclusion)
			assert.False(t, flags.ForceHandover)
		default:
			assert.False(t, flags.OfferConclusion)
			assert.True(t, flags.ForceHandover)
		}
	}
	assert.Equal(t, 20, flags.AIMessageCount)
	assert.True(t, flags.ForceHandover)
}

func TestAppendMessage_ReviewedSessionRejected(t *testing.T) {
	env := newTestEnv()
	sess := env.addSession(model.SessionStatusReviewed, 100)

	_, err := env.svc.AppendMessage(context.Background(), sess.ID, env.doctor, &model.Message{
		Role:    model.MessageRoleDoctor,
		Content: "late note",
	})
	assert.True(t, errors.IsCode(err, errors.ErrBadRequest))
}

func TestUpdateMedicalData_RoutesAgentAndMarksReady(t *testing.T) {
	env := newTestEnv()
	sess := env.addSession(model.SessionStatusInProgress, 30)

	complaint := "persistent chest pain"
	state := model.NewMedicalDataState()
	state.ChiefComplaint = &complaint

	updated, err := env.svc.UpdateMedicalData(context.Background(), sess.ID, state, 35)
	require.NoError(t, err)
	assert.Equal(t, model.AgentClinicalInvestigator, updated.CurrentAgent)
	assert.Equal(t, model.SessionStatusInProgress, updated.Status)

	// A handover flips the session to ready.
	state.ClinicalHandover = &model.SBAR{
		Situation:      "chest pain, 3 days",
		Assessment:     "likely musculoskeletal",
		Recommendation: "doctor review",
	}
	updated, err = env.svc.UpdateMedicalData(context.Background(), sess.ID, state, 90)
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusReady, updated.Status)
	require.NotNil(t, updated.ClinicalHandover)
}

func TestUpdateMedicalData_Validation(t *testing.T) {
	env := newTestEnv()
	sess := env.addSession(model.SessionStatusInProgress, 30)

	_, err := env.svc.UpdateMedicalData(context.Background(), sess.ID, model.NewMedicalDataState(), 101)
	assert.True(t, errors.IsCode(err, errors.ErrBadRequest))

	reviewed := env.addSession(model.SessionStatusReviewed, 100)
	_, err = env.svc.UpdateMedicalData(context.Background(), reviewed.ID, model.NewMedicalDataState(), 50)
	assert.True(t, errors.IsCode(err, errors.ErrBadRequest))
}

func TestUpdateDoctorThought(t *testing.T) {
	env := newTestEnv()
	sess := env.addSession(model.SessionStatusReady, 100)

	err := env.svc.UpdateDoctorThought(context.Background(), sess.ID, env.doctor, "r/o ACS, order troponin")
	require.NoError(t, err)

	err = env.svc.UpdateDoctorThought(context.Background(), sess.ID, env.patient, "not my field")
	assert.True(t, errors.IsCode(err, errors.ErrForbidden))

	reviewed := env.addSession(model.SessionStatusReviewed, 100)
	err = env.svc.UpdateDoctorThought(context.Background(), reviewed.ID, env.doctor, "too late")
	assert.True(t, errors.IsCode(err, errors.ErrBadRequest))
}
