package worker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careloop/intake-api/internal/model"
	"github.com/careloop/intake-api/internal/service/notification"
	"github.com/careloop/intake-api/pkg/logger"
)

type fakeBroker struct {
	msgs chan []byte
}

func (b *fakeBroker) Publish(ctx context.Context, channel string, message interface{}) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return err
	}
	b.msgs <- payload
	return nil
}

func (b *fakeBroker) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	return b.msgs, nil
}

func (b *fakeBroker) Close() error { return nil }

type fakeConnectionRepo struct {
	connections map[uuid.UUID]*model.Connection
}

func (r *fakeConnectionRepo) Get(ctx context.Context, id uuid.UUID) (*model.Connection, error) {
	c, ok := r.connections[id]
	if !ok {
		return nil, assert.AnError
	}
	return c, nil
}

type fakeUserRepo struct {
	users map[uuid.UUID]*model.User
}

func (r *fakeUserRepo) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, assert.AnError
	}
	return u, nil
}

type sentEmail struct {
	to      string
	subject string
}

type fakeEmailService struct {
	sent chan sentEmail
}

func (s *fakeEmailService) Send(to, subject, body string) error {
	s.sent <- sentEmail{to: to, subject: subject}
	return nil
}

func TestEmailNotifier_RoutesEventsToCounterpart(t *testing.T) {
	patient := &model.User{ID: uuid.New(), Email: "patient@example.com", Name: "Pat", Role: model.UserRolePatient}
	doctor := &model.User{ID: uuid.New(), Email: "doctor@example.com", Name: "Dana", Role: model.UserRoleDoctor}
	connection := &model.Connection{ID: uuid.New(), PatientUserID: patient.ID, DoctorUserID: doctor.ID}

	tests := []struct {
		name      string
		eventType string
		wantTo    string
	}{
		{"ready goes to the doctor", notification.EventSessionReady, doctor.Email},
		{"reset goes to the doctor", notification.EventSessionReset, doctor.Email},
		{"reviewed goes to the patient", notification.EventSessionReviewed, patient.Email},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			broker := &fakeBroker{msgs: make(chan []byte, 1)}
			emails := &fakeEmailService{sent: make(chan sentEmail, 1)}
			notifier := NewEmailNotifier(
				broker,
				&fakeConnectionRepo{connections: map[uuid.UUID]*model.Connection{connection.ID: connection}},
				&fakeUserRepo{users: map[uuid.UUID]*model.User{patient.ID: patient, doctor.ID: doctor}},
				emails,
				logger.NewLogger(nil),
			)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			done := make(chan error, 1)
			go func() { done <- notifier.Run(ctx) }()

			err := broker.Publish(ctx, notification.Channel, notification.Event{
				Type:         tt.eventType,
				SessionID:    uuid.New(),
				ConnectionID: connection.ID,
				OccurredAt:   time.Now(),
			})
			require.NoError(t, err)

			select {
			case mail := <-emails.sent:
				assert.Equal(t, tt.wantTo, mail.to)
				assert.NotEmpty(t, mail.subject)
			case <-time.After(time.Second):
				t.Fatal("no email sent")
			}

			cancel()
			assert.ErrorIs(t, <-done, context.Canceled)
		})
	}
}

func TestEmailNotifier_UnknownEventIsSkipped(t *testing.T) {
	patient := &model.User{ID: uuid.New(), Email: "patient@example.com"}
	doctor := &model.User{ID: uuid.New(), Email: "doctor@example.com"}
	connection := &model.Connection{ID: uuid.New(), PatientUserID: patient.ID, DoctorUserID: doctor.ID}

	emails := &fakeEmailService{sent: make(chan sentEmail, 1)}
	notifier := NewEmailNotifier(
		&fakeBroker{msgs: make(chan []byte, 1)},
		&fakeConnectionRepo{connections: map[uuid.UUID]*model.Connection{connection.ID: connection}},
		&fakeUserRepo{users: map[uuid.UUID]*model.User{patient.ID: patient, doctor.ID: doctor}},
		emails,
		logger.NewLogger(nil),
	)

	payload, err := json.Marshal(notification.Event{Type: "intake.unknown", ConnectionID: connection.ID})
	require.NoError(t, err)

	require.NoError(t, notifier.handle(context.Background(), payload))
	assert.Empty(t, emails.sent)
}

func TestEmailNotifier_MalformedPayload(t *testing.T) {
	notifier := NewEmailNotifier(
		&fakeBroker{msgs: make(chan []byte, 1)},
		&fakeConnectionRepo{},
		&fakeUserRepo{},
		&fakeEmailService{sent: make(chan sentEmail, 1)},
		logger.NewLogger(nil),
	)

	err := notifier.handle(context.Background(), []byte("not json"))
	assert.Error(t, err)
}
