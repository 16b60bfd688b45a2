package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/careloop/intake-api/internal/email"
	"github.com/careloop/intake-api/internal/model"
	"github.com/careloop/intake-api/internal/repository"
	"github.com/careloop/intake-api/internal/service/notification"
	"github.com/careloop/intake-api/pkg/logger"
	"github.com/careloop/intake-api/pkg/messaging"
)

// EmailNotifier consumes intake lifecycle events and emails the party on
// the other side of the connection: the doctor when a session becomes
// ready or is reset, the patient when the doctor reviews it.
type EmailNotifier struct {
	broker      messaging.Broker
	connections repository.ConnectionRepository
	users       repository.UserRepository
	email       email.Service
	logger      *logger.Logger
}

func NewEmailNotifier(
	broker messaging.Broker,
	connections repository.ConnectionRepository,
	users repository.UserRepository,
	emailSvc email.Service,
	l *logger.Logger,
) *EmailNotifier {
	return &EmailNotifier{
		broker:      broker,
		connections: connections,
		users:       users,
		email:       emailSvc,
		logger:      l,
	}
}

// Run blocks consuming events until the context is cancelled or the
// broker channel closes. Individual event failures are logged and
// skipped; delivery here is best-effort by contract.
func (w *EmailNotifier) Run(ctx context.Context) error {
	msgs, err := w.broker.Subscribe(ctx, notification.Channel)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", notification.Channel, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case payload, ok := <-msgs:
			if !ok {
				return nil
			}
			if err := w.handle(ctx, payload); err != nil {
				w.logger.Error(err, "failed to process intake event")
			}
		}
	}
}

func (w *EmailNotifier) handle(ctx context.Context, payload []byte) error {
	var event notification.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("malformed event payload: %w", err)
	}

	connection, err := w.connections.Get(ctx, event.ConnectionID)
	if err != nil {
		return fmt.Errorf("failed to load connection %s: %w", event.ConnectionID, err)
	}

	recipientID := connection.DoctorUserID
	if event.Type == notification.EventSessionReviewed {
		recipientID = connection.PatientUserID
	}

	recipient, err := w.users.Get(ctx, recipientID)
	if err != nil {
		return fmt.Errorf("failed to load recipient %s: %w", recipientID, err)
	}

	subject, body := composeEmail(event, recipient)
	if subject == "" {
		w.logger.Debug("skipping unknown event type", "type", event.Type)
		return nil
	}

	if err := w.email.Send(recipient.Email, subject, body); err != nil {
		return fmt.Errorf("failed to email %s: %w", recipient.Email, err)
	}

	w.logger.Info("intake event delivered",
		"type", event.Type,
		"session_id", event.SessionID.String(),
	)
	return nil
}

func composeEmail(event notification.Event, recipient *model.User) (subject, body string) {
	switch event.Type {
	case notification.EventSessionReady:
		return "Intake ready for review",
			fmt.Sprintf("Hi %s,\n\nAn intake session is ready for your review.\n", recipient.Name)
	case notification.EventSessionReset:
		return "Intake session restarted",
			fmt.Sprintf("Hi %s,\n\nYour patient restarted their intake session.\n", recipient.Name)
	case notification.EventSessionReviewed:
		return "Your intake has been reviewed",
			fmt.Sprintf("Hi %s,\n\nYour doctor has reviewed your intake session.\n", recipient.Name)
	default:
		return "", ""
	}
}
