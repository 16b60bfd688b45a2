package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/careloop/intake-api/internal/model"
	"github.com/careloop/intake-api/pkg/messaging"
)

// Channel carries every intake lifecycle event; the worker fans out.
const Channel = "intake.events"

const (
	EventSessionReady    = "intake.ready"
	EventSessionReviewed = "intake.reviewed"
	EventSessionReset    = "intake.reset"
)

// Event is the payload published after a successful workflow commit.
type Event struct {
	Type         string    `json:"type"`
	SessionID    uuid.UUID `json:"session_id"`
	ConnectionID uuid.UUID `json:"connection_id"`
	OccurredAt   time.Time `json:"occurred_at"`
}

type Service interface {
	SessionEvent(ctx context.Context, eventType string, session *model.IntakeSession)
}

type service struct {
	broker messaging.Broker
}

func NewService(broker messaging.Broker) Service {
	return &service{broker: broker}
}

// SessionEvent publishes best-effort: it runs only after the workflow has
// committed, and a publish failure is logged, never surfaced to the caller.
func (s *service) SessionEvent(ctx context.Context, eventType string, session *model.IntakeSession) {
	if s.broker == nil {
		return
	}

	event := Event{
		Type:         eventType,
		SessionID:    session.ID,
		ConnectionID: session.ConnectionID,
		OccurredAt:   time.Now(),
	}

	if err := s.broker.Publish(ctx, Channel, event); err != nil {
		log.Warn().
			Err(err).
			Str("event", eventType).
			Str("session_id", session.ID.String()).
			Msg("failed to publish intake event")
	}
}
