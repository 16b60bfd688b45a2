package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/careloop/intake-api/internal/model"
)

// All repository interfaces in one file
type (
	// SessionRepository handles intake session persistence. Reset is the
	// one compound write: message deletion and field reset commit as a
	// single transaction or not at all.
	SessionRepository interface {
		Create(ctx context.Context, session *model.IntakeSession) error
		Get(ctx context.Context, id uuid.UUID) (*model.IntakeSession, error)
		GetCurrentForConnection(ctx context.Context, connectionID uuid.UUID) (*model.IntakeSession, error)
		Update(ctx context.Context, session *model.IntakeSession) error
		UpdateDoctorThought(ctx context.Context, id uuid.UUID, thought string) error
		MarkReviewed(ctx context.Context, id, reviewerID uuid.UUID) (*model.IntakeSession, error)
		Reset(ctx context.Context, id uuid.UUID, initialAgent model.AgentRole) (*model.IntakeSession, error)
	}

	MessageRepository interface {
		Create(ctx context.Context, message *model.Message) error
		ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*model.Message, error)
		CountByRole(ctx context.Context, sessionID uuid.UUID, role model.MessageRole) (int, error)
	}

	AppointmentRepository interface {
		ExistsForSession(ctx context.Context, sessionID uuid.UUID) (bool, error)
	}

	ConnectionRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Connection, error)
	}

	AuditRepository interface {
		Create(ctx context.Context, log *model.AuditLog) error
		ListWithPagination(ctx context.Context, filters map[string]interface{}) ([]*model.AuditLog, int64, error)
	}

	UserRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
	}
)
