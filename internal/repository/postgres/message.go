package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/careloop/intake-api/internal/model"
)

func (r *messageRepository) Create(ctx context.Context, message *model.Message) error {
	query := `
		INSERT INTO messages (
			id, session_id, role, content, images,
			active_agent, context_layer, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	message.ID = uuid.New()
	message.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		message.ID,
		message.SessionID,
		message.Role,
		message.Content,
		message.Images,
		message.ActiveAgent,
		message.ContextLayer,
		message.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

// ListBySession returns the stored messages verbatim, in insertion order.
// The read path never trims, reorders, or filters.
func (r *messageRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*model.Message, error) {
	query := `
		SELECT id, session_id, role, content, images,
			   active_agent, context_layer, created_at
		FROM messages
		WHERE session_id = $1
		ORDER BY created_at ASC, id ASC
	`
	var messages []*model.Message
	err := r.db.SelectContext(ctx, &messages, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, nil
}

func (r *messageRepository) CountByRole(ctx context.Context, sessionID uuid.UUID, role model.MessageRole) (int, error) {
	query := `SELECT COUNT(*) FROM messages WHERE session_id = $1 AND role = $2`

	var count int
	err := r.db.GetContext(ctx, &count, query, sessionID, role)
	if err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return count, nil
}
