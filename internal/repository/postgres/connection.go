package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/careloop/intake-api/internal/model"
)

func (r *connectionRepository) Get(ctx context.Context, id uuid.UUID) (*model.Connection, error) {
	query := `
		SELECT id, patient_user_id, doctor_user_id, status,
			   created_at, updated_at
		FROM connections
		WHERE id = $1
	`
	var connection model.Connection
	err := r.db.GetContext(ctx, &connection, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}
	return &connection, nil
}
