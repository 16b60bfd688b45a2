package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// ExistsForSession reports whether any appointment references the intake
// session. Existence alone blocks a reset, regardless of the
// appointment's own status.
func (r *appointmentRepository) ExistsForSession(ctx context.Context, sessionID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE intake_session_id = $1
		)
	`
	var exists bool
	err := r.db.GetContext(ctx, &exists, query, sessionID)
	if err != nil {
		return false, fmt.Errorf("failed to check appointment linkage: %w", err)
	}
	return exists, nil
}
