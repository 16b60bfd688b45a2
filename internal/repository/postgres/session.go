package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/careloop/intake-api/internal/model"
)

const sessionColumns = `
	id, connection_id, status, medical_data, clinical_handover,
	doctor_thought, completeness, current_agent, reviewed_at, reviewed_by,
	created_at, updated_at
`

func (r *sessionRepository) Create(ctx context.Context, session *model.IntakeSession) error {
	query := `
		INSERT INTO intake_sessions (
			id, connection_id, status, medical_data, clinical_handover,
			doctor_thought, completeness, current_agent,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	session.ID = uuid.New()
	session.CreatedAt = time.Now()
	session.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		session.ID,
		session.ConnectionID,
		session.Status,
		session.MedicalData,
		session.ClinicalHandover,
		session.DoctorThought,
		session.Completeness,
		session.CurrentAgent,
		session.CreatedAt,
		session.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create intake session: %w", err)
	}
	return nil
}

func (r *sessionRepository) Get(ctx context.Context, id uuid.UUID) (*model.IntakeSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM intake_sessions WHERE id = $1`

	var session model.IntakeSession
	err := r.db.GetContext(ctx, &session, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get intake session: %w", err)
	}
	return &session, nil
}

// GetCurrentForConnection resolves the one "current" session for a
// connection: the most recently updated.
func (r *sessionRepository) GetCurrentForConnection(ctx context.Context, connectionID uuid.UUID) (*model.IntakeSession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM intake_sessions
		WHERE connection_id = $1
		ORDER BY updated_at DESC
		LIMIT 1
	`
	var session model.IntakeSession
	err := r.db.GetContext(ctx, &session, query, connectionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get current session: %w", err)
	}
	return &session, nil
}

func (r *sessionRepository) Update(ctx context.Context, session *model.IntakeSession) error {
	query := `
		UPDATE intake_sessions
		SET status = $1, medical_data = $2, clinical_handover = $3,
			completeness = $4, current_agent = $5, updated_at = $6
		WHERE id = $7
	`
	session.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		session.Status,
		session.MedicalData,
		session.ClinicalHandover,
		session.Completeness,
		session.CurrentAgent,
		session.UpdatedAt,
		session.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update intake session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *sessionRepository) UpdateDoctorThought(ctx context.Context, id uuid.UUID, thought string) error {
	query := `
		UPDATE intake_sessions
		SET doctor_thought = $1, updated_at = $2
		WHERE id = $3
	`
	result, err := r.db.ExecContext(ctx, query, thought, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update doctor thought: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// MarkReviewed performs the terminal ready -> reviewed transition. The
// status predicate lives in the statement so a concurrent writer cannot
// review the same session twice.
func (r *sessionRepository) MarkReviewed(ctx context.Context, id, reviewerID uuid.UUID) (*model.IntakeSession, error) {
	query := `
		UPDATE intake_sessions
		SET status = $1, reviewed_at = $2, reviewed_by = $3, updated_at = $2
		WHERE id = $4 AND status = $5
		RETURNING ` + sessionColumns

	var session model.IntakeSession
	err := r.db.GetContext(ctx, &session, query,
		model.SessionStatusReviewed,
		time.Now(),
		reviewerID,
		id,
		model.SessionStatusReady,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to mark session reviewed: %w", err)
	}
	return &session, nil
}

// Reset deletes every message of the session and returns its fields to
// the not-started state in a single transaction. No reader can observe
// messages gone with the status still advanced, or the reverse.
func (r *sessionRepository) Reset(ctx context.Context, id uuid.UUID, initialAgent model.AgentRole) (*model.IntakeSession, error) {
	var session model.IntakeSession

	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE session_id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete session messages: %w", err)
		}

		query := `
			UPDATE intake_sessions
			SET status = $1, completeness = 0, current_agent = $2,
				medical_data = $3, clinical_handover = NULL,
				doctor_thought = NULL, reviewed_at = NULL, reviewed_by = NULL,
				updated_at = $4
			WHERE id = $5
			RETURNING ` + sessionColumns

		err := tx.GetContext(ctx, &session, query,
			model.SessionStatusNotStarted,
			initialAgent,
			model.NewMedicalDataState(),
			time.Now(),
			id,
		)
		if err != nil {
			return fmt.Errorf("failed to reset intake session: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &session, nil
}
