package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/careloop/intake-api/internal/model"
)

func (r *auditRepository) Create(ctx context.Context, log *model.AuditLog) error {
	query := `
		INSERT INTO audit_logs (
			id, user_id, action, resource_type, resource_id,
			metadata, ip_address, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}

	_, err := r.db.ExecContext(ctx, query,
		log.ID,
		log.UserID,
		log.Action,
		log.ResourceType,
		log.ResourceID,
		log.Metadata,
		log.IPAddress,
		log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	return nil
}

func (r *auditRepository) ListWithPagination(ctx context.Context, filters map[string]interface{}) ([]*model.AuditLog, int64, error) {
	query := `
		SELECT id, user_id, action, resource_type, resource_id,
			   metadata, ip_address, created_at
		FROM audit_logs
		WHERE 1=1
	`
	countQuery := `SELECT COUNT(*) FROM audit_logs WHERE 1=1`

	args := []interface{}{}
	argCount := 1

	if v, ok := filters["user_id"]; ok {
		clause := fmt.Sprintf(" AND user_id = $%d", argCount)
		query += clause
		countQuery += clause
		args = append(args, v)
		argCount++
	}

	if v, ok := filters["action"]; ok {
		clause := fmt.Sprintf(" AND action = $%d", argCount)
		query += clause
		countQuery += clause
		args = append(args, v)
		argCount++
	}

	if v, ok := filters["resource_id"]; ok {
		clause := fmt.Sprintf(" AND resource_id = $%d", argCount)
		query += clause
		countQuery += clause
		args = append(args, v)
		argCount++
	}

	var total int64
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count audit logs: %w", err)
	}

	query += " ORDER BY created_at DESC"

	if v, ok := filters["limit"]; ok {
		query += fmt.Sprintf(" LIMIT $%d", argCount)
		args = append(args, v)
		argCount++
	}
	if v, ok := filters["offset"]; ok {
		query += fmt.Sprintf(" OFFSET $%d", argCount)
		args = append(args, v)
	}

	var logs []*model.AuditLog
	if err := r.db.SelectContext(ctx, &logs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return logs, total, nil
}
