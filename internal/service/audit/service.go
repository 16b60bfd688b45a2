package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/careloop/intake-api/internal/model"
	"github.com/careloop/intake-api/internal/repository"
)

type Service struct {
	repo repository.AuditRepository
}

func NewService(repo repository.AuditRepository) *Service {
	return &Service{repo: repo}
}

type LogOptions struct {
	Metadata  interface{}
	IPAddress string
}

// Log creates an audit log entry
func (s *Service) Log(ctx context.Context, userID uuid.UUID, action, resourceType string, resourceID uuid.UUID, opts *LogOptions) error {
	var metadata json.RawMessage
	var ipAddress string

	if opts != nil {
		if opts.Metadata != nil {
			var err error
			metadata, err = json.Marshal(opts.Metadata)
			if err != nil {
				return err
			}
		}
		ipAddress = opts.IPAddress
	}

	// Pick up the client IP when the call originates from a gin handler
	if gc, ok := ctx.(*gin.Context); ok && ipAddress == "" {
		ipAddress = gc.ClientIP()
	}

	entry := &model.AuditLog{
		ID:           uuid.New(),
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Metadata:     metadata,
		IPAddress:    ipAddress,
		CreatedAt:    time.Now(),
	}

	return s.repo.Create(ctx, entry)
}

func (s *Service) ListWithPagination(ctx context.Context, filters map[string]interface{}) ([]*model.AuditLog, int64, error) {
	return s.repo.ListWithPagination(ctx, filters)
}
