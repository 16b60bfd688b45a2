package audit

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/careloop/intake-api/internal/service/audit"
	"github.com/careloop/intake-api/pkg/errors"
	"github.com/careloop/intake-api/pkg/httputil"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type Handler struct {
	service *audit.Service
}

func NewHandler(service *audit.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	logs := r.Group("/audit")
	{
		logs.GET("/logs", h.ListLogs)
	}
}

func (h *Handler) ListLogs(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(defaultPageSize)))
	if pageSize < 1 || pageSize > maxPageSize {
		pageSize = defaultPageSize
	}

	filters := map[string]interface{}{
		"limit":  pageSize,
		"offset": (page - 1) * pageSize,
	}

	if v := c.Query("user_id"); v != "" {
		userID, err := uuid.Parse(v)
		if err != nil {
			httputil.RespondWithError(c, errors.BadRequest("invalid user_id", err))
			return
		}
		filters["user_id"] = userID
	}

	if v := c.Query("resource_id"); v != "" {
		resourceID, err := uuid.Parse(v)
		if err != nil {
			httputil.RespondWithError(c, errors.BadRequest("invalid resource_id", err))
			return
		}
		filters["resource_id"] = resourceID
	}

	if v := c.Query("action"); v != "" {
		filters["action"] = v
	}

	logs, total, err := h.service.ListWithPagination(c.Request.Context(), filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithPagination(c, logs, page, pageSize, int(total))
}
