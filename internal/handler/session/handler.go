package session

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/careloop/intake-api/internal/middleware"
	"github.com/careloop/intake-api/internal/model"
	"github.com/careloop/intake-api/internal/service/session"
	"github.com/careloop/intake-api/pkg/errors"
	"github.com/careloop/intake-api/pkg/httputil"
	"github.com/careloop/intake-api/pkg/validator"
)

type Handler struct {
	service   *session.Service
	validator *validator.Validator
}

func NewHandler(service *session.Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(),
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	connections := r.Group("/connections/:id")
	{
		connections.POST("/intake", h.StartIntake)
		connections.POST("/review", h.MarkReviewed)
	}

	sessions := r.Group("/intake/sessions/:id")
	{
		sessions.GET("", h.GetSession)
		sessions.POST("/reset", h.ResetSession)
		sessions.POST("/messages", h.AppendMessage)
		sessions.PUT("/medical-data", h.UpdateMedicalData)
		sessions.PUT("/thought", h.UpdateDoctorThought)
	}
}

type appendMessageRequest struct {
	Role         model.MessageRole  `json:"role" validate:"required,oneof=user model doctor"`
	Content      string             `json:"content" validate:"required"`
	Images       []string           `json:"images"`
	ContextLayer model.ContextLayer `json:"context_layer" validate:"omitempty,oneof=patient-intake doctor-enhancement"`
}

type updateMedicalDataRequest struct {
	MedicalData  *model.MedicalDataState `json:"medical_data" validate:"required"`
	Completeness int                     `json:"completeness" validate:"min=0,max=100"`
}

type updateThoughtRequest struct {
	Thought string `json:"thought" validate:"required"`
}

func (h *Handler) StartIntake(c *gin.Context) {
	connectionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid connection ID", err))
		return
	}

	created, err := h.service.StartIntake(c.Request.Context(), connectionID, middleware.UserFromContext(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, created)
}

func (h *Handler) GetSession(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid session ID", err))
		return
	}

	view, err := h.service.GetSession(c.Request.Context(), sessionID, middleware.UserFromContext(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, view)
}

func (h *Handler) ResetSession(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid session ID", err))
		return
	}

	reset, err := h.service.ResetSession(c.Request.Context(), sessionID, middleware.UserFromContext(c).ID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, reset)
}

func (h *Handler) AppendMessage(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid session ID", err))
		return
	}

	var req appendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid request body", err))
		return
	}
	if err := h.validator.Validate(req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest(err.Error(), err))
		return
	}

	layer := req.ContextLayer
	if layer == "" {
		layer = model.ContextLayerPatientIntake
	}

	msg := &model.Message{
		Role:         req.Role,
		Content:      req.Content,
		Images:       req.Images,
		ContextLayer: layer,
	}

	flags, err := h.service.AppendMessage(c.Request.Context(), sessionID, middleware.UserFromContext(c), msg)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, gin.H{
		"message": msg,
		"flags":   flags,
	})
}

func (h *Handler) UpdateMedicalData(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid session ID", err))
		return
	}

	var req updateMedicalDataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid request body", err))
		return
	}
	if err := h.validator.Validate(req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest(err.Error(), err))
		return
	}

	updated, err := h.service.UpdateMedicalData(c.Request.Context(), sessionID, req.MedicalData, req.Completeness)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, updated)
}

func (h *Handler) UpdateDoctorThought(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid session ID", err))
		return
	}

	var req updateThoughtRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid request body", err))
		return
	}
	if err := h.validator.Validate(req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest(err.Error(), err))
		return
	}

	if err := h.service.UpdateDoctorThought(c.Request.Context(), sessionID, middleware.UserFromContext(c), req.Thought); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, gin.H{"updated": true})
}

func (h *Handler) MarkReviewed(c *gin.Context) {
	connectionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid connection ID", err))
		return
	}

	reviewed, err := h.service.MarkReviewed(c.Request.Context(), connectionID, middleware.UserFromContext(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, reviewed)
}
