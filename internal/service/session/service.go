package session

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/careloop/intake-api/internal/agent"
	"github.com/careloop/intake-api/internal/model"
	"github.com/careloop/intake-api/internal/repository"
	"github.com/careloop/intake-api/internal/service/audit"
	"github.com/careloop/intake-api/internal/service/notification"
	"github.com/careloop/intake-api/pkg/errors"
	"github.com/careloop/intake-api/pkg/metrics"
)

const (
	connectionCacheTTL     = 30 * time.Second
	connectionCacheCleanup = 5 * time.Minute
)

type Service struct {
	sessions     repository.SessionRepository
	messages     repository.MessageRepository
	appointments repository.AppointmentRepository
	connections  repository.ConnectionRepository
	auditor      *audit.Service
	notifier     notification.Service
	limits       agent.Limits
	metrics      *metrics.Metrics
	connCache    *cache.Cache
}

func NewService(
	sessions repository.SessionRepository,
	messages repository.MessageRepository,
	appointments repository.AppointmentRepository,
	connections repository.ConnectionRepository,
	auditor *audit.Service,
	notifier notification.Service,
	limits agent.Limits,
	m *metrics.Metrics,
) *Service {
	if !limits.Valid() {
		limits = agent.DefaultLimits()
	}
	return &Service{
		sessions:     sessions,
		messages:     messages,
		appointments: appointments,
		connections:  connections,
		auditor:      auditor,
		notifier:     notifier,
		limits:       limits,
		metrics:      m,
		connCache:    cache.New(connectionCacheTTL, connectionCacheCleanup),
	}
}

// View is the consolidated read model for one session: the session row,
// its messages exactly as stored, the connection they belong to, and how
// the requester relates to it.
type View struct {
	Session    *model.IntakeSession `json:"session"`
	Messages   []*model.Message     `json:"messages"`
	Connection *model.Connection    `json:"connection"`
	UserRole   string               `json:"user_role"`
	ReadOnly   bool                 `json:"read_only"`
}

// ConversationFlags tells the conversation pipeline whether the message
// budget requires winding the intake down.
type ConversationFlags struct {
	AIMessageCount  int  `json:"ai_message_count"`
	OfferConclusion bool `json:"offer_conclusion"`
	ForceHandover   bool `json:"force_handover"`
}

// GetSession returns the session with its messages and connection context.
// Access is granted to the connection's patient, the connection's doctor,
// and admins; everyone else gets a forbidden error.
func (s *Service) GetSession(ctx context.Context, sessionID uuid.UUID, requester *model.User) (*View, error) {
	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	connection, err := s.connection(ctx, session.ConnectionID)
	if err != nil {
		return nil, err
	}

	if !canAccess(requester, connection) {
		return nil, errors.Forbidden("no access to this intake session", nil)
	}

	msgs, err := s.messages.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, errors.Internal(err)
	}

	// Every authorized non-patient requester reads as doctor, admins
	// included: the admin view is the doctor view.
	role := "doctor"
	if requester.ID == connection.PatientUserID {
		role = "patient"
	}

	return &View{
		Session:    session,
		Messages:   msgs,
		Connection: connection,
		UserRole:   role,
		ReadOnly:   session.Status == model.SessionStatusReviewed,
	}, nil
}

// StartIntake creates a fresh session on a connection for its patient.
func (s *Service) StartIntake(ctx context.Context, connectionID uuid.UUID, requester *model.User) (*model.IntakeSession, error) {
	connection, err := s.connection(ctx, connectionID)
	if err != nil {
		return nil, err
	}

	if requester.ID != connection.PatientUserID {
		return nil, errors.Forbidden("only the patient can start an intake", nil)
	}

	session := &model.IntakeSession{
		ConnectionID: connectionID,
		Status:       model.SessionStatusNotStarted,
		MedicalData:  model.NewMedicalDataState(),
		Completeness: 0,
		CurrentAgent: InitialAgent,
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, errors.Internal(err)
	}

	if s.metrics != nil {
		s.metrics.SessionsStarted.Inc()
	}
	return session, nil
}

// AppendMessage records one immutable conversation turn. The first turn
// moves the session from not_started to in_progress; model-role messages
// are stamped with the active agent. The returned flags tell the pipeline
// whether the message budget is closing the conversation down.
func (s *Service) AppendMessage(ctx context.Context, sessionID uuid.UUID, requester *model.User, msg *model.Message) (*ConversationFlags, error) {
	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	connection, err := s.connection(ctx, session.ConnectionID)
	if err != nil {
		return nil, err
	}
	if !canAccess(requester, connection) {
		return nil, errors.Forbidden("no access to this intake session", nil)
	}

	if session.Status == model.SessionStatusReviewed {
		return nil, errors.BadRequest("cannot add messages to a reviewed session", nil)
	}

	msg.SessionID = sessionID
	if msg.ContextLayer == "" {
		msg.ContextLayer = model.ContextLayerPatientIntake
	}
	if msg.Role == model.MessageRoleModel {
		active := session.CurrentAgent
		msg.ActiveAgent = &active
	} else {
		msg.ActiveAgent = nil
	}

	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, errors.Internal(err)
	}

	if session.Status == model.SessionStatusNotStarted {
		session.Status = model.SessionStatusInProgress
		if err := s.sessions.Update(ctx, session); err != nil {
			return nil, errors.Internal(err)
		}
	}

	if s.metrics != nil {
		s.metrics.MessagesAppended.WithLabelValues(string(msg.Role)).Inc()
	}

	count, err := s.messages.CountByRole(ctx, sessionID, model.MessageRoleModel)
	if err != nil {
		return nil, errors.Internal(err)
	}

	return &ConversationFlags{
		AIMessageCount:  count,
		OfferConclusion: s.limits.ShouldOfferConclusion(count),
		ForceHandover:   s.limits.ShouldForceHandover(count),
	}, nil
}

// UpdateMedicalData replaces the session's medical snapshot wholesale on
// behalf of the conversation pipeline, recomputes the active agent, and
// moves the session to ready once a clinical handover is present.
func (s *Service) UpdateMedicalData(ctx context.Context, sessionID uuid.UUID, state *model.MedicalDataState, completeness int) (*model.IntakeSession, error) {
	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if session.Status == model.SessionStatusReviewed {
		return nil, errors.BadRequest("cannot modify a reviewed session", nil)
	}
	if completeness < 0 || completeness > 100 {
		return nil, errors.BadRequest("completeness must be between 0 and 100", nil)
	}

	routed := agent.DetermineAgent(state)
	state.CurrentAgent = routed

	session.MedicalData = state
	session.CurrentAgent = routed
	session.Completeness = completeness
	session.ClinicalHandover = state.ClinicalHandover

	if state.ClinicalHandover != nil && session.Status == model.SessionStatusInProgress {
		session.Status = model.SessionStatusReady
	}

	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, errors.Internal(err)
	}

	if s.metrics != nil {
		s.metrics.RoutedAgent.WithLabelValues(string(routed)).Inc()
	}
	if session.Status == model.SessionStatusReady {
		s.notifier.SessionEvent(ctx, notification.EventSessionReady, session)
	}
	return session, nil
}

// UpdateDoctorThought saves the doctor's differential-diagnosis notes.
func (s *Service) UpdateDoctorThought(ctx context.Context, sessionID uuid.UUID, requester *model.User, thought string) error {
	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return err
	}

	connection, err := s.connection(ctx, session.ConnectionID)
	if err != nil {
		return err
	}
	if requester.ID != connection.DoctorUserID {
		return errors.Forbidden("only the connection's doctor can edit thought notes", nil)
	}
	if session.Status == model.SessionStatusReviewed {
		return errors.BadRequest("cannot modify a reviewed session", nil)
	}

	if err := s.sessions.UpdateDoctorThought(ctx, sessionID, thought); err != nil {
		return errors.Internal(err)
	}

	s.auditor.Log(ctx, requester.ID, model.AuditActionThoughtUpdate,
		model.AuditResourceIntakeSession, sessionID, nil)
	return nil
}

// MarkReviewed performs the doctor-only terminal transition on the
// connection's current session.
func (s *Service) MarkReviewed(ctx context.Context, connectionID uuid.UUID, requester *model.User) (*model.IntakeSession, error) {
	connection, err := s.connection(ctx, connectionID)
	if err != nil {
		return nil, err
	}

	if requester.ID != connection.DoctorUserID {
		return nil, errors.Forbidden("only the connection's doctor can mark a session reviewed", nil)
	}

	current, err := s.sessions.GetCurrentForConnection(ctx, connectionID)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFound("intake session", err)
		}
		return nil, errors.Internal(err)
	}

	if err := ValidateTransition(current.Status, model.SessionStatusReviewed); err != nil {
		return nil, err
	}

	reviewed, err := s.sessions.MarkReviewed(ctx, current.ID, requester.ID)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			// Lost the race: someone moved the session off ready first.
			return nil, errors.BadRequest("session is no longer ready for review", err)
		}
		return nil, errors.Internal(err)
	}

	if s.metrics != nil {
		s.metrics.SessionReviews.Inc()
	}

	s.auditor.Log(ctx, requester.ID, model.AuditActionIntakeReview,
		model.AuditResourceIntakeSession, reviewed.ID, &audit.LogOptions{
			Metadata: model.JSONMap{"connection_id": connectionID},
		})
	s.notifier.SessionEvent(ctx, notification.EventSessionReviewed, reviewed)

	return reviewed, nil
}

func (s *Service) getSession(ctx context.Context, id uuid.UUID) (*model.IntakeSession, error) {
	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFound("intake session", err)
		}
		return nil, errors.Internal(err)
	}
	return session, nil
}

// connection resolves a connection through a short-lived cache; the read
// path tolerates staleness up to the TTL.
func (s *Service) connection(ctx context.Context, id uuid.UUID) (*model.Connection, error) {
	if cached, ok := s.connCache.Get(id.String()); ok {
		return cached.(*model.Connection), nil
	}

	connection, err := s.connections.Get(ctx, id)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFound("connection", err)
		}
		return nil, errors.Internal(fmt.Errorf("failed to load connection: %w", err))
	}

	s.connCache.Set(id.String(), connection, cache.DefaultExpiration)
	return connection, nil
}

func canAccess(user *model.User, connection *model.Connection) bool {
	if user == nil {
		return false
	}
	return user.ID == connection.PatientUserID ||
		user.ID == connection.DoctorUserID ||
		user.IsAdmin()
}
