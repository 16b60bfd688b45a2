package session

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/careloop/intake-api/internal/agent"
	"github.com/careloop/intake-api/internal/model"
	"github.com/careloop/intake-api/internal/service/audit"
	"github.com/careloop/intake-api/internal/service/notification"
)

type fakeSessionRepo struct {
	sessions map[uuid.UUID]*model.IntakeSession
	messages *fakeMessageRepo

	getErr     error
	updateErr  error
	resetErr   error
	resetCalls int
}

func newFakeSessionRepo(msgs *fakeMessageRepo) *fakeSessionRepo {
	return &fakeSessionRepo{
		sessions: make(map[uuid.UUID]*model.IntakeSession),
		messages: msgs,
	}
}

func (r *fakeSessionRepo) Create(_ context.Context, s *model.IntakeSession) error {
	s.ID = uuid.New()
	s.CreatedAt = time.Now()
	s.UpdatedAt = time.Now()
	r.sessions[s.ID] = s
	return nil
}

func (r *fakeSessionRepo) Get(_ context.Context, id uuid.UUID) (*model.IntakeSession, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	s, ok := r.sessions[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *s
	return &copied, nil
}

func (r *fakeSessionRepo) GetCurrentForConnection(_ context.Context, connectionID uuid.UUID) (*model.IntakeSession, error) {
	var current *model.IntakeSession
	for _, s := range r.sessions {
		if s.ConnectionID != connectionID {
			continue
		}
		if current == nil || s.UpdatedAt.After(current.UpdatedAt) {
			current = s
		}
	}
	if current == nil {
		return nil, sql.ErrNoRows
	}
	copied := *current
	return &copied, nil
}

func (r *fakeSessionRepo) Update(_ context.Context, s *model.IntakeSession) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	if _, ok := r.sessions[s.ID]; !ok {
		return sql.ErrNoRows
	}
	s.UpdatedAt = time.Now()
	copied := *s
	r.sessions[s.ID] = &copied
	return nil
}

func (r *fakeSessionRepo) UpdateDoctorThought(_ context.Context, id uuid.UUID, thought string) error {
	s, ok := r.sessions[id]
	if !ok {
		return sql.ErrNoRows
	}
	s.DoctorThought = &thought
	s.UpdatedAt = time.Now()
	return nil
}

func (r *fakeSessionRepo) MarkReviewed(_ context.Context, id, reviewerID uuid.UUID) (*model.IntakeSession, error) {
	s, ok := r.sessions[id]
	if !ok || s.Status != model.SessionStatusReady {
		return nil, sql.ErrNoRows
	}
	now := time.Now()
	s.Status = model.SessionStatusReviewed
	s.ReviewedAt = &now
	s.ReviewedBy = &reviewerID
	s.UpdatedAt = now
	copied := *s
	return &copied, nil
}

func (r *fakeSessionRepo) Reset(_ context.Context, id uuid.UUID, initialAgent model.AgentRole) (*model.IntakeSession, error) {
	r.resetCalls++
	if r.resetErr != nil {
		return nil, r.resetErr
	}
	s, ok := r.sessions[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	s.Status = model.SessionStatusNotStarted
	s.Completeness = 0
	s.CurrentAgent = initialAgent
	s.MedicalData = model.NewMedicalDataState()
	s.ClinicalHandover = nil
	s.DoctorThought = nil
	s.ReviewedAt = nil
	s.ReviewedBy = nil
	s.UpdatedAt = time.Now()
	if r.messages != nil {
		r.messages.deleteBySession(id)
	}
	copied := *s
	return &copied, nil
}

type fakeMessageRepo struct {
	byID     map[uuid.UUID][]*model.Message
	countErr error
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{byID: make(map[uuid.UUID][]*model.Message)}
}

func (r *fakeMessageRepo) Create(_ context.Context, m *model.Message) error {
	m.ID = uuid.New()
	m.CreatedAt = time.Now()
	r.byID[m.SessionID] = append(r.byID[m.SessionID], m)
	return nil
}

func (r *fakeMessageRepo) ListBySession(_ context.Context, sessionID uuid.UUID) ([]*model.Message, error) {
	return r.byID[sessionID], nil
}

func (r *fakeMessageRepo) CountByRole(_ context.Context, sessionID uuid.UUID, role model.MessageRole) (int, error) {
	if r.countErr != nil {
		return 0, r.countErr
	}
	count := 0
	for _, m := range r.byID[sessionID] {
		if m.Role == role {
			count++
		}
	}
	return count, nil
}

func (r *fakeMessageRepo) deleteBySession(sessionID uuid.UUID) {
	delete(r.byID, sessionID)
}

type fakeAppointmentRepo struct {
	linked map[uuid.UUID]bool
	err    error
	calls  int
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{linked: make(map[uuid.UUID]bool)}
}

func (r *fakeAppointmentRepo) ExistsForSession(_ context.Context, sessionID uuid.UUID) (bool, error) {
	r.calls++
	if r.err != nil {
		return false, r.err
	}
	return r.linked[sessionID], nil
}

type fakeConnectionRepo struct {
	connections map[uuid.UUID]*model.Connection
}

func newFakeConnectionRepo() *fakeConnectionRepo {
	return &fakeConnectionRepo{connections: make(map[uuid.UUID]*model.Connection)}
}

func (r *fakeConnectionRepo) Get(_ context.Context, id uuid.UUID) (*model.Connection, error) {
	c, ok := r.connections[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return c, nil
}

type fakeAuditRepo struct {
	entries   []*model.AuditLog
	createErr error
}

func (r *fakeAuditRepo) Create(_ context.Context, entry *model.AuditLog) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeAuditRepo) ListWithPagination(_ context.Context, _ map[string]interface{}) ([]*model.AuditLog, int64, error) {
	return r.entries, int64(len(r.entries)), nil
}

// testEnv bundles a service with the fakes behind it.
type testEnv struct {
	svc          *Service
	sessions     *fakeSessionRepo
	messages     *fakeMessageRepo
	appointments *fakeAppointmentRepo
	connections  *fakeConnectionRepo
	auditRepo    *fakeAuditRepo

	patient *model.User
	doctor  *model.User
	admin   *model.User
	conn    *model.Connection
}

func newTestEnv() *testEnv {
	msgs := newFakeMessageRepo()
	env := &testEnv{
		sessions:     newFakeSessionRepo(msgs),
		messages:     msgs,
		appointments: newFakeAppointmentRepo(),
		connections:  newFakeConnectionRepo(),
		auditRepo:    &fakeAuditRepo{},
	}

	env.patient = &model.User{ID: uuid.New(), Role: model.UserRolePatient}
	env.doctor = &model.User{ID: uuid.New(), Role: model.UserRoleDoctor}
	env.admin = &model.User{ID: uuid.New(), Role: model.UserRoleAdmin}

	env.conn = &model.Connection{
		ID:            uuid.New(),
		PatientUserID: env.patient.ID,
		DoctorUserID:  env.doctor.ID,
		Status:        model.ConnectionStatusActive,
	}
	env.connections.connections[env.conn.ID] = env.conn

	env.svc = NewService(
		env.sessions,
		env.messages,
		env.appointments,
		env.connections,
		audit.NewService(env.auditRepo),
		notification.NewService(nil),
		agent.DefaultLimits(),
		nil,
	)
	return env
}

func (e *testEnv) addSession(status model.SessionStatus, completeness int) *model.IntakeSession {
	s := &model.IntakeSession{
		ID:           uuid.New(),
		ConnectionID: e.conn.ID,
		Status:       status,
		MedicalData:  model.NewMedicalDataState(),
		Completeness: completeness,
		CurrentAgent: InitialAgent,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	e.sessions.sessions[s.ID] = s
	return s
}

var errBoom = errors.New("boom")
