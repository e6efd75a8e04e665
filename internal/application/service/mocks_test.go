package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"go.uber.org/goleak"

	"github.com/turtacn/kpidash/internal/domain/models"
	domainService "github.com/turtacn/kpidash/internal/domain/service"
	"github.com/turtacn/kpidash/pkg/constants"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// MockRateLimitStore is a testify mock for the counter store.
type MockRateLimitStore struct {
	mock.Mock
}

func (m *MockRateLimitStore) Increment(ctx context.Context, key string, window time.Duration) (models.RateLimitRecord, error) {
	args := m.Called(ctx, key, window)
	return args.Get(0).(models.RateLimitRecord), args.Error(1)
}

func (m *MockRateLimitStore) Get(ctx context.Context, key string) (*models.RateLimitRecord, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RateLimitRecord), args.Error(1)
}

func (m *MockRateLimitStore) Reset(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockRateLimitStore) Backend() string { return "mock" }

// MockSessionManager is a testify mock for session tokens.
type MockSessionManager struct {
	mock.Mock
}

func (m *MockSessionManager) Issue(ctx context.Context, userID string) (string, *models.Session, error) {
	args := m.Called(ctx, userID)
	if args.Get(1) == nil {
		return args.String(0), nil, args.Error(2)
	}
	return args.String(0), args.Get(1).(*models.Session), args.Error(2)
}

func (m *MockSessionManager) Verify(ctx context.Context, token string) (*models.Session, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockSessionManager) Revoke(ctx context.Context, session *models.Session) error {
	return m.Called(ctx, session).Error(0)
}

// MockUserRepo is a testify mock for the user repository.
type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepo) CreateWithOrganization(ctx context.Context, org *models.Organization, user *models.User) error {
	return m.Called(ctx, org, user).Error(0)
}

// MockHasher is a testify mock for password hashing.
type MockHasher struct {
	mock.Mock
}

func (m *MockHasher) Hash(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

func (m *MockHasher) Compare(password, hash string) (bool, error) {
	args := m.Called(password, hash)
	return args.Bool(0), args.Error(1)
}

// MockDashboardRepo is a testify mock for the dashboard repository.
type MockDashboardRepo struct {
	mock.Mock
}

func (m *MockDashboardRepo) LatestKPIMetrics(ctx context.Context, organizationID string, since time.Time) ([]models.KPIMetric, error) {
	args := m.Called(ctx, organizationID, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.KPIMetric), args.Error(1)
}

func (m *MockDashboardRepo) LeadSources(ctx context.Context, organizationID string, view models.LeadsView) ([]models.LeadSourceCount, error) {
	args := m.Called(ctx, organizationID, view)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.LeadSourceCount), args.Error(1)
}

func (m *MockDashboardRepo) OpenTasks(ctx context.Context, organizationID string, limit int) ([]models.Task, error) {
	args := m.Called(ctx, organizationID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Task), args.Error(1)
}

func (m *MockDashboardRepo) Employees(ctx context.Context, organizationID string) ([]models.Employee, error) {
	args := m.Called(ctx, organizationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Employee), args.Error(1)
}

func (m *MockDashboardRepo) UpcomingAppointments(ctx context.Context, organizationID string, from time.Time, limit int) ([]models.Appointment, error) {
	args := m.Called(ctx, organizationID, from, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Appointment), args.Error(1)
}

// recordingAudit captures published events.
type recordingAudit struct {
	mu     sync.Mutex
	events []domainService.AuditEvent
	err    error
}

func (r *recordingAudit) Publish(_ context.Context, e domainService.AuditEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return r.err
}

func (r *recordingAudit) Close() error { return nil }

func (r *recordingAudit) types() []constants.AuditEventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]constants.AuditEventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

// recordingMetrics captures admission and auth metrics.
type recordingMetrics struct {
	mu          sync.Mutex
	decisions   map[string]int
	storeErrors map[string]int
	resolutions map[string]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{
		decisions:   map[string]int{},
		storeErrors: map[string]int{},
		resolutions: map[string]int{},
	}
}

func (r *recordingMetrics) RecordDecision(tier constants.RouteTier, allowed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	outcome := "allowed"
	if !allowed {
		outcome = "rejected"
	}
	r.decisions[string(tier)+"/"+outcome]++
}

func (r *recordingMetrics) RecordStoreError(backend string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.storeErrors[backend]++
}

func (r *recordingMetrics) RecordResolution(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolutions[outcome]++
}
