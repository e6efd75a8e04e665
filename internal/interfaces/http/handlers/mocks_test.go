package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/kpidash/internal/application/dto"
	"github.com/turtacn/kpidash/internal/domain/models"
	"github.com/turtacn/kpidash/pkg/constants"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// MockSessionAppService is a mock for the SessionAppService
type MockSessionAppService struct {
	mock.Mock
}

func (m *MockSessionAppService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.SessionResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.SessionResponse), args.Error(1)
}

func (m *MockSessionAppService) Signup(ctx context.Context, req *dto.SignupRequest) (*dto.SessionResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.SessionResponse), args.Error(1)
}

func (m *MockSessionAppService) Logout(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func (m *MockSessionAppService) VerifyToken(ctx context.Context, token string) (*models.Session, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

// MockDashboardAppService is a mock for the DashboardAppService
type MockDashboardAppService struct {
	mock.Mock
}

func (m *MockDashboardAppService) KPIs(ctx context.Context, auth *models.AuthContext) ([]models.KPIMetric, error) {
	args := m.Called(ctx, auth)
	rows, _ := args.Get(0).([]models.KPIMetric)
	return rows, args.Error(1)
}

func (m *MockDashboardAppService) Leads(ctx context.Context, auth *models.AuthContext, view models.LeadsView) ([]models.LeadSourceCount, error) {
	args := m.Called(ctx, auth, view)
	rows, _ := args.Get(0).([]models.LeadSourceCount)
	return rows, args.Error(1)
}

func (m *MockDashboardAppService) Tasks(ctx context.Context, auth *models.AuthContext) ([]models.Task, error) {
	args := m.Called(ctx, auth)
	rows, _ := args.Get(0).([]models.Task)
	return rows, args.Error(1)
}

func (m *MockDashboardAppService) Employees(ctx context.Context, auth *models.AuthContext) ([]models.Employee, error) {
	args := m.Called(ctx, auth)
	rows, _ := args.Get(0).([]models.Employee)
	return rows, args.Error(1)
}

func (m *MockDashboardAppService) Appointments(ctx context.Context, auth *models.AuthContext) ([]models.Appointment, error) {
	args := m.Called(ctx, auth)
	rows, _ := args.Get(0).([]models.Appointment)
	return rows, args.Error(1)
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func withAuth(userID, orgID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authCtx, _ := models.NewAuthContext(userID, orgID)
		c.Set(string(constants.ContextKeyAuthContext), authCtx)
	}
}

func do(r http.Handler, method, target, body string, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for _, m := range mutate {
		m(req)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func envelope(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == constants.SessionCookieName {
			return c
		}
	}
	return nil
}
