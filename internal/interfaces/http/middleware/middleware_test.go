package middleware_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appservice "github.com/turtacn/kpidash/internal/application/service"
	"github.com/turtacn/kpidash/internal/domain/models"
	"github.com/turtacn/kpidash/internal/domain/service"
	"github.com/turtacn/kpidash/pkg/constants"
	"github.com/turtacn/kpidash/pkg/errors"
	"github.com/turtacn/kpidash/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingAudit struct {
	mu     sync.Mutex
	events []service.AuditEvent
}

func (a *recordingAudit) Publish(_ context.Context, e service.AuditEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, e)
	return nil
}

func (a *recordingAudit) Close() error { return nil }

func (a *recordingAudit) Events() []service.AuditEvent {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]service.AuditEvent(nil), a.events...)
}

type failingStore struct{}

func (failingStore) Increment(context.Context, string, time.Duration) (models.RateLimitRecord, error) {
	return models.RateLimitRecord{}, assert.AnError
}
func (failingStore) Get(context.Context, string) (*models.RateLimitRecord, error) { return nil, assert.AnError }
func (failingStore) Reset(context.Context, string) error                        { return assert.AnError }
func (failingStore) Backend() string                                             { return "failing" }

type stubResolver struct {
	ctx *models.AuthContext
	err error
	got string
}

func (r *stubResolver) Resolve(_ context.Context, token string) (*models.AuthContext, error) {
	r.got = token
	return r.ctx, r.err
}

type stubVerifier struct {
	valid map[string]bool
	err   error
}

func (v stubVerifier) VerifyToken(_ context.Context, token string) (*models.Session, error) {
	if v.err != nil {
		return nil, v.err
	}
	if v.valid[token] {
		return &models.Session{UserID: "u1", TokenID: token}, nil
	}
	return nil, errors.ErrUnauthorized
}

func newAdmission(t *testing.T, store service.RateLimitStore, clock *fakeClock, tiers map[constants.RouteTier]models.RateLimitConfig) *appservice.AdmissionService {
	t.Helper()
	admission, err := appservice.NewAdmissionService(store, tiers, logger.NewNoopLogger(), appservice.WithAdmissionClock(clock.Now))
	require.NoError(t, err)
	return admission
}

func serve(r http.Handler, method, path string, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for _, m := range mutate {
		m(req)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func fromIP(ip string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set(constants.HeaderForwardedFor, ip) }
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}
