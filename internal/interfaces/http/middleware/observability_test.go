package middleware_test

import (
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/turtacn/kpidash/internal/infrastructure/monitoring"
	"github.com/turtacn/kpidash/internal/interfaces/http/middleware"
	"github.com/turtacn/kpidash/pkg/constants"
	"github.com/turtacn/kpidash/pkg/logger"
)

type observedRequest struct {
	route  string
	status int
}

type fakeRequestMetrics struct {
	mu       sync.Mutex
	active   int
	observed []observedRequest
}

func (m *fakeRequestMetrics) ActiveRequestsInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active++
}

func (m *fakeRequestMetrics) ActiveRequestsDec() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active--
}

func (m *fakeRequestMetrics) ObserveRequestDuration(route string, status int, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observed = append(m.observed, observedRequest{route, status})
}

func TestObservability_RecordsRouteTemplateAndSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tm := monitoring.NewTracingManagerWithProvider(provider, logger.NewNoopLogger())
	metrics := &fakeRequestMetrics{}

	r := gin.New()
	r.Use(middleware.Observability(tm, metrics))
	r.GET("/api/items/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	serve(r, http.MethodGet, "/api/items/42")
	serve(r, http.MethodGet, "/nowhere")

	assert.Equal(t, []observedRequest{{"/api/items/:id", 204}, {"not_found", 404}}, metrics.observed)
	assert.Zero(t, metrics.active)
	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "GET /api/items/:id", spans[0].Name())
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(middleware.RequestID())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "%v", c.Request.Context().Value(constants.ContextKeyRequestID))
	})

	w := serve(r, http.MethodGet, "/", func(req *http.Request) { req.Header.Set(constants.HeaderRequestID, "req-7") })
	assert.Equal(t, "req-7", w.Header().Get(constants.HeaderRequestID))
	assert.Equal(t, "req-7", w.Body.String())

	w = serve(r, http.MethodGet, "/")
	assert.NotEmpty(t, w.Header().Get(constants.HeaderRequestID))
	assert.Equal(t, w.Header().Get(constants.HeaderRequestID), w.Body.String())
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(middleware.Logging(logger.NewNoopLogger()), middleware.Recovery(logger.NewNoopLogger()))
	r.GET("/", func(c *gin.Context) { panic("boom") })

	w := serve(r, http.MethodGet, "/")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal_error", decodeEnvelope(t, w)["error"].(map[string]interface{})["code"])
}

func TestETag(t *testing.T) {
	r := gin.New()
	r.Use(middleware.ETag())
	r.GET("/api/kpi", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })
	r.GET("/api/fail", func(c *gin.Context) { c.JSON(http.StatusInternalServerError, gin.H{"ok": false}) })

	first := serve(r, http.MethodGet, "/api/kpi")
	require.Equal(t, http.StatusOK, first.Code)
	etag := first.Header().Get("ETag")
	require.NotEmpty(t, etag)
	assert.JSONEq(t, `{"ok":true}`, first.Body.String())

	second := serve(r, http.MethodGet, "/api/kpi", func(req *http.Request) { req.Header.Set("If-None-Match", etag) })
	assert.Equal(t, http.StatusNotModified, second.Code)
	assert.Empty(t, second.Body.String())

	failed := serve(r, http.MethodGet, "/api/fail")
	assert.Equal(t, http.StatusInternalServerError, failed.Code)
	assert.Empty(t, failed.Header().Get("ETag"))
	assert.JSONEq(t, `{"ok":false}`, failed.Body.String())
}
