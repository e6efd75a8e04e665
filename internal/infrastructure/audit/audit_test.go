package audit_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/kpidash/internal/config"
	"github.com/turtacn/kpidash/internal/domain/service"
	"github.com/turtacn/kpidash/internal/infrastructure/audit"
	"github.com/turtacn/kpidash/pkg/constants"
	"github.com/turtacn/kpidash/pkg/logger"
)

type fakeWriter struct {
	mu       sync.Mutex
	messages []kafka.Message
	err      error
	deadline bool
	closed   bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, w.deadline = ctx.Deadline()
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func rejectionEvent() service.AuditEvent {
	return service.AuditEvent{
		Type:       constants.AuditEventRateLimitExceeded,
		Identity:   "203.0.113.7",
		Path:       "/api/auth/login",
		Tier:       constants.RouteTierAuth,
		OccurredAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestKafkaPublisher_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := audit.NewKafkaPublisherWithWriter(w, time.Second, logger.NewNoopLogger())

	require.NoError(t, p.Publish(context.Background(), rejectionEvent()))
	require.Len(t, w.messages, 1)
	assert.True(t, w.deadline)

	msg := w.messages[0]
	assert.Equal(t, "rate_limit_exceeded", string(msg.Key))
	assert.Empty(t, msg.Headers)

	var decoded service.AuditEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, rejectionEvent(), decoded)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaPublisher_SignsMessages(t *testing.T) {
	w := &fakeWriter{}
	key := []byte("audit-signing-key")
	p := audit.NewKafkaPublisherWithWriter(w, 0, logger.NewNoopLogger(), audit.WithSigningKey(key))

	require.NoError(t, p.Publish(context.Background(), rejectionEvent()))
	msg := w.messages[0]
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, audit.SignatureHeader, msg.Headers[0].Key)
	assert.True(t, audit.Verify(msg.Value, key, string(msg.Headers[0].Value)))
	assert.False(t, audit.Verify(msg.Value, []byte("other"), string(msg.Headers[0].Value)))
	assert.False(t, audit.Verify(msg.Value, key, "not base64!"))
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	p := audit.NewKafkaPublisherWithWriter(w, time.Second, logger.NewNoopLogger())
	assert.EqualError(t, p.Publish(context.Background(), rejectionEvent()), "broker down")
}

func TestNewPublisher_Selection(t *testing.T) {
	log := logger.NewNoopLogger()

	p := audit.NewPublisher(config.AuditConfig{}, log)
	assert.IsType(t, &audit.LogPublisher{}, p)
	assert.NoError(t, p.Publish(context.Background(), rejectionEvent()))
	assert.NoError(t, p.Close())

	p = audit.NewPublisher(config.AuditConfig{KafkaBrokers: []string{"localhost:9092"}, Topic: "audit"}, log)
	assert.IsType(t, &audit.KafkaPublisher{}, p)
	assert.NoError(t, p.Close())
}
