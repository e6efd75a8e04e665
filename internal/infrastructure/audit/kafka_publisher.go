// Package audit publishes security audit events.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/kpidash/internal/config"
	"github.com/turtacn/kpidash/internal/domain/service"
	"github.com/turtacn/kpidash/pkg/logger"
)

const defaultWriteTimeout = 5 * time.Second

// MessageWriter is the part of kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes audit events as JSON messages keyed by event type.
type KafkaPublisher struct {
	writer       MessageWriter
	writeTimeout time.Duration
	signingKey   []byte
	logger       logger.Logger
}

// KafkaOption configures a KafkaPublisher.
type KafkaOption func(*KafkaPublisher)

// WithSigningKey attaches an HMAC signature header to every message.
func WithSigningKey(key []byte) KafkaOption {
	return func(p *KafkaPublisher) { p.signingKey = key }
}

// NewKafkaPublisher creates a publisher for cfg.KafkaBrokers and cfg.Topic.
func NewKafkaPublisher(cfg config.AuditConfig, log logger.Logger, opts ...KafkaOption) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.LeastBytes{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           10 * time.Millisecond,
		Async:                  false,
		AllowAutoTopicCreation: true,
	}
	return NewKafkaPublisherWithWriter(writer, cfg.WriteTimeout, log, opts...)
}

// NewKafkaPublisherWithWriter wraps an existing writer.
func NewKafkaPublisherWithWriter(w MessageWriter, writeTimeout time.Duration, log logger.Logger, opts ...KafkaOption) *KafkaPublisher {
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}
	p := &KafkaPublisher{
		writer:       w,
		writeTimeout: writeTimeout,
		logger:       log.WithComponent("audit_kafka"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish sends event. The write is bounded by the configured timeout.
func (p *KafkaPublisher) Publish(ctx context.Context, event service.AuditEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(event.Type),
		Value: payload,
		Time:  event.OccurredAt,
	}
	if len(p.signingKey) > 0 {
		msg.Headers = append(msg.Headers, kafka.Header{Key: SignatureHeader, Value: []byte(Sign(payload, p.signingKey))})
	}

	writeCtx, cancel := context.WithTimeout(ctx, p.writeTimeout)
	defer cancel()
	if err := p.writer.WriteMessages(writeCtx, msg); err != nil {
		p.logger.Error(ctx, "Failed to write audit event to Kafka", err, logger.String("type", string(event.Type)))
		return err
	}
	return nil
}

// Close flushes and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
