package audit

import (
	"context"

	"github.com/turtacn/kpidash/internal/config"
	"github.com/turtacn/kpidash/internal/domain/service"
	"github.com/turtacn/kpidash/pkg/logger"
)

// LogPublisher writes audit events to the structured log. It is used when no
// Kafka brokers are configured.
type LogPublisher struct {
	logger logger.Logger
}

// NewLogPublisher creates a LogPublisher.
func NewLogPublisher(log logger.Logger) *LogPublisher {
	return &LogPublisher{logger: log.WithComponent("audit")}
}

func (p *LogPublisher) Publish(ctx context.Context, event service.AuditEvent) error {
	p.logger.Info(ctx, "Audit event",
		logger.String("type", string(event.Type)),
		logger.String("identity", event.Identity),
		logger.String("path", event.Path),
		logger.String("tier", string(event.Tier)),
		logger.String("detail", event.Detail),
		logger.Time("occurred_at", event.OccurredAt),
	)
	return nil
}

func (p *LogPublisher) Close() error { return nil }

// NewPublisher picks Kafka when brokers and a topic are configured.
func NewPublisher(cfg config.AuditConfig, log logger.Logger, opts ...KafkaOption) service.AuditPublisher {
	if cfg.Enabled() {
		log.Info(context.Background(), "Audit events go to Kafka", logger.String("topic", cfg.Topic))
		if cfg.SigningKey != "" {
			opts = append([]KafkaOption{WithSigningKey([]byte(cfg.SigningKey))}, opts...)
		}
		return NewKafkaPublisher(cfg, log, opts...)
	}
	return NewLogPublisher(log)
}
