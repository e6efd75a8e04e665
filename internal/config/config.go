// Package config defines the kpidash service configuration and its loader.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/turtacn/kpidash/internal/domain/models"
	"github.com/turtacn/kpidash/pkg/constants"
	"github.com/turtacn/kpidash/pkg/errors"
	"github.com/turtacn/kpidash/pkg/utils"
)

// Config holds the application's configuration.
type Config struct {
	// Environment has no default; it must be set explicitly.
	Environment constants.Environment `mapstructure:"environment" validate:"required,oneof=development production test"`

	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Session   SessionConfig   `mapstructure:"session"`
	Vault     VaultConfig     `mapstructure:"vault"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Audit     AuditConfig     `mapstructure:"audit"`
	Log       LogConfig       `mapstructure:"log"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
}

type ServerConfig struct {
	Host               string        `mapstructure:"host"`
	Port               int           `mapstructure:"port" validate:"min=1,max=65535"`
	ReadTimeout        time.Duration `mapstructure:"read_timeout" validate:"gt=0"`
	WriteTimeout       time.Duration `mapstructure:"write_timeout" validate:"gt=0"`
	ShutdownTimeout    time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
	EnablePprof        bool          `mapstructure:"enable_pprof"`
	CORSAllowedOrigins []string      `mapstructure:"cors_allowed_origins"`
}

// Addr returns the listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host" validate:"required"`
	Port            int           `mapstructure:"port" validate:"min=1,max=65535"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database" validate:"required"`
	SSLMode         string        `mapstructure:"ssl_mode" validate:"oneof=disable allow prefer require verify-ca verify-full"`
	MaxConns        int           `mapstructure:"max_conns" validate:"min=1"`
	MinConns        int           `mapstructure:"min_conns" validate:"min=0"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
	ConnTimeout     time.Duration `mapstructure:"conn_timeout"`
}

// GetDSN returns the libpq keyword/value connection string.
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// RedisConfig locates the shared counter store. The store is only used when
// both URL and Token are set.
type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	Token        string        `mapstructure:"token"`
	PoolSize     int           `mapstructure:"pool_size" validate:"min=0"`
	MinIdleConns int           `mapstructure:"min_idle_conns" validate:"min=0"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Enabled reports whether the shared store is configured.
func (c RedisConfig) Enabled() bool {
	return c.URL != "" && c.Token != ""
}

type SessionConfig struct {
	Secret       string        `mapstructure:"secret"`
	VaultPath    string        `mapstructure:"vault_path"`
	VaultKey     string        `mapstructure:"vault_key"`
	TTL          time.Duration `mapstructure:"ttl" validate:"gt=0"`
	CookieSecure bool          `mapstructure:"cookie_secure"`
	CookieDomain string        `mapstructure:"cookie_domain"`
}

type VaultConfig struct {
	Address   string `mapstructure:"address"`
	Token     string `mapstructure:"token"`
	MountPath string `mapstructure:"mount_path"`
}

// TierConfig is the quota of one throttled route tier.
type TierConfig struct {
	Window      time.Duration `mapstructure:"window" validate:"gt=0"`
	MaxRequests int64         `mapstructure:"max_requests" validate:"gt=0"`
}

func (t TierConfig) toModel() models.RateLimitConfig {
	return models.RateLimitConfig{Window: t.Window, MaxRequests: t.MaxRequests}
}

type RateLimitConfig struct {
	API              TierConfig `mapstructure:"api"`
	Auth             TierConfig `mapstructure:"auth"`
	ExpensiveQuery   TierConfig `mapstructure:"expensive_query"`
	CleanupThreshold int        `mapstructure:"cleanup_threshold" validate:"gt=0"`
}

// Tiers returns the configured quota per tier.
func (c RateLimitConfig) Tiers() map[constants.RouteTier]models.RateLimitConfig {
	return map[constants.RouteTier]models.RateLimitConfig{
		constants.RouteTierAPI:            c.API.toModel(),
		constants.RouteTierAuth:           c.Auth.toModel(),
		constants.RouteTierExpensiveQuery: c.ExpensiveQuery.toModel(),
	}
}

type AuditConfig struct {
	KafkaBrokers []string      `mapstructure:"kafka_brokers"`
	Topic        string        `mapstructure:"topic"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// SigningKey, when set, adds an HMAC signature header to every message.
	SigningKey string `mapstructure:"signing_key"`
}

// Enabled reports whether audit events go to Kafka.
func (c AuditConfig) Enabled() bool {
	return len(c.KafkaBrokers) > 0 && c.Topic != ""
}

type LogConfig struct {
	Level      string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format     string `mapstructure:"format" validate:"oneof=json console"`
	OutputPath string `mapstructure:"output_path"`
}

type TracingConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	JaegerEndpoint string  `mapstructure:"jaeger_endpoint"`
	ServiceName    string  `mapstructure:"service_name"`
	SampleRate     float64 `mapstructure:"sample_rate" validate:"min=0,max=1"`
}

// Validate checks the whole configuration.
func (c *Config) Validate() error {
	if err := utils.Validator().Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", configKey(fe.Namespace()), fe.Tag()))
			}
			return errors.InvalidConfig("invalid configuration: %s", strings.Join(fields, ", "))
		}
		return errors.ErrInvalidConfig.WithCause(err)
	}

	if c.Redis.URL != "" {
		if _, err := url.Parse(c.Redis.URL); err != nil {
			return errors.InvalidConfig("invalid redis.url: %v", err)
		}
	}
	if !c.Environment.IsDevelopment() && c.Session.Secret == "" && c.Session.VaultPath == "" {
		return errors.InvalidConfig("session.secret or session.vault_path is required in %s", c.Environment)
	}
	if c.Session.VaultPath != "" && c.Vault.Address == "" {
		return errors.InvalidConfig("vault.address is required when session.vault_path is set")
	}
	if c.Tracing.Enabled && c.Tracing.JaegerEndpoint == "" {
		return errors.InvalidConfig("tracing.jaeger_endpoint is required when tracing is enabled")
	}
	return nil
}

// configKey turns "Config.RateLimit.API.MaxRequests" into "rate_limit.api.max_requests".
func configKey(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, p := range parts {
		parts[i] = utils.ToSnakeCase(p)
	}
	return strings.Join(parts, ".")
}
