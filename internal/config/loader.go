package config

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/turtacn/kpidash/pkg/constants"
	"github.com/turtacn/kpidash/pkg/errors"
	"github.com/turtacn/kpidash/pkg/logger"
)

// EnvPrefix prefixes every environment override, e.g. KPIDASH_REDIS_URL.
const EnvPrefix = "KPIDASH"

// Loader reads configuration from an optional YAML file and the environment.
type Loader struct {
	v   *viper.Viper
	log logger.Logger
	mu  sync.Mutex
}

// NewLoader creates a loader. configFile may be empty, in which case
// config.yaml is searched in /etc/kpidash/ and the working directory.
func NewLoader(configFile string, log logger.Logger) *Loader {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/kpidash/")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Loader{v: v, log: log}
}

// Load reads and validates the configuration.
func (l *Loader) Load() (*Config, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.ErrInvalidConfig.WithMessage("failed to read config file").WithCause(err)
		}
		l.log.Debug(context.Background(), "No config file found, using defaults and environment")
	}
	return l.decode()
}

// Watch reloads the file on change and passes every valid configuration to
// onChange. Invalid edits are logged and ignored.
func (l *Loader) Watch(onChange func(*Config)) {
	l.v.OnConfigChange(func(e fsnotify.Event) {
		l.mu.Lock()
		cfg, err := l.decode()
		l.mu.Unlock()
		if err != nil {
			l.log.Error(context.Background(), "Ignoring invalid configuration change", err, logger.String("file", e.Name))
			return
		}
		l.log.Info(context.Background(), "Configuration reloaded", logger.String("file", e.Name), logger.String("op", e.Op.String()))
		onChange(cfg)
	})
	l.v.WatchConfig()
}

func (l *Loader) decode() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, errors.ErrInvalidConfig.WithMessage("failed to unmarshal config").WithCause(err)
	}
	cfg.Environment = constants.Environment(strings.ToLower(strings.TrimSpace(string(cfg.Environment))))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadConfig loads the configuration from the default locations and the environment.
func LoadConfig(log logger.Logger) (*Config, error) {
	return NewLoader("", log).Load()
}

func setDefaults(v *viper.Viper) {
	// Registered empty so that KPIDASH_ENVIRONMENT is picked up by Unmarshal.
	v.SetDefault("environment", "")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.enable_pprof", false)
	v.SetDefault("server.cors_allowed_origins", []string{})

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "kpidash")
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", "kpidash")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", time.Hour)
	v.SetDefault("database.max_conn_idle_time", 30*time.Minute)
	v.SetDefault("database.conn_timeout", 10*time.Second)

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.token", "")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("redis.read_timeout", 3*time.Second)
	v.SetDefault("redis.write_timeout", 3*time.Second)

	v.SetDefault("session.secret", "")
	v.SetDefault("session.vault_path", "")
	v.SetDefault("session.vault_key", "session_secret")
	v.SetDefault("session.ttl", constants.SessionDefaultTTL)
	v.SetDefault("session.cookie_secure", true)
	v.SetDefault("session.cookie_domain", "")

	v.SetDefault("vault.address", "")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.mount_path", "secret")

	v.SetDefault("rate_limit.api.window", constants.APIRateLimitWindow)
	v.SetDefault("rate_limit.api.max_requests", constants.APIRateLimitMax)
	v.SetDefault("rate_limit.auth.window", constants.AuthRateLimitWindow)
	v.SetDefault("rate_limit.auth.max_requests", constants.AuthRateLimitMax)
	v.SetDefault("rate_limit.expensive_query.window", constants.ExpensiveQueryRateLimitWindow)
	v.SetDefault("rate_limit.expensive_query.max_requests", constants.ExpensiveQueryRateLimitMax)
	v.SetDefault("rate_limit.cleanup_threshold", constants.MemoryStoreCleanupThreshold)

	v.SetDefault("audit.kafka_brokers", []string{})
	v.SetDefault("audit.topic", "kpidash.audit")
	v.SetDefault("audit.write_timeout", 5*time.Second)
	v.SetDefault("audit.signing_key", "")

	v.SetDefault("log.level", string(constants.LogLevelInfo))
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output_path", "stdout")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.jaeger_endpoint", "")
	v.SetDefault("tracing.service_name", "kpidash")
	v.SetDefault("tracing.sample_rate", 1.0)
}
