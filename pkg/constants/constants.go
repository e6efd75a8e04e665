// Package constants defines system-wide constants for the kpidash service.
// This package provides type-safe constant definitions used across all modules.
package constants

import "time"

// ================================================================================
// Environment Constants
// ================================================================================

// Environment designates the runtime environment of the process.
type Environment string

const (
	// EnvironmentDevelopment enables local shortcuts such as the fixed auth identity
	EnvironmentDevelopment Environment = "development"

	// EnvironmentProduction enforces session authentication on every request
	EnvironmentProduction Environment = "production"

	// EnvironmentTest behaves like production but is used by automated suites
	EnvironmentTest Environment = "test"
)

// Valid reports whether the environment is one of the recognized designations.
func (e Environment) Valid() bool {
	switch e {
	case EnvironmentDevelopment, EnvironmentProduction, EnvironmentTest:
		return true
	}
	return false
}

// IsDevelopment reports whether the environment is development.
func (e Environment) IsDevelopment() bool {
	return e == EnvironmentDevelopment
}

// ================================================================================
// Development Identity
// ================================================================================

const (
	// DevUserID is the fixed user identity returned in development mode
	DevUserID = "dev-user-001"

	// DevOrganizationID is the fixed organization identity returned in development mode
	DevOrganizationID = "org-001"
)

// ================================================================================
// Rate Limit Constants
// ================================================================================

// RouteTier is a named class of routes sharing one rate limit configuration.
type RouteTier string

const (
	// RouteTierNone marks routes that are not throttled by the admission layer
	RouteTierNone RouteTier = "none"

	// RouteTierAuth covers login, signup and auth callback routes
	RouteTierAuth RouteTier = "auth"

	// RouteTierAPI covers general API routes
	RouteTierAPI RouteTier = "api"

	// RouteTierExpensiveQuery covers database-heavy aggregation endpoints, keyed per user
	RouteTierExpensiveQuery RouteTier = "expensive_query"
)

const (
	// APIRateLimitWindow is the window of the general API tier (1 minute)
	APIRateLimitWindow = 60 * time.Second

	// APIRateLimitMax is the quota of the general API tier
	APIRateLimitMax = 60

	// AuthRateLimitWindow is the window of the auth tier (15 minutes)
	AuthRateLimitWindow = 15 * time.Minute

	// AuthRateLimitMax is the quota of the auth tier
	AuthRateLimitMax = 5

	// ExpensiveQueryRateLimitWindow is the window of the expensive query tier (1 minute)
	ExpensiveQueryRateLimitWindow = 60 * time.Second

	// ExpensiveQueryRateLimitMax is the quota of the expensive query tier
	ExpensiveQueryRateLimitMax = 10

	// MemoryStoreCleanupThreshold is the entry count above which the in-memory
	// counter store sweeps expired records
	MemoryStoreCleanupThreshold = 10_000

	// CacheKeyPrefixRateLimit is the prefix for rate limiting counters in Redis
	CacheKeyPrefixRateLimit = "kpidash:rl:"

	// CacheKeyPrefixRevokedSession is the prefix for revoked session token IDs in Redis
	CacheKeyPrefixRevokedSession = "kpidash:revoked:"

	// IdentityUnknown is the sentinel network address used when none can be derived
	IdentityUnknown = "unknown"
)

// ================================================================================
// HTTP Header Constants
// ================================================================================

const (
	HeaderForwardedFor       = "X-Forwarded-For"
	HeaderRealIP             = "X-Real-IP"
	HeaderRetryAfter         = "Retry-After"
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRateLimitReset     = "X-RateLimit-Reset"
	HeaderRequestID          = "X-Request-ID"
	HeaderAuthorization      = "Authorization"
)

// ================================================================================
// Session Constants
// ================================================================================

const (
	// SessionCookieName is the cookie carrying the signed session token
	SessionCookieName = "kpidash_session"

	// SessionDefaultTTL is the default lifetime of a session token
	SessionDefaultTTL = 12 * time.Hour

	// SessionIssuer is the iss claim of session tokens
	SessionIssuer = "kpidash"
)

// ================================================================================
// Log Level Constants
// ================================================================================

// LogLevel represents the severity level of log messages
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// ================================================================================
// Context Key Constants
// ================================================================================

// ContextKey represents keys used in context.Context
type ContextKey string

const (
	// ContextKeyRequestID is the key for request ID in context
	ContextKeyRequestID ContextKey = "request_id"

	// ContextKeyAuthContext is the key for the resolved AuthContext
	ContextKeyAuthContext ContextKey = "auth_context"

	// ContextKeyRateLimitDecision is the key for the last admission decision
	ContextKeyRateLimitDecision ContextKey = "rate_limit_decision"

	// ContextKeyLogger is the key for a request-scoped logger
	ContextKeyLogger ContextKey = "logger"
)

// ================================================================================
// Audit Event Constants
// ================================================================================

// AuditEventType identifies a security-relevant event
type AuditEventType string

const (
	AuditEventRateLimitExceeded  AuditEventType = "rate_limit_exceeded"
	AuditEventLoginSucceeded     AuditEventType = "login_succeeded"
	AuditEventLoginFailed        AuditEventType = "login_failed"
	AuditEventSignup             AuditEventType = "signup"
	AuditEventLogout             AuditEventType = "logout"
	AuditEventOrganizationAbsent AuditEventType = "organization_not_found"
)
