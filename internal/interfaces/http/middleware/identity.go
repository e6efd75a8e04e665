package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/turtacn/kpidash/pkg/constants"
)

// Identify returns the rate-limit identity of a request: "user:{id}" when the
// user is known, otherwise "ip:{addr}". The address is the first
// X-Forwarded-For entry, then X-Real-IP, then the RemoteAddr host.
func Identify(r *http.Request, userID string) string {
	if userID != "" {
		return "user:" + userID
	}
	return "ip:" + clientAddress(r)
}

// UserScopedKey is the key of a per-user, per-scope quota.
func UserScopedKey(userID, scope string) string {
	return "user:" + userID + ":" + scope
}

func clientAddress(r *http.Request) string {
	if forwarded := r.Header.Get(constants.HeaderForwardedFor); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get(constants.HeaderRealIP)); realIP != "" {
		return realIP
	}
	if r.RemoteAddr != "" {
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
			return host
		}
		return r.RemoteAddr
	}
	return constants.IdentityUnknown
}
