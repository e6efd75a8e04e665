package utils

import (
	"net/url"
	"strings"
)

// MaskEmail masks email address (e.g., "test@example.com" -> "t**t@example.com")
func MaskEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return "***"
	}

	localPart := parts[0]
	domain := parts[1]

	if len(localPart) <= 2 {
		return strings.Repeat("*", len(localPart)) + "@" + domain
	}

	masked := string(localPart[0]) + strings.Repeat("*", len(localPart)-2) + string(localPart[len(localPart)-1])
	return masked + "@" + domain
}

// MaskToken masks a token, showing only first 8 characters
func MaskToken(token string) string {
	if len(token) <= 8 {
		return strings.Repeat("*", len(token))
	}
	return token[:8] + strings.Repeat("*", len(token)-8)
}

// StringPtr returns a pointer to the string value
func StringPtr(s string) *string {
	return &s
}

// SafeRedirectPath returns next when it is a same-origin relative path,
// otherwise fallback. Protocol-relative ("//host") and absolute URLs are rejected.
func SafeRedirectPath(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}
	u, err := url.Parse(next)
	if err != nil || u.IsAbs() || u.Host != "" {
		return fallback
	}
	return next
}
