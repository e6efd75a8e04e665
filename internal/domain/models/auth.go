package models

import (
	"fmt"
	"time"
)

// AuthContext is the resolved caller identity for a request.
// Both fields are always populated together; build it through NewAuthContext.
type AuthContext struct {
	UserID         string `json:"userId"`
	OrganizationID string `json:"organizationId"`
}

// NewAuthContext returns a context only when both identifiers are present.
func NewAuthContext(userID, organizationID string) (*AuthContext, error) {
	if userID == "" || organizationID == "" {
		return nil, fmt.Errorf("auth context requires both user and organization, got user=%q organization=%q", userID, organizationID)
	}
	return &AuthContext{UserID: userID, OrganizationID: organizationID}, nil
}

// Session is the verified payload of a session token.
type Session struct {
	UserID    string
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
