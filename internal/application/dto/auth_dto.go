package dto

import "time"

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required" validate:"required,email"`
	Password string `json:"password" binding:"required" validate:"required"`
}

// SignupRequest is the body of POST /api/auth/signup.
type SignupRequest struct {
	Email            string `json:"email" binding:"required" validate:"required,email"`
	Password         string `json:"password" binding:"required" validate:"required,min=8,max=128"`
	OrganizationName string `json:"organizationName" binding:"required" validate:"required,max=200"`
}

// SessionResponse is returned by login and signup. The token travels in a
// cookie and is never serialized into the body.
type SessionResponse struct {
	UserID         string    `json:"userId"`
	OrganizationID string    `json:"organizationId"`
	Token          string    `json:"-"`
	ExpiresAt      time.Time `json:"-"`
}
