package handlers_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/kpidash/internal/application/dto"
	"github.com/turtacn/kpidash/internal/config"
	"github.com/turtacn/kpidash/internal/domain/models"
	"github.com/turtacn/kpidash/internal/interfaces/http/handlers"
	"github.com/turtacn/kpidash/pkg/constants"
	"github.com/turtacn/kpidash/pkg/errors"
	"github.com/turtacn/kpidash/pkg/logger"
)

func authRouter(svc *MockSessionAppService) *gin.Engine {
	h := handlers.NewAuthHandler(svc, config.SessionConfig{CookieSecure: true}, logger.NewNoopLogger())
	r := gin.New()
	r.POST("/api/auth/login", h.Login)
	r.POST("/api/auth/signup", h.Signup)
	r.POST("/api/auth/logout", h.Logout)
	r.GET("/auth/callback", h.Callback)
	return r
}

func TestAuthHandler_LoginSetsCookie(t *testing.T) {
	svc := new(MockSessionAppService)
	svc.On("Login", mock.Anything, &dto.LoginRequest{Email: "a@example.com", Password: "secret"}).
		Return(&dto.SessionResponse{UserID: "u1", OrganizationID: "org-1", Token: "tok", ExpiresAt: time.Now().Add(time.Hour)}, nil)

	w := do(authRouter(svc), http.MethodPost, "/api/auth/login", `{"email":"a@example.com","password":"secret"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true,"data":{"userId":"u1","organizationId":"org-1"}}`, w.Body.String())

	cookie := sessionCookie(w)
	require.NotNil(t, cookie)
	assert.Equal(t, "tok", cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.Greater(t, cookie.MaxAge, 3500)
	svc.AssertExpectations(t)
}

func TestAuthHandler_LoginFailures(t *testing.T) {
	svc := new(MockSessionAppService)
	svc.On("Login", mock.Anything, mock.Anything).Return(nil, errors.ErrInvalidCredentials)
	r := authRouter(svc)

	w := do(r, http.MethodPost, "/api/auth/login", `{"email":"a@example.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid_credentials", envelope(t, w)["error"].(map[string]interface{})["code"])
	assert.Nil(t, sessionCookie(w))

	w = do(r, http.MethodPost, "/api/auth/login", `{"email":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_request", envelope(t, w)["error"].(map[string]interface{})["code"])
}

func TestAuthHandler_Signup(t *testing.T) {
	svc := new(MockSessionAppService)
	svc.On("Signup", mock.Anything, mock.MatchedBy(func(req *dto.SignupRequest) bool {
		return req.OrganizationName == "Acme"
	})).Return(&dto.SessionResponse{UserID: "u1", OrganizationID: "org-1", Token: "tok", ExpiresAt: time.Now().Add(time.Hour)}, nil).Once()
	svc.On("Signup", mock.Anything, mock.Anything).Return(nil, errors.ErrConflict).Once()
	r := authRouter(svc)

	w := do(r, http.MethodPost, "/api/auth/signup", `{"email":"a@example.com","password":"longenough","organizationName":"Acme"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, sessionCookie(w))

	w = do(r, http.MethodPost, "/api/auth/signup", `{"email":"a@example.com","password":"longenough","organizationName":"Other"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "conflict", envelope(t, w)["error"].(map[string]interface{})["code"])
}

func TestAuthHandler_LogoutClearsCookie(t *testing.T) {
	svc := new(MockSessionAppService)
	svc.On("Logout", mock.Anything, "tok").Return(nil)

	w := do(authRouter(svc), http.MethodPost, "/api/auth/logout", "", func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: constants.SessionCookieName, Value: "tok"})
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())
	cookie := sessionCookie(w)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.Negative(t, cookie.MaxAge)
}

func TestAuthHandler_Callback(t *testing.T) {
	svc := new(MockSessionAppService)
	svc.On("VerifyToken", mock.Anything, "good").Return(&models.Session{UserID: "u1", ExpiresAt: time.Now().Add(time.Hour)}, nil)
	svc.On("VerifyToken", mock.Anything, mock.Anything).Return(nil, errors.ErrUnauthorized)
	r := authRouter(svc)

	tests := []struct {
		name     string
		target   string
		location string
		cookie   bool
	}{
		{"valid token with next", "/auth/callback?token=good&next=%2Fleads", "/leads", true},
		{"valid token default next", "/auth/callback?token=good", "/", true},
		{"absolute next is ignored", "/auth/callback?token=good&next=https%3A%2F%2Fevil.example", "/", true},
		{"protocol relative next is ignored", "/auth/callback?token=good&next=%2F%2Fevil.example", "/", true},
		{"invalid token", "/auth/callback?token=bad&next=%2Fleads", "/login?error=invalid_token", false},
		{"missing token", "/auth/callback", "/login?error=invalid_token", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, http.MethodGet, tt.target, "")
			assert.Equal(t, http.StatusFound, w.Code)
			assert.Equal(t, tt.location, w.Header().Get("Location"))
			assert.Equal(t, tt.cookie, sessionCookie(w) != nil)
		})
	}
}
