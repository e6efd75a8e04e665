package handlers

import (
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/kpidash/internal/application/dto"
	"github.com/turtacn/kpidash/internal/application/service"
	"github.com/turtacn/kpidash/internal/config"
	"github.com/turtacn/kpidash/internal/interfaces/http/middleware"
	"github.com/turtacn/kpidash/pkg/constants"
	"github.com/turtacn/kpidash/pkg/errors"
	"github.com/turtacn/kpidash/pkg/logger"
	"github.com/turtacn/kpidash/pkg/utils"
)

// AuthHandler handles login, signup, logout and the session callback.
type AuthHandler struct {
	sessions service.SessionAppService
	cookie   config.SessionConfig
	logger   logger.Logger
	now      func() time.Time
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(sessions service.SessionAppService, cookie config.SessionConfig, log logger.Logger) *AuthHandler {
	return &AuthHandler{
		sessions: sessions,
		cookie:   cookie,
		logger:   log.WithComponent("auth_handler"),
		now:      time.Now,
	}
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.SendError(c, errors.ErrInvalidRequest.WithCause(err))
		return
	}
	resp, err := h.sessions.Login(c.Request.Context(), &req)
	if err != nil {
		dto.SendError(c, err)
		return
	}
	h.setSessionCookie(c, resp.Token, resp.ExpiresAt)
	dto.SendSuccess(c, http.StatusOK, resp)
}

// Signup handles POST /api/auth/signup.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req dto.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.SendError(c, errors.ErrInvalidRequest.WithCause(err))
		return
	}
	resp, err := h.sessions.Signup(c.Request.Context(), &req)
	if err != nil {
		dto.SendError(c, err)
		return
	}
	h.setSessionCookie(c, resp.Token, resp.ExpiresAt)
	dto.SendSuccess(c, http.StatusCreated, resp)
}

// Logout handles POST /api/auth/logout. The cookie is cleared even when the
// token was already invalid.
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.sessions.Logout(c.Request.Context(), middleware.SessionToken(c)); err != nil {
		dto.SendError(c, err)
		return
	}
	h.clearSessionCookie(c)
	dto.SendSuccess(c, http.StatusOK, nil)
}

// Callback handles GET /auth/callback?token=…&next=…, which hands a session
// token to the browser and redirects into the app.
func (h *AuthHandler) Callback(c *gin.Context) {
	token := c.Query("token")
	session, err := h.sessions.VerifyToken(c.Request.Context(), token)
	if err != nil {
		if !errors.Is(err, errors.ErrUnauthorized) {
			h.logger.Error(c.Request.Context(), "Callback token verification failed", err)
		}
		c.Redirect(http.StatusFound, "/login?error="+url.QueryEscape("invalid_token"))
		return
	}
	h.setSessionCookie(c, token, session.ExpiresAt)
	c.Redirect(http.StatusFound, utils.SafeRedirectPath(c.Query("next"), "/"))
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, token string, expiresAt time.Time) {
	maxAge := int(expiresAt.Sub(h.now()).Seconds())
	if maxAge <= 0 {
		maxAge = int(constants.SessionDefaultTTL.Seconds())
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(constants.SessionCookieName, token, maxAge, "/", h.cookie.CookieDomain, h.cookie.CookieSecure, true)
}

func (h *AuthHandler) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(constants.SessionCookieName, "", -1, "/", h.cookie.CookieDomain, h.cookie.CookieSecure, true)
}
