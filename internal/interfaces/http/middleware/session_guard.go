package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/kpidash/internal/domain/models"
	"github.com/turtacn/kpidash/pkg/constants"
	"github.com/turtacn/kpidash/pkg/errors"
	"github.com/turtacn/kpidash/pkg/logger"
)

// TokenVerifier checks a session token.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*models.Session, error)
}

func isPublicPage(path string) bool {
	return path == "/login" || path == "/signup" || strings.HasPrefix(path, "/auth/")
}

func isAccountPage(path string) bool {
	return path == "/login" || path == "/signup"
}

// SessionGuard redirects page requests. Without a valid session, non-public
// pages go to /login; with one, /login and /signup go to /. It is a no-op in
// development.
func SessionGuard(env constants.Environment, verifier TokenVerifier, log logger.Logger) gin.HandlerFunc {
	log = log.WithComponent("session_guard")
	return func(c *gin.Context) {
		if env.IsDevelopment() {
			c.Next()
			return
		}
		path := c.Request.URL.Path
		authenticated := false
		if token := SessionToken(c); token != "" {
			_, err := verifier.VerifyToken(c.Request.Context(), token)
			switch {
			case err == nil:
				authenticated = true
			case !errors.Is(err, errors.ErrUnauthorized):
				log.Error(c.Request.Context(), "Session check failed", err, logger.String("path", path))
			}
		}

		switch {
		case !authenticated && !isPublicPage(path):
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
		case authenticated && isAccountPage(path):
			c.Redirect(http.StatusFound, "/")
			c.Abort()
		default:
			c.Next()
		}
	}
}
