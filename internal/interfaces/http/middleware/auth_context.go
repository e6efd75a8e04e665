package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/kpidash/internal/application/dto"
	"github.com/turtacn/kpidash/internal/domain/models"
	"github.com/turtacn/kpidash/pkg/constants"
)

// AuthResolver turns a session token into an auth context.
type AuthResolver interface {
	Resolve(ctx context.Context, sessionToken string) (*models.AuthContext, error)
}

// SessionToken returns the session token from the session cookie, falling
// back to an Authorization bearer token.
func SessionToken(c *gin.Context) string {
	if cookie, err := c.Cookie(constants.SessionCookieName); err == nil && cookie != "" {
		return cookie
	}
	scheme, token, ok := strings.Cut(c.GetHeader(constants.HeaderAuthorization), " ")
	if ok && strings.EqualFold(scheme, "bearer") {
		return strings.TrimSpace(token)
	}
	return ""
}

// ResolveAuthContext resolves the caller and stores the result on the context.
// Unauthenticated callers get 401 and callers without an organization get 404.
func ResolveAuthContext(resolver AuthResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		authCtx, err := resolver.Resolve(c.Request.Context(), SessionToken(c))
		if err != nil {
			dto.AbortWithError(c, err)
			return
		}
		c.Set(string(constants.ContextKeyAuthContext), authCtx)
		c.Next()
	}
}

// AuthContextFrom returns the context stored by ResolveAuthContext.
func AuthContextFrom(c *gin.Context) (*models.AuthContext, bool) {
	v, ok := c.Get(string(constants.ContextKeyAuthContext))
	if !ok {
		return nil, false
	}
	authCtx, ok := v.(*models.AuthContext)
	return authCtx, ok && authCtx != nil
}
