package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/kpidash/internal/application/dto"
	"github.com/turtacn/kpidash/internal/interfaces/http/middleware"
)

// PageHandler returns page descriptors in place of rendered pages.
type PageHandler struct{}

// NewPageHandler creates a new PageHandler.
func NewPageHandler() *PageHandler {
	return &PageHandler{}
}

// Home handles GET /. It runs behind ResolveAuthContext.
func (h *PageHandler) Home(c *gin.Context) {
	page := dto.PageDescriptor{Page: "dashboard"}
	if authCtx, ok := middleware.AuthContextFrom(c); ok {
		page.UserID = authCtx.UserID
		page.OrganizationID = authCtx.OrganizationID
	}
	dto.SendSuccess(c, http.StatusOK, page)
}

// Login handles GET /login.
func (h *PageHandler) Login(c *gin.Context) {
	dto.SendSuccess(c, http.StatusOK, dto.PageDescriptor{Page: "login"})
}

// Signup handles GET /signup.
func (h *PageHandler) Signup(c *gin.Context) {
	dto.SendSuccess(c, http.StatusOK, dto.PageDescriptor{Page: "signup"})
}
