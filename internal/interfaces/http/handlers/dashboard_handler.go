package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/kpidash/internal/application/dto"
	"github.com/turtacn/kpidash/internal/application/service"
	"github.com/turtacn/kpidash/internal/domain/models"
	"github.com/turtacn/kpidash/internal/interfaces/http/middleware"
	"github.com/turtacn/kpidash/pkg/errors"
	"github.com/turtacn/kpidash/pkg/utils"
)

// DashboardHandler serves the dashboard data endpoints. Every route runs
// behind ResolveAuthContext.
type DashboardHandler struct {
	dashboard service.DashboardAppService
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(dashboard service.DashboardAppService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// KPIs handles GET /api/kpi.
func (h *DashboardHandler) KPIs(c *gin.Context) {
	respond(c, func(authCtx *models.AuthContext) (interface{}, error) {
		return h.dashboard.KPIs(c.Request.Context(), authCtx)
	})
}

// Leads handles GET /api/leads?viewType=conversion|location.
func (h *DashboardHandler) Leads(c *gin.Context) {
	var query dto.LeadsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		dto.SendError(c, errors.ErrInvalidRequest.WithCause(err))
		return
	}
	if err := utils.ValidateStruct(&query); err != nil {
		dto.SendError(c, err)
		return
	}
	respond(c, func(authCtx *models.AuthContext) (interface{}, error) {
		rows, err := h.dashboard.Leads(c.Request.Context(), authCtx, query.View())
		if err != nil {
			return nil, err
		}
		return dto.LeadsResponse{ViewType: query.View(), Sources: rows}, nil
	})
}

// Tasks handles GET /api/tasks.
func (h *DashboardHandler) Tasks(c *gin.Context) {
	respond(c, func(authCtx *models.AuthContext) (interface{}, error) {
		return h.dashboard.Tasks(c.Request.Context(), authCtx)
	})
}

// Employees handles GET /api/employees.
func (h *DashboardHandler) Employees(c *gin.Context) {
	respond(c, func(authCtx *models.AuthContext) (interface{}, error) {
		return h.dashboard.Employees(c.Request.Context(), authCtx)
	})
}

// Appointments handles GET /api/appointments.
func (h *DashboardHandler) Appointments(c *gin.Context) {
	respond(c, func(authCtx *models.AuthContext) (interface{}, error) {
		return h.dashboard.Appointments(c.Request.Context(), authCtx)
	})
}

func respond(c *gin.Context, fetch func(*models.AuthContext) (interface{}, error)) {
	authCtx, ok := middleware.AuthContextFrom(c)
	if !ok {
		dto.SendError(c, errors.ErrUnauthorized)
		return
	}
	data, err := fetch(authCtx)
	if err != nil {
		dto.SendError(c, err)
		return
	}
	dto.SendSuccess(c, http.StatusOK, data)
}
