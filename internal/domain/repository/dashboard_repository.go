package repository

import (
	"context"
	"time"

	"github.com/turtacn/kpidash/internal/domain/models"
)

// DashboardRepository reads the organization-scoped rows behind dashboard widgets.
// Every query filters by organizationID; callers obtain it from a resolved AuthContext.
type DashboardRepository interface {
	LatestKPIMetrics(ctx context.Context, organizationID string, since time.Time) ([]models.KPIMetric, error)
	LeadSources(ctx context.Context, organizationID string, view models.LeadsView) ([]models.LeadSourceCount, error)
	OpenTasks(ctx context.Context, organizationID string, limit int) ([]models.Task, error)
	Employees(ctx context.Context, organizationID string) ([]models.Employee, error)
	UpcomingAppointments(ctx context.Context, organizationID string, from time.Time, limit int) ([]models.Appointment, error)
}
