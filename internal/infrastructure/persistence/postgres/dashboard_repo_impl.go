package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/turtacn/kpidash/internal/domain/models"
	"github.com/turtacn/kpidash/internal/domain/repository"
	"github.com/turtacn/kpidash/pkg/logger"
)

// Querier is the subset of pgxpool.Pool the dashboard queries need.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const (
	latestKPIsSQL = `
SELECT DISTINCT ON (metric_name) metric_name, value, recorded_at
FROM kpi_metrics
WHERE organization_id = $1 AND recorded_at >= $2
ORDER BY metric_name, recorded_at DESC`

	leadsBySourceSQL = `
SELECT source, count(*), count(*) FILTER (WHERE status = 'converted')
FROM leads
WHERE organization_id = $1
GROUP BY source
ORDER BY count(*) DESC, source`

	leadsByLocationSQL = `
SELECT coalesce(location, 'unknown'), count(*), count(*) FILTER (WHERE status = 'converted')
FROM leads
WHERE organization_id = $1
GROUP BY 1
ORDER BY 2 DESC, 1`

	openTasksSQL = `
SELECT id, title, priority, due_date
FROM tasks
WHERE organization_id = $1 AND NOT completed
ORDER BY due_date ASC NULLS LAST, id
LIMIT $2`

	employeesSQL = `
SELECT id, name, role, status
FROM employees
WHERE organization_id = $1
ORDER BY name`

	upcomingAppointmentsSQL = `
SELECT id, title, scheduled_at, status
FROM appointments
WHERE organization_id = $1 AND scheduled_at >= $2
ORDER BY scheduled_at
LIMIT $3`
)

type dashboardRepository struct {
	db     Querier
	logger logger.Logger
}

// NewDashboardRepository creates a DashboardRepository over db.
func NewDashboardRepository(db Querier, log logger.Logger) repository.DashboardRepository {
	return &dashboardRepository{
		db:     db,
		logger: log.WithComponent("dashboard_repository"),
	}
}

func (r *dashboardRepository) LatestKPIMetrics(ctx context.Context, organizationID string, since time.Time) ([]models.KPIMetric, error) {
	return collect(ctx, r, "kpi_metrics", latestKPIsSQL, func(row pgx.CollectableRow) (models.KPIMetric, error) {
		var m models.KPIMetric
		err := row.Scan(&m.Name, &m.Value, &m.RecordedAt)
		return m, err
	}, organizationID, since)
}

func (r *dashboardRepository) LeadSources(ctx context.Context, organizationID string, view models.LeadsView) ([]models.LeadSourceCount, error) {
	query := leadsBySourceSQL
	switch view {
	case models.LeadsViewConversion:
	case models.LeadsViewLocation:
		query = leadsByLocationSQL
	default:
		return nil, fmt.Errorf("unknown leads view %q", view)
	}
	return collect(ctx, r, "leads", query, func(row pgx.CollectableRow) (models.LeadSourceCount, error) {
		var c models.LeadSourceCount
		err := row.Scan(&c.Source, &c.Count, &c.Converted)
		return c, err
	}, organizationID)
}

func (r *dashboardRepository) OpenTasks(ctx context.Context, organizationID string, limit int) ([]models.Task, error) {
	return collect(ctx, r, "tasks", openTasksSQL, func(row pgx.CollectableRow) (models.Task, error) {
		var t models.Task
		err := row.Scan(&t.ID, &t.Title, &t.Priority, &t.DueDate)
		return t, err
	}, organizationID, limit)
}

func (r *dashboardRepository) Employees(ctx context.Context, organizationID string) ([]models.Employee, error) {
	return collect(ctx, r, "employees", employeesSQL, func(row pgx.CollectableRow) (models.Employee, error) {
		var e models.Employee
		err := row.Scan(&e.ID, &e.Name, &e.Role, &e.Status)
		return e, err
	}, organizationID)
}

func (r *dashboardRepository) UpcomingAppointments(ctx context.Context, organizationID string, from time.Time, limit int) ([]models.Appointment, error) {
	return collect(ctx, r, "appointments", upcomingAppointmentsSQL, func(row pgx.CollectableRow) (models.Appointment, error) {
		var a models.Appointment
		err := row.Scan(&a.ID, &a.Title, &a.ScheduledAt, &a.Status)
		return a, err
	}, organizationID, from, limit)
}

// collect runs query and maps every row. An empty result is an empty, non-nil slice.
func collect[T any](ctx context.Context, r *dashboardRepository, table, query string, scan pgx.RowToFunc[T], args ...any) ([]T, error) {
	start := time.Now()
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	out, err := pgx.CollectRows(rows, scan)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", table, err)
	}
	if latency := time.Since(start); latency > slowPingThreshold {
		r.logger.Warn(ctx, "Slow dashboard query",
			logger.String("table", table),
			logger.Int64("latency_ms", latency.Milliseconds()),
		)
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}
