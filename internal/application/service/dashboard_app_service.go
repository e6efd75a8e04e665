package service

import (
	"context"
	"net/http"
	"time"

	"github.com/turtacn/kpidash/internal/domain/models"
	"github.com/turtacn/kpidash/internal/domain/repository"
	"github.com/turtacn/kpidash/pkg/errors"
	"github.com/turtacn/kpidash/pkg/logger"
)

const (
	kpiLookback       = 30 * 24 * time.Hour
	openTasksLimit    = 20
	appointmentsLimit = 10
)

// Fetch error codes per dashboard resource.
const (
	CodeKPIFetchError          = "kpi_fetch_error"
	CodeLeadsFetchError        = "leads_fetch_error"
	CodeTasksFetchError        = "tasks_fetch_error"
	CodeEmployeesFetchError    = "employees_fetch_error"
	CodeAppointmentsFetchError = "appointments_fetch_error"
)

// DashboardAppService serves the organization-scoped dashboard widgets.
type DashboardAppService interface {
	KPIs(ctx context.Context, auth *models.AuthContext) ([]models.KPIMetric, error)
	Leads(ctx context.Context, auth *models.AuthContext, view models.LeadsView) ([]models.LeadSourceCount, error)
	Tasks(ctx context.Context, auth *models.AuthContext) ([]models.Task, error)
	Employees(ctx context.Context, auth *models.AuthContext) ([]models.Employee, error)
	Appointments(ctx context.Context, auth *models.AuthContext) ([]models.Appointment, error)
}

type dashboardAppServiceImpl struct {
	repo   repository.DashboardRepository
	logger logger.Logger
	now    func() time.Time
}

// NewDashboardAppService creates a new instance of DashboardAppService
func NewDashboardAppService(repo repository.DashboardRepository, log logger.Logger) DashboardAppService {
	return &dashboardAppServiceImpl{
		repo:   repo,
		logger: log.WithComponent("dashboard"),
		now:    time.Now,
	}
}

func (s *dashboardAppServiceImpl) KPIs(ctx context.Context, auth *models.AuthContext) ([]models.KPIMetric, error) {
	rows, err := s.repo.LatestKPIMetrics(ctx, auth.OrganizationID, s.now().Add(-kpiLookback))
	return rows, s.fetchError(ctx, err, CodeKPIFetchError, "Failed to fetch KPI data", auth)
}

func (s *dashboardAppServiceImpl) Leads(ctx context.Context, auth *models.AuthContext, view models.LeadsView) ([]models.LeadSourceCount, error) {
	if view != models.LeadsViewConversion && view != models.LeadsViewLocation {
		return nil, errors.ErrInvalidRequest.WithDetail("viewType", "must be one of: conversion location")
	}
	rows, err := s.repo.LeadSources(ctx, auth.OrganizationID, view)
	return rows, s.fetchError(ctx, err, CodeLeadsFetchError, "Failed to fetch leads data", auth)
}

func (s *dashboardAppServiceImpl) Tasks(ctx context.Context, auth *models.AuthContext) ([]models.Task, error) {
	rows, err := s.repo.OpenTasks(ctx, auth.OrganizationID, openTasksLimit)
	return rows, s.fetchError(ctx, err, CodeTasksFetchError, "Failed to fetch tasks", auth)
}

func (s *dashboardAppServiceImpl) Employees(ctx context.Context, auth *models.AuthContext) ([]models.Employee, error) {
	rows, err := s.repo.Employees(ctx, auth.OrganizationID)
	return rows, s.fetchError(ctx, err, CodeEmployeesFetchError, "Failed to fetch employees", auth)
}

func (s *dashboardAppServiceImpl) Appointments(ctx context.Context, auth *models.AuthContext) ([]models.Appointment, error) {
	rows, err := s.repo.UpcomingAppointments(ctx, auth.OrganizationID, s.now(), appointmentsLimit)
	return rows, s.fetchError(ctx, err, CodeAppointmentsFetchError, "Failed to fetch appointments", auth)
}

func (s *dashboardAppServiceImpl) fetchError(ctx context.Context, err error, code, message string, auth *models.AuthContext) error {
	if err == nil {
		return nil
	}
	s.logger.Error(ctx, message, err, logger.String("organization_id", auth.OrganizationID))
	return errors.New(code, http.StatusInternalServerError, message).WithCause(err)
}
