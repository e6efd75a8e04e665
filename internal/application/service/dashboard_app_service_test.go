package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/kpidash/internal/domain/models"
	"github.com/turtacn/kpidash/pkg/errors"
	"github.com/turtacn/kpidash/pkg/logger"
)

func TestDashboardAppService_ScopesByOrganization(t *testing.T) {
	repo := new(MockDashboardRepo)
	auth := &models.AuthContext{UserID: "u", OrganizationID: "org-7"}

	repo.On("LatestKPIMetrics", mock.Anything, "org-7", mock.Anything).Return([]models.KPIMetric{{Name: "revenue", Value: 10}}, nil)
	repo.On("LeadSources", mock.Anything, "org-7", models.LeadsViewLocation).Return([]models.LeadSourceCount{{Source: "Berlin", Count: 3}}, nil)
	repo.On("OpenTasks", mock.Anything, "org-7", 20).Return([]models.Task{}, nil)
	repo.On("Employees", mock.Anything, "org-7").Return([]models.Employee{}, nil)
	repo.On("UpcomingAppointments", mock.Anything, "org-7", mock.Anything, 10).Return([]models.Appointment{}, nil)

	svc := NewDashboardAppService(repo, logger.NewNoopLogger())
	ctx := context.Background()

	kpis, err := svc.KPIs(ctx, auth)
	require.NoError(t, err)
	assert.Len(t, kpis, 1)

	leads, err := svc.Leads(ctx, auth, models.LeadsViewLocation)
	require.NoError(t, err)
	assert.Equal(t, "Berlin", leads[0].Source)

	_, err = svc.Tasks(ctx, auth)
	require.NoError(t, err)
	_, err = svc.Employees(ctx, auth)
	require.NoError(t, err)
	_, err = svc.Appointments(ctx, auth)
	require.NoError(t, err)

	repo.AssertExpectations(t)
}

func TestDashboardAppService_FetchErrors(t *testing.T) {
	repo := new(MockDashboardRepo)
	auth := &models.AuthContext{UserID: "u", OrganizationID: "org-7"}
	repo.On("LatestKPIMetrics", mock.Anything, "org-7", mock.Anything).Return(nil, assert.AnError)
	repo.On("Employees", mock.Anything, "org-7").Return(nil, assert.AnError)

	svc := NewDashboardAppService(repo, logger.NewNoopLogger())

	_, err := svc.KPIs(context.Background(), auth)
	appErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, CodeKPIFetchError, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.HTTPStatus)
	assert.ErrorIs(t, err, assert.AnError)

	_, err = svc.Employees(context.Background(), auth)
	appErr, ok = errors.As(err)
	require.True(t, ok)
	assert.Equal(t, CodeEmployeesFetchError, appErr.Code)
}

func TestDashboardAppService_RejectsUnknownLeadsView(t *testing.T) {
	repo := new(MockDashboardRepo)
	svc := NewDashboardAppService(repo, logger.NewNoopLogger())

	_, err := svc.Leads(context.Background(), &models.AuthContext{UserID: "u", OrganizationID: "o"}, "pipeline")
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))
	repo.AssertNotCalled(t, "LeadSources", mock.Anything, mock.Anything, mock.Anything)
}
