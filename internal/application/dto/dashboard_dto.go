package dto

import "github.com/turtacn/kpidash/internal/domain/models"

// LeadsQuery is the query string of GET /api/leads.
type LeadsQuery struct {
	ViewType string `form:"viewType" validate:"omitempty,oneof=conversion location"`
}

// View returns the requested view, defaulting to conversion.
func (q LeadsQuery) View() models.LeadsView {
	if q.ViewType == "" {
		return models.LeadsViewConversion
	}
	return models.LeadsView(q.ViewType)
}

// LeadsResponse echoes the selected view with its rows.
type LeadsResponse struct {
	ViewType models.LeadsView         `json:"viewType"`
	Sources  []models.LeadSourceCount `json:"sources"`
}

// PageDescriptor stands in for a rendered page.
type PageDescriptor struct {
	Page           string `json:"page"`
	UserID         string `json:"userId,omitempty"`
	OrganizationID string `json:"organizationId,omitempty"`
}

// HealthResponse is the body of the health endpoints.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}
