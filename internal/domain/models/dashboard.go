package models

import "time"

// KPIMetric is the latest recorded value of one named metric.
type KPIMetric struct {
	Name       string    `json:"name"`
	Value      float64   `json:"value"`
	RecordedAt time.Time `json:"recordedAt"`
}

// LeadSourceCount is the number of leads attributed to one source.
type LeadSourceCount struct {
	Source    string `json:"source"`
	Count     int64  `json:"count"`
	Converted int64  `json:"converted"`
}

// LeadsView selects how leads are grouped.
type LeadsView string

const (
	LeadsViewConversion LeadsView = "conversion"
	LeadsViewLocation   LeadsView = "location"
)

// Task is an open action item.
type Task struct {
	ID       string     `json:"id"`
	Title    string     `json:"title"`
	Priority string     `json:"priority"`
	DueDate  *time.Time `json:"dueDate,omitempty"`
}

// Employee is a member of the organization's staff.
type Employee struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	Status string `json:"status"`
}

// Appointment is a scheduled meeting.
type Appointment struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	ScheduledAt time.Time `json:"scheduledAt"`
	Status      string    `json:"status"`
}
