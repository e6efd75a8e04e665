package models

import "time"

// Organization is the tenant: the unit of data isolation.
type Organization struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(64)"`
	Name      string    `json:"name" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName pins the gorm table name.
func (Organization) TableName() string { return "organizations" }

// User is a dashboard account. OrganizationID is nil for users whose tenant
// linkage is missing.
type User struct {
	ID             string    `json:"id" gorm:"primaryKey;type:varchar(64)"`
	Email          string    `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash   string    `json:"-" gorm:"not null"`
	OrganizationID *string   `json:"organization_id,omitempty" gorm:"index;type:varchar(64)"`
	CreatedAt      time.Time `json:"created_at"`
}

// TableName pins the gorm table name.
func (User) TableName() string { return "users" }

// OrgID returns the organization identifier or an empty string.
func (u *User) OrgID() string {
	if u == nil || u.OrganizationID == nil {
		return ""
	}
	return *u.OrganizationID
}
