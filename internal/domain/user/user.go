package user

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleSupervisor Role = "SUPERVISOR"
	RoleSurveyor   Role = "SURVEYOR"
)

type Capability string

const (
	CapViewOwnCases  Capability = "view_own_cases"
	CapViewTeamCases Capability = "view_team_cases"
	CapManageCatalog Capability = "manage_catalog"
	CapManageUsers   Capability = "manage_users"
)

var roleCapabilities = map[Role][]Capability{
	RoleAdmin:      {CapViewOwnCases, CapViewTeamCases, CapManageCatalog, CapManageUsers},
	RoleSupervisor: {CapViewTeamCases},
	RoleSurveyor:   {CapViewOwnCases},
}

// Capabilities returns the capability set granted by the role.
func (r Role) Capabilities() []Capability {
	return roleCapabilities[r]
}

func (r Role) Can(c Capability) bool {
	for _, have := range roleCapabilities[r] {
		if have == c {
			return true
		}
	}
	return false
}

// User is an identity record only: authentication and credentials live in
// the external session layer.
type User struct {
	ID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email string    `gorm:"column:email;not null;uniqueIndex" json:"email"`
	Role  Role      `gorm:"column:role;not null;default:'SURVEYOR';index" json:"role"`

	FirstNames     string `gorm:"column:first_names;not null" json:"first_names"`
	LastNames      string `gorm:"column:last_names;not null" json:"last_names"`
	DocumentNumber string `gorm:"column:document_number;uniqueIndex" json:"document_number"`
	Code           string `gorm:"column:code" json:"code"`
	Phone          string `gorm:"column:phone" json:"phone"`

	// Surveyor profile.
	HomeInstitution string     `gorm:"column:home_institution" json:"home_institution"`
	Specialty       string     `gorm:"column:specialty" json:"specialty"`
	SupervisorID    *uuid.UUID `gorm:"type:uuid;index" json:"supervisor_id,omitempty"`
	Supervisor      *User      `gorm:"constraint:OnDelete:SET NULL;foreignKey:SupervisorID;references:ID" json:"supervisor,omitempty"`
	InstitutionID   *uuid.UUID `gorm:"type:uuid;index" json:"institution_id,omitempty"`

	// Supervisor profile.
	Profession     string `gorm:"column:profession" json:"profession"`
	LicenseNumber  string `gorm:"column:license_number" json:"license_number"`
	Workplace      string `gorm:"column:workplace" json:"workplace"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (User) TableName() string { return "app_user" }

// Actor is the identity performing an operation, threaded explicitly into
// every mutating usecase for capability checks and audit attribution.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

func (a Actor) Can(c Capability) bool { return a.Role.Can(c) }
