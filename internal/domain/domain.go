package domain

import (
	"github.com/ficharisk/ficharisk-backend/internal/domain/assessment"
	"github.com/ficharisk/ficharisk-backend/internal/domain/catalog"
	"github.com/ficharisk/ficharisk-backend/internal/domain/geo"
	"github.com/ficharisk/ficharisk-backend/internal/domain/user"
)

type Dimension = catalog.Dimension
type Question = catalog.Question
type Option = catalog.Option
type Institution = catalog.Institution

type Assessment = assessment.Assessment
type AssessmentDetail = assessment.Detail
type FamilyMember = assessment.FamilyMember
type ChangeLogEntry = assessment.ChangeLogEntry
type Tier = assessment.Tier

type User = user.User
type Actor = user.Actor
type Role = user.Role
type Capability = user.Capability

type Department = geo.Department
type Province = geo.Province
type District = geo.District

const (
	RoleAdmin      = user.RoleAdmin
	RoleSupervisor = user.RoleSupervisor
	RoleSurveyor   = user.RoleSurveyor

	CapViewOwnCases  = user.CapViewOwnCases
	CapViewTeamCases = user.CapViewTeamCases
	CapManageCatalog = user.CapManageCatalog
	CapManageUsers   = user.CapManageUsers

	TierLow      = assessment.TierLow
	TierModerate = assessment.TierModerate
	TierSevere   = assessment.TierSevere
	TierCritical = assessment.TierCritical
)
