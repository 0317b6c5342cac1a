package repos

import (
	"gorm.io/gorm"

	"github.com/ficharisk/ficharisk-backend/internal/data/repos/assessment"
	"github.com/ficharisk/ficharisk-backend/internal/data/repos/catalog"
	"github.com/ficharisk/ficharisk-backend/internal/data/repos/geo"
	"github.com/ficharisk/ficharisk-backend/internal/data/repos/user"
	"github.com/ficharisk/ficharisk-backend/internal/pkg/logger"
)

type DimensionRepo = catalog.DimensionRepo
type QuestionRepo = catalog.QuestionRepo
type OptionRepo = catalog.OptionRepo
type InstitutionRepo = catalog.InstitutionRepo

type AssessmentRepo = assessment.AssessmentRepo
type DetailRepo = assessment.DetailRepo
type FamilyMemberRepo = assessment.FamilyMemberRepo
type ChangeLogRepo = assessment.ChangeLogRepo
type CaseFilter = assessment.CaseFilter
type ScoreStats = assessment.ScoreStats

type UserRepo = user.UserRepo
type GeoRepo = geo.GeoRepo

var NewDimensionRepo = catalog.NewDimensionRepo
var NewQuestionRepo = catalog.NewQuestionRepo
var NewOptionRepo = catalog.NewOptionRepo
var NewInstitutionRepo = catalog.NewInstitutionRepo

var NewAssessmentRepo = assessment.NewAssessmentRepo
var NewDetailRepo = assessment.NewDetailRepo
var NewFamilyMemberRepo = assessment.NewFamilyMemberRepo
var NewChangeLogRepo = assessment.NewChangeLogRepo

var NewUserRepo = user.NewUserRepo
var NewGeoRepo = geo.NewGeoRepo

// Set bundles every repo for wiring.
type Set struct {
	Dimensions    DimensionRepo
	Questions     QuestionRepo
	Options       OptionRepo
	Institutions  InstitutionRepo
	Assessments   AssessmentRepo
	Details       DetailRepo
	FamilyMembers FamilyMemberRepo
	ChangeLog     ChangeLogRepo
	Users         UserRepo
	Geo           GeoRepo
}

func Wire(db *gorm.DB, log *logger.Logger) Set {
	return Set{
		Dimensions:    NewDimensionRepo(db, log),
		Questions:     NewQuestionRepo(db, log),
		Options:       NewOptionRepo(db, log),
		Institutions:  NewInstitutionRepo(db, log),
		Assessments:   NewAssessmentRepo(db, log),
		Details:       NewDetailRepo(db, log),
		FamilyMembers: NewFamilyMemberRepo(db, log),
		ChangeLog:     NewChangeLogRepo(db, log),
		Users:         NewUserRepo(db, log),
		Geo:           NewGeoRepo(db, log),
	}
}
