package assessment

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/ficharisk/ficharisk-backend/internal/domain/catalog"
	"github.com/ficharisk/ficharisk-backend/internal/domain/geo"
	"github.com/ficharisk/ficharisk-backend/internal/domain/user"
)

// Assessment is the header of one applied questionnaire: subject data,
// per-dimension subtotals, total score and risk tier. Detail rows carry
// the frozen per-answer points.
type Assessment struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	RecordedByID  uuid.UUID            `gorm:"type:uuid;not null;index" json:"recorded_by_id"`
	RecordedBy    *user.User           `gorm:"constraint:OnDelete:RESTRICT;foreignKey:RecordedByID;references:ID" json:"recorded_by,omitempty"`
	InstitutionID uuid.UUID            `gorm:"type:uuid;not null;index" json:"institution_id"`
	Institution   *catalog.Institution `gorm:"constraint:OnDelete:RESTRICT;foreignKey:InstitutionID;references:ID" json:"institution,omitempty"`

	// Subject general data.
	SubjectFirstNames string    `gorm:"column:subject_first_names;not null" json:"subject_first_names"`
	SubjectLastNames  string    `gorm:"column:subject_last_names;not null" json:"subject_last_names"`
	DocumentNumber    string    `gorm:"column:document_number;size:8;not null;index" json:"document_number"`
	BirthDate         time.Time `gorm:"column:birth_date" json:"birth_date"`
	Age               int       `gorm:"column:age" json:"age"`
	Sex               string    `gorm:"column:sex;size:1" json:"sex"`
	EducationLevel    string    `gorm:"column:education_level" json:"education_level"`

	// Location and contact.
	Address              string          `gorm:"column:address" json:"address"`
	DepartmentID         *string         `gorm:"size:2" json:"department_id,omitempty"`
	Department           *geo.Department `gorm:"constraint:OnDelete:SET NULL;foreignKey:DepartmentID;references:ID" json:"department,omitempty"`
	ProvinceID           *string         `gorm:"size:4" json:"province_id,omitempty"`
	Province             *geo.Province   `gorm:"constraint:OnDelete:SET NULL;foreignKey:ProvinceID;references:ID" json:"province,omitempty"`
	DistrictID           *string         `gorm:"size:6" json:"district_id,omitempty"`
	District             *geo.District   `gorm:"constraint:OnDelete:SET NULL;foreignKey:DistrictID;references:ID" json:"district,omitempty"`
	Phone                string          `gorm:"column:phone" json:"phone"`
	Email                string          `gorm:"column:email" json:"email"`
	EmergencyName        string          `gorm:"column:emergency_name" json:"emergency_name"`
	EmergencyPhone       string          `gorm:"column:emergency_phone" json:"emergency_phone"`
	EmergencyRelationship string         `gorm:"column:emergency_relationship" json:"emergency_relationship"`

	// Family header.
	HouseholdHead string `gorm:"column:household_head" json:"household_head"`
	HouseholdSize int    `gorm:"column:household_size" json:"household_size"`
	FamilyNotes   string `gorm:"column:family_notes;type:text" json:"family_notes"`

	// Computed results. Subtotal slots A-F map to dimension positions 1-6.
	ScoreDimA  int    `gorm:"column:score_dim_a;not null;default:0" json:"score_dim_a"`
	ScoreDimB  int    `gorm:"column:score_dim_b;not null;default:0" json:"score_dim_b"`
	ScoreDimC  int    `gorm:"column:score_dim_c;not null;default:0" json:"score_dim_c"`
	ScoreDimD  int    `gorm:"column:score_dim_d;not null;default:0" json:"score_dim_d"`
	ScoreDimE  int    `gorm:"column:score_dim_e;not null;default:0" json:"score_dim_e"`
	ScoreDimF  int    `gorm:"column:score_dim_f;not null;default:0" json:"score_dim_f"`
	TotalScore int    `gorm:"column:total_score;not null;default:0" json:"total_score"`
	RiskTier   Tier   `gorm:"column:risk_tier;index" json:"risk_tier"`

	Conclusion       string `gorm:"column:conclusion;type:text" json:"conclusion"`
	InterventionPlan string `gorm:"column:intervention_plan;type:text" json:"intervention_plan"`

	Details       []Detail         `gorm:"constraint:OnDelete:CASCADE;foreignKey:AssessmentID;references:ID" json:"details,omitempty"`
	FamilyMembers []FamilyMember   `gorm:"constraint:OnDelete:CASCADE;foreignKey:AssessmentID;references:ID" json:"family_members,omitempty"`
	ChangeLog     []ChangeLogEntry `gorm:"constraint:OnDelete:CASCADE;foreignKey:AssessmentID;references:ID" json:"change_log,omitempty"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Assessment) TableName() string { return "assessment" }

// Detail is the selected option for one question. Points are frozen at
// selection time: later edits to the master option never touch them.
type Detail struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AssessmentID uuid.UUID `gorm:"type:uuid;not null;index:idx_detail_assessment_question,unique,priority:1" json:"assessment_id"`

	QuestionID uuid.UUID         `gorm:"type:uuid;not null;index:idx_detail_assessment_question,unique,priority:2" json:"question_id"`
	Question   *catalog.Question `gorm:"constraint:OnDelete:RESTRICT;foreignKey:QuestionID;references:ID" json:"question,omitempty"`
	OptionID   uuid.UUID         `gorm:"type:uuid;not null;index" json:"option_id"`
	Option     *catalog.Option   `gorm:"constraint:OnDelete:RESTRICT;foreignKey:OptionID;references:ID" json:"option,omitempty"`

	FrozenPoints int `gorm:"column:frozen_points;not null" json:"frozen_points"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Detail) TableName() string { return "assessment_detail" }

// FamilyMember is one row of the subject's family table.
type FamilyMember struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AssessmentID uuid.UUID `gorm:"type:uuid;not null;index" json:"assessment_id"`

	Names          string  `gorm:"column:names;not null" json:"names"`
	Relationship   string  `gorm:"column:relationship" json:"relationship"`
	Age            int     `gorm:"column:age" json:"age"`
	Sex            string  `gorm:"column:sex;size:1" json:"sex"`
	MaritalStatus  string  `gorm:"column:marital_status" json:"marital_status"`
	EducationLevel string  `gorm:"column:education_level" json:"education_level"`
	Occupation     string  `gorm:"column:occupation" json:"occupation"`
	MonthlyIncome  float64 `gorm:"column:monthly_income;not null;default:0" json:"monthly_income"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (FamilyMember) TableName() string { return "assessment_family_member" }

// ChangeLogEntry records one edit of an assessment: who, when, and the
// human-readable field deltas bundled into a single append-only row.
type ChangeLogEntry struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AssessmentID uuid.UUID `gorm:"type:uuid;not null;index" json:"assessment_id"`

	EditorID uuid.UUID  `gorm:"type:uuid;not null" json:"editor_id"`
	Editor   *user.User `gorm:"constraint:OnDelete:RESTRICT;foreignKey:EditorID;references:ID" json:"editor,omitempty"`

	Action string `gorm:"column:action;not null;default:'data edit'" json:"action"`
	// Deltas is a JSON array of "field: old -> new" lines.
	Deltas datatypes.JSON `gorm:"column:deltas;type:jsonb" json:"deltas"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

func (ChangeLogEntry) TableName() string { return "assessment_change_log" }
