package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Dimension groups questionnaire questions into one thematic block
// (socioeconomic, family structure, ...). Position is unique across the
// catalog and drives both display order and score slotting.
type Dimension struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"column:name;not null" json:"name"`
	Description string    `gorm:"column:description;type:text" json:"description"`
	Position    int       `gorm:"column:position;not null;index" json:"position"`

	Questions []Question `gorm:"constraint:OnDelete:CASCADE;foreignKey:DimensionID;references:ID" json:"questions,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Dimension) TableName() string { return "dimension" }

// Question positions are kept contiguous 1..N inside their dimension by
// the ordering routine; nothing else may write the position column.
type Question struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	DimensionID uuid.UUID  `gorm:"type:uuid;not null;index:idx_question_dimension_position,priority:1" json:"dimension_id"`
	Dimension   *Dimension `gorm:"foreignKey:DimensionID;references:ID" json:"dimension,omitempty"`

	Statement string `gorm:"column:statement;type:text;not null" json:"statement"`
	Position  int    `gorm:"column:position;not null;index:idx_question_dimension_position,priority:2" json:"position"`

	Options []Option `gorm:"constraint:OnDelete:CASCADE;foreignKey:QuestionID;references:ID" json:"options,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Question) TableName() string { return "question" }

// Option is one selectable answer. Points are signed: protective factors
// carry zero or negative values.
type Option struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	QuestionID uuid.UUID `gorm:"type:uuid;not null;index" json:"question_id"`
	Question   *Question `gorm:"foreignKey:QuestionID;references:ID" json:"question,omitempty"`

	Text   string `gorm:"column:text;not null" json:"text"`
	Points int    `gorm:"column:points;not null" json:"points"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Option) TableName() string { return "option" }

// MinOptionsPerQuestion is the business minimum of selectable answers a
// question must offer to be saved.
const MinOptionsPerQuestion = 2

// Institution is the school where assessments are applied.
type Institution struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ModularCode  string    `gorm:"column:modular_code;not null;uniqueIndex" json:"modular_code"`
	Name         string    `gorm:"column:name;not null" json:"name"`
	Address      string    `gorm:"column:address" json:"address"`
	Phone        string    `gorm:"column:phone" json:"phone"`
	ContactName  string    `gorm:"column:contact_name" json:"contact_name"`
	ContactEmail string    `gorm:"column:contact_email" json:"contact_email"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Institution) TableName() string { return "institution" }
