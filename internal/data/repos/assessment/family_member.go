package assessment

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/ficharisk/ficharisk-backend/internal/domain"
	"github.com/ficharisk/ficharisk-backend/internal/pkg/dbctx"
	"github.com/ficharisk/ficharisk-backend/internal/pkg/logger"
)

type FamilyMemberRepo interface {
	Create(dbc dbctx.Context, members []*types.FamilyMember) error
	GetByAssessment(dbc dbctx.Context, assessmentID uuid.UUID) ([]*types.FamilyMember, error)
	DeleteByAssessment(dbc dbctx.Context, assessmentID uuid.UUID) error
}

type familyMemberRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFamilyMemberRepo(db *gorm.DB, baseLog *logger.Logger) FamilyMemberRepo {
	return &familyMemberRepo{db: db, log: baseLog.With("repo", "FamilyMemberRepo")}
}

func (r *familyMemberRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *familyMemberRepo) Create(dbc dbctx.Context, members []*types.FamilyMember) error {
	if len(members) == 0 {
		return nil
	}
	return r.handle(dbc).WithContext(dbc.Ctx).Create(&members).Error
}

func (r *familyMemberRepo) GetByAssessment(dbc dbctx.Context, assessmentID uuid.UUID) ([]*types.FamilyMember, error) {
	var out []*types.FamilyMember
	if assessmentID == uuid.Nil {
		return out, nil
	}
	if err := r.handle(dbc).WithContext(dbc.Ctx).
		Where("assessment_id = ?", assessmentID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *familyMemberRepo) DeleteByAssessment(dbc dbctx.Context, assessmentID uuid.UUID) error {
	if assessmentID == uuid.Nil {
		return nil
	}
	return r.handle(dbc).WithContext(dbc.Ctx).
		Where("assessment_id = ?", assessmentID).
		Delete(&types.FamilyMember{}).Error
}
