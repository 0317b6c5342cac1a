package assessment

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/ficharisk/ficharisk-backend/internal/domain"
	"github.com/ficharisk/ficharisk-backend/internal/pkg/dbctx"
	"github.com/ficharisk/ficharisk-backend/internal/pkg/logger"
)

type DetailRepo interface {
	Create(dbc dbctx.Context, details []*types.AssessmentDetail) error
	Update(dbc dbctx.Context, d *types.AssessmentDetail) error
	GetByAssessment(dbc dbctx.Context, assessmentID uuid.UUID) ([]*types.AssessmentDetail, error)
	Delete(dbc dbctx.Context, id uuid.UUID) error
	// CountByQuestionIDs reports how many answers reference the given
	// questions across all assessments. Used by the protected-delete rule.
	CountByQuestionIDs(dbc dbctx.Context, questionIDs []uuid.UUID) (int64, error)
	CountByOptionIDs(dbc dbctx.Context, optionIDs []uuid.UUID) (int64, error)
}

type detailRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDetailRepo(db *gorm.DB, baseLog *logger.Logger) DetailRepo {
	return &detailRepo{db: db, log: baseLog.With("repo", "DetailRepo")}
}

func (r *detailRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *detailRepo) Create(dbc dbctx.Context, details []*types.AssessmentDetail) error {
	if len(details) == 0 {
		return nil
	}
	return r.handle(dbc).WithContext(dbc.Ctx).Create(&details).Error
}

func (r *detailRepo) Update(dbc dbctx.Context, d *types.AssessmentDetail) error {
	return r.handle(dbc).WithContext(dbc.Ctx).Save(d).Error
}

func (r *detailRepo) GetByAssessment(dbc dbctx.Context, assessmentID uuid.UUID) ([]*types.AssessmentDetail, error) {
	var out []*types.AssessmentDetail
	if assessmentID == uuid.Nil {
		return out, nil
	}
	if err := r.handle(dbc).WithContext(dbc.Ctx).
		Where("assessment_id = ?", assessmentID).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *detailRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return nil
	}
	return r.handle(dbc).WithContext(dbc.Ctx).
		Where("id = ?", id).
		Delete(&types.AssessmentDetail{}).Error
}

func (r *detailRepo) CountByQuestionIDs(dbc dbctx.Context, questionIDs []uuid.UUID) (int64, error) {
	var n int64
	if len(questionIDs) == 0 {
		return 0, nil
	}
	err := r.handle(dbc).WithContext(dbc.Ctx).
		Model(&types.AssessmentDetail{}).
		Where("question_id IN ?", questionIDs).
		Count(&n).Error
	return n, err
}

func (r *detailRepo) CountByOptionIDs(dbc dbctx.Context, optionIDs []uuid.UUID) (int64, error) {
	var n int64
	if len(optionIDs) == 0 {
		return 0, nil
	}
	err := r.handle(dbc).WithContext(dbc.Ctx).
		Model(&types.AssessmentDetail{}).
		Where("option_id IN ?", optionIDs).
		Count(&n).Error
	return n, err
}
