package catalog

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/ficharisk/ficharisk-backend/internal/domain"
	"github.com/ficharisk/ficharisk-backend/internal/pkg/dbctx"
	"github.com/ficharisk/ficharisk-backend/internal/pkg/logger"
)

type QuestionRepo interface {
	Create(dbc dbctx.Context, q *types.Question) error
	Update(dbc dbctx.Context, q *types.Question) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Question, error)
	ListByDimension(dbc dbctx.Context, dimensionID uuid.UUID) ([]*types.Question, error)
	Positions(dbc dbctx.Context, dimensionID uuid.UUID) ([]int, error)
	MaxPosition(dbc dbctx.Context, dimensionID uuid.UUID) (int, error)
	// ShiftPositions adds delta to the position of every question in the
	// dimension with position in [lo, hi]. hi <= 0 means no upper bound.
	ShiftPositions(dbc dbctx.Context, dimensionID uuid.UUID, lo, hi, delta int) error
	Delete(dbc dbctx.Context, id uuid.UUID) error
	DeleteByDimension(dbc dbctx.Context, dimensionID uuid.UUID) error
}

type questionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuestionRepo(db *gorm.DB, baseLog *logger.Logger) QuestionRepo {
	return &questionRepo{db: db, log: baseLog.With("repo", "QuestionRepo")}
}

func (r *questionRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *questionRepo) Create(dbc dbctx.Context, q *types.Question) error {
	return r.handle(dbc).WithContext(dbc.Ctx).Create(q).Error
}

func (r *questionRepo) Update(dbc dbctx.Context, q *types.Question) error {
	return r.handle(dbc).WithContext(dbc.Ctx).Save(q).Error
}

func (r *questionRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Question, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.Question
	if err := r.handle(dbc).WithContext(dbc.Ctx).
		Preload("Options").
		Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *questionRepo) ListByDimension(dbc dbctx.Context, dimensionID uuid.UUID) ([]*types.Question, error) {
	var out []*types.Question
	if dimensionID == uuid.Nil {
		return out, nil
	}
	if err := r.handle(dbc).WithContext(dbc.Ctx).
		Where("dimension_id = ?", dimensionID).
		Order("position ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *questionRepo) Positions(dbc dbctx.Context, dimensionID uuid.UUID) ([]int, error) {
	var out []int
	if dimensionID == uuid.Nil {
		return out, nil
	}
	if err := r.handle(dbc).WithContext(dbc.Ctx).
		Model(&types.Question{}).
		Where("dimension_id = ?", dimensionID).
		Order("position ASC").
		Pluck("position", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *questionRepo) MaxPosition(dbc dbctx.Context, dimensionID uuid.UUID) (int, error) {
	var max int
	if dimensionID == uuid.Nil {
		return 0, nil
	}
	err := r.handle(dbc).WithContext(dbc.Ctx).
		Model(&types.Question{}).
		Where("dimension_id = ?", dimensionID).
		Select("COALESCE(MAX(position), 0)").
		Scan(&max).Error
	return max, err
}

func (r *questionRepo) ShiftPositions(dbc dbctx.Context, dimensionID uuid.UUID, lo, hi, delta int) error {
	if dimensionID == uuid.Nil || delta == 0 {
		return nil
	}
	q := r.handle(dbc).WithContext(dbc.Ctx).
		Model(&types.Question{}).
		Where("dimension_id = ? AND position >= ?", dimensionID, lo)
	if hi > 0 {
		q = q.Where("position <= ?", hi)
	}
	return q.UpdateColumn("position", gorm.Expr("position + ?", delta)).Error
}

func (r *questionRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return nil
	}
	return r.handle(dbc).WithContext(dbc.Ctx).
		Where("id = ?", id).
		Delete(&types.Question{}).Error
}

func (r *questionRepo) DeleteByDimension(dbc dbctx.Context, dimensionID uuid.UUID) error {
	if dimensionID == uuid.Nil {
		return nil
	}
	return r.handle(dbc).WithContext(dbc.Ctx).
		Where("dimension_id = ?", dimensionID).
		Delete(&types.Question{}).Error
}
