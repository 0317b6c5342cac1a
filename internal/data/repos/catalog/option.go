package catalog

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/ficharisk/ficharisk-backend/internal/domain"
	"github.com/ficharisk/ficharisk-backend/internal/pkg/dbctx"
	"github.com/ficharisk/ficharisk-backend/internal/pkg/logger"
)

type OptionRepo interface {
	Create(dbc dbctx.Context, options []*types.Option) error
	Update(dbc dbctx.Context, opt *types.Option) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Option, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Option, error)
	ListByQuestion(dbc dbctx.Context, questionID uuid.UUID) ([]*types.Option, error)
	CountByQuestion(dbc dbctx.Context, questionID uuid.UUID) (int64, error)
	Delete(dbc dbctx.Context, id uuid.UUID) error
	DeleteByQuestion(dbc dbctx.Context, questionID uuid.UUID) error
}

type optionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOptionRepo(db *gorm.DB, baseLog *logger.Logger) OptionRepo {
	return &optionRepo{db: db, log: baseLog.With("repo", "OptionRepo")}
}

func (r *optionRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *optionRepo) Create(dbc dbctx.Context, options []*types.Option) error {
	if len(options) == 0 {
		return nil
	}
	return r.handle(dbc).WithContext(dbc.Ctx).Create(&options).Error
}

func (r *optionRepo) Update(dbc dbctx.Context, opt *types.Option) error {
	return r.handle(dbc).WithContext(dbc.Ctx).Save(opt).Error
}

func (r *optionRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Option, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.Option
	if err := r.handle(dbc).WithContext(dbc.Ctx).
		Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *optionRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Option, error) {
	var out []*types.Option
	if len(ids) == 0 {
		return out, nil
	}
	if err := r.handle(dbc).WithContext(dbc.Ctx).
		Where("id IN ?", ids).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *optionRepo) ListByQuestion(dbc dbctx.Context, questionID uuid.UUID) ([]*types.Option, error) {
	var out []*types.Option
	if questionID == uuid.Nil {
		return out, nil
	}
	if err := r.handle(dbc).WithContext(dbc.Ctx).
		Where("question_id = ?", questionID).
		Order("points ASC, created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *optionRepo) CountByQuestion(dbc dbctx.Context, questionID uuid.UUID) (int64, error) {
	var n int64
	if questionID == uuid.Nil {
		return 0, nil
	}
	err := r.handle(dbc).WithContext(dbc.Ctx).
		Model(&types.Option{}).
		Where("question_id = ?", questionID).
		Count(&n).Error
	return n, err
}

func (r *optionRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return nil
	}
	return r.handle(dbc).WithContext(dbc.Ctx).
		Where("id = ?", id).
		Delete(&types.Option{}).Error
}

func (r *optionRepo) DeleteByQuestion(dbc dbctx.Context, questionID uuid.UUID) error {
	if questionID == uuid.Nil {
		return nil
	}
	return r.handle(dbc).WithContext(dbc.Ctx).
		Where("question_id = ?", questionID).
		Delete(&types.Option{}).Error
}
