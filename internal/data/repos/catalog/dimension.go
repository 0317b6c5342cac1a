package catalog

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/ficharisk/ficharisk-backend/internal/domain"
	"github.com/ficharisk/ficharisk-backend/internal/pkg/dbctx"
	"github.com/ficharisk/ficharisk-backend/internal/pkg/logger"
)

type DimensionRepo interface {
	Create(dbc dbctx.Context, dim *types.Dimension) error
	Update(dbc dbctx.Context, dim *types.Dimension) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Dimension, error)
	// LockByID loads the dimension row under FOR UPDATE so concurrent
	// reorders of the same dimension serialize. No-op lock on sqlite.
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Dimension, error)
	List(dbc dbctx.Context) ([]*types.Dimension, error)
	ListWithQuestions(dbc dbctx.Context) ([]*types.Dimension, error)
	GetByPosition(dbc dbctx.Context, position int) (*types.Dimension, error)
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type dimensionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDimensionRepo(db *gorm.DB, baseLog *logger.Logger) DimensionRepo {
	return &dimensionRepo{db: db, log: baseLog.With("repo", "DimensionRepo")}
}

func (r *dimensionRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *dimensionRepo) Create(dbc dbctx.Context, dim *types.Dimension) error {
	return r.handle(dbc).WithContext(dbc.Ctx).Create(dim).Error
}

func (r *dimensionRepo) Update(dbc dbctx.Context, dim *types.Dimension) error {
	return r.handle(dbc).WithContext(dbc.Ctx).Save(dim).Error
}

func (r *dimensionRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Dimension, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.Dimension
	if err := r.handle(dbc).WithContext(dbc.Ctx).
		Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *dimensionRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Dimension, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	t := r.handle(dbc)
	q := t.WithContext(dbc.Ctx)
	if t.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var row types.Dimension
	if err := q.Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *dimensionRepo) List(dbc dbctx.Context) ([]*types.Dimension, error) {
	var out []*types.Dimension
	if err := r.handle(dbc).WithContext(dbc.Ctx).
		Order("position ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *dimensionRepo) ListWithQuestions(dbc dbctx.Context) ([]*types.Dimension, error) {
	var out []*types.Dimension
	if err := r.handle(dbc).WithContext(dbc.Ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("question.position ASC")
		}).
		Preload("Questions.Options").
		Order("position ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *dimensionRepo) GetByPosition(dbc dbctx.Context, position int) (*types.Dimension, error) {
	var row types.Dimension
	if err := r.handle(dbc).WithContext(dbc.Ctx).
		Where("position = ?", position).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *dimensionRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return nil
	}
	return r.handle(dbc).WithContext(dbc.Ctx).
		Where("id = ?", id).
		Delete(&types.Dimension{}).Error
}
