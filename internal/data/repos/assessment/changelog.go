package assessment

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/ficharisk/ficharisk-backend/internal/domain"
	"github.com/ficharisk/ficharisk-backend/internal/pkg/dbctx"
	"github.com/ficharisk/ficharisk-backend/internal/pkg/logger"
)

// ChangeLogRepo is append-only: entries are never updated or deleted
// while their assessment exists.
type ChangeLogRepo interface {
	Create(dbc dbctx.Context, entry *types.ChangeLogEntry) error
	GetByAssessment(dbc dbctx.Context, assessmentID uuid.UUID) ([]*types.ChangeLogEntry, error)
	CountByAssessment(dbc dbctx.Context, assessmentID uuid.UUID) (int64, error)
}

type changeLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChangeLogRepo(db *gorm.DB, baseLog *logger.Logger) ChangeLogRepo {
	return &changeLogRepo{db: db, log: baseLog.With("repo", "ChangeLogRepo")}
}

func (r *changeLogRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *changeLogRepo) Create(dbc dbctx.Context, entry *types.ChangeLogEntry) error {
	return r.handle(dbc).WithContext(dbc.Ctx).Create(entry).Error
}

func (r *changeLogRepo) GetByAssessment(dbc dbctx.Context, assessmentID uuid.UUID) ([]*types.ChangeLogEntry, error) {
	var out []*types.ChangeLogEntry
	if assessmentID == uuid.Nil {
		return out, nil
	}
	if err := r.handle(dbc).WithContext(dbc.Ctx).
		Where("assessment_id = ?", assessmentID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *changeLogRepo) CountByAssessment(dbc dbctx.Context, assessmentID uuid.UUID) (int64, error) {
	var n int64
	if assessmentID == uuid.Nil {
		return 0, nil
	}
	err := r.handle(dbc).WithContext(dbc.Ctx).
		Model(&types.ChangeLogEntry{}).
		Where("assessment_id = ?", assessmentID).
		Count(&n).Error
	return n, err
}
