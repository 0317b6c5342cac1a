package assessment

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/ficharisk/ficharisk-backend/internal/domain"
	"github.com/ficharisk/ficharisk-backend/internal/pkg/dbctx"
	"github.com/ficharisk/ficharisk-backend/internal/pkg/logger"
)

// CaseFilter narrows assessment listings and KPI aggregates.
type CaseFilter struct {
	RecordedByIDs    []uuid.UUID
	DocumentContains string
	CreatedAfter     *time.Time
	Limit            int
}

// ScoreStats are dashboard aggregates over the filtered assessments.
type ScoreStats struct {
	Count int64
	Min   int
	Max   int
	Avg   float64
}

type AssessmentRepo interface {
	Create(dbc dbctx.Context, a *types.Assessment) error
	Update(dbc dbctx.Context, a *types.Assessment) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Assessment, error)
	// GetFull loads the assessment with details (question, dimension,
	// option), family members and change log in one snapshot.
	GetFull(dbc dbctx.Context, id uuid.UUID) (*types.Assessment, error)
	List(dbc dbctx.Context, f CaseFilter) ([]*types.Assessment, error)
	CountByTier(dbc dbctx.Context, f CaseFilter) (map[types.Tier]int64, error)
	Stats(dbc dbctx.Context, f CaseFilter) (ScoreStats, error)
}

type assessmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAssessmentRepo(db *gorm.DB, baseLog *logger.Logger) AssessmentRepo {
	return &assessmentRepo{db: db, log: baseLog.With("repo", "AssessmentRepo")}
}

func (r *assessmentRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *assessmentRepo) Create(dbc dbctx.Context, a *types.Assessment) error {
	return r.handle(dbc).WithContext(dbc.Ctx).Create(a).Error
}

func (r *assessmentRepo) Update(dbc dbctx.Context, a *types.Assessment) error {
	return r.handle(dbc).WithContext(dbc.Ctx).Save(a).Error
}

func (r *assessmentRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Assessment, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.Assessment
	if err := r.handle(dbc).WithContext(dbc.Ctx).
		Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *assessmentRepo) GetFull(dbc dbctx.Context, id uuid.UUID) (*types.Assessment, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.Assessment
	if err := r.handle(dbc).WithContext(dbc.Ctx).
		Preload("Details.Question.Dimension").
		Preload("Details.Option").
		Preload("FamilyMembers").
		Preload("ChangeLog", func(db *gorm.DB) *gorm.DB {
			return db.Order("assessment_change_log.created_at DESC")
		}).
		Preload("Institution").
		Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func applyFilter(q *gorm.DB, f CaseFilter) *gorm.DB {
	if len(f.RecordedByIDs) > 0 {
		q = q.Where("recorded_by_id IN ?", f.RecordedByIDs)
	}
	if doc := strings.TrimSpace(f.DocumentContains); doc != "" {
		q = q.Where("document_number LIKE ?", "%"+doc+"%")
	}
	if f.CreatedAfter != nil {
		q = q.Where("created_at >= ?", *f.CreatedAfter)
	}
	return q
}

func (r *assessmentRepo) List(dbc dbctx.Context, f CaseFilter) ([]*types.Assessment, error) {
	q := applyFilter(r.handle(dbc).WithContext(dbc.Ctx).Model(&types.Assessment{}), f).
		Order("created_at DESC")
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	var out []*types.Assessment
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *assessmentRepo) CountByTier(dbc dbctx.Context, f CaseFilter) (map[types.Tier]int64, error) {
	type tierCount struct {
		RiskTier types.Tier
		N        int64
	}
	var rows []tierCount
	if err := applyFilter(r.handle(dbc).WithContext(dbc.Ctx).Model(&types.Assessment{}), f).
		Select("risk_tier, COUNT(*) AS n").
		Group("risk_tier").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[types.Tier]int64, len(rows))
	for _, row := range rows {
		out[row.RiskTier] = row.N
	}
	return out, nil
}

func (r *assessmentRepo) Stats(dbc dbctx.Context, f CaseFilter) (ScoreStats, error) {
	var s ScoreStats
	err := applyFilter(r.handle(dbc).WithContext(dbc.Ctx).Model(&types.Assessment{}), f).
		Select("COUNT(*) AS count, COALESCE(MIN(total_score), 0) AS min, COALESCE(MAX(total_score), 0) AS max, COALESCE(AVG(total_score), 0) AS avg").
		Scan(&s).Error
	return s, err
}
