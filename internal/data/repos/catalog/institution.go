package catalog

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/ficharisk/ficharisk-backend/internal/domain"
	"github.com/ficharisk/ficharisk-backend/internal/pkg/dbctx"
	"github.com/ficharisk/ficharisk-backend/internal/pkg/logger"
)

type InstitutionRepo interface {
	Create(dbc dbctx.Context, inst *types.Institution) error
	Update(dbc dbctx.Context, inst *types.Institution) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Institution, error)
	GetByModularCode(dbc dbctx.Context, code string) (*types.Institution, error)
	List(dbc dbctx.Context, search string) ([]*types.Institution, error)
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type institutionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewInstitutionRepo(db *gorm.DB, baseLog *logger.Logger) InstitutionRepo {
	return &institutionRepo{db: db, log: baseLog.With("repo", "InstitutionRepo")}
}

func (r *institutionRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *institutionRepo) Create(dbc dbctx.Context, inst *types.Institution) error {
	return r.handle(dbc).WithContext(dbc.Ctx).Create(inst).Error
}

func (r *institutionRepo) Update(dbc dbctx.Context, inst *types.Institution) error {
	return r.handle(dbc).WithContext(dbc.Ctx).Save(inst).Error
}

func (r *institutionRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Institution, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.Institution
	if err := r.handle(dbc).WithContext(dbc.Ctx).
		Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *institutionRepo) GetByModularCode(dbc dbctx.Context, code string) (*types.Institution, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}
	var row types.Institution
	if err := r.handle(dbc).WithContext(dbc.Ctx).
		Where("modular_code = ?", code).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *institutionRepo) List(dbc dbctx.Context, search string) ([]*types.Institution, error) {
	q := r.handle(dbc).WithContext(dbc.Ctx).Order("created_at DESC")
	search = strings.TrimSpace(search)
	if search != "" {
		like := "%" + search + "%"
		q = q.Where("name LIKE ? OR modular_code LIKE ?", like, like)
	}
	var out []*types.Institution
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *institutionRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return nil
	}
	return r.handle(dbc).WithContext(dbc.Ctx).
		Where("id = ?", id).
		Delete(&types.Institution{}).Error
}
