package geo

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/ficharisk/ficharisk-backend/internal/domain"
	"github.com/ficharisk/ficharisk-backend/internal/pkg/dbctx"
	"github.com/ficharisk/ficharisk-backend/internal/pkg/logger"
)

// GeoRepo serves the ubigeo lookup tables. Upserts keep the CSV loader
// re-runnable without duplicating rows.
type GeoRepo interface {
	UpsertDepartments(dbc dbctx.Context, rows []*types.Department) error
	UpsertProvinces(dbc dbctx.Context, rows []*types.Province) error
	UpsertDistricts(dbc dbctx.Context, rows []*types.District) error
	ListDepartments(dbc dbctx.Context) ([]*types.Department, error)
	ListProvinces(dbc dbctx.Context, departmentID string) ([]*types.Province, error)
	ListDistricts(dbc dbctx.Context, provinceID string) ([]*types.District, error)
	GetDistrict(dbc dbctx.Context, id string) (*types.District, error)
}

type geoRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGeoRepo(db *gorm.DB, baseLog *logger.Logger) GeoRepo {
	return &geoRepo{db: db, log: baseLog.With("repo", "GeoRepo")}
}

func (r *geoRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *geoRepo) UpsertDepartments(dbc dbctx.Context, rows []*types.Department) error {
	if len(rows) == 0 {
		return nil
	}
	return r.handle(dbc).WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error
}

func (r *geoRepo) UpsertProvinces(dbc dbctx.Context, rows []*types.Province) error {
	if len(rows) == 0 {
		return nil
	}
	return r.handle(dbc).WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error
}

func (r *geoRepo) UpsertDistricts(dbc dbctx.Context, rows []*types.District) error {
	if len(rows) == 0 {
		return nil
	}
	return r.handle(dbc).WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error
}

func (r *geoRepo) ListDepartments(dbc dbctx.Context) ([]*types.Department, error) {
	var out []*types.Department
	if err := r.handle(dbc).WithContext(dbc.Ctx).
		Order("name ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *geoRepo) ListProvinces(dbc dbctx.Context, departmentID string) ([]*types.Province, error) {
	var out []*types.Province
	if departmentID == "" {
		return out, nil
	}
	if err := r.handle(dbc).WithContext(dbc.Ctx).
		Where("department_id = ?", departmentID).
		Order("name ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *geoRepo) ListDistricts(dbc dbctx.Context, provinceID string) ([]*types.District, error) {
	var out []*types.District
	if provinceID == "" {
		return out, nil
	}
	if err := r.handle(dbc).WithContext(dbc.Ctx).
		Where("province_id = ?", provinceID).
		Order("name ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *geoRepo) GetDistrict(dbc dbctx.Context, id string) (*types.District, error) {
	if id == "" {
		return nil, nil
	}
	var row types.District
	if err := r.handle(dbc).WithContext(dbc.Ctx).
		Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == "" {
		return nil, nil
	}
	return &row, nil
}
