package geo

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"gorm.io/gorm"

	"github.com/ficharisk/ficharisk-backend/internal/data/repos"
	types "github.com/ficharisk/ficharisk-backend/internal/domain"
	"github.com/ficharisk/ficharisk-backend/internal/pkg/dbctx"
	apperrors "github.com/ficharisk/ficharisk-backend/internal/pkg/errors"
	"github.com/ficharisk/ficharisk-backend/internal/pkg/logger"
)

type LoaderDeps struct {
	DB  *gorm.DB
	Log *logger.Logger
	Geo repos.GeoRepo
}

// Loader imports the official ubigeo table from the INEI CSV export:
// latin-1 encoded, semicolon separated, one row per district with the
// department and province names repeated on every line.
type Loader struct {
	deps LoaderDeps
}

func NewLoader(deps LoaderDeps) Loader {
	if deps.Log != nil {
		deps.Log = deps.Log.With("loader", "geo")
	}
	return Loader{deps: deps}
}

type LoadSummary struct {
	Departments int
	Provinces   int
	Districts   int
	Skipped     int
}

// csv columns of the export
const (
	colUbigeo     = 0
	colDepartment = 1
	colProvince   = 2
	colDistrict   = 3
)

// LoadFile reads the CSV and upserts the three levels in one
// transaction. Existing codes are left untouched, so re-running the
// import is safe.
func (l Loader) LoadFile(ctx context.Context, path string) (LoadSummary, error) {
	f, err := os.Open(path)
	if err != nil {
		return LoadSummary{}, fmt.Errorf("open ubigeo file: %w", err)
	}
	defer f.Close()
	return l.Load(ctx, f)
}

func (l Loader) Load(ctx context.Context, r io.Reader) (LoadSummary, error) {
	reader := csv.NewReader(charmap.ISO8859_1.NewDecoder().Reader(r))
	reader.Comma = ';'
	reader.FieldsPerRecord = -1

	departments := map[string]*types.Department{}
	provinces := map[string]*types.Province{}
	districts := map[string]*types.District{}
	var summary LoadSummary

	header := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return LoadSummary{}, fmt.Errorf("read ubigeo row: %w", err)
		}
		if header {
			header = false
			continue
		}
		if len(record) < 4 {
			summary.Skipped++
			continue
		}
		code := strings.TrimSpace(record[colUbigeo])
		if code == "" {
			summary.Skipped++
			continue
		}
		if len(code) != 6 {
			return LoadSummary{}, apperrors.Validation("ubigeo", fmt.Sprintf("code %q is not 6 digits", code))
		}
		depID, provID := code[:2], code[:4]
		if _, ok := departments[depID]; !ok {
			departments[depID] = &types.Department{
				ID:   depID,
				Name: strings.TrimSpace(record[colDepartment]),
			}
		}
		if _, ok := provinces[provID]; !ok {
			provinces[provID] = &types.Province{
				ID:           provID,
				Name:         strings.TrimSpace(record[colProvince]),
				DepartmentID: depID,
			}
		}
		districts[code] = &types.District{
			ID:         code,
			Name:       strings.TrimSpace(record[colDistrict]),
			ProvinceID: provID,
		}
	}
	if len(districts) == 0 {
		return LoadSummary{}, apperrors.Validation("ubigeo", "file contains no rows")
	}

	err := l.deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if err := l.deps.Geo.UpsertDepartments(dbc, mapValues(departments)); err != nil {
			return fmt.Errorf("upsert departments: %w", err)
		}
		if err := l.deps.Geo.UpsertProvinces(dbc, mapValues(provinces)); err != nil {
			return fmt.Errorf("upsert provinces: %w", err)
		}
		if err := l.deps.Geo.UpsertDistricts(dbc, mapValues(districts)); err != nil {
			return fmt.Errorf("upsert districts: %w", err)
		}
		return nil
	})
	if err != nil {
		return LoadSummary{}, err
	}

	summary.Departments = len(departments)
	summary.Provinces = len(provinces)
	summary.Districts = len(districts)
	l.deps.Log.Info("ubigeo loaded",
		"departments", summary.Departments,
		"provinces", summary.Provinces,
		"districts", summary.Districts,
		"skipped", summary.Skipped)
	return summary, nil
}

func mapValues[T any](m map[string]*T) []*T {
	out := make([]*T, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out
}
