package app

import (
	"context"
	"fmt"

	"github.com/ficharisk/ficharisk-backend/internal/data/repos"
	"github.com/ficharisk/ficharisk-backend/internal/db"
	"github.com/ficharisk/ficharisk-backend/internal/modules/assessment"
	"github.com/ficharisk/ficharisk-backend/internal/modules/cases"
	"github.com/ficharisk/ficharisk-backend/internal/modules/catalog"
	"github.com/ficharisk/ficharisk-backend/internal/modules/geo"
	"github.com/ficharisk/ficharisk-backend/internal/modules/users"
	"github.com/ficharisk/ficharisk-backend/internal/pkg/logger"
	"github.com/ficharisk/ficharisk-backend/internal/platform/redisclient"
)

// App bundles every usecase over one database connection. Embedding
// callers (web layer, schedulers, shell commands) construct it once and
// hand out the usecase values.
type App struct {
	Log *logger.Logger
	DB  *db.Service

	Catalog    catalog.Usecases
	Assessment assessment.Usecases
	Cases      cases.Usecases
	Users      users.Usecases
	GeoLoader  geo.Loader
}

func New(ctx context.Context, log *logger.Logger) (*App, error) {
	svc, err := db.NewService(log)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	set := repos.Wire(svc.DB(), log)

	rdb, err := redisclient.NewFromEnv(ctx)
	if err != nil {
		// The cache is an accelerator only; run without it.
		log.Warn("redis unavailable, catalog cache disabled", "error", err)
		rdb = nil
	}

	return &App{
		Log: log,
		DB:  svc,
		Catalog: catalog.New(catalog.UsecasesDeps{
			DB:           svc.DB(),
			Log:          log,
			Dimensions:   set.Dimensions,
			Questions:    set.Questions,
			Options:      set.Options,
			Institutions: set.Institutions,
			Details:      set.Details,
			Cache:        catalog.NewSnapshotCache(rdb, log),
		}),
		Assessment: assessment.New(assessment.UsecasesDeps{
			DB:            svc.DB(),
			Log:           log,
			Assessments:   set.Assessments,
			Details:       set.Details,
			FamilyMembers: set.FamilyMembers,
			ChangeLog:     set.ChangeLog,
			Dimensions:    set.Dimensions,
			Questions:     set.Questions,
			Options:       set.Options,
			Institutions:  set.Institutions,
			Users:         set.Users,
		}),
		Cases: cases.New(cases.UsecasesDeps{
			DB:          svc.DB(),
			Log:         log,
			Assessments: set.Assessments,
			Users:       set.Users,
		}),
		Users: users.New(users.UsecasesDeps{
			DB:          svc.DB(),
			Log:         log,
			Users:       set.Users,
			Assessments: set.Assessments,
		}),
		GeoLoader: geo.NewLoader(geo.LoaderDeps{
			DB:  svc.DB(),
			Log: log,
			Geo: set.Geo,
		}),
	}, nil
}
