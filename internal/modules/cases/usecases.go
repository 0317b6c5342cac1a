package cases

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/ficharisk/ficharisk-backend/internal/data/repos"
	types "github.com/ficharisk/ficharisk-backend/internal/domain"
	"github.com/ficharisk/ficharisk-backend/internal/pkg/dbctx"
	apperrors "github.com/ficharisk/ficharisk-backend/internal/pkg/errors"
	"github.com/ficharisk/ficharisk-backend/internal/pkg/logger"
)

type UsecasesDeps struct {
	DB  *gorm.DB
	Log *logger.Logger

	Assessments repos.AssessmentRepo
	Users       repos.UserRepo
}

type Usecases struct {
	deps UsecasesDeps
}

func New(deps UsecasesDeps) Usecases {
	if deps.Log != nil {
		deps.Log = deps.Log.With("usecases", "cases")
	}
	return Usecases{deps: deps}
}

// ListFilter narrows a case listing within the actor's visibility scope.
type ListFilter struct {
	DocumentContains string
	CreatedAfter     time.Time
	Limit            int
}

// Dashboard is the KPI block shown on the landing screen: case counts by
// risk tier plus score statistics, all within the actor's scope.
type Dashboard struct {
	TotalCases int64
	ByTier     map[types.Tier]int64
	Stats      repos.ScoreStats
}

// scope translates the actor's capabilities into a recorder-ID filter.
// nil recorder list means unrestricted (admin); an empty non-nil list
// means the actor can see nothing.
func (u Usecases) scope(dbc dbctx.Context, actor types.Actor) ([]uuid.UUID, error) {
	if actor.Role == types.RoleAdmin {
		return nil, nil
	}
	if actor.Can(types.CapViewTeamCases) {
		team, err := u.deps.Users.ListBySupervisor(dbc, actor.ID)
		if err != nil {
			return nil, fmt.Errorf("list team: %w", err)
		}
		ids := make([]uuid.UUID, 0, len(team)+1)
		for _, member := range team {
			ids = append(ids, member.ID)
		}
		ids = append(ids, actor.ID)
		return ids, nil
	}
	if actor.Can(types.CapViewOwnCases) {
		return []uuid.UUID{actor.ID}, nil
	}
	return nil, fmt.Errorf("case listing: %w", apperrors.ErrUnauthorized)
}

// List returns the cases the actor is allowed to see, newest first.
func (u Usecases) List(ctx context.Context, actor types.Actor, f ListFilter) ([]*types.Assessment, error) {
	dbc := dbctx.New(ctx)
	recorders, err := u.scope(dbc, actor)
	if err != nil {
		return nil, err
	}
	filter := repos.CaseFilter{
		RecordedByIDs:    recorders,
		DocumentContains: f.DocumentContains,
		Limit:            f.Limit,
	}
	if !f.CreatedAfter.IsZero() {
		filter.CreatedAfter = &f.CreatedAfter
	}
	return u.deps.Assessments.List(dbc, filter)
}

// KPIs computes the dashboard numbers. The tier breakdown and the score
// statistics are independent aggregates, so they run concurrently.
func (u Usecases) KPIs(ctx context.Context, actor types.Actor) (Dashboard, error) {
	recorders, err := u.scope(dbctx.New(ctx), actor)
	if err != nil {
		return Dashboard{}, err
	}
	filter := repos.CaseFilter{RecordedByIDs: recorders}

	var dash Dashboard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		byTier, err := u.deps.Assessments.CountByTier(dbctx.New(gctx), filter)
		if err != nil {
			return fmt.Errorf("count by tier: %w", err)
		}
		dash.ByTier = byTier
		return nil
	})
	g.Go(func() error {
		stats, err := u.deps.Assessments.Stats(dbctx.New(gctx), filter)
		if err != nil {
			return fmt.Errorf("score stats: %w", err)
		}
		dash.Stats = stats
		return nil
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}
	dash.TotalCases = dash.Stats.Count
	return dash, nil
}
