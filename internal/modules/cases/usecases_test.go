package cases

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ficharisk/ficharisk-backend/internal/data/repos"
	"github.com/ficharisk/ficharisk-backend/internal/data/repos/testutil"
	types "github.com/ficharisk/ficharisk-backend/internal/domain"
	apperrors "github.com/ficharisk/ficharisk-backend/internal/pkg/errors"
)

func newUsecases(tb testing.TB, tx *gorm.DB) Usecases {
	tb.Helper()
	set := repos.Wire(tx, testutil.Logger(tb))
	return New(UsecasesDeps{
		DB:          tx,
		Log:         testutil.Logger(tb),
		Assessments: set.Assessments,
		Users:       set.Users,
	})
}

func seedCase(tb testing.TB, tx *gorm.DB, recorder *types.User, doc string, total int, tier types.Tier) *types.Assessment {
	tb.Helper()
	inst := testutil.SeedInstitution(tb, tx, uuid.NewString()[:7])
	a := &types.Assessment{
		ID:                uuid.New(),
		RecordedByID:      recorder.ID,
		InstitutionID:     inst.ID,
		SubjectFirstNames: "Subject",
		SubjectLastNames:  "Case",
		DocumentNumber:    doc,
		TotalScore:        total,
		RiskTier:          tier,
	}
	if err := tx.Create(a).Error; err != nil {
		tb.Fatalf("seed case: %v", err)
	}
	return a
}

// team seeds a supervisor with one surveyor plus an unrelated surveyor,
// each with one recorded case.
func team(tb testing.TB, tx *gorm.DB) (boss, member, outsider *types.User) {
	tb.Helper()
	boss = testutil.SeedUser(tb, tx, "boss-"+uuid.NewString()+"@test.pe", types.RoleSupervisor)
	member = testutil.SeedUser(tb, tx, "member-"+uuid.NewString()+"@test.pe", types.RoleSurveyor)
	outsider = testutil.SeedUser(tb, tx, "out-"+uuid.NewString()+"@test.pe", types.RoleSurveyor)
	if err := tx.Model(member).Update("supervisor_id", boss.ID).Error; err != nil {
		tb.Fatalf("assign supervisor: %v", err)
	}
	seedCase(tb, tx, member, "11111111", 30, types.TierModerate)
	seedCase(tb, tx, outsider, "22222222", 130, types.TierCritical)
	return boss, member, outsider
}

func TestListScopesSurveyorToOwnCases(t *testing.T) {
	tx := testutil.Tx(t, testutil.DB(t))
	uc := newUsecases(t, tx)
	_, member, outsider := team(t, tx)

	got, err := uc.List(context.Background(), types.Actor{ID: member.ID, Role: types.RoleSurveyor}, ListFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].RecordedByID != member.ID {
		t.Fatalf("surveyor must see exactly their own case, got %d", len(got))
	}

	got, err = uc.List(context.Background(), types.Actor{ID: outsider.ID, Role: types.RoleSurveyor}, ListFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].RecordedByID != outsider.ID {
		t.Fatalf("outsider must see exactly their own case, got %d", len(got))
	}
}

func TestListScopesSupervisorToTeam(t *testing.T) {
	tx := testutil.Tx(t, testutil.DB(t))
	uc := newUsecases(t, tx)
	boss, member, _ := team(t, tx)

	got, err := uc.List(context.Background(), types.Actor{ID: boss.ID, Role: types.RoleSupervisor}, ListFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].RecordedByID != member.ID {
		t.Fatalf("supervisor must see the team's case only, got %d", len(got))
	}
}

func TestListAdminSeesEverything(t *testing.T) {
	tx := testutil.Tx(t, testutil.DB(t))
	uc := newUsecases(t, tx)
	team(t, tx)

	adminUser := testutil.SeedUser(t, tx, "admin-"+uuid.NewString()+"@test.pe", types.RoleAdmin)
	got, err := uc.List(context.Background(), types.Actor{ID: adminUser.ID, Role: types.RoleAdmin}, ListFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("admin must see all cases, got %d", len(got))
	}
}

func TestListFiltersByDocument(t *testing.T) {
	tx := testutil.Tx(t, testutil.DB(t))
	uc := newUsecases(t, tx)
	_, member, _ := team(t, tx)
	seedCase(t, tx, member, "11119999", 10, types.TierLow)

	got, err := uc.List(context.Background(), types.Actor{ID: member.ID, Role: types.RoleSurveyor}, ListFilter{
		DocumentContains: "9999",
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].DocumentNumber != "11119999" {
		t.Fatalf("document filter failed, got %d rows", len(got))
	}
}

func TestKPIsAggregateWithinScope(t *testing.T) {
	tx := testutil.Tx(t, testutil.DB(t))
	uc := newUsecases(t, tx)
	boss, member, _ := team(t, tx)
	seedCase(t, tx, member, "33333333", 80, types.TierSevere)

	dash, err := uc.KPIs(context.Background(), types.Actor{ID: boss.ID, Role: types.RoleSupervisor})
	if err != nil {
		t.Fatalf("kpis: %v", err)
	}
	if dash.TotalCases != 2 {
		t.Fatalf("total = %d, want 2 (outsider's case excluded)", dash.TotalCases)
	}
	if dash.ByTier[types.TierModerate] != 1 || dash.ByTier[types.TierSevere] != 1 {
		t.Fatalf("tier breakdown = %v", dash.ByTier)
	}
	if dash.Stats.Min != 30 || dash.Stats.Max != 80 {
		t.Fatalf("stats = %+v, want min 30 max 80", dash.Stats)
	}
}

func TestKPIsAdminCoversAllCases(t *testing.T) {
	tx := testutil.Tx(t, testutil.DB(t))
	uc := newUsecases(t, tx)
	team(t, tx)

	dash, err := uc.KPIs(context.Background(), types.Actor{ID: uuid.New(), Role: types.RoleAdmin})
	if err != nil {
		t.Fatalf("kpis: %v", err)
	}
	if dash.TotalCases != 2 {
		t.Fatalf("total = %d, want 2", dash.TotalCases)
	}
	if dash.ByTier[types.TierCritical] != 1 {
		t.Fatalf("tier breakdown = %v", dash.ByTier)
	}
}

func TestListRejectsRolelessActor(t *testing.T) {
	tx := testutil.Tx(t, testutil.DB(t))
	uc := newUsecases(t, tx)

	_, err := uc.List(context.Background(), types.Actor{ID: uuid.New(), Role: types.Role("GUEST")}, ListFilter{})
	if !errors.Is(err, apperrors.ErrUnauthorized) {
		t.Fatalf("got %v, want unauthorized", err)
	}
}
