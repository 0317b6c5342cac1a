package assessment

import (
	"context"
	"encoding/json"
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
		DB:            tx,
		Log:           testutil.Logger(tb),
		Assessments:   set.Assessments,
		Details:       set.Details,
		FamilyMembers: set.FamilyMembers,
		ChangeLog:     set.ChangeLog,
		Dimensions:    set.Dimensions,
		Questions:     set.Questions,
		Options:       set.Options,
		Institutions:  set.Institutions,
		Users:         set.Users,
	})
}

// fixture is a two-dimension questionnaire plus the people and
// institution a submission needs.
type fixture struct {
	recorder *types.User
	inst     *types.Institution

	q1, q2, q3 *types.Question
	o1, o2, o3 []*types.Option
}

func seedFixture(tb testing.TB, tx *gorm.DB) fixture {
	tb.Helper()
	var f fixture
	f.recorder = testutil.SeedUser(tb, tx, "surveyor-"+uuid.NewString()+"@test.pe", types.RoleSurveyor)
	f.inst = testutil.SeedInstitution(tb, tx, uuid.NewString()[:7])

	dim1 := testutil.SeedDimension(tb, tx, "Family", 1)
	dim2 := testutil.SeedDimension(tb, tx, "Economy", 2)
	f.q1, f.o1 = testutil.SeedQuestionWithOptions(tb, tx, dim1.ID, "lives with parents", 1, 0, 4)
	f.q2, f.o2 = testutil.SeedQuestionWithOptions(tb, tx, dim1.ID, "violence at home", 2, 0, 5, 10)
	f.q3, f.o3 = testutil.SeedQuestionWithOptions(tb, tx, dim2.ID, "stable income", 1, 0, 6)
	return f
}

func (f fixture) header() HeaderInput {
	return HeaderInput{
		InstitutionID:     f.inst.ID,
		SubjectFirstNames: "Ana",
		SubjectLastNames:  "Quispe",
		DocumentNumber:    "12345678",
		Age:               15,
		Sex:               "F",
	}
}

func (f fixture) actor() types.Actor {
	return types.Actor{ID: f.recorder.ID, Role: types.RoleSurveyor}
}

func TestSubmitFreezesPointsAndScores(t *testing.T) {
	tx := testutil.Tx(t, testutil.DB(t))
	uc := newUsecases(t, tx)
	ctx := context.Background()
	f := seedFixture(t, tx)

	id, err := uc.Submit(ctx, f.actor(), SubmitInput{
		Header: f.header(),
		Answers: map[uuid.UUID]uuid.UUID{
			f.q1.ID: f.o1[1].ID, // 4
			f.q2.ID: f.o2[2].ID, // 10
			f.q3.ID: f.o3[1].ID, // 6
		},
		FamilyMembers: []FamilyMemberInput{{Names: "Rosa Quispe", Relationship: "mother", Age: 40}},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	a, err := uc.Get(ctx, f.actor(), id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if a.ScoreDimA != 14 || a.ScoreDimB != 6 || a.TotalScore != 20 {
		t.Fatalf("scores A=%d B=%d total=%d, want 14/6/20", a.ScoreDimA, a.ScoreDimB, a.TotalScore)
	}
	if a.RiskTier != types.TierLow {
		t.Fatalf("tier = %s, want LOW", a.RiskTier)
	}
	if len(a.Details) != 3 || len(a.FamilyMembers) != 1 {
		t.Fatalf("details=%d family=%d, want 3/1", len(a.Details), len(a.FamilyMembers))
	}
	if len(a.ChangeLog) != 0 {
		t.Fatalf("a fresh submission must have no change log entries")
	}

	// Catalog edits after submission must not touch the frozen record.
	if err := tx.Model(f.o2[2]).Update("points", 100).Error; err != nil {
		t.Fatalf("repoint option: %v", err)
	}
	again, _ := uc.Get(ctx, f.actor(), id)
	if again.TotalScore != 20 {
		t.Fatalf("total moved to %d after catalog edit, frozen points must hold", again.TotalScore)
	}
}

func TestSubmitIsAtomic(t *testing.T) {
	tx := testutil.Tx(t, testutil.DB(t))
	uc := newUsecases(t, tx)
	ctx := context.Background()
	f := seedFixture(t, tx)

	// o3 belongs to q3, not q1: the whole submission must roll back.
	_, err := uc.Submit(ctx, f.actor(), SubmitInput{
		Header: f.header(),
		Answers: map[uuid.UUID]uuid.UUID{
			f.q1.ID: f.o3[1].ID,
			f.q2.ID: f.o2[0].ID,
		},
	})
	if !errors.Is(err, apperrors.ErrInvalidArgument) {
		t.Fatalf("got %v, want invalid argument", err)
	}
	var n int64
	if err := tx.Model(&types.Assessment{}).Count(&n).Error; err != nil {
		t.Fatalf("count assessments: %v", err)
	}
	if n != 0 {
		t.Fatalf("got %d assessments after failed submit, want 0", n)
	}
}

func TestEditWritesOneChangeLogEntry(t *testing.T) {
	tx := testutil.Tx(t, testutil.DB(t))
	uc := newUsecases(t, tx)
	ctx := context.Background()
	f := seedFixture(t, tx)

	id, err := uc.Submit(ctx, f.actor(), SubmitInput{
		Header: f.header(),
		Answers: map[uuid.UUID]uuid.UUID{
			f.q1.ID: f.o1[0].ID, // 0
			f.q2.ID: f.o2[1].ID, // 5
			f.q3.ID: f.o3[0].ID, // 0
		},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	edited := f.header()
	edited.Age = 16
	edited.Address = "Jr. Los Alamos 123"
	err = uc.Edit(ctx, f.actor(), id, EditInput{
		Header: edited,
		Answers: map[uuid.UUID]uuid.UUID{
			f.q2.ID: f.o2[2].ID, // 5 -> 10
		},
	})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}

	a, _ := uc.Get(ctx, f.actor(), id)
	if len(a.ChangeLog) != 1 {
		t.Fatalf("got %d change log entries, want exactly 1", len(a.ChangeLog))
	}
	var lines []string
	if err := json.Unmarshal(a.ChangeLog[0].Deltas, &lines); err != nil {
		t.Fatalf("decode deltas: %v", err)
	}
	if len(lines) < 3 {
		t.Fatalf("got deltas %v, want age, address and answer lines", lines)
	}
	if a.ScoreDimA != 10 || a.TotalScore != 10 {
		t.Fatalf("scores not recomputed: A=%d total=%d", a.ScoreDimA, a.TotalScore)
	}
}

func TestEditWithoutChangesWritesNothing(t *testing.T) {
	tx := testutil.Tx(t, testutil.DB(t))
	uc := newUsecases(t, tx)
	ctx := context.Background()
	f := seedFixture(t, tx)

	answers := map[uuid.UUID]uuid.UUID{
		f.q1.ID: f.o1[0].ID,
		f.q2.ID: f.o2[0].ID,
		f.q3.ID: f.o3[0].ID,
	}
	id, err := uc.Submit(ctx, f.actor(), SubmitInput{Header: f.header(), Answers: answers})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	// identical header, identical answers
	if err := uc.Edit(ctx, f.actor(), id, EditInput{Header: f.header(), Answers: answers}); err != nil {
		t.Fatalf("edit: %v", err)
	}
	a, _ := uc.Get(ctx, f.actor(), id)
	if len(a.ChangeLog) != 0 {
		t.Fatalf("no-op edit wrote %d change log entries", len(a.ChangeLog))
	}
}

func TestEditRefreezesOnlyChangedAnswers(t *testing.T) {
	tx := testutil.Tx(t, testutil.DB(t))
	uc := newUsecases(t, tx)
	ctx := context.Background()
	f := seedFixture(t, tx)

	id, err := uc.Submit(ctx, f.actor(), SubmitInput{
		Header: f.header(),
		Answers: map[uuid.UUID]uuid.UUID{
			f.q1.ID: f.o1[1].ID, // 4
			f.q2.ID: f.o2[1].ID, // 5
			f.q3.ID: f.o3[1].ID, // 6
		},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	// Repoint the still-selected q1 option. An edit that only changes q2
	// must keep q1's original frozen 4.
	if err := tx.Model(f.o1[1]).Update("points", 50).Error; err != nil {
		t.Fatalf("repoint option: %v", err)
	}
	err = uc.Edit(ctx, f.actor(), id, EditInput{
		Header:  f.header(),
		Answers: map[uuid.UUID]uuid.UUID{f.q2.ID: f.o2[2].ID}, // 5 -> 10
	})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}

	a, _ := uc.Get(ctx, f.actor(), id)
	if a.TotalScore != 4+10+6 {
		t.Fatalf("total = %d, want 20: unchanged answers must keep frozen points", a.TotalScore)
	}
}

func TestEditScopedToRecorderAndTeam(t *testing.T) {
	tx := testutil.Tx(t, testutil.DB(t))
	uc := newUsecases(t, tx)
	ctx := context.Background()
	f := seedFixture(t, tx)

	id, err := uc.Submit(ctx, f.actor(), SubmitInput{
		Header:  f.header(),
		Answers: map[uuid.UUID]uuid.UUID{f.q1.ID: f.o1[0].ID},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	stranger := testutil.SeedUser(t, tx, "other-"+uuid.NewString()+"@test.pe", types.RoleSurveyor)
	_, err = uc.Get(ctx, types.Actor{ID: stranger.ID, Role: types.RoleSurveyor}, id)
	if !errors.Is(err, apperrors.ErrUnauthorized) {
		t.Fatalf("stranger access: got %v, want unauthorized", err)
	}

	boss := testutil.SeedUser(t, tx, "boss-"+uuid.NewString()+"@test.pe", types.RoleSupervisor)
	if err := tx.Model(f.recorder).Update("supervisor_id", boss.ID).Error; err != nil {
		t.Fatalf("assign supervisor: %v", err)
	}
	if _, err := uc.Get(ctx, types.Actor{ID: boss.ID, Role: types.RoleSupervisor}, id); err != nil {
		t.Fatalf("supervisor access: %v", err)
	}

	adminUser := testutil.SeedUser(t, tx, "admin-"+uuid.NewString()+"@test.pe", types.RoleAdmin)
	if _, err := uc.Get(ctx, types.Actor{ID: adminUser.ID, Role: types.RoleAdmin}, id); err != nil {
		t.Fatalf("admin access: %v", err)
	}
}

func TestEditReplacesFamilyTable(t *testing.T) {
	tx := testutil.Tx(t, testutil.DB(t))
	uc := newUsecases(t, tx)
	ctx := context.Background()
	f := seedFixture(t, tx)

	id, err := uc.Submit(ctx, f.actor(), SubmitInput{
		Header:        f.header(),
		Answers:       map[uuid.UUID]uuid.UUID{f.q1.ID: f.o1[0].ID},
		FamilyMembers: []FamilyMemberInput{{Names: "Rosa", Relationship: "mother"}},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	replacement := []FamilyMemberInput{
		{Names: "Rosa", Relationship: "mother"},
		{Names: "Luis", Relationship: "brother", Age: 12},
	}
	err = uc.Edit(ctx, f.actor(), id, EditInput{Header: f.header(), FamilyMembers: &replacement})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	a, _ := uc.Get(ctx, f.actor(), id)
	if len(a.FamilyMembers) != 2 {
		t.Fatalf("got %d family members, want 2", len(a.FamilyMembers))
	}
	if len(a.ChangeLog) != 1 {
		t.Fatalf("family replacement must produce one change log entry, got %d", len(a.ChangeLog))
	}
}
