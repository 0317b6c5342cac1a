package catalog

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
		DB:           tx,
		Log:          testutil.Logger(tb),
		Dimensions:   set.Dimensions,
		Questions:    set.Questions,
		Options:      set.Options,
		Institutions: set.Institutions,
		Details:      set.Details,
	})
}

func admin() types.Actor {
	return types.Actor{ID: uuid.New(), Role: types.RoleAdmin}
}

func seedOrderedQuestions(tb testing.TB, tx *gorm.DB, dim *types.Dimension, n int) []*types.Question {
	tb.Helper()
	out := make([]*types.Question, 0, n)
	for i := 1; i <= n; i++ {
		q, _ := testutil.SeedQuestionWithOptions(tb, tx, dim.ID, dim.Name+" q", i, 0, 1)
		out = append(out, q)
	}
	return out
}

func assertPositions(tb testing.TB, tx *gorm.DB, dimensionID uuid.UUID, want []int) {
	tb.Helper()
	set := repos.Wire(tx, testutil.Logger(tb))
	got, err := set.Questions.Positions(testutil.Ctx(tx), dimensionID)
	if err != nil {
		tb.Fatalf("positions: %v", err)
	}
	if len(got) != len(want) {
		tb.Fatalf("got positions %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			tb.Fatalf("got positions %v, want %v", got, want)
		}
	}
}

func TestCreateQuestionInsertsAndShifts(t *testing.T) {
	tx := testutil.Tx(t, testutil.DB(t))
	uc := newUsecases(t, tx)
	ctx := context.Background()

	dim := testutil.SeedDimension(t, tx, "Family", 1)
	seedOrderedQuestions(t, tx, dim, 3)

	id, err := uc.CreateQuestion(ctx, admin(), CreateQuestionInput{
		DimensionID: dim.ID,
		Statement:   "inserted at two",
		Position:    2,
		Options:     []OptionInput{{Text: "no", Points: 0}, {Text: "yes", Points: 3}},
	})
	if err != nil {
		t.Fatalf("create question: %v", err)
	}
	assertPositions(t, tx, dim.ID, []int{1, 2, 3, 4})

	set := repos.Wire(tx, testutil.Logger(t))
	q, err := set.Questions.GetByID(testutil.Ctx(tx), id)
	if err != nil || q == nil {
		t.Fatalf("load created question: %v", err)
	}
	if q.Position != 2 {
		t.Fatalf("got position %d, want 2", q.Position)
	}
}

func TestCreateQuestionClampsPastEnd(t *testing.T) {
	tx := testutil.Tx(t, testutil.DB(t))
	uc := newUsecases(t, tx)
	ctx := context.Background()

	dim := testutil.SeedDimension(t, tx, "Health", 1)
	seedOrderedQuestions(t, tx, dim, 2)

	id, err := uc.CreateQuestion(ctx, admin(), CreateQuestionInput{
		DimensionID: dim.ID,
		Statement:   "way past the end",
		Position:    99,
		Options:     []OptionInput{{Text: "no"}, {Text: "yes", Points: 1}},
	})
	if err != nil {
		t.Fatalf("create question: %v", err)
	}
	set := repos.Wire(tx, testutil.Logger(t))
	q, _ := set.Questions.GetByID(testutil.Ctx(tx), id)
	if q.Position != 3 {
		t.Fatalf("got position %d, want clamp to 3", q.Position)
	}
	assertPositions(t, tx, dim.ID, []int{1, 2, 3})
}

func TestCreateQuestionRejectsPositionBelowOne(t *testing.T) {
	tx := testutil.Tx(t, testutil.DB(t))
	uc := newUsecases(t, tx)

	dim := testutil.SeedDimension(t, tx, "Housing", 1)
	_, err := uc.CreateQuestion(context.Background(), admin(), CreateQuestionInput{
		DimensionID: dim.ID,
		Statement:   "bad slot",
		Position:    0,
		Options:     []OptionInput{{Text: "no"}, {Text: "yes", Points: 1}},
	})
	if !errors.Is(err, apperrors.ErrInvalidArgument) {
		t.Fatalf("got %v, want invalid argument", err)
	}
}

func TestCreateQuestionRequiresTwoOptions(t *testing.T) {
	tx := testutil.Tx(t, testutil.DB(t))
	uc := newUsecases(t, tx)

	dim := testutil.SeedDimension(t, tx, "Economy", 1)
	_, err := uc.CreateQuestion(context.Background(), admin(), CreateQuestionInput{
		DimensionID: dim.ID,
		Statement:   "one option only",
		Position:    1,
		Options:     []OptionInput{{Text: "lonely"}},
	})
	if !errors.Is(err, apperrors.ErrInvalidArgument) {
		t.Fatalf("got %v, want invalid argument", err)
	}
}

func TestMoveQuestionEarlier(t *testing.T) {
	tx := testutil.Tx(t, testutil.DB(t))
	uc := newUsecases(t, tx)
	ctx := context.Background()

	dim := testutil.SeedDimension(t, tx, "Family", 1)
	qs := seedOrderedQuestions(t, tx, dim, 4)

	// move #4 to slot 2: 1,2,3 -> 1,3,4 and mover lands on 2
	if err := uc.MoveQuestion(ctx, admin(), qs[3].ID, uuid.Nil, 2); err != nil {
		t.Fatalf("move question: %v", err)
	}
	assertPositions(t, tx, dim.ID, []int{1, 2, 3, 4})

	set := repos.Wire(tx, testutil.Logger(t))
	moved, _ := set.Questions.GetByID(testutil.Ctx(tx), qs[3].ID)
	if moved.Position != 2 {
		t.Fatalf("got position %d, want 2", moved.Position)
	}
	displaced, _ := set.Questions.GetByID(testutil.Ctx(tx), qs[1].ID)
	if displaced.Position != 3 {
		t.Fatalf("displaced question got position %d, want 3", displaced.Position)
	}
}

func TestMoveQuestionLater(t *testing.T) {
	tx := testutil.Tx(t, testutil.DB(t))
	uc := newUsecases(t, tx)
	ctx := context.Background()

	dim := testutil.SeedDimension(t, tx, "Family", 1)
	qs := seedOrderedQuestions(t, tx, dim, 4)

	if err := uc.MoveQuestion(ctx, admin(), qs[0].ID, uuid.Nil, 3); err != nil {
		t.Fatalf("move question: %v", err)
	}
	assertPositions(t, tx, dim.ID, []int{1, 2, 3, 4})

	set := repos.Wire(tx, testutil.Logger(t))
	moved, _ := set.Questions.GetByID(testutil.Ctx(tx), qs[0].ID)
	if moved.Position != 3 {
		t.Fatalf("got position %d, want 3", moved.Position)
	}
	pulled, _ := set.Questions.GetByID(testutil.Ctx(tx), qs[1].ID)
	if pulled.Position != 1 {
		t.Fatalf("pulled question got position %d, want 1", pulled.Position)
	}
}

func TestMoveQuestionToOwnSlotIsNoop(t *testing.T) {
	tx := testutil.Tx(t, testutil.DB(t))
	uc := newUsecases(t, tx)
	ctx := context.Background()

	dim := testutil.SeedDimension(t, tx, "Family", 1)
	qs := seedOrderedQuestions(t, tx, dim, 3)

	if err := uc.MoveQuestion(ctx, admin(), qs[1].ID, uuid.Nil, 2); err != nil {
		t.Fatalf("move question: %v", err)
	}
	assertPositions(t, tx, dim.ID, []int{1, 2, 3})

	set := repos.Wire(tx, testutil.Logger(t))
	q, _ := set.Questions.GetByID(testutil.Ctx(tx), qs[1].ID)
	if q.Position != 2 {
		t.Fatalf("got position %d, want 2 untouched", q.Position)
	}
}

func TestMoveQuestionClampsToLastSlot(t *testing.T) {
	tx := testutil.Tx(t, testutil.DB(t))
	uc := newUsecases(t, tx)
	ctx := context.Background()

	dim := testutil.SeedDimension(t, tx, "Family", 1)
	qs := seedOrderedQuestions(t, tx, dim, 3)

	if err := uc.MoveQuestion(ctx, admin(), qs[0].ID, uuid.Nil, 50); err != nil {
		t.Fatalf("move question: %v", err)
	}
	set := repos.Wire(tx, testutil.Logger(t))
	q, _ := set.Questions.GetByID(testutil.Ctx(tx), qs[0].ID)
	if q.Position != 3 {
		t.Fatalf("got position %d, want clamp to 3", q.Position)
	}
	assertPositions(t, tx, dim.ID, []int{1, 2, 3})
}

func TestMoveQuestionAcrossDimensions(t *testing.T) {
	tx := testutil.Tx(t, testutil.DB(t))
	uc := newUsecases(t, tx)
	ctx := context.Background()

	src := testutil.SeedDimension(t, tx, "Source", 1)
	dst := testutil.SeedDimension(t, tx, "Target", 2)
	srcQs := seedOrderedQuestions(t, tx, src, 4)
	seedOrderedQuestions(t, tx, dst, 3)

	// take the second of four and put it first in the other dimension
	if err := uc.MoveQuestion(ctx, admin(), srcQs[1].ID, dst.ID, 1); err != nil {
		t.Fatalf("move question: %v", err)
	}
	assertPositions(t, tx, src.ID, []int{1, 2, 3})
	assertPositions(t, tx, dst.ID, []int{1, 2, 3, 4})

	set := repos.Wire(tx, testutil.Logger(t))
	moved, _ := set.Questions.GetByID(testutil.Ctx(tx), srcQs[1].ID)
	if moved.DimensionID != dst.ID || moved.Position != 1 {
		t.Fatalf("got dimension %s position %d, want target dimension position 1", moved.DimensionID, moved.Position)
	}
}

func TestDeleteQuestionClosesGap(t *testing.T) {
	tx := testutil.Tx(t, testutil.DB(t))
	uc := newUsecases(t, tx)
	ctx := context.Background()

	dim := testutil.SeedDimension(t, tx, "Family", 1)
	qs := seedOrderedQuestions(t, tx, dim, 3)

	if err := uc.DeleteQuestion(ctx, admin(), qs[1].ID); err != nil {
		t.Fatalf("delete question: %v", err)
	}
	assertPositions(t, tx, dim.ID, []int{1, 2})

	set := repos.Wire(tx, testutil.Logger(t))
	last, _ := set.Questions.GetByID(testutil.Ctx(tx), qs[2].ID)
	if last.Position != 2 {
		t.Fatalf("got position %d, want 2", last.Position)
	}
}

func TestInterleavedMutationsKeepContiguity(t *testing.T) {
	tx := testutil.Tx(t, testutil.DB(t))
	uc := newUsecases(t, tx)
	ctx := context.Background()

	dim := testutil.SeedDimension(t, tx, "Family", 1)
	qs := seedOrderedQuestions(t, tx, dim, 5)

	if err := uc.DeleteQuestion(ctx, admin(), qs[0].ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := uc.CreateQuestion(ctx, admin(), CreateQuestionInput{
		DimensionID: dim.ID,
		Statement:   "filler",
		Position:    3,
		Options:     []OptionInput{{Text: "no"}, {Text: "yes", Points: 2}},
	}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := uc.MoveQuestion(ctx, admin(), qs[4].ID, uuid.Nil, 1); err != nil {
		t.Fatalf("move: %v", err)
	}
	if err := uc.DeleteQuestion(ctx, admin(), qs[2].ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	assertPositions(t, tx, dim.ID, []int{1, 2, 3, 4})
}

func TestCatalogMutationsRequireCapability(t *testing.T) {
	tx := testutil.Tx(t, testutil.DB(t))
	uc := newUsecases(t, tx)
	ctx := context.Background()

	dim := testutil.SeedDimension(t, tx, "Family", 1)
	surveyor := types.Actor{ID: uuid.New(), Role: types.RoleSurveyor}

	_, err := uc.CreateQuestion(ctx, surveyor, CreateQuestionInput{
		DimensionID: dim.ID,
		Statement:   "not allowed",
		Position:    1,
		Options:     []OptionInput{{Text: "no"}, {Text: "yes", Points: 1}},
	})
	if !errors.Is(err, apperrors.ErrUnauthorized) {
		t.Fatalf("got %v, want unauthorized", err)
	}
	if err := uc.DeleteDimension(ctx, surveyor, dim.ID); !errors.Is(err, apperrors.ErrUnauthorized) {
		t.Fatalf("got %v, want unauthorized", err)
	}
}
