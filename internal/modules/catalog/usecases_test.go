package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ficharisk/ficharisk-backend/internal/data/repos/testutil"
	types "github.com/ficharisk/ficharisk-backend/internal/domain"
	apperrors "github.com/ficharisk/ficharisk-backend/internal/pkg/errors"
)

// seedAnswer records one frozen answer so in-use checks have something
// to find.
func seedAnswer(tb testing.TB, tx *gorm.DB, q *types.Question, opt *types.Option) {
	tb.Helper()
	recorder := testutil.SeedUser(tb, tx, "recorder-"+uuid.NewString()+"@test.pe", types.RoleSurveyor)
	inst := testutil.SeedInstitution(tb, tx, uuid.NewString()[:7])
	a := &types.Assessment{
		ID:                uuid.New(),
		RecordedByID:      recorder.ID,
		InstitutionID:     inst.ID,
		SubjectFirstNames: "Ana",
		SubjectLastNames:  "Quispe",
		DocumentNumber:    "12345678",
	}
	if err := tx.Create(a).Error; err != nil {
		tb.Fatalf("seed assessment: %v", err)
	}
	d := &types.AssessmentDetail{
		ID:           uuid.New(),
		AssessmentID: a.ID,
		QuestionID:   q.ID,
		OptionID:     opt.ID,
		FrozenPoints: opt.Points,
	}
	if err := tx.Create(d).Error; err != nil {
		tb.Fatalf("seed detail: %v", err)
	}
}

func TestDeleteQuestionBlockedWhenAnswered(t *testing.T) {
	tx := testutil.Tx(t, testutil.DB(t))
	uc := newUsecases(t, tx)

	dim := testutil.SeedDimension(t, tx, "Family", 1)
	q, opts := testutil.SeedQuestionWithOptions(t, tx, dim.ID, "answered", 1, 0, 3)
	seedAnswer(t, tx, q, opts[1])

	err := uc.DeleteQuestion(context.Background(), admin(), q.ID)
	if !errors.Is(err, apperrors.ErrInUse) {
		t.Fatalf("got %v, want in use", err)
	}
	assertPositions(t, tx, dim.ID, []int{1})
}

func TestDeleteDimensionBlockedWhenAnswered(t *testing.T) {
	tx := testutil.Tx(t, testutil.DB(t))
	uc := newUsecases(t, tx)

	dim := testutil.SeedDimension(t, tx, "Family", 1)
	q, opts := testutil.SeedQuestionWithOptions(t, tx, dim.ID, "answered", 1, 0, 3)
	seedAnswer(t, tx, q, opts[0])

	err := uc.DeleteDimension(context.Background(), admin(), dim.ID)
	if !errors.Is(err, apperrors.ErrInUse) {
		t.Fatalf("got %v, want in use", err)
	}
}

func TestDeleteDimensionCascades(t *testing.T) {
	tx := testutil.Tx(t, testutil.DB(t))
	uc := newUsecases(t, tx)
	ctx := context.Background()

	dim := testutil.SeedDimension(t, tx, "Empty", 1)
	testutil.SeedQuestionWithOptions(t, tx, dim.ID, "gone", 1, 0, 1)

	if err := uc.DeleteDimension(ctx, admin(), dim.ID); err != nil {
		t.Fatalf("delete dimension: %v", err)
	}
	var n int64
	if err := tx.Model(&types.Question{}).Where("dimension_id = ?", dim.ID).Count(&n).Error; err != nil {
		t.Fatalf("count questions: %v", err)
	}
	if n != 0 {
		t.Fatalf("got %d questions left, want 0", n)
	}
}

func TestUpdateQuestionReplacesOptions(t *testing.T) {
	tx := testutil.Tx(t, testutil.DB(t))
	uc := newUsecases(t, tx)
	ctx := context.Background()

	dim := testutil.SeedDimension(t, tx, "Family", 1)
	q, _ := testutil.SeedQuestionWithOptions(t, tx, dim.ID, "old statement", 1, 0, 1)

	err := uc.UpdateQuestion(ctx, admin(), q.ID, "new statement", []OptionInput{
		{Text: "never", Points: 0},
		{Text: "sometimes", Points: 2},
		{Text: "always", Points: 5},
	})
	if err != nil {
		t.Fatalf("update question: %v", err)
	}

	var opts []types.Option
	if err := tx.Where("question_id = ?", q.ID).Find(&opts).Error; err != nil {
		t.Fatalf("load options: %v", err)
	}
	if len(opts) != 3 {
		t.Fatalf("got %d options, want 3", len(opts))
	}
}

func TestUpdateQuestionBlockedWhenAnswered(t *testing.T) {
	tx := testutil.Tx(t, testutil.DB(t))
	uc := newUsecases(t, tx)

	dim := testutil.SeedDimension(t, tx, "Family", 1)
	q, opts := testutil.SeedQuestionWithOptions(t, tx, dim.ID, "answered", 1, 0, 3)
	seedAnswer(t, tx, q, opts[1])

	err := uc.UpdateQuestion(context.Background(), admin(), q.ID, "rewrite", []OptionInput{
		{Text: "no", Points: 0},
		{Text: "yes", Points: 1},
	})
	if !errors.Is(err, apperrors.ErrInUse) {
		t.Fatalf("got %v, want in use", err)
	}
}

func TestDeleteOptionKeepsMinimum(t *testing.T) {
	tx := testutil.Tx(t, testutil.DB(t))
	uc := newUsecases(t, tx)
	ctx := context.Background()

	dim := testutil.SeedDimension(t, tx, "Family", 1)
	_, opts := testutil.SeedQuestionWithOptions(t, tx, dim.ID, "two options", 1, 0, 1)

	err := uc.DeleteOption(ctx, admin(), opts[0].ID)
	if !errors.Is(err, apperrors.ErrInvalidArgument) {
		t.Fatalf("got %v, want invalid argument", err)
	}

	_, opts3 := testutil.SeedQuestionWithOptions(t, tx, dim.ID, "three options", 2, 0, 1, 2)
	if err := uc.DeleteOption(ctx, admin(), opts3[2].ID); err != nil {
		t.Fatalf("delete third option: %v", err)
	}
}

func TestQuestionnaireOrdersEverything(t *testing.T) {
	tx := testutil.Tx(t, testutil.DB(t))
	uc := newUsecases(t, tx)
	ctx := context.Background()

	second := testutil.SeedDimension(t, tx, "Second", 2)
	first := testutil.SeedDimension(t, tx, "First", 1)
	testutil.SeedQuestionWithOptions(t, tx, first.ID, "f2", 2, 0, 1)
	testutil.SeedQuestionWithOptions(t, tx, first.ID, "f1", 1, 0, 1)
	testutil.SeedQuestionWithOptions(t, tx, second.ID, "s1", 1, 0, 1)

	dims, err := uc.Questionnaire(ctx)
	if err != nil {
		t.Fatalf("questionnaire: %v", err)
	}
	if len(dims) != 2 || dims[0].ID != first.ID || dims[1].ID != second.ID {
		t.Fatalf("dimensions out of order")
	}
	if len(dims[0].Questions) != 2 || dims[0].Questions[0].Statement != "f1" {
		t.Fatalf("questions out of order: %+v", dims[0].Questions)
	}
	if len(dims[0].Questions[0].Options) != 2 {
		t.Fatalf("options not preloaded")
	}
}
