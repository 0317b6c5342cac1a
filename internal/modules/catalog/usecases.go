package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ficharisk/ficharisk-backend/internal/data/repos"
	types "github.com/ficharisk/ficharisk-backend/internal/domain"
	"github.com/ficharisk/ficharisk-backend/internal/domain/catalog"
	"github.com/ficharisk/ficharisk-backend/internal/pkg/dbctx"
	apperrors "github.com/ficharisk/ficharisk-backend/internal/pkg/errors"
	"github.com/ficharisk/ficharisk-backend/internal/pkg/logger"
)

type UsecasesDeps struct {
	DB  *gorm.DB
	Log *logger.Logger

	Dimensions   repos.DimensionRepo
	Questions    repos.QuestionRepo
	Options      repos.OptionRepo
	Institutions repos.InstitutionRepo
	Details      repos.DetailRepo

	// Optional: snapshot cache for the questionnaire read side.
	Cache *SnapshotCache
}

type Usecases struct {
	deps UsecasesDeps
}

func New(deps UsecasesDeps) Usecases {
	if deps.Log != nil {
		deps.Log = deps.Log.With("usecases", "catalog")
	}
	return Usecases{deps: deps}
}

func (u Usecases) requireCatalogAdmin(actor types.Actor) error {
	if !actor.Can(types.CapManageCatalog) {
		return fmt.Errorf("manage catalog: %w", apperrors.ErrUnauthorized)
	}
	return nil
}

// ---- dimensions ----

type DimensionInput struct {
	Name        string
	Description string
	Position    int
}

func (in DimensionInput) validate() error {
	v := apperrors.NewValidation()
	if strings.TrimSpace(in.Name) == "" {
		v.Add("name", "required")
	}
	if in.Position < 1 {
		v.Add("position", "must be at least 1")
	}
	return v.Err()
}

func (u Usecases) CreateDimension(ctx context.Context, actor types.Actor, in DimensionInput) (uuid.UUID, error) {
	if err := u.requireCatalogAdmin(actor); err != nil {
		return uuid.Nil, err
	}
	if err := in.validate(); err != nil {
		return uuid.Nil, err
	}
	dim := &types.Dimension{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Position:    in.Position,
	}
	if err := u.deps.Dimensions.Create(dbctx.New(ctx), dim); err != nil {
		return uuid.Nil, fmt.Errorf("create dimension: %w", err)
	}
	u.invalidate(ctx)
	u.deps.Log.Info("dimension created", "dimension_id", dim.ID, "position", dim.Position, "actor_id", actor.ID)
	return dim.ID, nil
}

func (u Usecases) UpdateDimension(ctx context.Context, actor types.Actor, id uuid.UUID, in DimensionInput) error {
	if err := u.requireCatalogAdmin(actor); err != nil {
		return err
	}
	if err := in.validate(); err != nil {
		return err
	}
	dbc := dbctx.New(ctx)
	dim, err := u.deps.Dimensions.GetByID(dbc, id)
	if err != nil {
		return fmt.Errorf("load dimension: %w", err)
	}
	if dim == nil {
		return fmt.Errorf("dimension %s: %w", id, apperrors.ErrNotFound)
	}
	dim.Name = strings.TrimSpace(in.Name)
	dim.Description = in.Description
	dim.Position = in.Position
	if err := u.deps.Dimensions.Update(dbc, dim); err != nil {
		return fmt.Errorf("update dimension: %w", err)
	}
	u.invalidate(ctx)
	return nil
}

// DeleteDimension cascades to the dimension's questions and options.
// It is blocked while any of those questions has been answered.
func (u Usecases) DeleteDimension(ctx context.Context, actor types.Actor, id uuid.UUID) error {
	if err := u.requireCatalogAdmin(actor); err != nil {
		return err
	}
	err := u.deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		dim, err := u.deps.Dimensions.LockByID(dbc, id)
		if err != nil {
			return fmt.Errorf("lock dimension: %w", err)
		}
		if dim == nil {
			return fmt.Errorf("dimension %s: %w", id, apperrors.ErrNotFound)
		}
		questions, err := u.deps.Questions.ListByDimension(dbc, id)
		if err != nil {
			return fmt.Errorf("list questions: %w", err)
		}
		qids := make([]uuid.UUID, 0, len(questions))
		for _, q := range questions {
			qids = append(qids, q.ID)
		}
		answered, err := u.deps.Details.CountByQuestionIDs(dbc, qids)
		if err != nil {
			return fmt.Errorf("count answers: %w", err)
		}
		if answered > 0 {
			return fmt.Errorf("dimension has answered questions: %w", apperrors.ErrInUse)
		}
		for _, q := range questions {
			if err := u.deps.Options.DeleteByQuestion(dbc, q.ID); err != nil {
				return fmt.Errorf("delete options: %w", err)
			}
		}
		if err := u.deps.Questions.DeleteByDimension(dbc, id); err != nil {
			return fmt.Errorf("delete questions: %w", err)
		}
		return u.deps.Dimensions.Delete(dbc, id)
	})
	if err != nil {
		return err
	}
	u.invalidate(ctx)
	u.deps.Log.Info("dimension deleted", "dimension_id", id, "actor_id", actor.ID)
	return nil
}

// ---- questions ----

type OptionInput struct {
	Text   string
	Points int
}

type CreateQuestionInput struct {
	DimensionID uuid.UUID
	Statement   string
	Position    int
	Options     []OptionInput
}

func validateOptions(opts []OptionInput) error {
	v := apperrors.NewValidation()
	if len(opts) < catalog.MinOptionsPerQuestion {
		v.Add("options", fmt.Sprintf("a question needs at least %d options", catalog.MinOptionsPerQuestion))
	}
	for i, o := range opts {
		if strings.TrimSpace(o.Text) == "" {
			v.Add(fmt.Sprintf("options[%d].text", i), "required")
		}
	}
	return v.Err()
}

// CreateQuestion inserts a question at the requested slot, shifting every
// later question down one. The whole operation is one transaction.
func (u Usecases) CreateQuestion(ctx context.Context, actor types.Actor, in CreateQuestionInput) (uuid.UUID, error) {
	if err := u.requireCatalogAdmin(actor); err != nil {
		return uuid.Nil, err
	}
	v := apperrors.NewValidation()
	if strings.TrimSpace(in.Statement) == "" {
		v.Add("statement", "required")
	}
	if in.DimensionID == uuid.Nil {
		v.Add("dimension_id", "required")
	}
	if err := v.Err(); err != nil {
		return uuid.Nil, err
	}
	if err := validateOptions(in.Options); err != nil {
		return uuid.Nil, err
	}

	questionID := uuid.New()
	err := u.deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		dim, err := u.deps.Dimensions.LockByID(dbc, in.DimensionID)
		if err != nil {
			return fmt.Errorf("lock dimension: %w", err)
		}
		if dim == nil {
			return apperrors.Validation("dimension_id", "dimension does not exist")
		}
		pos, err := u.reposition(dbc, orderInsert, in.DimensionID, 0, in.Position)
		if err != nil {
			return err
		}
		q := &types.Question{
			ID:          questionID,
			DimensionID: in.DimensionID,
			Statement:   strings.TrimSpace(in.Statement),
			Position:    pos,
		}
		if err := u.deps.Questions.Create(dbc, q); err != nil {
			return fmt.Errorf("create question: %w", err)
		}
		options := make([]*types.Option, 0, len(in.Options))
		for _, o := range in.Options {
			options = append(options, &types.Option{
				ID:         uuid.New(),
				QuestionID: q.ID,
				Text:       strings.TrimSpace(o.Text),
				Points:     o.Points,
			})
		}
		return u.deps.Options.Create(dbc, options)
	})
	if err != nil {
		return uuid.Nil, err
	}
	u.invalidate(ctx)
	u.deps.Log.Info("question created", "question_id", questionID, "dimension_id", in.DimensionID, "actor_id", actor.ID)
	return questionID, nil
}

// MoveQuestion relocates a question inside its dimension or into another
// one. A cross-dimension move closes the gap in the source dimension and
// opens a slot in the target, all in one transaction.
func (u Usecases) MoveQuestion(ctx context.Context, actor types.Actor, questionID, newDimensionID uuid.UUID, newPosition int) error {
	if err := u.requireCatalogAdmin(actor); err != nil {
		return err
	}
	err := u.deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		q, err := u.deps.Questions.GetByID(dbc, questionID)
		if err != nil {
			return fmt.Errorf("load question: %w", err)
		}
		if q == nil {
			return fmt.Errorf("question %s: %w", questionID, apperrors.ErrNotFound)
		}
		if newDimensionID == uuid.Nil {
			newDimensionID = q.DimensionID
		}

		if newDimensionID == q.DimensionID {
			if _, err := u.deps.Dimensions.LockByID(dbc, q.DimensionID); err != nil {
				return fmt.Errorf("lock dimension: %w", err)
			}
			pos, err := u.reposition(dbc, orderMove, q.DimensionID, q.Position, newPosition)
			if err != nil {
				return err
			}
			if pos == q.Position {
				return nil
			}
			q.Position = pos
			return u.deps.Questions.Update(dbc, q)
		}

		// Cross-dimension: treated as delete-then-insert for ordering.
		target, err := u.deps.Dimensions.LockByID(dbc, newDimensionID)
		if err != nil {
			return fmt.Errorf("lock target dimension: %w", err)
		}
		if target == nil {
			return apperrors.Validation("dimension_id", "dimension does not exist")
		}
		if _, err := u.deps.Dimensions.LockByID(dbc, q.DimensionID); err != nil {
			return fmt.Errorf("lock source dimension: %w", err)
		}
		if _, err := u.reposition(dbc, orderRemove, q.DimensionID, q.Position, 0); err != nil {
			return err
		}
		pos, err := u.reposition(dbc, orderInsert, newDimensionID, 0, newPosition)
		if err != nil {
			return err
		}
		q.DimensionID = newDimensionID
		q.Position = pos
		return u.deps.Questions.Update(dbc, q)
	})
	if err != nil {
		return err
	}
	u.invalidate(ctx)
	u.deps.Log.Info("question moved", "question_id", questionID, "dimension_id", newDimensionID, "position", newPosition, "actor_id", actor.ID)
	return nil
}

// UpdateQuestion edits the statement and replaces the option set. Options
// that have been answered by an assessment cannot be removed.
func (u Usecases) UpdateQuestion(ctx context.Context, actor types.Actor, questionID uuid.UUID, statement string, options []OptionInput) error {
	if err := u.requireCatalogAdmin(actor); err != nil {
		return err
	}
	if strings.TrimSpace(statement) == "" {
		return apperrors.Validation("statement", "required")
	}
	if err := validateOptions(options); err != nil {
		return err
	}
	err := u.deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		q, err := u.deps.Questions.GetByID(dbc, questionID)
		if err != nil {
			return fmt.Errorf("load question: %w", err)
		}
		if q == nil {
			return fmt.Errorf("question %s: %w", questionID, apperrors.ErrNotFound)
		}

		existing, err := u.deps.Options.ListByQuestion(dbc, questionID)
		if err != nil {
			return fmt.Errorf("list options: %w", err)
		}
		oldIDs := make([]uuid.UUID, 0, len(existing))
		for _, o := range existing {
			oldIDs = append(oldIDs, o.ID)
		}
		answered, err := u.deps.Details.CountByOptionIDs(dbc, oldIDs)
		if err != nil {
			return fmt.Errorf("count answers: %w", err)
		}
		if answered > 0 {
			return fmt.Errorf("question options already answered: %w", apperrors.ErrInUse)
		}
		if err := u.deps.Options.DeleteByQuestion(dbc, questionID); err != nil {
			return fmt.Errorf("delete options: %w", err)
		}
		replacement := make([]*types.Option, 0, len(options))
		for _, o := range options {
			replacement = append(replacement, &types.Option{
				ID:         uuid.New(),
				QuestionID: questionID,
				Text:       strings.TrimSpace(o.Text),
				Points:     o.Points,
			})
		}
		if err := u.deps.Options.Create(dbc, replacement); err != nil {
			return fmt.Errorf("create options: %w", err)
		}
		q.Statement = strings.TrimSpace(statement)
		return u.deps.Questions.Update(dbc, q)
	})
	if err != nil {
		return err
	}
	u.invalidate(ctx)
	return nil
}

// DeleteQuestion removes the question and closes the position gap it
// leaves behind. Answered questions cannot be deleted.
func (u Usecases) DeleteQuestion(ctx context.Context, actor types.Actor, questionID uuid.UUID) error {
	if err := u.requireCatalogAdmin(actor); err != nil {
		return err
	}
	err := u.deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		q, err := u.deps.Questions.GetByID(dbc, questionID)
		if err != nil {
			return fmt.Errorf("load question: %w", err)
		}
		if q == nil {
			return fmt.Errorf("question %s: %w", questionID, apperrors.ErrNotFound)
		}
		if _, err := u.deps.Dimensions.LockByID(dbc, q.DimensionID); err != nil {
			return fmt.Errorf("lock dimension: %w", err)
		}
		answered, err := u.deps.Details.CountByQuestionIDs(dbc, []uuid.UUID{q.ID})
		if err != nil {
			return fmt.Errorf("count answers: %w", err)
		}
		if answered > 0 {
			return fmt.Errorf("question already answered: %w", apperrors.ErrInUse)
		}
		if err := u.deps.Options.DeleteByQuestion(dbc, q.ID); err != nil {
			return fmt.Errorf("delete options: %w", err)
		}
		if err := u.deps.Questions.Delete(dbc, q.ID); err != nil {
			return fmt.Errorf("delete question: %w", err)
		}
		_, err = u.reposition(dbc, orderRemove, q.DimensionID, q.Position, 0)
		return err
	})
	if err != nil {
		return err
	}
	u.invalidate(ctx)
	u.deps.Log.Info("question deleted", "question_id", questionID, "actor_id", actor.ID)
	return nil
}

// ---- options ----

func (u Usecases) AddOption(ctx context.Context, actor types.Actor, questionID uuid.UUID, in OptionInput) (uuid.UUID, error) {
	if err := u.requireCatalogAdmin(actor); err != nil {
		return uuid.Nil, err
	}
	if strings.TrimSpace(in.Text) == "" {
		return uuid.Nil, apperrors.Validation("text", "required")
	}
	dbc := dbctx.New(ctx)
	q, err := u.deps.Questions.GetByID(dbc, questionID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("load question: %w", err)
	}
	if q == nil {
		return uuid.Nil, fmt.Errorf("question %s: %w", questionID, apperrors.ErrNotFound)
	}
	opt := &types.Option{
		ID:         uuid.New(),
		QuestionID: questionID,
		Text:       strings.TrimSpace(in.Text),
		Points:     in.Points,
	}
	if err := u.deps.Options.Create(dbc, []*types.Option{opt}); err != nil {
		return uuid.Nil, fmt.Errorf("create option: %w", err)
	}
	u.invalidate(ctx)
	return opt.ID, nil
}

func (u Usecases) UpdateOption(ctx context.Context, actor types.Actor, optionID uuid.UUID, in OptionInput) error {
	if err := u.requireCatalogAdmin(actor); err != nil {
		return err
	}
	if strings.TrimSpace(in.Text) == "" {
		return apperrors.Validation("text", "required")
	}
	dbc := dbctx.New(ctx)
	opt, err := u.deps.Options.GetByID(dbc, optionID)
	if err != nil {
		return fmt.Errorf("load option: %w", err)
	}
	if opt == nil {
		return fmt.Errorf("option %s: %w", optionID, apperrors.ErrNotFound)
	}
	opt.Text = strings.TrimSpace(in.Text)
	opt.Points = in.Points
	if err := u.deps.Options.Update(dbc, opt); err != nil {
		return fmt.Errorf("update option: %w", err)
	}
	u.invalidate(ctx)
	return nil
}

// DeleteOption refuses to drop below the business minimum of options and
// to remove an option any assessment has selected.
func (u Usecases) DeleteOption(ctx context.Context, actor types.Actor, optionID uuid.UUID) error {
	if err := u.requireCatalogAdmin(actor); err != nil {
		return err
	}
	err := u.deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		opt, err := u.deps.Options.GetByID(dbc, optionID)
		if err != nil {
			return fmt.Errorf("load option: %w", err)
		}
		if opt == nil {
			return fmt.Errorf("option %s: %w", optionID, apperrors.ErrNotFound)
		}
		answered, err := u.deps.Details.CountByOptionIDs(dbc, []uuid.UUID{opt.ID})
		if err != nil {
			return fmt.Errorf("count answers: %w", err)
		}
		if answered > 0 {
			return fmt.Errorf("option already answered: %w", apperrors.ErrInUse)
		}
		n, err := u.deps.Options.CountByQuestion(dbc, opt.QuestionID)
		if err != nil {
			return fmt.Errorf("count options: %w", err)
		}
		if n <= catalog.MinOptionsPerQuestion {
			return apperrors.Validation("options", fmt.Sprintf("a question needs at least %d options", catalog.MinOptionsPerQuestion))
		}
		return u.deps.Options.Delete(dbc, opt.ID)
	})
	if err != nil {
		return err
	}
	u.invalidate(ctx)
	return nil
}

// ---- institutions ----

type InstitutionInput struct {
	ModularCode  string
	Name         string
	Address      string
	Phone        string
	ContactName  string
	ContactEmail string
}

func (u Usecases) CreateInstitution(ctx context.Context, actor types.Actor, in InstitutionInput) (uuid.UUID, error) {
	if err := u.requireCatalogAdmin(actor); err != nil {
		return uuid.Nil, err
	}
	v := apperrors.NewValidation()
	if strings.TrimSpace(in.ModularCode) == "" {
		v.Add("modular_code", "required")
	}
	if strings.TrimSpace(in.Name) == "" {
		v.Add("name", "required")
	}
	if err := v.Err(); err != nil {
		return uuid.Nil, err
	}
	inst := &types.Institution{
		ID:           uuid.New(),
		ModularCode:  strings.TrimSpace(in.ModularCode),
		Name:         strings.TrimSpace(in.Name),
		Address:      in.Address,
		Phone:        in.Phone,
		ContactName:  in.ContactName,
		ContactEmail: in.ContactEmail,
	}
	if err := u.deps.Institutions.Create(dbctx.New(ctx), inst); err != nil {
		return uuid.Nil, fmt.Errorf("create institution: %w", err)
	}
	return inst.ID, nil
}

func (u Usecases) UpdateInstitution(ctx context.Context, actor types.Actor, id uuid.UUID, in InstitutionInput) error {
	if err := u.requireCatalogAdmin(actor); err != nil {
		return err
	}
	dbc := dbctx.New(ctx)
	inst, err := u.deps.Institutions.GetByID(dbc, id)
	if err != nil {
		return fmt.Errorf("load institution: %w", err)
	}
	if inst == nil {
		return fmt.Errorf("institution %s: %w", id, apperrors.ErrNotFound)
	}
	inst.ModularCode = strings.TrimSpace(in.ModularCode)
	inst.Name = strings.TrimSpace(in.Name)
	inst.Address = in.Address
	inst.Phone = in.Phone
	inst.ContactName = in.ContactName
	inst.ContactEmail = in.ContactEmail
	return u.deps.Institutions.Update(dbc, inst)
}

func (u Usecases) ListInstitutions(ctx context.Context, search string) ([]*types.Institution, error) {
	return u.deps.Institutions.List(dbctx.New(ctx), search)
}

// ---- read side ----

// Questionnaire returns the full dimension -> question -> option tree in
// display order, serving from the snapshot cache when one is configured.
func (u Usecases) Questionnaire(ctx context.Context) ([]*types.Dimension, error) {
	if u.deps.Cache != nil {
		if dims, ok := u.deps.Cache.Get(ctx); ok {
			return dims, nil
		}
	}
	dims, err := u.deps.Dimensions.ListWithQuestions(dbctx.New(ctx))
	if err != nil {
		return nil, fmt.Errorf("load questionnaire: %w", err)
	}
	if u.deps.Cache != nil {
		u.deps.Cache.Set(ctx, dims)
	}
	return dims, nil
}

// QuestionPositions exposes the ordered position list of one dimension.
func (u Usecases) QuestionPositions(ctx context.Context, dimensionID uuid.UUID) ([]int, error) {
	return u.deps.Questions.Positions(dbctx.New(ctx), dimensionID)
}

func (u Usecases) invalidate(ctx context.Context) {
	if u.deps.Cache != nil {
		u.deps.Cache.Invalidate(ctx)
	}
}
