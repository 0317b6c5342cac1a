package catalog

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	types "github.com/ficharisk/ficharisk-backend/internal/domain"
	"github.com/ficharisk/ficharisk-backend/internal/domain/catalog"
	"github.com/ficharisk/ficharisk-backend/internal/pkg/dbctx"
	apperrors "github.com/ficharisk/ficharisk-backend/internal/pkg/errors"
)

// seedFile is the YAML shape consumed by SeedFromFile. Positions are
// assigned from declaration order, not read from the file.
type seedFile struct {
	Dimensions []seedDimension `yaml:"dimensions"`
}

type seedDimension struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Questions   []seedQuestion `yaml:"questions"`
}

type seedQuestion struct {
	Statement string       `yaml:"statement"`
	Options   []seedOption `yaml:"options"`
}

type seedOption struct {
	Text   string `yaml:"text"`
	Points int    `yaml:"points"`
}

type SeedSummary struct {
	Dimensions int
	Questions  int
	Options    int
}

// SeedFromFile loads a full questionnaire definition in one transaction.
// With replace set, the existing catalog is dropped first; this is
// refused while any question has recorded answers.
func (u Usecases) SeedFromFile(ctx context.Context, actor types.Actor, path string, replace bool) (SeedSummary, error) {
	var summary SeedSummary
	if err := u.requireCatalogAdmin(actor); err != nil {
		return summary, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return summary, fmt.Errorf("read seed file: %w", err)
	}
	var file seedFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return summary, fmt.Errorf("parse seed file: %w", err)
	}
	if len(file.Dimensions) == 0 {
		return summary, apperrors.Validation("dimensions", "seed file defines no dimensions")
	}
	for _, d := range file.Dimensions {
		for _, q := range d.Questions {
			if len(q.Options) < catalog.MinOptionsPerQuestion {
				return summary, apperrors.Validation("options",
					fmt.Sprintf("question %q needs at least %d options", q.Statement, catalog.MinOptionsPerQuestion))
			}
		}
	}

	err = u.deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}

		existing, err := u.deps.Dimensions.List(dbc)
		if err != nil {
			return fmt.Errorf("list dimensions: %w", err)
		}
		if len(existing) > 0 {
			if !replace {
				return fmt.Errorf("catalog already populated: %w", apperrors.ErrInUse)
			}
			for _, dim := range existing {
				questions, err := u.deps.Questions.ListByDimension(dbc, dim.ID)
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
					return fmt.Errorf("catalog has recorded answers: %w", apperrors.ErrInUse)
				}
				for _, q := range questions {
					if err := u.deps.Options.DeleteByQuestion(dbc, q.ID); err != nil {
						return fmt.Errorf("delete options: %w", err)
					}
				}
				if err := u.deps.Questions.DeleteByDimension(dbc, dim.ID); err != nil {
					return fmt.Errorf("delete questions: %w", err)
				}
				if err := u.deps.Dimensions.Delete(dbc, dim.ID); err != nil {
					return fmt.Errorf("delete dimension: %w", err)
				}
			}
		}

		for di, d := range file.Dimensions {
			dim := &types.Dimension{
				ID:          uuid.New(),
				Name:        d.Name,
				Description: d.Description,
				Position:    di + 1,
			}
			if err := u.deps.Dimensions.Create(dbc, dim); err != nil {
				return fmt.Errorf("create dimension %q: %w", d.Name, err)
			}
			summary.Dimensions++
			for qi, sq := range d.Questions {
				q := &types.Question{
					ID:          uuid.New(),
					DimensionID: dim.ID,
					Statement:   sq.Statement,
					Position:    qi + 1,
				}
				if err := u.deps.Questions.Create(dbc, q); err != nil {
					return fmt.Errorf("create question %q: %w", sq.Statement, err)
				}
				summary.Questions++
				options := make([]*types.Option, 0, len(sq.Options))
				for _, so := range sq.Options {
					options = append(options, &types.Option{
						ID:         uuid.New(),
						QuestionID: q.ID,
						Text:       so.Text,
						Points:     so.Points,
					})
				}
				if err := u.deps.Options.Create(dbc, options); err != nil {
					return fmt.Errorf("create options for %q: %w", sq.Statement, err)
				}
				summary.Options += len(options)
			}
		}
		return nil
	})
	if err != nil {
		return SeedSummary{}, err
	}
	u.invalidate(ctx)
	u.deps.Log.Info("catalog seeded",
		"dimensions", summary.Dimensions, "questions", summary.Questions, "options", summary.Options)
	return summary, nil
}
