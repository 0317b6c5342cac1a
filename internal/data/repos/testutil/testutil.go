package testutil

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/ficharisk/ficharisk-backend/internal/db"
	types "github.com/ficharisk/ficharisk-backend/internal/domain"
	"github.com/ficharisk/ficharisk-backend/internal/pkg/dbctx"
	"github.com/ficharisk/ficharisk-backend/internal/pkg/logger"
)

var (
	dbOnce sync.Once
	gdb    *gorm.DB
	dbErr  error
)

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	return logger.Nop()
}

// DB opens the shared test database: TEST_POSTGRES_DSN when set,
// otherwise an in-memory sqlite database. Schema is auto-migrated once.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	dbOnce.Do(func() {
		var dial gorm.Dialector
		if dsn := os.Getenv("TEST_POSTGRES_DSN"); dsn != "" {
			dial = postgres.Open(dsn)
		} else {
			dial = sqlite.Open("file::memory:?cache=shared")
		}

		gdb, dbErr = gorm.Open(dial, &gorm.Config{
			Logger: gormLogger.Default.LogMode(gormLogger.Silent),
		})
		if dbErr != nil {
			return
		}
		dbErr = db.AutoMigrate(gdb)
	})

	if dbErr != nil {
		tb.Fatalf("failed to init test db: %v", dbErr)
	}
	return gdb
}

// Tx begins a transaction that is rolled back when the test finishes, so
// tests never leak rows into the shared database.
func Tx(tb testing.TB, gdb *gorm.DB) *gorm.DB {
	tb.Helper()
	tx := gdb.Begin()
	if tx.Error != nil {
		tb.Fatalf("begin tx: %v", tx.Error)
	}
	tb.Cleanup(func() {
		_ = tx.Rollback().Error
	})
	return tx
}

func Ctx(tx *gorm.DB) dbctx.Context {
	return dbctx.Context{Ctx: context.Background(), Tx: tx}
}

func SeedUser(tb testing.TB, tx *gorm.DB, email string, role types.Role) *types.User {
	tb.Helper()
	id := uuid.New()
	u := &types.User{
		ID:             id,
		Email:          email,
		Role:           role,
		FirstNames:     "Test",
		LastNames:      "User",
		DocumentNumber: id.String(),
	}
	if err := tx.Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedInstitution(tb testing.TB, tx *gorm.DB, code string) *types.Institution {
	tb.Helper()
	inst := &types.Institution{
		ID:          uuid.New(),
		ModularCode: code,
		Name:        "IE " + code,
		ContactName: "Contact " + code,
	}
	if err := tx.Create(inst).Error; err != nil {
		tb.Fatalf("seed institution: %v", err)
	}
	return inst
}

func SeedDimension(tb testing.TB, tx *gorm.DB, name string, position int) *types.Dimension {
	tb.Helper()
	d := &types.Dimension{
		ID:       uuid.New(),
		Name:     name,
		Position: position,
	}
	if err := tx.Create(d).Error; err != nil {
		tb.Fatalf("seed dimension: %v", err)
	}
	return d
}

func SeedQuestion(tb testing.TB, tx *gorm.DB, dimensionID uuid.UUID, statement string, position int) *types.Question {
	tb.Helper()
	q := &types.Question{
		ID:          uuid.New(),
		DimensionID: dimensionID,
		Statement:   statement,
		Position:    position,
	}
	if err := tx.Create(q).Error; err != nil {
		tb.Fatalf("seed question: %v", err)
	}
	return q
}

func SeedOption(tb testing.TB, tx *gorm.DB, questionID uuid.UUID, text string, points int) *types.Option {
	tb.Helper()
	o := &types.Option{
		ID:         uuid.New(),
		QuestionID: questionID,
		Text:       text,
		Points:     points,
	}
	if err := tx.Create(o).Error; err != nil {
		tb.Fatalf("seed option: %v", err)
	}
	return o
}

// SeedQuestionWithOptions creates a question plus one option per points
// value, returning the question and its options in input order.
func SeedQuestionWithOptions(tb testing.TB, tx *gorm.DB, dimensionID uuid.UUID, statement string, position int, points ...int) (*types.Question, []*types.Option) {
	tb.Helper()
	q := SeedQuestion(tb, tx, dimensionID, statement, position)
	opts := make([]*types.Option, 0, len(points))
	for i, p := range points {
		opts = append(opts, SeedOption(tb, tx, q.ID, statement+" opt "+string(rune('a'+i)), p))
	}
	return q, opts
}

// Day is a convenience for date-window filter tests.
func Day(daysAgo int) time.Time {
	return time.Now().AddDate(0, 0, -daysAgo)
}
