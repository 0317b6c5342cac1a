package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	types "github.com/ficharisk/ficharisk-backend/internal/domain"
	"github.com/ficharisk/ficharisk-backend/internal/pkg/logger"
	"github.com/ficharisk/ficharisk-backend/internal/platform/envutil"
)

type Service struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewService connects to Postgres, or to a local sqlite file when
// DB_DRIVER=sqlite is set (development without a database server).
func NewService(log *logger.Logger) (*Service, error) {
	serviceLog := log.With("service", "DBService")

	driver := envutil.String("DB_DRIVER", "postgres")
	var dial gorm.Dialector
	switch driver {
	case "sqlite":
		path := envutil.String("SQLITE_PATH", "ficharisk.db")
		serviceLog.Info("Opening sqlite database", "path", path)
		dial = sqlite.Open(path)
	default:
		host := envutil.String("POSTGRES_HOST", "localhost")
		port := envutil.String("POSTGRES_PORT", "5432")
		user := envutil.String("POSTGRES_USER", "postgres")
		password := envutil.String("POSTGRES_PASSWORD", "")
		name := envutil.String("POSTGRES_NAME", "ficharisk")
		sslmode := envutil.String("POSTGRES_SSLMODE", "disable")

		dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, password, host, port, name, sslmode)
		serviceLog.Info("Connecting to Postgres", "host", host, "db", name)
		dial = postgres.Open(dsn)
	}

	gdb, err := gorm.Open(dial, &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Warn),
	})
	if err != nil {
		serviceLog.Error("Failed to open database", "driver", driver, "error", err)
		return nil, fmt.Errorf("open database: %w", err)
	}

	return &Service{db: gdb, log: serviceLog}, nil
}

func (s *Service) DB() *gorm.DB { return s.db }

func (s *Service) AutoMigrateAll() error {
	s.log.Info("Auto migrating tables...")
	if err := AutoMigrate(s.db); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	s.log.Info("Auto migration complete")
	return nil
}

// AutoMigrate creates or updates every table the module owns. Shared with
// the test helpers so tests migrate the same schema.
func AutoMigrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&types.User{},

		&types.Department{},
		&types.Province{},
		&types.District{},

		&types.Institution{},
		&types.Dimension{},
		&types.Question{},
		&types.Option{},

		&types.Assessment{},
		&types.AssessmentDetail{},
		&types.FamilyMember{},
		&types.ChangeLogEntry{},
	)
}
