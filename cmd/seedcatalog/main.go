package main

import (
	"context"
	"flag"
	"os"

	"github.com/ficharisk/ficharisk-backend/internal/app"
	types "github.com/ficharisk/ficharisk-backend/internal/domain"
	"github.com/ficharisk/ficharisk-backend/internal/pkg/logger"
	"github.com/ficharisk/ficharisk-backend/internal/platform/envutil"
)

func main() {
	var (
		file    = flag.String("file", "catalog.yaml", "questionnaire definition to load")
		replace = flag.Bool("replace", false, "drop the existing catalog first (refused once answers exist)")
	)
	flag.Parse()

	log, err := logger.New(envutil.String("APP_MODE", "dev"))
	if err != nil {
		os.Exit(1)
	}
	defer log.Sync()

	ctx := context.Background()
	a, err := app.New(ctx, log)
	if err != nil {
		log.Fatal("startup failed", "error", err)
	}

	// Seeding runs from the shell, outside any session; it acts as an
	// administrative identity.
	actor := types.Actor{Role: types.RoleAdmin}
	summary, err := a.Catalog.SeedFromFile(ctx, actor, *file, *replace)
	if err != nil {
		log.Fatal("catalog seed failed", "file", *file, "error", err)
	}
	log.Info("catalog seed complete",
		"dimensions", summary.Dimensions,
		"questions", summary.Questions,
		"options", summary.Options)
}
