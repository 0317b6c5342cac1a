package main

import (
	"context"
	"flag"
	"os"

	"github.com/ficharisk/ficharisk-backend/internal/app"
	"github.com/ficharisk/ficharisk-backend/internal/pkg/logger"
	"github.com/ficharisk/ficharisk-backend/internal/platform/envutil"
)

func main() {
	file := flag.String("file", "ubigeo.csv", "INEI ubigeo export (latin-1, semicolon separated)")
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

	summary, err := a.GeoLoader.LoadFile(ctx, *file)
	if err != nil {
		log.Fatal("ubigeo load failed", "file", *file, "error", err)
	}
	log.Info("ubigeo load complete",
		"departments", summary.Departments,
		"provinces", summary.Provinces,
		"districts", summary.Districts,
		"skipped", summary.Skipped)
}
