package main

import (
	"os"

	"github.com/ficharisk/ficharisk-backend/internal/db"
	"github.com/ficharisk/ficharisk-backend/internal/pkg/logger"
	"github.com/ficharisk/ficharisk-backend/internal/platform/envutil"
)

func main() {
	log, err := logger.New(envutil.String("APP_MODE", "dev"))
	if err != nil {
		os.Exit(1)
	}
	defer log.Sync()

	svc, err := db.NewService(log)
	if err != nil {
		log.Fatal("database connection failed", "error", err)
	}
	if err := svc.AutoMigrateAll(); err != nil {
		log.Fatal("migration failed", "error", err)
	}
}
