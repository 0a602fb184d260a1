package database

import (
	"fmt"

	"github.com/calderaweb/pressroom/internal/config"
	"github.com/calderaweb/pressroom/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Connect opens the Postgres connection and runs migrations. The handle
// is opened once per process and injected into the repository; there is
// no package-level singleton.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	logMode := gormlogger.Warn
	if cfg.Env == "development" {
		logMode = gormlogger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logMode),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&models.Post{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}
