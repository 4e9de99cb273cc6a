// Package db opens the relational store and migrates the models
package db

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/twonumberfortyfives/e-commerce-shop/config"
	"github.com/twonumberfortyfives/e-commerce-shop/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func New(cfg config.Database, logLevel string) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch cfg.Type {
	case "sqlite":
		// Inside a container the sqlite file has to be mounted by the host,
		// otherwise it silently lives and dies with the container
		if isRunningInDocker() && !isMemoryDSN(cfg.DSN) {
			if _, err := os.Stat(cfg.DSN); errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("SQLite database file %s not mounted, please use docker volumes to mount it", cfg.DSN)
			}
		}

		dialector = sqlite.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database type %q", cfg.Type)
	}

	gormLog := logger.Default.LogMode(logger.Warn)
	if logLevel == "debug" {
		gormLog = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormLog,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s database, %w", cfg.Type, err)
	}

	if err := db.AutoMigrate(&model.User{}, &model.ResendRequest{}); err != nil {
		return nil, fmt.Errorf("failed to automigrate tables, %w", err)
	}

	return db, nil
}

func isMemoryDSN(dsn string) bool {
	return dsn == ":memory:" || strings.Contains(dsn, "mode=memory")
}

func isRunningInDocker() bool {
	_, err := os.Stat("/.dockerenv")
	return err == nil
}
