// Package testutil holds helpers shared by tests of several packages
package testutil

import (
	"testing"

	"github.com/twonumberfortyfives/e-commerce-shop/internal/model"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a private in-memory sqlite database with the user table
// migrated. The pool is capped at one connection since every connection to
// :memory: would otherwise see its own empty database.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database, %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB, %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(&model.User{}, &model.ResendRequest{}); err != nil {
		t.Fatalf("failed to migrate test database, %v", err)
	}

	return db
}
