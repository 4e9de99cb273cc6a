package db

import (
	"path/filepath"
	"testing"

	"github.com/twonumberfortyfives/e-commerce-shop/config"
	"github.com/twonumberfortyfives/e-commerce-shop/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_SQLiteMigrates(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "test.db")

	db, err := New(config.Database{Type: "sqlite", DSN: dsn}, "info")
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	assert.True(t, db.Migrator().HasTable(&model.User{}))
	assert.True(t, db.Migrator().HasIndex(&model.User{}, "idx_users_username"))
	assert.True(t, db.Migrator().HasIndex(&model.User{}, "idx_users_email"))
	assert.True(t, db.Migrator().HasTable(&model.ResendRequest{}))
}

func TestNew_UnknownType(t *testing.T) {
	_, err := New(config.Database{Type: "mysql", DSN: "x"}, "info")
	assert.Error(t, err)
}

func TestIsMemoryDSN(t *testing.T) {
	assert.True(t, isMemoryDSN(":memory:"))
	assert.True(t, isMemoryDSN("file:test?mode=memory&cache=shared"))
	assert.False(t, isMemoryDSN("database.db"))
}
