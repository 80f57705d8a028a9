// Package testdb provides a migrated in-memory database for tests.
package testdb

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/upmail/upmail/internal/config"
	"github.com/upmail/upmail/internal/db"
)

// New returns a fresh in-memory sqlite database with all models migrated.
func New(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := db.Open(&config.Config{DB: config.DB{Engine: config.EngineSQLite, Name: ":memory:"}})
	require.NoError(t, err, "failed to create test database")

	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	return gdb
}
