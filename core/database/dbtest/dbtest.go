// Package dbtest opens throwaway SQLite databases for store-backed tests.
package dbtest

import (
	"path/filepath"
	"testing"

	"go-event-roster/core/database"
)

// Open returns a migrated SQLite database that is closed when the test ends.
func Open(t testing.TB) *database.Database {
	t.Helper()

	path := filepath.Join(t.TempDir(), "events.db")
	db, err := database.InitDB(database.DatabaseConfig{
		Driver: database.DriverSQLite,
		Path:   path,
	})
	if err != nil {
		t.Fatalf("open sqlite test db: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}
