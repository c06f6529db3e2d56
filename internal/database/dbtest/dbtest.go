// Package dbtest provides a migrated SQLite database for tests.
package dbtest

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/01moynul/agritech-golang/internal/database"
	_ "modernc.org/sqlite"
)

// New opens a fresh file-backed SQLite database with the full schema applied.
// The pool is limited to one connection, so callers must not query through
// the *sql.DB while a transaction on it is open.
func New(t testing.TB) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		t.Fatalf("Failed to open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if err := database.RunMigrations(db, database.DialectSQLite); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}
