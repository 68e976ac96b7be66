package test

import (
	"database/sql"
	"log"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"todotracker/internal/adapter/database"
	"todotracker/internal/adapter/database/sqlite"
	"todotracker/pkg"
)

// InitTestDB returns a migrated in-memory database. The pool is pinned to a
// single connection because every new connection to :memory: is a new,
// empty database.
func InitTestDB() *database.DB {
	db, err := sql.Open("sqlite3", "file::memory:?_foreign_keys=1")

	if err != nil {
		log.Fatal(err)
	}

	db.SetMaxOpenConns(1)

	migrationsPath := filepath.Join(pkg.FindProjectRoot(), "db", "migrations", "sqlite")

	if err := sqlite.RunMigrations(db, migrationsPath); err != nil {
		log.Fatal(err)
	}

	return database.New(db, database.DialectSQLite)
}

// CleanDB empties every application table, keeping the schema.
func CleanDB(t *testing.T, db *database.DB) {
	t.Helper()

	for _, table := range []string{"todo_tags", "tags", "todos", "push_subscriptions", "users"} {
		if _, err := db.Exec("DELETE FROM " + table); err != nil {
			t.Fatalf("Failed to clean table %s: %v", table, err)
		}
	}
}

func TeardownTest(t *testing.T, db *database.DB) {
	if db != nil {
		CleanDB(t, db)
		db.Close()
	}
}
