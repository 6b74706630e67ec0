package storage

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/loganlanou/snapgram/storage/db"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/*.sql
var testMigrations embed.FS

// NewTestDB creates an in-memory SQLite database for testing
func NewTestDB() (*sql.DB, *db.Queries, func(), error) {
	database, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open test database: %w", err)
	}
	// every new connection would get its own empty :memory: database
	database.SetMaxOpenConns(1)

	if err := migrate(database, testMigrations); err != nil {
		database.Close()
		return nil, nil, nil, err
	}

	queries := db.New(database)

	cleanup := func() {
		database.Close()
	}

	return database, queries, cleanup, nil
}
