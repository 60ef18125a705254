// Package sqlite provides a SQLite-backed index store.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/papercomputeco/visualsearch/pkg/index/sqlstore"
)

// NewStore opens (creating if needed) the database at dbPath. Use ":memory:"
// for a private in-memory database.
func NewStore(ctx context.Context, dbPath string) (*sqlstore.Store, error) {
	// Open the database using the github.com/mattn/go-sqlite3 driver (registered as "sqlite3")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every pooled connection to ":memory:" is its own database.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	s, err := sqlstore.New(ctx, db, sqlstore.SQLite, "")
	if err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}
