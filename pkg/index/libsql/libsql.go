//go:build libsql

// Package libsql provides an index store on libSQL, the SQLite fork behind
// Turso. It links its own SQLite build, so it is kept out of default builds
// (which link mattn/go-sqlite3) and enabled with the "libsql" build tag.
package libsql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/tursodatabase/go-libsql"

	"github.com/papercomputeco/visualsearch/pkg/index/sqlstore"
)

// NewStore opens a local libSQL database file. dsn is a path or a "file:" URL.
func NewStore(ctx context.Context, dsn string) (*sqlstore.Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("libsql path is required")
	}
	if !strings.Contains(dsn, ":") {
		dsn = "file:" + dsn
	}

	db, err := sql.Open("libsql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s, err := sqlstore.New(ctx, db, sqlstore.SQLite, "")
	if err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}
