// Package sqlstore implements index.Store on top of database/sql. Documents are
// kept verbatim in one table and queries are evaluated with package match.
// Dialect-specific packages (sqlite, libsql, postgres) open the database and
// hand it over.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	"github.com/google/uuid"

	"github.com/papercomputeco/visualsearch/pkg/index"
	"github.com/papercomputeco/visualsearch/pkg/index/match"
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Dialect holds the SQL that differs between databases. Every statement is a
// format string taking the table name.
type Dialect struct {
	Name   string
	Schema []string
	Insert string
	Scan   string
}

// SQLite is the dialect of SQLite and libSQL.
var SQLite = Dialect{
	Name: "sqlite",
	Schema: []string{
		`CREATE TABLE IF NOT EXISTS %s (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			document TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	},
	Insert: `INSERT INTO %s (id, document) VALUES (?, ?)`,
	Scan:   `SELECT id, document FROM %s ORDER BY seq`,
}

// Store is a SQL-backed index.Store.
type Store struct {
	db      *sql.DB
	dialect Dialect
	insert  string
	scan    string
	index   string
	typ     string
}

// New creates the table if needed and returns a store over db. The store owns
// db and closes it on Close. An empty table defaults to index.DefaultType.
func New(ctx context.Context, db *sql.DB, d Dialect, table string) (*Store, error) {
	if table == "" {
		table = index.DefaultType
	}
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}

	for _, stmt := range d.Schema {
		if _, err := db.ExecContext(ctx, fmt.Sprintf(stmt, table)); err != nil {
			return nil, fmt.Errorf("creating %s schema: %w", d.Name, err)
		}
	}

	return &Store{
		db:      db,
		dialect: d,
		insert:  fmt.Sprintf(d.Insert, table),
		scan:    fmt.Sprintf(d.Scan, table),
		index:   index.DefaultIndex,
		typ:     table,
	}, nil
}

// Store inserts document under a new id.
func (s *Store) Store(ctx context.Context, document []byte) (*index.StoreResult, error) {
	if _, err := match.Decode(document); err != nil {
		return match.BadDocument(err), nil
	}

	id := uuid.NewString()
	if _, err := s.db.ExecContext(ctx, s.insert, id, string(document)); err != nil {
		return nil, fmt.Errorf("inserting document: %w", err)
	}

	return match.Created(s.index, s.typ, id), nil
}

// Search scans the table in insertion order and scores each document.
func (s *Store) Search(ctx context.Context, query []byte) (*index.SearchResult, error) {
	q, err := match.Parse(query)
	if err != nil {
		return match.BadQuery(err), nil
	}

	rows, err := s.db.QueryContext(ctx, s.scan)
	if err != nil {
		return nil, fmt.Errorf("scanning documents: %w", err)
	}
	defer rows.Close()

	c := match.NewCollector(q, s.index, s.typ)
	for rows.Next() {
		var id, document string
		if err := rows.Scan(&id, &document); err != nil {
			return nil, fmt.Errorf("reading document row: %w", err)
		}
		if err := c.Offer(id, []byte(document)); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scanning documents: %w", err)
	}

	return c.Result()
}

// DB exposes the underlying handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
