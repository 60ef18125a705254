// Package backend opens the configured index.Store.
package backend

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/papercomputeco/visualsearch/pkg/index"
	"github.com/papercomputeco/visualsearch/pkg/index/elastic"
	"github.com/papercomputeco/visualsearch/pkg/index/inmemory"
	"github.com/papercomputeco/visualsearch/pkg/index/postgres"
	"github.com/papercomputeco/visualsearch/pkg/index/qdrant"
	"github.com/papercomputeco/visualsearch/pkg/index/sqlite"
)

const (
	Elasticsearch = "elasticsearch"
	Memory        = "memory"
	SQLite        = "sqlite"
	Postgres      = "postgres"
	LibSQL        = "libsql"
	Qdrant        = "qdrant"
)

// Options holds the settings of every backend; only the selected provider's
// fields are read.
type Options struct {
	Provider string

	Elasticsearch elastic.Config
	SQLitePath    string
	Postgres      postgres.Config
	LibSQLPath    string
	Qdrant        qdrant.Config
}

type opener func(ctx context.Context, o Options, logger *slog.Logger) (index.Store, error)

var openers = map[string]opener{
	Elasticsearch: func(_ context.Context, o Options, logger *slog.Logger) (index.Store, error) {
		return elastic.NewStore(o.Elasticsearch, logger)
	},
	Memory: func(context.Context, Options, *slog.Logger) (index.Store, error) {
		return inmemory.NewStore(), nil
	},
	SQLite: func(ctx context.Context, o Options, _ *slog.Logger) (index.Store, error) {
		if o.SQLitePath == "" {
			return nil, fmt.Errorf("sqlite path is required")
		}
		return sqlite.NewStore(ctx, o.SQLitePath)
	},
	Postgres: func(ctx context.Context, o Options, _ *slog.Logger) (index.Store, error) {
		return postgres.NewStore(ctx, o.Postgres)
	},
	Qdrant: func(ctx context.Context, o Options, logger *slog.Logger) (index.Store, error) {
		return qdrant.NewStore(ctx, o.Qdrant, logger)
	},
}

// Providers returns the providers compiled into this binary.
func Providers() []string {
	names := make([]string, 0, len(openers))
	for name := range openers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Open connects to the backend named by o.Provider.
func Open(ctx context.Context, o Options, logger *slog.Logger) (index.Store, error) {
	open, ok := openers[o.Provider]
	if !ok {
		if o.Provider == LibSQL {
			return nil, fmt.Errorf("libsql index requires a binary built with -tags libsql")
		}
		return nil, fmt.Errorf("unknown index provider %q (available: %s)", o.Provider, strings.Join(Providers(), ", "))
	}

	store, err := open(ctx, o, logger)
	if err != nil {
		return nil, fmt.Errorf("opening %s index: %w", o.Provider, err)
	}

	logger.Info("index backend ready", "provider", o.Provider)
	return store, nil
}
