//go:build libsql

package backend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/papercomputeco/visualsearch/pkg/index"
	"github.com/papercomputeco/visualsearch/pkg/index/libsql"
)

func init() {
	openers[LibSQL] = func(ctx context.Context, o Options, _ *slog.Logger) (index.Store, error) {
		if o.LibSQLPath == "" {
			return nil, fmt.Errorf("libsql path is required")
		}
		return libsql.NewStore(ctx, o.LibSQLPath)
	}
}
