package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// IsImage reports whether path names a JPEG file by its extension.
func IsImage(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return true
	default:
		return false
	}
}

// Walk queues every JPEG file under root on the pool and returns how many it
// queued. Hidden directories are not descended into.
func Walk(ctx context.Context, root string, pool *Pool) (int, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return 0, fmt.Errorf("resolving %s: %w", root, err)
	}

	n := 0
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !IsImage(path) {
			return nil
		}

		if !pool.Enqueue(ctx, Job{Path: path}) {
			return ctx.Err()
		}
		n++
		return nil
	})
	if err != nil {
		return n, fmt.Errorf("walking %s: %w", root, err)
	}

	return n, nil
}
