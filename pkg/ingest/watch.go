package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Watch queues JPEG files created or written under root until ctx is done.
// Directories created later are watched too. Repeated write events for one
// file are absorbed by the pool's manifest check.
func Watch(ctx context.Context, root string, pool *Pool, logger *slog.Logger) error {
	root, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", root, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := addTree(watcher, root); err != nil {
		return err
	}
	logger.Info("watching for new images", "dir", root)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			info, err := os.Stat(event.Name)
			if err != nil {
				continue
			}
			if info.IsDir() {
				if event.Op&fsnotify.Create != 0 && !strings.HasPrefix(info.Name(), ".") {
					if err := addTree(watcher, event.Name); err != nil {
						logger.Warn("cannot watch directory", "dir", event.Name, "error", err)
					}
					// Files copied in with the directory produce no events of their own.
					if _, err := Walk(ctx, event.Name, pool); err != nil && ctx.Err() == nil {
						logger.Warn("cannot walk new directory", "dir", event.Name, "error", err)
					}
				}
				continue
			}
			if !info.Mode().IsRegular() || !IsImage(event.Name) {
				continue
			}

			pool.Enqueue(ctx, Job{Path: event.Name})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watcher error: %w", err)
		}
	}
}

// addTree watches dir and every non-hidden directory below it.
func addTree(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}
