package dotdir

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	manifestFile = "ingested.json"
)

// Manifest records the files an ingest run has indexed, keyed by absolute
// path.
type Manifest struct {
	Files map[string]IngestedFile `json:"files"`
}

// IngestedFile is one indexed file as it looked when it was indexed.
type IngestedFile struct {
	ID        string    `json:"id"`
	Size      int64     `json:"size"`
	ModTime   time.Time `json:"mod_time"`
	IndexedAt time.Time `json:"indexed_at"`
}

// NewManifest returns an empty manifest.
func NewManifest() *Manifest {
	return &Manifest{Files: make(map[string]IngestedFile)}
}

// Unchanged reports whether path was indexed with the given size and
// modification time.
func (m *Manifest) Unchanged(path string, size int64, modTime time.Time) bool {
	f, ok := m.Files[path]
	return ok && f.Size == size && f.ModTime.Equal(modTime)
}

// LoadManifest loads the ingest manifest from a target .visualsearch/ingested.json.
// Returns an empty manifest if none exists.
func (m *Manager) LoadManifest(overrideDir string) (*Manifest, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(dir, manifestFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewManifest(), nil
		}
		return nil, fmt.Errorf("reading ingest manifest: %w", err)
	}

	manifest := NewManifest()
	if err := json.Unmarshal(data, manifest); err != nil {
		return nil, fmt.Errorf("parsing ingest manifest: %w", err)
	}
	if manifest.Files == nil {
		manifest.Files = make(map[string]IngestedFile)
	}

	return manifest, nil
}

// SaveManifest persists the ingest manifest to a target .visualsearch/ingested.json.
func (m *Manager) SaveManifest(manifest *Manifest, overrideDir string) error {
	if manifest == nil {
		return errors.New("cannot save nil ingest manifest")
	}

	dir, err := m.Target(overrideDir)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling ingest manifest: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, manifestFile), data, 0o600); err != nil {
		return fmt.Errorf("writing ingest manifest: %w", err)
	}

	return nil
}

// ClearManifest removes the ingest manifest so the next ingest run indexes
// every file again. Returns nil if the file doesn't exist.
func (m *Manager) ClearManifest(overrideDir string) error {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return err
	}

	if err := os.Remove(filepath.Join(dir, manifestFile)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("removing ingest manifest: %w", err)
	}

	return nil
}
