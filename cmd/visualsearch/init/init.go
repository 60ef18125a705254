// Package initcmder provides the init command for initializing a local
// .visualsearch directory in the current working directory.
package initcmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/visualsearch/pkg/config"
)

const (
	dirName    = ".visualsearch"
	configName = "config.toml"
	indexName  = "index.db"

	// remotePresetLimit caps the size of a fetched config.toml.
	remotePresetLimit = 1 << 20
)

const initLongDesc string = `Initialize a new .visualsearch/ directory in the current working directory.

Creates a local .visualsearch/ directory that takes precedence over the
default ~/.visualsearch/ directory for configuration and the ingest manifest,
and writes a config.toml.

Use --preset to start from a backend preset (elasticsearch, local, postgres,
qdrant) or from a config.toml fetched from an http(s) URL. The local preset
keeps its SQLite index inside the new directory.

Examples:
  visualsearch init
  visualsearch init --preset local
  visualsearch init --preset https://example.com/visualsearch/config.toml`

const initShortDesc string = "Initialize a local .visualsearch/ directory"

func NewInitCmd() *cobra.Command {
	var preset string

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(cmd.Context(), cmd.OutOrStdout(), preset)
		},
	}

	cmd.Flags().StringVar(&preset, "preset", "", "Backend preset name or URL of a config.toml")

	return cmd
}

func runInit(ctx context.Context, out io.Writer, preset string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	dir := filepath.Join(cwd, dirName)
	target := filepath.Join(dir, configName)

	// Resolve the preset first so a bad one leaves nothing behind.
	var cfg *config.Config
	if preset != "" {
		cfg, err = resolvePreset(ctx, preset)
		if err != nil {
			return err
		}
	}

	info, err := os.Stat(dir)
	existed := err == nil && info.IsDir()
	if !existed {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating .visualsearch directory: %w", err)
		}
	}

	if cfg == nil {
		if _, err := os.Stat(target); err == nil {
			fmt.Fprintf(out, "Already initialized: %s\n", dir)
			return nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("reading config: %w", err)
		}
		cfg = config.NewDefaultConfig()
	}

	if cfg.Index.Provider == config.IndexSQLite && cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = filepath.Join(dir, indexName)
	}

	cfger, err := config.NewConfiger(dir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfger.SaveConfig(cfg); err != nil {
		return err
	}

	if existed {
		fmt.Fprintf(out, "Updated config in .visualsearch directory: %s\n", dir)
	} else {
		fmt.Fprintf(out, "Initialized .visualsearch directory: %s\n", dir)
	}
	return nil
}

// resolvePreset returns a named preset or fetches and validates a remote
// config.toml.
func resolvePreset(ctx context.Context, preset string) (*config.Config, error) {
	if !strings.HasPrefix(preset, "http://") && !strings.HasPrefix(preset, "https://") {
		return config.PresetConfig(preset)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, preset, nil)
	if err != nil {
		return nil, fmt.Errorf("creating preset request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching preset %s: %w", preset, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, remotePresetLimit))
	if err != nil {
		return nil, fmt.Errorf("failed to read preset: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching preset failed (HTTP %d): %s", resp.StatusCode, string(body))
	}

	cfg, err := config.ParseConfigOverDefaults(body)
	if err != nil {
		return nil, fmt.Errorf("invalid remote preset: %w", err)
	}
	if cfg.Index.Provider != "" && !config.IsValidIndexProvider(cfg.Index.Provider) {
		return nil, fmt.Errorf("invalid remote preset: unknown index provider %q", cfg.Index.Provider)
	}
	return cfg, nil
}
