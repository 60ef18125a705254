// Package ingestcmder provides the ingest command that indexes a directory
// of JPEG files through the visualsearch API.
package ingestcmder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/visualsearch/pkg/client"
	"github.com/papercomputeco/visualsearch/pkg/cliui"
	"github.com/papercomputeco/visualsearch/pkg/config"
	"github.com/papercomputeco/visualsearch/pkg/dotdir"
	"github.com/papercomputeco/visualsearch/pkg/ingest"
	"github.com/papercomputeco/visualsearch/pkg/logger"
)

type ingestCommander struct {
	dir       string
	watch     bool
	reset     bool
	workers   uint
	queueSize uint
	apiTarget string
	configDir string

	debug  bool
	logger *slog.Logger
}

const ingestLongDesc string = `Index every JPEG file under a directory.

Files with a .jpg or .jpeg extension are read and sent to the visualsearch
API inline by a pool of workers. Hidden directories are skipped. Indexed files
are recorded in ingested.json in the .visualsearch/ directory, and files that
have not changed since are skipped on later runs. Use --reset to index
everything again.

With --watch the command keeps running after the initial pass and indexes
files as they are created or written, until interrupted.

Examples:
  visualsearch ingest ./photos
  visualsearch ingest ./photos --workers 8
  visualsearch ingest ./incoming --watch`

const ingestShortDesc string = "Index a directory of images"

func NewIngestCmd() *cobra.Command {
	cmder := &ingestCommander{}

	cmd := &cobra.Command{
		Use:   "ingest <dir>",
		Short: ingestShortDesc,
		Long:  ingestLongDesc,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")
			cfger, err := config.NewConfiger(cmder.configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			cfg, err := cfger.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			if !cmd.Flags().Changed("api-target") {
				cmder.apiTarget = cfg.Client.APITarget
			}
			if !cmd.Flags().Changed("workers") {
				cmder.workers = cfg.Ingest.Workers
			}
			cmder.queueSize = cfg.Ingest.QueueSize
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.dir = args[0]

			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run(cmd.Context(), cmd.OutOrStdout())
		},
	}

	defaults := config.NewDefaultConfig()
	cmd.Flags().StringVarP(&cmder.apiTarget, "api-target", "a", defaults.Client.APITarget, "visualsearch API server URL")
	config.AddUintFlag(cmd, config.Flags, config.FlagWorkers, &cmder.workers)
	cmd.Flags().BoolVar(&cmder.watch, "watch", false, "Keep indexing new files until interrupted")
	cmd.Flags().BoolVar(&cmder.reset, "reset", false, "Forget previously ingested files")

	return cmd
}

func (c *ingestCommander) run(ctx context.Context, out io.Writer) error {
	c.logger = logger.New(
		logger.WithDebug(c.debug),
		logger.WithPretty(true),
		logger.WithWriter(os.Stderr),
	)

	info, err := os.Stat(c.dir)
	if err != nil {
		return fmt.Errorf("reading %s: %w", c.dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", c.dir)
	}

	cl, err := client.New(c.apiTarget, nil)
	if err != nil {
		return err
	}

	ddm := dotdir.NewManager()
	if c.reset {
		if err := ddm.ClearManifest(c.configDir); err != nil {
			return err
		}
	}
	manifest, err := ddm.LoadManifest(c.configDir)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := ingest.NewPool(ctx, &ingest.Config{
		Indexer:    cl,
		Manifest:   manifest,
		NumWorkers: c.workers,
		QueueSize:  c.queueSize,
		Logger:     c.logger,
	})
	if err != nil {
		return err
	}

	start := time.Now()
	queued, walkErr := ingest.Walk(ctx, c.dir, pool)
	if walkErr == nil && c.watch {
		walkErr = ingest.Watch(ctx, c.dir, pool, c.logger)
	}
	stats := pool.Close()

	// Record what was indexed even when the walk stopped early.
	if err := ddm.SaveManifest(manifest, c.configDir); err != nil {
		return err
	}

	printStats(out, queued, stats, time.Since(start))
	if walkErr != nil && ctx.Err() == nil {
		return walkErr
	}
	if stats.Failed > 0 {
		return fmt.Errorf("%d of %d files failed to index", stats.Failed, stats.Queued)
	}
	return nil
}

func printStats(out io.Writer, found int, stats ingest.Stats, elapsed time.Duration) {
	fmt.Fprintf(out, "\n  %s %s  %s %s  %s %s  %s %s  %s\n\n",
		cliui.KeyStyle.Render("found"), cliui.ValueStyle.Render(fmt.Sprint(found)),
		cliui.KeyStyle.Render("indexed"), cliui.ValueStyle.Render(fmt.Sprint(stats.Indexed)),
		cliui.KeyStyle.Render("skipped"), cliui.ValueStyle.Render(fmt.Sprint(stats.Skipped)),
		cliui.KeyStyle.Render("failed"), cliui.ValueStyle.Render(fmt.Sprint(stats.Failed)),
		cliui.DimStyle.Render("("+cliui.FormatDuration(elapsed)+")"),
	)
}
