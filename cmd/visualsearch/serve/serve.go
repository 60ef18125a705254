// Package servecmder provides the serve command that runs the visualsearch
// API server.
package servecmder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papercomputeco/visualsearch/api"
	"github.com/papercomputeco/visualsearch/pkg/cliui"
	"github.com/papercomputeco/visualsearch/pkg/config"
	"github.com/papercomputeco/visualsearch/pkg/index/backend"
	"github.com/papercomputeco/visualsearch/pkg/logger"
	"github.com/papercomputeco/visualsearch/pkg/workflow"
)

type serveCommander struct {
	flags serveFlags

	configDir string
	logFile   string
	debug     bool
	logger    *slog.Logger
	v         *viper.Viper
}

// serveFlags are the flag targets. Values are read back through viper so
// env and config.toml apply when a flag is not set.
type serveFlags struct {
	listen        string
	indexProvider string
	elasticHost   string
	sqlitePath    string
	postgresDSN   string
	qdrantHost    string
	fetchTimeout  string
	minimum       uint
	eventStream   string
	kafkaBrokers  string
}

var serveFlagKeys = []string{
	config.FlagAPIListen,
	config.FlagIndexProvider,
	config.FlagElasticHost,
	config.FlagSQLite,
	config.FlagPostgres,
	config.FlagQdrantHost,
	config.FlagFetchTimeout,
	config.FlagMinimumMatch,
	config.FlagEventStream,
	config.FlagKafkaBrokers,
}

const serveLongDesc string = `# visualsearch serve

Run the visualsearch API server.

The server fingerprints JPEG images with a 64-bit difference hash and stores
or searches them in the configured index backend.

## Endpoints

- ` + "`POST /image`" + ` indexes ` + "`{\"imageUrl\": ...}`" + ` or ` + "`{\"image\": <base64>}`" + `
- ` + "`POST /image_search`" + ` searches with ` + "`{\"imageUrl\": ..., \"minimumShouldMatch\": N}`" + `
- ` + "`GET /application/status`" + ` and ` + "`GET /ping`" + ` report health
- ` + "`/mcp`" + ` serves the MCP tools when ` + "`api.mcp_enabled`" + ` is set

## Index backends

Select one with ` + "`--index`" + `: elasticsearch (default), memory, sqlite,
postgres, qdrant, or libsql (binaries built with ` + "`-tags libsql`" + `).

## Examples

    visualsearch serve
    visualsearch serve --index sqlite --sqlite ./images.db
    visualsearch serve --index qdrant --qdrant-host localhost
    ELASTIC_HOST=search.internal visualsearch serve --eventstream kafka --kafka-brokers kafka:9092`

const serveShortDesc string = "Run the visualsearch API server"

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  longDesc(),
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, config.Flags, serveFlagKeys)
			cmder.v = v
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPIListen, &cmder.flags.listen)
	config.AddStringFlag(cmd, config.Flags, config.FlagIndexProvider, &cmder.flags.indexProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagElasticHost, &cmder.flags.elasticHost)
	config.AddStringFlag(cmd, config.Flags, config.FlagSQLite, &cmder.flags.sqlitePath)
	config.AddStringFlag(cmd, config.Flags, config.FlagPostgres, &cmder.flags.postgresDSN)
	config.AddStringFlag(cmd, config.Flags, config.FlagQdrantHost, &cmder.flags.qdrantHost)
	config.AddStringFlag(cmd, config.Flags, config.FlagFetchTimeout, &cmder.flags.fetchTimeout)
	config.AddUintFlag(cmd, config.Flags, config.FlagMinimumMatch, &cmder.flags.minimum)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventStream, &cmder.flags.eventStream)
	config.AddStringFlag(cmd, config.Flags, config.FlagKafkaBrokers, &cmder.flags.kafkaBrokers)
	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Also append JSON logs to this file")

	return cmd
}

// longDesc renders the help for terminals and leaves it as markdown otherwise.
func longDesc() string {
	if !cliui.Interactive(os.Stdout) {
		return serveLongDesc
	}
	out, err := cliui.RenderMarkdown(serveLongDesc)
	if err != nil {
		return serveLongDesc
	}
	return out
}

func (c *serveCommander) run(ctx context.Context) error {
	interactive := cliui.Interactive(os.Stderr)
	console := logger.New(
		logger.WithDebug(c.debug),
		logger.WithWriter(os.Stderr),
		logger.WithPretty(interactive),
		logger.WithJSON(!interactive),
	)

	var closeLog func() error
	var err error
	c.logger, closeLog, err = withLogFile(console, c.logFile, c.debug)
	if err != nil {
		return err
	}
	defer closeLog()

	settings, err := loadSettings(c.v)
	if err != nil {
		return err
	}

	store, err := backend.Open(ctx, settings.index, c.logger)
	if err != nil {
		return err
	}
	defer store.Close()

	publisher, err := newPublisher(settings.eventStream, c.logger)
	if err != nil {
		return err
	}
	defer publisher.Close()

	wc := &workflow.Config{
		Source:    settings.source(),
		Store:     store,
		Publisher: publisher,
		Provider:  settings.index.Provider,
		Logger:    c.logger,
	}

	indexer, err := workflow.NewIndexer(wc)
	if err != nil {
		return fmt.Errorf("creating indexer: %w", err)
	}
	searcher, err := workflow.NewSearcher(wc)
	if err != nil {
		return fmt.Errorf("creating searcher: %w", err)
	}

	server, err := api.NewServer(settings.api, indexer, searcher, c.logger)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	// Channel to capture errors from the server goroutine
	errChan := make(chan error, 1)

	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	// Wait for interrupt signal or error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", "signal", sig.String())
	case <-ctx.Done():
		c.logger.Info("context done, shutting down")
	}

	if err := server.Shutdown(); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// withLogFile adds a JSON sink appending to path. An empty path returns the
// console logger unchanged.
func withLogFile(console *slog.Logger, path string, debug bool) (*slog.Logger, func() error, error) {
	if path == "" {
		return console, func() error { return nil }, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	file := logger.New(
		logger.WithDebug(debug),
		logger.WithWriter(f),
		logger.WithJSON(true),
		logger.WithSource(debug),
	)
	return logger.Multi(console, file), f.Close, nil
}
