package api

import (
	"fmt"
	"log/slog"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/visualsearch/api/mcp"
	"github.com/papercomputeco/visualsearch/pkg/workflow"
)

// Server is the API server fronting the index and search workflows
type Server struct {
	config   Config
	indexer  *workflow.Indexer
	searcher *workflow.Searcher
	logger   *slog.Logger
	app      *fiber.App
}

// NewServer creates a new API server.
// The workflows are injected so the same backend and event publisher can be
// shared with other surfaces.
func NewServer(config Config, indexer *workflow.Indexer, searcher *workflow.Searcher, logger *slog.Logger) (*Server, error) {
	if indexer == nil || searcher == nil {
		return nil, fmt.Errorf("index and search workflows are required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:   config,
		indexer:  indexer,
		searcher: searcher,
		logger:   logger,
		app:      app,
	}

	app.Get("/ping", s.handlePing)
	app.Get("/application/status", s.handleStatus)
	app.Post("/image", s.handleIndexImage)
	app.Post("/image_search", s.handleSearchImage)

	if config.MCPEnabled {
		mcpServer, err := mcp.NewServer(mcp.Config{
			Indexer:            indexer,
			Searcher:           searcher,
			MinimumShouldMatch: config.MinimumShouldMatch,
			Logger:             logger,
		})
		if err != nil {
			return nil, fmt.Errorf("creating MCP server: %w", err)
		}
		app.All("/mcp", adaptor.HTTPHandler(mcpServer.Handler()))
	}

	return s, nil
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		"listen", s.config.ListenAddr,
		"mcp", s.config.MCPEnabled,
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
