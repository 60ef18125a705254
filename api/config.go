// Package api provides the HTTP API for indexing images and searching for
// visually similar ones.
package api

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8080")
	ListenAddr string

	// MinimumShouldMatch is the search threshold used when a request omits it
	MinimumShouldMatch int

	// MCPEnabled mounts the MCP tools server at /mcp
	MCPEnabled bool
}
