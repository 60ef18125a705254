// Package configcmder provides the config command for managing persistent
// visualsearch configuration stored in the .visualsearch/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent visualsearch configuration.

Configuration is stored as config.toml in the .visualsearch/ directory and
provides default values for command flags. CLI flags and VISUALSEARCH_*
environment variables take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  api.listen, api.mcp_enabled, client.api_target, index.provider,
  elasticsearch.host, elasticsearch.port, elasticsearch.index,
  storage.sqlite_path, storage.postgres_dsn, qdrant.host,
  fetch.timeout, search.minimum_should_match,
  eventstream.provider, eventstream.brokers, ingest.workers

Use subcommands to get, set, or list configuration values:
  visualsearch config set <key> <value>    Set a configuration value
  visualsearch config get <key>            Get a configuration value
  visualsearch config list                 List all configuration values

Examples:
  visualsearch config set index.provider sqlite
  visualsearch config set storage.sqlite_path ./images.db
  visualsearch config get index.provider
  visualsearch config list`

const configShortDesc string = "Manage persistent visualsearch configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
