package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/papercomputeco/visualsearch/pkg/dotdir"
)

// legacyEnv lists environment variables honored besides the VISUALSEARCH_
// names, checked after them.
var legacyEnv = map[string]string{
	"elasticsearch.host": "ELASTIC_HOST",
	"elasticsearch.port": "ELASTIC_PORT",
}

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the VISUALSEARCH_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (VISUALSEARCH_API_LISTEN, ELASTIC_HOST, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	// 1. Register all defaults from NewDefaultConfig().
	setViperDefaults(v)

	// 2. Config file discovery via dotdir resolution.
	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// 3. Environment variables: VISUALSEARCH_API_LISTEN, VISUALSEARCH_INDEX_PROVIDER, etc.
	v.SetEnvPrefix("VISUALSEARCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, env := range legacyEnv {
		primary := "VISUALSEARCH_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, primary, env); err != nil {
			return nil, fmt.Errorf("binding %s: %w", env, err)
		}
	}

	return v, nil
}

// StringList reads a list key that may be a TOML array or a comma separated
// string (as environment variables are).
func StringList(v *viper.Viper, key string) []string {
	var out []string
	for _, item := range v.GetStringSlice(key) {
		out = append(out, SplitList(item)...)
	}
	return out
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// API
	v.SetDefault("api.listen", d.API.Listen)
	v.SetDefault("api.mcp_enabled", d.API.MCPEnabled)

	// Client
	v.SetDefault("client.api_target", d.Client.APITarget)

	// Index
	v.SetDefault("index.provider", d.Index.Provider)

	// Elasticsearch
	v.SetDefault("elasticsearch.scheme", d.Elasticsearch.Scheme)
	v.SetDefault("elasticsearch.host", d.Elasticsearch.Host)
	v.SetDefault("elasticsearch.port", d.Elasticsearch.Port)
	v.SetDefault("elasticsearch.index", d.Elasticsearch.Index)
	v.SetDefault("elasticsearch.doc_type", d.Elasticsearch.DocType)

	// Storage
	v.SetDefault("storage.sqlite_path", d.Storage.SQLitePath)
	v.SetDefault("storage.postgres_dsn", d.Storage.PostgresDSN)
	v.SetDefault("storage.libsql_path", d.Storage.LibSQLPath)

	// Qdrant
	v.SetDefault("qdrant.host", d.Qdrant.Host)
	v.SetDefault("qdrant.port", d.Qdrant.Port)
	v.SetDefault("qdrant.collection", d.Qdrant.Collection)
	v.SetDefault("qdrant.api_key", d.Qdrant.APIKey)

	// Fetch
	v.SetDefault("fetch.timeout", d.Fetch.Timeout)
	v.SetDefault("fetch.max_bytes", d.Fetch.MaxBytes)
	v.SetDefault("fetch.user_agent", d.Fetch.UserAgent)

	// Search
	v.SetDefault("search.minimum_should_match", d.Search.MinimumShouldMatch)

	// Event stream
	v.SetDefault("eventstream.provider", d.EventStream.Provider)
	v.SetDefault("eventstream.brokers", d.EventStream.Brokers)
	v.SetDefault("eventstream.topic", d.EventStream.Topic)

	// Ingest
	v.SetDefault("ingest.workers", d.Ingest.Workers)
	v.SetDefault("ingest.queue_size", d.Ingest.QueueSize)
}
