package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Config represents the persistent visualsearch configuration stored as
// config.toml in the .visualsearch/ directory. The TOML layout uses sections
// for logical grouping.
type Config struct {
	Version       int                 `toml:"version"`
	API           APIConfig           `toml:"api"`
	Client        ClientConfig        `toml:"client"`
	Index         IndexConfig         `toml:"index"`
	Elasticsearch ElasticsearchConfig `toml:"elasticsearch"`
	Storage       StorageConfig       `toml:"storage"`
	Qdrant        QdrantConfig        `toml:"qdrant"`
	Fetch         FetchConfig         `toml:"fetch"`
	Search        SearchConfig        `toml:"search"`
	EventStream   EventStreamConfig   `toml:"eventstream"`
	Ingest        IngestConfig        `toml:"ingest"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen     string `toml:"listen,omitempty"`
	MCPEnabled bool   `toml:"mcp_enabled"`
}

// ClientConfig holds settings for CLI commands that connect to the running
// API server (e.g. visualsearch index, visualsearch search).
// Values are full URLs (scheme + host + port).
type ClientConfig struct {
	APITarget string `toml:"api_target,omitempty"`
}

// IndexConfig selects the index backend.
type IndexConfig struct {
	Provider string `toml:"provider,omitempty"`
}

// ElasticsearchConfig addresses the Elasticsearch index.
type ElasticsearchConfig struct {
	Scheme  string `toml:"scheme,omitempty"`
	Host    string `toml:"host,omitempty"`
	Port    int    `toml:"port,omitempty"`
	Index   string `toml:"index,omitempty"`
	DocType string `toml:"doc_type,omitempty"`
}

// URL returns the base URL of the Elasticsearch endpoint.
func (e ElasticsearchConfig) URL() string {
	return fmt.Sprintf("%s://%s:%d", e.Scheme, e.Host, e.Port)
}

// StorageConfig holds settings for the SQL index backends.
type StorageConfig struct {
	SQLitePath  string `toml:"sqlite_path,omitempty"`
	PostgresDSN string `toml:"postgres_dsn,omitempty"`
	LibSQLPath  string `toml:"libsql_path,omitempty"`
}

// QdrantConfig addresses the Qdrant collection.
type QdrantConfig struct {
	Host       string `toml:"host,omitempty"`
	Port       int    `toml:"port,omitempty"`
	Collection string `toml:"collection,omitempty"`
	APIKey     string `toml:"api_key,omitempty"`
}

// FetchConfig bounds image downloads.
type FetchConfig struct {
	Timeout   string `toml:"timeout,omitempty"`
	MaxBytes  int64  `toml:"max_bytes,omitempty"`
	UserAgent string `toml:"user_agent,omitempty"`
}

// SearchConfig holds search defaults.
type SearchConfig struct {
	MinimumShouldMatch int `toml:"minimum_should_match"`
}

// EventStreamConfig selects where image events are published.
type EventStreamConfig struct {
	Provider string   `toml:"provider,omitempty"`
	Brokers  []string `toml:"brokers,omitempty"`
	Topic    string   `toml:"topic,omitempty"`
}

// IngestConfig sizes the ingest worker pool.
type IngestConfig struct {
	Workers   uint `toml:"workers,omitempty"`
	QueueSize uint `toml:"queue_size,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func stringKey(field func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error { *field(c) = v; return nil },
	}
}

func intKey(name string, field func(c *Config) *int) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return strconv.Itoa(*field(c)) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = n
			return nil
		},
	}
}

func uintKey(name string, field func(c *Config) *uint) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			if *field(c) == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(*field(c)), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = uint(n)
			return nil
		},
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"api.listen": stringKey(func(c *Config) *string { return &c.API.Listen }),
	"api.mcp_enabled": {
		get: func(c *Config) string { return strconv.FormatBool(c.API.MCPEnabled) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for api.mcp_enabled: %w", err)
			}
			c.API.MCPEnabled = b
			return nil
		},
	},
	"client.api_target": stringKey(func(c *Config) *string { return &c.Client.APITarget }),
	"index.provider": {
		get: func(c *Config) string { return c.Index.Provider },
		set: func(c *Config, v string) error {
			if !IsValidIndexProvider(v) {
				return fmt.Errorf("invalid value for index.provider: %q (available: %s)",
					v, strings.Join(ValidIndexProviders(), ", "))
			}
			c.Index.Provider = v
			return nil
		},
	},
	"elasticsearch.scheme":   stringKey(func(c *Config) *string { return &c.Elasticsearch.Scheme }),
	"elasticsearch.host":     stringKey(func(c *Config) *string { return &c.Elasticsearch.Host }),
	"elasticsearch.port":     intKey("elasticsearch.port", func(c *Config) *int { return &c.Elasticsearch.Port }),
	"elasticsearch.index":    stringKey(func(c *Config) *string { return &c.Elasticsearch.Index }),
	"elasticsearch.doc_type": stringKey(func(c *Config) *string { return &c.Elasticsearch.DocType }),
	"storage.sqlite_path":    stringKey(func(c *Config) *string { return &c.Storage.SQLitePath }),
	"storage.postgres_dsn":   stringKey(func(c *Config) *string { return &c.Storage.PostgresDSN }),
	"storage.libsql_path":    stringKey(func(c *Config) *string { return &c.Storage.LibSQLPath }),
	"qdrant.host":            stringKey(func(c *Config) *string { return &c.Qdrant.Host }),
	"qdrant.port":            intKey("qdrant.port", func(c *Config) *int { return &c.Qdrant.Port }),
	"qdrant.collection":      stringKey(func(c *Config) *string { return &c.Qdrant.Collection }),
	"qdrant.api_key":         stringKey(func(c *Config) *string { return &c.Qdrant.APIKey }),
	"fetch.timeout": {
		get: func(c *Config) string { return c.Fetch.Timeout },
		set: func(c *Config, v string) error {
			if _, err := time.ParseDuration(v); err != nil {
				return fmt.Errorf("invalid value for fetch.timeout: %w", err)
			}
			c.Fetch.Timeout = v
			return nil
		},
	},
	"fetch.max_bytes": {
		get: func(c *Config) string { return strconv.FormatInt(c.Fetch.MaxBytes, 10) },
		set: func(c *Config, v string) error {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil || n <= 0 {
				return fmt.Errorf("invalid value for fetch.max_bytes: %q", v)
			}
			c.Fetch.MaxBytes = n
			return nil
		},
	},
	"fetch.user_agent": stringKey(func(c *Config) *string { return &c.Fetch.UserAgent }),
	"search.minimum_should_match": {
		get: func(c *Config) string { return strconv.Itoa(c.Search.MinimumShouldMatch) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 || n > 64 {
				return fmt.Errorf("invalid value for search.minimum_should_match: %q (must be 0-64)", v)
			}
			c.Search.MinimumShouldMatch = n
			return nil
		},
	},
	"eventstream.provider": {
		get: func(c *Config) string { return c.EventStream.Provider },
		set: func(c *Config, v string) error {
			if v != EventStreamNone && v != EventStreamKafka {
				return fmt.Errorf("invalid value for eventstream.provider: %q (available: none, kafka)", v)
			}
			c.EventStream.Provider = v
			return nil
		},
	},
	"eventstream.brokers": {
		get: func(c *Config) string { return strings.Join(c.EventStream.Brokers, ",") },
		set: func(c *Config, v string) error {
			c.EventStream.Brokers = SplitList(v)
			return nil
		},
	},
	"eventstream.topic": stringKey(func(c *Config) *string { return &c.EventStream.Topic }),
	"ingest.workers":    uintKey("ingest.workers", func(c *Config) *uint { return &c.Ingest.Workers }),
	"ingest.queue_size": uintKey("ingest.queue_size", func(c *Config) *uint { return &c.Ingest.QueueSize }),
}

// SplitList splits a comma separated value, dropping blanks.
func SplitList(v string) []string {
	var out []string
	for part := range strings.SplitSeq(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
