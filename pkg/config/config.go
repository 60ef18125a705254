package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/papercomputeco/visualsearch/pkg/dotdir"
)

const (
	configFile = "config.toml"

	// v0 is the alpha version of the config
	v0 = 0

	// CurrentV is the currently supported version, points to v0
	CurrentV = v0
)

type Configer struct {
	ddm        *dotdir.Manager
	targetPath string
}

func NewConfiger(override string) (*Configer, error) {
	cfger := &Configer{}

	cfger.ddm = dotdir.NewManager()
	target, err := cfger.ddm.Target(override)
	if err != nil {
		return nil, err
	}

	// If no .visualsearch/ directory was resolved, targetPath stays empty;
	// LoadConfig will return defaults and SaveConfig will error clearly.
	if target == "" {
		return cfger, nil
	}

	path := filepath.Join(target, configFile)
	_, err = os.Stat(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfger.targetPath = path

	return cfger, nil
}

// orderedKeys lists the config keys in the TOML section layout order.
var orderedKeys = []string{
	"api.listen",
	"api.mcp_enabled",
	"client.api_target",
	"index.provider",
	"elasticsearch.scheme",
	"elasticsearch.host",
	"elasticsearch.port",
	"elasticsearch.index",
	"elasticsearch.doc_type",
	"storage.sqlite_path",
	"storage.postgres_dsn",
	"storage.libsql_path",
	"qdrant.host",
	"qdrant.port",
	"qdrant.collection",
	"qdrant.api_key",
	"fetch.timeout",
	"fetch.max_bytes",
	"fetch.user_agent",
	"search.minimum_should_match",
	"eventstream.provider",
	"eventstream.brokers",
	"eventstream.topic",
	"ingest.workers",
	"ingest.queue_size",
}

// ValidConfigKeys returns the list of all supported configuration key names
// in a stable, logical order.
func ValidConfigKeys() []string {
	result := make([]string, 0, len(configKeys))
	seen := make(map[string]bool, len(configKeys))
	for _, k := range orderedKeys {
		if _, ok := configKeys[k]; ok {
			result = append(result, k)
			seen[k] = true
		}
	}

	// Append any keys in the map that we missed in the ordered list.
	for k := range configKeys {
		if !seen[k] {
			result = append(result, k)
		}
	}

	return result
}

// IsValidConfigKey returns true if the given key is a supported configuration key.
func IsValidConfigKey(key string) bool {
	_, ok := configKeys[key]
	return ok
}

func (c *Configer) GetTarget() string {
	return c.targetPath
}

// LoadConfig loads the configuration from config.toml in the target
// .visualsearch/ directory. If the file does not exist, returns
// NewDefaultConfig() so callers always receive a fully-populated Config.
// Fields set in the file override the defaults.
func (c *Configer) LoadConfig() (*Config, error) {
	if c.targetPath == "" {
		return NewDefaultConfig(), nil
	}

	data, err := os.ReadFile(c.targetPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewDefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Keys written as empty strings fall back to their defaults.
	return ParseConfigOverDefaults(data)
}

// applyDefaults fills zero-value fields in cfg with values from NewDefaultConfig().
func applyDefaults(cfg *Config) {
	d := NewDefaultConfig()

	fill := func(field *string, def string) {
		if *field == "" {
			*field = def
		}
	}
	fillInt := func(field *int, def int) {
		if *field == 0 {
			*field = def
		}
	}

	fill(&cfg.API.Listen, d.API.Listen)
	fill(&cfg.Client.APITarget, d.Client.APITarget)
	fill(&cfg.Index.Provider, d.Index.Provider)

	fill(&cfg.Elasticsearch.Scheme, d.Elasticsearch.Scheme)
	fill(&cfg.Elasticsearch.Host, d.Elasticsearch.Host)
	fillInt(&cfg.Elasticsearch.Port, d.Elasticsearch.Port)
	fill(&cfg.Elasticsearch.Index, d.Elasticsearch.Index)
	fill(&cfg.Elasticsearch.DocType, d.Elasticsearch.DocType)

	fill(&cfg.Qdrant.Host, d.Qdrant.Host)
	fillInt(&cfg.Qdrant.Port, d.Qdrant.Port)
	fill(&cfg.Qdrant.Collection, d.Qdrant.Collection)

	fill(&cfg.Fetch.Timeout, d.Fetch.Timeout)
	if cfg.Fetch.MaxBytes == 0 {
		cfg.Fetch.MaxBytes = d.Fetch.MaxBytes
	}

	fill(&cfg.EventStream.Provider, d.EventStream.Provider)
	fill(&cfg.EventStream.Topic, d.EventStream.Topic)

	if cfg.Ingest.Workers == 0 {
		cfg.Ingest.Workers = d.Ingest.Workers
	}
	if cfg.Ingest.QueueSize == 0 {
		cfg.Ingest.QueueSize = d.Ingest.QueueSize
	}
}

// SaveConfig persists the configuration to config.toml in the target
// .visualsearch/ directory.
func (c *Configer) SaveConfig(cfg *Config) error {
	if cfg == nil {
		return errors.New("cannot save nil config")
	}

	if c.targetPath == "" {
		return errors.New("cannot save empty target path")
	}

	var buf bytes.Buffer
	encoder := toml.NewEncoder(&buf)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(c.targetPath, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// SetConfigValue loads the config, sets the given key to the given value, and saves it.
// Returns an error if the key is not a valid config key.
func (c *Configer) SetConfigValue(key string, value string) error {
	info, ok := configKeys[key]
	if !ok {
		return fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return err
	}

	if err := info.set(cfg, value); err != nil {
		return err
	}

	return c.SaveConfig(cfg)
}

// GetConfigValue loads the config and returns the string representation of the given key.
// Returns an error if the key is not a valid config key.
func (c *Configer) GetConfigValue(key string) (string, error) {
	info, ok := configKeys[key]
	if !ok {
		return "", fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return "", err
	}

	return info.get(cfg), nil
}

// PresetConfig returns a Config with defaults for the named backend preset.
// Supported presets: "elasticsearch", "local", "postgres", "qdrant".
// Returns an error if the preset name is not recognized.
func PresetConfig(name string) (*Config, error) {
	cfg := NewDefaultConfig()

	switch strings.ToLower(name) {
	case "elasticsearch":
		cfg.Index.Provider = IndexElasticsearch

	case "local":
		cfg.Index.Provider = IndexSQLite

	case "postgres":
		cfg.Index.Provider = IndexPostgres
		cfg.Storage.PostgresDSN = "postgres://localhost:5432/visualsearch?sslmode=disable"

	case "qdrant":
		cfg.Index.Provider = IndexQdrant

	default:
		return nil, fmt.Errorf("unknown preset: %q (available: %s)", name, strings.Join(ValidPresetNames(), ", "))
	}

	return cfg, nil
}

// ValidPresetNames returns the list of recognized preset names.
func ValidPresetNames() []string {
	return []string{"elasticsearch", "local", "postgres", "qdrant"}
}

// ParseConfigTOML parses raw TOML bytes into a Config.
// Returns an error if the version field is present and not equal to CurrentV.
func ParseConfigTOML(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := parseInto(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseConfigOverDefaults parses raw TOML bytes over NewDefaultConfig(), so
// keys the data leaves out keep their defaults.
func ParseConfigOverDefaults(data []byte) (*Config, error) {
	cfg := NewDefaultConfig()
	if err := parseInto(data, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	return cfg, nil
}

func parseInto(data []byte, cfg *Config) error {
	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config TOML: %w", err)
	}

	if cfg.Version != 0 && cfg.Version != CurrentV {
		return fmt.Errorf("unsupported config version %d (expected %d)", cfg.Version, CurrentV)
	}

	return nil
}
