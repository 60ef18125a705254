package servecmder

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/papercomputeco/visualsearch/api"
	"github.com/papercomputeco/visualsearch/pkg/config"
	"github.com/papercomputeco/visualsearch/pkg/dhash"
	"github.com/papercomputeco/visualsearch/pkg/eventstream"
	"github.com/papercomputeco/visualsearch/pkg/eventstream/kafka"
	"github.com/papercomputeco/visualsearch/pkg/eventstream/nop"
	"github.com/papercomputeco/visualsearch/pkg/index/backend"
	"github.com/papercomputeco/visualsearch/pkg/index/elastic"
	"github.com/papercomputeco/visualsearch/pkg/index/postgres"
	"github.com/papercomputeco/visualsearch/pkg/index/qdrant"
	"github.com/papercomputeco/visualsearch/pkg/source"
)

// settings is everything serve builds its collaborators from.
type settings struct {
	api         api.Config
	index       backend.Options
	fetch       source.HTTPConfig
	eventStream eventStreamSettings
}

type eventStreamSettings struct {
	provider string
	kafka    kafka.Config
}

func (s settings) source() *source.HTTPSource {
	return source.NewHTTPSource(s.fetch)
}

// loadSettings reads the viper chain (flags > env > config.toml > defaults).
func loadSettings(v *viper.Viper) (settings, error) {
	timeout, err := time.ParseDuration(v.GetString("fetch.timeout"))
	if err != nil {
		return settings{}, fmt.Errorf("invalid fetch.timeout: %w", err)
	}

	minimum := v.GetInt("search.minimum_should_match")
	if minimum < 0 || minimum > dhash.Bits {
		return settings{}, fmt.Errorf("search.minimum_should_match must be 0-%d, got %d", dhash.Bits, minimum)
	}

	provider := v.GetString("index.provider")
	if !config.IsValidIndexProvider(provider) {
		return settings{}, fmt.Errorf("unknown index provider %q (available: %s)", provider, strings.Join(config.ValidIndexProviders(), ", "))
	}

	es := config.ElasticsearchConfig{
		Scheme: v.GetString("elasticsearch.scheme"),
		Host:   v.GetString("elasticsearch.host"),
		Port:   v.GetInt("elasticsearch.port"),
	}

	return settings{
		api: api.Config{
			ListenAddr:         v.GetString("api.listen"),
			MinimumShouldMatch: minimum,
			MCPEnabled:         v.GetBool("api.mcp_enabled"),
		},
		index: backend.Options{
			Provider: provider,
			Elasticsearch: elastic.Config{
				URL:   es.URL(),
				Index: v.GetString("elasticsearch.index"),
				Type:  v.GetString("elasticsearch.doc_type"),
			},
			SQLitePath: v.GetString("storage.sqlite_path"),
			Postgres: postgres.Config{
				DSN: v.GetString("storage.postgres_dsn"),
			},
			LibSQLPath: v.GetString("storage.libsql_path"),
			Qdrant: qdrant.Config{
				Host:       v.GetString("qdrant.host"),
				Port:       v.GetInt("qdrant.port"),
				APIKey:     v.GetString("qdrant.api_key"),
				Collection: v.GetString("qdrant.collection"),
			},
		},
		fetch: source.HTTPConfig{
			Timeout:   timeout,
			MaxBytes:  v.GetInt64("fetch.max_bytes"),
			UserAgent: v.GetString("fetch.user_agent"),
		},
		eventStream: eventStreamSettings{
			provider: v.GetString("eventstream.provider"),
			kafka: kafka.Config{
				Brokers: config.StringList(v, "eventstream.brokers"),
				Topic:   v.GetString("eventstream.topic"),
			},
		},
	}, nil
}

// newPublisher opens the configured event stream.
func newPublisher(s eventStreamSettings, logger *slog.Logger) (eventstream.Publisher, error) {
	switch s.provider {
	case "", config.EventStreamNone:
		return nop.NewPublisher(), nil
	case config.EventStreamKafka:
		p, err := kafka.NewPublisher(s.kafka)
		if err != nil {
			return nil, fmt.Errorf("opening kafka event stream: %w", err)
		}
		logger.Info("publishing image events", "provider", s.provider, "brokers", s.kafka.Brokers, "topic", s.kafka.Topic)
		return p, nil
	default:
		return nil, fmt.Errorf("unknown event stream provider %q", s.provider)
	}
}
