package config

import "slices"

// Index providers.
const (
	IndexElasticsearch = "elasticsearch"
	IndexMemory        = "memory"
	IndexSQLite        = "sqlite"
	IndexPostgres      = "postgres"
	IndexLibSQL        = "libsql"
	IndexQdrant        = "qdrant"
)

// Event stream providers.
const (
	EventStreamNone  = "none"
	EventStreamKafka = "kafka"
)

const (
	defaultAPIListen       = ":8080"
	defaultClientAPITarget = "http://localhost:8080"

	defaultIndexProvider = IndexElasticsearch

	defaultElasticScheme  = "http"
	defaultElasticHost    = "localhost"
	defaultElasticPort    = 9200
	defaultElasticIndex   = "images"
	defaultElasticDocType = "processed_images"

	defaultQdrantHost       = "localhost"
	defaultQdrantPort       = 6334
	defaultQdrantCollection = "processed_images"

	defaultFetchTimeout  = "10s"
	defaultFetchMaxBytes = 20 << 20

	defaultEventStreamProvider = EventStreamNone
	defaultEventStreamTopic    = "visualsearch.images"

	defaultIngestWorkers   = 3
	defaultIngestQueueSize = 256
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		API: APIConfig{
			Listen:     defaultAPIListen,
			MCPEnabled: true,
		},
		Client: ClientConfig{
			APITarget: defaultClientAPITarget,
		},
		Index: IndexConfig{
			Provider: defaultIndexProvider,
		},
		Elasticsearch: ElasticsearchConfig{
			Scheme:  defaultElasticScheme,
			Host:    defaultElasticHost,
			Port:    defaultElasticPort,
			Index:   defaultElasticIndex,
			DocType: defaultElasticDocType,
		},
		Qdrant: QdrantConfig{
			Host:       defaultQdrantHost,
			Port:       defaultQdrantPort,
			Collection: defaultQdrantCollection,
		},
		Fetch: FetchConfig{
			Timeout:  defaultFetchTimeout,
			MaxBytes: defaultFetchMaxBytes,
		},
		EventStream: EventStreamConfig{
			Provider: defaultEventStreamProvider,
			Topic:    defaultEventStreamTopic,
		},
		Ingest: IngestConfig{
			Workers:   defaultIngestWorkers,
			QueueSize: defaultIngestQueueSize,
		},
	}
}

// ValidIndexProviders returns the recognized index.provider values.
func ValidIndexProviders() []string {
	return []string{IndexElasticsearch, IndexMemory, IndexSQLite, IndexPostgres, IndexLibSQL, IndexQdrant}
}

// IsValidIndexProvider returns true if name is a recognized index provider.
func IsValidIndexProvider(name string) bool {
	return slices.Contains(ValidIndexProviders(), name)
}
