package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// SourceType selects where the policy CSV is read from.
type SourceType string

const (
	SourceLocal SourceType = "local"
	SourceS3    SourceType = "s3"
)

// SearchBackend selects how the API serves free-text search.
type SearchBackend string

const (
	SearchMemory        SearchBackend = "memory"
	SearchElasticsearch SearchBackend = "elasticsearch"
)

// Dataset locates the policy CSV and the load-time exclusion policy.
type Dataset struct {
	Source             SourceType
	File               string
	S3Bucket           string
	S3Key              string
	S3Region           string
	AWSAccessKey       string
	AWSSecretKey       string
	ExcludeNonAI       bool
	ExclusionRulesFile string
}

// Search contains Elasticsearch parameters shared by the search mirror services.
type Search struct {
	ElasticsearchAddr  string
	ElasticsearchIndex string
}

// API describes HTTP-layer configuration.
type API struct {
	Dataset
	Search
	SearchBackend  SearchBackend
	BindAddr       string
	RequestTimeout time.Duration
	TimelineMonths int
	MaxLimit       int
}

// Worker holds configuration for the Kafka -> Elasticsearch indexer.
type Worker struct {
	Search
	KafkaBrokers   []string
	KafkaTopic     string
	KafkaConsumer  string
	DedupeCapacity int
	DedupeTTL      time.Duration
	BatchSize      int
	RetryBackoff   time.Duration
}

// Retention configures the index cleanup job.
type Retention struct {
	Search
	Schedule  string
	MaxAge    time.Duration
	BatchSize int
}

// CLI configures policyctl.
type CLI struct {
	Dataset
	KafkaBrokers []string
	KafkaTopic   string
}

// LoadDataset reads the dataset block shared by the API and the CLI.
func LoadDataset() (Dataset, error) {
	d := Dataset{
		Source:             SourceType(strings.ToLower(getEnv("DATA_SOURCE", string(SourceLocal)))),
		File:               getEnv("DATA_FILE", "data/uk_ai_policy_powerbi_ready.csv"),
		S3Bucket:           getEnv("DATA_S3_BUCKET", ""),
		S3Key:              getEnv("DATA_S3_KEY", "uk_ai_policy_powerbi_ready.csv"),
		S3Region:           getEnv("AWS_REGION", "eu-west-2"),
		AWSAccessKey:       getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:       getEnv("AWS_SECRET_ACCESS_KEY", ""),
		ExcludeNonAI:       getBool("DATA_EXCLUDE_NON_AI", false),
		ExclusionRulesFile: getEnv("EXCLUSION_RULES_FILE", ""),
	}

	switch d.Source {
	case SourceLocal:
		if d.File == "" {
			return d, fmt.Errorf("DATA_FILE is required for local data source")
		}
	case SourceS3:
		if d.S3Bucket == "" {
			return d, fmt.Errorf("DATA_S3_BUCKET is required for s3 data source")
		}
	default:
		return d, fmt.Errorf("DATA_SOURCE must be %q or %q, got %q", SourceLocal, SourceS3, d.Source)
	}

	return d, nil
}

func loadSearch() Search {
	return Search{
		ElasticsearchAddr:  getEnv("ELASTICSEARCH_ADDR", "http://elasticsearch:9200"),
		ElasticsearchIndex: getEnv("ELASTICSEARCH_INDEX", "policies"),
	}
}

// LoadAPI builds an API config from environment variables.
func LoadAPI() (*API, error) {
	dataset, err := LoadDataset()
	if err != nil {
		return nil, err
	}

	c := &API{
		Dataset:        dataset,
		Search:         loadSearch(),
		SearchBackend:  SearchBackend(strings.ToLower(getEnv("API_SEARCH_BACKEND", string(SearchMemory)))),
		BindAddr:       getEnv("API_BIND_ADDR", "0.0.0.0:8080"),
		RequestTimeout: getDuration("API_REQUEST_TIMEOUT", "10s"),
		TimelineMonths: getInt("API_TIMELINE_MONTHS", 18),
		MaxLimit:       getInt("API_MAX_LIMIT", 100),
	}

	if c.SearchBackend != SearchMemory && c.SearchBackend != SearchElasticsearch {
		return nil, fmt.Errorf("API_SEARCH_BACKEND must be %q or %q", SearchMemory, SearchElasticsearch)
	}
	if c.RequestTimeout <= 0 {
		return nil, fmt.Errorf("API_REQUEST_TIMEOUT must be positive")
	}
	if c.TimelineMonths <= 0 {
		return nil, fmt.Errorf("API_TIMELINE_MONTHS must be positive")
	}
	if c.MaxLimit <= 0 {
		return nil, fmt.Errorf("API_MAX_LIMIT must be positive")
	}

	return c, nil
}

// LoadWorker builds a Worker config from environment variables.
func LoadWorker() (*Worker, error) {
	c := &Worker{
		Search:         loadSearch(),
		KafkaBrokers:   splitAndTrim(getEnv("KAFKA_BROKERS", "kafka:9092")),
		KafkaTopic:     getEnv("KAFKA_TOPIC", "policies_raw"),
		KafkaConsumer:  getEnv("KAFKA_CONSUMER_GROUP", "policy-indexer"),
		DedupeCapacity: getInt("WORKER_DEDUPE_CAPACITY", 5000),
		DedupeTTL:      getDuration("WORKER_DEDUPE_TTL", "24h"),
		BatchSize:      getInt("WORKER_BATCH_SIZE", 10),
		RetryBackoff:   getDuration("WORKER_RETRY_BACKOFF", "2s"),
	}

	if len(c.KafkaBrokers) == 0 {
		return nil, fmt.Errorf("KAFKA_BROKERS must contain at least one broker")
	}
	if c.BatchSize <= 0 {
		return nil, fmt.Errorf("WORKER_BATCH_SIZE must be positive")
	}
	if c.DedupeCapacity <= 0 {
		return nil, fmt.Errorf("WORKER_DEDUPE_CAPACITY must be positive")
	}

	return c, nil
}

// LoadRetention builds a Retention config from environment variables.
func LoadRetention() (*Retention, error) {
	c := &Retention{
		Search:    loadSearch(),
		Schedule:  getEnv("RETENTION_SCHEDULE", "@every 24h"),
		MaxAge:    getDuration("RETENTION_MAX_AGE", "43800h"),
		BatchSize: getInt("RETENTION_BATCH_SIZE", 500),
	}

	if _, err := cron.ParseStandard(c.Schedule); err != nil {
		return nil, fmt.Errorf("RETENTION_SCHEDULE is not a valid schedule: %w", err)
	}
	if c.MaxAge <= 0 {
		return nil, fmt.Errorf("RETENTION_MAX_AGE must be positive")
	}
	if c.BatchSize <= 0 {
		return nil, fmt.Errorf("RETENTION_BATCH_SIZE must be positive")
	}

	return c, nil
}

// LoadCLI builds the policyctl config from environment variables.
func LoadCLI() (*CLI, error) {
	dataset, err := LoadDataset()
	if err != nil {
		return nil, err
	}
	return &CLI{
		Dataset:      dataset,
		KafkaBrokers: splitAndTrim(getEnv("KAFKA_BROKERS", "kafka:9092")),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "policies_raw"),
	}, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key, fallback string) time.Duration {
	raw := getEnv(key, fallback)
	d, err := time.ParseDuration(raw)
	if err != nil {
		fd, ferr := time.ParseDuration(fallback)
		if ferr != nil {
			panic(fmt.Sprintf("invalid fallback duration %q: %v", fallback, ferr))
		}
		return fd
	}
	return d
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
