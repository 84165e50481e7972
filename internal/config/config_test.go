package config_test

import (
	"testing"
	"time"

	"github.com/Boakye-20/uk-ai-policy-tracker/backend/internal/config"
	"github.com/stretchr/testify/require"
)

func clearDatasetEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DATA_SOURCE", "DATA_FILE", "DATA_S3_BUCKET", "DATA_S3_KEY", "AWS_REGION",
		"AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY", "DATA_EXCLUDE_NON_AI", "EXCLUSION_RULES_FILE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDatasetDefaults(t *testing.T) {
	clearDatasetEnv(t)

	d, err := config.LoadDataset()
	require.NoError(t, err)
	require.Equal(t, config.SourceLocal, d.Source)
	require.Equal(t, "data/uk_ai_policy_powerbi_ready.csv", d.File)
	require.Equal(t, "eu-west-2", d.S3Region)
	require.False(t, d.ExcludeNonAI)
}

func TestLoadDatasetS3(t *testing.T) {
	clearDatasetEnv(t)
	t.Setenv("DATA_SOURCE", "S3")
	t.Setenv("DATA_S3_BUCKET", "policy-data")
	t.Setenv("DATA_S3_KEY", "exports/policies.csv")
	t.Setenv("DATA_EXCLUDE_NON_AI", "true")

	d, err := config.LoadDataset()
	require.NoError(t, err)
	require.Equal(t, config.SourceS3, d.Source)
	require.Equal(t, "policy-data", d.S3Bucket)
	require.Equal(t, "exports/policies.csv", d.S3Key)
	require.True(t, d.ExcludeNonAI)
}

func TestLoadDatasetRejectsInvalid(t *testing.T) {
	clearDatasetEnv(t)
	t.Setenv("DATA_SOURCE", "s3")
	_, err := config.LoadDataset()
	require.ErrorContains(t, err, "DATA_S3_BUCKET")

	t.Setenv("DATA_SOURCE", "ftp")
	_, err = config.LoadDataset()
	require.Error(t, err)
}

func TestLoadAPI(t *testing.T) {
	clearDatasetEnv(t)
	t.Setenv("API_BIND_ADDR", ":9090")
	t.Setenv("API_REQUEST_TIMEOUT", "3s")
	t.Setenv("API_TIMELINE_MONTHS", "24")
	t.Setenv("API_MAX_LIMIT", "")
	t.Setenv("API_SEARCH_BACKEND", "elasticsearch")
	t.Setenv("ELASTICSEARCH_ADDR", "http://api-es:9200")
	t.Setenv("ELASTICSEARCH_INDEX", "api-index")
	t.Setenv("DATA_FILE", "/srv/policies.csv")

	cfg, err := config.LoadAPI()
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.BindAddr)
	require.Equal(t, 3*time.Second, cfg.RequestTimeout)
	require.Equal(t, 24, cfg.TimelineMonths)
	require.Equal(t, 100, cfg.MaxLimit)
	require.Equal(t, config.SearchElasticsearch, cfg.SearchBackend)
	require.Equal(t, "http://api-es:9200", cfg.ElasticsearchAddr)
	require.Equal(t, "api-index", cfg.ElasticsearchIndex)
	require.Equal(t, "/srv/policies.csv", cfg.File)
}

func TestLoadAPIRejectsUnknownSearchBackend(t *testing.T) {
	clearDatasetEnv(t)
	t.Setenv("API_SEARCH_BACKEND", "solr")

	_, err := config.LoadAPI()
	require.Error(t, err)
}

func TestLoadWorkerDefaults(t *testing.T) {
	t.Setenv("ELASTICSEARCH_ADDR", "")
	t.Setenv("ELASTICSEARCH_INDEX", "")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("KAFKA_TOPIC", "")
	t.Setenv("KAFKA_CONSUMER_GROUP", "")

	cfg, err := config.LoadWorker()
	require.NoError(t, err)

	require.Equal(t, "http://elasticsearch:9200", cfg.ElasticsearchAddr)
	require.Equal(t, "policies", cfg.ElasticsearchIndex)
	require.Equal(t, []string{"kafka:9092"}, cfg.KafkaBrokers)
	require.Equal(t, "policies_raw", cfg.KafkaTopic)
	require.Equal(t, "policy-indexer", cfg.KafkaConsumer)
}

func TestLoadWorkerOverrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "broker-a:29092, broker-b:29093")
	t.Setenv("KAFKA_TOPIC", "custom_topic")
	t.Setenv("KAFKA_CONSUMER_GROUP", "custom-group")
	t.Setenv("WORKER_DEDUPE_CAPACITY", "5")
	t.Setenv("WORKER_DEDUPE_TTL", "48h")
	t.Setenv("WORKER_BATCH_SIZE", "3")
	t.Setenv("WORKER_RETRY_BACKOFF", "not-a-duration")

	cfg, err := config.LoadWorker()
	require.NoError(t, err)

	require.Equal(t, []string{"broker-a:29092", "broker-b:29093"}, cfg.KafkaBrokers)
	require.Equal(t, "custom_topic", cfg.KafkaTopic)
	require.Equal(t, "custom-group", cfg.KafkaConsumer)
	require.Equal(t, 5, cfg.DedupeCapacity)
	require.Equal(t, 48*time.Hour, cfg.DedupeTTL)
	require.Equal(t, 3, cfg.BatchSize)
	require.Equal(t, 2*time.Second, cfg.RetryBackoff)
}

func TestLoadRetention(t *testing.T) {
	t.Setenv("ELASTICSEARCH_ADDR", "http://ret-es:9200")
	t.Setenv("ELASTICSEARCH_INDEX", "ret-index")
	t.Setenv("RETENTION_SCHEDULE", "0 3 * * *")
	t.Setenv("RETENTION_MAX_AGE", "36h")
	t.Setenv("RETENTION_BATCH_SIZE", "123")

	cfg, err := config.LoadRetention()
	require.NoError(t, err)

	require.Equal(t, "0 3 * * *", cfg.Schedule)
	require.Equal(t, 36*time.Hour, cfg.MaxAge)
	require.Equal(t, 123, cfg.BatchSize)
	require.Equal(t, "http://ret-es:9200", cfg.ElasticsearchAddr)
	require.Equal(t, "ret-index", cfg.ElasticsearchIndex)
}

func TestLoadRetentionRejectsBadSchedule(t *testing.T) {
	t.Setenv("RETENTION_SCHEDULE", "every tuesday")

	_, err := config.LoadRetention()
	require.Error(t, err)
}
