package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/segmentio/kafka-go"

	"github.com/Boakye-20/uk-ai-policy-tracker/backend/internal/config"
	"github.com/Boakye-20/uk-ai-policy-tracker/backend/internal/dedupe"
	"github.com/Boakye-20/uk-ai-policy-tracker/backend/internal/elasticsearch"
	"github.com/Boakye-20/uk-ai-policy-tracker/backend/internal/logger"
	"github.com/Boakye-20/uk-ai-policy-tracker/backend/internal/models"
	"github.com/Boakye-20/uk-ai-policy-tracker/backend/internal/processing"
)

const dlqAttempts = 5

type policyIndexer interface {
	IndexPolicy(ctx context.Context, doc models.Policy) error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

func main() {
	log := logger.New("worker")
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn("load .env", slog.Any("err", err))
	}

	cfg, err := config.LoadWorker()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	esClient, err := elasticsearch.New(cfg.ElasticsearchAddr, cfg.ElasticsearchIndex, log)
	if err != nil {
		log.Error("init elasticsearch", slog.Any("err", err))
		os.Exit(1)
	}

	cache := dedupe.NewCache(cfg.DedupeCapacity, cfg.DedupeTTL)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := esClient.EnsureIndex(ctx); err != nil {
		log.Warn("ensure index failed, documents will use dynamic mapping", slog.Any("err", err))
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.KafkaBrokers,
		Topic:          cfg.KafkaTopic,
		GroupID:        cfg.KafkaConsumer,
		QueueCapacity:  cfg.BatchSize,
		MinBytes:       1e3,
		MaxBytes:       10e6,
		CommitInterval: 0, // manual commit only
	})
	defer reader.Close()

	dlqTopic := cfg.KafkaTopic + "_dlq"
	dlqWriter := kafka.NewWriter(kafka.WriterConfig{
		Brokers:     cfg.KafkaBrokers,
		Topic:       dlqTopic,
		MaxAttempts: 3,
	})
	defer dlqWriter.Close()

	log.Info("worker started",
		slog.String("topic", cfg.KafkaTopic),
		slog.String("group", cfg.KafkaConsumer),
		slog.String("dlq_topic", dlqTopic),
		slog.String("index", cfg.ElasticsearchIndex),
	)

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				log.Info("context canceled, stopping")
				return
			}
			log.Error("fetch message", slog.Any("err", err))
			select {
			case <-time.After(cfg.RetryBackoff):
			case <-ctx.Done():
				return
			}
			continue
		}

		if err := processMessage(ctx, log, esClient, cache, msg); err != nil {
			log.Warn("process message failed, sending to DLQ",
				slog.Any("err", err),
				slog.Int("partition", msg.Partition),
				slog.Int64("offset", msg.Offset),
			)

			// commit only once the message is safe in the DLQ; otherwise it is redelivered on restart
			if !sendToDLQ(ctx, log, dlqWriter, msg, err, time.Second) {
				if ctx.Err() != nil {
					return
				}
				continue
			}
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit message", slog.Any("err", err))
		}
	}
}

// processMessage indexes the policy carried by msg unless the same content was
// indexed recently.
func processMessage(ctx context.Context, log *slog.Logger, indexer policyIndexer, cache *dedupe.Cache, msg kafka.Message) error {
	var event models.PolicyEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("decode policy event: %w", err)
	}

	doc := event.Policy
	doc.Title = strings.TrimSpace(doc.Title)
	if doc.Title == "" {
		return errors.New("policy has no title")
	}
	if doc.RelevanceScore < 0 || doc.RelevanceScore > 10 {
		return fmt.Errorf("relevance score %.2f outside [0,10]", doc.RelevanceScore)
	}

	if !doc.PublishedDate.IsZero() {
		doc.YearMonth = doc.PublishedDate.Format(models.PeriodLayout)
	}
	if doc.ID == "" {
		doc.ID = processing.BuildDocumentID(doc.URL, doc.Title, doc.PublishedDate.Time)
	}

	fingerprint := processing.PolicyFingerprint(doc)
	if cache.Unchanged(doc.ID, fingerprint) {
		log.Debug("unchanged policy", slog.String("id", doc.ID), slog.String("batch", event.BatchID))
		return nil
	}

	if err := indexer.IndexPolicy(ctx, doc); err != nil {
		return err
	}

	cache.Mark(doc.ID, fingerprint)
	log.Info("indexed policy",
		slog.String("id", doc.ID),
		slog.String("title", doc.Title),
		slog.String("batch", event.BatchID),
	)
	return nil
}

// sendToDLQ forwards msg with its failure context, retrying with exponential
// backoff from base. It reports whether the write succeeded.
func sendToDLQ(ctx context.Context, log *slog.Logger, writer messageWriter, msg kafka.Message, cause error, base time.Duration) bool {
	headers := make([]kafka.Header, 0, len(msg.Headers)+4)
	headers = append(headers, msg.Headers...)
	headers = append(headers,
		kafka.Header{Key: "original_partition", Value: []byte(fmt.Sprintf("%d", msg.Partition))},
		kafka.Header{Key: "original_offset", Value: []byte(fmt.Sprintf("%d", msg.Offset))},
		kafka.Header{Key: "error", Value: []byte(cause.Error())},
		kafka.Header{Key: "timestamp", Value: []byte(time.Now().UTC().Format(time.RFC3339))},
	)
	dlqMsg := kafka.Message{Key: msg.Key, Value: msg.Value, Headers: headers}

	for attempt := 0; attempt < dlqAttempts; attempt++ {
		dlqErr := writer.WriteMessages(ctx, dlqMsg)
		if dlqErr == nil {
			log.Info("message sent to DLQ",
				slog.Int("partition", msg.Partition),
				slog.Int64("offset", msg.Offset),
				slog.Int("attempt", attempt+1),
			)
			return true
		}

		backoff := time.Duration(1<<uint(attempt)) * base
		log.Warn("DLQ write failed, retrying",
			slog.Any("err", dlqErr),
			slog.Int("attempt", attempt+1),
			slog.Duration("backoff", backoff),
		)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			log.Info("context canceled during DLQ retry")
			return false
		}
	}

	log.Error("DLQ write exhausted retries, message will be redelivered",
		slog.Int("partition", msg.Partition),
		slog.Int64("offset", msg.Offset),
	)
	return false
}
