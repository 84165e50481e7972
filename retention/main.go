package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/Boakye-20/uk-ai-policy-tracker/backend/internal/config"
	"github.com/Boakye-20/uk-ai-policy-tracker/backend/internal/elasticsearch"
	"github.com/Boakye-20/uk-ai-policy-tracker/backend/internal/logger"
)

type policyDeleter interface {
	DeletePublishedBefore(ctx context.Context, cutoff time.Time, batchSize int) (int64, error)
}

func main() {
	log := logger.New("retention")
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn("load .env", slog.Any("err", err))
	}

	cfg, err := config.LoadRetention()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	esClient, err := connect(ctx, log, cfg)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			log.Info("shutdown signal received during startup")
			return
		}
		log.Error("failed to connect to elasticsearch after retries", slog.Any("err", err))
		os.Exit(1)
	}
	log.Info("connected to elasticsearch")

	scheduler := cron.New(cron.WithLocation(time.UTC))
	if _, err := scheduler.AddFunc(cfg.Schedule, func() {
		runOnce(ctx, log, esClient, cfg, time.Now())
	}); err != nil {
		log.Error("schedule retention job", slog.Any("err", err))
		os.Exit(1)
	}

	log.Info("retention job running",
		slog.String("schedule", cfg.Schedule),
		slog.Duration("max_age", cfg.MaxAge),
	)

	// run immediately on start, then on schedule
	runOnce(ctx, log, esClient, cfg, time.Now())
	scheduler.Start()

	<-ctx.Done()
	log.Info("shutdown signal received")
	<-scheduler.Stop().Done()
}

// connect retries client creation and ping with exponential backoff.
func connect(ctx context.Context, log *slog.Logger, cfg *config.Retention) (*elasticsearch.Client, error) {
	const maxRetries = 10
	retryDelay := 2 * time.Second

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		esClient, err := elasticsearch.New(cfg.ElasticsearchAddr, cfg.ElasticsearchIndex, log)
		if err == nil {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = esClient.Ping(pingCtx)
			cancel()
			if err == nil {
				return esClient, nil
			}
		}
		lastErr = err
		log.Warn("elasticsearch not ready, retrying",
			slog.Any("err", err),
			slog.Int("attempt", i+1),
			slog.Int("max_retries", maxRetries),
			slog.Duration("retry_in", retryDelay),
		)

		select {
		case <-time.After(retryDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		retryDelay = min(retryDelay*2, 30*time.Second)
	}
	return nil, lastErr
}

// runOnce deletes indexed policies published more than cfg.MaxAge before now.
func runOnce(ctx context.Context, log *slog.Logger, deleter policyDeleter, cfg *config.Retention, now time.Time) {
	subCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	cutoff := now.Add(-cfg.MaxAge)
	deleted, err := deleter.DeletePublishedBefore(subCtx, cutoff, cfg.BatchSize)
	if err != nil {
		log.Warn("retention run failed (will retry on next run)", slog.Any("err", err))
		return
	}

	if deleted > 0 {
		log.Info("retention run completed",
			slog.Int64("deleted", deleted),
			slog.Time("cutoff", cutoff),
		)
	} else {
		log.Debug("retention run completed, no old policies found")
	}
}
