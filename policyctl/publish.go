package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/spf13/cobra"

	"github.com/Boakye-20/uk-ai-policy-tracker/backend/internal/models"
	"github.com/Boakye-20/uk-ai-policy-tracker/backend/internal/processing"
)

type eventWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

func newKafkaWriter(brokers []string, topic string) eventWriter {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
	}
}

func (a *app) publishCommand() *cobra.Command {
	var (
		filters   filterFlags
		chunkSize int
		dryRun    bool
	)

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish records to Kafka for the search indexer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if chunkSize <= 0 {
				return fmt.Errorf("--chunk must be positive, got %d", chunkSize)
			}

			records, err := a.load(cmd.Context(), filters.filter())
			if err != nil {
				return err
			}

			batchID := uuid.NewString()
			msgs, err := buildEvents(records, batchID, a.now().UTC())
			if err != nil {
				return err
			}
			if dryRun {
				fmt.Fprintf(cmd.OutOrStdout(), "would publish %d policies to %s\n", len(msgs), a.cfg.KafkaTopic)
				return nil
			}

			writer := a.newWriter(a.cfg.KafkaBrokers, a.cfg.KafkaTopic)
			defer writer.Close()

			for start := 0; start < len(msgs); start += chunkSize {
				end := min(start+chunkSize, len(msgs))
				if err := writer.WriteMessages(cmd.Context(), msgs[start:end]...); err != nil {
					return fmt.Errorf("publish batch %s: %w", batchID, err)
				}
				a.log.Debug("published chunk", "batch_id", batchID, "sent", end)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "published %d policies to %s (batch %s)\n", len(msgs), a.cfg.KafkaTopic, batchID)
			return nil
		},
	}

	filters.register(cmd)
	cmd.Flags().IntVar(&chunkSize, "chunk", 100, "messages per write")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "count the events without sending them")
	return cmd
}

// buildEvents encodes one keyed PolicyEvent per record. Records without an ID
// get the same document ID the indexer would derive.
func buildEvents(records []models.Policy, batchID string, at time.Time) ([]kafka.Message, error) {
	msgs := make([]kafka.Message, 0, len(records))
	for _, p := range records {
		if p.ID == "" {
			p.ID = processing.BuildDocumentID(p.URL, p.Title, p.PublishedDate.Time)
		}
		value, err := json.Marshal(models.PolicyEvent{BatchID: batchID, PublishedAt: at, Policy: p})
		if err != nil {
			return nil, fmt.Errorf("encode policy %q: %w", p.Title, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(p.ID),
			Value: value,
			Headers: []kafka.Header{
				{Key: "batch_id", Value: []byte(batchID)},
			},
		})
	}
	return msgs, nil
}
