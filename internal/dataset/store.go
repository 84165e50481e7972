package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/Boakye-20/uk-ai-policy-tracker/backend/internal/models"
	"github.com/Boakye-20/uk-ai-policy-tracker/backend/internal/processing"
)

// Store yields a fresh snapshot of the dataset on every call.
type Store interface {
	Policies(ctx context.Context) ([]models.Policy, error)
}

// SourceStore re-reads its Source for every call. It holds no parsed data.
type SourceStore struct {
	source    Source
	exclusion processing.ExclusionPolicy
	log       *slog.Logger
}

// StoreOption configures a SourceStore.
type StoreOption func(*SourceStore)

// WithExclusionPolicy drops records the policy marks as not AI-relevant.
func WithExclusionPolicy(policy processing.ExclusionPolicy) StoreOption {
	return func(s *SourceStore) {
		s.exclusion = policy
	}
}

// WithLogger sets the logger used for skipped-row warnings.
func WithLogger(log *slog.Logger) StoreOption {
	return func(s *SourceStore) {
		s.log = log
	}
}

// NewStore creates a store over source.
func NewStore(source Source, opts ...StoreOption) *SourceStore {
	s := &SourceStore{source: source}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s
}

// Policies loads and parses the dataset.
func (s *SourceStore) Policies(ctx context.Context) ([]models.Policy, error) {
	rc, err := s.source.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	records, report, err := Parse(rc, s.log.With(slog.String("source", s.source.Describe())))
	if err != nil {
		var perr *ParseError
		if errors.As(err, &perr) {
			perr.Source = s.source.Describe()
			return nil, perr
		}
		return nil, fmt.Errorf("load %s: %w", s.source.Describe(), err)
	}

	if len(report.Skipped) > 0 {
		s.log.Warn("dataset loaded with skipped rows",
			slog.Int("rows", report.Rows),
			slog.Int("loaded", report.Loaded),
			slog.Int("skipped", len(report.Skipped)),
		)
	}

	if s.exclusion != nil {
		before := len(records)
		records = processing.ExcludeAll(records, s.exclusion)
		if dropped := before - len(records); dropped > 0 {
			s.log.Debug("excluded non-AI policies", slog.Int("dropped", dropped))
		}
	}

	return records, nil
}

// Check verifies the source can be opened.
func (s *SourceStore) Check(ctx context.Context) error {
	rc, err := s.source.Open(ctx)
	if err != nil {
		return err
	}
	return rc.Close()
}

// StaticStore serves a fixed record set. Callers receive a copy.
type StaticStore struct {
	records []models.Policy
	err     error
}

// NewStaticStore wraps records.
func NewStaticStore(records []models.Policy) *StaticStore {
	return &StaticStore{records: records}
}

// NewFailingStore returns a store whose every call fails with err.
func NewFailingStore(err error) *StaticStore {
	return &StaticStore{err: err}
}

func (s *StaticStore) Policies(ctx context.Context) ([]models.Policy, error) {
	if s.err != nil {
		return nil, s.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]models.Policy, len(s.records))
	copy(out, s.records)
	return out, nil
}
