package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Boakye-20/uk-ai-policy-tracker/backend/internal/config"
)

// Source opens the raw dataset for reading.
type Source interface {
	// Open returns a reader over the CSV. Errors wrap ErrDataSourceMissing when
	// the backing file or object does not exist.
	Open(ctx context.Context) (io.ReadCloser, error)

	// Describe names the source in logs and error messages.
	Describe() string
}

// NewSource creates a source based on configuration.
func NewSource(ctx context.Context, cfg config.Dataset) (Source, error) {
	switch cfg.Source {
	case config.SourceLocal:
		if cfg.File == "" {
			return nil, errors.New("DATA_FILE is required for local data source")
		}
		return NewLocalSource(cfg.File), nil
	case config.SourceS3:
		return NewS3Source(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown data source: %s", cfg.Source)
	}
}

// LocalSource reads the dataset from the local filesystem.
type LocalSource struct {
	path string
}

// NewLocalSource creates a local file source.
func NewLocalSource(path string) *LocalSource {
	return &LocalSource{path: path}
}

func (s *LocalSource) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrDataSourceMissing, s.path)
		}
		return nil, fmt.Errorf("open data file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("stat data file: %w", err)
	}
	if info.IsDir() {
		file.Close()
		return nil, fmt.Errorf("%w: %s is a directory", ErrDataSourceMissing, s.path)
	}

	return file, nil
}

func (s *LocalSource) Describe() string {
	return s.path
}
