package dataset

import (
	"errors"
	"fmt"
)

// ErrDataSourceMissing is returned when the backing data file or object does not exist.
var ErrDataSourceMissing = errors.New("data source not found")

// ParseError reports a dataset that cannot be parsed at all, such as a missing header column.
type ParseError struct {
	Source string
	Line   int
	Err    error
}

func (e *ParseError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("parse dataset (line %d): %v", e.Line, e.Err)
	}
	return fmt.Sprintf("parse dataset %s (line %d): %v", e.Source, e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// RowError describes a malformed row that was skipped during load.
type RowError struct {
	Line   int
	Column string
	Err    error
}

func (e *RowError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("line %d, column %s: %v", e.Line, e.Column, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }
