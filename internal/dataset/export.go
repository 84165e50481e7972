package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/Boakye-20/uk-ai-policy-tracker/backend/internal/models"
	"github.com/Boakye-20/uk-ai-policy-tracker/backend/internal/processing"
)

// Header returns the canonical column names in export order.
func Header() []string {
	out := make([]string, len(columns))
	for i, col := range columns {
		out[i] = col.name
	}
	return out
}

// WriteCSV writes records with the canonical header.
func WriteCSV(w io.Writer, records []models.Policy) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Header()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	row := make([]string, len(columns))
	for _, p := range records {
		for i, col := range columns {
			row[i] = col.get(p)
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// PruneResult reports what PruneCSV kept.
type PruneResult struct {
	Read     int
	Excluded int
	Written  int
}

// PruneCSV copies rows from r to w, dropping rows the policy excludes and
// stopping once target rows have been written (target <= 0 means no cap).
// Column order and unknown columns are preserved.
func PruneCSV(r io.Reader, w io.Writer, policy processing.ExclusionPolicy, target int) (PruneResult, error) {
	var res PruneResult

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	writer := csv.NewWriter(w)

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return res, &ParseError{Line: 1, Err: errors.New("empty file")}
		}
		return res, &ParseError{Line: 1, Err: err}
	}
	summaryIdx := ColumnIndex(header, "ai_summary")

	if err := writer.Write(header); err != nil {
		return res, fmt.Errorf("write header: %w", err)
	}

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return res, fmt.Errorf("read row: %w", err)
		}
		res.Read++

		var p models.Policy
		if summaryIdx >= 0 && summaryIdx < len(row) {
			p.Summary = row[summaryIdx]
		}
		if policy != nil && policy.Excluded(p) {
			res.Excluded++
			continue
		}
		if target > 0 && res.Written >= target {
			continue
		}

		if err := writer.Write(row); err != nil {
			return res, fmt.Errorf("write row: %w", err)
		}
		res.Written++
	}

	writer.Flush()
	return res, writer.Error()
}
