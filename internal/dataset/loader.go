package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/Boakye-20/uk-ai-policy-tracker/backend/internal/models"
	"github.com/Boakye-20/uk-ai-policy-tracker/backend/internal/processing"
)

// LoadReport summarises a dataset load.
type LoadReport struct {
	Rows    int
	Loaded  int
	Skipped []RowError
}

// Parse reads a policy CSV with a header row. Malformed rows are logged and
// skipped; only an unusable header or an I/O failure aborts the load.
func Parse(r io.Reader, log *slog.Logger) ([]models.Policy, LoadReport, error) {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var report LoadReport

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, report, &ParseError{Line: 1, Err: errors.New("empty file")}
		}
		return nil, report, &ParseError{Line: 1, Err: err}
	}

	idx, err := bindHeader(header)
	if err != nil {
		return nil, report, &ParseError{Line: 1, Err: err}
	}

	records := make([]models.Policy, 0, 512)
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if !errors.As(err, &perr) {
				return nil, report, fmt.Errorf("read dataset: %w", err)
			}
			report.Rows++
			rowErr := RowError{Line: perr.Line, Err: perr.Err}
			report.Skipped = append(report.Skipped, rowErr)
			log.Warn("skip malformed row", slog.Int("line", perr.Line), slog.Any("err", perr.Err))
			continue
		}

		if isBlank(row) {
			continue
		}
		report.Rows++
		line, _ := reader.FieldPos(0)

		policy, rowErr := decodeRow(row, len(header), idx, line)
		if rowErr != nil {
			report.Skipped = append(report.Skipped, *rowErr)
			log.Warn("skip malformed row",
				slog.Int("line", rowErr.Line),
				slog.String("column", rowErr.Column),
				slog.Any("err", rowErr.Err),
			)
			continue
		}

		if normalizePeriod(&policy) {
			log.Warn("year_month disagrees with published_date, using published_date",
				slog.Int("line", line),
				slog.String("published_date", policy.PublishedDate.String()),
			)
		}
		policy.ID = processing.BuildDocumentID(policy.URL, policy.Title, policy.PublishedDate.Time)
		records = append(records, policy)
	}

	report.Loaded = len(records)
	return records, report, nil
}

func decodeRow(row []string, width int, idx []int, line int) (models.Policy, *RowError) {
	var p models.Policy
	if len(row) != width {
		return p, &RowError{Line: line, Err: fmt.Errorf("expected %d fields, got %d", width, len(row))}
	}

	for i, col := range columns {
		pos := idx[i]
		if pos < 0 {
			continue
		}
		if err := col.set(&p, strings.TrimSpace(row[pos])); err != nil {
			return p, &RowError{Line: line, Column: col.name, Err: err}
		}
	}

	if p.RelevanceScore < 0 || p.RelevanceScore > 10 {
		return p, &RowError{Line: line, Column: "relevance_score", Err: fmt.Errorf("score %.2f outside [0,10]", p.RelevanceScore)}
	}
	return p, nil
}

// normalizePeriod keeps year_month consistent with published_date and fills
// empty calendar fields. It reports whether a stored year_month was replaced.
func normalizePeriod(p *models.Policy) bool {
	if p.PublishedDate.IsZero() {
		p.YearMonth = processing.NormalizePeriodKey(p.YearMonth)
		return false
	}

	derived := p.PublishedDate.Format(models.PeriodLayout)
	replaced := p.YearMonth != "" && processing.NormalizePeriodKey(p.YearMonth) != derived
	p.YearMonth = derived

	if p.Year == 0 {
		p.Year = p.PublishedDate.Year()
	}
	if p.Month == 0 {
		p.Month = int(p.PublishedDate.Month())
	}
	if p.Quarter == 0 {
		p.Quarter = (int(p.PublishedDate.Month())-1)/3 + 1
	}
	return replaced
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
