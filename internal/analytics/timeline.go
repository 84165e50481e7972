package analytics

import (
	"sort"
	"time"

	"github.com/Boakye-20/uk-ai-policy-tracker/backend/internal/models"
	"github.com/Boakye-20/uk-ai-policy-tracker/backend/internal/processing"
)

// Timeline window sizes used by the views.
const (
	TimelineAnalytics = 18
	TimelineLong      = 24
	TimelineShort     = 12
)

// TimelineBucket counts the records of one period, split by policy type.
type TimelineBucket struct {
	Period string         `json:"period"`
	Label  string         `json:"label"`
	Total  int            `json:"total"`
	ByType map[string]int `json:"byType"`
}

// PeriodCount is a single count for one period.
type PeriodCount struct {
	Period string `json:"period"`
	Label  string `json:"label"`
	Count  int    `json:"count"`
}

// PeriodKey returns the record's canonical YYYY-MM key, falling back to the
// published date when year_month is unusable. It is "" when neither is set.
func PeriodKey(p models.Policy) string {
	if key := processing.NormalizePeriodKey(p.YearMonth); key != "" {
		return key
	}
	if !p.PublishedDate.IsZero() {
		return p.PublishedDate.Format(models.PeriodLayout)
	}
	return ""
}

// PeriodLabel formats a period key for display, e.g. "2023-01" -> "Jan 2023".
func PeriodLabel(period string) string {
	ts, err := time.Parse(models.PeriodLayout, period)
	if err != nil {
		return period
	}
	return ts.Format("Jan 2006")
}

// Timeline groups records by period, sorted chronologically and truncated to
// the most recent limit periods (limit <= 0 keeps all). Periods with no records
// are not synthesised; records without a period are skipped.
func Timeline(records []models.Policy, limit int) []TimelineBucket {
	buckets := make(map[string]*TimelineBucket)
	for _, p := range records {
		key := PeriodKey(p)
		if key == "" {
			continue
		}
		b, ok := buckets[key]
		if !ok {
			b = &TimelineBucket{Period: key, Label: PeriodLabel(key), ByType: make(map[string]int)}
			buckets[key] = b
		}
		b.Total++
		typ := p.PolicyType
		if typ == "" {
			typ = models.Unknown
		}
		b.ByType[typ]++
	}

	out := make([]TimelineBucket, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	return lastN(out, limit)
}

// CountByPeriod is Timeline without the per-type split.
func CountByPeriod(records []models.Policy, limit int) []PeriodCount {
	buckets := Timeline(records, limit)
	out := make([]PeriodCount, len(buckets))
	for i, b := range buckets {
		out[i] = PeriodCount{Period: b.Period, Label: b.Label, Count: b.Total}
	}
	return out
}

// Totals extracts the per-period totals in order.
func Totals(buckets []TimelineBucket) []int {
	out := make([]int, len(buckets))
	for i, b := range buckets {
		out[i] = b.Total
	}
	return out
}

// LastMonths returns the period keys of the months calendar ending with now's month, oldest first.
func LastMonths(now time.Time, n int) []string {
	if n <= 0 {
		return nil
	}
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = first.AddDate(0, i-(n-1), 0).Format(models.PeriodLayout)
	}
	return out
}

func lastN[T any](items []T, n int) []T {
	if n > 0 && len(items) > n {
		return items[len(items)-n:]
	}
	return items
}
