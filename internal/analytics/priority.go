package analytics

import (
	"sort"

	"github.com/Boakye-20/uk-ai-policy-tracker/backend/internal/models"
)

// Recency buckets, classified from days_since_published.
const (
	RecencyLastMonth   = "Last month"
	RecencyLast3Months = "Last 3 months"
	RecencyLast6Months = "Last 6 months"
	RecencyLastYear    = "Last year"
	RecencyOlder       = "Older"
)

// Compliance levels accepted by ComplianceView.
const (
	ComplianceCritical = "critical"
	ComplianceHigh     = "high"
	ComplianceAll      = "all"
)

// ClassifyRecency maps days since publication to its exclusive recency bucket.
func ClassifyRecency(days int) string {
	switch {
	case days <= 30:
		return RecencyLastMonth
	case days <= 90:
		return RecencyLast3Months
	case days <= 180:
		return RecencyLast6Months
	case days <= 365:
		return RecencyLastYear
	default:
		return RecencyOlder
	}
}

// RecencyRange returns the inclusive days_since_published bounds of a recency
// bucket. hi is -1 for the open-ended Older bucket; ok is false for unknown buckets.
func RecencyRange(bucket string) (lo, hi int, ok bool) {
	switch bucket {
	case RecencyLastMonth:
		return 0, 30, true
	case RecencyLast3Months:
		return 31, 90, true
	case RecencyLast6Months:
		return 91, 180, true
	case RecencyLastYear:
		return 181, 365, true
	case RecencyOlder:
		return 366, -1, true
	default:
		return 0, 0, false
	}
}

// RecencyCounts holds exclusive per-bucket counts.
type RecencyCounts struct {
	LastMonth   int `json:"lastMonth"`
	Last3Months int `json:"last3Months"`
	Last6Months int `json:"last6Months"`
	LastYear    int `json:"lastYear"`
	Older       int `json:"older"`
}

// CountRecency classifies every record.
func CountRecency(records []models.Policy) RecencyCounts {
	var c RecencyCounts
	for _, p := range records {
		switch ClassifyRecency(p.DaysSincePublished) {
		case RecencyLastMonth:
			c.LastMonth++
		case RecencyLast3Months:
			c.Last3Months++
		case RecencyLast6Months:
			c.Last6Months++
		case RecencyLastYear:
			c.LastYear++
		default:
			c.Older++
		}
	}
	return c
}

// Within3Months is the cumulative count published in the last 90 days.
func (c RecencyCounts) Within3Months() int {
	return c.LastMonth + c.Last3Months
}

// Within6Months is the cumulative count published in the last 180 days.
func (c RecencyCounts) Within6Months() int {
	return c.Within3Months() + c.Last6Months
}

// WithinYear is the cumulative count published in the last 365 days.
func (c RecencyCounts) WithinYear() int {
	return c.Within6Months() + c.LastYear
}

// RegulatorySummary describes the regulation & compliance slice of the dataset.
type RegulatorySummary struct {
	Count         int           `json:"count"`
	Percentage    float64       `json:"percentage"`
	Recency       RecencyCounts `json:"recency"`
	Within3Months int           `json:"within3Months"`
	Within6Months int           `json:"within6Months"`
	Departments   int           `json:"departments"`
	BySector      []Count       `json:"bySector"`
}

// IsRegulation reports whether p is a regulation & compliance record.
func IsRegulation(p models.Policy) bool {
	return p.PolicyType == models.PolicyTypeRegulation
}

// IsHighPriority reports whether p is critical or high priority.
func IsHighPriority(p models.Policy) bool {
	return p.PriorityCategory == models.PriorityCritical || p.PriorityCategory == models.PriorityHigh
}

// Where returns the records satisfying keep.
func Where(records []models.Policy, keep func(models.Policy) bool) []models.Policy {
	out := make([]models.Policy, 0)
	for _, p := range records {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

// RegulatoryView summarises regulations relative to the whole record set.
func RegulatoryView(records []models.Policy) RegulatorySummary {
	regs := Where(records, IsRegulation)
	recency := CountRecency(regs)
	return RegulatorySummary{
		Count:         len(regs),
		Percentage:    Percent(len(regs), len(records)),
		Recency:       recency,
		Within3Months: recency.Within3Months(),
		Within6Months: recency.Within6Months(),
		Departments:   len(CountBy(regs, ByDepartment)),
		BySector:      Rollup(regs, BySector, RegulationSectorLimit),
	}
}

// Regulations lists regulation records matching f, newest first.
func Regulations(records []models.Policy, f Filter) []models.Policy {
	f.PolicyType = models.PolicyTypeRegulation
	return Newest(Apply(records, f))
}

// Newest sorts a copy of records by published date descending; undated records sort last.
func Newest(records []models.Policy) []models.Policy {
	out := make([]models.Policy, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PublishedDate.After(out[j].PublishedDate.Time)
	})
	return out
}

// ComplianceSummary is the compliance alert view.
type ComplianceSummary struct {
	Level         string          `json:"level"`
	CriticalCount int             `json:"criticalCount"`
	HighCount     int             `json:"highCount"`
	Total         int             `json:"total"`
	Recency       RecencyCounts   `json:"recency"`
	Policies      []models.Policy `json:"policies"`
}

// ComplianceView selects critical and/or high priority records by level and
// orders them by relevance. Unknown levels behave as ComplianceAll.
func ComplianceView(records []models.Policy, level string) ComplianceSummary {
	var keep func(models.Policy) bool
	switch level {
	case ComplianceCritical:
		keep = func(p models.Policy) bool { return p.PriorityCategory == models.PriorityCritical }
	case ComplianceHigh:
		keep = func(p models.Policy) bool { return p.PriorityCategory == models.PriorityHigh }
	default:
		level = ComplianceAll
		keep = IsHighPriority
	}

	selected := Where(records, keep)
	summary := ComplianceSummary{
		Level:    level,
		Total:    len(selected),
		Recency:  CountRecency(selected),
		Policies: ByRelevance(selected, 0),
	}
	for _, p := range records {
		switch p.PriorityCategory {
		case models.PriorityCritical:
			summary.CriticalCount++
		case models.PriorityHigh:
			summary.HighCount++
		}
	}
	return summary
}
