package analytics

import (
	"math"
	"sort"

	"github.com/Boakye-20/uk-ai-policy-tracker/backend/internal/models"
)

// OtherKey labels the bucket that absorbs the tail of a capped rollup.
const OtherKey = "Other"

// Count is one (key, count) pair of a rollup.
type Count struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// KeyFunc extracts the grouping key from a record.
type KeyFunc func(models.Policy) string

// Common key extractors.
var (
	ByDepartment    KeyFunc = func(p models.Policy) string { return p.Department }
	ByPolicyType    KeyFunc = func(p models.Policy) string { return p.PolicyType }
	BySector        KeyFunc = func(p models.Policy) string { return p.SectorFocus }
	ByAIApplication KeyFunc = func(p models.Policy) string { return p.AIApplication }
	ByPriority      KeyFunc = func(p models.Policy) string { return p.PriorityCategory }
)

// CountBy groups records by key in first-encountered order. Empty keys count as models.Unknown.
func CountBy(records []models.Policy, key KeyFunc) []Count {
	index := make(map[string]int)
	out := make([]Count, 0)
	for _, p := range records {
		k := key(p)
		if k == "" {
			k = models.Unknown
		}
		if i, ok := index[k]; ok {
			out[i].Count++
			continue
		}
		index[k] = len(out)
		out = append(out, Count{Key: k, Count: 1})
	}
	return out
}

// Rollup counts records by key, sorts descending and collapses everything past
// limit into an "Other" bucket. limit <= 0 keeps every key.
func Rollup(records []models.Policy, key KeyFunc, limit int) []Count {
	return Collapse(CountBy(records, key), limit)
}

// Collapse sorts counts descending (ties keep their input order) and folds the
// entries past limit into a single "Other" bucket holding their exact sum.
func Collapse(counts []Count, limit int) []Count {
	sorted := sortedDesc(counts)
	if limit <= 0 || len(sorted) <= limit {
		return sorted
	}

	kept := sorted[:limit:limit]
	tail := 0
	for _, c := range sorted[limit:] {
		tail += c.Count
	}

	for i := range kept {
		if kept[i].Key == OtherKey {
			kept[i].Count += tail
			return kept
		}
	}
	return append(kept, Count{Key: OtherKey, Count: tail})
}

// TopN sorts counts descending and keeps the first n without an "Other" bucket.
func TopN(counts []Count, n int) []Count {
	sorted := sortedDesc(counts)
	if n > 0 && len(sorted) > n {
		return sorted[:n]
	}
	return sorted
}

func sortedDesc(counts []Count) []Count {
	out := make([]Count, len(counts))
	copy(out, counts)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	return out
}

// Percent returns part/total as a percentage rounded to one decimal place, or 0 when total is 0.
func Percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return round1(float64(part) / float64(total) * 100)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
