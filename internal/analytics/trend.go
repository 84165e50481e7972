package analytics

import "math"

// Trend directions.
const (
	TrendUp     = "up"
	TrendDown   = "down"
	TrendStable = "stable"
)

const trendWindow = 3

// Trend compares the latest three periods with the three before them.
type Trend struct {
	Direction     string  `json:"direction"`
	Percentage    float64 `json:"percentage"`
	RecentCount   int     `json:"recentCount"`
	PreviousCount int     `json:"previousCount"`
	Period        string  `json:"period"`
}

// CalculateTrend derives the trend from chronologically ordered per-period
// counts. With fewer than two periods the trend is stable at 0%. When the
// previous window is empty, any recent activity counts as a 100% rise.
func CalculateTrend(counts []int) Trend {
	t := Trend{Direction: TrendStable, Period: "3 months"}
	n := len(counts)
	if n < 2 {
		return t
	}

	recentStart := max(n-trendWindow, 0)
	previousStart := max(n-2*trendWindow, 0)
	t.RecentCount = sum(counts[recentStart:])
	t.PreviousCount = sum(counts[previousStart:recentStart])

	if t.PreviousCount == 0 {
		if t.RecentCount > 0 {
			t.Direction = TrendUp
			t.Percentage = 100
		}
		return t
	}

	delta := t.RecentCount - t.PreviousCount
	t.Percentage = round1(math.Abs(float64(delta)) / float64(t.PreviousCount) * 100)
	switch {
	case delta > 0:
		t.Direction = TrendUp
	case delta < 0:
		t.Direction = TrendDown
	}
	return t
}

// TrendFromTimeline applies CalculateTrend to the bucket totals.
func TrendFromTimeline(buckets []TimelineBucket) Trend {
	return CalculateTrend(Totals(buckets))
}

func sum(values []int) int {
	total := 0
	for _, v := range values {
		total += v
	}
	return total
}
