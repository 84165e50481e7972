package analytics_test

import (
	"testing"
	"time"

	"github.com/Boakye-20/uk-ai-policy-tracker/backend/internal/analytics"
	"github.com/stretchr/testify/require"
)

var statsNow = time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

func TestStats(t *testing.T) {
	got := analytics.Stats(samplePolicies(), statsNow)

	require.Equal(t, analytics.DashboardStats{
		TotalPolicies:       5,
		AvgRelevanceScore:   7.0,
		HighPriorityCount:   3,
		RequiresActionCount: 1,
		RecentPoliciesCount: 3,
		RegulationCount:     2,
		RegulationPercent:   40,
		StrategicCount:      2,
	}, got)
}

func TestStatsEmpty(t *testing.T) {
	require.Equal(t, analytics.DashboardStats{}, analytics.Stats(nil, statsNow))
}

func TestDashboard(t *testing.T) {
	got := analytics.Dashboard(samplePolicies(), statsNow)

	require.Equal(t, 5, got.Stats.TotalPolicies)
	// periods 2023-01, 2023-09, 2024-01, 2024-03 hold 1, 1, 2, 1 records
	require.Equal(t, analytics.Trend{Direction: analytics.TrendUp, Percentage: 300, RecentCount: 4, PreviousCount: 1, Period: "3 months"}, got.Trend)
	require.Len(t, got.Departments, 4)
	require.Equal(t, 2, got.PolicyTypes[0].Count)
}
