package analytics

import (
	"strings"
	"time"

	"github.com/Boakye-20/uk-ai-policy-tracker/backend/internal/models"
)

// DashboardStats are the headline numbers of the overview page.
type DashboardStats struct {
	TotalPolicies       int     `json:"totalPolicies"`
	AvgRelevanceScore   float64 `json:"avgRelevanceScore"`
	HighPriorityCount   int     `json:"highPriorityCount"`
	RequiresActionCount int     `json:"requiresActionCount"`
	RecentPoliciesCount int     `json:"recentPoliciesCount"`
	RegulationCount     int     `json:"regulationCount"`
	RegulationPercent   float64 `json:"regulationPercent"`
	StrategicCount      int     `json:"strategicCount"`
}

// Overview is the payload of the dashboard page.
type Overview struct {
	Stats       DashboardStats      `json:"stats"`
	Trend       Trend               `json:"trend"`
	Departments []DepartmentSummary `json:"departments"`
	PolicyTypes []Count             `json:"policyTypes"`
}

// Stats computes the headline numbers. "Recent" means published within the six
// calendar months before now.
func Stats(records []models.Policy, now time.Time) DashboardStats {
	s := DashboardStats{TotalPolicies: len(records)}
	cutoff := models.NewDate(now.AddDate(0, -6, 0))

	scoreSum := 0.0
	for _, p := range records {
		scoreSum += p.RelevanceScore
		if IsHighPriority(p) {
			s.HighPriorityCount++
		}
		if strings.EqualFold(strings.TrimSpace(p.RequiresAction), "yes") {
			s.RequiresActionCount++
		}
		if !p.PublishedDate.IsZero() && !p.PublishedDate.Before(cutoff.Time) {
			s.RecentPoliciesCount++
		}
		if IsRegulation(p) {
			s.RegulationCount++
		}
		if p.PolicyType == models.PolicyTypeStrategy || p.PolicyType == models.PolicyTypeImplementation {
			s.StrategicCount++
		}
	}

	if len(records) > 0 {
		s.AvgRelevanceScore = round1(scoreSum / float64(len(records)))
	}
	s.RegulationPercent = Percent(s.RegulationCount, len(records))
	return s
}

// Dashboard assembles the overview page.
func Dashboard(records []models.Policy, now time.Time) Overview {
	return Overview{
		Stats:       Stats(records, now),
		Trend:       TrendFromTimeline(Timeline(records, TimelineAnalytics)),
		Departments: DepartmentStats(records),
		PolicyTypes: Rollup(records, ByPolicyType, 0),
	}
}
