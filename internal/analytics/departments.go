package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/Boakye-20/uk-ai-policy-tracker/backend/internal/models"
)

// Caps used by the rollup views.
const (
	SectorLimit           = 7
	RegulationSectorLimit = 6
	DepartmentTopLimit    = 5
	ActivityDepartments   = 5
	ActivityMonths        = 12
)

// DepartmentSummary is one row of the department overview.
type DepartmentSummary struct {
	Department        string  `json:"dept"`
	Total             int     `json:"total"`
	Regulations       int     `json:"regulations"`
	RegulationPercent float64 `json:"regulationPercent"`
	Percentage        float64 `json:"percentage"`
}

// DepartmentStats summarises every department, largest first; equal totals are
// ordered by name.
func DepartmentStats(records []models.Policy) []DepartmentSummary {
	byDept := make(map[string]*DepartmentSummary)
	for _, p := range records {
		dept := p.Department
		if dept == "" {
			dept = models.Unknown
		}
		s, ok := byDept[dept]
		if !ok {
			s = &DepartmentSummary{Department: dept}
			byDept[dept] = s
		}
		s.Total++
		if IsRegulation(p) {
			s.Regulations++
		}
	}

	out := make([]DepartmentSummary, 0, len(byDept))
	for _, s := range byDept {
		s.RegulationPercent = math.Round(float64(s.Regulations) / float64(s.Total) * 100)
		s.Percentage = Percent(s.Total, len(records))
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total == out[j].Total {
			return out[i].Department < out[j].Department
		}
		return out[i].Total > out[j].Total
	})
	return out
}

// DepartmentDetail is the deep dive for one department.
type DepartmentDetail struct {
	Department   string        `json:"dept"`
	Total        int           `json:"total"`
	Regulations  int           `json:"regulations"`
	Recent       int           `json:"recent"`
	PolicyTypes  []Count       `json:"policyTypes"`
	Timeline     []PeriodCount `json:"timeline"`
	Sectors      []Count       `json:"sectors"`
	Applications []Count       `json:"applications"`
	Topics       []TopicCount  `json:"topics"`
}

// Department builds the deep dive for dept. ok is false when no record belongs to it.
func Department(records []models.Policy, dept string) (detail DepartmentDetail, ok bool) {
	selected := Where(records, func(p models.Policy) bool { return p.Department == dept })
	if len(selected) == 0 {
		return DepartmentDetail{Department: dept}, false
	}

	topics := TopicFrequencies(selected)
	if len(topics) > 10 {
		topics = topics[:10]
	}

	return DepartmentDetail{
		Department:   dept,
		Total:        len(selected),
		Regulations:  len(Where(selected, IsRegulation)),
		Recent:       CountRecency(selected).Within3Months(),
		PolicyTypes:  Rollup(selected, ByPolicyType, 0),
		Timeline:     CountByPeriod(selected, TimelineShort),
		Sectors:      TopN(CountBy(selected, BySector), DepartmentTopLimit),
		Applications: TopN(CountBy(selected, ByAIApplication), DepartmentTopLimit),
		Topics:       topics,
	}, true
}

// ActivityPoint holds per-department counts for one month.
type ActivityPoint struct {
	Period string         `json:"period"`
	Label  string         `json:"label"`
	Counts map[string]int `json:"counts"`
}

// DepartmentActivity tracks the most active departments over recent months.
type DepartmentActivity struct {
	Departments []string        `json:"departments"`
	Points      []ActivityPoint `json:"points"`
}

// Activity counts the top departments' records for each of the last months
// calendar months ending at now. Every month is present, including empty ones.
func Activity(records []models.Policy, now time.Time, top, months int) DepartmentActivity {
	leaders := TopN(CountBy(records, ByDepartment), top)
	depts := make([]string, len(leaders))
	for i, c := range leaders {
		depts[i] = c.Key
	}

	periods := LastMonths(now, months)
	index := make(map[string]int, len(periods))
	points := make([]ActivityPoint, len(periods))
	for i, period := range periods {
		index[period] = i
		counts := make(map[string]int, len(depts))
		for _, d := range depts {
			counts[d] = 0
		}
		points[i] = ActivityPoint{Period: period, Label: PeriodLabel(period), Counts: counts}
	}

	for _, p := range records {
		i, ok := index[PeriodKey(p)]
		if !ok {
			continue
		}
		dept := p.Department
		if dept == "" {
			dept = models.Unknown
		}
		if _, tracked := points[i].Counts[dept]; tracked {
			points[i].Counts[dept]++
		}
	}

	return DepartmentActivity{Departments: depts, Points: points}
}
