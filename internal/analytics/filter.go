package analytics

import (
	"sort"
	"time"

	"github.com/Boakye-20/uk-ai-policy-tracker/backend/internal/models"
	"github.com/Boakye-20/uk-ai-policy-tracker/backend/internal/processing"
)

// Filter holds optional constraints. Zero-valued fields impose no restriction.
type Filter struct {
	Department    string
	Priority      string
	PolicyType    string
	Sector        string
	AIApplication string
	Stage         string
	Recency       string
	// Search is matched case-insensitively against title, description, summary and key topics.
	Search   string
	MinScore float64
	From     time.Time
	To       time.Time
}

// IsZero reports whether the filter has no constraints.
func (f Filter) IsZero() bool {
	return f.Department == "" && f.Priority == "" && f.PolicyType == "" && f.Sector == "" &&
		f.AIApplication == "" && f.Stage == "" && f.Recency == "" && f.Search == "" &&
		f.MinScore <= 0 && f.From.IsZero() && f.To.IsZero()
}

// Matches reports whether p satisfies every constraint.
func (f Filter) Matches(p models.Policy) bool {
	return f.matches(p, processing.NormalizeSearchTerm(f.Search))
}

func (f Filter) matches(p models.Policy, term string) bool {
	if f.Department != "" && p.Department != f.Department {
		return false
	}
	if f.Priority != "" && p.PriorityCategory != f.Priority {
		return false
	}
	if f.PolicyType != "" && p.PolicyType != f.PolicyType {
		return false
	}
	if f.Sector != "" && p.SectorFocus != f.Sector {
		return false
	}
	if f.AIApplication != "" && p.AIApplication != f.AIApplication {
		return false
	}
	if f.Stage != "" && p.Stage != f.Stage {
		return false
	}
	if f.Recency != "" && ClassifyRecency(p.DaysSincePublished) != f.Recency {
		return false
	}
	if f.MinScore > 0 && p.RelevanceScore < f.MinScore {
		return false
	}
	if !f.From.IsZero() && (p.PublishedDate.IsZero() || p.PublishedDate.Before(models.NewDate(f.From).Time)) {
		return false
	}
	if !f.To.IsZero() && (p.PublishedDate.IsZero() || p.PublishedDate.After(models.NewDate(f.To).Time)) {
		return false
	}
	if term != "" && !matchesSearch(p, term) {
		return false
	}
	return true
}

func matchesSearch(p models.Policy, term string) bool {
	return processing.ContainsFold(p.Title, term) ||
		processing.ContainsFold(p.Description, term) ||
		processing.ContainsFold(p.Summary, term) ||
		processing.ContainsFold(p.KeyTopics, term)
}

// Apply returns the records matching f in their original order. The result is
// never nil, so an unmatched filter serialises as an empty array.
func Apply(records []models.Policy, f Filter) []models.Policy {
	term := processing.NormalizeSearchTerm(f.Search)
	out := make([]models.Policy, 0, len(records))
	for _, p := range records {
		if f.matches(p, term) {
			out = append(out, p)
		}
	}
	return out
}

// FilterOptions lists the distinct values offered by the explorer drop-downs.
type FilterOptions struct {
	Departments        []string `json:"departments"`
	PolicyTypes        []string `json:"policyTypes"`
	PriorityCategories []string `json:"priorityCategories"`
	Sectors            []string `json:"sectors"`
	AIApplications     []string `json:"aiApplications"`
	Stages             []string `json:"stages"`
}

// Options collects sorted distinct non-empty values for each filterable field.
func Options(records []models.Policy) FilterOptions {
	return FilterOptions{
		Departments:        distinct(records, func(p models.Policy) string { return p.Department }),
		PolicyTypes:        distinct(records, func(p models.Policy) string { return p.PolicyType }),
		PriorityCategories: distinct(records, func(p models.Policy) string { return p.PriorityCategory }),
		Sectors:            distinct(records, func(p models.Policy) string { return p.SectorFocus }),
		AIApplications:     distinct(records, func(p models.Policy) string { return p.AIApplication }),
		Stages:             distinct(records, func(p models.Policy) string { return p.Stage }),
	}
}

func distinct(records []models.Policy, key func(models.Policy) string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, p := range records {
		v := key(p)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
