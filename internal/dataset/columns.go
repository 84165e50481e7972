package dataset

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Boakye-20/uk-ai-policy-tracker/backend/internal/models"
)

type column struct {
	name     string
	aliases  []string
	required bool
	set      func(p *models.Policy, raw string) error
	get      func(p models.Policy) string
}

func textColumn(name string, field func(p *models.Policy) *string, aliases ...string) column {
	return column{
		name:    name,
		aliases: aliases,
		set: func(p *models.Policy, raw string) error {
			*field(p) = raw
			return nil
		},
		get: func(p models.Policy) string { return *field(&p) },
	}
}

// intColumn coerces text to an integer; empty cells become 0.
// Values such as "2023.0" written by spreadsheet exports are accepted.
func intColumn(name string, field func(p *models.Policy) *int) column {
	return column{
		name: name,
		set: func(p *models.Policy, raw string) error {
			if raw == "" {
				*field(p) = 0
				return nil
			}
			if v, err := strconv.Atoi(raw); err == nil {
				*field(p) = v
				return nil
			}
			f, err := strconv.ParseFloat(raw, 64)
			if err != nil || f != float64(int(f)) {
				return fmt.Errorf("invalid integer %q", raw)
			}
			*field(p) = int(f)
			return nil
		},
		get: func(p models.Policy) string { return strconv.Itoa(*field(&p)) },
	}
}

func floatColumn(name string, field func(p *models.Policy) *float64) column {
	return column{
		name: name,
		set: func(p *models.Policy, raw string) error {
			if raw == "" {
				*field(p) = 0
				return nil
			}
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return fmt.Errorf("invalid number %q", raw)
			}
			*field(p) = v
			return nil
		},
		get: func(p models.Policy) string { return strconv.FormatFloat(*field(&p), 'f', -1, 64) },
	}
}

var dateFormats = []string{
	models.DateLayout,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"02/01/2006",
	"2 January 2006",
}

func parseDate(raw string) (time.Time, error) {
	for _, f := range dateFormats {
		if ts, err := time.Parse(f, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", raw)
}

// columns lists every known column in export order. Required columns fail the
// load when absent from the header; optional columns default to zero values.
var columns = []column{
	{
		name:     "dept",
		aliases:  []string{"department"},
		required: true,
		set: func(p *models.Policy, raw string) error {
			p.Department = raw
			return nil
		},
		get: func(p models.Policy) string { return p.Department },
	},
	textColumn("dept_group", func(p *models.Policy) *string { return &p.DepartmentGroup }),
	{
		name:     "title",
		required: true,
		set: func(p *models.Policy, raw string) error {
			p.Title = raw
			return nil
		},
		get: func(p models.Policy) string { return p.Title },
	},
	{
		name:     "published_date",
		required: true,
		set: func(p *models.Policy, raw string) error {
			if raw == "" {
				p.PublishedDate = models.Date{}
				return nil
			}
			ts, err := parseDate(raw)
			if err != nil {
				return err
			}
			p.PublishedDate = models.NewDate(ts)
			return nil
		},
		get: func(p models.Policy) string { return p.PublishedDate.String() },
	},
	intColumn("year", func(p *models.Policy) *int { return &p.Year }),
	intColumn("month", func(p *models.Policy) *int { return &p.Month }),
	textColumn("month_name", func(p *models.Policy) *string { return &p.MonthName }),
	intColumn("quarter", func(p *models.Policy) *int { return &p.Quarter }),
	textColumn("quarter_label", func(p *models.Policy) *string { return &p.QuarterLabel }),
	textColumn("year_month", func(p *models.Policy) *string { return &p.YearMonth }),
	floatColumn("relevance_score", func(p *models.Policy) *float64 { return &p.RelevanceScore }),
	textColumn("priority_category", func(p *models.Policy) *string { return &p.PriorityCategory }, "priority"),
	textColumn("requires_action", func(p *models.Policy) *string { return &p.RequiresAction }),
	textColumn("policy_type", func(p *models.Policy) *string { return &p.PolicyType }),
	textColumn("business_impact", func(p *models.Policy) *string { return &p.BusinessImpact }),
	textColumn("sector_focus", func(p *models.Policy) *string { return &p.SectorFocus }, "sector"),
	textColumn("ai_application", func(p *models.Policy) *string { return &p.AIApplication }),
	textColumn("stage", func(p *models.Policy) *string { return &p.Stage }),
	textColumn("audience", func(p *models.Policy) *string { return &p.Audience }),
	textColumn("ai_summary", func(p *models.Policy) *string { return &p.Summary }, "summary"),
	textColumn("primary_topic", func(p *models.Policy) *string { return &p.PrimaryTopic }),
	textColumn("key_topics", func(p *models.Policy) *string { return &p.KeyTopics }),
	textColumn("recency", func(p *models.Policy) *string { return &p.Recency }),
	intColumn("days_since_published", func(p *models.Policy) *int { return &p.DaysSincePublished }),
	intColumn("summary_word_count", func(p *models.Policy) *int { return &p.SummaryWordCount }),
	intColumn("topics_count", func(p *models.Policy) *int { return &p.TopicsCount }),
	textColumn("description", func(p *models.Policy) *string { return &p.Description }),
	textColumn("url", func(p *models.Policy) *string { return &p.URL }),
	textColumn("format", func(p *models.Policy) *string { return &p.Format }),
	textColumn("display_type", func(p *models.Policy) *string { return &p.DisplayType }),
	textColumn("collection_date", func(p *models.Policy) *string { return &p.CollectionDate }),
}

func normalizeHeader(raw string) string {
	raw = strings.TrimPrefix(raw, "\ufeff")
	return strings.ToLower(strings.TrimSpace(raw))
}

// bindHeader maps each known column to its index in the header row, or -1.
func bindHeader(header []string) ([]int, error) {
	positions := make(map[string]int, len(header))
	for i, h := range header {
		name := normalizeHeader(h)
		if _, dup := positions[name]; !dup {
			positions[name] = i
		}
	}

	idx := make([]int, len(columns))
	var missing []string
	for i, col := range columns {
		idx[i] = -1
		for _, name := range append([]string{col.name}, col.aliases...) {
			if pos, ok := positions[name]; ok {
				idx[i] = pos
				break
			}
		}
		if idx[i] < 0 && col.required {
			missing = append(missing, col.name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required column(s): %s", strings.Join(missing, ", "))
	}
	return idx, nil
}

// ColumnIndex returns the position of a column (or one of its aliases) in header, or -1.
func ColumnIndex(header []string, name string) int {
	for _, col := range columns {
		if col.name != name {
			continue
		}
		for _, candidate := range append([]string{col.name}, col.aliases...) {
			for i, h := range header {
				if normalizeHeader(h) == candidate {
					return i
				}
			}
		}
	}
	return -1
}
