package models

import (
	"encoding/json"
	"strings"
	"time"
)

// Policy types and priority categories referenced by the dashboard views.
const (
	PolicyTypeRegulation     = "Regulation & Compliance"
	PolicyTypeStrategy       = "Strategy & Frameworks"
	PolicyTypeResearch       = "Research & Analysis"
	PolicyTypeImplementation = "Implementation Guidance"

	PriorityCritical = "1-Critical"
	PriorityHigh     = "2-High"

	// Unknown labels records whose categorical field is empty.
	Unknown = "Unknown"
)

// DateLayout is the calendar date format used in the dataset and in JSON output.
const DateLayout = "2006-01-02"

// PeriodLayout is the layout of the year_month period key.
const PeriodLayout = "2006-01"

// Date is a calendar date that serialises as YYYY-MM-DD, or null when unset.
type Date struct {
	time.Time
}

// NewDate truncates t to a UTC calendar date.
func NewDate(t time.Time) Date {
	if t.IsZero() {
		return Date{}
	}
	y, m, d := t.Date()
	return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(DateLayout))
}

func (d *Date) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" || raw == `""` {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		t, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return err
		}
	}
	*d = NewDate(t)
	return nil
}

// Policy is one row of the policy dataset.
type Policy struct {
	ID string `json:"id"`

	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Summary     string `json:"ai_summary"`

	Department       string `json:"dept"`
	DepartmentGroup  string `json:"dept_group"`
	PolicyType       string `json:"policy_type"`
	SectorFocus      string `json:"sector_focus"`
	AIApplication    string `json:"ai_application"`
	PriorityCategory string `json:"priority_category"`
	Stage            string `json:"stage"`
	RequiresAction   string `json:"requires_action"`
	BusinessImpact   string `json:"business_impact"`
	Audience         string `json:"audience"`
	PrimaryTopic     string `json:"primary_topic"`
	Recency          string `json:"recency"`
	Format           string `json:"format"`
	DisplayType      string `json:"display_type"`

	PublishedDate  Date   `json:"published_date"`
	Year           int    `json:"year"`
	Month          int    `json:"month"`
	MonthName      string `json:"month_name"`
	Quarter        int    `json:"quarter"`
	QuarterLabel   string `json:"quarter_label"`
	YearMonth      string `json:"year_month"`
	CollectionDate string `json:"collection_date"`

	RelevanceScore     float64 `json:"relevance_score"`
	DaysSincePublished int     `json:"days_since_published"`
	TopicsCount        int     `json:"topics_count"`
	SummaryWordCount   int     `json:"summary_word_count"`

	KeyTopics string `json:"key_topics"`
}

// PolicyEvent is the message published to Kafka for the search indexer.
type PolicyEvent struct {
	BatchID     string    `json:"batch_id"`
	PublishedAt time.Time `json:"published_at"`
	Policy      Policy    `json:"policy"`
}
