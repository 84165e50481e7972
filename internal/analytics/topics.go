package analytics

import (
	"slices"
	"sort"
	"strings"

	"github.com/Boakye-20/uk-ai-policy-tracker/backend/internal/models"
	"github.com/Boakye-20/uk-ai-policy-tracker/backend/internal/processing"
)

// Caps used by the topic views.
const (
	CoOccurrenceLimit  = 10
	TopicSearchLimit   = 50
	TopicPoliciesLimit = 10
)

// TopicCount is the number of occurrences of one topic token.
type TopicCount struct {
	Topic string `json:"topic"`
	Count int    `json:"count"`
}

// DepartmentTopic is a department's most frequent topic.
type DepartmentTopic struct {
	Department  string `json:"dept"`
	TopTopic    string `json:"topTopic"`
	Count       int    `json:"count"`
	TotalTopics int    `json:"totalTopics"`
}

// TopicDetail bundles the views for one selected topic.
type TopicDetail struct {
	Topic        string          `json:"topic"`
	Count        int             `json:"count"`
	CoOccurrence []TopicCount    `json:"cooccurrence"`
	Trend        []PeriodCount   `json:"trend"`
	Policies     []models.Policy `json:"policies"`
}

type topicCounter struct {
	index map[string]int
	items []TopicCount
}

func newTopicCounter() *topicCounter {
	return &topicCounter{index: make(map[string]int), items: make([]TopicCount, 0)}
}

func (c *topicCounter) add(topic string) {
	if i, ok := c.index[topic]; ok {
		c.items[i].Count++
		return
	}
	c.index[topic] = len(c.items)
	c.items = append(c.items, TopicCount{Topic: topic, Count: 1})
}

// sorted orders by count descending; ties keep first-encountered order.
func (c *topicCounter) sorted() []TopicCount {
	out := make([]TopicCount, len(c.items))
	copy(out, c.items)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// TopicFrequencies counts every topic token across records. A token repeated
// within one record counts once per repetition.
func TopicFrequencies(records []models.Policy) []TopicCount {
	counter := newTopicCounter()
	for _, p := range records {
		for _, topic := range processing.SplitTopics(p.KeyTopics) {
			counter.add(topic)
		}
	}
	return counter.sorted()
}

// SearchTopics keeps the frequencies whose topic contains term, capped to limit.
func SearchTopics(freqs []TopicCount, term string, limit int) []TopicCount {
	term = processing.NormalizeSearchTerm(term)
	out := make([]TopicCount, 0)
	for _, f := range freqs {
		if term == "" || strings.Contains(f.Topic, term) {
			out = append(out, f)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// CoOccurrence counts the other topics that appear alongside topic, among the
// records whose topic list contains it, capped to limit.
func CoOccurrence(records []models.Policy, topic string, limit int) []TopicCount {
	topic = processing.NormalizeTopic(topic)
	counter := newTopicCounter()
	for _, p := range records {
		tokens := processing.SplitTopics(p.KeyTopics)
		if !slices.Contains(tokens, topic) {
			continue
		}
		for _, token := range tokens {
			if token != topic {
				counter.add(token)
			}
		}
	}
	out := counter.sorted()
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// WithTopic returns the records whose topic list contains topic.
func WithTopic(records []models.Policy, topic string) []models.Policy {
	out := make([]models.Policy, 0)
	for _, p := range records {
		if processing.HasTopic(p.KeyTopics, topic) {
			out = append(out, p)
		}
	}
	return out
}

// TopicTrend counts the records mentioning topic per period, most recent limit periods.
func TopicTrend(records []models.Policy, topic string, limit int) []PeriodCount {
	return CountByPeriod(WithTopic(records, topic), limit)
}

// TopicPolicies returns the most relevant records mentioning topic.
func TopicPolicies(records []models.Policy, topic string, limit int) []models.Policy {
	return ByRelevance(WithTopic(records, topic), limit)
}

// Topic assembles the detail view for topic.
func Topic(records []models.Policy, topic string) TopicDetail {
	topic = processing.NormalizeTopic(topic)
	count := 0
	for _, p := range records {
		for _, token := range processing.SplitTopics(p.KeyTopics) {
			if token == topic {
				count++
			}
		}
	}
	return TopicDetail{
		Topic:        topic,
		Count:        count,
		CoOccurrence: CoOccurrence(records, topic, CoOccurrenceLimit),
		Trend:        TopicTrend(records, topic, TimelineShort),
		Policies:     TopicPolicies(records, topic, TopicPoliciesLimit),
	}
}

// TopicsByDepartment finds the most frequent topic of each department, in
// first-encountered department order. Departments without topics report an
// empty top topic.
func TopicsByDepartment(records []models.Policy) []DepartmentTopic {
	order := make([]string, 0)
	counters := make(map[string]*topicCounter)
	for _, p := range records {
		dept := p.Department
		if dept == "" {
			dept = models.Unknown
		}
		counter, ok := counters[dept]
		if !ok {
			counter = newTopicCounter()
			counters[dept] = counter
			order = append(order, dept)
		}
		for _, topic := range processing.SplitTopics(p.KeyTopics) {
			counter.add(topic)
		}
	}

	out := make([]DepartmentTopic, 0, len(order))
	for _, dept := range order {
		counter := counters[dept]
		entry := DepartmentTopic{Department: dept, TotalTopics: len(counter.items)}
		if sorted := counter.sorted(); len(sorted) > 0 {
			entry.TopTopic = sorted[0].Topic
			entry.Count = sorted[0].Count
		}
		out = append(out, entry)
	}
	return out
}

// ByRelevance sorts a copy of records by relevance score descending and keeps limit.
func ByRelevance(records []models.Policy, limit int) []models.Policy {
	out := make([]models.Policy, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool { return out[i].RelevanceScore > out[j].RelevanceScore })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
