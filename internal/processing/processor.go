package processing

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/Boakye-20/uk-ai-policy-tracker/backend/internal/models"
)

var whitespace = regexp.MustCompile(`\s+`)

// SplitTopics breaks a comma-separated key_topics value into trimmed lower-case tokens.
// Empty tokens are dropped; duplicates are kept.
func SplitTopics(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		token := NormalizeTopic(part)
		if token != "" {
			out = append(out, token)
		}
	}
	return out
}

// NormalizeTopic lower-cases a topic token and collapses inner whitespace.
func NormalizeTopic(raw string) string {
	return strings.ToLower(whitespace.ReplaceAllString(strings.TrimSpace(raw), " "))
}

// HasTopic reports whether topic is one of the tokens of raw.
func HasTopic(raw, topic string) bool {
	topic = NormalizeTopic(topic)
	if topic == "" {
		return false
	}
	for _, token := range SplitTopics(raw) {
		if token == topic {
			return true
		}
	}
	return false
}

// NormalizeSearchTerm prepares a free-text search term for case-insensitive matching.
func NormalizeSearchTerm(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// ContainsFold reports whether the lower-cased text contains the already normalised term.
func ContainsFold(text, term string) bool {
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(text), term)
}

// NormalizePeriodKey returns the canonical YYYY-MM form of a period key, or ""
// when the value is not a valid year-month.
func NormalizePeriodKey(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	ts, err := time.Parse("2006-1", raw)
	if err != nil {
		return ""
	}
	return ts.Format("2006-01")
}

// BuildDocumentID hashes the most stable fields of a policy to form deterministic IDs.
func BuildDocumentID(url, title string, published time.Time) string {
	date := ""
	if !published.IsZero() {
		date = published.UTC().Format("2006-01-02")
	}
	s := sha1.Sum([]byte(strings.TrimSpace(url) + "|" + strings.TrimSpace(title) + "|" + date))
	return hex.EncodeToString(s[:])
}

// Fingerprint hashes the full content of a record so changed rows can be detected.
func Fingerprint(fields ...string) string {
	s := sha1.Sum([]byte(strings.Join(fields, "\x1f")))
	return hex.EncodeToString(s[:])
}

// PolicyFingerprint hashes every field of p except its id.
func PolicyFingerprint(p models.Policy) string {
	p.ID = ""
	data, err := json.Marshal(p)
	if err != nil {
		return ""
	}
	return Fingerprint(string(data))
}
