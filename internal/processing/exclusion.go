package processing

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Boakye-20/uk-ai-policy-tracker/backend/internal/models"
)

// DefaultExclusionPhrases mark summaries that state a policy is not about AI.
var DefaultExclusionPhrases = []string{
	"does not address artificial intelligence",
	"does not involve artificial intelligence",
	"not about ai",
	"no ai content",
}

// ExclusionPolicy decides whether a record should be dropped as not AI-relevant.
type ExclusionPolicy interface {
	Excluded(p models.Policy) bool
}

// PhrasePolicy excludes records whose summary contains any of its phrases.
type PhrasePolicy struct {
	Phrases []string
}

// NewPhrasePolicy lower-cases and trims the phrases, ignoring blanks.
func NewPhrasePolicy(phrases []string) PhrasePolicy {
	out := make([]string, 0, len(phrases))
	for _, phrase := range phrases {
		phrase = strings.ToLower(strings.TrimSpace(phrase))
		if phrase != "" {
			out = append(out, phrase)
		}
	}
	return PhrasePolicy{Phrases: out}
}

// DefaultExclusionPolicy returns the phrase policy built from DefaultExclusionPhrases.
func DefaultExclusionPolicy() PhrasePolicy {
	return NewPhrasePolicy(DefaultExclusionPhrases)
}

func (p PhrasePolicy) Excluded(policy models.Policy) bool {
	return p.ExcludesSummary(policy.Summary)
}

// ExcludesSummary applies the phrase list to a raw summary string.
func (p PhrasePolicy) ExcludesSummary(summary string) bool {
	summary = strings.ToLower(summary)
	for _, phrase := range p.Phrases {
		if strings.Contains(summary, phrase) {
			return true
		}
	}
	return false
}

// ExclusionRules is the YAML document accepted by LoadExclusionRules.
type ExclusionRules struct {
	// Phrases replace the defaults unless Extend is set.
	Phrases []string `yaml:"phrases"`
	Extend  bool     `yaml:"extend"`
}

// LoadExclusionRules reads a YAML rules file. An empty path yields the default policy.
func LoadExclusionRules(path string) (PhrasePolicy, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultExclusionPolicy(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return PhrasePolicy{}, fmt.Errorf("read exclusion rules: %w", err)
	}

	var rules ExclusionRules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return PhrasePolicy{}, fmt.Errorf("parse exclusion rules: %w", err)
	}

	phrases := rules.Phrases
	if rules.Extend {
		phrases = append(append([]string{}, DefaultExclusionPhrases...), rules.Phrases...)
	}
	if len(phrases) == 0 {
		return PhrasePolicy{}, fmt.Errorf("exclusion rules %s: no phrases", path)
	}
	return NewPhrasePolicy(phrases), nil
}

// ExcludeAll returns the records the policy keeps, preserving order.
func ExcludeAll(records []models.Policy, policy ExclusionPolicy) []models.Policy {
	if policy == nil {
		return records
	}
	out := make([]models.Policy, 0, len(records))
	for _, r := range records {
		if !policy.Excluded(r) {
			out = append(out, r)
		}
	}
	return out
}
