package processing_test

import (
	"testing"
	"time"

	"github.com/Boakye-20/uk-ai-policy-tracker/backend/internal/models"
	"github.com/Boakye-20/uk-ai-policy-tracker/backend/internal/processing"
	"github.com/stretchr/testify/require"
)

func TestSplitTopics(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "empty", input: "", want: nil},
		{name: "blank", input: "   ", want: nil},
		{name: "single", input: "AI Safety", want: []string{"ai safety"}},
		{name: "trim and lower", input: " AI Safety ,Bias,  Data  Protection", want: []string{"ai safety", "bias", "data protection"}},
		{name: "duplicates kept", input: "AI Safety, Bias, AI Safety", want: []string{"ai safety", "bias", "ai safety"}},
		{name: "empty tokens dropped", input: "bias,, ,ethics,", want: []string{"bias", "ethics"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, processing.SplitTopics(tt.input))
		})
	}
}

func TestHasTopic(t *testing.T) {
	raw := "Machine Learning, Healthcare AI, Ethics"
	require.True(t, processing.HasTopic(raw, "healthcare ai"))
	require.True(t, processing.HasTopic(raw, " ETHICS "))
	// exact token match, not substring
	require.False(t, processing.HasTopic(raw, "learning"))
	require.False(t, processing.HasTopic(raw, ""))
	require.False(t, processing.HasTopic("", "ethics"))
}

func TestContainsFold(t *testing.T) {
	require.True(t, processing.ContainsFold("Online Safety Act", "safety"))
	require.True(t, processing.ContainsFold("anything", ""))
	require.False(t, processing.ContainsFold("Online Safety Act", "privacy"))
}

func TestBuildDocumentID(t *testing.T) {
	ts := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)
	id1 := processing.BuildDocumentID("https://gov.uk/a", "title", ts)
	id2 := processing.BuildDocumentID(" https://gov.uk/a ", "title", ts.Add(time.Hour))
	require.NotEmpty(t, id1)
	require.Equal(t, id1, id2)

	other := processing.BuildDocumentID("https://gov.uk/b", "title", ts)
	require.NotEqual(t, id1, other)
}

func TestFingerprint(t *testing.T) {
	require.Equal(t, processing.Fingerprint("a", "b"), processing.Fingerprint("a", "b"))
	require.NotEqual(t, processing.Fingerprint("ab", ""), processing.Fingerprint("a", "b"))
}

func TestPolicyFingerprint(t *testing.T) {
	base := models.Policy{ID: "a", Title: "AI Regulation", RelevanceScore: 8}
	same := base
	same.ID = "b"
	changed := base
	changed.RelevanceScore = 9

	require.Equal(t, processing.PolicyFingerprint(base), processing.PolicyFingerprint(same))
	require.NotEqual(t, processing.PolicyFingerprint(base), processing.PolicyFingerprint(changed))
}

func TestNormalizePeriodKey(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "2023-01", want: "2023-01"},
		{input: "2023-1", want: "2023-01"},
		{input: " 2024-11 ", want: "2024-11"},
		{input: "", want: ""},
		{input: "2023-13", want: ""},
		{input: "2023-01-15", want: ""},
		{input: "Jan 2023", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			require.Equal(t, tt.want, processing.NormalizePeriodKey(tt.input))
		})
	}
}
