package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Boakye-20/uk-ai-policy-tracker/backend/internal/dataset"
	"github.com/Boakye-20/uk-ai-policy-tracker/backend/internal/models"
)

var testNow = time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)

func fixtures() []models.Policy {
	return []models.Policy{
		{
			Title:            "AI Regulation White Paper",
			URL:              "https://www.gov.uk/ai-regulation",
			Department:       "DSIT",
			PolicyType:       models.PolicyTypeRegulation,
			PriorityCategory: models.PriorityCritical,
			RequiresAction:   "Yes",
			RelevanceScore:   9,
			PublishedDate:    models.NewDate(time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)),
			Summary:          "Sets out a pro-innovation approach to AI regulation.",
			KeyTopics:        "AI Regulation, Innovation",
		},
		{
			Title:            "National AI Strategy",
			URL:              "https://www.gov.uk/ai-strategy",
			Department:       "DSIT",
			PolicyType:       models.PolicyTypeStrategy,
			PriorityCategory: models.PriorityHigh,
			RelevanceScore:   7,
			PublishedDate:    models.NewDate(time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC)),
			Summary:          "Ten year plan for AI.",
			KeyTopics:        "Strategy",
		},
		{
			Title:          "Border Statistics",
			URL:            "https://www.gov.uk/border-stats",
			Department:     "Home Office",
			PolicyType:     models.PolicyTypeResearch,
			RelevanceScore: 5,
			PublishedDate:  models.NewDate(time.Date(2023, 1, 5, 0, 0, 0, 0, time.UTC)),
			Summary:        "Quarterly figures. This release is not about AI.",
		},
	}
}

// writeDataset writes the fixtures to a temp CSV and points the environment at it.
func writeDataset(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policies.csv")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, dataset.WriteCSV(f, fixtures()))
	require.NoError(t, f.Close())

	t.Setenv("DATA_SOURCE", "local")
	t.Setenv("DATA_FILE", path)
	t.Setenv("DATA_EXCLUDE_NON_AI", "false")
	t.Setenv("EXCLUSION_RULES_FILE", "")
	t.Setenv("KAFKA_TOPIC", "policies_test")
	t.Setenv("LOG_LEVEL", "info")
	return path
}

func testApp() *app {
	a := newApp()
	a.now = func() time.Time { return testNow }
	return a
}

func execute(a *app, args ...string) (stdout, stderr string, err error) {
	cmd := a.rootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestStatsText(t *testing.T) {
	path := writeDataset(t)

	out, _, err := execute(testApp(), "stats", "--data", path)
	require.NoError(t, err)

	assert.Contains(t, out, "Policies:")
	assert.Regexp(t, `Average relevance:\s+7\.0`, out)
	assert.Regexp(t, `Last six months:\s+2\n`, out)
	assert.Contains(t, out, "DSIT")
	assert.Contains(t, out, "Home Office")
}

func TestStatsJSONWithFilter(t *testing.T) {
	path := writeDataset(t)

	out, _, err := execute(testApp(), "stats", "--data", path, "--json", "--dept", "DSIT")
	require.NoError(t, err)

	var report statsReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 2, report.Stats.TotalPolicies)
	assert.Equal(t, 8.0, report.Stats.AvgRelevanceScore)
	assert.Equal(t, 1, report.Stats.RegulationCount)
	require.Len(t, report.Departments, 1)
	assert.Equal(t, "DSIT", report.Departments[0].Department)
}

func TestStatsAppliesExclusionRules(t *testing.T) {
	path := writeDataset(t)
	rules := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(rules, []byte("phrases:\n  - not about ai\n"), 0o644))

	out, _, err := execute(testApp(), "stats", "--data", path, "--rules", rules, "--json")
	require.NoError(t, err)

	var report statsReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 2, report.Stats.TotalPolicies)
}

func TestStatsMissingDataFile(t *testing.T) {
	writeDataset(t)

	_, _, err := execute(testApp(), "stats", "--data", filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
	assert.ErrorIs(t, err, dataset.ErrDataSourceMissing)
}

func TestExportToStdout(t *testing.T) {
	path := writeDataset(t)

	out, _, err := execute(testApp(), "export", "--data", path, "--dept", "Home Office")
	require.NoError(t, err)

	records, report, err := dataset.Parse(bytes.NewBufferString(out), nil)
	require.NoError(t, err)
	assert.Empty(t, report.Skipped)
	require.Len(t, records, 1)
	assert.Equal(t, "Border Statistics", records[0].Title)
}

func TestExportToFile(t *testing.T) {
	path := writeDataset(t)
	target := filepath.Join(t.TempDir(), "out.csv")

	out, _, err := execute(testApp(), "export", "--data", path, "--min-score", "7", "--out", target)
	require.NoError(t, err)
	assert.Empty(t, out)

	f, err := os.Open(target)
	require.NoError(t, err)
	defer f.Close()

	records, _, err := dataset.Parse(f, nil)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestPruneWarnsBelowTarget(t *testing.T) {
	path := writeDataset(t)
	target := filepath.Join(t.TempDir(), "filtered.csv")

	out, logs, err := execute(testApp(), "prune", "--in", path, "--out", target, "--target", "5")
	require.NoError(t, err)

	assert.Contains(t, out, "read 3, excluded 1, wrote 2")
	assert.Contains(t, logs, "fewer AI-relevant records than target")

	f, err := os.Open(target)
	require.NoError(t, err)
	defer f.Close()
	records, _, err := dataset.Parse(f, nil)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "AI Regulation White Paper", records[0].Title)
}

func TestPruneCapsAtTarget(t *testing.T) {
	path := writeDataset(t)
	target := filepath.Join(t.TempDir(), "filtered.csv")

	out, logs, err := execute(testApp(), "prune", "--in", path, "--out", target, "--target", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote 1")
	assert.NotContains(t, logs, "fewer AI-relevant records")
}

func TestPruneRejectsSameFile(t *testing.T) {
	path := writeDataset(t)

	_, _, err := execute(testApp(), "prune", "--in", path, "--out", path)
	require.Error(t, err)

	_, _, err = execute(testApp(), "prune", "--in", path)
	require.Error(t, err)
}

type stubWriter struct {
	calls  int
	msgs   []kafka.Message
	err    error
	closed bool
}

func (s *stubWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	s.calls++
	if s.err != nil {
		return s.err
	}
	s.msgs = append(s.msgs, msgs...)
	return nil
}

func (s *stubWriter) Close() error {
	s.closed = true
	return nil
}

func TestPublishSendsKeyedEvents(t *testing.T) {
	path := writeDataset(t)
	writer := &stubWriter{}
	a := testApp()
	var topic string
	a.newWriter = func(_ []string, tp string) eventWriter {
		topic = tp
		return writer
	}

	out, _, err := execute(a, "publish", "--data", path, "--chunk", "2")
	require.NoError(t, err)

	assert.Equal(t, "policies_test", topic)
	assert.Equal(t, 2, writer.calls)
	assert.True(t, writer.closed)
	require.Len(t, writer.msgs, 3)
	assert.Contains(t, out, "published 3 policies to policies_test")

	var batch string
	for _, msg := range writer.msgs {
		var ev models.PolicyEvent
		require.NoError(t, json.Unmarshal(msg.Value, &ev))
		assert.NotEmpty(t, ev.BatchID)
		if batch == "" {
			batch = ev.BatchID
		}
		assert.Equal(t, batch, ev.BatchID)
		assert.True(t, testNow.Equal(ev.PublishedAt))
		assert.Equal(t, ev.Policy.ID, string(msg.Key))
		assert.NotEmpty(t, msg.Key)
	}
}

func TestPublishDryRun(t *testing.T) {
	path := writeDataset(t)
	a := testApp()
	a.newWriter = func([]string, string) eventWriter {
		t.Fatal("writer must not be created on a dry run")
		return nil
	}

	out, _, err := execute(a, "publish", "--data", path, "--dry-run", "--dept", "DSIT")
	require.NoError(t, err)
	assert.Contains(t, out, "would publish 2 policies")
}

func TestPublishWriteFailure(t *testing.T) {
	path := writeDataset(t)
	a := testApp()
	a.newWriter = func([]string, string) eventWriter {
		return &stubWriter{err: errors.New("leader not available")}
	}

	_, _, err := execute(a, "publish", "--data", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "leader not available")
}

func TestBuildEventsDerivesMissingIDs(t *testing.T) {
	msgs, err := buildEvents(fixtures(), "batch-1", testNow)
	require.NoError(t, err)
	require.Len(t, msgs, 3)

	seen := map[string]bool{}
	for _, msg := range msgs {
		require.NotEmpty(t, msg.Key)
		seen[string(msg.Key)] = true
		require.Equal(t, "batch_id", msg.Headers[0].Key)
	}
	assert.Len(t, seen, 3)
}
