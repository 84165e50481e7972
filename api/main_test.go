package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Boakye-20/uk-ai-policy-tracker/backend/internal/analytics"
	"github.com/Boakye-20/uk-ai-policy-tracker/backend/internal/config"
	"github.com/Boakye-20/uk-ai-policy-tracker/backend/internal/dataset"
	"github.com/Boakye-20/uk-ai-policy-tracker/backend/internal/elasticsearch"
	"github.com/Boakye-20/uk-ai-policy-tracker/backend/internal/models"
)

var fixedNow = time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)

func day(y int, m time.Month, d int) models.Date {
	return models.NewDate(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

func fixtures() []models.Policy {
	return []models.Policy{
		{
			ID: "1", Title: "AI Regulation White Paper", Department: "DSIT", PolicyType: models.PolicyTypeRegulation,
			SectorFocus: "Cross-sector", PriorityCategory: models.PriorityCritical, RelevanceScore: 9.5,
			DaysSincePublished: 20, PublishedDate: day(2024, 3, 1), YearMonth: "2024-03",
			KeyTopics: "AI Safety, Regulation",
		},
		{
			ID: "2", Title: "NHS AI Lab Guidance", Department: "DHSC", PolicyType: models.PolicyTypeImplementation,
			SectorFocus: "Healthcare", PriorityCategory: models.PriorityHigh, RelevanceScore: 7.2,
			DaysSincePublished: 75, PublishedDate: day(2024, 1, 15), YearMonth: "2024-01",
			KeyTopics: "Healthcare AI, AI Safety",
		},
		{
			ID: "3", Title: "Cabinet Office Transparency Standard", Department: "Cabinet Office",
			PolicyType: models.PolicyTypeRegulation, SectorFocus: "Public Sector", RelevanceScore: 6.4,
			DaysSincePublished: 400, PublishedDate: day(2023, 1, 20), YearMonth: "2023-01",
			KeyTopics: "Transparency",
		},
	}
}

func newTestServer(store dataset.Store) *server {
	return &server{
		log:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		cfg:   &config.API{RequestTimeout: 5 * time.Second, TimelineMonths: 18, MaxLimit: 100},
		store: store,
		now:   func() time.Time { return fixedNow },
	}
}

type decoded struct {
	Data      json.RawMessage `json:"data"`
	Total     int             `json:"total"`
	Timestamp string          `json:"timestamp"`
	Error     string          `json:"error"`
}

func get(t *testing.T, srv *server, target string) (*httptest.ResponseRecorder, decoded) {
	t.Helper()
	rec := httptest.NewRecorder()
	newRouter(srv).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

	var body decoded
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestPoliciesEnvelope(t *testing.T) {
	rec, body := get(t, newTestServer(dataset.NewStaticStore(fixtures())), "/api/policies")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 3, body.Total)
	require.Equal(t, "2024-03-15T09:30:00Z", body.Timestamp)

	var items []models.Policy
	require.NoError(t, json.Unmarshal(body.Data, &items))
	require.Len(t, items, 3)
	require.Equal(t, "2024-03-01", items[0].PublishedDate.String())
}

func TestPoliciesFilters(t *testing.T) {
	srv := newTestServer(dataset.NewStaticStore(fixtures()))

	tests := []struct {
		name  string
		query string
		total int
	}{
		{"department", "?department=DSIT", 1},
		{"dept alias", "?dept=DHSC", 1},
		{"policy type", "?policyType=Regulation+%26+Compliance", 2},
		{"combined", "?policyType=Regulation+%26+Compliance&sector=Public+Sector", 1},
		{"unknown value", "?department=NoSuchDept", 0},
		{"min score", "?minScore=7", 2},
		{"date range", "?from=2024-01-01&to=2024-02-29", 1},
		{"search", "?q=healthcare", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := get(t, srv, "/api/policies"+tt.query)
			require.Equal(t, http.StatusOK, rec.Code)
			require.Equal(t, tt.total, body.Total)
			if tt.total == 0 {
				require.JSONEq(t, `[]`, string(body.Data))
			}
		})
	}
}

func TestPoliciesRejectsMalformedNumbers(t *testing.T) {
	srv := newTestServer(dataset.NewStaticStore(fixtures()))

	for _, query := range []string{"?minScore=high", "?from=yesterday"} {
		rec, body := get(t, srv, "/api/policies"+query)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.NotEmpty(t, body.Error)
	}
}

func TestMissingDataSourceIs404(t *testing.T) {
	store := dataset.NewFailingStore(errors.Join(dataset.ErrDataSourceMissing, errors.New("data/policies.csv")))
	rec, body := get(t, newTestServer(store), "/api/policies")

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, body.Error, "data not found")
}

func TestParseErrorIs500(t *testing.T) {
	store := dataset.NewFailingStore(&dataset.ParseError{Source: "policies.csv", Line: 1, Err: errors.New("missing required column(s): dept")})
	rec, body := get(t, newTestServer(store), "/api/dashboard")

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "failed to parse policy data", body.Error)
}

func TestDashboard(t *testing.T) {
	_, body := get(t, newTestServer(dataset.NewStaticStore(fixtures())), "/api/dashboard")

	var overview analytics.Overview
	require.NoError(t, json.Unmarshal(body.Data, &overview))
	require.Equal(t, 3, overview.Stats.TotalPolicies)
	require.Equal(t, 2, overview.Stats.RegulationCount)
	require.Equal(t, 2, overview.Stats.RecentPoliciesCount)
	// equal totals are ordered by name
	require.Equal(t, "Cabinet Office", overview.Departments[0].Department)
}

func TestTimelineAndTrend(t *testing.T) {
	srv := newTestServer(dataset.NewStaticStore(fixtures()))

	_, body := get(t, srv, "/api/analytics/timeline?months=2")
	var buckets []analytics.TimelineBucket
	require.NoError(t, json.Unmarshal(body.Data, &buckets))
	require.Len(t, buckets, 2)
	require.Equal(t, "2024-01", buckets[0].Period)

	_, body = get(t, srv, "/api/analytics/trend")
	var trend analytics.Trend
	require.NoError(t, json.Unmarshal(body.Data, &trend))
	// three periods leave no previous window
	require.Equal(t, analytics.TrendUp, trend.Direction)
	require.Equal(t, 100.0, trend.Percentage)
	require.Equal(t, 3, trend.RecentCount)
}

func TestSectorRollups(t *testing.T) {
	srv := newTestServer(dataset.NewStaticStore(fixtures()))

	_, body := get(t, srv, "/api/analytics/sectors?limit=1")
	var sectors []analytics.Count
	require.NoError(t, json.Unmarshal(body.Data, &sectors))
	require.Equal(t, []analytics.Count{{Key: "Cross-sector", Count: 1}, {Key: analytics.OtherKey, Count: 2}}, sectors)

	_, body = get(t, srv, "/api/analytics/regulations/sectors")
	require.NoError(t, json.Unmarshal(body.Data, &sectors))
	require.Len(t, sectors, 2)
	require.Equal(t, 2, body.Total)
}

func TestDepartmentDetail(t *testing.T) {
	srv := newTestServer(dataset.NewStaticStore(fixtures()))

	rec, body := get(t, srv, "/api/departments/Cabinet%20Office")
	require.Equal(t, http.StatusOK, rec.Code)
	var detail analytics.DepartmentDetail
	require.NoError(t, json.Unmarshal(body.Data, &detail))
	require.Equal(t, "Cabinet Office", detail.Department)
	require.Equal(t, 1, detail.Regulations)

	rec, _ = get(t, srv, "/api/departments/Home%20Office")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTopics(t *testing.T) {
	srv := newTestServer(dataset.NewStaticStore(fixtures()))

	_, body := get(t, srv, "/api/topics?q=ai")
	var topics []analytics.TopicCount
	require.NoError(t, json.Unmarshal(body.Data, &topics))
	require.Equal(t, []analytics.TopicCount{{Topic: "ai safety", Count: 2}, {Topic: "healthcare ai", Count: 1}}, topics)

	_, body = get(t, srv, "/api/topics/AI%20Safety")
	var detail analytics.TopicDetail
	require.NoError(t, json.Unmarshal(body.Data, &detail))
	require.Equal(t, 2, body.Total)
	require.ElementsMatch(t, []analytics.TopicCount{{Topic: "regulation", Count: 1}, {Topic: "healthcare ai", Count: 1}}, detail.CoOccurrence)
}

func TestRegulations(t *testing.T) {
	_, body := get(t, newTestServer(dataset.NewStaticStore(fixtures())), "/api/regulations?recency=Older")

	var view regulationsView
	require.NoError(t, json.Unmarshal(body.Data, &view))
	require.Equal(t, 1, body.Total)
	require.Equal(t, "Cabinet Office Transparency Standard", view.Policies[0].Title)
	require.Equal(t, 1, view.Summary.Count)
}

func TestCompliance(t *testing.T) {
	_, body := get(t, newTestServer(dataset.NewStaticStore(fixtures())), "/api/compliance?level=HIGH")

	var view analytics.ComplianceSummary
	require.NoError(t, json.Unmarshal(body.Data, &view))
	require.Equal(t, analytics.ComplianceHigh, view.Level)
	require.Equal(t, 1, body.Total)
	require.Equal(t, "NHS AI Lab Guidance", view.Policies[0].Title)
}

func TestExportCSV(t *testing.T) {
	rec, _ := get(t, newTestServer(dataset.NewStaticStore(fixtures())), "/api/policies/export?department=DSIT")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Disposition"), "policies.csv")

	rows, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, dataset.Header(), rows[0])
}

func TestSearchInMemoryPaginates(t *testing.T) {
	srv := newTestServer(dataset.NewStaticStore(fixtures()))

	_, body := get(t, srv, "/api/search?q=ai&size=1")
	var items []models.Policy
	require.NoError(t, json.Unmarshal(body.Data, &items))
	require.Equal(t, 2, body.Total)
	require.Len(t, items, 1)
	require.Equal(t, "AI Regulation White Paper", items[0].Title)

	_, body = get(t, srv, "/api/search?q=ai&size=1&offset=5")
	require.JSONEq(t, `[]`, string(body.Data))
}

type stubSearcher struct {
	params elasticsearch.SearchParams
	err    error
}

func (s *stubSearcher) SearchPolicies(_ context.Context, params elasticsearch.SearchParams) (*elasticsearch.SearchResult, error) {
	s.params = params
	if s.err != nil {
		return nil, s.err
	}
	return &elasticsearch.SearchResult{Total: 42, Items: fixtures()[:1]}, nil
}

func (s *stubSearcher) Health(context.Context) error { return s.err }

func TestSearchUsesElasticsearchWhenConfigured(t *testing.T) {
	srv := newTestServer(dataset.NewFailingStore(errors.New("store must not be read")))
	searcher := &stubSearcher{}
	srv.search = searcher

	rec, body := get(t, srv, "/api/search?q=safety&dept=DSIT&offset=10&size=5")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 42, body.Total)
	require.Equal(t, "safety", searcher.params.Filter.Search)
	require.Equal(t, "DSIT", searcher.params.Filter.Department)
	require.Equal(t, 10, searcher.params.From)
	require.Equal(t, 5, searcher.params.Size)
}

func TestHealth(t *testing.T) {
	rec, _ := get(t, newTestServer(dataset.NewStaticStore(nil)), "/health")
	require.Equal(t, http.StatusOK, rec.Code)

	srv := newTestServer(dataset.NewStaticStore(nil))
	srv.search = &stubSearcher{err: errors.New("cluster red")}
	rec, body := get(t, srv, "/health")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, "search backend unavailable", body.Error)
}

func TestHealthReportsMissingSource(t *testing.T) {
	store := dataset.NewStore(dataset.NewLocalSource(t.TempDir() + "/missing.csv"))
	rec, body := get(t, newTestServer(store), "/health")

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, "data source unavailable", body.Error)
}
