package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Boakye-20/uk-ai-policy-tracker/backend/internal/analytics"
	"github.com/Boakye-20/uk-ai-policy-tracker/backend/internal/config"
	"github.com/Boakye-20/uk-ai-policy-tracker/backend/internal/dataset"
	"github.com/Boakye-20/uk-ai-policy-tracker/backend/internal/elasticsearch"
	"github.com/Boakye-20/uk-ai-policy-tracker/backend/internal/models"
)

type policySearcher interface {
	SearchPolicies(ctx context.Context, params elasticsearch.SearchParams) (*elasticsearch.SearchResult, error)
	Health(ctx context.Context) error
}

type sourceChecker interface {
	Check(ctx context.Context) error
}

type server struct {
	log    *slog.Logger
	cfg    *config.API
	store  dataset.Store
	search policySearcher
	now    func() time.Time
}

type envelope struct {
	Data      any    `json:"data"`
	Total     int    `json:"total"`
	Timestamp string `json:"timestamp"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type snapshot struct {
	filter   analytics.Filter
	all      []models.Policy
	filtered []models.Policy
}

// load reads the dataset and applies the request filter. It writes the error
// response itself and returns false when the request cannot proceed.
func (s *server) load(w http.ResponseWriter, r *http.Request, adjust ...func(*analytics.Filter)) (snapshot, bool) {
	f, err := parseFilter(r.URL.Query())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return snapshot{}, false
	}
	for _, fn := range adjust {
		fn(&f)
	}

	records, err := s.store.Policies(r.Context())
	if err != nil {
		s.writeLoadError(w, err)
		return snapshot{}, false
	}

	return snapshot{filter: f, all: records, filtered: analytics.Apply(records, f)}, true
}

func (s *server) writeLoadError(w http.ResponseWriter, err error) {
	var perr *dataset.ParseError
	switch {
	case errors.Is(err, dataset.ErrDataSourceMissing):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "data not found: " + err.Error()})
	case errors.As(err, &perr):
		s.log.Error("parse policy data", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to parse policy data", Details: err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		// the timeout middleware replies 504
		s.log.Warn("load policy data timed out", slog.Any("err", err))
	default:
		s.log.Error("load policy data", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to load policy data", Details: err.Error()})
	}
}

func (s *server) reply(w http.ResponseWriter, data any, total int) {
	writeJSON(w, http.StatusOK, envelope{
		Data:      data,
		Total:     total,
		Timestamp: s.now().UTC().Format(time.RFC3339),
	})
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := map[string]string{"status": "ok", "dataSource": "ok"}
	if checker, ok := s.store.(sourceChecker); ok {
		if err := checker.Check(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "data source unavailable", Details: err.Error()})
			return
		}
	}
	if s.search != nil {
		if err := s.search.Health(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "search backend unavailable", Details: err.Error()})
			return
		}
		status["search"] = "ok"
	}

	writeJSON(w, http.StatusOK, status)
}

func (s *server) handlePolicies(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.load(w, r)
	if !ok {
		return
	}
	s.reply(w, snap.filtered, len(snap.filtered))
}

func (s *server) handleExport(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.load(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="policies.csv"`)
	w.WriteHeader(http.StatusOK)
	if err := dataset.WriteCSV(w, snap.filtered); err != nil {
		s.log.Warn("write csv export", slog.Any("err", err))
	}
}

func (s *server) handleFilters(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.load(w, r)
	if !ok {
		return
	}
	s.reply(w, analytics.Options(snap.all), len(snap.all))
}

func (s *server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.load(w, r)
	if !ok {
		return
	}
	s.reply(w, analytics.Dashboard(snap.filtered, s.now()), len(snap.filtered))
}

func (s *server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.load(w, r)
	if !ok {
		return
	}
	months := clampInt(r.URL.Query().Get("months"), s.cfg.TimelineMonths, 120)
	s.reply(w, analytics.Timeline(snap.filtered, months), len(snap.filtered))
}

func (s *server) handleTrend(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.load(w, r)
	if !ok {
		return
	}
	timeline := analytics.Timeline(snap.filtered, s.cfg.TimelineMonths)
	s.reply(w, analytics.TrendFromTimeline(timeline), len(snap.filtered))
}

func (s *server) handlePolicyTypes(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.load(w, r)
	if !ok {
		return
	}
	s.reply(w, analytics.Rollup(snap.filtered, analytics.ByPolicyType, 0), len(snap.filtered))
}

func (s *server) handleSectors(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.load(w, r)
	if !ok {
		return
	}
	limit := clampInt(r.URL.Query().Get("limit"), analytics.SectorLimit, s.cfg.MaxLimit)
	s.reply(w, analytics.Rollup(snap.filtered, analytics.BySector, limit), len(snap.filtered))
}

func (s *server) handleRegulationSectors(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.load(w, r)
	if !ok {
		return
	}
	limit := clampInt(r.URL.Query().Get("limit"), analytics.RegulationSectorLimit, s.cfg.MaxLimit)
	regs := analytics.Where(snap.filtered, analytics.IsRegulation)
	s.reply(w, analytics.Rollup(regs, analytics.BySector, limit), len(regs))
}

func (s *server) handleDepartmentActivity(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.load(w, r)
	if !ok {
		return
	}
	activity := analytics.Activity(snap.filtered, s.now(), analytics.ActivityDepartments, analytics.ActivityMonths)
	s.reply(w, activity, len(snap.filtered))
}

func (s *server) handleDepartments(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.load(w, r)
	if !ok {
		return
	}
	stats := analytics.DepartmentStats(snap.filtered)
	s.reply(w, stats, len(stats))
}

func (s *server) handleDepartment(w http.ResponseWriter, r *http.Request) {
	dept := pathParam(r, "dept")
	snap, ok := s.load(w, r, func(f *analytics.Filter) { f.Department = "" })
	if !ok {
		return
	}

	detail, found := analytics.Department(snap.filtered, dept)
	if !found {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "department not found: " + dept})
		return
	}
	s.reply(w, detail, detail.Total)
}

func (s *server) handleTopics(w http.ResponseWriter, r *http.Request) {
	// q names a topic here, not a record search
	snap, ok := s.load(w, r, func(f *analytics.Filter) { f.Search = "" })
	if !ok {
		return
	}
	limit := clampInt(r.URL.Query().Get("limit"), analytics.TopicSearchLimit, s.cfg.MaxLimit)
	topics := analytics.SearchTopics(analytics.TopicFrequencies(snap.filtered), r.URL.Query().Get("q"), limit)
	s.reply(w, topics, len(topics))
}

func (s *server) handleTopicsByDepartment(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.load(w, r)
	if !ok {
		return
	}
	byDept := analytics.TopicsByDepartment(snap.filtered)
	s.reply(w, byDept, len(byDept))
}

func (s *server) handleTopic(w http.ResponseWriter, r *http.Request) {
	topic := pathParam(r, "topic")
	snap, ok := s.load(w, r)
	if !ok {
		return
	}
	detail := analytics.Topic(snap.filtered, topic)
	s.reply(w, detail, detail.Count)
}

type regulationsView struct {
	Summary  analytics.RegulatorySummary `json:"summary"`
	Policies []models.Policy             `json:"policies"`
}

func (s *server) handleRegulations(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.load(w, r, func(f *analytics.Filter) { f.PolicyType = "" })
	if !ok {
		return
	}
	view := regulationsView{
		Summary:  analytics.RegulatoryView(snap.filtered),
		Policies: analytics.Regulations(snap.all, snap.filter),
	}
	s.reply(w, view, len(view.Policies))
}

func (s *server) handleCompliance(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.load(w, r)
	if !ok {
		return
	}
	level := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("level")))
	view := analytics.ComplianceView(snap.filtered, level)
	s.reply(w, view, view.Total)
}

func (s *server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	offset := clampInt(q.Get("offset"), 0, 10_000)
	size := clampInt(q.Get("size"), 20, s.cfg.MaxLimit)

	if s.search != nil {
		f, err := parseFilter(q)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		result, err := s.search.SearchPolicies(r.Context(), elasticsearch.SearchParams{
			Filter: f,
			From:   offset,
			Size:   size,
			Sort:   strings.TrimSpace(q.Get("sort")),
		})
		if err != nil {
			s.log.Error("search policies", slog.Any("err", err))
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "search failed", Details: err.Error()})
			return
		}
		s.reply(w, result.Items, int(result.Total))
		return
	}

	snap, ok := s.load(w, r)
	if !ok {
		return
	}
	matches := snap.filtered
	if snap.filter.Search != "" {
		matches = analytics.ByRelevance(matches, 0)
	}
	s.reply(w, page(matches, offset, size), len(matches))
}

func page(records []models.Policy, offset, size int) []models.Policy {
	if offset >= len(records) {
		return []models.Policy{}
	}
	end := min(offset+size, len(records))
	return records[offset:end]
}

func pathParam(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
