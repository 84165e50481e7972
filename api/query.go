package main

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Boakye-20/uk-ai-policy-tracker/backend/internal/analytics"
	"github.com/Boakye-20/uk-ai-policy-tracker/backend/internal/models"
)

// parseFilter reads the shared filter parameters. Unknown categorical values
// are passed through and simply match nothing; malformed numbers and dates
// are rejected.
func parseFilter(q url.Values) (analytics.Filter, error) {
	f := analytics.Filter{
		Department:    firstParam(q, "department", "dept"),
		Priority:      firstParam(q, "priority"),
		PolicyType:    firstParam(q, "policyType"),
		Sector:        firstParam(q, "sector"),
		AIApplication: firstParam(q, "aiApplication"),
		Stage:         firstParam(q, "stage"),
		Recency:       firstParam(q, "recency"),
		Search:        firstParam(q, "q"),
	}

	if raw := firstParam(q, "minScore"); raw != "" {
		score, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return f, fmt.Errorf("minScore must be a number, got %q", raw)
		}
		f.MinScore = score
	}

	var err error
	if f.From, err = parseDate(q, "from"); err != nil {
		return f, err
	}
	if f.To, err = parseDate(q, "to"); err != nil {
		return f, err
	}

	return f, nil
}

func parseDate(q url.Values, name string) (time.Time, error) {
	raw := firstParam(q, name)
	if raw == "" {
		return time.Time{}, nil
	}
	if ts, err := time.Parse(models.DateLayout, raw); err == nil {
		return ts, nil
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts, nil
	}
	return time.Time{}, fmt.Errorf("%s must be YYYY-MM-DD, got %q", name, raw)
}

func firstParam(q url.Values, names ...string) string {
	for _, name := range names {
		if v := strings.TrimSpace(q.Get(name)); v != "" {
			return v
		}
	}
	return ""
}

func clampInt(raw string, fallback, max int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	if value <= 0 {
		return fallback
	}
	if value > max {
		return max
	}
	return value
}
