package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/Boakye-20/uk-ai-policy-tracker/backend/internal/analytics"
	"github.com/Boakye-20/uk-ai-policy-tracker/backend/internal/models"
)

// Client wraps go-elasticsearch with the policy index helpers.
type Client struct {
	es    *elasticsearch.Client
	index string
	log   *slog.Logger
}

// SearchParams narrow the search endpoint query.
type SearchParams struct {
	Filter analytics.Filter
	From   int
	Size   int
	// Sort is "field:order"; defaults to relevance when a text query is present
	// and to published_date:desc otherwise.
	Sort string
}

// SearchResult bundles hits and total count.
type SearchResult struct {
	Total int64
	Items []models.Policy
}

// Option customises the underlying client configuration.
type Option func(*elasticsearch.Config)

// WithTransport replaces the HTTP transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(cfg *elasticsearch.Config) {
		cfg.Transport = rt
	}
}

// New instantiates the Elasticsearch client.
func New(addr, index string, logger *slog.Logger, opts ...Option) (*Client, error) {
	cfg := elasticsearch.Config{
		Addresses: []string{addr},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	es, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{es: es, index: index, log: logger}, nil
}

// Ping checks if Elasticsearch is available.
func (c *Client) Ping(ctx context.Context) error {
	res, err := c.es.Ping(c.es.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("ping elasticsearch: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping failed: %s", res.Status())
	}

	return nil
}

var indexMapping = map[string]any{
	"mappings": map[string]any{
		"properties": map[string]any{
			"id":                   map[string]any{"type": "keyword"},
			"title":                map[string]any{"type": "text"},
			"description":          map[string]any{"type": "text"},
			"ai_summary":           map[string]any{"type": "text"},
			"key_topics":           map[string]any{"type": "text"},
			"url":                  map[string]any{"type": "keyword"},
			"dept":                 map[string]any{"type": "keyword"},
			"policy_type":          map[string]any{"type": "keyword"},
			"sector_focus":         map[string]any{"type": "keyword"},
			"ai_application":       map[string]any{"type": "keyword"},
			"priority_category":    map[string]any{"type": "keyword"},
			"stage":                map[string]any{"type": "keyword"},
			"published_date":       map[string]any{"type": "date", "format": "yyyy-MM-dd"},
			"relevance_score":      map[string]any{"type": "float"},
			"days_since_published": map[string]any{"type": "integer"},
		},
	},
}

// EnsureIndex creates the policy index with its mapping when it does not exist.
func (c *Client) EnsureIndex(ctx context.Context) error {
	res, err := c.es.Indices.Exists([]string{c.index}, c.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	payload, err := json.Marshal(indexMapping)
	if err != nil {
		return fmt.Errorf("marshal mapping: %w", err)
	}

	res, err = c.es.Indices.Create(
		c.index,
		c.es.Indices.Create.WithContext(ctx),
		c.es.Indices.Create.WithBody(bytes.NewReader(payload)),
	)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		// a concurrent worker may have won the race
		if strings.Contains(string(body), "resource_already_exists_exception") {
			return nil
		}
		return fmt.Errorf("create index failed: %s", strings.TrimSpace(string(body)))
	}

	c.log.Info("created index", slog.String("index", c.index))
	return nil
}

// IndexPolicy writes a policy into Elasticsearch under its document id.
func (c *Client) IndexPolicy(ctx context.Context, doc models.Policy) error {
	if doc.ID == "" {
		return fmt.Errorf("index policy %q: missing document id", doc.Title)
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal doc: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      c.index,
		DocumentID: doc.ID,
		Body:       bytes.NewReader(payload),
		Refresh:    "false",
	}

	res, err := req.Do(ctx, c.es)
	if err != nil {
		return fmt.Errorf("index doc: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("index doc failed: %s", strings.TrimSpace(string(body)))
	}

	return nil
}

// SearchPolicies executes a bool query built from the filter.
func (c *Client) SearchPolicies(ctx context.Context, params SearchParams) (*SearchResult, error) {
	payload, err := json.Marshal(BuildSearchBody(params))
	if err != nil {
		return nil, fmt.Errorf("marshal search body: %w", err)
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.index),
		c.es.Search.WithBody(bytes.NewReader(payload)),
	)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		data, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("search failed: %s", strings.TrimSpace(string(data)))
	}

	var parsed struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source models.Policy `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}

	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	items := make([]models.Policy, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		items = append(items, hit.Source)
	}

	return &SearchResult{
		Total: parsed.Hits.Total.Value,
		Items: items,
	}, nil
}

// BuildSearchBody translates params into an Elasticsearch request body. The
// categorical filters are exact term matches, mirroring analytics.Filter.
func BuildSearchBody(params SearchParams) map[string]any {
	if params.Size <= 0 {
		params.Size = 20
	}
	if params.Size > 200 {
		params.Size = 200
	}
	if params.From < 0 {
		params.From = 0
	}

	f := params.Filter
	must := make([]map[string]any, 0, 1)
	filters := make([]map[string]any, 0, 6)

	query := strings.TrimSpace(f.Search)
	if query != "" {
		must = append(must, map[string]any{
			"multi_match": map[string]any{
				"query":  query,
				"fields": []string{"title^3", "ai_summary", "description", "key_topics"},
			},
		})
	}

	terms := []struct {
		field string
		value string
	}{
		{"dept", f.Department},
		{"priority_category", f.Priority},
		{"policy_type", f.PolicyType},
		{"sector_focus", f.Sector},
		{"ai_application", f.AIApplication},
		{"stage", f.Stage},
	}
	for _, t := range terms {
		if t.value != "" {
			filters = append(filters, map[string]any{
				"term": map[string]any{t.field: t.value},
			})
		}
	}

	if f.Recency != "" {
		days := map[string]any{}
		if lo, hi, ok := analytics.RecencyRange(f.Recency); ok {
			days["gte"] = lo
			if hi >= 0 {
				days["lte"] = hi
			}
		} else {
			// unknown bucket matches nothing, as in the in-memory filter
			days["lt"] = 0
		}
		filters = append(filters, map[string]any{
			"range": map[string]any{"days_since_published": days},
		})
	}

	if f.MinScore > 0 {
		filters = append(filters, map[string]any{
			"range": map[string]any{"relevance_score": map[string]any{"gte": f.MinScore}},
		})
	}

	if !f.From.IsZero() || !f.To.IsZero() {
		rangeQuery := map[string]any{"format": "yyyy-MM-dd"}
		if !f.From.IsZero() {
			rangeQuery["gte"] = f.From.UTC().Format(models.DateLayout)
		}
		if !f.To.IsZero() {
			rangeQuery["lte"] = f.To.UTC().Format(models.DateLayout)
		}
		filters = append(filters, map[string]any{
			"range": map[string]any{"published_date": rangeQuery},
		})
	}

	boolQuery := map[string]any{}
	if len(must) > 0 {
		boolQuery["must"] = must
	}
	if len(filters) > 0 {
		boolQuery["filter"] = filters
	}
	if len(must) == 0 && len(filters) == 0 {
		boolQuery["must"] = []map[string]any{
			{"match_all": map[string]any{}},
		}
	}

	body := map[string]any{
		"from":             params.From,
		"size":             params.Size,
		"track_total_hits": true,
		"query": map[string]any{
			"bool": boolQuery,
		},
	}

	sortField := params.Sort
	if sortField == "" && query == "" {
		sortField = "published_date:desc"
	}
	if sortField != "" {
		parts := strings.Split(sortField, ":")
		order := "desc"
		field := parts[0]
		if field == "" {
			field = "published_date"
		}
		if len(parts) > 1 && parts[1] != "" {
			order = parts[1]
		}
		body["sort"] = []map[string]any{
			{field: map[string]any{"order": order}},
		}
	}

	return body
}

// DeletePublishedBefore removes policies published before cutoff using batched
// delete-by-query. It loops until a batch deletes fewer documents than batchSize.
func (c *Client) DeletePublishedBefore(ctx context.Context, cutoff time.Time, batchSize int) (int64, error) {
	if batchSize <= 0 {
		batchSize = 1000
	}

	totalDeleted := int64(0)
	for {
		body := map[string]any{
			"query": map[string]any{
				"range": map[string]any{
					"published_date": map[string]any{
						"lt":     cutoff.UTC().Format(models.DateLayout),
						"format": "yyyy-MM-dd",
					},
				},
			},
		}

		payload, err := json.Marshal(body)
		if err != nil {
			return totalDeleted, fmt.Errorf("marshal delete body: %w", err)
		}

		res, err := c.es.DeleteByQuery(
			[]string{c.index},
			bytes.NewReader(payload),
			c.es.DeleteByQuery.WithContext(ctx),
			c.es.DeleteByQuery.WithWaitForCompletion(true),
			c.es.DeleteByQuery.WithConflicts("proceed"),
			c.es.DeleteByQuery.WithScrollSize(batchSize),
			c.es.DeleteByQuery.WithMaxDocs(batchSize),
		)
		if err != nil {
			return totalDeleted, fmt.Errorf("delete by query: %w", err)
		}

		if res.IsError() {
			data, _ := io.ReadAll(res.Body)
			res.Body.Close()
			return totalDeleted, fmt.Errorf("delete by query failed: %s", strings.TrimSpace(string(data)))
		}

		var parsed struct {
			Deleted int64 `json:"deleted"`
		}
		if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
			res.Body.Close()
			return totalDeleted, fmt.Errorf("decode delete response: %w", err)
		}
		res.Body.Close()

		totalDeleted += parsed.Deleted

		if parsed.Deleted < int64(batchSize) {
			break
		}
	}

	return totalDeleted, nil
}

// Health checks cluster health.
func (c *Client) Health(ctx context.Context) error {
	res, err := c.es.Cluster.Health(c.es.Cluster.Health.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(res.Body)
		return fmt.Errorf("cluster health bad: %s", strings.TrimSpace(string(data)))
	}
	return nil
}
