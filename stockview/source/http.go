package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/invlab/stockview/stockview/query"
	"github.com/invlab/stockview/types"
)

// defaultHTTPTimeout bounds a single collaborator round-trip.
const defaultHTTPTimeout = 10 * time.Second

// HTTPSource is a collaborator backed by the console's REST API. List
// endpoints take page/page_size/search plus per-field filters and return
// {items, total}; detail endpoints return one flat record object.
type HTTPSource struct {
	base   string
	client *http.Client
	logger *slog.Logger
}

// HTTPOption modifies an HTTPSource during construction.
type HTTPOption func(*HTTPSource)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(s *HTTPSource) {
		s.client = client
	}
}

// WithHTTPLogger sets the logger for request diagnostics.
func WithHTTPLogger(logger *slog.Logger) HTTPOption {
	return func(s *HTTPSource) {
		s.logger = logger
	}
}

// NewHTTPSource returns a source reading from the API at baseURL, e.g.
// "http://localhost:8000/api".
func NewHTTPSource(baseURL string, opts ...HTTPOption) *HTTPSource {
	s := &HTTPSource{
		base:   strings.TrimRight(baseURL, "/"),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.client == nil {
		s.client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return s
}

// FetchPage requests one page of a resource list.
func (s *HTTPSource) FetchPage(ctx context.Context, resource string, q types.Query) (types.PageResult, error) {
	params := url.Values{}
	if q.Page > 0 {
		params.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		params.Set("page_size", strconv.Itoa(q.PageSize))
	}
	if q.Search != "" {
		params.Set("search", q.Search)
	}
	for field, value := range q.Filters {
		params.Set(field, query.AsString(value))
	}
	if q.Sort != nil {
		params.Set("sort", q.Sort.Field)
		dir := "asc"
		if q.Sort.Descending {
			dir = "desc"
		}
		params.Set("dir", dir)
	}

	endpoint := s.base + "/" + resource
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var payload struct {
		Items []map[string]interface{} `json:"items"`
		Total int                      `json:"total"`
	}
	if err := s.getJSON(ctx, endpoint, &payload); err != nil {
		return types.PageResult{}, fmt.Errorf("fetch %s page: %w", resource, err)
	}

	items := make([]types.Record, 0, len(payload.Items))
	for _, obj := range payload.Items {
		items = append(items, decodeRecord(obj))
	}
	return types.PageResult{Items: items, Total: payload.Total}, nil
}

// FetchByID requests one record; a 404 maps to ErrNotFound.
func (s *HTTPSource) FetchByID(ctx context.Context, resource, id string) (types.Record, error) {
	var obj map[string]interface{}
	err := s.getJSON(ctx, s.base+"/"+resource+"/"+url.PathEscape(id), &obj)
	if err != nil {
		return types.Record{}, fmt.Errorf("fetch %s/%s: %w", resource, id, err)
	}
	return decodeRecord(obj), nil
}

// FetchLatestByType asks the list endpoint for the single newest record of
// a transaction type, relying on the server's created_at ordering.
func (s *HTTPSource) FetchLatestByType(ctx context.Context, resource, txType string) (types.Record, error) {
	params := url.Values{}
	params.Set("type", txType)
	params.Set("page", "1")
	params.Set("page_size", "1")
	params.Set("sort", "created_at")
	params.Set("dir", "desc")

	var payload struct {
		Items []map[string]interface{} `json:"items"`
		Total int                      `json:"total"`
	}
	endpoint := s.base + "/" + resource + "?" + params.Encode()
	if err := s.getJSON(ctx, endpoint, &payload); err != nil {
		return types.Record{}, fmt.Errorf("fetch latest %s %s: %w", resource, txType, err)
	}
	if len(payload.Items) == 0 {
		return types.Record{}, fmt.Errorf("%s type %s: %w", resource, txType, types.ErrNotFound)
	}
	return decodeRecord(payload.Items[0]), nil
}

// getJSON runs one GET and decodes the response body. A 404 maps to
// ErrNotFound, any other non-2xx status to an error carrying it.
func (s *HTTPSource) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, resp.Body)
		return types.ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		_, _ = io.Copy(io.Discard, resp.Body)
		s.logger.Warn("collaborator returned non-success status",
			"endpoint", endpoint, "status", resp.StatusCode)
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// decodeRecord maps one flat API object onto a Record: the id and the
// timestamp columns move to the struct, everything else stays a field.
func decodeRecord(obj map[string]interface{}) types.Record {
	rec := types.Record{Fields: make(map[string]interface{}, len(obj))}
	for key, value := range obj {
		switch key {
		case "id":
			rec.ID = query.AsString(value)
		case "created_at":
			rec.CreatedAt = parseAPITime(value)
		case "updated_at":
			rec.UpdatedAt = parseAPITime(value)
		default:
			rec.Fields[key] = value
		}
	}
	return rec
}

func parseAPITime(value interface{}) time.Time {
	s, ok := value.(string)
	if !ok {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
