package source_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/invlab/stockview/stockview/source"
	"github.com/invlab/stockview/types"
)

// newAPIServer serves a minimal rendition of the console API: a list
// endpoint with filters and a detail endpoint.
func newAPIServer(t *testing.T) *httptest.Server {
	t.Helper()

	issues := []map[string]interface{}{
		{"id": "i1", "code": "ISS-001", "status": "DRAFT", "created_at": "2024-03-01T10:00:00Z"},
		{"id": "i2", "code": "ISS-002", "status": "ISSUED", "created_at": "2024-03-02T10:00:00Z"},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/issues", func(w http.ResponseWriter, r *http.Request) {
		status := r.URL.Query().Get("status")
		var items []map[string]interface{}
		for _, issue := range issues {
			if status != "" && issue["status"] != status {
				continue
			}
			items = append(items, issue)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"items": items,
			"total": len(items),
		})
	})
	mux.HandleFunc("/api/issues/", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Path[len("/api/issues/"):]
		for _, issue := range issues {
			if issue["id"] == id {
				_ = json.NewEncoder(w).Encode(issue)
				return
			}
		}
		http.NotFound(w, r)
	})
	mux.HandleFunc("/api/stock_tx", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("type") != "OUT" || q.Get("page_size") != "1" || q.Get("dir") != "desc" {
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"items": []interface{}{}, "total": 0})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"items": []map[string]interface{}{
				{"id": "t9", "tx_type": "OUT", "ref": "OUT-0007-ABC123", "created_at": "2024-03-09T08:00:00Z"},
			},
			"total": 12,
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPFetchPageDecodesFlatRecords(t *testing.T) {
	srv := newAPIServer(t)
	src := source.NewHTTPSource(srv.URL + "/api")

	q := types.NewQuery()
	q.Filters["status"] = "DRAFT"
	res, err := src.FetchPage(context.Background(), "issues", q)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if res.Total != 1 || len(res.Items) != 1 {
		t.Fatalf("expected 1 draft issue, got total %d", res.Total)
	}

	rec := res.Items[0]
	if rec.ID != "i1" {
		t.Errorf("expected id i1, got %s", rec.ID)
	}
	if code, _ := rec.Get("code"); code != "ISS-001" {
		t.Errorf("expected code in fields, got %v", code)
	}
	if rec.CreatedAt.IsZero() {
		t.Error("expected created_at parsed onto the record")
	}
	if _, ok := rec.Fields["id"]; ok {
		t.Error("id should move to the struct, not stay a field")
	}
}

func TestHTTPFetchByIDMapsNotFound(t *testing.T) {
	srv := newAPIServer(t)
	src := source.NewHTTPSource(srv.URL + "/api")

	rec, err := src.FetchByID(context.Background(), "issues", "i2")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if status, _ := rec.Get("status"); status != "ISSUED" {
		t.Errorf("expected ISSUED, got %v", status)
	}

	_, err = src.FetchByID(context.Background(), "issues", "ghost")
	if !errors.Is(err, types.ErrNotFound) {
		t.Errorf("expected ErrNotFound for 404, got %v", err)
	}
}

func TestHTTPFetchLatestByType(t *testing.T) {
	srv := newAPIServer(t)
	src := source.NewHTTPSource(srv.URL + "/api")

	rec, err := src.FetchLatestByType(context.Background(), "stock_tx", "OUT")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if ref, _ := rec.Get("ref"); ref != "OUT-0007-ABC123" {
		t.Errorf("expected latest ref, got %v", ref)
	}

	_, err = src.FetchLatestByType(context.Background(), "stock_tx", "XFER")
	if !errors.Is(err, types.ErrNotFound) {
		t.Errorf("expected ErrNotFound for empty result, got %v", err)
	}
}

func TestHTTPServerErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	src := source.NewHTTPSource(srv.URL)
	_, err := src.FetchPage(context.Background(), "issues", types.NewQuery())
	if err == nil {
		t.Fatal("expected an error for a 500 response")
	}
	if errors.Is(err, types.ErrNotFound) {
		t.Error("a server failure must not read as not-found")
	}
}
