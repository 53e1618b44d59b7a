package source_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/invlab/stockview/stockview/source"
	"github.com/invlab/stockview/types"
)

func issueSchema() types.ViewSchema {
	return types.ViewSchema{
		Entity: "issues",
		Fields: []types.FieldSpec{
			{Name: "code", Kind: types.StringField, Searchable: true},
			{Name: "note", Kind: types.StringField, Searchable: true},
			{Name: "status", Kind: types.EnumField, Values: []string{"DRAFT", "ISSUED", "CANCELLED"}},
			{Name: "issued_at", Kind: types.DateField},
			{Name: "qty", Kind: types.NumberField},
		},
	}
}

// writeDataFile lays out a data file with a handful of issues and stock
// transactions.
func writeDataFile(t *testing.T) string {
	t.Helper()

	day := func(d int) time.Time {
		return time.Date(2024, 3, d, 10, 0, 0, 0, time.UTC)
	}
	rec := func(id string, created time.Time, fields map[string]interface{}) map[string]interface{} {
		return map[string]interface{}{
			"id":         id,
			"fields":     fields,
			"created_at": created,
			"updated_at": created,
		}
	}

	payload := map[string]interface{}{
		"metadata": map[string]interface{}{
			"version":    "1.0",
			"created_at": day(1),
			"updated_at": day(1),
		},
		"resources": map[string]interface{}{
			"issues": []interface{}{
				rec("i1", day(1), map[string]interface{}{
					"code": "ISS-001", "status": "DRAFT", "issued_at": "2024-03-01T10:00:00Z", "qty": 5, "note": "spare bolts",
				}),
				rec("i2", day(2), map[string]interface{}{
					"code": "ISS-002", "status": "ISSUED", "issued_at": "2024-03-05T10:00:00Z", "qty": 2, "note": "maintenance kit",
				}),
				rec("i3", day(3), map[string]interface{}{
					"code": "ISS-003", "status": "DRAFT", "issued_at": nil, "qty": 8, "note": "bolts and nuts",
				}),
			},
			"stock_tx": []interface{}{
				rec("t1", day(1), map[string]interface{}{
					"tx_type": "OUT", "ref": "OUT-0006-ABC123", "qty": 1,
				}),
				rec("t2", day(4), map[string]interface{}{
					"tx_type": "OUT", "ref": "OUT-0007-ABC123", "qty": 3,
				}),
				rec("t3", day(2), map[string]interface{}{
					"tx_type": "IN", "ref": "IN-0002-XYZ900", "qty": 10,
				}),
			},
		},
	}

	raw, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "warehouse.json")
	if err := os.WriteFile(path, raw, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func openSource(t *testing.T) *source.FileSource {
	t.Helper()
	src, err := source.NewFileSource(writeDataFile(t), []types.ViewSchema{issueSchema()})
	if err != nil {
		t.Fatalf("failed to open source: %v", err)
	}
	t.Cleanup(func() { _ = src.Close() })
	return src
}

func TestFetchPageReturnsAllWithTotal(t *testing.T) {
	src := openSource(t)

	res, err := src.FetchPage(context.Background(), "issues", types.NewQuery())
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(res.Items) != 3 || res.Total != 3 {
		t.Errorf("expected 3 items total 3, got %d items total %d", len(res.Items), res.Total)
	}
}

func TestFetchPageSearchesSearchableFields(t *testing.T) {
	src := openSource(t)

	q := types.NewQuery()
	q.Search = "bolts"
	res, err := src.FetchPage(context.Background(), "issues", q)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if res.Total != 2 {
		t.Fatalf("expected 2 matches, got %d", res.Total)
	}
	for _, rec := range res.Items {
		if rec.ID != "i1" && rec.ID != "i3" {
			t.Errorf("unexpected record %s in search result", rec.ID)
		}
	}
}

func TestFetchPageAppliesEqualityFilter(t *testing.T) {
	src := openSource(t)

	q := types.NewQuery()
	q.Filters["status"] = "DRAFT"
	res, err := src.FetchPage(context.Background(), "issues", q)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if res.Total != 2 {
		t.Errorf("expected 2 draft issues, got %d", res.Total)
	}
}

func TestFetchPageDateBoundsUseSchemaDateField(t *testing.T) {
	src := openSource(t)

	q := types.NewQuery()
	q.Filters[types.FilterDateFrom] = "2024-03-02"
	res, err := src.FetchPage(context.Background(), "issues", q)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	// i2 is dated after the bound; i1 is before it and i3 has no date
	if res.Total != 1 || res.Items[0].ID != "i2" {
		t.Errorf("expected only i2, got %d records", res.Total)
	}
}

func TestFetchPageSortsAndWindows(t *testing.T) {
	src := openSource(t)

	q := types.NewQuery()
	q.Sort = &types.SortSpec{Field: "qty", Descending: true}
	q.Page = 1
	q.PageSize = 2
	res, err := src.FetchPage(context.Background(), "issues", q)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if res.Total != 3 {
		t.Errorf("total should count the whole filtered set, got %d", res.Total)
	}
	if len(res.Items) != 2 || res.Items[0].ID != "i3" || res.Items[1].ID != "i1" {
		ids := []string{}
		for _, r := range res.Items {
			ids = append(ids, r.ID)
		}
		t.Errorf("expected window [i3 i1], got %v", ids)
	}
}

func TestFetchByID(t *testing.T) {
	src := openSource(t)

	rec, err := src.FetchByID(context.Background(), "issues", "i2")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if code, _ := rec.Get("code"); code != "ISS-002" {
		t.Errorf("expected ISS-002, got %v", code)
	}

	_, err = src.FetchByID(context.Background(), "issues", "missing")
	if !errors.Is(err, types.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFetchLatestByTypePicksNewestCreation(t *testing.T) {
	src := openSource(t)

	rec, err := src.FetchLatestByType(context.Background(), "stock_tx", "OUT")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if rec.ID != "t2" {
		t.Errorf("expected the newest OUT record t2, got %s", rec.ID)
	}

	_, err = src.FetchLatestByType(context.Background(), "stock_tx", "XFER")
	if !errors.Is(err, types.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unused type, got %v", err)
	}
}

func TestAppendPersistsAcrossReopen(t *testing.T) {
	path := writeDataFile(t)
	src, err := source.NewFileSource(path, []types.ViewSchema{issueSchema()})
	if err != nil {
		t.Fatalf("failed to open source: %v", err)
	}

	appended, err := src.Append(context.Background(), "stock_tx", types.Record{
		Fields: map[string]interface{}{"tx_type": "XFER", "ref": "XFER-0001-ABC123", "qty": 4},
	})
	if err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if appended.ID == "" {
		t.Fatal("expected an assigned id")
	}
	if appended.CreatedAt.IsZero() {
		t.Error("expected a creation timestamp")
	}
	_ = src.Close()

	reopened, err := source.NewFileSource(path, nil)
	if err != nil {
		t.Fatalf("failed to reopen: %v", err)
	}
	defer func() { _ = reopened.Close() }()

	rec, err := reopened.FetchByID(context.Background(), "stock_tx", appended.ID)
	if err != nil {
		t.Fatalf("appended record not persisted: %v", err)
	}
	if ref, _ := rec.Get("ref"); ref != "XFER-0001-ABC123" {
		t.Errorf("expected persisted ref, got %v", ref)
	}
}

func TestReloadPicksUpExternalChanges(t *testing.T) {
	path := writeDataFile(t)
	src, err := source.NewFileSource(path, []types.ViewSchema{issueSchema()})
	if err != nil {
		t.Fatalf("failed to open source: %v", err)
	}
	defer func() { _ = src.Close() }()

	// a second handle on the same file stands in for another process
	writer, err := source.NewFileSource(path, nil)
	if err != nil {
		t.Fatalf("failed to open writer: %v", err)
	}
	defer func() { _ = writer.Close() }()

	if _, err := writer.Append(context.Background(), "issues", types.Record{
		Fields: map[string]interface{}{"code": "ISS-004", "status": "DRAFT"},
	}); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	if got := src.Count("issues"); got != 3 {
		t.Fatalf("expected stale count 3 before reload, got %d", got)
	}
	if err := src.Reload(context.Background()); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if got := src.Count("issues"); got != 4 {
		t.Errorf("expected 4 issues after reload, got %d", got)
	}
}

func TestMissingFileMeansEmptySource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.json")
	src, err := source.NewFileSource(path, nil)
	if err != nil {
		t.Fatalf("missing file should open empty: %v", err)
	}
	defer func() { _ = src.Close() }()

	res, err := src.FetchPage(context.Background(), "issues", types.NewQuery())
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if res.Total != 0 || len(res.Items) != 0 {
		t.Errorf("expected an empty page, got total %d", res.Total)
	}
}
