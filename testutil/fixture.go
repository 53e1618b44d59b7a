// Package testutil provides the warehouse fixture shared by the pipeline
// tests: a small, fully-known data set of issues, stock transactions, items,
// units and users served through a FileSource, so tests exercise the same
// collaborator boundary production code runs against.
package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/invlab/stockview/stockview/source"
	"github.com/invlab/stockview/types"
)

// WarehouseData provides typed access to the fixture records.
type WarehouseData struct {
	// Users
	Alice types.Record // storekeeper, full name "Alice Moreau"
	Bruno types.Record // technician
	Carla types.Record // supervisor

	// Items
	Bolt   types.Record // BOLT-M8, searchable via name "hex bolts"
	Nut    types.Record // NUT-M8
	Washer types.Record // WASHER-8, inactive

	// Units
	Pieces types.Record
	Boxes  types.Record

	// Issues; statuses and dates chosen to exercise every filter branch
	DraftIssue     types.Record // DRAFT, qty 5, issued 2024-03-01, by Alice
	IssuedIssue    types.Record // ISSUED, qty 2, issued 2024-03-05, by Bruno
	PendingIssue   types.Record // DRAFT, qty 8, null issued_at, by Alice
	CancelledIssue types.Record // CANCELLED, qty 3, issued 2024-02-20, by Carla

	// Stock transactions; OUT refs run 0006 then 0007
	OutOld    types.Record // OUT-0006-BOLT
	OutLatest types.Record // OUT-0007-BOLT, newest OUT
	InLatest  types.Record // IN-0002-NUT

	// All fixture records by id
	ByID map[string]types.Record
}

// Fixture record construction times. Allocation reads "latest by type" off
// CreatedAt, so the stock transaction times are strictly ordered.
var (
	baseTime  = time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)
	outOldAt  = time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)
	outNewAt  = time.Date(2024, 3, 6, 14, 30, 0, 0, time.UTC)
	inAt      = time.Date(2024, 3, 4, 8, 15, 0, 0, time.UTC)
	draftAt   = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	issuedAt  = time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	cancelAt  = time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC)
)

// Schemas returns the fixture's view schemas, one per entity. Tests that
// need a schema pick it out by entity name.
func Schemas() []types.ViewSchema {
	return []types.ViewSchema{
		{
			Entity: "issues",
			Fields: []types.FieldSpec{
				{Name: "code", Kind: types.StringField, Searchable: true},
				{Name: "status", Kind: types.EnumField, Values: []string{"DRAFT", "ISSUED", "CANCELLED"}},
				{Name: "qty", Kind: types.NumberField},
				{Name: "issued_at", Kind: types.DateField, Nulls: types.NullsOldest},
				{Name: "requested_by", Kind: types.StringField},
				{Name: "note", Kind: types.StringField, Searchable: true},
			},
			Refs: []types.RefSpec{
				{Field: "requested_by", Resource: "users", Display: "full_name"},
			},
			PageSize:    10,
			DefaultSort: &types.SortSpec{Field: "issued_at", Descending: true},
		},
		{
			Entity: "stock_tx",
			Fields: []types.FieldSpec{
				{Name: "ref", Kind: types.StringField, Searchable: true},
				{Name: "tx_type", Kind: types.EnumField, Values: []string{"IN", "OUT", "XFER"}},
				{Name: "item", Kind: types.StringField},
				{Name: "qty", Kind: types.NumberField},
			},
			Refs: []types.RefSpec{
				{Field: "item", Resource: "items", Display: "name"},
			},
		},
		{
			Entity: "items",
			Fields: []types.FieldSpec{
				{Name: "code", Kind: types.StringField, Searchable: true},
				{Name: "name", Kind: types.StringField, Searchable: true},
				{Name: "unit", Kind: types.StringField},
				{Name: "active", Kind: types.BoolField},
			},
			Refs: []types.RefSpec{
				{Field: "unit", Resource: "units", Display: "name"},
			},
		},
		{
			Entity: "units",
			Fields: []types.FieldSpec{
				{Name: "name", Kind: types.StringField, Searchable: true},
				{Name: "symbol", Kind: types.StringField},
			},
		},
		{
			Entity: "users",
			Fields: []types.FieldSpec{
				{Name: "full_name", Kind: types.StringField, Searchable: true},
				{Name: "role", Kind: types.EnumField, Values: []string{"storekeeper", "technician", "supervisor"}},
			},
		},
	}
}

// Schema returns the fixture schema for one entity.
func Schema(t *testing.T, entity string) types.ViewSchema {
	t.Helper()
	for _, s := range Schemas() {
		if s.Entity == entity {
			return s
		}
	}
	t.Fatalf("no fixture schema for entity %q", entity)
	return types.ViewSchema{}
}

// LoadWarehouse builds the fixture data set in a temp file and opens a
// FileSource over it. The source is closed on test cleanup.
func LoadWarehouse(t *testing.T) (*source.FileSource, *WarehouseData) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "warehouse.json")

	// Append stamps records from the source clock; pinning the clock per
	// record keeps the fixture's creation times deterministic, which the
	// latest-by-type lookups depend on.
	clock := baseTime
	src, err := source.NewFileSource(path, Schemas(),
		source.WithTimeFunc(func() time.Time { return clock }))
	if err != nil {
		t.Fatalf("failed to open fixture source: %v", err)
	}
	t.Cleanup(func() { _ = src.Close() })

	w := &WarehouseData{ByID: make(map[string]types.Record)}
	ctx := context.Background()

	add := func(resource, id string, createdAt time.Time, fields map[string]interface{}) types.Record {
		clock = createdAt
		rec, err := src.Append(ctx, resource, types.Record{ID: id, Fields: fields})
		if err != nil {
			t.Fatalf("failed to seed %s/%s: %v", resource, id, err)
		}
		w.ByID[id] = rec
		return rec
	}

	w.Alice = add("users", "u-alice", baseTime, map[string]interface{}{
		"full_name": "Alice Moreau", "role": "storekeeper",
	})
	w.Bruno = add("users", "u-bruno", baseTime, map[string]interface{}{
		"full_name": "Bruno Keita", "role": "technician",
	})
	w.Carla = add("users", "u-carla", baseTime, map[string]interface{}{
		"full_name": "Carla Diaz", "role": "supervisor",
	})

	w.Pieces = add("units", "un-pcs", baseTime, map[string]interface{}{
		"name": "pieces", "symbol": "pcs",
	})
	w.Boxes = add("units", "un-box", baseTime, map[string]interface{}{
		"name": "boxes", "symbol": "bx",
	})

	w.Bolt = add("items", "it-bolt", baseTime, map[string]interface{}{
		"code": "BOLT-M8", "name": "hex bolts", "unit": "un-pcs", "active": true,
	})
	w.Nut = add("items", "it-nut", baseTime, map[string]interface{}{
		"code": "NUT-M8", "name": "hex nuts", "unit": "un-pcs", "active": true,
	})
	w.Washer = add("items", "it-washer", baseTime, map[string]interface{}{
		"code": "WASHER-8", "name": "flat washers", "unit": "un-box", "active": false,
	})

	w.DraftIssue = add("issues", "is-draft", draftAt, map[string]interface{}{
		"code": "ISS-0101", "status": "DRAFT", "qty": float64(5),
		"issued_at": "2024-03-01T00:00:00Z", "requested_by": "u-alice",
		"note": "spare bolts for line 2",
	})
	w.IssuedIssue = add("issues", "is-issued", issuedAt, map[string]interface{}{
		"code": "ISS-0102", "status": "ISSUED", "qty": float64(2),
		"issued_at": "2024-03-05T00:00:00Z", "requested_by": "u-bruno",
		"note": "maintenance kit",
	})
	w.PendingIssue = add("issues", "is-pending", draftAt, map[string]interface{}{
		"code": "ISS-0103", "status": "DRAFT", "qty": float64(8),
		"issued_at": nil, "requested_by": "u-alice",
		"note": "bolts and nuts restock",
	})
	w.CancelledIssue = add("issues", "is-cancelled", cancelAt, map[string]interface{}{
		"code": "ISS-0100", "status": "CANCELLED", "qty": float64(3),
		"issued_at": "2024-02-20T00:00:00Z", "requested_by": "u-carla",
		"note": "duplicate request",
	})

	w.OutOld = add("stock_tx", "tx-out-old", outOldAt, map[string]interface{}{
		"ref": "OUT-0006-BOLT-M8", "tx_type": "OUT", "item": "it-bolt", "qty": float64(10),
	})
	w.OutLatest = add("stock_tx", "tx-out-new", outNewAt, map[string]interface{}{
		"ref": "OUT-0007-BOLT-M8", "tx_type": "OUT", "item": "it-bolt", "qty": float64(4),
	})
	w.InLatest = add("stock_tx", "tx-in", inAt, map[string]interface{}{
		"ref": "IN-0002-NUT-M8", "tx_type": "IN", "item": "it-nut", "qty": float64(50),
	})

	return src, w
}

// Issues returns the fixture issues in creation order.
func (w *WarehouseData) Issues() []types.Record {
	return []types.Record{w.DraftIssue, w.IssuedIssue, w.PendingIssue, w.CancelledIssue}
}

// DraftIssues returns the issues with status DRAFT.
func (w *WarehouseData) DraftIssues() []types.Record {
	return []types.Record{w.DraftIssue, w.PendingIssue}
}
