package export_test

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/invlab/stockview/stockview/export"
	"github.com/invlab/stockview/stockview/view"
	"github.com/invlab/stockview/types"
)

func exportSchema() *types.ViewSchema {
	return &types.ViewSchema{
		Entity: "issues",
		Fields: []types.FieldSpec{
			{Name: "code", Kind: types.StringField},
			{Name: "status", Kind: types.EnumField, Values: []string{"DRAFT", "ISSUED"}},
			{Name: "qty", Kind: types.NumberField},
		},
	}
}

func composedModel() view.Model {
	return view.Model{
		Rows: []types.Record{
			{ID: "i1", Fields: map[string]interface{}{"code": "ISS-001", "status": "DRAFT", "qty": float64(5)}},
			{ID: "i2", Fields: map[string]interface{}{"code": "ISS-002", "status": "ISSUED", "qty": nil}},
		},
		TotalFiltered: 2,
		TotalPages:    1,
		Page:          1,
		PageSize:      10,
	}
}

func TestExportCSVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "issues.csv")

	written, err := export.View(composedModel(), exportSchema(), export.Options{
		Format: export.CSV,
		Path:   path,
		Header: true,
	})
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if written != path {
		t.Errorf("expected path %q, got %q", path, written)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = f.Close() }()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("failed to read csv back: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(rows))
	}
	if got := strings.Join(rows[0], ","); got != "id,code,status,qty" {
		t.Errorf("unexpected header %q", got)
	}
	if got := strings.Join(rows[1], ","); got != "i1,ISS-001,DRAFT,5" {
		t.Errorf("unexpected first row %q", got)
	}
	// the null qty exports as an empty cell
	if rows[2][3] != "" {
		t.Errorf("expected empty cell for null value, got %q", rows[2][3])
	}
}

func TestExportXLSXRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "issues.xlsx")

	if _, err := export.View(composedModel(), exportSchema(), export.Options{
		Format: export.XLSX,
		Path:   path,
		Header: true,
	}); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	wb, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("failed to open workbook: %v", err)
	}
	defer func() { _ = wb.Close() }()

	if got := wb.GetSheetName(0); got != "issues" {
		t.Errorf("expected sheet named after the entity, got %q", got)
	}
	rows, err := wb.GetRows("issues")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(rows))
	}
	if rows[1][1] != "ISS-001" {
		t.Errorf("expected ISS-001 in first data row, got %q", rows[1][1])
	}
}

func TestExportSelectedColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codes.csv")

	if _, err := export.View(composedModel(), exportSchema(), export.Options{
		Path:    path,
		Columns: []string{"code"},
	}); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	got := strings.TrimSpace(string(raw))
	if got != "ISS-001\nISS-002" {
		t.Errorf("expected only the code column, got %q", got)
	}
}

func TestParseFormat(t *testing.T) {
	cases := []struct {
		in      string
		want    export.Format
		wantErr bool
	}{
		{"csv", export.CSV, false},
		{"", export.CSV, false},
		{"XLSX", export.XLSX, false},
		{"pdf", "", true},
	}
	for _, tc := range cases {
		got, err := export.ParseFormat(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseFormat(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseFormat(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestGenerateFilename(t *testing.T) {
	name := export.GenerateFilename("Stock Tx!", "csv")
	if !strings.HasPrefix(name, "stock-tx-") || !strings.HasSuffix(name, ".csv") {
		t.Errorf("unexpected generated name %q", name)
	}
	if !strings.Contains(name, time.Now().UTC().Format("2006")) {
		t.Errorf("expected a UTC timestamp in %q", name)
	}
}
