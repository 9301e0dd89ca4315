package artifact

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/kailas-cloud/docusort/internal/domain/finance"
)

func TestSlugify(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Maple Court-1700000000000", "maple-court-1700000000000"},
		{"  --Oak & Pine #4--  ", "oak-pine-4"},
		{"Résumé.pdf", "r-sum-pdf"},
		{"", ""},
	}
	for _, tc := range tests {
		if got := Slugify(tc.in); got != tc.want {
			t.Errorf("Slugify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRenderCSV(t *testing.T) {
	f := finance.Figures{
		Property: `The "Oaks"`,
		Revenue:  120000,
		Expenses: 15000,
		NOI:      105000,
		Sources:  []string{"a.txt", "b.txt"},
	}

	got := renderCSV(sheetRows(f, 3))
	want := strings.Join([]string{
		`"Property","The ""Oaks"""`,
		`"Source Documents","a.txt; b.txt"`,
		``,
		`"Metric","Amount"`,
		`"Revenue",120000`,
		`"Expenses",15000`,
		`"NOI",105000`,
		``,
		`"Retrieved Chunks",3`,
	}, "\n")
	if got != want {
		t.Errorf("unexpected csv:\n%s\nwant:\n%s", got, want)
	}
}

func TestRenderCSV_NoSources(t *testing.T) {
	got := renderCSV(sheetRows(finance.Figures{Property: "X", NOI: -500}, 0))
	if !strings.Contains(got, `"Source Documents","N/A"`) {
		t.Errorf("expected N/A sources, got:\n%s", got)
	}
	if !strings.Contains(got, `"NOI",-500`) {
		t.Errorf("expected bare negative number, got:\n%s", got)
	}
}

func TestWriter_Write(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(filepath.Join(dir, "generated"))
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	w.now = func() time.Time { return time.UnixMilli(1700000000000) }

	files, err := w.Write(finance.Figures{
		Property: "Maple Court",
		Revenue:  1000,
		Expenses: 400,
		NOI:      600,
		Sources:  []string{"rent-roll.txt"},
	}, 2)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	if filepath.Base(files.CSVPath) != "maple-court-1700000000000.csv" {
		t.Errorf("unexpected csv name %s", files.CSVPath)
	}
	if filepath.Base(files.XLSXPath) != "maple-court-1700000000000.xlsx" {
		t.Errorf("unexpected xlsx name %s", files.XLSXPath)
	}

	csv, err := os.ReadFile(files.CSVPath)
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if !strings.HasPrefix(string(csv), `"Property","Maple Court"`) {
		t.Errorf("unexpected csv content:\n%s", csv)
	}

	book, err := excelize.OpenFile(files.XLSXPath)
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	defer book.Close()

	if sheets := book.GetSheetList(); len(sheets) != 1 || sheets[0] != "Summary" {
		t.Fatalf("expected single Summary sheet, got %v", sheets)
	}
	cells := map[string]string{"A1": "Property", "B1": "Maple Court", "A7": "NOI", "B7": "600", "B9": "2"}
	for cell, want := range cells {
		got, err := book.GetCellValue("Summary", cell)
		if err != nil {
			t.Fatalf("GetCellValue %s: %v", cell, err)
		}
		if got != want {
			t.Errorf("%s = %q, want %q", cell, got, want)
		}
	}
}

func TestWriter_Write_SameMillisecondKeepsBothPackages(t *testing.T) {
	w, err := NewWriter(t.TempDir())
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	w.now = func() time.Time { return time.UnixMilli(1700000000000) }

	first, err := w.Write(finance.Figures{Property: "Maple Court", Revenue: 1000}, 1)
	if err != nil {
		t.Fatalf("first Write: %v", err)
	}
	second, err := w.Write(finance.Figures{Property: "Maple Court", Revenue: 2000}, 1)
	if err != nil {
		t.Fatalf("second Write: %v", err)
	}

	if first.CSVPath == second.CSVPath || first.XLSXPath == second.XLSXPath {
		t.Fatalf("packages share paths: %+v / %+v", first, second)
	}
	if filepath.Base(second.CSVPath) != "maple-court-1700000000000-2.csv" {
		t.Errorf("unexpected second csv name %s", second.CSVPath)
	}
	for path, want := range map[string]string{first.CSVPath: "1000", second.CSVPath: "2000"} {
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read %s: %v", path, err)
		}
		if !strings.Contains(string(data), `"Revenue",`+want) {
			t.Errorf("%s lost its figures:\n%s", path, data)
		}
	}
}
