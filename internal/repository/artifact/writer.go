// Package artifact writes P&L packages to disk as CSV and XLSX.
package artifact

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/kailas-cloud/docusort/internal/domain/finance"
)

const sheetName = "Summary"

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases s and collapses every run of other characters to "-".
func Slugify(s string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

// Files are the paths of one written package.
type Files struct {
	CSVPath  string
	XLSXPath string
}

// Writer stores artifacts under a single directory.
type Writer struct {
	dir string
	now func() time.Time
}

// NewWriter creates the directory if needed.
func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}
	return &Writer{dir: dir, now: time.Now}, nil
}

// Dir returns the output directory.
func (w *Writer) Dir() string { return w.dir }

// Write renders figures to <slug>.csv and <slug>.xlsx, where the slug is
// derived from the property name and the current unix milliseconds. A slug
// already taken on disk gets a "-2", "-3", ... suffix.
func (w *Writer) Write(f finance.Figures, retrievedChunks int) (Files, error) {
	base := Slugify(fmt.Sprintf("%s-%d", f.Property, w.now().UnixMilli()))
	csvFile, files, err := w.claim(base)
	if err != nil {
		return Files{}, err
	}
	rows := sheetRows(f, retrievedChunks)

	_, err = csvFile.WriteString(renderCSV(rows))
	if cerr := csvFile.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return Files{}, fmt.Errorf("write csv: %w", err)
	}
	if err := writeXLSX(files.XLSXPath, rows); err != nil {
		return Files{}, fmt.Errorf("write xlsx: %w", err)
	}
	return files, nil
}

// maxClaimAttempts bounds the suffix search for one base name.
const maxClaimAttempts = 1000

// claim creates the CSV exclusively so concurrent writers with the same base
// never share a package.
func (w *Writer) claim(base string) (*os.File, Files, error) {
	name := base
	for i := 2; i <= maxClaimAttempts+1; i++ {
		files := Files{
			CSVPath:  filepath.Join(w.dir, name+".csv"),
			XLSXPath: filepath.Join(w.dir, name+".xlsx"),
		}
		f, err := os.OpenFile(files.CSVPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, files, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, Files{}, fmt.Errorf("write csv: %w", err)
		}
		name = base + "-" + strconv.Itoa(i)
	}
	return nil, Files{}, fmt.Errorf("write csv: no free name for %s", base)
}

// sheetRows is the shared layout of both formats. Cells are string or float64;
// an empty row is a spacer.
func sheetRows(f finance.Figures, retrievedChunks int) [][]any {
	sources := strings.Join(f.Sources, "; ")
	if sources == "" {
		sources = "N/A"
	}
	return [][]any{
		{"Property", f.Property},
		{"Source Documents", sources},
		{},
		{"Metric", "Amount"},
		{"Revenue", f.Revenue},
		{"Expenses", f.Expenses},
		{"NOI", f.NOI},
		{},
		{"Retrieved Chunks", float64(retrievedChunks)},
	}
}

// renderCSV quotes every text cell and leaves numbers bare.
func renderCSV(rows [][]any) string {
	lines := make([]string, len(rows))
	for i, row := range rows {
		cells := make([]string, len(row))
		for j, cell := range row {
			switch v := cell.(type) {
			case float64:
				cells[j] = strconv.FormatFloat(v, 'f', -1, 64)
			default:
				cells[j] = `"` + strings.ReplaceAll(fmt.Sprint(v), `"`, `""`) + `"`
			}
		}
		lines[i] = strings.Join(cells, ",")
	}
	return strings.Join(lines, "\n")
}

func writeXLSX(path string, rows [][]any) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := row
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
	}
	return f.SaveAs(path)
}
