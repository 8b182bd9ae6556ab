// Package export writes query results to spreadsheet files and reads them back.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"bookrec/internal/metrics"
)

const DefaultSheetName = "Recommendations"

// Error is an export failure. The result being exported is unaffected.
type Error struct {
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string { return fmt.Sprintf("export %s %s: %v", e.Op, e.Path, e.Err) }

func (e *Error) Unwrap() error { return e.Err }

type Format int

const (
	XLSX Format = iota
	CSV
)

// ResolvePath applies the default extension and reports the format.
// Paths without an extension get ".xlsx".
func ResolvePath(path string) (string, Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case "":
		return path + ".xlsx", XLSX, nil
	case ".xlsx":
		return path, XLSX, nil
	case ".csv":
		return path, CSV, nil
	}
	return path, 0, fmt.Errorf("unsupported format %q (want .xlsx or .csv)", filepath.Ext(path))
}

type Exporter struct {
	SheetName string
	// Progress, when set, is called after each data row is written.
	Progress func(done, total int)
	Log      logrus.FieldLogger
	Metrics  *metrics.Metrics
}

// Save writes rows under the fixed header. An empty path means the user
// cancelled: nothing is written and (false, nil) is returned.
func (e *Exporter) Save(path string, rows []Row) (bool, error) {
	if strings.TrimSpace(path) == "" {
		e.Metrics.ObserveExport(metrics.ExportCancelled)
		return false, nil
	}

	resolved, f, err := ResolvePath(path)
	if err != nil {
		e.Metrics.ObserveExport(metrics.ExportError)
		return false, &Error{Op: "save", Path: path, Err: err}
	}

	switch f {
	case CSV:
		err = e.writeCSV(resolved, rows)
	default:
		err = e.writeXLSX(resolved, rows)
	}
	if err != nil {
		e.Metrics.ObserveExport(metrics.ExportError)
		return false, &Error{Op: "save", Path: resolved, Err: err}
	}

	e.Metrics.ObserveExport(metrics.ExportOK)
	if e.Log != nil {
		e.Log.WithFields(logrus.Fields{"path": resolved, "rows": len(rows)}).Info("export.saved")
	}
	return true, nil
}

func (e *Exporter) sheetName() string {
	if e.SheetName == "" {
		return DefaultSheetName
	}
	return e.SheetName
}

func (e *Exporter) progress(done, total int) {
	if e.Progress != nil {
		e.Progress(done, total)
	}
}

func (e *Exporter) writeXLSX(path string, rows []Row) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := e.sheetName()
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("stream writer: %w", err)
	}

	if err := sw.SetRow("A1", toCells(Header)); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []interface{}{r.Title, r.Author, r.Genre, yearCell(r.Year)}
		if err := sw.SetRow(cell, values); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
		e.progress(i+1, len(rows))
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return f.SaveAs(path)
}

// maxExactCell bounds the integers a spreadsheet number cell (a float64
// shown with 15 significant digits) reads back unchanged.
const maxExactCell = 1e15

// yearCell stores numeric years as numbers so spreadsheets sort them
// numerically. Years a number cell cannot hold exactly stay text.
func yearCell(year string) interface{} {
	if y, err := strconv.Atoi(year); err == nil && y > -maxExactCell && y < maxExactCell {
		return y
	}
	return year
}

func toCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}

func (e *Exporter) writeCSV(path string, rows []Row) (err error) {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()

	w := csv.NewWriter(out)
	if err := w.Write(Header); err != nil {
		return err
	}
	for i, r := range rows {
		if err := w.Write(r.Values()); err != nil {
			return err
		}
		e.progress(i+1, len(rows))
	}
	w.Flush()
	return w.Error()
}

// Read loads an exported file back into rows, checking the header.
func Read(path string) ([]Row, error) {
	resolved, f, err := ResolvePath(path)
	if err != nil {
		return nil, &Error{Op: "read", Path: path, Err: err}
	}
	path = resolved

	var records [][]string
	switch f {
	case CSV:
		records, err = readCSV(path)
	default:
		records, err = readXLSX(path)
	}
	if err != nil {
		return nil, &Error{Op: "read", Path: path, Err: err}
	}

	if len(records) == 0 || !slices.Equal(records[0], Header) {
		return nil, &Error{Op: "read", Path: path, Err: fmt.Errorf("missing header %v", Header)}
	}
	rows := make([]Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		rows = append(rows, rowFromValues(rec))
	}
	return rows, nil
}

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets")
	}
	return f.GetRows(sheets[0])
}

func readCSV(path string) ([][]string, error) {
	in, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	r := csv.NewReader(in)
	r.FieldsPerRecord = len(Header)
	return r.ReadAll()
}
