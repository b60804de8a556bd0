// Package excel reads and writes bank statement exports as .xlsx workbooks.
package excel

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"finview/internal/core"
	"finview/internal/log"
	"finview/internal/sources"
)

type Loader struct {
	path  string
	sheet string
	log   *log.Logger
}

var _ sources.Loader = (*Loader)(nil)

// NewLoader reads the first sheet of the workbook at path unless sheet is set.
func NewLoader(path, sheet string, logger *log.Logger) *Loader {
	if logger == nil {
		logger = log.Discard()
	}
	return &Loader{path: path, sheet: sheet, log: logger.WithComponent(log.ComponentSources)}
}

// Load opens the workbook on every call, so edits to the file are picked up.
func (l *Loader) Load(ctx context.Context) (core.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return core.Dataset{}, err
	}
	name := filepath.Base(l.path)
	if _, err := os.Stat(l.path); errors.Is(err, fs.ErrNotExist) {
		l.log.ErrorContext(ctx, "Transactions file not found", log.FieldSource, name)
		return core.Dataset{}, fmt.Errorf("%w: %s", sources.ErrNotFound, l.path)
	}

	f, err := excelize.OpenFile(l.path)
	if err != nil {
		return core.Dataset{}, fmt.Errorf("open workbook %s: %w", name, err)
	}
	defer f.Close()

	sheet := l.sheet
	if sheet == "" {
		list := f.GetSheetList()
		if len(list) == 0 {
			return core.Dataset{}, &sources.SchemaError{Missing: sources.RequiredColumns}
		}
		sheet = list[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return core.Dataset{}, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	var header []string
	if len(rows) > 0 {
		header, rows = rows[0], rows[1:]
	}
	ds, stats, err := sources.Decode(header, rows)
	if err != nil {
		l.log.ErrorContext(ctx, "Transactions file rejected",
			log.FieldOperation, log.OpParse,
			log.FieldSource, name,
			log.FieldError, err)
		return core.Dataset{}, err
	}
	sources.LogStats(ctx, l.log, name, stats)
	return ds, nil
}

// Write stores ds as a single-sheet workbook with the standard export header.
func Write(path string, ds core.Dataset) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	header, rows := sources.Encode(ds)
	if err := setRow(f, sheet, 1, header, nil); err != nil {
		return err
	}
	for i, row := range rows {
		if err := setRow(f, sheet, i+2, row, header); err != nil {
			return err
		}
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

// Money columns are written as numbers so spreadsheets can sum them. Dates
// stay text in the export's own layouts, which is how banks ship them.
var numericColumns = map[string]bool{
	sources.ColOperationAmount: true,
	sources.ColPaymentAmount:   true,
	sources.ColCashback:        true,
	sources.ColBonuses:         true,
	sources.ColRounding:        true,
	sources.ColRoundedAmount:   true,
}

// setRow writes values at row n. Cells under a numeric column of header
// are stored as numbers; a nil header writes plain text.
func setRow(f *excelize.File, sheet string, n int, values, header []string) error {
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return err
	}
	row := make([]any, len(values))
	for i, v := range values {
		row[i] = v
		if i >= len(header) || !numericColumns[header[i]] {
			continue
		}
		if d, err := decimal.NewFromString(v); err == nil {
			row[i] = d.InexactFloat64()
		}
	}
	if err := f.SetSheetRow(sheet, cell, &row); err != nil {
		return fmt.Errorf("write row %d: %w", n, err)
	}
	return nil
}
