package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/maltedev/catalog-crawler/internal/models"
)

const (
	DefaultWorkbook = "StoreProduct.xlsx"
	sheetName       = "Sheet1"
)

// Workbook is a spreadsheet sink. Every append opens the file, adds one row
// below the last used row of the first sheet and rewrites the file. Other
// sheets and columns beyond the record's own are carried over untouched.
type Workbook struct {
	mu       sync.Mutex
	filename string
	logger   *slog.Logger
}

func NewWorkbook(filename string) *Workbook {
	if filename == "" {
		filename = DefaultWorkbook
	}
	return &Workbook{
		filename: filename,
		logger:   slog.Default().With("component", "workbook"),
	}
}

func (w *Workbook) Append(ctx context.Context, rec models.AttributeRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	f, sheet, err := openOrCreate(w.filename)
	if err != nil {
		return err
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("failed to read workbook rows: %w", err)
	}
	next := len(rows) + 1
	if next == 1 {
		if err := setRow(f, sheet, 1, models.Columns); err != nil {
			return err
		}
		next = 2
	}
	if err := setRow(f, sheet, next, rec.Values()); err != nil {
		return err
	}

	if err := w.save(f); err != nil {
		return err
	}
	w.logger.Debug("row appended", "file", w.filename, "row", next)
	return nil
}

// openOrCreate opens filename and returns its first sheet, or a new workbook
// when the file does not exist yet.
func openOrCreate(filename string) (*excelize.File, string, error) {
	f, err := excelize.OpenFile(filename)
	if errors.Is(err, fs.ErrNotExist) {
		return excelize.NewFile(), sheetName, nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to open workbook: %w", err)
	}

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		f.Close()
		return nil, "", fmt.Errorf("workbook %s has no sheets", filename)
	}
	return f, sheets[0], nil
}

func (w *Workbook) Close() error { return nil }

// ReadRecords returns every data row of a workbook written by Workbook.
// A missing file holds no records.
func ReadRecords(filename string) ([]models.AttributeRecord, error) {
	rows, err := loadRows(filename)
	if err != nil {
		return nil, err
	}
	records := make([]models.AttributeRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, models.RecordFromValues(row))
	}
	return records, nil
}

// loadRows returns the data rows of the first sheet, header excluded, each
// padded to the full column count.
func loadRows(filename string) ([][]string, error) {
	f, err := excelize.OpenFile(filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read workbook rows: %w", err)
	}
	if len(rows) <= 1 {
		return nil, nil
	}

	data := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		data = append(data, models.RecordFromValues(row).Values())
	}
	return data, nil
}

func (w *Workbook) save(f *excelize.File) error {
	// Write to temp file first for atomicity
	tmpFile := filepath.Join(filepath.Dir(w.filename), ".tmp-"+filepath.Base(w.filename))
	if err := f.SaveAs(tmpFile); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	if err := os.Rename(tmpFile, w.filename); err != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("failed to replace workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}
