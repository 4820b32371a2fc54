package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet the report is written to.
const SheetName = "News"

// ExcelWriter is a TableWriter producing .xlsx files.
type ExcelWriter struct {
	file *excelize.File
}

func NewExcelWriter() *ExcelWriter {
	return &ExcelWriter{}
}

func (w *ExcelWriter) CreateTable() error {
	if w.file != nil {
		_ = w.file.Close()
	}
	w.file = excelize.NewFile()
	if err := w.file.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	return nil
}

func (w *ExcelWriter) SetCell(row, col int, value any) error {
	if w.file == nil {
		return errors.New("table not created")
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return w.file.SetCellValue(SheetName, cell, value)
}

func (w *ExcelWriter) Save(path string) error {
	if w.file == nil {
		return errors.New("table not created")
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report dir: %w", err)
		}
	}
	return w.file.SaveAs(path)
}

func (w *ExcelWriter) Close() error {
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

// ReadRows returns every row of a report written by ExcelWriter.
func ReadRows(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return f.GetRows(SheetName)
}
