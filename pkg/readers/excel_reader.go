package readers

import (
	"context"
	"errors"
	"fmt"

	"github.com/TFMV/tabmatch/pkg/core"
	"github.com/xuri/excelize/v2"
)

// ExcelReader implements a reader for .xlsx workbooks. Only the first sheet is read.
type ExcelReader struct {
	path string
	file *excelize.File
}

// NewExcelReader creates a new workbook reader.
func NewExcelReader(config core.ReaderConfig) (core.TableReader, error) {
	if config.Path == "" {
		return nil, errors.New("path is required for Excel reader")
	}

	file, err := excelize.OpenFile(config.Path)
	if err != nil {
		if isNotExist(err) {
			return nil, &core.IOError{Op: "open", Path: config.Path, Err: err}
		}
		return nil, &core.FormatError{Path: config.Path, Message: "failed to open workbook", Err: err}
	}

	return &ExcelReader{path: config.Path, file: file}, nil
}

// ReadTable reads the first sheet, using its first non-blank row as the header.
func (r *ExcelReader) ReadTable(ctx context.Context) (*core.Table, error) {
	sheets := r.file.GetSheetList()
	if len(sheets) == 0 {
		return nil, &core.FormatError{Path: r.path, Message: "file is empty"}
	}

	rows, err := r.file.GetRows(sheets[0])
	if err != nil {
		return nil, &core.FormatError{Path: r.path, Message: "failed to read sheet " + sheets[0], Err: err}
	}

	return buildTable(ctx, r.path, rows)
}

// Close closes the workbook.
func (r *ExcelReader) Close() error {
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	if err != nil {
		return fmt.Errorf("failed to close workbook: %w", err)
	}
	return nil
}
