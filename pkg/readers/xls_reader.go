package readers

import (
	"context"
	"errors"

	"github.com/TFMV/tabmatch/pkg/core"
	"github.com/extrame/xls"
)

// XLSReader implements a reader for legacy BIFF .xls workbooks.
type XLSReader struct {
	path     string
	workbook *xls.WorkBook
}

// NewXLSReader creates a new legacy workbook reader.
func NewXLSReader(config core.ReaderConfig) (core.TableReader, error) {
	if config.Path == "" {
		return nil, errors.New("path is required for XLS reader")
	}

	workbook, err := xls.Open(config.Path, "utf-8")
	if err != nil {
		if isNotExist(err) {
			return nil, &core.IOError{Op: "open", Path: config.Path, Err: err}
		}
		return nil, &core.FormatError{Path: config.Path, Message: "failed to open workbook", Err: err}
	}

	return &XLSReader{path: config.Path, workbook: workbook}, nil
}

// ReadTable reads the first sheet, using its first non-blank row as the header.
func (r *XLSReader) ReadTable(ctx context.Context) (*core.Table, error) {
	if r.workbook.NumSheets() == 0 {
		return nil, &core.FormatError{Path: r.path, Message: "file is empty"}
	}
	sheet := r.workbook.GetSheet(0)
	if sheet == nil {
		return nil, &core.FormatError{Path: r.path, Message: "file is empty"}
	}

	var rows [][]string
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		cells := make([]string, 0, row.LastCol())
		for c := 0; c < row.LastCol(); c++ {
			cells = append(cells, row.Col(c))
		}
		rows = append(rows, cells)
	}

	return buildTable(ctx, r.path, rows)
}

// Close is a no-op; the xls package reads the workbook eagerly.
func (r *XLSReader) Close() error {
	r.workbook = nil
	return nil
}
