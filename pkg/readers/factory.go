// Package readers provides implementations of table readers for CSV, spreadsheet and Parquet files.
package readers

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/TFMV/tabmatch/pkg/core"
)

// Factory creates a reader based on the given configuration.
type Factory struct {
	// registered readers by type
	readers map[string]Creator
}

// Creator is a function that creates a reader from a configuration.
type Creator func(config core.ReaderConfig) (core.TableReader, error)

// NewFactory creates a new reader factory.
func NewFactory() *Factory {
	return &Factory{
		readers: make(map[string]Creator),
	}
}

// Register registers a creator for a reader type.
func (f *Factory) Register(typ string, creator Creator) {
	f.readers[typ] = creator
}

// Create creates a reader based on the given configuration.
func (f *Factory) Create(config core.ReaderConfig) (core.TableReader, error) {
	creator, ok := f.readers[config.Type]
	if !ok {
		return nil, &core.FormatError{Path: config.Path, Message: fmt.Sprintf("unsupported file format: %s", filepath.Ext(config.Path))}
	}
	return creator(config)
}

// Supports reports whether a reader is registered for typ.
func (f *Factory) Supports(typ string) bool {
	_, ok := f.readers[typ]
	return ok
}

// DefaultFactory is the default reader factory with built-in reader types.
var DefaultFactory = NewFactory()

// init registers built-in reader types.
func init() {
	DefaultFactory.Register("csv", NewCSVReader)
	DefaultFactory.Register("xlsx", NewExcelReader)
	DefaultFactory.Register("xls", NewXLSReader)
	DefaultFactory.Register("parquet", NewParquetReader)
}

// DetectType maps a file name to a reader type by extension.
func DetectType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return "csv"
	case ".xlsx", ".xlsm":
		return "xlsx"
	case ".xls":
		return "xls"
	case ".parquet":
		return "parquet"
	default:
		return ""
	}
}

// discoverable lists the extensions offered by ListFiles. Parquet exports can
// be read but are not offered as comparison inputs.
var discoverable = map[string]bool{".csv": true, ".xlsx": true, ".xls": true}

// Read loads the file at path into a Table using the default factory.
func Read(ctx context.Context, path string) (*core.Table, error) {
	typ := DetectType(path)
	if !DefaultFactory.Supports(typ) {
		return nil, &core.FormatError{Path: path, Message: fmt.Sprintf("unsupported file format: %s", filepath.Ext(path))}
	}

	if _, err := os.Stat(path); err != nil {
		return nil, &core.IOError{Op: "open", Path: path, Err: err}
	}

	reader, err := DefaultFactory.Create(core.ReaderConfig{Type: typ, Path: path})
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	return reader.ReadTable(ctx)
}

// ListFiles returns the names of readable tabular files in dir, sorted by
// name, leaving out exclude.
func ListFiles(dir, exclude string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &core.IOError{Op: "list", Path: dir, Err: err}
	}

	var files []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		name := entry.Name()
		if name == exclude || !discoverable[strings.ToLower(filepath.Ext(name))] {
			continue
		}
		files = append(files, name)
	}
	sort.Strings(files)
	return files, nil
}

// buildTable turns spreadsheet rows into a Table. The first non-blank row is
// the header; fully blank rows are skipped.
func buildTable(ctx context.Context, path string, rows [][]string) (*core.Table, error) {
	for len(rows) > 0 && isBlank(rows[0]) {
		rows = rows[1:]
	}
	if len(rows) == 0 {
		return nil, &core.FormatError{Path: path, Message: "file is empty"}
	}

	headers := append([]string(nil), rows[0]...)
	table := &core.Table{Headers: headers}
	for _, row := range rows[1:] {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		if isBlank(row) {
			continue
		}
		table.Rows = append(table.Rows, core.NewRecord(headers, row))
	}
	return table, nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if cell != "" {
			return false
		}
	}
	return true
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
