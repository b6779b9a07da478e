package readers

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/TFMV/tabmatch/pkg/core"
)

const utf8BOM = "\ufeff"

// CSVReader implements a reader for comma-delimited text files.
type CSVReader struct {
	path   string
	file   *os.File
	reader *csv.Reader
}

// NewCSVReader creates a new CSV reader.
func NewCSVReader(config core.ReaderConfig) (core.TableReader, error) {
	if config.Path == "" {
		return nil, errors.New("path is required for CSV reader")
	}

	file, err := os.Open(config.Path)
	if err != nil {
		return nil, &core.IOError{Op: "open", Path: config.Path, Err: err}
	}

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // short and long records are normalized below
	reader.LazyQuotes = true

	return &CSVReader{
		path:   config.Path,
		file:   file,
		reader: reader,
	}, nil
}

// ReadTable reads the header record and every following record.
func (r *CSVReader) ReadTable(ctx context.Context) (*core.Table, error) {
	header, err := r.reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, &core.FormatError{Path: r.path, Message: "file is empty"}
	}
	if err != nil {
		return nil, &core.FormatError{Path: r.path, Message: "failed to read CSV header", Err: err}
	}

	// Exported files carry a BOM, strip it so they can be read back.
	header[0] = strings.TrimPrefix(header[0], utf8BOM)
	headers := append([]string(nil), header...)

	table := &core.Table{Headers: headers}
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		record, err := r.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &core.FormatError{Path: r.path, Message: "failed to read CSV record", Err: err}
		}
		table.Rows = append(table.Rows, core.NewRecord(headers, record))
	}

	return table, nil
}

// Close closes the underlying file.
func (r *CSVReader) Close() error {
	if r.file != nil {
		err := r.file.Close()
		r.file = nil
		if err != nil {
			return fmt.Errorf("failed to close CSV file: %w", err)
		}
	}
	return nil
}
