package writers

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"

	"github.com/TFMV/tabmatch/pkg/core"
)

// CSVWriter implements a writer for comma-delimited text files. Files it
// closes always start with a UTF-8 BOM.
type CSVWriter struct {
	path   string
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter creates a new CSV writer, truncating any existing file.
func NewCSVWriter(config core.WriterConfig) (core.TableWriter, error) {
	if config.Path == "" {
		return nil, errors.New("path is required for CSV writer")
	}

	file, err := os.Create(config.Path)
	if err != nil {
		return nil, &core.IOError{Op: "create", Path: config.Path, Err: err}
	}

	return &CSVWriter{
		path:   config.Path,
		file:   file,
		writer: csv.NewWriter(file),
	}, nil
}

// Write writes the header row and then every row.
func (w *CSVWriter) Write(ctx context.Context, headers []string, rows [][]string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if err := w.writer.Write(headers); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, row := range rows {
		if err := w.writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	w.writer.Flush()
	return w.writer.Error()
}

// Close flushes pending data, closes the file and guarantees the BOM.
func (w *CSVWriter) Close() error {
	if w.file == nil {
		return nil
	}

	w.writer.Flush()
	err := w.writer.Error()
	if closeErr := w.file.Close(); closeErr != nil && err == nil {
		err = &core.IOError{Op: "close", Path: w.path, Err: closeErr}
	}
	w.file = nil
	if err != nil {
		return err
	}

	return EnsureBOM(w.path)
}
