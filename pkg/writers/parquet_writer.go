package writers

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/TFMV/tabmatch/pkg/core"
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
)

// ParquetWriter implements a writer for Parquet files. Every column is a
// non-nullable UTF-8 string, in output header order.
type ParquetWriter struct {
	writer     *pqarrow.FileWriter
	file       *os.File
	alloc      memory.Allocator
	properties pqarrow.ArrowWriterProperties
}

// NewParquetWriter creates a new Parquet writer.
func NewParquetWriter(config core.WriterConfig) (core.TableWriter, error) {
	if config.Path == "" {
		return nil, errors.New("path is required for Parquet writer")
	}

	file, err := os.Create(config.Path)
	if err != nil {
		return nil, &core.IOError{Op: "create", Path: config.Path, Err: err}
	}

	return &ParquetWriter{
		file:       file,
		alloc:      memory.NewGoAllocator(),
		properties: pqarrow.NewArrowWriterProperties(),
	}, nil
}

// Schema returns the all-string schema for headers.
func Schema(headers []string) *arrow.Schema {
	fields := make([]arrow.Field, len(headers))
	for i, h := range headers {
		fields[i] = arrow.Field{Name: h, Type: arrow.BinaryTypes.String}
	}
	return arrow.NewSchema(fields, nil)
}

// Write converts rows to a single record batch and writes it.
func (w *ParquetWriter) Write(ctx context.Context, headers []string, rows [][]string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	schema := Schema(headers)
	if w.writer == nil {
		writeProps := parquet.NewWriterProperties(
			parquet.WithCompression(compress.Codecs.Snappy),
		)

		writer, err := pqarrow.NewFileWriter(schema, w.file, writeProps, w.properties)
		if err != nil {
			return fmt.Errorf("failed to create Parquet writer: %w", err)
		}
		w.writer = writer
	}

	builder := array.NewRecordBuilder(w.alloc, schema)
	defer builder.Release()

	for _, row := range rows {
		for i := range headers {
			value := ""
			if i < len(row) {
				value = row[i]
			}
			builder.Field(i).(*array.StringBuilder).Append(value)
		}
	}

	record := builder.NewRecord()
	defer record.Release()

	if err := w.writer.Write(record); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}

// Close closes the writer and flushes any pending data.
func (w *ParquetWriter) Close() error {
	var err error

	// Closing the pqarrow writer also closes the file.
	if w.writer != nil {
		err = w.writer.Close()
		w.writer = nil
		w.file = nil
	}

	if w.file != nil {
		if closeErr := w.file.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		w.file = nil
	}

	return err
}
