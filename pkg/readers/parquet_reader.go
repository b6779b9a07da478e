package readers

import (
	"context"
	"errors"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/TFMV/tabmatch/pkg/core"
)

// ParquetReader reads Parquet files, such as tabmatch's own Parquet exports.
// Every value is rendered as its string form; nulls become "".
type ParquetReader struct {
	path        string
	fileReader  *file.Reader
	arrowReader *pqarrow.FileReader
}

// NewParquetReader creates a new Parquet reader.
func NewParquetReader(config core.ReaderConfig) (core.TableReader, error) {
	if config.Path == "" {
		return nil, errors.New("path is required for Parquet reader")
	}

	parquetReader, err := file.OpenParquetFile(config.Path, false)
	if err != nil {
		if isNotExist(err) {
			return nil, &core.IOError{Op: "open", Path: config.Path, Err: err}
		}
		return nil, &core.FormatError{Path: config.Path, Message: "not a Parquet file", Err: err}
	}

	arrowReader, err := pqarrow.NewFileReader(parquetReader, pqarrow.ArrowReadProperties{BatchSize: 10000}, memory.NewGoAllocator())
	if err != nil {
		parquetReader.Close()
		return nil, &core.FormatError{Path: config.Path, Message: "failed to create Arrow reader", Err: err}
	}

	return &ParquetReader{path: config.Path, fileReader: parquetReader, arrowReader: arrowReader}, nil
}

// ReadTable reads all row groups, using the schema's field names as headers.
func (r *ParquetReader) ReadTable(ctx context.Context) (*core.Table, error) {
	schema, err := r.arrowReader.Schema()
	if err != nil {
		return nil, &core.FormatError{Path: r.path, Message: "failed to get schema", Err: err}
	}
	if schema.NumFields() == 0 {
		return nil, &core.FormatError{Path: r.path, Message: "file is empty"}
	}

	header := make([]string, schema.NumFields())
	for i, f := range schema.Fields() {
		header[i] = f.Name
	}
	rows := [][]string{header}

	rr, err := r.arrowReader.GetRecordReader(ctx, nil, nil)
	if err != nil {
		return nil, &core.FormatError{Path: r.path, Message: "failed to read row groups", Err: err}
	}
	defer rr.Release()

	for rr.Next() {
		rec := rr.Record()
		for i := 0; i < int(rec.NumRows()); i++ {
			row := make([]string, rec.NumCols())
			for j, col := range rec.Columns() {
				if !col.IsNull(i) {
					row[j] = col.ValueStr(i)
				}
			}
			rows = append(rows, row)
		}
	}
	if err := rr.Err(); err != nil {
		return nil, &core.FormatError{Path: r.path, Message: "failed to read records", Err: err}
	}

	return buildTable(ctx, r.path, rows)
}

// Close closes the underlying file.
func (r *ParquetReader) Close() error {
	if r.fileReader == nil {
		return nil
	}
	err := r.fileReader.Close()
	r.fileReader = nil
	if err != nil {
		return fmt.Errorf("failed to close Parquet file: %w", err)
	}
	return nil
}
