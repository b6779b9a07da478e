// Package core provides the core types and interfaces for the tabmatch comparison tool.
package core

import (
	"context"
	"time"
)

// KeySeparator joins the selected column values of a row into a composite key.
// Values that themselves contain the separator can collide; this is accepted.
const KeySeparator = "|"

// Record is a single row keyed by header name. Readers guarantee that every
// header of the owning Table is present, with "" for missing cells.
type Record map[string]string

// Table is the uniform in-memory shape every reader produces.
type Table struct {
	// Headers holds the column names in file order. Uniqueness is not enforced.
	Headers []string

	// Rows holds one Record per data row, in file order.
	Rows []Record
}

// NewRecord builds a Record for headers from positional values, filling
// missing trailing values with "" and ignoring extras.
func NewRecord(headers, values []string) Record {
	rec := make(Record, len(headers))
	for i, h := range headers {
		if i < len(values) {
			rec[h] = values[i]
		} else {
			rec[h] = ""
		}
	}
	return rec
}

// Value returns the cell of row under the header at col, or "" when the
// column or the cell is absent.
func (t *Table) Value(row Record, col int) string {
	if col < 0 || col >= len(t.Headers) {
		return ""
	}
	return row[t.Headers[col]]
}

// NumRows returns the number of data rows.
func (t *Table) NumRows() int {
	return len(t.Rows)
}

// FieldMapping maps each header of table A to the chosen header of table B.
type FieldMapping map[string]string

// ComparisonResult is the partition of table B's rows against table A's key set.
type ComparisonResult struct {
	// Matched holds B rows whose composite key occurs in A.
	Matched []Record

	// Unmatched holds the remaining B rows.
	Unmatched []Record
}

// Total returns the number of partitioned rows.
func (r *ComparisonResult) Total() int {
	return len(r.Matched) + len(r.Unmatched)
}

// SavedConfig is the reusable key-column and mapping record persisted between runs.
type SavedConfig struct {
	// FileAFields and FileBFields are 1-based column numbers, positionally paired.
	FileAFields  []int        `json:"fileAFields"`
	FileBFields  []int        `json:"fileBFields"`
	FieldMapping FieldMapping `json:"fieldMapping"`
	CreatedAt    time.Time    `json:"createdAt"`
	Description  string       `json:"description,omitempty"`
}

// TableReader defines an interface for loading a tabular file into memory.
type TableReader interface {
	// ReadTable materializes the whole file as a Table.
	ReadTable(ctx context.Context) (*Table, error)

	// Close closes the reader and releases resources.
	Close() error
}

// TableWriter defines an interface for writing projected rows to a destination.
type TableWriter interface {
	// Write writes the header row followed by rows, in order.
	Write(ctx context.Context, headers []string, rows [][]string) error

	// Close closes the writer and flushes any pending data.
	Close() error
}

// ReaderConfig provides configuration for creating a reader.
type ReaderConfig struct {
	// Type is the type of the reader (csv, xlsx, xls).
	Type string

	// Path is the path to the file.
	Path string
}

// WriterConfig provides configuration for creating a writer.
type WriterConfig struct {
	// Type is the type of the writer (csv, parquet).
	Type string

	// Path is the path to the output file.
	Path string
}
