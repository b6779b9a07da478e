// Package compare implements the composite-key set join between two tables.
package compare

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/TFMV/tabmatch/pkg/core"
)

// Compare partitions tableB's rows into matched and unmatched against the set
// of composite keys built from tableA. keyColsA[i] is paired with keyColsB[i].
// Neither table is modified.
func Compare(tableA *core.Table, keyColsA []int, tableB *core.Table, keyColsB []int) (*core.ComparisonResult, error) {
	if err := validateKeys(tableA, keyColsA, tableB, keyColsB); err != nil {
		return nil, err
	}

	keys := KeySet(tableA, keyColsA)

	result := &core.ComparisonResult{
		Matched:   make([]core.Record, 0),
		Unmatched: make([]core.Record, 0),
	}
	for _, row := range tableB.Rows {
		if _, ok := keys[KeyOf(tableB, row, keyColsB)]; ok {
			result.Matched = append(result.Matched, row)
		} else {
			result.Unmatched = append(result.Unmatched, row)
		}
	}

	return result, nil
}

// KeySet returns the distinct composite keys of every row in table.
func KeySet(table *core.Table, cols []int) map[string]struct{} {
	keys := make(map[string]struct{}, len(table.Rows))
	for _, row := range table.Rows {
		keys[KeyOf(table, row, cols)] = struct{}{}
	}
	return keys
}

// KeyOf joins the values of the selected columns of row with core.KeySeparator.
func KeyOf(table *core.Table, row core.Record, cols []int) string {
	parts := make([]string, len(cols))
	for i, col := range cols {
		parts[i] = table.Value(row, col)
	}
	return strings.Join(parts, core.KeySeparator)
}

func validateKeys(tableA *core.Table, keyColsA []int, tableB *core.Table, keyColsB []int) error {
	if len(keyColsA) == 0 {
		return &core.ValidationError{Field: "file A fields", Message: "at least one key column is required"}
	}
	if len(keyColsA) != len(keyColsB) {
		return &core.ValidationError{
			Field:   "file B fields",
			Message: fmt.Sprintf("expected %d key columns to pair with file A, got %d", len(keyColsA), len(keyColsB)),
		}
	}
	if err := checkRange("file A fields", keyColsA, len(tableA.Headers)); err != nil {
		return err
	}
	return checkRange("file B fields", keyColsB, len(tableB.Headers))
}

func checkRange(field string, cols []int, count int) error {
	for _, col := range cols {
		if col < 0 || col >= count {
			return &core.ValidationError{
				Field:   field,
				Message: fmt.Sprintf("column %d is out of range 1-%d", col+1, count),
			}
		}
	}
	return nil
}

// ParseColumns parses a comma-separated list of 1-based column numbers into
// 0-based indices, each within [1, count].
func ParseColumns(input string, count int) ([]int, error) {
	if strings.TrimSpace(input) == "" {
		return nil, &core.ValidationError{Message: "enter at least one field number"}
	}

	parts := strings.Split(input, ",")
	cols := make([]int, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, &core.ValidationError{Message: fmt.Sprintf("invalid field number %q", part)}
		}
		if n < 1 || n > count {
			return nil, &core.ValidationError{Message: fmt.Sprintf("field number %d is out of range 1-%d", n, count)}
		}
		cols = append(cols, n-1)
	}
	return cols, nil
}

// ToOrdinals converts 0-based indices to the 1-based numbers shown to users.
func ToOrdinals(cols []int) []int {
	out := make([]int, len(cols))
	for i, c := range cols {
		out[i] = c + 1
	}
	return out
}

// FromOrdinals converts 1-based numbers to 0-based indices, rejecting any
// outside [1, count].
func FromOrdinals(ordinals []int, count int) ([]int, error) {
	out := make([]int, len(ordinals))
	for i, n := range ordinals {
		if n < 1 || n > count {
			return nil, &core.ValidationError{Message: fmt.Sprintf("field number %d is out of range 1-%d", n, count)}
		}
		out[i] = n - 1
	}
	return out, nil
}
