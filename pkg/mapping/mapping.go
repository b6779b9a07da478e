// Package mapping builds and applies the correspondence from table A's
// headers to table B's headers.
package mapping

import (
	"fmt"
	"slices"
	"sort"

	"github.com/TFMV/tabmatch/pkg/core"
	"github.com/TFMV/tabmatch/pkg/prompt"
)

// Resolve asks once per header of A which header of B feeds it.
func Resolve(p prompt.Prompter, headersA, headersB []string) (core.FieldMapping, error) {
	if len(headersB) == 0 {
		return nil, &core.ValidationError{Field: "file B", Message: "has no columns to map"}
	}

	choices := make([]string, len(headersB))
	for i, h := range headersB {
		choices[i] = fmt.Sprintf("%d. %s", i+1, h)
	}

	m := make(core.FieldMapping, len(headersA))
	for _, h := range headersA {
		idx, err := p.Select(fmt.Sprintf("Map File A field %q to File B field:", h), choices)
		if err != nil {
			return nil, fmt.Errorf("mapping field %q: %w", h, err)
		}
		m[h] = headersB[idx]
	}
	return m, nil
}

// FromSaved returns a copy of a previously saved mapping. Entries for headers
// that no longer exist are kept; Project treats them as empty.
func FromSaved(saved *core.SavedConfig) core.FieldMapping {
	m := make(core.FieldMapping, len(saved.FieldMapping))
	for k, v := range saved.FieldMapping {
		m[k] = v
	}
	return m
}

// Identity maps each header of A to the identically named header of B, else
// to B's header at the same position, else to B's first header.
func Identity(headersA, headersB []string) core.FieldMapping {
	byName := make(map[string]bool, len(headersB))
	for _, h := range headersB {
		byName[h] = true
	}

	m := make(core.FieldMapping, len(headersA))
	for i, h := range headersA {
		switch {
		case byName[h]:
			m[h] = h
		case i < len(headersB):
			m[h] = headersB[i]
		case len(headersB) > 0:
			m[h] = headersB[0]
		}
	}
	return m
}

// Validate reports headers of A without an entry, or entries pointing outside B.
func Validate(m core.FieldMapping, headersA, headersB []string) error {
	inB := make(map[string]bool, len(headersB))
	for _, h := range headersB {
		inB[h] = true
	}
	for _, h := range headersA {
		target, ok := m[h]
		if !ok {
			return &core.ValidationError{Field: "field mapping", Message: fmt.Sprintf("no mapping for %q", h)}
		}
		if !inB[target] {
			return &core.ValidationError{Field: "field mapping", Message: fmt.Sprintf("%q maps to unknown column %q", h, target)}
		}
	}
	return nil
}

// ValidateEntries checks only the entries of m: each source must be a header
// of A and each target a header of B. Headers of A without an entry are fine.
func ValidateEntries(m core.FieldMapping, headersA, headersB []string) error {
	sources := make([]string, 0, len(m))
	for a := range m {
		sources = append(sources, a)
	}
	sort.Strings(sources)

	for _, a := range sources {
		if !slices.Contains(headersA, a) {
			return &core.ValidationError{Field: "field mapping", Message: fmt.Sprintf("unknown File A column %q", a)}
		}
		if !slices.Contains(headersB, m[a]) {
			return &core.ValidationError{Field: "field mapping", Message: fmt.Sprintf("%q maps to unknown column %q", a, m[a])}
		}
	}
	return nil
}

// Project reads row through m into outputHeaders order. Unmapped headers and
// absent source cells yield "".
func Project(row core.Record, m core.FieldMapping, outputHeaders []string) []string {
	out := make([]string, len(outputHeaders))
	for i, h := range outputHeaders {
		if src, ok := m[h]; ok {
			out[i] = row[src]
		}
	}
	return out
}

// ProjectAll projects every row, preserving order.
func ProjectAll(rows []core.Record, m core.FieldMapping, outputHeaders []string) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = Project(row, m, outputHeaders)
	}
	return out
}
