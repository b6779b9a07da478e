package core

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRecordFillsMissingFields(t *testing.T) {
	rec := NewRecord([]string{"id", "name", "email"}, []string{"1", "alice"})

	assert.Equal(t, Record{"id": "1", "name": "alice", "email": ""}, rec)
}

func TestNewRecordIgnoresExtraFields(t *testing.T) {
	rec := NewRecord([]string{"id"}, []string{"1", "extra"})

	assert.Len(t, rec, 1)
	assert.Equal(t, "1", rec["id"])
}

func TestTableValue(t *testing.T) {
	tbl := &Table{
		Headers: []string{"id", "name"},
		Rows:    []Record{{"id": "7"}},
	}

	assert.Equal(t, "7", tbl.Value(tbl.Rows[0], 0))
	assert.Equal(t, "", tbl.Value(tbl.Rows[0], 1))
	assert.Equal(t, "", tbl.Value(tbl.Rows[0], 5))
	assert.Equal(t, "", tbl.Value(tbl.Rows[0], -1))
}

func TestIOErrorUnwrap(t *testing.T) {
	err := &IOError{Op: "open", Path: "missing.csv", Err: fs.ErrNotExist}

	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.Contains(t, err.Error(), "missing.csv")
}

func TestFormatErrorMessage(t *testing.T) {
	err := &FormatError{Path: "a.txt", Message: "unsupported file format: .txt"}

	assert.Equal(t, "format error [a.txt]: unsupported file format: .txt", err.Error())
}
