package writers

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/TFMV/tabmatch/pkg/core"
	"github.com/TFMV/tabmatch/pkg/mapping"
)

// Output formats.
const (
	FormatCSV     = "csv"
	FormatParquet = "parquet"
)

// Kind names which partition of table B an export holds.
type Kind string

const (
	KindMatched   Kind = "matched"
	KindUnmatched Kind = "unmatched"
	KindAll       Kind = "all"
)

// Kinds lists every export kind in menu order.
var Kinds = []Kind{KindMatched, KindUnmatched, KindAll}

// Rows returns the rows of result (or all of tableB) that kind selects.
func (k Kind) Rows(result *core.ComparisonResult, tableB *core.Table) ([]core.Record, error) {
	switch k {
	case KindMatched:
		return result.Matched, nil
	case KindUnmatched:
		return result.Unmatched, nil
	case KindAll:
		return tableB.Rows, nil
	default:
		return nil, fmt.Errorf("unknown export kind: %s", k)
	}
}

// ParseKind parses an export kind name.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == strings.ToLower(strings.TrimSpace(s)) {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown export kind %q (want matched, unmatched or all)", s)
}

// OutputName returns a timestamped file name for an export of kind.
func OutputName(kind Kind, format string, now time.Time) string {
	return fmt.Sprintf("Export_%s-%s.%s", kind, now.Format("2006-01-02T15-04-05"), format)
}

// UniquePath joins dir and name, adding a numeric suffix when the file already exists.
func UniquePath(dir, name string) string {
	path := filepath.Join(dir, name)
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return path
		}
		path = filepath.Join(dir, fmt.Sprintf("%s-%d%s", base, i, ext))
	}
}

// ExportRows projects B-shaped rows through m into outputHeaders order and
// writes them as CSV to path, starting with a UTF-8 BOM.
func ExportRows(ctx context.Context, rows []core.Record, m core.FieldMapping, outputHeaders []string, path string) error {
	return Export(ctx, FormatCSV, rows, m, outputHeaders, path)
}

// Export is ExportRows for any registered format.
func Export(ctx context.Context, format string, rows []core.Record, m core.FieldMapping, outputHeaders []string, path string) error {
	w, err := DefaultFactory.Create(core.WriterConfig{Type: format, Path: path})
	if err != nil {
		return err
	}

	if err := w.Write(ctx, outputHeaders, mapping.ProjectAll(rows, m, outputHeaders)); err != nil {
		w.Close()
		return fmt.Errorf("failed to export %s: %w", path, err)
	}
	return w.Close()
}
