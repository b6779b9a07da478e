package wizard

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/TFMV/tabmatch/pkg/compare"
	"github.com/TFMV/tabmatch/pkg/core"
	"github.com/TFMV/tabmatch/pkg/mapping"
	"github.com/TFMV/tabmatch/pkg/readers"
	"github.com/TFMV/tabmatch/pkg/store"
	"github.com/TFMV/tabmatch/pkg/writers"
	"github.com/TFMV/tabmatch/report"
)

// BatchOptions describes a comparison run without prompts.
type BatchOptions struct {
	FileA string
	FileB string

	// KeysA and KeysB are comma-separated 1-based column numbers. Both may be
	// empty when UseSaved is set and a usable saved configuration exists.
	KeysA string
	KeysB string

	// UseSaved replays the saved key columns and mapping when they fit.
	UseSaved bool

	// Mapping entries override the identity mapping (A header -> B header).
	Mapping core.FieldMapping

	Exports []writers.Kind

	// Save writes the configuration used for this run to the store.
	Save        bool
	Description string
}

// Batch runs one comparison from opts, exporting to the configured directory.
func (w *Wizard) Batch(ctx context.Context, opts BatchOptions) (*report.Summary, error) {
	s := newSession()
	s.pathA, s.pathB = opts.FileA, opts.FileB
	var err error

	if s.tableA, err = w.read(ctx, s, s.pathA); err != nil {
		return nil, err
	}
	if s.tableB, err = w.read(ctx, s, s.pathB); err != nil {
		return nil, err
	}

	s.summary = report.NewSummary(filepath.Base(s.pathA), filepath.Base(s.pathB))
	s.summary.TotalA = s.tableA.NumRows()
	s.summary.TotalB = s.tableB.NumRows()

	if err := w.batchKeys(s, opts); err != nil {
		return nil, err
	}
	if err := w.compare(s); err != nil {
		return nil, err
	}

	if err := mapping.ValidateEntries(opts.Mapping, s.tableA.Headers, s.tableB.Headers); err != nil {
		return nil, err
	}
	if s.saved != nil {
		// A saved mapping is used as saved; fields it cannot fill export empty.
		s.mapping = mapping.FromSaved(s.saved)
		if err := mapping.Validate(s.mapping, s.tableA.Headers, s.tableB.Headers); err != nil {
			w.Logger.Warn("Saved field mapping is incomplete for these files", zap.Error(err))
		}
	} else {
		s.mapping = mapping.Identity(s.tableA.Headers, s.tableB.Headers)
	}
	for a, b := range opts.Mapping {
		s.mapping[a] = b
	}
	s.summary.Mapping = s.mapping

	for _, kind := range opts.Exports {
		if err := w.exportKind(ctx, s, kind); err != nil {
			return nil, err
		}
	}

	if opts.Save {
		if _, err := w.Store.Save(compare.ToOrdinals(s.colsA), compare.ToOrdinals(s.colsB), s.mapping, strings.TrimSpace(opts.Description)); err != nil {
			return nil, err
		}
	}

	s.summary.Steps = s.timer.Steps()
	s.summary.Finish()
	return s.summary, nil
}

// batchKeys takes the key columns from the saved configuration when
// UseSaved is set and no keys are given, else from opts. With UseSaved and
// explicit keys, the saved mapping is still reused if its key count matches.
func (w *Wizard) batchKeys(s *session, opts BatchOptions) error {
	var saved *core.SavedConfig
	if opts.UseSaved {
		saved = w.Store.Load()
	}

	if opts.UseSaved && opts.KeysA == "" && opts.KeysB == "" {
		if store.Usable(saved, 0) {
			colsA, errA := compare.FromOrdinals(saved.FileAFields, len(s.tableA.Headers))
			colsB, errB := compare.FromOrdinals(saved.FileBFields, len(s.tableB.Headers))
			if errA == nil && errB == nil {
				s.colsA, s.colsB, s.saved = colsA, colsB, saved
				s.summary.ReusedSaved = true
				return nil
			}
		}
		w.Logger.Warn("No usable saved configuration", zap.String("path", w.Store.Path))
	}

	var err error
	if s.colsA, err = compare.ParseColumns(opts.KeysA, len(s.tableA.Headers)); err != nil {
		return fmt.Errorf("file A keys: %w", err)
	}
	if s.colsB, err = compare.ParseColumns(opts.KeysB, len(s.tableB.Headers)); err != nil {
		return fmt.Errorf("file B keys: %w", err)
	}

	if opts.UseSaved {
		if store.Usable(saved, len(s.colsA)) {
			s.saved = saved
			s.summary.ReusedSaved = true
		} else {
			w.Logger.Warn("Saved configuration does not fit the given keys, ignoring it",
				zap.String("path", w.Store.Path), zap.Int("keys", len(s.colsA)))
		}
	}
	return nil
}

// Compare reads two files and partitions B against A without exporting.
// It backs callers that render results themselves, like the HTTP API.
func Compare(ctx context.Context, pathA, pathB, keysA, keysB string) (*core.Table, *core.Table, *core.ComparisonResult, error) {
	tableA, err := readers.Read(ctx, pathA)
	if err != nil {
		return nil, nil, nil, err
	}
	tableB, err := readers.Read(ctx, pathB)
	if err != nil {
		return nil, nil, nil, err
	}

	colsA, err := compare.ParseColumns(keysA, len(tableA.Headers))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("file A keys: %w", err)
	}
	colsB, err := compare.ParseColumns(keysB, len(tableB.Headers))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("file B keys: %w", err)
	}

	result, err := compare.Compare(tableA, colsA, tableB, colsB)
	if err != nil {
		return nil, nil, nil, err
	}
	return tableA, tableB, result, nil
}
