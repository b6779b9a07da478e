// Package wizard runs the two-file comparison workflow: pick files, choose
// key columns, compare, map fields, export, and optionally save the setup.
package wizard

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/TFMV/tabmatch/internal/console"
	"github.com/TFMV/tabmatch/metrics"
	"github.com/TFMV/tabmatch/pkg/compare"
	"github.com/TFMV/tabmatch/pkg/core"
	"github.com/TFMV/tabmatch/pkg/mapping"
	"github.com/TFMV/tabmatch/pkg/prompt"
	"github.com/TFMV/tabmatch/pkg/readers"
	"github.com/TFMV/tabmatch/pkg/store"
	"github.com/TFMV/tabmatch/pkg/writers"
	"github.com/TFMV/tabmatch/report"
)

// Options configures where the wizard looks for inputs and writes outputs.
type Options struct {
	WorkDir      string
	ExportDir    string
	ExportFormat string
}

// Wizard drives one interactive comparison session.
type Wizard struct {
	Prompter prompt.Prompter
	Console  *console.Console
	Store    *store.Store
	Logger   *zap.Logger

	opts Options
	now  func() time.Time
}

// New creates a Wizard. Empty option fields default to the working directory and CSV.
func New(p prompt.Prompter, c *console.Console, s *store.Store, logger *zap.Logger, opts Options) *Wizard {
	if opts.WorkDir == "" {
		opts.WorkDir = "."
	}
	if opts.ExportDir == "" {
		opts.ExportDir = opts.WorkDir
	}
	if opts.ExportFormat == "" {
		opts.ExportFormat = writers.FormatCSV
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Wizard{
		Prompter: p,
		Console:  c,
		Store:    s,
		Logger:   logger,
		opts:     opts,
		now:      time.Now,
	}
}

// session is the state accumulated by one pass of the wizard.
type session struct {
	pathA, pathB   string
	tableA, tableB *core.Table
	colsA, colsB   []int
	saved          *core.SavedConfig // non-nil when replayed
	result         *core.ComparisonResult
	mapping        core.FieldMapping
	summary        *report.Summary
	timer          *metrics.Recorder
}

func newSession() *session {
	return &session{timer: metrics.NewRecorder()}
}

// Run shows the wizard's menu and repeats comparisons until the user returns.
func (w *Wizard) Run(ctx context.Context) error {
	w.Console.Header("Data Comparison & Mapping Tool")
	w.Console.Println("Compare and map data between CSV/Excel files")
	w.Console.Println()

	action, err := w.Prompter.Select("What would you like to do?", []string{
		"1. Start Data Comparison Wizard",
		"2. Exit to Main Menu",
	})
	if err != nil || action == 1 {
		return err
	}

	for {
		if _, err := w.RunOnce(ctx); err != nil {
			w.Console.Error("Error in wizard: %v", err)
			w.Logger.Error("Comparison wizard failed", zap.Error(err))
			return err
		}

		next, err := w.Prompter.Select("What would you like to do next?", []string{
			"1. Start New Comparison",
			"2. Return to Main Menu",
		})
		if err != nil || next == 1 {
			return err
		}
	}
}

// RunOnce performs a single comparison from file selection to export.
func (w *Wizard) RunOnce(ctx context.Context) (*report.Summary, error) {
	s := newSession()
	var err error

	if s.pathA, err = w.selectFile("reference", "Select reference file (File A)", ""); err != nil {
		return nil, err
	}
	if s.tableA, err = w.read(ctx, s, s.pathA); err != nil {
		return nil, err
	}
	if s.pathB, err = w.selectFile("extraction", "Select extraction file (File B)", filepath.Base(s.pathA)); err != nil {
		return nil, err
	}
	if s.tableB, err = w.read(ctx, s, s.pathB); err != nil {
		return nil, err
	}

	s.summary = report.NewSummary(filepath.Base(s.pathA), filepath.Base(s.pathB))
	s.summary.TotalA = s.tableA.NumRows()
	s.summary.TotalB = s.tableB.NumRows()

	if err := w.chooseKeys(s); err != nil {
		return nil, err
	}
	if err := w.compare(s); err != nil {
		return nil, err
	}
	if err := w.mapFields(s); err != nil {
		return nil, err
	}
	if err := w.export(ctx, s); err != nil {
		return nil, err
	}
	if err := w.offerSave(s); err != nil {
		return nil, err
	}

	s.summary.Steps = s.timer.Steps()
	s.summary.Finish()
	w.printSummary(s.summary, s.timer.Total())
	if err := w.offerReport(s.summary); err != nil {
		return nil, err
	}
	return s.summary, nil
}

func (w *Wizard) selectFile(kind, message, exclude string) (string, error) {
	files, err := readers.ListFiles(w.opts.WorkDir, exclude)
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", fmt.Errorf("no %s files found in %s", kind, w.opts.WorkDir)
	}

	choices := make([]string, len(files))
	for i, f := range files {
		choices[i] = fmt.Sprintf("%d. %s", i+1, f)
	}
	idx, err := w.Prompter.Select(message, choices)
	if err != nil {
		return "", err
	}
	return filepath.Join(w.opts.WorkDir, files[idx]), nil
}

func (w *Wizard) read(ctx context.Context, s *session, path string) (*core.Table, error) {
	done := s.timer.Track("read " + filepath.Base(path))
	var table *core.Table
	err := w.Console.Spin(fmt.Sprintf("Reading %s...", filepath.Base(path)), func() error {
		var err error
		table, err = readers.Read(ctx, path)
		return err
	})
	if err != nil {
		return nil, err
	}
	done(table.NumRows())

	w.Logger.Info("Loaded table",
		zap.String("file", path),
		zap.Int("columns", len(table.Headers)),
		zap.Int("rows", table.NumRows()))
	w.Console.Success("Loaded %s: %d columns, %d rows", filepath.Base(path), len(table.Headers), table.NumRows())
	return table, nil
}

func (w *Wizard) chooseKeys(s *session) error {
	w.Console.Header("Data Comparison")
	w.Console.Columns("File A (Reference) columns:", s.tableA.Headers)
	w.Console.Columns("File B (Extraction) columns:", s.tableB.Headers)

	if ok, err := w.offerSaved(s); err != nil || ok {
		return err
	}

	answerA, err := w.Prompter.Input("Enter File A field numbers to compare (comma-separated, e.g., 1,2):", func(in string) error {
		_, err := compare.ParseColumns(in, len(s.tableA.Headers))
		return err
	})
	if err != nil {
		return err
	}
	s.colsA, _ = compare.ParseColumns(answerA, len(s.tableA.Headers))

	answerB, err := w.Prompter.Input("Enter File B field numbers to compare (comma-separated, e.g., 5,1):", func(in string) error {
		cols, err := compare.ParseColumns(in, len(s.tableB.Headers))
		if err != nil {
			return err
		}
		if len(cols) != len(s.colsA) {
			return &core.ValidationError{Message: fmt.Sprintf("enter exactly %d field numbers to pair with File A", len(s.colsA))}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.colsB, _ = compare.ParseColumns(answerB, len(s.tableB.Headers))
	return nil
}

// offerSaved replays the saved configuration when it fits the current files
// and the user accepts it.
func (w *Wizard) offerSaved(s *session) (bool, error) {
	saved := w.Store.Load()
	if !store.Usable(saved, 0) {
		return false, nil
	}

	colsA, errA := compare.FromOrdinals(saved.FileAFields, len(s.tableA.Headers))
	colsB, errB := compare.FromOrdinals(saved.FileBFields, len(s.tableB.Headers))
	if errA != nil || errB != nil {
		w.Console.Warn("Saved configuration does not fit these files, ignoring it")
		w.Logger.Warn("Saved configuration out of range", zap.String("path", w.Store.Path))
		return false, nil
	}

	label := "Use saved configuration"
	if saved.Description != "" {
		label += fmt.Sprintf(" %q", saved.Description)
	}
	label += fmt.Sprintf(" (File A %s <-> File B %s)?", names(s.tableA, colsA), names(s.tableB, colsB))
	use, err := w.Prompter.Confirm(label, true)
	if err != nil || !use {
		return false, err
	}

	s.colsA, s.colsB, s.saved = colsA, colsB, saved
	s.summary.ReusedSaved = true
	return true, nil
}

func (w *Wizard) compare(s *session) error {
	done := s.timer.Track("compare")
	result, err := compare.Compare(s.tableA, s.colsA, s.tableB, s.colsB)
	if err != nil {
		return err
	}
	done(s.tableB.NumRows())
	s.result = result
	s.summary.KeyColumnsA = headersAt(s.tableA, s.colsA)
	s.summary.KeyColumnsB = headersAt(s.tableB, s.colsB)
	s.summary.Matched = len(result.Matched)
	s.summary.Unmatched = len(result.Unmatched)

	w.Logger.Info("Comparison complete",
		zap.Strings("keys_a", s.summary.KeyColumnsA),
		zap.Strings("keys_b", s.summary.KeyColumnsB),
		zap.Int("matched", len(result.Matched)),
		zap.Int("unmatched", len(result.Unmatched)))
	w.Console.Success("Found %d matching rows out of %d total rows", len(result.Matched), s.tableB.NumRows())
	return nil
}

func (w *Wizard) mapFields(s *session) error {
	if s.saved != nil {
		s.mapping = mapping.FromSaved(s.saved)
		if err := mapping.Validate(s.mapping, s.tableA.Headers, s.tableB.Headers); err != nil {
			w.Console.Warn("Saved field mapping is incomplete for these files (%v); missing fields export empty", err)
		}
		s.summary.Mapping = s.mapping
		return nil
	}

	w.Console.Header("Field Mapping")
	w.Console.Println("Map File B fields to File A fields:")
	w.Console.Println()

	m, err := mapping.Resolve(w.Prompter, s.tableA.Headers, s.tableB.Headers)
	if err != nil {
		return err
	}
	s.mapping = m
	s.summary.Mapping = m
	return nil
}

var exportChoices = []string{
	"1. Matched rows only",
	"2. Unmatched rows only",
	"3. All rows of File B (remapped)",
	"4. All of the above",
	"5. Skip export",
}

func (w *Wizard) export(ctx context.Context, s *session) error {
	w.Console.Header("Export Results")

	idx, err := w.Prompter.Select("What would you like to export?", exportChoices)
	if err != nil {
		return err
	}

	var kinds []writers.Kind
	switch idx {
	case 0, 1, 2:
		kinds = []writers.Kind{writers.Kinds[idx]}
	case 3:
		kinds = writers.Kinds
	default:
		w.Console.Info("Export skipped")
		return nil
	}

	for _, kind := range kinds {
		if err := w.exportKind(ctx, s, kind); err != nil {
			return err
		}
	}
	return nil
}

func (w *Wizard) exportKind(ctx context.Context, s *session, kind writers.Kind) error {
	rows, err := kind.Rows(s.result, s.tableB)
	if err != nil {
		return err
	}

	done := s.timer.Track("export " + string(kind))
	path := writers.UniquePath(w.opts.ExportDir, writers.OutputName(kind, w.opts.ExportFormat, w.now()))
	if err := writers.Export(ctx, w.opts.ExportFormat, rows, s.mapping, s.tableA.Headers, path); err != nil {
		return err
	}
	done(len(rows))

	s.summary.AddExport(string(kind), w.opts.ExportFormat, path, len(rows))
	w.Logger.Info("Exported rows", zap.String("kind", string(kind)), zap.String("path", path), zap.Int("rows", len(rows)))
	w.Console.Success("Successfully exported %d %s rows to %s", len(rows), kind, filepath.Base(path))
	if abs, err := filepath.Abs(path); err == nil {
		w.Console.Printf("File saved at: %s\n", abs)
	}
	return nil
}

func (w *Wizard) offerSave(s *session) error {
	if s.saved != nil {
		return nil
	}

	save, err := w.Prompter.Confirm("Save this configuration for next time?", false)
	if err != nil || !save {
		return err
	}
	description, err := w.Prompter.Input("Description (optional):", nil)
	if err != nil {
		return err
	}

	if _, err := w.Store.Save(compare.ToOrdinals(s.colsA), compare.ToOrdinals(s.colsB), s.mapping, strings.TrimSpace(description)); err != nil {
		// The exports are already written; a failed save only costs reuse.
		w.Console.Warn("Could not save configuration: %v", err)
		return nil
	}
	w.Console.Success("Configuration saved to %s", w.Store.Path)
	return nil
}

func (w *Wizard) printSummary(sum *report.Summary, stepTime time.Duration) {
	w.Console.Header("Summary")
	w.Console.Printf("  File A:     %s (%d rows)\n", sum.FileA, sum.TotalA)
	w.Console.Printf("  File B:     %s (%d rows)\n", sum.FileB, sum.TotalB)
	w.Console.Printf("  Keys:       %s <-> %s\n", strings.Join(sum.KeyColumnsA, ", "), strings.Join(sum.KeyColumnsB, ", "))
	w.Console.Printf("  Matched:    %d (%.1f%%)\n", sum.Matched, sum.MatchRate())
	w.Console.Printf("  Unmatched:  %d\n", sum.Unmatched)
	w.Console.Printf("  Exports:    %d\n", len(sum.Exports))
	for _, step := range sum.Steps {
		w.Console.Printf("    %-20s %6d rows  %s\n", step.Name, step.Rows, step.Duration.Round(time.Millisecond))
	}
	w.Console.Printf("  Step time:  %s\n", stepTime.Round(time.Millisecond))
	w.Console.Println()
}

func (w *Wizard) offerReport(sum *report.Summary) error {
	save, err := w.Prompter.Confirm("Save a comparison report?", false)
	if err != nil || !save {
		return err
	}

	stamp := w.now().Format("2006-01-02T15-04-05")
	jsonPath := writers.UniquePath(w.opts.ExportDir, "Report-"+stamp+".json")
	htmlPath := writers.UniquePath(w.opts.ExportDir, "Report-"+stamp+".html")
	if err := report.SaveReports(sum, jsonPath, htmlPath); err != nil {
		return &core.IOError{Op: "write report", Path: jsonPath, Err: err}
	}
	w.Console.Success("Report saved to %s and %s", filepath.Base(jsonPath), filepath.Base(htmlPath))
	return nil
}

func headersAt(t *core.Table, cols []int) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = t.Headers[c]
	}
	return out
}

func names(t *core.Table, cols []int) string {
	return strings.Join(headersAt(t, cols), ", ")
}
