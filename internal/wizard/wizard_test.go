package wizard

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/TFMV/tabmatch/internal/console"
	"github.com/TFMV/tabmatch/pkg/core"
	"github.com/TFMV/tabmatch/pkg/prompt"
	"github.com/TFMV/tabmatch/pkg/readers"
	"github.com/TFMV/tabmatch/pkg/store"
	"github.com/TFMV/tabmatch/pkg/writers"
)

const fileA = `postId,postContent
101,first
102,second
103,third
104,fourth
105,fifth
`

const fileB = `twitterDetails_postId,twitterDetails_postContent,author
101,first tweet,ann
102,second tweet,bob
103,third tweet,cid
104,fourth tweet,dee
105,fifth tweet,eve
106,sixth tweet,fay
107,seventh tweet,gus
108,eighth tweet,hal
`

var fixedNow = time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

type fixture struct {
	workDir   string
	exportDir string
	out       *bytes.Buffer
	store     *store.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		workDir:   t.TempDir(),
		exportDir: t.TempDir(),
		out:       &bytes.Buffer{},
	}
	require.NoError(t, os.WriteFile(filepath.Join(f.workDir, "a.csv"), []byte(fileA), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(f.workDir, "b.csv"), []byte(fileB), 0644))
	f.store = store.New(filepath.Join(t.TempDir(), store.DefaultPath), zap.NewNop())
	return f
}

func (f *fixture) wizard(p prompt.Prompter) *Wizard {
	w := New(p, console.New(f.out, false, false), f.store, zap.NewNop(), Options{
		WorkDir:   f.workDir,
		ExportDir: f.exportDir,
	})
	w.now = func() time.Time { return fixedNow }
	return w
}

func (f *fixture) exports(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(f.exportDir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestRunOnceMatchedExport(t *testing.T) {
	f := newFixture(t)
	p := prompt.NewScripted(
		"1. a.csv",
		"1. b.csv",
		"1",
		"1",
		"1. twitterDetails_postId",
		"2. twitterDetails_postContent",
		"1. Matched rows only",
		"y",
		"posts",
		"n",
	)

	summary, err := f.wizard(p).RunOnce(context.Background())
	require.NoError(t, err)
	assert.Empty(t, p.Answers)

	assert.Equal(t, "a.csv", summary.FileA)
	assert.Equal(t, "b.csv", summary.FileB)
	assert.Equal(t, 5, summary.Matched)
	assert.Equal(t, 3, summary.Unmatched)
	assert.Equal(t, []string{"postId"}, summary.KeyColumnsA)
	assert.Equal(t, []string{"twitterDetails_postId"}, summary.KeyColumnsB)
	assert.False(t, summary.ReusedSaved)
	require.Len(t, summary.Exports, 1)

	var steps []string
	for _, step := range summary.Steps {
		steps = append(steps, step.Name)
	}
	assert.Equal(t, []string{"read a.csv", "read b.csv", "compare", "export matched"}, steps)

	assert.Contains(t, f.out.String(), "Found 5 matching rows out of 8 total rows")
	assert.Contains(t, f.out.String(), "Successfully exported 5 matched rows")
	assert.Contains(t, f.out.String(), "Step time:")

	name := writers.OutputName(writers.KindMatched, writers.FormatCSV, fixedNow)
	assert.Equal(t, []string{name}, f.exports(t))

	raw, err := os.ReadFile(filepath.Join(f.exportDir, name))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(raw, writers.BOM))

	table, err := readers.Read(context.Background(), filepath.Join(f.exportDir, name))
	require.NoError(t, err)
	assert.Equal(t, []string{"postId", "postContent"}, table.Headers)
	require.Equal(t, 5, table.NumRows())
	assert.Equal(t, "first tweet", table.Rows[0]["postContent"])

	saved := f.store.Load()
	require.NotNil(t, saved)
	assert.Equal(t, []int{1}, saved.FileAFields)
	assert.Equal(t, []int{1}, saved.FileBFields)
	assert.Equal(t, "posts", saved.Description)
	assert.Equal(t, "twitterDetails_postContent", saved.FieldMapping["postContent"])
}

func TestRunOnceReplaysSavedConfig(t *testing.T) {
	f := newFixture(t)
	_, err := f.store.Save([]int{1}, []int{1}, core.FieldMapping{
		"postId":      "twitterDetails_postId",
		"postContent": "author",
	}, "by author")
	require.NoError(t, err)

	p := prompt.NewScripted(
		"1. a.csv",
		"1. b.csv",
		"", // accept saved configuration
		"4. All of the above",
		"y", // save report
	)

	summary, err := f.wizard(p).RunOnce(context.Background())
	require.NoError(t, err)
	assert.Empty(t, p.Answers)
	assert.True(t, summary.ReusedSaved)
	assert.Equal(t, "author", summary.Mapping["postContent"])
	require.Len(t, summary.Exports, 3)
	assert.Equal(t, 5, summary.Exports[0].Rows)
	assert.Equal(t, 3, summary.Exports[1].Rows)
	assert.Equal(t, 8, summary.Exports[2].Rows)

	assert.Contains(t, p.Asked[2], `"by author"`)
	assert.Len(t, f.exports(t), 5)
	assert.FileExists(t, filepath.Join(f.exportDir, "Report-2024-03-01T12-30-00.json"))
	assert.FileExists(t, filepath.Join(f.exportDir, "Report-2024-03-01T12-30-00.html"))

	table, err := readers.Read(context.Background(), summary.Exports[1].Path)
	require.NoError(t, err)
	assert.Equal(t, []string{"fay", "gus", "hal"}, []string{
		table.Rows[0]["postContent"], table.Rows[1]["postContent"], table.Rows[2]["postContent"],
	})
}

func TestRunOnceSavedConfigOutOfRange(t *testing.T) {
	f := newFixture(t)
	_, err := f.store.Save([]int{9}, []int{9}, core.FieldMapping{}, "")
	require.NoError(t, err)

	p := prompt.NewScripted(
		"1. a.csv",
		"1. b.csv",
		"2",
		"2",
		"1", "1",
		"5. Skip export",
		"n",
		"n",
	)

	summary, err := f.wizard(p).RunOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, summary.ReusedSaved)
	assert.Empty(t, summary.Exports)
	assert.Equal(t, 0, summary.Matched)
	assert.Contains(t, f.out.String(), "Saved configuration does not fit these files")
	assert.Empty(t, f.exports(t))
}

func TestRunOnceRepromptsInvalidKeys(t *testing.T) {
	f := newFixture(t)
	p := prompt.NewScripted(
		"1. a.csv",
		"1. b.csv",
		"abc", "9", "1",
		"1,2", "1",
		"1", "2",
		"5. Skip export",
		"n",
		"n",
	)

	summary, err := f.wizard(p).RunOnce(context.Background())
	require.NoError(t, err)
	assert.Len(t, p.Rejected, 3)
	assert.Equal(t, 5, summary.Matched)
}

func TestRunOnceNoFiles(t *testing.T) {
	f := newFixture(t)
	w := f.wizard(prompt.NewScripted())
	w.opts.WorkDir = t.TempDir()

	_, err := w.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no reference files found")
}

func TestRunOnceUnreadableFile(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.WriteFile(filepath.Join(f.workDir, "0-empty.csv"), nil, 0644))

	_, err := f.wizard(prompt.NewScripted("1. 0-empty.csv")).RunOnce(context.Background())
	var formatErr *core.FormatError
	require.ErrorAs(t, err, &formatErr)
}

func TestRunExitsFromMenu(t *testing.T) {
	f := newFixture(t)
	p := prompt.NewScripted("2. Exit to Main Menu")

	require.NoError(t, f.wizard(p).Run(context.Background()))
	assert.Len(t, p.Asked, 1)
}

func TestRunLoopsUntilReturn(t *testing.T) {
	f := newFixture(t)
	once := []string{"1. a.csv", "1. b.csv", "1", "1", "1", "2", "5. Skip export", "n", "n"}
	answers := []string{"1. Start Data Comparison Wizard"}
	answers = append(answers, once...)
	answers = append(answers, "1. Start New Comparison")
	answers = append(answers, once...)
	answers = append(answers, "2. Return to Main Menu")
	p := prompt.NewScripted(answers...)

	require.NoError(t, f.wizard(p).Run(context.Background()))
	assert.Empty(t, p.Answers)
}

func TestRunReportsFailure(t *testing.T) {
	f := newFixture(t)
	p := prompt.NewScripted("1. Start Data Comparison Wizard", "1. a.csv")

	err := f.wizard(p).Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, prompt.ErrNoAnswer))
	assert.Contains(t, f.out.String(), "Error in wizard")
}

func TestBatch(t *testing.T) {
	f := newFixture(t)
	w := f.wizard(prompt.NewScripted())

	summary, err := w.Batch(context.Background(), BatchOptions{
		FileA:   filepath.Join(f.workDir, "a.csv"),
		FileB:   filepath.Join(f.workDir, "b.csv"),
		KeysA:   "1",
		KeysB:   "1",
		Mapping: core.FieldMapping{"postContent": "author"},
		Exports: []writers.Kind{writers.KindUnmatched},
		Save:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Unmatched)
	assert.Equal(t, "twitterDetails_postId", summary.Mapping["postId"])
	assert.Equal(t, "author", summary.Mapping["postContent"])
	require.Len(t, summary.Exports, 1)

	table, err := readers.Read(context.Background(), summary.Exports[0].Path)
	require.NoError(t, err)
	assert.Equal(t, "106", table.Rows[0]["postId"])
	assert.Equal(t, "fay", table.Rows[0]["postContent"])

	replay, err := w.Batch(context.Background(), BatchOptions{
		FileA:    filepath.Join(f.workDir, "a.csv"),
		FileB:    filepath.Join(f.workDir, "b.csv"),
		UseSaved: true,
	})
	require.NoError(t, err)
	assert.True(t, replay.ReusedSaved)
	assert.Equal(t, 5, replay.Matched)
	assert.Equal(t, "author", replay.Mapping["postContent"])
}

func TestBatchSavedMappingWithMissingColumn(t *testing.T) {
	f := newFixture(t)
	_, err := f.store.Save([]int{1}, []int{1}, core.FieldMapping{
		"postId":      "twitterDetails_postId",
		"postContent": "gone_column",
	}, "stale")
	require.NoError(t, err)

	summary, err := f.wizard(prompt.NewScripted()).Batch(context.Background(), BatchOptions{
		FileA:    filepath.Join(f.workDir, "a.csv"),
		FileB:    filepath.Join(f.workDir, "b.csv"),
		UseSaved: true,
		Exports:  []writers.Kind{writers.KindMatched},
	})
	require.NoError(t, err)
	assert.True(t, summary.ReusedSaved)
	assert.Equal(t, "gone_column", summary.Mapping["postContent"])
	require.Len(t, summary.Exports, 1)

	table, err := readers.Read(context.Background(), summary.Exports[0].Path)
	require.NoError(t, err)
	require.Len(t, table.Rows, 5)
	assert.Equal(t, "101", table.Rows[0]["postId"])
	assert.Equal(t, "", table.Rows[0]["postContent"])
}

func TestBatchSavedMappingWithExplicitKeys(t *testing.T) {
	f := newFixture(t)
	w := f.wizard(prompt.NewScripted())
	opts := BatchOptions{
		FileA:    filepath.Join(f.workDir, "a.csv"),
		FileB:    filepath.Join(f.workDir, "b.csv"),
		KeysA:    "1",
		KeysB:    "1",
		UseSaved: true,
	}

	// Two saved key columns do not fit one given key column.
	_, err := f.store.Save([]int{1, 2}, []int{1, 2}, core.FieldMapping{"postContent": "author"}, "")
	require.NoError(t, err)
	summary, err := w.Batch(context.Background(), opts)
	require.NoError(t, err)
	assert.False(t, summary.ReusedSaved)
	assert.Equal(t, "twitterDetails_postContent", summary.Mapping["postContent"])

	_, err = f.store.Save([]int{2}, []int{3}, core.FieldMapping{"postContent": "author"}, "")
	require.NoError(t, err)
	summary, err = w.Batch(context.Background(), opts)
	require.NoError(t, err)
	assert.True(t, summary.ReusedSaved)
	assert.Equal(t, []string{"postId"}, summary.KeyColumnsA)
	assert.Equal(t, "author", summary.Mapping["postContent"])
}

func TestBatchInvalidInput(t *testing.T) {
	f := newFixture(t)
	w := f.wizard(prompt.NewScripted())
	base := BatchOptions{
		FileA: filepath.Join(f.workDir, "a.csv"),
		FileB: filepath.Join(f.workDir, "b.csv"),
		KeysA: "1",
		KeysB: "1",
	}

	tests := map[string]func(o *BatchOptions){
		"missing keys":    func(o *BatchOptions) { o.KeysA = "" },
		"key count":       func(o *BatchOptions) { o.KeysB = "1,2" },
		"key range":       func(o *BatchOptions) { o.KeysB = "4" },
		"unknown mapping": func(o *BatchOptions) { o.Mapping = core.FieldMapping{"postId": "nope"} },
		"unknown source":  func(o *BatchOptions) { o.Mapping = core.FieldMapping{"nope": "author"} },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			opts := base
			mutate(&opts)
			_, err := w.Batch(context.Background(), opts)
			var validationErr *core.ValidationError
			require.ErrorAs(t, err, &validationErr)
		})
	}
}

func TestCompare(t *testing.T) {
	f := newFixture(t)
	tableA, tableB, result, err := Compare(context.Background(),
		filepath.Join(f.workDir, "a.csv"), filepath.Join(f.workDir, "b.csv"), "1", "1")
	require.NoError(t, err)
	assert.Equal(t, 5, tableA.NumRows())
	assert.Equal(t, 8, tableB.NumRows())
	assert.Len(t, result.Matched, 5)
	assert.Len(t, result.Unmatched, 3)

	_, _, _, err = Compare(context.Background(),
		filepath.Join(f.workDir, "a.csv"), filepath.Join(f.workDir, "missing.csv"), "1", "1")
	var ioErr *core.IOError
	require.ErrorAs(t, err, &ioErr)
}
