package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TFMV/tabmatch/pkg/plugin"
	"github.com/TFMV/tabmatch/pkg/prompt"
	"github.com/TFMV/tabmatch/pkg/store"
	"github.com/TFMV/tabmatch/version"
)

const fileA = "postId,postContent\n101,a\n102,b\n103,c\n104,d\n105,e\n"

const fileB = "twitterDetails_postId,twitterDetails_postContent\n" +
	"101,t1\n102,t2\n103,t3\n104,t4\n105,t5\n106,t6\n107,t7\n108,t8\n"

// setup runs the test inside a fresh work directory holding the fixtures and
// a config that disables the spinner and colors.
func setup(t *testing.T, answers ...string) *prompt.Scripted {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile("a.csv", []byte(fileA), 0644))
	require.NoError(t, os.WriteFile("b.csv", []byte(fileB), 0644))
	require.NoError(t, os.Mkdir("out", 0755))
	require.NoError(t, os.WriteFile("tabmatch.yaml", []byte(`
export:
  dir: out
ui:
  spinner: false
  color: false
`), 0644))

	p := prompt.NewScripted(answers...)
	old := newPrompter
	newPrompter = func() prompt.Prompter { return p }
	t.Cleanup(func() { newPrompter = old })
	return p
}

func executeCommand(args ...string) (string, error) {
	rootCmd := newRootCommand()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestCLI_Help(t *testing.T) {
	output, err := executeCommand("--help")
	require.NoError(t, err)
	assert.Contains(t, output, "Usage:")
	assert.Contains(t, output, "compare")
	assert.Contains(t, output, "serve")
}

func TestCLI_Version(t *testing.T) {
	output, err := executeCommand("version")
	require.NoError(t, err)
	assert.Contains(t, output, version.String())
}

func TestCLI_CompareBatch(t *testing.T) {
	setup(t)

	output, err := executeCommand("compare", "--a", "a.csv", "--b", "b.csv",
		"--keys-a", "1", "--keys-b", "1", "--export", "matched,unmatched",
		"--save", "--description", "posts", "--report-dir", "out")
	require.NoError(t, err)
	assert.Contains(t, output, "Matched: 5, Unmatched: 3, Total: 8 (62.5%)")

	entries, err := os.ReadDir("out")
	require.NoError(t, err)
	var exports, reports int
	for _, e := range entries {
		switch {
		case strings.HasPrefix(e.Name(), "Export_"):
			exports++
		case strings.HasPrefix(e.Name(), "Report-"):
			reports++
		}
	}
	assert.Equal(t, 2, exports)
	assert.Equal(t, 2, reports)

	jsonReports, err := filepath.Glob(filepath.Join("out", "Report-*.json"))
	require.NoError(t, err)
	require.Len(t, jsonReports, 1)
	output, err = executeCommand("inspect", jsonReports[0])
	require.NoError(t, err)
	assert.Contains(t, output, "File A: a.csv (5 rows)")
	assert.Contains(t, output, "Keys: postId <-> twitterDetails_postId")
	assert.Contains(t, output, "Matched: 5, Unmatched: 3, Total: 8 (62.5%)")

	saved := store.New(store.DefaultPath, nil).Load()
	require.NotNil(t, saved)
	assert.Equal(t, "posts", saved.Description)
	assert.Equal(t, []int{1}, saved.FileAFields)
}

func TestCLI_CompareBatchParquetWithSaved(t *testing.T) {
	setup(t)

	_, err := executeCommand("compare", "--a", "a.csv", "--b", "b.csv",
		"--keys-a", "1", "--keys-b", "1", "--export", "none", "--save")
	require.NoError(t, err)

	output, err := executeCommand("compare", "--a", "a.csv", "--b", "b.csv",
		"--use-saved", "--export", "all", "--format", "parquet",
		"--map", "postContent=twitterDetails_postId")
	require.NoError(t, err)
	assert.Contains(t, output, "Matched: 5")
	assert.Contains(t, output, ".parquet (8 rows)")
}

func TestCLI_CompareBatchErrors(t *testing.T) {
	setup(t)

	_, err := executeCommand("compare", "--a", "a.csv", "--b", "b.csv", "--keys-a", "1", "--keys-b", "1", "--export", "some")
	assert.Error(t, err)

	_, err = executeCommand("compare", "--a", "a.csv", "--b", "b.csv", "--keys-a", "1", "--keys-b", "1", "--format", "xml")
	assert.Error(t, err)

	_, err = executeCommand("compare", "--a", "a.csv")
	assert.Error(t, err)
}

func TestCLI_CompareInteractive(t *testing.T) {
	p := setup(t,
		"1. a.csv",
		"1. b.csv",
		"1", "1",
		"1", "2",
		"2. Unmatched rows only",
		"n",
		"n",
	)

	output, err := executeCommand("compare")
	require.NoError(t, err)
	assert.Empty(t, p.Answers)
	assert.Contains(t, output, "Found 5 matching rows out of 8 total rows")
	assert.Contains(t, output, "Successfully exported 3 unmatched rows")
}

func TestCLI_Menu(t *testing.T) {
	// Version, Data Comparison (exited at once), Help, then Exit.
	p := setup(t, "4", "1", "2. Exit to Main Menu", "3", "5")

	output, err := executeCommand()
	require.NoError(t, err)
	assert.Empty(t, p.Answers)
	assert.Contains(t, output, version.String())
	assert.Contains(t, output, "DATA COMPARISON & MAPPING TOOL")
	assert.Contains(t, output, "/compare, /data-compare")
	assert.Contains(t, output, "Goodbye!")
}

func TestCLI_MenuSurvivesPluginError(t *testing.T) {
	p := setup(t,
		"1",
		"1. Start Data Comparison Wizard",
		"1. a.csv",
		"1. b.csv",
		"1", "1,2", // rejected: wrong count
		"1",
	)
	// The wizard runs out of answers during mapping; the menu reports it and
	// then fails to read the next menu choice.
	output, err := executeCommand()
	require.ErrorIs(t, err, prompt.ErrNoAnswer)
	assert.Contains(t, output, "Data Comparison:")
	assert.Len(t, p.Rejected, 1)
}

func TestCLI_Dispatch(t *testing.T) {
	setup(t)

	output, err := executeCommand("/PLUGINS")
	require.NoError(t, err)
	assert.Contains(t, output, "INSTALLED PLUGINS")

	output, err = executeCommand("plugins")
	require.NoError(t, err)
	assert.Contains(t, output, "Data Comparison")

	_, err = executeCommand("/nope")
	assert.ErrorIs(t, err, plugin.ErrUnknownCommand)
}

func TestCLI_Inspect(t *testing.T) {
	setup(t)

	output, err := executeCommand("inspect", "b.csv", "--rows", "2")
	require.NoError(t, err)
	assert.Contains(t, output, "Number of rows: 8")
	assert.Contains(t, output, "  2. twitterDetails_postContent")
	assert.Contains(t, output, "Row 2: [102, t2]")
	assert.NotContains(t, output, "Row 3:")

	_, err = executeCommand("compare", "--a", "a.csv", "--b", "b.csv",
		"--keys-a", "1", "--keys-b", "1", "--export", "unmatched", "--format", "parquet")
	require.NoError(t, err)
	matches, err := filepath.Glob(filepath.Join("out", "Export_unmatched-*.parquet"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	output, err = executeCommand("inspect", matches[0])
	require.NoError(t, err)
	assert.Contains(t, output, "Type: parquet")
	assert.Contains(t, output, "Number of rows: 3")
	assert.Contains(t, output, "Row 1: [106, t6]")

	_, err = executeCommand("inspect", "missing.csv")
	assert.Error(t, err)
}

func TestCLI_InvalidConfig(t *testing.T) {
	setup(t)
	require.NoError(t, os.WriteFile("bad.yaml", []byte("export:\n  format: xml\n"), 0644))

	_, err := executeCommand("--config", "bad.yaml", "plugins")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported export format")

	_, err = executeCommand("--config", filepath.Join(t.TempDir(), "missing.yaml"), "plugins")
	assert.Error(t, err)
}

func TestCLI_Serve(t *testing.T) {
	setup(t)

	ctx, cancel := context.WithCancel(context.Background())
	rootCmd := newRootCommand()
	rootCmd.SetArgs([]string{"serve", "--port", "0"})
	rootCmd.SetOut(new(bytes.Buffer))

	errCh := make(chan error, 1)
	go func() {
		errCh <- rootCmd.ExecuteContext(ctx)
	}()

	// Give server time to start
	time.Sleep(200 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Test timed out waiting for server shutdown")
	}
}
