package plugins

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/TFMV/tabmatch/internal/console"
	"github.com/TFMV/tabmatch/internal/wizard"
	"github.com/TFMV/tabmatch/pkg/plugin"
	"github.com/TFMV/tabmatch/pkg/prompt"
	"github.com/TFMV/tabmatch/pkg/store"
	"github.com/TFMV/tabmatch/version"
)

func newRegistry(t *testing.T, p prompt.Prompter) (*plugin.Registry, *bytes.Buffer) {
	t.Helper()
	out := &bytes.Buffer{}
	c := console.New(out, false, false)
	s := store.New(filepath.Join(t.TempDir(), store.DefaultPath), zap.NewNop())
	w := wizard.New(p, c, s, zap.NewNop(), wizard.Options{WorkDir: t.TempDir()})
	return Defaults(w, c), out
}

func TestDefaultsOrder(t *testing.T) {
	reg, _ := newRegistry(t, prompt.NewScripted())

	var names []string
	for _, p := range reg.All() {
		names = append(names, p.Name())
	}
	assert.Equal(t, []string{"Data Comparison", "Plugins", "Help", "Version"}, names)
}

func TestDispatchVersion(t *testing.T) {
	reg, out := newRegistry(t, prompt.NewScripted())

	require.NoError(t, reg.Dispatch(context.Background(), "/VERSION"))
	assert.Contains(t, out.String(), version.String())
}

func TestDispatchList(t *testing.T) {
	reg, out := newRegistry(t, prompt.NewScripted())

	require.NoError(t, reg.Dispatch(context.Background(), "plugins"))
	assert.Contains(t, out.String(), "INSTALLED PLUGINS")
	assert.Contains(t, out.String(), "1. Data Comparison - Compare two CSV/Excel files")
	assert.Contains(t, out.String(), "4. Version - Show version information")
}

func TestDispatchHelp(t *testing.T) {
	reg, out := newRegistry(t, prompt.NewScripted())

	require.NoError(t, reg.Dispatch(context.Background(), "/help"))
	assert.Contains(t, out.String(), "/compare, /data-compare")
	assert.Contains(t, out.String(), "/help, /?")
}

func TestDispatchComparisonExit(t *testing.T) {
	p := prompt.NewScripted("2. Exit to Main Menu")
	reg, out := newRegistry(t, p)

	require.NoError(t, reg.Dispatch(context.Background(), "data-compare"))
	assert.Contains(t, out.String(), "DATA COMPARISON & MAPPING TOOL")
	assert.Empty(t, p.Answers)
}

func TestDispatchComparisonError(t *testing.T) {
	reg, _ := newRegistry(t, prompt.NewScripted("1. Start Data Comparison Wizard"))

	err := reg.Dispatch(context.Background(), "compare")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Data Comparison: no reference files found")
}

func TestDispatchUnknown(t *testing.T) {
	reg, _ := newRegistry(t, prompt.NewScripted())

	err := reg.Dispatch(context.Background(), "/nope")
	assert.ErrorIs(t, err, plugin.ErrUnknownCommand)
}
