// Package plugins holds the built-in menu entries of the interactive shell.
package plugins

import (
	"context"
	"strings"

	"github.com/TFMV/tabmatch/internal/console"
	"github.com/TFMV/tabmatch/internal/wizard"
	"github.com/TFMV/tabmatch/pkg/plugin"
	"github.com/TFMV/tabmatch/version"
)

// Comparison runs the data comparison wizard.
type Comparison struct {
	Wizard *wizard.Wizard
}

func (p *Comparison) Name() string { return "Data Comparison" }

func (p *Comparison) Description() string {
	return "Compare two CSV/Excel files on key columns, map fields and export results"
}

func (p *Comparison) Commands() []string { return []string{"compare", "data-compare"} }

func (p *Comparison) Execute(ctx context.Context, _ string) error {
	return p.Wizard.Run(ctx)
}

// Version prints the build version.
type Version struct {
	Console *console.Console
}

func (p *Version) Name() string        { return "Version" }
func (p *Version) Description() string { return "Show version information" }
func (p *Version) Commands() []string  { return []string{"version"} }

func (p *Version) Execute(_ context.Context, _ string) error {
	p.Console.Println(version.String())
	return nil
}

// List prints every registered plugin with its description.
type List struct {
	Registry *plugin.Registry
	Console  *console.Console
}

func (p *List) Name() string        { return "Plugins" }
func (p *List) Description() string { return "List installed plugins" }
func (p *List) Commands() []string  { return []string{"plugins", "list"} }

func (p *List) Execute(_ context.Context, _ string) error {
	p.Console.Header("Installed Plugins")
	for i, pl := range p.Registry.All() {
		p.Console.Printf("  %d. %s - %s\n", i+1, pl.Name(), pl.Description())
	}
	p.Console.Println()
	return nil
}

// Help prints the commands each plugin answers to.
type Help struct {
	Registry *plugin.Registry
	Console  *console.Console
}

func (p *Help) Name() string        { return "Help" }
func (p *Help) Description() string { return "Show available commands" }
func (p *Help) Commands() []string  { return []string{"help", "?"} }

func (p *Help) Execute(_ context.Context, _ string) error {
	p.Console.Header("Commands")
	for _, pl := range p.Registry.All() {
		cmds := make([]string, len(pl.Commands()))
		for i, c := range pl.Commands() {
			cmds[i] = "/" + c
		}
		p.Console.Printf("  %-28s %s\n", strings.Join(cmds, ", "), pl.Description())
	}
	p.Console.Println()
	return nil
}

// Defaults returns a registry with the built-in plugins, in menu order.
func Defaults(w *wizard.Wizard, c *console.Console) *plugin.Registry {
	reg := plugin.NewRegistry()
	reg.Register(&Comparison{Wizard: w})
	reg.Register(&List{Registry: reg, Console: c})
	reg.Register(&Help{Registry: reg, Console: c})
	reg.Register(&Version{Console: c})
	return reg
}
