package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/TFMV/tabmatch/config"
	"github.com/TFMV/tabmatch/internal/console"
	"github.com/TFMV/tabmatch/internal/plugins"
	"github.com/TFMV/tabmatch/internal/wizard"
	"github.com/TFMV/tabmatch/logger"
	"github.com/TFMV/tabmatch/pkg/plugin"
	"github.com/TFMV/tabmatch/pkg/prompt"
	"github.com/TFMV/tabmatch/pkg/store"
)

// newPrompter is replaced in tests.
var newPrompter = func() prompt.Prompter { return prompt.NewSurvey() }

// app is the wiring shared by every command.
type app struct {
	cfg      *config.Config
	log      *zap.Logger
	console  *console.Console
	prompter prompt.Prompter
	store    *store.Store
	wizard   *wizard.Wizard
	registry *plugin.Registry
}

func newApp(cmd *cobra.Command, configPath string) (*app, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}

	logger.ResetLogger()
	logger.SetLogPath(cfg.Log.File)
	if err := logger.SetLevel(cfg.Log.Level); err != nil {
		return nil, err
	}
	log := logger.GetLogger()

	a := &app{
		cfg:      cfg,
		log:      log,
		console:  console.New(cmd.OutOrStdout(), cfg.UI.Color, cfg.UI.Spinner),
		prompter: newPrompter(),
	}

	storePath := cfg.Compare.ConfigFile
	if !filepath.IsAbs(storePath) {
		storePath = filepath.Join(cfg.Compare.WorkDir, storePath)
	}
	a.store = store.New(storePath, log)
	a.wizard = wizard.New(a.prompter, a.console, a.store, log, wizard.Options{
		WorkDir:      cfg.Compare.WorkDir,
		ExportDir:    cfg.Export.Dir,
		ExportFormat: cfg.Export.Format,
	})
	a.registry = plugins.Defaults(a.wizard, a.console)
	return a, nil
}

func newRootCommand() *cobra.Command {
	var configPath string
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "tabmatch [command]",
		Short: "tabmatch compares and maps tabular files",
		Long: `tabmatch compares two CSV/Excel files on key columns, splits the second
file into rows that match the first and rows that do not, maps fields between
the two layouts and exports the result as CSV or Parquet.

Run without arguments for the interactive menu, or pass a plugin command such
as /compare or /help.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := newApp(cmd, configPath)
			if err != nil {
				return err
			}
			*a = *loaded
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return a.registry.Dispatch(cmd.Context(), args[0])
			}
			return a.menu(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default: ./tabmatch.yaml if present)")

	rootCmd.AddCommand(newCompareCommand(a))
	rootCmd.AddCommand(newPluginsCommand(a))
	rootCmd.AddCommand(newServeCommand(a))
	rootCmd.AddCommand(newInspectCommand())
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

// menu shows the plugin list until the user exits. Plugin failures are
// reported and the menu is shown again.
func (a *app) menu(cmd *cobra.Command) error {
	a.console.Header("tabmatch")

	for {
		all := a.registry.All()
		options := make([]string, 0, len(all)+1)
		for i, p := range all {
			options = append(options, fmt.Sprintf("%d. %s - %s", i+1, p.Name(), p.Description()))
		}
		options = append(options, fmt.Sprintf("%d. Exit", len(all)+1))

		idx, err := a.prompter.Select("Select an option:", options)
		if errors.Is(err, prompt.ErrInterrupted) {
			return nil
		}
		if err != nil {
			return err
		}
		if idx == len(all) {
			a.console.Info("Goodbye!")
			return nil
		}

		p := all[idx]
		if err := p.Execute(cmd.Context(), p.Commands()[0]); err != nil {
			a.console.Error("%s: %v", p.Name(), err)
			a.log.Error("Plugin failed", zap.String("plugin", p.Name()), zap.Error(err))
		}
	}
}
