package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/TFMV/tabmatch/api"
	"github.com/TFMV/tabmatch/internal/wizard"
	"github.com/TFMV/tabmatch/pkg/core"
	"github.com/TFMV/tabmatch/pkg/writers"
	"github.com/TFMV/tabmatch/report"
	"github.com/TFMV/tabmatch/version"
)

// compareOptions holds the flags of the compare command.
type compareOptions struct {
	fileA       string
	fileB       string
	keysA       string
	keysB       string
	exports     []string
	format      string
	mapping     map[string]string
	useSaved    bool
	save        bool
	description string
	reportDir   string
}

func newCompareCommand(a *app) *cobra.Command {
	opts := &compareOptions{}

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare two files on key columns and export the results",
		Long: `Without --a and --b the interactive comparison wizard starts.

With both files given the comparison runs without prompts. Key columns are
1-based, comma-separated numbers; fields of File A map to the File B column of
the same name, else the same position, unless overridden with --map.`,
		Example: `  tabmatch compare
  tabmatch compare --a posts.csv --b export.xlsx --keys-a 1 --keys-b 3 --export matched,unmatched
  tabmatch compare --a posts.csv --b export.xlsx --use-saved --export all --format parquet`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.fileA == "" && opts.fileB == "" {
				_, err := a.wizard.RunOnce(cmd.Context())
				return err
			}
			return runBatch(cmd, a, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.fileA, "a", "", "reference file (File A)")
	flags.StringVar(&opts.fileB, "b", "", "extraction file (File B)")
	flags.StringVar(&opts.keysA, "keys-a", "", "File A key column numbers, e.g. 1,2")
	flags.StringVar(&opts.keysB, "keys-b", "", "File B key column numbers, e.g. 5,1")
	flags.StringSliceVar(&opts.exports, "export", []string{string(writers.KindMatched)}, "exports to write: matched, unmatched, all (none to skip)")
	flags.StringVar(&opts.format, "format", "", "export format: csv or parquet (default from config)")
	flags.StringToStringVar(&opts.mapping, "map", nil, "field mapping overrides, FileAField=FileBField")
	flags.BoolVar(&opts.useSaved, "use-saved", false, "reuse the saved key columns and mapping when they fit")
	flags.BoolVar(&opts.save, "save", false, "save the key columns and mapping for next time")
	flags.StringVar(&opts.description, "description", "", "description stored with --save")
	flags.StringVar(&opts.reportDir, "report-dir", "", "write JSON and HTML run reports to this directory")
	cmd.MarkFlagsRequiredTogether("a", "b")

	return cmd
}

func runBatch(cmd *cobra.Command, a *app, opts *compareOptions) error {
	kinds, err := parseKinds(opts.exports)
	if err != nil {
		return err
	}

	w := a.wizard
	if opts.format != "" {
		if !writers.DefaultFactory.Supports(opts.format) {
			return &core.ValidationError{Field: "format", Message: fmt.Sprintf("unsupported export format %q", opts.format)}
		}
		w = wizard.New(a.prompter, a.console, a.store, a.log, wizard.Options{
			WorkDir:      a.cfg.Compare.WorkDir,
			ExportDir:    a.cfg.Export.Dir,
			ExportFormat: opts.format,
		})
	}

	summary, err := w.Batch(cmd.Context(), wizard.BatchOptions{
		FileA:       opts.fileA,
		FileB:       opts.fileB,
		KeysA:       opts.keysA,
		KeysB:       opts.keysB,
		UseSaved:    opts.useSaved,
		Mapping:     core.FieldMapping(opts.mapping),
		Exports:     kinds,
		Save:        opts.save,
		Description: opts.description,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Matched: %d, Unmatched: %d, Total: %d (%.1f%%)\n",
		summary.Matched, summary.Unmatched, summary.TotalB, summary.MatchRate())
	for _, e := range summary.Exports {
		fmt.Fprintf(out, "  %s: %s (%d rows)\n", e.Kind, e.Path, e.Rows)
	}

	if opts.reportDir != "" {
		base := filepath.Join(opts.reportDir, "Report-"+summary.StartTime.Format("2006-01-02T15-04-05"))
		if err := report.SaveReports(summary, base+".json", base+".html"); err != nil {
			return fmt.Errorf("saving report: %w", err)
		}
		fmt.Fprintf(out, "Report: %s.json\n", base)
	}
	return nil
}

func parseKinds(names []string) ([]writers.Kind, error) {
	var kinds []writers.Kind
	for _, name := range names {
		if strings.EqualFold(strings.TrimSpace(name), "none") {
			continue
		}
		kind, err := writers.ParseKind(name)
		if err != nil {
			return nil, &core.ValidationError{Field: "export", Message: err.Error()}
		}
		kinds = append(kinds, kind)
	}
	return kinds, nil
}

func newPluginsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "plugins",
		Short: "List installed plugins",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.registry.Dispatch(cmd.Context(), "plugins")
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the version of tabmatch",
		// Printing the version needs no configuration.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}

func newServeCommand(a *app) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the tabmatch HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if port == "" {
				port = a.cfg.Server.Port
			}
			return startServer(cmd.Context(), a, port)
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "", "listen port (default from config)")
	return cmd
}

// startServer runs the API until ctx is cancelled or the process is signalled,
// then shuts down gracefully.
func startServer(ctx context.Context, a *app, port string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := api.NewServer(api.ServerOptions{
		Port:    port,
		Prefork: a.cfg.Server.Prefork,
		Plugins: a.registry,
		Logger:  a.log,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	a.log.Info("Received shutdown signal, stopping server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}

	a.log.Info("Server shutdown successfully", zap.String("port", port))
	return nil
}
