package app

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nonomal/HostlistsRegistry/internal/watch"
	"github.com/nonomal/HostlistsRegistry/pkg/errors"
	"github.com/nonomal/HostlistsRegistry/pkg/logging"
	"github.com/nonomal/HostlistsRegistry/pkg/reconciler"
)

// NewRestoreCommand creates the restore subcommand.
func (a *App) NewRestoreCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Restore definition files removed from the services directory",
		Long: `Restore loads the built services artifact, indexes the definition files
present on disk and writes back every declared service whose file is missing.
Files already on disk are never modified.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			report, err := a.Restore(cmd.Context(), mustGetBool(cmd, "dry-run"))
			if err != nil {
				return err
			}
			a.printReport(cmd, report)
			return nil
		},
	}
	cmd.Flags().Bool("dry-run", false, "report missing services without writing them")
	return cmd
}

// NewCheckCommand creates the check subcommand.
func (a *App) NewCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Fail when declared services have no definition file",
		Long: `Check runs the same comparison as restore without writing anything and
exits with an error when any declared service is missing from disk.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			report, err := a.Restore(cmd.Context(), true)
			if err != nil {
				return err
			}
			if report.HasMissing() {
				return &errors.MissingError{IDs: report.Missing}
			}
			a.printReport(cmd, report)
			return nil
		},
	}
}

// NewWatchCommand creates the watch subcommand.
func (a *App) NewWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Restore definition files whenever they are removed",
		Long: `Watch runs restore once, then again each time a definition file is removed
or the built services artifact changes. Runs never overlap. Stop with Ctrl-C.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			run := func(ctx context.Context) error {
				_, err := a.Restore(ctx, false)
				return err
			}
			if err := run(ctx); err != nil {
				return err
			}

			w, err := watch.New(a.config.ServicesDir, a.config.Source, run,
				watch.WithExtension(a.config.Extension),
				watch.WithDebounce(a.config.WatchDebounce),
				watch.WithLogger(a.logger),
			)
			if err != nil {
				return err
			}
			return w.Run(ctx)
		},
	}
}

// NewVersionCommand creates the version subcommand.
func (a *App) NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "services version %s\n", a.version)
			fmt.Fprintf(out, "commit: %s\n", a.commit)
			fmt.Fprintf(out, "built: %s\n", a.date)
			fmt.Fprintf(out, "built by: %s\n", a.builtBy)
			fmt.Fprintf(out, "go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

// Restore performs one restore run with the current configuration and
// writes the metrics textfile when one is configured.
func (a *App) Restore(ctx context.Context, dryRun bool) (*reconciler.Report, error) {
	ctx = logging.WithLogger(ctx, a.logger)
	ctx = logging.WithOperation(ctx, "restore")
	ctx = logging.WithServicesDir(ctx, a.config.ServicesDir)
	logger := logging.FromContext(ctx)

	r, err := a.Reconciler(ctx, dryRun)
	if err != nil {
		return nil, err
	}

	names, err := a.Indexer(ctx).List(a.config.ServicesDir)
	if err != nil {
		return nil, err
	}
	logger.Debug().Int("files", len(names)).Str("source", a.config.Source).Msg("Starting restore")

	report, runErr := r.Restore(a.config.Source, names, a.config.ServicesDir)

	if a.config.MetricsFile != "" {
		if err := a.Recorder().WriteTextfile(a.config.MetricsFile); err != nil {
			logger.Error().Err(err).Str("file", a.config.MetricsFile).Msg("Failed to write metrics")
		}
	}

	return report, runErr
}

func (a *App) printReport(cmd *cobra.Command, report *reconciler.Report) {
	out := cmd.OutOrStdout()
	switch {
	case report.HasRestored():
		fmt.Fprintf(out, "restored %d: %s\n", len(report.Restored), strings.Join(report.Restored, ", "))
	case report.HasMissing():
		fmt.Fprintf(out, "missing %d: %s\n", len(report.Missing), strings.Join(report.Missing, ", "))
	default:
		fmt.Fprintln(out, "all declared services are present")
	}
}
