package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/estatewatch/internal/config"
	"github.com/nao1215/estatewatch/internal/model"
)

// errNotifyFailed is returned by run when the cycle completed but the
// notification could not be delivered.
var errNotifyFailed = errors.New("notification failed")

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one watch cycle now",
		Long: `Run fetches every page of the listing source, compares the listings with
the stored snapshot, stores the new snapshot when it changed and sends a
notification. A notification is sent even when nothing changed.

Examples:
  # Run one cycle and email the result
  estatewatch run

  # Print the notification instead of sending it
  estatewatch run --dry-run

  # Save the cycle report as Markdown
  estatewatch run --markdown -o report.md`,
		Args: cobra.NoArgs,
		RunE: runRunCmd,
	}

	reportFlags(cmd)
	cmd.Flags().Bool("dry-run", false, "Print the notification to stdout instead of sending email")

	return cmd
}

func runRunCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildRunConfig(cmd)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg, cmd.ErrOrStderr())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runOnce(ctx, cmd, cfg, logger)
}

// buildRunConfig loads the configuration and applies the flags shared by
// the run and watch commands.
func buildRunConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	if err := applyReportFlags(cmd, cfg); err != nil {
		return nil, err
	}

	if cfg.DryRun, err = cmd.Flags().GetBool("dry-run"); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, nil
}

// runOnce runs a single cycle and writes its report. The report is written
// even when the cycle fails.
func runOnce(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) error {
	runner, store, err := newRunner(ctx, cfg, logger, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer closeStore(store, logger)

	rep, runErr := runner.RunCycle(ctx)
	if err := outputReport(cmd, cfg, rep); err != nil {
		return errors.Join(runErr, err)
	}
	if runErr != nil {
		return runErr
	}
	if rep.NotifyError != "" {
		return fmt.Errorf("%w: %s", errNotifyFailed, rep.NotifyError)
	}
	return nil
}

// outputReport writes one cycle report in the configured format.
func outputReport(cmd *cobra.Command, cfg *config.Config, rep *model.CycleReport) error {
	out, closeOut, err := openReportOutput(cfg, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	if _, err := newReportWriter(cfg, out).Write(rep); err != nil {
		_ = closeOut() //nolint:errcheck
		return fmt.Errorf("failed to write report: %w", err)
	}
	return closeOut()
}
