package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/estatewatch/internal/schedule"
)

// NewWatchCmd creates the watch command.
func NewWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run watch cycles on the configured schedule",
		Long: `Watch runs a cycle on every tick of the cron schedule set by the schedule
key of the configuration file (default "0 */4 * * *", every four hours)
until it receives SIGINT or SIGTERM. The command exits once the running
cycle has returned, and a tick is skipped while a cycle is running.

Examples:
  # Watch on the configured schedule
  estatewatch watch

  # Run one cycle immediately, then follow the schedule
  estatewatch watch --now`,
		Args: cobra.NoArgs,
		RunE: runWatchCmd,
	}

	reportFlags(cmd)
	cmd.Flags().Bool("dry-run", false, "Print notifications to stdout instead of sending email")
	cmd.Flags().Bool("now", false, "Run one cycle immediately before waiting for the schedule")

	return cmd
}

func runWatchCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildRunConfig(cmd)
	if err != nil {
		return err
	}

	now, err := cmd.Flags().GetBool("now")
	if err != nil {
		return err
	}

	logger := setupLogger(cfg, cmd.ErrOrStderr())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner, store, err := newRunner(ctx, cfg, logger, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer closeStore(store, logger)

	job := func(ctx context.Context) error {
		rep, err := runner.RunCycle(ctx)
		if werr := outputReport(cmd, cfg, rep); werr != nil {
			logger.Warn("failed to write cycle report", "cycle", rep.ID, "error", werr)
		}
		return err
	}

	sched, err := schedule.New(cfg.Schedule, job, schedule.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	if now {
		// Cycle failures are logged by the runner; watching continues.
		_, _ = sched.RunNow(ctx) //nolint:errcheck
		if ctx.Err() != nil {
			return nil
		}
	}

	if err := sched.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	logger.Info("received shutdown signal, stopping")
	sched.Stop()

	return nil
}
