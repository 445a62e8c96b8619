package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/estatewatch/internal/config"
	"github.com/nao1215/estatewatch/internal/report"
	"github.com/nao1215/estatewatch/internal/storage"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded watch cycles",
		Long: `History lists the cycles recorded in the store, newest first, with their
outcome and the number of added and removed listings.

Examples:
  # Show the 20 most recent cycles
  estatewatch history

  # Show every recorded cycle as JSON
  estatewatch history --limit 0 --json`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	reportFlags(cmd)
	cmd.Flags().IntP("limit", "n", config.DefaultHistoryLimit, "Maximum number of cycles to list (0 lists all)")

	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	return withStore(cmd, func(store storage.Store, w report.Writer) error {
		cycles, err := store.ListCycles(cmd.Context(), limit)
		if err != nil {
			return fmt.Errorf("failed to list cycles: %w", err)
		}
		_, err = w.WriteHistory(cycles)
		return err
	})
}

// withStore loads the configuration, opens the store and the report
// output, and calls fn. Used by the commands that only read the store.
func withStore(cmd *cobra.Command, fn func(storage.Store, report.Writer) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyReportFlags(cmd, cfg); err != nil {
		return err
	}

	logger := setupLogger(cfg, cmd.ErrOrStderr())

	store, err := openStore(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore(store, logger)

	out, closeOut, err := openReportOutput(cfg, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	if err := fn(store, newReportWriter(cfg, out)); err != nil {
		_ = closeOut() //nolint:errcheck
		return err
	}
	return closeOut()
}
