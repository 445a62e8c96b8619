package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/estatewatch/internal/report"
	"github.com/nao1215/estatewatch/internal/storage"
)

// NewSnapshotCmd creates the snapshot command.
func NewSnapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Print the stored listing snapshot",
		Long: `Snapshot prints the listings stored by the last cycle that saw a change,
in the order they were fetched.`,
		Args: cobra.NoArgs,
		RunE: runSnapshotCmd,
	}

	reportFlags(cmd)

	return cmd
}

func runSnapshotCmd(cmd *cobra.Command, _ []string) error {
	return withStore(cmd, func(store storage.Store, w report.Writer) error {
		snapshot, err := store.FindAll(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to read snapshot: %w", err)
		}
		_, err = w.WriteSnapshot(snapshot)
		return err
	})
}
