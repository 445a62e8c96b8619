package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for estatewatch.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "estatewatch",
		Short: "Watch a real-estate listing source for new and removed listings",
		Long: `estatewatch fetches every page of a listing source, compares the listings
with the snapshot stored by the previous cycle and sends a notification
listing what was added and what was removed.

Settings are read from .estatewatch (current directory, then home directory),
then from ESTATEWATCH_* environment variables and a .env file.
Run "estatewatch init" to create a commented configuration file.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "", "Path to the configuration file")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON lines")

	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewWatchCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewSnapshotCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
