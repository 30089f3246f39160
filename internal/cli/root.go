// Package cli implements the coach command line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// RootOptions holds flags shared by all commands.
type RootOptions struct {
	// EnvFile is the flat key=value file holding the Strava credentials.
	EnvFile string
}

// NewRootCommand creates the root command with all subcommands attached.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "coach",
		Short:         "Sync Strava activities into a local training database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "path to the credential file")

	cmd.AddCommand(NewSyncCommand(opts))
	cmd.AddCommand(NewAuthCommand(opts))
	cmd.AddCommand(NewStatsCommand(opts))

	return cmd
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
