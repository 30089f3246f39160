package cli

import (
	"errors"
	"fmt"

	"github.com/jbaldivieso/coach/internal/credentials"
	"github.com/jbaldivieso/coach/internal/database"
	"github.com/jbaldivieso/coach/internal/logger"
	"github.com/jbaldivieso/coach/internal/store"
	"github.com/jbaldivieso/coach/internal/sync"
	"github.com/spf13/cobra"
)

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	var noSplits bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Fetch new Strava activities into the local database",
		Long: `Fetch all Strava activities created since the last successful sync and
store them locally. Newly stored running activities also get their
per-kilometre splits fetched and stored, unless --no-splits is given.

The first ever run fetches everything since the start of the current year.
A failed run never advances the sync cursor, so the next run safely retries
the same window.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.New()
			out := cmd.OutOrStdout()

			db, err := database.InitDB()
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}

			st := store.New(db)
			mgr := credentials.NewManager(rootOpts.EnvFile, log)
			syncer := sync.New(st, mgr, log, sync.Options{FetchSplits: !noSplits})

			sum, err := syncer.Run(cmd.Context())
			if err != nil {
				if sum != nil && sum.New > 0 {
					fmt.Fprintf(out, "Sync failed after %d pages: %d activities were stored; cursor unchanged, the next run retries the same window.\n",
						sum.Pages, sum.New)
				} else {
					fmt.Fprintln(out, "Sync failed: 0 new records, cursor unchanged, retry later.")
				}
				if errors.Is(err, sync.ErrCredential) {
					fmt.Fprintln(out, "The refresh token was rejected; run `coach auth` to re-authorize.")
				}
				return err
			}

			fmt.Fprintf(out, "Sync complete: %d activities fetched, %d new, %d splits stored.\n",
				sum.Fetched, sum.New, sum.Splits)
			if sum.Skipped > 0 {
				fmt.Fprintf(out, "Skipped %d malformed records; see the log for details.\n", sum.Skipped)
			}
			fmt.Fprintf(out, "Cursor advanced to %s.\n", sum.RunStart.Format("2006-01-02 15:04:05 MST"))
			return nil
		},
	}

	cmd.Flags().BoolVar(&noSplits, "no-splits", false, "skip fetching per-kilometre splits for runs")

	return cmd
}
