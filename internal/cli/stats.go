package cli

import (
	"fmt"

	"github.com/jbaldivieso/coach/internal/database"
	"github.com/jbaldivieso/coach/internal/store"
	"github.com/spf13/cobra"
)

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show a summary of the local training database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := database.InitDB()
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}

			stats, err := store.New(db).Stats()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if stats.LastSync != nil {
				fmt.Fprintf(out, "Last sync: %s\n", stats.LastSync.Format("2006-01-02 15:04:05"))
			} else {
				fmt.Fprintln(out, "Last sync: never")
			}
			fmt.Fprintf(out, "Total activities: %d\n", stats.TotalActivities)

			if len(stats.BySport) > 0 {
				fmt.Fprintln(out, "\nBy sport type:")
				for _, s := range stats.BySport {
					fmt.Fprintf(out, "  %s: %d activities, %.1f km, %.0fm elevation\n",
						s.SportType, s.Count, s.TotalKm, s.TotalElevationGain)
				}
			}

			if len(stats.Recent) > 0 {
				fmt.Fprintln(out, "\nMost recent activities:")
				for _, a := range stats.Recent {
					fmt.Fprintf(out, "  %s: %s (%.1f km, %.0fm)\n",
						a.StartDateLocal.Format("2006-01-02"), a.Name, a.Distance/1000.0, a.TotalElevationGain)
				}
			}

			fmt.Fprintf(out, "\nTotal splits: %d\n", stats.TotalSplits)
			return nil
		},
	}
}
