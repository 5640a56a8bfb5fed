package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"mindplay/internal/common/fsutil"
	"mindplay/internal/gamelog"
)

func newStatsCmd() *cobra.Command {
	var resultsDB string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize recorded games per track",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := fsutil.ExpandHome(resultsDB)
			if err != nil {
				return err
			}
			// Opening would create an empty database; a missing file just
			// means nothing was recorded yet.
			if !fsutil.PathExists(path) {
				return fmt.Errorf("no results database at %s", path)
			}
			store, err := gamelog.OpenStore(path)
			if err != nil {
				return err
			}
			defer store.Close()

			summaries, err := store.Summary(cmd.Context())
			if err != nil {
				return err
			}
			if len(summaries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no games recorded")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TRACK\tGAMES\tCOMPLETED\tTERMINATED\tERRORED\tMEAN REWARD")
			for _, s := range summaries {
				fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%.3f\n",
					s.Track, s.Games, s.Completed, s.Terminated, s.Errored, s.MeanReward)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&resultsDB, "results-db", "./mindplay-logs/results.db", "SQLite results database path")
	return cmd
}
