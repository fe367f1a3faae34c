package cli

import (
	"github.com/spetersoncode/byline/internal/service"
	"github.com/spf13/cobra"
)

var recentLimit int

func init() {
	recentCmd.Flags().IntVarP(&recentLimit, "limit", "l", 20, "Number of entries to show")
	rootCmd.AddCommand(recentCmd)
}

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "Show the newest entries across all feeds",
	Args:  cobra.NoArgs,
	RunE:  runRecent,
}

func runRecent(cmd *cobra.Command, args []string) error {
	return withFeedService(func(svc *service.FeedService) error {
		items, err := svc.Recent(recentLimit)
		if err != nil {
			return err
		}

		if IsJSON() {
			return printJSON(items)
		}

		if len(items) == 0 {
			OutputLine("No entries found.")
			return nil
		}

		printTimeline(items, true, false)
		return nil
	})
}
