package cli

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize/english"
	werrors "github.com/spetersoncode/byline/internal/errors"
	"github.com/spetersoncode/byline/internal/tasks"
	"github.com/spf13/cobra"
)

// Prune command flags
var (
	pruneOlderThanDays int
	pruneDryRun        bool
)

func init() {
	pruneCmd.Flags().IntVar(&pruneOlderThanDays, "older-than-days", 0, "Delete entries older than this many days (default retention_days from config)")
	pruneCmd.Flags().BoolVar(&pruneDryRun, "dry-run", false, "Show what would be deleted without deleting")

	rootCmd.AddCommand(pruneCmd)
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete old entries",
	Long: `Delete entries older than the retention period.

Each feed that loses entries gets a "pruned" system entry recording how many
were removed.

Examples:
  byline prune
  byline prune --older-than-days 30
  byline prune --dry-run`,
	Args: cobra.NoArgs,
	RunE: runPrune,
}

func runPrune(cmd *cobra.Command, args []string) error {
	days := pruneOlderThanDays
	if days == 0 {
		days = GetRetentionDays()
	}
	if days < 0 {
		return werrors.InvalidArgs("--older-than-days must be positive")
	}

	database, err := openDB()
	if err != nil {
		return err
	}
	defer database.Close()

	pruner := tasks.NewEntryPruner(database.DB, logger)
	result, err := pruner.PruneBefore(tasks.RetentionCutoff(time.Now(), days), pruneDryRun)
	if err != nil {
		return werrors.WrapInternal(err, "prune failed")
	}

	if IsJSON() {
		return printJSON(result)
	}

	if result.Processed == 0 {
		OutputLine("No entries older than %d days.", days)
		return nil
	}

	verb := "Deleted"
	if result.DryRun {
		verb = "Would delete"
	}
	for _, f := range result.Feeds {
		if f.ErrorMessage != "" {
			fmt.Printf("  %-10s error: %s\n", f.FeedKey, f.ErrorMessage)
			continue
		}
		fmt.Printf("  %-10s %s\n", f.FeedKey, english.Plural(f.Entries, "entry", "entries"))
	}
	count := result.Deleted
	if result.DryRun {
		count = result.Processed
	}
	OutputLine("%s %s older than %s", verb, english.Plural(count, "entry", "entries"), result.Cutoff.Local().Format("2006-01-02"))

	if result.Errors > 0 {
		return werrors.General("%s failed to prune", english.Plural(result.Errors, "feed", ""))
	}
	return nil
}
