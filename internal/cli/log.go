package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	werrors "github.com/spetersoncode/byline/internal/errors"
	"github.com/spetersoncode/byline/internal/models"
	"github.com/spetersoncode/byline/internal/service"
	"github.com/spf13/cobra"
)

// Log command flags
var (
	logLimit  int
	logAuthor string
	logActor  string
	logAction string
	logSince  string
	logFull   bool
)

// Author colors by actor type.
var actorColors = map[models.ActorType]*color.Color{
	models.ActorTypeHuman:  color.New(color.FgCyan, color.Bold),
	models.ActorTypeAgent:  color.New(color.FgMagenta, color.Bold),
	models.ActorTypeSystem: color.New(color.FgYellow),
}

func init() {
	logCmd.Flags().IntVarP(&logLimit, "limit", "l", 20, "Number of entries to show (0 for all)")
	logCmd.Flags().StringVar(&logAuthor, "author", "", "Filter by author")
	logCmd.Flags().StringVar(&logActor, "actor", "", "Filter by actor type (human/agent/system)")
	logCmd.Flags().StringVar(&logAction, "action", "", "Filter by action")
	logCmd.Flags().StringVar(&logSince, "since", "", "Show entries after date (YYYY-MM-DD)")
	logCmd.Flags().BoolVar(&logFull, "full", false, "Show full details (JSON)")

	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(entryCmd)
}

var logCmd = &cobra.Command{
	Use:   "log [FEED]",
	Short: "Show a feed's entries",
	Long: `Show a feed's entries, newest first, each with its byline.

The feed defaults to default_feed from the config file.

Examples:
  byline log OPS
  byline log OPS --author alex --limit 5
  byline log OPS --actor agent --since 2024-03-01
  byline log --style long`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLog,
}

func runLog(cmd *cobra.Command, args []string) error {
	feedKey := ""
	if len(args) > 0 {
		feedKey = args[0]
	}
	feedKey = GetFeedWithDefault(feedKey)

	opts := service.TimelineOptions{
		Limit:  logLimit,
		Author: logAuthor,
	}
	if logLimit == 0 {
		opts.Limit = -1 // all
	}
	if logActor != "" {
		actor, err := models.ParseActorType(logActor)
		if err != nil {
			return werrors.InvalidArgs("%v", err)
		}
		opts.ActorType = &actor
	}
	if logAction != "" {
		action, err := models.ParseAction(logAction)
		if err != nil {
			return werrors.InvalidArgs("%v", err)
		}
		opts.Action = &action
	}
	if logSince != "" {
		since, err := service.ParseSince(logSince)
		if err != nil {
			return err
		}
		opts.Since = &since
	}

	return withFeedService(func(svc *service.FeedService) error {
		items, err := svc.Timeline(feedKey, opts)
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

		printTimeline(items, false, logFull)
		return nil
	})
}

// printTimeline prints items as a table. The byline is the last column so
// color codes don't break alignment.
func printTimeline(items []service.TimelineItem, withFeed, full bool) {
	if withFeed {
		fmt.Printf("%-12s %-10s %-8s %-40s %s\n", "KEY", "ACTION", "ACTOR", "SUMMARY", "WHEN")
	} else {
		fmt.Printf("%-10s %-8s %-40s %s\n", "ACTION", "ACTOR", "SUMMARY", "WHEN")
	}
	fmt.Println(strings.Repeat("-", 90))

	for _, item := range items {
		if withFeed {
			fmt.Printf("%-12s ", item.EntryKey)
		}
		fmt.Printf("%-10s %-8s %-40s %s\n",
			item.Action,
			item.ActorType,
			truncate(item.Summary, 40),
			paintByline(item),
		)

		if full && item.Details != "" {
			fmt.Printf("  Details: %s\n", item.Details)
		}
	}
}

// paintByline returns the item's byline with the author highlighted.
func paintByline(item service.TimelineItem) string {
	if item.Author == "" || color.NoColor {
		return item.Byline
	}
	c, ok := actorColors[item.ActorType]
	if !ok {
		return item.Byline
	}
	return strings.TrimSuffix(item.Byline, item.Author) + c.Sprint(item.Author)
}

var entryCmd = &cobra.Command{
	Use:   "entry <KEY>",
	Short: "Show a single entry",
	Long: `Show a single entry by key. A bare number is looked up in default_feed.

Examples:
  byline entry OPS-12
  byline entry 12`,
	Args: cobra.ExactArgs(1),
	RunE: runEntry,
}

func runEntry(cmd *cobra.Command, args []string) error {
	return withFeedService(func(svc *service.FeedService) error {
		item, err := svc.GetEntry(args[0], GetDefaultFeed())
		if err != nil {
			if werrors.Is(err, werrors.KindInvalidArgs) {
				return werrors.Wrap(err, werrors.KindInvalidArgs, "invalid entry key").
					WithSuggestion(SuggestCheckEntryKey)
			}
			return err
		}

		if IsJSON() {
			return printJSON(item)
		}

		fmt.Printf("Entry: %s\n", item.EntryKey)
		fmt.Printf("Action: %s\n", item.Action)
		fmt.Printf("Actor: %s\n", item.ActorType)
		fmt.Printf("Summary: %s\n", item.Summary)
		if item.Details != "" {
			fmt.Printf("Details: %s\n", item.Details)
		}
		fmt.Printf("Posted: %s\n", paintByline(*item))
		fmt.Printf("Ref: %s\n", item.Ref)
		return nil
	})
}
