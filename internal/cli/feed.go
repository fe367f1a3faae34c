package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize/english"
	"github.com/spetersoncode/byline/internal/db"
	werrors "github.com/spetersoncode/byline/internal/errors"
	"github.com/spetersoncode/byline/internal/models"
	"github.com/spetersoncode/byline/internal/service"
	"github.com/spf13/cobra"
)

// Feed command flags
var (
	feedName        string
	feedDescription string
	feedForce       bool
)

func init() {
	// feed create
	feedCreateCmd.Flags().StringVarP(&feedName, "name", "n", "", "Human-readable feed name (required)")
	feedCreateCmd.Flags().StringVarP(&feedDescription, "description", "d", "", "Feed description")
	feedCreateCmd.MarkFlagRequired("name")

	// feed delete
	feedDeleteCmd.Flags().BoolVar(&feedForce, "force", false, "Skip confirmation prompt")

	// Add subcommands
	feedCmd.AddCommand(feedCreateCmd)
	feedCmd.AddCommand(feedListCmd)
	feedCmd.AddCommand(feedShowCmd)
	feedCmd.AddCommand(feedDeleteCmd)

	rootCmd.AddCommand(feedCmd)
}

// newFeedService wires a FeedService with the configured byline style.
func newFeedService(database *db.DB) (*service.FeedService, error) {
	byline, err := newByline()
	if err != nil {
		return nil, err
	}
	return service.NewFeedService(database.DB, byline, logger), nil
}

// withFeedService opens the database and runs fn with a FeedService.
func withFeedService(fn func(svc *service.FeedService) error) error {
	database, err := openDB()
	if err != nil {
		return err
	}
	defer database.Close()

	svc, err := newFeedService(database)
	if err != nil {
		return err
	}
	return fn(svc)
}

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Feed management commands",
	Long:  `Manage feeds in byline. Feeds are named streams of entries.`,
}

// feed create
var feedCreateCmd = &cobra.Command{
	Use:   "create <KEY>",
	Short: "Create a new feed",
	Long: `Create a new feed with the specified key.

The key must be 2-10 uppercase alphanumeric characters starting with a letter.

Examples:
  byline feed create OPS --name "Operations"
  byline feed create RELEASE -n "Releases" -d "Shipped versions"`,
	Args: cobra.ExactArgs(1),
	RunE: runFeedCreate,
}

func runFeedCreate(cmd *cobra.Command, args []string) error {
	return withFeedService(func(svc *service.FeedService) error {
		feed, err := svc.CreateFeed(args[0], feedName, feedDescription)
		if err != nil {
			return err
		}

		if IsJSON() {
			return printJSON(feed)
		}

		OutputLine("Created feed: %s", feed.Key)
		OutputLine("Name: %s", feed.Name)
		if feed.Description != "" {
			OutputLine("Description: %s", feed.Description)
		}
		return nil
	})
}

// feed list
var feedListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all feeds",
	Long:  `List all feeds with their entry counts and most recent activity.`,
	Args:  cobra.NoArgs,
	RunE:  runFeedList,
}

func runFeedList(cmd *cobra.Command, args []string) error {
	return withFeedService(func(svc *service.FeedService) error {
		feeds, err := svc.ListFeeds()
		if err != nil {
			return err
		}

		if IsJSON() {
			return printJSON(feeds)
		}

		if len(feeds) == 0 {
			OutputLine("No feeds found. %s", SuggestCreateFeed)
			return nil
		}

		fmt.Printf("%-10s %-24s %7s  %s\n", "KEY", "NAME", "ENTRIES", "LAST ACTIVITY")
		fmt.Println(strings.Repeat("-", 70))
		for _, f := range feeds {
			last := f.LastActivity
			if last == "" {
				last = "-"
			}
			fmt.Printf("%-10s %-24s %7d  %s\n", f.Key, truncate(f.Name, 24), f.Entries, last)
		}
		return nil
	})
}

// feed show
var feedShowCmd = &cobra.Command{
	Use:   "show <KEY>",
	Short: "Show feed details",
	Long:  `Display a feed and its five most recent entries.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runFeedShow,
}

type feedShowResult struct {
	*models.Feed
	Entries int                    `json:"entries"`
	Latest  []service.TimelineItem `json:"latest"`
}

func runFeedShow(cmd *cobra.Command, args []string) error {
	return withFeedService(func(svc *service.FeedService) error {
		feed, err := svc.GetFeed(args[0])
		if err != nil {
			return err
		}
		count, err := svc.CountEntries(feed)
		if err != nil {
			return err
		}
		latest, err := svc.Timeline(feed.Key, service.TimelineOptions{Limit: 5})
		if err != nil {
			return err
		}

		if IsJSON() {
			return printJSON(feedShowResult{Feed: feed, Entries: count, Latest: latest})
		}

		fmt.Printf("Feed: %s\n", feed.Key)
		fmt.Printf("Name: %s\n", feed.Name)
		if feed.Description != "" {
			fmt.Printf("Description: %s\n", feed.Description)
		}
		fmt.Printf("Created: %s\n", feed.CreatedAt.Local().Format("2006-01-02 15:04:05"))
		fmt.Printf("Entries: %d\n", count)

		if len(latest) > 0 {
			fmt.Println()
			fmt.Println("Latest:")
			for _, item := range latest {
				fmt.Printf("  %-10s %s\n", item.EntryKey, item.Summary)
				fmt.Printf("  %-10s %s\n", "", paintByline(item))
			}
		}
		return nil
	})
}

// feed delete
var feedDeleteCmd = &cobra.Command{
	Use:   "delete <KEY>",
	Short: "Delete a feed",
	Long: `Delete a feed and all of its entries.

This operation is irreversible. Use --force to skip the confirmation prompt.`,
	Args: cobra.ExactArgs(1),
	RunE: runFeedDelete,
}

type feedDeleteResult struct {
	Deleted bool   `json:"deleted"`
	Key     string `json:"key"`
}

func runFeedDelete(cmd *cobra.Command, args []string) error {
	return withFeedService(func(svc *service.FeedService) error {
		feed, err := svc.GetFeed(args[0])
		if err != nil {
			return err
		}

		// Confirm deletion unless force flag is set
		if !feedForce && !IsJSON() {
			count, _ := svc.CountEntries(feed)
			fmt.Printf("You are about to delete feed %s (%s)\n", feed.Key, feed.Name)
			if count > 0 {
				fmt.Printf("This will delete %s.\n", english.Plural(count, "entry", "entries"))
			}
			fmt.Print("Type the feed key to confirm: ")

			reader := bufio.NewReader(os.Stdin)
			confirm, _ := reader.ReadString('\n')
			if strings.ToUpper(strings.TrimSpace(confirm)) != feed.Key {
				return werrors.General("deletion cancelled")
			}
		}

		if err := svc.DeleteFeed(feed.Key); err != nil {
			return err
		}

		if IsJSON() {
			return printJSON(feedDeleteResult{Deleted: true, Key: feed.Key})
		}

		OutputLine("Deleted feed: %s", feed.Key)
		return nil
	})
}

// truncate truncates a string to the specified length, adding "..." if truncated
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
