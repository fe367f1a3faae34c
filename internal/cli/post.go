package cli

import (
	"strings"

	werrors "github.com/spetersoncode/byline/internal/errors"
	"github.com/spetersoncode/byline/internal/models"
	"github.com/spetersoncode/byline/internal/service"
	"github.com/spf13/cobra"
)

// Post command flags
var (
	postAuthor  string
	postActor   string
	postAction  string
	postDetails []string
)

func init() {
	postCmd.Flags().StringVarP(&postAuthor, "author", "a", "", "Author name (default from config)")
	postCmd.Flags().StringVar(&postActor, "actor", "human", "Actor type (human/agent/system)")
	postCmd.Flags().StringVar(&postAction, "action", "posted", "Action (posted/commented/updated/published/archived)")
	postCmd.Flags().StringArrayVar(&postDetails, "detail", nil, "Extra detail as key=value (repeatable)")

	rootCmd.AddCommand(postCmd)
}

var postCmd = &cobra.Command{
	Use:   "post <FEED> <summary...>",
	Short: "Post an entry to a feed",
	Long: `Post an entry to a feed. The summary is the remaining arguments joined by spaces.

The author defaults to the author setting in the config file. Pass --author ""
to post without an author; the entry's byline then shows only the time.

Examples:
  byline post OPS "Rotated TLS certificates"
  byline post OPS Deployed v1.4.2 --author alex --action published
  byline post OPS "Backfill finished" --actor agent --author agent-7 --detail rows=1200`,
	Args: cobra.MinimumNArgs(2),
	RunE: runPost,
}

func runPost(cmd *cobra.Command, args []string) error {
	actor, err := models.ParseActorType(postActor)
	if err != nil {
		return werrors.InvalidArgs("%v", err)
	}
	action, err := models.ParseAction(postAction)
	if err != nil {
		return werrors.InvalidArgs("%v", err)
	}
	details, err := parseDetails(postDetails)
	if err != nil {
		return err
	}

	author := postAuthor
	if !cmd.Flags().Changed("author") {
		author = GetDefaultAuthor()
	}

	in := service.PostInput{
		Action:    action,
		ActorType: actor,
		Author:    author,
		Summary:   strings.Join(args[1:], " "),
		Details:   details,
	}

	return withFeedService(func(svc *service.FeedService) error {
		item, err := svc.Post(args[0], in)
		if err != nil {
			return err
		}

		if IsJSON() {
			return printJSON(item)
		}

		OutputLine("Posted %s: %s", item.EntryKey, item.Summary)
		VerboseOutput("%s\n", paintByline(*item))
		return nil
	})
}

// parseDetails turns key=value pairs into a details map.
func parseDetails(pairs []string) (map[string]interface{}, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	details := make(map[string]interface{}, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, werrors.InvalidArgs("invalid detail %q", pair).
				WithSuggestion("Details are key=value pairs, e.g. --detail host=db1.")
		}
		details[key] = value
	}
	return details, nil
}
