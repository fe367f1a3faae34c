package cli

import (
	"fmt"
	"runtime"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
	"github.com/spetersoncode/byline/internal/db"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version and database information",
	Long: `Display the byline build, the Go runtime, and the state of the database:
its location, size, schema version, and whether migrations are pending.`,
	Args: cobra.NoArgs,
	RunE: runVersion,
}

type versionInfo struct {
	Version   string         `json:"version"`
	GitCommit string         `json:"git_commit"`
	BuildDate string         `json:"build_date"`
	GoVersion string         `json:"go_version"`
	Platform  string         `json:"platform"`
	Database  *databaseState `json:"database,omitempty"`
	Schema    int64          `json:"schema_version,omitempty"`
	Pending   int            `json:"pending_migrations"`
}

type databaseState struct {
	Path  string `json:"path"`
	Size  int64  `json:"size"`
	Feeds int    `json:"feeds"`
}

func runVersion(cmd *cobra.Command, args []string) error {
	info := versionInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}

	// Database details are best effort; version must work without one.
	if path := GetDBPath(); db.Exists(path) {
		if database, err := db.Open(path); err == nil {
			defer database.Close()
			info.Database = &databaseState{Path: database.Path()}
			info.Database.Size, _ = database.Size()
			info.Schema, _ = database.SchemaVersion(cmd.Context())
			if migrations, err := database.Migrations(cmd.Context()); err == nil {
				info.Pending = db.Pending(migrations)
			}
			if feeds, err := db.NewFeedRepo(database.DB).List(); err == nil {
				info.Database.Feeds = len(feeds)
			}
		}
	}

	if IsJSON() {
		return printJSON(info)
	}

	fmt.Printf("byline %s (%s, %s)\n", info.Version, shortCommit(), shortDate())
	fmt.Printf("Go: %s %s\n", info.GoVersion, info.Platform)

	if info.Database == nil {
		fmt.Println("Database: not initialized (run 'byline init')")
		return nil
	}

	fmt.Printf("Database: %s (schema v%d, %s, %s)\n",
		info.Database.Path, info.Schema, humanize.Bytes(uint64(info.Database.Size)), english.Plural(info.Database.Feeds, "feed", ""))
	if info.Pending > 0 {
		fmt.Printf("%s pending: run 'byline db migrate'\n", english.Plural(info.Pending, "migration", ""))
	}
	return nil
}
