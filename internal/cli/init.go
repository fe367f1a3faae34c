package cli

import (
	"github.com/spetersoncode/byline/internal/db"
	werrors "github.com/spetersoncode/byline/internal/errors"
	"github.com/spf13/cobra"
)

var initForce bool

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite existing database")
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize byline for first-time use",
	Long: `Initialize byline by creating the ~/.byline/ directory and database.

This command:
- Creates ~/.byline/ directory if it doesn't exist
- Creates byline.db with the database schema
- Runs any pending migrations

Use --force to overwrite an existing database.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

type initResult struct {
	Database string `json:"database"`
	Created  bool   `json:"created"`
	Schema   int64  `json:"schema_version,omitempty"`
}

func runInit(cmd *cobra.Command, args []string) error {
	path := GetDBPath()
	displayPath := db.ResolvePath(path)

	// Check if database already exists
	if db.Exists(path) && !initForce {
		if IsJSON() {
			return printJSON(initResult{Database: displayPath, Created: false})
		}
		return werrors.Conflict("database already exists at %s", displayPath).
			WithSuggestion("Use --force to overwrite it.")
	}

	// Delete existing database if force is set
	if initForce && db.Exists(path) {
		logger.Debug("removing existing database", "path", displayPath)
		if err := db.Delete(path); err != nil {
			return werrors.WrapInternal(err, "failed to remove existing database")
		}
	}

	logger.Debug("creating database", "path", displayPath)
	database, err := db.Open(path)
	if err != nil {
		return werrors.WrapInternal(err, "failed to create database")
	}
	defer database.Close()

	logger.Debug("running migrations")
	if err := database.Migrate(cmd.Context()); err != nil {
		return werrors.WrapInternal(err, "failed to run migrations")
	}

	version, err := database.SchemaVersion(cmd.Context())
	if err != nil {
		return werrors.WrapInternal(err, "failed to read schema version")
	}

	if IsJSON() {
		return printJSON(initResult{Database: database.Path(), Created: true, Schema: version})
	}

	OutputLine("Initialized byline database at %s", database.Path())
	OutputLine("Schema version: %d", version)

	return nil
}
