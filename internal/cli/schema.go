package cli

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize/english"
	"github.com/spetersoncode/byline/internal/backup"
	"github.com/spetersoncode/byline/internal/common"
	"github.com/spetersoncode/byline/internal/db"
	werrors "github.com/spetersoncode/byline/internal/errors"
	"github.com/spf13/cobra"
)

var schemaForce bool

func init() {
	dbResetCmd.Flags().BoolVar(&schemaForce, "force", false, "Reset without asking for confirmation")

	dbCmd.AddCommand(dbStatusCmd)
	dbCmd.AddCommand(dbMigrateCmd)
	dbCmd.AddCommand(dbRollbackCmd)
	dbCmd.AddCommand(dbResetCmd)
	rootCmd.AddCommand(dbCmd)
}

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Inspect and migrate the database schema",
	Long: `Inspect and migrate the database schema.

Upgrading byline may add migrations; run 'byline db migrate' to apply them.
Rollback and reset take a backup first when backups are enabled.`,
}

var dbStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "List schema migrations and whether they are applied",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()

		migrations, err := database.Migrations(cmd.Context())
		if err != nil {
			return werrors.WrapInternal(err, "failed to read migrations")
		}

		if IsJSON() {
			return printJSON(migrations)
		}

		for _, m := range migrations {
			state := "pending"
			if m.Applied {
				state = "applied " + common.FormatAge(m.AppliedAt)
			}
			fmt.Printf("%5d  %-36s %s\n", m.Version, m.Name, state)
		}
		if n := db.Pending(migrations); n > 0 {
			OutputLine("%s pending.", english.Plural(n, "migration", ""))
		}
		return nil
	},
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()

		before, err := database.SchemaVersion(cmd.Context())
		if err != nil {
			return werrors.WrapInternal(err, "failed to read schema version")
		}
		if err := database.Migrate(cmd.Context()); err != nil {
			return werrors.WrapInternal(err, "failed to run migrations")
		}
		after, err := database.SchemaVersion(cmd.Context())
		if err != nil {
			return werrors.WrapInternal(err, "failed to read schema version")
		}

		if IsJSON() {
			return printJSON(map[string]int64{"from": before, "to": after})
		}
		if before == after {
			OutputLine("Schema is up to date (v%d).", after)
			return nil
		}
		OutputLine("Migrated schema v%d -> v%d", before, after)
		return nil
	},
}

var dbRollbackCmd = &cobra.Command{
	Use:   "rollback",
	Short: "Roll back the newest applied migration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()

		if err := backupBeforeSchemaChange(database); err != nil {
			return err
		}

		version, err := database.Rollback(cmd.Context())
		if errors.Is(err, db.ErrNothingToRollback) {
			return werrors.Conflict("no migrations are applied").
				WithSuggestion("Run 'byline db migrate' to create the schema.")
		}
		if err != nil {
			return werrors.WrapInternal(err, "rollback failed")
		}

		if IsJSON() {
			return printJSON(map[string]int64{"rolled_back": version})
		}
		OutputLine("Rolled back migration %d", version)
		return nil
	},
}

var dbResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Roll back every migration, deleting all feeds and entries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !schemaForce {
			return werrors.InvalidArgs("reset deletes every feed and entry").
				WithSuggestion("Re-run with --force to confirm.")
		}

		database, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()

		if err := backupBeforeSchemaChange(database); err != nil {
			return err
		}
		if err := database.Reset(cmd.Context()); err != nil {
			return werrors.WrapInternal(err, "reset failed")
		}

		if IsJSON() {
			return printJSON(map[string]int64{"schema_version": 0})
		}
		OutputLine("Schema reset. Run 'byline db migrate' to recreate it.")
		return nil
	},
}

// backupBeforeSchemaChange copies the database aside when backups are on.
func backupBeforeSchemaChange(database *db.DB) error {
	cfg := GetConfig().Backup
	if !cfg.Enabled || database.InMemory() {
		return nil
	}
	path, err := backup.NewManager(database.Path(), cfg).Create()
	if err != nil {
		return werrors.WrapInternal(err, "backup before schema change failed")
	}
	VerboseOutput("Backed up database to %s", path)
	return nil
}
