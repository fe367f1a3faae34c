package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spetersoncode/byline/internal/backup"
	"github.com/spetersoncode/byline/internal/common"
	"github.com/spetersoncode/byline/internal/db"
	werrors "github.com/spetersoncode/byline/internal/errors"
	"github.com/spf13/cobra"
)

func init() {
	backupCmd.AddCommand(backupListCmd)
	backupCmd.AddCommand(backupNowCmd)
	rootCmd.AddCommand(backupCmd)
}

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Database backup commands",
	Long: `Inspect and create rotating database backups.

Backups are also taken automatically before commands when [backup] enabled is
set in the config file.`,
}

func backupManager() (*backup.Manager, error) {
	path := GetDBPath()
	if !db.Exists(path) {
		return nil, werrors.NotFound("no database at %s", db.ResolvePath(path)).
			WithSuggestion(SuggestRunInit)
	}
	return backup.NewManager(db.ResolvePath(path), GetConfig().Backup), nil
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List existing backups, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := backupManager()
		if err != nil {
			return err
		}
		backups, err := mgr.List()
		if err != nil {
			return werrors.WrapInternal(err, "failed to list backups")
		}

		if IsJSON() {
			if backups == nil {
				backups = []backup.Backup{}
			}
			return printJSON(backups)
		}

		if len(backups) == 0 {
			OutputLine("No backups in %s", mgr.BackupDir())
			return nil
		}
		for _, b := range backups {
			fmt.Printf("%-40s %9s  %s\n", b.Path, humanize.Bytes(uint64(b.Size)), common.FormatAge(b.ModTime))
		}
		return nil
	},
}

var backupNowCmd = &cobra.Command{
	Use:   "now",
	Short: "Create a backup immediately",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := backupManager()
		if err != nil {
			return err
		}
		path, err := mgr.Create()
		if err != nil {
			return werrors.WrapInternal(err, "backup failed")
		}

		if IsJSON() {
			return printJSON(map[string]string{"path": path})
		}
		OutputLine("Created backup: %s", path)
		return nil
	},
}
