package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spetersoncode/byline/internal/backup"
	"github.com/spetersoncode/byline/internal/common"
	"github.com/spetersoncode/byline/internal/config"
	"github.com/spetersoncode/byline/internal/db"
	werrors "github.com/spetersoncode/byline/internal/errors"
	"github.com/spetersoncode/byline/internal/logging"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Version information (set at build time via ldflags)
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Global flags
var (
	dbPath    string
	jsonOut   bool
	quiet     bool
	verbose   bool
	noColor   bool
	timeStyle string
)

// Global configuration (loaded once at startup)
var globalConfig *config.Config

// logger is rebuilt before every command from config and flags.
var logger = logging.Discard

// Exit codes by error kind
const (
	ExitSuccess      = 0
	ExitGeneralError = 1
	ExitInvalidArgs  = 2
	ExitNotFound     = 3
	ExitDBError      = 5
	ExitConflict     = 6
)

// skipBackupCommands lists commands that should not trigger automatic backup.
// These are either commands that don't need a database, or that initialize it.
var skipBackupCommands = map[string]bool{
	"help":    true,
	"version": true,
	"init":    true,
	"config":  true,
	"backup":  true,
}

var rootCmd = &cobra.Command{
	Use:   "byline",
	Short: "Local-first activity feeds with \"time ago by author\" bylines",
	Long: `Byline keeps small activity feeds in a local SQLite database.

Humans, agents and scheduled jobs post entries to feeds; every entry is shown
with a byline such as "3h ago by alex", or just "3h ago" when nobody signed it.

Use "byline init" to initialize a new byline database.
Use "byline --help" to see all available commands.`,
	Version:       Version,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupColor()
		if err := setupLogger(); err != nil {
			return err
		}
		return runAutoBackup(cmd)
	},
}

func init() {
	// Load global configuration at startup
	var err error
	globalConfig, err = config.Load()
	if err != nil {
		// If config file is invalid, print warning but continue with defaults
		fmt.Fprintf(os.Stderr, "Warning: failed to load config file: %v\n", err)
		globalConfig = config.DefaultConfig()
	}

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to database file (default ~/.byline/byline.db)")
	rootCmd.PersistentFlags().BoolVarP(&jsonOut, "json", "j", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-essential output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().StringVar(&timeStyle, "style", "", "Byline time style: "+strings.Join(common.Styles(), ", ")+" (default from config)")

	// Set version template for --version flag
	rootCmd.SetVersionTemplate(fmt.Sprintf("byline %s (%s, %s)\n", Version, shortCommit(), shortDate()))

	// Add commands
	rootCmd.AddCommand(versionCmd)
}

// shortCommit returns the first 7 characters of the git commit hash
func shortCommit() string {
	if len(GitCommit) >= 7 {
		return GitCommit[:7]
	}
	return GitCommit
}

// shortDate returns just the date portion of BuildDate (YYYY-MM-DD)
func shortDate() string {
	if len(BuildDate) >= 10 {
		return BuildDate[:10]
	}
	return BuildDate
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// setupColor turns color off when asked to or when stdout is not a terminal.
func setupColor() {
	color.NoColor = IsNoColor() || !term.IsTerminal(int(os.Stdout.Fd()))
}

// setupLogger builds the command logger. Verbose mode forces debug level.
func setupLogger() error {
	level := GetConfig().LogLevel
	if verbose {
		level = "debug"
	}
	l, err := logging.NewLogger(logging.Options{
		Level:   level,
		Writers: []io.Writer{os.Stderr},
	})
	if err != nil {
		return werrors.InvalidArgs("%v", err).
			WithSuggestion("Set log_level to one of " + strings.Join(logging.ValidLevels(), ", ") + ".")
	}
	logger = l
	return nil
}

// runAutoBackup performs automatic backup if needed before command execution.
// It skips backup for commands that don't need it (help, version, init).
func runAutoBackup(cmd *cobra.Command) error {
	// Skip for certain commands and their subcommands
	for c := cmd; c != nil; c = c.Parent() {
		if skipBackupCommands[c.Name()] {
			return nil
		}
	}

	// Skip if no config loaded
	if globalConfig == nil {
		return nil
	}

	// Skip if backups are disabled
	if !globalConfig.Backup.Enabled {
		return nil
	}

	path := db.ResolvePath(GetDBPath())

	// Check if database exists - no point backing up a non-existent database
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	mgr := backup.NewManager(path, globalConfig.Backup)
	backupPath, err := mgr.BackupIfNeeded()
	if err != nil {
		// Log warning but don't fail the command
		logger.Warn("automatic backup failed", "error", err)
		return nil
	}

	if backupPath != "" {
		logger.Debug("created backup", "path", backupPath)
	}

	return nil
}

// GetDBPath returns the database path from flags, config, or default.
// Priority: flag > env > config file > default
func GetDBPath() string {
	// Command-line flag has highest priority
	if dbPath != "" {
		return dbPath
	}
	// Config already handles env > file > default
	if globalConfig != nil {
		return globalConfig.GetDB()
	}
	return "" // Will use default in db.Open
}

// openDB opens the database, failing with a hint if it was never initialized.
func openDB() (*db.DB, error) {
	path := GetDBPath()
	if !db.Exists(path) {
		return nil, werrors.NotFound("no database at %s", db.ResolvePath(path)).
			WithSuggestion(SuggestRunInit)
	}
	database, err := db.Open(path)
	if err != nil {
		return nil, werrors.WrapInternal(err, "failed to open database").
			WithSuggestion(SuggestRunInit)
	}
	return database, nil
}

// IsJSON returns whether JSON output is requested
func IsJSON() bool {
	return jsonOut
}

// IsNoColor returns whether colored output should be disabled.
// Priority: flag > env > config file > default
func IsNoColor() bool {
	// Command-line flag has highest priority
	if noColor {
		return true
	}
	// Config already handles env > file > default
	if globalConfig != nil {
		return globalConfig.NoColor
	}
	return false
}

// GetDefaultFeed returns the default feed from config.
func GetDefaultFeed() string {
	if globalConfig != nil {
		return globalConfig.DefaultFeed
	}
	return ""
}

// GetDefaultAuthor returns the author recorded on posts from config.
func GetDefaultAuthor() string {
	if globalConfig != nil {
		return globalConfig.Author
	}
	return ""
}

// GetTimeStyle returns the byline style from the flag or config.
func GetTimeStyle() string {
	if timeStyle != "" {
		return timeStyle
	}
	if globalConfig != nil {
		return globalConfig.TimeStyle
	}
	return common.StyleCompact
}

// GetRetentionDays returns the prune retention from config.
func GetRetentionDays() int {
	if globalConfig != nil && globalConfig.RetentionDays > 0 {
		return globalConfig.RetentionDays
	}
	return 90
}

// GetConfig returns the global configuration.
// This should only be used when direct access to all config values is needed.
func GetConfig() *config.Config {
	if globalConfig != nil {
		return globalConfig
	}
	return config.DefaultConfig()
}

// GetFeedWithDefault returns the provided feed or the default from config.
func GetFeedWithDefault(feed string) string {
	if feed != "" {
		return feed
	}
	return GetDefaultFeed()
}

// newByline returns the byline formatter for the configured style.
func newByline() (*common.Byline, error) {
	b, err := common.NewByline(GetTimeStyle(), nil)
	if err != nil {
		return nil, werrors.InvalidArgs("%v", err).
			WithSuggestion("Use --style or time_style with one of: " + strings.Join(common.Styles(), ", ") + ".")
	}
	return b, nil
}

// Logger returns the logger for the running command.
func Logger() *slog.Logger {
	return logger
}

// IsQuiet returns whether quiet mode is enabled
func IsQuiet() bool {
	return quiet
}

// IsVerbose returns whether verbose mode is enabled
func IsVerbose() bool {
	return verbose
}

// Output prints to stdout unless quiet mode is enabled
func Output(format string, args ...interface{}) {
	if !quiet {
		fmt.Printf(format, args...)
	}
}

// OutputLine prints a line to stdout unless quiet mode is enabled
func OutputLine(format string, args ...interface{}) {
	if !quiet {
		fmt.Printf(format+"\n", args...)
	}
}

// VerboseOutput prints to stdout only in verbose mode
func VerboseOutput(format string, args ...interface{}) {
	if verbose && !quiet {
		fmt.Printf(format, args...)
	}
}

// ErrorOutput prints to stderr
func ErrorOutput(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
}

// printJSON writes v as indented JSON to stdout.
func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return werrors.WrapInternal(err, "failed to marshal JSON")
	}
	fmt.Println(string(data))
	return nil
}
