package cli

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spetersoncode/byline/internal/db"
	"github.com/spetersoncode/byline/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Version and Init
// =============================================================================

func TestCmdVersion(t *testing.T) {
	_, path, cleanup := testDBWithPath(t)
	defer cleanup()

	output, err := runCmd(t, path, "version")
	require.NoError(t, err)
	assert.Contains(t, output, "byline")
	assert.Contains(t, output, "schema v3")
}

func TestCmdVersionJSON(t *testing.T) {
	_, path, cleanup := testDBWithPath(t)
	defer cleanup()

	var result map[string]interface{}
	err := runCmdJSON(t, path, &result, "version")
	require.NoError(t, err)
	assert.Contains(t, result, "version")
	assert.EqualValues(t, 3, result["schema_version"])
	assert.EqualValues(t, 0, result["pending_migrations"])
}

func TestCmdInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fresh.db")

	output, err := runCmd(t, path, "init")
	require.NoError(t, err)
	assert.Contains(t, output, "Initialized byline database")
	assert.True(t, db.Exists(path))

	_, err = runCmd(t, path, "init")
	require.Error(t, err)
	assert.Equal(t, ExitConflict, ExitCode(err))
	assert.Contains(t, FormatErrorMessage(err), "--force")

	output, err = runCmd(t, path, "init", "--force")
	require.NoError(t, err)
	assert.Contains(t, output, "Schema version: 3")
}

func TestCmdMissingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.db")

	_, err := runCmd(t, path, "feed", "list")
	require.Error(t, err)
	assert.Equal(t, ExitNotFound, ExitCode(err))
	assert.Contains(t, FormatErrorMessage(err), "byline init")
	assert.False(t, db.Exists(path), "commands must not create the database")
}

// =============================================================================
// Feed Commands
// =============================================================================

func TestCmdFeedCreate(t *testing.T) {
	_, path, cleanup := testDBWithPath(t)
	defer cleanup()

	output, err := runCmd(t, path, "feed", "create", "ops", "--name", "Operations")
	require.NoError(t, err)
	assert.Contains(t, output, "Created feed: OPS")
	assert.Contains(t, output, "Name: Operations")

	_, err = runCmd(t, path, "feed", "create", "OPS", "--name", "Again")
	require.Error(t, err)
	assert.Equal(t, ExitConflict, ExitCode(err))
	assert.Contains(t, err.Error(), "already exists")
}

func TestCmdFeedCreateInvalidKey(t *testing.T) {
	_, path, cleanup := testDBWithPath(t)
	defer cleanup()

	for _, key := range []string{"A", "1ABC", "TOOLONGFEEDKEY", "BAD-KEY"} {
		t.Run(key, func(t *testing.T) {
			_, err := runCmd(t, path, "feed", "create", key, "--name", "Bad")
			require.Error(t, err)
			assert.Equal(t, ExitInvalidArgs, ExitCode(err))
			assert.Contains(t, FormatErrorMessage(err), "Suggestion:")
		})
	}
}

func TestCmdFeedListAndShow(t *testing.T) {
	_, path, cleanup := testDBWithPath(t)
	defer cleanup()

	output, err := runCmd(t, path, "feed", "list")
	require.NoError(t, err)
	assert.Contains(t, output, "No feeds found")

	_, err = runCmd(t, path, "feed", "create", "OPS", "--name", "Operations", "-d", "on-call notes")
	require.NoError(t, err)
	_, err = runCmd(t, path, "post", "OPS", "Rotated", "certs", "--author", "alex")
	require.NoError(t, err)

	output, err = runCmd(t, path, "feed", "list")
	require.NoError(t, err)
	assert.Contains(t, output, "OPS")
	assert.Contains(t, output, "just now by alex")

	output, err = runCmd(t, path, "feed", "show", "ops")
	require.NoError(t, err)
	assert.Contains(t, output, "Feed: OPS")
	assert.Contains(t, output, "Description: on-call notes")
	assert.Contains(t, output, "Entries: 1")
	assert.Contains(t, output, "OPS-1")
	assert.Contains(t, output, "Rotated certs")

	var feeds []map[string]interface{}
	require.NoError(t, runCmdJSON(t, path, &feeds, "feed", "list"))
	require.Len(t, feeds, 1)
	assert.EqualValues(t, 1, feeds[0]["entries"])
	assert.Equal(t, "just now by alex", feeds[0]["last_activity"])

	_, err = runCmd(t, path, "feed", "show", "NOPE")
	require.Error(t, err)
	assert.Equal(t, ExitNotFound, ExitCode(err))
}

func TestCmdFeedDelete(t *testing.T) {
	_, path, cleanup := testDBWithPath(t)
	defer cleanup()

	_, err := runCmd(t, path, "feed", "create", "OPS", "--name", "Operations")
	require.NoError(t, err)

	output, err := runCmd(t, path, "feed", "delete", "OPS", "--force")
	require.NoError(t, err)
	assert.Contains(t, output, "Deleted feed: OPS")

	_, err = runCmd(t, path, "feed", "show", "OPS")
	assert.Equal(t, ExitNotFound, ExitCode(err))
}

// =============================================================================
// Post, Log, Entry, Recent
// =============================================================================

func setupFeed(t *testing.T, path, key string) {
	t.Helper()
	_, err := runCmd(t, path, "feed", "create", key, "--name", key)
	require.NoError(t, err)
}

func TestCmdPost(t *testing.T) {
	_, path, cleanup := testDBWithPath(t)
	defer cleanup()
	setupFeed(t, path, "OPS")

	t.Run("with author", func(t *testing.T) {
		var item map[string]interface{}
		err := runCmdJSON(t, path, &item, "post", "OPS", "Deployed v1.4.2", "--author", "alex", "--action", "published")
		require.NoError(t, err)
		assert.Equal(t, "OPS-1", item["key"])
		assert.Equal(t, "just now by alex", item["byline"])
		assert.Equal(t, "published", item["action"])
	})

	t.Run("without author", func(t *testing.T) {
		var item map[string]interface{}
		err := runCmdJSON(t, path, &item, "post", "OPS", "Nightly", "job", "--actor", "system")
		require.NoError(t, err)
		assert.Equal(t, "just now", item["byline"])
		assert.Equal(t, "Nightly job", item["summary"])
	})

	t.Run("config author is the default", func(t *testing.T) {
		resetGlobalFlags()
		globalConfig.Author = "sam"
		rootCmd.SetArgs([]string{"--db", path, "post", "OPS", "From config"})

		var execErr error
		output, _ := captureOutput(func() { execErr = rootCmd.Execute() })
		require.NoError(t, execErr)
		assert.Contains(t, output, "Posted OPS-3")

		database, err := db.Open(path)
		require.NoError(t, err)
		defer database.Close()
		entry, err := db.NewEntryRepo(database.DB).GetByKey("OPS", 3)
		require.NoError(t, err)
		require.NotNil(t, entry)
		assert.Equal(t, "sam", entry.Author)
	})

	t.Run("details", func(t *testing.T) {
		var item map[string]interface{}
		err := runCmdJSON(t, path, &item, "post", "OPS", "Backfill", "--detail", "rows=1200", "--detail", "table=users")
		require.NoError(t, err)
		assert.JSONEq(t, `{"rows":"1200","table":"users"}`, item["details"].(string))
	})

	t.Run("invalid actor", func(t *testing.T) {
		_, err := runCmd(t, path, "post", "OPS", "x", "--actor", "robot")
		require.Error(t, err)
		assert.Equal(t, ExitInvalidArgs, ExitCode(err))
	})

	t.Run("unknown feed", func(t *testing.T) {
		_, err := runCmd(t, path, "post", "NOPE", "x")
		require.Error(t, err)
		assert.Equal(t, ExitNotFound, ExitCode(err))
	})

	t.Run("missing summary", func(t *testing.T) {
		_, err := runCmd(t, path, "post", "OPS")
		require.Error(t, err)
	})
}

func TestCmdLog(t *testing.T) {
	_, path, cleanup := testDBWithPath(t)
	defer cleanup()
	setupFeed(t, path, "OPS")

	_, err := runCmd(t, path, "post", "OPS", "first", "--author", "alex")
	require.NoError(t, err)
	_, err = runCmd(t, path, "post", "OPS", "second", "--actor", "agent", "--author", "agent-7")
	require.NoError(t, err)
	_, err = runCmd(t, path, "post", "OPS", "third", "--actor", "system")
	require.NoError(t, err)

	t.Run("table", func(t *testing.T) {
		output, err := runCmd(t, path, "log", "OPS")
		require.NoError(t, err)
		assert.Contains(t, output, "WHEN")
		assert.Contains(t, output, "just now by alex")
		assert.Contains(t, output, "just now by agent-7")

		lines := strings.Split(strings.TrimSpace(output), "\n")
		require.Len(t, lines, 5)
		assert.Contains(t, lines[2], "third")
		assert.True(t, strings.HasSuffix(lines[2], "just now"))
	})

	t.Run("author filter", func(t *testing.T) {
		var items []map[string]interface{}
		require.NoError(t, runCmdJSON(t, path, &items, "log", "OPS", "--author", "alex"))
		require.Len(t, items, 1)
		assert.Equal(t, "just now by alex", items[0]["byline"])
	})

	t.Run("actor filter", func(t *testing.T) {
		var items []map[string]interface{}
		require.NoError(t, runCmdJSON(t, path, &items, "log", "OPS", "--actor", "agent"))
		require.Len(t, items, 1)
		assert.Equal(t, "second", items[0]["summary"])
	})

	t.Run("limit", func(t *testing.T) {
		var items []map[string]interface{}
		require.NoError(t, runCmdJSON(t, path, &items, "log", "OPS", "--limit", "2"))
		assert.Len(t, items, 2)
	})

	t.Run("since tomorrow", func(t *testing.T) {
		tomorrow := time.Now().Add(24 * time.Hour).Format("2006-01-02")
		output, err := runCmd(t, path, "log", "OPS", "--since", tomorrow)
		require.NoError(t, err)
		assert.Contains(t, output, "No entries found")
	})

	t.Run("long style", func(t *testing.T) {
		var items []map[string]interface{}
		require.NoError(t, runCmdJSON(t, path, &items, "log", "OPS", "--style", "long", "--author", "alex"))
		require.Len(t, items, 1)
		byline := items[0]["byline"].(string)
		assert.True(t, strings.HasSuffix(byline, " by alex"), byline)
		assert.NotContains(t, byline, "just now")
	})

	t.Run("unknown style", func(t *testing.T) {
		_, err := runCmd(t, path, "log", "OPS", "--style", "fancy")
		require.Error(t, err)
		assert.Equal(t, ExitInvalidArgs, ExitCode(err))
	})

	t.Run("default feed", func(t *testing.T) {
		resetGlobalFlags()
		globalConfig.DefaultFeed = "OPS"
		rootCmd.SetArgs([]string{"--db", path, "log"})

		var execErr error
		output, _ := captureOutput(func() { execErr = rootCmd.Execute() })
		require.NoError(t, execErr)
		assert.Contains(t, output, "first")
	})

	t.Run("no feed", func(t *testing.T) {
		_, err := runCmd(t, path, "log")
		require.Error(t, err)
		assert.Equal(t, ExitInvalidArgs, ExitCode(err))
	})
}

func TestCmdEntry(t *testing.T) {
	_, path, cleanup := testDBWithPath(t)
	defer cleanup()
	setupFeed(t, path, "OPS")

	_, err := runCmd(t, path, "post", "OPS", "Rotated certs", "--author", "alex", "--detail", "host=db1")
	require.NoError(t, err)

	output, err := runCmd(t, path, "entry", "ops-1")
	require.NoError(t, err)
	assert.Contains(t, output, "Entry: OPS-1")
	assert.Contains(t, output, "Posted: just now by alex")
	assert.Contains(t, output, `"host":"db1"`)

	_, err = runCmd(t, path, "entry", "OPS-9")
	assert.Equal(t, ExitNotFound, ExitCode(err))

	_, err = runCmd(t, path, "entry", "garbage")
	require.Error(t, err)
	assert.Equal(t, ExitInvalidArgs, ExitCode(err))
	assert.Contains(t, FormatErrorMessage(err), "FEED-12")
}

func TestCmdRecent(t *testing.T) {
	_, path, cleanup := testDBWithPath(t)
	defer cleanup()

	output, err := runCmd(t, path, "recent")
	require.NoError(t, err)
	assert.Contains(t, output, "No entries found")

	setupFeed(t, path, "OPS")
	setupFeed(t, path, "WEB")
	_, err = runCmd(t, path, "post", "OPS", "ops entry", "--author", "alex")
	require.NoError(t, err)
	_, err = runCmd(t, path, "post", "WEB", "web entry")
	require.NoError(t, err)

	output, err = runCmd(t, path, "recent")
	require.NoError(t, err)
	assert.Contains(t, output, "OPS-1")
	assert.Contains(t, output, "WEB-1")

	var items []map[string]interface{}
	require.NoError(t, runCmdJSON(t, path, &items, "recent", "--limit", "1"))
	require.Len(t, items, 1)
	assert.Equal(t, "WEB-1", items[0]["key"])
}

// =============================================================================
// Prune
// =============================================================================

func TestCmdPrune(t *testing.T) {
	database, path, cleanup := testDBWithPath(t)
	defer cleanup()
	setupFeed(t, path, "OPS")

	feed, err := db.NewFeedRepo(database.DB).GetByKey("OPS")
	require.NoError(t, err)
	old := models.NewEntry(feed.ID, models.ActionPosted, models.ActorTypeHuman, "alex", "ancient")
	old.CreatedAt = time.Now().Add(-200 * 24 * time.Hour)
	require.NoError(t, db.NewEntryRepo(database.DB).Create(old))

	output, err := runCmd(t, path, "prune", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, output, "Would delete 1 entry")

	var result map[string]interface{}
	require.NoError(t, runCmdJSON(t, path, &result, "prune", "--older-than-days", "30"))
	assert.EqualValues(t, 1, result["deleted"])

	var items []map[string]interface{}
	require.NoError(t, runCmdJSON(t, path, &items, "log", "OPS"))
	require.Len(t, items, 1)
	assert.Equal(t, "pruned", items[0]["action"])
	assert.Equal(t, "just now", items[0]["byline"])
	assert.Equal(t, "OPS-2", items[0]["key"])

	_, err = runCmd(t, path, "entry", "OPS-1")
	require.Error(t, err)
	assert.Equal(t, ExitNotFound, ExitCode(err))

	output, err = runCmd(t, path, "prune")
	require.NoError(t, err)
	assert.Contains(t, output, "No entries older than 90 days")
}

// =============================================================================
// Backup
// =============================================================================

func TestCmdBackup(t *testing.T) {
	_, path, cleanup := testDBWithPath(t)
	defer cleanup()

	output, err := runCmd(t, path, "backup", "list")
	require.NoError(t, err)
	assert.Contains(t, output, "No backups")

	output, err = runCmd(t, path, "backup", "now")
	require.NoError(t, err)
	assert.Contains(t, output, "test.db.bak.1")

	var backups []map[string]interface{}
	require.NoError(t, runCmdJSON(t, path, &backups, "backup", "list"))
	require.Len(t, backups, 1)
	assert.EqualValues(t, 1, backups[0]["number"])
}

// =============================================================================
// Schema
// =============================================================================

func TestCmdDB(t *testing.T) {
	_, path, cleanup := testDBWithPath(t)
	defer cleanup()

	output, err := runCmd(t, path, "db", "status")
	require.NoError(t, err)
	assert.Contains(t, output, "00003_feed_next_number.sql")
	assert.NotContains(t, output, "pending")

	output, err = runCmd(t, path, "db", "migrate")
	require.NoError(t, err)
	assert.Contains(t, output, "up to date (v3)")

	output, err = runCmd(t, path, "db", "rollback")
	require.NoError(t, err)
	assert.Contains(t, output, "Rolled back migration 3")

	var migrations []map[string]interface{}
	require.NoError(t, runCmdJSON(t, path, &migrations, "db", "status"))
	require.Len(t, migrations, 3)
	assert.Equal(t, false, migrations[2]["applied"])

	output, err = runCmd(t, path, "version")
	require.NoError(t, err)
	assert.Contains(t, output, "1 migration pending")

	output, err = runCmd(t, path, "db", "migrate")
	require.NoError(t, err)
	assert.Contains(t, output, "v2 -> v3")
}

func TestCmdDBReset(t *testing.T) {
	_, path, cleanup := testDBWithPath(t)
	defer cleanup()
	setupFeed(t, path, "OPS")

	_, err := runCmd(t, path, "db", "reset")
	require.Error(t, err)
	assert.Equal(t, ExitInvalidArgs, ExitCode(err))

	_, err = runCmd(t, path, "db", "reset", "--force")
	require.NoError(t, err)

	_, err = runCmd(t, path, "db", "rollback")
	require.Error(t, err)
	assert.Equal(t, ExitConflict, ExitCode(err))

	_, err = runCmd(t, path, "db", "migrate")
	require.NoError(t, err)

	var feeds []map[string]interface{}
	require.NoError(t, runCmdJSON(t, path, &feeds, "feed", "list"))
	assert.Empty(t, feeds)
}
