// Package db provides database connection management for byline.
package db

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultDBPath is the default location for the byline database.
const DefaultDBPath = "~/.byline/byline.db"

// memoryPath is the path reported by databases opened with OpenMemory.
const memoryPath = ":memory:"

// filePragmas apply to on-disk databases. The in-memory database used by
// tests skips WAL, which SQLite does not support there.
var filePragmas = []string{"journal_mode(WAL)", "foreign_keys(ON)", "busy_timeout(5000)"}

// sidecars are the files SQLite keeps next to a WAL-mode database.
var sidecars = []string{"-wal", "-shm"}

// DB wraps a sql.DB connection with the path it was opened from.
type DB struct {
	*sql.DB
	path string
}

// Open opens or creates a byline database at path. An empty path means
// DefaultDBPath. The caller runs Migrate before first use.
func Open(path string) (*DB, error) {
	path = ResolvePath(path)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	return open("file:"+path, path, filePragmas)
}

// OpenMemory opens an empty private in-memory database.
func OpenMemory() (*DB, error) {
	return open(memoryPath, memoryPath, []string{"foreign_keys(ON)"})
}

func open(name, path string, pragmas []string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", dsn(name, pragmas))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection: SQLite has a single writer, and each extra pooled
	// connection to :memory: would see a different empty database.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &DB{DB: sqlDB, path: path}, nil
}

// dsn appends modernc.org/sqlite _pragma parameters to name.
func dsn(name string, pragmas []string) string {
	if len(pragmas) == 0 {
		return name
	}
	params := make([]string, len(pragmas))
	for i, p := range pragmas {
		params[i] = "_pragma=" + p
	}
	return name + "?" + strings.Join(params, "&")
}

// Path returns the file path of the database, ":memory:" for OpenMemory.
func (d *DB) Path() string {
	return d.path
}

// InMemory reports whether the database lives only in memory.
func (d *DB) InMemory() bool {
	return d.path == memoryPath
}

// Size returns the bytes the database occupies on disk, WAL included.
func (d *DB) Size() (int64, error) {
	if d.InMemory() {
		return 0, nil
	}
	var total int64
	for _, suffix := range append([]string{""}, sidecars...) {
		info, err := os.Stat(d.path + suffix)
		if errors.Is(err, fs.ErrNotExist) && suffix != "" {
			continue
		}
		if err != nil {
			return 0, err
		}
		total += info.Size()
	}
	return total, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	if d.DB == nil {
		return nil
	}
	return d.DB.Close()
}

// ResolvePath expands a leading ~ and substitutes DefaultDBPath for "".
func ResolvePath(path string) string {
	if path == "" {
		path = DefaultDBPath
	}
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

// Exists reports whether a database file exists at path.
func Exists(path string) bool {
	info, err := os.Stat(ResolvePath(path))
	return err == nil && !info.IsDir()
}

// Delete removes the database at path along with its WAL and shared-memory
// files.
func Delete(path string) error {
	path = ResolvePath(path)

	for _, suffix := range sidecars {
		if err := os.Remove(path + suffix); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to remove %s: %w", path+suffix, err)
		}
	}
	return os.Remove(path)
}

// FormatTime formats t as RFC 3339 UTC, the form SQLite date functions parse.
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
