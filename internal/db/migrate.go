package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// ErrNothingToRollback is returned by Rollback on an empty schema.
var ErrNothingToRollback = errors.New("no migrations to roll back")

// Migration describes one embedded schema migration and whether it has
// been applied.
type Migration struct {
	Version   int64     `json:"version"`
	Name      string    `json:"name"`
	Applied   bool      `json:"applied"`
	AppliedAt time.Time `json:"applied_at,omitempty"`
}

func migrator(db *sql.DB) (*goose.Provider, error) {
	fsys, err := fs.Sub(embedMigrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to load migrations: %w", err)
	}
	p, err := goose.NewProvider(goose.DialectSQLite3, db, fsys, goose.WithDisableGlobalRegistry(true))
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	return p, nil
}

// Migrate applies every pending migration.
func (d *DB) Migrate(ctx context.Context) error {
	return Migrate(ctx, d.DB)
}

// Migrate applies every pending migration to db.
func Migrate(ctx context.Context, db *sql.DB) error {
	p, err := migrator(db)
	if err != nil {
		return err
	}
	if _, err := p.Up(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Rollback reverts the newest applied migration and returns its version.
func (d *DB) Rollback(ctx context.Context) (int64, error) {
	p, err := migrator(d.DB)
	if err != nil {
		return 0, err
	}
	res, err := p.Down(ctx)
	if errors.Is(err, goose.ErrNoNextVersion) {
		return 0, ErrNothingToRollback
	}
	if err != nil {
		return 0, fmt.Errorf("failed to roll back migration: %w", err)
	}
	return res.Source.Version, nil
}

// Reset reverts every applied migration, leaving an empty schema.
func (d *DB) Reset(ctx context.Context) error {
	p, err := migrator(d.DB)
	if err != nil {
		return err
	}
	if _, err := p.DownTo(ctx, 0); err != nil {
		return fmt.Errorf("failed to reset schema: %w", err)
	}
	return nil
}

// SchemaVersion returns the newest applied migration version, 0 when none is.
func (d *DB) SchemaVersion(ctx context.Context) (int64, error) {
	p, err := migrator(d.DB)
	if err != nil {
		return 0, err
	}
	version, err := p.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}

// Migrations lists the embedded migrations in version order.
func (d *DB) Migrations(ctx context.Context) ([]Migration, error) {
	p, err := migrator(d.DB)
	if err != nil {
		return nil, err
	}
	statuses, err := p.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get migration status: %w", err)
	}

	out := make([]Migration, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, Migration{
			Version:   s.Source.Version,
			Name:      filepath.Base(s.Source.Path),
			Applied:   s.State == goose.StateApplied,
			AppliedAt: s.AppliedAt,
		})
	}
	return out, nil
}

// Pending counts migrations not yet applied.
func Pending(migrations []Migration) int {
	n := 0
	for _, m := range migrations {
		if !m.Applied {
			n++
		}
	}
	return n
}
