package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/spetersoncode/byline/internal/models"
)

// FeedRepo provides database operations for feeds.
type FeedRepo struct {
	db *sql.DB
}

// NewFeedRepo creates a new FeedRepo.
func NewFeedRepo(db *sql.DB) *FeedRepo {
	return &FeedRepo{db: db}
}

// Create creates a new feed.
func (r *FeedRepo) Create(f *models.Feed) error {
	if err := f.Validate(); err != nil {
		return fmt.Errorf("invalid feed: %w", err)
	}

	query := `
		INSERT INTO feeds (key, name, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`
	now := time.Now()
	nowStr := FormatTime(now)
	result, err := r.db.Exec(query, f.Key, f.Name, nullString(f.Description), nowStr, nowStr)
	if err != nil {
		return fmt.Errorf("failed to create feed: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get feed id: %w", err)
	}

	f.ID = id
	f.CreatedAt = now
	f.UpdatedAt = now
	return nil
}

// GetByID retrieves a feed by ID.
func (r *FeedRepo) GetByID(id int64) (*models.Feed, error) {
	query := `SELECT id, key, name, description, created_at, updated_at FROM feeds WHERE id = ?`
	return r.scanOne(r.db.QueryRow(query, id))
}

// GetByKey retrieves a feed by its key.
func (r *FeedRepo) GetByKey(key string) (*models.Feed, error) {
	query := `SELECT id, key, name, description, created_at, updated_at FROM feeds WHERE key = ?`
	return r.scanOne(r.db.QueryRow(query, key))
}

// List retrieves all feeds ordered by key.
func (r *FeedRepo) List() ([]*models.Feed, error) {
	query := `SELECT id, key, name, description, created_at, updated_at FROM feeds ORDER BY key`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list feeds: %w", err)
	}
	defer rows.Close()

	return r.scanMany(rows)
}

// Update updates a feed's name and description.
func (r *FeedRepo) Update(f *models.Feed) error {
	if f.ID <= 0 {
		return fmt.Errorf("feed id is required")
	}
	if f.Name == "" {
		return fmt.Errorf("feed name cannot be empty")
	}

	query := `UPDATE feeds SET name = ?, description = ?, updated_at = ? WHERE id = ?`
	result, err := r.db.Exec(query, f.Name, nullString(f.Description), FormatTime(time.Now()), f.ID)
	if err != nil {
		return fmt.Errorf("failed to update feed: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("feed not found")
	}

	return nil
}

// Delete deletes a feed by ID. Its entries are removed by cascade.
func (r *FeedRepo) Delete(id int64) error {
	query := `DELETE FROM feeds WHERE id = ?`
	result, err := r.db.Exec(query, id)
	if err != nil {
		return fmt.Errorf("failed to delete feed: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("feed not found")
	}

	return nil
}

// Exists checks if a feed with the given key exists.
func (r *FeedRepo) Exists(key string) (bool, error) {
	query := `SELECT 1 FROM feeds WHERE key = ? LIMIT 1`
	var exists int
	err := r.db.QueryRow(query, key).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check feed existence: %w", err)
	}
	return true, nil
}

// CountEntries counts the entries in a feed.
func (r *FeedRepo) CountEntries(feedID int64) (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM entries WHERE feed_id = ?`, feedID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count feed entries: %w", err)
	}
	return count, nil
}

func (r *FeedRepo) scanOne(row *sql.Row) (*models.Feed, error) {
	var f models.Feed
	var desc sql.NullString
	err := row.Scan(&f.ID, &f.Key, &f.Name, &desc, &f.CreatedAt, &f.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan feed: %w", err)
	}
	f.Description = desc.String
	return &f, nil
}

func (r *FeedRepo) scanMany(rows *sql.Rows) ([]*models.Feed, error) {
	var feeds []*models.Feed
	for rows.Next() {
		var f models.Feed
		var desc sql.NullString
		err := rows.Scan(&f.ID, &f.Key, &f.Name, &desc, &f.CreatedAt, &f.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feed: %w", err)
		}
		f.Description = desc.String
		feeds = append(feeds, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feeds: %w", err)
	}
	return feeds, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
