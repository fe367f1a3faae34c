package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spetersoncode/byline/internal/models"
)

// EntryRepo provides database operations for feed entries.
type EntryRepo struct {
	db *sql.DB
}

// NewEntryRepo creates a new EntryRepo.
func NewEntryRepo(db *sql.DB) *EntryRepo {
	return &EntryRepo{db: db}
}

// EntryFilter defines filters for listing entries.
type EntryFilter struct {
	FeedID    *int64
	Action    *models.Action
	ActorType *models.ActorType
	Author    string
	Since     *time.Time
	Before    *time.Time
	Limit     int
	Offset    int
}

const entryColumns = `
	e.id, e.ref, e.feed_id, e.number, e.action, e.actor_type, e.author,
	e.summary, e.details, e.created_at, f.key AS feed_key
`

// Create creates a new entry. ID and Number are assigned here, as is Ref
// when empty; a zero CreatedAt is set to the current time.
func (r *EntryRepo) Create(e *models.Entry) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("invalid entry: %w", err)
	}

	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	if e.Ref == "" {
		e.Ref = uuid.NewString()
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Numbers come from the feed's counter, never from surviving rows, so a
	// key stays unique after older entries are pruned.
	var number int
	err = tx.QueryRow(
		`UPDATE feeds SET next_number = next_number + 1 WHERE id = ? RETURNING next_number - 1`,
		e.FeedID,
	).Scan(&number)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to create entry: feed %d does not exist", e.FeedID)
	}
	if err != nil {
		return fmt.Errorf("failed to get next entry number: %w", err)
	}

	query := `
		INSERT INTO entries (ref, feed_id, number, action, actor_type, author, summary, details, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := tx.Exec(query,
		e.Ref, e.FeedID, number, e.Action, e.ActorType, nullString(e.Author),
		e.Summary, nullString(e.Details), FormatTime(e.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get entry id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit entry: %w", err)
	}

	e.ID = id
	e.Number = number
	return nil
}

// GetByID retrieves an entry by ID.
func (r *EntryRepo) GetByID(id int64) (*models.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries e JOIN feeds f ON e.feed_id = f.id WHERE e.id = ?`
	return r.scanOne(r.db.QueryRow(query, id))
}

// GetByRef retrieves an entry by its UUID reference.
func (r *EntryRepo) GetByRef(ref string) (*models.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries e JOIN feeds f ON e.feed_id = f.id WHERE e.ref = ?`
	return r.scanOne(r.db.QueryRow(query, ref))
}

// GetByKey retrieves an entry by feed key and number (e.g., "OPS", 42).
func (r *EntryRepo) GetByKey(feedKey string, number int) (*models.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries e JOIN feeds f ON e.feed_id = f.id WHERE f.key = ? AND e.number = ?`
	return r.scanOne(r.db.QueryRow(query, feedKey, number))
}

// List retrieves entries matching the filter, newest first.
func (r *EntryRepo) List(filter EntryFilter) ([]*models.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries e JOIN feeds f ON e.feed_id = f.id WHERE 1=1`
	args := []interface{}{}

	if filter.FeedID != nil {
		query += " AND e.feed_id = ?"
		args = append(args, *filter.FeedID)
	}
	if filter.Action != nil {
		query += " AND e.action = ?"
		args = append(args, *filter.Action)
	}
	if filter.ActorType != nil {
		query += " AND e.actor_type = ?"
		args = append(args, *filter.ActorType)
	}
	if filter.Author != "" {
		query += " AND e.author = ?"
		args = append(args, filter.Author)
	}
	if filter.Since != nil {
		query += " AND e.created_at >= ?"
		args = append(args, FormatTime(*filter.Since))
	}
	if filter.Before != nil {
		query += " AND e.created_at < ?"
		args = append(args, FormatTime(*filter.Before))
	}

	query += " ORDER BY e.created_at DESC, e.id DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	} else if filter.Offset > 0 {
		query += " LIMIT -1"
	}
	if filter.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	defer rows.Close()

	return r.scanMany(rows)
}

// ListByFeed retrieves the newest entries of a feed.
func (r *EntryRepo) ListByFeed(feedID int64, limit int) ([]*models.Entry, error) {
	return r.List(EntryFilter{FeedID: &feedID, Limit: limit})
}

// CountByFeed counts the entries in a feed.
func (r *EntryRepo) CountByFeed(feedID int64) (int, error) {
	query := `SELECT COUNT(*) FROM entries WHERE feed_id = ?`
	var count int
	if err := r.db.QueryRow(query, feedID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	return count, nil
}

// CountBefore counts entries per feed created before cutoff.
func (r *EntryRepo) CountBefore(cutoff time.Time) (map[int64]int, error) {
	query := `SELECT feed_id, COUNT(*) FROM entries WHERE created_at < ? GROUP BY feed_id`
	rows, err := r.db.Query(query, FormatTime(cutoff))
	if err != nil {
		return nil, fmt.Errorf("failed to count old entries: %w", err)
	}
	defer rows.Close()

	counts := make(map[int64]int)
	for rows.Next() {
		var feedID int64
		var n int
		if err := rows.Scan(&feedID, &n); err != nil {
			return nil, fmt.Errorf("failed to scan entry count: %w", err)
		}
		counts[feedID] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entry counts: %w", err)
	}
	return counts, nil
}

// DeleteBefore deletes entries of a feed created before cutoff and returns
// how many were removed.
func (r *EntryRepo) DeleteBefore(feedID int64, cutoff time.Time) (int, error) {
	result, err := r.db.Exec(`DELETE FROM entries WHERE feed_id = ? AND created_at < ?`, feedID, FormatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("failed to delete entries: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(n), nil
}

// Log is a convenience method to create an entry.
func (r *EntryRepo) Log(feedID int64, action models.Action, actorType models.ActorType, author, summary string) (*models.Entry, error) {
	e := models.NewEntry(feedID, action, actorType, author, summary)
	if err := r.Create(e); err != nil {
		return nil, err
	}
	return e, nil
}

// LogWithDetails is a convenience method to create an entry with details.
func (r *EntryRepo) LogWithDetails(feedID int64, action models.Action, actorType models.ActorType, author, summary string, details map[string]interface{}) (*models.Entry, error) {
	e, err := models.NewEntryWithDetails(feedID, action, actorType, author, summary, details)
	if err != nil {
		return nil, err
	}
	if err := r.Create(e); err != nil {
		return nil, err
	}
	return e, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(s rowScanner) (*models.Entry, error) {
	var e models.Entry
	var author, details sql.NullString

	err := s.Scan(
		&e.ID, &e.Ref, &e.FeedID, &e.Number, &e.Action, &e.ActorType, &author,
		&e.Summary, &details, &e.CreatedAt, &e.FeedKey,
	)
	if err != nil {
		return nil, err
	}

	e.Author = author.String
	e.Details = details.String
	return &e, nil
}

func (r *EntryRepo) scanOne(row *sql.Row) (*models.Entry, error) {
	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan entry: %w", err)
	}
	return e, nil
}

func (r *EntryRepo) scanMany(rows *sql.Rows) ([]*models.Entry, error) {
	var entries []*models.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entries: %w", err)
	}
	return entries, nil
}
