// Package tasks provides background task runners for byline.
package tasks

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize/english"
	"github.com/spetersoncode/byline/internal/db"
	"github.com/spetersoncode/byline/internal/logging"
	"github.com/spetersoncode/byline/internal/models"
)

// FeedPruneResult represents the result of pruning a single feed.
type FeedPruneResult struct {
	FeedID       int64  `json:"feed_id"`
	FeedKey      string `json:"feed_key"`
	Entries      int    `json:"entries"`
	ErrorMessage string `json:"error,omitempty"`
}

// PruneResult represents the result of running the prune task.
type PruneResult struct {
	Cutoff    time.Time          `json:"cutoff"`
	Processed int                `json:"processed"`
	Deleted   int                `json:"deleted"`
	Errors    int                `json:"errors"`
	Feeds     []*FeedPruneResult `json:"feeds,omitempty"`
	DryRun    bool               `json:"dry_run"`
}

// EntryPruner removes entries older than a cutoff.
type EntryPruner struct {
	feedRepo  *db.FeedRepo
	entryRepo *db.EntryRepo
	logger    *slog.Logger
}

// NewEntryPruner creates a new EntryPruner. A nil logger discards.
func NewEntryPruner(database *sql.DB, logger *slog.Logger) *EntryPruner {
	if logger == nil {
		logger = logging.Discard
	}
	return &EntryPruner{
		feedRepo:  db.NewFeedRepo(database),
		entryRepo: db.NewEntryRepo(database),
		logger:    logger,
	}
}

// RetentionCutoff returns the cutoff for keeping the given number of days.
func RetentionCutoff(now time.Time, days int) time.Time {
	return now.Add(-time.Duration(days) * 24 * time.Hour)
}

// PruneBefore deletes every entry created before cutoff and records a pruned
// system entry in each affected feed.
// If dryRun is true, it returns what would be deleted without making changes.
func (p *EntryPruner) PruneBefore(cutoff time.Time, dryRun bool) (*PruneResult, error) {
	result := &PruneResult{
		Cutoff: cutoff.UTC(),
		DryRun: dryRun,
	}

	counts, err := p.entryRepo.CountBefore(cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to count old entries: %w", err)
	}

	// Feeds in key order so results are stable.
	feeds, err := p.feedRepo.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list feeds: %w", err)
	}

	for _, feed := range feeds {
		n := counts[feed.ID]
		if n == 0 {
			continue
		}
		result.Processed += n

		feedResult := p.pruneFeed(feed, n, cutoff, dryRun)
		result.Feeds = append(result.Feeds, feedResult)
		if feedResult.ErrorMessage != "" {
			result.Errors++
			continue
		}
		if !dryRun {
			result.Deleted += feedResult.Entries
		}
	}

	p.logger.Info("prune finished",
		"cutoff", result.Cutoff.Format(time.RFC3339),
		"processed", result.Processed,
		"deleted", result.Deleted,
		"errors", result.Errors,
		"dry_run", dryRun,
	)
	return result, nil
}

func (p *EntryPruner) pruneFeed(feed *models.Feed, n int, cutoff time.Time, dryRun bool) *FeedPruneResult {
	result := &FeedPruneResult{
		FeedID:  feed.ID,
		FeedKey: feed.Key,
		Entries: n,
	}

	if dryRun {
		return result
	}

	deleted, err := p.entryRepo.DeleteBefore(feed.ID, cutoff)
	if err != nil {
		result.ErrorMessage = fmt.Sprintf("failed to delete entries: %v", err)
		return result
	}
	result.Entries = deleted

	summary := fmt.Sprintf("Pruned %s older than %s", english.Plural(deleted, "entry", "entries"), cutoff.UTC().Format("2006-01-02"))
	details := map[string]interface{}{
		"deleted": deleted,
		"cutoff":  db.FormatTime(cutoff),
	}
	if _, err := p.entryRepo.LogWithDetails(feed.ID, models.ActionPruned, models.ActorTypeSystem, "", summary, details); err != nil {
		p.logger.Warn("failed to record prune entry", "feed", feed.Key, "error", err)
	}

	p.logger.Debug("feed pruned", "feed", feed.Key, "deleted", deleted)
	return result
}

// RunDaemon prunes entries older than retention on every interval tick.
// It runs once immediately on start.
func (p *EntryPruner) RunDaemon(ctx context.Context, interval, retention time.Duration, callback func(*PruneResult)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	run := func() {
		result, err := p.PruneBefore(time.Now().Add(-retention), false)
		if err != nil {
			// Log error but continue running
			p.logger.Error("prune failed", "error", err)
			return
		}
		if callback != nil {
			callback(result)
		}
	}

	run()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			run()
		}
	}
}
