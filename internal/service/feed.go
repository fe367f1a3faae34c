// Package service provides business logic services for byline.
package service

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spetersoncode/byline/internal/common"
	"github.com/spetersoncode/byline/internal/db"
	werrors "github.com/spetersoncode/byline/internal/errors"
	"github.com/spetersoncode/byline/internal/logging"
	"github.com/spetersoncode/byline/internal/models"
)

// DefaultTimelineLimit is used when TimelineOptions.Limit is zero.
const DefaultTimelineLimit = 20

// FeedService coordinates feed and entry repositories and renders each
// entry's byline for display.
type FeedService struct {
	feedRepo  *db.FeedRepo
	entryRepo *db.EntryRepo
	byline    *common.Byline
	logger    *slog.Logger
}

// NewFeedService creates a FeedService. A nil byline uses the compact style
// against the wall clock; a nil logger discards.
func NewFeedService(database *sql.DB, byline *common.Byline, logger *slog.Logger) *FeedService {
	if byline == nil {
		byline = &common.Byline{Relative: common.CompactAge(nil)}
	}
	if logger == nil {
		logger = logging.Discard
	}
	return &FeedService{
		feedRepo:  db.NewFeedRepo(database),
		entryRepo: db.NewEntryRepo(database),
		byline:    byline,
		logger:    logger,
	}
}

// TimelineItem is an entry ready for display.
type TimelineItem struct {
	*models.Entry
	EntryKey string `json:"key"`
	Byline   string `json:"byline"`
}

// FeedSummary is a feed with its entry count and most recent activity.
type FeedSummary struct {
	*models.Feed
	Entries      int    `json:"entries"`
	LastActivity string `json:"last_activity,omitempty"`
}

// PostInput describes a new entry.
type PostInput struct {
	Action    models.Action
	ActorType models.ActorType
	Author    string
	Summary   string
	Details   map[string]interface{}
}

// TimelineOptions filters a timeline.
type TimelineOptions struct {
	Limit     int
	Offset    int
	Author    string
	ActorType *models.ActorType
	Action    *models.Action
	Since     *time.Time
}

// NormalizeFeedKey upper-cases and trims a feed key.
func NormalizeFeedKey(key string) string {
	return strings.ToUpper(strings.TrimSpace(key))
}

// ParseSince parses a timeline lower bound given as RFC 3339 or as a local
// date (YYYY-MM-DD).
func ParseSince(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return time.Time{}, werrors.InvalidArgs("invalid since value %q", s).
			WithSuggestion("Use a date like 2024-03-01 or an RFC 3339 timestamp.")
	}
	return t, nil
}

// CreateFeed creates a new feed.
func (s *FeedService) CreateFeed(key, name, description string) (*models.Feed, error) {
	key = NormalizeFeedKey(key)
	feed := &models.Feed{Key: key, Name: strings.TrimSpace(name), Description: description}
	if err := feed.Validate(); err != nil {
		return nil, werrors.InvalidArgs("invalid feed: %v", err).
			WithSuggestion("Feed keys are 2-10 uppercase alphanumeric characters starting with a letter (e.g., OPS, TEAM1).")
	}

	exists, err := s.feedRepo.Exists(key)
	if err != nil {
		return nil, werrors.WrapInternal(err, "failed to check feed")
	}
	if exists {
		return nil, werrors.Conflict("feed %s already exists", key)
	}

	if err := s.feedRepo.Create(feed); err != nil {
		return nil, werrors.WrapInternal(err, "failed to create feed")
	}

	s.logger.Info("feed created", "feed", key)
	return feed, nil
}

// GetFeed returns a feed by key.
func (s *FeedService) GetFeed(key string) (*models.Feed, error) {
	key = NormalizeFeedKey(key)
	if key == "" {
		return nil, werrors.InvalidArgs("feed key is required").
			WithSuggestion("Pass a feed key or set default_feed in the config file.")
	}

	feed, err := s.feedRepo.GetByKey(key)
	if err != nil {
		return nil, werrors.WrapInternal(err, "failed to get feed")
	}
	if feed == nil {
		return nil, werrors.NotFound("feed %s not found", key).
			WithSuggestion("Run 'byline feed list' to see available feeds.")
	}
	return feed, nil
}

// ListFeeds returns every feed with its entry count and the byline of its
// newest entry.
func (s *FeedService) ListFeeds() ([]FeedSummary, error) {
	feeds, err := s.feedRepo.List()
	if err != nil {
		return nil, werrors.WrapInternal(err, "failed to list feeds")
	}

	summaries := make([]FeedSummary, 0, len(feeds))
	for _, feed := range feeds {
		summary := FeedSummary{Feed: feed}

		count, err := s.entryRepo.CountByFeed(feed.ID)
		if err != nil {
			return nil, werrors.WrapInternal(err, "failed to count entries")
		}
		summary.Entries = count

		latest, err := s.entryRepo.ListByFeed(feed.ID, 1)
		if err != nil {
			return nil, werrors.WrapInternal(err, "failed to get latest entry")
		}
		if len(latest) > 0 {
			line, err := s.byline.Format(latest[0].CreatedAt, latest[0].Author)
			if err != nil {
				return nil, fmt.Errorf("feed %s: %w", feed.Key, err)
			}
			summary.LastActivity = line
		}

		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// DeleteFeed removes a feed and all of its entries.
func (s *FeedService) DeleteFeed(key string) error {
	feed, err := s.GetFeed(key)
	if err != nil {
		return err
	}
	if err := s.feedRepo.Delete(feed.ID); err != nil {
		return werrors.WrapInternal(err, "failed to delete feed")
	}
	s.logger.Info("feed deleted", "feed", feed.Key)
	return nil
}

// Post adds an entry to a feed. Action defaults to posted and ActorType to
// human.
func (s *FeedService) Post(feedKey string, in PostInput) (*TimelineItem, error) {
	feed, err := s.GetFeed(feedKey)
	if err != nil {
		return nil, err
	}

	if in.Action == "" {
		in.Action = models.ActionPosted
	}
	if in.ActorType == "" {
		in.ActorType = models.ActorTypeHuman
	}

	entry, err := models.NewEntryWithDetails(feed.ID, in.Action, in.ActorType, in.Author, strings.TrimSpace(in.Summary), in.Details)
	if err != nil {
		return nil, werrors.InvalidArgs("invalid details: %v", err)
	}
	if err := entry.Validate(); err != nil {
		return nil, werrors.InvalidArgs("invalid entry: %v", err)
	}

	if err := s.entryRepo.Create(entry); err != nil {
		return nil, werrors.WrapInternal(err, "failed to create entry")
	}
	entry.FeedKey = feed.Key

	s.logger.Debug("entry posted", "feed", feed.Key, "number", entry.Number, "author", entry.Author)
	return s.item(entry)
}

// GetEntry returns an entry by key ("OPS-12"). A bare number is resolved
// against defaultFeed.
func (s *FeedService) GetEntry(key, defaultFeed string) (*TimelineItem, error) {
	feedKey, number, err := common.ParseEntryKey(key)
	if err != nil {
		return nil, werrors.InvalidArgs("%v: %s", err, key)
	}
	if feedKey == "" {
		feedKey = NormalizeFeedKey(defaultFeed)
		if feedKey == "" {
			return nil, werrors.InvalidArgs("entry number %d given without a feed", number).
				WithSuggestion("Use the full key, e.g. OPS-12, or set default_feed in the config file.")
		}
	}

	entry, err := s.entryRepo.GetByKey(feedKey, number)
	if err != nil {
		return nil, werrors.WrapInternal(err, "failed to get entry")
	}
	if entry == nil {
		return nil, werrors.NotFound("entry %s not found", common.FormatEntryKey(feedKey, number))
	}
	return s.item(entry)
}

// Timeline returns a feed's entries, newest first.
func (s *FeedService) Timeline(feedKey string, opts TimelineOptions) ([]TimelineItem, error) {
	feed, err := s.GetFeed(feedKey)
	if err != nil {
		return nil, err
	}

	filter := s.filter(opts)
	filter.FeedID = &feed.ID
	return s.list(filter)
}

// Recent returns the newest entries across all feeds.
func (s *FeedService) Recent(limit int) ([]TimelineItem, error) {
	return s.list(s.filter(TimelineOptions{Limit: limit}))
}

// CountEntries counts the entries in a feed.
func (s *FeedService) CountEntries(feed *models.Feed) (int, error) {
	count, err := s.entryRepo.CountByFeed(feed.ID)
	if err != nil {
		return 0, werrors.WrapInternal(err, "failed to count entries")
	}
	return count, nil
}

func (s *FeedService) filter(opts TimelineOptions) db.EntryFilter {
	limit := opts.Limit
	if limit == 0 {
		limit = DefaultTimelineLimit
	}
	if limit < 0 {
		limit = 0 // no limit
	}
	return db.EntryFilter{
		Author:    strings.TrimSpace(opts.Author),
		ActorType: opts.ActorType,
		Action:    opts.Action,
		Since:     opts.Since,
		Limit:     limit,
		Offset:    opts.Offset,
	}
}

func (s *FeedService) list(filter db.EntryFilter) ([]TimelineItem, error) {
	entries, err := s.entryRepo.List(filter)
	if err != nil {
		return nil, werrors.WrapInternal(err, "failed to list entries")
	}

	items := make([]TimelineItem, 0, len(entries))
	for _, e := range entries {
		item, err := s.item(e)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, nil
}

func (s *FeedService) item(e *models.Entry) (*TimelineItem, error) {
	line, err := s.byline.Format(e.CreatedAt, e.Author)
	if err != nil {
		return nil, fmt.Errorf("entry %d: %w", e.ID, err)
	}
	return &TimelineItem{Entry: e, EntryKey: e.Key(), Byline: line}, nil
}
