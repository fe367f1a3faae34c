package server

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/spetersoncode/byline/internal/errors"
	"github.com/spetersoncode/byline/internal/models"
	"github.com/spetersoncode/byline/internal/service"
)

const (
	// maxLimit caps the limit query parameter.
	maxLimit = 500
	// maxBodyBytes caps JSON request bodies.
	maxBodyBytes = 64 << 10
)

// API Response types

// FeedResponse represents a feed in API responses.
type FeedResponse struct {
	ID           int64  `json:"id"`
	Key          string `json:"key"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	Entries      int    `json:"entries"`
	LastActivity string `json:"last_activity,omitempty"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

// EntryResponse represents an entry in API responses. Byline is the
// display string, e.g. "3h ago by alex".
type EntryResponse struct {
	ID        int64           `json:"id"`
	Key       string          `json:"key"`
	Ref       string          `json:"ref"`
	FeedKey   string          `json:"feed_key"`
	Number    int             `json:"number"`
	Action    string          `json:"action"`
	ActorType string          `json:"actor_type"`
	Author    string          `json:"author,omitempty"`
	Summary   string          `json:"summary"`
	Details   json.RawMessage `json:"details,omitempty"`
	CreatedAt string          `json:"created_at"`
	Byline    string          `json:"byline"`
}

// CreateFeedRequest is the body of POST /api/feeds.
type CreateFeedRequest struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CreateEntryRequest is the body of POST /api/feeds/{key}/entries.
type CreateEntryRequest struct {
	Summary   string                 `json:"summary"`
	Author    string                 `json:"author"`
	Action    string                 `json:"action"`
	ActorType string                 `json:"actor_type"`
	Details   map[string]interface{} `json:"details"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error      string `json:"error"`
	Code       int    `json:"code"`
	Message    string `json:"message,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Code:    status,
		Message: message,
	})
}

// writeServiceError maps an error's kind to an HTTP status. Internal error
// details are logged rather than returned.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	kind := errors.KindOf(err)
	if !kind.Public() {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}

	status := kind.HTTPStatus()
	resp := ErrorResponse{
		Error:   http.StatusText(status),
		Code:    status,
		Message: errors.PublicMessage(err),
	}
	if kind.Public() {
		resp.Suggestion = errors.SuggestionOf(err)
	}
	writeJSON(w, status, resp)
}

// decodeBody decodes a size-capped JSON body into v, writing the error
// response itself when it cannot.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
		return false
	}
	writeError(w, http.StatusBadRequest, "invalid JSON body")
	return false
}

// parseLimit reads the limit query parameter. Zero means the service default.
func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return 0, errors.InvalidArgs("limit must be a positive integer")
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return limit, nil
}

// Feed handlers

func (s *Server) handleListFeeds(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.feeds.ListFeeds()
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	response := make([]FeedResponse, 0, len(summaries))
	for _, fs := range summaries {
		resp := feedToResponse(fs.Feed)
		resp.Entries = fs.Entries
		resp.LastActivity = fs.LastActivity
		response = append(response, resp)
	}

	writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleGetFeed(w http.ResponseWriter, r *http.Request) {
	feed, err := s.feeds.GetFeed(r.PathValue("key"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	count, err := s.feeds.CountEntries(feed)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	resp := feedToResponse(feed)
	resp.Entries = count
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateFeed(w http.ResponseWriter, r *http.Request) {
	var req CreateFeedRequest
	if !decodeBody(w, r, &req) {
		return
	}

	feed, err := s.feeds.CreateFeed(req.Key, req.Name, req.Description)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, feedToResponse(feed))
}

func (s *Server) handleDeleteFeed(w http.ResponseWriter, r *http.Request) {
	if err := s.feeds.DeleteFeed(r.PathValue("key")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Entry handlers

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	opts, err := timelineOptions(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	items, err := s.feeds.Timeline(r.PathValue("key"), opts)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, itemsToResponse(items))
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	var req CreateEntryRequest
	if !decodeBody(w, r, &req) {
		return
	}

	in := service.PostInput{
		Author:  req.Author,
		Summary: req.Summary,
		Details: req.Details,
	}
	if req.Action != "" {
		action, err := models.ParseAction(req.Action)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		in.Action = action
	}
	if req.ActorType != "" {
		actor, err := models.ParseActorType(req.ActorType)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		in.ActorType = actor
	}

	item, err := s.feeds.Post(r.PathValue("key"), in)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, itemToResponse(item))
}

func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	item, err := s.feeds.GetEntry(r.PathValue("key"), "")
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, itemToResponse(item))
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	items, err := s.feeds.Recent(limit)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, itemsToResponse(items))
}

// timelineOptions reads limit, author, actor, action and since from the query.
func timelineOptions(r *http.Request) (service.TimelineOptions, error) {
	q := r.URL.Query()
	var opts service.TimelineOptions

	limit, err := parseLimit(r)
	if err != nil {
		return opts, err
	}
	opts.Limit = limit
	opts.Author = q.Get("author")

	if v := q.Get("actor"); v != "" {
		actor, err := models.ParseActorType(v)
		if err != nil {
			return opts, errors.InvalidArgs("%v", err)
		}
		opts.ActorType = &actor
	}
	if v := q.Get("action"); v != "" {
		action, err := models.ParseAction(v)
		if err != nil {
			return opts, errors.InvalidArgs("%v", err)
		}
		opts.Action = &action
	}
	if v := q.Get("since"); v != "" {
		since, err := service.ParseSince(v)
		if err != nil {
			return opts, err
		}
		opts.Since = &since
	}

	return opts, nil
}

// Conversion helpers

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func feedToResponse(f *models.Feed) FeedResponse {
	return FeedResponse{
		ID:          f.ID,
		Key:         f.Key,
		Name:        f.Name,
		Description: f.Description,
		CreatedAt:   formatTime(f.CreatedAt),
		UpdatedAt:   formatTime(f.UpdatedAt),
	}
}

func itemToResponse(item *service.TimelineItem) EntryResponse {
	resp := EntryResponse{
		ID:        item.ID,
		Key:       item.EntryKey,
		Ref:       item.Ref,
		FeedKey:   item.FeedKey,
		Number:    item.Number,
		Action:    string(item.Action),
		ActorType: string(item.ActorType),
		Author:    item.Author,
		Summary:   item.Summary,
		CreatedAt: formatTime(item.CreatedAt),
		Byline:    item.Byline,
	}
	if item.Details != "" {
		resp.Details = json.RawMessage(item.Details)
	}
	return resp
}

func itemsToResponse(items []service.TimelineItem) []EntryResponse {
	response := make([]EntryResponse, 0, len(items))
	for i := range items {
		response = append(response, itemToResponse(&items[i]))
	}
	return response
}
