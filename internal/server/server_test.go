package server

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/spetersoncode/byline/internal/common"
	"github.com/spetersoncode/byline/internal/db"
	"github.com/spetersoncode/byline/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testDB creates an in-memory database for testing
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	database := db.NewTestDB(t)
	t.Cleanup(func() {
		database.Close()
	})

	return database.DB
}

// setupTestServer creates a test server whose bylines read as if three hours
// have passed since each entry was created.
func setupTestServer(t *testing.T, sqlDB *sql.DB) *Server {
	t.Helper()

	byline, err := common.NewByline(common.StyleCompact, func() time.Time {
		return time.Now().Add(3 * time.Hour)
	})
	require.NoError(t, err)

	srv, err := New(Config{
		Port:   0, // Let system choose port
		Host:   "localhost",
		DB:     sqlDB,
		Byline: byline,
	})
	require.NoError(t, err)

	return srv
}

func do(t *testing.T, srv *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestNew(t *testing.T) {
	t.Run("requires database", func(t *testing.T) {
		_, err := New(Config{})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "database connection is required")
	})

	t.Run("sets defaults", func(t *testing.T) {
		sqlDB := testDB(t)
		srv, err := New(Config{DB: sqlDB})
		require.NoError(t, err)

		assert.Equal(t, 18080, srv.config.Port)
		assert.Equal(t, "localhost", srv.config.Host)
		assert.Equal(t, "localhost:18080", srv.Address())
	})

	t.Run("accepts custom config", func(t *testing.T) {
		sqlDB := testDB(t)
		srv, err := New(Config{
			Port: 9000,
			Host: "0.0.0.0",
			DB:   sqlDB,
		})
		require.NoError(t, err)

		assert.Equal(t, 9000, srv.config.Port)
		assert.Equal(t, "0.0.0.0", srv.config.Host)
	})
}

func TestHealthEndpoint(t *testing.T) {
	srv := setupTestServer(t, testDB(t))

	rec := do(t, srv, "GET", "/api/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
}

func TestFeedEndpoints(t *testing.T) {
	sqlDB := testDB(t)
	srv := setupTestServer(t, sqlDB)

	t.Run("create feed", func(t *testing.T) {
		rec := do(t, srv, "POST", "/api/feeds", `{"key":"ops","name":"Operations","description":"on-call"}`)
		assert.Equal(t, http.StatusCreated, rec.Code)

		var f FeedResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &f))
		assert.Equal(t, "OPS", f.Key)
		assert.Equal(t, "Operations", f.Name)
	})

	t.Run("duplicate feed conflicts", func(t *testing.T) {
		rec := do(t, srv, "POST", "/api/feeds", `{"key":"OPS","name":"Again"}`)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("invalid key", func(t *testing.T) {
		rec := do(t, srv, "POST", "/api/feeds", `{"key":"x","name":"Bad"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Suggestion)
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := do(t, srv, "POST", "/api/feeds", `{`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("list feeds", func(t *testing.T) {
		rec := do(t, srv, "GET", "/api/feeds", "")
		assert.Equal(t, http.StatusOK, rec.Code)

		var feeds []FeedResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &feeds))
		require.Len(t, feeds, 1)
		assert.Equal(t, "OPS", feeds[0].Key)
		assert.Equal(t, 0, feeds[0].Entries)
	})

	t.Run("get feed", func(t *testing.T) {
		rec := do(t, srv, "GET", "/api/feeds/ops", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("get feed not found", func(t *testing.T) {
		rec := do(t, srv, "GET", "/api/feeds/NOTFOUND", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("delete feed", func(t *testing.T) {
		rec := do(t, srv, "DELETE", "/api/feeds/OPS", "")
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = do(t, srv, "GET", "/api/feeds/OPS", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestRequestBodyLimit(t *testing.T) {
	sqlDB := testDB(t)
	srv := setupTestServer(t, sqlDB)

	huge := strings.Repeat("x", maxBodyBytes)

	rec := do(t, srv, "POST", "/api/feeds", `{"key":"OPS","name":"`+huge+`"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Message, "exceeds")

	rec = do(t, srv, "GET", "/api/feeds/OPS", "")
	assert.Equal(t, http.StatusNotFound, rec.Code, "oversized create must not be applied")

	rec = do(t, srv, "POST", "/api/feeds", `{"key":"OPS","name":"Operations"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, srv, "POST", "/api/feeds/OPS/entries", `{"summary":"`+huge+`"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	rec = do(t, srv, "POST", "/api/feeds/OPS/entries", `{"summary":"fits"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestEntryEndpoints(t *testing.T) {
	sqlDB := testDB(t)
	srv := setupTestServer(t, sqlDB)

	feed := &models.Feed{Key: "OPS", Name: "Operations"}
	require.NoError(t, db.NewFeedRepo(sqlDB).Create(feed))

	t.Run("post with author", func(t *testing.T) {
		rec := do(t, srv, "POST", "/api/feeds/OPS/entries", `{"summary":"Rotated certs","author":"alex","details":{"host":"db1"}}`)
		assert.Equal(t, http.StatusCreated, rec.Code)

		var e EntryResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
		assert.Equal(t, "OPS-1", e.Key)
		assert.Equal(t, "alex", e.Author)
		assert.Equal(t, "3h ago by alex", e.Byline)
		assert.JSONEq(t, `{"host":"db1"}`, string(e.Details))
	})

	t.Run("post without author", func(t *testing.T) {
		rec := do(t, srv, "POST", "/api/feeds/OPS/entries", `{"summary":"Nightly job","actor_type":"system"}`)
		assert.Equal(t, http.StatusCreated, rec.Code)

		var e EntryResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
		assert.Equal(t, "3h ago", e.Byline)
		assert.Equal(t, "system", e.ActorType)
	})

	t.Run("post invalid actor", func(t *testing.T) {
		rec := do(t, srv, "POST", "/api/feeds/OPS/entries", `{"summary":"x","actor_type":"robot"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("post empty summary", func(t *testing.T) {
		rec := do(t, srv, "POST", "/api/feeds/OPS/entries", `{"summary":""}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("post to missing feed", func(t *testing.T) {
		rec := do(t, srv, "POST", "/api/feeds/NOPE/entries", `{"summary":"x"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("list entries", func(t *testing.T) {
		rec := do(t, srv, "GET", "/api/feeds/OPS/entries", "")
		assert.Equal(t, http.StatusOK, rec.Code)

		var entries []EntryResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
		require.Len(t, entries, 2)
		assert.Equal(t, "OPS-2", entries[0].Key)
		assert.Equal(t, "3h ago", entries[0].Byline)
		assert.Equal(t, "3h ago by alex", entries[1].Byline)
	})

	t.Run("filter by author", func(t *testing.T) {
		rec := do(t, srv, "GET", "/api/feeds/OPS/entries?author=alex", "")
		assert.Equal(t, http.StatusOK, rec.Code)

		var entries []EntryResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
		require.Len(t, entries, 1)
		assert.Equal(t, "alex", entries[0].Author)
	})

	t.Run("filter by actor", func(t *testing.T) {
		rec := do(t, srv, "GET", "/api/feeds/OPS/entries?actor=system&limit=5", "")
		assert.Equal(t, http.StatusOK, rec.Code)

		var entries []EntryResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
		require.Len(t, entries, 1)
		assert.Equal(t, "OPS-2", entries[0].Key)
	})

	t.Run("bad limit", func(t *testing.T) {
		rec := do(t, srv, "GET", "/api/feeds/OPS/entries?limit=abc", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad since", func(t *testing.T) {
		rec := do(t, srv, "GET", "/api/feeds/OPS/entries?since=yesterday", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("get entry", func(t *testing.T) {
		rec := do(t, srv, "GET", "/api/entries/ops-1", "")
		assert.Equal(t, http.StatusOK, rec.Code)

		var e EntryResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
		assert.Equal(t, "Rotated certs", e.Summary)
	})

	t.Run("get entry not found", func(t *testing.T) {
		rec := do(t, srv, "GET", "/api/entries/OPS-99", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("recent", func(t *testing.T) {
		rec := do(t, srv, "GET", "/api/recent?limit=1", "")
		assert.Equal(t, http.StatusOK, rec.Code)

		var entries []EntryResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
		assert.Len(t, entries, 1)
	})
}

func TestFormatterErrorIsInternal(t *testing.T) {
	sqlDB := testDB(t)
	srv, err := New(Config{
		DB: sqlDB,
		Byline: &common.Byline{Relative: func(time.Time) (string, error) {
			return "", common.ErrInvalidTimestamp
		}},
	})
	require.NoError(t, err)

	feed := &models.Feed{Key: "OPS", Name: "Operations"}
	require.NoError(t, db.NewFeedRepo(sqlDB).Create(feed))
	_, err = db.NewEntryRepo(sqlDB).Log(feed.ID, models.ActionPosted, models.ActorTypeHuman, "alex", "hello")
	require.NoError(t, err)

	rec := do(t, srv, "GET", "/api/feeds/OPS/entries", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "invalid timestamp")
}

func TestStaticFiles(t *testing.T) {
	srv := setupTestServer(t, testDB(t))

	t.Run("index", func(t *testing.T) {
		rec := do(t, srv, "GET", "/", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
		assert.Contains(t, rec.Body.String(), "byline")
	})

	t.Run("spa route falls back to index", func(t *testing.T) {
		rec := do(t, srv, "GET", "/feeds/OPS", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	})

	t.Run("missing asset", func(t *testing.T) {
		rec := do(t, srv, "GET", "/app.js", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("unknown api path", func(t *testing.T) {
		rec := do(t, srv, "GET", "/api/nope", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
