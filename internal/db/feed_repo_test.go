package db

import (
	"testing"

	"github.com/spetersoncode/byline/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedRepo_CRUD(t *testing.T) {
	db := NewTestDB(t)
	defer db.Close()

	repo := NewFeedRepo(db.DB)

	feed := &models.Feed{Key: "OPS", Name: "Operations", Description: "On-call notes"}
	require.NoError(t, repo.Create(feed))
	assert.NotZero(t, feed.ID)
	assert.False(t, feed.CreatedAt.IsZero())

	got, err := repo.GetByKey("OPS")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, feed.ID, got.ID)
	assert.Equal(t, "Operations", got.Name)
	assert.Equal(t, "On-call notes", got.Description)

	byID, err := repo.GetByID(feed.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "OPS", byID.Key)

	got.Name = "Ops"
	got.Description = ""
	require.NoError(t, repo.Update(got))

	got, err = repo.GetByKey("OPS")
	require.NoError(t, err)
	assert.Equal(t, "Ops", got.Name)
	assert.Equal(t, "", got.Description)

	exists, err := repo.Exists("OPS")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, repo.Delete(feed.ID))

	got, err = repo.GetByKey("OPS")
	require.NoError(t, err)
	assert.Nil(t, got)

	exists, err = repo.Exists("OPS")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestFeedRepo_CreateValidation(t *testing.T) {
	db := NewTestDB(t)
	defer db.Close()

	repo := NewFeedRepo(db.DB)
	err := repo.Create(&models.Feed{Key: "bad key", Name: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid feed")
}

func TestFeedRepo_DuplicateKey(t *testing.T) {
	db := NewTestDB(t)
	defer db.Close()

	repo := NewFeedRepo(db.DB)
	require.NoError(t, repo.Create(&models.Feed{Key: "OPS", Name: "One"}))
	assert.Error(t, repo.Create(&models.Feed{Key: "OPS", Name: "Two"}))
}

func TestFeedRepo_ListSortedByKey(t *testing.T) {
	db := NewTestDB(t)
	defer db.Close()

	repo := NewFeedRepo(db.DB)
	for _, key := range []string{"ZED", "ALPHA", "MID"} {
		require.NoError(t, repo.Create(&models.Feed{Key: key, Name: key}))
	}

	feeds, err := repo.List()
	require.NoError(t, err)
	require.Len(t, feeds, 3)
	assert.Equal(t, "ALPHA", feeds[0].Key)
	assert.Equal(t, "MID", feeds[1].Key)
	assert.Equal(t, "ZED", feeds[2].Key)
}

func TestFeedRepo_UpdateDeleteMissing(t *testing.T) {
	db := NewTestDB(t)
	defer db.Close()

	repo := NewFeedRepo(db.DB)
	assert.Error(t, repo.Update(&models.Feed{ID: 99, Name: "x"}))
	assert.Error(t, repo.Delete(99))
}
