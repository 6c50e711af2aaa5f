package integration_test

import (
	"testing"

	"github.com/reelhouse/reeld/internal/reel"
	"github.com/reelhouse/reeld/tests/helpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestReelStore exercises the reel store against a real postgres
// instance: upserting, fetching, listing and bulk-deleting rows.
func TestReelStore(t *testing.T) {
	manager, _ := helpers.RequirePostgres(t)
	db := manager.GetSqlxDb()
	store := reel.NewStore()

	// Start from a clean slate; other tests may share the container
	_, err := store.DeleteAll(db)
	require.NoError(t, err)

	audioPath := "/data/audio/aaa111bbb222.wav"
	model := &reel.Reel{
		ID:           "aaa111bbb222",
		SourceURL:    "https://example.com/watch?v=integration",
		DurationSecs: 42.5,
		Width:        720,
		Height:       1280,
		HasAudio:     true,
		VideoPath:    "/data/videos/aaa111bbb222.mp4",
		AudioPath:    &audioPath,
	}
	require.NoError(t, store.Save(db, model))

	t.Run("get returns saved reel", func(t *testing.T) {
		found, err := store.Get(db, model.ID)
		require.NoError(t, err)

		assert.Equal(t, model.SourceURL, found.SourceURL)
		assert.Equal(t, model.DurationSecs, found.DurationSecs)
		assert.Equal(t, model.Width, found.Width)
		assert.Equal(t, model.Height, found.Height)
		assert.True(t, found.HasAudio)
		require.NotNil(t, found.AudioPath)
		assert.Equal(t, audioPath, *found.AudioPath)
		assert.False(t, found.CreatedAt.IsZero())
	})

	t.Run("get by url returns saved reel", func(t *testing.T) {
		found, err := store.GetByURL(db, model.SourceURL)
		require.NoError(t, err)
		assert.Equal(t, model.ID, found.ID)
	})

	t.Run("get unknown id reports not found", func(t *testing.T) {
		_, err := store.Get(db, "000000000000")
		assert.ErrorIs(t, err, reel.ErrReelNotFound)
	})

	t.Run("upsert same id overwrites metadata", func(t *testing.T) {
		updated := *model
		updated.DurationSecs = 99
		updated.HasAudio = false
		updated.AudioPath = nil
		require.NoError(t, store.Save(db, &updated))

		found, err := store.Get(db, model.ID)
		require.NoError(t, err)
		assert.Equal(t, float64(99), found.DurationSecs)
		assert.False(t, found.HasAudio)
		assert.Nil(t, found.AudioPath)
	})

	t.Run("get many returns only matching ids", func(t *testing.T) {
		second := &reel.Reel{ID: "ccc333ddd444", SourceURL: "https://example.com/watch?v=other", VideoPath: "/data/videos/ccc333ddd444.mp4"}
		require.NoError(t, store.Save(db, second))

		found, err := store.GetMany(db, []string{model.ID, second.ID, "000000000000"})
		require.NoError(t, err)
		assert.Len(t, found, 2)
	})

	t.Run("list returns all reels", func(t *testing.T) {
		found, err := store.List(db)
		require.NoError(t, err)
		assert.Len(t, found, 2)
	})

	t.Run("delete all reports removed count", func(t *testing.T) {
		count, err := store.DeleteAll(db)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)

		found, err := store.List(db)
		require.NoError(t, err)
		assert.Empty(t, found)
	})
}
