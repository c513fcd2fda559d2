package mongostore

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/oliverisaac/keepnotes/lib/store"
	"github.com/oliverisaac/keepnotes/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openLive connects to KEEPNOTES_MONGO_URI with a throwaway database.
func openLive(t *testing.T) *Store {
	t.Helper()
	uri := os.Getenv("KEEPNOTES_MONGO_URI")
	if uri == "" {
		t.Skip("KEEPNOTES_MONGO_URI not set")
	}

	ctx := context.Background()
	s, err := Open(ctx, uri, "keepnotes_test_"+uuid.NewString()[:8])
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, s.notes.Database().Drop(context.Background()))
		assert.NoError(t, s.Close())
	})
	return s
}

func TestLiveOwnerScoping(t *testing.T) {
	ctx := context.Background()
	s := openLive(t)

	now := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	n := &types.Note{Owner: "ada", Title: "Groceries", Content: "<p>Milk</p>", Tags: []string{"Home"}, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, s.Create(ctx, n))
	require.NotEmpty(t, n.ID)

	got, err := s.Get(ctx, "ada", n.ID)
	require.NoError(t, err)
	assert.Equal(t, "Groceries", got.Title)
	assert.Equal(t, []string{"Home"}, got.Tags)
	assert.True(t, now.Equal(got.CreatedAt))

	_, err = s.Get(ctx, "bob", n.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.Update(ctx, "bob", n.ID, func(note *types.Note) error {
		note.Title = "stolen"
		return nil
	})
	assert.ErrorIs(t, err, store.ErrNotFound)

	deleted, err := s.Delete(ctx, "bob", n.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	list, err := s.Query(ctx, "bob", store.Filter{})
	require.NoError(t, err)
	assert.Empty(t, list)

	got, err = s.Get(ctx, "ada", n.ID)
	require.NoError(t, err)
	assert.Equal(t, "Groceries", got.Title)
}

func TestLiveUpdate(t *testing.T) {
	ctx := context.Background()
	s := openLive(t)

	n := &types.Note{Owner: "ada", Title: "a", Content: "a", CreatedAt: time.Now().UTC()}
	require.NoError(t, s.Create(ctx, n))

	deletedAt := time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC)
	updated, err := s.Update(ctx, "ada", n.ID, func(note *types.Note) error {
		note.Title = "b"
		note.Owner = "bob"
		note.IsDeleted = true
		note.DeletedAt = &deletedAt
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "b", updated.Title)
	assert.Equal(t, "ada", updated.Owner)

	got, err := s.Get(ctx, "ada", n.ID)
	require.NoError(t, err)
	assert.True(t, got.IsDeleted)
	require.NotNil(t, got.DeletedAt)
	assert.True(t, deletedAt.Equal(*got.DeletedAt))

	boom := errors.New("boom")
	_, err = s.Update(ctx, "ada", n.ID, func(note *types.Note) error {
		note.Title = "c"
		return boom
	})
	assert.ErrorIs(t, err, boom)
	got, err = s.Get(ctx, "ada", n.ID)
	require.NoError(t, err)
	assert.Equal(t, "b", got.Title)
}

func TestLiveQuery(t *testing.T) {
	ctx := context.Background()
	s := openLive(t)

	base := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	for i := range store.MaxResults + 5 {
		require.NoError(t, s.Create(ctx, &types.Note{Owner: "ada", Title: "note", Content: "x", CreatedAt: base.Add(time.Duration(i) * time.Millisecond)}))
	}
	require.NoError(t, s.Create(ctx, &types.Note{Owner: "ada", Title: "Été à Paris", Content: "x", CreatedAt: base.Add(-time.Hour)}))

	notes, err := s.Query(ctx, "ada", store.Filter{Deleted: types.Ptr(false)})
	require.NoError(t, err)
	require.Len(t, notes, store.MaxResults)
	for i := 1; i < len(notes); i++ {
		assert.True(t, notes[i-1].CreatedAt.After(notes[i].CreatedAt))
	}

	notes, err = s.Query(ctx, "ada", store.Filter{Search: "ÉTÉ"})
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "Été à Paris", notes[0].Title)

	notes, err = s.Query(ctx, "ada", store.Filter{Search: "not."})
	require.NoError(t, err)
	assert.Empty(t, notes)

	removed, err := s.DeleteOwner(ctx, "ada")
	require.NoError(t, err)
	assert.Equal(t, int64(store.MaxResults+6), removed)
}
