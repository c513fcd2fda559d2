package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/oliverisaac/keepnotes/lib/store"
	"github.com/oliverisaac/keepnotes/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOwnerScoping(t *testing.T) {
	ctx := context.Background()
	s := New()

	n := &types.Note{Owner: "ada", Title: "t"}
	require.NoError(t, s.Create(ctx, n))
	require.NotEmpty(t, n.ID)

	_, err := s.Get(ctx, "bob", n.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	deleted, err := s.Delete(ctx, "bob", n.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = s.Update(ctx, "bob", n.ID, func(*types.Note) error { return nil })
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpdateAbortLeavesNoteUntouched(t *testing.T) {
	ctx := context.Background()
	s := New()

	n := &types.Note{Owner: "ada", Title: "before", Tags: []string{"a"}}
	require.NoError(t, s.Create(ctx, n))

	boom := errors.New("boom")
	_, err := s.Update(ctx, "ada", n.ID, func(note *types.Note) error {
		note.Title = "after"
		note.Tags[0] = "changed"
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.Get(ctx, "ada", n.ID)
	require.NoError(t, err)
	assert.Equal(t, "before", got.Title)
	assert.Equal(t, []string{"a"}, got.Tags)
}

func TestQuerySortsAndCaps(t *testing.T) {
	ctx := context.Background()
	s := New()
	base := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	for i := range store.MaxResults + 5 {
		require.NoError(t, s.Create(ctx, &types.Note{Owner: "ada", Title: "n", CreatedAt: base.Add(time.Duration(i) * time.Minute)}))
	}
	require.NoError(t, s.Create(ctx, &types.Note{Owner: "bob", Title: "n", CreatedAt: base.Add(time.Hour * 24)}))

	got, err := s.Query(ctx, "ada", store.Filter{})
	require.NoError(t, err)
	require.Len(t, got, store.MaxResults)
	assert.Equal(t, base.Add(time.Duration(store.MaxResults+4)*time.Minute), got[0].CreatedAt)
	for _, n := range got {
		assert.Equal(t, "ada", n.Owner)
	}

	removed, err := s.DeleteOwner(ctx, "ada")
	require.NoError(t, err)
	assert.Equal(t, int64(store.MaxResults+5), removed)
}
