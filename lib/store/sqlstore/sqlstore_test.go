package sqlstore

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/oliverisaac/keepnotes/lib/store"
	"github.com/oliverisaac/keepnotes/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := Open(types.DBDriverSQLite, filepath.Join(t.TempDir(), "notes.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})

	s := New(db)
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestCreateGetScopedByOwner(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	now := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	n := &types.Note{Owner: "1", Title: "Groceries", Content: "<p>Milk</p>", Tags: []string{"Home"}, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, s.Create(ctx, n))
	require.NotEmpty(t, n.ID)

	got, err := s.Get(ctx, "1", n.ID)
	require.NoError(t, err)
	assert.Equal(t, "Groceries", got.Title)
	assert.Equal(t, []string{"Home"}, got.Tags)
	assert.True(t, now.Equal(got.CreatedAt))

	_, err = s.Get(ctx, "2", n.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.Get(ctx, "1", "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	n := &types.Note{Owner: "1", Title: "a", Content: "a", CreatedAt: time.Now()}
	require.NoError(t, s.Create(ctx, n))

	updated, err := s.Update(ctx, "1", n.ID, func(note *types.Note) error {
		note.IsFavorite = true
		note.Owner = "someone else"
		note.Tags = []string{"Work"}
		return nil
	})
	require.NoError(t, err)
	assert.True(t, updated.IsFavorite)
	assert.Equal(t, "1", updated.Owner)

	got, err := s.Get(ctx, "1", n.ID)
	require.NoError(t, err)
	assert.True(t, got.IsFavorite)
	assert.Equal(t, "\x1fwork\x1f", got.TagIndex)

	_, err = s.Update(ctx, "2", n.ID, func(note *types.Note) error { return nil })
	assert.ErrorIs(t, err, store.ErrNotFound)

	abort := fmt.Errorf("abort")
	_, err = s.Update(ctx, "1", n.ID, func(note *types.Note) error {
		note.Title = "changed"
		return abort
	})
	assert.ErrorIs(t, err, abort)
	got, err = s.Get(ctx, "1", n.ID)
	require.NoError(t, err)
	assert.Equal(t, "a", got.Title)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	n := &types.Note{Owner: "1", Title: "a", Content: "a", CreatedAt: time.Now()}
	require.NoError(t, s.Create(ctx, n))

	ok, err := s.Delete(ctx, "2", n.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.Delete(ctx, "1", n.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = s.Get(ctx, "1", n.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestQuery(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	base := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 60; i++ {
		n := &types.Note{
			Owner:     "1",
			Title:     fmt.Sprintf("note %02d", i),
			Content:   "x",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, s.Create(ctx, n))
	}
	require.NoError(t, s.Create(ctx, &types.Note{Owner: "2", Title: "other", Content: "x", CreatedAt: base}))

	notes, err := s.Query(ctx, "1", store.Filter{Deleted: types.Ptr(false)})
	require.NoError(t, err)
	require.Len(t, notes, store.MaxResults)
	assert.Equal(t, "note 59", notes[0].Title)
	for i := 1; i < len(notes); i++ {
		assert.True(t, notes[i-1].CreatedAt.After(notes[i].CreatedAt))
	}

	notes, err = s.Query(ctx, "1", store.Filter{Search: "NOTE 0"})
	require.NoError(t, err)
	assert.Len(t, notes, 10)
}

func TestQuerySearchEscapesWildcards(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	now := time.Now()
	require.NoError(t, s.Create(ctx, &types.Note{Owner: "1", Title: "100% done", Content: "x", CreatedAt: now}))
	require.NoError(t, s.Create(ctx, &types.Note{Owner: "1", Title: "100 done", Content: "x", CreatedAt: now}))
	require.NoError(t, s.Create(ctx, &types.Note{Owner: "1", Title: "snake", Content: "x", PlainTextContent: "a_b", CreatedAt: now}))
	require.NoError(t, s.Create(ctx, &types.Note{Owner: "1", Title: "tagged", Content: "x", Tags: []string{"Travel"}, CreatedAt: now}))

	notes, err := s.Query(ctx, "1", store.Filter{Search: "0%"})
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "100% done", notes[0].Title)

	notes, err = s.Query(ctx, "1", store.Filter{Search: "a_b"})
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "snake", notes[0].Title)

	notes, err = s.Query(ctx, "1", store.Filter{Search: "rav"})
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "tagged", notes[0].Title)
}

func TestQuerySearchFoldsUnicode(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	now := time.Now()
	require.NoError(t, s.Create(ctx, &types.Note{Owner: "1", Title: "Été à Paris", Content: "x", CreatedAt: now}))
	require.NoError(t, s.Create(ctx, &types.Note{Owner: "1", Title: "plain", Content: "x", PlainTextContent: "ÜBER ALLES", CreatedAt: now}))
	require.NoError(t, s.Create(ctx, &types.Note{Owner: "1", Title: "Москва", Content: "x", CreatedAt: now}))

	for _, tc := range []struct {
		search string
		title  string
	}{
		{"été", "Été à Paris"},
		{"ÉTÉ", "Été à Paris"},
		{"über", "plain"},
		{"москва", "Москва"},
	} {
		notes, err := s.Query(ctx, "1", store.Filter{Search: tc.search})
		require.NoError(t, err, tc.search)
		require.Len(t, notes, 1, tc.search)
		assert.Equal(t, tc.title, notes[0].Title, tc.search)
	}
}

func TestQueryOrdersWithinOneSecond(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	// RFC 3339 text drops trailing zeros: ".12Z" > ".123Z" and "00Z" > "00.5Z" as strings
	base := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	for _, n := range []*types.Note{
		{Owner: "1", Title: "whole", Content: "x", CreatedAt: base},
		{Owner: "1", Title: "older", Content: "x", CreatedAt: base.Add(120 * time.Millisecond)},
		{Owner: "1", Title: "newer", Content: "x", CreatedAt: base.Add(123 * time.Millisecond)},
	} {
		require.NoError(t, s.Create(ctx, n))
	}

	notes, err := s.Query(ctx, "1", store.Filter{})
	require.NoError(t, err)
	require.Len(t, notes, 3)
	assert.Equal(t, []string{"newer", "older", "whole"}, []string{notes[0].Title, notes[1].Title, notes[2].Title})

	first, last := base, base.Add(500*time.Millisecond)
	require.NoError(t, s.Create(ctx, &types.Note{Owner: "2", Title: "first-deleted", Content: "x", IsDeleted: true, DeletedAt: &first, CreatedAt: base}))
	require.NoError(t, s.Create(ctx, &types.Note{Owner: "2", Title: "last-deleted", Content: "x", IsDeleted: true, DeletedAt: &last, CreatedAt: base}))

	bin, err := s.Query(ctx, "2", store.Filter{Deleted: types.Ptr(true), Sort: store.SortDeletedDesc})
	require.NoError(t, err)
	require.Len(t, bin, 2)
	assert.Equal(t, "last-deleted", bin[0].Title)
	assert.Equal(t, "first-deleted", bin[1].Title)
}

func TestQueryBinSortsByDeletedAt(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	base := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	early, late := base.Add(time.Hour), base.Add(2*time.Hour)
	a := &types.Note{Owner: "1", Title: "a", Content: "x", CreatedAt: base.Add(time.Minute), IsDeleted: true, DeletedAt: &early}
	b := &types.Note{Owner: "1", Title: "b", Content: "x", CreatedAt: base, IsDeleted: true, DeletedAt: &late}
	c := &types.Note{Owner: "1", Title: "c", Content: "x", CreatedAt: base}
	for _, n := range []*types.Note{a, b, c} {
		require.NoError(t, s.Create(ctx, n))
	}

	notes, err := s.Query(ctx, "1", store.Filter{Deleted: types.Ptr(true), Sort: store.SortDeletedDesc})
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, "b", notes[0].Title)
	assert.Equal(t, "a", notes[1].Title)
}

func TestDeleteOwner(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for _, owner := range []string{"1", "1", "2"} {
		require.NoError(t, s.Create(ctx, &types.Note{Owner: owner, Title: "t", Content: "c", CreatedAt: time.Now()}))
	}

	n, err := s.DeleteOwner(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	notes, err := s.Query(ctx, "2", store.Filter{})
	require.NoError(t, err)
	assert.Len(t, notes, 1)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\% off\_now \\ ok`, escapeLike(`50% off_now \ ok`))
}
