package store

import (
	"sort"
	"testing"
	"time"

	"github.com/oliverisaac/keepnotes/types"
	"github.com/stretchr/testify/assert"
)

func TestFilterMatches(t *testing.T) {
	n := types.Note{
		Title:            "Groceries",
		PlainTextContent: "Milk and Eggs",
		Tags:             []string{"Home", "weekly"},
		IsFavorite:       true,
	}

	assert.True(t, Filter{}.Matches(n))
	assert.True(t, Filter{Search: "GROC"}.Matches(n))
	assert.True(t, Filter{Search: "eggs"}.Matches(n))
	assert.True(t, Filter{Search: "eekl"}.Matches(n))
	assert.False(t, Filter{Search: "bread"}.Matches(n))
	assert.False(t, Filter{Search: "home,weekly"}.Matches(n))
	assert.True(t, Filter{Deleted: types.Ptr(false), Favorite: types.Ptr(true)}.Matches(n))
	assert.False(t, Filter{Archived: types.Ptr(true)}.Matches(n))
}

func TestFilterLess(t *testing.T) {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	d1, d2 := base.Add(time.Hour), base.Add(2*time.Hour)
	notes := []types.Note{
		{ID: "b", CreatedAt: base, DeletedAt: &d2},
		{ID: "a", CreatedAt: base, DeletedAt: &d1},
		{ID: "c", CreatedAt: base.Add(time.Minute)},
	}

	byCreated := append([]types.Note(nil), notes...)
	f := Filter{Sort: SortCreatedDesc}
	sort.Slice(byCreated, func(i, j int) bool { return f.Less(byCreated[i], byCreated[j]) })
	assert.Equal(t, []string{"c", "a", "b"}, ids(byCreated))

	byDeleted := append([]types.Note(nil), notes...)
	f = Filter{Sort: SortDeletedDesc}
	sort.Slice(byDeleted, func(i, j int) bool { return f.Less(byDeleted[i], byDeleted[j]) })
	assert.Equal(t, []string{"b", "a", "c"}, ids(byDeleted))
}

func TestEffectiveLimit(t *testing.T) {
	assert.Equal(t, MaxResults, Filter{}.EffectiveLimit())
	assert.Equal(t, MaxResults, Filter{Limit: 500}.EffectiveLimit())
	assert.Equal(t, 10, Filter{Limit: 10}.EffectiveLimit())
}

func ids(notes []types.Note) []string {
	out := make([]string, 0, len(notes))
	for _, n := range notes {
		out = append(out, n.ID)
	}
	return out
}
