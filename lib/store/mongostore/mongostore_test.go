package mongostore

import (
	"testing"

	"github.com/oliverisaac/keepnotes/lib/store"
	"github.com/oliverisaac/keepnotes/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestBuildFilterScopesByOwner(t *testing.T) {
	q := buildFilter("42", store.Filter{})
	assert.Equal(t, bson.D{{Key: "owner", Value: "42"}}, q)
}

func TestBuildFilterFlags(t *testing.T) {
	q := buildFilter("42", store.Filter{
		Deleted:  types.Ptr(false),
		Archived: types.Ptr(true),
		Favorite: types.Ptr(true),
	})
	assert.Equal(t, bson.D{
		{Key: "owner", Value: "42"},
		{Key: "is_deleted", Value: false},
		{Key: "is_archived", Value: true},
		{Key: "is_favorite", Value: true},
	}, q)
}

func TestBuildFilterSearchQuotesPattern(t *testing.T) {
	q := buildFilter("42", store.Filter{Search: "a+b (draft)"})
	require.Len(t, q, 2)

	or := q[1]
	assert.Equal(t, "$or", or.Key)
	clauses, ok := or.Value.(bson.A)
	require.True(t, ok)
	require.Len(t, clauses, 3)

	want := bson.Regex{Pattern: `a\+b \(draft\)`, Options: "i"}
	for i, field := range []string{"title", "plain_text_content", "tags"} {
		assert.Equal(t, bson.D{{Key: field, Value: want}}, clauses[i])
	}
}

func TestSortFor(t *testing.T) {
	assert.Equal(t, "created_at", sortFor(store.SortCreatedDesc)[0].Key)
	assert.Equal(t, "deleted_at", sortFor(store.SortDeletedDesc)[0].Key)
	assert.Equal(t, -1, sortFor(store.SortDeletedDesc)[0].Value)
}
