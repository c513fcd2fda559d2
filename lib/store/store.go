// Package store defines how notes are persisted. Every lookup of a single note is keyed by
// (owner, id); a note owned by someone else is indistinguishable from a missing one.
package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/oliverisaac/keepnotes/types"
)

// MaxResults caps every query. There is no cursor; callers only ever see the first page.
const MaxResults = 50

var ErrNotFound = errors.New("note not found")

type SortKey int

const (
	SortCreatedDesc SortKey = iota
	SortDeletedDesc
)

// Filter narrows a query over one owner's notes. Nil flags are not filtered on.
type Filter struct {
	Deleted  *bool
	Archived *bool
	Favorite *bool
	// Search is a case-insensitive substring matched against title, plain text and tags.
	Search string
	Sort   SortKey
	Limit  int
}

// EffectiveLimit clamps Limit into (0, MaxResults].
func (f Filter) EffectiveLimit() int {
	if f.Limit <= 0 || f.Limit > MaxResults {
		return MaxResults
	}
	return f.Limit
}

// Matches evaluates the filter in memory. Backends that cannot push a predicate down use it.
func (f Filter) Matches(n types.Note) bool {
	if f.Deleted != nil && n.IsDeleted != *f.Deleted {
		return false
	}
	if f.Archived != nil && n.IsArchived != *f.Archived {
		return false
	}
	if f.Favorite != nil && n.IsFavorite != *f.Favorite {
		return false
	}
	if f.Search == "" {
		return true
	}
	term := strings.ToLower(f.Search)
	if strings.Contains(strings.ToLower(n.Title), term) || strings.Contains(strings.ToLower(n.PlainTextContent), term) {
		return true
	}
	for _, tag := range n.Tags {
		if strings.Contains(strings.ToLower(tag), term) {
			return true
		}
	}
	return false
}

// Less orders a before b for the filter's sort key. Ties fall back to id so results are stable.
func (f Filter) Less(a, b types.Note) bool {
	switch f.Sort {
	case SortDeletedDesc:
		at, bt := deletedAt(a), deletedAt(b)
		if !at.Equal(bt) {
			return at.After(bt)
		}
	default:
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
	}
	return a.ID < b.ID
}

func deletedAt(n types.Note) time.Time {
	if n.DeletedAt != nil {
		return *n.DeletedAt
	}
	return time.Time{}
}

// Mutator edits a loaded note in place. Returning an error aborts the write.
type Mutator func(n *types.Note) error

type Store interface {
	// Create assigns an id when the note has none and persists it.
	Create(ctx context.Context, note *types.Note) error
	Get(ctx context.Context, owner, id string) (types.Note, error)
	// Update loads (owner, id), applies fn and writes the result back as one unit.
	Update(ctx context.Context, owner, id string, fn Mutator) (types.Note, error)
	// Delete removes the row. It returns false when (owner, id) does not resolve.
	Delete(ctx context.Context, owner, id string) (bool, error)
	Query(ctx context.Context, owner string, filter Filter) ([]types.Note, error)
	DeleteOwner(ctx context.Context, owner string) (int64, error)
	Close() error
}
