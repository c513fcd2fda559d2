package notes

import (
	"context"
	"strings"

	"github.com/oliverisaac/keepnotes/lib/lifecycle"
	"github.com/oliverisaac/keepnotes/lib/store"
	"github.com/oliverisaac/keepnotes/types"
)

// FilterFor builds the store query behind a view. Results are capped at store.MaxResults.
func FilterFor(view lifecycle.View, search string) store.Filter {
	f := store.Filter{
		Search: strings.TrimSpace(search),
		Sort:   store.SortCreatedDesc,
		Limit:  store.MaxResults,
	}

	switch view {
	case lifecycle.ViewArchived:
		f.Deleted = types.Ptr(false)
		f.Archived = types.Ptr(true)
	case lifecycle.ViewFavorites:
		f.Deleted = types.Ptr(false)
		f.Favorite = types.Ptr(true)
	case lifecycle.ViewBin:
		f.Deleted = types.Ptr(true)
	default:
		f.Deleted = types.Ptr(false)
		f.Archived = types.Ptr(false)
	}
	if view.SortsByDeletion() {
		f.Sort = store.SortDeletedDesc
	}
	return f
}

func (s *Service) ListView(ctx context.Context, owner string, view lifecycle.View, search string) ([]types.Note, error) {
	if owner == "" {
		return nil, ErrUnauthorized
	}
	notes, err := s.store.Query(ctx, owner, FilterFor(view, search))
	if err != nil {
		return nil, classify("list notes", err)
	}
	return notes, nil
}
