package lifecycle

import (
	"fmt"
	"strings"

	"github.com/oliverisaac/keepnotes/types"
)

type View string

const (
	ViewActive    View = "active"
	ViewArchived  View = "archived"
	ViewFavorites View = "favorites"
	ViewBin       View = "bin"
)

var Views = []View{ViewActive, ViewArchived, ViewFavorites, ViewBin}

// ParseView maps a query value to a View. An empty value is the active view.
func ParseView(s string) (View, error) {
	switch View(strings.ToLower(strings.TrimSpace(s))) {
	case "", ViewActive:
		return ViewActive, nil
	case ViewArchived:
		return ViewArchived, nil
	case ViewFavorites, "favorite":
		return ViewFavorites, nil
	case ViewBin:
		return ViewBin, nil
	}
	return "", fmt.Errorf("unknown view %q", s)
}

// Includes reports whether n is visible in v. Favorites cut across the archive axis.
func (v View) Includes(n types.Note) bool {
	switch v {
	case ViewActive:
		return !n.IsDeleted && !n.IsArchived
	case ViewArchived:
		return !n.IsDeleted && n.IsArchived
	case ViewFavorites:
		return !n.IsDeleted && n.IsFavorite
	case ViewBin:
		return n.IsDeleted
	}
	return false
}

// SortsByDeletion is true for views ordered by deletedAt rather than createdAt.
func (v View) SortsByDeletion() bool {
	return v == ViewBin
}
