// Package lifecycle holds the pure rules for a note's lifecycle flags: soft delete, restore,
// archive and favorite, plus the views that project notes by those flags.
package lifecycle

import (
	"time"

	"github.com/oliverisaac/keepnotes/types"
)

// SoftDelete moves n to the bin. Deleting a note already in the bin keeps its first deletedAt.
func SoftDelete(n *types.Note, now time.Time) bool {
	if n.IsDeleted {
		if n.DeletedAt == nil {
			n.DeletedAt = &now
			return true
		}
		return false
	}
	n.IsDeleted = true
	n.DeletedAt = &now
	return true
}

// Restore takes n out of the bin.
func Restore(n *types.Note) bool {
	changed := n.IsDeleted || n.DeletedAt != nil
	n.IsDeleted = false
	n.DeletedAt = nil
	return changed
}

// SetArchived sets the archive flag. It does not interact with the favorite or deleted flags.
func SetArchived(n *types.Note, archived bool) bool {
	changed := n.IsArchived != archived
	n.IsArchived = archived
	return changed
}

// SetFavorite is allowed in any state, including while the note is in the bin.
func SetFavorite(n *types.Note, favorite bool) bool {
	changed := n.IsFavorite != favorite
	n.IsFavorite = favorite
	return changed
}

func ToggleFavorite(n *types.Note) {
	n.IsFavorite = !n.IsFavorite
}

// SetDeleted applies an explicit isDeleted/deletedAt pair from a patch while keeping deletedAt
// non-nil exactly when the note is deleted. A nil at means "now" on a fresh delete.
func SetDeleted(n *types.Note, deleted bool, at *time.Time, now time.Time) bool {
	if !deleted {
		return Restore(n)
	}
	if !n.IsDeleted && at != nil {
		n.IsDeleted = true
		n.DeletedAt = at
		return true
	}
	return SoftDelete(n, now)
}

// StampDeletedAt handles a patch that carries deletedAt without isDeleted. It returns false when
// the value would break the deletedAt/isDeleted pairing.
func StampDeletedAt(n *types.Note, at *time.Time) bool {
	switch {
	case n.IsDeleted && at != nil:
		n.DeletedAt = at
		return true
	case !n.IsDeleted && at == nil:
		return true
	default:
		return false
	}
}
