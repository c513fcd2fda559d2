package notes

import (
	"context"

	"github.com/oliverisaac/keepnotes/lib/lifecycle"
	"github.com/oliverisaac/keepnotes/types"
)

// actionFunc runs one action against one note. Only ActionEdit reads the patch.
type actionFunc func(ctx context.Context, owner, id string, patch types.NotePatch) (types.Note, error)

func (s *Service) actionHandlers() map[lifecycle.Action]actionFunc {
	simple := func(fn func(context.Context, string, string) (types.Note, error)) actionFunc {
		return func(ctx context.Context, owner, id string, _ types.NotePatch) (types.Note, error) {
			return fn(ctx, owner, id)
		}
	}

	return map[lifecycle.Action]actionFunc{
		lifecycle.ActionView:      simple(s.Get),
		lifecycle.ActionEdit:      s.Update,
		lifecycle.ActionArchive:   simple(s.Archive),
		lifecycle.ActionUnarchive: simple(s.Unarchive),
		lifecycle.ActionDelete:    simple(s.SoftDelete),
		lifecycle.ActionRestore:   simple(s.Restore),
		lifecycle.ActionPurgeForever: func(ctx context.Context, owner, id string, _ types.NotePatch) (types.Note, error) {
			return types.Note{}, s.Purge(ctx, owner, id)
		},
	}
}

// Do runs action on a single note. A purged note comes back as the zero Note.
func (s *Service) Do(ctx context.Context, owner, id string, action lifecycle.Action, patch types.NotePatch) (types.Note, error) {
	if owner == "" {
		return types.Note{}, ErrUnauthorized
	}
	handler, ok := s.actions[action]
	if !ok {
		return types.Note{}, &ValidationError{Field: "action", Reason: "is not supported"}
	}
	return handler(ctx, owner, id, patch)
}
