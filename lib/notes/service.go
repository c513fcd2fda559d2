// Package notes is the core of keepnotes. Every operation takes the caller's owner key
// explicitly, checks it before touching the store, applies the lifecycle rules and persists
// the result.
package notes

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/oliverisaac/keepnotes/lib/lifecycle"
	"github.com/oliverisaac/keepnotes/lib/store"
	"github.com/oliverisaac/keepnotes/types"
	"github.com/sirupsen/logrus"
)

const defaultBatchConcurrency = 8

type Service struct {
	store            store.Store
	validate         *validator.Validate
	now              func() time.Time
	batchConcurrency int
	actions          map[lifecycle.Action]actionFunc
}

type Option func(*Service)

// WithClock replaces time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func WithBatchConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchConcurrency = n
		}
	}
}

func New(st store.Store, opts ...Option) *Service {
	s := &Service{
		store:            st,
		validate:         newValidator(),
		now:              func() time.Time { return time.Now().UTC() },
		batchConcurrency: defaultBatchConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.actions = s.actionHandlers()
	return s
}

func (s *Service) Create(ctx context.Context, owner string, fields types.NoteFields) (types.Note, error) {
	if owner == "" {
		return types.Note{}, ErrUnauthorized
	}

	fields.Title = strings.TrimSpace(fields.Title)
	fields.Content = strings.TrimSpace(fields.Content)
	fields.Tags = cleanTags(fields.Tags)
	if err := s.validate.Struct(fields); err != nil {
		return types.Note{}, validationError(err)
	}

	now := s.now()
	note := types.Note{
		Owner:            owner,
		Title:            fields.Title,
		Content:          fields.Content,
		PlainTextContent: PlainText(fields.Content),
		Icon:             types.NormalizeIcon(fields.Icon),
		Accent:           types.NormalizeIcon(fields.Accent),
		Tags:             fields.Tags,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.store.Create(ctx, &note); err != nil {
		return types.Note{}, classify("create note", err)
	}

	transitions.WithLabelValues("create").Inc()
	logrus.WithFields(logrus.Fields{"owner": owner, "note": note.ID}).Debug("Created note")
	return note, nil
}

func (s *Service) Get(ctx context.Context, owner, id string) (types.Note, error) {
	if owner == "" {
		return types.Note{}, ErrUnauthorized
	}
	note, err := s.store.Get(ctx, owner, id)
	if err != nil {
		return types.Note{}, classify("fetch note", err)
	}
	return note, nil
}

// Update applies a partial patch. Fields left nil are untouched.
func (s *Service) Update(ctx context.Context, owner, id string, patch types.NotePatch) (types.Note, error) {
	if owner == "" {
		return types.Note{}, ErrUnauthorized
	}

	if patch.Title != nil {
		patch.Title = types.Ptr(strings.TrimSpace(*patch.Title))
	}
	if patch.Content != nil {
		patch.Content = types.Ptr(strings.TrimSpace(*patch.Content))
	}
	if patch.Tags != nil {
		patch.Tags = types.Ptr(cleanTags(*patch.Tags))
	}
	if err := s.validate.Struct(patch); err != nil {
		return types.Note{}, validationError(err)
	}

	note, err := s.store.Update(ctx, owner, id, func(n *types.Note) error {
		return applyPatch(n, patch, s.now())
	})
	if err != nil {
		return types.Note{}, classify("update note", err)
	}

	transitions.WithLabelValues(lifecycle.ActionEdit.String()).Inc()
	logrus.WithFields(logrus.Fields{"owner": owner, "note": id}).Debug("Updated note")
	return note, nil
}

func applyPatch(n *types.Note, p types.NotePatch, now time.Time) error {
	if p.Title != nil {
		n.Title = *p.Title
	}
	if p.Content != nil {
		n.Content = *p.Content
		n.PlainTextContent = PlainText(*p.Content)
	}
	if p.Icon != nil {
		n.Icon = types.NormalizeIcon(*p.Icon)
	}
	if p.Accent != nil {
		n.Accent = types.NormalizeIcon(*p.Accent)
	}
	if p.Tags != nil {
		n.Tags = *p.Tags
	}
	if p.IsFavorite != nil {
		lifecycle.SetFavorite(n, *p.IsFavorite)
	}
	if p.IsArchived != nil {
		lifecycle.SetArchived(n, *p.IsArchived)
	}

	switch {
	case p.IsDeleted != nil:
		lifecycle.SetDeleted(n, *p.IsDeleted, p.DeletedAt.Time, now)
	case p.DeletedAt.Set:
		if !lifecycle.StampDeletedAt(n, p.DeletedAt.Time) {
			return &ValidationError{Field: "deletedAt", Reason: "must be set exactly when the note is deleted"}
		}
	}

	n.UpdatedAt = now
	return nil
}

func (s *Service) SoftDelete(ctx context.Context, owner, id string) (types.Note, error) {
	return s.transition(ctx, owner, id, lifecycle.ActionDelete.String(), func(n *types.Note, now time.Time) {
		lifecycle.SoftDelete(n, now)
	})
}

func (s *Service) Restore(ctx context.Context, owner, id string) (types.Note, error) {
	return s.transition(ctx, owner, id, lifecycle.ActionRestore.String(), func(n *types.Note, _ time.Time) {
		lifecycle.Restore(n)
	})
}

func (s *Service) Archive(ctx context.Context, owner, id string) (types.Note, error) {
	return s.transition(ctx, owner, id, lifecycle.ActionArchive.String(), func(n *types.Note, _ time.Time) {
		lifecycle.SetArchived(n, true)
	})
}

func (s *Service) Unarchive(ctx context.Context, owner, id string) (types.Note, error) {
	return s.transition(ctx, owner, id, lifecycle.ActionUnarchive.String(), func(n *types.Note, _ time.Time) {
		lifecycle.SetArchived(n, false)
	})
}

// ToggleFavorite flips the favorite flag in any state, the bin included.
func (s *Service) ToggleFavorite(ctx context.Context, owner, id string) (types.Note, error) {
	return s.transition(ctx, owner, id, "favorite", func(n *types.Note, _ time.Time) {
		lifecycle.ToggleFavorite(n)
	})
}

// Purge removes the note for good. It does not require the note to be in the bin.
func (s *Service) Purge(ctx context.Context, owner, id string) error {
	if owner == "" {
		return ErrUnauthorized
	}
	ok, err := s.store.Delete(ctx, owner, id)
	if err != nil {
		return classify("delete note", err)
	}
	if !ok {
		return ErrNotFound
	}

	transitions.WithLabelValues(lifecycle.ActionPurgeForever.String()).Inc()
	logrus.WithFields(logrus.Fields{"owner": owner, "note": id}).Debug("Purged note")
	return nil
}

// DeleteOwnerNotes purges everything the owner has, bin or not. It backs account deletion.
func (s *Service) DeleteOwnerNotes(ctx context.Context, owner string) (int64, error) {
	if owner == "" {
		return 0, ErrUnauthorized
	}
	n, err := s.store.DeleteOwner(ctx, owner)
	if err != nil {
		return 0, classify("delete notes", err)
	}
	return n, nil
}

// transition applies fn under the store's read-modify-write and counts it under action.
func (s *Service) transition(ctx context.Context, owner, id, action string, fn func(*types.Note, time.Time)) (types.Note, error) {
	if owner == "" {
		return types.Note{}, ErrUnauthorized
	}

	note, err := s.store.Update(ctx, owner, id, func(n *types.Note) error {
		now := s.now()
		fn(n, now)
		n.UpdatedAt = now
		return nil
	})
	if err != nil {
		return types.Note{}, classify("update note", err)
	}

	transitions.WithLabelValues(action).Inc()
	logrus.WithFields(logrus.Fields{"owner": owner, "note": id, "action": action}).Debug("Note transition")
	return note, nil
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
