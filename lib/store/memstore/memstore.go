// Package memstore keeps notes in a map guarded by a RWMutex. It backs development runs and tests.
package memstore

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/oliverisaac/keepnotes/lib/store"
	"github.com/oliverisaac/keepnotes/types"
)

var _ store.Store = (*Store)(nil)

type key struct {
	owner string
	id    string
}

type Store struct {
	mu    sync.RWMutex
	notes map[key]types.Note
}

func New() *Store {
	return &Store{
		notes: make(map[key]types.Note),
	}
}

func (s *Store) Create(ctx context.Context, note *types.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if note.ID == "" {
		note.ID = uuid.NewString()
	}
	s.notes[key{note.Owner, note.ID}] = clone(*note)
	return nil
}

func (s *Store) Get(ctx context.Context, owner, id string) (types.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	note, ok := s.notes[key{owner, id}]
	if !ok {
		return types.Note{}, store.ErrNotFound
	}
	return clone(note), nil
}

func (s *Store) Update(ctx context.Context, owner, id string, fn store.Mutator) (types.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key{owner, id}
	note, ok := s.notes[k]
	if !ok {
		return types.Note{}, store.ErrNotFound
	}
	note = clone(note)
	if err := fn(&note); err != nil {
		return types.Note{}, err
	}
	note.ID, note.Owner = id, owner
	s.notes[k] = clone(note)
	return note, nil
}

func (s *Store) Delete(ctx context.Context, owner, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key{owner, id}
	if _, ok := s.notes[k]; !ok {
		return false, nil
	}
	delete(s.notes, k)
	return true, nil
}

func (s *Store) Query(ctx context.Context, owner string, filter store.Filter) ([]types.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	notes := make([]types.Note, 0)
	for k, note := range s.notes {
		if k.owner != owner || !filter.Matches(note) {
			continue
		}
		notes = append(notes, clone(note))
	}

	sort.Slice(notes, func(i, j int) bool { return filter.Less(notes[i], notes[j]) })
	if limit := filter.EffectiveLimit(); len(notes) > limit {
		notes = notes[:limit]
	}
	return notes, nil
}

func (s *Store) DeleteOwner(ctx context.Context, owner string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for k := range s.notes {
		if k.owner == owner {
			delete(s.notes, k)
			n++
		}
	}
	return n, nil
}

func (s *Store) Close() error {
	return nil
}

func clone(n types.Note) types.Note {
	n.Tags = slices.Clone(n.Tags)
	if n.DeletedAt != nil {
		t := *n.DeletedAt
		n.DeletedAt = &t
	}
	return n
}
