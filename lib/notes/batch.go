package notes

import (
	"context"

	"github.com/oliverisaac/keepnotes/lib/lifecycle"
	"github.com/oliverisaac/keepnotes/types"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// BatchResult is the outcome for one note of a batch. A failure never rolls back the others.
type BatchResult struct {
	ID    string `json:"id"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	Err   error  `json:"-"`
}

// Batch applies action to every id concurrently. The returned error is only set when the batch
// as a whole is refused; per-note failures are reported in the results, in input order.
func (s *Service) Batch(ctx context.Context, owner string, action lifecycle.Action, ids []string) ([]BatchResult, error) {
	if owner == "" {
		return nil, ErrUnauthorized
	}
	if action == lifecycle.ActionView || action == lifecycle.ActionEdit {
		return nil, &ValidationError{Field: "action", Reason: "cannot be applied in a batch"}
	}
	if _, ok := s.actions[action]; !ok {
		return nil, &ValidationError{Field: "action", Reason: "is not supported"}
	}

	results := make([]BatchResult, len(ids))
	var g errgroup.Group
	g.SetLimit(s.batchConcurrency)

	for i, id := range ids {
		g.Go(func() error {
			_, err := s.Do(ctx, owner, id, action, types.NotePatch{})
			results[i] = BatchResult{ID: id, OK: err == nil, Err: err}
			if err != nil {
				results[i].Error = Describe(err)
				batchResults.WithLabelValues(action.String(), "error").Inc()
			} else {
				batchResults.WithLabelValues(action.String(), "ok").Inc()
			}
			return nil
		})
	}
	g.Wait()

	failed := 0
	for _, r := range results {
		if !r.OK {
			failed++
		}
	}
	logrus.WithFields(logrus.Fields{"owner": owner, "action": action, "total": len(ids), "failed": failed}).Debug("Batch finished")

	return results, nil
}

// RestoreAll restores the notes currently listed in the bin.
func (s *Service) RestoreAll(ctx context.Context, owner string) ([]BatchResult, error) {
	return s.binBatch(ctx, owner, lifecycle.ActionRestore)
}

// EmptyBin purges the notes currently listed in the bin.
func (s *Service) EmptyBin(ctx context.Context, owner string) ([]BatchResult, error) {
	return s.binBatch(ctx, owner, lifecycle.ActionPurgeForever)
}

func (s *Service) binBatch(ctx context.Context, owner string, action lifecycle.Action) ([]BatchResult, error) {
	bin, err := s.ListView(ctx, owner, lifecycle.ViewBin, "")
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(bin))
	for _, n := range bin {
		ids = append(ids, n.ID)
	}
	return s.Batch(ctx, owner, action, ids)
}
