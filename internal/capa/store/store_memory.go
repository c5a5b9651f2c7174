// Package store commits CAPA drafts. Both implementations are idempotent per
// (source round, source item).
package store

import (
	"context"
	"sync"

	capamodels "roundwise/internal/capa/models"
	id "roundwise/pkg/domain"
	"roundwise/pkg/requestcontext"
)

type InMemoryStore struct {
	mu      sync.RWMutex
	records map[capamodels.Key]capamodels.Committed
	order   []capamodels.Key
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{records: make(map[capamodels.Key]capamodels.Committed)}
}

// Commit stores every new draft and returns existing records for replays.
// The batch is applied atomically.
func (s *InMemoryStore) Commit(ctx context.Context, createdBy id.EvaluatorID, drafts []capamodels.Draft) ([]capamodels.Committed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := requestcontext.Now(ctx)
	out := make([]capamodels.Committed, 0, len(drafts))
	for _, d := range drafts {
		key := d.Key()
		if existing, ok := s.records[key]; ok {
			existing.Created = false
			out = append(out, existing)
			continue
		}
		rec := capamodels.Committed{
			Draft:     d,
			ID:        id.NewCapaID(),
			CreatedBy: createdBy,
			CreatedAt: now,
			Created:   true,
		}
		s.records[key] = rec
		s.order = append(s.order, key)
		out = append(out, rec)
	}
	return out, nil
}

// ListByRound returns the committed CAPAs of a round in commit order.
func (s *InMemoryStore) ListByRound(_ context.Context, roundID id.RoundID) ([]capamodels.Committed, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []capamodels.Committed
	for _, key := range s.order {
		if key.RoundID == roundID {
			rec := s.records[key]
			rec.Created = false
			out = append(out, rec)
		}
	}
	return out, nil
}
