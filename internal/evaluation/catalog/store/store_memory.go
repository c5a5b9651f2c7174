// Package store provides catalog sources: an in-memory fixture store, a
// PostgreSQL reader and a Redis read-through cache that wraps either.
package store

import (
	"context"
	"encoding/json"
	"sync"

	id "roundwise/pkg/domain"
	"roundwise/pkg/platform/sentinel"
)

// InMemorySource serves raw catalog payloads held in memory. Payloads are
// kept verbatim so fixtures can exercise every accepted shape.
type InMemorySource struct {
	mu         sync.RWMutex
	items      []byte
	categories []byte
	rounds     map[id.RoundID][]byte
}

func NewInMemory() *InMemorySource {
	return &InMemorySource{
		items:      []byte("[]"),
		categories: []byte("[]"),
		rounds:     make(map[id.RoundID][]byte),
	}
}

func (s *InMemorySource) SetItems(raw []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append([]byte(nil), raw...)
}

func (s *InMemorySource) SetCategories(raw []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories = append([]byte(nil), raw...)
}

func (s *InMemorySource) SetRound(roundID id.RoundID, raw []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rounds[roundID] = append([]byte(nil), raw...)
}

// SetRoundStatus rewrites the status field of a stored round payload.
func (s *InMemorySource) SetRoundStatus(roundID id.RoundID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.rounds[roundID]
	if !ok {
		return sentinel.ErrNotFound
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	if data, ok := doc["data"].(map[string]any); ok {
		data["status"] = status
	} else {
		doc["status"] = status
	}
	updated, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	s.rounds[roundID] = updated
	return nil
}

func (s *InMemorySource) Items(_ context.Context) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]byte(nil), s.items...), nil
}

func (s *InMemorySource) Categories(_ context.Context) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]byte(nil), s.categories...), nil
}

func (s *InMemorySource) Round(_ context.Context, roundID id.RoundID) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, ok := s.rounds[roundID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return append([]byte(nil), raw...), nil
}
