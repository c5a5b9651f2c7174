// Package store persists evaluation drafts and finalized rounds.
package store

import (
	"context"
	"sync"
	"time"

	"roundwise/internal/evaluation/models"
	id "roundwise/pkg/domain"
	"roundwise/pkg/platform/sentinel"
	"roundwise/pkg/requestcontext"
)

type roundRecord struct {
	evaluatorID id.EvaluatorID
	evaluations map[id.ItemID]models.SnapshotEntry
	savedAt     map[id.ItemID]time.Time
	order       []id.ItemID
	notes       string
	status      models.RoundStatus
	completion  int
	finalizedAt time.Time
	updatedAt   time.Time
}

// InMemoryDraftStore keeps drafts per round in memory.
//
// Draft writes to a completed round are accepted and ignored, so a save that
// races finalization cannot reopen or alter the round.
type InMemoryDraftStore struct {
	mu     sync.RWMutex
	rounds map[id.RoundID]*roundRecord
}

func NewInMemory() *InMemoryDraftStore {
	return &InMemoryDraftStore{rounds: make(map[id.RoundID]*roundRecord)}
}

func (s *InMemoryDraftStore) roundLocked(roundID id.RoundID) *roundRecord {
	rec, ok := s.rounds[roundID]
	if !ok {
		rec = &roundRecord{
			evaluations: make(map[id.ItemID]models.SnapshotEntry),
			savedAt:     make(map[id.ItemID]time.Time),
			status:      models.RoundStatusDraft,
		}
		s.rounds[roundID] = rec
	}
	return rec
}

func (rec *roundRecord) apply(evaluatorID id.EvaluatorID, entries []models.SnapshotEntry, notes string, at time.Time) {
	rec.evaluatorID = evaluatorID
	for _, e := range entries {
		if _, seen := rec.evaluations[e.ItemID]; !seen {
			rec.order = append(rec.order, e.ItemID)
		}
		rec.evaluations[e.ItemID] = e
		rec.savedAt[e.ItemID] = at
	}
	rec.notes = notes
	rec.updatedAt = at
}

func (s *InMemoryDraftStore) SaveDraft(ctx context.Context, roundID id.RoundID, evaluatorID id.EvaluatorID, snap models.Snapshot) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.roundLocked(roundID)
	if rec.status.IsTerminal() {
		return rec.completion, nil
	}
	rec.apply(evaluatorID, snap.Evaluations, snap.Notes, requestcontext.Now(ctx))
	rec.completion = snap.CompletionPercentage()
	return rec.completion, nil
}

func (s *InMemoryDraftStore) LoadDraft(_ context.Context, roundID id.RoundID) (models.Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.rounds[roundID]
	if !ok {
		return models.Draft{Status: models.RoundStatusDraft}, nil
	}
	entries := make([]models.SnapshotEntry, 0, len(rec.order))
	for _, itemID := range rec.order {
		entries = append(entries, rec.evaluations[itemID])
	}
	records := models.PriorRecords(entries)
	for i := range records {
		records[i].UpdatedAt = rec.savedAt[records[i].ItemID]
	}
	return models.Draft{
		Records: records,
		Notes:   rec.notes,
		Status:  rec.status,
	}, nil
}

// Finalize stores the terminal snapshot. A second call for the same round
// returns sentinel.ErrConflict.
func (s *InMemoryDraftStore) Finalize(_ context.Context, roundID id.RoundID, evaluatorID id.EvaluatorID, snap models.FinalizedSnapshot) (models.FinalizedSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.roundLocked(roundID)
	if rec.status.IsTerminal() {
		return models.FinalizedSnapshot{}, sentinel.ErrConflict
	}
	rec.apply(evaluatorID, snap.Evaluations, snap.Notes, snap.FinalizedAt)
	rec.status = models.RoundStatusCompleted
	rec.completion = snap.CompletionPercentage
	rec.finalizedAt = snap.FinalizedAt
	return snap, nil
}

// Status reports the stored lifecycle status of a round.
func (s *InMemoryDraftStore) Status(_ context.Context, roundID id.RoundID) (models.RoundStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.rounds[roundID]
	if !ok {
		return "", sentinel.ErrNotFound
	}
	return rec.status, nil
}
