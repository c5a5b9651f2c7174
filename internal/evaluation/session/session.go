// Package session holds the working state of one evaluator's pass over a
// round: per-item status and comment, round notes, and save bookkeeping.
//
// A Session performs no I/O. The autosave scheduler and the finalization gate
// read it and drive it only through the methods below.
package session

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"roundwise/internal/evaluation/models"
	id "roundwise/pkg/domain"
	dErrors "roundwise/pkg/domain-errors"
	"roundwise/pkg/platform/sentinel"
)

// Record is the evaluator's answer for one item.
type Record struct {
	ItemID    id.ItemID
	Status    models.Status
	Comment   string
	UpdatedAt time.Time
}

// Hydration reports how a prior draft was applied on Open. Ignored lists
// prior records whose item is no longer part of the round.
type Hydration struct {
	// Applied counts distinct items restored from the prior draft.
	Applied int
	Ignored []id.ItemID
}

// Session is the live evaluation state of one round for one evaluator.
//
// Invariants:
//   - There is exactly one record per item of the round, in catalog order
//   - Records are never removed, only overwritten
//   - Once Status is completed no mutation is accepted
type Session struct {
	mu sync.RWMutex

	roundID     id.RoundID
	evaluatorID id.EvaluatorID
	records     map[id.ItemID]*Record
	order       []id.ItemID
	notes       string
	status      models.RoundStatus

	version       uint64
	savedVersion  uint64
	lastSavedAt   time.Time
	lastSaveError error

	clock func() time.Time
}

// Option configures a Session.
type Option func(*Session)

// WithClock overrides time.Now for record timestamps.
func WithClock(clock func() time.Time) Option {
	return func(s *Session) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithNotes restores round notes from a prior draft.
func WithNotes(notes string) Option {
	return func(s *Session) {
		s.notes = notes
	}
}

// Open builds a session with one unset record per item and applies any prior
// draft by item id. Duplicate item ids collapse to the first occurrence.
func Open(roundID id.RoundID, evaluatorID id.EvaluatorID, itemIDs []id.ItemID, prior []models.PriorRecord, opts ...Option) (*Session, Hydration) {
	s := &Session{
		roundID:     roundID,
		evaluatorID: evaluatorID,
		records:     make(map[id.ItemID]*Record, len(itemIDs)),
		order:       make([]id.ItemID, 0, len(itemIDs)),
		status:      models.RoundStatusDraft,
		clock:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	now := s.clock()
	for _, itemID := range itemIDs {
		if _, dup := s.records[itemID]; dup {
			continue
		}
		s.records[itemID] = &Record{ItemID: itemID, Status: models.StatusUnset, UpdatedAt: now}
		s.order = append(s.order, itemID)
	}

	var h Hydration
	hydrated := make(map[id.ItemID]struct{}, len(prior))
	for _, p := range prior {
		rec, ok := s.records[p.ItemID]
		if !ok {
			h.Ignored = append(h.Ignored, p.ItemID)
			continue
		}
		// a later duplicate of the same item overwrites the earlier one
		rec.Status = p.HydratedStatus()
		rec.Comment = p.Comments
		if !p.UpdatedAt.IsZero() {
			rec.UpdatedAt = p.UpdatedAt
		}
		hydrated[p.ItemID] = struct{}{}
	}
	h.Applied = len(hydrated)
	return s, h
}

// SetStatus records the evaluator's answer for an item.
func (s *Session) SetStatus(itemID id.ItemID, status models.Status) error {
	if status != models.StatusUnset && !status.IsValid() {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("invalid status %q", status))
	}
	return s.mutate(itemID, func(rec *Record) {
		rec.Status = status
	})
}

// SetComment records the evaluator's free-text comment for an item.
func (s *Session) SetComment(itemID id.ItemID, comment string) error {
	return s.mutate(itemID, func(rec *Record) {
		rec.Comment = comment
	})
}

// SetNotes replaces the round-level notes.
func (s *Session) SetNotes(notes string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureDraftLocked(); err != nil {
		return err
	}
	s.notes = notes
	s.version++
	return nil
}

func (s *Session) mutate(itemID id.ItemID, apply func(rec *Record)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureDraftLocked(); err != nil {
		return err
	}
	rec, ok := s.records[itemID]
	if !ok {
		return dErrors.Wrap(sentinel.ErrNotFound, dErrors.CodeNotFound,
			fmt.Sprintf("item %s is not part of round %s", itemID, s.roundID))
	}
	apply(rec)
	rec.UpdatedAt = s.clock()
	s.version++
	return nil
}

func (s *Session) ensureDraftLocked() error {
	if s.status.IsTerminal() {
		return dErrors.Wrap(sentinel.ErrInvalidState, dErrors.CodeInvalidState, "round evaluation is already completed")
	}
	return nil
}

// CompletionPercentage is round(evaluated/total*100); an empty round is 0.
func (s *Session) CompletionPercentage() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.completionLocked()
}

func (s *Session) completionLocked() int {
	evaluated, total := s.countLocked()
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(evaluated) * 100 / float64(total)))
}

func (s *Session) countLocked() (evaluated, total int) {
	for _, rec := range s.records {
		if rec.Status.IsEvaluated() {
			evaluated++
		}
	}
	return evaluated, len(s.order)
}

// EvaluatedCount returns how many items have an answer, and the item total.
func (s *Session) EvaluatedCount() (evaluated, total int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countLocked()
}

// Snapshot returns the persistence payload in item order.
func (s *Session) Snapshot() models.Snapshot {
	snap, _ := s.VersionedSnapshot()
	return snap
}

// VersionedSnapshot returns the payload together with the mutation version it
// reflects, so a later MarkSaved can tell whether newer edits exist.
func (s *Session) VersionedSnapshot() (models.Snapshot, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked(), s.version
}

func (s *Session) snapshotLocked() models.Snapshot {
	entries := make([]models.SnapshotEntry, 0, len(s.order))
	for _, itemID := range s.order {
		rec := s.records[itemID]
		entries = append(entries, models.SnapshotEntry{
			ItemID:   rec.ItemID,
			Status:   rec.Status,
			Score:    rec.Status.ScorePtr(),
			Comments: rec.Comment,
		})
	}
	return models.Snapshot{Evaluations: entries, Notes: s.notes}
}

// MarkSaved records a successful persistence of the snapshot taken at version.
func (s *Session) MarkSaved(at time.Time, version uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSavedAt = at
	s.lastSaveError = nil
	if version > s.savedVersion {
		s.savedVersion = version
	}
}

// MarkSaveFailed records the latest persistence failure.
func (s *Session) MarkSaveFailed(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSaveError = err
}

// ErrIncomplete is returned by Complete while some item is still unset.
var ErrIncomplete = errors.New("session has unevaluated items")

// Complete performs the terminal draft -> completed transition and returns the
// final snapshot. It fails with sentinel.ErrInvalidState if already completed
// and with ErrIncomplete unless every item is evaluated. Both checks happen
// under the same lock as the transition.
func (s *Session) Complete(at time.Time) (models.FinalizedSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.IsTerminal() {
		return models.FinalizedSnapshot{}, sentinel.ErrInvalidState
	}
	// The rounded percentage reaches 100 with one item unset once a round
	// has 200 items, so gate on the counts.
	if evaluated, total := s.countLocked(); total == 0 || evaluated != total {
		return models.FinalizedSnapshot{}, ErrIncomplete
	}
	s.status = models.RoundStatusCompleted
	snap := s.snapshotLocked()
	return models.FinalizedSnapshot{
		RoundID:              s.roundID,
		Evaluations:          snap.Evaluations,
		Notes:                snap.Notes,
		CompletionPercentage: s.completionLocked(),
		FinalizedAt:          at,
	}, nil
}

func (s *Session) RoundID() id.RoundID {
	return s.roundID
}

func (s *Session) EvaluatorID() id.EvaluatorID {
	return s.evaluatorID
}

// Status returns the round status as seen by this session.
func (s *Session) Status() models.RoundStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// ItemIDs returns the round's items in catalog order.
func (s *Session) ItemIDs() []id.ItemID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]id.ItemID(nil), s.order...)
}

// Record returns a copy of the record for itemID.
func (s *Session) Record(itemID id.ItemID) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[itemID]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}

// Records returns copies of all records in catalog order.
func (s *Session) Records() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, 0, len(s.order))
	for _, itemID := range s.order {
		out = append(out, *s.records[itemID])
	}
	return out
}

func (s *Session) Notes() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.notes
}

// Dirty reports whether edits exist that no successful save has covered.
func (s *Session) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version > s.savedVersion
}

func (s *Session) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

func (s *Session) LastSavedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSavedAt
}

func (s *Session) LastSaveError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSaveError
}
