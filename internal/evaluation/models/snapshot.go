package models

import (
	"math"
	"time"

	id "roundwise/pkg/domain"
)

// SnapshotEntry is one item of the persisted draft payload.
type SnapshotEntry struct {
	ItemID   id.ItemID `json:"item_id"`
	Status   Status    `json:"status"`
	Score    *int      `json:"score,omitempty"`
	Comments string    `json:"comments"`
}

// Snapshot is the exact payload sent to draft persistence and finalize.
type Snapshot struct {
	Evaluations []SnapshotEntry `json:"evaluations"`
	Notes       string          `json:"notes"`
}

// CompletionPercentage is the share of entries with an answer, rounded.
func (s Snapshot) CompletionPercentage() int {
	return completion(s.Evaluations)
}

func completion(entries []SnapshotEntry) int {
	if len(entries) == 0 {
		return 0
	}
	evaluated := 0
	for _, e := range entries {
		if e.Status.IsEvaluated() {
			evaluated++
		}
	}
	return int(math.Round(float64(evaluated) * 100 / float64(len(entries))))
}

// FinalizedSnapshot is the terminal payload handed to the finalize endpoint.
type FinalizedSnapshot struct {
	RoundID              id.RoundID      `json:"round_id"`
	Evaluations          []SnapshotEntry `json:"evaluations"`
	Notes                string          `json:"notes"`
	CompletionPercentage int             `json:"completion_percentage"`
	FinalizedAt          time.Time       `json:"finalized_at"`
}

// PriorRecord is a previously persisted draft row used to hydrate a session.
// Status is optional; older drafts only carry a score.
type PriorRecord struct {
	ItemID   id.ItemID `json:"item_id"`
	Score    *int      `json:"score"`
	Comments string    `json:"comments"`
	Status   string    `json:"status,omitempty"`
	// UpdatedAt is when the item was last saved; zero when the store does not track it.
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// HydratedStatus resolves the status a prior record should restore. An
// explicit, valid status wins; otherwise the score is mapped back.
func (p PriorRecord) HydratedStatus() Status {
	if p.Status != "" {
		if st, err := ParseStatus(p.Status); err == nil && st.IsValid() {
			return st
		}
	}
	return StatusFromScore(p.Score)
}

// Draft is the persisted state of a round: prior records, notes and the
// round's lifecycle status.
type Draft struct {
	Records []PriorRecord `json:"evaluations"`
	Notes   string        `json:"notes"`
	Status  RoundStatus   `json:"status"`
}

// PriorRecords converts snapshot entries into hydration input.
func PriorRecords(entries []SnapshotEntry) []PriorRecord {
	out := make([]PriorRecord, 0, len(entries))
	for _, e := range entries {
		out = append(out, PriorRecord{
			ItemID:   e.ItemID,
			Score:    e.Score,
			Comments: e.Comments,
			Status:   string(e.Status),
		})
	}
	return out
}

// SaveResult is what the draft endpoint reports back.
type SaveResult struct {
	CompletionPercentage int       `json:"completion_percentage"`
	SavedAt              time.Time `json:"saved_at"`
}
