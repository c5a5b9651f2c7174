package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"roundwise/internal/evaluation/models"
	id "roundwise/pkg/domain"
	"roundwise/pkg/platform/sentinel"
	"roundwise/pkg/requestcontext"
)

type InMemoryDraftStoreSuite struct {
	suite.Suite
	store *InMemoryDraftStore
	ctx   context.Context
}

func TestInMemoryDraftStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryDraftStoreSuite))
}

func (s *InMemoryDraftStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func snapshot(notes string, entries ...models.SnapshotEntry) models.Snapshot {
	return models.Snapshot{Evaluations: entries, Notes: notes}
}

func entry(itemID id.ItemID, status models.Status, comment string) models.SnapshotEntry {
	return models.SnapshotEntry{ItemID: itemID, Status: status, Score: status.ScorePtr(), Comments: comment}
}

// =============================================================================
// SaveDraft / LoadDraft
// =============================================================================

func (s *InMemoryDraftStoreSuite) TestLoadDraftOfUnknownRoundIsEmpty() {
	draft, err := s.store.LoadDraft(s.ctx, 1)
	s.Require().NoError(err)
	s.Empty(draft.Records)
	s.Equal(models.RoundStatusDraft, draft.Status)
}

func (s *InMemoryDraftStoreSuite) TestSaveDraftUpsertsPerItem() {
	completion, err := s.store.SaveDraft(s.ctx, 1, "inspector-7", snapshot("first",
		entry(1, models.StatusApplied, ""),
		entry(2, models.StatusUnset, ""),
	))
	s.Require().NoError(err)
	s.Equal(50, completion)

	completion, err = s.store.SaveDraft(s.ctx, 1, "inspector-7", snapshot("second",
		entry(1, models.StatusApplied, ""),
		entry(2, models.StatusNotApplicable, "closed for refit"),
	))
	s.Require().NoError(err)
	s.Equal(100, completion)

	draft, err := s.store.LoadDraft(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal("second", draft.Notes)
	s.Require().Len(draft.Records, 2)
	s.Equal(models.StatusNotApplicable, draft.Records[1].HydratedStatus())
	s.Equal("closed for refit", draft.Records[1].Comments)
}

// =============================================================================
// Finalize
// =============================================================================

func (s *InMemoryDraftStoreSuite) TestLoadDraftCarriesPerItemSaveTime() {
	first := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	second := first.Add(30 * time.Second)

	_, err := s.store.SaveDraft(requestcontext.WithTime(s.ctx, first), 1, "inspector-7",
		snapshot("", entry(1, models.StatusApplied, "")))
	s.Require().NoError(err)
	_, err = s.store.SaveDraft(requestcontext.WithTime(s.ctx, second), 1, "inspector-7",
		snapshot("", entry(2, models.StatusPartial, "")))
	s.Require().NoError(err)

	draft, err := s.store.LoadDraft(s.ctx, 1)
	s.Require().NoError(err)
	s.Require().Len(draft.Records, 2)
	s.Equal(first, draft.Records[0].UpdatedAt)
	s.Equal(second, draft.Records[1].UpdatedAt)
}

func (s *InMemoryDraftStoreSuite) TestFinalizeIsTerminal() {
	at := time.Date(2026, 3, 2, 17, 0, 0, 0, time.UTC)
	final := models.FinalizedSnapshot{
		RoundID:              1,
		Evaluations:          []models.SnapshotEntry{entry(1, models.StatusPartial, "")},
		CompletionPercentage: 100,
		FinalizedAt:          at,
	}

	got, err := s.store.Finalize(s.ctx, 1, "inspector-7", final)
	s.Require().NoError(err)
	s.Equal(final, got)

	_, err = s.store.Finalize(s.ctx, 1, "inspector-7", final)
	s.ErrorIs(err, sentinel.ErrConflict)

	status, err := s.store.Status(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal(models.RoundStatusCompleted, status)
}

func (s *InMemoryDraftStoreSuite) TestTrailingDraftWriteAfterFinalizeIsIgnored() {
	_, err := s.store.Finalize(s.ctx, 1, "inspector-7", models.FinalizedSnapshot{
		RoundID:              1,
		Evaluations:          []models.SnapshotEntry{entry(1, models.StatusApplied, "")},
		CompletionPercentage: 100,
	})
	s.Require().NoError(err)

	completion, err := s.store.SaveDraft(s.ctx, 1, "inspector-7", snapshot("late", entry(1, models.StatusUnset, "")))
	s.Require().NoError(err)
	s.Equal(100, completion)

	draft, err := s.store.LoadDraft(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal(models.StatusApplied, draft.Records[0].HydratedStatus())
	s.Empty(draft.Notes)
}
