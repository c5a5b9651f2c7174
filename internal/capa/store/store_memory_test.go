package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roundwise/internal/capa/generate"
	capamodels "roundwise/internal/capa/models"
	"roundwise/internal/capa/store"
	"roundwise/internal/evaluation/models"
	id "roundwise/pkg/domain"
	"roundwise/pkg/requestcontext"
)

var (
	_ generate.Committer = (*store.InMemoryStore)(nil)
	_ generate.Committer = (*store.PostgresStore)(nil)
)

var commitTime = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func draft(roundID id.RoundID, itemID id.ItemID) capamodels.Draft {
	return capamodels.Draft{
		Title:         "Corrective action: Item #" + itemID.String(),
		Description:   "Round #" + roundID.String(),
		Department:    "Kitchen",
		Severity:      4,
		TargetDate:    commitTime.AddDate(0, 0, 14),
		SourceRoundID: roundID,
		SourceItemID:  itemID,
		RiskLevel:     models.RiskMajor,
	}
}

func TestInMemoryCommitCreatesRecords(t *testing.T) {
	s := store.NewInMemory()
	ctx := requestcontext.WithTime(context.Background(), commitTime)

	out, err := s.Commit(ctx, "inspector-7", []capamodels.Draft{draft(1, 10), draft(1, 11)})
	require.NoError(t, err)
	require.Len(t, out, 2)
	for _, rec := range out {
		assert.True(t, rec.Created)
		assert.False(t, rec.ID.IsNil())
		assert.Equal(t, id.EvaluatorID("inspector-7"), rec.CreatedBy)
		assert.Equal(t, commitTime, rec.CreatedAt)
	}
	assert.NotEqual(t, out[0].ID, out[1].ID)
}

func TestInMemoryCommitIsIdempotent(t *testing.T) {
	s := store.NewInMemory()
	ctx := requestcontext.WithTime(context.Background(), commitTime)

	first, err := s.Commit(ctx, "inspector-7", []capamodels.Draft{draft(1, 10)})
	require.NoError(t, err)

	second, err := s.Commit(ctx, "inspector-9", []capamodels.Draft{draft(1, 10), draft(1, 12)})
	require.NoError(t, err)
	require.Len(t, second, 2)

	assert.False(t, second[0].Created)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Equal(t, id.EvaluatorID("inspector-7"), second[0].CreatedBy, "replay keeps the original author")
	assert.True(t, second[1].Created)

	list, err := s.ListByRound(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, id.ItemID(10), list[0].SourceItemID)
	assert.Equal(t, id.ItemID(12), list[1].SourceItemID)
}

func TestInMemoryListByRoundFiltersRounds(t *testing.T) {
	s := store.NewInMemory()
	ctx := context.Background()

	_, err := s.Commit(ctx, "inspector-7", []capamodels.Draft{draft(1, 10), draft(2, 10)})
	require.NoError(t, err)

	list, err := s.ListByRound(ctx, 2)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, id.RoundID(2), list[0].SourceRoundID)
}
