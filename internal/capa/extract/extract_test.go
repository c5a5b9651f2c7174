package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	capamodels "roundwise/internal/capa/models"
	"roundwise/internal/evaluation/catalog"
	"roundwise/internal/evaluation/models"
	"roundwise/internal/evaluation/session"
	id "roundwise/pkg/domain"
)

func kitchenCatalog() *catalog.Catalog {
	return catalog.New(
		[]models.EvaluationItem{
			{ID: 3, CategoryID: 2, Title: "Fridge below 5C", Code: "K-3", RiskLevel: models.RiskCritical},
			{ID: 1, CategoryID: 1, Title: "Hand wash station", Code: "H-1", RiskLevel: models.RiskMajor},
			{ID: 2, CategoryID: 1, Title: "Floor clean", Code: "H-2", RiskLevel: models.RiskMinor},
		},
		[]models.Category{
			{ID: 1, Name: "Hygiene", SortOrder: 1},
			{ID: 2, Name: "Kitchen", SortOrder: 2},
		},
	)
}

func openSession(t *testing.T, itemIDs []id.ItemID, statuses map[id.ItemID]models.Status) *session.Session {
	t.Helper()
	sess, _ := session.Open(1, "inspector-7", itemIDs, nil)
	for itemID, st := range statuses {
		require.NoError(t, sess.SetStatus(itemID, st))
	}
	return sess
}

func itemIDs(items []capamodels.NonCompliantItem) []id.ItemID {
	out := make([]id.ItemID, len(items))
	for i, it := range items {
		out[i] = it.ItemID
	}
	return out
}

func TestExtract_ThresholdFiftyScenario(t *testing.T) {
	sess := openSession(t, []id.ItemID{1, 2, 3}, map[id.ItemID]models.Status{
		1: models.StatusApplied,
		2: models.StatusPartial,
		3: models.StatusNotApplied,
	})
	require.NoError(t, sess.SetComment(3, "reads 9C"))

	got := Extract(sess, kitchenCatalog(), models.DefaultThreshold)

	require.Len(t, got, 2)
	assert.Equal(t, capamodels.NonCompliantItem{
		ItemID:    2,
		Title:     "Floor clean",
		Code:      "H-2",
		Status:    models.StatusPartial,
		RiskLevel: models.RiskMinor,
	}, got[0])
	assert.Equal(t, capamodels.NonCompliantItem{
		ItemID:    3,
		Title:     "Fridge below 5C",
		Code:      "K-3",
		Status:    models.StatusNotApplied,
		Comment:   "reads 9C",
		RiskLevel: models.RiskCritical,
	}, got[1])
}

func TestExtract_FollowsCatalogOrderNotEvaluationOrder(t *testing.T) {
	cat := kitchenCatalog()
	statuses := map[id.ItemID]models.Status{
		1: models.StatusNotApplied,
		2: models.StatusLowPartial,
		3: models.StatusPartial,
	}

	first := Extract(openSession(t, []id.ItemID{3, 2, 1}, statuses), cat, models.DefaultThreshold)
	second := Extract(openSession(t, []id.ItemID{1, 3, 2}, statuses), cat, models.DefaultThreshold)

	assert.Equal(t, []id.ItemID{1, 2, 3}, itemIDs(first))
	assert.Equal(t, first, second)
}

func TestExtract_ExcludesUnsetAndNotApplicable(t *testing.T) {
	sess := openSession(t, []id.ItemID{1, 2, 3}, map[id.ItemID]models.Status{
		1: models.StatusNotApplicable,
	})
	assert.Empty(t, Extract(sess, kitchenCatalog(), 100))
}

func TestExtract_HigherThresholdWidensSelection(t *testing.T) {
	sess := openSession(t, []id.ItemID{1, 2, 3}, map[id.ItemID]models.Status{
		1: models.StatusHighPartial,
		2: models.StatusApplied,
		3: models.StatusPartial,
	})
	assert.Equal(t, []id.ItemID{3}, itemIDs(Extract(sess, kitchenCatalog(), 50)))
	assert.Equal(t, []id.ItemID{1, 3}, itemIDs(Extract(sess, kitchenCatalog(), 80)))
}

func TestExtract_ItemsMissingFromCatalogComeLast(t *testing.T) {
	sess := openSession(t, []id.ItemID{42, 3, 7}, map[id.ItemID]models.Status{
		42: models.StatusNotApplied,
		3:  models.StatusNotApplied,
		7:  models.StatusNotApplied,
	})

	got := Extract(sess, kitchenCatalog(), models.DefaultThreshold)

	assert.Equal(t, []id.ItemID{3, 7, 42}, itemIDs(got))
	assert.Empty(t, got[1].Title)
	assert.Empty(t, got[1].Code)
}

func TestExtract_WorksOnCompletedSession(t *testing.T) {
	sess := openSession(t, []id.ItemID{1}, map[id.ItemID]models.Status{1: models.StatusLowPartial})
	_, err := sess.Complete(sess.Records()[0].UpdatedAt)
	require.NoError(t, err)

	assert.Len(t, Extract(sess, kitchenCatalog(), models.DefaultThreshold), 1)
}
