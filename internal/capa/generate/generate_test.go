package generate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	capamodels "roundwise/internal/capa/models"
	"roundwise/internal/evaluation/models"
)

var fixedNow = time.Date(2026, 3, 2, 17, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func kitchenRound() models.RoundMeta {
	return models.RoundMeta{ID: 12, Department: "Central Kitchen", Status: models.RoundStatusCompleted}
}

func TestGenerate_SeverityAndTargetDateByRisk(t *testing.T) {
	tests := []struct {
		risk     models.RiskLevel
		severity int
		dueDays  int
	}{
		{risk: models.RiskCritical, severity: 5, dueDays: 7},
		{risk: models.RiskMajor, severity: 4, dueDays: 14},
		{risk: models.RiskMinor, severity: 3, dueDays: 30},
		{risk: "", severity: 3, dueDays: 30},
		{risk: "catastrophic", severity: 3, dueDays: 30},
	}
	g := New(WithClock(fixedClock))
	for _, tt := range tests {
		t.Run(string(tt.risk), func(t *testing.T) {
			drafts := g.Generate([]capamodels.NonCompliantItem{{ItemID: 1, RiskLevel: tt.risk}}, kitchenRound())
			require.Len(t, drafts, 1)
			assert.Equal(t, tt.severity, drafts[0].Severity)
			assert.Equal(t, fixedNow.AddDate(0, 0, tt.dueDays), drafts[0].TargetDate)
		})
	}
}

func TestGenerate_OneDraftPerItemInOrder(t *testing.T) {
	items := []capamodels.NonCompliantItem{
		{ItemID: 7, Code: "K-3", Title: "Fridge below 5C", Status: models.StatusNotApplied, Comment: "reads 9C", RiskLevel: models.RiskCritical},
		{ItemID: 2, Title: "Floor clean", Status: models.StatusPartial},
		{ItemID: 9, Status: models.StatusLowPartial},
	}

	drafts := New(WithClock(fixedClock)).Generate(items, kitchenRound())

	require.Len(t, drafts, 3)
	assert.Equal(t, capamodels.Draft{
		Title:         "Corrective action: [K-3] Fridge below 5C",
		Description:   "Round #12 (Central Kitchen): [K-3] Fridge below 5C was evaluated as Not applied.\nEvaluator comment: reads 9C",
		Comment:       "reads 9C",
		Department:    "Central Kitchen",
		Severity:      5,
		TargetDate:    fixedNow.AddDate(0, 0, 7),
		SourceItemID:  7,
		SourceRoundID: 12,
		RiskLevel:     models.RiskCritical,
	}, drafts[0])

	assert.Equal(t, "Corrective action: Floor clean", drafts[1].Title)
	assert.Equal(t, "", drafts[1].Comment)
	assert.NotContains(t, drafts[1].Description, "Evaluator comment")

	assert.Equal(t, "Corrective action: Item #9", drafts[2].Title)
	for _, d := range drafts {
		assert.Equal(t, "Central Kitchen", d.Department)
	}
}

func TestGenerate_IsDeterministicForAFixedClock(t *testing.T) {
	items := []capamodels.NonCompliantItem{{ItemID: 1, Title: "x", RiskLevel: models.RiskMajor}}
	g := New(WithClock(fixedClock))
	assert.Equal(t, g.Generate(items, kitchenRound()), g.Generate(items, kitchenRound()))
	assert.Empty(t, g.Generate(nil, kitchenRound()))
}

func TestGenerate_DepartmentCopiedVerbatim(t *testing.T) {
	round := kitchenRound()
	round.Department = "  Ward 3 / Nights  "
	drafts := New().Generate([]capamodels.NonCompliantItem{{ItemID: 1}}, round)
	assert.Equal(t, "  Ward 3 / Nights  ", drafts[0].Department)
}

func TestLoadPolicy(t *testing.T) {
	t.Run("empty path yields defaults", func(t *testing.T) {
		p, err := LoadPolicy("")
		require.NoError(t, err)
		assert.Equal(t, DefaultPolicy(), p)
	})

	t.Run("file overrides are layered on defaults", func(t *testing.T) {
		p, err := LoadPolicy("testdata/policy.yaml")
		require.NoError(t, err)
		require.NotNil(t, p.Threshold)
		assert.Equal(t, 75, *p.Threshold)
		assert.Equal(t, Rule{Severity: 5, DueDays: 3}, p.RuleFor(models.RiskCritical))
		assert.Equal(t, Rule{Severity: 4, DueDays: 14}, p.RuleFor(models.RiskMajor))
		assert.Equal(t, Rule{Severity: 2, DueDays: 60}, p.RuleFor("minor"))
		assert.Equal(t, Rule{Severity: 3, DueDays: 30}, p.RuleFor(""))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadPolicy("testdata/absent.yaml")
		assert.Error(t, err)
	})
}

func TestParsePolicy_Rejects(t *testing.T) {
	tests := map[string]string{
		"severity out of range":  "risk_levels:\n  MAJOR: {severity: 9, due_days: 14}\n",
		"non-positive due days":  "default: {severity: 3, due_days: 0}\n",
		"threshold out of range": "noncompliance_threshold: 150\n",
		"malformed yaml":         "risk_levels: [",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParsePolicy([]byte(doc))
			assert.Error(t, err)
		})
	}
}
