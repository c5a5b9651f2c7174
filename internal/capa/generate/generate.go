// Package generate turns non-compliant items into CAPA drafts.
//
// Generation is pure apart from the target date, which depends only on the
// injected clock. Persisting drafts is a separate, explicit step performed by
// a Committer.
package generate

import (
	"context"
	"fmt"
	"strings"
	"time"

	capamodels "roundwise/internal/capa/models"
	"roundwise/internal/evaluation/models"
	id "roundwise/pkg/domain"
)

// Committer persists reviewed drafts. Commit is idempotent per source round
// and item: replaying a draft returns the existing record with Created false.
type Committer interface {
	Commit(ctx context.Context, createdBy id.EvaluatorID, drafts []capamodels.Draft) ([]capamodels.Committed, error)
}

// Generator builds drafts from a policy and a clock.
type Generator struct {
	policy Policy
	clock  func() time.Time
}

type Option func(*Generator)

func WithPolicy(p Policy) Option {
	return func(g *Generator) {
		g.policy = p
	}
}

func WithClock(clock func() time.Time) Option {
	return func(g *Generator) {
		if clock != nil {
			g.clock = clock
		}
	}
}

func New(opts ...Option) *Generator {
	g := &Generator{
		policy: DefaultPolicy(),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Generator) Policy() Policy {
	return g.policy
}

// Generate returns exactly one draft per item, in input order.
func (g *Generator) Generate(items []capamodels.NonCompliantItem, round models.RoundMeta) []capamodels.Draft {
	now := g.clock()
	drafts := make([]capamodels.Draft, 0, len(items))
	for _, item := range items {
		rule := g.policy.RuleFor(item.RiskLevel)
		drafts = append(drafts, capamodels.Draft{
			Title:         title(item),
			Description:   description(item, round),
			Comment:       item.Comment,
			Department:    round.Department,
			Severity:      rule.Severity,
			TargetDate:    now.AddDate(0, 0, rule.DueDays),
			SourceItemID:  item.ItemID,
			SourceRoundID: round.ID,
			RiskLevel:     item.RiskLevel,
		})
	}
	return drafts
}

func itemLabel(item capamodels.NonCompliantItem) string {
	switch {
	case item.Code != "" && item.Title != "":
		return fmt.Sprintf("[%s] %s", item.Code, item.Title)
	case item.Title != "":
		return item.Title
	case item.Code != "":
		return fmt.Sprintf("[%s]", item.Code)
	default:
		return fmt.Sprintf("Item #%d", item.ItemID)
	}
}

func title(item capamodels.NonCompliantItem) string {
	return "Corrective action: " + itemLabel(item)
}

func description(item capamodels.NonCompliantItem, round models.RoundMeta) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Round #%d", round.ID)
	if round.Department != "" {
		fmt.Fprintf(&b, " (%s)", round.Department)
	}
	fmt.Fprintf(&b, ": %s was evaluated as %s.", itemLabel(item), item.Status.Label())
	if c := strings.TrimSpace(item.Comment); c != "" {
		fmt.Fprintf(&b, "\nEvaluator comment: %s", c)
	}
	return b.String()
}
