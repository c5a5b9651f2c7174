package service

import (
	"context"
	"errors"
	"fmt"

	"roundwise/internal/capa/extract"
	capamodels "roundwise/internal/capa/models"
	"roundwise/internal/evaluation/catalog"
	"roundwise/internal/evaluation/models"
	"roundwise/internal/evaluation/session"
	"roundwise/internal/platform/tracing"
	id "roundwise/pkg/domain"
	dErrors "roundwise/pkg/domain-errors"
	"roundwise/pkg/platform/sentinel"
)

// Preview lists the non-compliant items of a round and the drafts that would
// be proposed for them.
type Preview struct {
	RoundID      id.RoundID                    `json:"round_id"`
	Threshold    models.Threshold              `json:"threshold"`
	NonCompliant []capamodels.NonCompliantItem `json:"non_compliant_items"`
	Drafts       []capamodels.Draft            `json:"capa_drafts"`
}

type CommitResult struct {
	Committed []capamodels.Committed `json:"committed"`
	Created   int                    `json:"created"`
	Replayed  int                    `json:"replayed"`
}

// PreviewCapa derives drafts from the caller's live session, or from the
// stored draft when no session is open (for example after finalize).
func (s *Service) PreviewCapa(ctx context.Context, roundID id.RoundID, threshold *int) (Preview, error) {
	key, err := keyFrom(ctx, roundID)
	if err != nil {
		return Preview{}, err
	}
	th, err := s.resolveThreshold(threshold)
	if err != nil {
		return Preview{}, err
	}

	var (
		sess *session.Session
		rc   *catalog.RoundCatalog
	)
	if ls, ok := s.lookup(key); ok {
		sess, rc = ls.session, ls.round
	} else {
		rc, sess, err = s.storedSession(ctx, key)
		if err != nil {
			return Preview{}, err
		}
	}

	items := extract.Extract(sess, rc.Catalog, th)
	drafts := s.generator.Generate(items, rc.Meta)
	return Preview{
		RoundID:      roundID,
		Threshold:    th,
		NonCompliant: items,
		Drafts:       drafts,
	}, nil
}

// storedSession rebuilds a read-only session from the persisted draft.
func (s *Service) storedSession(ctx context.Context, key sessionKey) (*catalog.RoundCatalog, *session.Session, error) {
	rc, draft, err := s.loadRound(ctx, key.roundID)
	if err != nil {
		return nil, nil, err
	}
	sess, _ := session.Open(key.roundID, key.evaluatorID, rc.ItemIDs(), draft.Records,
		session.WithNotes(draft.Notes),
		session.WithClock(s.clock.Now),
	)
	return rc, sess, nil
}

// CommitCapa persists reviewed drafts. Committing the same (round, item) again
// returns the existing CAPA with Created false.
func (s *Service) CommitCapa(ctx context.Context, roundID id.RoundID, drafts []capamodels.Draft) (result CommitResult, err error) {
	key, err := keyFrom(ctx, roundID)
	if err != nil {
		return CommitResult{}, err
	}
	if err := validateDrafts(roundID, drafts); err != nil {
		return CommitResult{}, err
	}
	ctx, span := tracing.Start(ctx, s.tracer, "capa.Commit",
		tracing.RoundID(int64(roundID)), tracing.EvaluatorID(key.evaluatorID.String()))
	defer func() { tracing.End(span, err) }()

	committed, err := s.committer.Commit(ctx, key.evaluatorID, drafts)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return CommitResult{}, dErrors.Wrap(err, dErrors.CodeNotFound, "round not found")
		}
		return CommitResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to commit corrective actions")
	}

	result.Committed = committed
	for _, c := range committed {
		if c.Created {
			result.Created++
		} else {
			result.Replayed++
		}
		if s.metrics != nil {
			s.metrics.IncCapaCommitted(c.Created)
		}
	}
	s.logAudit(ctx, eventCapaCommitted,
		"round_id", roundID,
		"evaluator_id", key.evaluatorID,
		"created", result.Created,
		"replayed", result.Replayed,
	)
	if s.events != nil {
		if err := s.events.CapaDrafted(ctx, committed); err != nil && s.logger != nil {
			s.logger.ErrorContext(ctx, "capa drafted events not published",
				"round_id", roundID,
				"error", err,
			)
		}
	}
	return result, nil
}

// validateDrafts fills a missing source round and rejects drafts that belong
// to another round, lack an item, or repeat an item within the batch.
func validateDrafts(roundID id.RoundID, drafts []capamodels.Draft) error {
	if len(drafts) == 0 {
		return dErrors.New(dErrors.CodeValidation, "at least one draft is required")
	}
	seen := make(map[id.ItemID]struct{}, len(drafts))
	for i := range drafts {
		d := &drafts[i]
		if d.SourceRoundID == 0 {
			d.SourceRoundID = roundID
		}
		switch {
		case d.SourceRoundID != roundID:
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("draft %d belongs to round %s", i, d.SourceRoundID))
		case d.SourceItemID <= 0:
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("draft %d has no source item", i))
		case d.Title == "":
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("draft %d has no title", i))
		case d.Severity < 1 || d.Severity > 5:
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("draft %d severity must be between 1 and 5", i))
		case d.TargetDate.IsZero():
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("draft %d has no target date", i))
		}
		if _, dup := seen[d.SourceItemID]; dup {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("item %s appears twice", d.SourceItemID))
		}
		seen[d.SourceItemID] = struct{}{}
	}
	return nil
}
