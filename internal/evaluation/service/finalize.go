package service

import (
	"context"
	"errors"
	"fmt"

	"roundwise/internal/capa/extract"
	capamodels "roundwise/internal/capa/models"
	"roundwise/internal/evaluation/finalize"
	"roundwise/internal/evaluation/models"
	"roundwise/internal/platform/tracing"
	id "roundwise/pkg/domain"
	dErrors "roundwise/pkg/domain-errors"
	"roundwise/pkg/platform/sentinel"
)

// FinalizeResult is the stored final snapshot plus the CAPA drafts derived
// from it for review.
type FinalizeResult struct {
	Snapshot     models.FinalizedSnapshot      `json:"snapshot"`
	Threshold    models.Threshold              `json:"threshold"`
	NonCompliant []capamodels.NonCompliantItem `json:"non_compliant_items"`
	Drafts       []capamodels.Draft            `json:"capa_drafts"`
}

// Finalize completes the caller's session, submits the final snapshot and
// derives CAPA drafts. When the submission fails the session stays live in
// completed state and a repeated call resubmits the same snapshot.
//
// Errors:
//   - CodeIncompleteEvaluation: some item is unset; the session stays a draft
//   - CodeAlreadyFinalized: the round was submitted before
//   - CodeUnavailable: submission failed; retry
func (s *Service) Finalize(ctx context.Context, roundID id.RoundID, threshold *int) (result FinalizeResult, err error) {
	key, err := keyFrom(ctx, roundID)
	if err != nil {
		return FinalizeResult{}, err
	}
	th, err := s.resolveThreshold(threshold)
	if err != nil {
		return FinalizeResult{}, err
	}
	ctx, span := tracing.Start(ctx, s.tracer, "evaluation.Finalize",
		tracing.RoundID(int64(roundID)), tracing.EvaluatorID(key.evaluatorID.String()))
	defer func() { tracing.End(span, err) }()

	ls, ok := s.lookup(key)
	if !ok {
		return FinalizeResult{}, s.missingSession(ctx, roundID)
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()
	if current, ok := s.lookup(key); !ok || current != ls {
		return FinalizeResult{}, s.missingSession(ctx, roundID)
	}

	var snap models.FinalizedSnapshot
	if ls.pending != nil {
		snap = *ls.pending
	} else {
		snap, err = finalize.Finalize(ctx, ls.session, ls.scheduler)
		if err != nil {
			s.incFinalize(string(dErrors.CodeOf(err)))
			return FinalizeResult{}, err
		}
		ls.pending = &snap
	}

	stored, err := s.drafts.Finalize(ctx, roundID, key.evaluatorID, snap)
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			s.discard(key, ls)
			s.incFinalize(string(dErrors.CodeAlreadyFinalized))
			return FinalizeResult{}, dErrors.Wrap(err, dErrors.CodeAlreadyFinalized, "round evaluation already finalized")
		}
		s.incFinalize("submit_failed")
		if s.logger != nil {
			s.logger.WarnContext(ctx, "final submission failed, session kept for retry",
				"round_id", roundID,
				"evaluator_id", key.evaluatorID,
				"error", err,
			)
		}
		return FinalizeResult{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "final submission failed, retry finalize")
	}
	s.discard(key, ls)

	items := extract.Extract(ls.session, ls.round.Catalog, th)
	drafts := s.generator.Generate(items, ls.round.Meta)

	s.incFinalize("completed")
	if s.metrics != nil {
		s.metrics.AddCapaDraftsGenerated(len(drafts))
	}
	s.logAudit(ctx, eventRoundFinalized,
		"round_id", roundID,
		"evaluator_id", key.evaluatorID,
		"completion", stored.CompletionPercentage,
		"non_compliant", len(items),
	)
	if s.events != nil {
		if err := s.events.RoundFinalized(ctx, key.evaluatorID, ls.round.Meta, stored); err != nil && s.logger != nil {
			s.logger.ErrorContext(ctx, "round finalized event not published",
				"round_id", roundID,
				"error", err,
			)
		}
	}

	return FinalizeResult{
		Snapshot:     stored,
		Threshold:    th,
		NonCompliant: items,
		Drafts:       drafts,
	}, nil
}

// missingSession tells a round that was already submitted apart from one that
// was never opened.
func (s *Service) missingSession(ctx context.Context, roundID id.RoundID) error {
	draft, err := s.drafts.LoadDraft(ctx, roundID)
	if err == nil && draft.Status.IsTerminal() {
		return dErrors.New(dErrors.CodeAlreadyFinalized, "round evaluation already finalized")
	}
	return dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("no open session for round %s", roundID))
}

func (s *Service) incFinalize(outcome string) {
	if s.metrics != nil {
		s.metrics.IncFinalize(outcome)
	}
}
