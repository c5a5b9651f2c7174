package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"roundwise/internal/evaluation/autosave"
	"roundwise/internal/evaluation/catalog"
	"roundwise/internal/evaluation/models"
	"roundwise/internal/evaluation/session"
	"roundwise/internal/platform/tracing"
	id "roundwise/pkg/domain"
	dErrors "roundwise/pkg/domain-errors"
	"roundwise/pkg/platform/sentinel"
	"roundwise/pkg/requestcontext"
)

func keyFrom(ctx context.Context, roundID id.RoundID) (sessionKey, error) {
	evaluatorID := requestcontext.EvaluatorID(ctx)
	if evaluatorID == "" {
		return sessionKey{}, dErrors.New(dErrors.CodeUnauthorized, "evaluator identity required")
	}
	return sessionKey{roundID: roundID, evaluatorID: evaluatorID}, nil
}

func (s *Service) liveFor(ctx context.Context, roundID id.RoundID) (sessionKey, *liveSession, error) {
	key, err := keyFrom(ctx, roundID)
	if err != nil {
		return key, nil, err
	}
	ls, ok := s.lookup(key)
	if !ok {
		return key, nil, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("no open session for round %s", roundID))
	}
	return key, ls, nil
}

// Open starts or resumes the caller's session for a round. The catalog and any
// prior draft are loaded concurrently; a completed round cannot be opened.
func (s *Service) Open(ctx context.Context, roundID id.RoundID) (result OpenResult, err error) {
	key, err := keyFrom(ctx, roundID)
	if err != nil {
		return OpenResult{}, err
	}
	ctx, span := tracing.Start(ctx, s.tracer, "evaluation.Open",
		tracing.RoundID(int64(roundID)), tracing.EvaluatorID(key.evaluatorID.String()))
	defer func() { tracing.End(span, err) }()

	if ls, ok := s.lookup(key); ok {
		return OpenResult{View: ls.view(), Resumed: true}, nil
	}

	rc, draft, err := s.loadRound(ctx, roundID)
	if err != nil {
		return OpenResult{}, err
	}
	if rc.Meta.Status.IsTerminal() || draft.Status.IsTerminal() {
		return OpenResult{}, dErrors.New(dErrors.CodeAlreadyFinalized, fmt.Sprintf("round %s is already completed", roundID))
	}

	sess, hydration := session.Open(roundID, key.evaluatorID, rc.ItemIDs(), draft.Records,
		session.WithNotes(draft.Notes),
		session.WithClock(s.clock.Now),
	)
	ls := &liveSession{session: sess, round: rc}
	ls.scheduler = autosave.New(sess, s.saver(key),
		autosave.WithClock(s.clock),
		autosave.WithLogger(s.logger),
		autosave.WithMetrics(s.metrics),
	)

	s.mu.Lock()
	if existing, ok := s.live[key]; ok {
		s.mu.Unlock()
		return OpenResult{View: existing.view(), Resumed: true}, nil
	}
	// Autosaves outlive the request; they must not inherit its clock or span.
	saveCtx := requestcontext.WithEvaluatorID(context.Background(), key.evaluatorID)
	if err := ls.scheduler.Start(saveCtx, s.autosaveInterval); err != nil {
		s.mu.Unlock()
		return OpenResult{}, err
	}
	s.live[key] = ls
	s.mu.Unlock()

	if len(hydration.Ignored) > 0 {
		if s.metrics != nil {
			s.metrics.AddHydrationIgnored(len(hydration.Ignored))
		}
		if s.logger != nil {
			s.logger.DebugContext(ctx, "prior draft records ignored, items no longer in round",
				"round_id", roundID,
				"item_ids", hydration.Ignored,
			)
		}
	}
	if s.metrics != nil {
		s.metrics.IncSessionsOpened()
	}
	s.logAudit(ctx, eventSessionOpened,
		"round_id", roundID,
		"evaluator_id", key.evaluatorID,
		"items", len(sess.ItemIDs()),
		"hydrated", hydration.Applied,
	)

	return OpenResult{
		View:     ls.view(),
		Applied:  hydration.Applied,
		Ignored:  hydration.Ignored,
		Degraded: rc.Degraded,
	}, nil
}

// loadRound fetches the catalog view and the stored draft in parallel. A round
// without a stored draft yields an empty draft.
func (s *Service) loadRound(ctx context.Context, roundID id.RoundID) (*catalog.RoundCatalog, models.Draft, error) {
	var (
		rc    *catalog.RoundCatalog
		draft models.Draft
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rc, err = s.catalog.Load(gctx, roundID)
		return err
	})
	g.Go(func() error {
		d, err := s.drafts.LoadDraft(gctx, roundID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil
			}
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to load draft")
		}
		draft = d
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, models.Draft{}, err
	}
	return rc, draft, nil
}

// saver binds the draft store to one session key. Each call gets its own
// timeout; the scheduler itself imposes none.
func (s *Service) saver(key sessionKey) autosave.Saver {
	return func(ctx context.Context, snap models.Snapshot) (models.SaveResult, error) {
		ctx, cancel := context.WithTimeout(ctx, s.saveTimeout)
		defer cancel()

		completion, err := s.drafts.SaveDraft(ctx, key.roundID, key.evaluatorID, snap)
		if err != nil {
			return models.SaveResult{}, err
		}
		return models.SaveResult{CompletionPercentage: completion, SavedAt: s.clock.Now()}, nil
	}
}

// Get returns the caller's live session.
func (s *Service) Get(ctx context.Context, roundID id.RoundID) (View, error) {
	_, ls, err := s.liveFor(ctx, roundID)
	if err != nil {
		return View{}, err
	}
	return ls.view(), nil
}

func (s *Service) SetStatus(ctx context.Context, roundID id.RoundID, itemID id.ItemID, status models.Status) (View, error) {
	_, ls, err := s.liveFor(ctx, roundID)
	if err != nil {
		return View{}, err
	}
	if err := ls.session.SetStatus(itemID, status); err != nil {
		return View{}, err
	}
	return ls.view(), nil
}

func (s *Service) SetComment(ctx context.Context, roundID id.RoundID, itemID id.ItemID, comment string) (View, error) {
	_, ls, err := s.liveFor(ctx, roundID)
	if err != nil {
		return View{}, err
	}
	if err := ls.session.SetComment(itemID, comment); err != nil {
		return View{}, err
	}
	return ls.view(), nil
}

func (s *Service) SetNotes(ctx context.Context, roundID id.RoundID, notes string) (View, error) {
	_, ls, err := s.liveFor(ctx, roundID)
	if err != nil {
		return View{}, err
	}
	if err := ls.session.SetNotes(notes); err != nil {
		return View{}, err
	}
	return ls.view(), nil
}

// SaveNow persists the current snapshot immediately. It fails with
// CodeConflict while an autosave is outstanding.
func (s *Service) SaveNow(ctx context.Context, roundID id.RoundID) (result models.SaveResult, err error) {
	key, ls, err := s.liveFor(ctx, roundID)
	if err != nil {
		return models.SaveResult{}, err
	}
	ctx, span := tracing.Start(ctx, s.tracer, "evaluation.SaveNow",
		tracing.RoundID(int64(roundID)), tracing.EvaluatorID(key.evaluatorID.String()))
	defer func() { tracing.End(span, err) }()

	if ls.session.Status().IsTerminal() {
		return models.SaveResult{}, dErrors.New(dErrors.CodeInvalidState, "round evaluation is already completed")
	}
	return ls.scheduler.SaveNow(ctx)
}

// Close stops autosave and discards the session without a final save.
func (s *Service) Close(ctx context.Context, roundID id.RoundID) error {
	key, ls, err := s.liveFor(ctx, roundID)
	if err != nil {
		return err
	}
	ls.scheduler.Stop()
	if s.discard(key, ls) {
		s.logAudit(ctx, eventSessionClosed,
			"round_id", roundID,
			"evaluator_id", key.evaluatorID,
			"dirty", ls.session.Dirty(),
		)
	}
	return nil
}
