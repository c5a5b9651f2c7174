// Package service orchestrates live evaluation sessions: opening a round,
// recording answers, autosaving drafts, finalizing and deriving CAPAs.
package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"roundwise/internal/capa/generate"
	capamodels "roundwise/internal/capa/models"
	"roundwise/internal/evaluation/autosave"
	"roundwise/internal/evaluation/catalog"
	"roundwise/internal/evaluation/metrics"
	"roundwise/internal/evaluation/models"
	"roundwise/internal/evaluation/session"
	"roundwise/internal/platform/tracing"
	id "roundwise/pkg/domain"
)

// DraftStore persists drafts and the final submission of a round.
type DraftStore interface {
	SaveDraft(ctx context.Context, roundID id.RoundID, evaluatorID id.EvaluatorID, snap models.Snapshot) (int, error)
	LoadDraft(ctx context.Context, roundID id.RoundID) (models.Draft, error)
	Finalize(ctx context.Context, roundID id.RoundID, evaluatorID id.EvaluatorID, snap models.FinalizedSnapshot) (models.FinalizedSnapshot, error)
}

type CatalogLoader interface {
	Load(ctx context.Context, roundID id.RoundID) (*catalog.RoundCatalog, error)
}

type EventPublisher interface {
	RoundFinalized(ctx context.Context, evaluatorID id.EvaluatorID, meta models.RoundMeta, snap models.FinalizedSnapshot) error
	CapaDrafted(ctx context.Context, committed []capamodels.Committed) error
}

const (
	defaultAutosaveInterval = 30 * time.Second
	defaultSaveTimeout      = 10 * time.Second
)

type sessionKey struct {
	roundID     id.RoundID
	evaluatorID id.EvaluatorID
}

// liveSession is one open session with its scheduler. pending holds the final
// snapshot between a successful Complete and a successful submission.
type liveSession struct {
	mu        sync.Mutex
	session   *session.Session
	scheduler *autosave.Scheduler
	round     *catalog.RoundCatalog
	pending   *models.FinalizedSnapshot
}

// Service owns the registry of live sessions. At most one session exists per
// (round, evaluator).
type Service struct {
	drafts    DraftStore
	catalog   CatalogLoader
	committer generate.Committer
	events    EventPublisher
	generator *generate.Generator

	threshold        models.Threshold
	autosaveInterval time.Duration
	saveTimeout      time.Duration
	clock            autosave.Clock

	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer

	mu   sync.Mutex
	live map[sessionKey]*liveSession
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithEventPublisher(p EventPublisher) Option {
	return func(s *Service) {
		s.events = p
	}
}

func WithGenerator(g *generate.Generator) Option {
	return func(s *Service) {
		if g != nil {
			s.generator = g
		}
	}
}

// WithThreshold sets the fallback threshold used when neither the request nor
// the CAPA policy names one.
func WithThreshold(t models.Threshold) Option {
	return func(s *Service) {
		s.threshold = t
	}
}

func WithAutosaveInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.autosaveInterval = d
		}
	}
}

// WithSaveTimeout bounds each draft save at the store boundary.
func WithSaveTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.saveTimeout = d
		}
	}
}

// WithClock drives session timestamps and autosave ticks.
func WithClock(c autosave.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

func New(drafts DraftStore, loader CatalogLoader, committer generate.Committer, opts ...Option) *Service {
	s := &Service{
		drafts:           drafts,
		catalog:          loader,
		committer:        committer,
		generator:        generate.New(),
		threshold:        models.DefaultThreshold,
		autosaveInterval: defaultAutosaveInterval,
		saveTimeout:      defaultSaveTimeout,
		clock:            autosave.SystemClock(),
		tracer:           tracing.Tracer("evaluation"),
		live:             make(map[sessionKey]*liveSession),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) lookup(key sessionKey) (*liveSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ls, ok := s.live[key]
	return ls, ok
}

// discard removes ls from the registry if it is still the registered entry.
func (s *Service) discard(key sessionKey, ls *liveSession) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.live[key] != ls {
		return false
	}
	delete(s.live, key)
	if s.metrics != nil {
		s.metrics.DecSessionsOpen()
	}
	return true
}

// LiveSessions returns the number of open sessions.
func (s *Service) LiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}

// Shutdown stops every scheduler and drops all sessions. In-flight saves
// complete on their own.
func (s *Service) Shutdown() {
	s.mu.Lock()
	live := s.live
	s.live = make(map[sessionKey]*liveSession)
	s.mu.Unlock()

	for _, ls := range live {
		ls.scheduler.Stop()
		if s.metrics != nil {
			s.metrics.DecSessionsOpen()
		}
	}
}

// resolveThreshold prefers the request value over the policy file and the
// policy file over the configured default.
func (s *Service) resolveThreshold(requested *int) (models.Threshold, error) {
	if requested != nil {
		return models.ParseThreshold(*requested)
	}
	if p := s.generator.Policy().Threshold; p != nil {
		return models.ParseThreshold(*p)
	}
	return s.threshold, nil
}
