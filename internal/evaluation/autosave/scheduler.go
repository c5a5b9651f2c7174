// Package autosave runs the periodic draft persistence cycle for one
// evaluation session.
//
// The scheduler never has more than one save outstanding: a tick that finds a
// save in flight is skipped, not queued. Failures are recorded on the session
// and retried on the next tick; they never stop the cycle.
package autosave

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"roundwise/internal/evaluation/metrics"
	"roundwise/internal/evaluation/models"
	id "roundwise/pkg/domain"
	dErrors "roundwise/pkg/domain-errors"
)

// ErrSaveInFlight is returned by SaveNow while another save is outstanding.
var ErrSaveInFlight = dErrors.New(dErrors.CodeConflict, "a draft save is already in progress")

// Saver persists a full session snapshot. It is the draft endpoint capability.
type Saver func(ctx context.Context, snap models.Snapshot) (models.SaveResult, error)

// Target is the session surface the scheduler reads and reports back to.
type Target interface {
	RoundID() id.RoundID
	VersionedSnapshot() (models.Snapshot, uint64)
	MarkSaved(at time.Time, version uint64)
	MarkSaveFailed(err error)
}

// Stats are cumulative counters for one scheduler.
type Stats struct {
	Dispatched int64
	Skipped    int64
	Succeeded  int64
	Failed     int64
}

// Scheduler drives autosave for a single session.
type Scheduler struct {
	target  Target
	saver   Saver
	clock   Clock
	logger  *slog.Logger
	metrics *metrics.Metrics
	onError func(error)
	onSaved func(models.SaveResult)

	inFlight atomic.Bool

	dispatched atomic.Int64
	skipped    atomic.Int64
	succeeded  atomic.Int64
	failed     atomic.Int64

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}
	baseCtx context.Context
}

// Option configures a Scheduler.
type Option func(*Scheduler)

func WithClock(clock Clock) Option {
	return func(s *Scheduler) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scheduler) {
		s.metrics = m
	}
}

// WithErrorHandler is called after every failed save, for UI display only.
func WithErrorHandler(fn func(error)) Option {
	return func(s *Scheduler) {
		s.onError = fn
	}
}

// WithSaveHook is called after every successful save.
func WithSaveHook(fn func(models.SaveResult)) Option {
	return func(s *Scheduler) {
		s.onSaved = fn
	}
}

// New binds a scheduler to target. It does nothing until Start.
func New(target Target, saver Saver, opts ...Option) *Scheduler {
	s := &Scheduler{
		target: target,
		saver:  saver,
		clock:  realClock{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins the recurring cycle. Saves run on a context derived from ctx
// that keeps its values but not its cancellation; only Stop ends the cycle.
func (s *Scheduler) Start(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return dErrors.New(dErrors.CodeValidation, "autosave interval must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return dErrors.New(dErrors.CodeInvalidState, "autosave already running")
	}

	s.baseCtx = context.WithoutCancel(ctx)
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	s.running = true

	ticker := s.clock.NewTicker(interval)
	go s.loop(ticker, s.stop, s.done)
	return nil
}

func (s *Scheduler) loop(ticker Ticker, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C():
			s.tick()
		}
	}
}

func (s *Scheduler) tick() {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.skipped.Add(1)
		if s.metrics != nil {
			s.metrics.IncAutosaveSkipped()
		}
		if s.logger != nil {
			s.logger.Debug("autosave tick skipped, save in flight",
				"round_id", s.target.RoundID(),
			)
		}
		return
	}

	ctx := s.baseCtx
	go func() {
		defer s.inFlight.Store(false)
		_, _ = s.save(ctx)
	}()
}

// SaveNow runs an out-of-band save, typically for an explicit "save draft"
// action. It honours the in-flight guard and returns ErrSaveInFlight instead
// of waiting.
func (s *Scheduler) SaveNow(ctx context.Context) (models.SaveResult, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		if s.metrics != nil {
			s.metrics.IncAutosaveSkipped()
		}
		s.skipped.Add(1)
		return models.SaveResult{}, ErrSaveInFlight
	}
	defer s.inFlight.Store(false)
	return s.save(ctx)
}

func (s *Scheduler) save(ctx context.Context) (models.SaveResult, error) {
	s.dispatched.Add(1)
	snap, version := s.target.VersionedSnapshot()

	start := time.Now()
	result, err := s.saver(ctx, snap)
	if s.metrics != nil {
		s.metrics.ObserveSave(start, err)
	}

	if err != nil {
		s.failed.Add(1)
		saveErr := dErrors.Wrap(err, dErrors.CodeUnavailable, "draft save failed")
		s.target.MarkSaveFailed(saveErr)
		if s.logger != nil {
			s.logger.WarnContext(ctx, "draft save failed, will retry on next tick",
				"round_id", s.target.RoundID(),
				"error", err,
			)
		}
		if s.onError != nil {
			s.onError(saveErr)
		}
		return models.SaveResult{}, saveErr
	}

	if result.SavedAt.IsZero() {
		result.SavedAt = s.clock.Now()
	}
	s.succeeded.Add(1)
	s.target.MarkSaved(result.SavedAt, version)
	if s.onSaved != nil {
		s.onSaved(result)
	}
	return result, nil
}

// Stop cancels future ticks. It is idempotent, safe before Start, and does not
// cancel a save already in flight.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stop)
	done := s.done
	s.mu.Unlock()

	<-done
}

// Running reports whether the timer is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// InFlight reports whether a save is outstanding.
func (s *Scheduler) InFlight() bool {
	return s.inFlight.Load()
}

func (s *Scheduler) Stats() Stats {
	return Stats{
		Dispatched: s.dispatched.Load(),
		Skipped:    s.skipped.Load(),
		Succeeded:  s.succeeded.Load(),
		Failed:     s.failed.Load(),
	}
}
