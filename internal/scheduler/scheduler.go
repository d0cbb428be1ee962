package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/FikranSE/bookingapp/internal/metrics"
)

type Job func(ctx context.Context) error

type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type TickerFactory func(d time.Duration) Ticker

// Locker is a distributed lease so that only one process runs a tick.
type Locker interface {
	AcquireLock(ctx context.Context, name string, ttl time.Duration) (string, bool, error)
	ReleaseLock(ctx context.Context, name, token string) error
}

type realTicker struct {
	t *time.Ticker
}

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

func NewRealTicker(d time.Duration) Ticker {
	return realTicker{t: time.NewTicker(d)}
}

type Option func(*Scheduler)

func WithTicker(f TickerFactory) Option {
	return func(s *Scheduler) { s.newTicker = f }
}

func WithLocker(l Locker, ttl time.Duration) Option {
	return func(s *Scheduler) {
		s.locker = l
		s.lockTTL = ttl
	}
}

// Scheduler runs a job every interval. A tick that arrives while the previous
// run is still in flight is skipped.
type Scheduler struct {
	name      string
	interval  time.Duration
	job       Job
	log       *slog.Logger
	newTicker TickerFactory
	locker    Locker
	lockTTL   time.Duration

	running atomic.Bool
	runs    sync.WaitGroup

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func New(name string, interval time.Duration, job Job, log *slog.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		name:      name,
		interval:  interval,
		job:       job,
		log:       log.With("scheduler", name),
		newTicker: NewRealTicker,
		lockTTL:   interval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches the tick loop. It returns immediately; the loop ends when ctx
// is cancelled or Stop is called. Starting a running scheduler does nothing;
// a stopped one starts again.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != nil {
		select {
		case <-s.done:
		default:
			return
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	ticker := s.newTicker(s.interval)
	go s.loop(ctx, ticker, s.done)
}

// Stop ends the loop and waits for an in-flight run to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done

	s.mu.Lock()
	if s.done == done {
		s.cancel, s.done = nil, nil
	}
	s.mu.Unlock()
}

var closedDone = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// Done is closed once the loop and any in-flight run have exited. A scheduler
// that is not running returns an already closed channel.
func (s *Scheduler) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done == nil {
		return closedDone
	}
	return s.done
}

func (s *Scheduler) loop(ctx context.Context, ticker Ticker, done chan struct{}) {
	defer close(done)
	defer s.runs.Wait()
	defer ticker.Stop()

	s.log.Info("scheduler started", "interval", s.interval)
	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return
		case <-ticker.C():
			s.tick(ctx)
		}
	}
}

// tick starts a run unless one is already in flight. It reports whether a run
// was started.
func (s *Scheduler) tick(ctx context.Context) bool {
	if !s.running.CompareAndSwap(false, true) {
		metrics.IncTickSkipped()
		s.log.Warn("tick skipped: previous run still in flight")
		return false
	}

	s.runs.Add(1)
	go func() {
		defer s.runs.Done()
		defer s.running.Store(false)
		s.run(ctx)
	}()
	return true
}

func (s *Scheduler) run(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("job panicked", "panic", fmt.Sprint(r))
		}
	}()

	if s.locker != nil {
		token, ok, err := s.locker.AcquireLock(ctx, s.name, s.lockTTL)
		if err != nil {
			s.log.Error("acquire scheduler lock", "error", err)
			return
		}
		if !ok {
			s.log.Debug("tick skipped: lock held by another worker")
			return
		}
		defer func() {
			if err := s.locker.ReleaseLock(context.WithoutCancel(ctx), s.name, token); err != nil {
				s.log.Warn("release scheduler lock", "error", err)
			}
		}()
	}

	if err := s.job(ctx); err != nil {
		s.log.Error("job failed", "error", err)
	}
}
