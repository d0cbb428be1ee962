package scheduler

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakeTicker struct {
	ch      chan time.Time
	stopped atomic.Bool
}

func newFakeTicker() *fakeTicker {
	return &fakeTicker{ch: make(chan time.Time)}
}

func (f *fakeTicker) C() <-chan time.Time { return f.ch }
func (f *fakeTicker) Stop()               { f.stopped.Store(true) }

func (f *fakeTicker) factory(time.Duration) Ticker { return f }

type MockLocker struct {
	mock.Mock
}

func (m *MockLocker) AcquireLock(ctx context.Context, name string, ttl time.Duration) (string, bool, error) {
	args := m.Called(ctx, name, ttl)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockLocker) ReleaseLock(ctx context.Context, name, token string) error {
	args := m.Called(ctx, name, token)
	return args.Error(0)
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newTestLogger(w *syncBuffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

const waitFor = time.Second

func TestScheduler_SkipsTickWhileRunInFlight(t *testing.T) {
	var logs syncBuffer
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	var runs atomic.Int32

	s := New("scan", time.Minute, func(ctx context.Context) error {
		runs.Add(1)
		started <- struct{}{}
		<-release
		return nil
	}, newTestLogger(&logs))

	ctx := context.Background()
	require.True(t, s.tick(ctx))
	<-started

	assert.False(t, s.tick(ctx))
	assert.Contains(t, logs.String(), "previous run still in flight")

	close(release)
	s.runs.Wait()

	assert.True(t, s.tick(ctx))
	<-started
	s.runs.Wait()
	assert.Equal(t, int32(2), runs.Load())
}

func TestScheduler_RunsOnEachTickAndStops(t *testing.T) {
	var logs syncBuffer
	ticker := newFakeTicker()
	done := make(chan struct{}, 4)

	s := New("scan", time.Minute, func(ctx context.Context) error {
		done <- struct{}{}
		return nil
	}, newTestLogger(&logs), WithTicker(ticker.factory))

	s.Start(context.Background())

	for i := 0; i < 2; i++ {
		ticker.ch <- time.Now()
		select {
		case <-done:
		case <-time.After(waitFor):
			t.Fatalf("run %d did not happen", i+1)
		}
		require.Eventually(t, func() bool { return !s.running.Load() }, waitFor, time.Millisecond)
	}

	s.Stop()
	assert.True(t, ticker.stopped.Load())
	select {
	case <-s.Done():
	default:
		t.Fatal("scheduler not done after Stop")
	}
}

func TestScheduler_StopsOnContextCancel(t *testing.T) {
	var logs syncBuffer
	ticker := newFakeTicker()
	s := New("scan", time.Minute, func(context.Context) error { return nil }, newTestLogger(&logs), WithTicker(ticker.factory))

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	cancel()

	select {
	case <-s.Done():
	case <-time.After(waitFor):
		t.Fatal("scheduler did not stop on context cancel")
	}
	assert.Contains(t, logs.String(), "scheduler stopped")
}

func TestScheduler_StopWaitsForInFlightRun(t *testing.T) {
	var logs syncBuffer
	ticker := newFakeTicker()
	started := make(chan struct{})
	var finished atomic.Bool

	s := New("scan", time.Minute, func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		finished.Store(true)
		return ctx.Err()
	}, newTestLogger(&logs), WithTicker(ticker.factory))

	s.Start(context.Background())
	ticker.ch <- time.Now()
	<-started

	s.Stop()
	assert.True(t, finished.Load())
}

func TestScheduler_JobErrorsAndPanicsAreLogged(t *testing.T) {
	var logs syncBuffer
	var calls atomic.Int32
	s := New("scan", time.Minute, func(context.Context) error {
		if calls.Add(1) == 1 {
			return errors.New("db unavailable")
		}
		panic("nil map")
	}, newTestLogger(&logs))

	ctx := context.Background()
	require.True(t, s.tick(ctx))
	s.runs.Wait()
	require.True(t, s.tick(ctx))
	s.runs.Wait()

	assert.Contains(t, logs.String(), "db unavailable")
	assert.Contains(t, logs.String(), "nil map")
	assert.False(t, s.running.Load())
}

func TestScheduler_Locker(t *testing.T) {
	var logs syncBuffer
	locker := &MockLocker{}
	var runs atomic.Int32
	s := New("reminder-scan", time.Minute, func(context.Context) error {
		runs.Add(1)
		return nil
	}, newTestLogger(&logs), WithLocker(locker, 50*time.Second))

	locker.On("AcquireLock", mock.Anything, "reminder-scan", 50*time.Second).Return("tok", true, nil).Once()
	locker.On("ReleaseLock", mock.Anything, "reminder-scan", "tok").Return(nil).Once()
	locker.On("AcquireLock", mock.Anything, "reminder-scan", 50*time.Second).Return("", false, nil).Once()

	ctx := context.Background()
	s.tick(ctx)
	s.runs.Wait()
	s.tick(ctx)
	s.runs.Wait()

	assert.Equal(t, int32(1), runs.Load())
	locker.AssertExpectations(t)
}

func TestScheduler_DoneBeforeStart(t *testing.T) {
	var logs syncBuffer
	s := New("scan", time.Minute, func(context.Context) error { return nil }, newTestLogger(&logs))

	select {
	case <-s.Done():
	case <-time.After(waitFor):
		t.Fatal("Done blocked on a scheduler that never started")
	}
	s.Stop()
}

func TestScheduler_RestartAfterStop(t *testing.T) {
	var logs syncBuffer
	first, second := newFakeTicker(), newFakeTicker()
	tickers := []*fakeTicker{first, second}
	var runs atomic.Int32
	ran := make(chan struct{}, 2)

	s := New("scan", time.Minute, func(context.Context) error {
		runs.Add(1)
		ran <- struct{}{}
		return nil
	}, newTestLogger(&logs), WithTicker(func(time.Duration) Ticker {
		next := tickers[0]
		tickers = tickers[1:]
		return next
	}))

	s.Start(context.Background())
	s.Start(context.Background())
	first.ch <- time.Now()
	<-ran
	s.Stop()
	assert.True(t, first.stopped.Load())

	s.Start(context.Background())
	second.ch <- time.Now()
	select {
	case <-ran:
	case <-time.After(waitFor):
		t.Fatal("restarted scheduler did not run")
	}
	s.Stop()
	assert.Equal(t, int32(2), runs.Load())
	assert.Empty(t, tickers)
}

func TestScheduler_StartAfterContextEnded(t *testing.T) {
	var logs syncBuffer
	ran := make(chan struct{}, 1)
	ticker := newFakeTicker()
	s := New("scan", time.Minute, func(context.Context) error {
		ran <- struct{}{}
		return nil
	}, newTestLogger(&logs), WithTicker(ticker.factory))

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	cancel()
	<-s.Done()

	s.Start(context.Background())
	ticker.ch <- time.Now()
	select {
	case <-ran:
	case <-time.After(waitFor):
		t.Fatal("scheduler did not start again after its context ended")
	}
	s.Stop()
}
