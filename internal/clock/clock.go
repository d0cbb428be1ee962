package clock

import (
	"sync"
	"time"
)

type Clock interface {
	Now() time.Time
}

// Real reads the wall clock in a fixed location.
type Real struct {
	loc *time.Location
}

func New(loc *time.Location) Real {
	if loc == nil {
		loc = time.UTC
	}
	return Real{loc: loc}
}

func (c Real) Now() time.Time {
	return time.Now().In(c.loc)
}

// Fake is a settable clock for tests.
type Fake struct {
	mu  sync.Mutex
	now time.Time
}

func NewFake(now time.Time) *Fake {
	return &Fake{now: now}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fake) Set(now time.Time) {
	f.mu.Lock()
	f.now = now
	f.mu.Unlock()
}

func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}
