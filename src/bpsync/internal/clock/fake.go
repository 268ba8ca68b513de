package clock

import (
	"sync"
	"time"
)

// Fake is a Clock that only moves when Advance is called.
type Fake struct {
	mu      sync.Mutex
	now     time.Time
	waiters []*waiter
}

type waiter struct {
	fake  *Fake
	until time.Time
	ch    chan time.Time
	fn    func()
}

// NewFake creates a Fake clock starting at the given time.
func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

// Now returns the fake current time.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Sleep blocks until the clock is advanced past the duration.
func (f *Fake) Sleep(duration time.Duration) {
	<-f.After(duration)
}

// After returns a channel that fires once the clock is advanced past the duration.
func (f *Fake) After(duration time.Duration) <-chan time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()

	ch := make(chan time.Time, 1)
	if duration <= 0 {
		ch <- f.now
		return ch
	}
	f.waiters = append(f.waiters, &waiter{fake: f, until: f.now.Add(duration), ch: ch})
	return ch
}

// AfterFunc schedules f for when the clock is advanced past the duration.
// Advance runs due functions itself, in order, and returns once they finish.
func (f *Fake) AfterFunc(duration time.Duration, fn func()) Timer {
	f.mu.Lock()
	defer f.mu.Unlock()

	w := &waiter{fake: f, until: f.now.Add(duration), fn: fn}
	f.waiters = append(f.waiters, w)
	return w
}

// Advance moves the clock forward and fires every elapsed waiter.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	var due []func()
	remaining := f.waiters[:0]
	for _, w := range f.waiters {
		if w.until.After(f.now) {
			remaining = append(remaining, w)
			continue
		}
		if w.fn != nil {
			due = append(due, w.fn)
			continue
		}
		w.ch <- f.now
	}
	f.waiters = remaining
	f.mu.Unlock()

	// Outside the lock, since scheduled functions may use the clock.
	for _, fn := range due {
		fn()
	}
}

// Waiters returns the number of pending After, Sleep, or AfterFunc calls.
func (f *Fake) Waiters() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.waiters)
}

// Stop removes a pending AfterFunc call.
func (w *waiter) Stop() bool {
	f := w.fake
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, other := range f.waiters {
		if other == w {
			f.waiters = append(f.waiters[:i], f.waiters[i+1:]...)
			return true
		}
	}
	return false
}

var _ Clock = (*Fake)(nil)
