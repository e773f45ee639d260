package animation

import (
	"slices"
	"sync"
	"time"
)

// TickFunc runs once per scheduled frame with the scheduler's current time.
type TickFunc func(now time.Time)

type CancelFunc func()

// Scheduler supplies the clock and one-shot frame callbacks a Manager runs
// on.
type Scheduler interface {
	Now() time.Time
	Schedule(f TickFunc) CancelFunc
}

// Loop is a host-driven scheduler. Callbacks run only when the host calls
// Tick or Advance, on the host's goroutine.
type Loop struct {
	mu      sync.Mutex
	now     time.Time
	next    uint64
	pending map[uint64]TickFunc
}

func NewLoop(start time.Time) *Loop {
	return &Loop{now: start, pending: make(map[uint64]TickFunc)}
}

func (l *Loop) Now() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.now
}

func (l *Loop) Schedule(f TickFunc) CancelFunc {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := l.next
	l.next++
	l.pending[id] = f
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.pending, id)
	}
}

// Tick moves the clock to now and runs every callback scheduled before the
// call, in scheduling order. Callbacks scheduled while ticking wait for the
// next Tick. It returns the number of callbacks run.
func (l *Loop) Tick(now time.Time) int {
	l.mu.Lock()
	if now.After(l.now) {
		l.now = now
	}
	ids := make([]uint64, 0, len(l.pending))
	for id := range l.pending {
		ids = append(ids, id)
	}
	l.mu.Unlock()

	slices.Sort(ids)
	ran := 0
	for _, id := range ids {
		l.mu.Lock()
		f, ok := l.pending[id]
		delete(l.pending, id)
		t := l.now
		l.mu.Unlock()
		if ok {
			f(t)
			ran++
		}
	}
	return ran
}

// Advance is Tick at Now()+d.
func (l *Loop) Advance(d time.Duration) int {
	return l.Tick(l.Now().Add(d))
}

// Pending reports how many callbacks are waiting.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pending)
}

// Ticker schedules callbacks in real time, one frame interval out.
type Ticker struct {
	interval time.Duration
}

// NewTicker returns a real-time scheduler at fps frames per second. A
// non-positive fps means 60.
func NewTicker(fps int) *Ticker {
	if fps <= 0 {
		fps = 60
	}
	return &Ticker{interval: time.Second / time.Duration(fps)}
}

func (t *Ticker) Now() time.Time { return time.Now() }

func (t *Ticker) Schedule(f TickFunc) CancelFunc {
	timer := time.AfterFunc(t.interval, func() { f(time.Now()) })
	return func() { timer.Stop() }
}
