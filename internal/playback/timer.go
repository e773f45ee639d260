package playback

import (
	"sync"
	"time"
)

// Timer schedules a one-shot callback. The returned cancel func stops the
// callback if it has not fired yet; calling it more than once is harmless.
type Timer interface {
	AfterFunc(d time.Duration, f func()) (cancel func())
}

// RealTimer runs callbacks on time.AfterFunc goroutines.
type RealTimer struct{}

func (RealTimer) AfterFunc(d time.Duration, f func()) func() {
	t := time.AfterFunc(d, f)
	return func() { t.Stop() }
}

// ManualTimer holds at most one pending callback until Fire is called. It is
// meant for tests and for hosts that drive playback from their own loop.
type ManualTimer struct {
	mu      sync.Mutex
	pending func()
	delay   time.Duration
	armed   int
}

func (m *ManualTimer) AfterFunc(d time.Duration, f func()) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.armed++
	id := m.armed
	m.pending, m.delay = f, d
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.armed == id {
			m.pending = nil
		}
	}
}

// Fire runs the pending callback, if any, and reports whether one ran.
func (m *ManualTimer) Fire() bool {
	m.mu.Lock()
	f := m.pending
	m.pending = nil
	m.mu.Unlock()
	if f == nil {
		return false
	}
	f()
	return true
}

// Pending reports whether a callback is armed and its delay.
func (m *ManualTimer) Pending() (time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.delay, m.pending != nil
}
