package animation

import (
	"sync"
	"time"
)

// FrameFunc receives every rendered frame. It is never called with the
// Manager's lock held.
type FrameFunc func(Scene)

const (
	DefaultDuration      = 300 * time.Millisecond
	DefaultMaxFrameDelta = 100 * time.Millisecond
)

type Config struct {
	Duration time.Duration
	Easing   Easing
	// MaxFrameDelta caps how much time a single tick may account for, so a
	// stalled host does not skip the whole transition.
	MaxFrameDelta time.Duration
}

// ConfigUpdate changes selected fields. Nil fields are left as they are.
type ConfigUpdate struct {
	Duration      *time.Duration
	Easing        Easing
	MaxFrameDelta *time.Duration
}

func DefaultConfig() Config {
	return Config{Duration: DefaultDuration, Easing: EaseInOutCubic, MaxFrameDelta: DefaultMaxFrameDelta}
}

func (c Config) normalized() Config {
	if c.Duration < 0 {
		c.Duration = 0
	}
	if c.Easing == nil {
		c.Easing = EaseInOutCubic
	}
	if c.MaxFrameDelta <= 0 {
		c.MaxFrameDelta = DefaultMaxFrameDelta
	}
	return c
}

// transition is the state of one in-flight TransitionTo.
type transition struct {
	from, to Scene
	duration time.Duration
	easing   Easing
	maxDelta time.Duration
	last     time.Time
	elapsed  time.Duration
	ticks    int
}

type Manager struct {
	mu       sync.Mutex
	sched    Scheduler
	onFrame  FrameFunc
	cfg      Config
	current  Scene
	active   *transition
	gen      uint64
	cancel   CancelFunc
	disposed bool
}

func NewManager(sched Scheduler, onFrame FrameFunc, cfg Config) *Manager {
	if onFrame == nil {
		onFrame = func(Scene) {}
	}
	return &Manager{sched: sched, onFrame: onFrame, cfg: cfg.normalized()}
}

// CurrentScene returns the last delivered frame.
func (m *Manager) CurrentScene() Scene {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current.Clone()
}

// Animating reports whether a transition is in flight.
func (m *Manager) Animating() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active != nil
}

// UpdateConfig applies to later transitions only.
func (m *Manager) UpdateConfig(u ConfigUpdate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.Duration != nil {
		m.cfg.Duration = *u.Duration
	}
	if u.Easing != nil {
		m.cfg.Easing = u.Easing
	}
	if u.MaxFrameDelta != nil {
		m.cfg.MaxFrameDelta = *u.MaxFrameDelta
	}
	m.cfg = m.cfg.normalized()
}

func (m *Manager) Config() Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg
}

// stop cancels the in-flight transition. Callers hold m.mu.
func (m *Manager) stop() {
	m.gen++
	m.active = nil
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

// JumpTo shows scene immediately, delivering exactly one frame before it
// returns.
func (m *Manager) JumpTo(scene Scene) error {
	if err := scene.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	if m.disposed {
		m.mu.Unlock()
		return ErrDisposed
	}
	m.stop()
	m.current = scene.Clone()
	frame, deliver := m.current.Clone(), m.onFrame
	m.mu.Unlock()

	deliver(frame)
	return nil
}

// TransitionTo animates from the current frame to scene. The first frame,
// at progress 0, is delivered before it returns; the rest arrive from the
// scheduler. At least one frame strictly between start and target is
// delivered, and the last frame equals scene.
func (m *Manager) TransitionTo(scene Scene) error {
	if err := scene.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	if m.disposed {
		m.mu.Unlock()
		return ErrDisposed
	}
	if m.cfg.Duration == 0 {
		m.mu.Unlock()
		return m.JumpTo(scene)
	}
	m.stop()
	tr := &transition{
		from:     m.current.Clone(),
		to:       scene.Clone(),
		duration: m.cfg.Duration,
		easing:   m.cfg.Easing,
		maxDelta: m.cfg.MaxFrameDelta,
		last:     m.sched.Now(),
	}
	m.active = tr
	m.current = Interpolate(tr.from, tr.to, 0)
	frame, deliver := m.current.Clone(), m.onFrame
	m.schedule()
	m.mu.Unlock()

	deliver(frame)
	return nil
}

// schedule arms the next tick for the current generation. Callers hold m.mu.
func (m *Manager) schedule() {
	gen := m.gen
	m.cancel = m.sched.Schedule(func(now time.Time) { m.tick(gen, now) })
}

func (m *Manager) tick(gen uint64, now time.Time) {
	m.mu.Lock()
	if m.disposed || gen != m.gen || m.active == nil {
		m.mu.Unlock()
		return
	}
	tr := m.active
	m.cancel = nil

	delta := now.Sub(tr.last)
	delta = min(max(delta, 0), tr.maxDelta)
	tr.last = now
	tr.elapsed += delta
	tr.ticks++

	p := min(float64(tr.elapsed)/float64(tr.duration), 1)
	if tr.ticks == 1 && p >= 1 {
		p = 0.5
	}

	if p >= 1 {
		m.current = tr.to.Clone()
		m.active = nil
	} else {
		m.current = Interpolate(tr.from, tr.to, tr.easing(p))
		m.schedule()
	}
	frame, deliver := m.current.Clone(), m.onFrame
	m.mu.Unlock()

	deliver(frame)
}

// Dispose cancels any pending frame and blocks all future callbacks. It is
// idempotent.
func (m *Manager) Dispose() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disposed {
		return
	}
	m.stop()
	m.disposed = true
}
