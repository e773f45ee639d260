// Package playback implements the step playback state machine: an index into
// a sequence of known length, an Idle/Playing mode and a speed tier that sets
// the auto-advance delay.
package playback

import (
	"sync"
)

// Observer receives the new index after every committed index change.
type Observer func(index int)

// State is a point-in-time snapshot of a Controller.
type State struct {
	Index      int
	Playing    bool
	Speed      SpeedTier
	SpeedIndex int
	StepCount  int
}

// Last returns the final valid index, or 0 for an empty sequence.
func (s State) Last() int {
	return max(s.StepCount-1, 0)
}

type Controller struct {
	mu       sync.Mutex
	timer    Timer
	observer Observer
	speeds   []SpeedTier
	speed    int
	count    int
	index    int
	playing  bool
	started  bool

	// gen invalidates timer callbacks armed before the last disarm.
	gen    uint64
	cancel func()
}

type Option func(*Controller)

func WithTimer(t Timer) Option {
	return func(c *Controller) { c.timer = t }
}

func WithObserver(o Observer) Option {
	return func(c *Controller) { c.observer = o }
}

// WithInitialIndex starts at i, clamped to the sequence.
func WithInitialIndex(i int) Option {
	return func(c *Controller) { c.index = i }
}

// WithSpeeds replaces the speed cycle. An empty list keeps the defaults.
func WithSpeeds(tiers []SpeedTier) Option {
	return func(c *Controller) {
		if len(tiers) > 0 {
			c.speeds = append([]SpeedTier(nil), tiers...)
		}
	}
}

func WithSpeedIndex(i int) Option {
	return func(c *Controller) { c.speed = i }
}

// NewController returns an Idle controller over stepCount steps. No timer is
// armed until Start.
func NewController(stepCount int, opts ...Option) *Controller {
	c := &Controller{
		timer:  RealTimer{},
		speeds: DefaultSpeeds(),
		speed:  1,
		count:  max(stepCount, 0),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.speed < 0 || c.speed >= len(c.speeds) {
		c.speed = 0
	}
	c.index = c.clamp(c.index)
	return c
}

func (c *Controller) last() int {
	return max(c.count-1, 0)
}

func (c *Controller) clamp(i int) int {
	return min(max(i, 0), c.last())
}

// update runs fn under the lock and notifies the observer, outside the lock,
// if the index changed.
func (c *Controller) update(fn func()) {
	c.mu.Lock()
	before := c.index
	fn()
	after, obs := c.index, c.observer
	c.mu.Unlock()

	if obs != nil && after != before {
		obs(after)
	}
}

func (c *Controller) arm() {
	c.disarm()
	if !c.playing || !c.started {
		return
	}
	gen := c.gen
	c.cancel = c.timer.AfterFunc(c.speeds[c.speed].Delay, func() { c.fire(gen) })
}

func (c *Controller) disarm() {
	c.gen++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Controller) idle() {
	c.playing = false
	c.disarm()
}

func (c *Controller) fire(gen uint64) {
	c.update(func() {
		if gen != c.gen {
			return
		}
		c.cancel = nil
		c.advance()
	})
}

func (c *Controller) advance() {
	if !c.playing {
		return
	}
	if c.index >= c.last() {
		c.idle()
		return
	}
	c.index++
	c.arm()
}

// Start enables the timer. A controller that is already Playing begins
// advancing.
func (c *Controller) Start() {
	c.update(func() {
		if c.started {
			return
		}
		c.started = true
		c.arm()
	})
}

// Stop invalidates any pending timer and forces Idle. The index is kept.
func (c *Controller) Stop() {
	c.update(func() {
		c.started = false
		c.idle()
	})
}

func (c *Controller) GoToStep(i int) {
	c.update(func() {
		c.idle()
		c.index = c.clamp(i)
	})
}

func (c *Controller) StepForward() {
	c.update(func() {
		if c.index < c.last() {
			c.index++
		}
	})
}

func (c *Controller) StepBackward() {
	c.update(func() {
		if c.index > 0 {
			c.index--
		}
	})
}

// Play starts auto-advance, rewinding to the first step when already at the
// last. It is a no-op on an empty sequence.
func (c *Controller) Play() {
	c.update(c.play)
}

func (c *Controller) play() {
	if c.count == 0 {
		return
	}
	if c.index >= c.last() {
		c.index = 0
	}
	c.playing = true
	c.arm()
}

func (c *Controller) Pause() {
	c.update(c.idle)
}

func (c *Controller) TogglePlay() {
	c.update(func() {
		if c.playing {
			c.idle()
		} else {
			c.play()
		}
	})
}

func (c *Controller) Reset() {
	c.update(func() {
		c.idle()
		c.index = 0
	})
}

// CycleSpeed moves to the next speed tier, wrapping around. While playing
// the pending advance is rescheduled at the new delay.
func (c *Controller) CycleSpeed() {
	c.update(func() {
		c.speed = (c.speed + 1) % len(c.speeds)
		if c.playing {
			c.arm()
		}
	})
}

// Tick performs one auto-advance as if the timer had fired.
func (c *Controller) Tick() {
	c.update(c.advance)
}

// SetStepCount swaps in a sequence of length n. A different length forces
// Idle at index 0.
func (c *Controller) SetStepCount(n int) {
	c.update(func() {
		n = max(n, 0)
		if n == c.count {
			return
		}
		c.idle()
		c.count = n
		c.index = 0
	})
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Index:      c.index,
		Playing:    c.playing,
		Speed:      c.speeds[c.speed],
		SpeedIndex: c.speed,
		StepCount:  c.count,
	}
}
