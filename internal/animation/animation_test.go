package animation

import (
	"errors"
	"sync"
	"testing"
	"time"

	. "github.com/onsi/gomega"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func box(id string, x float64, fill string) Primitive {
	return Primitive{ID: id, Shape: ShapeRect, X: x, Width: 10, Height: 10, Opacity: 1, Fill: fill}
}

func mustScene(t *testing.T, ps ...Primitive) Scene {
	t.Helper()
	s, err := NewScene(ps...)
	if err != nil {
		t.Fatalf("NewScene() error = %v", err)
	}
	return s
}

type frames struct{ got []Scene }

func (f *frames) add(s Scene) { f.got = append(f.got, s) }

func TestNewSceneRejectsBadIDs(t *testing.T) {
	g := NewWithT(t)

	_, err := NewScene(box("a", 0, ""), Primitive{})
	g.Expect(errors.Is(err, ErrMissingID)).To(BeTrue())

	_, err = NewScene(box("a", 0, ""), box("a", 1, ""))
	g.Expect(errors.Is(err, ErrDuplicateID)).To(BeTrue())
	g.Expect(err.Error()).To(ContainSubstring(`"a"`))
}

func TestEasingsFixEndpoints(t *testing.T) {
	g := NewWithT(t)
	for _, name := range EasingNames() {
		e, err := EasingByName(name)
		g.Expect(err).NotTo(HaveOccurred())
		g.Expect(e(0)).To(BeNumerically("~", 0, 1e-12), name)
		g.Expect(e(1)).To(BeNumerically("~", 1, 1e-12), name)
	}
	g.Expect(EasingNames()).To(HaveLen(6))
	_, err := EasingByName("bounce")
	g.Expect(err).To(HaveOccurred())
}

func TestInterpolate(t *testing.T) {
	g := NewWithT(t)
	from := mustScene(t, box("a", 0, "#000000"), box("gone", 5, "#ffffff"))
	to := mustScene(t, box("new", 9, "red"), box("a", 100, "#ff0080"))

	mid := Interpolate(from, to, 0.5)
	g.Expect(mid.Primitives).To(HaveLen(3))
	g.Expect(mid.Primitives[0].ID).To(Equal("new"))
	g.Expect(mid.Primitives[1].ID).To(Equal("a"))
	g.Expect(mid.Primitives[2].ID).To(Equal("gone"))

	g.Expect(mid.Primitives[0].Width).To(BeNumerically("~", 5, 1e-9))
	g.Expect(mid.Primitives[0].Opacity).To(BeNumerically("~", 0.5, 1e-9))
	g.Expect(mid.Primitives[1].X).To(BeNumerically("~", 50, 1e-9))
	g.Expect(mid.Primitives[1].Fill).To(Equal("#800040"))
	g.Expect(mid.Primitives[2].Opacity).To(BeNumerically("~", 0.5, 1e-9))

	g.Expect(Interpolate(from, to, 0.2).Primitives[0].Fill).To(Equal("red"))
	g.Expect(Interpolate(from, to, 1)).To(Equal(to))
}

func TestLabelsSnapAtThreshold(t *testing.T) {
	g := NewWithT(t)
	a := box("a", 0, "")
	a.Label = "3"
	b := a
	b.Label = "7"
	g.Expect(blend(a, b, 0.49).Label).To(Equal("3"))
	g.Expect(blend(a, b, SnapThreshold).Label).To(Equal("7"))
}

func TestJumpToDeliversOneSynchronousFrame(t *testing.T) {
	g := NewWithT(t)
	loop := NewLoop(epoch)
	var f frames
	m := NewManager(loop, f.add, DefaultConfig())

	target := mustScene(t, box("a", 1, ""))
	g.Expect(m.JumpTo(target)).To(Succeed())
	g.Expect(f.got).To(HaveLen(1))
	g.Expect(f.got[0]).To(Equal(target))
	g.Expect(loop.Pending()).To(Equal(0))
	g.Expect(m.CurrentScene()).To(Equal(target))
}

func TestZeroDurationBehavesLikeJump(t *testing.T) {
	g := NewWithT(t)
	loop := NewLoop(epoch)
	var f frames
	m := NewManager(loop, f.add, Config{Duration: 0})

	g.Expect(m.TransitionTo(mustScene(t, box("a", 1, "")))).To(Succeed())
	g.Expect(f.got).To(HaveLen(1))
	g.Expect(loop.Pending()).To(Equal(0))
}

func TestTransitionFrames(t *testing.T) {
	g := NewWithT(t)
	loop := NewLoop(epoch)
	var f frames
	m := NewManager(loop, f.add, Config{Duration: 100 * time.Millisecond, Easing: Linear})

	start := mustScene(t, box("a", 0, ""))
	target := mustScene(t, box("a", 100, ""))
	g.Expect(m.JumpTo(start)).To(Succeed())
	g.Expect(m.TransitionTo(target)).To(Succeed())
	g.Expect(m.Animating()).To(BeTrue())

	for i := 0; i < 20 && loop.Pending() > 0; i++ {
		loop.Advance(16 * time.Millisecond)
	}

	g.Expect(m.Animating()).To(BeFalse())
	g.Expect(f.got[len(f.got)-1]).To(Equal(target))
	g.Expect(f.got[1].Primitives[0].X).To(Equal(0.0))

	intermediate := 0
	prev := -1.0
	for _, s := range f.got[1:] {
		x := s.Primitives[0].X
		g.Expect(x).To(BeNumerically(">=", prev))
		prev = x
		if x > 0 && x < 100 {
			intermediate++
		}
	}
	g.Expect(intermediate).To(BeNumerically(">=", 5))
}

func TestFirstTickNeverCompletes(t *testing.T) {
	g := NewWithT(t)
	loop := NewLoop(epoch)
	var f frames
	m := NewManager(loop, f.add, Config{Duration: 10 * time.Millisecond, Easing: Linear, MaxFrameDelta: time.Second})

	g.Expect(m.JumpTo(mustScene(t, box("a", 0, "")))).To(Succeed())
	g.Expect(m.TransitionTo(mustScene(t, box("a", 100, "")))).To(Succeed())

	loop.Advance(time.Second)
	g.Expect(f.got[len(f.got)-1].Primitives[0].X).To(BeNumerically("~", 50, 1e-9))
	loop.Advance(time.Second)
	g.Expect(f.got[len(f.got)-1].Primitives[0].X).To(Equal(100.0))
	g.Expect(f.got).To(HaveLen(4))
}

func TestMaxFrameDeltaClampsStalls(t *testing.T) {
	g := NewWithT(t)
	loop := NewLoop(epoch)
	var f frames
	m := NewManager(loop, f.add, Config{Duration: time.Second, Easing: Linear, MaxFrameDelta: 100 * time.Millisecond})

	g.Expect(m.JumpTo(mustScene(t, box("a", 0, "")))).To(Succeed())
	g.Expect(m.TransitionTo(mustScene(t, box("a", 100, "")))).To(Succeed())
	loop.Advance(10 * time.Second)
	g.Expect(f.got[len(f.got)-1].Primitives[0].X).To(BeNumerically("~", 10, 1e-9))
}

func TestRetargetStartsFromCurrentFrame(t *testing.T) {
	g := NewWithT(t)
	loop := NewLoop(epoch)
	var f frames
	m := NewManager(loop, f.add, Config{Duration: 100 * time.Millisecond, Easing: Linear})

	g.Expect(m.JumpTo(mustScene(t, box("a", 0, "")))).To(Succeed())
	g.Expect(m.TransitionTo(mustScene(t, box("a", 100, "")))).To(Succeed())
	loop.Advance(50 * time.Millisecond)
	g.Expect(m.TransitionTo(mustScene(t, box("a", 0, "")))).To(Succeed())

	g.Expect(f.got[len(f.got)-1].Primitives[0].X).To(BeNumerically("~", 50, 1e-9))
	g.Expect(loop.Pending()).To(Equal(1))
}

func TestDispose(t *testing.T) {
	g := NewWithT(t)
	loop := NewLoop(epoch)
	var f frames
	m := NewManager(loop, f.add, DefaultConfig())

	g.Expect(m.TransitionTo(mustScene(t, box("a", 100, "")))).To(Succeed())
	n := len(f.got)
	m.Dispose()
	m.Dispose()

	loop.Advance(time.Second)
	g.Expect(f.got).To(HaveLen(n))
	g.Expect(m.JumpTo(Scene{})).To(MatchError(ErrDisposed))
	g.Expect(m.TransitionTo(Scene{})).To(MatchError(ErrDisposed))
}

func TestUpdateConfigAffectsLaterTransitions(t *testing.T) {
	g := NewWithT(t)
	loop := NewLoop(epoch)
	var f frames
	m := NewManager(loop, f.add, Config{Duration: 100 * time.Millisecond, Easing: Linear})

	g.Expect(m.TransitionTo(mustScene(t, box("a", 100, "")))).To(Succeed())
	zero := time.Duration(0)
	m.UpdateConfig(ConfigUpdate{Duration: &zero})

	loop.Advance(50 * time.Millisecond)
	g.Expect(m.Animating()).To(BeTrue())

	g.Expect(m.TransitionTo(mustScene(t, box("a", 0, "")))).To(Succeed())
	g.Expect(m.Animating()).To(BeFalse())
	g.Expect(m.Config().Duration).To(Equal(time.Duration(0)))
}

func TestInvalidSceneLeavesCurrent(t *testing.T) {
	g := NewWithT(t)
	m := NewManager(NewLoop(epoch), nil, DefaultConfig())
	start := mustScene(t, box("a", 1, ""))
	g.Expect(m.JumpTo(start)).To(Succeed())

	err := m.TransitionTo(Scene{Primitives: []Primitive{box("b", 0, ""), box("b", 0, "")}})
	g.Expect(errors.Is(err, ErrDuplicateID)).To(BeTrue())
	g.Expect(m.CurrentScene()).To(Equal(start))
}

func TestTickerRunsInRealTime(t *testing.T) {
	g := NewWithT(t)
	var (
		mu   sync.Mutex
		last Scene
	)
	m := NewManager(NewTicker(120), func(s Scene) {
		mu.Lock()
		defer mu.Unlock()
		last = s
	}, Config{Duration: 30 * time.Millisecond, Easing: EaseOutCubic})
	defer m.Dispose()

	target := mustScene(t, box("a", 100, ""))
	g.Expect(m.TransitionTo(target)).To(Succeed())
	g.Eventually(func() Scene {
		mu.Lock()
		defer mu.Unlock()
		return last
	}).WithTimeout(2 * time.Second).Should(Equal(target))
	g.Expect(m.Animating()).To(BeFalse())
}
