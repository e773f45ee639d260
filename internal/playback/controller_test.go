package playback_test

import (
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/stepviz/internal/playback"
)

type recorder struct {
	mu   sync.Mutex
	seen []int
}

func (r *recorder) observe(i int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, i)
}

func (r *recorder) indices() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.seen...)
}

var _ = Describe("Controller", func() {
	var (
		timer *playback.ManualTimer
		rec   *recorder
		c     *playback.Controller
	)

	newController := func(n int, opts ...playback.Option) *playback.Controller {
		opts = append([]playback.Option{playback.WithTimer(timer), playback.WithObserver(rec.observe)}, opts...)
		ctl := playback.NewController(n, opts...)
		ctl.Start()
		return ctl
	}

	BeforeEach(func() {
		timer = &playback.ManualTimer{}
		rec = &recorder{}
		c = newController(5)
	})

	AfterEach(func() {
		c.Stop()
	})

	It("starts idle at the first step at 1x", func() {
		s := c.State()
		Expect(s.Index).To(Equal(0))
		Expect(s.Playing).To(BeFalse())
		Expect(s.StepCount).To(Equal(5))
		Expect(s.Speed.Label).To(Equal("1x"))
		_, armed := timer.Pending()
		Expect(armed).To(BeFalse())
	})

	It("clamps the initial index", func() {
		Expect(newController(3, playback.WithInitialIndex(10)).State().Index).To(Equal(2))
		Expect(newController(3, playback.WithInitialIndex(-4)).State().Index).To(Equal(0))
	})

	Describe("manual stepping", func() {
		It("moves one step at a time and stops at the boundaries", func() {
			c.StepBackward()
			Expect(c.State().Index).To(Equal(0))

			for i := 0; i < 10; i++ {
				c.StepForward()
			}
			Expect(c.State().Index).To(Equal(4))
			Expect(rec.indices()).To(Equal([]int{1, 2, 3, 4}))
		})

		It("clamps GoToStep and goes idle", func() {
			c.Play()
			c.GoToStep(99)
			s := c.State()
			Expect(s.Index).To(Equal(4))
			Expect(s.Playing).To(BeFalse())
			Expect(timer.Fire()).To(BeFalse())

			c.GoToStep(-1)
			Expect(c.State().Index).To(Equal(0))
		})

		It("does not notify when the index is unchanged", func() {
			c.GoToStep(0)
			c.Reset()
			Expect(rec.indices()).To(BeEmpty())
		})
	})

	Describe("auto-advance", func() {
		It("advances on each timer fire and goes idle at the last step", func() {
			c.Play()
			for timer.Fire() {
			}
			s := c.State()
			Expect(s.Index).To(Equal(4))
			Expect(s.Playing).To(BeFalse())
			Expect(rec.indices()).To(Equal([]int{1, 2, 3, 4}))
		})

		It("rewinds to the first step when played at the last", func() {
			c.GoToStep(4)
			c.Play()
			s := c.State()
			Expect(s.Index).To(Equal(0))
			Expect(s.Playing).To(BeTrue())
		})

		It("ignores Tick while idle", func() {
			c.Tick()
			Expect(c.State().Index).To(Equal(0))
		})

		It("stops at the last step on Tick", func() {
			c.GoToStep(3)
			c.Play()
			c.Tick()
			Expect(c.State().Index).To(Equal(4))
			c.Tick()
			s := c.State()
			Expect(s.Index).To(Equal(4))
			Expect(s.Playing).To(BeFalse())
		})

		It("never advances from a stale timer", func() {
			c.Play()
			c.Pause()
			Expect(timer.Fire()).To(BeFalse())
			Expect(c.State().Index).To(Equal(0))
		})

		It("toggles between play and pause", func() {
			c.TogglePlay()
			Expect(c.State().Playing).To(BeTrue())
			c.TogglePlay()
			Expect(c.State().Playing).To(BeFalse())
		})
	})

	Describe("speed", func() {
		It("cycles through the tiers and re-arms while playing", func() {
			c.Play()
			d, armed := timer.Pending()
			Expect(armed).To(BeTrue())
			Expect(d).To(Equal(time.Second))

			c.CycleSpeed()
			d, _ = timer.Pending()
			Expect(d).To(Equal(500 * time.Millisecond))
			Expect(c.State().Speed.Label).To(Equal("2x"))

			c.CycleSpeed()
			c.CycleSpeed()
			Expect(c.State().Speed.Label).To(Equal("0.5x"))
			d, _ = timer.Pending()
			Expect(d).To(Equal(2 * time.Second))
		})

		It("derives delays from the base delay", func() {
			tiers, err := playback.Tiers(200*time.Millisecond, 1, 4)
			Expect(err).NotTo(HaveOccurred())
			Expect(tiers[1].Delay).To(Equal(50 * time.Millisecond))

			_, err = playback.Tiers(time.Second, 0)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("lifecycle", func() {
		It("arms nothing before Start", func() {
			ctl := playback.NewController(3, playback.WithTimer(timer))
			ctl.Play()
			_, armed := timer.Pending()
			Expect(armed).To(BeFalse())

			ctl.Start()
			_, armed = timer.Pending()
			Expect(armed).To(BeTrue())
			ctl.Stop()
		})

		It("goes idle and disarms on Stop", func() {
			c.Play()
			c.Stop()
			Expect(c.State().Playing).To(BeFalse())
			Expect(timer.Fire()).To(BeFalse())
		})

		It("resets when the step count changes", func() {
			c.GoToStep(3)
			c.Play()
			c.SetStepCount(8)
			s := c.State()
			Expect(s.Index).To(Equal(0))
			Expect(s.Playing).To(BeFalse())
			Expect(s.StepCount).To(Equal(8))

			c.GoToStep(2)
			c.SetStepCount(8)
			Expect(c.State().Index).To(Equal(2))
		})

		It("stays inert on an empty sequence", func() {
			c.SetStepCount(0)
			c.Play()
			c.StepForward()
			s := c.State()
			Expect(s.Playing).To(BeFalse())
			Expect(s.Index).To(Equal(0))
		})
	})

	It("advances with a real timer", func() {
		tiers, err := playback.Tiers(5*time.Millisecond, 1)
		Expect(err).NotTo(HaveOccurred())
		ctl := playback.NewController(3, playback.WithSpeeds(tiers), playback.WithSpeedIndex(0))
		ctl.Start()
		defer ctl.Stop()

		ctl.Play()
		Eventually(func() int { return ctl.State().Index }).Should(Equal(2))
		Eventually(func() bool { return ctl.State().Playing }).Should(BeFalse())
	})
})
