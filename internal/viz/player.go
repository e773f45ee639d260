package viz

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/stepviz/internal/animation"
	"github.com/san-kum/stepviz/internal/layout"
	"github.com/san-kum/stepviz/internal/playback"
	"github.com/san-kum/stepviz/internal/step"
)

const (
	canvasCols = 60
	canvasRows = 20
	panelWidth = 46

	DefaultFrameInterval = time.Second / 60
	DefaultRecordPath    = "stepviz.gif"
)

var ErrEmptySequence = errors.New("viz: sequence has no steps")

// Options configures a Player. Zero values fall back to the playback and
// animation defaults; an Animation with neither Duration nor Easing set
// means animation.DefaultConfig.
type Options struct {
	Title string
	// InitialSpeed indexes Speeds. Without Speeds the controller's default
	// tiers and starting tier are used.
	Speeds        []playback.SpeedTier
	InitialSpeed  int
	Animation     animation.Config
	FrameInterval time.Duration
	Theme         string
	Autoplay      bool
	RecordPath    string

	// Timer drives auto-advance. Nil means playback.RealTimer.
	Timer playback.Timer
	Clock func() time.Time
}

// FrameMsg drives the animation loop once per frame interval.
type FrameMsg time.Time

// session holds the mutable player state shared by every copy of a Player
// value.
type session struct {
	seq    step.Sequence
	ctrl   *playback.Controller
	anim   *animation.Manager
	loop   *animation.Loop
	canvas *Canvas

	// pending is the index most recently committed by the controller, or -1.
	// The controller's timer writes it from its own goroutine.
	pending atomic.Int64

	theme  int
	help   bool
	rec    *recorder
	dirty  bool
	status string
	closed bool
}

// Player is a bubbletea model that plays one step sequence: a playback
// controller chooses the step and an animation manager eases the canvas
// toward its layout.
type Player struct {
	s        *session
	title    string
	interval time.Duration
	record   string
	autoplay bool
}

func NewPlayer(seq step.Sequence, opts Options) (Player, error) {
	if len(seq) == 0 {
		return Player{}, ErrEmptySequence
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = DefaultFrameInterval
	}
	if opts.RecordPath == "" {
		opts.RecordPath = DefaultRecordPath
	}
	if opts.Animation.Duration == 0 && opts.Animation.Easing == nil {
		opts.Animation = animation.DefaultConfig()
	}

	s := &session{
		seq:    seq,
		canvas: NewCanvas(canvasCols, canvasRows),
		theme:  themeIndex(opts.Theme),
	}
	s.pending.Store(-1)
	s.loop = animation.NewLoop(opts.Clock())
	s.anim = animation.NewManager(s.loop, func(animation.Scene) { s.dirty = true }, opts.Animation)
	if err := s.anim.JumpTo(layout.Scene(seq[0])); err != nil {
		return Player{}, fmt.Errorf("viz: step %d: %w", 0, err)
	}

	popts := []playback.Option{
		playback.WithObserver(func(i int) { s.pending.Store(int64(i)) }),
	}
	if len(opts.Speeds) > 0 {
		popts = append(popts, playback.WithSpeeds(opts.Speeds), playback.WithSpeedIndex(opts.InitialSpeed))
	}
	if opts.Timer != nil {
		popts = append(popts, playback.WithTimer(opts.Timer))
	}
	s.ctrl = playback.NewController(len(seq), popts...)

	return Player{
		s:        s,
		title:    opts.Title,
		interval: opts.FrameInterval,
		record:   opts.RecordPath,
		autoplay: opts.Autoplay,
	}, nil
}

func (p Player) nextFrame() tea.Cmd {
	return tea.Tick(p.interval, func(t time.Time) tea.Msg { return FrameMsg(t) })
}

func (p Player) Init() tea.Cmd {
	p.s.ctrl.Start()
	if p.autoplay {
		p.s.ctrl.Play()
	}
	return p.nextFrame()
}

func (p Player) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if cmd := p.handleKey(msg); cmd != nil {
			return p, cmd
		}
		p.sync()
	case tea.WindowSizeMsg:
		cols := max(msg.Width-panelWidth-8, 20)
		rows := max(msg.Height-4, 10)
		p.s.canvas = NewCanvas(cols, rows)
	case FrameMsg:
		now := time.Time(msg)
		p.s.loop.Tick(now)
		p.sync()
		if p.s.rec != nil && p.s.dirty {
			DrawScene(p.s.canvas, p.s.anim.CurrentScene())
			p.s.rec.capture(p.s.canvas, now, p.theme().Ink)
		}
		p.s.dirty = false
		return p, p.nextFrame()
	}
	return p, nil
}

func (p Player) handleKey(msg tea.KeyMsg) tea.Cmd {
	c := p.s.ctrl
	switch msg.String() {
	case "q", "ctrl+c":
		p.Close()
		return tea.Quit
	case " ":
		c.TogglePlay()
	case "right", "l":
		c.StepForward()
	case "left", "h":
		c.StepBackward()
	case "g", "home":
		c.GoToStep(0)
	case "G", "end":
		c.GoToStep(len(p.s.seq) - 1)
	case "r":
		c.Reset()
	case "s":
		c.CycleSpeed()
	case "t":
		p.s.theme = (p.s.theme + 1) % len(Themes)
	case "v":
		p.toggleRecording()
	case "?":
		p.s.help = !p.s.help
	}
	return nil
}

// sync starts a transition to the latest committed step, if any.
func (p Player) sync() {
	i := p.s.pending.Swap(-1)
	if i < 0 || int(i) >= len(p.s.seq) || p.s.closed {
		return
	}
	if err := p.s.anim.TransitionTo(layout.Scene(p.s.seq[i])); err != nil {
		p.s.status = err.Error()
	}
}

func (p Player) toggleRecording() {
	if p.s.rec == nil {
		p.s.rec = &recorder{}
		p.s.dirty = true
		p.s.status = "recording"
		return
	}
	p.finishRecording()
}

func (p Player) finishRecording() {
	rec := p.s.rec
	p.s.rec = nil
	if err := rec.save(p.record); err != nil {
		p.s.status = err.Error()
		return
	}
	p.s.status = fmt.Sprintf("saved %d frames to %s", rec.count(), p.record)
}

// Close stops playback and the animation and writes any recording in
// progress. It is safe to call more than once.
func (p Player) Close() {
	if p.s.closed {
		return
	}
	p.s.closed = true
	p.s.ctrl.Stop()
	p.s.anim.Dispose()
	if p.s.rec != nil {
		p.finishRecording()
	}
}

// State returns the playback state.
func (p Player) State() playback.State { return p.s.ctrl.State() }

// Status is the last message shown under the panel, if any.
func (p Player) Status() string { return p.s.status }

// Scene is the frame currently on screen.
func (p Player) Scene() animation.Scene { return p.s.anim.CurrentScene() }

func (p Player) theme() Theme { return Themes[p.s.theme] }

func (p Player) View() string {
	if p.s.help {
		return helpView
	}
	th := p.theme()
	st := newStyles(th)

	DrawScene(p.s.canvas, p.s.anim.CurrentScene())
	canvasView := st.canvas.Render(p.s.canvas.Render(th.Ink))

	ps := p.s.ctrl.State()
	cur := p.s.seq[ps.Index]
	inner := panelWidth - 6

	var b strings.Builder
	b.WriteString(st.header.Render(strings.ToUpper(p.title)) + "\n")
	b.WriteString(st.label.Render("Step") + st.value.Render(fmt.Sprintf("%d/%d", ps.Index+1, ps.StepCount)) + "\n")
	if cur.Phase != "" {
		b.WriteString(st.label.Render("Phase") + st.value.Render(cur.Phase) + "\n")
	}
	status := st.paused.Render("PAUSED")
	if ps.Playing {
		status = st.playing.Render("PLAYING")
	}
	b.WriteString(st.label.Render("Status") + status + " " + st.muted.Render(ps.Speed.Label) + "\n")
	b.WriteString(ProgressBar(float64(ps.Index+1)/float64(max(ps.StepCount, 1)), inner, st.accent) + "\n")
	b.WriteString(Separator(inner, st.muted) + "\n\n")

	b.WriteString(st.accent.Render(cur.Title) + "\n")
	for _, line := range wrap(cur.Explanation, inner) {
		b.WriteString(st.value.Render(line) + "\n")
	}

	if name, values := series(cur.State); len(values) > 1 {
		chart := asciigraph.Plot(values, asciigraph.Height(4), asciigraph.Width(inner-8), asciigraph.Caption(name))
		b.WriteString(st.graph.Render(chart) + "\n")
	}

	if cur.CodeHighlight != nil && len(cur.CodeHighlight.Lines) > 0 {
		lines := make([]string, len(cur.CodeHighlight.Lines))
		for i, l := range cur.CodeHighlight.Lines {
			lines[i] = fmt.Sprint(l)
		}
		b.WriteString(st.label.Render("Code") + st.value.Render("lines "+strings.Join(lines, ", ")) + "\n")
	}
	if len(cur.VisualActions) > 0 {
		types := make([]string, 0, len(cur.VisualActions))
		for _, a := range cur.VisualActions {
			types = append(types, a.Type)
		}
		b.WriteString(st.label.Render("Actions") + st.value.Render(strings.Join(compact(types), ", ")) + "\n")
	}
	if cur.IsTerminal {
		b.WriteString(st.playing.Render("✓ complete") + "\n")
	}
	if p.s.rec != nil {
		b.WriteString(st.paused.Render(fmt.Sprintf("● REC %d", p.s.rec.count())) + "\n")
	}
	if p.s.status != "" {
		b.WriteString(st.muted.Render(p.s.status) + "\n")
	}
	b.WriteString(st.help.Render("SP:Play ←→:Step g/G:Ends R:Reset\nS:Speed T:Theme V:Record ?:Help Q:Quit"))

	return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, st.panel.Render(b.String()))
}

const helpView = `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Play/Pause               ║
║  → / L    - Next step                ║
║  ← / H    - Previous step            ║
║  g / Home - First step               ║
║  G / End  - Last step                ║
║  R        - Reset to first step      ║
║  S        - Cycle playback speed     ║
║  T        - Cycle themes             ║
║  V        - Start/stop GIF recording ║
║  ?        - Toggle this help         ║
║  Q        - Quit                     ║
╚══════════════════════════════════════╝
`

// series picks a one-dimensional series from the state to plot beside the
// canvas.
func series(st step.State) (string, []float64) {
	if traj, ok := st["trajectory"].([]any); ok {
		var losses []float64
		for _, e := range traj {
			if m, ok := e.(map[string]any); ok {
				if v, ok := m["loss"].(float64); ok {
					losses = append(losses, v)
				}
			}
		}
		return "loss", losses
	}
	for _, key := range []string{"array", "queryWeights", "contextVector", "currentEmbedding"} {
		if v := floats(st[key]); len(v) > 0 {
			return key, v
		}
	}
	return "", nil
}

func floats(v any) []float64 {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]float64, 0, len(raw))
	for _, e := range raw {
		switch n := e.(type) {
		case int:
			out = append(out, float64(n))
		case float64:
			out = append(out, n)
		default:
			return nil
		}
	}
	return out
}

// compact drops repeated values while keeping first-seen order.
func compact(ss []string) []string {
	seen := make(map[string]bool, len(ss))
	out := ss[:0:0]
	for _, s := range ss {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// Play runs a full-screen player over seq until the user quits.
func Play(seq step.Sequence, opts Options) error {
	p, err := NewPlayer(seq, opts)
	if err != nil {
		return err
	}
	defer p.Close()
	_, err = tea.NewProgram(p, tea.WithAltScreen()).Run()
	return err
}
