package viz

import (
	"errors"
	"image/gif"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"
	"github.com/san-kum/stepviz/internal/animation"
	"github.com/san-kum/stepviz/internal/layout"
	"github.com/san-kum/stepviz/internal/playback"
	"github.com/san-kum/stepviz/internal/step"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func sequence() step.Sequence {
	b := step.NewBuilder()
	b.Add(step.Step{ID: "start", Title: "Start", Explanation: "three values", State: step.State{"array": []int{3, 1, 2}}})
	b.Add(step.Step{ID: "swap", Title: "Swap", Explanation: "swap the first two", State: step.State{"array": []int{1, 3, 2}, "swapped": []int{0, 1}}})
	b.Add(step.Step{ID: "done", Title: "Done", Explanation: "sorted", State: step.State{"array": []int{1, 2, 3}}, IsTerminal: true})
	return b.Sequence()
}

func key(s string) tea.KeyMsg {
	switch s {
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newPlayer(t *testing.T, opts Options) (Player, *playback.ManualTimer) {
	t.Helper()
	timer := &playback.ManualTimer{}
	opts.Timer = timer
	opts.Clock = func() time.Time { return t0 }
	p, err := NewPlayer(sequence(), opts)
	if err != nil {
		t.Fatalf("NewPlayer() error = %v", err)
	}
	p.Init()
	t.Cleanup(p.Close)
	return p, timer
}

func send(p Player, msgs ...tea.Msg) (Player, tea.Cmd) {
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = p.Update(msg)
		p = next.(Player)
	}
	return p, cmd
}

// instant disables easing so every step change lands in one frame.
var instant = animation.Config{Easing: animation.Linear}

func TestCanvasSetAndText(t *testing.T) {
	c := NewCanvas(4, 2)
	c.Set(0, 0, "#ffffff")
	c.Set(1, 3, "#ffffff")
	if got, want := c.Grid[0][0], rune(0x2800|0x1|0x80); got != want {
		t.Errorf("Grid[0][0] = %U, want %U", got, want)
	}
	if !c.Lit(1, 3) || c.Lit(1, 2) {
		t.Errorf("Lit() wrong after Set")
	}
	c.Unset(1, 3)
	if c.Lit(1, 3) {
		t.Errorf("Lit(1, 3) after Unset = true")
	}

	c.Text(1, 1, "hello", "#abb2bf")
	if got := string(c.Grid[1]); got != "⠀hel" {
		t.Errorf("row 1 = %q, want %q", got, "⠀hel")
	}
	c.Set(2, 4, "#000000")
	if c.Grid[1][1] != 'h' || c.Colors[1][1] != "#abb2bf" {
		t.Errorf("dot overwrote text cell: %q %s", c.Grid[1][1], c.Colors[1][1])
	}

	c.Clear()
	if strings.Trim(c.String(), "⠀\n") != "" {
		t.Errorf("Clear() left %q", c.String())
	}
}

func TestCanvasShapes(t *testing.T) {
	c := NewCanvas(10, 5)
	c.FillRect(0, 0, 19, 19, "#e5c07b")
	for row := range c.Grid {
		for col, r := range c.Grid[row] {
			if r != 0x28ff {
				t.Fatalf("cell (%d, %d) = %U, want full", col, row, r)
			}
		}
	}

	c.Clear()
	c.Circle(10, 10, 3, "#61afef")
	if !c.Lit(10, 10) || !c.Lit(13, 10) || c.Lit(13, 13) {
		t.Errorf("Circle() lit the wrong pixels")
	}

	c.Clear()
	c.DrawLine(0, 0, 19, 19, "")
	for i := 0; i < 20; i++ {
		if !c.Lit(i, i) {
			t.Errorf("diagonal pixel %d not lit", i)
		}
	}
}

func TestDrawScene(t *testing.T) {
	c := NewCanvas(50, 15)
	DrawScene(c, animation.Scene{Primitives: []animation.Primitive{
		{ID: "bg", Shape: animation.ShapeRect, Width: layout.Width, Height: layout.Height, Opacity: 1, Fill: "#5c6370"},
		{ID: "ghost", Shape: animation.ShapeRect, X: 10, Y: 10, Width: 10, Height: 10, Opacity: 0, Fill: "#e06c75"},
		{ID: "label", Shape: animation.ShapeText, X: 0, Y: 0, Opacity: 1, Label: "hi", Fill: "#abb2bf"},
	}})
	if got := string(c.Grid[0][:2]); got != "hi" {
		t.Errorf("label = %q, want %q", got, "hi")
	}
	for _, row := range c.Grid[1:] {
		for col, r := range row {
			if r != 0x28ff {
				t.Fatalf("col %d = %U, want full background", col, r)
			}
		}
	}
	for _, row := range c.Colors[1:] {
		for _, color := range row {
			if color != "#5c6370" {
				t.Fatalf("color = %s, invisible rect was drawn", color)
			}
		}
	}
}

func TestDrawStepScenes(t *testing.T) {
	c := NewCanvas(canvasCols, canvasRows)
	for _, s := range sequence() {
		DrawScene(c, layout.Scene(s))
		if !strings.Contains(c.String(), s.Title) {
			t.Errorf("step %q: caption missing from canvas", s.ID)
		}
	}
}

func TestNewPlayerRejectsEmpty(t *testing.T) {
	if _, err := NewPlayer(nil, Options{}); !errors.Is(err, ErrEmptySequence) {
		t.Errorf("NewPlayer(nil) error = %v, want ErrEmptySequence", err)
	}
}

func TestPlayerNavigation(t *testing.T) {
	seq := sequence()
	p, _ := newPlayer(t, Options{Animation: instant})

	if diff := cmp.Diff(layout.Scene(seq[0]), p.Scene()); diff != "" {
		t.Errorf("initial scene mismatch (-want +got):\n%s", diff)
	}

	tests := []struct {
		key  string
		want int
	}{
		{"right", 1},
		{"l", 2},
		{"l", 2},
		{"left", 1},
		{"g", 0},
		{"G", 2},
		{"r", 0},
		{"h", 0},
	}
	for _, tt := range tests {
		p, _ = send(p, key(tt.key))
		if got := p.State().Index; got != tt.want {
			t.Fatalf("after %q: Index = %d, want %d", tt.key, got, tt.want)
		}
		if diff := cmp.Diff(layout.Scene(seq[tt.want]), p.Scene()); diff != "" {
			t.Fatalf("after %q: scene mismatch (-want +got):\n%s", tt.key, diff)
		}
	}
}

func TestPlayerAutoAdvance(t *testing.T) {
	seq := sequence()
	p, timer := newPlayer(t, Options{Animation: instant})

	p, _ = send(p, key(" "))
	if !p.State().Playing {
		t.Fatalf("Playing = false after space")
	}
	if d, ok := timer.Pending(); !ok || d != time.Second {
		t.Fatalf("Pending() = %v, %v, want 1s armed", d, ok)
	}

	timer.Fire()
	p, cmd := send(p, FrameMsg(t0.Add(time.Second)))
	if cmd == nil {
		t.Errorf("frame did not schedule the next frame")
	}
	if got := p.State().Index; got != 1 {
		t.Fatalf("Index = %d, want 1", got)
	}
	if diff := cmp.Diff(layout.Scene(seq[1]), p.Scene()); diff != "" {
		t.Errorf("scene after fire mismatch (-want +got):\n%s", diff)
	}

	p, _ = send(p, key("s"))
	if got := p.State().Speed.Label; got != "2x" {
		t.Errorf("speed = %s, want 2x", got)
	}
	if d, _ := timer.Pending(); d != 500*time.Millisecond {
		t.Errorf("re-armed delay = %v, want 500ms", d)
	}

	timer.Fire()
	p, _ = send(p, FrameMsg(t0.Add(2*time.Second)))
	if st := p.State(); st.Index != 2 || !st.Playing {
		t.Fatalf("state = %+v, want index 2 playing", st)
	}
	timer.Fire()
	if p.State().Playing {
		t.Errorf("still playing after the last step")
	}
}

func TestPlayerEasesBetweenSteps(t *testing.T) {
	seq := sequence()
	p, _ := newPlayer(t, Options{Animation: animation.Config{
		Duration:      300 * time.Millisecond,
		Easing:        animation.Linear,
		MaxFrameDelta: 100 * time.Millisecond,
	}})

	p, _ = send(p, key("right"))
	target := layout.Scene(seq[1])
	for i := 1; i <= 2; i++ {
		p, _ = send(p, FrameMsg(t0.Add(time.Duration(i)*100*time.Millisecond)))
		if cmp.Equal(target, p.Scene()) {
			t.Fatalf("frame %d already at the target", i)
		}
	}
	p, _ = send(p, FrameMsg(t0.Add(300*time.Millisecond)))
	if diff := cmp.Diff(target, p.Scene()); diff != "" {
		t.Errorf("final frame mismatch (-want +got):\n%s", diff)
	}
}

func TestPlayerQuit(t *testing.T) {
	p, timer := newPlayer(t, Options{Animation: instant})
	p, _ = send(p, key(" "))
	_, cmd := send(p, key("q"))
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Errorf("q command = %T, want tea.QuitMsg", cmd())
	}
	if _, ok := timer.Pending(); ok {
		t.Errorf("timer still armed after quit")
	}
	if p.State().Playing {
		t.Errorf("still playing after quit")
	}
}

func TestPlayerRecording(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.gif")
	p, _ := newPlayer(t, Options{Animation: instant, RecordPath: path})

	p, _ = send(p, key("v"), FrameMsg(t0.Add(16*time.Millisecond)), key("right"), FrameMsg(t0.Add(32*time.Millisecond)), key("v"))
	if !strings.Contains(p.Status(), "saved 2 frames") {
		t.Fatalf("Status() = %q, want saved 2 frames", p.Status())
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open recording: %v", err)
	}
	defer f.Close()
	g, err := gif.DecodeAll(f)
	if err != nil {
		t.Fatalf("DecodeAll() error = %v", err)
	}
	if len(g.Image) != 2 {
		t.Errorf("frames = %d, want 2", len(g.Image))
	}
	if g.Delay[0] != minGIFDelay || g.Delay[1] != lastGIFDelay {
		t.Errorf("delays = %v, want [%d %d]", g.Delay, minGIFDelay, lastGIFDelay)
	}
}

func TestPlayerView(t *testing.T) {
	p, _ := newPlayer(t, Options{Title: "Bubble Sort", Animation: instant})
	v := p.View()
	for _, want := range []string{"BUBBLE SORT", "1/3", "PAUSED", "three values", "1x"} {
		if !strings.Contains(v, want) {
			t.Errorf("View() missing %q", want)
		}
	}

	p, _ = send(p, key("t"), key("?"))
	if got := p.View(); got != helpView {
		t.Errorf("View() with help = %q", got)
	}
}

func TestSeries(t *testing.T) {
	tests := []struct {
		name     string
		state    step.State
		wantName string
		want     []float64
	}{
		{"array", step.State{"array": []any{3, 1.5}}, "array", []float64{3, 1.5}},
		{"trajectory", step.State{"trajectory": []any{map[string]any{"loss": 2.0}, map[string]any{"loss": 1.0}}}, "loss", []float64{2, 1}},
		{"weights", step.State{"queryWeights": []any{0.25, 0.75}}, "queryWeights", []float64{0.25, 0.75}},
		{"non-numeric", step.State{"array": []any{"a"}}, "", nil},
		{"empty", step.State{}, "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, got := series(tt.state)
			if name != tt.wantName || !cmp.Equal(got, tt.want) {
				t.Errorf("series() = %q, %v, want %q, %v", name, got, tt.wantName, tt.want)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	got := wrap("the quick brown fox jumps", 10)
	want := []string{"the quick", "brown fox", "jumps"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("wrap() mismatch (-want +got):\n%s", diff)
	}
}

func TestMenu(t *testing.T) {
	var loaded []string
	load := func(id, preset string) (step.Sequence, error) {
		loaded = append(loaded, id+"/"+preset)
		if preset == "broken" {
			return nil, errors.New("boom")
		}
		return sequence(), nil
	}
	entries := []Entry{
		{ID: "bubble-sort", Name: "Bubble Sort", Category: "sorting", Presets: []string{"default", "broken"}},
		{ID: "bfs", Name: "Breadth-First Search", Category: "graphs", Presets: []string{"default"}},
	}
	var m tea.Model = NewMenu(entries, load, Options{Animation: instant, Timer: &playback.ManualTimer{}})
	press := func(keys ...string) {
		for _, k := range keys {
			m, _ = m.Update(key(k))
		}
	}

	if v := m.View(); !strings.Contains(v, "Bubble Sort") || !strings.Contains(v, "GRAPHS") {
		t.Fatalf("menu view missing entries:\n%s", v)
	}

	press("j", "enter", "esc", "k", "enter", "j", "enter")
	if v := m.View(); !strings.Contains(v, "boom") {
		t.Errorf("preset view missing load error:\n%s", v)
	}

	press("k", "enter")
	if v := m.View(); !strings.Contains(v, "BUBBLE SORT") {
		t.Errorf("player view missing title:\n%s", v)
	}
	press("right")
	if got := m.(Menu).player.State().Index; got != 1 {
		t.Errorf("player Index = %d, want 1", got)
	}

	press("esc")
	if m.(Menu).state != statePresets {
		t.Errorf("esc did not return to presets")
	}
	if want := []string{"bubble-sort/broken", "bubble-sort/default"}; !cmp.Equal(loaded, want) {
		t.Errorf("loaded = %v, want %v", loaded, want)
	}
}
