package layout

import (
	"testing"

	"github.com/san-kum/stepviz/internal/animation"
	"github.com/san-kum/stepviz/internal/registry"
	"github.com/san-kum/stepviz/internal/runner"
	"github.com/san-kum/stepviz/internal/step"
)

func TestEveryStepLaysOut(t *testing.T) {
	reg := registry.New()
	for _, id := range reg.IDs() {
		def, _ := reg.Get(id)
		seq, err := runner.Run(def, nil)
		if err != nil {
			t.Fatalf("%s: Run() error = %v", id, err)
		}
		for i, s := range seq {
			scene := Scene(s)
			if err := scene.Validate(); err != nil {
				t.Errorf("%s step %d: Validate() error = %v", id, i, err)
			}
			if len(scene.Primitives) < 2 {
				t.Errorf("%s step %d (%s): %d primitives, want a picture and a caption", id, i, s.ID, len(scene.Primitives))
			}
		}
	}
}

func TestBarColors(t *testing.T) {
	s := step.Step{
		Title: "compare",
		State: step.State{
			"array":     []any{5, 3, 8, 1},
			"comparing": []any{0, 1},
			"sorted":    []any{3},
		},
	}
	scene := Scene(s)

	tests := []struct {
		id   string
		fill string
	}{
		{"bar-0", ColorCompare},
		{"bar-1", ColorCompare},
		{"bar-2", ColorDefault},
		{"bar-3", ColorDone},
	}
	for _, tt := range tests {
		p, ok := scene.Find(tt.id)
		if !ok {
			t.Fatalf("%s missing", tt.id)
		}
		if p.Fill != tt.fill {
			t.Errorf("%s fill = %s, want %s", tt.id, p.Fill, tt.fill)
		}
	}

	tall, _ := scene.Find("bar-2")
	short, _ := scene.Find("bar-3")
	if tall.Height <= short.Height {
		t.Errorf("bar heights %v <= %v, want taller bar for larger value", tall.Height, short.Height)
	}
	if tall.Label != "8" {
		t.Errorf("label = %q, want %q", tall.Label, "8")
	}
}

func TestBinarySearchDimsOutsideRange(t *testing.T) {
	scene := Scene(step.Step{State: step.State{"array": []any{1, 2, 3, 4}, "low": 2, "high": 3}})
	for id, want := range map[string]float64{"bar-0": 0.35, "bar-1": 0.35, "bar-2": 1, "bar-3": 1} {
		p, _ := scene.Find(id)
		if p.Opacity != want {
			t.Errorf("%s opacity = %v, want %v", id, p.Opacity, want)
		}
	}
}

func TestGraphColors(t *testing.T) {
	st := step.State{
		"nodes": []any{
			map[string]any{"id": "A", "x": 0.0, "y": 0.0},
			map[string]any{"id": "B", "x": 1.0, "y": 0.0},
			map[string]any{"id": "C", "x": 0.5, "y": 1.0},
		},
		"edges": []any{
			map[string]any{"from": "A", "to": "B", "directed": false},
			map[string]any{"from": "B", "to": "C", "directed": false},
		},
		"visited": []any{"A"},
		"queue":   []any{"C"},
		"current": "B",
	}
	scene := Scene(step.Step{State: st})
	if err := scene.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	want := map[string]string{"node-A": ColorVisited, "node-B": ColorActive, "node-C": ColorFrontier}
	for id, fill := range want {
		p, ok := scene.Find(id)
		if !ok {
			t.Fatalf("%s missing", id)
		}
		if p.Fill != fill {
			t.Errorf("%s fill = %s, want %s", id, p.Fill, fill)
		}
	}

	e, ok := scene.Find("edge-A-B")
	if !ok {
		t.Fatal("edge-A-B missing")
	}
	if e.Shape != animation.ShapeLine || e.Width != Width-2*margin || e.Height != 0 {
		t.Errorf("edge-A-B = %+v, want horizontal line across the scene", e)
	}
}

func TestHeatmapShades(t *testing.T) {
	ps := heatmap("m", [][]float64{{0, 1}}, 0, 0, 10, 10)
	if ps[0].Fill != "#282c34" || ps[1].Fill != "#e5c07b" {
		t.Errorf("fills = %s, %s, want dark then bright", ps[0].Fill, ps[1].Fill)
	}
}

func TestNetworkLayout(t *testing.T) {
	s := step.Step{
		Title: "forward",
		State: step.State{
			"layerSizes":  []any{2, 3, 1},
			"activations": []any{[]any{1.0, 0.5}, []any{0.2, 0.4, 0.6}},
			"weights": []any{
				[]any{},
				[]any{[]any{0.1, -0.2}, []any{0.3, 0.4}, []any{-0.5, 0.6}},
				[]any{[]any{0.7, 0.8, -0.9}},
			},
		},
	}
	scene := Scene(s)
	if err := scene.Validate(); err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{"n-0-0", "n-1-2", "n-2-0", "w-1-2-1", "w-2-0-2"} {
		if _, ok := scene.Find(id); !ok {
			t.Errorf("%s missing", id)
		}
	}
	if p, _ := scene.Find("w-1-0-1"); p.Stroke != ColorSwap {
		t.Errorf("negative weight stroke = %s, want %s", p.Stroke, ColorSwap)
	}
	if p, _ := scene.Find("n-1-1"); p.Label != "0.40" || p.Fill != ColorDone {
		t.Errorf("computed node = %q %s", p.Label, p.Fill)
	}
	if p, _ := scene.Find("n-2-0"); p.Label != "" || p.Opacity == 1 {
		t.Errorf("pending output node = %q opacity %v", p.Label, p.Opacity)
	}
}

func TestProbabilityLayout(t *testing.T) {
	s := step.Step{
		Title: "oracle",
		State: step.State{
			"probabilities": []any{0.25, 0.25, 0.25, 0.25},
			"basisLabels":   []any{"|00⟩", "|01⟩", "|10⟩", "|11⟩"},
			"targets":       []any{3},
		},
	}
	scene := Scene(s)
	if len(scene.Primitives) != 5 {
		t.Fatalf("%d primitives, want 4 bars and a caption", len(scene.Primitives))
	}
	p, _ := scene.Find("prob-3")
	if p.Fill != ColorActive || p.Label != "|11⟩ 0.25" {
		t.Errorf("target bar = %q %s", p.Label, p.Fill)
	}
	if p, _ := scene.Find("prob-0"); p.Fill != ColorCompare {
		t.Errorf("other bar fill = %s", p.Fill)
	}
}
