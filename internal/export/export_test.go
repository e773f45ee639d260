package export

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/san-kum/stepviz/internal/algorithms/classical"
	"github.com/san-kum/stepviz/internal/animation"
	"github.com/san-kum/stepviz/internal/layout"
	"github.com/san-kum/stepviz/internal/runner"
	"github.com/san-kum/stepviz/internal/step"
)

func TestSceneToSVG(t *testing.T) {
	scene := animation.Scene{Primitives: []animation.Primitive{
		{ID: "top", Shape: animation.ShapeText, X: 1, Y: 1, Opacity: 1, Fill: "#fff", Label: "a < b", Z: 5},
		{ID: "bar-0", Shape: animation.ShapeRect, X: 10, Y: 20, Width: 5, Height: 10, Opacity: 1, Fill: "#5c6370", Label: "7"},
		{ID: "gone", Shape: animation.ShapeCircle, Width: 4, Height: 4, Opacity: 0},
		{ID: "edge", Shape: animation.ShapeLine, X: 0, Y: 0, Width: 10, Height: 5, Opacity: 1, Stroke: "#3e4451"},
	}}

	svg := SceneToSVG(scene, 100, 60, 2)

	tests := []struct {
		name string
		want string
	}{
		{"header", `width="200" height="120" viewBox="0 0 200 120"`},
		{"rect", `<rect id="bar-0" opacity="1.00" x="20.0" y="40.0" width="10.0" height="20.0" fill="#5c6370"/>`},
		{"line", `x1="0.0" y1="0.0" x2="20.0" y2="10.0" stroke="#3e4451"`},
		{"escaped label", `a &lt; b</text>`},
		{"bar label", `>7</text>`},
	}
	for _, tt := range tests {
		if !strings.Contains(svg, tt.want) {
			t.Errorf("%s: SVG missing %q", tt.name, tt.want)
		}
	}
	if strings.Contains(svg, `id="gone"`) {
		t.Error("transparent primitive was rendered")
	}
	if strings.Index(svg, `id="top"`) < strings.Index(svg, `id="bar-0"`) {
		t.Error("higher Z primitive drawn before lower Z")
	}
	if !strings.HasSuffix(svg, "</svg>") {
		t.Error("SVG not closed")
	}
}

func TestStepSceneToSVG(t *testing.T) {
	seq, err := runner.Run(classical.BubbleSort, nil)
	if err != nil {
		t.Fatal(err)
	}
	svg := SceneToSVG(layout.Scene(seq[0]), layout.Width, layout.Height, 8)
	if !strings.Contains(svg, `id="bar-0"`) || !strings.Contains(svg, `id="caption"`) {
		t.Errorf("SVG of first bubble sort step lacks bars or caption:\n%s", svg)
	}
}

func TestDocumentRoundTrip(t *testing.T) {
	seq, err := runner.Run(classical.BinarySearch, nil)
	if err != nil {
		t.Fatal(err)
	}
	doc := step.NewDocument("binary-search", classical.BinarySearch.Metadata().Defaults, seq, step.GeneratedByGo, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC))

	var buf bytes.Buffer
	if err := WriteDocument(&buf, doc); err != nil {
		t.Fatalf("WriteDocument() error = %v", err)
	}
	if !strings.Contains(buf.String(), "\n  \"formatVersion\": 1,") {
		t.Errorf("document not indented with two spaces:\n%.200s", buf.String())
	}

	back, err := ReadDocument(&buf)
	if err != nil {
		t.Fatalf("ReadDocument() error = %v", err)
	}
	if back.GeneratedAt != "2026-05-01T00:00:00Z" || len(back.Steps) != len(seq) {
		t.Errorf("ReadDocument() = %s with %d steps", back.GeneratedAt, len(back.Steps))
	}
}

func TestReadDocumentRejectsVersion(t *testing.T) {
	_, err := ReadDocument(strings.NewReader(`{"formatVersion": 2, "algorithmId": "x", "steps": []}`))
	if !errors.Is(err, step.ErrFormatVersion) {
		t.Errorf("ReadDocument() error = %v, want ErrFormatVersion", err)
	}
}
