// Package layout turns a step's state into an animation.Scene. Layouts are
// chosen from the shape of the state rather than the algorithm id, so a new
// generator gets a reasonable picture as long as its state uses the common
// keys (array, nodes/edges, matrices, trajectory, layerSizes, probabilities).
package layout

import (
	"fmt"
	"math"

	"github.com/san-kum/stepviz/internal/animation"
	"github.com/san-kum/stepviz/internal/step"
)

// Scene bounds in scene units.
const (
	Width  = 100.0
	Height = 60.0
	margin = 4.0
)

// Palette. Hex values so the animation manager can blend between them.
const (
	ColorDefault  = "#5c6370"
	ColorActive   = "#e5c07b"
	ColorCompare  = "#61afef"
	ColorSwap     = "#e06c75"
	ColorDone     = "#98c379"
	ColorVisited  = "#c678dd"
	ColorFrontier = "#56b6c2"
	ColorText     = "#abb2bf"
	ColorEdge     = "#3e4451"
)

// Scene builds the picture for s.
func Scene(s step.Step) animation.Scene {
	var ps []animation.Primitive
	switch {
	case has(s.State, "nodes") && has(s.State, "edges"):
		ps = graph(s.State)
	case has(s.State, "array"):
		ps = bars(s.State)
	case has(s.State, "inputGrid"):
		ps = convolution(s.State)
	case has(s.State, "trajectory"):
		ps = trajectory(s.State)
	case has(s.State, "layerSizes") && has(s.State, "activations"):
		ps = network(s.State)
	case has(s.State, "probabilities") && has(s.State, "basisLabels"):
		ps = probabilities(s.State)
	case has(s.State, "blochX"):
		ps = bloch(s.State)
	case has(s.State, "weights") && has(s.State, "inputs"):
		ps = neuron(s.State)
	default:
		words := stringList(s.State["tokens"])
		h := Height - top - margin
		if len(words) > 0 {
			h -= 8
			ps = tokens(words, Height-margin-6)
		}
		if key, m := firstMatrix(s.State); m != nil {
			ps = append(heatmap(key, m, margin, top, Width-2*margin, h), ps...)
		}
	}
	ps = append(ps, animation.Primitive{
		ID:      "caption",
		Kind:    "caption",
		Shape:   animation.ShapeText,
		X:       margin,
		Y:       1,
		Opacity: 1,
		Fill:    ColorText,
		Label:   s.Title,
		Z:       10,
	})
	return animation.Scene{Primitives: ps}
}

func has(st step.State, key string) bool {
	v, ok := st[key]
	return ok && v != nil
}

func number(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}

func list(v any) []any {
	l, _ := v.([]any)
	return l
}

func numbers(v any) []float64 {
	l := list(v)
	out := make([]float64, 0, len(l))
	for _, el := range l {
		if f, ok := number(el); ok {
			out = append(out, f)
		}
	}
	return out
}

func stringList(v any) []string {
	l := list(v)
	out := make([]string, 0, len(l))
	for _, el := range l {
		if s, ok := el.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func intSet(v any) map[int]bool {
	set := make(map[int]bool)
	switch x := v.(type) {
	case []any:
		for _, el := range x {
			if f, ok := number(el); ok {
				set[int(f)] = true
			}
		}
	default:
		if f, ok := number(x); ok {
			set[int(f)] = true
		}
	}
	return set
}

func stringSet(v any) map[string]bool {
	set := make(map[string]bool)
	for _, el := range list(v) {
		if s, ok := el.(string); ok {
			set[s] = true
		}
	}
	return set
}

func matrix(v any) [][]float64 {
	rows := list(v)
	if len(rows) == 0 {
		return nil
	}
	out := make([][]float64, 0, len(rows))
	for _, r := range rows {
		cols, ok := r.([]any)
		if !ok {
			return nil
		}
		out = append(out, numbers(cols))
	}
	return out
}

// matrixKeys is the display priority for matrix-shaped state.
var matrixKeys = []string{
	"attentionWeights", "finalOutput", "concat", "headOutput", "output",
	"norm2", "residual2", "ffnOutput", "hidden", "norm1", "residual1",
	"scaledScores", "rawScores", "Q", "K", "V", "embeddings", "X",
}

func firstMatrix(st step.State) (string, [][]float64) {
	for _, k := range matrixKeys {
		if m := matrix(st[k]); m != nil && len(m[0]) > 0 {
			return k, m
		}
	}
	return "", nil
}

func fmtNum(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e6 {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}
