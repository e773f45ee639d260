package layout

import (
	"fmt"
	"math"

	"github.com/san-kum/stepviz/internal/animation"
	"github.com/san-kum/stepviz/internal/step"
)

const top = margin + 6

func bars(st step.State) []animation.Primitive {
	values := numbers(st["array"])
	n := len(values)
	if n == 0 {
		return nil
	}
	hi := 1.0
	for _, v := range values {
		hi = math.Max(hi, math.Abs(v))
	}

	sorted := intSet(st["sorted"])
	comparing := intSet(st["comparing"])
	swapped := intSet(st["swapped"])
	active := intSet(st["mid"])
	for _, k := range []string{"i", "j", "pivotIdx", "result"} {
		for idx := range intSet(st[k]) {
			active[idx] = true
		}
	}
	low, hasLow := number(st["low"])
	high, hasHigh := number(st["high"])

	slot := (Width - 2*margin) / float64(n)
	base := Height - margin
	span := base - top - 4
	ps := make([]animation.Primitive, 0, n)
	for i, v := range values {
		h := math.Max(span*math.Abs(v)/hi, 0.5)
		p := animation.Primitive{
			ID:      fmt.Sprintf("bar-%d", i),
			Kind:    "bar",
			Shape:   animation.ShapeRect,
			X:       margin + float64(i)*slot + slot*0.1,
			Y:       base - h,
			Width:   slot * 0.8,
			Height:  h,
			Opacity: 1,
			Fill:    ColorDefault,
			Label:   fmtNum(v),
		}
		switch {
		case swapped[i]:
			p.Fill = ColorSwap
		case comparing[i]:
			p.Fill = ColorCompare
		case active[i]:
			p.Fill = ColorActive
		case sorted[i]:
			p.Fill = ColorDone
		}
		if hasLow && hasHigh && (float64(i) < low || float64(i) > high) {
			p.Opacity = 0.35
		}
		ps = append(ps, p)
	}
	return ps
}

type point struct{ x, y float64 }

func graph(st step.State) []animation.Primitive {
	pos := make(map[string]point)
	var ids []string
	for _, raw := range list(st["nodes"]) {
		n, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		id, _ := n["id"].(string)
		x, _ := number(n["x"])
		y, _ := number(n["y"])
		pos[id] = point{margin + x*(Width-2*margin), top + y*(Height-top-margin)}
		ids = append(ids, id)
	}

	path := stringSet(st["path"])
	visited := stringSet(st["visited"])
	frontier := stringSet(st["queue"])
	for id := range stringSet(st["stack"]) {
		frontier[id] = true
	}
	current, _ := st["current"].(string)

	var ps []animation.Primitive
	for _, raw := range list(st["edges"]) {
		e, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		from, _ := e["from"].(string)
		to, _ := e["to"].(string)
		a, okA := pos[from]
		b, okB := pos[to]
		if !okA || !okB {
			continue
		}
		p := animation.Primitive{
			ID:          "edge-" + from + "-" + to,
			Kind:        "edge",
			Shape:       animation.ShapeLine,
			X:           a.x,
			Y:           a.y,
			Width:       b.x - a.x,
			Height:      b.y - a.y,
			Opacity:     1,
			StrokeWidth: 0.5,
			Stroke:      ColorEdge,
		}
		if w, ok := number(e["weight"]); ok {
			p.Label = fmtNum(w)
		}
		if path[from] && path[to] {
			p.Stroke, p.StrokeWidth = ColorDone, 1
		}
		ps = append(ps, p)
	}

	const r = 3.0
	for _, id := range ids {
		c := pos[id]
		p := animation.Primitive{
			ID:      "node-" + id,
			Kind:    "node",
			Shape:   animation.ShapeCircle,
			X:       c.x - r,
			Y:       c.y - r,
			Width:   2 * r,
			Height:  2 * r,
			Opacity: 1,
			Fill:    ColorDefault,
			Stroke:  ColorText,
			Label:   id,
			Z:       1,
		}
		switch {
		case path[id]:
			p.Fill = ColorDone
		case id == current:
			p.Fill = ColorActive
		case frontier[id]:
			p.Fill = ColorFrontier
		case visited[id]:
			p.Fill = ColorVisited
		}
		ps = append(ps, p)
	}
	return ps
}

// heatmap lays matrix m out as a grid of cells inside the given box, with
// fills scaled between the smallest and largest value.
func heatmap(key string, m [][]float64, x, y, w, h float64) []animation.Primitive {
	rows, cols := len(m), len(m[0])
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, row := range m {
		for _, v := range row {
			lo, hi = math.Min(lo, v), math.Max(hi, v)
		}
	}
	cw, ch := w/float64(cols), h/float64(rows)
	ps := make([]animation.Primitive, 0, rows*cols)
	for r, row := range m {
		for c, v := range row {
			t := 0.5
			if hi > lo {
				t = (v - lo) / (hi - lo)
			}
			ps = append(ps, animation.Primitive{
				ID:      fmt.Sprintf("%s-%d-%d", key, r, c),
				Kind:    "cell",
				Shape:   animation.ShapeRect,
				X:       x + float64(c)*cw,
				Y:       y + float64(r)*ch,
				Width:   cw * 0.95,
				Height:  ch * 0.95,
				Opacity: 1,
				Fill:    shade(t),
				Label:   fmtNum(v),
			})
		}
	}
	return ps
}

// shade maps t in [0, 1] from a dark cell color to the active color.
func shade(t float64) string {
	lo := [3]float64{0x28, 0x2c, 0x34}
	hi := [3]float64{0xe5, 0xc0, 0x7b}
	var c [3]int
	for i := range c {
		c[i] = int(lo[i] + (hi[i]-lo[i])*t + 0.5)
	}
	return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
}

func convolution(st step.State) []animation.Primitive {
	in := matrix(st["inputGrid"])
	out := matrix(st["outputGrid"])
	if len(in) == 0 || len(in[0]) == 0 {
		return nil
	}
	half := (Width - 3*margin) / 2
	box := Height - top - margin
	ps := heatmap("in", in, margin, top, half, box)
	if len(out) > 0 && len(out[0]) > 0 {
		ps = append(ps, heatmap("out", out, 2*margin+half, top, half, box)...)
	}

	kernel := matrix(st["kernel"])
	r, okR := number(st["currentRow"])
	c, okC := number(st["currentCol"])
	if okR && okC && len(kernel) > 0 {
		cw, ch := half/float64(len(in[0])), box/float64(len(in))
		ps = append(ps, animation.Primitive{
			ID:          "window",
			Kind:        "window",
			Shape:       animation.ShapeRect,
			X:           margin + c*cw,
			Y:           top + r*ch,
			Width:       float64(len(kernel[0])) * cw,
			Height:      float64(len(kernel)) * ch,
			Opacity:     1,
			StrokeWidth: 1,
			Stroke:      ColorSwap,
			Z:           2,
		})
	}
	return ps
}

func trajectory(st step.State) []animation.Primitive {
	var pts []point
	extent := 1.0
	for _, raw := range list(st["trajectory"]) {
		e, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		p := numbers(e["parameters"])
		if len(p) < 2 {
			continue
		}
		pts = append(pts, point{p[0], p[1]})
		extent = math.Max(extent, math.Max(math.Abs(p[0]), math.Abs(p[1])))
	}

	cx, cy := Width/2, top+(Height-top-margin)/2
	scale := (Height - top - margin) / 2 / extent
	ps := []animation.Primitive{{
		ID:      "minimum",
		Kind:    "marker",
		Shape:   animation.ShapeCircle,
		X:       cx - 1,
		Y:       cy - 1,
		Width:   2,
		Height:  2,
		Opacity: 1,
		Fill:    ColorDone,
		Label:   "min",
	}}
	for i, p := range pts {
		size, fill := 1.2, ColorVisited
		if i == len(pts)-1 {
			size, fill = 2.4, ColorActive
		}
		ps = append(ps, animation.Primitive{
			ID:      fmt.Sprintf("pt-%d", i),
			Kind:    "point",
			Shape:   animation.ShapeCircle,
			X:       cx + p.x*scale - size/2,
			Y:       cy - p.y*scale - size/2,
			Width:   size,
			Height:  size,
			Opacity: 1,
			Fill:    fill,
			Z:       1,
		})
	}
	return ps
}

func neuron(st step.State) []animation.Primitive {
	xs := numbers(st["inputs"])
	ws := numbers(st["weights"])
	n := len(xs)
	if n == 0 {
		return nil
	}
	const r = 3.0
	inX, outX := margin+10, Width-margin-16
	outY := top + (Height-top-margin)/2
	gap := (Height - top - margin) / float64(n+1)

	var ps []animation.Primitive
	for i, x := range xs {
		y := top + gap*float64(i+1)
		if i < len(ws) {
			stroke := ColorCompare
			if ws[i] < 0 {
				stroke = ColorSwap
			}
			ps = append(ps, animation.Primitive{
				ID:          fmt.Sprintf("w-%d", i),
				Kind:        "edge",
				Shape:       animation.ShapeLine,
				X:           inX,
				Y:           y,
				Width:       outX - inX,
				Height:      outY - y,
				Opacity:     1,
				StrokeWidth: math.Max(0.3, math.Min(math.Abs(ws[i])*2, 3)),
				Stroke:      stroke,
				Label:       fmtNum(ws[i]),
			})
		}
		ps = append(ps, animation.Primitive{
			ID:      fmt.Sprintf("x-%d", i),
			Kind:    "node",
			Shape:   animation.ShapeCircle,
			X:       inX - r,
			Y:       y - r,
			Width:   2 * r,
			Height:  2 * r,
			Opacity: 1,
			Fill:    ColorFrontier,
			Label:   fmtNum(x),
			Z:       1,
		})
	}

	out := animation.Primitive{
		ID:      "neuron",
		Kind:    "node",
		Shape:   animation.ShapeCircle,
		X:       outX - 2*r,
		Y:       outY - 2*r,
		Width:   4 * r,
		Height:  4 * r,
		Opacity: 1,
		Fill:    ColorDefault,
		Label:   "Σ",
		Z:       1,
	}
	if z, ok := number(st["z"]); ok {
		out.Label, out.Fill = "z="+fmtNum(z), ColorCompare
	}
	if a, ok := number(st["a"]); ok {
		out.Label, out.Fill = fmtNum(a), ColorDone
	}
	return append(ps, out)
}

// tokens draws one chip per token along the row at y.
func tokens(words []string, y float64) []animation.Primitive {
	slot := (Width - 2*margin) / float64(len(words))
	ps := make([]animation.Primitive, len(words))
	for i, w := range words {
		ps[i] = animation.Primitive{
			ID:          fmt.Sprintf("token-%d", i),
			Kind:        "token",
			Shape:       animation.ShapeRect,
			X:           margin + float64(i)*slot + slot*0.05,
			Y:           y,
			Width:       slot * 0.9,
			Height:      5,
			Opacity:     1,
			StrokeWidth: 0.5,
			Fill:        ColorEdge,
			Stroke:      ColorFrontier,
			Label:       w,
		}
	}
	return ps
}

// network draws one column of nodes per layer and an edge per weight.
// Layers that have not been computed yet are drawn dim.
func network(st step.State) []animation.Primitive {
	sizes := numbers(st["layerSizes"])
	if len(sizes) == 0 {
		return nil
	}
	acts := list(st["activations"])
	weights := list(st["weights"])
	const r = 2.5
	colGap := (Width - 2*margin - 2*r) / math.Max(1, float64(len(sizes)-1))
	pos := func(l, j int) point {
		gap := (Height - top - margin) / (sizes[l] + 1)
		return point{margin + r + float64(l)*colGap, top + gap*float64(j+1)}
	}

	var edges, nodes []animation.Primitive
	for l, size := range sizes {
		var values []float64
		if l < len(acts) {
			values = numbers(acts[l])
		}
		var w [][]float64
		if l > 0 && l < len(weights) {
			w = matrix(weights[l])
		}
		for j := 0; j < int(size); j++ {
			p := pos(l, j)
			for i, wji := range rowAt(w, j) {
				q := pos(l-1, i)
				stroke := ColorCompare
				if wji < 0 {
					stroke = ColorSwap
				}
				edges = append(edges, animation.Primitive{
					ID:          fmt.Sprintf("w-%d-%d-%d", l, j, i),
					Kind:        "edge",
					Shape:       animation.ShapeLine,
					X:           q.x,
					Y:           q.y,
					Width:       p.x - q.x,
					Height:      p.y - q.y,
					Opacity:     0.6,
					StrokeWidth: math.Max(0.2, math.Min(math.Abs(wji), 2)),
					Stroke:      stroke,
				})
			}
			n := animation.Primitive{
				ID:      fmt.Sprintf("n-%d-%d", l, j),
				Kind:    "node",
				Shape:   animation.ShapeCircle,
				X:       p.x - r,
				Y:       p.y - r,
				Width:   2 * r,
				Height:  2 * r,
				Opacity: 0.35,
				Fill:    ColorDefault,
				Z:       1,
			}
			if j < len(values) {
				n.Opacity, n.Fill, n.Label = 1, ColorDone, fmtNum(values[j])
				if l == 0 {
					n.Fill = ColorFrontier
				}
			}
			nodes = append(nodes, n)
		}
	}
	return append(edges, nodes...)
}

func rowAt(m [][]float64, j int) []float64 {
	if j < len(m) {
		return m[j]
	}
	return nil
}

// probabilities draws one bar per basis state, highlighting targetStates.
func probabilities(st step.State) []animation.Primitive {
	probs := numbers(st["probabilities"])
	labels := stringList(st["basisLabels"])
	targets := intSet(st["targets"])
	n := len(probs)
	if n == 0 {
		return nil
	}
	slot := (Width - 2*margin) / float64(n)
	base := Height - margin - 4
	span := base - top
	ps := make([]animation.Primitive, 0, n)
	for i, p := range probs {
		h := math.Max(span*p, 0.3)
		bar := animation.Primitive{
			ID:      fmt.Sprintf("prob-%d", i),
			Kind:    "bar",
			Shape:   animation.ShapeRect,
			X:       margin + float64(i)*slot + slot*0.1,
			Y:       base - h,
			Width:   slot * 0.8,
			Height:  h,
			Opacity: 1,
			Fill:    ColorCompare,
			Label:   fmt.Sprintf("%.2f", p),
		}
		if targets[i] {
			bar.Fill = ColorActive
		}
		if i < len(labels) {
			bar.Label = labels[i] + " " + bar.Label
		}
		ps = append(ps, bar)
	}
	return ps
}

// bloch projects the Bloch vector onto the x–z plane inside a unit circle.
func bloch(st step.State) []animation.Primitive {
	x, _ := number(st["blochX"])
	z, _ := number(st["blochZ"])
	cy := top + (Height-top-margin)/2
	cx := Width / 2
	r := (Height - top - margin) / 2
	return []animation.Primitive{
		{
			ID:          "sphere",
			Kind:        "sphere",
			Shape:       animation.ShapeCircle,
			X:           cx - r,
			Y:           cy - r,
			Width:       2 * r,
			Height:      2 * r,
			Opacity:     1,
			StrokeWidth: 0.5,
			Stroke:      ColorEdge,
		},
		{
			ID:          "bloch-vector",
			Kind:        "edge",
			Shape:       animation.ShapeLine,
			X:           cx,
			Y:           cy,
			Width:       x * r,
			Height:      -z * r,
			Opacity:     1,
			StrokeWidth: 1,
			Stroke:      ColorActive,
			Label:       fmt.Sprintf("θ=%.2f φ=%.2f", numberOr(st["theta"]), numberOr(st["phi"])),
			Z:           1,
		},
	}
}

func numberOr(v any) float64 {
	f, _ := number(v)
	return f
}
