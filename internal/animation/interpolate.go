package animation

import (
	"fmt"
	"strconv"
)

// SnapThreshold is the progress at which discrete attributes (label, shape,
// kind, z and non-hex colors) switch to the target value.
const SnapThreshold = 0.5

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func parseHex(c string) ([3]int64, bool) {
	var rgb [3]int64
	if len(c) != 7 || c[0] != '#' {
		return rgb, false
	}
	for i := range rgb {
		v, err := strconv.ParseInt(c[1+2*i:3+2*i], 16, 64)
		if err != nil {
			return rgb, false
		}
		rgb[i] = v
	}
	return rgb, true
}

// lerpColor blends #rrggbb colors per channel and snaps anything else.
func lerpColor(a, b string, t float64) string {
	if a == b {
		return a
	}
	ca, okA := parseHex(a)
	cb, okB := parseHex(b)
	if !okA || !okB {
		if t >= SnapThreshold {
			return b
		}
		return a
	}
	var out [3]int64
	for i := range out {
		out[i] = int64(lerp(float64(ca[i]), float64(cb[i]), t) + 0.5)
	}
	return fmt.Sprintf("#%02x%02x%02x", out[0], out[1], out[2])
}

// blend interpolates a single primitive at eased progress t.
func blend(a, b Primitive, t float64) Primitive {
	out := a
	if t >= SnapThreshold {
		out.Kind, out.Shape, out.Label, out.Z = b.Kind, b.Shape, b.Label, b.Z
	}
	out.ID = b.ID
	out.X = lerp(a.X, b.X, t)
	out.Y = lerp(a.Y, b.Y, t)
	out.Width = lerp(a.Width, b.Width, t)
	out.Height = lerp(a.Height, b.Height, t)
	out.Rotation = lerp(a.Rotation, b.Rotation, t)
	out.Opacity = lerp(a.Opacity, b.Opacity, t)
	out.StrokeWidth = lerp(a.StrokeWidth, b.StrokeWidth, t)
	out.Fill = lerpColor(a.Fill, b.Fill, t)
	out.Stroke = lerpColor(a.Stroke, b.Stroke, t)
	return out
}

func collapsed(p Primitive) Primitive {
	p.Width, p.Height, p.Opacity = 0, 0, 0
	return p
}

// Interpolate returns the frame between from and to at eased progress t.
// Primitives are matched by id. New ones grow from nothing, and removed ones
// shrink away after the target's primitives. At t >= 1 the result is to.
func Interpolate(from, to Scene, t float64) Scene {
	if t >= 1 {
		return to.Clone()
	}
	prev := make(map[string]Primitive, len(from.Primitives))
	for _, p := range from.Primitives {
		prev[p.ID] = p
	}
	inTarget := make(map[string]bool, len(to.Primitives))

	out := make([]Primitive, 0, len(from.Primitives)+len(to.Primitives))
	for _, b := range to.Primitives {
		inTarget[b.ID] = true
		a, ok := prev[b.ID]
		if !ok {
			a = collapsed(b)
		}
		out = append(out, blend(a, b, t))
	}
	for _, a := range from.Primitives {
		if !inTarget[a.ID] {
			out = append(out, blend(a, collapsed(a), t))
		}
	}
	return Scene{Primitives: out}
}
