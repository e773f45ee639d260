package viz

import (
	"math"
	"slices"

	"github.com/san-kum/stepviz/internal/animation"
	"github.com/san-kum/stepviz/internal/layout"
)

// Primitives fainter than this are not drawn.
const minOpacity = 0.05

// projection maps scene units onto the canvas's sub-pixel grid.
type projection struct {
	sx, sy float64
}

func newProjection(c *Canvas) projection {
	w, h := c.PixelSize()
	return projection{sx: float64(w) / layout.Width, sy: float64(h) / layout.Height}
}

func (p projection) point(x, y float64) (int, int) {
	return int(math.Round(x * p.sx)), int(math.Round(y * p.sy))
}

// cell returns the character cell holding scene point (x, y).
func (p projection) cell(x, y float64) (int, int) {
	px, py := p.point(x, y)
	return px / 2, py / 4
}

// DrawScene clears c and draws s in ascending Z order. Rects fainter than
// half opacity are outlined instead of filled.
func DrawScene(c *Canvas, s animation.Scene) {
	c.Clear()
	proj := newProjection(c)

	ps := slices.Clone(s.Primitives)
	slices.SortStableFunc(ps, func(a, b animation.Primitive) int { return a.Z - b.Z })

	var labels []animation.Primitive
	for _, p := range ps {
		if p.Opacity < minOpacity {
			continue
		}
		switch p.Shape {
		case animation.ShapeRect:
			x0, y0 := proj.point(p.X, p.Y)
			x1, y1 := proj.point(p.X+p.Width, p.Y+p.Height)
			color := ink(p)
			if p.Opacity < 0.5 || p.Fill == "" {
				c.Rect(x0, y0, max(x1-1, x0), max(y1-1, y0), color)
			} else {
				c.FillRect(x0, y0, max(x1-1, x0), max(y1-1, y0), color)
			}
		case animation.ShapeCircle:
			mx, my := p.X+p.Width/2, p.Y+p.Height/2
			cx, cy := proj.point(mx, my)
			r := int(math.Round(min(p.Width, p.Height) / 2 * proj.sx))
			c.Circle(cx, cy, r, ink(p))
			if p.Label != "" {
				labels = append(labels, animation.Primitive{X: mx, Y: my, Label: p.Label, Fill: layout.ColorText})
			}
		case animation.ShapeLine:
			x0, y0 := proj.point(p.X, p.Y)
			x1, y1 := proj.point(p.X+p.Width, p.Y+p.Height)
			c.DrawLine(x0, y0, x1, y1, ink(p))
		case animation.ShapeText:
			labels = append(labels, p)
		}
	}
	// Text goes last so dots never land on top of it.
	for _, p := range labels {
		col, row := proj.cell(p.X, p.Y)
		c.Text(col, row, p.Label, ink(p))
	}
}

func ink(p animation.Primitive) string {
	if p.Shape == animation.ShapeLine && p.Stroke != "" {
		return p.Stroke
	}
	if p.Fill != "" {
		return p.Fill
	}
	if p.Stroke != "" {
		return p.Stroke
	}
	return layout.ColorText
}
