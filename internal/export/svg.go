package export

import (
	"fmt"
	"html"
	"slices"
	"strings"

	"github.com/san-kum/stepviz/internal/animation"
)

const background = "#0a0a0a"

// SceneToSVG renders scene, whose coordinates span width×height scene
// units, as a standalone SVG document. scale converts units to pixels.
func SceneToSVG(scene animation.Scene, width, height, scale float64) string {
	if scale <= 0 {
		scale = 1
	}
	w, h := width*scale, height*scale

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
`, w, h, w, h, background))

	ps := slices.Clone(scene.Primitives)
	slices.SortStableFunc(ps, func(a, b animation.Primitive) int { return a.Z - b.Z })
	for _, p := range ps {
		if p.Opacity <= 0 {
			continue
		}
		writePrimitive(&sb, p, scale)
	}

	sb.WriteString("</svg>")
	return sb.String()
}

func writePrimitive(sb *strings.Builder, p animation.Primitive, scale float64) {
	x, y := p.X*scale, p.Y*scale
	w, h := p.Width*scale, p.Height*scale
	cx, cy := x+w/2, y+h/2

	attrs := fmt.Sprintf(`id="%s" opacity="%.2f"`, html.EscapeString(p.ID), p.Opacity)
	if p.Rotation != 0 {
		attrs += fmt.Sprintf(` transform="rotate(%.1f %.1f %.1f)"`, p.Rotation, cx, cy)
	}
	paint := fmt.Sprintf(`fill="%s"`, orNone(p.Fill))
	if p.Stroke != "" {
		paint += fmt.Sprintf(` stroke="%s" stroke-width="%.1f"`, p.Stroke, max(p.StrokeWidth, 0.5)*scale)
	}

	switch p.Shape {
	case animation.ShapeRect:
		sb.WriteString(fmt.Sprintf(`<rect %s x="%.1f" y="%.1f" width="%.1f" height="%.1f" %s/>`+"\n", attrs, x, y, w, h, paint))
		label(sb, p.Label, cx, cy, min(h, w), scale)
	case animation.ShapeCircle:
		sb.WriteString(fmt.Sprintf(`<circle %s cx="%.1f" cy="%.1f" r="%.1f" %s/>`+"\n", attrs, cx, cy, min(w, h)/2, paint))
		label(sb, p.Label, cx, cy, min(h, w), scale)
	case animation.ShapeLine:
		stroke := p.Stroke
		if stroke == "" {
			stroke = p.Fill
		}
		sb.WriteString(fmt.Sprintf(`<line %s x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s" stroke-width="%.1f"/>`+"\n",
			attrs, x, y, x+w, y+h, orNone(stroke), max(p.StrokeWidth, 0.5)*scale))
		label(sb, p.Label, cx, cy, 3*scale, scale)
	case animation.ShapeText:
		sb.WriteString(fmt.Sprintf(`<text %s x="%.1f" y="%.1f" font-family="monospace" font-size="%.1f" fill="%s">%s</text>`+"\n",
			attrs, x, y+3*scale, 3*scale, orNone(p.Fill), html.EscapeString(p.Label)))
	}
}

// label centers text on a shape when there is room for it.
func label(sb *strings.Builder, text string, cx, cy, room, scale float64) {
	if text == "" || room < 2*scale {
		return
	}
	size := min(room*0.6, 3*scale)
	sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" font-family="monospace" font-size="%.1f" fill="#ffffff" text-anchor="middle" dominant-baseline="central">%s</text>`+"\n",
		cx, cy, size, html.EscapeString(text)))
}

func orNone(color string) string {
	if color == "" {
		return "none"
	}
	return color
}
