// Package animation interpolates between rendered scenes. A Manager owns the
// scene currently on screen and eases every primitive toward a new target
// over a fixed duration, delivering frames through a callback.
package animation

import (
	"errors"
	"fmt"
)

var (
	ErrMissingID   = errors.New("animation: primitive without id")
	ErrDuplicateID = errors.New("animation: duplicate primitive id")
	ErrDisposed    = errors.New("animation: manager disposed")
)

// Primitive is one drawable element. Geometry is in scene units; the
// renderer decides how they map to pixels or terminal cells.
type Primitive struct {
	ID          string  `json:"id"`
	Kind        string  `json:"kind,omitempty"`
	Shape       string  `json:"shape"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	Rotation    float64 `json:"rotation,omitempty"`
	Opacity     float64 `json:"opacity"`
	StrokeWidth float64 `json:"strokeWidth,omitempty"`
	Fill        string  `json:"fill,omitempty"`
	Stroke      string  `json:"stroke,omitempty"`
	Label       string  `json:"label,omitempty"`
	Z           int     `json:"z,omitempty"`
}

// Shapes understood by the renderers.
const (
	ShapeRect   = "rect"
	ShapeCircle = "circle"
	ShapeLine   = "line"
	ShapeText   = "text"
)

type Scene struct {
	Primitives []Primitive `json:"primitives"`
}

// NewScene validates ps and returns a scene holding a copy of them.
func NewScene(ps ...Primitive) (Scene, error) {
	s := Scene{Primitives: append([]Primitive(nil), ps...)}
	if err := s.Validate(); err != nil {
		return Scene{}, err
	}
	return s, nil
}

// Validate reports the first primitive with an empty or repeated id.
func (s Scene) Validate() error {
	seen := make(map[string]int, len(s.Primitives))
	for i, p := range s.Primitives {
		if p.ID == "" {
			return fmt.Errorf("primitive %d: %w", i, ErrMissingID)
		}
		if j, dup := seen[p.ID]; dup {
			return fmt.Errorf("primitive %d (%q, first at %d): %w", i, p.ID, j, ErrDuplicateID)
		}
		seen[p.ID] = i
	}
	return nil
}

// Find returns the primitive with the given id.
func (s Scene) Find(id string) (Primitive, bool) {
	for _, p := range s.Primitives {
		if p.ID == id {
			return p, true
		}
	}
	return Primitive{}, false
}

func (s Scene) Clone() Scene {
	if s.Primitives == nil {
		return Scene{}
	}
	return Scene{Primitives: append([]Primitive(nil), s.Primitives...)}
}
