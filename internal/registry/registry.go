package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/san-kum/stepviz/internal/algorithms/classical"
	"github.com/san-kum/stepviz/internal/algorithms/dl"
	"github.com/san-kum/stepviz/internal/algorithms/genai"
	"github.com/san-kum/stepviz/internal/algorithms/quantum"
	"github.com/san-kum/stepviz/internal/generator"
)

var (
	ErrUnknownAlgorithm = errors.New("registry: unknown algorithm")
	ErrUnknownCategory  = errors.New("unknown category")
)

// NotFoundError reports a lookup miss together with every id that would
// have matched.
type NotFoundError struct {
	ID        string
	Available []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("unknown algorithm %q (available: %s)", e.ID, strings.Join(e.Available, ", "))
}

func (e *NotFoundError) Unwrap() error {
	return ErrUnknownAlgorithm
}

// Registry maps algorithm ids to their generators. It holds references to
// package-level definitions and never copies them.
type Registry struct {
	defs map[string]generator.Definition
}

// New returns a registry with every built-in generator.
func New() *Registry {
	r := &Registry{defs: make(map[string]generator.Definition)}
	for _, group := range [][]generator.Definition{
		classical.Definitions(),
		genai.Definitions(),
		dl.Definitions(),
		quantum.Definitions(),
	} {
		for _, def := range group {
			r.Register(def)
		}
	}
	return r
}

// Empty returns a registry with no generators, for tests and embedders.
func Empty() *Registry {
	return &Registry{defs: make(map[string]generator.Definition)}
}

// Register adds def. It panics on a duplicate or malformed id since both are
// programming errors.
func (r *Registry) Register(def generator.Definition) {
	id := def.Metadata().ID
	if _, dup := r.defs[id]; dup {
		panic(fmt.Sprintf("registry: duplicate algorithm %q", id))
	}
	if id == "" {
		panic("registry: empty algorithm id")
	}
	r.defs[id] = def
}

func (r *Registry) Get(id string) (generator.Definition, error) {
	def, ok := r.defs[id]
	if !ok {
		return nil, &NotFoundError{ID: id, Available: r.IDs()}
	}
	return def, nil
}

// IDs returns every registered id in sorted order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.defs))
	for id := range r.defs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// List returns metadata for every generator in category, or for all of them
// when category is empty, sorted by id.
func (r *Registry) List(category generator.Category) ([]generator.Metadata, error) {
	if category != "" && !validCategory(category) {
		return nil, fmt.Errorf("%w %q (valid: %s)", ErrUnknownCategory, category, categoryNames())
	}
	var out []generator.Metadata
	for _, id := range r.IDs() {
		meta := r.defs[id].Metadata()
		if category == "" || meta.Category == category {
			out = append(out, meta)
		}
	}
	return out, nil
}

func validCategory(c generator.Category) bool {
	for _, known := range generator.Categories() {
		if c == known {
			return true
		}
	}
	return false
}

func categoryNames() string {
	cats := generator.Categories()
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}
