package step

import (
	"encoding/json"
	"math"
)

// State is an opaque, JSON-shaped snapshot of an algorithm's working data.
type State map[string]any

// Clone returns an independent deep copy.
func (s State) Clone() State {
	if s == nil {
		return nil
	}
	return State(Snapshot(map[string]any(s)).(map[string]any))
}

// IsValid reports whether every number reachable from s is finite.
func (s State) IsValid() bool {
	return firstNonFinite(map[string]any(s), "") == ""
}

// CodeHighlight points an external code viewer at the lines a step executes.
type CodeHighlight struct {
	Language string `json:"language"`
	Lines    []int  `json:"lines"`
}

// Lines returns a pseudocode highlight for the given 1-based line numbers.
func Lines(lines ...int) *CodeHighlight {
	return &CodeHighlight{Language: "pseudocode", Lines: lines}
}

type Step struct {
	ID            string         `json:"id"`
	Index         int            `json:"index"`
	Title         string         `json:"title"`
	Explanation   string         `json:"explanation"`
	VisualActions []VisualAction `json:"visualActions"`
	CodeHighlight *CodeHighlight `json:"codeHighlight,omitempty"`
	State         State          `json:"state"`
	IsTerminal    bool           `json:"isTerminal"`
	Phase         string         `json:"phase,omitempty"`
}

// MarshalJSON keeps visualActions and state as [] and {} when unset.
func (s Step) MarshalJSON() ([]byte, error) {
	type wire Step
	w := wire(s)
	if w.VisualActions == nil {
		w.VisualActions = []VisualAction{}
	}
	if w.State == nil {
		w.State = State{}
	}
	return json.Marshal(w)
}

// Sequence is the full ordered trace of one generator run.
type Sequence []Step

// Last returns the final step. It panics on an empty sequence.
func (s Sequence) Last() Step {
	return s[len(s)-1]
}

// IDs lists step ids in order.
func (s Sequence) IDs() []string {
	ids := make([]string, len(s))
	for i, st := range s {
		ids[i] = st.ID
	}
	return ids
}

// Builder accumulates steps, assigning contiguous indices and snapshotting
// every state and action payload as it goes.
type Builder struct {
	steps Sequence
}

func NewBuilder() *Builder {
	return &Builder{steps: make(Sequence, 0, 16)}
}

// Add appends s with Index set to its position and returns that index.
func (b *Builder) Add(s Step) int {
	s.Index = len(b.steps)
	if s.State == nil {
		s.State = State{}
	} else {
		s.State = s.State.Clone()
	}
	actions := make([]VisualAction, len(s.VisualActions))
	for i, a := range s.VisualActions {
		actions[i] = a.Clone()
	}
	s.VisualActions = actions
	if s.CodeHighlight != nil {
		ch := *s.CodeHighlight
		ch.Lines = append([]int(nil), ch.Lines...)
		s.CodeHighlight = &ch
	}
	b.steps = append(b.steps, s)
	return s.Index
}

// Len returns the number of steps added so far.
func (b *Builder) Len() int {
	return len(b.steps)
}

// Sequence returns the accumulated steps. The builder must not be reused.
func (b *Builder) Sequence() Sequence {
	return b.steps
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
