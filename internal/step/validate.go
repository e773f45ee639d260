package step

import (
	"encoding/json"
	"math"
	"regexp"
)

const weightTolerance = 1e-6

var (
	stepIDPattern      = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)
	algorithmIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)
)

// ValidAlgorithmID reports whether id is a URL-safe algorithm identifier.
func ValidAlgorithmID(id string) bool {
	return algorithmIDPattern.MatchString(id)
}

// Validate checks the structural invariants of seq and the semantic
// consistency of its visual actions. It returns the first violation found as
// a *ValidationError and never modifies seq.
func Validate(seq Sequence) error {
	if len(seq) == 0 {
		return invalid(-1, "", ErrEmptySequence, "a sequence needs at least one step")
	}

	last := len(seq) - 1
	for i, s := range seq {
		if s.Index != i {
			return invalid(i, s.ID, ErrIndexMismatch, "index is %d, expected %d", s.Index, i)
		}
		if !stepIDPattern.MatchString(s.ID) {
			return invalid(i, s.ID, ErrInvalidID, "id %q does not match %s", s.ID, stepIDPattern)
		}
		if s.Title == "" || s.Explanation == "" {
			return invalid(i, s.ID, ErrMissingText, "title and explanation are required")
		}
		if s.IsTerminal && i != last {
			return invalid(i, s.ID, ErrEarlyTerminal, "only the last step (index %d) may be terminal", last)
		}
		for j, a := range s.VisualActions {
			if detail := checkAction(a); detail != "" {
				return invalid(i, s.ID, ErrInvalidAction, "visualActions[%d] (%s): %s", j, a.Type, detail)
			}
		}
	}
	if !seq[last].IsTerminal {
		return invalid(last, seq[last].ID, ErrMissingTerminal, "the last step must be terminal")
	}
	return nil
}

func checkAction(a VisualAction) string {
	switch a.Type {
	case "showAttentionWeights":
		weights, ok := floats(a.Params["weights"])
		if !ok || len(weights) == 0 {
			return ""
		}
		sum := 0.0
		for _, w := range weights {
			if w < -weightTolerance || w > 1+weightTolerance {
				return "weight outside [0, 1]"
			}
			sum += w
		}
		if math.Abs(sum-1) > weightTolerance {
			return "weights do not sum to 1"
		}
	case "highlightRange", "dimRange":
		from, okFrom := number(a.Params["from"])
		to, okTo := number(a.Params["to"])
		if okFrom && okTo && from > to {
			return "from is greater than to"
		}
	case "compareElements":
		switch a.Params["result"] {
		case "less", "greater", "equal":
		default:
			return `result must be "less", "greater" or "equal"`
		}
	case "updateBarChart":
		labels, hasLabels := a.Params["labels"]
		if !hasLabels || labels == nil {
			return ""
		}
		values, _ := a.Params["values"].([]any)
		if l, ok := labels.([]any); ok && len(l) != len(values) {
			return "labels and values differ in length"
		}
	}
	return ""
}

func number(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case float64:
		return x, true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	}
	return 0, false
}

func floats(v any) ([]float64, bool) {
	switch x := v.(type) {
	case []float64:
		return x, true
	case []any:
		out := make([]float64, len(x))
		for i, el := range x {
			f, ok := number(el)
			if !ok {
				return nil, false
			}
			out[i] = f
		}
		return out, true
	}
	return nil, false
}
