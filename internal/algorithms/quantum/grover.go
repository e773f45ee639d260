package quantum

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/stepviz/internal/generator"
	"github.com/san-kum/stepviz/internal/step"
)

type groverInput struct {
	NumQubits int   `json:"numQubits"`
	Targets   []int `json:"targets"`
}

var GroversSearch = generator.New(generator.Metadata{
	ID:          "grovers-search",
	Name:        "Grover's Search",
	Category:    generator.Quantum,
	Description: "Amplitude amplification: oracle sign flips and diffusion about the mean.",
	Schema: generator.Schema{
		"numQubits": {
			Type:        generator.TypeInteger,
			Required:    true,
			Min:         generator.Bound(2),
			Max:         generator.Bound(maxQubits),
			Description: "register width; the search space has 2^numQubits items",
		},
		"targets": {
			Type:        generator.TypeArray,
			Items:       generator.TypeInteger,
			Required:    true,
			MinItems:    1,
			MaxItems:    1 << maxQubits,
			Min:         generator.Bound(0),
			Description: "marked basis states",
		},
	},
	Defaults: generator.Inputs{"numQubits": 2, "targets": []int{3}},
	Examples: []generator.Example{
		{Name: "three-qubits", Inputs: generator.Inputs{"numQubits": 3, "targets": []int{5}}},
		{Name: "two-targets", Inputs: generator.Inputs{"numQubits": 4, "targets": []int{2, 13}}},
	},
}, groversSearch)

// groverIterations is ⌊π/4·√(N/M)⌋.
func groverIterations(n, m int) int {
	return int(math.Floor(math.Pi / 4 * math.Sqrt(float64(n)/float64(m))))
}

func groversSearch(in groverInput) (step.Sequence, error) {
	qubits, targets := in.NumQubits, in.Targets
	n, m := 1<<qubits, len(targets)
	seen := make(map[int]bool, m)
	for _, t := range targets {
		if t >= n {
			return nil, generator.Preconditionf("target %d is outside the %d-item search space.", t, n)
		}
		if seen[t] {
			return nil, generator.Preconditionf("target %d is listed twice.", t)
		}
		seen[t] = true
	}
	labels := BasisLabels(qubits)
	named := make([]string, m)
	for i, t := range targets {
		named[i] = labels[t]
	}
	targetText := strings.Join(named, ", ")
	r := groverIterations(n, m)

	s := ZeroState(qubits)
	success := func() float64 {
		var p float64
		for _, t := range targets {
			p += absSq(s[t])
		}
		return p
	}
	snapshot := func(iteration int, phase string) step.State {
		return step.State{
			"numQubits":          qubits,
			"targets":            targets,
			"stateVector":        s.Pairs(),
			"probabilities":      s.Probabilities(),
			"basisLabels":        labels,
			"iteration":          iteration,
			"totalIterations":    r,
			"phase":              phase,
			"successProbability": success(),
		}
	}
	view := func() []step.VisualAction {
		return []step.VisualAction{
			showState(s, labels),
			step.Action("showProbabilities", step.P{"probabilities": s.Probabilities(), "labels": labels, "targetStates": targets}),
		}
	}
	iterations := fmt.Sprintf("%d %s", r, plural(r, "iteration"))

	b := step.NewBuilder()
	b.Add(step.Step{
		ID:    "initialize",
		Title: "Initialize Quantum Register",
		Explanation: fmt.Sprintf("Starting with %d qubits in |%s⟩. Searching for %s %s among %d items. Grover's algorithm will need %s.",
			qubits, zeros(qubits), plural(m, "target"), targetText, n, iterations),
		State:         snapshot(0, "initialize"),
		VisualActions: view(),
		CodeHighlight: step.Lines(1, 2),
		Phase:         "initialization",
	})

	for q := 0; q < qubits; q++ {
		s.ApplySingle(GateH, q, qubits)
	}
	if err := s.CheckNormalized("after Hadamard on all qubits"); err != nil {
		return nil, err
	}
	b.Add(step.Step{
		ID:    "hadamard_all",
		Title: "Create Uniform Superposition",
		Explanation: fmt.Sprintf("Applied Hadamard (H) to all %d qubits. Every basis state now has equal probability %s. All %d items are equally likely, so nothing has been searched yet. Will perform %s.",
			qubits, percent(1/float64(n)), n, iterations),
		State:         snapshot(0, "hadamard"),
		VisualActions: view(),
		CodeHighlight: step.Lines(4, 5),
		Phase:         "superposition",
	})

	for it := 1; it <= r; it++ {
		s.Oracle(targets)
		if err := s.CheckNormalized(fmt.Sprintf("after oracle iteration %d", it)); err != nil {
			return nil, err
		}
		b.Add(step.Step{
			ID:    fmt.Sprintf("oracle_%d", it),
			Title: fmt.Sprintf("Iteration %d: Oracle", it),
			Explanation: fmt.Sprintf("The oracle flipped the sign of target %s %s. The probabilities have not changed; the oracle acts on the phase, and the negative amplitude will interfere constructively in the next step.",
				plural(m, "state"), targetText),
			State:         snapshot(it, "oracle"),
			VisualActions: view(),
			CodeHighlight: step.Lines(8, 9),
			Phase:         "grover_iteration",
		})

		s.Diffusion()
		if err := s.CheckNormalized(fmt.Sprintf("after diffusion iteration %d", it)); err != nil {
			return nil, err
		}
		note := ""
		if it == r {
			note = fmt.Sprintf(" After %s, the target is maximally amplified.", iterations)
		}
		b.Add(step.Step{
			ID:    fmt.Sprintf("diffusion_%d", it),
			Title: fmt.Sprintf("Iteration %d: Diffusion", it),
			Explanation: fmt.Sprintf("The diffusion operator reflected all amplitudes about the mean, amplifying the %s. Target probability is now %s.%s",
				plural(m, "target"), percent(success()), note),
			State:         snapshot(it, "diffusion"),
			VisualActions: view(),
			CodeHighlight: step.Lines(11, 12),
			Phase:         "grover_iteration",
		})
	}

	final := success()
	b.Add(step.Step{
		ID:    "measure",
		Title: "Measurement Result",
		Explanation: fmt.Sprintf("Measurement would yield target %s with %s probability. Grover's algorithm used %s where a classical search would need up to %d checks.",
			targetText, percent(final), iterations, n),
		State: snapshot(r, "measure"),
		VisualActions: []step.VisualAction{
			view()[1],
			message(fmt.Sprintf("Target found: %s (%s probability)", targetText, percent(final)), "success"),
		},
		CodeHighlight: step.Lines(14, 15),
		IsTerminal:    true,
		Phase:         "result",
	})
	return b.Sequence(), nil
}
