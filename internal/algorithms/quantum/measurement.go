package quantum

import (
	"errors"
	"fmt"

	"github.com/san-kum/stepviz/internal/generator"
	"github.com/san-kum/stepviz/internal/step"
)

// Measurement fixes the outcome of measuring one qubit.
type Measurement struct {
	Qubit   int `json:"qubit"`
	Outcome int `json:"outcome"`
}

type measurementInput struct {
	NumQubits        int           `json:"numQubits"`
	PreparationGates []Op          `json:"preparationGates"`
	Measurements     []Measurement `json:"measurements"`
}

func measure(qubit, outcome int) map[string]any {
	return map[string]any{"qubit": qubit, "outcome": outcome}
}

var SuperpositionMeasurement = generator.New(generator.Metadata{
	ID:          "superposition-measurement",
	Name:        "Superposition & Measurement",
	Category:    generator.Quantum,
	Description: "Prepare a state, then measure qubits with chosen outcomes and watch it collapse.",
	Schema: generator.Schema{
		"numQubits":        numQubitsField,
		"preparationGates": gatesField(0),
		"measurements": {
			Type:        generator.TypeArray,
			Items:       generator.TypeObject,
			Required:    true,
			MinItems:    1,
			MaxItems:    maxGates,
			Description: "ordered {qubit, outcome} measurements",
		},
	},
	Defaults: generator.Inputs{
		"numQubits":        2,
		"preparationGates": []map[string]any{op("H", 0), op("CNOT", 0, 1)},
		"measurements":     []map[string]any{measure(0, 1), measure(1, 1)},
	},
	Examples: []generator.Example{
		{Name: "single-qubit", Inputs: generator.Inputs{
			"numQubits":        1,
			"preparationGates": []map[string]any{op("H", 0)},
			"measurements":     []map[string]any{measure(0, 0)},
		}},
		{Name: "independent-qubits", Inputs: generator.Inputs{
			"numQubits":        2,
			"preparationGates": []map[string]any{op("H", 0), op("H", 1)},
			"measurements":     []map[string]any{measure(0, 0), measure(1, 1)},
		}},
	},
}, superpositionMeasurement)

func superpositionMeasurement(in measurementInput) (step.Sequence, error) {
	n := in.NumQubits
	labels := BasisLabels(n)
	s := ZeroState(n)
	bits := []int{}
	base := func(phase string, entangled bool) step.State {
		return step.State{
			"numQubits":     n,
			"stateVector":   s.Pairs(),
			"probabilities": s.Probabilities(),
			"basisLabels":   labels,
			"currentPhase":  phase,
			"classicalBits": bits,
			"entangled":     entangled,
		}
	}

	b := step.NewBuilder()
	b.Add(step.Step{
		ID:    "initialize",
		Title: "Initialize Quantum Register",
		Explanation: fmt.Sprintf("Starting with %d %s in the |%s⟩ state. We will prepare a quantum state, then measure to observe collapse.",
			n, plural(n, "qubit"), zeros(n)),
		State:         base("initialization", false),
		VisualActions: []step.VisualAction{showState(s, labels), showProbabilities(s.Probabilities(), labels)},
		CodeHighlight: step.Lines(1, 2),
		Phase:         "initialization",
	})

	for i, o := range in.PreparationGates {
		if err := o.apply(s, n); err != nil {
			return nil, err
		}
		entangled := n == 2 && Entangled(s)
		actions := []step.VisualAction{
			step.Action("applyGate", step.P{"gate": o.Gate, "qubits": o.Qubits, "gateIndex": i}),
			showState(s, labels),
			showProbabilities(s.Probabilities(), labels),
		}
		note := ""
		if entangled {
			actions = append(actions, step.Action("showEntanglement", step.P{"qubits": []int{0, 1}, "isEntangled": true}))
			note = " The qubits are now entangled, so their measurement outcomes will be correlated."
		}
		b.Add(step.Step{
			ID:            fmt.Sprintf("prepare_gate_%d", i),
			Title:         "Prepare: Apply " + o.Gate,
			Explanation:   fmt.Sprintf("Applying %s to %s %s.%s", o.Gate, plural(len(o.Qubits), "qubit"), ints(o.Qubits), note),
			State:         base("preparation", entangled),
			VisualActions: actions,
			CodeHighlight: step.Lines(4, 5),
			Phase:         "preparation",
		})
	}

	for m, meas := range in.Measurements {
		q, outcome := meas.Qubit, meas.Outcome
		if q < 0 || q >= n {
			return nil, generator.Preconditionf("measurement %d: qubit %d is outside the %d-qubit register.", m+1, q, n)
		}
		if outcome != 0 && outcome != 1 {
			return nil, generator.Preconditionf("measurement %d: outcome must be 0 or 1, got %d.", m+1, outcome)
		}
		p0, p1 := s.QubitProbabilities(q, n)
		prob := p0
		if outcome == 1 {
			prob = p1
		}
		collapsed, err := s.Project(q, outcome, n)
		if errors.Is(err, ErrImpossibleOutcome) {
			return nil, generator.Preconditionf("measurement %d: qubit %d cannot be measured as %d (probability %v).", m+1, q, outcome, prob)
		}
		if err != nil {
			return nil, err
		}
		s = collapsed
		bits = append(bits, outcome)

		st := base("measurement", false)
		st["measuredQubit"] = q
		st["measuredOutcome"] = outcome
		st["outcomeProb"] = prob
		b.Add(step.Step{
			ID:    fmt.Sprintf("measure_%d_qubit_%d", m, q),
			Title: fmt.Sprintf("Measure Qubit %d", q),
			Explanation: fmt.Sprintf("Measuring qubit %d: P(%d) = %s. Result: %d. The state collapses: amplitudes inconsistent with qubit %d = %d are set to zero and the state is renormalized.",
				q, outcome, percent(prob), outcome, q, outcome),
			State: st,
			VisualActions: []step.VisualAction{
				step.Action("collapseState", step.P{"qubit": q, "outcome": outcome, "probability": prob}),
				step.Action("showClassicalBits", step.P{"bits": bits}),
				showState(s, labels),
				showProbabilities(s.Probabilities(), labels),
			},
			CodeHighlight: step.Lines(7, 8, 9),
			IsTerminal:    m == len(in.Measurements)-1,
			Phase:         "measurement",
		})
	}
	return b.Sequence(), nil
}

func ints(values []int) string {
	out := ""
	for i, v := range values {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprint(v)
	}
	return out
}
