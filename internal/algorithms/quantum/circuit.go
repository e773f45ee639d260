package quantum

import (
	"fmt"
	"strings"

	"github.com/san-kum/stepviz/internal/generator"
	"github.com/san-kum/stepviz/internal/step"
)

type circuitInput struct {
	NumQubits int  `json:"numQubits"`
	Gates     []Op `json:"gates"`
}

var QuantumGates = generator.New(generator.Metadata{
	ID:          "quantum-gates",
	Name:        "Quantum Gates & Circuits",
	Category:    generator.Quantum,
	Description: "Apply a gate sequence to a register and watch the state vector change.",
	Schema: generator.Schema{
		"numQubits": numQubitsField,
		"gates":     gatesField(1),
	},
	Defaults: generator.Inputs{
		"numQubits": 2,
		"gates":     []map[string]any{op("H", 0), op("CNOT", 0, 1)},
	},
	Examples: []generator.Example{
		{Name: "phase-kickback", Inputs: generator.Inputs{
			"numQubits": 2,
			"gates":     []map[string]any{op("X", 1), op("H", 0), op("H", 1), op("CZ", 0, 1), op("H", 1)},
		}},
		{Name: "rotation", Inputs: generator.Inputs{
			"numQubits": 1,
			"gates":     []map[string]any{{"gate": "Ry", "qubits": []int{0}, "angle": 1.0471975511965976}, op("T", 0)},
		}},
		{Name: "ghz", Inputs: generator.Inputs{
			"numQubits": 3,
			"gates":     []map[string]any{op("H", 0), op("CNOT", 0, 1), op("CNOT", 1, 2)},
		}},
	},
}, quantumGates)

func describe(o Op) string {
	on := fmt.Sprintf("qubit %d", o.Qubits[0])
	if len(o.Qubits) > 1 {
		q := make([]string, len(o.Qubits))
		for i, v := range o.Qubits {
			q[i] = fmt.Sprint(v)
		}
		on = "qubits " + strings.Join(q, ", ")
	}
	switch o.Gate {
	case "H":
		return fmt.Sprintf("Hadamard gate on %s: creates superposition by rotating the state. H|0⟩ = |+⟩, H|1⟩ = |−⟩.", on)
	case "X":
		return fmt.Sprintf("Pauli-X (NOT) gate on %s: flips |0⟩ ↔ |1⟩.", on)
	case "Y":
		return fmt.Sprintf("Pauli-Y gate on %s: rotation by π around the Y axis.", on)
	case "Z":
		return fmt.Sprintf("Pauli-Z gate on %s: flips the phase of |1⟩. Z|1⟩ = −|1⟩.", on)
	case "S":
		return fmt.Sprintf("Phase gate (S) on %s: adds a π/2 phase to |1⟩.", on)
	case "T":
		return fmt.Sprintf("T gate on %s: adds a π/4 phase to |1⟩.", on)
	case "CNOT":
		return fmt.Sprintf("CNOT gate: qubit %d controls, qubit %d is the target. Flips the target when the control is |1⟩.", o.Qubits[0], o.Qubits[1])
	case "CZ":
		return fmt.Sprintf("CZ gate on %s: flips the phase when both qubits are |1⟩.", on)
	case "SWAP":
		return fmt.Sprintf("SWAP gate on %s: exchanges the states of the two qubits.", on)
	case "Rx", "Ry", "Rz":
		return fmt.Sprintf("%s gate on %s: rotates the state by %.4f rad around the %s axis.", o.Gate, on, *o.Angle, strings.ToUpper(o.Gate[1:]))
	}
	return fmt.Sprintf("%s gate on %s.", o.Gate, on)
}

func quantumGates(in circuitInput) (step.Sequence, error) {
	n := in.NumQubits
	labels := BasisLabels(n)
	gates := make([]map[string]any, len(in.Gates))
	for i, o := range in.Gates {
		gates[i] = o.snapshot()
	}
	s := ZeroState(n)
	base := func(i int) step.State {
		return step.State{
			"numQubits":        n,
			"gateSequence":     gates,
			"currentGateIndex": i,
			"stateVector":      s.Pairs(),
			"probabilities":    s.Probabilities(),
			"basisLabels":      labels,
		}
	}

	b := step.NewBuilder()
	first := base(-1)
	first["currentGate"] = nil
	b.Add(step.Step{
		ID:    "initialize",
		Title: "Initialize Quantum Register",
		Explanation: fmt.Sprintf("Creating a %d-qubit register in the |%s⟩ state. The state vector has %d amplitudes, with all probability concentrated on |%s⟩.",
			n, zeros(n), len(s), zeros(n)),
		State:         first,
		VisualActions: []step.VisualAction{showState(s, labels), showProbabilities(s.Probabilities(), labels)},
		CodeHighlight: step.Lines(1, 2),
		Phase:         "initialization",
	})

	for i, o := range in.Gates {
		if err := o.apply(s, n); err != nil {
			return nil, err
		}
		applied := o.snapshot()
		applied["gateIndex"] = i
		actions := []step.VisualAction{
			step.Action("applyGate", applied),
			showState(s, labels),
			showProbabilities(s.Probabilities(), labels),
			step.Action("highlightQubitWire", step.P{"qubits": o.Qubits, "color": "#00ffc8"}),
		}
		if len(o.Qubits) == 1 {
			g, _ := SingleQubitGate(o.Gate, o.Angle)
			actions = append(actions, step.Action("showGateMatrix", step.P{"gate": o.Gate, "matrix": g.Pairs()}))
		}
		st := base(i)
		st["currentGate"] = o.snapshot()
		b.Add(step.Step{
			ID:            fmt.Sprintf("apply_gate_%d", i),
			Title:         fmt.Sprintf("Apply %s Gate", o.Gate),
			Explanation:   describe(o),
			State:         st,
			VisualActions: actions,
			CodeHighlight: step.Lines(4, 5, 6),
			IsTerminal:    i == len(in.Gates)-1,
			Phase:         "execution",
		})
	}
	return b.Sequence(), nil
}
