package quantum

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"github.com/san-kum/stepviz/internal/generator"
	"github.com/san-kum/stepviz/internal/step"
)

const teleportQubits = 3

// TeleportState is the single-qubit state Alice sends, in Bloch angles.
type TeleportState struct {
	Theta float64 `json:"theta"`
	Phi   float64 `json:"phi"`
	Label string  `json:"label"`
}

// AliceMeasurements fixes the two classical bits Alice sends to Bob.
type AliceMeasurements struct {
	Qubit0 int `json:"qubit0"`
	Qubit1 int `json:"qubit1"`
}

type teleportInput struct {
	TeleportState     TeleportState     `json:"teleportState"`
	AliceMeasurements AliceMeasurements `json:"aliceMeasurements"`
}

var teleportLabels = BasisLabels(teleportQubits)

func teleport(theta, phi float64, label string, m0, m1 int) generator.Inputs {
	return generator.Inputs{
		"teleportState":     map[string]any{"theta": theta, "phi": phi, "label": label},
		"aliceMeasurements": map[string]any{"qubit0": m0, "qubit1": m1},
	}
}

var QuantumTeleportation = generator.New(generator.Metadata{
	ID:          "quantum-teleportation",
	Name:        "Quantum Teleportation",
	Category:    generator.Quantum,
	Description: "Send a qubit state using a Bell pair and two classical bits.",
	Schema: generator.Schema{
		"teleportState": {
			Type:        generator.TypeObject,
			Required:    true,
			MaxItems:    3,
			Description: "{theta, phi, label} of the state to send; theta in [0, π], phi in [0, 2π]",
		},
		"aliceMeasurements": {
			Type:        generator.TypeObject,
			Required:    true,
			MaxItems:    2,
			Description: "{qubit0, qubit1} outcomes of Alice's measurements, each 0 or 1",
		},
	},
	Defaults: teleport(math.Pi/3, math.Pi/4, "|ψ⟩", 1, 0),
	Examples: []generator.Example{
		{Name: "plus-state", Inputs: teleport(math.Pi/2, 0, "|+⟩", 0, 0)},
		{Name: "one-state", Inputs: teleport(math.Pi, 0, "|1⟩", 1, 1)},
		{Name: "phase-state", Inputs: teleport(math.Pi/2, math.Pi/2, "|+i⟩", 0, 1)},
	},
}, quantumTeleportation)

func quantumTeleportation(in teleportInput) (step.Sequence, error) {
	ts, am := in.TeleportState, in.AliceMeasurements
	if ts.Theta < 0 || ts.Theta > math.Pi {
		return nil, generator.Preconditionf("theta %v must be within [0, π].", ts.Theta)
	}
	if ts.Phi < 0 || ts.Phi > 2*math.Pi {
		return nil, generator.Preconditionf("phi %v must be within [0, 2π].", ts.Phi)
	}
	for q, m := range []int{am.Qubit0, am.Qubit1} {
		if m != 0 && m != 1 {
			return nil, generator.Preconditionf("aliceMeasurements.qubit%d must be 0 or 1, got %d.", q, m)
		}
	}
	label := ts.Label
	if label == "" {
		label = "|ψ⟩"
	}
	m0, m1 := am.Qubit0, am.Qubit1
	a0, a1 := BlochState(ts.Theta, ts.Phi)

	s := make(State, 1<<teleportQubits)
	s[0], s[4] = a0, a1
	bits := []int{}
	snapshot := func(phase string, extra step.State) step.State {
		st := step.State{
			"numQubits":     teleportQubits,
			"stateVector":   s.Pairs(),
			"probabilities": s.Probabilities(),
			"basisLabels":   teleportLabels,
			"currentPhase":  phase,
			"classicalBits": bits,
			"teleportState": map[string]any{"theta": ts.Theta, "phi": ts.Phi, "label": label},
			"alpha0":        []float64{real(a0), imag(a0)},
			"alpha1":        []float64{real(a1), imag(a1)},
		}
		for k, v := range extra {
			st[k] = v
		}
		return st
	}
	view := func() []step.VisualAction {
		return []step.VisualAction{showState(s, teleportLabels), showProbabilities(s.Probabilities(), teleportLabels)}
	}
	gate := func(name string, qubits ...int) step.VisualAction {
		return step.Action("applyGate", step.P{"gate": name, "qubits": qubits})
	}
	check := func(context string) error {
		return s.CheckNormalized(context)
	}

	b := step.NewBuilder()
	b.Add(step.Step{
		ID:    "initialize",
		Title: "Prepare the State to Teleport",
		Explanation: fmt.Sprintf("Alice holds qubit 0 in %s = %s|0⟩ + %s|1⟩ (θ = %.4f, φ = %.4f). Qubits 1 and 2 start in |0⟩. Qubit 2 belongs to Bob.",
			label, complexText(a0), complexText(a1), ts.Theta, ts.Phi),
		State: snapshot("initialize", nil),
		VisualActions: append(view(),
			step.Action("rotateBlochSphere", step.P{"theta": ts.Theta, "phi": ts.Phi, "label": label})),
		CodeHighlight: step.Lines(1, 3),
		Phase:         "initialization",
	})

	s.ApplySingle(GateH, 1, teleportQubits)
	if err := check("after Hadamard on qubit 1"); err != nil {
		return nil, err
	}
	b.Add(step.Step{
		ID:            "bell_hadamard",
		Title:         "Create Bell Pair: Hadamard",
		Explanation:   "Applied H to qubit 1, putting it in an equal superposition of |0⟩ and |1⟩.",
		State:         snapshot("bell_pair", nil),
		VisualActions: append(view(), gate("H", 1)),
		CodeHighlight: step.Lines(5, 5),
		Phase:         "bell_pair",
	})

	s.ApplyTwo(GateCNOT, 1, 2, teleportQubits)
	if err := check("after CNOT(1,2)"); err != nil {
		return nil, err
	}
	b.Add(step.Step{
		ID:          "bell_cnot",
		Title:       "Create Bell Pair: CNOT",
		Explanation: "Applied CNOT with qubit 1 as control and qubit 2 as target. Qubits 1 and 2 now share the Bell state (|00⟩ + |11⟩)/√2: Alice keeps qubit 1 and Bob takes qubit 2.",
		State:       snapshot("bell_pair", step.State{"entangled": true}),
		VisualActions: append(view(), gate("CNOT", 1, 2),
			step.Action("showEntanglement", step.P{"qubits": []int{1, 2}})),
		CodeHighlight: step.Lines(6, 6),
		Phase:         "bell_pair",
	})

	s.ApplyTwo(GateCNOT, 0, 1, teleportQubits)
	if err := check("after CNOT(0,1)"); err != nil {
		return nil, err
	}
	b.Add(step.Step{
		ID:            "alice_cnot",
		Title:         "Alice: CNOT",
		Explanation:   fmt.Sprintf("Alice applied CNOT with qubit 0 (%s) as control and her Bell qubit 1 as target, entangling the state she wants to send with the pair.", label),
		State:         snapshot("alice_operations", step.State{"entangled": true}),
		VisualActions: append(view(), gate("CNOT", 0, 1)),
		CodeHighlight: step.Lines(8, 8),
		Phase:         "alice_operations",
	})

	s.ApplySingle(GateH, 0, teleportQubits)
	if err := check("after Hadamard on qubit 0"); err != nil {
		return nil, err
	}
	b.Add(step.Step{
		ID:            "alice_hadamard",
		Title:         "Alice: Hadamard",
		Explanation:   "Alice applied H to qubit 0. Each of her four measurement outcomes now has probability 25%, and Bob's qubit holds a version of the original state that depends on which one she gets.",
		State:         snapshot("alice_operations", step.State{"entangled": true}),
		VisualActions: append(view(), gate("H", 0)),
		CodeHighlight: step.Lines(9, 9),
		Phase:         "alice_operations",
	})

	for q, outcome := range []int{m0, m1} {
		p0, p1 := s.QubitProbabilities(q, teleportQubits)
		prob := p0
		if outcome == 1 {
			prob = p1
		}
		next, err := s.Project(q, outcome, teleportQubits)
		if errors.Is(err, ErrImpossibleOutcome) {
			return nil, generator.Preconditionf("measuring qubit %d as %d is impossible.", q, outcome)
		}
		if err != nil {
			return nil, err
		}
		s = next
		bits = append(bits, outcome)
		b.Add(step.Step{
			ID:    fmt.Sprintf("measure_qubit%d", q),
			Title: fmt.Sprintf("Alice Measures Qubit %d", q),
			Explanation: fmt.Sprintf("Alice measured qubit %d and got %d (probability %s). She sends the classical bit %d to Bob.",
				q, outcome, percent(prob), outcome),
			State: snapshot("measurement", step.State{"entangled": q == 0}),
			VisualActions: append(view(),
				step.Action("measureQubit", step.P{"qubit": q, "outcome": outcome, "probability": prob})),
			CodeHighlight: step.Lines(11+q, 11+q),
			Phase:         "measurement",
		})
	}

	corrections := []string{}
	if m1 == 1 {
		s.ApplySingle(GateX, 2, teleportQubits)
		corrections = append(corrections, "X")
	}
	if m0 == 1 {
		s.ApplySingle(GateZ, 2, teleportQubits)
		corrections = append(corrections, "Z")
	}
	if err := check("after Bob's correction"); err != nil {
		return nil, err
	}
	correction := "Bob's qubit already holds the state, so he applies no correction."
	actions := view()
	switch len(corrections) {
	case 1:
		correction = fmt.Sprintf("Bob applies %s to qubit 2.", corrections[0])
	case 2:
		correction = "Bob applies X and then Z to qubit 2."
	}
	for _, c := range corrections {
		actions = append(actions, gate(c, 2))
	}
	b.Add(step.Step{
		ID:    "bob_correction",
		Title: "Bob's Correction",
		Explanation: fmt.Sprintf("Bob received bits (%d, %d): X is needed when qubit 1 read 1 and Z when qubit 0 read 1. %s",
			m0, m1, correction),
		State:         snapshot("correction", step.State{"corrections": corrections}),
		VisualActions: actions,
		CodeHighlight: step.Lines(14, 15),
		Phase:         "correction",
	})

	base := m0<<2 | m1<<1
	b0, b1 := s[base], s[base|1]
	bobTheta, bobPhi := BlochAngles(b0, b1)
	overlap := cmplx.Conj(a0)*b0 + cmplx.Conj(a1)*b1
	fidelity := absSq(overlap)
	x, y, z := BlochCartesian(bobTheta, bobPhi)
	b.Add(step.Step{
		ID:    "verification",
		Title: "Teleportation Complete",
		Explanation: fmt.Sprintf("Bob's qubit is now %s|0⟩ + %s|1⟩ (θ = %.4f, φ = %.4f), matching %s with fidelity %.4f. The state moved from Alice to Bob using one Bell pair and two classical bits; Alice's copy was destroyed by her measurement.",
			complexText(b0), complexText(b1), bobTheta, bobPhi, label, fidelity),
		State: snapshot("verification", step.State{
			"bobAlpha0": []float64{real(b0), imag(b0)},
			"bobAlpha1": []float64{real(b1), imag(b1)},
			"bobTheta":  bobTheta,
			"bobPhi":    bobPhi,
			"bobBloch":  []float64{x, y, z},
			"fidelity":  fidelity,
		}),
		VisualActions: []step.VisualAction{
			step.Action("rotateBlochSphere", step.P{"theta": bobTheta, "phi": bobPhi, "label": label}),
			message(fmt.Sprintf("Teleported %s with fidelity %.4f", label, fidelity), "success"),
		},
		CodeHighlight: step.Lines(17, 18),
		IsTerminal:    true,
		Phase:         "verification",
	})
	return b.Sequence(), nil
}
