// Package quantum implements step generators for introductory quantum
// computing: single-qubit states on the Bloch sphere, gate circuits,
// measurement collapse, Grover's search and teleportation.
//
// Registers are simulated as full state vectors of complex128 amplitudes, so
// every generator caps its qubit count. Measurements never draw random
// numbers: the caller picks each outcome and the step reports how likely it
// was.
package quantum

import (
	"fmt"
	"strings"

	"github.com/san-kum/stepviz/internal/generator"
	"github.com/san-kum/stepviz/internal/step"
)

const (
	maxQubits = 4
	maxGates  = 32
)

func Definitions() []generator.Definition {
	return []generator.Definition{QubitBlochSphere, QuantumGates, SuperpositionMeasurement, GroversSearch, QuantumTeleportation}
}

// Op is one gate application in a circuit. Angle is read by the rotation
// gates only.
type Op struct {
	Gate   string   `json:"gate"`
	Qubits []int    `json:"qubits"`
	Angle  *float64 `json:"angle"`
}

func (o Op) String() string {
	q := make([]string, len(o.Qubits))
	for i, v := range o.Qubits {
		q[i] = fmt.Sprint(v)
	}
	return fmt.Sprintf("%s(%s)", o.Gate, strings.Join(q, ","))
}

func (o Op) snapshot() map[string]any {
	m := map[string]any{"gate": o.Gate, "qubits": o.Qubits}
	if o.Angle != nil {
		m["angle"] = *o.Angle
	}
	return m
}

var numQubitsField = generator.Field{
	Type:        generator.TypeInteger,
	Required:    true,
	Min:         generator.Bound(1),
	Max:         generator.Bound(maxQubits),
	Description: "register width",
}

func gatesField(minItems int) generator.Field {
	return generator.Field{
		Type:        generator.TypeArray,
		Items:       generator.TypeObject,
		Required:    true,
		MinItems:    minItems,
		MaxItems:    maxGates,
		Description: "ordered {gate, qubits, angle} operations",
	}
}

func op(gate string, qubits ...int) map[string]any {
	return map[string]any{"gate": gate, "qubits": qubits}
}

// resolve checks o against a register of the given width and returns its
// matrix.
func (o Op) resolve(qubits int) (Gate, error) {
	for _, q := range o.Qubits {
		if q < 0 || q >= qubits {
			return nil, generator.Preconditionf("%s: qubit %d is outside the %d-qubit register.", o, q, qubits)
		}
	}
	switch len(o.Qubits) {
	case 1:
		if g, ok := SingleQubitGate(o.Gate, o.Angle); ok {
			return g, nil
		}
		if _, rot := rotations[o.Gate]; rot {
			return nil, generator.Preconditionf("%s: rotation gates need an angle.", o)
		}
		return nil, generator.Preconditionf("unknown gate %q.", o.Gate)
	case 2:
		if o.Qubits[0] == o.Qubits[1] {
			return nil, generator.Preconditionf("%s: a two-qubit gate needs two different qubits.", o)
		}
		if g, ok := TwoQubitGate(o.Gate); ok {
			return g, nil
		}
		return nil, generator.Preconditionf("unknown 2-qubit gate %q.", o.Gate)
	}
	return nil, generator.Preconditionf("%s: gates act on 1 or 2 qubits, got %d.", o, len(o.Qubits))
}

// apply runs o on s in place and checks the result is still normalized.
func (o Op) apply(s State, qubits int) error {
	g, err := o.resolve(qubits)
	if err != nil {
		return err
	}
	if len(o.Qubits) == 1 {
		s.ApplySingle(g, o.Qubits[0], qubits)
	} else {
		s.ApplyTwo(g, o.Qubits[0], o.Qubits[1], qubits)
	}
	return s.CheckNormalized("after " + o.String())
}

func showState(s State, labels []string) step.VisualAction {
	return step.Action("showStateVector", step.P{"amplitudes": s.Pairs(), "labels": labels})
}

func showProbabilities(probs []float64, labels []string) step.VisualAction {
	return step.Action("showProbabilities", step.P{"probabilities": probs, "labels": labels})
}

func message(text, kind string) step.VisualAction {
	return step.Action("showMessage", step.P{"text": text, "messageType": kind})
}

func percent(p float64) string {
	return fmt.Sprintf("%.1f%%", p*100)
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
