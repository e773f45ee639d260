package quantum

import (
	"fmt"
	"math"

	"github.com/san-kum/stepviz/internal/generator"
	"github.com/san-kum/stepviz/internal/step"
)

// QubitState is one entry of a Bloch sphere walk. Amplitudes holds
// [re(α₀), im(α₀), re(α₁), im(α₁)].
type QubitState struct {
	Label      string    `json:"label"`
	Amplitudes []float64 `json:"amplitudes"`
	Gate       string    `json:"gate"`
}

type blochInput struct {
	StateSequence []QubitState `json:"stateSequence"`
}

var qubitLabels = []string{"|0⟩", "|1⟩"}

func qubitState(label, gate string, amps ...float64) map[string]any {
	m := map[string]any{"label": label, "amplitudes": amps}
	if gate != "" {
		m["gate"] = gate
	}
	return m
}

var QubitBlochSphere = generator.New(generator.Metadata{
	ID:          "qubit-bloch-sphere",
	Name:        "Qubit States & Bloch Sphere",
	Category:    generator.Quantum,
	Description: "Walk through single-qubit states and their Bloch sphere coordinates.",
	Schema: generator.Schema{
		"stateSequence": {
			Type:        generator.TypeArray,
			Items:       generator.TypeObject,
			Required:    true,
			MinItems:    1,
			MaxItems:    maxGates,
			Description: "ordered {label, amplitudes, gate} states",
		},
	},
	Defaults: generator.Inputs{
		"stateSequence": []map[string]any{
			qubitState("|0⟩", "", 1, 0, 0, 0),
			qubitState("|+⟩", "H", sqrtHalf, 0, sqrtHalf, 0),
			qubitState("|+i⟩", "S", sqrtHalf, 0, 0, sqrtHalf),
			qubitState("|1⟩", "", 0, 0, 1, 0),
		},
	},
	Examples: []generator.Example{
		{Name: "pauli-flips", Inputs: generator.Inputs{
			"stateSequence": []map[string]any{
				qubitState("|0⟩", "", 1, 0, 0, 0),
				qubitState("|1⟩", "X", 0, 0, 1, 0),
				qubitState("i|1⟩", "Y", 0, 0, 0, 1),
			},
		}},
	},
}, qubitBlochSphere)

// complexText renders z with four decimals, dropping a zero part.
func complexText(z complex128) string {
	re, im := real(z), imag(z)
	switch {
	case math.Abs(im) < epsilon:
		return fmt.Sprintf("%.4f", re)
	case math.Abs(re) < epsilon:
		return fmt.Sprintf("%.4fi", im)
	case im >= 0:
		return fmt.Sprintf("%.4f + %.4fi", re, im)
	}
	return fmt.Sprintf("%.4f − %.4fi", re, -im)
}

func qubitBlochSphere(in blochInput) (step.Sequence, error) {
	seq := make([]map[string]any, len(in.StateSequence))
	for i, e := range in.StateSequence {
		if len(e.Amplitudes) != 4 {
			return nil, generator.Preconditionf("state %q needs 4 amplitude components [re0, im0, re1, im1], got %d.", e.Label, len(e.Amplitudes))
		}
		seq[i] = map[string]any{"label": e.Label, "amplitudes": e.Amplitudes, "gate": e.Gate}
	}

	b := step.NewBuilder()
	b.Add(step.Step{
		ID:          "introduction",
		Title:       "What is a Qubit?",
		Explanation: "A classical bit is either 0 or 1. A qubit can be in a superposition: |ψ⟩ = α₀|0⟩ + α₁|1⟩, where α₀ and α₁ are complex numbers satisfying |α₀|² + |α₁|² = 1. The Bloch sphere represents all possible single-qubit states.",
		State: step.State{
			"stateSequence": seq,
			"currentIndex":  -1,
			"alpha0":        []float64{1, 0},
			"alpha1":        []float64{0, 0},
			"theta":         0.0,
			"phi":           0.0,
			"blochX":        0.0,
			"blochY":        0.0,
			"blochZ":        1.0,
			"probZero":      1.0,
			"probOne":       0.0,
		},
		VisualActions: []step.VisualAction{
			step.Action("rotateBlochSphere", step.P{"theta": 0.0, "phi": 0.0, "label": "|0⟩"}),
			showProbabilities([]float64{1, 0}, qubitLabels),
		},
		CodeHighlight: step.Lines(1, 2),
		Phase:         "introduction",
	})

	for i, e := range in.StateSequence {
		a := e.Amplitudes
		a0, a1 := complex(a[0], a[1]), complex(a[2], a[3])
		if err := (State{a0, a1}).CheckNormalized(fmt.Sprintf("state %q", e.Label)); err != nil {
			return nil, generator.Preconditionf("state %q is not normalized: |α₀|² + |α₁|² = %v.", e.Label, absSq(a0)+absSq(a1))
		}
		theta, phi := BlochAngles(a0, a1)
		x, y, z := BlochCartesian(theta, phi)
		p0, p1 := absSq(a0), absSq(a1)

		actions := []step.VisualAction{
			step.Action("rotateBlochSphere", step.P{"theta": theta, "phi": phi, "label": e.Label}),
			showProbabilities([]float64{p0, p1}, qubitLabels),
		}
		title := "State: " + e.Label
		explanation := fmt.Sprintf("State: %s. ", e.Label)
		lines := step.Lines(3, 4)
		var gate any
		if e.Gate != "" {
			gate = e.Gate
			if g, ok := SingleQubitGate(e.Gate, nil); ok {
				actions = append(actions, step.Action("showGateMatrix", step.P{"gate": e.Gate, "matrix": g.Pairs()}))
			}
			title = fmt.Sprintf("Apply %s → %s", e.Gate, e.Label)
			explanation = fmt.Sprintf("Applying %s gate produces state %s. ", e.Gate, e.Label)
			lines = step.Lines(5, 6)
		}
		explanation += fmt.Sprintf("α₀ = %s, α₁ = %s. P(|0⟩) = %s, P(|1⟩) = %s.",
			complexText(a0), complexText(a1), percent(p0), percent(p1))

		b.Add(step.Step{
			ID:          fmt.Sprintf("show_state_%d", i),
			Title:       title,
			Explanation: explanation,
			State: step.State{
				"stateSequence": seq,
				"currentIndex":  i,
				"alpha0":        []float64{a[0], a[1]},
				"alpha1":        []float64{a[2], a[3]},
				"theta":         theta,
				"phi":           phi,
				"blochX":        x,
				"blochY":        y,
				"blochZ":        z,
				"probZero":      p0,
				"probOne":       p1,
				"gate":          gate,
			},
			VisualActions: actions,
			CodeHighlight: lines,
			IsTerminal:    i == len(in.StateSequence)-1,
			Phase:         "exploration",
		})
	}
	return b.Sequence(), nil
}
