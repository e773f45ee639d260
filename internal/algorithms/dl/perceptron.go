package dl

import (
	"fmt"
	"strings"

	"github.com/san-kum/stepviz/internal/generator"
	"github.com/san-kum/stepviz/internal/step"
)

type perceptronInput struct {
	Inputs             []float64 `json:"inputs"`
	Weights            []float64 `json:"weights"`
	Bias               float64   `json:"bias"`
	ActivationFunction string    `json:"activationFunction"`
}

var vectorField = generator.Field{
	Type:     generator.TypeArray,
	Items:    generator.TypeNumber,
	Required: true,
	MinItems: 1,
	MaxItems: maxFeatures,
	Min:      generator.Bound(-maxMagnitude),
	Max:      generator.Bound(maxMagnitude),
}

var Perceptron = generator.New(generator.Metadata{
	ID:          "perceptron",
	Name:        "Perceptron",
	Category:    generator.DeepLearning,
	Description: "Forward pass of a single neuron: weighted sum, bias and activation.",
	Schema: generator.Schema{
		"inputs":  vectorField,
		"weights": vectorField,
		"bias": {
			Type:     generator.TypeNumber,
			Required: true,
			Min:      generator.Bound(-maxMagnitude),
			Max:      generator.Bound(maxMagnitude),
		},
		"activationFunction": {
			Type:     generator.TypeString,
			Required: true,
			Enum:     ActivationNames,
		},
	},
	Defaults: generator.Inputs{
		"inputs":             []float64{0.5, 0.8},
		"weights":            []float64{0.6, -0.3},
		"bias":               0.1,
		"activationFunction": "sigmoid",
	},
	Examples: []generator.Example{
		{Name: "step-and-gate", Inputs: generator.Inputs{
			"inputs": []float64{1, 1}, "weights": []float64{1, 1}, "bias": -1.5, "activationFunction": "step",
		}},
		{Name: "relu-negative", Inputs: generator.Inputs{
			"inputs": []float64{1, 2, 3}, "weights": []float64{-1, -1, 0.5}, "bias": 0, "activationFunction": "relu",
		}},
	},
}, perceptron)

func perceptron(in perceptronInput) (step.Sequence, error) {
	x, w, bias, fn := in.Inputs, in.Weights, in.Bias, in.ActivationFunction
	if len(x) != len(w) {
		return nil, generator.Preconditionf("inputs (%d) and weights (%d) must have the same length.", len(x), len(w))
	}
	activate, ok := Activations[fn]
	if !ok {
		return nil, generator.Preconditionf("unknown activation function %q.", fn)
	}
	n := len(x)
	base := step.State{"inputs": x, "weights": w, "bias": bias, "activationFunction": fn, "n": n}
	with := func(extra step.State) step.State {
		s := base.Clone()
		for k, v := range extra {
			s[k] = v
		}
		return s
	}

	b := step.NewBuilder()
	neurons := make([]step.VisualAction, n)
	for i := range x {
		neurons[i] = step.Action("activateNeuron", step.P{"layer": 0, "neuronIndex": i, "value": x[i]})
	}
	b.Add(step.Step{
		ID:    "show-inputs",
		Title: "Input Values",
		Explanation: fmt.Sprintf("The neuron receives %s: [%s]. Each input represents a feature or signal fed into the neuron.",
			plural(n, "input"), nums(x, ", ")),
		State:         base,
		VisualActions: neurons,
		CodeHighlight: step.Lines(1),
		Phase:         "input",
	})

	b.Add(step.Step{
		ID:    "show-weights",
		Title: "Weight Values",
		Explanation: fmt.Sprintf("Each input has a corresponding weight: [%s]. Weights control how much influence each input has on the output. Larger absolute weight means stronger influence.",
			nums(w, ", ")),
		State:         base,
		VisualActions: []step.VisualAction{step.Action("showWeights", step.P{"weights": w})},
		CodeHighlight: step.Lines(1),
		Phase:         "weights",
	})

	weighted := make([]float64, n)
	terms := make([]string, n)
	for i := range x {
		weighted[i] = x[i] * w[i]
		terms[i] = fmt.Sprintf("%s × %s = %s", num(w[i]), num(x[i]), num(weighted[i]))
	}
	b.Add(step.Step{
		ID:            "weighted-inputs",
		Title:         "Weighted Inputs (wᵢ × xᵢ)",
		Explanation:   "Multiply each input by its weight: " + strings.Join(terms, ", ") + ". These products determine each input's contribution to the sum.",
		State:         with(step.State{"weightedInputs": weighted}),
		VisualActions: []step.VisualAction{step.Action("showPreActivation", step.P{"values": weighted})},
		CodeHighlight: step.Lines(3, 4),
		Phase:         "computation",
	})

	dot, err := DotProduct(w, x)
	if err != nil {
		return nil, err
	}
	z := dot + bias
	b.Add(step.Step{
		ID:    "pre-activation",
		Title: fmt.Sprintf("Pre-activation: z = %.4f", z),
		Explanation: fmt.Sprintf("Sum all weighted inputs and add the bias: z = (%s) + %s = %.4f. The bias shifts the activation threshold, allowing the neuron to fire even when all inputs are zero.",
			nums(weighted, " + "), num(bias), z),
		State:         with(step.State{"weightedInputs": weighted, "z": z}),
		VisualActions: []step.VisualAction{step.Action("showPreActivation", step.P{"value": z})},
		CodeHighlight: step.Lines(5),
		Phase:         "computation",
	})

	a := activate(z)
	b.Add(step.Step{
		ID:    "activation",
		Title: fmt.Sprintf("Activation: %s(%.4f) = %.4f", fn, z, a),
		Explanation: fmt.Sprintf("Apply the %s activation function to z = %.4f. Result: %s(%.4f) = %.4f. The activation function introduces non-linearity, enabling the neuron to learn patterns beyond simple linear relationships.",
			fn, z, fn, z, a),
		State:         with(step.State{"weightedInputs": weighted, "z": z, "a": a}),
		VisualActions: []step.VisualAction{step.Action("showActivationFunction", step.P{"fn": fn, "input": z, "output": a})},
		CodeHighlight: step.Lines(6),
		Phase:         "activation",
	})

	b.Add(step.Step{
		ID:    "output",
		Title: fmt.Sprintf("Output: %.4f", a),
		Explanation: fmt.Sprintf("The neuron's final output is %.4f. This value would be passed to the next layer in a neural network, or used directly as the prediction in a single-neuron model.",
			a),
		State:         with(step.State{"weightedInputs": weighted, "z": z, "a": a, "output": a}),
		VisualActions: []step.VisualAction{step.Action("activateNeuron", step.P{"layer": 1, "neuronIndex": 0, "value": a})},
		CodeHighlight: step.Lines(7),
		IsTerminal:    true,
		Phase:         "output",
	})
	return b.Sequence(), nil
}
