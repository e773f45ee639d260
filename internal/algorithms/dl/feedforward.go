package dl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/san-kum/stepviz/internal/generator"
	"github.com/san-kum/stepviz/internal/step"
)

type feedforwardInput struct {
	InputValues        []float64 `json:"inputValues"`
	LayerSizes         []int     `json:"layerSizes"`
	ActivationFunction string    `json:"activationFunction"`
	Seed               string    `json:"seed"`
}

var FeedforwardNetwork = generator.New(generator.Metadata{
	ID:          "feedforward-network",
	Name:        "Feedforward Network",
	Category:    generator.DeepLearning,
	Description: "Layer-by-layer forward propagation through a fully connected network.",
	Schema: generator.Schema{
		"inputValues": inputValuesField,
		"layerSizes":  layerSizesField,
		"activationFunction": {
			Type:     generator.TypeString,
			Required: true,
			Enum:     DifferentiableNames,
		},
		"seed": {Type: generator.TypeString, Description: "weight initialization seed"},
	},
	Defaults: generator.Inputs{
		"inputValues":        []float64{1, 0.5},
		"layerSizes":         []int{2, 3, 1},
		"activationFunction": "sigmoid",
		"seed":               "feedforward",
	},
	Examples: []generator.Example{
		{Name: "deep-relu", Inputs: generator.Inputs{
			"inputValues": []float64{0.2, -0.4, 0.9}, "layerSizes": []int{3, 4, 4, 2}, "activationFunction": "relu",
		}},
		{Name: "tanh-single-layer", Inputs: generator.Inputs{
			"inputValues": []float64{1, -1}, "layerSizes": []int{2, 2}, "activationFunction": "tanh",
		}},
	},
}, feedforward)

func feedforward(in feedforwardInput) (step.Sequence, error) {
	sizes, x := in.LayerSizes, in.InputValues
	if len(x) != sizes[0] {
		return nil, generator.Preconditionf("inputValues has %d values but the input layer has %d neurons.", len(x), sizes[0])
	}
	if _, ok := Derivatives[in.ActivationFunction]; !ok {
		return nil, generator.Preconditionf("unknown activation function %q.", in.ActivationFunction)
	}
	net := newNetwork(sizes, in.ActivationFunction, in.Seed)
	activations := [][]float64{x}
	state := func() step.State {
		return step.State{
			"layerSizes":         sizes,
			"activations":        activations,
			"weights":            net.weights,
			"biases":             net.biases,
			"activationFunction": in.ActivationFunction,
		}
	}

	b := step.NewBuilder()
	b.Add(step.Step{
		ID:    "architecture",
		Title: "Network Architecture",
		Explanation: fmt.Sprintf("Feedforward network with %s: [%s]. Input layer has %s receiving values [%s]. Using %s activation. Weights initialized with Xavier initialization (seed: %q).",
			plural(len(sizes), "layer"), ints(sizes), plural(sizes[0], "neuron"), nums(x, ", "), in.ActivationFunction, in.Seed),
		State:         state(),
		VisualActions: activateLayer(0, x),
		CodeHighlight: step.Lines(2),
		Phase:         "initialization",
	})

	for l := 1; l < len(sizes); l++ {
		z, a, err := net.layer(l, activations[l-1])
		if err != nil {
			return nil, err
		}
		activations = append(activations, a)

		title := fmt.Sprintf("Forward Propagation → Hidden Layer %d", l)
		if l == net.last() {
			title = "Forward Propagation → Output Layer"
		}
		st := state()
		st["preActivations"] = z
		st["currentLayer"] = l
		b.Add(step.Step{
			ID:    fmt.Sprintf("propagate-%d", l),
			Title: title,
			Explanation: fmt.Sprintf("Layer %d computes z = W·a + b = [%s], then applies %s: a = [%s].",
				l, fixedN(z, 4), in.ActivationFunction, fixedN(a, 4)),
			State: st,
			VisualActions: append(
				[]step.VisualAction{step.Action("propagateSignal", step.P{"fromLayer": l - 1, "toLayer": l})},
				activateLayer(l, a)...,
			),
			CodeHighlight: step.Lines(3, 4),
			Phase:         "forward-propagation",
		})
	}

	out := activations[net.last()]
	b.Add(step.Step{
		ID:    "output",
		Title: "Network Output",
		Explanation: fmt.Sprintf("The forward pass is complete. The output layer produces [%s]. During training these outputs would be compared with targets to compute a loss.",
			fixedN(out, 4)),
		State:         state(),
		VisualActions: activateLayer(net.last(), out),
		CodeHighlight: step.Lines(5),
		IsTerminal:    true,
		Phase:         "result",
	})
	return b.Sequence(), nil
}

func ints(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ", ")
}
