package dl

import (
	"fmt"
	"strconv"

	"github.com/san-kum/stepviz/internal/generator"
	"github.com/san-kum/stepviz/internal/step"
)

const (
	lossMSE = "mse"
	lossBCE = "binary-cross-entropy"
)

type backpropInput struct {
	InputValues        []float64 `json:"inputValues"`
	Targets            []float64 `json:"targets"`
	LayerSizes         []int     `json:"layerSizes"`
	ActivationFunction string    `json:"activationFunction"`
	LossFunction       string    `json:"lossFunction"`
	LearningRate       float64   `json:"learningRate"`
	Seed               string    `json:"seed"`
}

var Backpropagation = generator.New(generator.Metadata{
	ID:          "backpropagation",
	Name:        "Backpropagation",
	Category:    generator.DeepLearning,
	Description: "One training step: forward pass, loss, backward pass and weight update.",
	Schema: generator.Schema{
		"inputValues": inputValuesField,
		"targets": {
			Type:     generator.TypeArray,
			Items:    generator.TypeNumber,
			Required: true,
			MinItems: 1,
			MaxItems: maxWidth,
			Min:      generator.Bound(-maxMagnitude),
			Max:      generator.Bound(maxMagnitude),
		},
		"layerSizes": layerSizesField,
		"activationFunction": {
			Type:     generator.TypeString,
			Required: true,
			Enum:     DifferentiableNames,
		},
		"lossFunction": {
			Type:     generator.TypeString,
			Required: true,
			Enum:     []string{lossMSE, lossBCE},
		},
		"learningRate": {
			Type:     generator.TypeNumber,
			Required: true,
			Min:      generator.Bound(1e-6),
			Max:      generator.Bound(10),
		},
		"seed": {Type: generator.TypeString, Description: "weight initialization seed"},
	},
	Defaults: generator.Inputs{
		"inputValues":        []float64{1, 0.5},
		"targets":            []float64{1},
		"layerSizes":         []int{2, 2, 1},
		"activationFunction": "sigmoid",
		"lossFunction":       lossMSE,
		"learningRate":       0.5,
		"seed":               "backprop",
	},
	Examples: []generator.Example{
		{Name: "cross-entropy", Inputs: generator.Inputs{
			"inputValues": []float64{0.5, -0.2, 0.1}, "targets": []float64{0, 1},
			"layerSizes": []int{3, 3, 2}, "lossFunction": lossBCE,
		}},
		{Name: "relu-regression", Inputs: generator.Inputs{
			"inputValues": []float64{1, 2}, "targets": []float64{0.5},
			"layerSizes": []int{2, 3, 3, 1}, "activationFunction": "relu", "learningRate": 0.1,
		}},
	},
}, backpropagation)

func backpropagation(in backpropInput) (step.Sequence, error) {
	sizes, x, y := in.LayerSizes, in.InputValues, in.Targets
	fn, lossFn, lr := in.ActivationFunction, in.LossFunction, in.LearningRate
	if len(x) != sizes[0] {
		return nil, generator.Preconditionf("inputValues has %d values but the input layer has %d neurons.", len(x), sizes[0])
	}
	if len(y) != sizes[len(sizes)-1] {
		return nil, generator.Preconditionf("targets has %d values but the output layer has %d neurons.", len(y), sizes[len(sizes)-1])
	}
	derivative, ok := Derivatives[fn]
	if !ok {
		return nil, generator.Preconditionf("unknown activation function %q.", fn)
	}
	if lossFn == lossBCE && fn != "sigmoid" {
		return nil, generator.Preconditionf("binary cross-entropy requires sigmoid activation on the output layer.")
	}

	net := newNetwork(sizes, fn, in.Seed)
	out := net.last()
	activations := [][]float64{x}
	pre := [][]float64{{}}
	state := func(extra step.State) step.State {
		s := step.State{
			"layerSizes":  sizes,
			"activations": activations,
			"weights":     net.weights,
			"targets":     y,
		}
		for k, v := range extra {
			s[k] = v
		}
		return s
	}

	b := step.NewBuilder()
	b.Add(step.Step{
		ID:            "forward-start",
		Title:         "Forward Pass Begins",
		Explanation:   fmt.Sprintf("Starting forward propagation with input [%s]. Target output: [%s].", nums(x, ", "), nums(y, ", ")),
		State:         state(nil),
		VisualActions: activateLayer(0, x),
		CodeHighlight: step.Lines(1, 2),
		Phase:         "forward",
	})

	for l := 1; l <= out; l++ {
		z, a, err := net.layer(l, activations[l-1])
		if err != nil {
			return nil, err
		}
		pre = append(pre, z)
		activations = append(activations, a)
		b.Add(step.Step{
			ID:    fmt.Sprintf("forward-layer-%d", l),
			Title: fmt.Sprintf("Forward: Layer %d", l),
			Explanation: fmt.Sprintf("Layer %d: z = W·a + b = [%s]. After %s: [%s].",
				l, fixedN(z, 4), fn, fixedN(a, 4)),
			State: state(step.State{"preActivations": z, "currentLayer": l}),
			VisualActions: append(
				[]step.VisualAction{step.Action("propagateSignal", step.P{"fromLayer": l - 1, "toLayer": l})},
				activateLayer(l, a)...,
			),
			CodeHighlight: step.Lines(3, 4, 5),
			Phase:         "forward",
		})
	}

	predictions := activations[out]
	k := len(predictions)
	loss, lossName := MSELoss(predictions, y), "MSE"
	if lossFn == lossBCE {
		loss, lossName = BCELoss(predictions, y), "BCE"
	}
	b.Add(step.Step{
		ID:    "compute-loss",
		Title: "Compute Loss",
		Explanation: fmt.Sprintf("Predictions: [%s]. Targets: [%s]. %s Loss = %.6f.",
			fixedN(predictions, 4), nums(y, ", "), lossName, loss),
		State: state(step.State{"loss": loss, "predictions": predictions}),
		VisualActions: []step.VisualAction{step.Action("showLoss", step.P{
			"loss": loss, "lossFunction": lossFn, "predictions": predictions, "targets": y,
		})},
		CodeHighlight: step.Lines(6),
		Phase:         "loss",
	})

	// delta[l][j] is ∂L/∂z for neuron j of layer l.
	delta := make([][]float64, len(sizes))
	delta[0] = []float64{}
	for l := 1; l < out; l++ {
		delta[l] = []float64{}
	}
	delta[out] = make([]float64, k)
	for j := range delta[out] {
		if lossFn == lossBCE {
			delta[out][j] = (predictions[j] - y[j]) / float64(k)
		} else {
			delta[out][j] = 2 / float64(k) * (predictions[j] - y[j]) * derivative(pre[out][j])
		}
	}
	form := fmt.Sprintf("delta = (2/%d)(a - y) * f'(z).", k)
	if lossFn == lossBCE {
		form = fmt.Sprintf("Using the simplified sigmoid+BCE form: delta = (a - y)/%d.", k)
	}
	b.Add(step.Step{
		ID:            "backward-output",
		Title:         "Backward: Output Layer Gradients",
		Explanation:   fmt.Sprintf("Computing error signals (delta) at the output layer: [%s]. %s", fixedN(delta[out], 6), form),
		State:         state(step.State{"loss": loss, "gradients": delta, "currentLayer": out}),
		VisualActions: []step.VisualAction{step.Action("showGradient", step.P{"layer": out, "gradients": delta[out]})},
		CodeHighlight: step.Lines(7, 8),
		Phase:         "backward",
	})

	for l := out - 1; l >= 1; l-- {
		next, nextDelta := net.weights[l+1], delta[l+1]
		delta[l] = make([]float64, sizes[l])
		for j := range delta[l] {
			var downstream float64
			for kk := range nextDelta {
				downstream += next[kk][j] * nextDelta[kk]
			}
			delta[l][j] = derivative(pre[l][j]) * downstream
		}
		b.Add(step.Step{
			ID:    fmt.Sprintf("backward-hidden-%d", l),
			Title: fmt.Sprintf("Backward: Hidden Layer %d", l),
			Explanation: fmt.Sprintf("Propagating gradients to layer %d. delta = f'(z) * (Wᵀ · delta_next): [%s].",
				l, fixedN(delta[l], 6)),
			State:         state(step.State{"loss": loss, "gradients": delta, "currentLayer": l}),
			VisualActions: []step.VisualAction{step.Action("showGradient", step.P{"layer": l, "gradients": delta[l]})},
			CodeHighlight: step.Lines(9, 10),
			Phase:         "backward",
		})
	}

	// Updates run after every delta is known, so the hidden-layer deltas
	// above used the pre-update weights.
	for l := 1; l <= out; l++ {
		prev := activations[l-1]
		old := step.Snapshot(net.weights[l])
		grads := make([][]float64, sizes[l])
		for j := range grads {
			grads[j] = make([]float64, sizes[l-1])
			for i := range grads[j] {
				grads[j][i] = delta[l][j] * prev[i]
				net.weights[l][j][i] -= lr * grads[j][i]
			}
			net.biases[l][j] -= lr * delta[l][j]
		}
		b.Add(step.Step{
			ID:    fmt.Sprintf("update-weights-%d", l),
			Title: fmt.Sprintf("Update Weights: Layer %d", l),
			Explanation: fmt.Sprintf("Updating weights for layer %d with learning rate η = %s. w_new = w_old - η * delta * a_prev.",
				l, strconv.FormatFloat(lr, 'f', -1, 64)),
			State: state(step.State{
				"biases":          net.biases,
				"loss":            loss,
				"gradients":       delta,
				"weightGradients": grads,
				"currentLayer":    l,
				"learningRate":    lr,
			}),
			VisualActions: []step.VisualAction{step.Action("updateWeights", step.P{
				"fromLayer":    l - 1,
				"toLayer":      l,
				"oldWeights":   old,
				"newWeights":   net.weights[l],
				"learningRate": lr,
			})},
			CodeHighlight: step.Lines(11, 12),
			Phase:         "update",
		})
	}

	b.Add(step.Step{
		ID:    "complete",
		Title: "Training Step Complete",
		Explanation: fmt.Sprintf("One complete training step finished. Loss: %.6f. All weights have been updated. In practice this repeats for many iterations until the loss converges.",
			loss),
		State:         state(step.State{"biases": net.biases, "loss": loss, "gradients": delta}),
		CodeHighlight: step.Lines(13),
		IsTerminal:    true,
		Phase:         "complete",
	})
	return b.Sequence(), nil
}
