package dl

import (
	"math"
	"strconv"
	"strings"

	"github.com/san-kum/stepviz/internal/algorithms/genai"
	"github.com/san-kum/stepviz/internal/generator"
	"github.com/san-kum/stepviz/internal/step"
)

const (
	maxLayers = 6
	maxWidth  = 8

	initialBias = 0.01
)

var layerSizesField = generator.Field{
	Type:        generator.TypeArray,
	Items:       generator.TypeInteger,
	Required:    true,
	MinItems:    2,
	MaxItems:    maxLayers,
	Min:         generator.Bound(1),
	Max:         generator.Bound(maxWidth),
	Description: "neurons per layer, input layer first",
}

var inputValuesField = generator.Field{
	Type:        generator.TypeArray,
	Items:       generator.TypeNumber,
	Required:    true,
	MinItems:    1,
	MaxItems:    maxWidth,
	Min:         generator.Bound(-maxMagnitude),
	Max:         generator.Bound(maxMagnitude),
	Description: "values fed to the input layer",
}

// network is a fully connected stack. Index 0 of weights and biases is the
// input layer and stays empty, so weights[l] maps layer l-1 to layer l.
type network struct {
	sizes   []int
	weights [][][]float64
	biases  [][]float64
	fn      string
}

// newNetwork draws Xavier-uniform weights from the seeded PRNG, row by row,
// and sets every bias to initialBias.
func newNetwork(sizes []int, fn, seed string) *network {
	rng := genai.SeedRandom(seed)
	n := &network{
		sizes:   sizes,
		weights: [][][]float64{{}},
		biases:  [][]float64{{}},
		fn:      fn,
	}
	for l := 1; l < len(sizes); l++ {
		nIn, nOut := sizes[l-1], sizes[l]
		limit := math.Sqrt(6 / float64(nIn+nOut))
		w := make([][]float64, nOut)
		for j := range w {
			w[j] = make([]float64, nIn)
			for i := range w[j] {
				w[j][i] = (rng()*2 - 1) * limit
			}
		}
		bias := make([]float64, nOut)
		for j := range bias {
			bias[j] = initialBias
		}
		n.weights = append(n.weights, w)
		n.biases = append(n.biases, bias)
	}
	return n
}

// layer computes z = W·a + b and f(z) for layer l given the previous
// layer's activations.
func (n *network) layer(l int, prev []float64) (z, a []float64, err error) {
	wa, err := MatVecMul(n.weights[l], prev)
	if err != nil {
		return nil, nil, err
	}
	if z, err = VecAdd(wa, n.biases[l]); err != nil {
		return nil, nil, err
	}
	activate := Activations[n.fn]
	a = make([]float64, len(z))
	for j, v := range z {
		a[j] = activate(v)
	}
	return z, a, nil
}

func (n *network) last() int { return len(n.sizes) - 1 }

func activateLayer(l int, values []float64) []step.VisualAction {
	out := make([]step.VisualAction, len(values))
	for i, v := range values {
		out[i] = step.Action("activateNeuron", step.P{"layer": l, "neuronIndex": i, "value": v})
	}
	return out
}

func fixedN(values []float64, prec int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(v, 'f', prec, 64)
	}
	return strings.Join(parts, ", ")
}
