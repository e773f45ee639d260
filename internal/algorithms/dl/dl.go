// Package dl implements step generators for deep-learning fundamentals.
// Feedforward and backpropagation share the seeded network model in
// network.go. Convolution and gradient descent work on a fixed grid and a
// fixed loss surface.
package dl

import (
	"strconv"
	"strings"

	"github.com/san-kum/stepviz/internal/generator"
)

const (
	maxFeatures = 32
	maxGrid     = 16
	maxSteps    = 200

	// maxMagnitude bounds numeric inputs so sums and products stay finite.
	maxMagnitude = 1e6
	// maxLoss is the loss beyond which a descent counts as diverged.
	maxLoss = 1e12
)

func Definitions() []generator.Definition {
	return []generator.Definition{Perceptron, FeedforwardNetwork, Backpropagation, Convolution, GradientDescent}
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func nums(values []float64, sep string) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = num(v)
	}
	return strings.Join(parts, sep)
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return strconv.Itoa(n) + " " + word + "s"
}
