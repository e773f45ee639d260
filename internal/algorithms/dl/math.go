package dl

import (
	"fmt"
	"math"
)

// Activation maps a pre-activation value to an output.
type Activation func(z float64) float64

// Activations by name.
var Activations = map[string]Activation{
	"sigmoid": Sigmoid,
	"relu":    ReLU,
	"tanh":    math.Tanh,
	"step":    Step,
}

// ActivationNames lists the keys of Activations in display order.
var ActivationNames = []string{"sigmoid", "relu", "tanh", "step"}

// Sigmoid saturates to exactly 0 or 1 beyond |z| > 500.
func Sigmoid(z float64) float64 {
	switch {
	case z > 500:
		return 1
	case z < -500:
		return 0
	}
	return 1 / (1 + math.Exp(-z))
}

func ReLU(z float64) float64 {
	return math.Max(0, z)
}

// Step is the classical perceptron threshold: 1 when z >= 0.
func Step(z float64) float64 {
	if z >= 0 {
		return 1
	}
	return 0
}

func DotProduct(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("dot product: vectors must be same length (%d vs %d)", len(a), len(b))
	}
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum, nil
}

// Optimizer advances params by one update given the gradient at params.
// Implementations carry their own moment state between calls.
type Optimizer interface {
	Step(params, grad []float64) []float64
	// Moments returns named optimizer state to expose in a step snapshot.
	Moments() map[string][]float64
}

// SGD is plain gradient descent: θ ← θ − η·g.
type SGD struct {
	LearningRate float64
}

func (o *SGD) Step(params, grad []float64) []float64 {
	out := make([]float64, len(params))
	for i, p := range params {
		out[i] = p - o.LearningRate*grad[i]
	}
	return out
}

func (o *SGD) Moments() map[string][]float64 { return nil }

// Momentum uses the Sutskever form: v ← βv + g, θ ← θ − ηv.
type Momentum struct {
	LearningRate float64
	Beta         float64
	velocity     []float64
}

func NewMomentum(lr float64, dim int) *Momentum {
	return &Momentum{LearningRate: lr, Beta: 0.9, velocity: make([]float64, dim)}
}

func (o *Momentum) Step(params, grad []float64) []float64 {
	out := make([]float64, len(params))
	for i, p := range params {
		o.velocity[i] = o.Beta*o.velocity[i] + grad[i]
		out[i] = p - o.LearningRate*o.velocity[i]
	}
	return out
}

func (o *Momentum) Moments() map[string][]float64 {
	return map[string][]float64{"velocity": append([]float64(nil), o.velocity...)}
}

// Adam keeps bias-corrected first and second moment estimates. The step
// counter starts at 1.
type Adam struct {
	LearningRate float64
	Beta1, Beta2 float64
	Epsilon      float64
	m, v         []float64
	t            int
}

func NewAdam(lr float64, dim int) *Adam {
	return &Adam{
		LearningRate: lr,
		Beta1:        0.9,
		Beta2:        0.999,
		Epsilon:      1e-8,
		m:            make([]float64, dim),
		v:            make([]float64, dim),
	}
}

func (o *Adam) Step(params, grad []float64) []float64 {
	o.t++
	bc1 := 1 - math.Pow(o.Beta1, float64(o.t))
	bc2 := 1 - math.Pow(o.Beta2, float64(o.t))
	out := make([]float64, len(params))
	for i, p := range params {
		g := grad[i]
		o.m[i] = o.Beta1*o.m[i] + (1-o.Beta1)*g
		o.v[i] = o.Beta2*o.v[i] + (1-o.Beta2)*g*g
		mHat := o.m[i] / bc1
		vHat := o.v[i] / bc2
		out[i] = p - o.LearningRate*mHat/(math.Sqrt(vHat)+o.Epsilon)
	}
	return out
}

func (o *Adam) Moments() map[string][]float64 {
	return map[string][]float64{
		"firstMoment":  append([]float64(nil), o.m...),
		"secondMoment": append([]float64(nil), o.v...),
	}
}

// NewOptimizer returns the optimizer registered under name.
func NewOptimizer(name string, lr float64, dim int) (Optimizer, error) {
	switch name {
	case "sgd":
		return &SGD{LearningRate: lr}, nil
	case "momentum":
		return NewMomentum(lr, dim), nil
	case "adam":
		return NewAdam(lr, dim), nil
	}
	return nil, fmt.Errorf("unknown optimizer %q", name)
}

// Derivatives of the differentiable activations, taken at the
// pre-activation z. ReLU'(0) is 0.
var Derivatives = map[string]Activation{
	"sigmoid": func(z float64) float64 { s := Sigmoid(z); return s * (1 - s) },
	"relu": func(z float64) float64 {
		if z > 0 {
			return 1
		}
		return 0
	},
	"tanh": func(z float64) float64 { t := math.Tanh(z); return 1 - t*t },
}

// DifferentiableNames lists the keys of Derivatives in display order.
var DifferentiableNames = []string{"sigmoid", "relu", "tanh"}

// MatVecMul returns m·v for a row-major m.
func MatVecMul(m [][]float64, v []float64) ([]float64, error) {
	out := make([]float64, len(m))
	for j, row := range m {
		d, err := DotProduct(row, v)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", j, err)
		}
		out[j] = d
	}
	return out, nil
}

func VecAdd(a, b []float64) ([]float64, error) {
	if len(a) != len(b) {
		return nil, fmt.Errorf("vector add: vectors must be same length (%d vs %d)", len(a), len(b))
	}
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] + b[i]
	}
	return out, nil
}

// MSELoss is (1/k)·Σ(ŷ−y)².
func MSELoss(pred, target []float64) float64 {
	var sum float64
	for i := range pred {
		d := pred[i] - target[i]
		sum += d * d
	}
	return sum / float64(len(pred))
}

// bceEpsilon clamps predictions away from 0 and 1 before taking logs.
const bceEpsilon = 1e-7

// BCELoss is −(1/k)·Σ(y·ln ŷ + (1−y)·ln(1−ŷ)).
func BCELoss(pred, target []float64) float64 {
	var sum float64
	for i := range pred {
		p := math.Min(math.Max(pred[i], bceEpsilon), 1-bceEpsilon)
		sum += target[i]*math.Log(p) + (1-target[i])*math.Log(1-p)
	}
	return -sum / float64(len(pred))
}
