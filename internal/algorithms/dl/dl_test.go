package dl

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/san-kum/stepviz/internal/generator"
	"github.com/san-kum/stepviz/internal/step"
)

func run(t *testing.T, def generator.Definition, overrides generator.Inputs) step.Sequence {
	t.Helper()
	seq, err := def.Run(generator.Resolve(def.Metadata().Defaults, overrides))
	if err != nil {
		t.Fatalf("%s: Run() error = %v", def.Metadata().ID, err)
	}
	if err := step.Validate(seq); err != nil {
		t.Fatalf("%s: Validate() error = %v", def.Metadata().ID, err)
	}
	if err := step.CheckFinite(seq); err != nil {
		t.Fatalf("%s: CheckFinite() error = %v", def.Metadata().ID, err)
	}
	return seq
}

func TestActivations(t *testing.T) {
	tests := []struct {
		name string
		fn   Activation
		z    float64
		want float64
	}{
		{"sigmoid zero", Sigmoid, 0, 0.5},
		{"sigmoid saturates high", Sigmoid, 501, 1},
		{"sigmoid saturates low", Sigmoid, -501, 0},
		{"relu negative", ReLU, -2, 0},
		{"relu positive", ReLU, 2.5, 2.5},
		{"step at zero", Step, 0, 1},
		{"step negative", Step, -0.01, 0},
		{"tanh zero", Activations["tanh"], 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(tt.z); got != tt.want {
				t.Errorf("f(%v) = %v, want %v", tt.z, got, tt.want)
			}
		})
	}
}

func TestOptimizersConverge(t *testing.T) {
	for _, name := range []string{"sgd", "momentum", "adam"} {
		t.Run(name, func(t *testing.T) {
			opt, err := NewOptimizer(name, 0.05, 2)
			if err != nil {
				t.Fatal(err)
			}
			p := []float64{3, 3}
			start := loss(p)
			for i := 0; i < 200; i++ {
				p = opt.Step(p, gradient(p))
			}
			if got := loss(p); got >= start/100 {
				t.Errorf("loss after 200 steps = %v, want < %v", got, start/100)
			}
		})
	}

	if _, err := NewOptimizer("rmsprop", 0.1, 2); err == nil {
		t.Error("NewOptimizer(rmsprop) succeeded, want error")
	}
}

func TestAdamFirstStep(t *testing.T) {
	// Bias correction makes the first Adam step exactly lr in the gradient's sign.
	opt := NewAdam(0.1, 1)
	got := opt.Step([]float64{1}, []float64{4})
	if math.Abs(got[0]-0.9) > 1e-6 {
		t.Errorf("Step() = %v, want ~0.9", got[0])
	}
}

func TestDefaultsAndExamplesValidate(t *testing.T) {
	for _, def := range Definitions() {
		meta := def.Metadata()
		t.Run(meta.ID, func(t *testing.T) {
			run(t, def, nil)
			for _, ex := range meta.Examples {
				run(t, def, ex.Inputs)
			}
		})
	}
}

func TestPerceptron(t *testing.T) {
	tests := []struct {
		name string
		in   generator.Inputs
		want float64
	}{
		{"default sigmoid", nil, Sigmoid(0.16)},
		{"step fires", generator.Inputs{"inputs": []float64{1, 1}, "weights": []float64{1, 1}, "bias": -1.5, "activationFunction": "step"}, 1},
		{"relu clamps", generator.Inputs{"inputs": []float64{1, 2, 3}, "weights": []float64{-1, -1, 0.5}, "bias": 0, "activationFunction": "relu"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq := run(t, Perceptron, tt.in)
			if len(seq) != 6 {
				t.Errorf("len(seq) = %d, want 6", len(seq))
			}
			last := seq.Last()
			if last.ID != "output" {
				t.Errorf("terminal id = %q, want output", last.ID)
			}
			if got := last.State["output"].(float64); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("output = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPerceptronLengthMismatch(t *testing.T) {
	_, err := Perceptron.Run(generator.Resolve(Perceptron.Metadata().Defaults, generator.Inputs{"weights": []float64{1}}))
	if !errors.Is(err, generator.ErrPrecondition) {
		t.Errorf("Run() error = %v, want ErrPrecondition", err)
	}
}

func TestConvolution(t *testing.T) {
	seq := run(t, Convolution, nil)
	if len(seq) != 1+9+1 {
		t.Fatalf("len(seq) = %d, want 11", len(seq))
	}
	if seq[1].ID != "conv-0-0" || seq[9].ID != "conv-2-2" {
		t.Errorf("ids = %v, want conv-0-0 .. conv-2-2", seq.IDs())
	}

	want := []any{
		[]any{-4.0, -4.0, 2.0},
		[]any{-4.0, -4.0, 4.0},
		[]any{6.0, 6.0, 6.0},
	}
	if diff := cmp.Diff(want, seq.Last().State["outputGrid"]); diff != "" {
		t.Errorf("outputGrid mismatch (-want +got):\n%s", diff)
	}

	partial := seq[1].State["outputGrid"].([]any)
	if partial[2].([]any)[2] != 0.0 {
		t.Errorf("outputGrid at first position = %v, want untouched cells at 0", partial)
	}
}

func TestConvolutionPreconditions(t *testing.T) {
	tests := []struct {
		name string
		in   generator.Inputs
		want string
	}{
		{
			"kernel too large",
			generator.Inputs{"input": [][]float64{{1, 2}}, "kernel": [][]float64{{1}, {1}}},
			"convolution: Kernel (2×1) must not exceed input (1×2).",
		},
		{
			"ragged input",
			generator.Inputs{"input": [][]float64{{1, 2}, {3}}},
			"convolution: input row 1 has 1 columns, expected 2.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Convolution.Run(generator.Resolve(Convolution.Metadata().Defaults, tt.in))
			if !errors.Is(err, generator.ErrPrecondition) {
				t.Fatalf("Run() error = %v, want ErrPrecondition", err)
			}
			if err.Error() != tt.want {
				t.Errorf("Error() = %q, want %q", err.Error(), tt.want)
			}
		})
	}
}

func TestGradientDescent(t *testing.T) {
	for _, opt := range []string{"sgd", "momentum", "adam"} {
		t.Run(opt, func(t *testing.T) {
			seq := run(t, GradientDescent, generator.Inputs{"optimizer": opt, "numSteps": 5})
			if len(seq) != 6 {
				t.Fatalf("len(seq) = %d, want 6", len(seq))
			}
			last := seq.Last()
			if last.ID != "step-5" {
				t.Errorf("terminal id = %q, want step-5", last.ID)
			}
			if n := len(last.State["trajectory"].([]any)); n != 6 {
				t.Errorf("trajectory length = %d, want 6", n)
			}
			if last.State["loss"].(float64) >= seq[0].State["loss"].(float64) {
				t.Errorf("loss did not decrease: %v -> %v", seq[0].State["loss"], last.State["loss"])
			}
			_, hasVelocity := last.State["velocity"]
			_, hasMoment := last.State["firstMoment"]
			if hasVelocity != (opt == "momentum") || hasMoment != (opt == "adam") {
				t.Errorf("optimizer state keys = %v", last.State)
			}
		})
	}
}

func TestGradientDescentSGDTrajectory(t *testing.T) {
	last := run(t, GradientDescent, nil).Last()
	p := last.State["parameters"].([]any)
	x, y := p[0].(float64), p[1].(float64)
	if math.Abs(x-3*math.Pow(0.8, 20)) > 1e-12 || math.Abs(y-3*math.Pow(0.4, 20)) > 1e-12 {
		t.Errorf("parameters = (%v, %v), want (3·0.8²⁰, 3·0.4²⁰)", x, y)
	}
}

func TestGradientDescentLimits(t *testing.T) {
	for _, in := range []generator.Inputs{
		{"numSteps": 0},
		{"numSteps": maxSteps + 1},
		{"optimizer": "rmsprop"},
	} {
		_, err := GradientDescent.Run(generator.Resolve(GradientDescent.Metadata().Defaults, in))
		if !errors.Is(err, generator.ErrInvalidInput) {
			t.Errorf("Run(%v) error = %v, want ErrInvalidInput", in, err)
		}
	}
}

func TestMagnitudeLimits(t *testing.T) {
	tests := []struct {
		name string
		def  generator.Definition
		in   generator.Inputs
	}{
		{"perceptron inputs", Perceptron, generator.Inputs{"inputs": []float64{1e300, 1e300}, "weights": []float64{1e300, 1e300}}},
		{"perceptron bias", Perceptron, generator.Inputs{"bias": -2e6}},
		{"convolution input", Convolution, generator.Inputs{"input": [][]float64{{1, 2}, {3, 1e300}}}},
		{"convolution kernel", Convolution, generator.Inputs{"kernel": [][]float64{{-1e7}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.def.Run(generator.Resolve(tt.def.Metadata().Defaults, tt.in))
			if !errors.Is(err, generator.ErrInvalidInput) {
				t.Errorf("Run() error = %v, want ErrInvalidInput", err)
			}
		})
	}

	seq := run(t, Perceptron, generator.Inputs{"inputs": []float64{maxMagnitude, maxMagnitude}, "weights": []float64{maxMagnitude, maxMagnitude}, "bias": maxMagnitude})
	if seq.Last().ID != "output" {
		t.Errorf("terminal id = %q, want output", seq.Last().ID)
	}
}

func TestGradientDescentDiverges(t *testing.T) {
	in := generator.Inputs{"learningRate": 1.0, "numSteps": maxSteps}
	_, err := GradientDescent.Run(generator.Resolve(GradientDescent.Metadata().Defaults, in))
	if !errors.Is(err, generator.ErrPrecondition) {
		t.Errorf("Run() error = %v, want ErrPrecondition", err)
	}
}
