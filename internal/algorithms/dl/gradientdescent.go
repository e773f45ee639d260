package dl

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/stepviz/internal/generator"
	"github.com/san-kum/stepviz/internal/step"
)

type descentInput struct {
	StartX       float64 `json:"startX"`
	StartY       float64 `json:"startY"`
	LearningRate float64 `json:"learningRate"`
	Optimizer    string  `json:"optimizer"`
	NumSteps     int     `json:"numSteps"`
}

var coordField = generator.Field{
	Type:     generator.TypeNumber,
	Required: true,
	Min:      generator.Bound(-100),
	Max:      generator.Bound(100),
}

var GradientDescent = generator.New(generator.Metadata{
	ID:          "gradient-descent",
	Name:        "Gradient Descent",
	Category:    generator.DeepLearning,
	Description: "Trace an optimizer over the loss surface f(x, y) = x² + 3y².",
	Schema: generator.Schema{
		"startX": coordField,
		"startY": coordField,
		"learningRate": {
			Type:     generator.TypeNumber,
			Required: true,
			Min:      generator.Bound(0),
			Max:      generator.Bound(1),
		},
		"optimizer": {
			Type:     generator.TypeString,
			Required: true,
			Enum:     []string{"sgd", "momentum", "adam"},
		},
		"numSteps": {
			Type:     generator.TypeInteger,
			Required: true,
			Min:      generator.Bound(1),
			Max:      generator.Bound(maxSteps),
		},
	},
	Defaults: generator.Inputs{
		"startX":       3.0,
		"startY":       3.0,
		"learningRate": 0.1,
		"optimizer":    "sgd",
		"numSteps":     20,
	},
	Examples: []generator.Example{
		{Name: "momentum", Inputs: generator.Inputs{"optimizer": "momentum", "learningRate": 0.05}},
		{Name: "adam", Inputs: generator.Inputs{"optimizer": "adam", "learningRate": 0.3, "numSteps": 40}},
	},
}, gradientDescent)

func loss(p []float64) float64 {
	return p[0]*p[0] + 3*p[1]*p[1]
}

func gradient(p []float64) []float64 {
	return []float64{2 * p[0], 6 * p[1]}
}

type point struct {
	Parameters []float64 `json:"parameters"`
	Loss       float64   `json:"loss"`
}

func gradientDescent(in descentInput) (step.Sequence, error) {
	opt, err := NewOptimizer(in.Optimizer, in.LearningRate, 2)
	if err != nil {
		return nil, generator.Preconditionf("%v.", err)
	}
	lr, name := in.LearningRate, in.Optimizer
	params := []float64{in.StartX, in.StartY}
	trajectory := []point{{Parameters: params, Loss: loss(params)}}

	b := step.NewBuilder()
	initLoss, initGrad := loss(params), gradient(params)
	b.Add(step.Step{
		ID:    "initial",
		Title: "Initial Position",
		Explanation: fmt.Sprintf("Starting at (%.4f, %.4f) with loss = %.4f. Using %s optimizer with learning rate η = %s. Loss surface: f(x, y) = x² + 3y². Minimum at origin (0, 0).",
			params[0], params[1], initLoss, name, num(lr)),
		State: step.State{
			"parameters":   params,
			"loss":         initLoss,
			"gradient":     initGrad,
			"optimizer":    name,
			"learningRate": lr,
			"stepNumber":   0,
			"trajectory":   trajectory,
		},
		VisualActions: []step.VisualAction{
			step.Action("showLandscapePosition", step.P{"parameters": params, "loss": initLoss, "gradient": initGrad}),
			step.Action("showTrajectory", step.P{"trajectory": trajectory, "optimizer": name}),
		},
		CodeHighlight: step.Lines(1, 2),
		Phase:         "initialization",
	})

	for i := 1; i <= in.NumSteps; i++ {
		from, fromLoss := params, loss(params)
		params = opt.Step(params, gradient(params))
		toLoss, grad := loss(params), gradient(params)
		if math.IsNaN(toLoss) || toLoss > maxLoss {
			return nil, generator.Preconditionf(
				"%s with learning rate %s diverges at step %d (loss exceeds %g). Use a smaller learning rate.",
				name, num(lr), i, maxLoss)
		}
		trajectory = append(trajectory, point{Parameters: params, Loss: toLoss})

		last := i == in.NumSteps
		explanation := fmt.Sprintf("%s step %d/%d. Moved from (%.4f, %.4f) to (%.4f, %.4f). Loss: %.4f → %.4f.",
			strings.ToUpper(name), i, in.NumSteps, from[0], from[1], params[0], params[1], fromLoss, toLoss)
		if last {
			explanation += fmt.Sprintf(" Final position reached after %d steps.", in.NumSteps)
		}

		state := step.State{
			"parameters":   params,
			"loss":         toLoss,
			"gradient":     grad,
			"optimizer":    name,
			"learningRate": lr,
			"stepNumber":   i,
			"trajectory":   trajectory,
		}
		for k, v := range opt.Moments() {
			state[k] = v
		}

		b.Add(step.Step{
			ID:          fmt.Sprintf("step-%d", i),
			Title:       fmt.Sprintf("Step %d: Loss = %.4f", i, toLoss),
			Explanation: explanation,
			State:       state,
			VisualActions: []step.VisualAction{
				step.Action("showDescentStep", step.P{
					"fromParameters": from,
					"toParameters":   params,
					"fromLoss":       fromLoss,
					"toLoss":         toLoss,
					"optimizer":      name,
					"learningRate":   lr,
				}),
				step.Action("showLandscapePosition", step.P{"parameters": params, "loss": toLoss, "gradient": grad}),
				step.Action("showTrajectory", step.P{"trajectory": trajectory, "optimizer": name}),
			},
			CodeHighlight: step.Lines(5, 6),
			IsTerminal:    last,
			Phase:         "optimization",
		})
	}
	return b.Sequence(), nil
}
