package dl

import (
	"fmt"
	"strings"

	"github.com/san-kum/stepviz/internal/generator"
	"github.com/san-kum/stepviz/internal/step"
)

type convolutionInput struct {
	Input  [][]float64 `json:"input"`
	Kernel [][]float64 `json:"kernel"`
}

var gridField = generator.Field{
	Type:     generator.TypeArray,
	Items:    generator.TypeArray,
	Required: true,
	MinItems: 1,
	MaxItems: maxGrid,
	Min:      generator.Bound(-maxMagnitude),
	Max:      generator.Bound(maxMagnitude),
}

var Convolution = generator.New(generator.Metadata{
	ID:          "convolution",
	Name:        "2D Convolution",
	Category:    generator.DeepLearning,
	Description: "Slide a kernel over a grid, one output cell per step (valid padding, no flip).",
	Schema: generator.Schema{
		"input":  gridField,
		"kernel": gridField,
	},
	Defaults: generator.Inputs{
		"input": [][]float64{
			{1, 2, 3, 0},
			{4, 5, 6, 1},
			{7, 8, 9, 2},
			{0, 1, 2, 3},
		},
		"kernel": [][]float64{{1, 0}, {0, -1}},
	},
	Examples: []generator.Example{
		{Name: "edge-detect", Inputs: generator.Inputs{
			"input": [][]float64{
				{0, 0, 1, 1, 1},
				{0, 0, 1, 1, 1},
				{0, 0, 1, 1, 1},
				{0, 0, 1, 1, 1},
			},
			"kernel": [][]float64{{-1, 0, 1}, {-1, 0, 1}, {-1, 0, 1}},
		}},
		{Name: "kernel-equals-input", Inputs: generator.Inputs{
			"input":  [][]float64{{1, 2}, {3, 4}},
			"kernel": [][]float64{{1, 1}, {1, 1}},
		}},
	},
}, convolution)

// rectangular returns the width of g, or an error when rows differ in length.
func rectangular(name string, g [][]float64) (int, error) {
	w := len(g[0])
	if w == 0 || w > maxGrid {
		return 0, generator.Preconditionf("%s rows must have between 1 and %d columns.", name, maxGrid)
	}
	for r, row := range g {
		if len(row) != w {
			return 0, generator.Preconditionf("%s row %d has %d columns, expected %d.", name, r, len(row), w)
		}
	}
	return w, nil
}

func convolution(in convolutionInput) (step.Sequence, error) {
	grid, kernel := in.Input, in.Kernel
	w, err := rectangular("input", grid)
	if err != nil {
		return nil, err
	}
	kw, err := rectangular("kernel", kernel)
	if err != nil {
		return nil, err
	}
	h, kh := len(grid), len(kernel)
	if kh > h || kw > w {
		return nil, generator.Preconditionf("Kernel (%d×%d) must not exceed input (%d×%d).", kh, kw, h, w)
	}

	outH, outW := h-kh+1, w-kw+1
	output := make([][]float64, outH)
	for r := range output {
		output[r] = make([]float64, outW)
	}

	b := step.NewBuilder()
	b.Add(step.Step{
		ID:    "show-input",
		Title: "Input Grid & Kernel",
		Explanation: fmt.Sprintf("Input is a %d×%d grid. Kernel is %d×%d. Output will be %d×%d (valid convolution, no padding). The kernel slides across the input computing dot products at each position.",
			h, w, kh, kw, outH, outW),
		State: step.State{
			"inputGrid":    grid,
			"kernel":       kernel,
			"outputGrid":   output,
			"outputHeight": outH,
			"outputWidth":  outW,
		},
		CodeHighlight: step.Lines(1, 2, 3),
		Phase:         "initialization",
	})

	for r := 0; r < outH; r++ {
		for c := 0; c < outW; c++ {
			products := make([][]float64, kh)
			flat := make([]float64, 0, kh*kw)
			var sum float64
			for kr := range kernel {
				products[kr] = make([]float64, kw)
				for kc := range kernel[kr] {
					p := grid[r+kr][c+kc] * kernel[kr][kc]
					products[kr][kc] = p
					flat = append(flat, p)
					sum += p
				}
			}
			output[r][c] = sum

			b.Add(step.Step{
				ID:    fmt.Sprintf("conv-%d-%d", r, c),
				Title: fmt.Sprintf("Position (%d, %d): Sum = %s", r, c, num(sum)),
				Explanation: fmt.Sprintf("Kernel at input position (%d, %d). Element-wise products: [%s]. Sum = %s. This becomes output[%d][%d].",
					r, c, fixed2(flat), num(sum), r, c),
				State: step.State{
					"inputGrid":  grid,
					"kernel":     kernel,
					"outputGrid": output,
					"currentRow": r,
					"currentCol": c,
					"products":   products,
					"sum":        sum,
				},
				VisualActions: []step.VisualAction{
					step.Action("highlightKernelPosition", step.P{"row": r, "col": c, "kernelHeight": kh, "kernelWidth": kw}),
					step.Action("showConvolutionProducts", step.P{"row": r, "col": c, "products": products, "sum": sum}),
					step.Action("writeOutputCell", step.P{"row": r, "col": c, "value": sum}),
				},
				CodeHighlight: step.Lines(7, 8, 9, 10),
				Phase:         "convolution",
			})
		}
	}

	b.Add(step.Step{
		ID:    "complete",
		Title: "Convolution Complete",
		Explanation: fmt.Sprintf("Convolution complete. Output is a %d×%d feature map. Each output value is the sum of element-wise products between the kernel and the corresponding input patch.",
			outH, outW),
		State: step.State{
			"inputGrid":    grid,
			"kernel":       kernel,
			"outputGrid":   output,
			"outputHeight": outH,
			"outputWidth":  outW,
		},
		CodeHighlight: step.Lines(11),
		IsTerminal:    true,
		Phase:         "complete",
	})
	return b.Sequence(), nil
}

func fixed2(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%.2f", v)
	}
	return strings.Join(parts, ", ")
}
