package genai

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/san-kum/stepviz/internal/generator"
)

func TestLayerNorm(t *testing.T) {
	out := LayerNorm([]float64{1, 2, 3, 4})
	var mean, variance float64
	for _, v := range out {
		mean += v
	}
	mean /= 4
	for _, v := range out {
		variance += (v - mean) * (v - mean)
	}
	variance /= 4
	if math.Abs(mean) > 1e-9 || math.Abs(variance-1) > 1e-4 {
		t.Errorf("mean = %v, variance = %v, want 0 and ~1", mean, variance)
	}

	for _, v := range LayerNorm([]float64{5, 5, 5}) {
		if v != 0 {
			t.Errorf("constant row normalized to %v, want 0", v)
		}
	}
	if got := LayerNorm(nil); len(got) != 0 {
		t.Errorf("LayerNorm(nil) = %v", got)
	}
}

func TestAddRowsShape(t *testing.T) {
	if _, err := AddRows(Matrix{{1, 2}}, Matrix{{1}}); !errors.Is(err, ErrShape) {
		t.Errorf("AddRows() error = %v, want ErrShape", err)
	}
}

func TestTransformerBlock(t *testing.T) {
	seq := run(t, TransformerBlock, nil)
	want := []string{
		"show-input", "self-attention-start", "self-attention-result", "residual-1", "layer-norm-1",
		"ffn-start", "ffn-expand", "ffn-compress", "residual-2", "layer-norm-2", "complete",
	}
	if diff := cmp.Diff(want, seq.IDs()); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}

	x := Embeddings([]string{"The", "cat", "sat"}, 4)
	attn := matrix(t, seq[2].State["attnOutput"])
	residual := matrix(t, seq[3].State["residual1"])
	for i := range residual {
		for j := range residual[i] {
			if got, want := residual[i][j], x[i][j]+attn[i][j]; math.Abs(got-want) > 1e-9 {
				t.Errorf("residual1[%d][%d] = %v, want %v", i, j, got, want)
			}
		}
	}

	for _, key := range []string{"norm1", "norm2"} {
		idx := 4
		if key == "norm2" {
			idx = 9
		}
		for i, row := range matrix(t, seq[idx].State[key]) {
			var mean, variance float64
			for _, v := range row {
				mean += v
			}
			mean /= float64(len(row))
			for _, v := range row {
				variance += (v - mean) * (v - mean)
			}
			variance /= float64(len(row))
			if math.Abs(mean) > 1e-6 || math.Abs(variance-1) > 1e-3 {
				t.Errorf("%s row %d: mean = %v, variance = %v", key, i, mean, variance)
			}
		}
	}

	hidden := matrix(t, seq[6].State["hidden"])
	if len(hidden) != 3 || len(hidden[0]) != 8 {
		t.Errorf("hidden shape = [%d, %d], want [3, 8]", len(hidden), len(hidden[0]))
	}
	for _, row := range hidden {
		for _, v := range row {
			if v < 0 {
				t.Errorf("hidden value %v survived ReLU", v)
			}
		}
	}

	out := matrix(t, seq.Last().State["output"])
	if diff := cmp.Diff(matrix(t, seq[9].State["norm2"]), out); diff != "" {
		t.Errorf("output differs from norm2:\n%s", diff)
	}
}

func TestTransformerBlockRejectsIndivisibleDim(t *testing.T) {
	in := generator.Resolve(TransformerBlock.Metadata().Defaults, generator.Inputs{"embeddingDim": 6, "numHeads": 4})
	if _, err := TransformerBlock.Run(in); !errors.Is(err, generator.ErrPrecondition) {
		t.Errorf("Run() error = %v, want ErrPrecondition", err)
	}
}
