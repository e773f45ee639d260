package genai

import (
	"fmt"
	"math"

	"github.com/san-kum/stepviz/internal/generator"
	"github.com/san-kum/stepviz/internal/step"
)

const maxFFNDim = 128

type transformerInput struct {
	Tokens       []string `json:"tokens"`
	EmbeddingDim int      `json:"embeddingDim"`
	FFNDim       int      `json:"ffnDim"`
	NumHeads     int      `json:"numHeads"`
}

var TransformerBlock = generator.New(generator.Metadata{
	ID:          "transformer-block",
	Name:        "Transformer Block",
	Category:    generator.GenerativeAI,
	Description: "One encoder block: self-attention, add & norm, feed-forward, add & norm.",
	Schema: generator.Schema{
		"tokens": tokensField,
		"embeddingDim": {
			Type:        generator.TypeInteger,
			Required:    true,
			Min:         generator.Bound(2),
			Max:         generator.Bound(maxDim),
			Description: "model dimension d_model",
		},
		"ffnDim": {
			Type:        generator.TypeInteger,
			Required:    true,
			Min:         generator.Bound(1),
			Max:         generator.Bound(maxFFNDim),
			Description: "hidden width of the feed-forward sublayer",
		},
		"numHeads": {
			Type:        generator.TypeInteger,
			Required:    true,
			Min:         generator.Bound(1),
			Max:         generator.Bound(16),
			Description: "attention heads; sets d_k = embeddingDim / numHeads",
		},
	},
	Defaults: generator.Inputs{"tokens": []string{"The", "cat", "sat"}, "embeddingDim": 4, "ffnDim": 8, "numHeads": 1},
	Examples: []generator.Example{
		{Name: "two-heads", Inputs: generator.Inputs{"tokens": []string{"I", "love", "AI", "!"}, "embeddingDim": 8, "ffnDim": 16, "numHeads": 2}},
	},
}, transformerBlock)

func sublayer(id, label string) step.VisualAction {
	return step.Action("activateSublayer", step.P{"sublayerId": id, "label": label})
}

func transformerBlock(in transformerInput) (step.Sequence, error) {
	tokens, d, ffn, n := in.Tokens, in.EmbeddingDim, in.FFNDim, in.NumHeads
	if d%n != 0 {
		return nil, generator.Preconditionf("d_model (%d) must be divisible by numHeads (%d). Got d_model %% numHeads = %d.", d, n, d%n)
	}
	seqLen, dk := len(tokens), d/n
	x := Embeddings(tokens, d)
	b := step.NewBuilder()

	b.Add(step.Step{
		ID:    "show-input",
		Title: "Input Embeddings",
		Explanation: fmt.Sprintf("The transformer block receives %d tokens as %d-dimensional embeddings. It will run them through self-attention, add & norm, a feed-forward network and a second add & norm.",
			seqLen, d),
		State:         step.State{"tokens": tokens, "embeddingDim": d, "X": x},
		VisualActions: []step.VisualAction{sublayer("input", "Input Embeddings")},
		CodeHighlight: step.Lines(1),
		Phase:         "input",
	})

	attnLabel := "Multi-Head Self-Attention"
	b.Add(step.Step{
		ID:    "self-attention-start",
		Title: "Self-Attention: Computing",
		Explanation: fmt.Sprintf("Running self-attention with %d head(s), d_k = %d. Computing Q, K, V projections, attention scores and weighted outputs.",
			n, dk),
		State:         step.State{"tokens": tokens},
		VisualActions: []step.VisualAction{sublayer("self-attention", attnLabel)},
		CodeHighlight: step.Lines(2, 3),
		Phase:         "self-attention",
	})

	// A single full-width pass stands in for the heads; numHeads only sets
	// the score scale.
	q := mustMul(x, WeightMatrix("block_W_Q", d, d))
	k := mustMul(x, WeightMatrix("block_W_K", d, d))
	v := mustMul(x, WeightMatrix("block_W_V", d, d))
	weights := SoftmaxRows(Scale(mustMul(q, Transpose(k)), 1/math.Sqrt(float64(dk))))
	attn := mustMul(weights, v)
	b.Add(step.Step{
		ID:    "self-attention-result",
		Title: "Self-Attention: Output",
		Explanation: fmt.Sprintf("Self-attention complete. Output shape: [%d, %d]. Next come the residual connection and layer normalization.",
			seqLen, d),
		State: step.State{"tokens": tokens, "attnOutput": attn, "attentionWeights": weights},
		VisualActions: []step.VisualAction{
			sublayer("self-attention", attnLabel),
			step.Action("showFullAttentionMatrix", step.P{"weights": weights}),
		},
		CodeHighlight: step.Lines(3),
		Phase:         "self-attention",
	})

	residual1, err := AddRows(x, attn)
	if err != nil {
		return nil, err
	}
	b.Add(step.Step{
		ID:          "residual-1",
		Title:       "Residual Connection + Add",
		Explanation: "Adding the self-attention output to the original input: result = input + self_attention(input). The residual path preserves the original signal.",
		State:       step.State{"tokens": tokens, "residual1": residual1},
		VisualActions: []step.VisualAction{
			sublayer("add-norm-1", "Add & Layer Norm"),
			step.Action("showResidualConnection", step.P{"input": x[0], "sublayerOutput": attn[0], "result": residual1[0]}),
		},
		CodeHighlight: step.Lines(4),
		Phase:         "add-norm-1",
	})

	norm1 := LayerNormRows(residual1)
	b.Add(step.Step{
		ID:          "layer-norm-1",
		Title:       "Layer Normalization",
		Explanation: "Applying layer normalization. Each token's vector is normalized to mean ≈ 0 and variance ≈ 1, which keeps activations in a stable range.",
		State:       step.State{"tokens": tokens, "norm1": norm1},
		VisualActions: []step.VisualAction{
			sublayer("add-norm-1", "Add & Layer Norm"),
			step.Action("showLayerNorm", step.P{"input": residual1[0], "output": norm1[0]}),
		},
		CodeHighlight: step.Lines(5),
		Phase:         "add-norm-1",
	})

	ffnLabel := "Feed-Forward Network"
	b.Add(step.Step{
		ID:    "ffn-start",
		Title: "Feed-Forward Network: Computing",
		Explanation: fmt.Sprintf("The FFN applies two linear maps with a ReLU between them: FFN(x) = ReLU(x × W₁ + b₁) × W₂ + b₂. W₁ expands from %d to %d dimensions and W₂ compresses back to %d.",
			d, ffn, d),
		State:         step.State{"tokens": tokens},
		VisualActions: []step.VisualAction{sublayer("ffn", ffnLabel)},
		CodeHighlight: step.Lines(6),
		Phase:         "ffn",
	})

	hidden := ReLURows(AddBias(mustMul(norm1, WeightMatrix("block_W1", d, ffn)), BiasVector("block_b1", ffn)))
	b.Add(step.Step{
		ID:    "ffn-expand",
		Title: "FFN: ReLU(x × W₁ + b₁)",
		Explanation: fmt.Sprintf("First layer: expand from %d to %d dimensions. ReLU(x) = max(0, x) zeroes out negative values.",
			d, ffn),
		State: step.State{"tokens": tokens, "hidden": hidden, "hiddenShape": []int{seqLen, ffn}},
		VisualActions: []step.VisualAction{
			sublayer("ffn", ffnLabel),
			message(fmt.Sprintf("Expanded: [%d, %d] → [%d, %d]", seqLen, d, seqLen, ffn), "info"),
		},
		CodeHighlight: step.Lines(7),
		Phase:         "ffn",
	})

	ffnOut := AddBias(mustMul(hidden, WeightMatrix("block_W2", ffn, d)), BiasVector("block_b2", d))
	b.Add(step.Step{
		ID:    "ffn-compress",
		Title: "FFN: × W₂ + b₂",
		Explanation: fmt.Sprintf("Second layer: compress from %d back to %d dimensions. Output shape: [%d, %d].",
			ffn, d, seqLen, d),
		State: step.State{"tokens": tokens, "ffnOutput": ffnOut},
		VisualActions: []step.VisualAction{
			sublayer("ffn", ffnLabel),
			message(fmt.Sprintf("Compressed: [%d, %d] → [%d, %d]", seqLen, ffn, seqLen, d), "info"),
		},
		CodeHighlight: step.Lines(8),
		Phase:         "ffn",
	})

	residual2, err := AddRows(norm1, ffnOut)
	if err != nil {
		return nil, err
	}
	b.Add(step.Step{
		ID:          "residual-2",
		Title:       "Residual Connection + Add",
		Explanation: "Adding the FFN output to its input (second residual connection): result = norm1 + FFN(norm1).",
		State:       step.State{"tokens": tokens, "residual2": residual2},
		VisualActions: []step.VisualAction{
			sublayer("add-norm-2", "Add & Layer Norm"),
			step.Action("showResidualConnection", step.P{"input": norm1[0], "sublayerOutput": ffnOut[0], "result": residual2[0]}),
		},
		CodeHighlight: step.Lines(9),
		Phase:         "add-norm-2",
	})

	norm2 := LayerNormRows(residual2)
	b.Add(step.Step{
		ID:          "layer-norm-2",
		Title:       "Layer Normalization",
		Explanation: "Second layer normalization. Each token's output has mean ≈ 0 and variance ≈ 1.",
		State:       step.State{"tokens": tokens, "norm2": norm2},
		VisualActions: []step.VisualAction{
			sublayer("add-norm-2", "Add & Layer Norm"),
			step.Action("showLayerNorm", step.P{"input": residual2[0], "output": norm2[0]}),
		},
		CodeHighlight: step.Lines(10),
		Phase:         "add-norm-2",
	})

	b.Add(step.Step{
		ID:    "complete",
		Title: "Transformer Block Complete",
		Explanation: fmt.Sprintf("The transformer block is complete: Self-Attention → Add & Norm → FFN → Add & Norm. Each token now carries context from every other token. Output shape: [%d, %d].",
			seqLen, d),
		State:         step.State{"tokens": tokens, "output": norm2},
		VisualActions: []step.VisualAction{sublayer("output", "Output")},
		CodeHighlight: step.Lines(11),
		IsTerminal:    true,
		Phase:         "result",
	})
	return b.Sequence(), nil
}
