package genai

import (
	"fmt"
	"math"

	"github.com/san-kum/stepviz/internal/generator"
	"github.com/san-kum/stepviz/internal/step"
)

type multiHeadInput struct {
	Tokens       []string `json:"tokens"`
	EmbeddingDim int      `json:"embeddingDim"`
	NumHeads     int      `json:"numHeads"`
}

var MultiHeadAttention = generator.New(generator.Metadata{
	ID:          "multi-head-attention",
	Name:        "Multi-Head Attention",
	Category:    generator.GenerativeAI,
	Description: "Run several attention heads in parallel subspaces, concatenate and project.",
	Schema: generator.Schema{
		"tokens":       tokensField,
		"embeddingDim": dimField,
		"numHeads": {
			Type:        generator.TypeInteger,
			Required:    true,
			Min:         generator.Bound(1),
			Max:         generator.Bound(16),
			Description: "number of attention heads; must divide embeddingDim",
		},
	},
	Defaults: generator.Inputs{"tokens": []string{"The", "cat", "sat", "on"}, "embeddingDim": 8, "numHeads": 2},
	Examples: []generator.Example{
		{Name: "single-head", Inputs: generator.Inputs{"tokens": []string{"The", "cat", "sat"}, "embeddingDim": 4, "numHeads": 1}},
		{Name: "four-heads", Inputs: generator.Inputs{"tokens": []string{"a", "b"}, "embeddingDim": 8, "numHeads": 4}},
	},
}, multiHeadAttention)

// head holds one head's intermediate matrices.
type head struct {
	q, k, v Matrix
	weights Matrix
	output  Matrix
}

func multiHeadAttention(in multiHeadInput) (step.Sequence, error) {
	tokens, d, n := in.Tokens, in.EmbeddingDim, in.NumHeads
	if d%n != 0 {
		return nil, generator.Preconditionf("d_model (%d) must be divisible by numHeads (%d). Got d_model %% numHeads = %d.", d, n, d%n)
	}
	seqLen, dk := len(tokens), d/n

	x := Embeddings(tokens, d)
	b := step.NewBuilder()

	b.Add(step.Step{
		ID:    "show-input",
		Title: "Multi-Head Attention Input",
		Explanation: fmt.Sprintf("Input: %d tokens with %d-dimensional embeddings. We will use %d attention heads, each operating on d_k = %d / %d = %d dimensions.",
			seqLen, d, n, d, n, dk),
		State:         step.State{"tokens": tokens, "embeddingDim": d, "numHeads": n, "d_k": dk, "X": x},
		CodeHighlight: step.Lines(1),
		Phase:         "initialization",
	})

	b.Add(step.Step{
		ID:    "explain-heads",
		Title: fmt.Sprintf("Why %d Heads?", n),
		Explanation: fmt.Sprintf("Each head learns different attention patterns. One head might focus on syntax, another on semantics. Each head projects the input into its own %d-dimensional Q, K, V subspaces.",
			dk),
		State:         step.State{"tokens": tokens, "numHeads": n, "d_k": dk},
		VisualActions: []step.VisualAction{message(fmt.Sprintf("%d heads × %d dims = %d total dims", n, dk, d), "info")},
		CodeHighlight: step.Lines(2),
		Phase:         "initialization",
	})

	scale := 1 / math.Sqrt(float64(dk))
	heads := make([]head, n)
	for h := range heads {
		phase := fmt.Sprintf("head-%d", h)
		var hd head
		hd.q = mustMul(x, WeightMatrix(fmt.Sprintf("W_Q_head%d", h), d, dk))
		hd.k = mustMul(x, WeightMatrix(fmt.Sprintf("W_K_head%d", h), d, dk))
		hd.v = mustMul(x, WeightMatrix(fmt.Sprintf("W_V_head%d", h), d, dk))

		b.Add(step.Step{
			ID:    fmt.Sprintf("head-%d-projections", h),
			Title: fmt.Sprintf("Head %d: Compute Q, K, V", h+1),
			Explanation: fmt.Sprintf("Head %d projects the input into its own Q, K, V matrices using separate learned weights. Each has shape [%d, %d].",
				h+1, seqLen, dk),
			State: step.State{"tokens": tokens, "activeHead": h, "totalHeads": n, "Q": hd.q, "K": hd.k, "V": hd.v},
			VisualActions: []step.VisualAction{
				step.Action("activateHead", step.P{"headIndex": h, "totalHeads": n}),
				message(fmt.Sprintf("Head %d: Q, K, V projections", h+1), "info"),
			},
			CodeHighlight: step.Lines(3, 4),
			Phase:         phase,
		})

		scores := Scale(mustMul(hd.q, Transpose(hd.k)), scale)
		b.Add(step.Step{
			ID:            fmt.Sprintf("head-%d-scores", h),
			Title:         fmt.Sprintf("Head %d: Attention Scores", h+1),
			Explanation:   fmt.Sprintf("Compute Q × Kᵀ / √%d for head %d. These are the scaled attention scores.", dk, h+1),
			State:         step.State{"tokens": tokens, "activeHead": h, "totalHeads": n, "scaledScores": scores},
			VisualActions: []step.VisualAction{step.Action("showAttentionScores", step.P{"scores": scores})},
			CodeHighlight: step.Lines(5),
			Phase:         phase,
		})

		hd.weights = SoftmaxRows(scores)
		b.Add(step.Step{
			ID:            fmt.Sprintf("head-%d-softmax", h),
			Title:         fmt.Sprintf("Head %d: Softmax", h+1),
			Explanation:   fmt.Sprintf("Apply softmax to get attention weights for head %d. Each row sums to 1.", h+1),
			State:         step.State{"tokens": tokens, "activeHead": h, "totalHeads": n, "attentionWeights": hd.weights},
			VisualActions: []step.VisualAction{step.Action("showFullAttentionMatrix", step.P{"weights": hd.weights})},
			CodeHighlight: step.Lines(6),
			Phase:         phase,
		})

		hd.output = mustMul(hd.weights, hd.v)
		b.Add(step.Step{
			ID:    fmt.Sprintf("head-%d-output", h),
			Title: fmt.Sprintf("Head %d: Output", h+1),
			Explanation: fmt.Sprintf("Multiply attention weights by V to get head %d's output. Shape: [%d, %d].",
				h+1, seqLen, dk),
			State: step.State{
				"tokens":           tokens,
				"activeHead":       h,
				"totalHeads":       n,
				"headOutput":       hd.output,
				"attentionWeights": hd.weights,
			},
			VisualActions: []step.VisualAction{step.Action("showFullAttentionMatrix", step.P{"weights": hd.weights})},
			CodeHighlight: step.Lines(7),
			Phase:         phase,
		})
		heads[h] = hd
	}

	concat := make(Matrix, seqLen)
	for i := range concat {
		row := make([]float64, 0, d)
		for _, hd := range heads {
			row = append(row, hd.output[i]...)
		}
		concat[i] = row
	}
	b.Add(step.Step{
		ID:    "concatenate",
		Title: "Concatenate All Heads",
		Explanation: fmt.Sprintf("Concatenate the outputs of all %d heads along the feature dimension. Each head produced [%d, %d], so the concatenation is [%d, %d].",
			n, seqLen, dk, seqLen, dk*n),
		State: step.State{"tokens": tokens, "concat": concat, "numHeads": n},
		VisualActions: []step.VisualAction{
			step.Action("showConcatenatedHeads", step.P{"matrix": concat}),
			message(fmt.Sprintf("Concatenated: [%d, %d]", seqLen, dk*n), "info"),
		},
		CodeHighlight: step.Lines(8),
		Phase:         "concatenation",
	})

	final := mustMul(concat, WeightMatrix("W_O", d, d))
	b.Add(step.Step{
		ID:    "final-projection",
		Title: "Final Linear Projection (W_O)",
		Explanation: fmt.Sprintf("Project the concatenated output through W_O to mix information across heads. Output shape: [%d, %d].",
			seqLen, d),
		State:         step.State{"tokens": tokens, "finalOutput": final},
		CodeHighlight: step.Lines(9),
		Phase:         "projection",
	})

	b.Add(step.Step{
		ID:    "complete",
		Title: "Multi-Head Attention Complete",
		Explanation: fmt.Sprintf("Multi-head attention is complete. %d heads each captured different relationships, and the final projection combined them into a [%d, %d] output.",
			n, seqLen, d),
		State:         step.State{"tokens": tokens, "finalOutput": final, "numHeads": n},
		VisualActions: []step.VisualAction{message("Multi-Head Attention complete", "success")},
		CodeHighlight: step.Lines(10),
		IsTerminal:    true,
		Phase:         "result",
	})
	return b.Sequence(), nil
}
