package genai

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/stepviz/internal/generator"
	"github.com/san-kum/stepviz/internal/step"
)

type attentionInput struct {
	Tokens       []string `json:"tokens"`
	EmbeddingDim int      `json:"embeddingDim"`
}

var SelfAttention = generator.New(generator.Metadata{
	ID:          "self-attention",
	Name:        "Self-Attention",
	Category:    generator.GenerativeAI,
	Description: "Scaled dot-product attention: project to Q, K, V, score, softmax and mix.",
	Schema: generator.Schema{
		"tokens":       tokensField,
		"embeddingDim": dimField,
	},
	Defaults: generator.Inputs{"tokens": []string{"The", "cat", "sat"}, "embeddingDim": 4},
	Examples: []generator.Example{
		{Name: "identical-tokens", Inputs: generator.Inputs{"tokens": []string{"a", "a", "a", "a"}, "embeddingDim": 4}},
		{Name: "longer", Inputs: generator.Inputs{"tokens": []string{"I", "love", "machine", "learning", "today"}, "embeddingDim": 6}},
	},
}, selfAttention)

func selfAttention(in attentionInput) (step.Sequence, error) {
	tokens, d := in.Tokens, in.EmbeddingDim
	seqLen, dk := len(tokens), d

	x := Embeddings(tokens, d)
	b := step.NewBuilder()

	embeds := make([]step.VisualAction, seqLen)
	for i := range x {
		embeds[i] = showEmbedding(i, x[i])
	}
	b.Add(step.Step{
		ID:    "show-input",
		Title: "Input Embeddings",
		Explanation: fmt.Sprintf("Starting with %d tokens, each represented as a %d-dimensional embedding vector. These embeddings are the input matrix X with shape [%d, %d].",
			seqLen, d, seqLen, d),
		State:         step.State{"tokens": tokens, "embeddingDim": d, "X": x, "phase": "input"},
		VisualActions: embeds,
		CodeHighlight: step.Lines(1),
		Phase:         "input",
	})

	roles := []struct{ name, word, role string }{
		{"Q", "Query", `The query represents "what is this token looking for?"`},
		{"K", "Key", `The key represents "what does this token contain?"`},
		{"V", "Value", `The value represents "what information does this token provide?"`},
	}
	proj := make(map[string]Matrix, 3)
	for line, r := range roles {
		w := WeightMatrix("W_"+r.name, d, dk)
		m := mustMul(x, w)
		proj[r.name] = m

		b.Add(step.Step{
			ID:    "compute-" + strings.ToLower(r.name),
			Title: fmt.Sprintf("Compute %s Matrix (%s)", r.word, r.name),
			Explanation: fmt.Sprintf("%s = X × W_%s. Each token's embedding is projected into %q space. %s Shape: [%d, %d] × [%d, %d] = [%d, %d].",
				r.name, r.name, strings.ToLower(r.word), r.role, seqLen, d, d, dk, seqLen, dk),
			State: step.State{"tokens": tokens, r.name: m, "W_" + r.name: w, "phase": "projection"},
			VisualActions: []step.VisualAction{
				step.Action("showProjectionMatrix", step.P{"projectionType": r.name, "matrix": m}),
				message(fmt.Sprintf("%s = X × W_%s → shape [%d, %d]", r.name, r.name, seqLen, dk), "info"),
			},
			CodeHighlight: step.Lines(line + 2),
			Phase:         "projection",
		})
	}

	raw := mustMul(proj["Q"], Transpose(proj["K"]))
	b.Add(step.Step{
		ID:    "compute-scores",
		Title: "Compute Attention Scores (Q × Kᵀ)",
		Explanation: fmt.Sprintf("Multiply Q by the transpose of K to get raw attention scores. scores[i][j] = dot(Q[i], K[j]) measures how much token i's query matches token j's key. Shape: [%d, %d] × [%d, %d] = [%d, %d].",
			seqLen, dk, dk, seqLen, seqLen, seqLen),
		State: step.State{"tokens": tokens, "rawScores": raw, "phase": "scores"},
		VisualActions: []step.VisualAction{
			step.Action("showAttentionScores", step.P{"scores": raw}),
			message("Raw scores = Q × Kᵀ (before scaling)", "info"),
		},
		CodeHighlight: step.Lines(5),
		Phase:         "scores",
	})

	factor := math.Sqrt(float64(dk))
	scaled := Scale(raw, 1/factor)
	b.Add(step.Step{
		ID:    "scale-scores",
		Title: fmt.Sprintf("Scale by 1/√d_k = 1/√%d ≈ %.4f", dk, 1/factor),
		Explanation: fmt.Sprintf(`Divide all scores by √d_k = √%d ≈ %.4f. Without scaling, large dot products would push softmax into regions with extremely small gradients, making training difficult. This is the "scaled" in "Scaled Dot-Product Attention."`,
			dk, factor),
		State: step.State{"tokens": tokens, "scaledScores": scaled, "scaleFactor": factor, "phase": "scaling"},
		VisualActions: []step.VisualAction{
			step.Action("showAttentionScores", step.P{"scores": scaled}),
			message(fmt.Sprintf("Scaled scores = scores / √%d", dk), "info"),
		},
		CodeHighlight: step.Lines(6),
		Phase:         "scaling",
	})

	weights := SoftmaxRows(scaled)
	b.Add(step.Step{
		ID:            "apply-softmax",
		Title:         "Apply Softmax (Row-wise)",
		Explanation:   "Apply softmax to each row independently. This converts raw scores into a probability distribution: each row sums to exactly 1.0. Higher values mean the query token pays more attention to that key token. Uses numerically stable softmax: subtract the row maximum before exponentiating.",
		State:         step.State{"tokens": tokens, "attentionWeights": weights, "phase": "softmax"},
		VisualActions: []step.VisualAction{step.Action("showFullAttentionMatrix", step.P{"weights": weights})},
		CodeHighlight: step.Lines(7),
		Phase:         "softmax",
	})

	v := proj["V"]
	output := make(Matrix, seqLen)
	for q := 0; q < seqLen; q++ {
		row := weights[q]
		context := make([]float64, dk)
		for j := 0; j < seqLen; j++ {
			for dim := 0; dim < dk; dim++ {
				context[dim] += row[j] * v[j][dim]
			}
		}
		output[q] = context

		maxWeight, maxKey := 0.0, 0
		terms := make([]string, seqLen)
		for j, w := range row {
			if w > maxWeight {
				maxWeight, maxKey = w, j
			}
			terms[j] = fmt.Sprintf("%.2f×V[%d]", w, j)
		}

		b.Add(step.Step{
			ID:    "per-query-attention",
			Title: fmt.Sprintf("%q Attends To...", tokens[q]),
			Explanation: fmt.Sprintf("Token %q (query %d) pays most attention to %q (weight: %.4f). The output for this token is a weighted average of all value vectors: output[%d] = %s.",
				tokens[q], q, tokens[maxKey], maxWeight, q, strings.Join(terms, " + ")),
			State: step.State{
				"tokens":           tokens,
				"attentionWeights": weights,
				"currentQuery":     q,
				"queryWeights":     row,
				"contextVector":    context,
				"maxAttendedToken": maxKey,
				"maxWeight":        maxWeight,
				"phase":            "output",
			},
			VisualActions: []step.VisualAction{
				step.Action("showFullAttentionMatrix", step.P{"weights": weights}),
				step.Action("showAttentionWeights", step.P{"queryIdx": q, "weights": row}),
				step.Action("showWeightedValues", step.P{"queryIdx": q, "contextVector": context}),
			},
			CodeHighlight: step.Lines(8, 9),
			Phase:         "output",
		})
	}

	b.Add(step.Step{
		ID:    "complete",
		Title: "Self-Attention Complete",
		Explanation: fmt.Sprintf("Self-attention is complete. Each of the %d tokens now has a new representation that incorporates context from all other tokens in the sequence. The output matrix has shape [%d, %d], same as the input.",
			seqLen, seqLen, dk),
		State:         step.State{"tokens": tokens, "attentionWeights": weights, "output": output, "phase": "complete"},
		VisualActions: []step.VisualAction{step.Action("showFullAttentionMatrix", step.P{"weights": weights})},
		CodeHighlight: step.Lines(10),
		IsTerminal:    true,
		Phase:         "result",
	})
	return b.Sequence(), nil
}
