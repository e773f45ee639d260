package genai

import (
	"fmt"
	"math"

	"github.com/san-kum/stepviz/internal/generator"
	"github.com/san-kum/stepviz/internal/step"
)

type embeddingInput struct {
	Tokens       []string `json:"tokens"`
	EmbeddingDim int      `json:"embeddingDim"`
}

var TokenEmbeddings = generator.New(generator.Metadata{
	ID:          "token-embeddings",
	Name:        "Token Embeddings",
	Category:    generator.GenerativeAI,
	Description: "Look tokens up in an embedding table and compare them by cosine similarity.",
	Schema: generator.Schema{
		"tokens":       tokensField,
		"embeddingDim": dimField,
	},
	Defaults: generator.Inputs{"tokens": []string{"king", "queen", "apple"}, "embeddingDim": 6},
	Examples: []generator.Example{
		{Name: "single-token", Inputs: generator.Inputs{"tokens": []string{"hello"}, "embeddingDim": 4}},
		{Name: "repeated", Inputs: generator.Inputs{"tokens": []string{"the", "the"}, "embeddingDim": 4}},
	},
}, tokenEmbeddings)

// tableEmbedding seeds directly on the token, unlike Embeddings.
func tableEmbedding(token string, dim int) []float64 {
	rng := SeedRandom(token)
	row := make([]float64, dim)
	for j := range row {
		row[j] = round3(rng()*2000 - 1000)
	}
	return row
}

func tokenEmbeddings(in embeddingInput) (step.Sequence, error) {
	tokens, d := in.Tokens, in.EmbeddingDim
	emb := make(Matrix, len(tokens))
	for i, tok := range tokens {
		emb[i] = tableEmbedding(tok, d)
	}

	b := step.NewBuilder()
	highlights := make([]step.VisualAction, len(tokens))
	for i := range tokens {
		highlights[i] = step.Action("highlightToken", step.P{"index": i})
	}
	b.Add(step.Step{
		ID:    "show-tokens",
		Title: "Input Token Sequence",
		Explanation: fmt.Sprintf("We have %d tokens: [%s]. Each token will be mapped to a %d-dimensional embedding vector.",
			len(tokens), quoted(tokens), d),
		State:         step.State{"tokens": tokens, "embeddingDim": d, "embeddings": []any{}},
		VisualActions: highlights,
		CodeHighlight: step.Lines(1, 2),
		Phase:         "initialization",
	})

	for i, tok := range tokens {
		b.Add(step.Step{
			ID:    "lookup-embedding",
			Title: fmt.Sprintf("Embed Token: %q", tok),
			Explanation: fmt.Sprintf("Looking up the embedding for token %q (index %d). The embedding table returns a %d-dimensional vector: [%s].",
				tok, i, d, fixed(emb[i], 3)),
			State: step.State{
				"tokens":            tokens,
				"embeddingDim":      d,
				"currentTokenIndex": i,
				"currentToken":      tok,
				"currentEmbedding":  emb[i],
				"embeddings":        emb[:i+1],
			},
			VisualActions: []step.VisualAction{
				step.Action("highlightToken", step.P{"index": i, "color": "active"}),
				showEmbedding(i, emb[i]),
			},
			CodeHighlight: step.Lines(4, 5),
			Phase:         "lookup",
		})
	}

	for i := range tokens {
		for j := i + 1; j < len(tokens); j++ {
			sim, err := CosineSimilarity(emb[i], emb[j])
			if err != nil {
				return nil, err
			}
			verdict := "These embeddings point in quite different directions."
			if math.Abs(sim) > 0.5 {
				verdict = "These embeddings point in a similar direction."
			}
			b.Add(step.Step{
				ID:    "cosine-similarity",
				Title: fmt.Sprintf("Similarity: %q ↔ %q", tokens[i], tokens[j]),
				Explanation: fmt.Sprintf("Computing cosine similarity between %q and %q: cos(θ) = (A · B) / (‖A‖ × ‖B‖) = %.4f. %s",
					tokens[i], tokens[j], sim, verdict),
				State: step.State{
					"tokens":          tokens,
					"embeddingDim":    d,
					"embeddings":      emb,
					"similarityPair":  []int{i, j},
					"similarityScore": sim,
				},
				VisualActions: []step.VisualAction{
					step.Action("highlightToken", step.P{"index": i, "color": "active"}),
					step.Action("highlightToken", step.P{"index": j, "color": "active"}),
					showEmbedding(i, emb[i]),
					showEmbedding(j, emb[j]),
					step.Action("showSimilarity", step.P{"tokenA": i, "tokenB": j, "score": sim}),
				},
				CodeHighlight: step.Lines(7),
				Phase:         "similarity",
			})
		}
	}

	all := make([]step.VisualAction, len(emb))
	for i := range emb {
		all[i] = showEmbedding(i, emb[i])
	}
	b.Add(step.Step{
		ID:    "complete",
		Title: "Embedding Complete",
		Explanation: fmt.Sprintf("All %d tokens have been embedded into %d-dimensional vectors. These vectors are the input to the self-attention mechanism.",
			len(tokens), d),
		State:         step.State{"tokens": tokens, "embeddingDim": d, "embeddings": emb},
		VisualActions: all,
		CodeHighlight: step.Lines(7),
		IsTerminal:    true,
		Phase:         "result",
	})
	return b.Sequence(), nil
}
