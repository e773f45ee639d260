// Package genai implements step generators for the building blocks of
// transformer models, from BPE tokenization and token embeddings through
// attention to a full encoder block.
//
// Embeddings and projection weights are not learned. They are drawn from a
// seeded PRNG (see SeedRandom) so every run of a generator with the same
// tokens yields bit-identical matrices.
package genai

import (
	"fmt"
	"strings"

	"github.com/san-kum/stepviz/internal/generator"
	"github.com/san-kum/stepviz/internal/step"
)

const (
	maxTokens = 16
	maxDim    = 64
)

// Definitions lists the generators in this package in catalog order.
func Definitions() []generator.Definition {
	return []generator.Definition{TokenizationBPE, TokenEmbeddings, SelfAttention, MultiHeadAttention, TransformerBlock}
}

var tokensField = generator.Field{
	Type:        generator.TypeArray,
	Items:       generator.TypeString,
	Required:    true,
	MinItems:    1,
	MaxItems:    maxTokens,
	Description: "input tokens",
}

var dimField = generator.Field{
	Type:        generator.TypeInteger,
	Required:    true,
	Min:         generator.Bound(1),
	Max:         generator.Bound(maxDim),
	Description: "embedding dimension",
}

func message(text, kind string) step.VisualAction {
	return step.Action("showMessage", step.P{"text": text, "messageType": kind})
}

func showEmbedding(i int, values []float64) step.VisualAction {
	return step.Action("showEmbedding", step.P{"tokenIndex": i, "values": values})
}

func quoted(tokens []string) string {
	q := make([]string, len(tokens))
	for i, t := range tokens {
		q[i] = fmt.Sprintf("%q", t)
	}
	return strings.Join(q, ", ")
}

func fixed(values []float64, prec int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%.*f", prec, v)
	}
	return strings.Join(parts, ", ")
}
