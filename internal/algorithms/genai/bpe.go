package genai

import (
	"fmt"
	"unicode/utf8"

	"github.com/san-kum/stepviz/internal/generator"
	"github.com/san-kum/stepviz/internal/step"
)

const (
	maxTextLen    = 64
	maxMergeRules = 32
)

// MergeRule replaces every adjacent (Left, Right) pair with Replacement.
// An empty Replacement means Left+Right.
type MergeRule struct {
	Left        string `json:"left"`
	Right       string `json:"right"`
	Replacement string `json:"replacement"`
}

func (r MergeRule) result() string {
	if r.Replacement == "" {
		return r.Left + r.Right
	}
	return r.Replacement
}

type bpeInput struct {
	Text       string      `json:"text"`
	MergeRules []MergeRule `json:"mergeRules"`
}

func rule(left, right string) map[string]any {
	return map[string]any{"left": left, "right": right, "replacement": left + right}
}

var TokenizationBPE = generator.New(generator.Metadata{
	ID:          "tokenization-bpe",
	Name:        "BPE Tokenization",
	Category:    generator.GenerativeAI,
	Description: "Split text into characters and apply byte-pair merge rules in order.",
	Schema: generator.Schema{
		"text": {Type: generator.TypeString, Required: true, Description: "text to tokenize"},
		"mergeRules": {
			Type:        generator.TypeArray,
			Items:       generator.TypeObject,
			Required:    true,
			MaxItems:    maxMergeRules,
			Description: "ordered {left, right, replacement} rules",
		},
	},
	Defaults: generator.Inputs{
		"text": "lowest",
		"mergeRules": []map[string]any{
			rule("l", "o"), rule("lo", "w"), rule("e", "s"), rule("es", "t"), rule("low", "est"),
		},
	},
	Examples: []generator.Example{
		{Name: "repeated-pairs", Inputs: generator.Inputs{
			"text":       "aaabdaaabac",
			"mergeRules": []map[string]any{rule("a", "a"), rule("aa", "a"), rule("a", "b"), rule("x", "y")},
		}},
	},
}, tokenizationBPE)

func tokenizationBPE(in bpeInput) (step.Sequence, error) {
	text, rules := in.Text, in.MergeRules
	n := utf8.RuneCountInString(text)
	if n == 0 || n > maxTextLen {
		return nil, generator.Preconditionf("text must have between 1 and %d characters, got %d.", maxTextLen, n)
	}
	for i, r := range rules {
		if r.Left == "" || r.Right == "" {
			return nil, generator.Preconditionf("merge rule %d needs a non-empty left and right token.", i+1)
		}
	}

	tokens := make([]string, 0, n)
	for _, r := range text {
		tokens = append(tokens, string(r))
	}
	base := func(ruleIdx int) step.State {
		return step.State{
			"tokens":              tokens,
			"sourceText":          text,
			"mergeRulesRemaining": len(rules) - ruleIdx - 1,
			"currentMergeIndex":   ruleIdx,
		}
	}
	highlightAll := func() []step.VisualAction {
		out := make([]step.VisualAction, len(tokens))
		for i := range tokens {
			out[i] = highlightToken(i, "highlight")
		}
		return out
	}

	b := step.NewBuilder()
	b.Add(step.Step{
		ID:            "character-split",
		Title:         "Split Into Characters",
		Explanation:   fmt.Sprintf("Starting with the text %q. Split into %d individual characters: [%s].", text, n, quoted(tokens)),
		State:         base(-1),
		VisualActions: highlightAll(),
		CodeHighlight: step.Lines(2),
		Phase:         "initialization",
	})

	for ri, r := range rules {
		repl := r.result()
		current := map[string]any{"left": r.Left, "right": r.Right, "replacement": repl}
		label := fmt.Sprintf("(%q, %q) → %q", r.Left, r.Right, repl)
		if pairAt(tokens, r, 0) < 0 {
			st := base(ri)
			st["currentRule"] = current
			b.Add(step.Step{
				ID:            fmt.Sprintf("rule-%d-skip", ri+1),
				Title:         fmt.Sprintf("Merge Rule %d: No Match", ri+1),
				Explanation:   fmt.Sprintf("Checking merge rule %s. This pair does not appear in the current token sequence. Skipping.", label),
				State:         st,
				VisualActions: []step.VisualAction{message(fmt.Sprintf("Rule %d: %s, no match", ri+1, label), "info")},
				CodeHighlight: step.Lines(3, 4),
				Phase:         "merging",
			})
			continue
		}

		merges := 0
		for i := pairAt(tokens, r, 0); i >= 0; i = pairAt(tokens, r, i) {
			merges++
			st := base(ri)
			st["currentRule"] = current
			st["mergePosition"] = i
			b.Add(step.Step{
				ID:    fmt.Sprintf("rule-%d-merge-%d", ri+1, merges),
				Title: fmt.Sprintf("Merge: %q + %q → %q", r.Left, r.Right, repl),
				Explanation: fmt.Sprintf("Found pair (%q, %q) at positions %d and %d. Merging into %q. Tokens before: [%s].",
					r.Left, r.Right, i, i+1, repl, quoted(tokens)),
				State: st,
				VisualActions: []step.VisualAction{
					step.Action("mergeTokens", step.P{"leftIndex": i, "rightIndex": i + 1, "result": repl}),
					highlightToken(i, "active"),
				},
				CodeHighlight: step.Lines(5, 6),
				Phase:         "merging",
			})

			tokens = append(tokens[:i:i], append([]string{repl}, tokens[i+2:]...)...)
			st = base(ri)
			st["mergeCount"] = merges
			b.Add(step.Step{
				ID:    fmt.Sprintf("rule-%d-result-%d", ri+1, merges),
				Title: fmt.Sprintf("After Merge %d", merges),
				Explanation: fmt.Sprintf("Tokens after merge: [%s]. Sequence length is now %d.",
					quoted(tokens), len(tokens)),
				State:         st,
				VisualActions: []step.VisualAction{highlightToken(i, "active")},
				CodeHighlight: step.Lines(6),
				Phase:         "merging",
			})
		}
	}

	st := base(len(rules) - 1)
	st["currentMergeIndex"] = len(rules)
	st["finalTokenCount"] = len(tokens)
	word := "tokens"
	if len(tokens) == 1 {
		word = "token"
	}
	b.Add(step.Step{
		ID:    "complete",
		Title: "Tokenization Complete",
		Explanation: fmt.Sprintf("All merge rules applied. Final token sequence (%d tokens): [%s]. The original text %q (%d characters) is now represented as %d %s.",
			len(tokens), quoted(tokens), text, n, len(tokens), word),
		State:         st,
		VisualActions: highlightAll(),
		CodeHighlight: step.Lines(7),
		IsTerminal:    true,
		Phase:         "result",
	})
	return b.Sequence(), nil
}

// pairAt returns the first index >= from where r's pair starts, or -1.
// Scanning resumes at the merged token, so a merge result can pair with
// its right neighbour under the same rule.
func pairAt(tokens []string, r MergeRule, from int) int {
	for i := from; i < len(tokens)-1; i++ {
		if tokens[i] == r.Left && tokens[i+1] == r.Right {
			return i
		}
	}
	return -1
}

func highlightToken(i int, color string) step.VisualAction {
	return step.Action("highlightToken", step.P{"index": i, "color": color})
}
