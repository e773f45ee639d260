package classical

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/san-kum/stepviz/internal/generator"
	"github.com/san-kum/stepviz/internal/step"
)

const (
	maxArrayLen = 64
	maxNodes    = 26
)

// Definitions lists the generators in this package in catalog order.
func Definitions() []generator.Definition {
	return []generator.Definition{
		BinarySearch,
		BubbleSort,
		QuickSort,
		MergeSort,
		BFS,
		DFS,
		Dijkstra,
	}
}

type arrayInput struct {
	Array []int `json:"array"`
}

var arraySchema = generator.Schema{
	"array": {
		Type:        generator.TypeArray,
		Items:       generator.TypeInteger,
		Required:    true,
		MaxItems:    maxArrayLen,
		Description: "values to sort",
	},
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = strconv.Itoa(x)
	}
	return strings.Join(parts, ", ")
}

func rangeInts(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func sortedKeys(set map[int]bool) []int {
	out := make([]int, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

func message(text, kind string) step.VisualAction {
	return step.Action("showMessage", step.P{"text": text, "messageType": kind})
}

func pointer(id string, to int) step.VisualAction {
	return step.Action("movePointer", step.P{"id": id, "to": to})
}

func highlight(index int, color string) step.VisualAction {
	return step.Action("highlightElement", step.P{"index": index, "color": color})
}

func span(from, to int) step.VisualAction {
	return step.Action("highlightRange", step.P{"from": from, "to": to})
}

func coloredSpan(from, to int, color string) step.VisualAction {
	return step.Action("highlightRange", step.P{"from": from, "to": to, "color": color})
}

func markSorted(indices []int) step.VisualAction {
	return step.Action("markSorted", step.P{"indices": indices})
}

// alreadySorted is the single terminal step for arrays of length 0 or 1.
func alreadySorted(array []int, msg, single string) step.Sequence {
	var actions []step.VisualAction
	if len(array) == 1 {
		actions = append(actions, markSorted([]int{0}))
	}
	actions = append(actions, message(msg, "success"))

	explanation := "The array is empty, nothing to sort."
	if len(array) == 1 {
		explanation = fmt.Sprintf(single, array[0])
	}

	b := step.NewBuilder()
	b.Add(step.Step{
		ID:            "already_sorted",
		Title:         "Already Sorted",
		Explanation:   explanation,
		State:         step.State{"array": array},
		VisualActions: actions,
		CodeHighlight: step.Lines(1),
		IsTerminal:    true,
	})
	return b.Sequence()
}
