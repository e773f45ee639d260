package classical

import (
	"fmt"

	"github.com/san-kum/stepviz/internal/generator"
	"github.com/san-kum/stepviz/internal/step"
)

type searchInput struct {
	Array  []int `json:"array"`
	Target int   `json:"target"`
}

var BinarySearch = generator.New(generator.Metadata{
	ID:          "binary-search",
	Name:        "Binary Search",
	Category:    generator.Classical,
	Description: "Halve a sorted array until the target is found or ruled out.",
	Schema: generator.Schema{
		"array": {
			Type:        generator.TypeArray,
			Items:       generator.TypeInteger,
			Required:    true,
			MaxItems:    maxArrayLen,
			Description: "sorted values to search",
		},
		"target": {Type: generator.TypeInteger, Required: true, Description: "value to find"},
	},
	Defaults: generator.Inputs{
		"array":  []int{1, 3, 5, 7, 9, 11, 13, 15, 17, 19},
		"target": 13,
	},
	Examples: []generator.Example{
		{Name: "not-found", Inputs: generator.Inputs{"array": []int{2, 4, 6, 8, 10, 12, 14}, "target": 5}},
		{Name: "first-element", Inputs: generator.Inputs{"array": []int{1, 3, 5, 7, 9, 11, 13, 15, 17, 19}, "target": 1}},
		{Name: "single-element", Inputs: generator.Inputs{"array": []int{42}, "target": 42}},
	},
}, binarySearch)

func binarySearch(in searchInput) (step.Sequence, error) {
	array, target := in.Array, in.Target
	for i := 1; i < len(array); i++ {
		if array[i] < array[i-1] {
			return nil, generator.Preconditionf(
				"array must be sorted in ascending order (array[%d] = %d < array[%d] = %d)",
				i, array[i], i-1, array[i-1])
		}
	}

	n := len(array)
	left, right := 0, n-1
	b := step.NewBuilder()

	// An empty array has no range to mark; the loop below is skipped and the
	// search ends at not_found.
	initial := []step.VisualAction{}
	if n > 0 {
		initial = append(initial, coloredSpan(left, right, "highlight"), pointer("left", left), pointer("right", right))
	}
	b.Add(step.Step{
		ID:    "initialize",
		Title: "Initialize Search",
		Explanation: fmt.Sprintf(
			"Searching for %d in a sorted array of %d element%s. Setting left = 0, right = %d. The entire array is the search space.",
			target, n, plural(n), right),
		State:         step.State{"array": array, "target": target, "left": left, "right": right, "result": nil},
		VisualActions: initial,
		CodeHighlight: step.Lines(1, 2, 3),
		Phase:         "initialization",
	})

	iteration := 0
	for left <= right {
		iteration++
		mid := (left + right) / 2

		b.Add(step.Step{
			ID:    "calculate_mid",
			Title: fmt.Sprintf("Calculate Middle (Iteration %d)", iteration),
			Explanation: fmt.Sprintf(
				"mid = floor((%d + %d) / 2) = floor(%d / 2) = %d. Checking array[%d] = %d.",
				left, right, left+right, mid, mid, array[mid]),
			State: step.State{"array": array, "target": target, "left": left, "right": right, "mid": mid, "result": nil},
			VisualActions: []step.VisualAction{
				coloredSpan(left, right, "highlight"),
				highlight(mid, "compare"),
				pointer("left", left),
				pointer("right", right),
				pointer("mid", mid),
			},
			CodeHighlight: step.Lines(5, 6),
			Phase:         "search",
		})

		switch {
		case array[mid] == target:
			b.Add(step.Step{
				ID:    "found",
				Title: "Target Found!",
				Explanation: fmt.Sprintf(
					"array[%d] = %d equals target %d. Found at index %d after %d iteration%s.",
					mid, array[mid], target, mid, iteration, plural(iteration)),
				State: step.State{"array": array, "target": target, "left": left, "right": right, "mid": mid, "result": mid},
				VisualActions: []step.VisualAction{
					step.Action("markFound", step.P{"index": mid}),
					pointer("mid", mid),
					message(fmt.Sprintf("Found %d at index %d!", target, mid), "success"),
				},
				CodeHighlight: step.Lines(8),
				IsTerminal:    true,
				Phase:         "result",
			})
			return b.Sequence(), nil

		case array[mid] < target:
			newLeft := mid + 1
			actions := []step.VisualAction{step.Action("dimRange", step.P{"from": left, "to": mid})}
			if newLeft <= right {
				actions = append(actions, coloredSpan(newLeft, right, "highlight"))
			}
			actions = append(actions, pointer("left", newLeft), pointer("right", right), pointer("mid", mid))

			b.Add(step.Step{
				ID:    "search_right",
				Title: "Search Right Half",
				Explanation: fmt.Sprintf(
					"array[%d] = %d < target %d. Target must be in the right half. Setting left = %d + 1 = %d.",
					mid, array[mid], target, mid, newLeft),
				State:         step.State{"array": array, "target": target, "left": newLeft, "right": right, "mid": mid, "result": nil},
				VisualActions: actions,
				CodeHighlight: step.Lines(10, 11),
				Phase:         "search",
			})
			left = newLeft

		default:
			newRight := mid - 1
			actions := []step.VisualAction{step.Action("dimRange", step.P{"from": mid, "to": right})}
			if left <= newRight {
				actions = append(actions, coloredSpan(left, newRight, "highlight"))
			}
			actions = append(actions, pointer("left", left), pointer("right", newRight), pointer("mid", mid))

			b.Add(step.Step{
				ID:    "search_left",
				Title: "Search Left Half",
				Explanation: fmt.Sprintf(
					"array[%d] = %d > target %d. Target must be in the left half. Setting right = %d - 1 = %d.",
					mid, array[mid], target, mid, newRight),
				State:         step.State{"array": array, "target": target, "left": left, "right": newRight, "mid": mid, "result": nil},
				VisualActions: actions,
				CodeHighlight: step.Lines(12, 13),
				Phase:         "search",
			})
			right = newRight
		}
	}

	b.Add(step.Step{
		ID:    "not_found",
		Title: "Target Not Found",
		Explanation: fmt.Sprintf(
			"Search space exhausted (left = %d > right = %d). %d is not in the array. Returning -1 after %d iteration%s.",
			left, right, target, iteration, plural(iteration)),
		State: step.State{"array": array, "target": target, "left": left, "right": right, "result": -1},
		VisualActions: []step.VisualAction{
			step.Action("markNotFound", nil),
			message(fmt.Sprintf("%d was not found in the array.", target), "warning"),
		},
		CodeHighlight: step.Lines(15),
		IsTerminal:    true,
		Phase:         "result",
	})
	return b.Sequence(), nil
}
