package classical

import (
	"fmt"

	"github.com/san-kum/stepviz/internal/generator"
	"github.com/san-kum/stepviz/internal/step"
)

var BubbleSort = generator.New(generator.Metadata{
	ID:          "bubble-sort",
	Name:        "Bubble Sort",
	Category:    generator.Classical,
	Description: "Repeatedly swap adjacent out-of-order pairs until a pass makes no swaps.",
	Schema:      arraySchema,
	Defaults:    generator.Inputs{"array": []int{64, 34, 25, 12, 22, 11, 90}},
	Examples: []generator.Example{
		{Name: "already-sorted", Inputs: generator.Inputs{"array": []int{1, 2, 3, 4, 5}}},
		{Name: "reversed", Inputs: generator.Inputs{"array": []int{5, 4, 3, 2, 1}}},
		{Name: "duplicates", Inputs: generator.Inputs{"array": []int{3, 1, 3, 2, 1}}},
	},
}, bubbleSort)

func bubbleSort(in arrayInput) (step.Sequence, error) {
	array := append([]int(nil), in.Array...)
	n := len(array)
	if n <= 1 {
		return alreadySorted(array, "Array is already sorted!", "The array has only one element (%d). It is trivially sorted."), nil
	}

	b := step.NewBuilder()
	b.Add(step.Step{
		ID:    "initialize",
		Title: "Initialize Bubble Sort",
		Explanation: fmt.Sprintf(
			"Starting Bubble Sort on an array of %d elements. We will make up to %d passes through the array, comparing adjacent elements and swapping them if they are out of order.",
			n, n-1),
		State:         step.State{"array": array, "pass": 0, "sorted": []int{}},
		VisualActions: []step.VisualAction{span(0, n-1)},
		CodeHighlight: step.Lines(1, 2),
	})

	var sorted []int
	sortedMarks := func() []step.VisualAction {
		out := make([]step.VisualAction, len(sorted))
		for i, si := range sorted {
			out[i] = markSorted([]int{si})
		}
		return out
	}

	for pass := 0; pass < n-1; pass++ {
		swapped := false

		b.Add(step.Step{
			ID:    "pass_start",
			Title: fmt.Sprintf("Pass %d", pass+1),
			Explanation: fmt.Sprintf(
				"Starting pass %d of at most %d. Comparing elements from index 0 to %d. After this pass, element at index %d will be in its final position.",
				pass+1, n-1, n-2-pass, n-1-pass),
			State:         step.State{"array": array, "pass": pass, "sorted": sorted},
			VisualActions: append([]step.VisualAction{span(0, n-1-pass)}, sortedMarks()...),
			CodeHighlight: step.Lines(3),
		})

		for j := 0; j < n-1-pass; j++ {
			greater := array[j] > array[j+1]
			result, verdict := "less", fmt.Sprintf("%d ≤ %d, no swap needed.", array[j], array[j+1])
			if greater {
				result, verdict = "greater", fmt.Sprintf("%d > %d, so we need to swap.", array[j], array[j+1])
			}

			b.Add(step.Step{
				ID:    "compare",
				Title: fmt.Sprintf("Compare [%d] and [%d]", j, j+1),
				Explanation: fmt.Sprintf("Comparing array[%d] = %d with array[%d] = %d. %s",
					j, array[j], j+1, array[j+1], verdict),
				State: step.State{"array": array, "pass": pass, "comparing": []int{j, j + 1}, "sorted": sorted},
				VisualActions: append([]step.VisualAction{
					step.Action("compareElements", step.P{"i": j, "j": j + 1, "result": result}),
					highlight(j, "highlight"),
					highlight(j+1, "highlightAlt"),
					pointer("j", j),
				}, sortedMarks()...),
				CodeHighlight: step.Lines(4, 5),
			})

			if !greater {
				continue
			}
			array[j], array[j+1] = array[j+1], array[j]
			swapped = true

			b.Add(step.Step{
				ID:    "swap",
				Title: fmt.Sprintf("Swap [%d] ↔ [%d]", j, j+1),
				Explanation: fmt.Sprintf("Swapped %d and %d. The larger value (%d) moves one position to the right.",
					array[j+1], array[j], array[j+1]),
				State: step.State{"array": array, "pass": pass, "swapped": []int{j, j + 1}, "sorted": sorted},
				VisualActions: append([]step.VisualAction{
					step.Action("swapElements", step.P{"i": j, "j": j + 1}),
					highlight(j, "highlight"),
					highlight(j+1, "highlightAlt"),
				}, sortedMarks()...),
				CodeHighlight: step.Lines(6, 7, 8),
			})
		}

		sorted = append(sorted, n-1-pass)

		if !swapped {
			for k := 0; k <= n-2-pass; k++ {
				sorted = append(sorted, k)
			}
			b.Add(step.Step{
				ID:    "early_termination",
				Title: "No Swaps, Early Termination",
				Explanation: fmt.Sprintf(
					"No swaps occurred during pass %d. This means the array is already sorted. Terminating early.", pass+1),
				State: step.State{"array": array, "pass": pass, "sorted": sorted},
				VisualActions: []step.VisualAction{
					markSorted(sorted),
					message("Sorted! (early termination)", "success"),
				},
				CodeHighlight: step.Lines(9, 10),
				IsTerminal:    true,
			})
			return b.Sequence(), nil
		}
	}

	sorted = append(sorted, 0)
	b.Add(step.Step{
		ID:          "complete",
		Title:       "Sorting Complete",
		Explanation: fmt.Sprintf("Bubble Sort complete. All %d elements are now in sorted order.", n),
		State:       step.State{"array": array, "sorted": sorted},
		VisualActions: []step.VisualAction{
			markSorted(sorted),
			message("Array is sorted!", "success"),
		},
		CodeHighlight: step.Lines(12),
		IsTerminal:    true,
	})
	return b.Sequence(), nil
}
