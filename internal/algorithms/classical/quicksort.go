package classical

import (
	"fmt"

	"github.com/san-kum/stepviz/internal/generator"
	"github.com/san-kum/stepviz/internal/step"
)

var QuickSort = generator.New(generator.Metadata{
	ID:          "quicksort",
	Name:        "QuickSort",
	Category:    generator.Classical,
	Description: "Lomuto partition around the last element, then sort each side.",
	Schema:      arraySchema,
	Defaults:    generator.Inputs{"array": []int{38, 27, 43, 3, 9, 82, 10}},
	Examples: []generator.Example{
		{Name: "sorted", Inputs: generator.Inputs{"array": []int{1, 2, 3, 4, 5, 6}}},
		{Name: "duplicates", Inputs: generator.Inputs{"array": []int{4, 2, 4, 1, 4, 3}}},
	},
}, quickSort)

type bounds struct{ low, high int }

func quickSort(in arrayInput) (step.Sequence, error) {
	array := append([]int(nil), in.Array...)
	n := len(array)
	if n <= 1 {
		return alreadySorted(array, "Already sorted!", "Only one element (%d). Trivially sorted."), nil
	}

	done := make(map[int]bool)
	sortedMark := func() []step.VisualAction {
		if len(done) == 0 {
			return nil
		}
		return []step.VisualAction{markSorted(sortedKeys(done))}
	}

	b := step.NewBuilder()
	b.Add(step.Step{
		ID:    "initialize",
		Title: "Initialize QuickSort",
		Explanation: fmt.Sprintf(
			"Starting QuickSort on %d elements. We will pick a pivot, partition the array around it, and recursively sort the two halves.", n),
		State:         step.State{"array": array, "sorted": []int{}},
		VisualActions: []step.VisualAction{span(0, n-1)},
		CodeHighlight: step.Lines(1, 2),
	})

	stack := []bounds{{0, n - 1}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		low, high := top.low, top.high

		if low >= high {
			if low == high {
				done[low] = true
			}
			continue
		}

		pivot := array[high]
		b.Add(step.Step{
			ID:          "select_pivot",
			Title:       fmt.Sprintf("Select Pivot = %d", pivot),
			Explanation: fmt.Sprintf("Partitioning sub-array [%d..%d]. Pivot = array[%d] = %d (last element).", low, high, high, pivot),
			State:       step.State{"array": array, "low": low, "high": high, "pivot": pivot, "sorted": sortedKeys(done)},
			VisualActions: append([]step.VisualAction{
				span(low, high),
				highlight(high, "pivot"),
				step.Action("markPivot", step.P{"index": high}),
				pointer("low", low),
				pointer("high", high),
			}, sortedMark()...),
			CodeHighlight: step.Lines(3, 4),
		})

		i := low - 1
		for j := low; j < high; j++ {
			leq := array[j] <= pivot
			color, verdict := "highlightAlt", fmt.Sprintf(`%d > %d, leave it in the "large" section.`, array[j], pivot)
			if leq {
				color, verdict = "highlight", fmt.Sprintf(`%d ≤ %d, so move it to the "small" section.`, array[j], pivot)
			}

			actions := []step.VisualAction{
				span(low, high),
				highlight(j, color),
				highlight(high, "pivot"),
				pointer("i", max(low, i)),
				pointer("j", j),
			}
			if i >= low {
				actions = append(actions, step.Action("setPartition", step.P{"index": i}))
			}

			b.Add(step.Step{
				ID:            "partition_compare",
				Title:         fmt.Sprintf("Compare [%d] with Pivot", j),
				Explanation:   fmt.Sprintf("array[%d] = %d. Pivot = %d. %s", j, array[j], pivot, verdict),
				State:         step.State{"array": array, "low": low, "high": high, "pivot": pivot, "i": i, "j": j, "sorted": sortedKeys(done)},
				VisualActions: append(actions, sortedMark()...),
				CodeHighlight: step.Lines(6, 7),
			})

			if !leq {
				continue
			}
			i++
			if i == j {
				continue
			}
			array[i], array[j] = array[j], array[i]

			b.Add(step.Step{
				ID:    "partition_swap",
				Title: fmt.Sprintf("Swap [%d] ↔ [%d]", i, j),
				Explanation: fmt.Sprintf(
					`Swapping array[%d] (was %d) with array[%d] (was %d). This places %d in the "small" partition (indices [%d..%d]).`,
					i, array[j], j, array[i], array[i], low, i),
				State: step.State{"array": array, "low": low, "high": high, "pivot": pivot, "i": i, "j": j, "sorted": sortedKeys(done)},
				VisualActions: append([]step.VisualAction{
					span(low, high),
					step.Action("swapElements", step.P{"i": i, "j": j}),
					highlight(high, "pivot"),
					pointer("i", i),
					pointer("j", j),
				}, sortedMark()...),
				CodeHighlight: step.Lines(8, 9),
			})
		}

		pivotIdx := i + 1
		if pivotIdx != high {
			array[pivotIdx], array[high] = array[high], array[pivotIdx]
		}
		done[pivotIdx] = true

		b.Add(step.Step{
			ID:    "pivot_placed",
			Title: fmt.Sprintf("Pivot Placed at [%d]", pivotIdx),
			Explanation: fmt.Sprintf(
				"Swapped pivot (%d) into its final position at index %d. All elements in [%d..%d] ≤ %d. All elements in [%d..%d] > %d. Index %d is now permanently sorted.",
				pivot, pivotIdx, low, pivotIdx-1, pivot, pivotIdx+1, high, pivot, pivotIdx),
			State: step.State{"array": array, "low": low, "high": high, "pivotIdx": pivotIdx, "sorted": sortedKeys(done)},
			VisualActions: []step.VisualAction{
				span(low, high),
				highlight(pivotIdx, "sorted"),
				step.Action("setPartition", step.P{"index": pivotIdx - 1}),
				markSorted(sortedKeys(done)),
			},
			CodeHighlight: step.Lines(10, 11),
		})

		// Right is pushed first so the left side is partitioned next.
		switch {
		case pivotIdx+1 < high:
			stack = append(stack, bounds{pivotIdx + 1, high})
		case pivotIdx+1 == high:
			done[high] = true
		}
		switch {
		case low < pivotIdx-1:
			stack = append(stack, bounds{low, pivotIdx - 1})
		case low == pivotIdx-1:
			done[low] = true
		}
	}

	all := rangeInts(n)
	b.Add(step.Step{
		ID:          "complete",
		Title:       "Sorting Complete",
		Explanation: fmt.Sprintf("QuickSort complete. All %d elements are in sorted order.", n),
		State:       step.State{"array": array, "sorted": all},
		VisualActions: []step.VisualAction{
			markSorted(all),
			message("Array is sorted!", "success"),
		},
		CodeHighlight: step.Lines(13),
		IsTerminal:    true,
	})
	return b.Sequence(), nil
}
