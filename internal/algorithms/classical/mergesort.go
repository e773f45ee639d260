package classical

import (
	"fmt"
	"math"
	"math/bits"

	"github.com/san-kum/stepviz/internal/generator"
	"github.com/san-kum/stepviz/internal/step"
)

var MergeSort = generator.New(generator.Metadata{
	ID:          "merge-sort",
	Name:        "Merge Sort",
	Category:    generator.Classical,
	Description: "Bottom-up merge of runs of size 1, 2, 4 and so on through an auxiliary buffer.",
	Schema:      arraySchema,
	Defaults:    generator.Inputs{"array": []int{38, 27, 43, 3, 9, 82, 10}},
	Examples: []generator.Example{
		{Name: "power-of-two", Inputs: generator.Inputs{"array": []int{8, 7, 6, 5, 4, 3, 2, 1}}},
		{Name: "stable", Inputs: generator.Inputs{"array": []int{2, 1, 2, 1, 2}}},
	},
}, mergeSort)

// emptySlots is an auxiliary buffer of n unset cells.
func emptySlots(n int) []any {
	return make([]any, n)
}

func mergeSort(in arrayInput) (step.Sequence, error) {
	array := append([]int(nil), in.Array...)
	n := len(array)
	if n <= 1 {
		return alreadySorted(array, "Already sorted!", "Only one element (%d). Trivially sorted."), nil
	}

	rounds := bits.Len(uint(n - 1))
	b := step.NewBuilder()
	b.Add(step.Step{
		ID:    "initialize",
		Title: "Initialize Merge Sort",
		Explanation: fmt.Sprintf(
			"Starting bottom-up Merge Sort on %d elements. We will merge sub-arrays of increasing size: 1, 2, 4, ... until the entire array is sorted. This requires ⌈log₂(%d)⌉ = %d rounds.",
			n, n, rounds),
		State:         step.State{"array": array, "auxiliary": emptySlots(n)},
		VisualActions: []step.VisualAction{span(0, n-1)},
		CodeHighlight: step.Lines(1, 2),
	})

	for size := 1; size < n; size *= 2 {
		round := bits.Len(uint(size))
		merges := int(math.Ceil(float64(n) / float64(size*2)))

		b.Add(step.Step{
			ID:    "round_start",
			Title: fmt.Sprintf("Round %d: Merge Sub-arrays of Size %d", round, size),
			Explanation: fmt.Sprintf("Merging adjacent sub-arrays of size %d into sorted sub-arrays of size %d. Processing %d merge(s).",
				size, min(size*2, n), merges),
			State:         step.State{"array": array, "auxiliary": emptySlots(n), "size": size, "round": round},
			VisualActions: []step.VisualAction{span(0, n-1)},
			CodeHighlight: step.Lines(3),
		})

		for lo := 0; lo < n; lo += size * 2 {
			mid := min(lo+size-1, n-1)
			hi := min(lo+2*size-1, n-1)
			if mid >= hi {
				continue
			}
			mergeRun(b, array, lo, mid, hi)
		}
	}

	all := rangeInts(n)
	b.Add(step.Step{
		ID:          "complete",
		Title:       "Sorting Complete",
		Explanation: fmt.Sprintf("Merge Sort complete. All %d elements are in sorted order.", n),
		State:       step.State{"array": array, "sorted": all},
		VisualActions: []step.VisualAction{
			markSorted(all),
			message("Array is sorted!", "success"),
		},
		CodeHighlight: step.Lines(15),
		IsTerminal:    true,
	})
	return b.Sequence(), nil
}

// mergeRun merges array[lo..mid] with array[mid+1..hi] in place, emitting a
// step per pick.
func mergeRun(b *step.Builder, array []int, lo, mid, hi int) {
	n := len(array)
	b.Add(step.Step{
		ID:    "merge_start",
		Title: fmt.Sprintf("Merge [%d..%d] and [%d..%d]", lo, mid, mid+1, hi),
		Explanation: fmt.Sprintf("Left half: [%s]. Right half: [%s]. Merging into a sorted sub-array of length %d.",
			joinInts(array[lo:mid+1]), joinInts(array[mid+1:hi+1]), hi-lo+1),
		State: step.State{"array": array, "auxiliary": emptySlots(n), "left": lo, "mid": mid, "right": hi},
		VisualActions: []step.VisualAction{
			coloredSpan(lo, mid, "highlight"),
			coloredSpan(mid+1, hi, "highlightAlt"),
			pointer("left", lo),
			pointer("right", hi),
		},
		CodeHighlight: step.Lines(4, 5),
	})

	aux := emptySlots(n)
	i, j, k := lo, mid+1, lo
	for i <= mid && j <= hi {
		pick := step.Step{
			State: step.State{"i": i, "j": j, "k": k, "left": lo, "mid": mid, "right": hi},
		}
		// <= keeps equal elements from the left half first.
		if array[i] <= array[j] {
			aux[k] = array[i]
			pick.ID = "merge_pick_left"
			pick.Title = fmt.Sprintf("Pick %d from Left", array[i])
			pick.Explanation = fmt.Sprintf("Comparing array[%d] = %d with array[%d] = %d. %d ≤ %d, so take from the left half. Write %d to auxiliary[%d].",
				i, array[i], j, array[j], array[i], array[j], array[i], k)
			pick.CodeHighlight = step.Lines(7, 8)
		} else {
			aux[k] = array[j]
			pick.ID = "merge_pick_right"
			pick.Title = fmt.Sprintf("Pick %d from Right", array[j])
			pick.Explanation = fmt.Sprintf("Comparing array[%d] = %d with array[%d] = %d. %d < %d, so take from the right half. Write %d to auxiliary[%d].",
				i, array[i], j, array[j], array[j], array[i], array[j], k)
			pick.CodeHighlight = step.Lines(9, 10)
		}

		auxColor := "highlight"
		if pick.ID == "merge_pick_right" {
			auxColor = "highlightAlt"
		}
		pick.State["array"] = array
		pick.State["auxiliary"] = aux
		pick.VisualActions = []step.VisualAction{
			highlight(i, "highlight"),
			highlight(j, "highlightAlt"),
			pointer("i", i),
			pointer("j", j),
			step.Action("setAuxiliary", step.P{"array": aux}),
			step.Action("highlightAuxiliary", step.P{"index": k, "color": auxColor}),
		}
		b.Add(pick)

		if pick.ID == "merge_pick_left" {
			i++
		} else {
			j++
		}
		k++
	}
	for ; i <= mid; i, k = i+1, k+1 {
		aux[k] = array[i]
	}
	for ; j <= hi; j, k = j+1, k+1 {
		aux[k] = array[j]
	}
	for w := lo; w <= hi; w++ {
		array[w] = aux[w].(int)
	}

	b.Add(step.Step{
		ID:          "merge_complete",
		Title:       fmt.Sprintf("Merge Complete: [%d..%d]", lo, hi),
		Explanation: fmt.Sprintf("Merged result: [%s]. Sub-array [%d..%d] is now sorted.", joinInts(array[lo:hi+1]), lo, hi),
		State:       step.State{"array": array, "auxiliary": aux, "left": lo, "right": hi},
		VisualActions: []step.VisualAction{
			coloredSpan(lo, hi, "sorted"),
			step.Action("setAuxiliary", step.P{"array": aux}),
		},
		CodeHighlight: step.Lines(12, 13),
	})
}
