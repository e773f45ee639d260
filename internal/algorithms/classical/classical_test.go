package classical

import (
	"errors"
	"reflect"
	"sort"
	"testing"

	"github.com/san-kum/stepviz/internal/generator"
	"github.com/san-kum/stepviz/internal/step"
)

func run(t *testing.T, def generator.Definition, overrides generator.Inputs) step.Sequence {
	t.Helper()
	seq, err := def.Run(generator.Resolve(def.Metadata().Defaults, overrides))
	if err != nil {
		t.Fatalf("%s: Run() error = %v", def.Metadata().ID, err)
	}
	if err := step.Validate(seq); err != nil {
		t.Fatalf("%s: Validate() error = %v", def.Metadata().ID, err)
	}
	if err := step.CheckFinite(seq); err != nil {
		t.Fatalf("%s: CheckFinite() error = %v", def.Metadata().ID, err)
	}
	return seq
}

func ints(t *testing.T, v any) []int {
	t.Helper()
	list, ok := v.([]any)
	if !ok {
		t.Fatalf("value %#v is not a list", v)
	}
	out := make([]int, len(list))
	for i, el := range list {
		out[i] = el.(int)
	}
	return out
}

func strs(t *testing.T, v any) []string {
	t.Helper()
	list, ok := v.([]any)
	if !ok {
		t.Fatalf("value %#v is not a list", v)
	}
	out := make([]string, len(list))
	for i, el := range list {
		out[i] = el.(string)
	}
	return out
}

func TestDefaultsAndExamplesValidate(t *testing.T) {
	for _, def := range Definitions() {
		meta := def.Metadata()
		t.Run(meta.ID, func(t *testing.T) {
			run(t, def, nil)
			for _, ex := range meta.Examples {
				run(t, def, ex.Inputs)
			}
		})
	}
}

func TestBinarySearch(t *testing.T) {
	tests := []struct {
		name     string
		in       generator.Inputs
		terminal string
		result   int
	}{
		{"default finds 13", nil, "found", 6},
		{"first element", generator.Inputs{"target": 1}, "found", 0},
		{"missing", generator.Inputs{"target": 4}, "not_found", -1},
		{"empty array", generator.Inputs{"array": []int{}, "target": 4}, "not_found", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq := run(t, BinarySearch, tt.in)
			last := seq.Last()
			if last.ID != tt.terminal {
				t.Errorf("terminal id = %q, want %q", last.ID, tt.terminal)
			}
			if last.State["result"] != tt.result {
				t.Errorf("result = %v, want %d", last.State["result"], tt.result)
			}
			if seq[0].ID != "initialize" || seq[0].Phase != "initialization" {
				t.Errorf("first step = %s/%s, want initialize/initialization", seq[0].ID, seq[0].Phase)
			}
		})
	}
}

func TestBinarySearchRejectsUnsorted(t *testing.T) {
	_, err := BinarySearch.Run(generator.Resolve(BinarySearch.Metadata().Defaults, generator.Inputs{"array": []int{3, 1, 2}}))
	if !errors.Is(err, generator.ErrPrecondition) {
		t.Fatalf("Run() error = %v, want ErrPrecondition", err)
	}
}

func TestSortsProduceSortedArray(t *testing.T) {
	inputs := [][]int{
		{64, 34, 25, 12, 22, 11, 90},
		{5, 4, 3, 2, 1},
		{2, 1, 2, 1, 2},
		{1, 2, 3},
		{7, 7},
	}
	for _, def := range []generator.Definition{BubbleSort, QuickSort, MergeSort} {
		for _, in := range inputs {
			seq := run(t, def, generator.Inputs{"array": in})
			got := ints(t, seq.Last().State["array"])
			want := append([]int(nil), in...)
			sort.Ints(want)
			if !reflect.DeepEqual(got, want) {
				t.Errorf("%s(%v) = %v, want %v", def.Metadata().ID, in, got, want)
			}
			sorted := ints(t, seq.Last().State["sorted"])
			sort.Ints(sorted)
			if len(sorted) != len(in) {
				t.Errorf("%s(%v) sorted indices = %v, want all %d", def.Metadata().ID, in, sorted, len(in))
			}
		}
	}
}

func TestSortTrivialArrays(t *testing.T) {
	for _, def := range []generator.Definition{BubbleSort, QuickSort, MergeSort} {
		for _, in := range [][]int{{}, {42}} {
			seq := run(t, def, generator.Inputs{"array": in})
			if len(seq) != 1 || seq[0].ID != "already_sorted" {
				t.Errorf("%s(%v) ids = %v, want [already_sorted]", def.Metadata().ID, in, seq.IDs())
			}
		}
	}
}

func TestBubbleSortEarlyTermination(t *testing.T) {
	seq := run(t, BubbleSort, generator.Inputs{"array": []int{1, 2, 3, 4}})
	if seq.Last().ID != "early_termination" {
		t.Errorf("terminal id = %q, want early_termination", seq.Last().ID)
	}
	for _, s := range seq {
		if s.ID == "swap" {
			t.Fatal("sorted input should never swap")
		}
	}
}

func TestArrayLimit(t *testing.T) {
	_, err := BubbleSort.Run(generator.Inputs{"array": make([]int, maxArrayLen+1)})
	if !errors.Is(err, generator.ErrInvalidInput) {
		t.Errorf("Run() error = %v, want ErrInvalidInput", err)
	}
}

func TestGraphSearchPaths(t *testing.T) {
	tests := []struct {
		name string
		def  generator.Definition
		in   generator.Inputs
		id   string
		path []string
	}{
		{"bfs shortest", BFS, nil, "target_found", []string{"A", "C", "F"}},
		{"dfs branch first", DFS, nil, "target_found", []string{"A", "B", "E", "F"}},
		{"bfs start is target", BFS, generator.Inputs{"targetNode": "A"}, "target_found", []string{"A"}},
		{"dijkstra cheapest", Dijkstra, nil, "target_found", []string{"A", "C", "B", "D", "E"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			last := run(t, tt.def, tt.in).Last()
			if last.ID != tt.id {
				t.Fatalf("terminal id = %q, want %q", last.ID, tt.id)
			}
			if got := strs(t, last.State["path"]); !reflect.DeepEqual(got, tt.path) {
				t.Errorf("path = %v, want %v", got, tt.path)
			}
		})
	}
}

func TestDijkstraDistances(t *testing.T) {
	last := run(t, Dijkstra, nil).Last()
	dist := last.State["distances"].(map[string]any)
	if dist["E"] != 10.0 {
		t.Errorf("dist[E] = %v, want 10", dist["E"])
	}

	last = run(t, Dijkstra, generator.Inputs{
		"adjacencyList": map[string][]weightedEdge{"A": {{"B", 3}}, "B": {{"A", 3}}, "C": {}},
		"positions":     nil,
		"targetNode":    "C",
	}).Last()
	if last.ID != "target_unreachable" {
		t.Errorf("terminal id = %q, want target_unreachable", last.ID)
	}
	if d := last.State["distances"].(map[string]any)["C"]; d != infinity {
		t.Errorf("dist[C] = %v, want %s", d, infinity)
	}
}

func TestDijkstraRejectsNegativeWeights(t *testing.T) {
	_, err := Dijkstra.Run(generator.Resolve(Dijkstra.Metadata().Defaults, generator.Inputs{
		"adjacencyList": map[string][]weightedEdge{"A": {{"B", -1}}, "B": {}},
		"targetNode":    "B",
	}))
	if !errors.Is(err, generator.ErrPrecondition) {
		t.Fatalf("Run() error = %v, want ErrPrecondition", err)
	}
}

func TestTraversalOutcomes(t *testing.T) {
	for _, def := range []generator.Definition{BFS, DFS} {
		id := def.Metadata().ID

		last := run(t, def, disconnectedGraph).Last()
		if last.ID != "target_not_found" {
			t.Errorf("%s disconnected: terminal id = %q, want target_not_found", id, last.ID)
		}
		if got := strs(t, last.State["visited"]); !reflect.DeepEqual(got, []string{"A", "B", "C"}) {
			t.Errorf("%s disconnected: visited = %v, want [A B C]", id, got)
		}

		last = run(t, def, cyclicGraph).Last()
		if last.ID != "exploration_complete" {
			t.Errorf("%s cyclic: terminal id = %q, want exploration_complete", id, last.ID)
		}
		if got := strs(t, last.State["visited"]); !reflect.DeepEqual(got, []string{"A", "B", "C", "D"}) {
			t.Errorf("%s cyclic: visited = %v, want [A B C D]", id, got)
		}
	}
}

func TestTraversalPreconditions(t *testing.T) {
	tests := []struct {
		name string
		in   generator.Inputs
	}{
		{"unknown start", generator.Inputs{"startNode": "Z"}},
		{"unknown target", generator.Inputs{"targetNode": "Z"}},
		{"dangling neighbor", generator.Inputs{"adjacencyList": map[string][]string{"A": {"Q"}}, "targetNode": ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DFS.Run(generator.Resolve(DFS.Metadata().Defaults, tt.in))
			if !errors.Is(err, generator.ErrPrecondition) {
				t.Errorf("Run() error = %v, want ErrPrecondition", err)
			}
		})
	}
}
