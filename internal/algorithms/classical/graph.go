package classical

import (
	"fmt"
	"sort"
	"strings"

	"github.com/san-kum/stepviz/internal/generator"
	"github.com/san-kum/stepviz/internal/step"
)

// Node is a graph vertex placed in normalized [0,1] coordinates.
type Node struct {
	ID    string  `json:"id"`
	Label string  `json:"label"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// Edge is an undirected edge. Weight is only set for weighted graphs.
type Edge struct {
	From     string   `json:"from"`
	To       string   `json:"to"`
	Weight   *float64 `json:"weight,omitempty"`
	Directed bool     `json:"directed"`
}

type traversalInput struct {
	AdjacencyList map[string][]string           `json:"adjacencyList"`
	Positions     map[string]map[string]float64 `json:"positions"`
	StartNode     string                        `json:"startNode"`
	TargetNode    string                        `json:"targetNode"`
}

var graphSchema = generator.Schema{
	"adjacencyList": {Type: generator.TypeObject, Required: true, MaxItems: maxNodes, Description: "neighbors of each node"},
	"positions":     {Type: generator.TypeObject, MaxItems: maxNodes, Description: "x/y of each node in [0,1]"},
	"startNode":     {Type: generator.TypeString, Required: true},
	"targetNode":    {Type: generator.TypeString, Description: "omit to explore every reachable node"},
}

var sampleGraph = generator.Inputs{
	"adjacencyList": map[string][]string{
		"A": {"B", "C"},
		"B": {"A", "D", "E"},
		"C": {"A", "F"},
		"D": {"B"},
		"E": {"B", "F"},
		"F": {"C", "E"},
	},
	"positions": samplePositions("A", "B", "C", "D", "E", "F"),
	"startNode":  "A",
	"targetNode": "F",
}

var disconnectedGraph = generator.Inputs{
	"adjacencyList": map[string][]string{
		"A": {"B"},
		"B": {"A", "C"},
		"C": {"B"},
		"D": {"E"},
		"E": {"D"},
	},
	"positions":  samplePositions("A", "B", "C", "D", "E"),
	"startNode":  "A",
	"targetNode": "E",
}

// cyclicGraph has no target. The explicit nil clears the default's target
// when the example is resolved over it.
var cyclicGraph = generator.Inputs{
	"adjacencyList": map[string][]string{
		"A": {"B", "D"},
		"B": {"A", "C"},
		"C": {"B", "D"},
		"D": {"C", "A"},
	},
	"positions":  samplePositions("A", "B", "C", "D"),
	"startNode":  "A",
	"targetNode": nil,
}

// samplePositions lays ids out on two rows.
func samplePositions(ids ...string) map[string]map[string]float64 {
	out := make(map[string]map[string]float64, len(ids))
	perRow := (len(ids) + 1) / 2
	for i, id := range ids {
		row, col := i/perRow, i%perRow
		out[id] = map[string]float64{
			"x": float64(col+1) / float64(perRow+1),
			"y": 0.25 + 0.5*float64(row),
		}
	}
	return out
}

func buildNodes(ids []string, positions map[string]map[string]float64) []Node {
	nodes := make([]Node, len(ids))
	for i, id := range ids {
		n := Node{ID: id, Label: id, X: 0.5, Y: 0.5}
		if p, ok := positions[id]; ok {
			if x, ok := p["x"]; ok {
				n.X = x
			}
			if y, ok := p["y"]; ok {
				n.Y = y
			}
		}
		nodes[i] = n
	}
	return nodes
}

// addEdge appends from-to unless the same undirected pair is already present.
func addEdge(edges []Edge, seen map[string]bool, e Edge) []Edge {
	pair := []string{e.From, e.To}
	sort.Strings(pair)
	key := strings.Join(pair, "-")
	if seen[key] {
		return edges
	}
	seen[key] = true
	return append(edges, e)
}

func nodeIDs[V any](adj map[string]V) []string {
	ids := make([]string, 0, len(adj))
	for id := range adj {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func checkEndpoints[V any](adj map[string]V, start, target string) error {
	if _, ok := adj[start]; !ok {
		return generator.Preconditionf("startNode %q is not a node of the graph", start)
	}
	if target != "" {
		if _, ok := adj[target]; !ok {
			return generator.Preconditionf("targetNode %q is not a node of the graph", target)
		}
	}
	return nil
}

func (in traversalInput) graph() ([]string, []Node, []Edge, error) {
	if err := checkEndpoints(in.AdjacencyList, in.StartNode, in.TargetNode); err != nil {
		return nil, nil, nil, err
	}
	ids := nodeIDs(in.AdjacencyList)
	seen := make(map[string]bool)
	var edges []Edge
	for _, from := range ids {
		for _, to := range in.AdjacencyList[from] {
			if _, ok := in.AdjacencyList[to]; !ok {
				return nil, nil, nil, generator.Preconditionf("node %q lists unknown neighbor %q", from, to)
			}
			edges = addEdge(edges, seen, Edge{From: from, To: to})
		}
	}
	return ids, buildNodes(ids, in.Positions), edges, nil
}

type nodeSet map[string]bool

func (s nodeSet) sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// visitMarks colors every visited node, skipping the ids in except.
func visitMarks(visited nodeSet, start string, except ...string) []step.VisualAction {
	var out []step.VisualAction
	for _, id := range visited.sorted() {
		if contains(except, id) {
			continue
		}
		color := "visited"
		if id == start {
			color = "start"
		}
		out = append(out, visitNode(id, color))
	}
	return out
}

func visitNode(id, color string) step.VisualAction {
	return step.Action("visitNode", step.P{"nodeId": id, "color": color})
}

func currentNode(id string) step.VisualAction {
	return step.Action("setCurrentNode", step.P{"nodeId": id})
}

func edgeMark(from, to, color string) step.VisualAction {
	return step.Action("highlightEdge", step.P{"from": from, "to": to, "color": color})
}

func contains(list []string, s string) bool {
	for _, el := range list {
		if el == s {
			return true
		}
	}
	return false
}

// pathTo walks predecessors back from target. The start node has an empty
// predecessor.
func pathTo(pred map[string]string, target string) []string {
	path := []string{target}
	for node := pred[target]; node != ""; node = pred[node] {
		path = append([]string{node}, path...)
	}
	return path
}

func predecessorState(pred map[string]string) map[string]any {
	out := make(map[string]any, len(pred))
	for k, v := range pred {
		if v == "" {
			out[k] = nil
		} else {
			out[k] = v
		}
	}
	return out
}

func structure(kind, label string, items []string) map[string]any {
	return map[string]any{"type": kind, "label": label, "items": items}
}

func arrow(path []string) string {
	return strings.Join(path, " → ")
}

func edgeCount(path []string) string {
	n := len(path) - 1
	return fmt.Sprintf("%d edge%s", n, plural(n))
}
