package classical

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/san-kum/stepviz/internal/generator"
	"github.com/san-kum/stepviz/internal/step"
)

const infinity = "∞"

type weightedEdge struct {
	To     string  `json:"to"`
	Weight float64 `json:"weight"`
}

type dijkstraInput struct {
	AdjacencyList map[string][]weightedEdge      `json:"adjacencyList"`
	Positions     map[string]map[string]float64 `json:"positions"`
	StartNode     string                        `json:"startNode"`
	TargetNode    string                        `json:"targetNode"`
}

var Dijkstra = generator.New(generator.Metadata{
	ID:          "dijkstra",
	Name:        "Dijkstra's Shortest Path",
	Category:    generator.Classical,
	Description: "Shortest paths from a source over non-negative edge weights.",
	Schema:      graphSchema,
	Defaults: generator.Inputs{
		"adjacencyList": map[string][]weightedEdge{
			"A": {{"B", 4}, {"C", 2}},
			"B": {{"A", 4}, {"C", 1}, {"D", 5}},
			"C": {{"A", 2}, {"B", 1}, {"D", 8}, {"E", 10}},
			"D": {{"B", 5}, {"C", 8}, {"E", 2}},
			"E": {{"C", 10}, {"D", 2}},
		},
		"positions":  samplePositions("A", "B", "C", "D", "E"),
		"startNode":  "A",
		"targetNode": "E",
	},
	Examples: []generator.Example{
		{Name: "all-distances", Inputs: generator.Inputs{
			"adjacencyList": map[string][]weightedEdge{
				"A": {{"B", 1}, {"C", 4}},
				"B": {{"A", 1}, {"C", 2}},
				"C": {{"A", 4}, {"B", 2}},
			},
			"positions":  samplePositions("A", "B", "C"),
			"startNode":  "A",
			"targetNode": nil,
		}},
		{Name: "unreachable", Inputs: generator.Inputs{
			"adjacencyList": map[string][]weightedEdge{
				"A": {{"B", 3}},
				"B": {{"A", 3}},
				"C": {},
			},
			"positions":  samplePositions("A", "B", "C"),
			"startNode":  "A",
			"targetNode": "C",
		}},
	},
}, dijkstra)

type queued struct {
	id   string
	dist float64
}

func fnum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func dijkstra(in dijkstraInput) (step.Sequence, error) {
	adj := in.AdjacencyList
	if err := checkEndpoints(adj, in.StartNode, in.TargetNode); err != nil {
		return nil, err
	}
	ids := nodeIDs(adj)
	seen := make(map[string]bool)
	var edges []Edge
	for _, from := range ids {
		for _, e := range adj[from] {
			if _, ok := adj[e.To]; !ok {
				return nil, generator.Preconditionf("node %q lists unknown neighbor %q", from, e.To)
			}
			if e.Weight < 0 || math.IsNaN(e.Weight) || math.IsInf(e.Weight, 0) {
				return nil, generator.Preconditionf("edge %s → %s has weight %v; weights must be finite and non-negative", from, e.To, e.Weight)
			}
			w := e.Weight
			edges = addEdge(edges, seen, Edge{From: from, To: e.To, Weight: &w})
		}
	}

	g := &graphSearch{
		b:       step.NewBuilder(),
		nodes:   buildNodes(ids, in.Positions),
		edges:   edges,
		start:   in.StartNode,
		target:  in.TargetNode,
		visited: nodeSet{},
		pred:    map[string]string{},
	}

	dist := make(map[string]float64, len(ids))
	display := make(map[string]any, len(ids))
	for _, id := range ids {
		dist[id] = math.Inf(1)
		display[id] = infinity
		g.pred[id] = ""
	}
	dist[g.start] = 0
	display[g.start] = 0

	pq := []queued{{g.start, 0}}
	pqItems := func() []string {
		items := make([]string, len(pq))
		for i, e := range pq {
			items[i] = e.id + ":" + fnum(e.dist)
		}
		return items
	}
	values := func() []step.VisualAction {
		out := make([]step.VisualAction, len(ids))
		for i, id := range ids {
			out[i] = step.Action("updateNodeValue", step.P{"nodeId": id, "value": fmt.Sprint(display[id])})
		}
		return out
	}
	with := func(extra step.State) step.State {
		extra["distances"] = display
		return g.state(extra)
	}

	initValues := make([]step.VisualAction, 0, len(ids)+1)
	initValues = append(initValues, visitNode(g.start, "start"))
	g.b.Add(step.Step{
		ID:    "initialize",
		Title: "Initialize Dijkstra's Algorithm",
		Explanation: fmt.Sprintf("Starting Dijkstra's algorithm from node %q. Set distance to %q = 0 and all others = ∞. Add %q to the priority queue.",
			g.start, g.start, g.start),
		State:         with(step.State{"dataStructure": structure("priority-queue", "PQ", pqItems())}),
		VisualActions: append(initValues, values()...),
		CodeHighlight: step.Lines(1, 2, 3),
	})

	for len(pq) > 0 {
		sort.SliceStable(pq, func(i, j int) bool { return pq[i].dist < pq[j].dist })
		u := pq[0]
		pq = pq[1:]
		if g.visited[u.id] {
			continue
		}
		g.visited[u.id] = true

		g.b.Add(step.Step{
			ID:    "extract_min",
			Title: fmt.Sprintf("Process %q (dist = %s)", u.id, fnum(u.dist)),
			Explanation: fmt.Sprintf("Extracted %q with distance %s from the priority queue. This is the closest unvisited node. Its distance is now finalized.",
				u.id, fnum(u.dist)),
			State: with(step.State{
				"current":       u.id,
				"dataStructure": structure("priority-queue", "PQ", pqItems()),
			}),
			VisualActions: append(append([]step.VisualAction{currentNode(u.id)}, visitMarks(g.visited, g.start)...), values()...),
			CodeHighlight: step.Lines(5, 6),
		})

		if u.id == g.target {
			path := pathTo(g.pred, g.target)
			actions := append([]step.VisualAction{step.Action("markPath", step.P{"nodeIds": path})}, values()...)
			g.b.Add(step.Step{
				ID:    "target_found",
				Title: fmt.Sprintf("Shortest Path to %q Found!", g.target),
				Explanation: fmt.Sprintf("Found shortest path to %q with total distance %s. Path: %s.",
					g.target, fnum(u.dist), arrow(path)),
				State: with(step.State{"path": path, "predecessors": predecessorState(g.pred)}),
				VisualActions: append(actions,
					message(fmt.Sprintf("Shortest path: %s (cost: %s)", arrow(path), fnum(u.dist)), "success")),
				CodeHighlight: step.Lines(14, 15),
				IsTerminal:    true,
			})
			return g.b.Sequence(), nil
		}

		for _, e := range adj[u.id] {
			v := e.To
			if g.visited[v] {
				continue
			}
			candidate := dist[u.id] + e.Weight
			improved := candidate < dist[v]

			verdict := fmt.Sprintf("%s ≥ %v, no improvement.", fnum(candidate), display[v])
			color := "default"
			if improved {
				verdict = fmt.Sprintf("%s < %v, so update dist[%s] = %s.", fnum(candidate), display[v], v, fnum(candidate))
				color = "highlight"
			}

			g.b.Add(step.Step{
				ID:    "relax_edge",
				Title: fmt.Sprintf("Relax Edge %s → %s", u.id, v),
				Explanation: fmt.Sprintf("Checking edge %s → %s (weight = %s). Current dist[%s] = %v. New candidate: dist[%s] + %s = %s + %s = %s. %s",
					u.id, v, fnum(e.Weight), v, display[v], u.id, fnum(e.Weight), fnum(u.dist), fnum(e.Weight), fnum(candidate), verdict),
				State: with(step.State{
					"current":  u.id,
					"relaxing": map[string]any{"from": u.id, "to": v, "weight": e.Weight, "newDist": candidate},
				}),
				VisualActions: append(append([]step.VisualAction{
					currentNode(u.id),
					edgeMark(u.id, v, color),
				}, visitMarks(g.visited, g.start)...), values()...),
				CodeHighlight: step.Lines(8, 9, 10),
			})

			if !improved {
				continue
			}
			dist[v] = candidate
			display[v] = candidate
			g.pred[v] = u.id
			pq = append(pq, queued{v, candidate})
			sort.SliceStable(pq, func(i, j int) bool { return pq[i].dist < pq[j].dist })

			g.b.Add(step.Step{
				ID:          "distance_updated",
				Title:       fmt.Sprintf("Update dist[%s] = %s", v, fnum(candidate)),
				Explanation: fmt.Sprintf("Updated dist[%s] to %s. Predecessor of %q is now %q.", v, fnum(candidate), v, u.id),
				State: with(step.State{
					"current":       u.id,
					"dataStructure": structure("priority-queue", "PQ", pqItems()),
				}),
				VisualActions: append(append([]step.VisualAction{
					currentNode(u.id),
					step.Action("updateDistance", step.P{"nodeId": v, "value": candidate}),
					edgeMark(u.id, v, "highlight"),
				}, visitMarks(g.visited, g.start)...), values()...),
				CodeHighlight: step.Lines(11, 12, 13),
			})
		}
	}

	if g.target != "" && !g.visited[g.target] {
		g.b.Add(step.Step{
			ID:    "target_unreachable",
			Title: fmt.Sprintf("%q is Unreachable", g.target),
			Explanation: fmt.Sprintf("All reachable nodes processed. %q was never reached. It is not connected to %q.",
				g.target, g.start),
			State: with(step.State{}),
			VisualActions: append(append(visitMarks(g.visited, g.start), values()...),
				message(fmt.Sprintf("%q is unreachable", g.target), "error")),
			CodeHighlight: step.Lines(16),
			IsTerminal:    true,
		})
		return g.b.Sequence(), nil
	}

	final := make([]string, len(ids))
	for i, id := range ids {
		final[i] = fmt.Sprintf("%s=%v", id, display[id])
	}
	g.b.Add(step.Step{
		ID:    "complete",
		Title: "Dijkstra's Algorithm Complete",
		Explanation: fmt.Sprintf("All reachable nodes have been processed. Final distances from %q: %s.",
			g.start, strings.Join(final, ", ")),
		State: with(step.State{"predecessors": predecessorState(g.pred)}),
		VisualActions: append(append(visitMarks(g.visited, g.start), values()...),
			message("All shortest distances computed!", "success")),
		CodeHighlight: step.Lines(16),
		IsTerminal:    true,
	})
	return g.b.Sequence(), nil
}
