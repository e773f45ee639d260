package classical

import (
	"fmt"
	"strings"

	"github.com/san-kum/stepviz/internal/generator"
	"github.com/san-kum/stepviz/internal/step"
)

var BFS = generator.New(generator.Metadata{
	ID:          "bfs",
	Name:        "Breadth-First Search",
	Category:    generator.Classical,
	Description: "Explore a graph level by level with a FIFO queue.",
	Schema:      graphSchema,
	Defaults:    sampleGraph,
	Examples: []generator.Example{
		{Name: "disconnected", Inputs: disconnectedGraph},
		{Name: "explore-all", Inputs: cyclicGraph},
	},
}, bfs)

type graphSearch struct {
	b       *step.Builder
	nodes   []Node
	edges   []Edge
	start   string
	target  string
	visited nodeSet
	pred    map[string]string
}

func (g *graphSearch) state(extra step.State) step.State {
	s := step.State{"nodes": g.nodes, "edges": g.edges, "visited": g.visited.sorted()}
	for k, v := range extra {
		s[k] = v
	}
	return s
}

func (g *graphSearch) found(path []string, explanation, text string, lines ...int) step.Sequence {
	g.b.Add(step.Step{
		ID:          "target_found",
		Title:       fmt.Sprintf("Target %q Found!", g.target),
		Explanation: explanation,
		State:       g.state(step.State{"path": path, "predecessors": predecessorState(g.pred)}),
		VisualActions: []step.VisualAction{
			step.Action("markPath", step.P{"nodeIds": path}),
			message(text, "success"),
		},
		CodeHighlight: step.Lines(lines...),
		IsTerminal:    true,
	})
	return g.b.Sequence()
}

// finish emits target_not_found when a target was requested and missed,
// exploration_complete otherwise.
func (g *graphSearch) finish(notFound, complete, title string) step.Sequence {
	if g.target != "" {
		g.b.Add(step.Step{
			ID:            "target_not_found",
			Title:         fmt.Sprintf("%q Not Reachable", g.target),
			Explanation:   notFound,
			State:         g.state(nil),
			VisualActions: append(visitMarks(g.visited, g.start), message(fmt.Sprintf("%q is unreachable", g.target), "error")),
			CodeHighlight: step.Lines(14),
			IsTerminal:    true,
		})
		return g.b.Sequence()
	}
	g.b.Add(step.Step{
		ID:            "exploration_complete",
		Title:         title,
		Explanation:   complete,
		State:         g.state(nil),
		VisualActions: append(visitMarks(g.visited, g.start), message("Exploration complete!", "success")),
		CodeHighlight: step.Lines(14),
		IsTerminal:    true,
	})
	return g.b.Sequence()
}

func searchGoal(target string) string {
	if target != "" {
		return fmt.Sprintf("Searching for node %q.", target)
	}
	return "Exploring all reachable nodes."
}

func bfs(in traversalInput) (step.Sequence, error) {
	_, nodes, edges, err := in.graph()
	if err != nil {
		return nil, err
	}

	g := &graphSearch{
		b:       step.NewBuilder(),
		nodes:   nodes,
		edges:   edges,
		start:   in.StartNode,
		target:  in.TargetNode,
		visited: nodeSet{in.StartNode: true},
		pred:    map[string]string{in.StartNode: ""},
	}
	queue := []string{in.StartNode}

	g.b.Add(step.Step{
		ID:    "initialize",
		Title: "Initialize BFS",
		Explanation: fmt.Sprintf("Starting BFS from node %q. %s Enqueue %q and mark it as visited.",
			g.start, searchGoal(g.target), g.start),
		State: g.state(step.State{"queue": queue, "dataStructure": structure("queue", "Queue", queue)}),
		VisualActions: []step.VisualAction{
			visitNode(g.start, "start"),
			currentNode(g.start),
		},
		CodeHighlight: step.Lines(1, 2, 3),
	})

	if g.target == g.start {
		path := []string{g.start}
		return g.found(path,
			fmt.Sprintf("The start node %q is the target. Shortest path: %s (0 edges).", g.start, arrow(path)),
			"Path found: "+arrow(path), 11, 12), nil
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		neighbors := in.AdjacencyList[current]

		g.b.Add(step.Step{
			ID:    "dequeue",
			Title: fmt.Sprintf("Dequeue %q", current),
			Explanation: fmt.Sprintf("Dequeued %q from the front of the queue. Now examining its neighbors: [%s].",
				current, strings.Join(neighbors, ", ")),
			State: g.state(step.State{
				"queue":         queue,
				"current":       current,
				"dataStructure": structure("queue", "Queue", queue),
			}),
			VisualActions: append([]step.VisualAction{currentNode(current)}, visitMarks(g.visited, g.start)...),
			CodeHighlight: step.Lines(5, 6),
		})

		for _, nb := range neighbors {
			if g.visited[nb] {
				continue
			}
			g.visited[nb] = true
			g.pred[nb] = current
			queue = append(queue, nb)

			g.b.Add(step.Step{
				ID:    "visit_neighbor",
				Title: fmt.Sprintf("Visit %q", nb),
				Explanation: fmt.Sprintf("%q is an unvisited neighbor of %q. Mark it as visited and enqueue it. Queue: [%s].",
					nb, current, strings.Join(queue, ", ")),
				State: g.state(step.State{
					"queue":         queue,
					"current":       current,
					"neighbor":      nb,
					"predecessors":  predecessorState(g.pred),
					"dataStructure": structure("queue", "Queue", queue),
				}),
				VisualActions: append([]step.VisualAction{
					currentNode(current),
					visitNode(nb, "visited"),
					edgeMark(current, nb, "highlight"),
				}, visitMarks(g.visited, g.start, nb)...),
				CodeHighlight: step.Lines(7, 8, 9, 10),
			})

			if nb == g.target {
				path := pathTo(g.pred, g.target)
				return g.found(path,
					fmt.Sprintf("Found %q! Shortest path: %s (%s).", g.target, arrow(path), edgeCount(path)),
					"Path found: "+arrow(path), 11, 12), nil
			}
		}
	}

	return g.finish(
		fmt.Sprintf("BFS explored all reachable nodes from %q but %q was not found. It is not connected to %q.", g.start, g.target, g.start),
		fmt.Sprintf("Explored all %d reachable node(s) from %q. Visited: [%s].", len(g.visited), g.start, strings.Join(g.visited.sorted(), ", ")),
		"BFS Exploration Complete",
	), nil
}
