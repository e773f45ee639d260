package classical

import (
	"fmt"
	"sort"
	"strings"

	"github.com/san-kum/stepviz/internal/generator"
	"github.com/san-kum/stepviz/internal/step"
)

var DFS = generator.New(generator.Metadata{
	ID:          "dfs",
	Name:        "Depth-First Search",
	Category:    generator.Classical,
	Description: "Follow one branch as deep as possible with a LIFO stack before backtracking.",
	Schema:      graphSchema,
	Defaults:    sampleGraph,
	Examples: []generator.Example{
		{Name: "disconnected", Inputs: disconnectedGraph},
		{Name: "explore-all", Inputs: cyclicGraph},
	},
}, dfs)

func dfs(in traversalInput) (step.Sequence, error) {
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
		visited: nodeSet{},
		pred:    map[string]string{in.StartNode: ""},
	}
	stack := []string{in.StartNode}

	g.b.Add(step.Step{
		ID:    "initialize",
		Title: "Initialize DFS",
		Explanation: fmt.Sprintf("Starting DFS from node %q. %s Push %q onto the stack.",
			g.start, searchGoal(g.target), g.start),
		State:         g.state(step.State{"stack": stack, "dataStructure": structure("stack", "Stack", stack)}),
		VisualActions: []step.VisualAction{visitNode(g.start, "start")},
		CodeHighlight: step.Lines(1, 2, 3),
	})

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		// Nodes are marked on pop, so a node can sit on the stack twice.
		if g.visited[current] {
			continue
		}
		g.visited[current] = true

		g.b.Add(step.Step{
			ID:    "visit_node",
			Title: fmt.Sprintf("Visit %q", current),
			Explanation: fmt.Sprintf("Popped %q from the stack and marking it as visited. Stack: [%s]. Exploring its neighbors.",
				current, strings.Join(stack, ", ")),
			State: g.state(step.State{
				"stack":         stack,
				"current":       current,
				"predecessors":  predecessorState(g.pred),
				"dataStructure": structure("stack", "Stack", stack),
			}),
			VisualActions: append([]step.VisualAction{currentNode(current)}, visitMarks(g.visited, g.start)...),
			CodeHighlight: step.Lines(5, 6, 7),
		})

		if current == g.target {
			path := pathTo(g.pred, g.target)
			return g.found(path,
				fmt.Sprintf("Found %q! DFS path: %s (%s). Note: this may NOT be the shortest path.", g.target, arrow(path), edgeCount(path)),
				"Path: "+arrow(path), 8, 9), nil
		}

		// Reverse order leaves the alphabetically first neighbor on top.
		neighbors := append([]string(nil), in.AdjacencyList[current]...)
		sort.Sort(sort.Reverse(sort.StringSlice(neighbors)))

		var pushed []string
		for _, nb := range neighbors {
			if g.visited[nb] {
				continue
			}
			if _, ok := g.pred[nb]; !ok {
				g.pred[nb] = current
			}
			stack = append(stack, nb)
			pushed = append(pushed, nb)
		}
		if len(pushed) == 0 {
			continue
		}

		actions := []step.VisualAction{currentNode(current)}
		for _, nb := range pushed {
			actions = append(actions, edgeMark(current, nb, "highlight"))
		}
		g.b.Add(step.Step{
			ID:    "push_neighbors",
			Title: fmt.Sprintf("Push Neighbors of %q", current),
			Explanation: fmt.Sprintf("Pushed unvisited neighbors of %q onto the stack: [%s]. Stack is now: [%s].",
				current, strings.Join(pushed, ", "), strings.Join(stack, ", ")),
			State: g.state(step.State{
				"stack":         stack,
				"current":       current,
				"dataStructure": structure("stack", "Stack", stack),
			}),
			VisualActions: append(actions, visitMarks(g.visited, g.start)...),
			CodeHighlight: step.Lines(10, 11, 12),
		})
	}

	return g.finish(
		fmt.Sprintf("DFS explored all reachable nodes from %q but %q was not found.", g.start, g.target),
		fmt.Sprintf("Explored all %d reachable node(s) from %q.", len(g.visited), g.start),
		"DFS Exploration Complete",
	), nil
}
