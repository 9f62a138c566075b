// Package archcheck runs structural analyses over the module graph:
// strongly connected components, hub and fan-out detection, layer
// classification, and graph-level metrics.
package archcheck

import "sort"

// adjacency is an index-based directed graph over interned module paths.
type adjacency struct {
	names   []string
	indexOf map[string]int
	out     [][]int
	selfIn  []bool
}

func newAdjacency(nodes []string) *adjacency {
	graph := &adjacency{
		names:   nodes,
		indexOf: make(map[string]int, len(nodes)),
		out:     make([][]int, len(nodes)),
		selfIn:  make([]bool, len(nodes)),
	}

	for i, name := range nodes {
		graph.indexOf[name] = i
	}

	return graph
}

func (g *adjacency) addEdge(from, to string) {
	u, okFrom := g.indexOf[from]
	v, okTo := g.indexOf[to]

	if !okFrom || !okTo {
		return
	}

	if u == v {
		g.selfIn[u] = true
	}

	g.out[u] = append(g.out[u], v)
}

// tarjanSCC returns all strongly connected components using an iterative
// Tarjan so deep graphs cannot overflow the goroutine stack. Components
// are returned as sorted module-path slices, ordered by first member.
func (g *adjacency) tarjanSCC() [][]string {
	const unvisited = -1

	n := len(g.names)
	index := make([]int, n)
	lowlink := make([]int, n)
	onStack := make([]bool, n)

	for i := range index {
		index[i] = unvisited
	}

	var (
		counter    int
		stack      []int
		components [][]string
	)

	type frame struct {
		node  int
		child int
	}

	for start := range n {
		if index[start] != unvisited {
			continue
		}

		callStack := []frame{{node: start}}

		for len(callStack) > 0 {
			top := &callStack[len(callStack)-1]
			node := top.node

			if top.child == 0 {
				index[node] = counter
				lowlink[node] = counter
				counter++

				stack = append(stack, node)
				onStack[node] = true
			}

			advanced := false

			for top.child < len(g.out[node]) {
				next := g.out[node][top.child]
				top.child++

				if index[next] == unvisited {
					callStack = append(callStack, frame{node: next})
					advanced = true

					break
				}

				if onStack[next] && index[next] < lowlink[node] {
					lowlink[node] = index[next]
				}
			}

			if advanced {
				continue
			}

			if lowlink[node] == index[node] {
				var members []string

				for {
					popped := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					onStack[popped] = false
					members = append(members, g.names[popped])

					if popped == node {
						break
					}
				}

				sort.Strings(members)
				components = append(components, members)
			}

			callStack = callStack[:len(callStack)-1]

			if len(callStack) > 0 {
				parent := callStack[len(callStack)-1].node
				if lowlink[node] < lowlink[parent] {
					lowlink[parent] = lowlink[node]
				}
			}
		}
	}

	sort.Slice(components, func(i, j int) bool { return components[i][0] < components[j][0] })

	return components
}

// cycles filters SCCs down to true cycles: components of size two or
// more, plus single nodes carrying a self-edge.
func (g *adjacency) cycles() [][]string {
	var result [][]string

	for _, component := range g.tarjanSCC() {
		if len(component) >= 2 {
			result = append(result, component)

			continue
		}

		if idx, ok := g.indexOf[component[0]]; ok && g.selfIn[idx] {
			result = append(result, component)
		}
	}

	return result
}
