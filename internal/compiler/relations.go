package compiler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/schemaforge/internal/schema"
)

// CycleWarning reports a cycle of required relations between schemas.
//
// Cycles are warnings, not errors: relation cycles are normal (a Contact
// belongs to a Company that lists its Contacts), but when every hop is a
// required field no record in the cycle can be inserted first.
type CycleWarning struct {
	Path    []string `json:"path"`    // Cycle path: ["Contact", "Company", "Contact"]
	Message string   `json:"message"` // Human-readable description
	Level   string   `json:"level"`   // "warning"
}

// AnalyzeRelations finds cycles of required relations.
//
// The algorithm:
//  1. Build schema → schema edges from required Relation fields
//  2. Use Tarjan's algorithm to find strongly connected components
//  3. Report each SCC with size > 1 or self-loops as a cycle warning
//
// Nodes are visited in name order, so warnings are deterministic.
// An acyclic set returns an empty warning list.
func AnalyzeRelations(defs []*schema.Definition) []CycleWarning {
	graph := buildRelationGraph(defs)

	warnings := []CycleWarning{}
	for _, scc := range tarjanSCC(graph) {
		if len(scc) > 1 || (len(scc) == 1 && hasSelfLoop(scc[0], graph)) {
			warnings = append(warnings, cycleSCCToWarning(scc, graph))
		}
	}
	return warnings
}

// relationGraph maps schema name → schemas it requires a reference to.
type relationGraph map[string][]string

func buildRelationGraph(defs []*schema.Definition) relationGraph {
	graph := make(relationGraph)
	for _, def := range defs {
		name := def.Name.String()
		if graph[name] == nil {
			graph[name] = []string{}
		}
		for _, f := range def.Fields {
			rel, ok := f.Type.(schema.Relation)
			if !ok || !f.IsRequired() {
				continue
			}
			graph[name] = append(graph[name], rel.Target.String())
		}
	}
	return graph
}

func (g relationGraph) sortedNodes() []string {
	nodes := make([]string, 0, len(g))
	for node := range g {
		nodes = append(nodes, node)
	}
	sort.Strings(nodes)
	return nodes
}

// hasSelfLoop checks if a node has an edge to itself.
func hasSelfLoop(node string, graph relationGraph) bool {
	for _, neighbor := range graph[node] {
		if neighbor == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Members of each SCC are returned sorted by name.
func tarjanSCC(graph relationGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// v is a root node: pop its component
		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sort.Strings(scc)
			sccs = append(sccs, scc)
		}
	}

	for _, node := range graph.sortedNodes() {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}

	return sccs
}

func cycleSCCToWarning(scc []string, graph relationGraph) CycleWarning {
	if len(scc) == 1 {
		name := scc[0]
		return CycleWarning{
			Path:    []string{name, name},
			Message: fmt.Sprintf("Schema requires a relation to itself: %s → %s", name, name),
			Level:   "warning",
		}
	}

	path := reconstructCyclePath(scc, graph)
	return CycleWarning{
		Path:    path,
		Message: fmt.Sprintf("Required relation cycle: %s", strings.Join(path, " → ")),
		Level:   "warning",
	}
}

// reconstructCyclePath walks edges inside the SCC from its first member
// until it returns to the start.
func reconstructCyclePath(scc []string, graph relationGraph) []string {
	if len(scc) == 0 {
		return []string{}
	}

	sccSet := make(map[string]bool)
	for _, node := range scc {
		sccSet[node] = true
	}

	start := scc[0]
	current := start
	path := []string{current}
	visited := make(map[string]bool)

	for {
		visited[current] = true

		var next string
		for _, neighbor := range graph[current] {
			if sccSet[neighbor] && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}
		if next == "" {
			break
		}

		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}

	return path
}
