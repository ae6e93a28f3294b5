// Package topology compiles a declared flow of pods into an immutable
// directed graph ready for dispatch and deployment planning. A node in the
// graph is a logical pod — possibly sharded and replicated — and edges are
// the needs relations between pods; the gateway dispatches every client
// request along those edges.
package topology

import "sort"

// Graph is the compiled, immutable topology. It is produced by
// Builder.Compile and read-only for the remainder of its lifetime.
type Graph struct {
	Nodes     map[string]*Node
	Origins   []string // ordered, successors of start-gateway
	Terminals map[string]bool
}

// Sorted returns every node name in the graph in lexical order, matching
// the deterministic iteration convention the deployment planner relies on.
func (g *Graph) Sorted() []string {
	names := make([]string, 0, len(g.Nodes))
	for name := range g.Nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
