package topology

import "sort"

// Compile finalizes the Builder's accumulated nodes into an immutable
// Graph: it synthesizes start-gateway/end-gateway, resolves Outgoing from
// every node's Needs, normalizes polling, and runs the full validation
// pass. Any error recorded by Add/Join/SetNeeds/Inspect is returned first,
// before compilation is attempted, since a malformed builder cannot
// produce a trustworthy graph.
func (b *Builder) Compile() (*Graph, error) {
	if len(b.errs) > 0 {
		return nil, b.errs[0]
	}

	g := &Graph{
		Nodes:     make(map[string]*Node, len(b.nodes)+2),
		Terminals: make(map[string]bool),
	}

	for name, n := range b.nodes {
		cp := *n
		cp.Polling = clonePolling(n.Polling)
		cp.Needs = append([]string(nil), n.Needs...)
		g.Nodes[name] = &cp
	}

	start := &Node{Name: NameStartGateway, Kind: KindGateway}
	end := &Node{Name: NameEndGateway, Kind: KindGateway}
	g.Nodes[NameStartGateway] = start
	g.Nodes[NameEndGateway] = end

	if err := rewriteGatewayEdges(g); err != nil {
		return nil, err
	}
	if err := validateDependencies(g); err != nil {
		return nil, err
	}
	if err := detectCycle(g); err != nil {
		return nil, err
	}

	resolveOutgoing(g)
	attachEndGateway(g)
	normalizePolling(g)
	computeNumberOfParts(g)
	resolveOrigins(g, b.order)
	resolveTerminals(g)
	resolveHanging(g)

	if err := validatePolling(g); err != nil {
		return nil, err
	}

	return g, nil
}

// rewriteGatewayEdges replaces every "gateway" placeholder in a node's
// Needs with start-gateway, the node it actually connects to once
// compiled.
func rewriteGatewayEdges(g *Graph) error {
	for _, n := range g.Nodes {
		if n.Kind == KindGateway {
			continue
		}
		for i, need := range n.Needs {
			if need == NameGateway {
				n.Needs[i] = NameStartGateway
			}
		}
	}
	return nil
}

func validateDependencies(g *Graph) error {
	for name, n := range g.Nodes {
		if n.Kind == KindGateway {
			continue
		}
		for _, need := range n.Needs {
			if _, ok := g.Nodes[need]; !ok {
				return UnknownDependencyError(name, need)
			}
		}
	}
	return nil
}

// detectCycle runs Kahn's algorithm over Node.Needs edges; any node left
// with a positive in-degree sits on a cycle.
func detectCycle(g *Graph) error {
	inDegree := make(map[string]int, len(g.Nodes))
	dependents := make(map[string][]string)

	for name := range g.Nodes {
		inDegree[name] = 0
	}
	for name, n := range g.Nodes {
		for _, need := range n.Needs {
			inDegree[name]++
			dependents[need] = append(dependents[need], name)
		}
	}

	var queue []string
	for name, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, name)
		}
	}

	visited := 0
	for len(queue) > 0 {
		visited += len(queue)
		var next []string
		for _, name := range queue {
			for _, dep := range dependents[name] {
				inDegree[dep]--
				if inDegree[dep] == 0 {
					next = append(next, dep)
				}
			}
		}
		queue = next
	}

	if visited != len(g.Nodes) {
		var remaining []string
		for name, deg := range inDegree {
			if deg > 0 {
				remaining = append(remaining, name)
			}
		}
		sort.Strings(remaining)
		return CycleDetectedError(remaining)
	}
	return nil
}

func resolveOutgoing(g *Graph) {
	for _, n := range g.Nodes {
		for _, need := range n.Needs {
			pred := g.Nodes[need]
			pred.Outgoing = append(pred.Outgoing, n.Name)
		}
	}
}

// attachEndGateway connects every node with no declared successor, other
// than nodes explicitly marked hanging by Inspect, to end-gateway.
func attachEndGateway(g *Graph) {
	names := make([]string, 0, len(g.Nodes))
	for name := range g.Nodes {
		names = append(names, name)
	}
	sort.Strings(names)

	end := g.Nodes[NameEndGateway]
	for _, name := range names {
		n := g.Nodes[name]
		if n.Kind == KindGateway || n.Hanging {
			continue
		}
		if len(n.Outgoing) == 0 {
			n.Outgoing = append(n.Outgoing, NameEndGateway)
			end.Needs = append(end.Needs, name)
		}
	}
}

func normalizePolling(g *Graph) {
	for _, n := range g.Nodes {
		if n.Kind == KindGateway {
			continue
		}
		if n.Polling == nil {
			n.Polling = map[string]PollMode{}
		}
		if _, ok := n.Polling["*"]; !ok {
			n.Polling["*"] = PollAny
		}
	}
}

func computeNumberOfParts(g *Graph) {
	for _, n := range g.Nodes {
		if n.Kind == KindGateway {
			continue
		}
		count := 0
		for _, need := range n.Needs {
			if need == NameStartGateway {
				continue
			}
			count++
		}
		if count == 0 {
			count = 1
		}
		n.NumberOfParts = count
	}
}

func resolveOrigins(g *Graph, order []string) {
	start := g.Nodes[NameStartGateway]
	seen := make(map[string]bool, len(start.Outgoing))
	for _, name := range order {
		n, ok := g.Nodes[name]
		if !ok {
			continue
		}
		for _, need := range n.Needs {
			if need == NameStartGateway && !seen[name] {
				seen[name] = true
				g.Origins = append(g.Origins, name)
			}
		}
	}
	start.Outgoing = append([]string(nil), g.Origins...)
}

func resolveTerminals(g *Graph) {
	end := g.Nodes[NameEndGateway]
	for _, name := range end.Needs {
		g.Terminals[name] = true
	}
}

func resolveHanging(g *Graph) {
	for name, n := range g.Nodes {
		if n.Kind == KindGateway {
			continue
		}
		n.Hanging = n.Hanging || (len(n.Outgoing) == 0 && !g.Terminals[name])
	}
}

func validatePolling(g *Graph) error {
	for name, n := range g.Nodes {
		for endpoint, mode := range n.Polling {
			if mode != PollAny && mode != PollAll {
				return InvalidPollingError(name, endpoint, mode)
			}
		}
	}
	return nil
}

func clonePolling(p map[string]PollMode) map[string]PollMode {
	cp := make(map[string]PollMode, len(p))
	for k, v := range p {
		cp[k] = v
	}
	return cp
}

// Validate re-checks a compiled Graph's invariants independently of
// Compile. Tests and the deployment planner use it as a pre-flight check
// on a Graph that may have come from a YAML pipeline rather than a fresh
// Builder.
func (g *Graph) Validate() error {
	if err := validateDependencies(g); err != nil {
		return err
	}
	if err := detectCycle(g); err != nil {
		return err
	}
	if err := validatePolling(g); err != nil {
		return err
	}

	reachable := make(map[string]bool, len(g.Nodes))
	var walk func(name string)
	walk = func(name string) {
		if reachable[name] {
			return
		}
		reachable[name] = true
		for _, next := range g.Nodes[name].Outgoing {
			walk(next)
		}
	}
	walk(NameStartGateway)

	for name, n := range g.Nodes {
		if n.Kind == KindGateway {
			continue
		}
		if !reachable[name] {
			return UnknownDependencyError(name, NameStartGateway)
		}
	}
	for terminal := range g.Terminals {
		if !reachable[terminal] {
			return UnknownDependencyError(terminal, NameStartGateway)
		}
	}
	return nil
}
