package dispatch

import (
	"bitsyflow/core/topology"
	"bitsyflow/core/wire"
)

// attachRoutes walks g from its origins in pre-order, exactly mirroring the
// original topology graph's add_route recursion, and appends one
// wire.RouteEntry per pod visited to resp.Routes. A node appears at most
// once even if multiple paths reach it, since the visited set is keyed by
// pod name rather than by traversal path.
func attachRoutes(g *topology.Graph, execs map[string]*nodeExecution, resp *wire.Response) {
	visited := make(map[string]bool)

	var walk func(name string)
	walk = func(name string) {
		if visited[name] {
			return
		}
		visited[name] = true

		n, ok := g.Nodes[name]
		if ok && n.Kind != topology.KindGateway {
			exec := execs[name]
			if !exec.startTime.IsZero() {
				resp.Routes = append(resp.Routes, wire.RouteEntry{
					Pod:       name,
					StartTime: exec.startTime,
					EndTime:   exec.endTime,
					Status:    exec.status,
				})
			}
		}

		for _, next := range g.Nodes[name].Outgoing {
			walk(next)
		}
	}

	for _, origin := range g.Origins {
		walk(origin)
	}
}
