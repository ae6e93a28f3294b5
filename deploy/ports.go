// Package deploy turns a compiled topology.Graph into the concrete set of
// deployment units a runner.Adapter needs to start: one head and one
// worker-shard Spec per node, with sidecars, ports, and container
// arguments resolved from the node's declared options.
package deploy

// Well-known ports every pod container listens on. A node's own
// topology.Node.PortIn/PortExpose override the head's PortIn/PortExpose
// when set; sidecar ports are never overridden, since exactly one
// uses_before and one uses_after sidecar can exist per node.
const (
	PortIn         = 8081
	PortExpose     = 8080
	PortUsesBefore = 8082
	PortUsesAfter  = 8083
)
