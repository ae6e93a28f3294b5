package topology

import "time"

// nodeSpec tracks the in-progress state of a node between Add and the
// resolution step at the end of Add, letting NodeOption functions record
// intent (an explicit needs list vs. a needs_all join) before the Builder
// decides the final predecessor set.
type nodeSpec struct {
	node     *Node
	needsAll bool
	needsSet bool
}

// NodeOption mutates a node under construction. Options are applied in the
// order passed to Add; a later option wins over an earlier one when both
// touch the same field.
type NodeOption func(*nodeSpec)

// Needs declares an explicit predecessor set for the node being added.
func Needs(names ...string) NodeOption {
	return func(ns *nodeSpec) {
		ns.node.Needs = append([]string(nil), names...)
		ns.needsSet = true
		ns.needsAll = false
	}
}

// NeedsAll joins the node being added to every node that is currently a
// leaf (has no declared successor yet) at the point Add is called.
func NeedsAll() NodeOption {
	return func(ns *nodeSpec) {
		ns.needsAll = true
		ns.needsSet = false
	}
}

// WithShards sets the logical partition count for a pod. Default 1.
func WithShards(n int) NodeOption {
	return func(ns *nodeSpec) { ns.node.Shards = n }
}

// WithReplicas sets the redundant-copy count per shard. Default 1.
func WithReplicas(n int) NodeOption {
	return func(ns *nodeSpec) { ns.node.Replicas = n }
}

// WithPolling sets the polling mode for a single endpoint glob. Call
// repeatedly to build up a multi-endpoint policy; "*" is always present
// even if never set explicitly (Compile defaults it to PollAny).
func WithPolling(endpoint string, mode PollMode) NodeOption {
	return func(ns *nodeSpec) { ns.node.Polling[endpoint] = mode }
}

// WithUses sets the executor reference (path, class, or container URI).
func WithUses(uses string) NodeOption {
	return func(ns *nodeSpec) { ns.node.Uses = uses }
}

// WithUsesBefore attaches a sidecar executor that runs ahead of the head.
func WithUsesBefore(s SidecarSpec) NodeOption {
	return func(ns *nodeSpec) { ns.node.UsesBefore = &s }
}

// WithUsesAfter attaches a sidecar executor that runs after the head.
func WithUsesAfter(s SidecarSpec) NodeOption {
	return func(ns *nodeSpec) { ns.node.UsesAfter = &s }
}

// WithUsesMetas sets executor construction metadata.
func WithUsesMetas(metas map[string]any) NodeOption {
	return func(ns *nodeSpec) { ns.node.UsesMetas = metas }
}

// WithUsesWith sets executor construction parameters.
func WithUsesWith(with map[string]any) NodeOption {
	return func(ns *nodeSpec) { ns.node.UsesWith = with }
}

// WithEnv sets the environment passed to the node's runtime.
func WithEnv(env map[string]string) NodeOption {
	return func(ns *nodeSpec) { ns.node.Env = env }
}

// WithHost pins the node to a remote address instead of local placement.
func WithHost(host string) NodeOption {
	return func(ns *nodeSpec) { ns.node.Host = host }
}

// WithPortIn overrides the head's inbound port.
func WithPortIn(port int) NodeOption {
	return func(ns *nodeSpec) { ns.node.PortIn = port }
}

// WithPortExpose overrides the node's publicly exposed port.
func WithPortExpose(port int) NodeOption {
	return func(ns *nodeSpec) { ns.node.PortExpose = port }
}

// WithTimeoutReady sets how long the start barrier waits for this node.
// A negative duration means wait forever, matching timeout_ready=-1.
func WithTimeoutReady(d time.Duration) NodeOption {
	return func(ns *nodeSpec) { ns.node.TimeoutReady = d }
}

// WithExposePublic binds the node to the public interface instead of the
// local subnet.
func WithExposePublic(public bool) NodeOption {
	return func(ns *nodeSpec) { ns.node.ExposePublic = public }
}

// Builder incrementally assembles a flow description, tracking the
// join/inspect bookkeeping Compile needs to resolve implicit edges exactly
// once, at construction time, before validation.
type Builder struct {
	nodes       map[string]*Node
	order       []string
	leaves      map[string]bool
	previous    string
	pendingJoin []string
	errs        []error

	inspectCounter int
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		nodes:  make(map[string]*Node),
		leaves: make(map[string]bool),
	}
}

// Add appends a new node to the flow. If no Needs/NeedsAll option is given,
// the node's predecessor defaults to whatever Join last staged, else the
// previously added node, else the gateway itself for the first node.
func (b *Builder) Add(name string, opts ...NodeOption) *Builder {
	if isReserved(name) {
		b.errs = append(b.errs, ReservedNameError(name))
		return b
	}
	if _, exists := b.nodes[name]; exists {
		b.errs = append(b.errs, DuplicateNameError(name))
		return b
	}

	node := &Node{
		Name:         name,
		Kind:         KindWorker,
		Shards:       1,
		Replicas:     1,
		Polling:      map[string]PollMode{"*": PollAny},
		TimeoutReady: 600 * time.Second,
	}
	ns := &nodeSpec{node: node}
	for _, opt := range opts {
		opt(ns)
	}

	switch {
	case ns.needsAll:
		node.Needs = b.currentLeaves()
	case ns.needsSet:
		// node.Needs already populated by the Needs option.
	case len(b.pendingJoin) > 0:
		node.Needs = b.pendingJoin
	case b.previous != "":
		node.Needs = []string{b.previous}
	default:
		node.Needs = []string{NameGateway}
	}
	b.pendingJoin = nil

	b.register(name, node)
	b.previous = name
	return b
}

// Join stages an explicit predecessor set for the next node Add creates,
// matching the flow-description sugar `join(set)`. A Needs/NeedsAll option
// passed directly to that Add call overrides the staged join.
func (b *Builder) Join(names ...string) *Builder {
	b.pendingJoin = append([]string(nil), names...)
	return b
}

// SetNeeds retroactively replaces an already-added node's predecessor set.
// This is the explicit `needs(set, name)` flow operation, and is also how a
// node joined via NeedsAll gets its edges replaced by a later explicit
// needs call — last writer wins.
func (b *Builder) SetNeeds(name string, needs ...string) *Builder {
	n, ok := b.nodes[name]
	if !ok {
		b.errs = append(b.errs, UnknownDependencyError(name, name))
		return b
	}
	n.Needs = append([]string(nil), needs...)
	return b
}

// Errors returns every construction error accumulated so far.
func (b *Builder) Errors() []error {
	return b.errs
}

func (b *Builder) register(name string, node *Node) {
	b.nodes[name] = node
	b.order = append(b.order, name)
	for _, need := range node.Needs {
		if need == NameGateway || need == NameStartGateway {
			continue
		}
		delete(b.leaves, need)
	}
	b.leaves[name] = true
}

func (b *Builder) currentLeaves() []string {
	leaves := make([]string, 0, len(b.leaves))
	for _, name := range b.order {
		if b.leaves[name] {
			leaves = append(leaves, name)
		}
	}
	return leaves
}

func isReserved(name string) bool {
	switch name {
	case NameGateway, NameStartGateway, NameEndGateway:
		return true
	default:
		return false
	}
}
