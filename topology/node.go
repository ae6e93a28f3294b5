package topology

import "time"

// Kind tags the role a Node plays in the compiled graph.
type Kind string

const (
	KindGateway Kind = "GATEWAY"
	KindHead    Kind = "HEAD"
	KindWorker  Kind = "WORKER"
)

// PollMode controls how a node's head fans a request out across shards.
type PollMode string

const (
	// PollAny routes to exactly one shard, load-balanced.
	PollAny PollMode = "ANY"
	// PollAll broadcasts to every shard and merges the responses.
	PollAll PollMode = "ALL"
)

// Reserved node names. start-gateway and end-gateway are synthesized by
// Compile; gateway is the name user flows use to mean "the client".
const (
	NameGateway      = "gateway"
	NameStartGateway = "start-gateway"
	NameEndGateway   = "end-gateway"
)

// SidecarSpec describes a uses_before/uses_after executor that wraps a
// node's head container.
type SidecarSpec struct {
	Uses      string
	UsesWith  map[string]any
	UsesMetas map[string]any
}

// Node is one logical pod in the compiled graph. It is immutable once
// Compile returns; per-request state lives in the dispatch package's
// ephemeral execution record, never here.
type Node struct {
	Name          string
	Kind          Kind
	Needs         []string // ordered; order is edge-insertion order
	Outgoing      []string // derived, ordered
	NumberOfParts int
	Shards        int
	Replicas      int
	Polling       map[string]PollMode // glob -> mode; "*" always present
	Hanging       bool
	UsesBefore    *SidecarSpec
	UsesAfter     *SidecarSpec
	Uses          string
	UsesMetas     map[string]any
	UsesWith      map[string]any
	Env           map[string]string
	Host          string
	PortIn        int
	PortExpose    int
	TimeoutReady  time.Duration
	ExposePublic  bool
}

// PollModeFor resolves the polling policy for an endpoint, falling back to
// the node's default ("*") entry. Used by connpool and dispatch to decide
// shard fan-out for a given endpoint.
func (n *Node) PollModeFor(endpoint string) PollMode {
	if mode, ok := n.Polling[endpoint]; ok {
		return mode
	}
	return n.Polling["*"]
}
