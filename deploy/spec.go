package deploy

// Role tags the part a Spec plays: the single front-door gateway, a node's
// single head, or one of its worker shards.
type Role string

const (
	RoleGateway Role = "gateway"
	RoleHead    Role = "head"
	RoleWorker  Role = "worker-shard"
	RoleSidecar Role = "sidecar"
)

// PortSet is the set of ports a Spec's container exposes. Worker shards
// only ever populate In and the gateway only Expose; UsesBefore/UsesAfter
// are head-only.
type PortSet struct {
	In         int
	Expose     int
	UsesBefore int
	UsesAfter  int
}

// SidecarDeployment is a uses_before/uses_after executor rendered as its
// own container alongside a node's head.
type SidecarDeployment struct {
	Name string // "{node}-before" or "{node}-after"
	Uses string
	Port int
}

// Spec is one deployable unit: the gateway, a node's head, or a single
// worker shard.
type Spec struct {
	Name          string
	NodeName      string // the logical topology.Node this Spec belongs to
	Role          Role
	Image         string
	Command       []string
	ContainerArgs []string
	Replicas      int
	Ports         PortSet
	Sidecars      []SidecarDeployment
	Env           map[string]string
	GPUCount      int

	// ConnectionList maps shard index to "dns.namespace:port" for this
	// node's workers, populated only when PlanConfig.ConnectionPoolEnabled
	// is false (see Plan).
	ConnectionList map[int]string

	// PodAddresses maps every node's name to its head addresses. Plan sets
	// it only on the gateway Spec, and only when connection pooling via
	// service discovery is disabled.
	PodAddresses map[string][]string
}

// PlanConfig controls deployment-wide choices Plan needs but the graph
// itself doesn't carry, e.g. the DNS namespace pods are reachable under and
// whether connections are resolved via service discovery or baked in as an
// explicit address map.
type PlanConfig struct {
	Namespace             string
	ConnectionPoolEnabled bool
	DefaultImage          string
	DefaultGPUCount       int
}
