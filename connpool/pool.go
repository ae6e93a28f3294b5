// Package connpool maintains the live set of gRPC connections to every
// deployed pod shard/replica and decides, per request, how a node's
// polling policy fans a call out across shards. It is the only package
// that talks to connpool.Transport directly; dispatch never dials a
// connection itself.
package connpool

import (
	"context"

	"bitsyflow/core/wire"
)

// Pool sends batched requests to a pod and keeps the live connection table
// an AddConnection/RemoveConnection caller (the runner adapter or a
// service-discovery watcher) mutates as pods come and go.
type Pool interface {
	// SendRequestsOnce delivers requests to pod's head, applying the
	// node's registered polling policy for endpoint (ANY picks one shard,
	// ALL fans out to every shard and merges). head distinguishes a normal
	// policy-driven call (true) from a call addressed at an already
	// resolved single connection, e.g. a start-barrier health probe
	// (false).
	SendRequestsOnce(ctx context.Context, requests []wire.Request, pod string, head bool, endpoint string) (*wire.Response, wire.Metadata, error)

	// SendRequestSync sends a single request directly to address, bypassing
	// the pool's shard/replica bookkeeping. Used by the start barrier to
	// probe a specific pod's health endpoint before it is registered.
	SendRequestSync(ctx context.Context, request wire.Request, address string) (*wire.Response, error)

	// AddConnection registers a live replica address under pod, which may
	// be a plain node name ("encoder", shards == 1) or a shard-qualified
	// name ("encoder-0", shards > 1) as produced by deploy.Plan.
	AddConnection(pod, address string) error

	// RemoveConnection drops a single replica address. The pod keeps
	// routing to its remaining replicas, if any.
	RemoveConnection(pod, address string) error
}
