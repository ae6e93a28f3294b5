package dispatch

import (
	"time"

	"bitsyflow/core/wire"
)

// taskResult is what one node task delivers to every successor waiting on
// one of its outgoing edges.
type taskResult struct {
	response *wire.Response
	err      error
}

// nodeExecution is the ephemeral per-request record for one node in the
// graph. It lives only for the duration of a single Dispatch call; none of
// its fields are retained on topology.Node, which stays immutable.
type nodeExecution struct {
	name string

	// incoming holds one channel per Node.Needs entry other than
	// start-gateway, in declaration order, giving the fan-in ordering
	// guarantee dispatch promises.
	incoming []<-chan taskResult

	// outgoing holds one channel per Node.Outgoing entry; the node task
	// sends its result on every one of them once it completes.
	outgoing []chan taskResult

	startTime time.Time
	endTime   time.Time
	status    wire.Status
}
