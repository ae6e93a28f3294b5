package connpool

import (
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"bitsyflow/core/topology"
)

// parseShardedPod splits a deploy-time pod name back into its logical node
// name and shard index. deploy.Plan names the sole shard of an unsharded
// node "{name}" and the i'th shard of a sharded node "{name}-{i}"; anything
// that doesn't parse as "<logical>-<digits>" is treated as shard 0 of a
// logical pod named pod itself.
func parseShardedPod(pod string) (logical string, shard int) {
	idx := strings.LastIndex(pod, "-")
	if idx < 0 || idx == len(pod)-1 {
		return pod, 0
	}
	n, err := strconv.Atoi(pod[idx+1:])
	if err != nil || n < 0 {
		return pod, 0
	}
	return pod[:idx], n
}

// pickRoundRobin returns the next index in [0, n), advancing the
// pool's round-robin counter. Mirrors discovery.Client.DiscoverOne's
// round-robin strategy.
func pickRoundRobin(counter *int, n int) int {
	if n <= 0 {
		return 0
	}
	i := *counter % n
	*counter = (*counter + 1) % n
	return i
}

// pickHashConsistent returns a deterministic shard index for routingKey,
// falling back to round robin when routingKey is empty.
func pickHashConsistent(routingKey string, n int, counter *int) int {
	if routingKey == "" {
		return pickRoundRobin(counter, n)
	}
	if n <= 0 {
		return 0
	}
	return int(xxhash.Sum64String(routingKey) % uint64(n))
}

// routingKeyFor derives the key used for hash-consistent ANY-polling shard
// selection from a request's document IDs: the first ID, when present.
func routingKeyFor(docIDs []string) string {
	if len(docIDs) == 0 {
		return ""
	}
	return docIDs[0]
}

// pollModeFor resolves the polling policy a node declares for endpoint,
// defaulting to PollAny when the node has no entry at all (e.g. the start
// barrier probing a pod that was never compiled into a graph).
func pollModeFor(n *topology.Node, endpoint string) topology.PollMode {
	if n == nil {
		return topology.PollAny
	}
	return n.PollModeFor(endpoint)
}
