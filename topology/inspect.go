package topology

import (
	"fmt"
	"time"
)

// InspectMode selects how an inspector side-node is wired relative to the
// main path when the flow is compiled.
type InspectMode string

const (
	// ModeHang adds the inspector as an outgoing-only sibling; its
	// response is dispatched but never awaited by the client.
	ModeHang InspectMode = "HANG"
	// ModeCollect merges the inspector's response into the main path; it
	// becomes the predecessor the next added node chains off of.
	ModeCollect InspectMode = "COLLECT"
	// ModeRemove omits the inspector entirely; structure is unchanged.
	ModeRemove InspectMode = "REMOVE"
)

// Inspect attaches an inspector executor to the last node Add created. The
// rewrite happens immediately, at construction time, exactly as the
// compiler description requires: REMOVE is a no-op, HANG hangs a side-node
// off the last added node without touching the main chain, and COLLECT
// splices the inspector into the main path.
func (b *Builder) Inspect(uses string, mode InspectMode) *Builder {
	if mode == ModeRemove {
		return b
	}
	if b.previous == "" {
		b.errs = append(b.errs, UnknownDependencyError("<inspect>", "<none>"))
		return b
	}

	b.inspectCounter++
	name := fmt.Sprintf("%s-inspect-%d", b.previous, b.inspectCounter)

	node := &Node{
		Name:         name,
		Kind:         KindWorker,
		Needs:        []string{b.previous},
		Shards:       1,
		Replicas:     1,
		Polling:      map[string]PollMode{"*": PollAny},
		Uses:         uses,
		Hanging:      mode == ModeHang,
		TimeoutReady: 600 * time.Second,
	}

	b.register(name, node)
	if mode == ModeCollect {
		b.previous = name
	}
	return b
}
