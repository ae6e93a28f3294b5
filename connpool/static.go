package connpool

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"bitsyflow/core/topology"
	"bitsyflow/core/wire"
)

// StaticPool is an in-memory address-table implementation of Pool. It never
// dials a network connection and has no Transport: every request goes to
// the caller-supplied send function together with the resolved address. Tests and
// single-process local deployments (runner.Local has already resolved
// every pod's address before the graph ever dispatches) use this in place
// of GRPCPool.
type StaticPool struct {
	mu       sync.RWMutex
	replicas map[string]map[int][]string // logical pod -> shard -> addresses
	polling  map[string]map[string]topology.PollMode
	send     func(ctx context.Context, address string, req wire.Request) (*wire.Response, error)
}

// NewStaticPool creates a StaticPool. send performs the actual delivery to
// a resolved address; tests typically supply an in-memory fake here.
func NewStaticPool(send func(ctx context.Context, address string, req wire.Request) (*wire.Response, error)) *StaticPool {
	return &StaticPool{
		replicas: make(map[string]map[int][]string),
		polling:  make(map[string]map[string]topology.PollMode),
		send:     send,
	}
}

// RegisterNode mirrors GRPCPool.RegisterNode for the static implementation.
func (p *StaticPool) RegisterNode(n *topology.Node) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.polling[n.Name] = clonePollingMap(n.Polling)
}

// AddConnection implements Pool.
func (p *StaticPool) AddConnection(pod, address string) error {
	logical, shard := parseShardedPod(pod)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.replicas[logical] == nil {
		p.replicas[logical] = make(map[int][]string)
	}
	p.replicas[logical][shard] = append(p.replicas[logical][shard], address)
	return nil
}

// RemoveConnection implements Pool.
func (p *StaticPool) RemoveConnection(pod, address string) error {
	logical, shard := parseShardedPod(pod)

	p.mu.Lock()
	defer p.mu.Unlock()
	addrs := p.replicas[logical][shard]
	for i, a := range addrs {
		if a == address {
			p.replicas[logical][shard] = append(addrs[:i], addrs[i+1:]...)
			break
		}
	}
	return nil
}

// SendRequestsOnce implements Pool.
func (p *StaticPool) SendRequestsOnce(ctx context.Context, requests []wire.Request, pod string, head bool, endpoint string) (*wire.Response, wire.Metadata, error) {
	p.mu.RLock()
	shards, ok := p.replicas[pod]
	mode := topology.PollAny
	if pm, ok := p.polling[pod]; ok {
		if m, ok := pm[endpoint]; ok {
			mode = m
		} else if m, ok := pm["*"]; ok {
			mode = m
		}
	}
	p.mu.RUnlock()
	if !ok || len(shards) == 0 {
		return nil, wire.ErrorMetadata(), fmt.Errorf("connpool: no connections registered for pod %q", pod)
	}
	if !head {
		mode = topology.PollAny
	}

	var req wire.Request
	if len(requests) > 0 {
		req = requests[0]
		for _, extra := range requests[1:] {
			req.Documents = append(req.Documents, extra.Documents...)
		}
	}
	req.Header.Endpoint = endpoint

	shardIdxs := make([]int, 0, len(shards))
	for idx := range shards {
		shardIdxs = append(shardIdxs, idx)
	}
	sort.Ints(shardIdxs)

	if mode == topology.PollAll {
		responses := make([]*wire.Response, 0, len(shardIdxs))
		for _, idx := range shardIdxs {
			addrs := shards[idx]
			if len(addrs) == 0 {
				continue
			}
			resp, err := p.send(ctx, addrs[0], req)
			if err != nil {
				return nil, wire.ErrorMetadata(), nil
			}
			responses = append(responses, resp)
		}
		merged := wire.MergeResponses(responses...)
		return merged, merged.Metadata, nil
	}

	for _, idx := range shardIdxs {
		addrs := shards[idx]
		if len(addrs) == 0 {
			continue
		}
		resp, err := p.send(ctx, addrs[0], req)
		if err != nil {
			return nil, wire.ErrorMetadata(), nil
		}
		return resp, resp.Metadata, nil
	}
	return nil, wire.ErrorMetadata(), fmt.Errorf("connpool: pod %q has no live replicas", pod)
}

// SendRequestSync implements Pool.
func (p *StaticPool) SendRequestSync(ctx context.Context, request wire.Request, address string) (*wire.Response, error) {
	return p.send(ctx, address, request)
}

var _ Pool = (*StaticPool)(nil)
