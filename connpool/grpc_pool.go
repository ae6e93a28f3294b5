package connpool

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"

	"google.golang.org/grpc"

	grpccfg "bitsyflow/core/grpc"
	grpcclient "bitsyflow/core/grpc/client"
	"bitsyflow/core/logger"
	"bitsyflow/core/resilience"
	"bitsyflow/core/topology"
	"bitsyflow/core/wire"
)

// Transport performs the actual RPC against an established connection. The
// wire format a concrete transport speaks (generated proto stubs, a
// hand-rolled codec, Connect-RPC) is an external collaborator; connpool
// only needs something that can move a wire.Request/wire.Response pair
// over a *grpc.ClientConn.
type Transport interface {
	Send(ctx context.Context, conn *grpc.ClientConn, req wire.Request) (*wire.Response, error)
	HealthCheck(ctx context.Context, conn *grpc.ClientConn) error
}

type replicaConn struct {
	address string
	adapter *grpcclient.Adapter
}

type shardGroup struct {
	replicas []*replicaConn
	rrIndex  int
}

type podEntry struct {
	shards      map[int]*shardGroup
	polling     map[string]topology.PollMode // endpoint glob -> mode
	shardRR     int                          // round robin over shard indices for ANY with no routing key
}

// GRPCPool is the production Pool implementation. It keeps one
// *grpc.ClientConn per (pod shard, replica address), built once at
// AddConnection time via grpc/client.Adapter, and decides ANY/ALL shard
// fan-out per the polling policy registered for that pod.
type GRPCPool struct {
	mu        sync.RWMutex
	pods      map[string]*podEntry
	transport Transport
	baseCfg   grpccfg.Config
	log       *logger.Logger
	retryCfg  resilience.RetryConfig
}

// NewGRPCPool creates an empty GRPCPool. baseCfg supplies the TLS/keepalive/
// message-size settings shared by every dialed connection; only Host/Port
// vary per replica.
func NewGRPCPool(transport Transport, baseCfg grpccfg.Config, log *logger.Logger) *GRPCPool {
	return &GRPCPool{
		pods:      make(map[string]*podEntry),
		transport: transport,
		baseCfg:   baseCfg,
		log:       log,
		retryCfg:  resilience.DefaultRetryConfig(),
	}
}

// RegisterNode records the polling policy a compiled topology.Node declares,
// so later SendRequestsOnce calls for that node's pod name know whether to
// apply ANY or ALL semantics. Called once per node at deploy/runner wiring
// time, not part of the Pool interface since it's configuration, not
// per-request routing.
func (p *GRPCPool) RegisterNode(n *topology.Node) {
	p.mu.Lock()
	defer p.mu.Unlock()
	entry := p.podEntryLocked(n.Name)
	entry.polling = clonePollingMap(n.Polling)
}

func clonePollingMap(m map[string]topology.PollMode) map[string]topology.PollMode {
	cp := make(map[string]topology.PollMode, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}

func (p *GRPCPool) podEntryLocked(logical string) *podEntry {
	e, ok := p.pods[logical]
	if !ok {
		e = &podEntry{shards: make(map[int]*shardGroup)}
		p.pods[logical] = e
	}
	return e
}

// AddConnection implements Pool.
func (p *GRPCPool) AddConnection(pod, address string) error {
	cfg := p.baseCfg
	host, portStr, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("connpool: invalid address %q: %w", address, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("connpool: invalid port in %q: %w", address, err)
	}
	cfg.Host = host
	cfg.Port = port
	cfg.Name = pod

	adapter, err := grpcclient.NewAdapter(cfg, p.log)
	if err != nil {
		return fmt.Errorf("connpool: dialing %s at %s: %w", pod, address, err)
	}

	logical, shard := parseShardedPod(pod)

	p.mu.Lock()
	defer p.mu.Unlock()
	entry := p.podEntryLocked(logical)
	group, ok := entry.shards[shard]
	if !ok {
		group = &shardGroup{}
		entry.shards[shard] = group
	}
	group.replicas = append(group.replicas, &replicaConn{address: address, adapter: adapter})
	return nil
}

// RemoveConnection implements Pool.
func (p *GRPCPool) RemoveConnection(pod, address string) error {
	logical, shard := parseShardedPod(pod)

	p.mu.Lock()
	defer p.mu.Unlock()
	entry, ok := p.pods[logical]
	if !ok {
		return nil
	}
	group, ok := entry.shards[shard]
	if !ok {
		return nil
	}
	for i, r := range group.replicas {
		if r.address == address {
			_ = r.adapter.Close(context.Background())
			group.replicas = append(group.replicas[:i], group.replicas[i+1:]...)
			break
		}
	}
	return nil
}

// SendRequestsOnce implements Pool.
func (p *GRPCPool) SendRequestsOnce(ctx context.Context, requests []wire.Request, pod string, head bool, endpoint string) (*wire.Response, wire.Metadata, error) {
	p.mu.RLock()
	entry, ok := p.pods[pod]
	p.mu.RUnlock()
	if !ok || len(entry.shards) == 0 {
		return nil, wire.ErrorMetadata(), fmt.Errorf("connpool: no connections registered for pod %q", pod)
	}

	mode := topology.PollAny
	if entry.polling != nil {
		if m, ok := entry.polling[endpoint]; ok {
			mode = m
		} else if m, ok := entry.polling["*"]; ok {
			mode = m
		}
	}

	if !head {
		mode = topology.PollAny
	}

	if mode == topology.PollAll {
		return p.sendAll(ctx, requests, entry, endpoint)
	}
	return p.sendAny(ctx, requests, pod, entry, endpoint)
}

func (p *GRPCPool) sendAny(ctx context.Context, requests []wire.Request, pod string, entry *podEntry, endpoint string) (*wire.Response, wire.Metadata, error) {
	p.mu.Lock()
	shardIdx := p.selectShardLocked(entry, requests)
	group := entry.shards[shardIdx]
	p.mu.Unlock()

	if group == nil || len(group.replicas) == 0 {
		return nil, wire.ErrorMetadata(), fmt.Errorf("connpool: pod %q has no replicas for shard %d", pod, shardIdx)
	}

	resp, err := p.sendWithRetry(ctx, requests, group, endpoint)
	if err != nil {
		p.log.Warn("connpool: request failed after retries", map[string]interface{}{
			"pod": pod, "shard": shardIdx, "endpoint": endpoint, "error": err.Error(),
		})
		return nil, wire.ErrorMetadata(), nil
	}
	return resp, resp.Metadata, nil
}

func (p *GRPCPool) sendAll(ctx context.Context, requests []wire.Request, entry *podEntry, endpoint string) (*wire.Response, wire.Metadata, error) {
	p.mu.RLock()
	shardIdxs := make([]int, 0, len(entry.shards))
	for idx := range entry.shards {
		shardIdxs = append(shardIdxs, idx)
	}
	p.mu.RUnlock()

	responses := make([]*wire.Response, len(shardIdxs))
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for i, idx := range shardIdxs {
		wg.Add(1)
		go func(i, idx int) {
			defer wg.Done()
			p.mu.RLock()
			group := entry.shards[idx]
			p.mu.RUnlock()

			resp, err := p.sendWithRetry(ctx, requests, group, endpoint)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}
			responses[i] = resp
		}(i, idx)
	}
	wg.Wait()

	if firstErr != nil {
		p.log.Warn("connpool: ALL-poll shard failed", map[string]interface{}{"error": firstErr.Error()})
		return nil, wire.ErrorMetadata(), nil
	}

	merged := wire.MergeResponses(responses...)
	return merged, merged.Metadata, nil
}

// selectShardLocked must be called with p.mu held. It picks a shard index
// for ANY polling: hash-consistent on the first document ID when present,
// round robin otherwise.
func (p *GRPCPool) selectShardLocked(entry *podEntry, requests []wire.Request) int {
	shardIdxs := make([]int, 0, len(entry.shards))
	for idx := range entry.shards {
		shardIdxs = append(shardIdxs, idx)
	}
	if len(shardIdxs) == 1 {
		return shardIdxs[0]
	}

	var docIDs []string
	if len(requests) > 0 {
		for _, d := range requests[0].Documents {
			docIDs = append(docIDs, d.ID)
		}
	}
	key := routingKeyFor(docIDs)
	pos := pickHashConsistent(key, len(shardIdxs), &entry.shardRR)
	return shardIdxs[pos]
}

func (p *GRPCPool) sendWithRetry(ctx context.Context, requests []wire.Request, group *shardGroup, endpoint string) (*wire.Response, error) {
	return resilience.Retry(ctx, p.retryCfg, func() (*wire.Response, error) {
		p.mu.Lock()
		if len(group.replicas) == 0 {
			p.mu.Unlock()
			return nil, fmt.Errorf("connpool: no live replicas")
		}
		i := pickRoundRobin(&group.rrIndex, len(group.replicas))
		replica := group.replicas[i]
		p.mu.Unlock()

		var req wire.Request
		if len(requests) > 0 {
			req = requests[0]
			for _, extra := range requests[1:] {
				req.Documents = append(req.Documents, extra.Documents...)
			}
		}
		req.Header.Endpoint = endpoint

		return p.transport.Send(ctx, replica.adapter.Conn(), req)
	})
}

// SendRequestSync implements Pool. It dials no persistent connection; used
// by the start barrier to probe a pod before it is registered.
func (p *GRPCPool) SendRequestSync(ctx context.Context, request wire.Request, address string) (*wire.Response, error) {
	cfg := p.baseCfg
	host, portStr, err := net.SplitHostPort(address)
	if err != nil {
		return nil, fmt.Errorf("connpool: invalid address %q: %w", address, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("connpool: invalid port in %q: %w", address, err)
	}
	cfg.Host = host
	cfg.Port = port
	cfg.Name = "probe-" + address

	adapter, err := grpcclient.NewAdapter(cfg, p.log)
	if err != nil {
		return nil, err
	}
	defer adapter.Close(ctx) //nolint:errcheck // best-effort cleanup of a one-shot probe connection

	return p.transport.Send(ctx, adapter.Conn(), request)
}

var _ Pool = (*GRPCPool)(nil)
