// Package dispatch runs one compiled topology.Graph against one inbound
// wire.Request: a goroutine per reachable node, fanning results in along
// Node.Needs edges and back out along Node.Outgoing edges, short-circuiting
// on the first error, and detaching hanging leaves so they never block the
// client's response.
package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"bitsyflow/core/connpool"
	"bitsyflow/core/logger"
	"bitsyflow/core/topology"
	"bitsyflow/core/wire"
)

// Engine dispatches requests against compiled graphs through a shared
// connection pool.
type Engine struct {
	Pool Pool
	// Tracer controls whether the response carries a route trace. Default
	// true; tests that don't care about the trace may disable it to cut
	// allocation.
	Tracer bool
	Log    *logger.Logger
}

// Pool is connpool.Pool under a local name: the interface the dispatch
// engine sends its batched requests through.
type Pool = connpool.Pool

// NewEngine creates an Engine with route tracing enabled by default.
func NewEngine(pool Pool, log *logger.Logger) *Engine {
	return &Engine{Pool: pool, Tracer: true, Log: log}
}

// Dispatch runs req through g, starting from the origins, and returns the
// merged response collected at every non-hanging terminal. Hanging leaves
// are launched but never awaited; their errors are logged, never returned.
func (e *Engine) Dispatch(ctx context.Context, g *topology.Graph, req wire.Request, endpoint string) (*wire.Response, error) {
	if g == nil {
		return nil, fmt.Errorf("dispatch: graph is nil")
	}

	execs := e.buildExecutions(g)

	// Hanging tasks run against a child context so they can be cut off once
	// the client-visible response is ready. They are otherwise untracked by
	// wg, so Dispatch never waits on them.
	hangingCtx, cancelHanging := context.WithCancel(ctx)
	defer cancelHanging()

	var wg sync.WaitGroup
	for _, name := range g.Sorted() {
		n := g.Nodes[name]
		if n.Kind == topology.KindGateway {
			continue
		}
		if n.Hanging {
			go e.runNode(hangingCtx, g, n, execs, req, endpoint)
			continue
		}
		wg.Add(1)
		go func(n *topology.Node) {
			defer wg.Done()
			e.runNode(ctx, g, n, execs, req, endpoint)
		}(n)
	}

	// Terminal results are merged in end-gateway edge order, not completion
	// order, so the client sees the same document order on every run of the
	// same flow.
	terminals := g.Nodes[topology.NameEndGateway].Needs
	results := make([]*wire.Response, len(terminals))
	var terminalWG sync.WaitGroup
	for i, name := range terminals {
		n := g.Nodes[name]
		if n.Hanging {
			continue
		}
		exec := execs[name]
		terminalWG.Add(1)
		go func(i int, exec *nodeExecution) {
			defer terminalWG.Done()
			results[i] = awaitOutgoing(ctx, exec)
		}(i, exec)
	}
	terminalWG.Wait()
	wg.Wait()
	// Every non-hanging node (including every terminal) has now produced
	// its result, so any still-running hanging task is cut off rather than
	// left to outlive Dispatch.
	cancelHanging()

	merged := wire.MergeResponses(results...)
	merged.Header = req.Header
	if e.Tracer {
		attachRoutes(g, execs, merged)
	}
	return merged, nil
}

// buildExecutions allocates one nodeExecution per graph node and wires the
// channel topology: one buffered channel per edge, shared between the
// producer's outgoing slot and the consumer's incoming slot.
func (e *Engine) buildExecutions(g *topology.Graph) map[string]*nodeExecution {
	execs := make(map[string]*nodeExecution, len(g.Nodes))
	for name := range g.Nodes {
		execs[name] = &nodeExecution{name: name}
	}

	edgeChans := make(map[string]map[string]chan taskResult)
	edge := func(from, to string) chan taskResult {
		if edgeChans[from] == nil {
			edgeChans[from] = make(map[string]chan taskResult)
		}
		ch, ok := edgeChans[from][to]
		if !ok {
			ch = make(chan taskResult, 1)
			edgeChans[from][to] = ch
		}
		return ch
	}

	for name, n := range g.Nodes {
		exec := execs[name]
		for _, need := range n.Needs {
			// start-gateway never runs a task of its own — it's the
			// synthetic root the client request is injected at, not a
			// producer any channel waits on. Origin nodes' incoming
			// stays empty, taking runNode's "use the raw client
			// request" branch.
			if need == topology.NameStartGateway {
				continue
			}
			exec.incoming = append(exec.incoming, edge(need, name))
		}
		for _, next := range n.Outgoing {
			exec.outgoing = append(exec.outgoing, edge(name, next))
		}
	}
	return execs
}

// runNode waits for every predecessor, short-circuits on the first error
// result, otherwise batches the collected parts into one pool call once
// every part has arrived, and fans the outcome out to every successor.
func (e *Engine) runNode(ctx context.Context, g *topology.Graph, n *topology.Node, execs map[string]*nodeExecution, req wire.Request, endpoint string) {
	exec := execs[n.Name]

	var (
		parts  []*wire.Response
		result taskResult
	)
	if len(exec.incoming) == 0 {
		parts = []*wire.Response{{Header: req.Header, Documents: req.Documents}}
	} else {
		parts, result = e.awaitParts(ctx, n, exec)
	}

	// start_time/end_time are only recorded around the actual pool
	// invocation — a node that short-circuits on a parent's error never
	// calls its pod, so it never gets a route entry.
	if result.err == nil && (result.response == nil || !result.response.Metadata.IsError()) {
		exec.startTime = time.Now()
		result = e.invoke(ctx, n, parts, req.Header, endpoint)
		exec.endTime = time.Now()
	}
	if result.response != nil {
		exec.status = result.response.Status
	}

	if n.Hanging {
		// Hanging leaves have no successors to notify; errors are logged
		// and otherwise swallowed, per the wire protocol's short-circuit
		// rule not applying past a detached branch.
		if result.err != nil {
			e.Log.Warn("dispatch: hanging node failed", map[string]interface{}{
				"node": n.Name, "error": result.err.Error(),
			})
		}
		return
	}

	for _, out := range exec.outgoing {
		out <- result
		close(out)
	}
}

// awaitParts waits for every predecessor's result in Node.Needs order and
// returns the ordered parts list untouched — one element per parent; any
// document-level merging is the executor's choice, never the engine's. On
// the first "is-error" arrival it short-circuits: the remaining channels
// are still drained so their producing goroutines never block on a full
// channel, but their payloads are discarded.
func (e *Engine) awaitParts(ctx context.Context, n *topology.Node, exec *nodeExecution) ([]*wire.Response, taskResult) {
	parts := make([]*wire.Response, 0, len(exec.incoming))
	var shortCircuit *taskResult

	for _, ch := range exec.incoming {
		select {
		case <-ctx.Done():
			return nil, taskResult{err: ctx.Err()}
		case r := <-ch:
			if shortCircuit != nil {
				continue
			}
			if r.err != nil || (r.response != nil && r.response.Metadata.IsError()) {
				cp := r
				shortCircuit = &cp
				continue
			}
			parts = append(parts, r.response)
		}
	}

	if shortCircuit != nil {
		return nil, *shortCircuit
	}
	return parts, taskResult{}
}

// invoke sends the entire parts list as one batch to the node's pod through
// the connection pool — one wire.Request per parent response, in Node.Needs
// order — applying the node's per-call deadline when one is configured.
func (e *Engine) invoke(ctx context.Context, n *topology.Node, parts []*wire.Response, header wire.Header, endpoint string) taskResult {
	callCtx := ctx
	if n.TimeoutReady > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, n.TimeoutReady)
		defer cancel()
	}

	requests := make([]wire.Request, len(parts))
	for i, part := range parts {
		requests[i] = wire.Request{Header: header, Documents: part.Documents}
		requests[i].Header.Endpoint = endpoint
	}

	resp, meta, err := e.Pool.SendRequestsOnce(callCtx, requests, n.Name, true, endpoint)
	if err != nil {
		return taskResult{err: err}
	}
	if meta.IsError() {
		return taskResult{response: &wire.Response{Header: header, Metadata: meta}}
	}
	return taskResult{response: resp}
}

// awaitOutgoing blocks until the single virtual "client" consumer of a
// terminal node's result is ready; terminal nodes still populate an
// outgoing channel toward end-gateway, so this reads that channel once.
func awaitOutgoing(ctx context.Context, exec *nodeExecution) *wire.Response {
	if len(exec.outgoing) == 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return nil
	case r := <-exec.outgoing[0]:
		if r.err != nil {
			return nil
		}
		return r.response
	}
}
