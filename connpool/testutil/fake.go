// Package testutil provides a fake connpool.Pool for exercising dispatch
// and runner code without dialing real gRPC connections.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"bitsyflow/core/connpool"
	"bitsyflow/core/wire"
)

// Responder computes a response for one SendRequestsOnce/SendRequestSync
// call, keyed by pod (or address, for SendRequestSync).
type Responder func(ctx context.Context, requests []wire.Request) (*wire.Response, wire.Metadata, error)

// FakePool is a connpool.Pool double. Register per-pod responders with
// Handle; calls against an unregistered pod return an error.
type FakePool struct {
	mu         sync.Mutex
	responders map[string]Responder
	conns      map[string]map[string]bool // pod -> address -> present

	Added   []string // "pod@address" in AddConnection call order
	Removed []string // "pod@address" in RemoveConnection call order
}

// NewFakePool creates an empty FakePool.
func NewFakePool() *FakePool {
	return &FakePool{
		responders: make(map[string]Responder),
		conns:      make(map[string]map[string]bool),
	}
}

// Handle registers fn as the responder for pod.
func (p *FakePool) Handle(pod string, fn Responder) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.responders[pod] = fn
}

func (p *FakePool) SendRequestsOnce(ctx context.Context, requests []wire.Request, pod string, head bool, endpoint string) (*wire.Response, wire.Metadata, error) {
	p.mu.Lock()
	fn, ok := p.responders[pod]
	p.mu.Unlock()
	if !ok {
		return nil, nil, fmt.Errorf("testutil: no responder registered for pod %q", pod)
	}
	return fn(ctx, requests)
}

func (p *FakePool) SendRequestSync(ctx context.Context, request wire.Request, address string) (*wire.Response, error) {
	p.mu.Lock()
	fn, ok := p.responders[address]
	p.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("testutil: no responder registered for address %q", address)
	}
	resp, _, err := fn(ctx, []wire.Request{request})
	return resp, err
}

func (p *FakePool) AddConnection(pod, address string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conns[pod] == nil {
		p.conns[pod] = make(map[string]bool)
	}
	p.conns[pod][address] = true
	p.Added = append(p.Added, pod+"@"+address)
	return nil
}

func (p *FakePool) RemoveConnection(pod, address string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.conns[pod], address)
	p.Removed = append(p.Removed, pod+"@"+address)
	return nil
}

var _ connpool.Pool = (*FakePool)(nil)
