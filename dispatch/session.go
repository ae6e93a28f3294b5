package dispatch

import (
	"context"
	"fmt"

	"bitsyflow/core/topology"
	"bitsyflow/core/wire"
)

// Session binds an Engine to a topology.Registry, letting callers dispatch
// by flow name instead of holding a *topology.Graph directly. It is a
// thin, stateless facade a server handler can hold onto for the process
// lifetime.
type Session struct {
	engine   *Engine
	registry *topology.Registry
}

// NewSession creates a Session over engine and registry.
func NewSession(engine *Engine, registry *topology.Registry) *Session {
	return &Session{engine: engine, registry: registry}
}

// Dispatch looks up flow by name and runs req against it.
func (s *Session) Dispatch(ctx context.Context, flow string, req wire.Request, endpoint string) (*wire.Response, error) {
	g, ok := s.registry.Get(flow)
	if !ok {
		return nil, fmt.Errorf("dispatch: flow %q is not registered", flow)
	}
	return s.engine.Dispatch(ctx, g, req, endpoint)
}
