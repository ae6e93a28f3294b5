package gateway

import (
	"context"
	"fmt"

	"bitsyflow/core/component"
)

const componentName = "gateway"

var _ component.Component = (*Component)(nil)
var _ component.Describable = (*Component)(nil)

// Component wraps Gateway to implement component.Component so the
// bootstrap lifecycle can manage it alongside the HTTP server.
type Component struct {
	gateway *Gateway
}

// NewComponent returns a component.Component backed by gw.
func NewComponent(gw *Gateway) *Component {
	return &Component{gateway: gw}
}

// Name returns the component name used for registration.
func (gc *Component) Name() string { return componentName }

// Start is a no-op: the gateway serves through the HTTP server component
// and holds no resources of its own.
func (gc *Component) Start(ctx context.Context) error { return nil }

// Stop is a no-op; in-flight dispatches drain with the HTTP server.
func (gc *Component) Stop(ctx context.Context) error { return nil }

// Health reports degraded once the dispatch bulkhead is saturated, which
// surfaces front-door backpressure on the readiness endpoint.
func (gc *Component) Health(ctx context.Context) component.Health {
	if gc.gateway.bulkhead.Available() == 0 {
		return component.Health{
			Name:    componentName,
			Status:  component.StatusDegraded,
			Message: "dispatch slots exhausted",
		}
	}
	return component.Health{
		Name:   componentName,
		Status: component.StatusHealthy,
	}
}

// Describe returns infrastructure summary info for the bootstrap display.
func (gc *Component) Describe() component.Description {
	return component.Description{
		Name: "Flow Gateway",
		Type: "gateway",
		Details: fmt.Sprintf("%s flows=%d slots=%d", gc.gateway.cfg.Prefix,
			len(gc.gateway.registry.Names()), gc.gateway.bulkhead.MaxConcurrent()),
	}
}
