// Package runner turns a []deploy.Spec into running instances, either as
// local subprocesses (development, single-box topologies) or as container
// workloads delegated to runner/docker or runner/kubernetes.
package runner

import (
	"context"

	"bitsyflow/core/deploy"
)

// Instance is one running copy of a deploy.Spec. Ref is opaque outside the
// Adapter that produced it: a PID for Local, a container ID for Container's
// Docker backend, or "namespace/name" for its Kubernetes backend.
type Instance struct {
	Spec deploy.Spec
	Ref  string
}

// Deployment is the set of Instances an Adapter.Start call produced, in
// start order. Adapter.Shutdown tears them down in reverse.
type Deployment struct {
	Instances []Instance
}

// Adapter starts and stops a whole []deploy.Spec as one unit.
type Adapter interface {
	// Start launches every spec in order and returns once each has been
	// created. It does not wait for service readiness — use Await for
	// that. On a mid-sequence failure, Start tears down whatever it
	// already launched before returning the error.
	Start(ctx context.Context, specs []deploy.Spec) (*Deployment, error)

	// Shutdown tears down every instance in dep in reverse start order.
	Shutdown(ctx context.Context, dep *Deployment) error
}
