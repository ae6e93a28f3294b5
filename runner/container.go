package runner

import (
	"context"
	"fmt"

	"bitsyflow/core/deploy"
	"bitsyflow/core/discovery"
	"bitsyflow/core/logger"
	"bitsyflow/core/workload"

	// Registers the "docker" and "kubernetes" workload.ManagerFactory
	// entries via their init() funcs.
	_ "bitsyflow/core/runner/docker"
	_ "bitsyflow/core/runner/kubernetes"
)

// ContainerConfig selects and configures the backing workload.Manager.
type ContainerConfig struct {
	Workload       workload.Config
	ProviderConfig any // *docker.Config or *kubernetes.Config

	// Registry, when set, is used to register every deployed head under a
	// "pod=<node name>" tag; worker shards and sidecars are not registered.
	Registry discovery.Registry
}

// Container runs each deploy.Spec as a container workload, delegating
// manifest rendering to whichever workload.Manager cfg.Workload.Provider
// names (runner/docker or runner/kubernetes). A node's head, its worker
// shards, and its uses_before/uses_after sidecars are each deployed as
// their own workload.
type Container struct {
	mgr      workload.Manager
	registry discovery.Registry
	log      *logger.Logger
}

// NewContainer builds a Container backend from cfg.
func NewContainer(cfg ContainerConfig, log *logger.Logger) (*Container, error) {
	mgr, err := workload.New(cfg.Workload, cfg.ProviderConfig, log)
	if err != nil {
		return nil, fmt.Errorf("runner: container backend: %w", err)
	}
	return &Container{mgr: mgr, registry: cfg.Registry, log: log}, nil
}

// Start deploys every spec, and every sidecar a head spec carries, in
// order. A failure partway through tears down everything already started.
func (c *Container) Start(ctx context.Context, specs []deploy.Spec) (*Deployment, error) {
	dep := &Deployment{}
	for _, spec := range specs {
		inst, err := c.deploy(ctx, toDeployRequest(spec), spec)
		if err != nil {
			_ = c.Shutdown(ctx, dep)
			return nil, fmt.Errorf("runner: deploy %s: %w", spec.Name, err)
		}
		dep.Instances = append(dep.Instances, inst)

		for _, sc := range spec.Sidecars {
			scSpec := deploy.Spec{Name: sc.Name, NodeName: spec.NodeName, Role: deploy.RoleSidecar}
			scInst, err := c.deploy(ctx, sidecarDeployRequest(spec, sc), scSpec)
			if err != nil {
				_ = c.Shutdown(ctx, dep)
				return nil, fmt.Errorf("runner: deploy sidecar %s: %w", sc.Name, err)
			}
			dep.Instances = append(dep.Instances, scInst)
		}
	}
	return dep, nil
}

func (c *Container) deploy(ctx context.Context, req workload.DeployRequest, spec deploy.Spec) (Instance, error) {
	res, err := c.mgr.Deploy(ctx, req)
	if err != nil {
		return Instance{}, err
	}
	if c.registry != nil && spec.Role == deploy.RoleHead {
		if err := c.registry.Register(ctx, &discovery.ServiceInfo{
			ID:      res.ID,
			Name:    spec.NodeName,
			Address: spec.Name,
			Port:    spec.Ports.In,
			Tags:    []string{"pod=" + spec.NodeName},
		}); err != nil {
			c.log.Warn("runner: registering pod with discovery failed", map[string]interface{}{
				"pod": spec.NodeName, "error": err.Error(),
			})
		}
	}
	return Instance{Spec: spec, Ref: res.ID}, nil
}

// Shutdown stops and removes every instance in dep, in reverse start order.
func (c *Container) Shutdown(ctx context.Context, dep *Deployment) error {
	var errs []error
	for i := len(dep.Instances) - 1; i >= 0; i-- {
		inst := dep.Instances[i]
		if c.registry != nil && inst.Spec.Role == deploy.RoleHead {
			_ = c.registry.Deregister(ctx, inst.Ref)
		}
		if err := c.mgr.Stop(ctx, inst.Ref); err != nil {
			errs = append(errs, fmt.Errorf("%s: stop: %w", inst.Ref, err))
			continue
		}
		if err := c.mgr.Remove(ctx, inst.Ref); err != nil {
			errs = append(errs, fmt.Errorf("%s: remove: %w", inst.Ref, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("runner: shutdown errors: %v", errs)
	}
	return nil
}

// toDeployRequest maps a node's head or worker-shard Spec onto a
// workload.DeployRequest. The "pod" label carries the routable name
// discovery/consul's label-based tagging keys its service lookups on.
func toDeployRequest(spec deploy.Spec) workload.DeployRequest {
	ports := []workload.PortMapping{{Container: spec.Ports.In}}
	if spec.Ports.Expose > 0 {
		ports = append(ports, workload.PortMapping{Container: spec.Ports.Expose})
	}
	if spec.Ports.UsesBefore > 0 {
		ports = append(ports, workload.PortMapping{Container: spec.Ports.UsesBefore})
	}
	if spec.Ports.UsesAfter > 0 {
		ports = append(ports, workload.PortMapping{Container: spec.Ports.UsesAfter})
	}

	return workload.DeployRequest{
		Name:        spec.Name,
		Image:       spec.Image,
		Command:     spec.Command,
		Args:        spec.ContainerArgs,
		Environment: spec.Env,
		Labels: map[string]string{
			"node": spec.NodeName,
			"role": string(spec.Role),
			"pod":  spec.Name,
		},
		Replicas:      spec.Replicas,
		Ports:         ports,
		RestartPolicy: "on-failure",
	}
}

// sidecarDeployRequest maps a uses_before/uses_after sidecar onto its own
// workload.DeployRequest, sharing the parent head's image and environment.
func sidecarDeployRequest(parent deploy.Spec, sc deploy.SidecarDeployment) workload.DeployRequest {
	return workload.DeployRequest{
		Name:        sc.Name,
		Image:       parent.Image,
		Args:        deploy.SidecarArgs(sc.Name, sc.Uses, sc.Port),
		Environment: parent.Env,
		Labels: map[string]string{
			"node": parent.NodeName,
			"role": "sidecar",
			"pod":  sc.Name,
		},
		Replicas:      1,
		Ports:         []workload.PortMapping{{Container: sc.Port}},
		RestartPolicy: "on-failure",
	}
}

var _ Adapter = (*Container)(nil)
