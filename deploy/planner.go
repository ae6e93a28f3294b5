package deploy

import (
	"fmt"
	"strings"

	"bitsyflow/core/topology"
)

// Plan walks g.Sorted() — the same sorted-iteration convention
// topology.Registry uses — and emits one front-door gateway Spec, then, for
// every non-gateway node, one HEAD Spec (sidecars attach only here)
// followed by one worker Spec per shard.
func Plan(g *topology.Graph, cfg PlanConfig) ([]Spec, error) {
	if cfg.Namespace == "" {
		cfg.Namespace = "default"
	}

	specs := []Spec{planGateway(cfg)}
	for _, name := range g.Sorted() {
		n := g.Nodes[name]
		if n.Kind == topology.KindGateway {
			continue
		}

		head, err := planHead(n, cfg)
		if err != nil {
			return nil, err
		}
		specs = append(specs, head)

		workers, err := planWorkers(n, cfg)
		if err != nil {
			return nil, err
		}
		specs = append(specs, workers...)
	}

	if !cfg.ConnectionPoolEnabled {
		populateConnectionLists(g, specs, cfg)
	}

	return specs, nil
}

// planGateway emits the single front-door deployment. Its PodAddresses map
// is filled in by populateConnectionLists when the connection pool is
// disabled; with pooling enabled it stays empty and the gateway discovers
// heads via their registry labels.
func planGateway(cfg PlanConfig) Spec {
	return Spec{
		Name:     "gateway",
		NodeName: topology.NameGateway,
		Role:     RoleGateway,
		Image:    cfg.DefaultImage,
		Replicas: 1,
		Ports:    PortSet{Expose: PortExpose},
	}
}

func planHead(n *topology.Node, cfg PlanConfig) (Spec, error) {
	args, err := buildContainerArgs(n, RoleHead, 0)
	if err != nil {
		return Spec{}, err
	}

	ports := PortSet{
		In:     firstNonZero(n.PortIn, PortIn),
		Expose: firstNonZero(n.PortExpose, PortExpose),
	}

	var sidecars []SidecarDeployment
	if n.UsesBefore != nil {
		ports.UsesBefore = PortUsesBefore
		sidecars = append(sidecars, SidecarDeployment{
			Name: dnsSafe(n.Name) + "-before",
			Uses: n.UsesBefore.Uses,
			Port: PortUsesBefore,
		})
	}
	if n.UsesAfter != nil {
		ports.UsesAfter = PortUsesAfter
		sidecars = append(sidecars, SidecarDeployment{
			Name: dnsSafe(n.Name) + "-after",
			Uses: n.UsesAfter.Uses,
			Port: PortUsesAfter,
		})
	}

	image := cfg.DefaultImage
	return Spec{
		Name:          dnsSafe(n.Name),
		NodeName:      n.Name,
		Role:          RoleHead,
		Image:         image,
		ContainerArgs: args,
		Replicas:      1,
		Ports:         ports,
		Sidecars:      sidecars,
		Env:           n.Env,
		GPUCount:      cfg.DefaultGPUCount,
	}, nil
}

func planWorkers(n *topology.Node, cfg PlanConfig) ([]Spec, error) {
	shards := n.Shards
	if shards <= 0 {
		shards = 1
	}

	specs := make([]Spec, 0, shards)
	for i := 0; i < shards; i++ {
		args, err := buildContainerArgs(n, RoleWorker, i)
		if err != nil {
			return nil, err
		}

		name := dnsSafe(n.Name)
		if shards > 1 {
			name = fmt.Sprintf("%s-%d", name, i)
		}

		specs = append(specs, Spec{
			Name:          name,
			NodeName:      n.Name,
			Role:          RoleWorker,
			Image:         cfg.DefaultImage,
			ContainerArgs: args,
			Replicas:      firstNonZero(n.Replicas, 1),
			Ports:         PortSet{In: PortIn},
			Env:           n.Env,
			GPUCount:      cfg.DefaultGPUCount,
		})
	}
	return specs, nil
}

// populateConnectionLists fills every head Spec's ConnectionList with its
// own worker addresses and the gateway Spec's PodAddresses with every
// node's head address, per the rule that explicit address maps are only
// needed when connection pooling isn't backed by live service discovery.
func populateConnectionLists(g *topology.Graph, specs []Spec, cfg PlanConfig) {
	workersByNode := make(map[string]map[int]string)
	headAddresses := make(map[string][]string)
	for _, s := range specs {
		switch s.Role {
		case RoleWorker:
			if workersByNode[s.NodeName] == nil {
				workersByNode[s.NodeName] = make(map[int]string)
			}
			idx := shardIndexOf(s.Name, s.NodeName)
			workersByNode[s.NodeName][idx] = fmt.Sprintf("%s.%s:%d", s.Name, cfg.Namespace, s.Ports.In)
		case RoleHead:
			headAddresses[s.NodeName] = append(headAddresses[s.NodeName],
				fmt.Sprintf("%s.%s:%d", s.Name, cfg.Namespace, s.Ports.In))
		}
	}

	for i := range specs {
		switch specs[i].Role {
		case RoleHead:
			specs[i].ConnectionList = workersByNode[specs[i].NodeName]
		case RoleGateway:
			specs[i].PodAddresses = headAddresses
		}
	}
}

func shardIndexOf(specName, nodeName string) int {
	if specName == dnsSafe(nodeName) {
		return 0
	}
	var idx int
	_, err := fmt.Sscanf(specName, dnsSafe(nodeName)+"-%d", &idx)
	if err != nil {
		return 0
	}
	return idx
}

func firstNonZero(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

// dnsSafe lowercases name and rewrites "/" and "_" to "-", matching the
// sanitizer workload.Config's naming convention expects for Kubernetes
// object names and Docker container names alike.
func dnsSafe(name string) string {
	s := strings.ToLower(name)
	s = strings.ReplaceAll(s, "/", "-")
	s = strings.ReplaceAll(s, "_", "-")
	return s
}
