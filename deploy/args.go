package deploy

import (
	"encoding/json"
	"fmt"

	"bitsyflow/core/topology"
)

// buildContainerArgs renders a node's runtime options as CLI flags,
// emitting only non-default values. uses_with and uses_metas
// are JSON-encoded and passed as single flags rather than flattened
// field-by-field, so nested structures survive the shell/exec boundary
// without escaping surprises.
func buildContainerArgs(n *topology.Node, role Role, shardIndex int) ([]string, error) {
	var args []string

	args = append(args, "--node-name", n.Name)
	args = append(args, "--role", string(role))

	if role == RoleWorker {
		args = append(args, "--shard-index", fmt.Sprintf("%d", shardIndex))
	}

	if n.Uses != "" {
		args = append(args, "--uses", n.Uses)
	}

	if n.UsesWith != nil {
		encoded, err := json.Marshal(n.UsesWith)
		if err != nil {
			return nil, fmt.Errorf("deploy: encoding uses_with for %s: %w", n.Name, err)
		}
		args = append(args, "--uses-with", string(encoded))
	}

	if n.UsesMetas != nil {
		encoded, err := json.Marshal(n.UsesMetas)
		if err != nil {
			return nil, fmt.Errorf("deploy: encoding uses_metas for %s: %w", n.Name, err)
		}
		args = append(args, "--uses-metas", string(encoded))
	}

	if n.Host != "" {
		args = append(args, "--host", n.Host)
	}

	return args, nil
}

func sidecarArgs(name, uses string, port int) []string {
	return []string{
		"--node-name", name,
		"--role", "sidecar",
		"--uses", uses,
		"--port", fmt.Sprintf("%d", port),
	}
}

// SidecarArgs renders the CLI flags a uses_before/uses_after sidecar
// container is started with. Exported so runner.Container can build the
// workload.DeployRequest for a SidecarDeployment without duplicating the
// flag shape.
func SidecarArgs(name, uses string, port int) []string {
	return sidecarArgs(name, uses, port)
}
