package topology

import (
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

// PipelineLoader loads a flow definition by name.
type PipelineLoader interface {
	Load(name string) (*Pipeline, error)
}

// FilePipelineLoader loads flow YAML files from a set of directories.
type FilePipelineLoader struct {
	dirs []string
}

// NewFilePipelineLoader creates a loader that searches dirs for {name}.yaml
// or {name}.yml.
func NewFilePipelineLoader(dirs ...string) *FilePipelineLoader {
	return &FilePipelineLoader{dirs: dirs}
}

// Load implements PipelineLoader.
func (l *FilePipelineLoader) Load(name string) (*Pipeline, error) {
	for _, dir := range l.dirs {
		for _, ext := range []string{".yaml", ".yml"} {
			path := filepath.Join(dir, name+ext)
			if p, err := loadPipelineFile(path); err == nil {
				return p, nil
			}
		}
	}
	return nil, fmt.Errorf("topology: flow %q not found in %v", name, l.dirs)
}

func loadPipelineFile(path string) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p Pipeline
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("topology: parsing %s: %w", path, err)
	}
	return &p, nil
}

// ResolvePipeline builds a Builder from a Pipeline document and compiles it
// into a Graph in one step, mirroring dag.ResolvePipeline's role but
// targeting topology.Builder instead of a raw dag.Graph.
func ResolvePipeline(p *Pipeline) (*Graph, error) {
	b := NewBuilder()
	for _, def := range p.Nodes {
		opts := nodeDefOptions(def)
		b.Add(def.Name, opts...)
		if def.Inspect != nil {
			b.Inspect(def.Inspect.Uses, InspectMode(def.Inspect.Mode))
		}
	}
	return b.Compile()
}

func nodeDefOptions(def NodeDef) []NodeOption {
	var opts []NodeOption

	switch {
	case def.NeedsAll:
		opts = append(opts, NeedsAll())
	case len(def.Needs) > 0:
		opts = append(opts, Needs(def.Needs...))
	}

	shards := def.Shards
	if shards == 0 {
		shards = def.Parallel
	}
	if shards > 0 {
		opts = append(opts, WithShards(shards))
	}
	if def.Replicas > 0 {
		opts = append(opts, WithReplicas(def.Replicas))
	}
	if def.Uses != "" {
		opts = append(opts, WithUses(def.Uses))
	}
	if def.UsesBefore != nil {
		opts = append(opts, WithUsesBefore(*def.UsesBefore.toSpec()))
	}
	if def.UsesAfter != nil {
		opts = append(opts, WithUsesAfter(*def.UsesAfter.toSpec()))
	}
	if def.UsesMetas != nil {
		opts = append(opts, WithUsesMetas(def.UsesMetas))
	}
	if def.UsesWith != nil {
		opts = append(opts, WithUsesWith(def.UsesWith))
	}
	if def.Env != nil {
		opts = append(opts, WithEnv(def.Env))
	}
	if def.Host != "" {
		opts = append(opts, WithHost(def.Host))
	}
	if def.PortIn > 0 {
		opts = append(opts, WithPortIn(def.PortIn))
	}
	if def.PortExpose > 0 {
		opts = append(opts, WithPortExpose(def.PortExpose))
	}
	opts = append(opts, WithTimeoutReady(timeoutFromMillis(def.TimeoutReady)))
	if def.ExposePublic {
		opts = append(opts, WithExposePublic(true))
	}
	for endpoint, mode := range def.Polling {
		opts = append(opts, WithPolling(endpoint, PollMode(mode)))
	}

	return opts
}
