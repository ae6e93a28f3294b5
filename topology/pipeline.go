package topology

import "time"

// Pipeline is a YAML-defined flow description: a named list of nodes,
// each carrying the full set of options a pod accepts.
type Pipeline struct {
	Name  string    `yaml:"name"`
	Nodes []NodeDef `yaml:"nodes"`
}

// NodeDef defines one node within a Pipeline document.
type NodeDef struct {
	Name         string            `yaml:"name"`
	Needs        []string          `yaml:"needs,omitempty"`
	NeedsAll     bool              `yaml:"needs_all,omitempty"`
	Uses         string            `yaml:"uses,omitempty"`
	UsesBefore   *SidecarDef       `yaml:"uses_before,omitempty"`
	UsesAfter    *SidecarDef       `yaml:"uses_after,omitempty"`
	UsesMetas    map[string]any    `yaml:"uses_metas,omitempty"`
	UsesWith     map[string]any    `yaml:"uses_with,omitempty"`
	Shards       int               `yaml:"shards,omitempty"`
	Parallel     int               `yaml:"parallel,omitempty"` // alias for shards
	Replicas     int               `yaml:"replicas,omitempty"`
	Polling      map[string]string `yaml:"polling,omitempty"`
	Env          map[string]string `yaml:"env,omitempty"`
	Host         string            `yaml:"host,omitempty"`
	PortIn       int               `yaml:"port_in,omitempty"`
	PortExpose   int               `yaml:"port_expose,omitempty"`
	TimeoutReady int               `yaml:"timeout_ready,omitempty"` // ms; -1 = forever
	ExposePublic bool              `yaml:"expose_public,omitempty"`
	Inspect      *InspectDef       `yaml:"inspect,omitempty"`
}

// SidecarDef is the YAML shape of a SidecarSpec.
type SidecarDef struct {
	Uses      string         `yaml:"uses"`
	UsesWith  map[string]any `yaml:"uses_with,omitempty"`
	UsesMetas map[string]any `yaml:"uses_metas,omitempty"`
}

// InspectDef is the YAML shape of an Inspect directive.
type InspectDef struct {
	Uses string `yaml:"uses"`
	Mode string `yaml:"mode"`
}

func (d *SidecarDef) toSpec() *SidecarSpec {
	if d == nil {
		return nil
	}
	return &SidecarSpec{Uses: d.Uses, UsesWith: d.UsesWith, UsesMetas: d.UsesMetas}
}

func timeoutFromMillis(ms int) time.Duration {
	if ms < 0 {
		return -1
	}
	if ms == 0 {
		return 600 * time.Second
	}
	return time.Duration(ms) * time.Millisecond
}
