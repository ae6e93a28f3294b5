package topology

import (
	"sort"
	"sync"
)

// Registry caches compiled graphs by flow name. Safe for concurrent use;
// registration normally happens once at startup, lookups on every dispatch.
type Registry struct {
	mu     sync.RWMutex
	graphs map[string]*Graph
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{graphs: make(map[string]*Graph)}
}

// Register stores a compiled graph under name, replacing any existing
// entry.
func (r *Registry) Register(name string, g *Graph) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.graphs[name] = g
}

// Get retrieves a compiled graph by name.
func (r *Registry) Get(name string) (*Graph, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.graphs[name]
	return g, ok
}

// Names returns every registered flow name in lexical order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.graphs))
	for name := range r.graphs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadAndRegister loads a flow by name via loader, compiles it, and caches
// the result under the same name.
func (r *Registry) LoadAndRegister(loader PipelineLoader, name string) (*Graph, error) {
	p, err := loader.Load(name)
	if err != nil {
		return nil, err
	}
	g, err := ResolvePipeline(p)
	if err != nil {
		return nil, err
	}
	r.Register(name, g)
	return g, nil
}
