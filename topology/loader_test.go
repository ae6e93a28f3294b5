package topology

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolvePipelineBuildsGraphFromDocument(t *testing.T) {
	p := &Pipeline{
		Name: "diamond",
		Nodes: []NodeDef{
			{Name: "A"},
			{Name: "B", Needs: []string{"A"}},
			{Name: "C", Needs: []string{"A"}},
			{Name: "D", NeedsAll: true},
		},
	}

	g, err := ResolvePipeline(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d := g.Nodes["D"]
	if d == nil || d.NumberOfParts != 2 {
		t.Fatalf("expected D to join B and C, got %+v", d)
	}
}

func TestResolvePipelineShardsAndParallelAlias(t *testing.T) {
	p := &Pipeline{
		Nodes: []NodeDef{
			{Name: "encoder", Parallel: 4},
		},
	}
	g, err := ResolvePipeline(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.Nodes["encoder"].Shards != 4 {
		t.Fatalf("expected parallel to alias shards, got %d", g.Nodes["encoder"].Shards)
	}
}

func TestResolvePipelineAppliesInspectDirective(t *testing.T) {
	p := &Pipeline{
		Nodes: []NodeDef{
			{Name: "A", Inspect: &InspectDef{Uses: "executors/audit", Mode: "HANG"}},
			{Name: "B"},
		},
	}
	g, err := ResolvePipeline(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var found *Node
	for name, n := range g.Nodes {
		if name != "A" && name != "B" && n.Uses == "executors/audit" {
			found = n
		}
	}
	if found == nil {
		t.Fatal("expected an inspector node to be added")
	}
	if !found.Hanging {
		t.Fatal("expected the HANG-mode inspector to be marked hanging")
	}
}

func TestFilePipelineLoaderLoadsYAML(t *testing.T) {
	dir := t.TempDir()
	yamlDoc := "name: encode-flow\nnodes:\n  - name: encoder\n    shards: 2\n    uses: executors/encoder\n"
	if err := os.WriteFile(filepath.Join(dir, "encode-flow.yaml"), []byte(yamlDoc), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	loader := NewFilePipelineLoader(dir)
	p, err := loader.Load("encode-flow")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Name != "encode-flow" || len(p.Nodes) != 1 || p.Nodes[0].Shards != 2 {
		t.Fatalf("unexpected pipeline: %+v", p)
	}
}

func TestFilePipelineLoaderMissingFlow(t *testing.T) {
	loader := NewFilePipelineLoader(t.TempDir())
	if _, err := loader.Load("nonexistent"); err == nil {
		t.Fatal("expected an error for a missing flow file")
	}
}
