package deploy_test

import (
	"testing"

	"bitsyflow/core/deploy"
	"bitsyflow/core/topology"
)

func compileOrFail(t *testing.T, b *topology.Builder) *topology.Graph {
	t.Helper()
	g, err := b.Compile()
	if err != nil {
		t.Fatalf("unexpected compile error: %v", err)
	}
	return g
}

func TestPlanHeadAndSingleWorker(t *testing.T) {
	b := topology.NewBuilder()
	b.Add("encoder", topology.WithUses("executors/encoder"))
	g := compileOrFail(t, b)

	specs, err := deploy.Plan(g, deploy.PlanConfig{Namespace: "flow-ns"})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}

	var heads, workers int
	for _, s := range specs {
		switch s.Role {
		case deploy.RoleHead:
			heads++
			if s.Name != "encoder" {
				t.Fatalf("expected head name 'encoder', got %q", s.Name)
			}
			if s.Ports.In != deploy.PortIn {
				t.Fatalf("expected default head in-port %d, got %d", deploy.PortIn, s.Ports.In)
			}
		case deploy.RoleWorker:
			workers++
			if s.Name != "encoder" {
				t.Fatalf("expected unsharded worker name 'encoder', got %q", s.Name)
			}
		}
	}
	if heads != 1 || workers != 1 {
		t.Fatalf("expected 1 head and 1 worker, got heads=%d workers=%d", heads, workers)
	}
}

func TestPlanShardsGetIndexedNames(t *testing.T) {
	b := topology.NewBuilder()
	b.Add("encoder", topology.WithShards(3))
	g := compileOrFail(t, b)

	specs, err := deploy.Plan(g, deploy.PlanConfig{Namespace: "default"})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}

	var names []string
	for _, s := range specs {
		if s.Role == deploy.RoleWorker {
			names = append(names, s.Name)
		}
	}
	want := []string{"encoder-0", "encoder-1", "encoder-2"}
	if len(names) != len(want) {
		t.Fatalf("expected %d worker shards, got %v", len(want), names)
	}
	for i, n := range want {
		if names[i] != n {
			t.Fatalf("expected shard name %q at index %d, got %q", n, i, names[i])
		}
	}
}

func TestPlanSidecarsAttachOnlyToHead(t *testing.T) {
	b := topology.NewBuilder()
	b.Add("encoder",
		topology.WithUsesBefore(topology.SidecarSpec{Uses: "executors/pre"}),
		topology.WithUsesAfter(topology.SidecarSpec{Uses: "executors/post"}),
	)
	g := compileOrFail(t, b)

	specs, err := deploy.Plan(g, deploy.PlanConfig{Namespace: "default"})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}

	for _, s := range specs {
		if s.Role == deploy.RoleWorker && len(s.Sidecars) != 0 {
			t.Fatalf("expected worker specs to carry no sidecars, got %v", s.Sidecars)
		}
		if s.Role == deploy.RoleHead {
			if len(s.Sidecars) != 2 {
				t.Fatalf("expected head to carry both sidecars, got %v", s.Sidecars)
			}
			if s.Ports.UsesBefore != deploy.PortUsesBefore || s.Ports.UsesAfter != deploy.PortUsesAfter {
				t.Fatalf("expected sidecar ports to be assigned, got %+v", s.Ports)
			}
		}
	}
}

func TestPlanDNSSafeNames(t *testing.T) {
	b := topology.NewBuilder()
	b.Add("Encoder_Main/v2")
	g := compileOrFail(t, b)

	specs, err := deploy.Plan(g, deploy.PlanConfig{Namespace: "default"})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}

	for _, s := range specs {
		if s.Role == deploy.RoleGateway {
			continue
		}
		if s.Name != "encoder-main-v2" {
			t.Fatalf("expected dns-safe name 'encoder-main-v2', got %q", s.Name)
		}
	}
}

func TestPlanPopulatesConnectionListWhenPoolDisabled(t *testing.T) {
	b := topology.NewBuilder()
	b.Add("encoder", topology.WithShards(2))
	g := compileOrFail(t, b)

	specs, err := deploy.Plan(g, deploy.PlanConfig{Namespace: "flow-ns", ConnectionPoolEnabled: false})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}

	var head *deploy.Spec
	for i := range specs {
		if specs[i].Role == deploy.RoleHead {
			head = &specs[i]
		}
	}
	if head == nil {
		t.Fatal("expected a head spec")
	}
	if len(head.ConnectionList) != 2 {
		t.Fatalf("expected 2 shard entries in connection list, got %v", head.ConnectionList)
	}
	if head.ConnectionList[0] == "" || head.ConnectionList[1] == "" {
		t.Fatalf("expected both shard indices populated, got %v", head.ConnectionList)
	}

	var gw *deploy.Spec
	for i := range specs {
		if specs[i].Role == deploy.RoleGateway {
			gw = &specs[i]
		}
	}
	if gw == nil {
		t.Fatal("expected a gateway spec")
	}
	if len(gw.PodAddresses["encoder"]) != 1 || gw.PodAddresses["encoder"][0] != "encoder.flow-ns:8081" {
		t.Fatalf("expected gateway to address the encoder head, got %v", gw.PodAddresses)
	}
}

func TestPlanOmitsConnectionListWhenPoolEnabled(t *testing.T) {
	b := topology.NewBuilder()
	b.Add("encoder", topology.WithShards(2))
	g := compileOrFail(t, b)

	specs, err := deploy.Plan(g, deploy.PlanConfig{Namespace: "flow-ns", ConnectionPoolEnabled: true})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}

	for _, s := range specs {
		if s.Role == deploy.RoleHead && s.ConnectionList != nil {
			t.Fatalf("expected no connection list when pooling is enabled, got %+v", s)
		}
		if s.Role == deploy.RoleGateway && s.PodAddresses != nil {
			t.Fatalf("expected empty gateway address map when pooling is enabled, got %+v", s)
		}
	}
}

func TestPlanEmitsOneGatewayFrontDoor(t *testing.T) {
	b := topology.NewBuilder()
	b.Add("R2")
	b.Add("R3", topology.Needs(topology.NameGateway))
	b.Join("R2", "R3")
	b.Add("merge")
	g := compileOrFail(t, b)

	specs, err := deploy.Plan(g, deploy.PlanConfig{Namespace: "default"})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	var gateways int
	for _, s := range specs {
		if s.Role == deploy.RoleGateway {
			gateways++
			continue
		}
		if s.NodeName == topology.NameStartGateway || s.NodeName == topology.NameEndGateway {
			t.Fatalf("did not expect a spec for synthetic node %q", s.NodeName)
		}
	}
	if gateways != 1 {
		t.Fatalf("expected exactly one gateway spec, got %d", gateways)
	}
}
