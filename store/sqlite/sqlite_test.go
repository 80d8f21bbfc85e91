package sqlite

import (
	"context"
	"testing"

	"github.com/go-askit/askit"
)

func newTestStore(t *testing.T) *FlowStore {
	t.Helper()
	s := New(":memory:")
	if err := s.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleFlow(name string) askit.Flow {
	return askit.Flow{
		Name: name,
		Nodes: []askit.FlowNode{
			{ID: "n1", DefName: "core_board_in", Enabled: true},
			{ID: "n2", DefName: "core_board_out", Enabled: true},
		},
		Edges: []askit.FlowEdge{
			{ID: "e1", Source: "n1", SourceHandle: "out", Target: "n2", TargetHandle: "in"},
		},
	}
}

func TestSaveAndLoadFlow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	flow := sampleFlow("pipeline-a")
	if err := s.SaveFlow(ctx, flow); err != nil {
		t.Fatalf("SaveFlow: %v", err)
	}

	got, err := s.LoadFlow(ctx, "pipeline-a")
	if err != nil {
		t.Fatalf("LoadFlow: %v", err)
	}
	if got.Name != flow.Name {
		t.Fatalf("Name = %q, want %q", got.Name, flow.Name)
	}
	if len(got.Nodes) != len(flow.Nodes) || len(got.Edges) != len(flow.Edges) {
		t.Fatalf("got %d nodes / %d edges, want %d / %d",
			len(got.Nodes), len(got.Edges), len(flow.Nodes), len(flow.Edges))
	}
	if got.Edges[0].Source != "n1" || got.Edges[0].TargetHandle != "in" {
		t.Fatalf("edge round-trip mismatch: %+v", got.Edges[0])
	}
}

func TestSaveFlowUpserts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	flow := sampleFlow("pipeline-a")
	if err := s.SaveFlow(ctx, flow); err != nil {
		t.Fatalf("SaveFlow: %v", err)
	}

	flow.Nodes = append(flow.Nodes, askit.FlowNode{ID: "n3", DefName: "core_board_in", Enabled: false})
	if err := s.SaveFlow(ctx, flow); err != nil {
		t.Fatalf("SaveFlow (update): %v", err)
	}

	got, err := s.LoadFlow(ctx, "pipeline-a")
	if err != nil {
		t.Fatalf("LoadFlow: %v", err)
	}
	if len(got.Nodes) != 3 {
		t.Fatalf("len(Nodes) = %d, want 3", len(got.Nodes))
	}
}

func TestLoadFlowNotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.LoadFlow(context.Background(), "missing"); err == nil {
		t.Fatal("LoadFlow(missing): want error, got nil")
	}
}

func TestListFlows(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"beta", "alpha", "gamma"} {
		if err := s.SaveFlow(ctx, sampleFlow(name)); err != nil {
			t.Fatalf("SaveFlow(%q): %v", name, err)
		}
	}

	names, err := s.ListFlows(ctx)
	if err != nil {
		t.Fatalf("ListFlows: %v", err)
	}
	want := []string{"alpha", "beta", "gamma"}
	if len(names) != len(want) {
		t.Fatalf("ListFlows = %v, want %v", names, want)
	}
	for i, n := range want {
		if names[i] != n {
			t.Fatalf("ListFlows[%d] = %q, want %q", i, names[i], n)
		}
	}
}

func TestDeleteFlow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	flow := sampleFlow("pipeline-a")
	if err := s.SaveFlow(ctx, flow); err != nil {
		t.Fatalf("SaveFlow: %v", err)
	}
	if err := s.DeleteFlow(ctx, "pipeline-a"); err != nil {
		t.Fatalf("DeleteFlow: %v", err)
	}
	if _, err := s.LoadFlow(ctx, "pipeline-a"); err == nil {
		t.Fatal("LoadFlow after delete: want error, got nil")
	}
}

func TestDeleteFlowMissingIsNotError(t *testing.T) {
	s := newTestStore(t)
	if err := s.DeleteFlow(context.Background(), "never-existed"); err != nil {
		t.Fatalf("DeleteFlow(missing): %v", err)
	}
}
