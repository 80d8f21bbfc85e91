package askit

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestValidateFlowName(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"flow", false},
		{"  ", true},
		{"", true},
		{"a/b/c", false},
		{"/leading", true},
		{"trailing/", true},
		{"a//b", true},
		{"a/./b", true},
		{"a/../b", true},
		{`bad\name`, true},
		{"bad:name", true},
		{"bad*name", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateFlowName(tt.name)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateFlowName(%q) err = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
		})
	}
}

func TestUniqueFlowName(t *testing.T) {
	taken := map[string]bool{"f": true, "f2": true}
	exists := func(n string) bool { return taken[n] }

	if got := uniqueFlowName(exists, "f"); got != "f3" {
		t.Errorf("uniqueFlowName(f) = %q, want f3", got)
	}
	if got := uniqueFlowName(exists, "g"); got != "g" {
		t.Errorf("uniqueFlowName(g) = %q, want g (unused)", got)
	}
}

func TestUniqueFlowNameScenario5(t *testing.T) {
	taken := map[string]bool{}
	exists := func(n string) bool { return taken[n] }

	names := make([]string, 3)
	for i := range names {
		names[i] = uniqueFlowName(exists, "f")
		taken[names[i]] = true
	}
	want := []string{"f", "f2", "f3"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("names = %v, want %v", names, want)
	}
}

func TestCopySubFlowFreshIDsAndDropsOutsideEdges(t *testing.T) {
	nodes := []FlowNode{
		{ID: "a", DefName: "x"},
		{ID: "b", DefName: "y"},
	}
	edges := []FlowEdge{
		{ID: "e1", Source: "a", SourceHandle: "out", Target: "b", TargetHandle: "in"},
		{ID: "e2", Source: "a", SourceHandle: "out", Target: "outside", TargetHandle: "in"},
	}
	counter := 0
	newID := func() string {
		counter++
		return "fresh" + string(rune('0'+counter))
	}

	outNodes, outEdges := copySubFlow(nodes, edges, newID)
	if len(outNodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(outNodes))
	}
	if outNodes[0].ID == "a" || outNodes[1].ID == "b" {
		t.Error("expected fresh ids, got originals")
	}
	if len(outEdges) != 1 {
		t.Fatalf("expected edge to outside node to be dropped, got %d edges", len(outEdges))
	}
	if outEdges[0].Source != outNodes[0].ID || outEdges[0].Target != outNodes[1].ID {
		t.Errorf("edge endpoints not remapped: %+v", outEdges[0])
	}
}

func TestFlowJSONRoundTrip(t *testing.T) {
	raw := []byte(`{"name":"f","nodes":[{"id":"1","def_name":"core_board_in","enabled":true,"config":{"$board":"t"}}],"edges":[]}`)
	var f Flow
	if err := json.Unmarshal(raw, &f); err != nil {
		t.Fatal(err)
	}
	b, err := json.Marshal(f)
	if err != nil {
		t.Fatal(err)
	}
	var f2 Flow
	if err := json.Unmarshal(b, &f2); err != nil {
		t.Fatal(err)
	}
	if f.Name != f2.Name {
		t.Errorf("Name mismatch: %q vs %q", f.Name, f2.Name)
	}
	if len(f.Nodes) != len(f2.Nodes) {
		t.Fatalf("Nodes length mismatch: %d vs %d", len(f.Nodes), len(f2.Nodes))
	}
	if f.Nodes[0].ID != f2.Nodes[0].ID || f.Nodes[0].DefName != f2.Nodes[0].DefName {
		t.Errorf("node mismatch: %+v vs %+v", f.Nodes[0], f2.Nodes[0])
	}
	v1, _ := f.Nodes[0].Config.Get("$board")
	v2, _ := f2.Nodes[0].Config.Get("$board")
	if !v1.Equal(v2) {
		t.Errorf("config mismatch: %v vs %v", v1, v2)
	}
}

func TestFlowJSONPreservesUnknownTopLevelKeys(t *testing.T) {
	raw := []byte(`{"name":"f","nodes":[],"edges":[],"custom":"value"}`)
	var f Flow
	if err := json.Unmarshal(raw, &f); err != nil {
		t.Fatal(err)
	}
	if _, ok := f.Extensions["custom"]; !ok {
		t.Error("expected unknown top-level key to be preserved in Extensions")
	}
	b, err := json.Marshal(f)
	if err != nil {
		t.Fatal(err)
	}
	var raw2 map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw2); err != nil {
		t.Fatal(err)
	}
	if _, ok := raw2["custom"]; !ok {
		t.Error("expected 'custom' key to survive re-marshal")
	}
}

func TestNodeIDCounterMonotonic(t *testing.T) {
	var c nodeIDCounter
	a := c.next()
	b := c.next()
	if a == b {
		t.Error("expected distinct ids")
	}
}
