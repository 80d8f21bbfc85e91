package askit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"
)

// FlowNode is one instantiated node in a Flow: a reference to an
// AgentDefinition by name, plus its enabled flag and stored config.
// Extensions preserves unknown JSON keys verbatim across round-trips.
type FlowNode struct {
	ID         string
	DefName    string
	Enabled    bool
	Config     *Config
	Extensions map[string]json.RawMessage
}

// FlowEdge connects (Source, SourceHandle) to (Target, TargetHandle).
// Handles are non-empty; "*" is the wildcard (§4.6). Parallel edges are
// permitted if the 4-tuple differs.
type FlowEdge struct {
	ID           string
	Source       string
	SourceHandle string
	Target       string
	TargetHandle string
}

// Flow is a named collection of nodes and edges: the unit of persistence
// and lifecycle.
type Flow struct {
	Name       string
	Nodes      []FlowNode
	Edges      []FlowEdge
	Extensions map[string]json.RawMessage
}

// nodeIDCounter hands out globally unique, monotonically increasing
// FlowNode ids (I1).
type nodeIDCounter struct {
	n atomic.Int64
}

func (c *nodeIDCounter) next() string {
	return fmt.Sprintf("n%d", c.n.Add(1))
}

// --- Name validity (§4.7) ---

const invalidNameChars = `\:*?"<>|`

// validateFlowName reports whether name is usable as a flow name.
func validateFlowName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return newErr(KindInvalidFlowName, name, "empty name")
	}
	if strings.ContainsAny(name, invalidNameChars) {
		return newErr(KindInvalidFlowName, name, "contains a reserved character")
	}
	if strings.Contains(name, "/") {
		if strings.HasPrefix(name, "/") || strings.HasSuffix(name, "/") {
			return newErr(KindInvalidFlowName, name, "leading or trailing slash")
		}
		if strings.Contains(name, "//") {
			return newErr(KindInvalidFlowName, name, "empty path segment")
		}
		for _, seg := range strings.Split(name, "/") {
			if seg == "." || seg == ".." {
				return newErr(KindInvalidFlowName, name, "segment . or .. is not allowed")
			}
		}
	}
	return nil
}

// uniqueFlowName returns name if exists(name) is false, else the first
// "name2", "name3", ... for which exists returns false.
func uniqueFlowName(exists func(string) bool, name string) string {
	if !exists(name) {
		return name
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s%d", name, i)
		if !exists(candidate) {
			return candidate
		}
	}
}

// copySubFlow returns fresh-id clones of nodes and the edges among them.
// Edges with either endpoint outside the given node set are dropped
// (P5). newID is called once per node to mint its fresh id.
func copySubFlow(nodes []FlowNode, edges []FlowEdge, newID func() string) ([]FlowNode, []FlowEdge) {
	idMap := make(map[string]string, len(nodes))
	outNodes := make([]FlowNode, len(nodes))
	for i, n := range nodes {
		freshID := newID()
		idMap[n.ID] = freshID
		clone := n
		clone.ID = freshID
		clone.Config = n.Config.Clone()
		outNodes[i] = clone
	}

	outEdges := make([]FlowEdge, 0, len(edges))
	for _, e := range edges {
		src, srcOK := idMap[e.Source]
		tgt, tgtOK := idMap[e.Target]
		if !srcOK || !tgtOK {
			continue
		}
		clone := e
		clone.ID = newID()
		clone.Source = src
		clone.Target = tgt
		outEdges = append(outEdges, clone)
	}
	return outNodes, outEdges
}

// --- JSON wire format (§6) ---

type flowNodeWire struct {
	ID      string          `json:"id"`
	DefName string          `json:"def_name"`
	Enabled bool            `json:"enabled"`
	Config  *Config         `json:"config,omitempty"`
}

type flowEdgeWire struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	SourceHandle string `json:"source_handle"`
	Target       string `json:"target"`
	TargetHandle string `json:"target_handle"`
}

func (n FlowNode) MarshalJSON() ([]byte, error) {
	base := map[string]json.RawMessage{}
	for k, v := range n.Extensions {
		base[k] = v
	}
	idB, _ := json.Marshal(n.ID)
	defB, _ := json.Marshal(n.DefName)
	enabledB, _ := json.Marshal(n.Enabled)
	base["id"] = idB
	base["def_name"] = defB
	base["enabled"] = enabledB
	if !n.Config.IsEmpty() {
		cfgB, err := json.Marshal(n.Config)
		if err != nil {
			return nil, err
		}
		base["config"] = cfgB
	} else {
		delete(base, "config")
	}
	return marshalOrderedObject([]string{"id", "def_name", "enabled", "config"}, base)
}

func (n *FlowNode) UnmarshalJSON(b []byte) error {
	var w flowNodeWire
	if err := json.Unmarshal(b, &w); err != nil {
		return &Error{Kind: KindJsonParseError, Err: err}
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return &Error{Kind: KindJsonParseError, Err: err}
	}
	for _, known := range []string{"id", "def_name", "enabled", "config"} {
		delete(raw, known)
	}
	*n = FlowNode{
		ID:         w.ID,
		DefName:    w.DefName,
		Enabled:    w.Enabled,
		Config:     w.Config,
		Extensions: raw,
	}
	return nil
}

func (e FlowEdge) MarshalJSON() ([]byte, error) {
	return json.Marshal(flowEdgeWire{
		ID:           e.ID,
		Source:       e.Source,
		SourceHandle: e.SourceHandle,
		Target:       e.Target,
		TargetHandle: e.TargetHandle,
	})
}

func (e *FlowEdge) UnmarshalJSON(b []byte) error {
	var w flowEdgeWire
	if err := json.Unmarshal(b, &w); err != nil {
		return &Error{Kind: KindJsonParseError, Err: err}
	}
	*e = FlowEdge(w)
	return nil
}

type flowWire struct {
	Name  string     `json:"name"`
	Nodes []FlowNode `json:"nodes"`
	Edges []FlowEdge `json:"edges"`
}

func (f Flow) MarshalJSON() ([]byte, error) {
	base := map[string]json.RawMessage{}
	for k, v := range f.Extensions {
		base[k] = v
	}
	nameB, _ := json.Marshal(f.Name)
	nodes := f.Nodes
	if nodes == nil {
		nodes = []FlowNode{}
	}
	nodesB, err := json.Marshal(nodes)
	if err != nil {
		return nil, err
	}
	edges := f.Edges
	if edges == nil {
		edges = []FlowEdge{}
	}
	edgesB, err := json.Marshal(edges)
	if err != nil {
		return nil, err
	}
	base["name"] = nameB
	base["nodes"] = nodesB
	base["edges"] = edgesB
	return marshalOrderedObject([]string{"name", "nodes", "edges"}, base)
}

func (f *Flow) UnmarshalJSON(b []byte) error {
	var w flowWire
	if err := json.Unmarshal(b, &w); err != nil {
		return &Error{Kind: KindJsonParseError, Err: err}
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return &Error{Kind: KindJsonParseError, Err: err}
	}
	for _, known := range []string{"name", "nodes", "edges"} {
		delete(raw, known)
	}
	*f = Flow{
		Name:       w.Name,
		Nodes:      w.Nodes,
		Edges:      w.Edges,
		Extensions: raw,
	}
	return nil
}

// marshalOrderedObject writes known keys first (in the given order, only
// if present in fields), followed by any remaining keys in fields (the
// extension keys) in map order.
func marshalOrderedObject(knownOrder []string, fields map[string]json.RawMessage) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	written := make(map[string]bool, len(fields))
	first := true
	writeField := func(k string) error {
		v, ok := fields[k]
		if !ok {
			return nil
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		kb, err := json.Marshal(k)
		if err != nil {
			return err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(v)
		written[k] = true
		return nil
	}
	for _, k := range knownOrder {
		if err := writeField(k); err != nil {
			return nil, err
		}
	}
	for k := range fields {
		if written[k] {
			continue
		}
		if err := writeField(k); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
