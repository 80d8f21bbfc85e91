// Package askit is a runtime for agent dataflow graphs: a flow is a directed
// multigraph of typed nodes ("agents") connected by edges between named
// output ports ("source handles") and named input ports ("target handles").
//
// The package instantiates each node as a long-lived concurrent actor,
// routes typed messages along edges through a central dispatch plane,
// provides named broadcast channels ("boards") for fan-out/fan-in, and
// exposes an observer interface so hosts can watch inputs, display values,
// and errors as they happen.
//
// # Quick start
//
// Build a kit, register agent definitions, describe a flow, and run it:
//
//	kit := askit.New(askit.WithLogger(slog.Default()))
//	counter.Register(kit) // github.com/go-askit/askit/stdagents/counter
//	flowName, _ := kit.NewFlow("pipeline")
//	nodeID, _ := kit.AddFlowNode(flowName, "askit_counter", nil)
//	kit.Ready()
//	defer kit.Quit()
//
// # Core types
//
//   - [Value] / [Data] — the tagged-union payload carried on every edge.
//   - [Context] — the immutable per-message routing envelope.
//   - [AgentDefinition] — registry entry: ports, config schema, factory.
//   - [Agent] — the capability concrete node implementations satisfy.
//   - [Flow] / [FlowNode] / [FlowEdge] — the persisted graph shape.
//   - [ASKit] — the facade tying registry, kernel, dispatch, and boards
//     together.
//
// Concrete agent implementations (LLM clients, file I/O, scripting,
// database adapters) are external collaborators; see the stdagents
// subpackages for reference implementations. Observability
// (observer package), flow persistence (store/sqlite, store/postgres),
// and host configuration (internal/config) are additive and do not
// change the semantics of the core package.
package askit
