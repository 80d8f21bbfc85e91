package askit

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/go-askit/askit/internal/slogx"
)

// ASKit is the thread-safe facade tying the definition registry, agent
// kernel, dispatch plane, and board plane together (§4.5). The zero value
// is not usable; construct with New.
type ASKit struct {
	logger *slog.Logger
	tracer Tracer

	registry    *definitionRegistry
	observers   *observerRegistry
	nodeCounter nodeIDCounter

	flowsMu sync.Mutex
	flows   map[string]*Flow

	agentsMu sync.Mutex
	agents   map[string]*agentHandle

	edgesMu       sync.Mutex
	edgesBySource map[string][]FlowEdge
	edgeByID      map[string]FlowEdge

	boardDataMu sync.Mutex
	boardData   map[string]Data

	boardOutMu     sync.Mutex
	boardOutAgents map[string][]string

	central    *centralBus
	dispatchWG sync.WaitGroup
	readyOnce  sync.Once
}

// Option configures an ASKit at construction time.
type Option func(*ASKit)

// WithLogger sets the structured logger used for kernel/dispatch/board
// debug and warning output. Nil is equivalent to not calling WithLogger.
func WithLogger(l *slog.Logger) Option {
	return func(kit *ASKit) { kit.logger = l }
}

// WithTracer sets the Tracer used to trace agent and dispatch operations.
func WithTracer(t Tracer) Option {
	return func(kit *ASKit) { kit.tracer = t }
}

// WithCentralCapacity overrides the central event channel's bounded
// capacity (default DefaultCentralCapacity).
func WithCentralCapacity(n int) Option {
	return func(kit *ASKit) { kit.central = newCentralBus(n) }
}

// New constructs the facade and registers the built-in board agents. It
// does not start the dispatch loop; call Ready for that.
func New(opts ...Option) *ASKit {
	kit := &ASKit{
		registry:       newDefinitionRegistry(),
		observers:      newObserverRegistry(),
		flows:          make(map[string]*Flow),
		agents:         make(map[string]*agentHandle),
		edgesBySource:  make(map[string][]FlowEdge),
		edgeByID:       make(map[string]FlowEdge),
		boardData:      make(map[string]Data),
		boardOutAgents: make(map[string][]string),
	}
	for _, opt := range opts {
		opt(kit)
	}
	kit.logger = slogx.OrDefault(kit.logger)
	if kit.central == nil {
		kit.central = newCentralBus(DefaultCentralCapacity)
	}
	registerBoardDefinitions(kit)
	return kit
}

func (kit *ASKit) logDebug(msg string, args ...any) { kit.logger.Debug(msg, args...) }
func (kit *ASKit) logInfo(msg string, args ...any)  { kit.logger.Info(msg, args...) }
func (kit *ASKit) logWarn(msg string, args ...any)  { kit.logger.Warn(msg, args...) }

// RegisterAgent upserts a definition; an existing name is overwritten
// silently (registration is an init-time operation).
func (kit *ASKit) RegisterAgent(def AgentDefinition) {
	kit.registry.register(def)
}

// GetGlobalConfigs returns a fresh Config built from defName's
// globalConfig schema, fetched lazily and never merged into any
// instance's per-node config (§4.8).
func (kit *ASKit) GetGlobalConfigs(defName string) *Config {
	def, ok := kit.registry.get(defName)
	if !ok || def.GlobalConfig.Len() == 0 {
		return nil
	}
	cfg := NewConfig()
	for _, k := range def.GlobalConfig.Keys() {
		entry, _ := def.GlobalConfig.Get(k)
		cfg.Set(k, entry.Value)
	}
	return cfg
}

// --- Flow lifecycle ---

// NewFlow creates a flow named name, disambiguated via uniqueFlowName if
// name is already taken, and returns the name actually used.
func (kit *ASKit) NewFlow(name string) (string, error) {
	if err := validateFlowName(name); err != nil {
		return "", err
	}
	kit.flowsMu.Lock()
	defer kit.flowsMu.Unlock()
	final := uniqueFlowName(func(n string) bool { _, ok := kit.flows[n]; return ok }, name)
	kit.flows[final] = &Flow{Name: final}
	return final, nil
}

// RenameFlow renames an existing flow, enforcing name validity and
// uniqueness.
func (kit *ASKit) RenameFlow(oldName, newName string) error {
	if err := validateFlowName(newName); err != nil {
		return wrapErr(KindRenameFlowFailed, oldName, err)
	}
	kit.flowsMu.Lock()
	defer kit.flowsMu.Unlock()
	f, ok := kit.flows[oldName]
	if !ok {
		return newErr(KindFlowNotFound, oldName, "")
	}
	if _, exists := kit.flows[newName]; exists {
		return newErr(KindRenameFlowFailed, oldName, "name already in use")
	}
	delete(kit.flows, oldName)
	f.Name = newName
	kit.flows[newName] = f
	return nil
}

// AddFlow idempotently inserts a whole flow plus its nodes and edges.
// It fails with DuplicateFlowName if a flow of that name already exists;
// failures adding individual nodes or edges are logged, not fatal.
func (kit *ASKit) AddFlow(flow Flow) error {
	if err := validateFlowName(flow.Name); err != nil {
		return err
	}
	kit.flowsMu.Lock()
	if _, exists := kit.flows[flow.Name]; exists {
		kit.flowsMu.Unlock()
		return newErr(KindDuplicateFlowName, flow.Name, "")
	}
	kit.flows[flow.Name] = &Flow{Name: flow.Name, Extensions: flow.Extensions}
	kit.flowsMu.Unlock()

	for _, n := range flow.Nodes {
		if err := kit.addNodeToFlow(flow.Name, n); err != nil {
			kit.logWarn("addFlow: failed to add node", "flow", flow.Name, "node", n.ID, "error", err)
		}
	}
	for _, e := range flow.Edges {
		if err := kit.addEdgeToFlow(flow.Name, e); err != nil {
			kit.logWarn("addFlow: failed to add edge", "flow", flow.Name, "edge", e.ID, "error", err)
		}
	}
	return nil
}

// RemoveFlow stops and tears down a flow atomically from the observer's
// point of view: every agent is stopped before its handle or edges are
// removed.
func (kit *ASKit) RemoveFlow(name string) error {
	kit.flowsMu.Lock()
	f, ok := kit.flows[name]
	if !ok {
		kit.flowsMu.Unlock()
		return newErr(KindFlowNotFound, name, "")
	}
	delete(kit.flows, name)
	kit.flowsMu.Unlock()

	for _, n := range f.Nodes {
		_ = kit.StopAgent(n.ID)
		kit.removeAgentHandle(n.ID)
	}
	for _, e := range f.Edges {
		_ = kit.removeEdgeIndex(e.ID)
	}
	return nil
}

// GetFlow returns a snapshot copy of a stored flow.
func (kit *ASKit) GetFlow(name string) (Flow, bool) {
	kit.flowsMu.Lock()
	defer kit.flowsMu.Unlock()
	f, ok := kit.flows[name]
	if !ok {
		return Flow{}, false
	}
	clone := *f
	clone.Nodes = append([]FlowNode(nil), f.Nodes...)
	clone.Edges = append([]FlowEdge(nil), f.Edges...)
	return clone, true
}

// ListFlowNames returns every known flow name.
func (kit *ASKit) ListFlowNames() []string {
	kit.flowsMu.Lock()
	defer kit.flowsMu.Unlock()
	out := make([]string, 0, len(kit.flows))
	for name := range kit.flows {
		out = append(out, name)
	}
	return out
}

// --- Flow node / edge mutation (I1, I2) ---

func (kit *ASKit) addNodeToFlow(flowName string, node FlowNode) error {
	def, ok := kit.registry.get(node.DefName)
	if !ok {
		return newErr(KindUnknownDefName, node.DefName, "")
	}
	merged := mergeConfig(def.DefaultConfig, node.Config)
	agent, err := def.Factory(kit, node.ID, node.DefName, merged)
	if err != nil {
		return wrapErr(KindAgentCreationFailed, node.ID, err)
	}
	h := newAgentHandle(kit, node.ID, node.DefName, def, agent)
	if err := kit.registerAgentHandle(h); err != nil {
		return err
	}
	node.Config = merged

	kit.flowsMu.Lock()
	f := kit.flows[flowName]
	if f != nil {
		f.Nodes = append(f.Nodes, node)
	}
	kit.flowsMu.Unlock()
	if f == nil {
		kit.removeAgentHandle(node.ID)
		return newErr(KindFlowNotFound, flowName, "")
	}
	return nil
}

// AddFlowNode instantiates a new node of definition defName in flowName,
// minting a fresh globally-unique id (I1).
func (kit *ASKit) AddFlowNode(flowName, defName string, config *Config) (string, error) {
	kit.flowsMu.Lock()
	_, ok := kit.flows[flowName]
	kit.flowsMu.Unlock()
	if !ok {
		return "", newErr(KindFlowNotFound, flowName, "")
	}
	id := kit.nodeCounter.next()
	node := FlowNode{ID: id, DefName: defName, Enabled: true, Config: config}
	if err := kit.addNodeToFlow(flowName, node); err != nil {
		return "", err
	}
	return id, nil
}

// RemoveFlowNode stops the node's agent before removing it from the
// registry and the flow, preserving I4.
func (kit *ASKit) RemoveFlowNode(flowName, id string) error {
	if err := kit.StopAgent(id); err != nil && !errors.Is(err, ErrAgentNotFound) {
		kit.logWarn("removeFlowNode: stop failed", "agent", id, "error", err)
	}
	kit.removeAgentHandle(id)

	kit.flowsMu.Lock()
	f, ok := kit.flows[flowName]
	if !ok {
		kit.flowsMu.Unlock()
		return newErr(KindFlowNotFound, flowName, "")
	}
	var kept []FlowNode
	found := false
	for _, n := range f.Nodes {
		if n.ID == id {
			found = true
			continue
		}
		kept = append(kept, n)
	}
	var keptEdges, droppedEdges []FlowEdge
	for _, e := range f.Edges {
		if e.Source == id || e.Target == id {
			droppedEdges = append(droppedEdges, e)
		} else {
			keptEdges = append(keptEdges, e)
		}
	}
	f.Nodes = kept
	f.Edges = keptEdges
	kit.flowsMu.Unlock()

	for _, e := range droppedEdges {
		_ = kit.removeEdgeIndex(e.ID)
	}
	if !found {
		return newErr(KindAgentNotFound, id, "")
	}
	return nil
}

func (kit *ASKit) addEdgeToFlow(flowName string, e FlowEdge) error {
	if kit.getAgentHandle(e.Source) == nil {
		return newErr(KindSourceAgentNotFound, e.Source, "")
	}
	if err := kit.addEdgeIndex(e); err != nil {
		return err
	}
	kit.flowsMu.Lock()
	f := kit.flows[flowName]
	if f != nil {
		f.Edges = append(f.Edges, e)
	}
	kit.flowsMu.Unlock()
	if f == nil {
		_ = kit.removeEdgeIndex(e.ID)
		return newErr(KindFlowNotFound, flowName, "")
	}
	return nil
}

// AddFlowEdge connects two nodes already present in flowName, minting a
// fresh edge id if e.ID is empty.
func (kit *ASKit) AddFlowEdge(flowName string, e FlowEdge) (string, error) {
	if e.ID == "" {
		e.ID = kit.nodeCounter.next()
	}
	if err := kit.addEdgeToFlow(flowName, e); err != nil {
		return "", err
	}
	return e.ID, nil
}

// RemoveFlowEdge removes one edge from both the edge index and the flow.
func (kit *ASKit) RemoveFlowEdge(flowName, id string) error {
	if err := kit.removeEdgeIndex(id); err != nil {
		return err
	}
	kit.flowsMu.Lock()
	f, ok := kit.flows[flowName]
	if ok {
		kept := make([]FlowEdge, 0, len(f.Edges))
		for _, e := range f.Edges {
			if e.ID != id {
				kept = append(kept, e)
			}
		}
		f.Edges = kept
	}
	kit.flowsMu.Unlock()
	if !ok {
		return newErr(KindFlowNotFound, flowName, "")
	}
	return nil
}

// CopySubFlow returns fresh-id clones of nodes and the edges among them
// (P5); pure, does not mutate any stored flow.
func (kit *ASKit) CopySubFlow(nodes []FlowNode, edges []FlowEdge) ([]FlowNode, []FlowEdge) {
	return copySubFlow(nodes, edges, kit.nodeCounter.next)
}

// --- Lifecycle: ready / quit ---

// Ready spawns the dispatch loop, then starts every enabled agent in
// every flow. Calling Ready more than once is a no-op.
func (kit *ASKit) Ready() {
	kit.readyOnce.Do(func() {
		kit.dispatchWG.Add(1)
		go kit.dispatchLoop()

		kit.flowsMu.Lock()
		flows := make([]*Flow, 0, len(kit.flows))
		for _, f := range kit.flows {
			flows = append(flows, f)
		}
		kit.flowsMu.Unlock()

		for _, f := range flows {
			for _, n := range f.Nodes {
				if n.Enabled {
					if err := kit.StartAgent(n.ID); err != nil {
						kit.logWarn("ready: failed to start agent", "agent", n.ID, "error", err)
					}
				}
			}
		}
	})
}

// Quit closes the central channel and stops every running agent,
// blocking until all workers have drained.
func (kit *ASKit) Quit() {
	kit.central.close()
	kit.dispatchWG.Wait()

	kit.agentsMu.Lock()
	ids := make([]string, 0, len(kit.agents))
	for id := range kit.agents {
		ids = append(ids, id)
	}
	kit.agentsMu.Unlock()

	for _, id := range ids {
		_ = kit.StopAgent(id)
	}
}

// --- Agent control ---

// StartAgent drives agent id through Init -> Start. A no-op if already
// Start.
func (kit *ASKit) StartAgent(id string) error {
	h := kit.getAgentHandle(id)
	if h == nil {
		return newErr(KindAgentNotFound, id, "")
	}
	h.start()
	return nil
}

// StopAgent drives agent id through Start -> Init. A no-op if not
// currently Start.
func (kit *ASKit) StopAgent(id string) error {
	h := kit.getAgentHandle(id)
	if h == nil {
		return newErr(KindAgentNotFound, id, "")
	}
	h.stop()
	return nil
}

// AgentStatus reports an agent's current lifecycle state as a string
// ("Init", "Start", or "Stop").
func (kit *ASKit) AgentStatus(id string) (string, error) {
	h := kit.getAgentHandle(id)
	if h == nil {
		return "", newErr(KindAgentNotFound, id, "")
	}
	return h.getStatus().String(), nil
}

// SetAgentConfig applies cfg inline if the agent is Init, or sends it
// over the mailbox as a Config message if Start.
func (kit *ASKit) SetAgentConfig(id string, cfg *Config) error {
	h := kit.getAgentHandle(id)
	if h == nil {
		return newErr(KindAgentNotFound, id, "")
	}
	return h.setConfig(cfg)
}

// agentInput is the non-public entry the dispatch plane uses to enqueue
// an Input directly into an agent's mailbox.
func (kit *ASKit) agentInput(id string, ctx Context, data Data) error {
	h := kit.getAgentHandle(id)
	if h == nil {
		return newErr(KindAgentNotFound, id, "")
	}
	return h.deliver(ctx, ctx.Port, data)
}

// --- Board ---

// WriteBoardData is the host-side shortcut that injects a BoardOut event
// directly, as if a BoardIn agent had processed it.
func (kit *ASKit) WriteBoardData(name string, data Data) error {
	return kit.writeBoardDataEvent(name, NewContext(name), data)
}

// BoardData returns the most recent value written to name, if any (I5).
func (kit *ASKit) BoardData(name string) (Data, bool) {
	return kit.readBoardData(name)
}

// --- Observers ---

// Display surfaces a value to any subscribed observer as an AgentDisplay
// event. Agents call this directly when they want to push a value to a
// host UI; the kernel never calls it on an agent's behalf.
func (kit *ASKit) Display(agentID, key string, data Data) {
	kit.emitAgentDisplay(agentID, key, data)
}

// Subscribe registers o and returns its subscription id.
func (kit *ASKit) Subscribe(o Observer) uint64 {
	return kit.observers.subscribe(o)
}

// Unsubscribe removes a previously subscribed observer.
func (kit *ASKit) Unsubscribe(id uint64) {
	kit.observers.unsubscribe(id)
}
