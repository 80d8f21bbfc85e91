package askit

import (
	"sync"
	"testing"
	"time"
)

// recordingAgent records every delivered input; used across the facade
// scenario tests below.
type recordingAgent struct {
	mu       sync.Mutex
	received []recordedInput
	cfg      *Config
}

type recordedInput struct {
	port string
	data Data
}

func (a *recordingAgent) Start() error { return nil }
func (a *recordingAgent) Stop() error  { return nil }
func (a *recordingAgent) SetConfig(cfg *Config) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cfg = cfg
	return nil
}
func (a *recordingAgent) Process(ctx Context, port string, data Data) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.received = append(a.received, recordedInput{port: port, data: data})
	return nil
}

func (a *recordingAgent) snapshot() []recordedInput {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]recordedInput, len(a.received))
	copy(out, a.received)
	return out
}

// recorderRegistry hands out recordingAgent instances keyed by the id
// they were constructed for, so tests can inspect them after dispatch.
type recorderRegistry struct {
	mu     sync.Mutex
	agents map[string]*recordingAgent
}

func newRecorderRegistry() *recorderRegistry {
	return &recorderRegistry{agents: make(map[string]*recordingAgent)}
}

func (r *recorderRegistry) factory(kit *ASKit, id, defName string, config *Config) (Agent, error) {
	a := &recordingAgent{cfg: config}
	r.mu.Lock()
	r.agents[id] = a
	r.mu.Unlock()
	return a, nil
}

func (r *recorderRegistry) get(id string) *recordingAgent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.agents[id]
}

func newTestKit(t *testing.T) (*ASKit, *recorderRegistry) {
	t.Helper()
	rec := newRecorderRegistry()
	kit := New()
	kit.RegisterAgent(AgentDefinition{Kind: "test", Name: "test_recorder", Inputs: []string{"*"}, Factory: rec.factory})
	t.Cleanup(kit.Quit)
	return kit, rec
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	if !cond() {
		t.Fatal("condition not met before timeout")
	}
}

// Scenario 1: wildcard fan-out.
func TestScenarioWildcardFanOut(t *testing.T) {
	kit, rec := newTestKit(t)
	flowName, _ := kit.NewFlow("f")
	srcID, _ := kit.AddFlowNode(flowName, "test_recorder", nil)
	dstID, _ := kit.AddFlowNode(flowName, "test_recorder", nil)
	if _, err := kit.AddFlowEdge(flowName, FlowEdge{Source: srcID, SourceHandle: "*", Target: dstID, TargetHandle: "*"}); err != nil {
		t.Fatal(err)
	}
	kit.Ready()

	if err := kit.TryOutput(srcID, NewContext("alpha"), NewData(StringValue("hello"))); err != nil {
		t.Fatal(err)
	}

	waitFor(t, time.Second, func() bool { return len(rec.get(dstID).snapshot()) == 1 })
	got := rec.get(dstID).snapshot()[0]
	if got.port != "alpha" {
		t.Errorf("port = %q, want %q", got.port, "alpha")
	}
	s, _ := got.data.Value.String()
	if s != "hello" {
		t.Errorf("data = %q, want %q", s, "hello")
	}
}

// Scenario 2: source-handle filter drops non-matching emissions.
func TestScenarioSourceHandleFilter(t *testing.T) {
	kit, rec := newTestKit(t)
	flowName, _ := kit.NewFlow("f")
	srcID, _ := kit.AddFlowNode(flowName, "test_recorder", nil)
	dstID, _ := kit.AddFlowNode(flowName, "test_recorder", nil)
	if _, err := kit.AddFlowEdge(flowName, FlowEdge{Source: srcID, SourceHandle: "x", Target: dstID, TargetHandle: "in"}); err != nil {
		t.Fatal(err)
	}
	kit.Ready()

	if err := kit.TryOutput(srcID, NewContext("y"), NewData(StringValue("nope"))); err != nil {
		t.Fatal(err)
	}
	time.Sleep(50 * time.Millisecond)
	if got := len(rec.get(dstID).snapshot()); got != 0 {
		t.Errorf("expected no delivery, got %d", got)
	}
}

// Scenario 3: board round-trip.
func TestScenarioBoardRoundTrip(t *testing.T) {
	kit, rec := newTestKit(t)
	flowName, _ := kit.NewFlow("f")

	boardInID, err := kit.AddFlowNode(flowName, DefBoardIn, configWith(boardConfigKey, StringValue("topic")))
	if err != nil {
		t.Fatal(err)
	}
	boardOutID, err := kit.AddFlowNode(flowName, DefBoardOut, configWith(boardConfigKey, StringValue("topic")))
	if err != nil {
		t.Fatal(err)
	}
	dstID, _ := kit.AddFlowNode(flowName, "test_recorder", nil)
	if _, err := kit.AddFlowEdge(flowName, FlowEdge{Source: boardOutID, SourceHandle: "*", Target: dstID, TargetHandle: "in"}); err != nil {
		t.Fatal(err)
	}

	var observed []Data
	var obsMu sync.Mutex
	obsID := kit.Subscribe(&funcObserver{
		board: func(name string, data Data) {
			if name == "topic" {
				obsMu.Lock()
				observed = append(observed, data)
				obsMu.Unlock()
			}
		},
	})
	defer kit.Unsubscribe(obsID)

	kit.Ready()

	if err := kit.agentInput(boardInID, NewContext("in"), NewData(Int64Value(42))); err != nil {
		t.Fatal(err)
	}

	waitFor(t, time.Second, func() bool {
		d, ok := kit.BoardData("topic")
		return ok && d.Value.Equal(Int64Value(42))
	})
	waitFor(t, time.Second, func() bool { return len(rec.get(dstID).snapshot()) == 1 })

	got := rec.get(dstID).snapshot()[0]
	if got.port != "in" || !got.data.Value.Equal(Int64Value(42)) {
		t.Errorf("C received %+v, want port=in data=42", got)
	}

	obsMu.Lock()
	n := len(observed)
	obsMu.Unlock()
	if n == 0 {
		t.Error("expected at least one Board observer notification")
	}
}

// Scenario 5: unique naming.
func TestScenarioUniqueNaming(t *testing.T) {
	kit, _ := newTestKit(t)
	n1, _ := kit.NewFlow("f")
	n2, _ := kit.NewFlow("f")
	n3, _ := kit.NewFlow("f")
	if n1 != "f" || n2 != "f2" || n3 != "f3" {
		t.Errorf("got %q, %q, %q, want f, f2, f3", n1, n2, n3)
	}
}

// Scenario 6: config hot-reload.
func TestScenarioConfigHotReload(t *testing.T) {
	kit, rec := newTestKit(t)
	flowName, _ := kit.NewFlow("f")
	id, _ := kit.AddFlowNode(flowName, "test_recorder", nil)
	kit.Ready()
	if err := kit.StartAgent(id); err != nil {
		t.Fatal(err)
	}

	newCfg := NewConfig()
	newCfg.Set("mode", StringValue("fast"))
	if err := kit.SetAgentConfig(id, newCfg); err != nil {
		t.Fatal(err)
	}

	waitFor(t, time.Second, func() bool {
		a := rec.get(id)
		a.mu.Lock()
		defer a.mu.Unlock()
		v, ok := a.cfg.Get("mode")
		s, _ := v.String()
		return ok && s == "fast"
	})
}

// P3: agents map count tracks addFlowNode/removeFlowNode.
func TestPropertyAgentCountTracksNodes(t *testing.T) {
	kit, _ := newTestKit(t)
	flowName, _ := kit.NewFlow("f")
	before := kit.agentCount()
	id, _ := kit.AddFlowNode(flowName, "test_recorder", nil)
	if kit.agentCount() != before+1 {
		t.Fatalf("expected agent count to increase by 1")
	}
	if err := kit.RemoveFlowNode(flowName, id); err != nil {
		t.Fatal(err)
	}
	if kit.agentCount() != before {
		t.Fatalf("expected agent count to return to %d, got %d", before, kit.agentCount())
	}
}

// P6: status invariant.
func TestPropertyAgentStatusInvariant(t *testing.T) {
	kit, _ := newTestKit(t)
	flowName, _ := kit.NewFlow("f")
	id, _ := kit.AddFlowNode(flowName, "test_recorder", nil)

	status, err := kit.AgentStatus(id)
	if err != nil || status != "Init" {
		t.Fatalf("expected Init before start, got %q, %v", status, err)
	}
	if err := kit.StartAgent(id); err != nil {
		t.Fatal(err)
	}
	waitFor(t, time.Second, func() bool {
		s, _ := kit.AgentStatus(id)
		return s == "Start"
	})
	if err := kit.StopAgent(id); err != nil {
		t.Fatal(err)
	}
	status, _ = kit.AgentStatus(id)
	if status != "Init" {
		t.Errorf("expected Init after stop, got %q", status)
	}
}

func TestRemoveFlowNodeDropsIncidentEdges(t *testing.T) {
	kit, _ := newTestKit(t)
	flowName, _ := kit.NewFlow("f")
	a, _ := kit.AddFlowNode(flowName, "test_recorder", nil)
	b, _ := kit.AddFlowNode(flowName, "test_recorder", nil)
	edgeID, _ := kit.AddFlowEdge(flowName, FlowEdge{Source: a, SourceHandle: "*", Target: b, TargetHandle: "*"})

	if err := kit.RemoveFlowNode(flowName, b); err != nil {
		t.Fatal(err)
	}
	if err := kit.removeEdgeIndex(edgeID); err == nil {
		t.Error("expected edge to already be removed when its target node was removed")
	}
	flow, _ := kit.GetFlow(flowName)
	if len(flow.Edges) != 0 {
		t.Errorf("expected no edges left in flow, got %d", len(flow.Edges))
	}
}

func configWith(key string, v Value) *Config {
	c := NewConfig()
	c.Set(key, v)
	return c
}

// funcObserver adapts plain functions to the Observer interface for
// tests that only care about one event kind.
type funcObserver struct {
	agentIn      func(agentID, port string)
	agentDisplay func(agentID, key string, data Data)
	agentError   func(agentID, message string)
	board        func(name string, data Data)
}

func (f *funcObserver) AgentIn(agentID, port string) {
	if f.agentIn != nil {
		f.agentIn(agentID, port)
	}
}
func (f *funcObserver) AgentDisplay(agentID, key string, data Data) {
	if f.agentDisplay != nil {
		f.agentDisplay(agentID, key, data)
	}
}
func (f *funcObserver) AgentError(agentID, message string) {
	if f.agentError != nil {
		f.agentError(agentID, message)
	}
}
func (f *funcObserver) Board(name string, data Data) {
	if f.board != nil {
		f.board(name, data)
	}
}
