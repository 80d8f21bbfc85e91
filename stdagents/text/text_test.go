package text

import (
	"testing"
	"time"

	"github.com/go-askit/askit"
)

func newTestKit(t *testing.T) (*askit.ASKit, *sink) {
	t.Helper()
	kit := askit.New()
	Register(kit)
	s := &sink{got: make(chan askit.Data, 8)}
	kit.RegisterAgent(askit.AgentDefinition{
		Kind: "test", Name: "test_sink", Inputs: []string{"*"},
		Factory: func(kit *askit.ASKit, id, defName string, config *askit.Config) (askit.Agent, error) {
			return s, nil
		},
	})
	t.Cleanup(kit.Quit)
	return kit, s
}

type sink struct {
	got chan askit.Data
}

func (s *sink) Start() error { return nil }
func (s *sink) Stop() error  { return nil }
func (s *sink) SetConfig(cfg *askit.Config) error { return nil }
func (s *sink) Process(ctx askit.Context, port string, data askit.Data) error {
	s.got <- data
	return nil
}

func runThrough(t *testing.T, defName string, cfg *askit.Config, in string) string {
	t.Helper()
	kit, s := newTestKit(t)
	flowName, _ := kit.NewFlow("f")
	srcID, err := kit.AddFlowNode(flowName, defName, cfg)
	if err != nil {
		t.Fatal(err)
	}
	dstID, _ := kit.AddFlowNode(flowName, "test_sink", nil)
	if _, err := kit.AddFlowEdge(flowName, askit.FlowEdge{Source: srcID, SourceHandle: portOut, Target: dstID, TargetHandle: "*"}); err != nil {
		t.Fatal(err)
	}
	// A board-out node with no board name is a pure routing endpoint.
	// TryOutput emits on behalf of its source id, so emitting as the
	// feeder on portIn delivers the input to the node under test.
	feederID, err := kit.AddFlowNode(flowName, askit.DefBoardOut, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := kit.AddFlowEdge(flowName, askit.FlowEdge{Source: feederID, SourceHandle: "*", Target: srcID, TargetHandle: "*"}); err != nil {
		t.Fatal(err)
	}
	kit.Ready()

	if err := kit.TryOutput(feederID, askit.NewContext(portIn), askit.NewData(askit.StringValue(in))); err != nil {
		t.Fatal(err)
	}
	select {
	case data := <-s.got:
		out, ok := data.Value.String()
		if !ok {
			t.Fatal("output is not a string")
		}
		return out
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for output")
		return ""
	}
}

func TestTextCaseModes(t *testing.T) {
	tests := []struct {
		mode string
		in   string
		want string
	}{
		{"upper", "hello", "HELLO"},
		{"lower", "HELLO", "hello"},
		{"title", "hello world", "Hello World"},
	}
	for _, tt := range tests {
		cfg := askit.NewConfig()
		cfg.Set(configMode, askit.StringValue(tt.mode))
		got := runThrough(t, defNameCase, cfg, tt.in)
		if got != tt.want {
			t.Errorf("mode %q: got %q, want %q", tt.mode, got, tt.want)
		}
	}
}

func TestTextNormalizeNFC(t *testing.T) {
	cfg := askit.NewConfig()
	cfg.Set(configForm, askit.StringValue("NFC"))
	got := runThrough(t, defNameNormalize, cfg, "é")
	want := "é"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
