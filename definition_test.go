package askit

import (
	"encoding/json"
	"testing"
)

func dummyFactory(kit *ASKit, id, defName string, config *Config) (Agent, error) {
	return &noopAgent{}, nil
}

type noopAgent struct{}

func (a *noopAgent) Start() error                                   { return nil }
func (a *noopAgent) Stop() error                                    { return nil }
func (a *noopAgent) SetConfig(cfg *Config) error                    { return nil }
func (a *noopAgent) Process(ctx Context, port string, data Data) error { return nil }

func TestDefinitionRegistryRegisterAndGet(t *testing.T) {
	reg := newDefinitionRegistry()
	def := AgentDefinition{Kind: "test", Name: "echo", Factory: dummyFactory}
	reg.register(def)

	got, ok := reg.get("echo")
	if !ok {
		t.Fatal("expected echo to be registered")
	}
	if got.Name != "echo" {
		t.Errorf("Name = %q, want %q", got.Name, "echo")
	}
}

func TestDefinitionRegistryOverwritesSilently(t *testing.T) {
	reg := newDefinitionRegistry()
	reg.register(AgentDefinition{Name: "echo", Title: "v1", Factory: dummyFactory})
	reg.register(AgentDefinition{Name: "echo", Title: "v2", Factory: dummyFactory})

	got, _ := reg.get("echo")
	if got.Title != "v2" {
		t.Errorf("Title = %q, want %q (overwrite should win)", got.Title, "v2")
	}
	if len(reg.all()) != 1 {
		t.Errorf("expected exactly one definition named echo, got %d", len(reg.all()))
	}
}

func TestDefinitionRegistryGetMissing(t *testing.T) {
	reg := newDefinitionRegistry()
	if _, ok := reg.get("missing"); ok {
		t.Error("expected ok=false for unregistered name")
	}
}

func TestAgentDefinitionMarshalOmitsFactory(t *testing.T) {
	def := AgentDefinition{
		Kind:    "counter",
		Name:    "askit_counter",
		Inputs:  []string{"in"},
		Outputs: []string{"out"},
		Factory: dummyFactory,
	}
	b, err := json.Marshal(def)
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatal(err)
	}
	if _, ok := raw["Factory"]; ok {
		t.Error("serialized definition must not expose the factory")
	}
	if raw["name"] != "askit_counter" {
		t.Errorf("name = %v, want askit_counter", raw["name"])
	}
}
