package askit

import (
	"encoding/json"
	"sync"
)

// AgentFactory constructs a new Agent instance for one FlowNode. It must
// be pure construction: no I/O, no background goroutines or threads.
type AgentFactory func(kit *ASKit, id, defName string, config *Config) (Agent, error)

// AgentDefinition is metadata plus a factory describing a class of
// agents. Name is the primary key in the registry and must be unique
// process-wide; registering a definition with an existing name
// overwrites it silently (registration is an init-time operation).
type AgentDefinition struct {
	Kind        string
	Name        string
	Title       string
	Description string
	Category    string
	Inputs      []string
	Outputs     []string

	DefaultConfig ConfigSchema
	GlobalConfig  ConfigSchema
	DisplayConfig DisplaySchema

	// NativeThread selects the OS-thread scheduling mode (§4.2). false
	// means cooperative scheduling on the shared runtime.
	NativeThread bool

	Factory AgentFactory
}

type definitionWire struct {
	Kind           string   `json:"kind"`
	Name           string   `json:"name"`
	Title          string   `json:"title,omitempty"`
	Description    string   `json:"description,omitempty"`
	Category       string   `json:"category,omitempty"`
	Inputs         []string `json:"inputs,omitempty"`
	Outputs        []string `json:"outputs,omitempty"`
	DefaultConfigs map[string]ConfigEntry `json:"default_configs,omitempty"`
	GlobalConfigs  map[string]ConfigEntry `json:"global_configs,omitempty"`
	DisplayConfigs map[string]DisplayEntry `json:"display_configs,omitempty"`
	NativeThread   bool     `json:"native_thread,omitempty"`
}

// MarshalJSON renders the definition's serializable metadata. The
// factory function is never serialized.
func (d AgentDefinition) MarshalJSON() ([]byte, error) {
	w := definitionWire{
		Kind:         d.Kind,
		Name:         d.Name,
		Title:        d.Title,
		Description:  d.Description,
		Category:     d.Category,
		Inputs:       d.Inputs,
		Outputs:      d.Outputs,
		NativeThread: d.NativeThread,
	}
	if d.DefaultConfig.Len() > 0 {
		w.DefaultConfigs = schemaToMap(d.DefaultConfig)
	}
	if d.GlobalConfig.Len() > 0 {
		w.GlobalConfigs = schemaToMap(d.GlobalConfig)
	}
	if d.DisplayConfig.Len() > 0 {
		w.DisplayConfigs = displaySchemaToMap(d.DisplayConfig)
	}
	return json.Marshal(w)
}

func schemaToMap(s ConfigSchema) map[string]ConfigEntry {
	out := make(map[string]ConfigEntry, s.Len())
	for _, k := range s.Keys() {
		e, _ := s.Get(k)
		out[k] = e
	}
	return out
}

func displaySchemaToMap(s DisplaySchema) map[string]DisplayEntry {
	out := make(map[string]DisplayEntry, s.Len())
	for _, k := range s.Keys() {
		e, _ := s.Get(k)
		out[k] = e
	}
	return out
}

// definitionRegistry is the name-keyed Definition Registry: a single leaf
// lock guarding a map, per the "lock, clone, unlock" discipline (§5).
type definitionRegistry struct {
	mu   sync.Mutex
	defs map[string]AgentDefinition
}

func newDefinitionRegistry() *definitionRegistry {
	return &definitionRegistry{defs: make(map[string]AgentDefinition)}
}

// register upserts a definition; an existing name is overwritten silently.
func (r *definitionRegistry) register(def AgentDefinition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs[def.Name] = def
}

// get returns a copy of the definition for name.
func (r *definitionRegistry) get(name string) (AgentDefinition, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	def, ok := r.defs[name]
	return def, ok
}

// all returns a snapshot slice of every registered definition.
func (r *definitionRegistry) all() []AgentDefinition {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]AgentDefinition, 0, len(r.defs))
	for _, def := range r.defs {
		out = append(out, def)
	}
	return out
}
