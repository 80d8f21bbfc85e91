package askit

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ConfigEntry describes one key in an AgentDefinition's default or global
// config schema: the default Value plus optional display metadata.
type ConfigEntry struct {
	Value       Value
	Title       string
	Description string
}

// DisplayEntry describes one key in an AgentDefinition's displayConfig:
// UI metadata only, no value.
type DisplayEntry struct {
	Title       string
	Description string
}

// ConfigSchema is an ordered key -> ConfigEntry map, used for an
// AgentDefinition's defaultConfig and globalConfig.
type ConfigSchema struct {
	keys    []string
	entries map[string]ConfigEntry
}

// NewConfigSchema builds a ConfigSchema preserving the order keys are
// given in.
func NewConfigSchema(keys []string, entries map[string]ConfigEntry) ConfigSchema {
	return ConfigSchema{keys: append([]string(nil), keys...), entries: entries}
}

// Keys returns the schema's keys in declaration order.
func (s ConfigSchema) Keys() []string { return append([]string(nil), s.keys...) }

// Get returns the entry for key.
func (s ConfigSchema) Get(key string) (ConfigEntry, bool) {
	e, ok := s.entries[key]
	return e, ok
}

// Len reports the number of entries.
func (s ConfigSchema) Len() int { return len(s.keys) }

// DisplaySchema is an ordered key -> DisplayEntry map, used for an
// AgentDefinition's displayConfig.
type DisplaySchema struct {
	keys    []string
	entries map[string]DisplayEntry
}

// NewDisplaySchema builds a DisplaySchema preserving the order keys are
// given in.
func NewDisplaySchema(keys []string, entries map[string]DisplayEntry) DisplaySchema {
	return DisplaySchema{keys: append([]string(nil), keys...), entries: entries}
}

// Keys returns the schema's keys in declaration order.
func (s DisplaySchema) Keys() []string { return append([]string(nil), s.keys...) }

// Get returns the entry for key.
func (s DisplaySchema) Get(key string) (DisplayEntry, bool) {
	e, ok := s.entries[key]
	return e, ok
}

// Len reports the number of entries.
func (s DisplaySchema) Len() int { return len(s.keys) }

// Config is an ordered key/value map of Values: the per-instance
// configuration stored on a FlowNode. Insertion order is preserved
// across Set and JSON round-trips.
type Config struct {
	keys   []string
	values map[string]Value
}

// NewConfig returns an empty Config ready for Set.
func NewConfig() *Config {
	return &Config{values: make(map[string]Value)}
}

// Get returns the value stored at key, if any.
func (c *Config) Get(key string) (Value, bool) {
	if c == nil {
		return Value{}, false
	}
	v, ok := c.values[key]
	return v, ok
}

// Set stores value at key, appending key to the iteration order on first
// use and leaving its position unchanged on update.
func (c *Config) Set(key string, value Value) {
	if c.values == nil {
		c.values = make(map[string]Value)
	}
	if _, exists := c.values[key]; !exists {
		c.keys = append(c.keys, key)
	}
	c.values[key] = value
}

// Keys returns keys in insertion order.
func (c *Config) Keys() []string {
	if c == nil {
		return nil
	}
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

// Len reports the number of keys.
func (c *Config) Len() int {
	if c == nil {
		return 0
	}
	return len(c.keys)
}

// IsEmpty reports whether the config has no keys. A nil *Config is
// considered empty.
func (c *Config) IsEmpty() bool {
	return c.Len() == 0
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	out := &Config{
		keys:   append([]string(nil), c.keys...),
		values: make(map[string]Value, len(c.values)),
	}
	for k, v := range c.values {
		out.values[k] = v
	}
	return out
}

// MarshalJSON renders the config as a JSON object preserving key order.
func (c *Config) MarshalJSON() ([]byte, error) {
	if c == nil || len(c.keys) == 0 {
		return []byte("{}"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range c.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(c.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reconstructs a Config from a JSON object. Go's
// encoding/json does not expose source key order for objects decoded via
// json.RawMessage, so order is taken from a preliminary token scan.
func (c *Config) UnmarshalJSON(b []byte) error {
	order, err := jsonObjectKeyOrder(b)
	if err != nil {
		return &Error{Kind: KindJsonParseError, Err: err}
	}
	var raw map[string]Value
	if err := json.Unmarshal(b, &raw); err != nil {
		return &Error{Kind: KindJsonParseError, Err: err}
	}
	out := NewConfig()
	for _, k := range order {
		v, ok := raw[k]
		if !ok {
			continue
		}
		out.Set(k, v)
	}
	*c = *out
	return nil
}

// jsonObjectKeyOrder returns the top-level key names of a JSON object in
// the order they appear in b.
func jsonObjectKeyOrder(b []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	delim, ok := tok.(json.Delim)
	if !ok || delim != '{' {
		return nil, fmt.Errorf("expected JSON object, got %v", tok)
	}
	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected string key, got %v", tok)
		}
		keys = append(keys, key)
		var discard json.RawMessage
		if err := dec.Decode(&discard); err != nil {
			return nil, err
		}
	}
	return keys, nil
}

// mergeConfig implements §4.8: user keys override defaults; default keys
// absent from user are filled in; an empty result collapses to nil ("no
// config").
func mergeConfig(defaults ConfigSchema, user *Config) *Config {
	if defaults.Len() == 0 {
		if user.IsEmpty() {
			return nil
		}
		return user.Clone()
	}
	merged := NewConfig()
	for _, k := range defaults.Keys() {
		entry, _ := defaults.Get(k)
		merged.Set(k, entry.Value)
	}
	for _, k := range user.Keys() {
		v, _ := user.Get(k)
		merged.Set(k, v)
	}
	if merged.IsEmpty() {
		return nil
	}
	return merged
}
