package askit

// Context is an immutable per-message routing envelope: the port the
// message is traveling on, optional caller variables, and an optional
// correlation id for tracing a message across hops. WithPort and WithVar
// return modified copies; Vars is shared (not copied) until WithVar is
// called, so WithPort alone is a cheap clone.
type Context struct {
	Port   string
	Vars   map[string]Value
	CorrID *uint64
}

// NewContext returns a Context on the given port with no vars or
// correlation id.
func NewContext(port string) Context {
	return Context{Port: port}
}

// WithPort returns a copy of c with Port replaced. Vars and CorrID are
// shared with the original.
func (c Context) WithPort(port string) Context {
	c.Port = port
	return c
}

// WithVar returns a copy of c with Vars[k] = v. The original's Vars map
// is left untouched; a new map is allocated only when a var is set.
func (c Context) WithVar(k string, v Value) Context {
	next := make(map[string]Value, len(c.Vars)+1)
	for ek, ev := range c.Vars {
		next[ek] = ev
	}
	next[k] = v
	c.Vars = next
	return c
}

// Var looks up a variable, reporting whether it was present.
func (c Context) Var(k string) (Value, bool) {
	if c.Vars == nil {
		return Value{}, false
	}
	v, ok := c.Vars[k]
	return v, ok
}

// WithCorrID returns a copy of c with CorrID set.
func (c Context) WithCorrID(id uint64) Context {
	c.CorrID = &id
	return c
}
