package askit

// Agent is the capability a concrete node implementation satisfies. The
// kernel drives these methods with per-agent serialization: at most one
// of Start, Stop, SetConfig, or Process is ever in flight for a given
// agent at a time.
//
// Construction happens through an AgentFactory, not through this
// interface: New must be pure (no I/O, no background work) so the
// registry can describe a class of agents without instantiating one.
type Agent interface {
	// Start transitions Init -> Start. It may acquire resources. An
	// error is surfaced as an AgentError observer event; the agent's
	// status still becomes Start, leaving the caller free to Stop it.
	Start() error

	// Stop transitions Start -> Init (via a transient Stop label). It
	// must release resources and must be safe to call again if already
	// stopped.
	Stop() error

	// SetConfig replaces the agent's stored config and runs any
	// agent-specific reconfiguration logic. Legal during Init and Start.
	SetConfig(cfg *Config) error

	// Process handles one input. port is the input port the message was
	// delivered on (equal to ctx.Port at delivery time). Process runs
	// single-threaded with respect to the owning agent.
	Process(ctx Context, port string, data Data) error
}
