package askit

const (
	// DefBoardIn is the built-in agent definition name for writing a
	// named board (§4.4).
	DefBoardIn = "core_board_in"
	// DefBoardOut is the built-in agent definition name for subscribing
	// a flow's downstream edges to a named board (§4.4).
	DefBoardOut = "core_board_out"

	boardConfigKey = "$board"
)

// registerBoardDefinitions installs the two built-in board agent
// definitions into the kit's registry. Called once from New.
func registerBoardDefinitions(kit *ASKit) {
	kit.registry.register(AgentDefinition{
		Kind:   "board",
		Name:   DefBoardIn,
		Title:  "Board In",
		Inputs: []string{"*"},
		DefaultConfig: NewConfigSchema([]string{boardConfigKey}, map[string]ConfigEntry{
			boardConfigKey: {Value: StringValue("")},
		}),
		Factory: newBoardInAgent,
	})
	kit.registry.register(AgentDefinition{
		Kind:    "board",
		Name:    DefBoardOut,
		Title:   "Board Out",
		Outputs: []string{"*"},
		DefaultConfig: NewConfigSchema([]string{boardConfigKey}, map[string]ConfigEntry{
			boardConfigKey: {Value: StringValue("")},
		}),
		Factory: newBoardOutAgent,
	})
}

// boardInAgent enqueues every input on the central channel as a BoardOut
// event under a resolved board name; the dispatch loop then writes
// boardData and fans the value out to subscribers.
type boardInAgent struct {
	kit    *ASKit
	id     string
	board  string
}

func newBoardInAgent(kit *ASKit, id, defName string, config *Config) (Agent, error) {
	a := &boardInAgent{kit: kit, id: id}
	a.applyConfig(config)
	return a, nil
}

func (a *boardInAgent) applyConfig(config *Config) {
	a.board = ""
	if v, ok := config.Get(boardConfigKey); ok {
		if s, ok := v.String(); ok {
			a.board = s
		}
	}
}

func (a *boardInAgent) Start() error               { return nil }
func (a *boardInAgent) Stop() error                 { return nil }
func (a *boardInAgent) SetConfig(cfg *Config) error { a.applyConfig(cfg); return nil }

func (a *boardInAgent) Process(ctx Context, port string, data Data) error {
	name := a.board
	if name == "*" {
		name = ctx.Port
	}
	if name == "" {
		a.kit.logDebug("board_in: empty $board, dropping message", "agent", a.id)
		return nil
	}
	if err := a.kit.writeBoardDataEvent(name, ctx, data); err != nil {
		return err
	}
	return nil
}

// boardOutAgent has no process logic; it exists only as a routing
// endpoint. Starting it registers its id as a subscriber of a named
// board; stopping or reconfiguring it deregisters the prior name.
type boardOutAgent struct {
	kit   *ASKit
	id    string
	board string
}

func newBoardOutAgent(kit *ASKit, id, defName string, config *Config) (Agent, error) {
	a := &boardOutAgent{kit: kit, id: id}
	if v, ok := config.Get(boardConfigKey); ok {
		if s, ok := v.String(); ok {
			a.board = s
		}
	}
	return a, nil
}

func (a *boardOutAgent) Start() error {
	if a.board != "" {
		a.kit.subscribeBoardOut(a.board, a.id)
	}
	return nil
}

func (a *boardOutAgent) Stop() error {
	if a.board != "" {
		a.kit.unsubscribeBoardOut(a.board, a.id)
	}
	return nil
}

func (a *boardOutAgent) SetConfig(cfg *Config) error {
	var next string
	if v, ok := cfg.Get(boardConfigKey); ok {
		if s, ok := v.String(); ok {
			next = s
		}
	}
	if next == a.board {
		return nil
	}
	if a.board != "" {
		a.kit.unsubscribeBoardOut(a.board, a.id)
	}
	a.board = next
	if a.board != "" {
		a.kit.subscribeBoardOut(a.board, a.id)
	}
	return nil
}

func (a *boardOutAgent) Process(ctx Context, port string, data Data) error { return nil }
