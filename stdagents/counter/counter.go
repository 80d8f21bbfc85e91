// Package counter implements askit_counter, a stateful increment/reset
// counter node. Std-lib only: no third-party dependency has a natural
// home in a single integer counter.
package counter

import (
	"sync"

	"github.com/go-askit/askit"
)

const (
	defName = "askit_counter"

	portIn    = "in"
	portReset = "reset"
	portCount = "count"

	displayCount = "count"
)

// Register adds the askit_counter definition to kit.
func Register(kit *askit.ASKit) {
	kit.RegisterAgent(askit.AgentDefinition{
		Kind:        "agent",
		Name:        defName,
		Title:       "Counter",
		Category:    "Core/Utils",
		Inputs:      []string{portIn, portReset},
		Outputs:     []string{portCount},
		DisplayConfig: askit.NewDisplaySchema([]string{displayCount}, map[string]askit.DisplayEntry{
			displayCount: {Title: "Count"},
		}),
		Factory: newAgent,
	})
}

type counterAgent struct {
	kit *askit.ASKit
	id  string

	mu    sync.Mutex
	count int64
}

func newAgent(kit *askit.ASKit, id, defName string, config *askit.Config) (askit.Agent, error) {
	return &counterAgent{kit: kit, id: id}, nil
}

func (a *counterAgent) Start() error {
	a.mu.Lock()
	a.count = 0
	a.mu.Unlock()
	a.kit.Display(a.id, displayCount, askit.NewData(askit.Int64Value(0)))
	return nil
}

func (a *counterAgent) Stop() error { return nil }

func (a *counterAgent) SetConfig(cfg *askit.Config) error { return nil }

func (a *counterAgent) Process(ctx askit.Context, port string, data askit.Data) error {
	a.mu.Lock()
	switch port {
	case portReset:
		a.count = 0
	case portIn:
		a.count++
	}
	count := a.count
	a.mu.Unlock()

	out := askit.NewData(askit.Int64Value(count))
	if err := a.kit.TryOutput(a.id, ctx.WithPort(portCount), out); err != nil {
		return err
	}
	a.kit.Display(a.id, displayCount, out)
	return nil
}
