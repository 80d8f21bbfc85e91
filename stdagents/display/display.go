// Package display implements askit_display, a pass-through node that
// surfaces whatever it receives to an AgentDisplay observer event and to
// the structured logger. It accepts any input kind (wildcard port).
package display

import (
	"log/slog"

	"github.com/go-askit/askit"
)

const (
	defName = "askit_display"

	portIn       = "*"
	displayValue = "value"
)

// Register adds the askit_display definition to kit.
func Register(kit *askit.ASKit) {
	kit.RegisterAgent(askit.AgentDefinition{
		Kind:     "agent",
		Name:     defName,
		Title:    "Display",
		Category: "Core/Display",
		Inputs:   []string{portIn},
		DisplayConfig: askit.NewDisplaySchema([]string{displayValue}, map[string]askit.DisplayEntry{
			displayValue: {Title: "Value"},
		}),
		Factory: newAgent,
	})
}

type displayAgent struct {
	kit    *askit.ASKit
	id     string
	logger *slog.Logger
}

func newAgent(kit *askit.ASKit, id, defName string, config *askit.Config) (askit.Agent, error) {
	return &displayAgent{kit: kit, id: id, logger: slog.Default()}, nil
}

func (a *displayAgent) Start() error                      { return nil }
func (a *displayAgent) Stop() error                        { return nil }
func (a *displayAgent) SetConfig(cfg *askit.Config) error  { return nil }

func (a *displayAgent) Process(ctx askit.Context, port string, data askit.Data) error {
	a.logger.Debug("display", "agent", a.id, "port", port, "kind", data.Kind)
	a.kit.Display(a.id, displayValue, data)
	return nil
}
