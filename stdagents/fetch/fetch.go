// Package fetch implements askit_fetch_readable: downloads a URL and
// extracts readable article text via go-readability.
package fetch

import (
	"time"

	readability "github.com/go-shiori/go-readability"

	"github.com/go-askit/askit"
)

const (
	defName = "askit_fetch_readable"

	portIn  = "url"
	portOut = "article"

	configTimeout = "timeout_seconds"
)

// Register adds the askit_fetch_readable definition to kit.
func Register(kit *askit.ASKit) {
	kit.RegisterAgent(askit.AgentDefinition{
		Kind:     "agent",
		Name:     defName,
		Title:    "Fetch Readable Article",
		Category: "Core/Web",
		Inputs:   []string{portIn},
		Outputs:  []string{portOut},
		DefaultConfig: askit.NewConfigSchema([]string{configTimeout}, map[string]askit.ConfigEntry{
			configTimeout: {Value: askit.Int64Value(30), Title: "Timeout (seconds)"},
		}),
		Factory: newAgent,
	})
}

type fetchAgent struct {
	kit     *askit.ASKit
	id      string
	timeout time.Duration
}

func newAgent(kit *askit.ASKit, id, defName string, config *askit.Config) (askit.Agent, error) {
	a := &fetchAgent{kit: kit, id: id, timeout: 30 * time.Second}
	if err := a.SetConfig(config); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *fetchAgent) Start() error { return nil }
func (a *fetchAgent) Stop() error  { return nil }

func (a *fetchAgent) SetConfig(cfg *askit.Config) error {
	if v, ok := cfg.Get(configTimeout); ok {
		if n, ok := v.Int64(); ok && n > 0 {
			a.timeout = time.Duration(n) * time.Second
		}
	}
	return nil
}

func (a *fetchAgent) Process(ctx askit.Context, port string, data askit.Data) error {
	url, ok := data.Value.String()
	if !ok {
		return &askit.Error{Kind: askit.KindInvalidValue, Subject: a.id, Message: "url is not a string"}
	}

	article, err := readability.FromURL(url, a.timeout)
	if err != nil {
		return &askit.Error{Kind: askit.KindIoError, Subject: a.id, Message: "fetch " + url, Err: err}
	}

	out := askit.NewDataWithKind("object", askit.ObjectValue(map[string]askit.Value{
		"title": askit.StringValue(article.Title),
		"text":  askit.StringValue(article.TextContent),
	}))
	return a.kit.TryOutput(a.id, ctx.WithPort(portOut), out)
}
