// Package markdown implements askit_markdown_render: converts a Markdown
// string to HTML via goldmark.
package markdown

import (
	"bytes"

	"github.com/yuin/goldmark"

	"github.com/go-askit/askit"
)

const (
	defName = "askit_markdown_render"

	portIn  = "markdown"
	portOut = "html"
)

// Register adds the askit_markdown_render definition to kit.
func Register(kit *askit.ASKit) {
	kit.RegisterAgent(askit.AgentDefinition{
		Kind:     "agent",
		Name:     defName,
		Title:    "Render Markdown",
		Category: "Core/Text",
		Inputs:   []string{portIn},
		Outputs:  []string{portOut},
		Factory:  newAgent,
	})
}

type markdownAgent struct {
	kit *askit.ASKit
	id  string
	md  goldmark.Markdown
}

func newAgent(kit *askit.ASKit, id, defName string, config *askit.Config) (askit.Agent, error) {
	return &markdownAgent{kit: kit, id: id, md: goldmark.New()}, nil
}

func (a *markdownAgent) Start() error                     { return nil }
func (a *markdownAgent) Stop() error                       { return nil }
func (a *markdownAgent) SetConfig(cfg *askit.Config) error { return nil }

func (a *markdownAgent) Process(ctx askit.Context, port string, data askit.Data) error {
	src, ok := data.Value.String()
	if !ok {
		return &askit.Error{Kind: askit.KindInvalidValue, Subject: a.id, Message: "input is not a string"}
	}

	var buf bytes.Buffer
	if err := a.md.Convert([]byte(src), &buf); err != nil {
		return &askit.Error{Kind: askit.KindIoError, Subject: a.id, Message: "render markdown", Err: err}
	}

	out := askit.NewData(askit.StringValue(buf.String()))
	return a.kit.TryOutput(a.id, ctx.WithPort(portOut), out)
}
