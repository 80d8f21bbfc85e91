// Package pdf implements askit_pdf_extract: extracts plain text from a
// PDF document using ledongthuc/pdf (pure Go, no CGO).
package pdf

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/go-askit/askit"
)

var errNotByteArray = errors.New("input is neither a string nor a byte array")

const (
	defName = "askit_pdf_extract"

	portIn  = "pdf"
	portOut = "text"
)

// Register adds the askit_pdf_extract definition to kit.
func Register(kit *askit.ASKit) {
	kit.RegisterAgent(askit.AgentDefinition{
		Kind:     "agent",
		Name:     defName,
		Title:    "Extract PDF Text",
		Category: "Core/Document",
		Inputs:   []string{portIn},
		Outputs:  []string{portOut},
		Factory:  newAgent,
	})
}

type pdfAgent struct {
	kit *askit.ASKit
	id  string
}

func newAgent(kit *askit.ASKit, id, defName string, config *askit.Config) (askit.Agent, error) {
	return &pdfAgent{kit: kit, id: id}, nil
}

func (a *pdfAgent) Start() error                     { return nil }
func (a *pdfAgent) Stop() error                       { return nil }
func (a *pdfAgent) SetConfig(cfg *askit.Config) error { return nil }

func (a *pdfAgent) Process(ctx askit.Context, port string, data askit.Data) error {
	content, err := contentBytes(data)
	if err != nil {
		return &askit.Error{Kind: askit.KindInvalidValue, Subject: a.id, Message: err.Error()}
	}

	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return &askit.Error{Kind: askit.KindIoError, Subject: a.id, Message: "open pdf", Err: err}
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return &askit.Error{Kind: askit.KindIoError, Subject: a.id, Message: "extract text", Err: err}
	}
	text, err := io.ReadAll(plain)
	if err != nil {
		return &askit.Error{Kind: askit.KindIoError, Subject: a.id, Message: "read text", Err: err}
	}

	out := askit.NewData(askit.StringValue(strings.TrimSpace(string(text))))
	return a.kit.TryOutput(a.id, ctx.WithPort(portOut), out)
}

// contentBytes accepts either a string payload (interpreted as raw PDF
// bytes) or an array of byte-sized integers.
func contentBytes(data askit.Data) ([]byte, error) {
	if s, ok := data.Value.String(); ok {
		return []byte(s), nil
	}
	if arr, ok := data.Value.Array(); ok {
		out := make([]byte, len(arr))
		for i, v := range arr {
			n, ok := v.Int64()
			if !ok {
				return nil, errNotByteArray
			}
			out[i] = byte(n)
		}
		return out, nil
	}
	return nil, errNotByteArray
}
