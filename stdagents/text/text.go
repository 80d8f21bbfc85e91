// Package text implements two string-transform nodes: askit_text_case
// (Unicode upper, lower, or title case mapping) and askit_text_normalize
// (Unicode normalization to NFC, NFD, NFKC, or NFKD), via golang.org/x/text.
package text

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/go-askit/askit"
)

const (
	defNameCase      = "askit_text_case"
	defNameNormalize = "askit_text_normalize"

	portIn  = "in"
	portOut = "out"

	configMode = "mode"
	configForm = "form"
)

// Register adds askit_text_case and askit_text_normalize to kit.
func Register(kit *askit.ASKit) {
	kit.RegisterAgent(askit.AgentDefinition{
		Kind:     "agent",
		Name:     defNameCase,
		Title:    "Text Case",
		Category: "Core/Text",
		Inputs:   []string{portIn},
		Outputs:  []string{portOut},
		DefaultConfig: askit.NewConfigSchema([]string{configMode}, map[string]askit.ConfigEntry{
			configMode: {Value: askit.StringValue("upper"), Title: "Mode", Description: "upper, lower, or title"},
		}),
		Factory: newCaseAgent,
	})

	kit.RegisterAgent(askit.AgentDefinition{
		Kind:     "agent",
		Name:     defNameNormalize,
		Title:    "Text Normalize",
		Category: "Core/Text",
		Inputs:   []string{portIn},
		Outputs:  []string{portOut},
		DefaultConfig: askit.NewConfigSchema([]string{configForm}, map[string]askit.ConfigEntry{
			configForm: {Value: askit.StringValue("NFC"), Title: "Form", Description: "NFC, NFD, NFKC, or NFKD"},
		}),
		Factory: newNormalizeAgent,
	})
}

type caseAgent struct {
	kit  *askit.ASKit
	id   string
	mode string
}

func newCaseAgent(kit *askit.ASKit, id, defName string, config *askit.Config) (askit.Agent, error) {
	a := &caseAgent{kit: kit, id: id, mode: "upper"}
	if err := a.SetConfig(config); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *caseAgent) Start() error { return nil }
func (a *caseAgent) Stop() error  { return nil }

func (a *caseAgent) SetConfig(cfg *askit.Config) error {
	if v, ok := cfg.Get(configMode); ok {
		if s, ok := v.String(); ok {
			a.mode = s
		}
	}
	return nil
}

func (a *caseAgent) Process(ctx askit.Context, port string, data askit.Data) error {
	s, ok := data.Value.String()
	if !ok {
		return &askit.Error{Kind: askit.KindInvalidValue, Subject: a.id, Message: "input is not a string"}
	}

	var caser cases.Caser
	switch a.mode {
	case "lower":
		caser = cases.Lower(language.Und)
	case "title":
		caser = cases.Title(language.Und)
	default:
		caser = cases.Upper(language.Und)
	}

	out := askit.NewData(askit.StringValue(caser.String(s)))
	return a.kit.TryOutput(a.id, ctx.WithPort(portOut), out)
}

type normalizeAgent struct {
	kit  *askit.ASKit
	id   string
	form norm.Form
}

func newNormalizeAgent(kit *askit.ASKit, id, defName string, config *askit.Config) (askit.Agent, error) {
	a := &normalizeAgent{kit: kit, id: id, form: norm.NFC}
	if err := a.SetConfig(config); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *normalizeAgent) Start() error { return nil }
func (a *normalizeAgent) Stop() error  { return nil }

func (a *normalizeAgent) SetConfig(cfg *askit.Config) error {
	v, ok := cfg.Get(configForm)
	if !ok {
		return nil
	}
	s, ok := v.String()
	if !ok {
		return nil
	}
	switch s {
	case "NFD":
		a.form = norm.NFD
	case "NFKC":
		a.form = norm.NFKC
	case "NFKD":
		a.form = norm.NFKD
	default:
		a.form = norm.NFC
	}
	return nil
}

func (a *normalizeAgent) Process(ctx askit.Context, port string, data askit.Data) error {
	s, ok := data.Value.String()
	if !ok {
		return &askit.Error{Kind: askit.KindInvalidValue, Subject: a.id, Message: "input is not a string"}
	}
	out := askit.NewData(askit.StringValue(a.form.String(s)))
	return a.kit.TryOutput(a.id, ctx.WithPort(portOut), out)
}
