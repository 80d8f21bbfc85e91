// Package slogx provides a shared nil-safe discard logger for the kernel
// and facade, grounded on the same pattern nevindra-oasis's store
// packages use (nopLogger / discardHandler) instead of guarding every
// call site with a nil check.
package slogx

import (
	"context"
	"log/slog"
)

// Discard is a logger whose Handler drops every record. Use it as the
// default so callers never need a nil check before logging.
var Discard = slog.New(discardHandler{})

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

// OrDefault returns l, or Discard if l is nil.
func OrDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return Discard
	}
	return l
}
