package observer

import (
	"context"
	"errors"
	"testing"

	"github.com/go-askit/askit"
)

// testInstruments creates a no-op Instruments using the global OTEL
// providers (which are no-ops by default). Safe for testing delegation
// behavior without any real OTEL backend.
func testInstruments(t *testing.T) *Instruments {
	t.Helper()
	inst, err := newInstruments()
	if err != nil {
		t.Fatalf("newInstruments: %v", err)
	}
	return inst
}

func TestWrapSubscribesObserver(t *testing.T) {
	kit := askit.New()
	defer kit.Quit()

	inst := testInstruments(t)
	id := Wrap(kit, inst)
	if id == 0 {
		t.Fatal("Wrap returned zero subscription id")
	}
	kit.Unsubscribe(id)
}

func TestObservingSubscriberMethodsDoNotPanic(t *testing.T) {
	sub := &observingSubscriber{inst: testInstruments(t)}

	sub.AgentIn("agent-1", "in")
	sub.AgentDisplay("agent-1", "preview", askit.NewData(askit.StringValue("hi")))
	sub.AgentError("agent-1", "boom")
	sub.Board("topic", askit.NewData(askit.Int64Value(7)))
}

func TestObservingSubscriberImplementsObserver(t *testing.T) {
	var _ askit.Observer = (*observingSubscriber)(nil)
}

// ---------------------------------------------------------------------------
// NewTracer tests
// ---------------------------------------------------------------------------

func TestNewTracerReturnsTracer(t *testing.T) {
	tracer := NewTracer()
	if tracer == nil {
		t.Fatal("NewTracer() returned nil")
	}

	ctx, span := tracer.Start(context.Background(), "test.span",
		askit.StringAttr("key", "value"),
		askit.IntAttr("count", 42))
	if ctx == nil {
		t.Fatal("Start() returned nil context")
	}
	if span == nil {
		t.Fatal("Start() returned nil span")
	}

	span.SetAttr(askit.BoolAttr("ok", true))
	span.Event("test.event", askit.Float64Attr("score", 0.95))
	span.End()
}

func TestNewTracerErrorSpan(t *testing.T) {
	tracer := NewTracer()
	_, span := tracer.Start(context.Background(), "test.error")

	span.Error(errors.New("test error"))
	span.End()
}
