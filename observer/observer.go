// Package observer provides OTEL-based observability for askit's agent
// kernel and board plane. Wrap subscribes to an *askit.ASKit's observer
// registry with a subscriber that emits metrics and logs via
// OpenTelemetry; NewTracer supplies an OTEL-backed askit.Tracer for
// spans. Users export to any OTEL-compatible backend by setting standard
// OTEL env vars.
package observer

import (
	"context"
	"errors"

	"github.com/go-askit/askit"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const scopeName = "github.com/go-askit/askit/observer"

// Instruments holds all OTEL instruments used by the Observer wrapper.
type Instruments struct {
	Tracer trace.Tracer
	Meter  metric.Meter
	Logger otellog.Logger

	AgentInCount    metric.Int64Counter
	AgentErrorCount metric.Int64Counter
	BoardWriteCount metric.Int64Counter
}

// Init sets up OTEL trace, metric, and log providers with OTLP HTTP
// exporters. Configuration comes from standard OTEL env vars
// (OTEL_EXPORTER_OTLP_ENDPOINT, etc.). Returns a shutdown function that
// must be called on application exit.
func Init(ctx context.Context) (*Instruments, func(context.Context) error, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName("askit")),
		resource.WithFromEnv(),
	)
	if err != nil {
		return nil, nil, err
	}

	traceExp, err := otlptracehttp.New(ctx)
	if err != nil {
		return nil, nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	metricExp, err := otlpmetrichttp.New(ctx)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, nil, err
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExp)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	logExp, err := otlploghttp.New(ctx)
	if err != nil {
		_ = tp.Shutdown(ctx)
		_ = mp.Shutdown(ctx)
		return nil, nil, err
	}
	lp := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(logExp)),
		sdklog.WithResource(res),
	)
	global.SetLoggerProvider(lp)

	inst, err := newInstruments()
	if err != nil {
		_ = tp.Shutdown(ctx)
		_ = mp.Shutdown(ctx)
		_ = lp.Shutdown(ctx)
		return nil, nil, err
	}

	shutdown := func(ctx context.Context) error {
		return errors.Join(
			tp.Shutdown(ctx),
			mp.Shutdown(ctx),
			lp.Shutdown(ctx),
		)
	}

	return inst, shutdown, nil
}

func newInstruments() (*Instruments, error) {
	tracer := otel.Tracer(scopeName)
	meter := otel.Meter(scopeName)
	logger := global.GetLoggerProvider().Logger(scopeName)

	agentInCount, err := meter.Int64Counter("askit.agent.in",
		metric.WithDescription("Inputs delivered to an agent"),
		metric.WithUnit("{delivery}"))
	if err != nil {
		return nil, err
	}

	agentErrorCount, err := meter.Int64Counter("askit.agent.errors",
		metric.WithDescription("Agent operation failures"),
		metric.WithUnit("{error}"))
	if err != nil {
		return nil, err
	}

	boardWriteCount, err := meter.Int64Counter("askit.board.writes",
		metric.WithDescription("Board writes"),
		metric.WithUnit("{write}"))
	if err != nil {
		return nil, err
	}

	return &Instruments{
		Tracer:          tracer,
		Meter:           meter,
		Logger:          logger,
		AgentInCount:    agentInCount,
		AgentErrorCount: agentErrorCount,
		BoardWriteCount: boardWriteCount,
	}, nil
}

// observingSubscriber implements askit.Observer: AgentIn increments a
// counter, AgentDisplay emits a log record, and AgentError and Board each
// increment a counter and emit a log record.
type observingSubscriber struct {
	inst *Instruments
}

// Wrap subscribes an OTEL-backed Observer on kit and returns the
// subscription id for Unsubscribe.
func Wrap(kit *askit.ASKit, inst *Instruments) uint64 {
	return kit.Subscribe(&observingSubscriber{inst: inst})
}

func (o *observingSubscriber) AgentIn(agentID, port string) {
	ctx := context.Background()
	o.inst.AgentInCount.Add(ctx, 1, metric.WithAttributes(
		attrKV(AttrAgentID, agentID), attrKV(AttrAgentPort, port)))
}

func (o *observingSubscriber) AgentDisplay(agentID, key string, data askit.Data) {
	o.inst.Logger.Emit(context.Background(), logRecord("agent display: "+key, agentID))
}

func (o *observingSubscriber) AgentError(agentID, message string) {
	ctx := context.Background()
	o.inst.AgentErrorCount.Add(ctx, 1, metric.WithAttributes(attrKV(AttrAgentID, agentID)))
	o.inst.Logger.Emit(ctx, logRecord("agent error: "+message, agentID))
}

func (o *observingSubscriber) Board(boardName string, data askit.Data) {
	ctx := context.Background()
	o.inst.BoardWriteCount.Add(ctx, 1, metric.WithAttributes(attrKV(AttrBoardName, boardName)))
	o.inst.Logger.Emit(ctx, logRecord("board write", boardName))
}

var _ askit.Observer = (*observingSubscriber)(nil)

func attrKV(key attribute.Key, v string) attribute.KeyValue {
	return key.String(v)
}

func logRecord(body, subject string) otellog.Record {
	var r otellog.Record
	r.SetBody(otellog.StringValue(body))
	r.AddAttributes(otellog.String("subject", subject))
	return r
}
