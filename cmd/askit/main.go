// Command askit is a demo host: it loads a flow definition from a JSON
// file, registers the reference collaborator agents, runs the flow
// until SIGINT/SIGTERM, and tears it down cleanly.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-askit/askit"
	"github.com/go-askit/askit/internal/config"
	"github.com/go-askit/askit/observer"
	"github.com/go-askit/askit/stdagents/counter"
	"github.com/go-askit/askit/stdagents/display"
	"github.com/go-askit/askit/stdagents/fetch"
	"github.com/go-askit/askit/stdagents/markdown"
	"github.com/go-askit/askit/stdagents/pdf"
	"github.com/go-askit/askit/stdagents/script"
	"github.com/go-askit/askit/stdagents/text"
	"github.com/go-askit/askit/store/sqlite"
)

func main() {
	flowPath := flag.String("flow", "", "path to a flow JSON file to load")
	configPath := flag.String("config", "askit.toml", "path to a host config TOML file")
	withObserver := flag.Bool("observer", false, "export traces/metrics/logs via OTLP HTTP")
	flag.Parse()

	logger := slog.Default()
	hostCfg := config.Load(*configPath)

	var tracer askit.Tracer
	var inst *observer.Instruments
	if *withObserver {
		ctx := context.Background()
		i, shutdown, err := observer.Init(ctx)
		if err != nil {
			log.Fatalf("askit: init observer: %v", err)
		}
		inst = i
		tracer = observer.NewTracer()
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logger.Warn("askit: observer shutdown failed", "error", err)
			}
		}()
	}

	opts := []askit.Option{
		askit.WithLogger(logger),
		askit.WithCentralCapacity(hostCfg.Kernel.CentralCapacity),
	}
	if tracer != nil {
		opts = append(opts, askit.WithTracer(tracer))
	}
	kit := askit.New(opts...)

	if inst != nil {
		subID := observer.Wrap(kit, inst)
		defer kit.Unsubscribe(subID)
	}

	counter.Register(kit)
	display.Register(kit)
	text.Register(kit)
	fetch.Register(kit)
	markdown.Register(kit)
	pdf.Register(kit)
	script.Register(kit)

	if *flowPath != "" {
		flow, err := loadFlow(*flowPath)
		if err != nil {
			log.Fatalf("askit: load flow: %v", err)
		}
		if err := kit.AddFlow(flow); err != nil {
			log.Fatalf("askit: add flow: %v", err)
		}
	}

	store := sqlite.New(hostCfg.Store.SQLitePath)
	if err := store.Init(context.Background()); err != nil {
		log.Fatalf("askit: init flow store: %v", err)
	}
	defer store.Close()

	kit.Ready()
	logger.Info("askit: ready", "flows", kit.ListFlowNames())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("askit: shutting down")
	kit.Quit()
}

func loadFlow(path string) (askit.Flow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return askit.Flow{}, err
	}
	var flow askit.Flow
	if err := json.Unmarshal(data, &flow); err != nil {
		return askit.Flow{}, err
	}
	return flow, nil
}
