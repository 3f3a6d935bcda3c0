package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/zapdos-labs/videopipeline/httpapi"
	"github.com/zapdos-labs/videopipeline/kvs"
	"github.com/zapdos-labs/videopipeline/lifecycle"
	"github.com/zapdos-labs/videopipeline/pipeline"
	"github.com/zapdos-labs/videopipeline/tracing"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("[Main] No .env file found or error loading it (this is optional): %v", err)
	} else {
		log.Println("[Main] Loaded .env file")
	}

	config, err := LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	tracer, shutdownTracer := buildTracer(config)
	defer func() {
		if shutdownTracer == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(ctx); err != nil {
			log.Printf("[Main] Tracer shutdown error: %v", err)
		}
	}()

	specs := make([]pipeline.StageSpec, len(config.Stages))
	for i, s := range config.Stages {
		kind := pipeline.IndependentFrame
		if s.Kind == "batch" {
			kind = pipeline.BatchStage
		}
		specs[i] = pipeline.StageSpec{Name: s.Name, Kind: kind}
	}

	p, err := pipeline.New(tracer, specs)
	if err != nil {
		log.Fatalf("Failed to construct pipeline: %v", err)
	}
	if err := p.SetRootSpanName(config.RootSpanName); err != nil {
		log.Printf("[Main] Failed to set root span name: %v", err)
	}
	if err := p.SetSamplingPeriod(config.SamplingPeriod); err != nil {
		log.Printf("[Main] Failed to set sampling period: %v", err)
	}

	store, err := kvs.New(config.KVSCapacity)
	if err != nil {
		log.Fatalf("Failed to construct KVS store: %v", err)
	}

	controller := lifecycle.New()
	controller.RegisterPipeline(p)
	controller.SetShutdownToken(config.ShutdownToken)
	controller.SetStatus(lifecycle.StatusRunning)

	server := httpapi.NewServer(controller, store, nil)
	p.SetMetricsSink(server.Metrics())
	store.SetMetricsSink(server.Metrics())

	apiAddr := ":" + config.APIPort
	httpServer, err := httpapi.StartHTTPServer(server, apiAddr)
	if err != nil {
		log.Fatalf("Failed to start HTTP API: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Println("[Main] Shutting down...")

	controller.SetStatus(lifecycle.StatusShutdown)
	if err := httpapi.Shutdown(httpServer, config.ShutdownTimeout); err != nil {
		log.Printf("[Main] HTTP API shutdown error: %v", err)
	}

	log.Println("[Main] Shutdown complete")
}

// buildTracer wires a real OTLP-backed tracer when OTEL_EXPORTER_OTLP_ENDPOINT
// is set, falling back to the no-op tracer otherwise.
func buildTracer(config *Config) (tracing.Tracer, func(context.Context) error) {
	if !config.OTelEnabled {
		log.Println("[Main] OTEL_EXPORTER_OTLP_ENDPOINT not set, tracing disabled")
		return tracing.NoopTracer{}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tracer, shutdown, err := tracing.NewOTLPGRPCTracer(ctx, config.OTelEndpoint, "videopipeline")
	if err != nil {
		log.Printf("[Main] Failed to build OTLP tracer, falling back to no-op: %v", err)
		return tracing.NoopTracer{}, nil
	}
	log.Printf("[Main] Tracing enabled, exporting to %s", config.OTelEndpoint)
	return tracer, shutdown
}
