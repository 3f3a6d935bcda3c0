package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all process configuration loaded from the environment,
// following the same load-then-validate shape as the teacher's
// relay.LoadConfig.
type Config struct {
	// HTTP API
	APIPort string // e.g. "8080"

	// Pipeline
	Stages         []StageEntry
	SamplingPeriod int64
	RootSpanName   string

	// KVS
	KVSCapacity int

	// Lifecycle
	ShutdownToken string

	// Tracing
	OTelEndpoint string
	OTelEnabled  bool

	ShutdownTimeout time.Duration
}

// StageEntry is one PIPELINE_STAGES entry: "name:kind".
type StageEntry struct {
	Name string
	Kind string // "frame" or "batch"
}

// LoadConfig loads and validates configuration from the environment, the
// way relay.LoadConfig does: required variables collected up front and all
// missing ones reported together. If any is missing, only the missing ones
// are reported; otherwise all invalid values are reported together.
func LoadConfig() (*Config, error) {
	var missingVars []string
	var errs []string

	apiPort := os.Getenv("API_PORT")
	if apiPort == "" {
		apiPort = "8080"
	}

	stagesRaw := os.Getenv("PIPELINE_STAGES")
	if stagesRaw == "" {
		missingVars = append(missingVars, "PIPELINE_STAGES")
	}

	shutdownToken := os.Getenv("SHUTDOWN_TOKEN")
	if shutdownToken == "" {
		missingVars = append(missingVars, "SHUTDOWN_TOKEN")
	}

	samplingPeriod := int64(0)
	if val := os.Getenv("SAMPLING_PERIOD"); val != "" {
		parsed, err := strconv.ParseInt(val, 10, 64)
		if err != nil || parsed < 0 {
			errs = append(errs, fmt.Sprintf("SAMPLING_PERIOD must be a non-negative number, got: %s", val))
		} else {
			samplingPeriod = parsed
		}
	}

	rootSpanName := os.Getenv("ROOT_SPAN_NAME")
	if rootSpanName == "" {
		rootSpanName = "video_pipeline"
	}

	kvsCapacity := 100_000
	if val := os.Getenv("KVS_CAPACITY"); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil || parsed <= 0 {
			errs = append(errs, fmt.Sprintf("KVS_CAPACITY must be a positive number, got: %s", val))
		} else {
			kvsCapacity = parsed
		}
	}

	otelEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	otelEnabled := otelEndpoint != ""

	shutdownTimeout := 10 * time.Second
	if val := os.Getenv("SHUTDOWN_TIMEOUT_SECONDS"); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil || parsed <= 0 {
			errs = append(errs, fmt.Sprintf("SHUTDOWN_TIMEOUT_SECONDS must be a positive number, got: %s", val))
		} else {
			shutdownTimeout = time.Duration(parsed) * time.Second
		}
	}

	if len(missingVars) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %v", missingVars)
	}

	var stages []StageEntry
	if stagesRaw != "" {
		parsed, err := parseStages(stagesRaw)
		if err != nil {
			errs = append(errs, err.Error())
		} else {
			stages = parsed
		}
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation errors: %v", errs)
	}

	cfg := &Config{
		APIPort:         apiPort,
		Stages:          stages,
		SamplingPeriod:  samplingPeriod,
		RootSpanName:    rootSpanName,
		KVSCapacity:     kvsCapacity,
		ShutdownToken:   shutdownToken,
		OTelEndpoint:    otelEndpoint,
		OTelEnabled:     otelEnabled,
		ShutdownTimeout: shutdownTimeout,
	}

	log.Printf("[Config] Loaded configuration:")
	log.Printf("[Config]   API_PORT: %s", cfg.APIPort)
	log.Printf("[Config]   PIPELINE_STAGES: %d stages", len(cfg.Stages))
	log.Printf("[Config]   SAMPLING_PERIOD: %d", cfg.SamplingPeriod)
	log.Printf("[Config]   ROOT_SPAN_NAME: %s", cfg.RootSpanName)
	log.Printf("[Config]   KVS_CAPACITY: %d", cfg.KVSCapacity)
	log.Printf("[Config]   OTEL_ENABLED: %v", cfg.OTelEnabled)

	return cfg, nil
}

// parseStages parses "name1:kind1,name2:kind2,..." into StageEntry values.
func parseStages(raw string) ([]StageEntry, error) {
	parts := strings.Split(raw, ",")
	out := make([]StageEntry, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		nameKind := strings.SplitN(part, ":", 2)
		if len(nameKind) != 2 {
			return nil, fmt.Errorf("invalid PIPELINE_STAGES entry %q, expected name:kind", part)
		}
		name, kind := strings.TrimSpace(nameKind[0]), strings.TrimSpace(nameKind[1])
		if kind != "frame" && kind != "batch" {
			return nil, fmt.Errorf("invalid stage kind %q for stage %q, expected frame or batch", kind, name)
		}
		out = append(out, StageEntry{Name: name, Kind: kind})
	}
	return out, nil
}
