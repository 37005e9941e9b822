// Package telemetry exports pipeline metrics to an OTEL collector.
package telemetry

import (
	"context"
	"time"
)

// Recorder receives pipeline measurements.
type Recorder interface {
	// Stage records the latency of one remote stage (stt, translate, tts).
	Stage(ctx context.Context, stage string, elapsed time.Duration, err error)
	// Utterance records how one push-to-talk cycle ended.
	Utterance(ctx context.Context, outcome string)
	Close(ctx context.Context) error
}

// Config holds OTEL exporter configuration.
type Config struct {
	Endpoint string
	Enabled  bool
	Insecure bool
}

// New returns an Exporter when cfg enables one, otherwise a NoOp.
func New(ctx context.Context, cfg Config) (Recorder, error) {
	if !cfg.Enabled || cfg.Endpoint == "" {
		return NewNoOp(), nil
	}
	return NewExporter(ctx, cfg)
}
