package telemetry

import (
	"context"
	"time"
)

// NoOp discards all measurements.
type NoOp struct{}

func NewNoOp() *NoOp {
	return &NoOp{}
}

func (NoOp) Stage(ctx context.Context, stage string, elapsed time.Duration, err error) {}

func (NoOp) Utterance(ctx context.Context, outcome string) {}

func (NoOp) Close(ctx context.Context) error {
	return nil
}
