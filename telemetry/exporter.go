package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const (
	serviceName    = "vaani"
	serviceVersion = "0.1.0"
)

// Exporter exports pipeline metrics over OTLP/gRPC.
type Exporter struct {
	provider   *sdkmetric.MeterProvider
	stageHist  metric.Float64Histogram
	stageFails metric.Int64Counter
	utterances metric.Int64Counter
}

func NewExporter(ctx context.Context, cfg Config) (*Exporter, error) {
	if !cfg.Enabled || cfg.Endpoint == "" {
		return nil, fmt.Errorf("OTEL exporter is disabled or endpoint not configured")
	}

	opts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetricgrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}

	exp, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(provider)

	return newExporter(provider)
}

func newExporter(provider *sdkmetric.MeterProvider) (*Exporter, error) {
	meter := provider.Meter(serviceName)

	stageHist, err := meter.Float64Histogram(
		"vaani_stage_duration_seconds",
		metric.WithDescription("Latency of each remote pipeline stage"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stage histogram: %w", err)
	}

	stageFails, err := meter.Int64Counter(
		"vaani_stage_failures_total",
		metric.WithDescription("Failed remote pipeline stages"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating failure counter: %w", err)
	}

	utterances, err := meter.Int64Counter(
		"vaani_utterances_total",
		metric.WithDescription("Push-to-talk cycles by outcome"),
		metric.WithUnit("{utterance}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating utterance counter: %w", err)
	}

	return &Exporter{
		provider:   provider,
		stageHist:  stageHist,
		stageFails: stageFails,
		utterances: utterances,
	}, nil
}

func (e *Exporter) Stage(ctx context.Context, stage string, elapsed time.Duration, err error) {
	opt := metric.WithAttributes(attribute.String("stage", stage))
	e.stageHist.Record(ctx, elapsed.Seconds(), opt)
	if err != nil {
		e.stageFails.Add(ctx, 1, opt)
	}
}

func (e *Exporter) Utterance(ctx context.Context, outcome string) {
	e.utterances.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// Close shuts down the exporter and flushes any pending metrics.
func (e *Exporter) Close(ctx context.Context) error {
	return e.provider.Shutdown(ctx)
}
