package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/version"
)

// Node and run statuses reported on metrics.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name reported on the metric resource.
	ServiceName string
	// ServiceVersion is the version of the pipeline project.
	ServiceVersion string
	// Environment is the deployment environment (development, staging, production).
	Environment string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	// Insecure allows insecure connections (for development).
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: version.String(),
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider.
// Returns a MeterProvider that should be shut down on exit.
func InitMeter(ctx context.Context, config *MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Get("observability").Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the instruments recorded while pipes run.
type Metrics struct {
	runTotal     metric.Int64Counter
	runDuration  metric.Float64Histogram
	runActive    metric.Int64UpDownCounter
	nodeTotal    metric.Int64Counter
	nodeDuration metric.Float64Histogram
	rowErrors    metric.Int64Counter
	errorTotal   metric.Int64Counter
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	runTotal, err := meter.Int64Counter("flow.run.total",
		metric.WithDescription("Total number of pipe runs"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating flow.run.total counter: %w", err)
	}

	runDuration, err := meter.Float64Histogram("flow.run.duration",
		metric.WithDescription("Duration of pipe runs in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating flow.run.duration histogram: %w", err)
	}

	runActive, err := meter.Int64UpDownCounter("flow.run.active",
		metric.WithDescription("Number of pipe runs in progress"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating flow.run.active gauge: %w", err)
	}

	nodeTotal, err := meter.Int64Counter("flow.node.total",
		metric.WithDescription("Total number of scheduled node executions"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating flow.node.total counter: %w", err)
	}

	nodeDuration, err := meter.Float64Histogram("flow.node.duration",
		metric.WithDescription("Duration of node executions in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating flow.node.duration histogram: %w", err)
	}

	rowErrors, err := meter.Int64Counter("flow.mapper.row_errors",
		metric.WithDescription("Row errors recorded by mappers, by handler mode"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating flow.mapper.row_errors counter: %w", err)
	}

	errorTotal, err := meter.Int64Counter("flow.error.total",
		metric.WithDescription("Total errors by type and node"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating flow.error.total counter: %w", err)
	}

	return &Metrics{
		runTotal:     runTotal,
		runDuration:  runDuration,
		runActive:    runActive,
		nodeTotal:    nodeTotal,
		nodeDuration: nodeDuration,
		rowErrors:    rowErrors,
		errorTotal:   errorTotal,
	}, nil
}

// RecordRunStart increments the active run count.
func (m *Metrics) RecordRunStart(ctx context.Context) {
	m.runActive.Add(ctx, 1)
}

// RecordRunEnd decrements active runs and records the finished run.
func (m *Metrics) RecordRunEnd(ctx context.Context, pipe, status string, duration time.Duration) {
	m.runActive.Add(ctx, -1)
	m.runTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("pipe", pipe),
		attribute.String("status", status),
	))
	m.runDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("pipe", pipe),
	))
}

// RecordNode records one scheduled node execution.
func (m *Metrics) RecordNode(ctx context.Context, pipe, node, status string, duration time.Duration) {
	m.nodeTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("pipe", pipe),
		attribute.String("node", node),
		attribute.String("status", status),
	))
	m.nodeDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("pipe", pipe),
		attribute.String("node", node),
	))
}

// RecordRowErrors adds count row errors recorded under the given handler mode.
func (m *Metrics) RecordRowErrors(ctx context.Context, mode string, count int) {
	if count <= 0 {
		return
	}
	m.rowErrors.Add(ctx, int64(count), metric.WithAttributes(
		attribute.String("mode", mode),
	))
}

// RecordError records an error by type and node.
func (m *Metrics) RecordError(ctx context.Context, errType, node string) {
	m.errorTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", errType),
		attribute.String("node", node),
	))
}
