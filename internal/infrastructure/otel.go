package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/woskam/looker-studio-automation/internal/config"
)

const (
	// MeterName is the instrumentation scope of every span and instrument.
	MeterName = "github.com/woskam/looker-studio-automation"
)

// Telemetry holds the OpenTelemetry providers for one process run.
// Metrics are collected into a private Prometheus registry and written
// as a node_exporter textfile when the run ends; a one-shot job has no
// scrape endpoint.
type Telemetry struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Registry       *prometheus.Registry
	Tracer         trace.Tracer
	Meter          metric.Meter
	Metrics        *RunMetrics

	textfile string
	logger   *slog.Logger
}

// InitializeTelemetry sets up tracing and metrics. Span output goes to
// traceOut when the stdout exporter is selected.
func InitializeTelemetry(cfg config.TelemetryConfig, traceOut io.Writer, logger *slog.Logger) (*Telemetry, error) {
	if logger == nil {
		logger = GetLogger()
	}

	res := newResource(cfg.ServiceName)

	t := &Telemetry{
		textfile: cfg.MetricsTextfile,
		logger:   logger,
	}

	switch cfg.TraceExporter {
	case "stdout":
		if traceOut == nil {
			traceOut = os.Stdout
		}
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(traceOut), stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("failed to create trace exporter: %w", err)
		}
		t.TracerProvider = sdktrace.NewTracerProvider(
			sdktrace.WithSyncer(exporter),
			sdktrace.WithResource(res),
		)
		t.Tracer = t.TracerProvider.Tracer(MeterName, trace.WithInstrumentationVersion(config.AppVersion))
	case "none", "":
		t.Tracer = noop.NewTracerProvider().Tracer(MeterName)
	default:
		return nil, fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}

	t.Registry = prometheus.NewRegistry()
	exporter, err := otelprom.New(otelprom.WithRegisterer(t.Registry))
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}
	t.MeterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	t.Meter = t.MeterProvider.Meter(MeterName, metric.WithInstrumentationVersion(config.AppVersion))

	t.Metrics, err = NewRunMetrics(t.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	logger.Debug("Telemetry initialized",
		slog.String("trace_exporter", cfg.TraceExporter),
		slog.String("metrics_textfile", cfg.MetricsTextfile))

	return t, nil
}

// newResource describes this process. It carries only our own attributes so
// its schema URL is the one of the semconv package imported here.
func newResource(serviceName string) *resource.Resource {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(config.AppVersion),
		attribute.String("service.instance.id", generateInstanceID()),
	)
}

// WriteTextfile writes the collected metrics in Prometheus text format.
// It is a no-op when no textfile is configured.
func (t *Telemetry) WriteTextfile() error {
	if t == nil || t.textfile == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(t.textfile), 0755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(t.textfile, t.Registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}

// Shutdown writes the metrics textfile and shuts the providers down.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t == nil {
		return nil
	}

	var errs []error
	if err := t.WriteTextfile(); err != nil {
		errs = append(errs, err)
	}
	if t.TracerProvider != nil {
		if err := t.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}
	if t.MeterProvider != nil {
		if err := t.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("telemetry shutdown errors: %v", errs)
	}
	return nil
}

// RunMetrics holds the instruments recorded by consolidation and extraction.
type RunMetrics struct {
	ConsolidationRuns     metric.Int64Counter
	ConsolidationDuration metric.Float64Histogram
	PeriodFiles           metric.Int64Counter
	MasterRows            metric.Int64Gauge
	ExtractionRuns        metric.Int64Counter
	ExtractionDuration    metric.Float64Histogram
	StepExecutions        metric.Int64Counter
}

// NewRunMetrics creates the application instruments on meter.
func NewRunMetrics(meter metric.Meter) (*RunMetrics, error) {
	m := &RunMetrics{}
	var err error

	if m.ConsolidationRuns, err = meter.Int64Counter(
		"lookerweekly.consolidation.runs",
		metric.WithDescription("Consolidation runs by outcome"),
	); err != nil {
		return nil, err
	}
	if m.ConsolidationDuration, err = meter.Float64Histogram(
		"lookerweekly.consolidation.duration",
		metric.WithDescription("Consolidation run duration"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	if m.PeriodFiles, err = meter.Int64Counter(
		"lookerweekly.period.files",
		metric.WithDescription("Discovered period files by outcome"),
	); err != nil {
		return nil, err
	}
	if m.MasterRows, err = meter.Int64Gauge(
		"lookerweekly.master.rows",
		metric.WithDescription("Rows in the last written master table"),
	); err != nil {
		return nil, err
	}
	if m.ExtractionRuns, err = meter.Int64Counter(
		"lookerweekly.extraction.runs",
		metric.WithDescription("Dashboard exports by outcome"),
	); err != nil {
		return nil, err
	}
	if m.ExtractionDuration, err = meter.Float64Histogram(
		"lookerweekly.extraction.duration",
		metric.WithDescription("Dashboard export duration"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	if m.StepExecutions, err = meter.Int64Counter(
		"lookerweekly.pipeline.steps",
		metric.WithDescription("Pipeline step executions by outcome"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

func statusAttr(success bool) attribute.KeyValue {
	if success {
		return attribute.String("status", "success")
	}
	return attribute.String("status", "failure")
}

// RecordConsolidation records one consolidation run.
func (m *RunMetrics) RecordConsolidation(ctx context.Context, duration time.Duration, rows int, success bool) {
	if m == nil {
		return
	}
	m.ConsolidationRuns.Add(ctx, 1, metric.WithAttributes(statusAttr(success)))
	m.ConsolidationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(statusAttr(success)))
	if success {
		m.MasterRows.Record(ctx, int64(rows))
	}
}

// RecordPeriodFile records the outcome of one discovered file.
func (m *RunMetrics) RecordPeriodFile(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.PeriodFiles.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordExtraction records one dashboard export attempt.
func (m *RunMetrics) RecordExtraction(ctx context.Context, duration time.Duration, success bool) {
	if m == nil {
		return
	}
	m.ExtractionRuns.Add(ctx, 1, metric.WithAttributes(statusAttr(success)))
	m.ExtractionDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(statusAttr(success)))
}

// RecordStep records one pipeline step execution.
func (m *RunMetrics) RecordStep(ctx context.Context, stepID string, success bool) {
	if m == nil {
		return
	}
	m.StepExecutions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("step.id", stepID),
		statusAttr(success),
	))
}

// generateInstanceID generates a unique instance identifier
func generateInstanceID() string {
	hostname, _ := os.Hostname()
	return fmt.Sprintf("%s-%d", hostname, time.Now().Unix())
}

// RecordError records an error on the current span
func RecordError(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
