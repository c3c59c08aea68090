package observability

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/rs/zerolog/log"
)

// Config controls observability initialisation.
type Config struct {
	Enabled        bool
	ServiceName    string
	Environment    string
	OTLPEndpoint   string
	OTLPHeaders    map[string]string
	OTLPInsecure   bool
	MetricsAddress string
}

const instrumentationName = "todo-service/api"

// Providers exposes configured telemetry providers.
type Providers struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Propagator     propagation.TextMapPropagator
	MetricsHandler http.Handler
	Shutdown       func(ctx context.Context) error
	Config         Config
}

// instruments are rebound on every Init so a restarted provider never records into a shut-down one
type instruments struct {
	tracer            trace.Tracer
	operationDuration metric.Float64Histogram
	operationTotal    metric.Int64Counter
}

var active atomic.Pointer[instruments]

// Init configures tracing and metrics exporters. When cfg.Enabled is false the function is a no-op.
func Init(ctx context.Context, cfg Config) (*Providers, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	if cfg.ServiceName == "" {
		cfg.ServiceName = "todo-service"
	}

	res, err := resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
		resource.WithHost(),
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.DeploymentEnvironment(cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("build otel resource: %w", err)
	}

	var spanExporter sdktrace.SpanExporter
	if cfg.OTLPEndpoint != "" {
		clientOpts := []otlptracehttp.Option{
			getOTLPEndpointOption(cfg.OTLPEndpoint),
		}
		if cfg.OTLPInsecure {
			clientOpts = append(clientOpts, otlptracehttp.WithInsecure())
		}
		if len(cfg.OTLPHeaders) > 0 {
			clientOpts = append(clientOpts, otlptracehttp.WithHeaders(cfg.OTLPHeaders))
		}

		exp, err := otlptracehttp.New(ctx, clientOpts...)
		if err != nil {
			// Observability is optional, continue without tracing
			log.Warn().Err(err).Str("endpoint", cfg.OTLPEndpoint).Msg("Failed to create OTLP trace exporter, traces disabled")
		} else {
			spanExporter = exp
			log.Info().Str("endpoint", cfg.OTLPEndpoint).Msg("OTLP trace exporter initialised")
		}
	}

	traceOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
	}
	if spanExporter != nil {
		traceOpts = append(traceOpts, sdktrace.WithBatcher(spanExporter))
	}

	tracerProvider := sdktrace.NewTracerProvider(traceOpts...)
	otel.SetTracerProvider(tracerProvider)

	prop := propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	)
	otel.SetTextMapPropagator(prop)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
	promExporter, err := otelprom.New(
		otelprom.WithRegisterer(registry),
	)
	if err != nil {
		_ = tracerProvider.Shutdown(ctx) // best-effort cleanup
		return nil, fmt.Errorf("create Prometheus exporter: %w", err)
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(promExporter),
	)
	otel.SetMeterProvider(meterProvider)

	inst, err := newInstruments(tracerProvider, meterProvider)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to create operation instruments, operation metrics disabled")
	}
	active.Store(inst)

	shutdown := func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		var allErr error
		if err := meterProvider.Shutdown(ctx); err != nil {
			allErr = errors.Join(allErr, fmt.Errorf("metric provider shutdown: %w", err))
		}
		if err := tracerProvider.Shutdown(ctx); err != nil {
			allErr = errors.Join(allErr, fmt.Errorf("trace provider shutdown: %w", err))
		}
		return allErr
	}

	return &Providers{
		TracerProvider: tracerProvider,
		MeterProvider:  meterProvider,
		Propagator:     prop,
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		Shutdown:       shutdown,
		Config:         cfg,
	}, nil
}

func getOTLPEndpointOption(endpoint string) otlptracehttp.Option {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return otlptracehttp.WithEndpointURL(endpoint)
	}
	return otlptracehttp.WithEndpoint(endpoint)
}

// WrapHandler applies OpenTelemetry instrumentation to an http.Handler when the providers are active.
func WrapHandler(handler http.Handler, prov *Providers) http.Handler {
	if prov == nil || prov.TracerProvider == nil {
		return handler
	}

	options := []otelhttp.Option{
		otelhttp.WithTracerProvider(prov.TracerProvider),
		otelhttp.WithPropagators(prov.Propagator),
		otelhttp.WithMeterProvider(prov.MeterProvider),
		otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
			return fmt.Sprintf("%s %s", r.Method, RouteName(r.URL.Path))
		}),
		// Skip tracing for health checks to reduce noise
		otelhttp.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/health"
		}),
	}

	return otelhttp.NewHandler(handler, "http.server", options...)
}

func newInstruments(tracerProvider *sdktrace.TracerProvider, meterProvider *sdkmetric.MeterProvider) (*instruments, error) {
	inst := &instruments{tracer: tracerProvider.Tracer(instrumentationName)}
	meter := meterProvider.Meter(instrumentationName)

	duration, err := meter.Float64Histogram(
		"todo.api.operation.duration_ms",
		metric.WithUnit("ms"),
		metric.WithDescription("Time taken to serve a todo operation"),
	)
	if err != nil {
		return inst, fmt.Errorf("operation duration histogram: %w", err)
	}

	total, err := meter.Int64Counter(
		"todo.api.operation.total",
		metric.WithDescription("Counts todo operations by outcome"),
	)
	if err != nil {
		return inst, fmt.Errorf("operation counter: %w", err)
	}

	inst.operationDuration = duration
	inst.operationTotal = total
	return inst, nil
}

// RegisterStoreSize exposes the live collection size as an observable gauge.
func RegisterStoreSize(prov *Providers, count func() int) error {
	if prov == nil || prov.MeterProvider == nil {
		return nil
	}

	meter := prov.MeterProvider.Meter(instrumentationName)
	_, err := meter.Int64ObservableGauge(
		"todo.store.size",
		metric.WithDescription("Number of live todos in the collection"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(int64(count()))
			return nil
		}),
	)
	return err
}

// OperationMetrics describes a served todo operation for metric recording.
type OperationMetrics struct {
	Operation string
	Outcome   string
	Duration  time.Duration
}

// StartOperationSpan starts a span for a single todo operation.
func StartOperationSpan(ctx context.Context, operation string) (context.Context, trace.Span) {
	var t trace.Tracer
	if inst := active.Load(); inst != nil {
		t = inst.tracer
	} else {
		t = otel.Tracer(instrumentationName)
	}

	return t.Start(ctx, "todo."+operation, trace.WithAttributes(
		attribute.String("todo.operation", operation),
	))
}

// RecordOperation emits operation metrics when instrumentation is initialised.
func RecordOperation(ctx context.Context, m OperationMetrics) {
	attrs := metric.WithAttributes(
		attribute.String("todo.operation", m.Operation),
		attribute.String("todo.outcome", m.Outcome),
	)

	inst := active.Load()
	if inst == nil {
		return
	}

	if inst.operationDuration != nil {
		inst.operationDuration.Record(ctx, float64(m.Duration.Microseconds())/1000, attrs)
	}

	if inst.operationTotal != nil {
		inst.operationTotal.Add(ctx, 1, attrs)
	}
}

// RouteName collapses todo ids so span names stay low-cardinality.
func RouteName(path string) string {
	if strings.HasPrefix(path, "/todos/") {
		return "/todos/{id}"
	}
	return path
}
