// internal/common/observability/observability.go
package observability

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	oteltrace "go.opentelemetry.io/otel/trace"
)

type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	meter          otelmetric.Meter
	tracer         oteltrace.Tracer
	invocations    otelmetric.Int64Counter
	duration       otelmetric.Float64Histogram
}

// New wires an otel meter (exported through prometheus) and, when a jaeger
// endpoint is configured, an otel tracer. Either may fail independently
// without taking down the process.
func New(serviceName, jaegerEndpoint string) *Observability {
	o := &Observability{}

	exporter, err := prometheus.New()
	if err != nil {
		log.Printf("failed to create prometheus exporter: %v", err)
	} else {
		provider := metric.NewMeterProvider(metric.WithReader(exporter))
		otel.SetMeterProvider(provider)
		o.meterProvider = provider
		o.meter = provider.Meter(serviceName)

		o.invocations, _ = o.meter.Int64Counter(
			"tool.invocations",
			otelmetric.WithDescription("Number of tool invocations"),
		)
		o.duration, _ = o.meter.Float64Histogram(
			"tool.duration",
			otelmetric.WithDescription("Tool invocation duration"),
			otelmetric.WithUnit("ms"),
		)
	}

	if jaegerEndpoint != "" {
		jexp, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(jaegerEndpoint)))
		if err != nil {
			log.Printf("failed to create jaeger exporter: %v", err)
		} else {
			tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(jexp))
			otel.SetTracerProvider(tp)
			o.tracerProvider = tp
		}
	}
	o.tracer = otel.Tracer(serviceName)

	return o
}

// StartSpan opens a span around one tool invocation. A nil receiver returns
// a no-op span so callers without tracing wired need no guard.
func (o *Observability) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, oteltrace.Span) {
	if o == nil || o.tracer == nil {
		return ctx, oteltrace.SpanFromContext(ctx)
	}
	ctx, span := o.tracer.Start(ctx, name)
	span.SetAttributes(attrs...)
	return ctx, span
}

func (o *Observability) RecordInvocation(ctx context.Context, tool, outcome string) {
	if o != nil && o.invocations != nil {
		o.invocations.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("tool", tool),
			attribute.String("outcome", outcome),
		))
	}
}

func (o *Observability) RecordDuration(ctx context.Context, tool string, duration time.Duration) {
	if o != nil && o.duration != nil {
		o.duration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("tool", tool),
		))
	}
}

func (o *Observability) Shutdown() {
	if o == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if o.meterProvider != nil {
		_ = o.meterProvider.Shutdown(ctx)
	}
	if o.tracerProvider != nil {
		_ = o.tracerProvider.Shutdown(ctx)
	}
}
