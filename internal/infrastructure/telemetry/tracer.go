package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ServiceTracer wraps an otel tracer with map-based attribute helpers.
type ServiceTracer struct {
	tracer trace.Tracer
	name   string
}

// NewServiceTracer creates a tracer for the named component.
func NewServiceTracer(name string) *ServiceTracer {
	return &ServiceTracer{
		tracer: otel.Tracer(name),
		name:   name,
	}
}

// StartSpan starts a new span with the given name
func (t *ServiceTracer) StartSpan(ctx context.Context, spanName string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, spanName, opts...)
}

// StartSpanWithAttributes starts a new span with attributes
func (t *ServiceTracer) StartSpanWithAttributes(ctx context.Context, spanName string, attrs map[string]interface{}, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	spanAttrs := convertAttributes(attrs)
	allOpts := append(opts, trace.WithAttributes(spanAttrs...))
	return t.tracer.Start(ctx, spanName, allOpts...)
}

// AddEvent adds an event to the span
func (t *ServiceTracer) AddEvent(span trace.Span, name string, attrs map[string]interface{}) {
	span.AddEvent(name, trace.WithAttributes(convertAttributes(attrs)...))
}

// SetAttributes sets attributes on a span
func (t *ServiceTracer) SetAttributes(span trace.Span, attrs map[string]interface{}) {
	span.SetAttributes(convertAttributes(attrs)...)
}

// convertAttributes converts a map to OpenTelemetry attributes
func convertAttributes(attrs map[string]interface{}) []attribute.KeyValue {
	var result []attribute.KeyValue
	for k, v := range attrs {
		switch val := v.(type) {
		case string:
			result = append(result, attribute.String(k, val))
		case int:
			result = append(result, attribute.Int(k, val))
		case int64:
			result = append(result, attribute.Int64(k, val))
		case float64:
			result = append(result, attribute.Float64(k, val))
		case bool:
			result = append(result, attribute.Bool(k, val))
		case []string:
			result = append(result, attribute.StringSlice(k, val))
		default:
			result = append(result, attribute.String(k, fmt.Sprintf("%v", val)))
		}
	}
	return result
}

// StartDatabaseSpan starts a span for database operations
func StartDatabaseSpan(ctx context.Context, tracer *ServiceTracer, operation, table string) (context.Context, trace.Span) {
	spanName := fmt.Sprintf("db.%s %s", operation, table)
	return tracer.StartSpanWithAttributes(ctx, spanName, map[string]interface{}{
		"db.operation": operation,
		"db.table":     table,
		"db.system":    "postgresql",
		"span.kind":    "client",
		"component":    "database",
	})
}

// WithSpanError is a helper to record errors and set span status
func WithSpanError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}
