package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"todotracker/internal/core/port"
)

const tracerName = "todotracker"

// OTELProbe implements port.Telemetry on top of the global tracer provider
// and logs failures through slog.
type OTELProbe struct {
	logger *slog.Logger
	tracer trace.Tracer
}

func NewOTELProbe(logger *slog.Logger) port.Telemetry {
	if logger == nil {
		logger = slog.Default()
	}

	return &OTELProbe{logger: logger, tracer: otel.Tracer(tracerName)}
}

type otelSpan struct{ trace.Span }

var _ port.Span = otelSpan{}

func (s otelSpan) End() {
	s.Span.End()
}

func (s otelSpan) SetAttributes(attrs map[string]interface{}) {
	s.Span.SetAttributes(attributesOf(attrs)...)
}

func (s otelSpan) SetStatus(code string, message string) {
	status := codes.Unset
	if code == "ok" {
		status = codes.Ok
	} else if code == "error" {
		status = codes.Error
	}

	s.Span.SetStatus(status, message)
}

func (s otelSpan) RecordError(err error) {
	s.Span.RecordError(err)
}

func attributesOf(attrs map[string]interface{}) []attribute.KeyValue {
	kvs := make([]attribute.KeyValue, 0, len(attrs))

	for k, v := range attrs {
		switch val := v.(type) {
		case string:
			kvs = append(kvs, attribute.String(k, val))
		case bool:
			kvs = append(kvs, attribute.Bool(k, val))
		case int:
			kvs = append(kvs, attribute.Int(k, val))
		case int64:
			kvs = append(kvs, attribute.Int64(k, val))
		case float64:
			kvs = append(kvs, attribute.Float64(k, val))
		case time.Time:
			kvs = append(kvs, attribute.String(k, val.UTC().Format(time.RFC3339)))
		default:
			kvs = append(kvs, attribute.String(k, fmt.Sprint(val)))
		}
	}

	return kvs
}

func (p *OTELProbe) start(ctx context.Context, name string, base []attribute.KeyValue, attrs map[string]interface{}) (context.Context, port.Span) {
	ctx, span := p.tracer.Start(ctx, name, trace.WithAttributes(append(base, attributesOf(attrs)...)...))
	return ctx, otelSpan{span}
}

func (p *OTELProbe) StartRepositorySpan(ctx context.Context, operation string, entity string, attrs map[string]interface{}) (context.Context, port.Span) {
	return p.start(ctx, "repository."+entity+"."+operation, []attribute.KeyValue{
		attribute.String("component", "repository"),
		attribute.String("db.entity", entity),
		attribute.String("db.operation", operation),
	}, attrs)
}

func (p *OTELProbe) StartServiceSpan(ctx context.Context, service string, operation string, actor string, attrs map[string]interface{}) (context.Context, port.Span) {
	return p.start(ctx, "service."+service+"."+operation, []attribute.KeyValue{
		attribute.String("component", "service"),
		attribute.String("app.service", service),
		attribute.String("app.operation", operation),
		attribute.String("app.actor", actor),
	}, attrs)
}

// outcome stamps the span in ctx with how the call went and logs failures.
func (p *OTELProbe) outcome(ctx context.Context, msg string, duration time.Duration, err error, fields ...any) {
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(attribute.Int64("duration_ms", duration.Milliseconds()))

	if err == nil {
		span.SetStatus(codes.Ok, "")
		return
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	p.logger.ErrorContext(ctx, msg, append(fields, "duration", duration, "error", err)...)
}

func (p *OTELProbe) RecordRepositoryOperation(ctx context.Context, operation string, entity string, duration time.Duration, err error) {
	p.outcome(ctx, "Repository operation failed", duration, err, "entity", entity, "operation", operation)
}

func (p *OTELProbe) RecordServiceOperation(ctx context.Context, service string, operation string, actor string, duration time.Duration, err error) {
	p.outcome(ctx, "Service operation failed", duration, err, "service", service, "operation", operation, "actor", actor)
}

// RecordRepositoryQuery logs the SQL text and argument types, never values.
func (p *OTELProbe) RecordRepositoryQuery(ctx context.Context, operation string, entity string, query string, args []interface{}) {
	if !p.logger.Enabled(ctx, slog.LevelDebug) {
		return
	}

	types := make([]string, len(args))
	for i, a := range args {
		types[i] = fmt.Sprintf("%T", a)
	}

	p.logger.DebugContext(ctx, "Executing query", "entity", entity, "operation", operation, "query", query, "arg_types", types)
}

// RecordBusinessEvent attaches the event to the span already in ctx.
func (p *OTELProbe) RecordBusinessEvent(ctx context.Context, event string, entity string, entityID string, actor string, metadata map[string]interface{}) {
	attrs := append([]attribute.KeyValue{
		attribute.String("entity", entity),
		attribute.String("entity.id", entityID),
		attribute.String("actor", actor),
	}, attributesOf(metadata)...)

	trace.SpanFromContext(ctx).AddEvent(event, trace.WithAttributes(attrs...))

	p.logger.InfoContext(ctx, "Business event", "event", event, "entity", entity, "entity_id", entityID, "actor", actor)
}

func (p *OTELProbe) RecordError(ctx context.Context, operation string, err error, metadata map[string]interface{}) {
	trace.SpanFromContext(ctx).RecordError(err, trace.WithAttributes(attribute.String("operation", operation)))

	p.logger.ErrorContext(ctx, "Operation error", "operation", operation, "error", err, "metadata", metadata)
}
