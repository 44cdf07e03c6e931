package dispatch

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/loykin/prnotify/internal/dispatch"

// Tracer wraps the OpenTelemetry tracer used for dispatch spans.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer returns a tracer from the global provider.
func NewTracer() *Tracer {
	return NewTracerFromProvider(otel.GetTracerProvider())
}

// NewTracerFromProvider returns a tracer from tp.
func NewTracerFromProvider(tp trace.TracerProvider) *Tracer {
	return &Tracer{tracer: tp.Tracer(tracerName)}
}

func (t *Tracer) startNotification(ctx context.Context, name, uuid, action string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "prnotify.notification",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("prnotify.notification.name", name),
			attribute.String("prnotify.notification.uuid", uuid),
			attribute.String("prnotify.action", action),
		),
	)
}

func (t *Tracer) endNotification(span trace.Span, statusCode int, errText string) {
	span.SetAttributes(attribute.Int("http.status_code", statusCode))
	if errText != "" {
		span.SetAttributes(attribute.String("prnotify.error", errText))
		span.SetStatus(codes.Error, errText)
	}
	span.End()
}
