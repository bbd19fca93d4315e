package ports

import (
	"context"
	"io"
)

// SpanConfig holds configuration for span creation.
type SpanConfig struct{}

// SpanOption configures a span at creation time.
type SpanOption func(*SpanConfig)

// Tracer creates spans around bootstrap steps.
//
//go:generate mockgen -source=telemetry.go -destination=mocks/mock_telemetry.go -package=mocks
type Tracer interface {
	// Start creates a new span. The returned context carries the span so that
	// nested steps become children.
	Start(ctx context.Context, name string, opts ...SpanOption) (context.Context, Span)

	// EmitPlan signals the ordered list of planned steps.
	EmitPlan(ctx context.Context, steps []string)

	// Shutdown flushes and stops the tracer.
	Shutdown(ctx context.Context) error
}

// Span represents an in-flight step. Writes stream step output.
type Span interface {
	io.Writer

	// End completes the span.
	End()

	// RecordError records an error for the span and marks it failed.
	RecordError(err error)

	// SetAttribute adds a key-value pair to the span.
	SetAttribute(key string, value any)
}
