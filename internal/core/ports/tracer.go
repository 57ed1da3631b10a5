package ports

import "context"

// Span is one traced operation.
type Span interface {
	// End completes the span.
	End()

	// RecordError attaches an error to the span.
	RecordError(err error)

	// SetAttribute sets a key-value attribute on the span.
	SetAttribute(key string, value any)
}

// Tracer starts spans around scheduled work.
//
//go:generate mockgen -source=tracer.go -destination=mocks/mock_tracer.go -package=mocks
type Tracer interface {
	// Start begins a span with the given name.
	Start(ctx context.Context, name string) (context.Context, Span)
}
