package ports

import (
	"context"
	"io"
)

//go:generate mockgen -source=telemetry.go -destination=mocks/mock_telemetry.go -package=mocks

// Telemetry records progress for long-running units of work.
type Telemetry interface {
	// Record starts a new vertex named name and returns a context carrying it.
	Record(ctx context.Context, name string) (context.Context, Vertex)
	// Close flushes the recording session.
	Close() error
}

// Vertex is one unit of recorded work.
type Vertex interface {
	// Stdout returns a writer for the vertex's informational output.
	Stdout() io.Writer
	// Stderr returns a writer for the vertex's diagnostic output.
	Stderr() io.Writer
	// Complete marks the vertex finished; err is nil on success.
	Complete(err error)
	// Cached marks the vertex as satisfied without doing the work.
	Cached()
}

type vertexKey struct{}

// ContextWithVertex returns a copy of ctx carrying v.
func ContextWithVertex(ctx context.Context, v Vertex) context.Context {
	return context.WithValue(ctx, vertexKey{}, v)
}

// VertexFromContext returns the vertex carried by ctx, if any.
func VertexFromContext(ctx context.Context) (Vertex, bool) {
	v, ok := ctx.Value(vertexKey{}).(Vertex)
	return v, ok
}
