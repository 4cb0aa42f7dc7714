package progrock

import (
	"io"
	"sync"

	"github.com/vito/progrock"
)

// Vertex implements ports.Vertex over a progrock vertex recorder. Complete
// and Cached are idempotent; the first call wins.
type Vertex struct {
	name   string
	vertex *progrock.VertexRecorder
	once   sync.Once
}

// Name returns the vertex label.
func (v *Vertex) Name() string {
	return v.name
}

// Stdout returns the vertex's informational stream.
func (v *Vertex) Stdout() io.Writer {
	return v.vertex.Stdout()
}

// Stderr returns the vertex's diagnostic stream.
func (v *Vertex) Stderr() io.Writer {
	return v.vertex.Stderr()
}

// Complete marks the vertex as finished.
func (v *Vertex) Complete(err error) {
	v.once.Do(func() { v.vertex.Done(err) })
}

// Cached marks the vertex as satisfied without work.
func (v *Vertex) Cached() {
	v.once.Do(v.vertex.Cached)
}
