// Package progrock records pin and resolve progress on a progrock tape.
package progrock

import (
	"context"
	"strconv"
	"sync/atomic"

	"github.com/opencontainers/go-digest"
	"github.com/vito/progrock"
	"go.trai.ch/gridlock/internal/core/ports"
)

var _ ports.Telemetry = (*Recorder)(nil)

// Recorder implements ports.Telemetry on a progrock.Writer.
type Recorder struct {
	w   progrock.Writer
	rec *progrock.Recorder
	seq atomic.Uint64
}

// NewRecorder creates a Recorder writing to w.
func NewRecorder(w progrock.Writer) *Recorder {
	return &Recorder{w: w, rec: progrock.NewRecorder(w)}
}

// Record starts a vertex. Vertex digests combine the name with a sequence
// number so repeated names stay distinct on the tape.
func (r *Recorder) Record(ctx context.Context, name string) (context.Context, ports.Vertex) {
	id := digest.FromString(name + "\x00" + strconv.FormatUint(r.seq.Add(1), 10))
	vertex := &Vertex{name: name, vertex: r.rec.Vertex(id, name)}
	return ports.ContextWithVertex(ctx, vertex), vertex
}

// Close flushes the underlying writer when it can be closed.
func (r *Recorder) Close() error {
	if c, ok := r.w.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
