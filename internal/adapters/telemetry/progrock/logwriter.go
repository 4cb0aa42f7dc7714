package progrock

import (
	"bytes"
	"strings"
	"sync"

	"github.com/vito/progrock"
	"go.trai.ch/gridlock/internal/core/ports"
)

var _ progrock.Writer = (*LogWriter)(nil)

// LogWriter is a progrock.Writer that keeps each vertex's output until the
// vertex finishes. Output of a failed vertex is passed to the logger as a
// warning; output of a successful or cached vertex is discarded.
type LogWriter struct {
	logger ports.Logger

	mu     sync.Mutex
	output map[string]*bytes.Buffer
}

// NewLogWriter creates a LogWriter reporting to logger.
func NewLogWriter(logger ports.Logger) *LogWriter {
	return &LogWriter{logger: logger, output: make(map[string]*bytes.Buffer)}
}

// WriteStatus implements progrock.Writer.
func (w *LogWriter) WriteStatus(update *progrock.StatusUpdate) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, l := range update.Logs {
		buf, ok := w.output[l.Vertex]
		if !ok {
			buf = &bytes.Buffer{}
			w.output[l.Vertex] = buf
		}
		buf.Write(l.Data)
	}

	for _, v := range update.Vertexes {
		if v.Completed == nil && !v.Cached {
			continue
		}
		buf := w.output[v.Id]
		delete(w.output, v.Id)
		if v.Error == nil || buf == nil {
			continue
		}
		if out := strings.TrimSpace(buf.String()); out != "" {
			w.logger.Warn(v.Name + ": " + out)
		}
	}
	return nil
}

// Close drops any output of vertices that never finished.
func (w *LogWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	clear(w.output)
	return nil
}
