package nar

import (
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"go.trai.ch/zerr"
)

// Compression names an output compression for archive files.
type Compression string

// Supported output compressions.
const (
	CompressionNone Compression = ""
	CompressionZstd Compression = "zstd"
	CompressionGzip Compression = "gzip"
)

// CompressionFor picks a compression from an output file name.
func CompressionFor(name string) Compression {
	switch {
	case strings.HasSuffix(name, ".zst"):
		return CompressionZstd
	case strings.HasSuffix(name, ".gz"):
		return CompressionGzip
	default:
		return CompressionNone
	}
}

// NewWriter wraps w so that bytes written are compressed with c. Close must
// be called to flush; it does not close w.
func NewWriter(w io.Writer, c Compression) (io.WriteCloser, error) {
	switch c {
	case CompressionZstd:
		enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
		if err != nil {
			return nil, zerr.Wrap(err, "failed to create zstd encoder")
		}
		return enc, nil
	case CompressionGzip:
		return gzip.NewWriter(w), nil
	case CompressionNone:
		return nopCloser{w}, nil
	default:
		return nil, zerr.With(zerr.New("unknown compression"), "compression", string(c))
	}
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
