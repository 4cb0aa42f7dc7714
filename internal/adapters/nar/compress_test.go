package nar_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/gridlock/internal/adapters/nar"
)

func TestCompressionFor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, nar.CompressionZstd, nar.CompressionFor("out.nar.zst"))
	assert.Equal(t, nar.CompressionGzip, nar.CompressionFor("out.nar.gz"))
	assert.Equal(t, nar.CompressionNone, nar.CompressionFor("out.nar"))
}

func TestNewWriter_Compresses(t *testing.T) {
	t.Parallel()

	payload, err := nar.New().Encode(helloTree(t))
	require.NoError(t, err)

	decoders := map[nar.Compression]func(io.Reader) (io.Reader, error){
		nar.CompressionNone: func(r io.Reader) (io.Reader, error) { return r, nil },
		nar.CompressionGzip: func(r io.Reader) (io.Reader, error) { return gzip.NewReader(r) },
		nar.CompressionZstd: func(r io.Reader) (io.Reader, error) {
			d, err := zstd.NewReader(r)
			if err != nil {
				return nil, err
			}
			return d.IOReadCloser(), nil
		},
	}

	for c, decode := range decoders {
		var buf bytes.Buffer
		w, err := nar.NewWriter(&buf, c)
		require.NoError(t, err)
		_, err = w.Write(payload)
		require.NoError(t, err)
		require.NoError(t, w.Close())

		r, err := decode(&buf)
		require.NoError(t, err)
		got, err := io.ReadAll(r)
		require.NoError(t, err)
		assert.Equal(t, payload, got, "compression %q", c)
	}
}
