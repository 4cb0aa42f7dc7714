package fs_test

import (
	"archive/tar"
	"bytes"
	"io"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/gridlock/internal/adapters/fs"
	"go.trai.ch/gridlock/internal/core/domain"
)

type member struct {
	name     string
	typeflag byte
	mode     int64
	body     string
	linkname string
}

func buildTar(t *testing.T, members ...member) []byte {
	t.Helper()

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, m := range members {
		hdr := &tar.Header{
			Name:     m.name,
			Typeflag: m.typeflag,
			Mode:     m.mode,
			Linkname: m.linkname,
		}
		if m.typeflag == tar.TypeReg {
			hdr.Size = int64(len(m.body))
		}
		require.NoError(t, tw.WriteHeader(hdr))
		if m.body != "" {
			_, err := tw.Write([]byte(m.body))
			require.NoError(t, err)
		}
	}
	require.NoError(t, tw.Close())
	return buf.Bytes()
}

func packageTar(t *testing.T) []byte {
	t.Helper()
	return buildTar(t,
		member{name: "./", typeflag: tar.TypeDir, mode: 0o755},
		member{name: "pkg/", typeflag: tar.TypeDir, mode: 0o755},
		member{name: "pkg/a", typeflag: tar.TypeReg, mode: 0o644, body: "alpha"},
		member{name: "pkg/bin/x", typeflag: tar.TypeReg, mode: 0o755, body: "exec"},
		member{name: "pkg/l", typeflag: tar.TypeSymlink, linkname: "a"},
		member{name: "pkg/h", typeflag: tar.TypeLink, linkname: "pkg/a"},
		member{name: "pkg/fifo", typeflag: tar.TypeFifo, mode: 0o644},
	)
}

func TestReadTar_Members(t *testing.T) {
	t.Parallel()

	tree, err := fs.ReadTar(bytes.NewReader(packageTar(t)), 0)
	require.NoError(t, err)

	assert.Equal(t, []string{"pkg"}, tree.Names())

	pkg, ok := tree.Lookup("pkg")
	require.True(t, ok)
	assert.Equal(t, []string{"a", "bin", "h", "l"}, pkg.(*domain.Directory).Names())

	node, _ := tree.Lookup("pkg/a")
	assert.Equal(t, &domain.Regular{Contents: []byte("alpha")}, node)
	node, _ = tree.Lookup("pkg/bin/x")
	assert.Equal(t, &domain.Regular{Contents: []byte("exec"), Executable: true}, node)
	node, _ = tree.Lookup("pkg/l")
	assert.Equal(t, &domain.Symlink{Target: "a"}, node)
	node, _ = tree.Lookup("pkg/h")
	assert.Equal(t, &domain.Regular{Contents: []byte("alpha")}, node)
}

func TestReadTar_StripComponents(t *testing.T) {
	t.Parallel()

	tree, err := fs.ReadTar(bytes.NewReader(packageTar(t)), 1)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "bin", "h", "l"}, tree.Names())
}

func TestReadTar_AnyExecuteBit(t *testing.T) {
	t.Parallel()

	data := buildTar(t, member{name: "group-exec", typeflag: tar.TypeReg, mode: 0o610, body: "x"})
	tree, err := fs.ReadTar(bytes.NewReader(data), 0)
	require.NoError(t, err)

	node, _ := tree.Lookup("group-exec")
	assert.True(t, node.(*domain.Regular).Executable)
}

func TestReadTar_ChildUnderFile(t *testing.T) {
	t.Parallel()

	data := buildTar(t,
		member{name: "f", typeflag: tar.TypeReg, mode: 0o644, body: "x"},
		member{name: "f/g", typeflag: tar.TypeReg, mode: 0o644, body: "y"},
	)
	_, err := fs.ReadTar(bytes.NewReader(data), 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIO)
	assert.ErrorIs(t, err, domain.ErrNotADirectory)
}

func TestReadTar_Truncated(t *testing.T) {
	t.Parallel()

	data := packageTar(t)
	_, err := fs.ReadTar(bytes.NewReader(data[:700]), 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIO)
}

func TestDecompress(t *testing.T) {
	t.Parallel()

	plain := packageTar(t)

	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	_, err := gw.Write(plain)
	require.NoError(t, err)
	require.NoError(t, gw.Close())

	var zs bytes.Buffer
	zw, err := zstd.NewWriter(&zs)
	require.NoError(t, err)
	_, err = zw.Write(plain)
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	for name, input := range map[string][]byte{
		"plain": plain,
		"gzip":  gz.Bytes(),
		"zstd":  zs.Bytes(),
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			r, err := fs.Decompress(bytes.NewReader(input))
			require.NoError(t, err)
			defer r.Close() //nolint:errcheck // Test cleanup

			got, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, plain, got)
		})
	}
}

func TestIsArchive(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"src.tar", "src.tar.gz", "SRC.TGZ", "src.tar.zst", "src.tzst"} {
		assert.True(t, fs.IsArchive(name), name)
	}
	for _, name := range []string{"src.zip", "src.gz", "tarball", "src.nar"} {
		assert.False(t, fs.IsArchive(name), name)
	}
}
