package fs

import (
	"archive/tar"
	"bufio"
	"bytes"
	"errors"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"go.trai.ch/gridlock/internal/core/domain"
	"go.trai.ch/zerr"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

var archiveSuffixes = []string{".tar", ".tar.gz", ".tgz", ".tar.zst", ".tzst"}

// IsArchive reports whether name looks like a tar archive.
func IsArchive(name string) bool {
	lower := strings.ToLower(name)
	for _, suffix := range archiveSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

// Decompress sniffs r for a gzip or zstd header and returns a reader over the
// decompressed stream. Uncompressed input is passed through.
func Decompress(r io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(len(zstdMagic))
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, domain.Classify(domain.ErrIO, zerr.Wrap(err, "failed to sniff compression"))
	}

	switch {
	case bytes.HasPrefix(magic, gzipMagic):
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, domain.Classify(domain.ErrIO, zerr.Wrap(err, "failed to open gzip stream"))
		}
		return zr, nil
	case bytes.HasPrefix(magic, zstdMagic):
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, domain.Classify(domain.ErrIO, zerr.Wrap(err, "failed to open zstd stream"))
		}
		return zr.IOReadCloser(), nil
	default:
		return io.NopCloser(br), nil
	}
}

// ReadTar builds a Directory from a tar stream. Directories, regular files,
// symlinks and hard links to regular files are kept; other member types are
// skipped. Missing parent directories are created implicitly.
func ReadTar(r io.Reader, stripComponents int) (*domain.Directory, error) {
	tree := domain.NewDirectory()
	tr := tar.NewReader(r)

	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return tree, nil
		}
		if err != nil {
			return nil, domain.Classify(domain.ErrIO, zerr.Wrap(err, "failed to read tar header"))
		}

		name, ok := stripPath(hdr.Name, stripComponents)
		if !ok {
			continue
		}

		node, err := tarNode(tree, tr, hdr, stripComponents)
		if err != nil {
			return nil, zerr.With(err, "member", hdr.Name)
		}
		if node == nil {
			continue
		}
		if err := tree.Insert(name, node); err != nil {
			return nil, domain.Classify(domain.ErrIO, zerr.With(err, "member", hdr.Name))
		}
	}
}

func tarNode(tree *domain.Directory, tr *tar.Reader, hdr *tar.Header, stripComponents int) (domain.FileTreeNode, error) {
	switch hdr.Typeflag {
	case tar.TypeDir:
		return domain.NewDirectory(), nil
	case tar.TypeReg:
		contents, err := io.ReadAll(tr)
		if err != nil {
			return nil, domain.Classify(domain.ErrIO, zerr.Wrap(err, "failed to read tar member"))
		}
		return &domain.Regular{Contents: contents, Executable: hdr.Mode&0o111 != 0}, nil
	case tar.TypeSymlink:
		return &domain.Symlink{Target: hdr.Linkname}, nil
	case tar.TypeLink:
		target, ok := stripPath(hdr.Linkname, stripComponents)
		if !ok {
			return nil, zerr.With(zerr.Wrap(domain.ErrIO, "hard link target outside archive"), "target", hdr.Linkname)
		}
		existing, found := tree.Lookup(target)
		file, isFile := existing.(*domain.Regular)
		if !found || !isFile {
			return nil, zerr.With(zerr.Wrap(domain.ErrIO, "hard link target is not a regular file"), "target", hdr.Linkname)
		}
		return &domain.Regular{Contents: file.Contents, Executable: file.Executable}, nil
	default:
		return nil, nil
	}
}

// stripPath drops the first n components of a member name. ok is false when
// nothing remains.
func stripPath(name string, n int) (string, bool) {
	parts := domain.SplitTreePath(name)
	if len(parts) <= n {
		return "", false
	}
	return strings.Join(parts[n:], "/"), true
}
