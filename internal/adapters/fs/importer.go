package fs

import (
	"os"

	"go.trai.ch/gridlock/internal/core/domain"
	"go.trai.ch/gridlock/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.TreeImporter = (*Importer)(nil)

// Importer dispatches a local source to the directory walker or the tar reader.
type Importer struct {
	walker *Walker
}

// NewImporter creates a new Importer.
func NewImporter(walker *Walker) *Importer {
	return &Importer{walker: walker}
}

// Import reads source into a file tree. A directory is walked, a tar archive
// (optionally gzip or zstd compressed) is unpacked in memory, and any other
// regular file or symlink becomes a single-node tree.
func (i *Importer) Import(source string, opts domain.ImportOptions) (domain.FileTreeNode, error) {
	info, err := os.Lstat(source)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, zerr.With(domain.Classify(domain.ErrNotFound, err), "path", source)
		}
		return nil, ioFailure(err, "failed to stat source", source)
	}

	var tree *domain.Directory
	switch {
	case info.IsDir():
		tree, err = i.walker.ReadDir(source, opts.IncludeVCS)
	case info.Mode().IsRegular() && IsArchive(source):
		tree, err = i.readArchive(source, opts.StripComponents)
	default:
		return readEntry(source, info.Mode().Type())
	}
	if err != nil {
		return nil, err
	}
	return tree, nil
}

func (i *Importer) readArchive(path string, stripComponents int) (*domain.Directory, error) {
	f, err := os.Open(path) //nolint:gosec // Path is supplied by the user
	if err != nil {
		return nil, ioFailure(err, "failed to open archive", path)
	}
	defer f.Close() //nolint:errcheck // Best effort close in defer

	r, err := Decompress(f)
	if err != nil {
		return nil, zerr.With(err, "path", path)
	}
	defer r.Close() //nolint:errcheck // Best effort close in defer

	tree, err := ReadTar(r, stripComponents)
	if err != nil {
		return nil, zerr.With(err, "path", path)
	}
	return tree, nil
}
