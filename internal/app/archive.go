package app

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"

	"go.trai.ch/gridlock/internal/adapters/nar" //nolint:depguard // Output compression is chosen in the app layer
	"go.trai.ch/gridlock/internal/core/domain"
	"go.trai.ch/zerr"
)

// ArchiveOptions selects a local source for Nar and Hash.
type ArchiveOptions struct {
	// Source is a directory, a regular file, a symlink or a tar archive.
	Source string
	domain.ImportOptions
}

// NarOptions configures Nar.
type NarOptions struct {
	ArchiveOptions
	// Output is the destination file; empty writes to the supplied writer.
	// A ".zst" or ".gz" suffix compresses the archive.
	Output string
}

// NarResult describes a written archive.
type NarResult struct {
	Size   int
	Digest domain.ContentDigest
}

// Nar encodes a local source and writes the archive to opts.Output, or to
// stdout when no output is given.
func (a *App) Nar(_ context.Context, opts NarOptions, stdout io.Writer) (NarResult, error) {
	archive, err := a.encodeSource(opts.ArchiveOptions)
	if err != nil {
		return NarResult{}, err
	}

	digest, err := a.digester.Digest(bytes.NewReader(archive))
	if err != nil {
		return NarResult{}, err
	}

	if opts.Output == "" {
		if _, err := stdout.Write(archive); err != nil {
			return NarResult{}, domain.Classify(domain.ErrIO, zerr.Wrap(err, "failed to write archive"))
		}
	} else if err := writeArchive(opts.Output, archive); err != nil {
		return NarResult{}, err
	}

	return NarResult{Size: len(archive), Digest: digest}, nil
}

// Hash returns the content digest of a local source.
func (a *App) Hash(_ context.Context, opts ArchiveOptions) (domain.ContentDigest, error) {
	archive, err := a.encodeSource(opts)
	if err != nil {
		return domain.ContentDigest{}, err
	}
	return a.digester.Digest(bytes.NewReader(archive))
}

func (a *App) encodeSource(opts ArchiveOptions) ([]byte, error) {
	if opts.Source == "" {
		return nil, zerr.Wrap(domain.ErrUsage, "source path is required")
	}
	if opts.StripComponents < 0 {
		return nil, zerr.With(zerr.Wrap(domain.ErrUsage, "strip-components must not be negative"), "value", opts.StripComponents)
	}

	tree, err := a.importer.Import(opts.Source, opts.ImportOptions)
	if err != nil {
		return nil, err
	}

	archive, err := a.archiver.Encode(tree)
	if err != nil {
		return nil, zerr.With(domain.Classify(domain.ErrIO, err), "source", opts.Source)
	}
	return archive, nil
}

// writeArchive writes archive to path through a sibling temp file, compressed
// according to the file name.
func writeArchive(path string, archive []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return outputError(err, "failed to create temp file", path)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	w, err := nar.NewWriter(tmp, nar.CompressionFor(path))
	if err != nil {
		return outputError(err, "failed to create compressor", path)
	}
	if _, err := w.Write(archive); err != nil {
		return outputError(err, "failed to write archive", path)
	}
	if err := w.Close(); err != nil {
		return outputError(err, "failed to flush archive", path)
	}
	if err := tmp.Chmod(domain.FilePerm); err != nil {
		return outputError(err, "failed to set permissions", path)
	}
	if err := tmp.Close(); err != nil {
		return outputError(err, "failed to close temp file", path)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return outputError(err, "failed to rename archive", path)
	}
	return nil
}

func outputError(err error, msg, path string) error {
	return zerr.With(domain.Classify(domain.ErrIO, zerr.Wrap(err, msg)), "path", path)
}
