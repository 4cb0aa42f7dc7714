// Package fs provides file system adapters that turn local sources into file trees.
package fs

import (
	iofs "io/fs"
	"os"
	"path/filepath"

	"go.trai.ch/gridlock/internal/core/domain"
	"go.trai.ch/zerr"
)

// Walker reads an on-disk directory into a Directory tree.
type Walker struct{}

// NewWalker creates a new Walker.
func NewWalker() *Walker {
	return &Walker{}
}

// ReadDir walks root and returns its contents. Symlinks are never followed.
func (w *Walker) ReadDir(root string, includeVCS bool) (*domain.Directory, error) {
	tree := domain.NewDirectory()

	err := filepath.WalkDir(root, func(path string, d iofs.DirEntry, err error) error {
		if err != nil {
			return ioFailure(err, "failed to walk directory", path)
		}
		if path == root {
			return nil
		}

		if d.IsDir() && !includeVCS && isVCSDir(d.Name()) {
			return filepath.SkipDir
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return ioFailure(err, "failed to relativize path", path)
		}

		node, err := readEntry(path, d.Type())
		if err != nil {
			return err
		}
		if err := tree.Insert(filepath.ToSlash(rel), node); err != nil {
			return domain.Classify(domain.ErrIO, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return tree, nil
}

// readEntry loads a single non-root entry. Only the executable bit of the
// mode is kept.
func readEntry(path string, typ iofs.FileMode) (domain.FileTreeNode, error) {
	switch {
	case typ.IsDir():
		return domain.NewDirectory(), nil
	case typ&iofs.ModeSymlink != 0:
		target, err := os.Readlink(path)
		if err != nil {
			return nil, ioFailure(err, "failed to read symlink", path)
		}
		return &domain.Symlink{Target: target}, nil
	case typ.IsRegular():
		return readRegular(path)
	default:
		return nil, zerr.With(zerr.With(zerr.Wrap(domain.ErrIO, "unsupported file type"), "path", path), "mode", typ.String())
	}
}

func readRegular(path string) (*domain.Regular, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return nil, ioFailure(err, "failed to stat file", path)
	}
	contents, err := os.ReadFile(path) //nolint:gosec // Path comes from the walk
	if err != nil {
		return nil, ioFailure(err, "failed to read file", path)
	}
	return &domain.Regular{Contents: contents, Executable: info.Mode().Perm()&0o111 != 0}, nil
}

func isVCSDir(name string) bool {
	return name == ".git" || name == ".jj"
}

func ioFailure(err error, msg, path string) error {
	return zerr.With(domain.Classify(domain.ErrIO, zerr.Wrap(err, msg)), "path", path)
}
