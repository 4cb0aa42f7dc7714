// Package lockfile implements the JSON lockfile store.
package lockfile

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"go.trai.ch/gridlock/internal/core/domain"
	"go.trai.ch/gridlock/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.LockfileStore = (*Store)(nil)

// Store implements ports.LockfileStore on the local file system.
type Store struct{}

// NewStore creates a new Store.
func NewStore() *Store {
	return &Store{}
}

// Init writes an empty lockfile at path. The file is hard-linked into place,
// so an existing file at path is never replaced even by a concurrent Init.
func (s *Store) Init(path string) error {
	data, err := Encode(domain.NewLockfile())
	if err != nil {
		return domain.Classify(domain.ErrIO, err)
	}
	return writeNew(path, data)
}

// Load reads and decodes the lockfile at path.
func (s *Store) Load(path string) (*domain.Lockfile, error) {
	//nolint:gosec // Path is supplied by the user
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, zerr.With(domain.Classify(domain.ErrNotFound, zerr.Wrap(err, "no lockfile")), "path", path)
		}
		return nil, ioError(err, "failed to read lockfile", path)
	}

	lf, err := Decode(data)
	if err != nil {
		return nil, zerr.With(err, "path", path)
	}
	return lf, nil
}

// Save encodes lf and atomically replaces the file at path: the bytes go to a
// sibling temporary file which is synced and renamed over the target.
func (s *Store) Save(path string, lf *domain.Lockfile) error {
	data, err := Encode(lf)
	if err != nil {
		return domain.Classify(domain.ErrIO, err)
	}
	return writeAtomic(path, data)
}

func writeAtomic(path string, data []byte) error {
	return writeTemp(path, data, func(tmpName string) error {
		if err := os.Rename(tmpName, path); err != nil {
			return ioError(err, "failed to replace lockfile", path)
		}
		return nil
	})
}

func writeNew(path string, data []byte) error {
	return writeTemp(path, data, func(tmpName string) error {
		err := os.Link(tmpName, path)
		_ = os.Remove(tmpName)
		switch {
		case errors.Is(err, fs.ErrExist):
			return zerr.With(zerr.Wrap(domain.ErrAlreadyExists, "init"), "path", path)
		case err != nil:
			return ioError(err, "failed to create lockfile", path)
		}
		return nil
	})
}

// writeTemp writes data to a synced sibling temporary file and hands its name
// to place, which moves it to path. The temporary file is removed on failure.
func writeTemp(path string, data []byte, place func(tmpName string) error) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return ioError(err, "failed to create temporary lockfile", path)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return ioError(err, "failed to write temporary lockfile", tmpName)
	}
	if err = tmp.Sync(); err != nil {
		return ioError(err, "failed to sync temporary lockfile", tmpName)
	}
	if err = tmp.Chmod(domain.FilePerm); err != nil {
		return ioError(err, "failed to set lockfile permissions", tmpName)
	}
	if err = tmp.Close(); err != nil {
		return ioError(err, "failed to close temporary lockfile", tmpName)
	}
	if err = place(tmpName); err != nil {
		return err
	}

	syncDir(dir)
	return nil
}

// syncDir flushes the rename. Not every platform supports syncing a directory.
func syncDir(dir string) {
	d, err := os.Open(dir) //nolint:gosec // Directory of the lockfile
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}

func ioError(err error, msg, path string) error {
	return zerr.With(domain.Classify(domain.ErrIO, zerr.Wrap(err, msg)), "path", path)
}
