package ports

import "go.trai.ch/gridlock/internal/core/domain"

// LockfileStore persists lockfiles.
//
//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type LockfileStore interface {
	// Init writes an empty lockfile. Returns ErrAlreadyExists if path is taken.
	Init(path string) error

	// Load reads the lockfile at path. Returns ErrNotFound or ErrParse.
	Load(path string) (*domain.Lockfile, error)

	// Save atomically replaces the lockfile at path.
	Save(path string, lf *domain.Lockfile) error
}
