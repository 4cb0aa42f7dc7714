package ports

import (
	"io"

	"go.trai.ch/gridlock/internal/core/domain"
)

// Archiver turns a file tree into its canonical archive bytes.
//
//go:generate mockgen -destination=mocks/archiver_mock.go -package=mocks -source=archiver.go
type Archiver interface {
	Encode(root domain.FileTreeNode) ([]byte, error)
}

// Digester hashes canonical archive bytes.
type Digester interface {
	Digest(archive io.Reader) (domain.ContentDigest, error)
}
