package ports

import "go.trai.ch/gridlock/internal/core/domain"

// TreeImporter reads a local directory, file or tar archive into a file tree.
//
//go:generate mockgen -source=importer.go -destination=mocks/mock_importer.go -package=mocks
type TreeImporter interface {
	Import(source string, opts domain.ImportOptions) (domain.FileTreeNode, error)
}
