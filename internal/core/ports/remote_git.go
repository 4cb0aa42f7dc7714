package ports

import (
	"context"

	"go.trai.ch/gridlock/internal/core/domain"
)

// RemoteGit is the version-control capability the resolver depends on.
//
//go:generate mockgen -source=remote_git.go -destination=mocks/mock_remote_git.go -package=mocks
type RemoteGit interface {
	// ListRefs returns every ref the remote at url advertises.
	ListRefs(ctx context.Context, url string) (domain.RemoteRefs, error)

	// FetchTree shallowly fetches commit from url and returns its root tree.
	FetchTree(ctx context.Context, url, commit string) (*domain.Directory, error)
}
