package git

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/gridlock/internal/adapters/config"
	"go.trai.ch/gridlock/internal/core/domain"
	"go.trai.ch/gridlock/internal/core/ports"
)

const NodeID graft.ID = "adapter.remote_git"

func init() {
	graft.Register(graft.Node[ports.RemoteGit]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.SettingsNodeID},
		Run: func(ctx context.Context) (ports.RemoteGit, error) {
			cfg, err := graft.Dep[domain.Config](ctx)
			if err != nil {
				return nil, err
			}
			client, err := NewClient(Options{
				Program:          cfg.Git,
				ScratchDir:       cfg.ScratchDir,
				BlobCacheEntries: cfg.BlobCacheEntries,
			})
			if err != nil {
				return nil, err
			}
			return client, nil
		},
	})
}
