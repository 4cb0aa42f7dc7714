package resolver

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/gridlock/internal/adapters/config"              //nolint:depguard // Wired in engine wiring
	"go.trai.ch/gridlock/internal/adapters/digest"              //nolint:depguard // Wired in engine wiring
	"go.trai.ch/gridlock/internal/adapters/git"                 //nolint:depguard // Wired in engine wiring
	"go.trai.ch/gridlock/internal/adapters/nar"                 //nolint:depguard // Wired in engine wiring
	"go.trai.ch/gridlock/internal/adapters/telemetry/progrock" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/gridlock/internal/core/domain"
	"go.trai.ch/gridlock/internal/core/ports"
)

// NodeID is the unique identifier for the resolver Graft node.
const NodeID graft.ID = "engine.resolver"

func init() {
	graft.Register(graft.Node[*Resolver]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.SettingsNodeID,
			git.NodeID,
			nar.NodeID,
			digest.NodeID,
			progrock.NodeID,
		},
		Run: func(ctx context.Context) (*Resolver, error) {
			cfg, err := graft.Dep[domain.Config](ctx)
			if err != nil {
				return nil, err
			}

			remote, err := graft.Dep[ports.RemoteGit](ctx)
			if err != nil {
				return nil, err
			}

			archiver, err := graft.Dep[ports.Archiver](ctx)
			if err != nil {
				return nil, err
			}

			digester, err := graft.Dep[ports.Digester](ctx)
			if err != nil {
				return nil, err
			}

			telemetry, err := graft.Dep[ports.Telemetry](ctx)
			if err != nil {
				return nil, err
			}

			return New(remote, archiver, digester, telemetry, cfg.URLTemplate), nil
		},
	})
}
