package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/gridlock/internal/adapters/config"   //nolint:depguard // Wired in app layer
	"go.trai.ch/gridlock/internal/adapters/digest"   //nolint:depguard // Wired in app layer
	"go.trai.ch/gridlock/internal/adapters/fs"       //nolint:depguard // Wired in app layer
	"go.trai.ch/gridlock/internal/adapters/lockfile" //nolint:depguard // Wired in app layer
	"go.trai.ch/gridlock/internal/adapters/logger"   //nolint:depguard // Wired in app layer
	"go.trai.ch/gridlock/internal/adapters/nar"      //nolint:depguard // Wired in app layer
	"go.trai.ch/gridlock/internal/core/domain"
	"go.trai.ch/gridlock/internal/core/ports"
	"go.trai.ch/gridlock/internal/engine/resolver"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			lockfile.NodeID,
			resolver.NodeID,
			fs.ImporterNodeID,
			nar.NodeID,
			digest.NodeID,
			logger.NodeID,
			config.SettingsNodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
			config.SettingsNodeID,
		},
		Run: runComponentsNode,
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	store, err := graft.Dep[ports.LockfileStore](ctx)
	if err != nil {
		return nil, err
	}

	res, err := graft.Dep[*resolver.Resolver](ctx)
	if err != nil {
		return nil, err
	}

	importer, err := graft.Dep[ports.TreeImporter](ctx)
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

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	cfg, err := graft.Dep[domain.Config](ctx)
	if err != nil {
		return nil, err
	}

	return New(store, res, importer, archiver, digester, log, cfg), nil
}

func runComponentsNode(ctx context.Context) (*Components, error) {
	a, err := graft.Dep[*App](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	cfg, err := graft.Dep[domain.Config](ctx)
	if err != nil {
		return nil, err
	}

	return NewComponents(a, log, cfg), nil
}
