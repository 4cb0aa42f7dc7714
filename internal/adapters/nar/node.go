package nar

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/gridlock/internal/core/ports"
)

// NodeID is the unique identifier for the archive encoder Graft node.
const NodeID graft.ID = "adapter.archiver"

func init() {
	graft.Register(graft.Node[ports.Archiver]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Archiver, error) {
			return NewEncoder(Version1)
		},
	})
}
