package digest

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/gridlock/internal/core/ports"
)

// NodeID is the unique identifier for the digest computer Graft node.
const NodeID graft.ID = "adapter.digester"

func init() {
	graft.Register(graft.Node[ports.Digester]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Digester, error) {
			return New(), nil
		},
	})
}
