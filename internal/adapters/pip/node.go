package pip

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/envup/internal/adapters/shell"
	"go.trai.ch/envup/internal/core/ports"
)

// NodeID is the unique identifier for the pip installer Graft node.
const NodeID graft.ID = "adapter.pip"

func init() {
	graft.Register(graft.Node[ports.Installer]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{shell.NodeID},
		Run: func(ctx context.Context) (ports.Installer, error) {
			executor, err := graft.Dep[ports.Executor](ctx)
			if err != nil {
				return nil, err
			}
			return NewInstaller(executor), nil
		},
	})
}
