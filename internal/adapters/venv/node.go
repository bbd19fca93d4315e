package venv

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/envup/internal/adapters/shell"
	"go.trai.ch/envup/internal/core/ports"
)

// NodeID is the unique identifier for the venv manager Graft node.
const NodeID graft.ID = "adapter.venv"

func init() {
	graft.Register(graft.Node[ports.EnvManager]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{shell.NodeID},
		Run: func(ctx context.Context) (ports.EnvManager, error) {
			executor, err := graft.Dep[ports.Executor](ctx)
			if err != nil {
				return nil, err
			}
			return NewManager(executor), nil
		},
	})
}
