package nix

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/envup/internal/core/ports"
)

// ResolverNodeID is the unique identifier for the dependency resolver Graft node.
const ResolverNodeID graft.ID = "adapter.nix.resolver"

// FactoryNodeID is the unique identifier for the environment factory Graft node.
const FactoryNodeID graft.ID = "adapter.nix.factory"

func init() {
	graft.Register(graft.Node[ports.DependencyResolver]{
		ID:        ResolverNodeID,
		Cacheable: true,
		Run: func(ctx context.Context) (ports.DependencyResolver, error) {
			return NewResolver()
		},
	})

	graft.Register(graft.Node[ports.EnvironmentFactory]{
		ID:        FactoryNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{ResolverNodeID},
		Run: func(ctx context.Context) (ports.EnvironmentFactory, error) {
			resolver, err := graft.Dep[ports.DependencyResolver](ctx)
			if err != nil {
				return nil, err
			}
			return NewEnvFactory(resolver), nil
		},
	})
}
