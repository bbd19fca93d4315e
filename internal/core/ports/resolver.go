package ports

import "context"

// DependencyResolver resolves a tool package and version to a concrete
// artifact in the host package ecosystem.
//
//go:generate mockgen -source=resolver.go -destination=mocks/mock_resolver.go -package=mocks
type DependencyResolver interface {
	// Resolve resolves a package name and version to a Nixpkgs commit hash
	// and attribute path.
	Resolve(ctx context.Context, pkg, version string) (commitHash, attrPath string, err error)
}

// EnvironmentFactory materializes the declared external tools.
type EnvironmentFactory interface {
	// GetEnvironment constructs an environment from a set of tools.
	// The tools map contains alias->spec pairs (e.g. "python" -> "python@3.12").
	// Returns environment variables as "KEY=VALUE" strings suitable for
	// child-process execution; the declared tools are on the returned PATH.
	GetEnvironment(ctx context.Context, tools map[string]string) ([]string, error)
}
