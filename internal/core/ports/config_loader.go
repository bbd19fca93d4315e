package ports

import "go.trai.ch/envup/internal/core/domain"

// ConfigLoader defines the interface for loading the environment specification.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load discovers envup.yaml from the given working directory upward and
	// returns the validated specification. The spec is immutable for the run.
	Load(cwd string) (*domain.EnvSpec, error)

	// Discover returns the path of the configuration file without loading it.
	Discover(cwd string) (string, error)
}
