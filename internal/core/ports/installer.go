package ports

import (
	"context"
	"io"

	"go.trai.ch/envup/internal/core/domain"
)

// Installer installs the dependency manifest into the active environment.
// The manifest format is owned by the underlying installer, not by envup.
//
//go:generate mockgen -source=installer.go -destination=mocks/mock_installer.go -package=mocks
type Installer interface {
	// Install installs all entries of the spec's manifest into the venv.
	// env must be the activation environment of the venv. The install is not
	// atomic: on failure the environment remains partially populated.
	Install(ctx context.Context, spec *domain.EnvSpec, env []string, stdout, stderr io.Writer) error

	// ManifestHash returns the content hash of the manifest file.
	// Fails with domain.ErrManifestMissing when the file does not exist.
	ManifestHash(spec *domain.EnvSpec) (string, error)
}
