// Package pip installs the dependency manifest into the venv through the
// venv's own pip.
package pip

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/envup/internal/core/domain"
	"go.trai.ch/envup/internal/core/ports"
	"go.trai.ch/zerr"
)

// Installer implements ports.Installer using pip with a requirements manifest.
type Installer struct {
	executor ports.Executor
}

// NewInstaller creates a pip-based installer that runs pip through the given
// executor.
func NewInstaller(executor ports.Executor) *Installer {
	return &Installer{executor: executor}
}

// Install runs the venv's pip against the manifest. env must be the activation
// environment so pip and its subprocesses resolve inside the venv. The install
// is not atomic: a failure leaves the environment partially populated, which
// the state marker records.
func (i *Installer) Install(ctx context.Context, spec *domain.EnvSpec, env []string, stdout, stderr io.Writer) error {
	if _, err := os.Stat(spec.Manifest); errors.Is(err, fs.ErrNotExist) {
		return zerr.With(zerr.Wrap(domain.ErrManifestMissing, ""), "manifest", spec.Manifest)
	}

	cmd := &domain.Command{
		Name: spec.PythonBinary(),
		Args: []string{"-m", "pip", "install", "-r", spec.Manifest},
		Dir:  spec.Root,
	}

	if err := i.executor.Execute(ctx, cmd, env, stdout, stderr); err != nil {
		return zerr.Wrap(err, domain.ErrInstallFailed.Error())
	}

	return nil
}

// ManifestHash returns the xxhash of the manifest contents, used to detect
// manifest drift between runs.
func (i *Installer) ManifestHash(spec *domain.EnvSpec) (string, error) {
	//nolint:gosec // Manifest path is resolved under the validated project root
	data, err := os.ReadFile(spec.Manifest)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", zerr.With(zerr.Wrap(domain.ErrManifestMissing, ""), "manifest", spec.Manifest)
		}
		return "", zerr.Wrap(err, "failed to read manifest")
	}

	return fmt.Sprintf("%016x", xxhash.Sum64(data)), nil
}
