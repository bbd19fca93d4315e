package ports

import (
	"context"
	"io"

	"go.trai.ch/envup/internal/core/domain"
)

// EnvManager owns the isolated environment directory: its removal, creation,
// state marker and activation variables.
//
//go:generate mockgen -source=environment.go -destination=mocks/mock_environment.go -package=mocks
type EnvManager interface {
	// Remove deletes the venv directory entirely. It fails with
	// domain.ErrEnvInUse when a live process holds the directory's lockfile,
	// and succeeds when the directory does not exist.
	Remove(ctx context.Context, spec *domain.EnvSpec) error

	// Create creates a fresh venv via the interpreter resolved from toolEnv
	// and writes a StateCreating marker into it. Step output is streamed to
	// stdout/stderr.
	Create(ctx context.Context, spec *domain.EnvSpec, toolEnv []string, stdout, stderr io.Writer) error

	// ActivationEnv returns the environment for processes running inside the
	// venv: toolEnv plus VIRTUAL_ENV and the venv bin directory prepended to
	// PATH, plus the spec's environment overrides. The bootstrapper's own
	// process environment is never mutated.
	ActivationEnv(spec *domain.EnvSpec, toolEnv []string) []string

	// AcquireLock marks the venv as in use by the current process. The
	// returned release function removes the lock. Fails with
	// domain.ErrEnvInUse when another live process already holds the lock.
	AcquireLock(spec *domain.EnvSpec) (release func(), err error)

	// ReadMarker reads the state marker. Returns nil, nil when no marker exists.
	ReadMarker(spec *domain.EnvSpec) (*domain.Marker, error)

	// WriteMarker persists the state marker atomically.
	WriteMarker(spec *domain.EnvSpec, marker domain.Marker) error
}
