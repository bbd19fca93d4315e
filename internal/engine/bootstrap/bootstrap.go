// Package bootstrap implements the linear environment bootstrap sequence:
// resolve tools, remove the venv, recreate it, install the manifest.
package bootstrap

import (
	"context"
	"time"

	"go.trai.ch/envup/internal/core/domain"
	"go.trai.ch/envup/internal/core/ports"
	"go.trai.ch/zerr"
)

// Step names as announced in the plan and used for spans.
const (
	StepResolve = "resolve tools"
	StepRemove  = "remove venv"
	StepCreate  = "create venv"
	StepInstall = "install manifest"
)

// Options control a single bootstrap run.
type Options struct {
	// IfChanged skips removal, creation and install when the existing
	// environment is ready and matches the current tool set and manifest.
	IfChanged bool
}

// Result describes a finished bootstrap run.
type Result struct {
	// Skipped is true when the environment was reused unchanged.
	Skipped bool

	// ToolEnv is the resolved tool environment.
	ToolEnv []string

	// ActivationEnv is the environment for processes inside the venv.
	ActivationEnv []string
}

// Bootstrapper executes the bootstrap sequence against the injected ports.
type Bootstrapper struct {
	envFactory ports.EnvironmentFactory
	envManager ports.EnvManager
	installer  ports.Installer
	tracer     ports.Tracer
	logger     ports.Logger
}

// New creates a Bootstrapper.
func New(
	envFactory ports.EnvironmentFactory,
	envManager ports.EnvManager,
	installer ports.Installer,
	tracer ports.Tracer,
	logger ports.Logger,
) *Bootstrapper {
	return &Bootstrapper{
		envFactory: envFactory,
		envManager: envManager,
		installer:  installer,
		tracer:     tracer,
		logger:     logger,
	}
}

// Run executes the sequence strictly in order, failing fast at the first
// error. Tool resolution happens before any filesystem mutation, so a
// resolution failure leaves the existing environment untouched.
func (b *Bootstrapper) Run(ctx context.Context, spec *domain.EnvSpec, opts Options) (*Result, error) {
	envID := domain.GenerateEnvID(spec.Tools)

	b.tracer.EmitPlan(ctx, []string{StepResolve, StepRemove, StepCreate, StepInstall})

	toolEnv, err := b.resolveTools(ctx, spec)
	if err != nil {
		return nil, err
	}

	activationEnv := b.envManager.ActivationEnv(spec, toolEnv)

	if opts.IfChanged && b.isFresh(spec, envID) {
		b.logger.Info("environment is up to date, skipping recreation")
		return &Result{
			Skipped:       true,
			ToolEnv:       toolEnv,
			ActivationEnv: activationEnv,
		}, nil
	}

	if err := b.removeEnv(ctx, spec); err != nil {
		return nil, err
	}

	if err := b.createEnv(ctx, spec, toolEnv); err != nil {
		return nil, err
	}

	if err := b.installManifest(ctx, spec, envID, activationEnv); err != nil {
		return nil, err
	}

	return &Result{
		ToolEnv:       toolEnv,
		ActivationEnv: activationEnv,
	}, nil
}

// resolveTools resolves the declared tool set into an environment variable
// slice. Individual tool lookups run concurrently inside the factory.
func (b *Bootstrapper) resolveTools(ctx context.Context, spec *domain.EnvSpec) ([]string, error) {
	ctx, span := b.tracer.Start(ctx, StepResolve)
	defer span.End()

	span.SetAttribute("tool_count", len(spec.Tools))

	toolEnv, err := b.envFactory.GetEnvironment(ctx, spec.Tools)
	if err != nil {
		err = zerr.Wrap(err, domain.ErrToolResolutionFailed.Error())
		span.RecordError(err)
		return nil, err
	}

	return toolEnv, nil
}

// isFresh reports whether the existing environment matches the current tool
// set and manifest contents.
func (b *Bootstrapper) isFresh(spec *domain.EnvSpec, envID string) bool {
	manifestHash, err := b.installer.ManifestHash(spec)
	if err != nil {
		return false
	}

	marker, err := b.envManager.ReadMarker(spec)
	if err != nil {
		return false
	}

	return marker.Fresh(envID, manifestHash)
}

func (b *Bootstrapper) removeEnv(ctx context.Context, spec *domain.EnvSpec) error {
	ctx, span := b.tracer.Start(ctx, StepRemove)
	defer span.End()

	if err := b.envManager.Remove(ctx, spec); err != nil {
		span.RecordError(err)
		return err
	}

	return nil
}

func (b *Bootstrapper) createEnv(ctx context.Context, spec *domain.EnvSpec, toolEnv []string) error {
	ctx, span := b.tracer.Start(ctx, StepCreate)
	defer span.End()

	span.SetAttribute("venv", spec.VenvDir)

	if err := b.envManager.Create(ctx, spec, toolEnv, span, span); err != nil {
		span.RecordError(err)
		return err
	}

	return nil
}

// installManifest installs the manifest into the venv. The marker moves to
// installing before pip runs and to ready only after it succeeds, so an
// interrupted install is never mistaken for a usable environment.
func (b *Bootstrapper) installManifest(ctx context.Context, spec *domain.EnvSpec, envID string, activationEnv []string) error {
	ctx, span := b.tracer.Start(ctx, StepInstall)
	defer span.End()

	manifestHash, err := b.installer.ManifestHash(spec)
	if err != nil {
		span.RecordError(err)
		return err
	}

	createdAt := time.Now().UTC()
	if marker, readErr := b.envManager.ReadMarker(spec); readErr == nil && marker != nil {
		createdAt = marker.CreatedAt
	}

	if err := b.envManager.WriteMarker(spec, domain.Marker{
		State:     domain.StateInstalling,
		EnvID:     envID,
		CreatedAt: createdAt,
	}); err != nil {
		span.RecordError(err)
		return err
	}

	if err := b.installer.Install(ctx, spec, activationEnv, span, span); err != nil {
		span.RecordError(err)
		return err
	}

	if err := b.envManager.WriteMarker(spec, domain.Marker{
		State:        domain.StateReady,
		EnvID:        envID,
		ManifestHash: manifestHash,
		CreatedAt:    createdAt,
	}); err != nil {
		span.RecordError(err)
		return err
	}

	return nil
}
