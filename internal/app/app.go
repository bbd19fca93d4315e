// Package app implements the application layer for envup.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/envup/internal/adapters/detector"
	"go.trai.ch/envup/internal/adapters/linear"
	"go.trai.ch/envup/internal/adapters/telemetry"
	"go.trai.ch/envup/internal/adapters/tui"
	"go.trai.ch/envup/internal/adapters/watcher"
	"go.trai.ch/envup/internal/core/domain"
	"go.trai.ch/envup/internal/core/ports"
	"go.trai.ch/envup/internal/engine/bootstrap"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	executor     ports.Executor
	logger       ports.Logger
	envFactory   ports.EnvironmentFactory
	envManager   ports.EnvManager
	installer    ports.Installer
	watcher      ports.Watcher
	teaOptions   []tea.ProgramOption
	detectMode   func() detector.OutputMode
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	executor ports.Executor,
	log ports.Logger,
	envFactory ports.EnvironmentFactory,
	envManager ports.EnvManager,
	installer ports.Installer,
	fileWatcher ports.Watcher,
) *App {
	return &App{
		configLoader: loader,
		executor:     executor,
		logger:       log,
		envFactory:   envFactory,
		envManager:   envManager,
		installer:    installer,
		watcher:      fileWatcher,
		detectMode:   detector.DetectEnvironment,
	}
}

// WithModeDetector overrides terminal and CI detection.
// This is primarily used for testing.
func (a *App) WithModeDetector(fn func() detector.OutputMode) *App {
	a.detectMode = fn
	return a
}

// WithTeaOptions adds bubbletea program options to the App.
// This is primarily used for testing to disable input/output.
func (a *App) WithTeaOptions(opts ...tea.ProgramOption) *App {
	a.teaOptions = append(a.teaOptions, opts...)
	return a
}

// UpOptions configuration for the Up method.
type UpOptions struct {
	NoShell    bool
	IfChanged  bool
	Watch      bool
	OutputMode string
}

// Up bootstraps the environment and, unless told otherwise, hands the user
// an interactive shell inside it.
func (a *App) Up(ctx context.Context, opts UpOptions) error {
	spec, err := a.configLoader.Load(".")
	if err != nil {
		return zerr.Wrap(err, "failed to load configuration")
	}

	if opts.Watch {
		return a.watchLoop(ctx, spec, opts)
	}

	result, err := a.bootstrap(ctx, spec, opts)
	if err != nil {
		return err
	}

	if result.Skipped {
		a.logger.Info("environment unchanged")
	}

	// A non-TTY or CI context never gets an interactive shell, independent of
	// the output-mode flag.
	if opts.NoShell || a.detectMode() == detector.ModeLinear {
		a.logger.Info("environment ready, activate with: source " + spec.BinDir() + "/activate")
		return nil
	}

	return a.interactiveShell(ctx, spec, result.ActivationEnv)
}

// Shell attaches an interactive shell to an already bootstrapped environment
// without re-running the bootstrap sequence.
func (a *App) Shell(ctx context.Context) error {
	spec, err := a.configLoader.Load(".")
	if err != nil {
		return zerr.Wrap(err, "failed to load configuration")
	}

	marker, err := a.envManager.ReadMarker(spec)
	if err != nil {
		return err
	}
	if !marker.Usable() {
		return zerr.With(zerr.Wrap(domain.ErrEnvNotReady, ""), "venv", spec.VenvDir)
	}

	toolEnv, err := a.envFactory.GetEnvironment(ctx, spec.Tools)
	if err != nil {
		return zerr.Wrap(err, domain.ErrToolResolutionFailed.Error())
	}

	return a.interactiveShell(ctx, spec, a.envManager.ActivationEnv(spec, toolEnv))
}

// Status prints the current environment state to out.
func (a *App) Status(_ context.Context, out io.Writer) error {
	spec, err := a.configLoader.Load(".")
	if err != nil {
		return zerr.Wrap(err, "failed to load configuration")
	}

	fmt.Fprintf(out, "project:  %s\n", spec.Root)
	fmt.Fprintf(out, "python:   %s\n", spec.Python)
	fmt.Fprintf(out, "venv:     %s\n", spec.VenvDir)
	fmt.Fprintf(out, "manifest: %s\n", spec.Manifest)

	for _, alias := range slices.Sorted(maps.Keys(spec.Tools)) {
		fmt.Fprintf(out, "tool:     %s -> %s\n", alias, spec.Tools[alias])
	}

	marker, err := a.envManager.ReadMarker(spec)
	if err != nil {
		return err
	}
	if marker == nil {
		fmt.Fprintln(out, "state:    not bootstrapped, run 'envup up'")
		return nil
	}

	fmt.Fprintf(out, "state:    %s\n", marker.State)
	fmt.Fprintf(out, "env id:   %s\n", marker.EnvID)
	if !marker.CreatedAt.IsZero() {
		fmt.Fprintf(out, "created:  %s\n", marker.CreatedAt.Format(time.RFC3339))
	}

	fmt.Fprintf(out, "fresh:    %s\n", a.manifestFreshness(spec, marker))
	return nil
}

// manifestFreshness classifies the environment against the current tool set
// and manifest contents as "in sync", "stale" or "missing". An unreadable
// manifest counts as stale; the next bootstrap surfaces the real error.
func (a *App) manifestFreshness(spec *domain.EnvSpec, marker *domain.Marker) string {
	hash, err := a.installer.ManifestHash(spec)
	if errors.Is(err, domain.ErrManifestMissing) {
		return "missing"
	}
	if err == nil && marker.Fresh(domain.GenerateEnvID(spec.Tools), hash) {
		return "in sync"
	}
	return "stale"
}

// CleanOptions configuration for the Clean method.
type CleanOptions struct {
	Venv   bool
	Caches bool
}

// Clean removes the environment directory and caches based on the provided
// options. Removal of the venv honors the in-use lockfile.
func (a *App) Clean(ctx context.Context, options CleanOptions) error {
	var errs error

	if options.Venv {
		spec, err := a.configLoader.Load(".")
		if err != nil {
			return zerr.Wrap(err, "failed to load configuration")
		}
		a.logger.Info("removing environment directory...")
		if err := a.envManager.Remove(ctx, spec); err != nil {
			errs = errors.Join(errs, err)
		} else {
			a.logger.Info("removed " + spec.VenvDir)
		}
	}

	if options.Caches {
		remove := func(path string, name string) {
			a.logger.Info(fmt.Sprintf("removing %s...", name))
			if err := os.RemoveAll(path); err != nil {
				errs = errors.Join(errs, zerr.Wrap(err, fmt.Sprintf("failed to remove %s", name)))
				return
			}
			a.logger.Info(fmt.Sprintf("removed %s", name))
		}
		remove(domain.DefaultNixHubCachePath(), "tool resolution cache")
		remove(domain.DefaultToolEnvCachePath(), "tool environment cache")
	}

	return errs
}

// bootstrap runs the bootstrap engine with a live renderer attached.
//
//nolint:cyclop // orchestration function
func (a *App) bootstrap(ctx context.Context, spec *domain.EnvSpec, opts UpOptions) (*bootstrap.Result, error) {
	// Detect environment and resolve output mode.
	autoMode := a.detectMode()
	mode := detector.ResolveMode(autoMode, opts.OutputMode)

	var renderer ports.Renderer
	if mode == detector.ModeTUI {
		optsTea := append([]tea.ProgramOption{tea.WithContext(ctx)}, a.teaOptions...)
		renderer = tui.NewRenderer(tui.NewModel(), optsTea...)
	} else {
		renderer = linear.NewRenderer(os.Stdout, os.Stderr)
	}

	// Bridge OTel spans to the renderer and register the provider globally so
	// the tracer adapter picks it up.
	bridge := telemetry.NewBridge(renderer)
	setupOTel(bridge)

	tracer := telemetry.NewOTelTracer("envup").WithRenderer(renderer)
	defer func() {
		_ = tracer.Shutdown(ctx)
	}()

	boot := bootstrap.New(a.envFactory, a.envManager, a.installer, tracer, a.logger)

	var result *bootstrap.Result

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := renderer.Start(ctx); err != nil {
			return err
		}
		// Wait blocks until the renderer has terminated.
		return renderer.Wait()
	})

	g.Go(func() error {
		defer func() {
			if r := recover(); r != nil {
				fmt.Fprintf(os.Stderr, "bootstrap panic: %v\n", r)
			}
			// The shell takes over the terminal afterwards, so the renderer
			// always stops once the engine is done.
			_ = renderer.Stop()
		}()

		res, err := boot.Run(ctx, spec, bootstrap.Options{IfChanged: opts.IfChanged})
		if err != nil {
			return errors.Join(domain.ErrBootstrapFailed, err)
		}
		result = res
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

// interactiveShell hands the user a shell with the activation environment
// applied, holding the in-use lock for the duration of the session.
func (a *App) interactiveShell(ctx context.Context, spec *domain.EnvSpec, activationEnv []string) error {
	release, err := a.envManager.AcquireLock(spec)
	if err != nil {
		return err
	}
	defer release()

	a.logger.Info("entering environment shell, exit to leave")

	cmd := &domain.Command{
		Name: spec.ShellCommand(os.Getenv("SHELL")),
		Dir:  spec.Root,
	}
	return a.executor.ExecuteInteractive(ctx, cmd, activationEnv)
}

// watchLoop re-runs the bootstrap whenever the spec inputs change. Watch mode
// never opens an interactive shell; it keeps the environment converged until
// the context is canceled.
func (a *App) watchLoop(ctx context.Context, spec *domain.EnvSpec, opts UpOptions) error {
	// The config file location is stable even when its contents change, so it
	// is discovered once.
	configPath, err := a.configLoader.Discover(".")
	if err != nil {
		return err
	}

	runOpts := opts
	runOpts.NoShell = true
	runOpts.Watch = false

	if _, bootErr := a.bootstrap(ctx, spec, runOpts); bootErr != nil {
		a.logger.Error(bootErr)
	}

	// The manifest path may move between runs when the config changes, but
	// re-reading it on every change keeps the watch set honest enough: the
	// config file itself is always watched.
	if err := a.watcher.Start(ctx, []string{configPath, spec.Manifest}); err != nil {
		return zerr.Wrap(err, "failed to start file watcher")
	}
	defer func() {
		_ = a.watcher.Stop()
	}()

	reload := make(chan []string, 1)
	debounce := watcher.NewDebouncer(watcher.DefaultDebounceWindow, func(paths []string) {
		select {
		case reload <- paths:
		default:
		}
	})

	go func() {
		for event := range a.watcher.Events() {
			debounce.Add(event.Path)
		}
	}()

	a.logger.Info("watching for changes, press Ctrl-C to stop")

	// Subsequent runs always skip unchanged environments regardless of the
	// initial --if-changed flag.
	runOpts.IfChanged = true

	for {
		select {
		case <-ctx.Done():
			return nil
		case paths := <-reload:
			for _, p := range paths {
				a.logger.Info("changed: " + p)
			}
			next, loadErr := a.configLoader.Load(".")
			if loadErr != nil {
				a.logger.Error(loadErr)
				continue
			}
			if _, bootErr := a.bootstrap(ctx, next, runOpts); bootErr != nil {
				a.logger.Error(bootErr)
			}
		}
	}
}

// setupOTel configures the OpenTelemetry SDK with the renderer bridge.
func setupOTel(bridge *telemetry.Bridge) {
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(bridge),
	)
	otel.SetTracerProvider(tp)
}
