package nix

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"

	"go.trai.ch/envup/internal/core/domain"
	"go.trai.ch/envup/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// EnvFactory implements ports.EnvironmentFactory using Nix.
type EnvFactory struct {
	resolver ports.DependencyResolver

	cacheDir     string
	requestGroup singleflight.Group
}

// NewEnvFactory creates an EnvironmentFactory backed by Nix with the default
// cache directory.
func NewEnvFactory(resolver ports.DependencyResolver) *EnvFactory {
	return NewEnvFactoryWithCache(resolver, domain.DefaultToolEnvCachePath())
}

// NewEnvFactoryWithCache creates an EnvironmentFactory backed by Nix with a
// specific cache directory.
func NewEnvFactoryWithCache(resolver ports.DependencyResolver, cacheDir string) *EnvFactory {
	return &EnvFactory{
		resolver: resolver,
		cacheDir: cacheDir,
	}
}

// GetEnvironment constructs an environment providing the declared tools.
// The tools map contains alias->spec pairs (e.g. "python" -> "python@3.12").
// Returns environment variables as "KEY=VALUE" strings suitable for
// child-process execution.
func (e *EnvFactory) GetEnvironment(ctx context.Context, tools map[string]string) ([]string, error) {
	// Deterministic ID doubles as the singleflight key
	envID := domain.GenerateEnvID(tools)

	result, err, _ := e.requestGroup.Do(envID, func() (any, error) {
		cachePath := filepath.Join(e.cacheDir, envID+".json")
		if cachedEnv, err := LoadEnvFromCache(cachePath); err == nil {
			return cachedEnv, nil
		}

		commitToPackages, err := e.resolveTools(ctx, tools)
		if err != nil {
			return nil, err
		}

		nixExpr := GenerateShellExpr(getCurrentSystem(), commitToPackages)

		tmpPath, cleanupFn, err := createNixTempFile(nixExpr)
		if err != nil {
			return nil, err
		}
		defer cleanupFn()

		//nolint:gosec // tmpPath is a trusted temp file created by us
		cmd := exec.CommandContext(ctx, "nix", "print-dev-env", "--json", "--file", tmpPath)
		output, err := cmd.Output()
		if err != nil {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				err = zerr.With(err, "stderr", strings.TrimSpace(string(exitErr.Stderr)))
			}
			return nil, zerr.Wrap(err, "failed to execute nix print-dev-env")
		}

		env, err := ParseNixDevEnv(output)
		if err != nil {
			return nil, zerr.Wrap(err, "failed to parse nix output")
		}

		if err := SaveEnvToCache(cachePath, env); err != nil {
			// Cache write failure is not critical
			_ = err
		}

		return env, nil
	})

	if err != nil {
		return nil, err
	}

	env := slices.Clone(result.([]string))

	// Force temporary directories to the local system temp so transient
	// nix-shell build directories do not leak into the session.
	// os.TempDir() is not used here because it respects the current TMPDIR,
	// which might be the polluted Nix path we are avoiding.
	tmpDir := "/tmp"
	env = append(env,
		fmt.Sprintf("TMPDIR=%s", tmpDir),
		fmt.Sprintf("TEMP=%s", tmpDir),
		fmt.Sprintf("TMP=%s", tmpDir),
	)

	slices.Sort(env)

	return env, nil
}

// GenerateShellExpr generates a Nix shell expression from a commit-to-packages
// mapping.
func GenerateShellExpr(system string, commits map[string][]string) string {
	var builder strings.Builder

	builder.WriteString("let\n")
	builder.WriteString(fmt.Sprintf("system = %q;\n", system))

	// Sorted commit hashes for deterministic iteration; flake_0 corresponds
	// to the first sorted commit
	commitHashes := make([]string, 0, len(commits))
	for hash := range commits {
		commitHashes = append(commitHashes, hash)
	}
	slices.Sort(commitHashes)

	commitToIdx := make(map[string]int)
	for i, commitHash := range commitHashes {
		builder.WriteString(fmt.Sprintf("flake_%d = builtins.getFlake \"github:NixOS/nixpkgs/%s\";\n",
			i, commitHash))
		builder.WriteString(fmt.Sprintf("pkgs_%d = flake_%d.legacyPackages.${system};\n",
			i, i))
		commitToIdx[commitHash] = i
	}

	builder.WriteString("in\n")
	builder.WriteString("pkgs_0.mkShell {\n")
	builder.WriteString("buildInputs = [\n")

	for _, commitHash := range commitHashes {
		idx := commitToIdx[commitHash]
		packages := commits[commitHash]
		slices.Sort(packages)

		for _, pkg := range packages {
			builder.WriteString(fmt.Sprintf("pkgs_%d.%s\n", idx, pkg))
		}
	}

	builder.WriteString("];\n")
	builder.WriteString("}\n")

	return builder.String()
}

// createNixTempFile creates a temporary file with the given Nix expression.
func createNixTempFile(nixExpr string) (tmpPath string, cleanup func(), err error) {
	tmpFile, err := os.CreateTemp("", "envup-tools-*.nix")
	if err != nil {
		return "", nil, zerr.Wrap(err, "failed to create temp nix file")
	}

	tmpPath = tmpFile.Name()
	cleanup = func() {
		_ = os.Remove(tmpPath)
	}

	if _, writeErr := tmpFile.WriteString(nixExpr); writeErr != nil {
		_ = tmpFile.Close()
		cleanup()
		return "", nil, zerr.Wrap(writeErr, "failed to write nix expression")
	}

	if closeErr := tmpFile.Close(); closeErr != nil {
		cleanup()
		return "", nil, zerr.Wrap(closeErr, "failed to close temp nix file")
	}

	return tmpPath, cleanup, nil
}

// LoadEnvFromCache attempts to load a cached tool environment.
func LoadEnvFromCache(path string) ([]string, error) {
	//nolint:gosec // Path is constructed from trusted cache directory
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrCacheMiss
		}
		return nil, zerr.Wrap(err, "failed to read cache file")
	}

	var env []string
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, zerr.Wrap(err, "failed to unmarshal cache")
	}

	return env, nil
}

// SaveEnvToCache saves a tool environment to the cache.
func SaveEnvToCache(path string, env []string) error {
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return zerr.Wrap(err, "failed to marshal environment")
	}

	if err := atomicWriteFile(path, data); err != nil {
		return zerr.Wrap(err, "failed to write cache file")
	}

	return nil
}

// nixDevEnvOutput represents the JSON structure from `nix print-dev-env --json`.
type nixDevEnvOutput struct {
	Variables map[string]nixVariable `json:"variables"`
}

type nixVariable struct {
	Type  string      `json:"type"`
	Value interface{} `json:"value"`
}

// ParseNixDevEnv parses the JSON output from nix print-dev-env and extracts
// environment variables.
func ParseNixDevEnv(jsonData []byte) ([]string, error) {
	var output nixDevEnvOutput
	if err := json.Unmarshal(jsonData, &output); err != nil {
		return nil, zerr.Wrap(err, "failed to unmarshal nix output")
	}

	env := make([]string, 0, len(output.Variables))
	for key, variable := range output.Variables {
		if !ShouldIncludeVar(key) {
			continue
		}

		var valueStr string
		switch v := variable.Value.(type) {
		case string:
			valueStr = v
		case []interface{}:
			// Arrays are joined with colons (common for PATH-like vars)
			parts := make([]string, len(v))
			for i, part := range v {
				if s, ok := part.(string); ok {
					parts[i] = s
				}
			}
			valueStr = strings.Join(parts, ":")
		default:
			continue
		}

		env = append(env, fmt.Sprintf("%s=%s", key, valueStr))
	}

	slices.Sort(env)
	return env, nil
}

// ShouldIncludeVar determines if an environment variable should be included.
// Build-related variables are included; interactive shell and user-specific
// variables keep their system values.
func ShouldIncludeVar(key string) bool {
	exclude := []string{
		"TERM",
		"SHELL",
		"EDITOR",
		"VISUAL",
		"PAGER",
		"LESS",
		"HOME",
		"USER",
		"LOGNAME",
		"PS1",
		"PS2",
		"SHLVL",
		"PWD",
		"OLDPWD",
		"_",
		"TMPDIR",
		"TEMP",
		"TMP",
		"NIX_BUILD_TOP",
		"NIX_BUILD_CORES",
		"NIX_LOG_FD",
	}

	return !slices.Contains(exclude, key)
}

// resolveTools resolves all tools to their commit hashes and attribute paths,
// grouped by commit. Individual resolutions run concurrently.
func (e *EnvFactory) resolveTools(ctx context.Context, tools map[string]string) (map[string][]string, error) {
	commitToPackages := make(map[string][]string)
	var mu sync.Mutex

	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for alias, spec := range tools {
		g.Go(func() error {
			pkg, version, ok := domain.SplitToolSpec(spec)
			if !ok {
				err := zerr.With(zerr.Wrap(domain.ErrInvalidToolSpec, ""), "tool_alias", alias)
				return zerr.With(err, "spec", spec)
			}

			commitHash, attrPath, err := e.resolver.Resolve(groupCtx, pkg, version)
			if err != nil {
				return zerr.Wrap(err, domain.ErrToolResolutionFailed.Error())
			}

			// Group packages by commit hash; the attribute path returned by
			// the resolver (e.g. "python312") is what the expression needs.
			mu.Lock()
			commitToPackages[commitHash] = append(commitToPackages[commitHash], attrPath)
			mu.Unlock()

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return commitToPackages, nil
}
