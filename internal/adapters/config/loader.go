// Package config provides the environment specification loader for envup.
package config

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.trai.ch/envup/internal/core/domain"
	"go.trai.ch/envup/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Defaults applied when the specification omits a field.
const (
	DefaultPython   = "python@3.12"
	DefaultVenvDir  = ".venv"
	DefaultManifest = "requirements.txt"
)

var validToolAliasRegex = regexp.MustCompile("^[a-zA-Z0-9_-]+$")

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	Logger ports.Logger
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// Discover walks up from cwd and returns the path of the first envup.yaml found.
func (l *Loader) Discover(cwd string) (string, error) {
	currentDir, err := filepath.Abs(cwd)
	if err != nil {
		return "", zerr.Wrap(err, domain.ErrConfigNotFound.Error())
	}

	for {
		configPath := filepath.Join(currentDir, domain.ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			// Reached root
			break
		}
		currentDir = parentDir
	}

	return "", zerr.With(zerr.Wrap(domain.ErrConfigNotFound, ""), "cwd", cwd)
}

// Load reads the specification from the given working directory upward and
// returns the validated, fully resolved domain.EnvSpec.
func (l *Loader) Load(cwd string) (*domain.EnvSpec, error) {
	configPath, err := l.Discover(cwd)
	if err != nil {
		return nil, err
	}

	var envfile Envfile
	if err := readAndUnmarshalYAML(configPath, &envfile); err != nil {
		return nil, err
	}

	return l.buildSpec(configPath, &envfile)
}

func (l *Loader) buildSpec(configPath string, envfile *Envfile) (*domain.EnvSpec, error) {
	if envfile.Version != "" && envfile.Version != "1" {
		return nil, zerr.With(zerr.Wrap(domain.ErrUnsupportedConfigVersion, ""), "version", envfile.Version)
	}

	root := filepath.Dir(configPath)

	python := envfile.Python
	if python == "" {
		python = DefaultPython
	}
	if _, _, ok := domain.SplitToolSpec(python); !ok {
		return nil, zerr.With(zerr.Wrap(domain.ErrInvalidToolSpec, ""), "python", python)
	}

	tools, err := l.resolveTools(envfile.Tools, python)
	if err != nil {
		return nil, err
	}

	venvDir, err := resolveVenvDir(root, envfile.Venv)
	if err != nil {
		return nil, err
	}

	manifest := envfile.Manifest
	if manifest == "" {
		manifest = DefaultManifest
	}
	if !filepath.IsAbs(manifest) {
		manifest = filepath.Join(root, manifest)
	}

	return &domain.EnvSpec{
		Root:        root,
		Python:      python,
		VenvDir:     venvDir,
		Manifest:    filepath.Clean(manifest),
		Shell:       envfile.Shell,
		Tools:       tools,
		Environment: envfile.Environment,
	}, nil
}

// resolveTools validates declared tools and merges the interpreter under the
// reserved python alias when not already declared.
func (l *Loader) resolveTools(declared map[string]string, python string) (map[string]string, error) {
	tools := make(map[string]string, len(declared)+1)

	for alias, spec := range declared {
		if !validToolAliasRegex.MatchString(alias) {
			return nil, zerr.With(zerr.Wrap(domain.ErrInvalidToolAlias, ""), "tool_alias", alias)
		}
		if _, _, ok := domain.SplitToolSpec(spec); !ok {
			err := zerr.With(zerr.Wrap(domain.ErrInvalidToolSpec, ""), "tool_alias", alias)
			return nil, zerr.With(err, "spec", spec)
		}
		tools[alias] = spec
	}

	if existing, ok := tools[domain.PythonAlias]; ok {
		if existing != python {
			l.Logger.Warn("tools." + domain.PythonAlias + " overrides the python field for tool resolution")
		}
		return tools, nil
	}

	tools[domain.PythonAlias] = python
	return tools, nil
}

// resolveVenvDir resolves the venv directory against the project root and
// rejects directories that escape it.
func resolveVenvDir(root, configured string) (string, error) {
	if configured == "" {
		configured = DefaultVenvDir
	}

	venvDir := configured
	if !filepath.IsAbs(venvDir) {
		venvDir = filepath.Join(root, venvDir)
	}
	venvDir = filepath.Clean(venvDir)

	rel, err := filepath.Rel(root, venvDir)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", zerr.With(zerr.Wrap(domain.ErrVenvOutsideRoot, ""), "venv", configured)
	}

	return venvDir, nil
}

// readAndUnmarshalYAML reads a YAML file and unmarshals it into the target struct.
func readAndUnmarshalYAML[T any](configPath string, target *T) error {
	// #nosec G304 -- configPath is validated by caller
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		return zerr.Wrap(err, domain.ErrConfigReadFailed.Error())
	}

	if parseErr := yaml.Unmarshal(configFile, target); parseErr != nil {
		return zerr.Wrap(parseErr, domain.ErrConfigParseFailed.Error())
	}

	return nil
}
