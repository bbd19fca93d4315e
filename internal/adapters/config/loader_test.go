package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/envup/internal/adapters/config"
	"go.trai.ch/envup/internal/core/domain"
	"go.trai.ch/envup/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func newLoader(t *testing.T) *config.Loader {
	t.Helper()
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Warn(gomock.Any()).AnyTimes()
	return config.NewLoader(log)
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, domain.ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoader_Load_Defaults(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "version: \"1\"\n")

	spec, err := newLoader(t).Load(dir)
	require.NoError(t, err)

	assert.Equal(t, dir, spec.Root)
	assert.Equal(t, config.DefaultPython, spec.Python)
	assert.Equal(t, filepath.Join(dir, config.DefaultVenvDir), spec.VenvDir)
	assert.Equal(t, filepath.Join(dir, config.DefaultManifest), spec.Manifest)
	assert.Equal(t, map[string]string{domain.PythonAlias: config.DefaultPython}, spec.Tools)
}

func TestLoader_Load_FullSpec(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `version: "1"
python: python@3.11
venv: .virtualenv
manifest: deps/requirements.txt
shell: /bin/zsh
tools:
  gecko: geckodriver@0.34.0
environment:
  BROWSER: firefox
`)

	spec, err := newLoader(t).Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "python@3.11", spec.Python)
	assert.Equal(t, filepath.Join(dir, ".virtualenv"), spec.VenvDir)
	assert.Equal(t, filepath.Join(dir, "deps", "requirements.txt"), spec.Manifest)
	assert.Equal(t, "/bin/zsh", spec.Shell)
	assert.Equal(t, map[string]string{
		"gecko":            "geckodriver@0.34.0",
		domain.PythonAlias: "python@3.11",
	}, spec.Tools)
	assert.Equal(t, map[string]string{"BROWSER": "firefox"}, spec.Environment)
}

func TestLoader_Load_DiscoversUpward(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "version: \"1\"\n")

	nested := filepath.Join(root, "src", "pkg")
	require.NoError(t, os.MkdirAll(nested, 0o750))

	spec, err := newLoader(t).Load(nested)
	require.NoError(t, err)
	assert.Equal(t, root, spec.Root)
}

func TestLoader_Load_NotFound(t *testing.T) {
	_, err := newLoader(t).Load(t.TempDir())
	assert.ErrorIs(t, err, domain.ErrConfigNotFound)
}

func TestLoader_Load_UnsupportedVersion(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "version: \"2\"\n")

	_, err := newLoader(t).Load(dir)
	assert.ErrorIs(t, err, domain.ErrUnsupportedConfigVersion)
}

func TestLoader_Load_MalformedYAML(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "tools: [not a map\n")

	_, err := newLoader(t).Load(dir)
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrConfigParseFailed.Error())
}

func TestLoader_Load_InvalidToolSpec(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `tools:
  gecko: geckodriver
`)

	_, err := newLoader(t).Load(dir)
	assert.ErrorIs(t, err, domain.ErrInvalidToolSpec)
}

func TestLoader_Load_InvalidToolAlias(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `tools:
  "bad alias": geckodriver@0.34.0
`)

	_, err := newLoader(t).Load(dir)
	assert.ErrorIs(t, err, domain.ErrInvalidToolAlias)
}

func TestLoader_Load_InvalidPythonSpec(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "python: python3\n")

	_, err := newLoader(t).Load(dir)
	assert.ErrorIs(t, err, domain.ErrInvalidToolSpec)
}

func TestLoader_Load_VenvOutsideRoot(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "venv: ../elsewhere\n")

	_, err := newLoader(t).Load(dir)
	assert.ErrorIs(t, err, domain.ErrVenvOutsideRoot)
}

func TestLoader_Load_VenvAtRootRejected(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "venv: .\n")

	_, err := newLoader(t).Load(dir)
	assert.ErrorIs(t, err, domain.ErrVenvOutsideRoot)
}

func TestLoader_Load_ToolsPythonOverrideWarns(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `python: python@3.12
tools:
  python: python@3.13
`)

	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Warn(gomock.Any()).Times(1)

	spec, err := config.NewLoader(log).Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "python@3.13", spec.Tools[domain.PythonAlias])
}

func TestLoader_Discover(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "version: \"1\"\n")

	found, err := newLoader(t).Discover(dir)
	require.NoError(t, err)
	assert.Equal(t, path, found)
}
