package shell

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveEnvironment_AllowListFiltering(t *testing.T) {
	sysEnv := []string{
		"HOME=/home/user",
		"TERM=xterm",
		"SECRET_TOKEN=abc",
		"LD_PRELOAD=/evil.so",
	}

	result := resolveEnvironment(sysEnv, nil, nil)

	assert.Contains(t, result, "HOME=/home/user")
	assert.Contains(t, result, "TERM=xterm")
	assert.NotContains(t, result, "SECRET_TOKEN=abc")
	assert.NotContains(t, result, "LD_PRELOAD=/evil.so")
}

func TestResolveEnvironment_ToolPathPrepended(t *testing.T) {
	sysEnv := []string{"PATH=/usr/bin"}
	toolEnv := []string{"PATH=/nix/store/py/bin"}

	result := resolveEnvironment(sysEnv, toolEnv, nil)

	assert.Contains(t, result, "PATH=/nix/store/py/bin"+string(os.PathListSeparator)+"/usr/bin")
}

func TestResolveEnvironment_ToolPathWithoutSystemPath(t *testing.T) {
	toolEnv := []string{"PATH=/nix/store/py/bin"}

	result := resolveEnvironment(nil, toolEnv, nil)

	assert.Contains(t, result, "PATH=/nix/store/py/bin")
}

func TestResolveEnvironment_CommandOverridesWin(t *testing.T) {
	sysEnv := []string{"HOME=/home/user"}
	toolEnv := []string{"LANG=C.UTF-8"}
	overrides := map[string]string{"LANG": "en_US.UTF-8", "EXTRA": "1"}

	result := resolveEnvironment(sysEnv, toolEnv, overrides)

	assert.Contains(t, result, "LANG=en_US.UTF-8")
	assert.Contains(t, result, "EXTRA=1")
}

func TestMergeCommandEnv(t *testing.T) {
	env := []string{"PATH=/venv/bin", "VIRTUAL_ENV=/venv"}
	overrides := map[string]string{"PS1": "(venv) $ "}

	result := mergeCommandEnv(env, overrides)

	assert.Contains(t, result, "PATH=/venv/bin")
	assert.Contains(t, result, "VIRTUAL_ENV=/venv")
	assert.Contains(t, result, "PS1=(venv) $ ")
}

func TestLookPath_ResolvesAgainstProvidedEnv(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "mytool")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\n"), 0o755))

	found, err := lookPath("mytool", []string{"PATH=" + dir})
	require.NoError(t, err)
	assert.Equal(t, bin, found)
}

func TestLookPath_NotFound(t *testing.T) {
	_, err := lookPath("mytool", []string{"PATH=" + t.TempDir()})
	assert.Error(t, err)
}

func TestLookPath_NoPathEntry(t *testing.T) {
	_, err := lookPath("mytool", nil)
	assert.Error(t, err)
}

func TestFindExecutable_RejectsNonExecutable(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "plain.txt")
	require.NoError(t, os.WriteFile(file, []byte("data"), 0o644))

	assert.Error(t, findExecutable(file))
	assert.Error(t, findExecutable(dir))
}

func TestLogWriter_SplitsLinesAndStripsCR(t *testing.T) {
	var lines []string
	w := &logWriter{logger: captureLogger{&lines}, level: "info"}

	_, err := w.Write([]byte("first\r\nsec"))
	require.NoError(t, err)
	_, err = w.Write([]byte("ond\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	assert.Equal(t, []string{"first", "second"}, lines)
}

type captureLogger struct {
	lines *[]string
}

func (c captureLogger) Info(msg string) { *c.lines = append(*c.lines, msg) }
func (c captureLogger) Warn(msg string) {}
func (c captureLogger) Error(err error) {}
