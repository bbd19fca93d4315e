// Package venv manages the isolated Python environment directory: removal,
// creation through the resolved interpreter, the state marker and the in-use
// lockfile.
package venv

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.trai.ch/envup/internal/core/domain"
	"go.trai.ch/envup/internal/core/ports"
	"go.trai.ch/zerr"
)

// Manager implements ports.EnvManager on the local filesystem.
type Manager struct {
	executor ports.Executor
}

// NewManager creates a venv manager that runs the interpreter through the
// given executor.
func NewManager(executor ports.Executor) *Manager {
	return &Manager{executor: executor}
}

// Remove deletes the venv directory. A missing directory is not an error.
// Removal is refused while a live process holds the venv lockfile.
func (m *Manager) Remove(ctx context.Context, spec *domain.EnvSpec) error {
	if _, err := os.Stat(spec.VenvDir); errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	if pid, held := readLockPID(domain.LockPath(spec.VenvDir)); held && processAlive(pid) && pid != os.Getpid() {
		inUseErr := zerr.With(zerr.Wrap(domain.ErrEnvInUse, ""), "venv", spec.VenvDir)
		return zerr.With(inUseErr, "pid", pid)
	}

	if err := os.RemoveAll(spec.VenvDir); err != nil {
		return zerr.Wrap(err, domain.ErrEnvRemoveFailed.Error())
	}

	return nil
}

// Create creates a fresh venv by invoking the interpreter from toolEnv with
// `-m venv` and records a StateCreating marker inside it.
func (m *Manager) Create(ctx context.Context, spec *domain.EnvSpec, toolEnv []string, stdout, stderr io.Writer) error {
	cmd := &domain.Command{
		Name: "python",
		Args: []string{"-m", "venv", spec.VenvDir},
		Dir:  spec.Root,
	}

	if err := m.executor.Execute(ctx, cmd, toolEnv, stdout, stderr); err != nil {
		return zerr.Wrap(err, domain.ErrEnvCreateFailed.Error())
	}

	marker := domain.Marker{
		State:     domain.StateCreating,
		EnvID:     domain.GenerateEnvID(spec.Tools),
		CreatedAt: time.Now().UTC(),
	}

	return m.WriteMarker(spec, marker)
}

// ActivationEnv builds the environment for processes running inside the venv.
// It never touches the bootstrapper's own process environment: activation is a
// value computed from toolEnv, the venv location and the spec overrides.
func (m *Manager) ActivationEnv(spec *domain.EnvSpec, toolEnv []string) []string {
	merged := make(map[string]string, len(toolEnv)+len(spec.Environment)+2)
	for _, kv := range toolEnv {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		merged[key] = value
	}

	if path := merged["PATH"]; path != "" {
		merged["PATH"] = spec.BinDir() + string(os.PathListSeparator) + path
	} else {
		merged["PATH"] = spec.BinDir()
	}

	merged["VIRTUAL_ENV"] = spec.VenvDir

	// PYTHONHOME would make the venv interpreter resolve its stdlib elsewhere
	delete(merged, "PYTHONHOME")

	for key, value := range spec.Environment {
		merged[key] = value
	}

	env := make([]string, 0, len(merged))
	for key, value := range merged {
		env = append(env, key+"="+value)
	}
	slices.Sort(env)

	return env
}

// AcquireLock writes the current pid into the venv lockfile and returns a
// release function that removes it.
func (m *Manager) AcquireLock(spec *domain.EnvSpec) (func(), error) {
	path := domain.LockPath(spec.VenvDir)

	if pid, held := readLockPID(path); held && processAlive(pid) && pid != os.Getpid() {
		inUseErr := zerr.With(zerr.Wrap(domain.ErrEnvInUse, ""), "venv", spec.VenvDir)
		return nil, zerr.With(inUseErr, "pid", pid)
	}

	data := []byte(strconv.Itoa(os.Getpid()) + "\n")
	if err := writeFileAtomic(path, data); err != nil {
		return nil, zerr.Wrap(err, "failed to write lockfile")
	}

	release := func() {
		_ = os.Remove(path)
	}

	return release, nil
}

// ReadMarker reads the venv state marker. A missing marker is not an error.
func (m *Manager) ReadMarker(spec *domain.EnvSpec) (*domain.Marker, error) {
	//nolint:gosec // Marker path lives inside the validated venv directory
	data, err := os.ReadFile(domain.MarkerPath(spec.VenvDir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.Wrap(err, domain.ErrMarkerReadFailed.Error())
	}

	var marker domain.Marker
	if err := json.Unmarshal(data, &marker); err != nil {
		return nil, zerr.Wrap(err, domain.ErrMarkerReadFailed.Error())
	}

	return &marker, nil
}

// WriteMarker persists the state marker atomically so a crash mid-write never
// leaves a half-written marker behind.
func (m *Manager) WriteMarker(spec *domain.EnvSpec, marker domain.Marker) error {
	data, err := json.MarshalIndent(marker, "", "  ")
	if err != nil {
		return zerr.Wrap(err, domain.ErrMarkerWriteFailed.Error())
	}

	if err := writeFileAtomic(domain.MarkerPath(spec.VenvDir), data); err != nil {
		return zerr.Wrap(err, domain.ErrMarkerWriteFailed.Error())
	}

	return nil
}

// readLockPID reads a pid from the lockfile. held is false when the lockfile
// does not exist or does not parse.
func readLockPID(path string) (pid int, held bool) {
	//nolint:gosec // Lock path lives inside the validated venv directory
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}

	pid, err = strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false
	}

	return pid, true
}

// processAlive reports whether a process with the given pid exists.
func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	err = proc.Signal(syscall.Signal(0))
	if err == nil {
		return true
	}

	// EPERM means the process exists but belongs to another user
	return errors.Is(err, syscall.EPERM)
}

// writeFileAtomic writes data via a temp file and rename in the target directory.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return err
	}

	tmpFile, err := os.CreateTemp(dir, ".envup-*")
	if err != nil {
		return err
	}
	tmpName := tmpFile.Name()

	defer func() {
		if _, statErr := os.Stat(tmpName); statErr == nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return err
	}

	if err := tmpFile.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, domain.FilePerm); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}
