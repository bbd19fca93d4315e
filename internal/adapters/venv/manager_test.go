package venv

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/envup/internal/core/domain"
	"go.trai.ch/envup/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func testSpec(t *testing.T) *domain.EnvSpec {
	t.Helper()
	root := t.TempDir()
	return &domain.EnvSpec{
		Root:     root,
		Python:   "python@3.12",
		VenvDir:  filepath.Join(root, ".venv"),
		Manifest: filepath.Join(root, "requirements.txt"),
		Tools:    map[string]string{domain.PythonAlias: "python@3.12"},
	}
}

func TestManager_Remove_MissingDirIsNoop(t *testing.T) {
	m := NewManager(nil)
	assert.NoError(t, m.Remove(context.Background(), testSpec(t)))
}

func TestManager_Remove_DeletesDir(t *testing.T) {
	spec := testSpec(t)
	require.NoError(t, os.MkdirAll(filepath.Join(spec.VenvDir, "bin"), 0o750))

	m := NewManager(nil)
	require.NoError(t, m.Remove(context.Background(), spec))

	_, err := os.Stat(spec.VenvDir)
	assert.True(t, os.IsNotExist(err))
}

func TestManager_Remove_RejectsLiveLock(t *testing.T) {
	spec := testSpec(t)
	require.NoError(t, os.MkdirAll(spec.VenvDir, 0o750))

	// PID 1 is always alive
	require.NoError(t, os.WriteFile(domain.LockPath(spec.VenvDir), []byte("1\n"), 0o644))

	m := NewManager(nil)
	err := m.Remove(context.Background(), spec)
	assert.ErrorIs(t, err, domain.ErrEnvInUse)

	_, statErr := os.Stat(spec.VenvDir)
	assert.NoError(t, statErr, "directory must survive a rejected removal")
}

func TestManager_Remove_IgnoresStaleLock(t *testing.T) {
	spec := testSpec(t)
	require.NoError(t, os.MkdirAll(spec.VenvDir, 0o750))

	// A pid far above pid_max cannot belong to a live process
	require.NoError(t, os.WriteFile(domain.LockPath(spec.VenvDir), []byte("99999999\n"), 0o644))

	m := NewManager(nil)
	require.NoError(t, m.Remove(context.Background(), spec))

	_, err := os.Stat(spec.VenvDir)
	assert.True(t, os.IsNotExist(err))
}

func TestManager_Remove_IgnoresGarbageLock(t *testing.T) {
	spec := testSpec(t)
	require.NoError(t, os.MkdirAll(spec.VenvDir, 0o750))
	require.NoError(t, os.WriteFile(domain.LockPath(spec.VenvDir), []byte("not a pid"), 0o644))

	m := NewManager(nil)
	assert.NoError(t, m.Remove(context.Background(), spec))
}

func TestManager_Create_RunsInterpreterAndWritesMarker(t *testing.T) {
	spec := testSpec(t)
	toolEnv := []string{"PATH=/nix/store/py/bin"}

	ctrl := gomock.NewController(t)
	executor := mocks.NewMockExecutor(ctrl)
	executor.EXPECT().
		Execute(gomock.Any(), gomock.Any(), toolEnv, gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, cmd *domain.Command, _ []string, _, _ io.Writer) error {
			assert.Equal(t, "python", cmd.Name)
			assert.Equal(t, []string{"-m", "venv", spec.VenvDir}, cmd.Args)
			assert.Equal(t, spec.Root, cmd.Dir)
			return nil
		})

	m := NewManager(executor)
	require.NoError(t, m.Create(context.Background(), spec, toolEnv, io.Discard, io.Discard))

	marker, err := m.ReadMarker(spec)
	require.NoError(t, err)
	require.NotNil(t, marker)
	assert.Equal(t, domain.StateCreating, marker.State)
	assert.Equal(t, domain.GenerateEnvID(spec.Tools), marker.EnvID)
	assert.False(t, marker.CreatedAt.IsZero())
}

func TestManager_Create_ExecutorFailure(t *testing.T) {
	spec := testSpec(t)

	ctrl := gomock.NewController(t)
	executor := mocks.NewMockExecutor(ctrl)
	executor.EXPECT().
		Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(domain.ErrEnvCreateFailed)

	m := NewManager(executor)
	err := m.Create(context.Background(), spec, nil, io.Discard, io.Discard)
	assert.ErrorIs(t, err, domain.ErrEnvCreateFailed)
}

func TestManager_ActivationEnv(t *testing.T) {
	spec := testSpec(t)
	spec.Environment = map[string]string{"BROWSER": "firefox"}

	toolEnv := []string{
		"PATH=/nix/store/py/bin:/usr/bin",
		"PYTHONHOME=/nix/store/py",
		"LANG=C.UTF-8",
	}

	m := NewManager(nil)
	env := m.ActivationEnv(spec, toolEnv)

	assert.Contains(t, env, "PATH="+spec.BinDir()+":/nix/store/py/bin:/usr/bin")
	assert.Contains(t, env, "VIRTUAL_ENV="+spec.VenvDir)
	assert.Contains(t, env, "BROWSER=firefox")
	assert.Contains(t, env, "LANG=C.UTF-8")
	for _, kv := range env {
		assert.NotContains(t, kv, "PYTHONHOME=")
	}
}

func TestManager_ActivationEnv_NoPath(t *testing.T) {
	spec := testSpec(t)

	m := NewManager(nil)
	env := m.ActivationEnv(spec, nil)

	assert.Contains(t, env, "PATH="+spec.BinDir())
}

func TestManager_ActivationEnv_DoesNotMutateProcessEnv(t *testing.T) {
	spec := testSpec(t)
	before := os.Getenv("VIRTUAL_ENV")

	m := NewManager(nil)
	_ = m.ActivationEnv(spec, []string{"PATH=/usr/bin"})

	assert.Equal(t, before, os.Getenv("VIRTUAL_ENV"))
}

func TestManager_AcquireLock_RoundTrip(t *testing.T) {
	spec := testSpec(t)
	require.NoError(t, os.MkdirAll(spec.VenvDir, 0o750))

	m := NewManager(nil)
	release, err := m.AcquireLock(spec)
	require.NoError(t, err)

	data, err := os.ReadFile(domain.LockPath(spec.VenvDir))
	require.NoError(t, err)
	pid, err := strconv.Atoi(string(data[:len(data)-1]))
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)

	release()
	_, err = os.Stat(domain.LockPath(spec.VenvDir))
	assert.True(t, os.IsNotExist(err))
}

func TestManager_AcquireLock_RejectsOtherLiveHolder(t *testing.T) {
	spec := testSpec(t)
	require.NoError(t, os.MkdirAll(spec.VenvDir, 0o750))
	require.NoError(t, os.WriteFile(domain.LockPath(spec.VenvDir), []byte("1\n"), 0o644))

	m := NewManager(nil)
	_, err := m.AcquireLock(spec)
	assert.ErrorIs(t, err, domain.ErrEnvInUse)
}

func TestManager_Marker_RoundTrip(t *testing.T) {
	spec := testSpec(t)
	require.NoError(t, os.MkdirAll(spec.VenvDir, 0o750))

	m := NewManager(nil)

	marker, err := m.ReadMarker(spec)
	require.NoError(t, err)
	assert.Nil(t, marker, "missing marker reads as nil")

	written := domain.Marker{
		State:        domain.StateReady,
		EnvID:        "abc",
		ManifestHash: "def",
	}
	require.NoError(t, m.WriteMarker(spec, written))

	marker, err = m.ReadMarker(spec)
	require.NoError(t, err)
	require.NotNil(t, marker)
	assert.Equal(t, domain.StateReady, marker.State)
	assert.True(t, marker.Fresh("abc", "def"))
	assert.False(t, marker.Fresh("abc", "other"))
}

func TestManager_ReadMarker_Corrupt(t *testing.T) {
	spec := testSpec(t)
	require.NoError(t, os.MkdirAll(spec.VenvDir, 0o750))
	require.NoError(t, os.WriteFile(domain.MarkerPath(spec.VenvDir), []byte("{"), 0o644))

	m := NewManager(nil)
	_, err := m.ReadMarker(spec)
	assert.ErrorContains(t, err, domain.ErrMarkerReadFailed.Error())
}
