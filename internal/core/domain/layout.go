package domain

import "path/filepath"

const (
	// EnvupDirName is the name of the internal metadata directory.
	EnvupDirName = ".envup"

	// CacheDirName is the name of the cache directory.
	CacheDirName = "cache"

	// NixHubDirName is the name of the NixHub resolution cache directory.
	NixHubDirName = "nixhub"

	// ToolEnvDirName is the name of the tool environment cache directory.
	ToolEnvDirName = "environments"

	// ConfigFileName is the name of the environment specification file.
	ConfigFileName = "envup.yaml"

	// MarkerFileName is the name of the state marker inside the venv directory.
	MarkerFileName = ".envup-state.json"

	// LockFileName is the name of the in-use lockfile inside the venv directory.
	LockFileName = ".envup-lock"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
)

// DefaultEnvupPath returns the default root directory for envup metadata.
func DefaultEnvupPath() string {
	return EnvupDirName
}

// DefaultNixHubCachePath returns the default path for the NixHub resolution cache.
func DefaultNixHubCachePath() string {
	return filepath.Join(EnvupDirName, CacheDirName, NixHubDirName)
}

// DefaultToolEnvCachePath returns the default path for the tool environment cache.
func DefaultToolEnvCachePath() string {
	return filepath.Join(EnvupDirName, CacheDirName, ToolEnvDirName)
}

// MarkerPath returns the path of the state marker for a venv directory.
func MarkerPath(venvDir string) string {
	return filepath.Join(venvDir, MarkerFileName)
}

// LockPath returns the path of the in-use lockfile for a venv directory.
func LockPath(venvDir string) string {
	return filepath.Join(venvDir, LockFileName)
}
