package domain

import "go.trai.ch/zerr"

var (
	// ErrConfigNotFound is returned when no envup.yaml can be found from the working directory upward.
	ErrConfigNotFound = zerr.New("could not find envup.yaml")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrUnsupportedConfigVersion is returned when the config declares an unknown version.
	ErrUnsupportedConfigVersion = zerr.New("unsupported config version, expected \"1\"")

	// ErrInvalidToolAlias is returned when a tool alias contains invalid characters.
	ErrInvalidToolAlias = zerr.New("tool alias can only contain alphanumeric characters, hyphens and underscores")

	// ErrInvalidToolSpec is returned when a tool specification is missing the @ symbol.
	ErrInvalidToolSpec = zerr.New("invalid tool specification, expected format: package@version")

	// ErrVenvOutsideRoot is returned when the venv directory resolves outside the project root.
	ErrVenvOutsideRoot = zerr.New("venv directory is outside project root")

	// ErrToolResolutionFailed is returned when resolving a tool version fails.
	ErrToolResolutionFailed = zerr.New("failed to resolve tool version")

	// ErrNixCacheCreateFailed is returned when the resolution cache directory cannot be created.
	ErrNixCacheCreateFailed = zerr.New("failed to create resolution cache directory")

	// ErrNixCacheReadFailed is returned when reading from the resolution cache fails.
	ErrNixCacheReadFailed = zerr.New("failed to read from resolution cache")

	// ErrNixCacheWriteFailed is returned when writing to the resolution cache fails.
	ErrNixCacheWriteFailed = zerr.New("failed to write to resolution cache")

	// ErrNixCacheMarshalFailed is returned when marshaling resolution cache data fails.
	ErrNixCacheMarshalFailed = zerr.New("failed to marshal resolution cache data")

	// ErrNixCacheUnmarshalFailed is returned when unmarshaling resolution cache data fails.
	ErrNixCacheUnmarshalFailed = zerr.New("failed to unmarshal resolution cache data")

	// ErrNixAPIRequestFailed is returned when a NixHub API request fails.
	ErrNixAPIRequestFailed = zerr.New("failed to make NixHub API request")

	// ErrNixAPIParseFailed is returned when parsing a NixHub API response fails.
	ErrNixAPIParseFailed = zerr.New("failed to parse NixHub API response")

	// ErrNixPackageNotFound is returned when a package version is not found in NixHub.
	ErrNixPackageNotFound = zerr.New("package version not found in NixHub")

	// ErrEnvInUse is returned when the venv directory is held by a live process at removal time.
	ErrEnvInUse = zerr.New("environment directory is in use by another process")

	// ErrEnvRemoveFailed is returned when the venv directory cannot be removed.
	ErrEnvRemoveFailed = zerr.New("failed to remove environment directory")

	// ErrEnvCreateFailed is returned when creating the venv fails.
	ErrEnvCreateFailed = zerr.New("failed to create environment")

	// ErrEnvNotReady is returned when an operation requires a ready environment and the marker disagrees.
	ErrEnvNotReady = zerr.New("environment is not ready, run 'envup up'")

	// ErrManifestMissing is returned when the dependency manifest does not exist.
	ErrManifestMissing = zerr.New("dependency manifest not found")

	// ErrInstallFailed is returned when the manifest-driven install step fails.
	ErrInstallFailed = zerr.New("failed to install dependencies")

	// ErrMarkerReadFailed is returned when the state marker cannot be read.
	ErrMarkerReadFailed = zerr.New("failed to read state marker")

	// ErrMarkerWriteFailed is returned when the state marker cannot be written.
	ErrMarkerWriteFailed = zerr.New("failed to write state marker")

	// ErrBootstrapFailed is returned when the bootstrap sequence fails.
	ErrBootstrapFailed = zerr.New("bootstrap failed")

	// ErrShellFailed is returned when the interactive shell exits with an error.
	ErrShellFailed = zerr.New("interactive shell failed")

	// ErrCacheMiss is returned when a requested item is not found in a cache.
	ErrCacheMiss = zerr.New("cache miss")
)
