// Package nix implements tool resolution and tool environments on top of the
// host Nix installation and the NixHub resolution API.
package nix

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"go.trai.ch/envup/internal/core/domain"
	"go.trai.ch/zerr"
)

const (
	nixHubAPIBase     = "https://search.devbox.sh/v2/resolve"
	httpClientTimeout = 30 * time.Second
)

var supportedSystems = map[string]struct{}{
	"x86_64-linux":   {},
	"aarch64-linux":  {},
	"x86_64-darwin":  {},
	"aarch64-darwin": {},
}

// Resolver implements ports.DependencyResolver using the NixHub API with
// local caching.
type Resolver struct {
	cacheDir   string
	httpClient *http.Client
}

// NewResolver creates a new DependencyResolver backed by the NixHub API.
func NewResolver() (*Resolver, error) {
	return newResolverWithPath(domain.DefaultNixHubCachePath())
}

// newResolverWithPath creates a Resolver with a custom cache path (used for testing).
func newResolverWithPath(path string) (*Resolver, error) {
	return newResolverWithClient(path, &http.Client{Timeout: httpClientTimeout})
}

// newResolverWithClient creates a Resolver with a custom http client and cache
// path (used for testing).
func newResolverWithClient(path string, client *http.Client) (*Resolver, error) {
	cleanPath := filepath.Clean(path)
	if err := os.MkdirAll(cleanPath, domain.DirPerm); err != nil {
		return nil, zerr.Wrap(err, domain.ErrNixCacheCreateFailed.Error())
	}

	return &Resolver{
		cacheDir:   cleanPath,
		httpClient: client,
	}, nil
}

// Resolve resolves a package name and version to a Nixpkgs commit hash and
// attribute path. It checks the cache first, then queries the NixHub API.
func (r *Resolver) Resolve(ctx context.Context, pkg, version string) (commitHash, attrPath string, err error) {
	system := getCurrentSystem()

	cachePath := r.getCachePath(pkg, version)
	commitHash, attrPath, err = r.loadFromCache(cachePath, system)
	if err == nil {
		return commitHash, attrPath, nil
	}

	apiResponse, err := r.queryNixHub(ctx, pkg, version)
	if err != nil {
		return "", "", err
	}

	systemData, ok := apiResponse.Systems[system]
	if !ok {
		unsupportedErr := zerr.With(zerr.Wrap(domain.ErrNixPackageNotFound, ""), "package", pkg)
		unsupportedErr = zerr.With(unsupportedErr, "version", version)
		return "", "", zerr.With(unsupportedErr, "system", system)
	}
	commitHash = systemData.FlakeInstallable.Ref.Rev
	attrPath = systemData.FlakeInstallable.AttrPath

	if err := r.saveToCache(cachePath, pkg, version, apiResponse); err != nil {
		// Cache write failure is not critical for resolution
		_ = err
	}

	return commitHash, attrPath, nil
}

// getHash generates a SHA-256 hash from a package name and version, used as a
// deterministic cache filename.
func getHash(pkg, version string) string {
	hash := sha256.Sum256([]byte(pkg + "@" + version))
	return hex.EncodeToString(hash[:])
}

// getCachePath returns the file path for the cache entry.
func (r *Resolver) getCachePath(pkg, version string) string {
	return filepath.Join(r.cacheDir, getHash(pkg, version)+".json")
}

// loadFromCache attempts to load a cached resolution result for the given system.
func (r *Resolver) loadFromCache(path, system string) (commitHash, attrPath string, err error) {
	//nolint:gosec // Path is constructed from trusted directory and hashed filename
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", "", domain.ErrNixCacheReadFailed
		}
		return "", "", zerr.Wrap(err, domain.ErrNixCacheReadFailed.Error())
	}

	var entry cacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return "", "", zerr.Wrap(err, domain.ErrNixCacheUnmarshalFailed.Error())
	}

	systemCache, ok := entry.Systems[system]
	if !ok {
		return "", "", domain.ErrNixCacheReadFailed
	}

	return systemCache.FlakeInstallable.Ref.Rev, systemCache.FlakeInstallable.AttrPath, nil
}

// saveToCache saves a resolution result to the cache.
func (r *Resolver) saveToCache(path, pkg, version string, apiResponse *nixHubResponse) error {
	systems := make(map[string]SystemCache)
	for sysName, sysData := range apiResponse.Systems {
		if _, supported := supportedSystems[sysName]; !supported {
			continue
		}
		systems[sysName] = SystemCache{
			FlakeInstallable: sysData.FlakeInstallable,
			Outputs:          sysData.Outputs,
		}
	}

	entry := cacheEntry{
		Package:   pkg,
		Version:   version,
		Systems:   systems,
		Timestamp: time.Now(),
	}

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return zerr.Wrap(err, domain.ErrNixCacheMarshalFailed.Error())
	}

	if err := atomicWriteFile(path, data); err != nil {
		return zerr.Wrap(err, domain.ErrNixCacheWriteFailed.Error())
	}

	return nil
}

// queryNixHub queries the NixHub API to resolve a package version.
func (r *Resolver) queryNixHub(ctx context.Context, pkg, version string) (*nixHubResponse, error) {
	url := fmt.Sprintf("%s?name=%s&version=%s", nixHubAPIBase, pkg, version)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrNixAPIRequestFailed.Error())
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrNixAPIRequestFailed.Error())
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusNotFound {
		notFoundErr := zerr.With(zerr.Wrap(domain.ErrNixPackageNotFound, ""), "package", pkg)
		return nil, zerr.With(notFoundErr, "version", version)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := zerr.With(zerr.Wrap(domain.ErrNixAPIRequestFailed, ""), "status_code", resp.StatusCode)
		apiErr = zerr.With(apiErr, "package", pkg)
		return nil, zerr.With(apiErr, "version", version)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrNixAPIRequestFailed.Error())
	}

	var apiResp nixHubResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, zerr.Wrap(err, domain.ErrNixAPIParseFailed.Error())
	}

	if len(apiResp.Systems) == 0 {
		noSystemsErr := zerr.With(zerr.Wrap(domain.ErrNixPackageNotFound, ""), "package", pkg)
		return nil, zerr.With(noSystemsErr, "version", version)
	}

	return &apiResp, nil
}

// atomicWriteFile writes data to a file atomically by writing to a temp file
// and renaming it.
func atomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return err
	}

	tmpFile, err := os.CreateTemp(dir, "cache-*.json")
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

// getCurrentSystem returns the current system architecture string in NixHub format.
func getCurrentSystem() string {
	switch {
	case runtime.GOOS == "darwin" && runtime.GOARCH == "amd64":
		return "x86_64-darwin"
	case runtime.GOOS == "darwin" && runtime.GOARCH == "arm64":
		return "aarch64-darwin"
	case runtime.GOOS == "linux" && runtime.GOARCH == "arm64":
		return "aarch64-linux"
	default:
		return "x86_64-linux"
	}
}
