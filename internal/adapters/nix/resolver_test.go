package nix

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/envup/internal/core/domain"
)

const testCommitHash = "3016b4b15d13f3089db8a41ef937b13a9e33a8df"

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

// rewriteTransport redirects all requests to the test server.
type rewriteTransport struct {
	server *httptest.Server
}

func (rt *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	target, err := url.Parse(rt.server.URL)
	if err != nil {
		return nil, err
	}
	req.URL.Scheme = target.Scheme
	req.URL.Host = target.Host
	return http.DefaultTransport.RoundTrip(req)
}

func newTestResolver(t *testing.T, server *httptest.Server) *Resolver {
	t.Helper()
	client := &http.Client{Transport: &rewriteTransport{server: server}}
	resolver, err := newResolverWithClient(t.TempDir(), client)
	require.NoError(t, err)
	return resolver
}

func nixHubPayload(rev, attrPath string) string {
	return `{
		"name": "python",
		"version": "3.12.8",
		"summary": "A high-level dynamically-typed programming language",
		"systems": {
			"x86_64-linux": {
				"flake_installable": {
					"ref": {"type": "github", "owner": "NixOS", "repo": "nixpkgs", "rev": "` + rev + `"},
					"attr_path": "` + attrPath + `"
				},
				"outputs": [{"name": "out", "default": true}]
			},
			"aarch64-linux": {
				"flake_installable": {
					"ref": {"type": "github", "owner": "NixOS", "repo": "nixpkgs", "rev": "` + rev + `"},
					"attr_path": "` + attrPath + `"
				},
				"outputs": [{"name": "out", "default": true}]
			},
			"x86_64-darwin": {
				"flake_installable": {
					"ref": {"type": "github", "owner": "NixOS", "repo": "nixpkgs", "rev": "` + rev + `"},
					"attr_path": "` + attrPath + `"
				},
				"outputs": [{"name": "out", "default": true}]
			},
			"aarch64-darwin": {
				"flake_installable": {
					"ref": {"type": "github", "owner": "NixOS", "repo": "nixpkgs", "rev": "` + rev + `"},
					"attr_path": "` + attrPath + `"
				},
				"outputs": [{"name": "out", "default": true}]
			}
		}
	}`
}

func TestResolver_Resolve_FromAPI(t *testing.T) {
	var requests int
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		assert.Equal(t, "python", r.URL.Query().Get("name"))
		assert.Equal(t, "3.12", r.URL.Query().Get("version"))
		_, _ = w.Write([]byte(nixHubPayload(testCommitHash, "python312")))
	})

	resolver := newTestResolver(t, server)

	commitHash, attrPath, err := resolver.Resolve(context.Background(), "python", "3.12")
	require.NoError(t, err)
	assert.Equal(t, testCommitHash, commitHash)
	assert.Equal(t, "python312", attrPath)
	assert.Equal(t, 1, requests)
}

func TestResolver_Resolve_UsesCache(t *testing.T) {
	var requests int
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		_, _ = w.Write([]byte(nixHubPayload(testCommitHash, "python312")))
	})

	resolver := newTestResolver(t, server)

	_, _, err := resolver.Resolve(context.Background(), "python", "3.12")
	require.NoError(t, err)

	commitHash, attrPath, err := resolver.Resolve(context.Background(), "python", "3.12")
	require.NoError(t, err)
	assert.Equal(t, testCommitHash, commitHash)
	assert.Equal(t, "python312", attrPath)

	assert.Equal(t, 1, requests, "second resolution should be served from cache")
}

func TestResolver_Resolve_NotFound(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	resolver := newTestResolver(t, server)

	_, _, err := resolver.Resolve(context.Background(), "nonexistent", "1.0")
	assert.ErrorIs(t, err, domain.ErrNixPackageNotFound)
}

func TestResolver_Resolve_ServerError(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	resolver := newTestResolver(t, server)

	_, _, err := resolver.Resolve(context.Background(), "python", "3.12")
	assert.ErrorIs(t, err, domain.ErrNixAPIRequestFailed)
}

func TestResolver_Resolve_MalformedResponse(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	})

	resolver := newTestResolver(t, server)

	_, _, err := resolver.Resolve(context.Background(), "python", "3.12")
	assert.ErrorContains(t, err, domain.ErrNixAPIParseFailed.Error())
}

func TestResolver_Resolve_NoSystems(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"name": "python", "version": "3.12.8", "systems": {}}`))
	})

	resolver := newTestResolver(t, server)

	_, _, err := resolver.Resolve(context.Background(), "python", "3.12")
	assert.ErrorIs(t, err, domain.ErrNixPackageNotFound)
}

func TestResolver_Resolve_CorruptCacheFallsBack(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(nixHubPayload(testCommitHash, "python312")))
	})

	resolver := newTestResolver(t, server)

	cachePath := resolver.getCachePath("python", "3.12")
	require.NoError(t, os.WriteFile(cachePath, []byte("garbage"), 0o644))

	// A corrupt cache entry is bypassed and the API is queried instead.
	commitHash, _, err := resolver.Resolve(context.Background(), "python", "3.12")
	require.NoError(t, err)
	assert.Equal(t, testCommitHash, commitHash)
}

func TestResolver_CachePathDeterministic(t *testing.T) {
	resolver, err := newResolverWithPath(t.TempDir())
	require.NoError(t, err)

	first := resolver.getCachePath("python", "3.12")
	second := resolver.getCachePath("python", "3.12")
	assert.Equal(t, first, second)
	assert.NotEqual(t, first, resolver.getCachePath("python", "3.13"))
	assert.Equal(t, ".json", filepath.Ext(first))
}
