package proxy

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rules-radar/internal/domain/entity"
	"rules-radar/internal/pkg/config"
)

func testCatalog() *config.SourceCatalog {
	return &config.SourceCatalog{
		Sources: []entity.Source{
			{Tag: "a", URL: "https://example.com/a", Region: entity.RegionGlobal},
		},
		Proxies: []config.ProxyRule{
			{
				Region:   "MD",
				Endpoint: "proxy.example.net:9000",
				Username: "login",
				Password: "wifi;md;;;",
				Sticky:   true,
				Fallback: "EU",
			},
			{
				Region:   "EU",
				Endpoint: "proxy.example.net:9000",
				Username: "login",
				Password: "wifi;pl;;;",
				Sticky:   true,
			},
		},
	}
}

func TestRouteDirectForUnconfiguredRegion(t *testing.T) {
	router := NewRouter(testCatalog(), nil)

	handle := router.Route(entity.RegionGlobal)
	assert.True(t, handle.Direct())
	assert.Nil(t, handle.URL())
	assert.Nil(t, handle.Transport().Proxy)
}

func TestRouteBuildsCredentialedURL(t *testing.T) {
	router := NewRouter(testCatalog(), nil)

	handle := router.Route(entity.RegionMD)
	require.False(t, handle.Direct())

	u := handle.URL()
	require.NotNil(t, u)
	assert.Equal(t, "http", u.Scheme)
	assert.Equal(t, "proxy.example.net:9000", u.Host)
	assert.Equal(t, "login", u.User.Username())

	password, set := u.User.Password()
	require.True(t, set)
	assert.Contains(t, password, "wifi;md;;;")
	// Sticky session token appended after the region suffix.
	assert.Greater(t, len(password), len("wifi;md;;;"))

	assert.NotNil(t, handle.Transport().Proxy)
}

func TestRouteStickyTokenFreshPerRoute(t *testing.T) {
	router := NewRouter(testCatalog(), nil)

	first, _ := router.Route(entity.RegionMD).URL().User.Password()
	second, _ := router.Route(entity.RegionMD).URL().User.Password()
	assert.NotEqual(t, first, second)
}

func TestOnFailureFallsBackOnBlockingStatus(t *testing.T) {
	router := NewRouter(testCatalog(), nil)

	for _, status := range []int{http.StatusForbidden, http.StatusProxyAuthRequired} {
		handle, ok := router.OnFailure(entity.RegionMD, status)
		require.True(t, ok, "status %d", status)
		assert.Equal(t, entity.RegionEU, handle.Region())

		password, _ := handle.URL().User.Password()
		assert.Contains(t, password, "wifi;pl;;;")
	}
}

func TestOnFailureNoFallback(t *testing.T) {
	router := NewRouter(testCatalog(), nil)

	// EU has no fallback configured.
	_, ok := router.OnFailure(entity.RegionEU, http.StatusForbidden)
	assert.False(t, ok)

	// Non-blocking statuses never trigger fallback.
	_, ok = router.OnFailure(entity.RegionMD, http.StatusInternalServerError)
	assert.False(t, ok)
	_, ok = router.OnFailure(entity.RegionMD, http.StatusNotFound)
	assert.False(t, ok)

	// Direct regions have nowhere to fall back from.
	_, ok = router.OnFailure(entity.RegionGlobal, http.StatusForbidden)
	assert.False(t, ok)
}

func TestIsBlockingStatus(t *testing.T) {
	assert.True(t, IsBlockingStatus(403))
	assert.True(t, IsBlockingStatus(407))
	assert.False(t, IsBlockingStatus(200))
	assert.False(t, IsBlockingStatus(429))
	assert.False(t, IsBlockingStatus(500))
}
