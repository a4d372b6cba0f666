package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rules-radar/internal/domain/entity"
)

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadSourceCatalog(t *testing.T) {
	path := writeCatalog(t, `
sources:
  - tag: eu-ads
    url: https://example.com/eu/ads-policy
    region: EU
    title: Ads Policy
  - tag: md-rules
    url: https://example.md/rules
    region: MD
  - tag: global-terms
    url: https://example.com/terms
proxies:
  - region: MD
    endpoint: proxy.example.net:9000
    username: login
    password: wifi;md;;;
    sticky: true
    fallback: EU
  - region: EU
    endpoint: proxy.example.net:9000
    username: login
    password: wifi;pl;;;
    sticky: true
`)

	catalog, err := LoadSourceCatalog(path)
	require.NoError(t, err)
	require.Len(t, catalog.Sources, 3)

	// A source without a region defaults to GLOBAL during validation.
	assert.Equal(t, entity.RegionGlobal, catalog.Sources[2].Region)

	md := catalog.ProxyFor(entity.RegionMD)
	require.NotNil(t, md)
	assert.True(t, md.Sticky)
	assert.Equal(t, "EU", md.Fallback)

	assert.Nil(t, catalog.ProxyFor(entity.RegionGlobal))
}

func TestLoadSourceCatalogMissingFile(t *testing.T) {
	_, err := LoadSourceCatalog(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestSourceCatalogValidate(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "empty catalog",
			yaml:    `sources: []`,
			wantErr: "no sources configured",
		},
		{
			name: "duplicate composite key",
			yaml: `
sources:
  - {tag: a, url: "https://x.example/a", region: EU}
  - {tag: a, url: "https://x.example/a", region: EU}
`,
			wantErr: "duplicate source",
		},
		{
			name: "unknown source region",
			yaml: `
sources:
  - {tag: a, url: "https://x.example/a", region: ASIA}
`,
			wantErr: "unknown region",
		},
		{
			name: "unknown proxy region",
			yaml: `
sources:
  - {tag: a, url: "https://x.example/a"}
proxies:
  - {region: US, endpoint: "p:9000"}
`,
			wantErr: "unknown region",
		},
		{
			name: "proxy missing endpoint",
			yaml: `
sources:
  - {tag: a, url: "https://x.example/a"}
proxies:
  - {region: MD}
`,
			wantErr: "endpoint cannot be empty",
		},
		{
			name: "self fallback",
			yaml: `
sources:
  - {tag: a, url: "https://x.example/a"}
proxies:
  - {region: MD, endpoint: "p:9000", fallback: MD}
`,
			wantErr: "fallback cannot reference itself",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeCatalog(t, tt.yaml)
			_, err := LoadSourceCatalog(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
