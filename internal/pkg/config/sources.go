package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"rules-radar/internal/domain/entity"
)

// DefaultSourcesFile is used when SOURCES_FILE is not set.
const DefaultSourcesFile = "sources.yaml"

// ProxyRule configures outbound routing for one region. Regions without a
// rule connect directly.
type ProxyRule struct {
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	// Sticky appends a random session token to the password on each route,
	// pinning the upstream exit for the lifetime of one fetch.
	Sticky bool `yaml:"sticky"`

	// Fallback names the region whose proxy is tried once after an
	// auth-blocking response (403/407). Empty disables fallback.
	Fallback string `yaml:"fallback"`
}

// SourceCatalog is the parsed sources file. It is loaded once at startup
// and treated as immutable for the lifetime of the process.
type SourceCatalog struct {
	Sources []entity.Source `yaml:"sources"`
	Proxies []ProxyRule     `yaml:"proxies"`
}

// LoadSourceCatalog reads and validates the YAML catalog at path. Unlike
// the env loaders this is fail-closed: a broken catalog means the worker
// has nothing meaningful to poll, so it must not start.
func LoadSourceCatalog(path string) (*SourceCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources file %s: %w", path, err)
	}

	var catalog SourceCatalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("parse sources file %s: %w", path, err)
	}

	if err := catalog.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sources file %s: %w", path, err)
	}

	return &catalog, nil
}

// Validate checks every source and proxy rule and rejects duplicate
// composite keys, so identity collisions surface at startup rather than as
// silent cache overwrites.
func (c *SourceCatalog) Validate() error {
	if len(c.Sources) == 0 {
		return fmt.Errorf("no sources configured")
	}

	seen := make(map[string]struct{}, len(c.Sources))
	for i := range c.Sources {
		src := &c.Sources[i]
		if err := src.Validate(); err != nil {
			return fmt.Errorf("source %d (%s): %w", i, src.Tag, err)
		}
		key := src.Tag + "|" + src.URL + "|" + string(src.Region)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("duplicate source (tag=%s, url=%s, region=%s)", src.Tag, src.URL, src.Region)
		}
		seen[key] = struct{}{}
	}

	regions := make(map[entity.Region]struct{}, len(c.Proxies))
	for i, rule := range c.Proxies {
		region := entity.Region(rule.Region)
		if !region.Known() {
			return fmt.Errorf("proxy rule %d: unknown region '%s'", i, rule.Region)
		}
		if _, dup := regions[region]; dup {
			return fmt.Errorf("proxy rule %d: duplicate region '%s'", i, rule.Region)
		}
		regions[region] = struct{}{}
		if rule.Endpoint == "" {
			return fmt.Errorf("proxy rule %d (%s): endpoint cannot be empty", i, rule.Region)
		}
		if rule.Fallback != "" {
			fb := entity.Region(rule.Fallback)
			if !fb.Known() {
				return fmt.Errorf("proxy rule %d (%s): unknown fallback region '%s'", i, rule.Region, rule.Fallback)
			}
			if fb == region {
				return fmt.Errorf("proxy rule %d (%s): fallback cannot reference itself", i, rule.Region)
			}
		}
	}

	return nil
}

// ProxyFor returns the rule for a region, or nil when the region routes
// direct.
func (c *SourceCatalog) ProxyFor(region entity.Region) *ProxyRule {
	for i := range c.Proxies {
		if entity.Region(c.Proxies[i].Region) == region {
			return &c.Proxies[i]
		}
	}
	return nil
}
