package entity

import (
	"errors"
	"fmt"
	"net/url"
)

// Source is one monitored policy/rules page. Sources come from
// configuration and are immutable for the duration of a polling pass.
type Source struct {
	// Tag is the stable identifier of the source (e.g. "ads-policy").
	Tag string `yaml:"tag"`

	// URL is the page to poll.
	URL string `yaml:"url"`

	// Region controls proxy routing and notification grouping.
	// An empty region defaults to GLOBAL at load time.
	Region Region `yaml:"region"`

	// Title is an optional display-name hint. When empty, the fetched
	// page title is used instead.
	Title string `yaml:"title"`
}

// Validate checks that the source is well formed. An empty region is
// rewritten to GLOBAL; an unknown region string is an error so that a
// typo in configuration does not silently reroute traffic.
func (s *Source) Validate() error {
	if s.Tag == "" {
		return errors.New("source tag must not be empty")
	}
	if s.URL == "" {
		return errors.New("source url must not be empty")
	}
	u, err := url.Parse(s.URL)
	if err != nil {
		return fmt.Errorf("invalid source url %q: %w", s.URL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("source url %q must be http or https", s.URL)
	}
	if s.Region == "" {
		s.Region = RegionGlobal
	}
	if !s.Region.Known() {
		return fmt.Errorf("unknown region %q for source %q (must be EU, MD or GLOBAL)", s.Region, s.Tag)
	}
	return nil
}
