// Package entity defines the core domain entities for the watcher:
// monitored sources, cache entries used for change detection, and the
// append-only items that record detected changes.
package entity

// Region is the geographic routing label of a source. It controls both
// egress proxy selection during fetching and the grouping order of
// notifications.
type Region string

const (
	RegionEU     Region = "EU"
	RegionMD     Region = "MD"
	RegionGlobal Region = "GLOBAL"
)

// ParseRegion maps a stored or configured region string to a Region.
// Unknown and empty values fold into RegionGlobal; this is the same rule
// the stores apply when migrating legacy records that predate regions.
func ParseRegion(s string) Region {
	switch s {
	case string(RegionEU):
		return RegionEU
	case string(RegionMD):
		return RegionMD
	default:
		return RegionGlobal
	}
}

// Known reports whether s is one of the three defined region labels.
// Configuration validation uses this to reject typos instead of silently
// folding them into GLOBAL.
func (r Region) Known() bool {
	return r == RegionEU || r == RegionMD || r == RegionGlobal
}
