// Package buildinfo carries version metadata stamped in with -ldflags, e.g.
//
//	-ldflags "-X tdeckvt/internal/buildinfo.Version=v0.3.0"
package buildinfo

import "fmt"

var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Short returns a compact build identifier for window titles and banners.
func Short() string {
	if Version != "" && Version != "dev" {
		return Version
	}
	if Commit != "" && Commit != "unknown" {
		return Commit
	}
	return "dev"
}

// String is the full -version line.
func String() string {
	return fmt.Sprintf("tdeckvt %s (commit %s, built %s)", Version, Commit, Date)
}
