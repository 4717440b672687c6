// Package buildinfo carries the version stamped in by the linker:
//
//	-ldflags "-X kestrel/internal/buildinfo.Version=v0.3.0 -X kestrel/internal/buildinfo.Commit=$(git rev-parse --short HEAD)"
package buildinfo

import "fmt"

var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Short returns a compact build identifier for the boot banner.
func Short() string {
	if Version != "" && Version != "dev" {
		return Version
	}
	if Commit != "" && Commit != "unknown" {
		return Commit
	}
	return "dev"
}

// Describe returns every stamped field, for -version.
func Describe() string {
	return fmt.Sprintf("kestrel %s (commit %s, built %s)", Version, Commit, Date)
}
