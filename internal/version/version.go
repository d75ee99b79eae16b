// Package version records build metadata stamped in at link time via
// -ldflags "-X github.com/banshee-data/roversim/internal/version.Version=...".
package version

import "fmt"

var (
	Version   = "dev"
	GitSHA    = "unknown"
	BuildTime = "unknown"
)

// String returns a one-line description of the build.
func String() string {
	return fmt.Sprintf("roversim %s (commit %s, built %s)", Version, GitSHA, BuildTime)
}
