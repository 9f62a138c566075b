// Package version carries the build identity stamped into binaries and
// reports via -ldflags.
package version

import "fmt"

var (
	// Version is the semantic version of the build.
	Version = "dev"

	// GitCommit is the short hash of the commit the binary was built from.
	GitCommit = "unknown"

	// BuildDate is the UTC build timestamp.
	BuildDate = "unknown"
)

// String renders the full build identity.
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, GitCommit, BuildDate)
}
