// Package version carries build metadata set with
// -ldflags "-X github.com/kailas-cloud/docusort/internal/version.Version=...".
package version

import "fmt"

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String formats the build metadata for `docusort version` and the startup log.
func String() string {
	return fmt.Sprintf("docusort %s (commit %s, built %s)", Version, Commit, Date)
}
