// Package version holds build metadata injected with ldflags.
package version

import "fmt"

// Version is set at build time:
// go build -ldflags "-X git.home.luguber.info/inful/vendorroll/internal/version.Version=v0.3.0".
var Version = "unknown"

var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String renders the value printed by `vendorroll --version`.
func String() string {
	if GitCommit == "unknown" {
		return "vendorroll " + Version
	}
	return fmt.Sprintf("vendorroll %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
