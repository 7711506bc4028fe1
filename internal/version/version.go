// Package version exposes build-time version information.
package version

import (
	"fmt"
	"runtime"
)

// Set via -ldflags "-X" at build time.
var (
	Version   = "0.1.0"
	Commit    = "dev"
	BuildDate = "unknown"
)

// Full returns a single-line version string for the CLI.
func Full() string {
	return fmt.Sprintf("botcoder %s (commit %s, built %s, %s)", Version, Commit, BuildDate, runtime.Version())
}
