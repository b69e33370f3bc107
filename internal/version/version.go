// Package version exposes build metadata injected via -ldflags.
package version

import (
	"fmt"
	"runtime"
)

// Injected via -ldflags at build time.
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	GoVersion = runtime.Version()
)

// Short returns a one-line version string suitable for --version output.
func Short() string {
	return fmt.Sprintf("%s (%s %s)", Version, Commit, BuildDate)
}
