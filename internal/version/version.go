package version

import (
	"fmt"
	"time"
)

// Build metadata, overridable at link time via -ldflags.
var (
	// Version is the release version of the gateway extras build.
	Version = "dev"
	// Commit is the VCS revision the binary was built from.
	Commit = "unknown"
)

// startedAt marks process start for uptime reporting.
var startedAt = time.Now().UTC()

// Uptime returns the elapsed time since process start, truncated to seconds.
func Uptime() string {
	return time.Since(startedAt).Truncate(time.Second).String()
}

// String returns a human-readable version line.
func String() string {
	return fmt.Sprintf("%s (%s)", Version, Commit)
}
