// Package version holds build-time identifying information.
package version

import "fmt"

// Version, GitCommit, and BuildDate are set at build time via ldflags:
//
//	go build -ldflags "-X github.com/meridian-net/meridian/internal/version.Version=v1.0.0 \
//	  -X github.com/meridian-net/meridian/internal/version.GitCommit=abc1234 \
//	  -X github.com/meridian-net/meridian/internal/version.BuildDate=2026-07-31"
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info returns a single human-readable line identifying this build.
func Info() string {
	return fmt.Sprintf("meridian %s (commit %s, built %s)", Version, GitCommit, BuildDate)
}
