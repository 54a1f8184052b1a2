// Package version holds build metadata set through ldflags:
//
//	go build -ldflags "-X git.home.luguber.info/inful/releasebot/internal/version.Version=v1.0.0"
package version

import "fmt"

// Version is the release tag, "unknown" for local builds.
var Version = "unknown"

// BuildInfo contains additional build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String renders the --version output.
func String() string {
	return fmt.Sprintf("releasebot %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}

// UserAgent is sent with outgoing HTTP requests.
func UserAgent() string {
	return "releasebot/" + Version
}
