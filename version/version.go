// Package version holds build information set at link time:
//
//	go build -ldflags "-X github.com/jackzampolin/n8ntools/version.GitRelease=v0.3.0 \
//	  -X github.com/jackzampolin/n8ntools/version.GitCommit=$(git rev-parse --short HEAD)"
package version

import (
	"fmt"
	"runtime"
)

var (
	// GitRelease is the release tag, "dev" for local builds.
	GitRelease = "dev"

	// GitCommit is the short commit hash.
	GitCommit = "unknown"

	// GitCommitDate is the commit date in RFC 3339.
	GitCommitDate = "unknown"

	// GoInfo is the toolchain and platform the binary was built for.
	GoInfo = fmt.Sprintf("%s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH)
)

// String is the one-line form used by --version and the status endpoint.
func String() string {
	return fmt.Sprintf("%s (%s)", GitRelease, GitCommit)
}
