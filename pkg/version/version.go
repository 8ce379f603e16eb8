package version

// path: pkg/version/version.go
// Values are overridden at build time:
//   go build -ldflags "-X github.com/pynezz/threatdash/pkg/version.version=v0.3.0"

import (
	"fmt"
	"runtime"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "na"
)

// Info returns version information
func Info() string {
	return fmt.Sprintf("threatdash %s\nGit commit: %s\nGo version: %s\nOS/Arch: %s/%s\nBuild date: %s\n",
		version, commit, runtime.Version(), runtime.GOOS, runtime.GOARCH, buildDate)
}

// Version returns the version
func Version() string {
	return version
}
