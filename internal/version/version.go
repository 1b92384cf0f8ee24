// Package version holds build metadata injected at link time.
package version

import "fmt"

// Set via -ldflags at build time, e.g.
//
//	go build -ldflags "-X github.com/HerbHall/modelrelay/internal/version.Version=v0.2.0"
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Short returns the bare version string.
func Short() string {
	return Version
}

// Info returns a multi-line human-readable version report.
func Info() string {
	return fmt.Sprintf("modelrelay %s\ncommit: %s\nbuilt:  %s", Version, Commit, Date)
}
