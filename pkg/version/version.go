// pkg/version/version.go
// Package version provides version metadata for the application.
package version

import (
	"fmt"
	"time"

	"github.com/Masterminds/semver/v3"
)

// These variables are typically injected at build time using -ldflags
var (
	// Version holds the current version of busmock.
	Version = "dev"
	// Commit holds the commit busmock was built from.
	Commit = "none"
	// BuildDate holds the build date of busmock.
	BuildDate = "unknown"
	// StartDate holds the process start time.
	StartDate = time.Now()
)

// Struct returns version information in a structured format.
type Struct struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"buildDate"`
	Uptime    string `json:"uptime,omitempty"`

	// Development is set when Version is not a semantic version.
	Development bool `json:"development,omitempty"`
}

// Info returns a formatted version string.
func Info() string {
	return fmt.Sprintf("busmock %s (commit: %s, date: %s)", Version, Commit, BuildDate)
}

// Get returns version information as a Struct.
func Get() Struct {
	return Struct{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		Uptime:    time.Since(StartDate).Round(time.Second).String(),

		Development: Semver() == nil,
	}
}

// Semver parses Version. Development builds return nil.
func Semver() *semver.Version {
	v, err := semver.NewVersion(Version)
	if err != nil {
		return nil
	}
	return v
}
