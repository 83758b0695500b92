// Package version reports which textindex build is running.
//
// Release builds stamp the variables below with ldflags:
//
//	-X github.com/Aman-CERP/textindex/pkg/version.Version=v1.2.0
//	-X github.com/Aman-CERP/textindex/pkg/version.Commit=$(git rev-parse HEAD)
//	-X github.com/Aman-CERP/textindex/pkg/version.Date=$(date -u +%FT%TZ)
//
// A binary built with `go install` carries no ldflags; its module version and
// VCS stamp are read from the embedded build info instead.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
)

var (
	Version   = "dev"
	Commit    = "unknown"
	Date      = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo is the JSON shape of `textindex version --json`.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

var fillOnce sync.Once

// fill replaces unstamped values with what the toolchain embedded.
func fill() {
	fillOnce.Do(func() {
		info, ok := debug.ReadBuildInfo()
		if !ok {
			return
		}
		if Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
			Version = info.Main.Version
		}
		for _, s := range info.Settings {
			switch {
			case s.Key == "vcs.revision" && Commit == "unknown":
				Commit = s.Value
			case s.Key == "vcs.time" && Date == "unknown":
				Date = s.Value
			}
		}
	})
}

// String is the one-line banner of `textindex version`.
func String() string {
	fill()
	return fmt.Sprintf("textindex %s (commit: %s, built: %s, go: %s)",
		Version, Commit, Date, GoVersion)
}

// Short returns the bare version.
func Short() string {
	fill()
	return Version
}

// GetInfo returns the build as a BuildInfo.
func GetInfo() BuildInfo {
	fill()
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}
