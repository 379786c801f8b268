// Package version exposes build information injected via ldflags:
//
//	go build -ldflags "-X github.com/okian/sentio/pkg/version.Version=v1.2.0 \
//	  -X github.com/okian/sentio/pkg/version.Commit=$(git rev-parse HEAD)"
package version

import (
	"runtime"
	"runtime/debug"
)

// Build information, injected via ldflags at build time.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Info holds complete build information.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
}

// Get returns the current build information. When the commit was not
// injected it falls back to the VCS revision stamped by the go tool.
func Get() Info {
	info := Info{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
	}
	if info.Commit == "unknown" {
		if bi, ok := debug.ReadBuildInfo(); ok {
			for _, s := range bi.Settings {
				if s.Key == "vcs.revision" && s.Value != "" {
					info.Commit = s.Value
				}
			}
		}
	}
	return info
}
