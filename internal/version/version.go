// Package version exposes build metadata stamped in with -ldflags, falling
// back to the module build info embedded by `go install`.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Info is the resolved build metadata.
type Info struct {
	Version string
	Commit  string
	Date    string
	Go      string
}

// Current resolves build metadata, preferring linker-stamped values.
func Current() Info {
	info := Info{Version: Version, Commit: Commit, Date: Date, Go: runtime.Version()}
	if build, ok := debug.ReadBuildInfo(); ok {
		info = info.fill(build)
	}
	return info
}

func (i Info) fill(build *debug.BuildInfo) Info {
	if i.Version == "dev" && build.Main.Version != "" && build.Main.Version != "(devel)" {
		i.Version = build.Main.Version
	}
	for _, setting := range build.Settings {
		switch setting.Key {
		case "vcs.revision":
			if i.Commit == "none" && setting.Value != "" {
				i.Commit = setting.Value
				if len(i.Commit) > 12 {
					i.Commit = i.Commit[:12]
				}
			}
		case "vcs.time":
			if i.Date == "unknown" && setting.Value != "" {
				i.Date = setting.Value
			}
		}
	}
	return i
}

func (i Info) String() string {
	return fmt.Sprintf("hark %s (commit=%s, date=%s, go=%s)", i.Version, i.Commit, i.Date, i.Go)
}

// String renders Current for `hark version`.
func String() string {
	return Current().String()
}
