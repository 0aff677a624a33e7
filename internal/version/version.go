// Package version reports the frontdesk build.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
)

// Release builds stamp these with -ldflags "-X .../internal/version.Version=1.4.0 ...".
// Left unset, they are filled from the module build info where Go recorded it.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

var fromBuildInfo sync.Once

func resolve() {
	fromBuildInfo.Do(func() {
		info, ok := debug.ReadBuildInfo()
		if !ok {
			return
		}
		apply(info)
	})
}

// apply copies VCS stamps into values still at their defaults.
func apply(info *debug.BuildInfo) {
	if Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if Commit == "unknown" {
				Commit = s.Value
			}
		case "vcs.time":
			if Date == "unknown" {
				Date = s.Value
			}
		}
	}
}

// Info is the one-line build description shown by "frontdesk version".
func Info() string {
	resolve()
	return fmt.Sprintf("frontdesk %s (commit: %s, built: %s, %s/%s)",
		Version, short(Commit), Date, runtime.GOOS, runtime.GOARCH)
}

// Get returns the version and full commit after build info is applied.
func Get() (ver, commit string) {
	resolve()
	return Version, Commit
}

// UserAgent identifies frontdesk to LLM providers.
func UserAgent() string {
	resolve()
	return "frontdesk/" + Version
}

func short(s string) string {
	if len(s) > 7 {
		return s[:7]
	}
	return s
}
