package version

import (
	"runtime"
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
)

// stamp sets the build variables for one test.
func stamp(t *testing.T, version, commit, date string) {
	t.Helper()
	v, c, d := Version, Commit, Date
	t.Cleanup(func() { Version, Commit, Date = v, c, d })
	Version, Commit, Date = version, commit, date
}

func TestInfo(t *testing.T) {
	stamp(t, "1.2.3", "abc1234567890", "2026-01-15")

	info := Info()
	assert.Contains(t, info, "frontdesk 1.2.3")
	assert.Contains(t, info, "commit: abc1234,")
	assert.Contains(t, info, "2026-01-15")
	assert.Contains(t, info, runtime.GOOS+"/"+runtime.GOARCH)
}

func TestUserAgent(t *testing.T) {
	stamp(t, "1.4.0", "unknown", "unknown")
	assert.Equal(t, "frontdesk/1.4.0", UserAgent())
}

func TestApplyBuildInfo(t *testing.T) {
	stamp(t, "dev", "unknown", "unknown")
	apply(&debug.BuildInfo{
		Main: debug.Module{Version: "v0.3.1"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "9f8e7d6c5b4a"},
			{Key: "vcs.time", Value: "2026-10-01T08:00:00Z"},
			{Key: "GOOS", Value: "linux"},
		},
	})
	assert.Equal(t, "v0.3.1", Version)
	assert.Equal(t, "9f8e7d6c5b4a", Commit)
	assert.Equal(t, "2026-10-01T08:00:00Z", Date)
}

func TestApplyKeepsLdflags(t *testing.T) {
	stamp(t, "1.0.0", "release1", "2026-09-30")
	apply(&debug.BuildInfo{
		Main:     debug.Module{Version: "(devel)"},
		Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "other"}},
	})
	assert.Equal(t, "1.0.0", Version)
	assert.Equal(t, "release1", Commit)

	stamp(t, "dev", "unknown", "unknown")
	apply(&debug.BuildInfo{Main: debug.Module{Version: "(devel)"}})
	assert.Equal(t, "dev", Version, "local builds stay dev")
}

func TestShort(t *testing.T) {
	assert.Equal(t, "abcdefg", short("abcdefghij"))
	assert.Equal(t, "abc", short("abc"))
	assert.Equal(t, "", short(""))
}
