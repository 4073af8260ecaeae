package version

import (
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStringPrefersStampedMetadata(t *testing.T) {
	originalVersion, originalCommit, originalDate := Version, Commit, Date
	t.Cleanup(func() {
		Version, Commit, Date = originalVersion, originalCommit, originalDate
	})

	Version = "1.2.3"
	Commit = "abc123"
	Date = "2026-02-18"

	got := String()
	require.Contains(t, got, "hark 1.2.3")
	require.Contains(t, got, "commit=abc123")
	require.Contains(t, got, "date=2026-02-18")
	require.Contains(t, got, "go=")
}

func TestFillUsesBuildInfoForUnstampedFields(t *testing.T) {
	build := &debug.BuildInfo{
		Main: debug.Module{Version: "v0.4.0"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef0123"},
			{Key: "vcs.time", Value: "2026-10-01T12:00:00Z"},
		},
	}

	got := Info{Version: "dev", Commit: "none", Date: "unknown", Go: "go1.25.5"}.fill(build)
	require.Equal(t, Info{Version: "v0.4.0", Commit: "0123456789ab", Date: "2026-10-01T12:00:00Z", Go: "go1.25.5"}, got)
	require.Equal(t, "hark v0.4.0 (commit=0123456789ab, date=2026-10-01T12:00:00Z, go=go1.25.5)", got.String())
}

func TestFillKeepsStampedFieldsAndIgnoresDevel(t *testing.T) {
	build := &debug.BuildInfo{
		Main:     debug.Module{Version: "(devel)"},
		Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "fff"}},
	}

	got := Info{Version: "dev", Commit: "abc", Date: "unknown"}.fill(build)
	require.Equal(t, "dev", got.Version)
	require.Equal(t, "abc", got.Commit)
	require.Equal(t, "unknown", got.Date)
}
