package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/adrg/xdg"
	"github.com/stretchr/testify/require"
)

func TestResolveLogPathUsesXDGStateHome(t *testing.T) {
	xdgStateHome := t.TempDir()
	setXDGEnv(t, "XDG_STATE_HOME", xdgStateHome)
	setXDGEnv(t, "HOME", t.TempDir())

	path, err := resolveLogPath()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(xdgStateHome, "hark", "log.jsonl"), path)
}

func TestResolveLogPathFallsBackToHome(t *testing.T) {
	home := t.TempDir()
	setXDGEnv(t, "XDG_STATE_HOME", "")
	setXDGEnv(t, "HOME", home)

	path, err := resolveLogPath()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, ".local", "state", "hark", "log.jsonl"), path)
}

func TestNewCreatesWritableJSONLogFile(t *testing.T) {
	setXDGEnv(t, "XDG_STATE_HOME", t.TempDir())

	runtime, err := New(Options{Level: slog.LevelInfo})
	require.NoError(t, err)

	runtime.Logger.Info("unit-test-log", "component", "logging")
	runtime.Logger.Debug("filtered")
	require.NoError(t, runtime.Close())

	contents, err := os.ReadFile(runtime.Path)
	require.NoError(t, err)
	require.Contains(t, string(contents), `"msg":"unit-test-log"`)
	require.Contains(t, string(contents), `"component":"logging"`)
	require.NotContains(t, string(contents), "filtered")

	stat, err := os.Stat(runtime.Path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), stat.Mode().Perm())
}

func TestNewMirrorsToConsole(t *testing.T) {
	setXDGEnv(t, "XDG_STATE_HOME", t.TempDir())

	var console bytes.Buffer
	runtime, err := New(Options{Level: slog.LevelDebug, Console: &console})
	require.NoError(t, err)

	runtime.Logger.With("component", "engine").Debug("status", "state", "idle")
	require.NoError(t, runtime.Close())

	contents, err := os.ReadFile(runtime.Path)
	require.NoError(t, err)
	require.Contains(t, string(contents), `"state":"idle"`)
	require.Contains(t, console.String(), "status")
	require.Contains(t, console.String(), "component=engine")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		raw  string
		want slog.Level
	}{
		{raw: "debug", want: slog.LevelDebug},
		{raw: "", want: slog.LevelInfo},
		{raw: "INFO", want: slog.LevelInfo},
		{raw: "warn", want: slog.LevelWarn},
		{raw: "error", want: slog.LevelError},
	}
	for _, tc := range tests {
		got, err := ParseLevel(tc.raw)
		require.NoError(t, err)
		require.Equal(t, tc.want, got)
	}

	_, err := ParseLevel("loud")
	require.ErrorContains(t, err, "unknown log level")
}

// setXDGEnv sets key for the test and re-reads the XDG base directories.
func setXDGEnv(t *testing.T, key, value string) {
	t.Helper()
	t.Cleanup(xdg.Reload)
	t.Setenv(key, value)
	xdg.Reload()
}
