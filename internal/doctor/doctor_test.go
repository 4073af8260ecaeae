package doctor

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/rbright/hark/internal/config"
)

func TestReportOKAndString(t *testing.T) {
	report := Report{Checks: []Check{
		{Name: "one", Pass: true, Message: "good"},
		{Name: "two", Pass: false, Message: "bad"},
	}}

	require.False(t, report.OK())
	text := report.String()
	require.Contains(t, text, "[OK] one: good")
	require.Contains(t, text, "[FAIL] two: bad")
}

func TestReportOKAllPassing(t *testing.T) {
	report := Report{Checks: []Check{{Name: "one", Pass: true}, {Name: "two", Pass: true}}}
	require.True(t, report.OK())
}

func TestCheckEnv(t *testing.T) {
	t.Setenv("TEST_DOCTOR_ENV", "abc")

	check := checkEnv(
		"TEST_DOCTOR_ENV",
		func(v string) bool { return v != "" },
		"looks good",
		"unexpected",
	)

	require.True(t, check.Pass)
	require.Equal(t, "looks good", check.Message)
}

func TestCheckCommandEmpty(t *testing.T) {
	check := checkCommand(nil, "picker_cmd")
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "command is empty")
}

func TestCheckBinaryMissing(t *testing.T) {
	check := checkBinary("definitely-not-a-real-binary", "unused")
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "binary not found")
}

func TestCheckCommandUsesBinaryFromPath(t *testing.T) {
	dir := writeStub(t, "fake-picker", "exit 0")
	t.Setenv("PATH", dir+":"+os.Getenv("PATH"))

	check := checkCommand([]string{"fake-picker", "--file-selection"}, "picker_cmd")
	require.True(t, check.Pass)
	require.Contains(t, check.Message, "picker_cmd command is available")
}

func TestCheckHyprlandReportsVersion(t *testing.T) {
	dir := writeStub(t, "hyprctl", `echo "Hyprland 0.45.0 built from branch main"`)
	t.Setenv("PATH", dir+":"+os.Getenv("PATH"))

	check := checkHyprland(context.Background())
	require.True(t, check.Pass)
	require.Equal(t, "Hyprland 0.45.0 built from branch main", check.Message)
}

func TestCheckWebSocket(t *testing.T) {
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		_, _, _ = conn.ReadMessage()
		_ = conn.Close()
	}))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	check := checkWebSocket(context.Background(), url)
	require.True(t, check.Pass, check.Message)

	server.Close()
	check = checkWebSocket(context.Background(), url)
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "dial")
}

func TestCheckGRPCHealth(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	server := grpc.NewServer()
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(server, healthServer)
	go func() { _ = server.Serve(listener) }()
	t.Cleanup(server.Stop)

	check := checkGRPCHealth(context.Background(), listener.Addr().String())
	require.True(t, check.Pass, check.Message)

	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	check = checkGRPCHealth(context.Background(), listener.Addr().String())
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "NOT_SERVING")
}

func TestCheckCredential(t *testing.T) {
	t.Setenv("HARK_DOCTOR_TEST_KEY", "")
	envFile := filepath.Join(t.TempDir(), ".env")

	check := checkCredential(envFile, "HARK_DOCTOR_TEST_KEY")
	require.False(t, check.Pass)
	require.Equal(t, "API key not found. Set HARK_DOCTOR_TEST_KEY.", check.Message)

	require.NoError(t, os.WriteFile(envFile, []byte("HARK_DOCTOR_TEST_KEY=sk-test\n"), 0o600))
	check = checkCredential(envFile, "HARK_DOCTOR_TEST_KEY")
	require.True(t, check.Pass)
}

func TestCheckRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vc_apps.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"firefox": "/usr/bin/firefox"}`), 0o644))

	check := checkRegistry(path)
	require.True(t, check.Pass)
	require.Contains(t, check.Message, "1 apps")

	require.NoError(t, os.WriteFile(path, []byte(`{`), 0o644))
	check = checkRegistry(path)
	require.False(t, check.Pass)
}

func TestCheckMicrophoneFailsWithoutPulse(t *testing.T) {
	t.Setenv("PULSE_SERVER", "unix:/tmp/definitely-missing-pulse-server")

	check := checkMicrophone(context.Background())
	require.False(t, check.Pass)
	require.Equal(t, "audio.input", check.Name)
}

func TestRunSkipsHyprChecksForDesktopBackend(t *testing.T) {
	dir := writeStub(t, "hark-recognize", "exit 0")
	t.Setenv("PATH", dir+":"+os.Getenv("PATH"))
	t.Setenv("PULSE_SERVER", "unix:/tmp/definitely-missing-pulse-server")

	cfg := config.Default()
	cfg.Indicator.Backend = "desktop"

	report := Run(context.Background(), config.Loaded{
		Path:         "/tmp/config.jsonc",
		Config:       cfg,
		RegistryPath: filepath.Join(t.TempDir(), "vc_apps.json"),
		EnvFile:      filepath.Join(t.TempDir(), ".env"),
	})
	require.NotEmpty(t, report.Checks)

	names := make([]string, 0, len(report.Checks))
	for _, check := range report.Checks {
		names = append(names, check.Name)
	}
	require.NotContains(t, names, "hyprctl")
	require.NotContains(t, names, "HYPRLAND_INSTANCE_SIGNATURE")
	require.Contains(t, names, "hark-recognize")
	require.Contains(t, names, "audio.input")
	require.Contains(t, names, "ai.credential")
	require.Contains(t, names, "registry")
	require.Contains(t, report.String(), "using defaults")
}

func writeStub(t *testing.T, name string, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("#!/usr/bin/env sh\n"+body+"\n"), 0o755))
	return dir
}
