package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rbright/hark/internal/conversation"
	"github.com/rbright/hark/internal/ipc"
)

func writeDaemonConfig(t *testing.T, paths runnerPaths, baseURL string) {
	t.Helper()

	content := `{
  // local test endpoint
  "ai": {"base_url": "` + baseURL + `", "model": "llama3-70b-8192", "api_key_env": "HARK_APP_TEST_KEY"},
  "speech": {"backend": "command", "command": "cat"},
  "picker_cmd": "true",
  "indicator": {"enable": false, "sound_enable": false},
}`
	require.NoError(t, os.WriteFile(paths.configPath, []byte(content), 0o600))
}

func TestRunServesQueriesAndShutsDownCleanly(t *testing.T) {
	paths := setupRunnerEnv(t)
	t.Setenv("HARK_APP_TEST_KEY", "sk-test")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","created":0,"model":"llama3-70b-8192","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"It is sunny."}}]}`))
	}))
	t.Cleanup(srv.Close)
	writeDaemonConfig(t, paths, srv.URL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	exited := make(chan int, 1)
	go func() {
		runner := Runner{Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}}
		exited <- runner.Execute(ctx, []string{"--config", paths.configPath, "run"})
	}()

	socketPath := filepath.Join(paths.runtimeDir, "hark.sock")
	require.Eventually(t, func() bool {
		alive, _ := ipc.Probe(context.Background(), socketPath, 100*time.Millisecond)
		return alive
	}, 5*time.Second, 20*time.Millisecond)

	var stderr bytes.Buffer
	second := Runner{Stdout: &bytes.Buffer{}, Stderr: &stderr}
	require.Equal(t, 1, second.Execute(context.Background(), []string{"--config", paths.configPath, "run"}))
	require.Contains(t, stderr.String(), "hark daemon already running")

	resp, err := ipc.Send(context.Background(), socketPath, ipc.Request{Command: ipc.CommandSay, Text: "what is the weather"}, time.Second)
	require.NoError(t, err)
	require.True(t, resp.OK)

	require.Eventually(t, func() bool {
		resp, err := ipc.Send(context.Background(), socketPath, ipc.Request{Command: ipc.CommandStatus}, time.Second)
		return err == nil && resp.Message == "Replied."
	}, 5*time.Second, 20*time.Millisecond)

	resp, err = ipc.Send(context.Background(), socketPath, ipc.Request{Command: ipc.CommandHistory}, time.Second)
	require.NoError(t, err)
	var turns []conversation.Turn
	require.NoError(t, json.Unmarshal(resp.Data, &turns))
	require.Equal(t, []conversation.Turn{
		{Role: conversation.RoleUser, Content: "what is the weather"},
		{Role: conversation.RoleAssistant, Content: "It is sunny."},
	}, turns)

	cancel()
	select {
	case code := <-exited:
		require.Equal(t, 0, code)
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not stop")
	}

	_, statErr := os.Stat(socketPath)
	require.ErrorIs(t, statErr, os.ErrNotExist)
}

func TestRunPicksUpExternalRegistryEdits(t *testing.T) {
	paths := setupRunnerEnv(t)
	writeDaemonConfig(t, paths, "https://api.example.invalid/v1")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	exited := make(chan int, 1)
	go func() {
		runner := Runner{Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}}
		exited <- runner.Execute(ctx, []string{"--config", paths.configPath, "run"})
	}()
	t.Cleanup(func() {
		cancel()
		<-exited
	})

	socketPath := filepath.Join(paths.runtimeDir, "hark.sock")
	require.Eventually(t, func() bool {
		alive, _ := ipc.Probe(context.Background(), socketPath, 100*time.Millisecond)
		return alive
	}, 5*time.Second, 20*time.Millisecond)

	registryPath := filepath.Join(paths.dataDir, "hark", "vc_apps.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(registryPath), 0o755))

	// Rewrite on every poll so an edit made before the watcher starts is retried.
	require.Eventually(t, func() bool {
		if err := os.WriteFile(registryPath, []byte(`{"Firefox": "/usr/bin/firefox"}`), 0o644); err != nil {
			return false
		}
		resp, err := ipc.Send(context.Background(), socketPath, ipc.Request{Command: ipc.CommandApps}, time.Second)
		if err != nil {
			return false
		}
		var apps map[string]string
		return json.Unmarshal(resp.Data, &apps) == nil && apps["firefox"] == "/usr/bin/firefox"
	}, 5*time.Second, 50*time.Millisecond)
}

func TestRunFailsWhenRuntimeDirUnusable(t *testing.T) {
	paths := setupRunnerEnv(t)
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))
	setXDGEnv(t, "XDG_RUNTIME_DIR", filepath.Join(blocker, "run"))

	var stderr bytes.Buffer
	runner := Runner{Stdout: &bytes.Buffer{}, Stderr: &stderr}
	require.Equal(t, 1, runner.Execute(context.Background(), []string{"--config", paths.configPath, "run"}))
	require.Contains(t, stderr.String(), "ensure runtime socket dir")
}
