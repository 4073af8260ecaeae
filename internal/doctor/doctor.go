// Package doctor runs runtime readiness diagnostics for config, tools, the
// recognizer, the AI credential, and the app registry.
package doctor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/rbright/hark/internal/assistant"
	"github.com/rbright/hark/internal/audio"
	"github.com/rbright/hark/internal/config"
	"github.com/rbright/hark/internal/hypr"
	"github.com/rbright/hark/internal/registry"
)

const probeTimeout = 2 * time.Second

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes environment/config/runtime checks for a loaded config.
func Run(ctx context.Context, loaded config.Loaded) Report {
	cfg := loaded.Config
	checks := []Check{}

	configMsg := fmt.Sprintf("loaded %q", loaded.Path)
	if !loaded.Exists {
		configMsg = fmt.Sprintf("using defaults (%q not found)", loaded.Path)
	}
	checks = append(checks, Check{Name: "config", Pass: true, Message: configMsg})

	if cfg.Indicator.Enable && strings.EqualFold(cfg.Indicator.Backend, "hypr") {
		checks = append(checks, checkEnv("HYPRLAND_INSTANCE_SIGNATURE", func(v string) bool {
			return strings.TrimSpace(v) != ""
		}, "Hyprland session detected", "HYPRLAND_INSTANCE_SIGNATURE is empty"))
		checks = append(checks, checkHyprland(ctx))
	}

	switch cfg.Speech.Backend {
	case config.SpeechBackendWebSocket:
		checks = append(checks, checkWebSocket(ctx, cfg.Speech.URL))
	default:
		checks = append(checks, checkCommand(cfg.Speech.Command.Argv, "speech.command"))
		checks = append(checks, checkMicrophone(ctx))
	}
	if addr := strings.TrimSpace(cfg.Speech.HealthGRPC); addr != "" {
		checks = append(checks, checkGRPCHealth(ctx, addr))
	}

	checks = append(checks, checkCommand(cfg.Picker.Argv, "picker_cmd"))
	if len(cfg.Launcher.Argv) > 0 {
		checks = append(checks, checkCommand(cfg.Launcher.Argv, "launcher_cmd"))
	}

	checks = append(checks, checkCredential(loaded.EnvFile, cfg.AI.APIKeyEnv))
	checks = append(checks, checkRegistry(loaded.RegistryPath))

	return Report{Checks: checks}
}

// checkEnv validates an environment variable through a caller-supplied predicate.
func checkEnv(name string, predicate func(string) bool, okMsg, failMsg string) Check {
	value := os.Getenv(name)
	if predicate(value) {
		return Check{Name: name, Pass: true, Message: okMsg}
	}
	return Check{Name: name, Pass: false, Message: failMsg}
}

// checkCommand validates that argv contains a runnable command.
func checkCommand(argv []string, name string) Check {
	if len(argv) == 0 {
		return Check{Name: name, Pass: false, Message: "command is empty"}
	}
	return checkBinary(argv[0], fmt.Sprintf("%s command is available", name))
}

// checkBinary validates that a binary exists in PATH.
func checkBinary(bin string, okMsg string) Check {
	path, err := exec.LookPath(bin)
	if err != nil {
		return Check{Name: bin, Pass: false, Message: fmt.Sprintf("binary not found in PATH: %s", bin)}
	}
	return Check{Name: bin, Pass: true, Message: fmt.Sprintf("found at %s (%s)", path, okMsg)}
}

func checkHyprland(ctx context.Context) Check {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	version, err := hypr.Version(ctx)
	if err != nil {
		return Check{Name: "hyprctl", Pass: false, Message: err.Error()}
	}
	return Check{Name: "hyprctl", Pass: true, Message: version}
}

// checkWebSocket opens and closes one connection to the recognizer.
func checkWebSocket(ctx context.Context, rawURL string) Check {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	dialer := websocket.Dialer{HandshakeTimeout: probeTimeout}
	conn, resp, err := dialer.DialContext(ctx, rawURL, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return Check{Name: "speech.url", Pass: false, Message: fmt.Sprintf("dial %s: %v", rawURL, err)}
	}
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	_ = conn.Close()
	return Check{Name: "speech.url", Pass: true, Message: fmt.Sprintf("recognizer reachable at %s", rawURL)}
}

// checkGRPCHealth queries the standard grpc.health.v1 service for the
// overall server status.
func checkGRPCHealth(ctx context.Context, addr string) Check {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return Check{Name: "speech.health_grpc", Pass: false, Message: fmt.Sprintf("create client: %v", err)}
	}
	defer conn.Close()

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{})
	if err != nil {
		return Check{Name: "speech.health_grpc", Pass: false, Message: fmt.Sprintf("health check %s: %v", addr, err)}
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return Check{Name: "speech.health_grpc", Pass: false, Message: fmt.Sprintf("%s reports %s", addr, resp.GetStatus())}
	}
	return Check{Name: "speech.health_grpc", Pass: true, Message: fmt.Sprintf("serving at %s", addr)}
}

// checkMicrophone verifies the local recognizer has a usable default input.
func checkMicrophone(ctx context.Context) Check {
	dev, err := audio.DefaultInput(ctx)
	if err != nil {
		return Check{Name: "audio.input", Pass: false, Message: err.Error()}
	}
	return Check{Name: "audio.input", Pass: true, Message: fmt.Sprintf("default input %q (%s)", dev.ID, dev.State)}
}

func checkCredential(envFile string, envVar string) Check {
	if _, err := assistant.LoadAPIKey(envFile, envVar); err != nil {
		var credErr *assistant.CredentialError
		if errors.As(err, &credErr) {
			return Check{Name: "ai.credential", Pass: false, Message: fmt.Sprintf("API key not found. Set %s.", credErr.Env)}
		}
		return Check{Name: "ai.credential", Pass: false, Message: err.Error()}
	}
	return Check{Name: "ai.credential", Pass: true, Message: fmt.Sprintf("%s is set", envVar)}
}

func checkRegistry(path string) Check {
	if path == "" {
		return Check{Name: "registry", Pass: false, Message: "registry path is not resolved"}
	}
	reg, err := registry.Load(path)
	if err != nil {
		return Check{Name: "registry", Pass: false, Message: err.Error()}
	}
	return Check{Name: "registry", Pass: true, Message: fmt.Sprintf("%d apps in %s", len(reg.Names()), path)}
}
