package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if strings.TrimSpace(cfg.AI.BaseURL) == "" {
		return nil, fmt.Errorf("ai.base_url must not be empty")
	}
	if u, err := url.Parse(cfg.AI.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("ai.base_url must be an absolute URL")
	}
	if strings.TrimSpace(cfg.AI.Model) == "" {
		return nil, fmt.Errorf("ai.model must not be empty")
	}
	if strings.TrimSpace(cfg.AI.APIKeyEnv) == "" {
		return nil, fmt.Errorf("ai.api_key_env must not be empty")
	}
	if cfg.AI.TimeoutMS <= 0 {
		return nil, fmt.Errorf("ai.timeout_ms must be > 0")
	}
	if strings.HasPrefix(cfg.AI.BaseURL, "http://") {
		warnings = append(warnings, Warning{Message: "ai.base_url is not https; the API key is sent in clear text"})
	}

	switch cfg.Speech.Backend {
	case SpeechBackendCommand:
		if len(cfg.Speech.Command.Argv) == 0 {
			return nil, fmt.Errorf("speech.command must not be empty when speech.backend=command")
		}
	case SpeechBackendWebSocket:
		u, err := url.Parse(cfg.Speech.URL)
		if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") {
			return nil, fmt.Errorf("speech.url must be a ws:// or wss:// URL when speech.backend=websocket")
		}
	case "":
		return nil, fmt.Errorf("speech.backend must not be empty")
	default:
		return nil, fmt.Errorf("speech.backend must be one of: command, websocket")
	}

	if cfg.Confirmation.TimeoutMS <= 0 {
		return nil, fmt.Errorf("confirmation.timeout_ms must be > 0")
	}
	if len(cfg.Picker.Argv) == 0 {
		return nil, fmt.Errorf("picker_cmd must not be empty")
	}
	if cfg.Launcher.Raw != "" && len(cfg.Launcher.Argv) == 0 {
		return nil, fmt.Errorf("launcher_cmd is configured but empty")
	}

	backend := strings.ToLower(strings.TrimSpace(cfg.Indicator.Backend))
	if backend == "" {
		return nil, fmt.Errorf("indicator.backend must not be empty")
	}
	if backend != "hypr" && backend != "desktop" {
		return nil, fmt.Errorf("indicator.backend must be one of: hypr, desktop")
	}
	if backend == "desktop" && strings.TrimSpace(cfg.Indicator.DesktopAppName) == "" {
		return nil, fmt.Errorf("indicator.desktop_app_name must not be empty when indicator.backend=desktop")
	}
	if cfg.Indicator.ErrorTimeoutMS < 0 {
		return nil, fmt.Errorf("indicator.error_timeout_ms must be >= 0")
	}
	if cfg.Indicator.ReplyBaseMS < 0 || cfg.Indicator.ReplyPerCharMS < 0 {
		return nil, fmt.Errorf("indicator.reply_base_ms and indicator.reply_per_char_ms must be >= 0")
	}
	if cfg.Indicator.ReplyMaxMS > 0 && cfg.Indicator.ReplyMaxMS < cfg.Indicator.ReplyBaseMS {
		return nil, fmt.Errorf("indicator.reply_max_ms must be >= indicator.reply_base_ms")
	}

	return warnings, nil
}
