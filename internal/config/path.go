package config

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
)

// ResolvePath returns the explicit path, or hark/config.jsonc under the XDG
// config home.
func ResolvePath(explicit string) (string, error) {
	if strings.TrimSpace(explicit) != "" {
		return explicit, nil
	}
	if xdg.ConfigHome == "" {
		return "", errors.New("unable to resolve XDG config home")
	}
	return filepath.Join(xdg.ConfigHome, "hark", "config.jsonc"), nil
}

// ResolveRegistryPath returns registry.path, or vc_apps.json under the XDG data dir.
func ResolveRegistryPath(cfg Config) (string, error) {
	if path := strings.TrimSpace(cfg.Registry.Path); path != "" {
		return expandUserPath(path), nil
	}
	if xdg.DataHome == "" {
		return "", errors.New("unable to resolve XDG data home")
	}
	return filepath.Join(xdg.DataHome, "hark", "vc_apps.json"), nil
}

// ResolveEnvFile returns ai.env_file, or .env next to the loaded config file.
func ResolveEnvFile(cfg Config, configPath string) string {
	if path := strings.TrimSpace(cfg.AI.EnvFile); path != "" {
		return expandUserPath(path)
	}
	return filepath.Join(filepath.Dir(configPath), ".env")
}

func expandUserPath(raw string) string {
	if raw != "~" && !strings.HasPrefix(raw, "~/") {
		return raw
	}
	if xdg.Home == "" {
		return raw
	}
	return filepath.Join(xdg.Home, strings.TrimPrefix(strings.TrimPrefix(raw, "~"), "/"))
}
