package config

import (
	"errors"
	"fmt"
	"os"
)

// Loaded is a parsed configuration plus the paths derived from it.
type Loaded struct {
	Path     string
	Exists   bool
	Config   Config
	Warnings []Warning

	// RegistryPath and EnvFile are resolved once so every command agrees on
	// which vc_apps.json and .env it reads.
	RegistryPath string
	EnvFile      string
}

// Load reads explicitPath (or the XDG default), applies it over Default,
// and resolves derived paths. A missing file yields defaults plus a warning.
func Load(explicitPath string) (Loaded, error) {
	path, err := ResolvePath(explicitPath)
	if err != nil {
		return Loaded{}, err
	}

	loaded := Loaded{Path: path, Config: Default()}

	content, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		warnings, verr := Validate(loaded.Config)
		if verr != nil {
			return Loaded{}, verr
		}
		loaded.Warnings = append([]Warning{{Message: fmt.Sprintf("config file %q not found; using defaults", path)}}, warnings...)
	case err != nil:
		return Loaded{}, fmt.Errorf("read config %q: %w", path, err)
	default:
		cfg, warnings, perr := Parse(string(content), loaded.Config)
		if perr != nil {
			return Loaded{}, fmt.Errorf("parse config %q: %w", path, perr)
		}
		loaded.Exists = true
		loaded.Config = cfg
		loaded.Warnings = warnings
	}

	loaded.RegistryPath, err = ResolveRegistryPath(loaded.Config)
	if err != nil {
		return Loaded{}, err
	}
	loaded.EnvFile = ResolveEnvFile(loaded.Config, path)
	return loaded, nil
}
