// Package registry persists the spoken-name to executable-path map shared
// with external launchers through vc_apps.json.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// ErrEmptyName is returned when inserting an app without a name.
var ErrEmptyName = errors.New("app name must not be empty")

// Registry is a file-backed map of lower-cased app names to executable paths.
type Registry struct {
	path string

	// fileMu orders file reads against read-modify-write sequences.
	fileMu sync.Mutex

	mu   sync.RWMutex
	apps map[string]string
}

// Load reads the registry at path. A missing file yields an empty registry.
func Load(path string) (*Registry, error) {
	r := &Registry{path: path, apps: map[string]string{}}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Registry) Path() string {
	return r.path
}

// Reload replaces in-memory entries with the current file contents.
func (r *Registry) Reload() error {
	r.fileMu.Lock()
	defer r.fileMu.Unlock()

	apps, err := readFile(r.path)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.apps = apps
	r.mu.Unlock()
	return nil
}

// LoadAll returns a copy of every entry.
func (r *Registry) LoadAll() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]string, len(r.apps))
	for name, path := range r.apps {
		out[name] = path
	}
	return out
}

// Lookup matches name case-insensitively.
func (r *Registry) Lookup(name string) (string, bool) {
	key := normalizeName(name)
	if key == "" {
		return "", false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	path, ok := r.apps[key]
	return path, ok
}

// Insert adds or replaces an entry in memory. Call Persist to write it.
func (r *Registry) Insert(name string, path string) error {
	key := normalizeName(name)
	if key == "" {
		return ErrEmptyName
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return fmt.Errorf("executable path for %q must not be empty", key)
	}

	r.mu.Lock()
	r.apps[key] = path
	r.mu.Unlock()
	return nil
}

// Remove deletes an entry in memory and reports whether it existed.
func (r *Registry) Remove(name string) bool {
	key := normalizeName(name)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.apps[key]; !ok {
		return false
	}
	delete(r.apps, key)
	return true
}

// Names returns registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.apps))
	for name := range r.apps {
		names = append(names, name)
	}
	r.mu.RUnlock()

	sort.Strings(names)
	return names
}

// Add inserts an entry and persists it without a concurrent Reload
// discarding the new entry in between.
func (r *Registry) Add(name string, path string) error {
	r.fileMu.Lock()
	defer r.fileMu.Unlock()

	if err := r.Insert(name, path); err != nil {
		return err
	}
	return r.persistLocked()
}

// Delete removes an entry and persists the result. It reports whether the
// entry existed; nothing is written when it did not.
func (r *Registry) Delete(name string) (bool, error) {
	r.fileMu.Lock()
	defer r.fileMu.Unlock()

	if !r.Remove(name) {
		return false, nil
	}
	return true, r.persistLocked()
}

// Persist writes the registry atomically via temp file and rename.
func (r *Registry) Persist() error {
	r.fileMu.Lock()
	defer r.fileMu.Unlock()
	return r.persistLocked()
}

func (r *Registry) persistLocked() error {
	r.mu.RLock()
	payload, err := json.MarshalIndent(r.apps, "", "  ")
	r.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("encode registry: %w", err)
	}
	payload = append(payload, '\n')

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create registry dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".vc_apps-*.json")
	if err != nil {
		return fmt.Errorf("create registry temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write registry temp file: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod registry temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close registry temp file: %w", err)
	}
	if err := os.Rename(tmpPath, r.path); err != nil {
		return fmt.Errorf("replace registry %q: %w", r.path, err)
	}
	return nil
}

func readFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("read registry %q: %w", path, err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return map[string]string{}, nil
	}

	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode registry %q: %w", path, err)
	}

	apps := make(map[string]string, len(raw))
	for name, exe := range raw {
		key := normalizeName(name)
		if key == "" {
			continue
		}
		apps[key] = exe
	}
	return apps, nil
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
