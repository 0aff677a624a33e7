package config

import (
	"os"
	"path/filepath"
	"strings"
)

const defaultBaseDir = ".frontdesk"

// Paths locates the config file, logs and the booking database.
type Paths struct {
	Base   string // ~/.frontdesk
	Config string // ~/.frontdesk/config.yaml
	Logs   string // ~/.frontdesk/logs
	Data   string // ~/.frontdesk/data
	DB     string // ~/.frontdesk/data/frontdesk.db
}

// ResolvePaths computes all standard paths from the home directory.
// If FRONTDESK_HOME is set, it overrides the default base directory.
func ResolvePaths() (Paths, error) {
	base := os.Getenv("FRONTDESK_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Paths{}, err
		}
		base = filepath.Join(home, defaultBaseDir)
	}

	return PathsAt(base), nil
}

// PathsAt lays out the standard files under base.
func PathsAt(base string) Paths {
	data := filepath.Join(base, "data")
	return Paths{
		Base:   base,
		Config: filepath.Join(base, "config.yaml"),
		Logs:   filepath.Join(base, "logs"),
		Data:   data,
		DB:     filepath.Join(data, "frontdesk.db"),
	}
}

// EnsureDirs creates the base, logs and data directories. They are owner-only
// because the data directory holds caller phone numbers.
func (p Paths) EnsureDirs() error {
	for _, d := range []string{p.Base, p.Logs, p.Data} {
		if err := os.MkdirAll(d, 0o700); err != nil {
			return err
		}
	}
	return nil
}

// StorePath returns the configured booking database path, falling back to
// the default under the data directory.
func (p Paths) StorePath(cfg StoreConfig) string {
	if cfg.Path != "" {
		return cfg.Path
	}
	return p.DB
}

// LogPath resolves the configured log file. A bare file name lands in the
// logs directory; "" means stderr only.
func (p Paths) LogPath(cfg LoggingConfig) string {
	if cfg.File == "" || filepath.IsAbs(cfg.File) || strings.ContainsRune(cfg.File, filepath.Separator) {
		return cfg.File
	}
	return filepath.Join(p.Logs, cfg.File)
}

// blockedKeys are keys that must never appear in config paths.
var blockedKeys = map[string]bool{
	"__proto__":   true,
	"prototype":   true,
	"constructor": true,
}

// secretPaths hold credentials that "config get" masks.
var secretPaths = map[string]bool{
	"provider.apiKey":       true,
	"gateway.auth.token":    true,
	"gateway.auth.password": true,
}

// IsSecretPath reports whether path names a credential.
func IsSecretPath(path []string) bool {
	return secretPaths[strings.Join(path, ".")]
}

// ParseConfigPath splits a dot-separated config path into segments.
// Returns an error if any segment is blocked or empty.
func ParseConfigPath(raw string) ([]string, error) {
	if raw == "" {
		return nil, &ConfigError{Message: "empty config path"}
	}
	parts := strings.Split(raw, ".")
	for _, p := range parts {
		if p == "" {
			return nil, &ConfigError{Message: "config path contains empty segment"}
		}
		if blockedKeys[p] {
			return nil, &ConfigError{Message: "config path contains blocked key: " + p}
		}
	}
	return parts, nil
}

// GetValueAtPath traverses a nested map using the given path segments.
func GetValueAtPath(root map[string]any, path []string) (any, bool) {
	current := any(root)
	for _, key := range path {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// SetValueAtPath sets a value in a nested map, creating intermediate maps as needed.
func SetValueAtPath(root map[string]any, path []string, value any) {
	current := root
	for _, key := range path[:len(path)-1] {
		next, ok := current[key]
		if !ok {
			next = map[string]any{}
			current[key] = next
		}
		m, ok := next.(map[string]any)
		if !ok {
			m = map[string]any{}
			current[key] = m
		}
		current = m
	}
	current[path[len(path)-1]] = value
}

// UnsetValueAtPath removes a value at the given path. Returns true if removed.
func UnsetValueAtPath(root map[string]any, path []string) bool {
	current := root
	for _, key := range path[:len(path)-1] {
		next, ok := current[key]
		if !ok {
			return false
		}
		m, ok := next.(map[string]any)
		if !ok {
			return false
		}
		current = m
	}
	last := path[len(path)-1]
	if _, ok := current[last]; !ok {
		return false
	}
	delete(current, last)
	return true
}
