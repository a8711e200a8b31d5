package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	ConfigDirName  = ".promptscope"
	ConfigFileName = "config.yaml"
)

// Loader reads and writes one config file.
type Loader struct {
	path string
}

// NewLoader returns a Loader for ~/.promptscope/config.yaml.
func NewLoader() (*Loader, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to locate home directory: %w", err)
	}
	return &Loader{path: filepath.Join(home, ConfigDirName, ConfigFileName)}, nil
}

func NewLoaderWithPath(path string) *Loader {
	return &Loader{path: path}
}

func (l *Loader) ConfigPath() string { return l.path }

// Load overlays the file on DefaultConfig. A missing file is not an error.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(l.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return cfg, nil
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", l.path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", l.path, err)
	}
	return cfg, nil
}

func (l *Loader) Save(cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(l.path, data, 0o644)
}

func (l *Loader) Exists() bool {
	fi, err := os.Stat(l.path)
	return err == nil && fi.Mode().IsRegular()
}

// Init writes DefaultConfig, refusing to replace an existing file.
func (l *Loader) Init() error {
	if l.Exists() {
		return fmt.Errorf("config file already exists: %s", l.path)
	}
	return l.Save(DefaultConfig())
}

// GetEnvOrDefault returns the value of key, or def when it is unset or empty.
func GetEnvOrDefault(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

// GetEnvBool reports whether key is set to true, 1 or yes (any case).
func GetEnvBool(key string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "true", "1", "yes":
		return true
	}
	return false
}
