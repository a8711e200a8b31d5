package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ankit-chaubey/promptscope/core"
	"github.com/ankit-chaubey/promptscope/core/exif"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Output.Format != FormatText {
		t.Errorf("expected default format %q, got %q", FormatText, cfg.Output.Format)
	}
	if !cfg.Source.Mmap {
		t.Error("expected mmap to be enabled by default")
	}
	if cfg.EXIF.Strategy != "structural" {
		t.Errorf("expected structural strategy, got %s", cfg.EXIF.Strategy)
	}
	if cfg.EXIF.SearchWindow != 65536 {
		t.Errorf("expected 64 KiB search window, got %d", cfg.EXIF.SearchWindow)
	}
	if cfg.EXIF.MaxUTF16Units != 5000 {
		t.Errorf("expected 5000 UTF-16 units, got %d", cfg.EXIF.MaxUTF16Units)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"bad format", func(c *Config) { c.Output.Format = "xml" }, "unknown output format"},
		{"bad strategy", func(c *Config) { c.EXIF.Strategy = "guess" }, "unknown exif strategy"},
		{"zero window", func(c *Config) { c.EXIF.SearchWindow = 0 }, "search_window"},
		{"negative units", func(c *Config) { c.EXIF.MaxUTF16Units = -1 }, "max_utf16_units"},
		{"zero inflate", func(c *Config) { c.PNG.MaxInflateBytes = 0 }, "max_inflate_bytes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("expected error containing %q, got %v", tt.errMsg, err)
			}
		})
	}
}

func TestConfig_ExtractOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EXIF.Strategy = "scan"
	cfg.EXIF.SearchWindow = 1024
	cfg.EXIF.MaxUTF16Units = 10
	cfg.PNG.MaxInflateBytes = 2048

	opts, err := cfg.ExtractOptions()
	if err != nil {
		t.Fatalf("ExtractOptions failed: %v", err)
	}
	if opts.Locator.Strategy != exif.Scan {
		t.Errorf("expected scan strategy, got %s", opts.Locator.Strategy)
	}
	if opts.Locator.Decoder.MaxUnits != 10 {
		t.Errorf("expected 10 units, got %d", opts.Locator.Decoder.MaxUnits)
	}
	if opts.SearchWindow != 1024 || opts.MaxInflate != 2048 {
		t.Errorf("unexpected limits: window=%d inflate=%d", opts.SearchWindow, opts.MaxInflate)
	}
}

func TestConfig_Rules(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Keywords = map[string]KeywordRule{
		"sd-metadata": {Label: "SD Metadata", JSON: true},
		"Software":    {},
	}

	rules := cfg.Rules()
	if got := rules["sd-metadata"]; got.Label != "SD Metadata" || got.Policy != core.JSONOrVerbatim {
		t.Errorf("unexpected sd-metadata rule: %+v", got)
	}
	if got := rules["Software"]; got.Policy != core.Verbatim {
		t.Errorf("expected verbatim policy for Software, got %+v", got)
	}
}

func TestLoader_SaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "nested", "config.yaml")

	loader := NewLoaderWithPath(configPath)

	cfg := DefaultConfig()
	cfg.Output.Format = FormatJSON
	cfg.Keywords = map[string]KeywordRule{"Software": {Label: "Software"}}

	if err := loader.Save(cfg); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}
	if !loader.Exists() {
		t.Fatal("expected config file to exist after save")
	}

	loaded, err := loader.Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if loaded.Output.Format != FormatJSON {
		t.Errorf("expected json format, got %s", loaded.Output.Format)
	}
	if loaded.Keywords["Software"].Label != "Software" {
		t.Errorf("expected Software keyword rule, got %+v", loaded.Keywords)
	}
}

func TestLoader_LoadMissingFile(t *testing.T) {
	loader := NewLoaderWithPath(filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("expected defaults for missing file, got error: %v", err)
	}
	if cfg.EXIF.Strategy != "structural" {
		t.Errorf("expected default strategy, got %s", cfg.EXIF.Strategy)
	}
}

func TestLoader_LoadPartialFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("exif:\n  strategy: scan\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := NewLoaderWithPath(configPath).Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.EXIF.Strategy != "scan" {
		t.Errorf("expected scan strategy, got %s", cfg.EXIF.Strategy)
	}
	// untouched keys keep their defaults
	if cfg.EXIF.SearchWindow != exif.DefaultSearchWindow || !cfg.Source.Mmap {
		t.Errorf("expected defaults to survive a partial file, got %+v", cfg)
	}
}

func TestLoader_LoadInvalidFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("output:\n  format: xml\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewLoaderWithPath(configPath).Load(); err == nil {
		t.Error("expected error for invalid output format")
	}

	if err := os.WriteFile(configPath, []byte("output: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewLoaderWithPath(configPath).Load(); err == nil {
		t.Error("expected error for malformed yaml")
	}
}

func TestLoader_Init(t *testing.T) {
	loader := NewLoaderWithPath(filepath.Join(t.TempDir(), "config.yaml"))

	if err := loader.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if err := loader.Init(); err == nil {
		t.Error("expected error when config already exists")
	}
}

func TestGetEnvBool(t *testing.T) {
	for _, v := range []string{"true", "1", "YES"} {
		t.Setenv("PROMPTSCOPE_TEST_BOOL", v)
		if !GetEnvBool("PROMPTSCOPE_TEST_BOOL") {
			t.Errorf("expected %q to be true", v)
		}
	}
	t.Setenv("PROMPTSCOPE_TEST_BOOL", "off")
	if GetEnvBool("PROMPTSCOPE_TEST_BOOL") {
		t.Error("expected off to be false")
	}
	if got := GetEnvOrDefault("PROMPTSCOPE_TEST_UNSET", "fallback"); got != "fallback" {
		t.Errorf("expected fallback, got %s", got)
	}
}

func TestLoader_PathIsDirectory(t *testing.T) {
	dir := t.TempDir()
	loader := NewLoaderWithPath(dir)

	if loader.ConfigPath() != dir {
		t.Errorf("expected path %s, got %s", dir, loader.ConfigPath())
	}
	if loader.Exists() {
		t.Error("a directory should not count as an existing config file")
	}
	if _, err := loader.Load(); err == nil {
		t.Error("expected error loading a directory")
	}
}
