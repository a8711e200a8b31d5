// Package config manages promptscope configuration.
package config

import (
	"fmt"

	"github.com/ankit-chaubey/promptscope/core"
	"github.com/ankit-chaubey/promptscope/core/exif"
	"github.com/ankit-chaubey/promptscope/core/image"
)

// Config represents the application configuration.
type Config struct {
	Output   OutputConfig           `yaml:"output"`
	Source   SourceConfig           `yaml:"source"`
	EXIF     EXIFConfig             `yaml:"exif"`
	PNG      PNGConfig              `yaml:"png"`
	Keywords map[string]KeywordRule `yaml:"keywords,omitempty"`
}

// OutputConfig controls rendering.
type OutputConfig struct {
	Format    string `yaml:"format"`     // text or json
	KnownOnly bool   `yaml:"known_only"` // hide keywords without a rule
}

// SourceConfig controls how files are opened.
type SourceConfig struct {
	Mmap bool `yaml:"mmap"`
}

// EXIFConfig controls UserComment lookup.
type EXIFConfig struct {
	Strategy      string `yaml:"strategy"`
	SearchWindow  int    `yaml:"search_window"`
	MaxUTF16Units int    `yaml:"max_utf16_units"`
}

// PNGConfig contains PNG text chunk limits.
type PNGConfig struct {
	MaxInflateBytes int64 `yaml:"max_inflate_bytes"`
}

// KeywordRule adds or overrides a renderer rule.
type KeywordRule struct {
	Label string `yaml:"label"`
	JSON  bool   `yaml:"json"`
}

const (
	FormatText = "text"
	FormatJSON = "json"
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Output: OutputConfig{
			Format: FormatText,
		},
		Source: SourceConfig{
			Mmap: true,
		},
		EXIF: EXIFConfig{
			Strategy:      string(exif.Structural),
			SearchWindow:  exif.DefaultSearchWindow,
			MaxUTF16Units: exif.DefaultMaxUnits,
		},
		PNG: PNGConfig{
			MaxInflateBytes: image.DefaultMaxInflate,
		},
	}
}

// Validate checks enumerated values and limits.
func (c *Config) Validate() error {
	switch c.Output.Format {
	case FormatText, FormatJSON:
	default:
		return fmt.Errorf("unknown output format %q (want %s or %s)", c.Output.Format, FormatText, FormatJSON)
	}
	if _, err := exif.ParseStrategy(c.EXIF.Strategy); err != nil {
		return err
	}
	if c.EXIF.SearchWindow <= 0 {
		return fmt.Errorf("exif.search_window must be positive, got %d", c.EXIF.SearchWindow)
	}
	if c.EXIF.MaxUTF16Units <= 0 {
		return fmt.Errorf("exif.max_utf16_units must be positive, got %d", c.EXIF.MaxUTF16Units)
	}
	if c.PNG.MaxInflateBytes <= 0 {
		return fmt.Errorf("png.max_inflate_bytes must be positive, got %d", c.PNG.MaxInflateBytes)
	}
	return nil
}

// ExtractOptions converts the configuration into extractor options.
func (c *Config) ExtractOptions() (image.Options, error) {
	s, err := exif.ParseStrategy(c.EXIF.Strategy)
	if err != nil {
		return image.Options{}, err
	}
	return image.Options{
		Locator:      exif.NewLocator(s, c.EXIF.MaxUTF16Units),
		SearchWindow: c.EXIF.SearchWindow,
		MaxInflate:   c.PNG.MaxInflateBytes,
	}, nil
}

// Rules converts the configured keywords into renderer rules.
func (c *Config) Rules() map[string]core.Rule {
	rules := make(map[string]core.Rule, len(c.Keywords))
	for k, v := range c.Keywords {
		p := core.Verbatim
		if v.JSON {
			p = core.JSONOrVerbatim
		}
		rules[k] = core.Rule{Label: v.Label, Policy: p}
	}
	return rules
}
