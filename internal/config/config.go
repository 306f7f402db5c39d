package config

import (
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dshills/inkblock/internal/config/loader"
)

// Config holds every inkblock setting.
type Config struct {
	Editor EditorConfig `toml:"editor" yaml:"editor"`
	Log    LogConfig    `toml:"log" yaml:"log"`
}

// EditorConfig controls document and history behavior.
type EditorConfig struct {
	Tree           bool `toml:"tree" yaml:"tree"`
	MaxDepth       int  `toml:"maxDepth" yaml:"maxDepth"`
	MaxUndoEntries int  `toml:"maxUndoEntries" yaml:"maxUndoEntries"`
	AllowUndo      bool `toml:"allowUndo" yaml:"allowUndo"`
	VerifyTree     bool `toml:"verifyTree" yaml:"verifyTree"`
}

// LogConfig controls the logger.
type LogConfig struct {
	Level       string `toml:"level" yaml:"level"`
	Development bool   `toml:"development" yaml:"development"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Editor: EditorConfig{
			MaxDepth:       4,
			MaxUndoEntries: 1000,
			AllowUndo:      true,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	return LoadFS(loader.DefaultFS(), path)
}

// LoadFS is Load reading through fsys.
func LoadFS(fsys loader.FileSystem, path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := loader.ForPath(fsys, path).Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Apply(data); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides settings from environment variables named
// PREFIX_SECTION_SETTING, e.g. INKBLOCK_EDITOR_MAX_DEPTH, plus the short
// forms INKBLOCK_TREE, INKBLOCK_MAX_DEPTH, INKBLOCK_MAX_UNDO and
// INKBLOCK_LOG_LEVEL.
func (c *Config) ApplyEnv(prefix string) error {
	if !strings.HasSuffix(prefix, "_") {
		prefix += "_"
	}
	data, err := loader.NewEnvLoader(prefix).Load()
	if err != nil {
		return err
	}
	if err := c.Apply(data); err != nil {
		return fmt.Errorf("environment: %w", err)
	}
	return c.Validate()
}

// Apply copies known settings from a nested map over c. Unknown paths are
// ignored.
func (c *Config) Apply(data map[string]any) error {
	for _, s := range settings {
		v, ok := loader.Lookup(data, s.path)
		if !ok {
			continue
		}
		if err := s.set(c, v); err != nil {
			return &ValidationError{Path: s.path, Message: err.Error(), Value: v, Err: ErrTypeMismatch}
		}
	}
	return nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Editor.MaxDepth < 0 {
		return &ValidationError{Path: "editor.maxDepth", Message: "must not be negative", Value: c.Editor.MaxDepth, Err: ErrValidationFailed}
	}
	if c.Editor.MaxUndoEntries < 0 {
		return &ValidationError{Path: "editor.maxUndoEntries", Message: "must not be negative", Value: c.Editor.MaxUndoEntries, Err: ErrValidationFailed}
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return &ValidationError{Path: "log.level", Message: "unknown level", Value: c.Log.Level, Err: ErrValidationFailed}
	}
	return nil
}

// Build creates a zap logger for this configuration.
func (l LogConfig) Build() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(l.Level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	if l.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

// ============================================================================
// Setting table
// ============================================================================

type setting struct {
	path string
	set  func(c *Config, v any) error
}

var settings = []setting{
	{"editor.tree", boolSetting(func(c *Config) *bool { return &c.Editor.Tree })},
	{"editor.maxDepth", intSetting(func(c *Config) *int { return &c.Editor.MaxDepth })},
	{"editor.maxUndoEntries", intSetting(func(c *Config) *int { return &c.Editor.MaxUndoEntries })},
	{"editor.allowUndo", boolSetting(func(c *Config) *bool { return &c.Editor.AllowUndo })},
	{"editor.verifyTree", boolSetting(func(c *Config) *bool { return &c.Editor.VerifyTree })},
	{"log.level", stringSetting(func(c *Config) *string { return &c.Log.Level })},
	{"log.development", boolSetting(func(c *Config) *bool { return &c.Log.Development })},
}

func boolSetting(field func(*Config) *bool) func(*Config, any) error {
	return func(c *Config, v any) error {
		b, ok := v.(bool)
		if !ok {
			return fmt.Errorf("expected bool, got %T", v)
		}
		*field(c) = b
		return nil
	}
}

func intSetting(field func(*Config) *int) func(*Config, any) error {
	return func(c *Config, v any) error {
		var n int
		switch x := v.(type) {
		case int:
			n = x
		case int64:
			n = int(x)
		case uint64:
			n = int(x)
		case float64:
			if x != math.Trunc(x) {
				return fmt.Errorf("expected integer, got %v", x)
			}
			n = int(x)
		default:
			return fmt.Errorf("expected integer, got %T", v)
		}
		*field(c) = n
		return nil
	}
}

func stringSetting(field func(*Config) *string) func(*Config, any) error {
	return func(c *Config, v any) error {
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", v)
		}
		*field(c) = s
		return nil
	}
}
