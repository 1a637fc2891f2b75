package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dshills/conscreen/internal/config/loader"
	"github.com/dshills/conscreen/internal/console"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "CONSCREEN_"

// maxIncludeDepth bounds nested include directives in config files.
const maxIncludeDepth = 8

// Config holds all conscreen settings.
type Config struct {
	Console ConsoleConfig
	Runner  RunnerConfig
	Logging LoggingConfig
	Scripts ScriptsConfig

	// Source is the config file that was read, empty if none.
	Source string
}

// ConsoleConfig configures the screen buffer adapter.
type ConsoleConfig struct {
	// SizeMode is how buffer dimensions are narrowed to 8 bits ("strict", "truncate").
	SizeMode string
}

// RunnerConfig configures the frame loop.
type RunnerConfig struct {
	// FrameInterval is the delay between tick calls.
	FrameInterval time.Duration

	// MaxFrames stops the loop after this many ticks. Zero means unlimited.
	MaxFrames int

	// ExecutionTimeout bounds each script call.
	ExecutionTimeout time.Duration

	// Watch reloads the script when its file changes.
	Watch bool
}

// LoggingConfig configures the application logger.
type LoggingConfig struct {
	// Level is the minimum level ("debug", "info", "warn", "error").
	Level string

	// File routes logs to a rotating file instead of stderr.
	File string

	// MaxSizeMB is the size at which the log file rotates.
	MaxSizeMB int

	// MaxBackups is the number of rotated files kept.
	MaxBackups int

	// MaxAgeDays is how long rotated files are kept. Zero keeps them forever.
	MaxAgeDays int

	// Compress gzips rotated files.
	Compress bool
}

// ScriptsConfig configures script lookup.
type ScriptsConfig struct {
	// Paths are extra directories searched for scripts by name,
	// before the default locations.
	Paths []string
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Console: ConsoleConfig{
			SizeMode: console.SizeStrict.String(),
		},
		Runner: RunnerConfig{
			FrameInterval:    50 * time.Millisecond,
			ExecutionTimeout: 5 * time.Second,
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "conscreen", "config.toml")
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "conscreen", "config.toml")
}

// Load builds a Config from defaults, the TOML file at path and the
// environment. A missing file is not an error. An empty path uses
// DefaultPath.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	cfg := Default()

	if path != "" {
		fileData, err := loader.NewTOMLLoader(path).LoadWithIncludes(path, maxIncludeDepth)
		if err != nil {
			return nil, err
		}
		if fileData != nil {
			if unknown, err := cfg.Apply(fileData); err != nil {
				return nil, fmt.Errorf("config file %s: %w", path, err)
			} else if len(unknown) > 0 {
				return nil, &ValidationError{
					Path:    unknown[0],
					Message: fmt.Sprintf("unknown setting in %s", path),
					Value:   strings.Join(unknown, ", "),
					Code:    ErrCodeUnknownSetting,
				}
			}
			cfg.Source = path
		}
	}

	envData, err := loader.NewEnvLoader(EnvPrefix).Load()
	if err != nil {
		return nil, err
	}
	// Unknown CONSCREEN_* variables are ignored.
	if _, err := cfg.Apply(envData); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setting binds a dotted path to a Config field.
type setting struct {
	path  string
	apply func(c *Config, v any) error
}

func settings() []setting {
	return []setting{
		{"console.size_mode", func(c *Config, v any) error { return setString(&c.Console.SizeMode, "console.size_mode", v) }},
		{"runner.frame_interval", func(c *Config, v any) error { return setDuration(&c.Runner.FrameInterval, "runner.frame_interval", v) }},
		{"runner.max_frames", func(c *Config, v any) error { return setInt(&c.Runner.MaxFrames, "runner.max_frames", v) }},
		{"runner.execution_timeout", func(c *Config, v any) error {
			return setDuration(&c.Runner.ExecutionTimeout, "runner.execution_timeout", v)
		}},
		{"runner.watch", func(c *Config, v any) error { return setBool(&c.Runner.Watch, "runner.watch", v) }},
		{"logging.level", func(c *Config, v any) error { return setString(&c.Logging.Level, "logging.level", v) }},
		{"logging.file", func(c *Config, v any) error { return setString(&c.Logging.File, "logging.file", v) }},
		{"logging.max_size_mb", func(c *Config, v any) error { return setInt(&c.Logging.MaxSizeMB, "logging.max_size_mb", v) }},
		{"logging.max_backups", func(c *Config, v any) error { return setInt(&c.Logging.MaxBackups, "logging.max_backups", v) }},
		{"logging.max_age_days", func(c *Config, v any) error { return setInt(&c.Logging.MaxAgeDays, "logging.max_age_days", v) }},
		{"logging.compress", func(c *Config, v any) error { return setBool(&c.Logging.Compress, "logging.compress", v) }},
		{"scripts.paths", func(c *Config, v any) error { return setStrings(&c.Scripts.Paths, "scripts.paths", v) }},
	}
}

// Apply sets every known setting present in data, a nested map as
// produced by the loaders. It returns the sorted paths it did not
// recognize.
func (c *Config) Apply(data map[string]any) ([]string, error) {
	known := make(map[string]bool)
	var errs []error
	for _, s := range settings() {
		known[s.path] = true
		v, ok := getPath(data, s.path)
		if !ok {
			continue
		}
		if err := s.apply(c, v); err != nil {
			errs = append(errs, err)
		}
	}

	var unknown []string
	collectLeaves(data, "", func(path string) {
		if !known[path] {
			unknown = append(unknown, path)
		}
	})
	sort.Strings(unknown)

	return unknown, errors.Join(errs...)
}

// Validate checks that every setting has a usable value.
func (c *Config) Validate() error {
	var errs []error

	if _, err := console.ParseSizeMode(c.Console.SizeMode); err != nil {
		errs = append(errs, &ValidationError{
			Path: "console.size_mode", Message: "must be strict or truncate",
			Value: c.Console.SizeMode, Code: ErrCodeInvalidEnum,
		})
	}
	if c.Runner.FrameInterval < 0 {
		errs = append(errs, &ValidationError{
			Path: "runner.frame_interval", Message: "cannot be negative",
			Value: c.Runner.FrameInterval, Code: ErrCodeOutOfRange,
		})
	}
	if c.Runner.MaxFrames < 0 {
		errs = append(errs, &ValidationError{
			Path: "runner.max_frames", Message: "cannot be negative",
			Value: c.Runner.MaxFrames, Code: ErrCodeOutOfRange,
		})
	}
	if c.Runner.ExecutionTimeout <= 0 {
		errs = append(errs, &ValidationError{
			Path: "runner.execution_timeout", Message: "must be positive",
			Value: c.Runner.ExecutionTimeout, Code: ErrCodeOutOfRange,
		})
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, &ValidationError{
			Path: "logging.level", Message: "must be debug, info, warn or error",
			Value: c.Logging.Level, Code: ErrCodeInvalidEnum,
		})
	}
	if c.Logging.MaxSizeMB < 0 || c.Logging.MaxBackups < 0 || c.Logging.MaxAgeDays < 0 {
		errs = append(errs, &ValidationError{
			Path: "logging", Message: "rotation limits cannot be negative",
			Value: fmt.Sprintf("%d/%d/%d", c.Logging.MaxSizeMB, c.Logging.MaxBackups, c.Logging.MaxAgeDays),
			Code:  ErrCodeOutOfRange,
		})
	}

	return errors.Join(errs...)
}

// SizeMode returns the parsed console size mode.
// Call Validate first; an invalid mode falls back to strict.
func (c *Config) SizeMode() console.SizeMode {
	mode, err := console.ParseSizeMode(c.Console.SizeMode)
	if err != nil {
		return console.SizeStrict
	}
	return mode
}

// ScriptConfig returns the table passed to a script's setup function.
func (c *Config) ScriptConfig() map[string]any {
	return map[string]any{
		"frame_interval": c.Runner.FrameInterval.Seconds(),
		"max_frames":     c.Runner.MaxFrames,
		"size_mode":      c.Console.SizeMode,
	}
}

func setString(dst *string, path string, v any) error {
	s, ok := v.(string)
	if !ok {
		return &TypeError{Path: path, Expected: "string", Actual: typeName(v)}
	}
	*dst = s
	return nil
}

func setInt(dst *int, path string, v any) error {
	switch val := v.(type) {
	case int:
		*dst = val
	case int64:
		*dst = int(val)
	case float64:
		if val != float64(int64(val)) {
			return &TypeError{Path: path, Expected: "int", Actual: "float64"}
		}
		*dst = int(val)
	default:
		return &TypeError{Path: path, Expected: "int", Actual: typeName(v)}
	}
	return nil
}

func setBool(dst *bool, path string, v any) error {
	b, ok := v.(bool)
	if !ok {
		return &TypeError{Path: path, Expected: "bool", Actual: typeName(v)}
	}
	*dst = b
	return nil
}

// setDuration accepts a duration string, a time.Duration or a number of
// milliseconds.
func setDuration(dst *time.Duration, path string, v any) error {
	switch val := v.(type) {
	case time.Duration:
		*dst = val
	case string:
		d, err := time.ParseDuration(val)
		if err != nil {
			return &TypeError{Path: path, Expected: "duration", Actual: fmt.Sprintf("string %q", val)}
		}
		*dst = d
	case int64:
		*dst = time.Duration(val) * time.Millisecond
	case int:
		*dst = time.Duration(val) * time.Millisecond
	case float64:
		*dst = time.Duration(val * float64(time.Millisecond))
	default:
		return &TypeError{Path: path, Expected: "duration", Actual: typeName(v)}
	}
	return nil
}

func setStrings(dst *[]string, path string, v any) error {
	switch val := v.(type) {
	case []string:
		*dst = append([]string(nil), val...)
	case []any:
		out := make([]string, len(val))
		for i, item := range val {
			s, ok := item.(string)
			if !ok {
				return &TypeError{Path: path, Expected: "[]string", Actual: "[]" + typeName(item)}
			}
			out[i] = s
		}
		*dst = out
	case string:
		*dst = filepath.SplitList(val)
	default:
		return &TypeError{Path: path, Expected: "[]string", Actual: typeName(v)}
	}
	return nil
}

// getPath retrieves a value from a nested map using a dot-separated path.
func getPath(m map[string]any, path string) (any, bool) {
	var current any = m
	for _, part := range strings.Split(path, ".") {
		cm, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = cm[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// collectLeaves calls fn with the dotted path of every non-map value.
func collectLeaves(m map[string]any, prefix string, fn func(string)) {
	for key, val := range m {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		if sub, ok := val.(map[string]any); ok {
			collectLeaves(sub, path, fn)
			continue
		}
		fn(path)
	}
}

// typeName returns the type name for error messages.
func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	switch v.(type) {
	case string:
		return "string"
	case int, int64:
		return "int"
	case float64:
		return "float64"
	case bool:
		return "bool"
	case time.Duration:
		return "duration"
	case []any:
		return "array"
	case map[string]any:
		return "table"
	default:
		return fmt.Sprintf("%T", v)
	}
}
