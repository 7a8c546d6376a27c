package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Common errors for configuration loading/saving.
var (
	ErrFileNotFound = errors.New("configuration file not found")
	ErrInvalidJSON  = errors.New("invalid JSON syntax")
	ErrInvalidYAML  = errors.New("invalid YAML syntax")
	ErrInvalid      = errors.New("invalid configuration")
)

// Environment variables read by ApplyEnv.
const (
	EnvScratchDir   = "RESTCLIENT_SCRATCH_DIR"
	EnvMaxEntrySize = "RESTCLIENT_MAX_ENTRY_SIZE"
	EnvLogLevel     = "RESTCLIENT_LOG_LEVEL"
	EnvLogFormat    = "RESTCLIENT_LOG_FORMAT"
	EnvLogFile      = "RESTCLIENT_LOG_FILE"
)

// Config holds the tool settings.
type Config struct {
	// ScratchDir holds intermediate documents. Empty means the system
	// temp directory.
	ScratchDir string `json:"scratchDir,omitempty" yaml:"scratchDir,omitempty"`

	// MaxEntrySize caps the decompressed size of a container entry.
	// Zero means no limit.
	MaxEntrySize int64 `json:"maxEntrySize,omitempty" yaml:"maxEntrySize,omitempty"`

	Log LogConfig `json:"log" yaml:"log"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
	// File mirrors log records as JSON into this file, in addition to stderr.
	File string `json:"file,omitempty" yaml:"file,omitempty"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// DefaultDir returns the configuration directory following the XDG base directory layout.
func DefaultDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "restclient")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".restclient")
	}
	if runtime.GOOS == "darwin" {
		return filepath.Join(home, "Library", "Preferences", "restclient")
	}
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "restclient")
		}
		return filepath.Join(home, "AppData", "Roaming", "restclient")
	}
	return filepath.Join(home, ".config", "restclient")
}

// DefaultPath returns the default configuration file path.
func DefaultPath() string {
	return filepath.Join(DefaultDir(), "config.yaml")
}

// Load reads the configuration at path over the defaults. An empty path
// means DefaultPath, which may be absent.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if explicit {
				return cfg, fmt.Errorf("%w: %s", ErrFileNotFound, path)
			}
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := Parse(data, formatOf(path), &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Parse decodes data over cfg. Unknown fields are rejected.
func Parse(data []byte, format string, cfg *Config) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	if format == "json" {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
		}
		return nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}
	return nil
}

// ApplyEnv overrides cfg with the RESTCLIENT_* variables found by getenv.
func ApplyEnv(cfg *Config, getenv func(string) string) error {
	if v := getenv(EnvScratchDir); v != "" {
		cfg.ScratchDir = v
	}
	if v := getenv(EnvMaxEntrySize); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalid, EnvMaxEntrySize, err)
		}
		cfg.MaxEntrySize = n
	}
	if v := getenv(EnvLogLevel); v != "" {
		cfg.Log.Level = v
	}
	if v := getenv(EnvLogFormat); v != "" {
		cfg.Log.Format = v
	}
	if v := getenv(EnvLogFile); v != "" {
		cfg.Log.File = v
	}
	return cfg.Validate()
}

// Validate checks field values.
func (c Config) Validate() error {
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: unknown log level %q", ErrInvalid, c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalid, c.Log.Format)
	}
	if c.MaxEntrySize < 0 {
		return fmt.Errorf("%w: maxEntrySize must not be negative", ErrInvalid)
	}
	return nil
}

// Save writes cfg to path using atomic rename. The format follows the
// extension (.json for JSON, otherwise YAML).
func Save(path string, cfg Config) error {
	var data []byte
	var err error
	if formatOf(path) == "json" {
		data, err = json.MarshalIndent(cfg, "", "  ")
		data = append(data, '\n')
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}

func formatOf(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return "json"
	}
	return "yaml"
}
