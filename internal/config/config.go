package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/marcus/adminui/pkg/console/modal"
)

const configFile = ".adminui/config.json"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "ADMINUI_"

// Duration is a time.Duration written as text ("150ms") in the config file
// and in the environment.
type Duration struct {
	time.Duration
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", b, err)
	}
	d.Duration = v
	return nil
}

// Config holds the console settings.
type Config struct {
	BaseURL        string   `json:"base_url,omitempty" env:"BASE_URL"`
	RequestTimeout Duration `json:"request_timeout" env:"REQUEST_TIMEOUT"`
	LogLevel       string   `json:"log_level,omitempty" env:"LOG_LEVEL"`
	LogFile        string   `json:"log_file,omitempty" env:"LOG_FILE"`

	// OffsetLeft and OffsetTop are the per-depth modal stacking offsets in
	// cells.
	OffsetLeft     int      `json:"offset_left" env:"OFFSET_LEFT"`
	OffsetTop      int      `json:"offset_top" env:"OFFSET_TOP"`
	ResizeDebounce Duration `json:"resize_debounce" env:"RESIZE_DEBOUNCE"`

	Messages modal.Messages `json:"messages"`

	// EnvFiles are .env files, relative to the config's base directory,
	// read before environment overrides are applied.
	EnvFiles []string `json:"env_files,omitempty"`
}

// Default returns the settings used when no config file exists. Offsets are
// in terminal cells, so they are smaller than the pixel defaults of the
// engine.
func Default() *Config {
	return &Config{
		RequestTimeout: Duration{30 * time.Second},
		LogLevel:       "info",
		OffsetLeft:     4,
		OffsetTop:      2,
		ResizeDebounce: Duration{150 * time.Millisecond},
		Messages:       modal.DefaultMessages(),
	}
}

// Stack returns the modal manager configuration.
func (c *Config) Stack() modal.Config {
	return modal.Config{
		Left:           c.OffsetLeft,
		Top:            c.OffsetTop,
		ResizeDebounce: c.ResizeDebounce.Duration,
		Messages:       c.Messages,
	}
}

// Path returns the config file location under baseDir.
func Path(baseDir string) string {
	return filepath.Join(baseDir, configFile)
}

// Load reads the config from disk and applies environment overrides. A
// missing file yields the defaults.
func Load(baseDir string) (*Config, error) {
	cfg := Default()
	configPath := Path(baseDir)

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", configPath, err)
		}
	case !os.IsNotExist(err):
		return nil, err
	}

	vars, err := environment(baseDir, cfg.EnvFiles)
	if err != nil {
		return nil, err
	}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix, Environment: vars}); err != nil {
		return nil, fmt.Errorf("apply environment: %w", err)
	}
	return cfg, nil
}

// Save writes the config to disk.
func Save(baseDir string, cfg *Config) error {
	configPath := Path(baseDir)

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}

// environment merges the env files, in order, under the process
// environment. Process variables win.
func environment(baseDir string, files []string) (map[string]string, error) {
	out := make(map[string]string)
	for _, name := range files {
		if name == "" {
			continue
		}
		path := name
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, name)
		}
		vars, err := godotenv.Read(path)
		if err != nil {
			return nil, fmt.Errorf("load env file %q: %w", path, err)
		}
		for k, v := range vars {
			out[k] = v
		}
	}
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if ok {
			out[k] = v
		}
	}
	return out, nil
}
