package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"
)

// EnvPrefix prefixes every environment override, e.g.
// CONTAINER_APPS_COMMAND_TIMEOUT.
const EnvPrefix = "CONTAINER_APPS"

// Config holds the client settings.
type Config struct {
	BackendCommand   string
	SuperuserCommand []string
	CommandTimeout   time.Duration
	SearchDebounce   time.Duration
	DefaultStore     string
	LogFile          string
	LogLevel         string
}

const (
	defaultConfigPath     = "~/.config/container-apps/config.toml"
	defaultBackendCommand = "cockpit-container-apps"
	defaultCommandTimeout = 30 * time.Second
	defaultSearchDebounce = 300 * time.Millisecond
	defaultLogFile        = "~/.local/state/container-apps/container-apps.log"
	defaultLogLevel       = "info"
)

// fileConfig is the on-disk and environment shape. Durations stay strings
// until validated. Environment keys are read only under EnvPrefix.
type fileConfig struct {
	BackendCommand   string `toml:"backend_command" split_words:"true"`
	SuperuserCommand string `toml:"superuser_command" split_words:"true"`
	CommandTimeout   string `toml:"command_timeout" split_words:"true"`
	SearchDebounce   string `toml:"search_debounce" split_words:"true"`
	DefaultStore     string `toml:"default_store" split_words:"true"`
	LogFile          string `toml:"log_file" split_words:"true"`
	LogLevel         string `toml:"log_level" split_words:"true"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		BackendCommand: defaultBackendCommand,
		CommandTimeout: defaultCommandTimeout,
		SearchDebounce: defaultSearchDebounce,
		LogFile:        mustExpand(defaultLogFile),
		LogLevel:       defaultLogLevel,
	}
}

// DefaultPath returns the default config file path.
func DefaultPath() string {
	return defaultConfigPath
}

// Load reads the config file, falling back to defaults when it is missing,
// then applies CONTAINER_APPS_* environment overrides.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	var raw fileConfig
	file, err := os.Open(resolved)
	switch {
	case err == nil:
		defer file.Close()
		bytes, err := io.ReadAll(file)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := toml.Unmarshal(bytes, &raw); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return Config{}, fmt.Errorf("open config: %w", err)
	}

	if err := envconfig.Process(EnvPrefix, &raw); err != nil {
		return Config{}, fmt.Errorf("environment overrides: %w", err)
	}
	return raw.resolve()
}

func (raw fileConfig) resolve() (Config, error) {
	cfg := Default()

	if v := strings.TrimSpace(raw.BackendCommand); v != "" {
		cfg.BackendCommand = v
	}
	if fields := strings.Fields(raw.SuperuserCommand); len(fields) > 0 {
		cfg.SuperuserCommand = fields
	}
	cfg.DefaultStore = strings.TrimSpace(raw.DefaultStore)

	var err error
	if cfg.CommandTimeout, err = parseDuration("command_timeout", raw.CommandTimeout, defaultCommandTimeout); err != nil {
		return Config{}, err
	}
	if cfg.SearchDebounce, err = parseDuration("search_debounce", raw.SearchDebounce, defaultSearchDebounce); err != nil {
		return Config{}, err
	}

	if v := strings.TrimSpace(raw.LogFile); v != "" {
		cfg.LogFile = mustExpand(v)
	}
	if v := strings.ToLower(strings.TrimSpace(raw.LogLevel)); v != "" {
		if _, err := zerolog.ParseLevel(v); err != nil {
			return Config{}, fmt.Errorf("invalid log_level %q", v)
		}
		cfg.LogLevel = v
	}
	return cfg, nil
}

func parseDuration(name, value string, fallback time.Duration) (time.Duration, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(trimmed)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, trimmed, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be positive", name, trimmed)
	}
	return d, nil
}

// ExpandPath resolves "~" and makes path absolute.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
