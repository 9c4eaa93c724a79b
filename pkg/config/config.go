// Package config loads flowbuilder settings from TOML.
//
// Every field has a default, so an absent or partial file is valid:
//
//	[history]
//	limit = 50
//	debounce = "1s"
//
//	[connections]
//	limit_per_handle = 1
//
//	[layout]
//	direction = "LR"
//
//	[handles.inputs]
//	"telegram.response" = "payload"
//
//	[log]
//	format = "json"
//
//	[store]
//	backend = "redis"
//	addr = "localhost:6379"
//
// The file is looked up at $XDG_CONFIG_HOME/flowbuilder/config.toml, or
// ~/.config/flowbuilder/config.toml.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	ferrors "github.com/matzehuels/flowbuilder/pkg/errors"
	"github.com/matzehuels/flowbuilder/pkg/graph"
	"github.com/matzehuels/flowbuilder/pkg/history"
	"github.com/matzehuels/flowbuilder/pkg/layout"
	"github.com/matzehuels/flowbuilder/pkg/registry"
	"github.com/matzehuels/flowbuilder/pkg/store"
)

const appName = "flowbuilder"

// Duration is a time.Duration written as a Go duration string ("1s",
// "250ms") in TOML.
type Duration struct{ time.Duration }

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// Config is the full configuration.
type Config struct {
	// Registry is the path of the node registry JSON. Empty means no
	// registry: every connection is allowed.
	Registry string `toml:"registry"`

	History     HistoryConfig           `toml:"history"`
	Connections ConnectionsConfig       `toml:"connections"`
	Clipboard   ClipboardConfig         `toml:"clipboard"`
	Layout      layout.Options          `toml:"layout"`
	Handles     registry.HandleDefaults `toml:"handles"`
	Cache       CacheConfig             `toml:"cache"`
	Store       store.Config            `toml:"store"`
	Server      ServerConfig            `toml:"server"`
	Log         LogConfig               `toml:"log"`
}

type HistoryConfig struct {
	Limit    int      `toml:"limit"`
	Debounce Duration `toml:"debounce"`
}

type ConnectionsConfig struct {
	LimitPerHandle int `toml:"limit_per_handle"`
}

type ClipboardConfig struct {
	// PasteOffset is added to both coordinates on every paste.
	PasteOffset float64 `toml:"paste_offset"`
}

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

type CacheConfig struct {
	Backend  string   `toml:"backend"`
	Dir      string   `toml:"dir"`
	Addr     string   `toml:"addr"`
	Password string   `toml:"password"`
	DB       int      `toml:"db"`
	Prefix   string   `toml:"prefix"`
	TTL      Duration `toml:"ttl"`
}

type ServerConfig struct {
	Addr         string   `toml:"addr"`
	ReadTimeout  Duration `toml:"read_timeout"`
	WriteTimeout Duration `toml:"write_timeout"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // text, logfmt or json
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		History: HistoryConfig{
			Limit:    history.DefaultLimit,
			Debounce: Duration{history.DefaultDebounce},
		},
		Connections: ConnectionsConfig{LimitPerHandle: graph.DefaultConnectionLimit},
		Clipboard:   ClipboardConfig{PasteOffset: 50},
		Layout:      layout.DefaultOptions(),
		Handles:     registry.LegacyHandleDefaults(),
		Cache:       CacheConfig{Backend: CacheFile, TTL: Duration{7 * 24 * time.Hour}},
		Store:       store.Config{Backend: store.BackendFile},
		Server: ServerConfig{
			Addr:         "127.0.0.1:8080",
			ReadTimeout:  Duration{10 * time.Second},
			WriteTimeout: Duration{30 * time.Second},
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads path on top of the defaults. Unknown keys are an error, so
// that typos do not silently fall back to defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, ferrors.Wrap(ferrors.ErrCodeInvalidInput, err, "config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, ferrors.New(ferrors.ErrCodeInvalidInput, "config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	// Configured handle fallbacks extend the built-in table.
	cfg.Handles = registry.LegacyHandleDefaults().Merge(cfg.Handles)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadDefault loads DefaultPath, or returns Default if the file does not
// exist.
func LoadDefault() (Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return Default(), nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return Load(path)
}

// DefaultPath returns the config file location.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// CacheDir returns the cache directory: the configured one, or
// $XDG_CACHE_HOME/flowbuilder, or ~/.cache/flowbuilder.
func (c Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// Validate checks ranges and enumerations.
func (c Config) Validate() error {
	var errs []error
	if c.History.Limit < 2 {
		errs = append(errs, fmt.Errorf("history.limit must be at least 2, got %d", c.History.Limit))
	}
	if c.History.Debounce.Duration < 0 {
		errs = append(errs, errors.New("history.debounce must not be negative"))
	}
	if c.Connections.LimitPerHandle < 1 {
		errs = append(errs, fmt.Errorf("connections.limit_per_handle must be at least 1, got %d", c.Connections.LimitPerHandle))
	}
	if err := c.Layout.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("layout: %w", err))
	}
	switch c.Cache.Backend {
	case CacheFile, CacheNone, "":
	case CacheRedis:
		if c.Cache.Addr == "" {
			errs = append(errs, errors.New("cache.addr is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("cache.backend %q is not one of file, redis, none", c.Cache.Backend))
	}
	if err := c.Store.Validate(); err != nil {
		errs = append(errs, err)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch c.Log.Format {
	case "", "text", "logfmt", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not one of text, logfmt, json", c.Log.Format))
	}
	if len(errs) > 0 {
		return ferrors.Wrap(ferrors.ErrCodeInvalidInput, errors.Join(errs...), "invalid config")
	}
	return nil
}

// LogLevel returns the configured log level, defaulting to info.
func (c Config) LogLevel() log.Level {
	lvl, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// LogFormatter returns the configured log formatter.
func (c Config) LogFormatter() log.Formatter {
	switch c.Log.Format {
	case "json":
		return log.JSONFormatter
	case "logfmt":
		return log.LogfmtFormatter
	default:
		return log.TextFormatter
	}
}

// ValidatorOptions returns the connection validator options.
func (c Config) ValidatorOptions() []graph.ValidatorOption {
	return []graph.ValidatorOption{
		graph.WithConnectionLimit(c.Connections.LimitPerHandle),
		graph.WithHandleDefaults(c.Handles),
	}
}

// PasteOffset returns the clipboard offset as a position.
func (c Config) PasteOffset() graph.Position {
	return graph.Position{X: c.Clipboard.PasteOffset, Y: c.Clipboard.PasteOffset}
}

// LoadRegistry reads the configured registry, or returns nil when none is
// configured.
func (c Config) LoadRegistry() (*registry.Registry, error) {
	if c.Registry == "" {
		return nil, nil
	}
	return registry.ReadFile(c.Registry)
}
